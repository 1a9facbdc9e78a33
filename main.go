package main

import (
	"context"
	"errors"
	"os"
	"path"

	"github.com/camscan-io/camscan/cli/commands"
	app_info "github.com/camscan-io/camscan/internal/app-info"
	"github.com/camscan-io/camscan/internal/config"
	"github.com/camscan-io/camscan/internal/event"
	"github.com/camscan-io/camscan/internal/logger"
	"github.com/camscan-io/camscan/internal/onvif"
	"github.com/camscan-io/camscan/internal/rtsp"
	"github.com/camscan-io/camscan/internal/scan"
	"github.com/camscan-io/camscan/internal/wsdiscovery"
	"github.com/spf13/viper"
)

/**
 * Main entry point for all commands
 * Here we setup environment config via viper
 */

func setRunTimeConfig() error {
	userHomeDir, err := os.UserHomeDir()

	if err != nil {
		return err
	}

	configDir := path.Join(userHomeDir, ".config", app_info.NAME)

	if err := os.MkdirAll(configDir, 0755); err != nil && !errors.Is(err, os.ErrExist) {
		return err
	}

	configFile := path.Join(configDir, "config.yml")

	// share run-time config globally using viper
	viper.Set("config-dir", configDir)
	viper.Set("config-path", configFile)

	return nil
}

// Entry point for the cli
func main() {
	log := logger.New()

	err := setRunTimeConfig()

	if err != nil {
		log.Fatal().Err(err).Msg("")
	}

	conf, err := config.New(viper.GetString("config-path"))

	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	prober := wsdiscovery.NewProber(
		conf.Discovery.MulticastAddr,
		conf.Discovery.ProbeTimeout(),
		conf.Discovery.SweepCIDRs,
	)

	inspector := onvif.NewInspector(conf.Discovery.DeviceTimeout())

	streamProber := rtsp.NewProber(conf.Test.Timeout())

	service := scan.NewService(
		prober,
		inspector,
		streamProber,
		event.NewRegistry(),
		conf.Discovery.Concurrency,
		conf.Discovery.ScanTimeout(),
		conf.Freshness(),
	)

	// Get the "root" cobra cli command
	cmd := commands.Root(&commands.CommandProps{
		Service: service,
	})

	// execute the cobra command and exit with error code if necessary
	err = cmd.ExecuteContext(context.Background())

	if err != nil {
		log.Fatal().Err(err).Msg("")
	}
}
