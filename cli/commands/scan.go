package commands

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/camscan-io/camscan/internal/event"
	"github.com/camscan-io/camscan/internal/logger"
	"github.com/camscan-io/camscan/internal/scan"
	"github.com/spf13/cobra"
)

// interval between result polls while a scan is running
const pollInterval = 500 * time.Millisecond

// logProgress echoes engine events to the logger until the channel closes
func logProgress(channel chan *event.Event) {
	log := logger.New()

	for evt := range channel {
		switch evt.Type {
		case event.DeviceInspectedEventType:
			if outcome, ok := evt.Payload.(*event.DeviceOutcome); ok {
				log.Info().
					Str("endpoint", outcome.Endpoint).
					Bool("requiresAuth", outcome.RequiresAuth).
					Int("profiles", outcome.ProfileCount).
					Msg("camera found")
			}
		case event.DeviceExcludedEventType:
			if outcome, ok := evt.Payload.(*event.DeviceOutcome); ok {
				log.Debug().
					Str("endpoint", outcome.Endpoint).
					Str("reason", outcome.Reason).
					Msg("device excluded")
			}
		}
	}
}

func scan2json(result *scan.DiscoveryResult) (string, error) {
	out, err := json.MarshalIndent(result, "", "  ")

	if err != nil {
		return "", err
	}

	return string(out), nil
}

func scanCmd(props *CommandProps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan the local network for cameras",
		RunE: func(cmd *cobra.Command, args []string) error {
			service := props.Service

			channel := make(chan *event.Event, 64)

			id := service.RegisterListener(channel)

			go logProgress(channel)

			defer func() {
				service.RemoveListener(id)
				close(channel)
			}()

			service.StartDiscovery()

			for {
				select {
				case <-cmd.Context().Done():
					return cmd.Context().Err()
				case <-time.After(pollInterval):
				}

				result, err := service.PollDiscovery()

				if err != nil {
					return err
				}

				if result.Status == scan.StatusScanning {
					continue
				}

				out, err := scan2json(result)

				if err != nil {
					return err
				}

				fmt.Fprintln(cmd.OutOrStdout(), out)

				if result.Status == scan.StatusError {
					return fmt.Errorf("scan failed: %s", result.Error)
				}

				return nil
			}
		},
	}

	return cmd
}
