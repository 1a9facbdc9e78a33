package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/imdario/mergo"
	"gopkg.in/yaml.v3"
)

// DiscoveryConfig tuning knobs for the scan pipeline
type DiscoveryConfig struct {
	// ProbeTimeoutSeconds how long to collect WS-Discovery ProbeMatch replies
	ProbeTimeoutSeconds int `yaml:"probe-timeout-seconds"`
	// ScanTimeoutSeconds overall budget for a single scan
	ScanTimeoutSeconds int `yaml:"scan-timeout-seconds"`
	// DeviceTimeoutSeconds total ONVIF query budget per device
	DeviceTimeoutSeconds int `yaml:"device-timeout-seconds"`
	// Concurrency cap on simultaneous device inspections
	Concurrency int `yaml:"concurrency"`
	// MulticastAddr WS-Discovery group address
	MulticastAddr string `yaml:"multicast-addr"`
	// SweepCIDRs optional targets for the unicast probe sweep. Useful when
	// multicast is filtered between the scanner and the camera VLAN.
	SweepCIDRs []string `yaml:"sweep-cidrs"`
}

// TestConfig tuning knobs for stream connection testing
type TestConfig struct {
	TimeoutSeconds int `yaml:"timeout-seconds"`
}

// Config represents the data structure of our user provided yaml configuration
type Config struct {
	Discovery DiscoveryConfig `yaml:"discovery"`
	Test      TestConfig      `yaml:"test"`
	// FreshnessSeconds how long a terminal scan result is served before
	// it is reported as expired
	FreshnessSeconds int `yaml:"freshness-seconds"`
}

// Default returns the engine defaults
func Default() *Config {
	return &Config{
		Discovery: DiscoveryConfig{
			ProbeTimeoutSeconds:  10,
			ScanTimeoutSeconds:   45,
			DeviceTimeoutSeconds: 2,
			Concurrency:          10,
			MulticastAddr:        "239.255.255.250:3702",
			SweepCIDRs:           []string{},
		},
		Test: TestConfig{
			TimeoutSeconds: 5,
		},
		FreshnessSeconds: 300,
	}
}

// New returns the unmarshaled user config merged over defaults. A missing
// file is not an error; defaults are returned.
func New(confPath string) (*Config, error) {
	conf := &Config{}

	raw, err := os.ReadFile(confPath)

	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}

		return nil, err
	}

	if err := yaml.Unmarshal(raw, conf); err != nil {
		return nil, err
	}

	if err := mergo.Merge(conf, Default()); err != nil {
		return nil, err
	}

	if err := conf.Validate(); err != nil {
		return nil, err
	}

	return conf, nil
}

// Validate reports the first invalid field
func (c *Config) Validate() error {
	if c.Discovery.Concurrency < 1 {
		return errors.New("discovery concurrency must be at least 1")
	}

	if c.Discovery.ProbeTimeoutSeconds < 1 ||
		c.Discovery.ScanTimeoutSeconds < 1 ||
		c.Discovery.DeviceTimeoutSeconds < 1 ||
		c.Test.TimeoutSeconds < 1 {
		return errors.New("timeouts must be at least 1 second")
	}

	if _, err := net.ResolveUDPAddr("udp4", c.Discovery.MulticastAddr); err != nil {
		return fmt.Errorf("invalid multicast address %q: %w", c.Discovery.MulticastAddr, err)
	}

	for _, cidr := range c.Discovery.SweepCIDRs {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			return fmt.Errorf("invalid sweep cidr %q: %w", cidr, err)
		}
	}

	return nil
}

// ProbeTimeout the ProbeMatch collection window
func (c DiscoveryConfig) ProbeTimeout() time.Duration {
	return time.Duration(c.ProbeTimeoutSeconds) * time.Second
}

// ScanTimeout the overall scan budget
func (c DiscoveryConfig) ScanTimeout() time.Duration {
	return time.Duration(c.ScanTimeoutSeconds) * time.Second
}

// DeviceTimeout the per-device inspection budget
func (c DiscoveryConfig) DeviceTimeout() time.Duration {
	return time.Duration(c.DeviceTimeoutSeconds) * time.Second
}

// Timeout the stream test budget
func (c TestConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Freshness how long terminal results remain servable
func (c *Config) Freshness() time.Duration {
	return time.Duration(c.FreshnessSeconds) * time.Second
}
