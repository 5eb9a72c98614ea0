// Package config loads the node configuration from a TOML file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"sociograph/crypto"
)

// Config is the top-level node configuration.
type Config struct {
	ListenAddress string `toml:"ListenAddress"`
	DataDir       string `toml:"DataDir"`
	// RPCAuthToken guards mutating JSON-RPC methods; empty disables auth.
	RPCAuthToken string `toml:"RPCAuthToken"`
	Environment  string `toml:"Environment"`

	Governance     string `toml:"Governance"`
	EmergencyAdmin string `toml:"EmergencyAdmin"`

	FeeCollect FeeCollectConfig `toml:"feecollect"`
	Log        LogConfig        `toml:"log"`
}

// FeeCollectConfig parameterizes the built-in fee collect module.
type FeeCollectConfig struct {
	Admin               string `toml:"Admin"`
	Treasury            string `toml:"Treasury"`
	TreasuryFeeBps      uint64 `toml:"TreasuryFeeBps"`
	CollectRewardFeeBps uint64 `toml:"CollectRewardFeeBps"`
	ReferralFeeBps      uint64 `toml:"ReferralFeeBps"`
}

// LogConfig bounds the rotated log file. An empty Path logs to stdout only.
type LogConfig struct {
	Path       string `toml:"Path"`
	MaxSizeMB  int    `toml:"MaxSizeMB"`
	MaxBackups int    `toml:"MaxBackups"`
	MaxAgeDays int    `toml:"MaxAgeDays"`
}

const defaultConfig = `ListenAddress = "0.0.0.0:8645"
DataDir = "./soc-data"
RPCAuthToken = ""
Environment = "local"

Governance = ""
EmergencyAdmin = ""

[feecollect]
Admin = ""
Treasury = ""
TreasuryFeeBps = 500
CollectRewardFeeBps = 1000
ReferralFeeBps = 250

[log]
Path = ""
MaxSizeMB = 100
MaxBackups = 5
MaxAgeDays = 14
`

// Load reads the configuration at path, creating a default file when none
// exists.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := writeDefault(path); err != nil {
			return nil, err
		}
	}
	cfg := &Config{}
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("config file %s contains unknown key %q", path, undecoded[0].String())
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func writeDefault(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, []byte(defaultConfig), 0o644)
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.ListenAddress) == "" {
		c.ListenAddress = "0.0.0.0:8645"
	}
	if strings.TrimSpace(c.DataDir) == "" {
		c.DataDir = "./soc-data"
	}
	if strings.TrimSpace(c.Environment) == "" {
		c.Environment = "local"
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = 100
	}
	if c.Log.MaxBackups == 0 {
		c.Log.MaxBackups = 5
	}
	if c.Log.MaxAgeDays == 0 {
		c.Log.MaxAgeDays = 14
	}
}

// Validate checks address fields and fee parameters. Empty addresses are
// allowed; the node falls back to sensible defaults at wiring time.
func (c *Config) Validate() error {
	for _, field := range []struct {
		name  string
		value string
	}{
		{"Governance", c.Governance},
		{"EmergencyAdmin", c.EmergencyAdmin},
		{"feecollect.Admin", c.FeeCollect.Admin},
		{"feecollect.Treasury", c.FeeCollect.Treasury},
	} {
		if strings.TrimSpace(field.value) == "" {
			continue
		}
		if _, err := crypto.DecodeAddress(strings.TrimSpace(field.value)); err != nil {
			return fmt.Errorf("config: invalid %s address: %w", field.name, err)
		}
	}
	if c.FeeCollect.TreasuryFeeBps+c.FeeCollect.CollectRewardFeeBps+c.FeeCollect.ReferralFeeBps > 10_000 {
		return fmt.Errorf("config: feecollect fee shares exceed 10000 bps")
	}
	return nil
}

// Address decodes a configured bech32 address field, returning the zero
// address for the empty string.
func Address(value string) ([20]byte, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return [20]byte{}, nil
	}
	addr, err := crypto.DecodeAddress(trimmed)
	if err != nil {
		return [20]byte{}, err
	}
	return addr.Array(), nil
}
