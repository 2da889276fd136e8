// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package util

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/algorand/go-algorand-sdk/v2/types"
	"gopkg.in/yaml.v3"
)

// DataDirEnv overrides the default data directory
const DataDirEnv = "APVAULT_DATA"

// RentConfig overrides the ledger rent schedule. Zero fields keep the defaults.
type RentConfig struct {
	PerByte         uint64 `yaml:"per_byte" description:"Rent per byte of account storage (0 = default)"`
	AccountOverhead uint64 `yaml:"account_overhead" description:"Bytes charged per account on top of its data (0 = default)"`
}

// Config holds apvault configuration settings
type Config struct {
	ProgramID       string     `yaml:"program_id" description:"Vault program namespace address (empty = built-in)"`
	LedgerPath      string     `yaml:"ledger_path" description:"Ledger database directory (relative to data dir)" default:"ledger"`
	KeysDir         string     `yaml:"keys_dir" description:"Encrypted key directory (relative to data dir)" default:"keys"`
	Rent            RentConfig `yaml:"rent" description:"Rent schedule overrides"`
	DeriveCacheSize int        `yaml:"derive_cache_size" description:"Derived address cache entries" default:"1024"`
	MetricsFile     string     `yaml:"metrics_file" description:"Prometheus textfile written after each run (empty = disabled)"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		LedgerPath:      "ledger",
		KeysDir:         "keys",
		DeriveCacheSize: 1024,
	}
}

// GetDataDir returns the apvault data directory.
// Resolution order: -d flag > APVAULT_DATA env var > ~/.apvault
func GetDataDir(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envDir := os.Getenv(DataDirEnv); envDir != "" {
		return envDir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".apvault")
}

// GetConfigPath returns the path to config.yaml in dataDir
func GetConfigPath(dataDir string) string {
	if dataDir == "" {
		return ""
	}
	return filepath.Join(dataDir, "config.yaml")
}

// ResolvePath makes a relative path relative to baseDir
func ResolvePath(path, baseDir string) string {
	if path == "" || baseDir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// LoadConfig loads config.yaml from dataDir, returning defaults when the
// file does not exist. Relative paths are resolved against dataDir.
func LoadConfig(dataDir string) (Config, error) {
	config, err := LoadConfigFromPath(GetConfigPath(dataDir))
	if err != nil {
		return config, err
	}

	config.LedgerPath = ResolvePath(config.LedgerPath, dataDir)
	config.KeysDir = ResolvePath(config.KeysDir, dataDir)
	config.MetricsFile = ResolvePath(config.MetricsFile, dataDir)
	return config, nil
}

// LoadConfigFromPath loads configuration from path.
// An empty path or a missing file yields the defaults.
func LoadConfigFromPath(path string) (Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults, then overlay config file values
	config := DefaultConfig()
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	if config.ProgramID != "" {
		if _, err := types.DecodeAddress(config.ProgramID); err != nil {
			return Config{}, fmt.Errorf("invalid program_id '%s': %w", config.ProgramID, err)
		}
	}
	if config.DeriveCacheSize < 0 {
		return Config{}, fmt.Errorf("derive_cache_size must not be negative, got %d", config.DeriveCacheSize)
	}

	// Fill in defaults for missing values
	defaults := DefaultConfig()
	if config.LedgerPath == "" {
		config.LedgerPath = defaults.LedgerPath
	}
	if config.KeysDir == "" {
		config.KeysDir = defaults.KeysDir
	}
	if config.DeriveCacheSize == 0 {
		config.DeriveCacheSize = defaults.DeriveCacheSize
	}
	return config, nil
}

// ProgramAddress returns the configured program namespace; ok is false when
// none is configured.
func (c Config) ProgramAddress() (addr types.Address, ok bool, err error) {
	if c.ProgramID == "" {
		return types.Address{}, false, nil
	}
	addr, err = types.DecodeAddress(c.ProgramID)
	if err != nil {
		return types.Address{}, false, fmt.Errorf("invalid program_id: %w", err)
	}
	return addr, true, nil
}
