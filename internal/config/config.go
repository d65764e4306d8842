// Package config loads server configuration from a YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ServerConf holds HTTP listener settings.
type ServerConf struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LogConf holds logging settings.
type LogConf struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

// StoreConf holds persistence settings.
type StoreConf struct {
	Path string `yaml:"path"`
}

// LedgerConf holds ledger client settings. Endpoints maps a network name
// (Testnet, Localnet) to the base URL of its ledger client service.
type LedgerConf struct {
	Endpoints     map[string]string `yaml:"endpoints"`
	CreateTimeout time.Duration     `yaml:"create_timeout"`
	CallTimeout   time.Duration     `yaml:"call_timeout"`
}

// DeskConf holds desk note routing settings.
type DeskConf struct {
	RouteTimeout time.Duration `yaml:"route_timeout"`
}

// Config is the top-level server configuration.
type Config struct {
	Server ServerConf `yaml:"server"`
	Log    LogConf    `yaml:"log"`
	Store  StoreConf  `yaml:"store"`
	Ledger LedgerConf `yaml:"ledger"`
	Desk   DeskConf   `yaml:"desk"`
}

// Default returns the configuration used when no file is provided.
func Default() Config {
	return Config{
		Server: ServerConf{
			Addr:            ":8700",
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConf{
			Level: "info",
		},
		Store: StoreConf{
			Path: "mosaic.sqlite3",
		},
		Ledger: LedgerConf{
			Endpoints: map[string]string{
				"Testnet":  "http://localhost:57291",
				"Localnet": "http://localhost:57292",
			},
			CreateTimeout: 60 * time.Second,
			CallTimeout:   30 * time.Second,
		},
		Desk: DeskConf{
			RouteTimeout: 15 * time.Second,
		},
	}
}

// Load reads configuration from path. A missing path returns defaults.
// Environment variables MOSAIC_ADDR, MOSAIC_LOG_LEVEL and MOSAIC_STORE_PATH
// override the file values when set.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("cannot read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("cannot parse config file: %w", err)
		}
	}

	applyEnv(&cfg)

	if cfg.Server.Addr == "" {
		return Config{}, fmt.Errorf("server.addr must not be empty")
	}
	if cfg.Store.Path == "" {
		return Config{}, fmt.Errorf("store.path must not be empty")
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("MOSAIC_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("MOSAIC_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("MOSAIC_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("MOSAIC_LEDGER_CREATE_TIMEOUT_SEC"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.Ledger.CreateTimeout = time.Duration(secs) * time.Second
		}
	}
}
