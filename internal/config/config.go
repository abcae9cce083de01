package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/adrg/xdg"
)

// Config is the settings file for ocusage. Empty paths mean "use the
// package defaults" and are resolved by the caller.
type Config struct {
	// StoragePath overrides where OpenCode usage parts are read from.
	StoragePath string `json:"storage_path,omitempty"`
	// DatabasePath overrides where the snapshot database lives.
	DatabasePath string `json:"database_path,omitempty"`
	// RetentionDays bounds how far back snapshots are kept by prune.
	RetentionDays int `json:"retention_days"`
	// CacheTTLSeconds bounds how often a full storage rescan may run.
	CacheTTLSeconds int `json:"cache_ttl_seconds"`
}

const (
	defaultRetentionDays   = 365
	defaultCacheTTLSeconds = 300
)

func DefaultConfig() Config {
	return Config{
		RetentionDays:   defaultRetentionDays,
		CacheTTLSeconds: defaultCacheTTLSeconds,
	}
}

func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, "ocusage")
}

func ConfigPath() string {
	return filepath.Join(ConfigDir(), "settings.json")
}

func Load() (Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads the settings file, falling back to defaults when the
// file is absent and coercing out-of-range values.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.RetentionDays <= 0 {
		cfg.RetentionDays = defaultRetentionDays
	}
	if cfg.CacheTTLSeconds <= 0 {
		cfg.CacheTTLSeconds = defaultCacheTTLSeconds
	}

	return cfg, nil
}

// saveMu guards read-modify-write cycles on the config file.
var saveMu sync.Mutex

func Save(cfg Config) error {
	return SaveTo(ConfigPath(), cfg)
}

func SaveTo(path string, cfg Config) error {
	saveMu.Lock()
	defer saveMu.Unlock()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
