package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/openarchive/arcsync/internal/utils"
)

var (
	home, _           = os.UserHomeDir()
	DefaultConfigPath = filepath.Join(home, ".arcsync", "config.json")
	DefaultCacheDir   = filepath.Join(home, ".arcsync", "cache")
	DefaultServerURL  = "https://api.archive.openarchive.dev"
)

// Config is the client-side configuration for talking to an archive server.
type Config struct {
	ServerURL string `json:"server_url"`
	APIToken  string `json:"api_token"`
	CacheDir  string `json:"cache_dir"`
	Path      string `json:"-"`
}

func (c *Config) Validate() error {
	if c.ServerURL == "" {
		return fmt.Errorf("server url is required")
	}
	if _, err := url.ParseRequestURI(c.ServerURL); err != nil {
		return fmt.Errorf("invalid server url %q: %w", c.ServerURL, err)
	}
	if c.CacheDir == "" {
		c.CacheDir = DefaultCacheDir
	}
	return nil
}

func (c *Config) Save(path string) error {
	if err := utils.EnsureParent(path); err != nil {
		return err
	}

	data, err := json.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.Path = path
	if cfg.ServerURL == "" {
		cfg.ServerURL = DefaultServerURL
	}

	return &cfg, nil
}
