package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	cfg := &Config{
		ServerURL: "https://archive.example.org",
		APIToken:  "tok123",
	}
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.ServerURL, loaded.ServerURL)
	assert.Equal(t, cfg.APIToken, loaded.APIToken)
	assert.Equal(t, path, loaded.Path)
}

func TestConfigValidate(t *testing.T) {
	cfg := &Config{}
	assert.Error(t, cfg.Validate())

	cfg.ServerURL = "::not-a-url"
	assert.Error(t, cfg.Validate())

	cfg.ServerURL = "https://archive.example.org"
	require.NoError(t, cfg.Validate())
	assert.Equal(t, DefaultCacheDir, cfg.CacheDir)
}
