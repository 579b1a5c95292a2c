package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "tome.yml")
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))
	return configPath
}

func TestLoad_MinimalConfigAppliesDefaults(t *testing.T) {
	configPath := writeConfig(t, `version: "1.0"`)

	config, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, DefaultLibrary, config.Library)
	assert.Equal(t, BackendFile, config.Storage.Backend)
	assert.Equal(t, filepath.Join(filepath.Dir(configPath), DefaultFilePath), config.Storage.File.Path)
	assert.Equal(t, DefaultSearchLimit, config.SearchLimit())
	assert.Equal(t, DefaultNotificationTTL, config.NotificationTTL())
	assert.True(t, config.SeedCampaigns())
}

func TestLoad_FullConfig(t *testing.T) {
	configPath := writeConfig(t, `version: "1.0"
library: westmarch
storage:
  backend: redis
  redis:
    url: redis://cache:6380/2
search:
  limit: 5
notifications:
  ttl: 10s
campaigns:
  seed: false
`)

	config, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, "westmarch", config.Library)
	assert.Equal(t, BackendRedis, config.Storage.Backend)
	assert.Equal(t, "redis://cache:6380/2", config.Storage.Redis.URL)
	assert.Nil(t, config.Storage.File)
	assert.Equal(t, 5, config.SearchLimit())
	assert.Equal(t, 10*time.Second, config.NotificationTTL())
	assert.False(t, config.SeedCampaigns())
}

func TestLoad_BadgerRelativeDir(t *testing.T) {
	configPath := writeConfig(t, `version: "1.0"
storage:
  backend: badger
`)

	config, err := Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(filepath.Dir(configPath), DefaultBadgerDir), config.Storage.Badger.Dir)
}

func TestLoad_AbsolutePathsKept(t *testing.T) {
	abs := filepath.Join(t.TempDir(), "elsewhere.json")
	configPath := writeConfig(t, "version: \"1.0\"\nstorage:\n  file:\n    path: "+abs+"\n")

	config, err := Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, abs, config.Storage.File.Path)
}

func TestLoad_FileNotFound(t *testing.T) {
	config, err := Load("/nonexistent/tome.yml")
	assert.Error(t, err)
	assert.Nil(t, config)
	assert.Contains(t, err.Error(), "failed to read config")
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := writeConfig(t, `version: "1.0"
storage:
  - this is invalid
    yaml syntax
`)

	config, err := Load(configPath)
	assert.Error(t, err)
	assert.Nil(t, config)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestValidate_Errors(t *testing.T) {
	limit := 0
	tests := []struct {
		name    string
		config  TomeConfig
		wantErr string
	}{
		{
			name:    "unsupported version",
			config:  TomeConfig{Version: "2.0"},
			wantErr: "unsupported version: 2.0",
		},
		{
			name:    "missing version",
			config:  TomeConfig{},
			wantErr: "unsupported version",
		},
		{
			name:    "unknown backend",
			config:  TomeConfig{Version: "1.0", Storage: &StorageConfig{Backend: "postgres"}},
			wantErr: "invalid storage.backend: postgres",
		},
		{
			name:    "search limit too small",
			config:  TomeConfig{Version: "1.0", Search: &SearchConfig{Limit: &limit}},
			wantErr: "search.limit must be >= 1",
		},
		{
			name:    "unparseable ttl",
			config:  TomeConfig{Version: "1.0", Notifications: &NotificationsConfig{TTL: "soon"}},
			wantErr: "notifications.ttl: invalid duration",
		},
		{
			name:    "negative ttl",
			config:  TomeConfig{Version: "1.0", Notifications: &NotificationsConfig{TTL: "-1s"}},
			wantErr: "notifications.ttl must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDefault(t *testing.T) {
	config := Default()
	assert.Equal(t, "1.0", config.Version)
	assert.Equal(t, BackendFile, config.Storage.Backend)
	assert.Equal(t, DefaultFilePath, config.Storage.File.Path)
}

func TestState(t *testing.T) {
	base := t.TempDir()
	path := StatePath(base)

	state, err := LoadState(path)
	require.NoError(t, err)
	assert.Empty(t, state.ActiveCampaign)

	require.NoError(t, SaveState(path, &State{ActiveCampaign: "abc"}))
	state, err = LoadState(path)
	require.NoError(t, err)
	assert.Equal(t, "abc", state.ActiveCampaign)

	require.NoError(t, os.WriteFile(path, []byte("active_campaign: [oops"), 0644))
	_, err = LoadState(path)
	assert.Error(t, err)
}
