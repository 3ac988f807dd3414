package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	configFile := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte(content), 0600))
	return configFile
}

func TestLoadCollectorConfig(t *testing.T) {
	tests := []struct {
		name        string
		configFile  string
		expectError bool
		validate    func(*testing.T, *CollectorConfig)
	}{
		{
			name: "valid config file",
			configFile: `
debug: true
sentry_dsn: "https://sentry.example.com"
database:
  host: localhost
  port: 5433
  user: testuser
  password: testpass
  dbname: testdb
  sslmode: require
explorer:
  base_url: "https://example.com/api/v0/transactions"
  api_key: "secret"
  page_size: 500
  start_date: "2025-10-01"
  request_interval: "2s"
scheduler:
  interval: "5m"
  max_pages: 50
`,
			expectError: false,
			validate: func(t *testing.T, cfg *CollectorConfig) {
				assert.True(t, cfg.Debug)
				assert.Equal(t, "https://sentry.example.com", cfg.SentryDSN)
				assert.Equal(t, "localhost", cfg.Database.Host)
				assert.Equal(t, 5433, cfg.Database.Port)
				assert.Equal(t, "require", cfg.Database.SSLMode)
				assert.Equal(t, "secret", cfg.Explorer.APIKey)
				assert.Equal(t, 500, cfg.Explorer.PageSize)
				assert.Equal(t, "2025-10-01", cfg.Explorer.StartDate)
				assert.Equal(t, 2*time.Second, cfg.Explorer.RequestInterval)
				assert.Equal(t, 5*time.Minute, cfg.Scheduler.Interval)
				assert.Equal(t, 50, cfg.Scheduler.MaxPages)
			},
		},
		{
			name: "config with defaults",
			configFile: `
database:
  host: localhost
  user: testuser
  password: testpass
  dbname: testdb
`,
			expectError: false,
			validate: func(t *testing.T, cfg *CollectorConfig) {
				// Check defaults
				assert.Equal(t, 5432, cfg.Database.Port)
				assert.Equal(t, "disable", cfg.Database.SSLMode)
				assert.Equal(t, "https://explorer.near-intents.org/api/v0/transactions", cfg.Explorer.BaseURL)
				assert.Equal(t, 1000, cfg.Explorer.PageSize)
				assert.Equal(t, time.Second, cfg.Explorer.RequestInterval)
				assert.Equal(t, 30*time.Second, cfg.Explorer.HTTPTimeout)
				assert.Equal(t, 10*time.Minute, cfg.Scheduler.Interval)
				assert.Equal(t, 0, cfg.Scheduler.MaxPages)
			},
		},
		{
			name: "missing database host",
			configFile: `
database:
  dbname: testdb
`,
			expectError: true,
		},
		{
			name: "invalid yaml",
			configFile: `
				database:
				  host: localhost
				  port: invalid
			`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configFile := writeConfigFile(t, tt.configFile)

			cfg, err := LoadCollectorConfig(configFile, t.TempDir())
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.validate != nil {
				tt.validate(t, cfg)
			}
		})
	}
}

func TestLoadCollectorConfigFromEnv(t *testing.T) {
	t.Setenv("BRIDGE_INDEXER_DATABASE_HOST", "envhost")
	t.Setenv("BRIDGE_INDEXER_DATABASE_DBNAME", "envdb")
	t.Setenv("BRIDGE_INDEXER_EXPLORER_API_KEY", "env-key")
	t.Setenv("BRIDGE_INDEXER_SCHEDULER_INTERVAL", "3m")

	// empty dirs: no config.yaml, no .env files
	tmpDir := t.TempDir()
	t.Chdir(tmpDir)

	cfg, err := LoadCollectorConfig("", tmpDir)
	require.NoError(t, err)

	assert.Equal(t, "envhost", cfg.Database.Host)
	assert.Equal(t, "envdb", cfg.Database.DBName)
	assert.Equal(t, "env-key", cfg.Explorer.APIKey)
	assert.Equal(t, 3*time.Minute, cfg.Scheduler.Interval)
}

func TestLoadAPIConfig(t *testing.T) {
	configFile := writeConfigFile(t, `
database:
  host: localhost
  dbname: testdb
auth:
  api_keys:
    - key-one
    - key-two
`)

	cfg, err := LoadAPIConfig(configFile, t.TempDir())
	require.NoError(t, err)

	// server defaults
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 10, cfg.Server.ReadTimeout)
	assert.Equal(t, 120, cfg.Server.IdleTimeout)
	assert.Equal(t, []string{"key-one", "key-two"}, cfg.Auth.APIKeys)
}

func TestLoadRepairConfig(t *testing.T) {
	configFile := writeConfigFile(t, `
database:
  host: localhost
  dbname: testdb
`)

	cfg, err := LoadRepairConfig(configFile, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Workers)
}

func TestDatabaseDSN(t *testing.T) {
	db := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "user",
		Password: "pass",
		DBName:   "bridge",
		SSLMode:  "disable",
	}
	assert.Equal(t,
		"host=localhost port=5432 user=user password=pass dbname=bridge sslmode=disable",
		db.DSN())
}
