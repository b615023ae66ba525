package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("POSTGRES_DATABASE", "imagematch")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "9090", cfg.GRPCPort)
	assert.Equal(t, 50, cfg.BatchSize)
	assert.Equal(t, "postgres", cfg.DatabaseDriver)
	assert.Equal(t, "disable", cfg.PostgresSSLMode)
	assert.Equal(t, "conv1", cfg.FilterLayer)
	assert.Equal(t, 4, cfg.FilterScale)
	assert.False(t, cfg.BrokerEnabled())
	assert.False(t, cfg.StorageEnabled())
}

func TestLoadFromEnvFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	content := "DATABASE_DRIVER=sqlite\nSQLITE_PATH=/tmp/labels.db\nBATCH_SIZE=25\nAWS_BUCKET=training\n"
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o600))

	cfg, err := Load(envFile)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.Equal(t, "/tmp/labels.db", cfg.SQLitePath)
	assert.Equal(t, 25, cfg.BatchSize)
	assert.True(t, cfg.StorageEnabled())
}

func TestEnvironmentOverridesEnvFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("DATABASE_DRIVER=sqlite\nBATCH_SIZE=25\n"), 0o600))
	t.Setenv("BATCH_SIZE", "10")

	cfg, err := Load(envFile)
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.BatchSize)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown driver", map[string]string{"DATABASE_DRIVER": "mysql"}},
		{"zero batch", map[string]string{"DATABASE_DRIVER": "sqlite", "BATCH_SIZE": "0"}},
		{"postgres without database", map[string]string{"DATABASE_DRIVER": "postgres", "POSTGRES_DATABASE": ""}},
		{"bad log level", map[string]string{"DATABASE_DRIVER": "sqlite", "LOG_LEVEL": "verbose"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
			assert.Error(t, err)
		})
	}
}
