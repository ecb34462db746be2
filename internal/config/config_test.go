package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "inventory-sale", cfg.App.Name)
	assert.Equal(t, ":8080", cfg.App.Port)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 50, cfg.MySQL.MaxOpenConns)
	assert.Equal(t, 5*time.Minute, cfg.MySQL.ConnMaxLifetime)
	assert.Equal(t, uint64(5), cfg.Engine.MaxAttempts)
	assert.Equal(t, uint64(5), cfg.Engine.AllocMaxAttempts)
	assert.Equal(t, 20*time.Millisecond, cfg.Engine.InitialBackoff)
	assert.Equal(t, 1024, cfg.Engine.QueueSize)
	assert.Equal(t, 4, cfg.Render.Workers)
	assert.Equal(t, "receipts", cfg.Render.OutputDir)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("APP_PORT", ":9090")
	t.Setenv("ENGINE_MAXATTEMPTS", "10")
	t.Setenv("ENGINE_INITIALBACKOFF", "50ms")
	t.Setenv("RENDER_OUTPUTDIR", "/tmp/receipts")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.App.Port)
	assert.Equal(t, uint64(10), cfg.Engine.MaxAttempts)
	assert.Equal(t, 50*time.Millisecond, cfg.Engine.InitialBackoff)
	assert.Equal(t, "/tmp/receipts", cfg.Render.OutputDir)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_RejectsZeroAttempts(t *testing.T) {
	t.Setenv("ENGINE_MAXATTEMPTS", "0")

	_, err := Load()
	require.Error(t, err)
}
