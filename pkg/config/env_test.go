package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyEnvFromFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte(
		"PDFSERVE_SOURCE=/docs/from-file.pdf\n"+
			"PDFSERVE_CACHE_BACKEND=Redis\n"+
			"PDFSERVE_REDIS_ADDRS=10.0.0.1:6379, 10.0.0.2:6379\n"+
			"PDFSERVE_CACHE_TTL=15m\n"), 0644))

	cfg := DefaultConfig()
	require.NoError(t, cfg.ApplyEnv(envFile))
	assert.Equal(t, "/docs/from-file.pdf", cfg.Source.Path)
	assert.Equal(t, BackendRedis, cfg.Cache.Backend)
	assert.Equal(t, []string{"10.0.0.1:6379", "10.0.0.2:6379"}, cfg.Cache.RedisAddrs)
	assert.Equal(t, 15*time.Minute, cfg.Cache.TTL.Duration)
}

func TestApplyEnvProcessWins(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("PDFSERVE_SOURCE=/docs/from-file.pdf\n"), 0644))
	t.Setenv(EnvSource, "/docs/from-env.pdf")
	t.Setenv(EnvDisableCache, "true")

	cfg := DefaultConfig()
	require.NoError(t, cfg.ApplyEnv(envFile))
	assert.Equal(t, "/docs/from-env.pdf", cfg.Source.Path)
	assert.True(t, cfg.Debug.DisableCache)
}

func TestApplyEnvMissingFile(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.ApplyEnv(filepath.Join(t.TempDir(), "nope.env")))
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestApplyEnvInvalidValues(t *testing.T) {
	t.Setenv(EnvCacheTTL, "soon")
	t.Setenv(EnvCacheBackend, "floppy")
	t.Setenv(EnvDisableCache, "maybe")

	cfg := DefaultConfig()
	require.NoError(t, cfg.ApplyEnv(""))
	def := DefaultConfig()
	assert.Equal(t, def.Cache.TTL, cfg.Cache.TTL)
	assert.Equal(t, def.Cache.Backend, cfg.Cache.Backend)
	assert.False(t, cfg.Debug.DisableCache)
}
