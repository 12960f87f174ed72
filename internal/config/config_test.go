package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValidates(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, DefaultConfig().Ingest.ParseTimeoutMs, cfg.Ingest.ParseTimeoutMs)
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "file:./other.db")
	t.Setenv("WORKER_THREADS", "3")
	t.Setenv("MAX_FILE_BYTES", "1024")
	t.Setenv("MAX_TOTAL_BYTES", "4096")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "file:./other.db", cfg.Database.URL)
	require.Equal(t, 3, cfg.Ingest.WorkerThreads)
	require.EqualValues(t, 1024, cfg.Ingest.MaxFileBytes)
}

func TestLoadFromYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "semcore.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database:\n  url: file:./custom.db\ningest:\n  worker_threads: 2\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "file:./custom.db", cfg.Database.URL)
	require.Equal(t, 2, cfg.Ingest.WorkerThreads)
}

func TestValidateRejectsFileBytesExceedingTotal(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Ingest.MaxFileBytes = cfg.Ingest.MaxTotalBytes + 1
	require.Error(t, cfg.Validate())
}
