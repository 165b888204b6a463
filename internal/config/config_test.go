package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-formforge/pkg/store"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	v := New()
	v.Set(KeyWorkspace, dir)

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.Workspace)
	assert.Equal(t, store.DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, filepath.Join(dir, DataDir, "forms.db"), cfg.Store.Path)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.False(t, cfg.Log.Dev)
}

func TestLoadReadsWorkspaceFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	body := "store:\n  driver: bolt\n  path: data/forms.bolt\nlog:\n  level: info\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "formforge.yaml"), []byte(body), 0o644))

	t.Setenv("FORMFORGE_LOG_DEV", "true")
	v := New()
	v.Set(KeyWorkspace, dir)

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, store.DriverBolt, cfg.Store.Driver)
	assert.Equal(t, filepath.Join(dir, "data", "forms.bolt"), cfg.Store.Path)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.True(t, cfg.Log.Dev)
}

func TestLoadEnvOverridesDriver(t *testing.T) {
	t.Setenv("FORMFORGE_STORE_DRIVER", "memory")
	v := New()
	v.Set(KeyWorkspace, t.TempDir())

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, store.DriverMemory, cfg.Store.Driver)
	assert.Empty(t, cfg.Store.Path)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	v := New()
	v.Set(KeyWorkspace, t.TempDir())
	v.Set(KeyStoreDriver, "postgres")

	_, err := Load(v)
	assert.ErrorContains(t, err, "postgres")
}
