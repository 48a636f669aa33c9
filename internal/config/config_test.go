package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nilfoo/stako/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Zero(t, cfg.MaxSteps)
	assert.Zero(t, cfg.StackSize)
	assert.False(t, cfg.NoColor)
}

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Zero(t, cfg.MaxSteps)
}

func TestLoadFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stako.yaml")
	require.NoError(t, writeFile(path, "max_steps: 1000\nstack_size: 4096\n"))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1000, cfg.MaxSteps)
	assert.Equal(t, 4096, cfg.StackSize)
}

func TestEnvOverridesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stako.yaml")
	require.NoError(t, writeFile(path, "max_steps: 1000\n"))
	t.Setenv("STAKO_MAX_STEPS", "5")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.MaxSteps)
}

func writeFile(path, contents string) error {
	return os.WriteFile(path, []byte(contents), 0o644)
}
