package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "raps", cfg.RapsBinaryPath)
}

func TestLoad_ParsesOverrides(t *testing.T) {
	dir := t.TempDir()
	contents := "raps_binary_path: /usr/local/bin/raps\nworkflow_dir: /tmp/workflows\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(contents), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "/usr/local/bin/raps", cfg.RapsBinaryPath)
	assert.Equal(t, "/tmp/workflows", cfg.WorkflowDir)
}

func TestLoad_RejectsUnknownFields(t *testing.T) {
	dir := t.TempDir()
	contents := "not_a_real_field: true\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(contents), 0o644))

	_, err := Load(dir)
	assert.Error(t, err)
}
