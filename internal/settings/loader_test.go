package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.True(t, cfg.Enabled)
	assert.Equal(t, "docbridge-server", cfg.Server.PackageName)
	assert.Equal(t, InstallAsk, cfg.Server.InstallBehavior)
	assert.Equal(t, UpdateBehaviorPromptMajor, cfg.Server.UpdateBehavior)
	assert.Equal(t, UpdateFrequencyWeekly, cfg.Server.UpdateFrequency)
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	dir := t.TempDir()
	content := `
enabled: true
server:
  pythonPath: ["/opt/py/bin/python3"]
  logLevel: debug
  updateFrequency: daily
sphinxLike:
  buildCommand: ["sphinx-build", "-M", "html", ".", "_build"]
  numJobs: 4
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "settings.yaml"), []byte(content), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, []string{"/opt/py/bin/python3"}, cfg.Server.PythonPath)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, UpdateFrequencyDaily, cfg.Server.UpdateFrequency)
	assert.Equal(t, 4, cfg.SphinxLike.NumJobs)
	// Untouched keys keep their defaults.
	assert.Equal(t, "docbridge-server", cfg.Server.PackageName)
}

func TestLoadMalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "settings.yaml"), []byte("{not yaml:::"), 0644))

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()

	cfg := GetDefaultSettings()
	cfg.SphinxLike.BuildCommand = []string{"sphinx-build", "-M", "dirhtml", "docs", "docs/_build"}
	cfg.SphinxLike.ConfDir = "docs"
	require.NoError(t, Save(dir, cfg))

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, cfg.SphinxLike.BuildCommand, loaded.SphinxLike.BuildCommand)
	assert.Equal(t, "docs", loaded.SphinxLike.ConfDir)
}
