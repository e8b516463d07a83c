package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, uint64(1<<20), cfg.CeilingBytes)
	assert.Equal(t, 2, cfg.Template.Threshold)
	assert.Equal(t, 15, cfg.Top.Objects)
	assert.Equal(t, 20, cfg.Top.JSONObjects)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
ceiling_bytes: 2048
template:
  threshold: 4
top:
  objects: 5
classifier:
  library_fragments: [boost, zlib]
log:
  level: debug
`), 0o644))

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)
	assert.Equal(t, uint64(2048), cfg.CeilingBytes)
	assert.Equal(t, 4, cfg.Template.Threshold)
	assert.Equal(t, 120, cfg.Template.KeyLength)
	assert.Equal(t, 5, cfg.Top.Objects)
	assert.Equal(t, []string{"boost", "zlib"}, cfg.Classifier.LibraryFragments)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("MAPPROF_TEMPLATE_THRESHOLD", "7")
	t.Setenv("MAPPROF_CEILING_BYTES", "4096")

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Template.Threshold)
	assert.Equal(t, uint64(4096), cfg.CeilingBytes)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("template:\n  threshold: 0\n"), 0o644))
	_, err = Load(viper.New(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "template.threshold")
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.CeilingBytes = 0
	cfg.Top.Objects = -1
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ceiling_bytes")
	assert.Contains(t, err.Error(), "top cutoffs")
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "mapprof.yaml")
	require.NoError(t, WriteDefault(path, false))
	assert.FileExists(t, path)

	assert.Error(t, WriteDefault(path, false))
	assert.NoError(t, WriteDefault(path, true))

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestOptions(t *testing.T) {
	cfg := Default()
	cfg.Template.Threshold = 3
	cfg.Folding.KeyLength = 10

	insightOpts := cfg.InsightOptions()
	assert.Equal(t, 3, insightOpts.Template.Threshold)
	assert.Equal(t, 10, insightOpts.Folding.KeyLength)

	co := cfg.ClassifierOptions()
	assert.Equal(t, cfg.Classifier.LibraryFragments, co.LibraryFragments)
}
