package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "green", cfg.Colors.Mounted)
	assert.Equal(t, "gray", cfg.Colors.Plugged)
	assert.Equal(t, "gray", cfg.Colors.Locked)
	assert.Equal(t, "yellow", cfg.Colors.UnlockedNotMounted)
	assert.Equal(t, "red", cfg.Colors.Partitionless)
	assert.Equal(t, "\uf023", cfg.Glyphs.Lock)
	assert.Equal(t, "\uf09c", cfg.Glyphs.Unlock)
	assert.Equal(t, "no partitions", cfg.PartitionlessText)
	assert.Equal(t, "<span color='gray'> | </span>", cfg.Separator)
	assert.Nil(t, cfg.TruncateFSLabels)
	assert.Equal(t, 5*time.Second, cfg.CommandTimeout)
	assert.Equal(t, 4, cfg.Concurrency)
}

func TestDefaultReturnsCopy(t *testing.T) {
	a := Default()
	a.Colors.Mounted = "blue"

	assert.Equal(t, "green", Default().Colors.Mounted)
}

func TestParseMergesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
colors:
  mounted: "#00ff00"
truncate_fs_labels: -6
separator: " / "
ignore:
  path_prefixes: [/dev/sda]
  devname_prefixes: [/dev/nvme]
  attributes:
    ID_BUS: ata
command_timeout: 2s
`))
	require.NoError(t, err)

	assert.Equal(t, "#00ff00", cfg.Colors.Mounted)
	assert.Equal(t, "yellow", cfg.Colors.UnlockedNotMounted)
	assert.Equal(t, " / ", cfg.Separator)
	require.NotNil(t, cfg.TruncateFSLabels)
	assert.Equal(t, -6, *cfg.TruncateFSLabels)
	assert.Equal(t, []string{"/dev/sda"}, cfg.Ignore.PathPrefixes)
	assert.Equal(t, []string{"/dev/nvme"}, cfg.Ignore.DevNamePrefixes)
	assert.Equal(t, map[string]string{"ID_BUS": "ata"}, cfg.Ignore.Attributes)
	assert.Equal(t, 2*time.Second, cfg.CommandTimeout)
	assert.Equal(t, 4, cfg.Concurrency)
}

func TestParseZeroTruncation(t *testing.T) {
	cfg, err := Parse([]byte("truncate_fs_labels: 0\n"))
	require.NoError(t, err)

	require.NotNil(t, cfg.TruncateFSLabels)
	assert.Equal(t, 0, *cfg.TruncateFSLabels)
}

func TestParseInvalid(t *testing.T) {
	_, err := Parse([]byte("colors: [not, a, map]\n"))

	require.Error(t, err)
	assert.Equal(t, ErrConfig, errors.Cause(err))
}

func TestLoadExplicitPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("partitionless_text: raw\nconcurrency: 1\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "raw", cfg.PartitionlessText)
	assert.Equal(t, 1, cfg.Concurrency)
}

func TestLoadMissingExplicitPath(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))

	require.Error(t, err)
	assert.Equal(t, ErrConfig, errors.Cause(err))
}
