package logging

import (
	"os"
	"path/filepath"
	"testing"

	smerrors "github.com/Station-Manager/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "logging.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, validateConfig(&cfg))
	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, 180, cfg.UTCOffsetMinutes)
	assert.Equal(t, "http-access", cfg.AccessLogCaller)
	assert.True(t, cfg.ErrorFile && cfg.CombinedFile && cfg.Console)
}

func TestLoadConfig(t *testing.T) {
	t.Run("overrides defaults", func(t *testing.T) {
		path := writeConfigFile(t, `
level: debug
rel_log_file_dir: var/log
utc_offset_minutes: 0
console: false
max_file_size_mb: 5
source_prefix: internal/
`)
		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, "debug", cfg.Level)
		assert.Equal(t, "var/log", cfg.RelLogFileDir)
		assert.Equal(t, 0, cfg.UTCOffsetMinutes)
		assert.False(t, cfg.Console)
		assert.Equal(t, 5, cfg.MaxFileSizeMB)
		assert.Equal(t, "internal/", cfg.SourcePrefix)
		// untouched
		assert.Equal(t, 14, cfg.MaxRetainedFiles)
		assert.True(t, cfg.ErrorFile)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), errMsgReadConfig)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := LoadConfig(writeConfigFile(t, "level: [unclosed"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), errMsgParseConfig)
	})

	t.Run("invalid values", func(t *testing.T) {
		_, err := LoadConfig(writeConfigFile(t, "level: loud\n"))
		require.Error(t, err)
		dErr, ok := smerrors.AsDetailedError(err)
		require.True(t, ok)
		assert.Equal(t, "logging.validateConfig", string(dErr.Op()))
	})
}

func TestValidateConfig(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		err := validateConfig(nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), errMsgNilConfig)
	})

	t.Run("absolute log dir", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.RelLogFileDir = "/var/log/bot"
		err := validateConfig(&cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), errMsgRelDirAbsolute)
	})

	t.Run("no sinks", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.ErrorFile, cfg.CombinedFile, cfg.Console = false, false, false
		err := validateConfig(&cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), errMsgNoSinks)
	})

	t.Run("offset out of range", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.UTCOffsetMinutes = 24 * 60
		assert.Error(t, validateConfig(&cfg))
	})
}

func TestDetectProjectRoot(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "go.mod"), []byte("module example.com/bot\n"), 0o644))
	nested := filepath.Join(root, "internal", "store")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	assert.Equal(t, root, detectProjectRoot(nested))
}
