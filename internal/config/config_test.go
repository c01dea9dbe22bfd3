package config

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv("GDVM_GITHUB_TOKEN", "")
	t.Setenv("GDVM_LOG_LEVEL", "")
	t.Setenv("GDVM_VERIFY_KEYRING", "")
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(afero.NewMemMapFs(), "/gdvm/gdvm.ini")
	require.NoError(t, err)

	assert.Empty(t, cfg.GitHub.Token)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Empty(t, cfg.Verify.Keyring)
}

func TestLoad_ReadsINI(t *testing.T) {
	clearEnv(t)
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/keys/godot.asc", []byte("key"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/gdvm/gdvm.ini", []byte(`
[github]
token = abc123

[log]
level = DEBUG

[verify]
keyring = /keys/godot.asc
`), 0o644))

	cfg, err := Load(fs, "/gdvm/gdvm.ini")
	require.NoError(t, err)
	assert.Equal(t, "abc123", cfg.GitHub.Token)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "/keys/godot.asc", cfg.Verify.Keyring)
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("GDVM_GITHUB_TOKEN", "from-env")
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/gdvm.ini", []byte("[github]\ntoken = from-file\n"), 0o644))

	cfg, err := Load(fs, "/gdvm.ini")
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.GitHub.Token)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad_level", "[log]\nlevel = loud\n"},
		{"missing_keyring", "[verify]\nkeyring = /nope.asc\n"},
		{"malformed_ini", "[github\ntoken = x\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			fs := afero.NewMemMapFs()
			require.NoError(t, afero.WriteFile(fs, "/gdvm.ini", []byte(tt.content), 0o644))

			_, err := Load(fs, "/gdvm.ini")
			var cfgErr *Error
			require.True(t, errors.As(err, &cfgErr), "got %v", err)
			assert.Equal(t, "/gdvm.ini", cfgErr.Path)
		})
	}
}

func TestSetAndGet(t *testing.T) {
	clearEnv(t)
	fs := afero.NewMemMapFs()
	path := "/gdvm/gdvm.ini"

	require.NoError(t, Set(fs, path, "github.token", "tok"))
	require.NoError(t, Set(fs, path, "LOG.LEVEL", "Warn"))

	cfg, err := Load(fs, path)
	require.NoError(t, err)
	got, err := cfg.Get(KeyGitHubToken)
	require.NoError(t, err)
	assert.Equal(t, "tok", got)
	got, err = cfg.Get(KeyLogLevel)
	require.NoError(t, err)
	assert.Equal(t, "warn", got)

	require.NoError(t, Set(fs, path, "github.token", ""))
	cfg, err = Load(fs, path)
	require.NoError(t, err)
	assert.Empty(t, cfg.GitHub.Token)
	assert.Equal(t, "warn", cfg.Log.Level, "other keys are kept")

	assert.Error(t, Set(fs, path, "github.user", "x"))
	assert.Error(t, Set(fs, path, "log.level", "loud"))
	_, err = cfg.Get("nope")
	assert.Error(t, err)
}

func TestNewPaths(t *testing.T) {
	root := filepath.Join("home", "me", "gdvm")
	p := NewPaths(root)

	assert.Equal(t, filepath.Join(root, "gdvm.ini"), p.ConfigFile)
	assert.Equal(t, filepath.Join(root, "bin"), p.BinDir)
	assert.Equal(t, filepath.Join(root, "bin", "Godot.app"), p.MacAppSymlink)
	assert.Equal(t, filepath.Join(root, ".cache", "releases"), p.ReleasesCacheDir)
	assert.Equal(t, filepath.Join(root, ".cache", "downloads"), p.DownloadsDir)
	assert.Equal(t, filepath.Join(root, ".locks"), p.LocksDir)
	assert.Equal(t, filepath.Join(root, ".log", "gdvm.log"), p.LogFile)
}

func TestDefaultRoot(t *testing.T) {
	t.Setenv(EnvHome, "/opt/gdvm")
	root, err := DefaultRoot()
	require.NoError(t, err)
	assert.Equal(t, "/opt/gdvm", root)

	t.Setenv(EnvHome, "")
	t.Setenv("HOME", "/home/tester")
	root, err = DefaultRoot()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/home/tester", "gdvm"), root)
}
