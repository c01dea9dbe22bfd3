package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patricktcoakley/gdvm-sub001/internal/platform"
	"github.com/patricktcoakley/gdvm-sub001/internal/testutil"
)

// execute runs one gdvm invocation against the test root.
func execute(t *testing.T, args ...string) (string, int) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	a := newApp(&stdout, &stderr)
	a.detector = platform.StaticDetector{Info: platform.Info{OS: platform.Linux, Arch: platform.X64}}

	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	a.close()
	return stdout.String(), exitCode(err)
}

func TestVersionCommand(t *testing.T) {
	testutil.SetupTestEnv(t)
	out, code := execute(t, "version")
	assert.Equal(t, exitOK, code)
	assert.Equal(t, "gdvm "+Version+"\n", out)
}

func TestConfigCommands(t *testing.T) {
	root := testutil.SetupTestEnv(t)

	_, code := execute(t, "config", "set", "log.level", "warn")
	require.Equal(t, exitOK, code)

	out, code := execute(t, "config", "get", "log.level")
	require.Equal(t, exitOK, code)
	assert.Equal(t, "warn\n", out)

	out, code = execute(t, "config", "path")
	require.Equal(t, exitOK, code)
	assert.Equal(t, filepath.Join(root, "gdvm.ini")+"\n", out)

	_, code = execute(t, "config", "set", "log.level", "loud")
	assert.Equal(t, exitConfig, code)

	_, code = execute(t, "config", "get", "nope")
	assert.Equal(t, exitUsage, code)

	_, code = execute(t, "config", "set")
	assert.Equal(t, exitUsage, code)
}

func TestInvalidConfigBlocksCommandsButNotConfig(t *testing.T) {
	root := testutil.SetupTestEnv(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "gdvm.ini"), []byte("[log]\nlevel = loud\n"), 0o600))

	_, code := execute(t, "list")
	assert.Equal(t, exitConfig, code)

	_, code = execute(t, "config", "set", "log.level", "info")
	require.Equal(t, exitOK, code)

	out, code := execute(t, "config", "get", "log.level")
	require.Equal(t, exitOK, code)
	assert.Equal(t, "info\n", out)
}

func TestUsageErrors(t *testing.T) {
	testutil.SetupTestEnv(t)

	_, code := execute(t, "list", "--bogus")
	assert.Equal(t, exitUsage, code)

	_, code = execute(t, "which", "extra")
	assert.Equal(t, exitUsage, code)

	_, code = execute(t, "remove")
	assert.Equal(t, exitUsage, code)

	_, code = execute(t, "set", "banana")
	assert.Equal(t, exitUsage, code)
}

func TestLocalVersionCommands(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need elevated rights on windows")
	}
	root := testutil.SetupTestEnv(t)

	out, code := execute(t, "list")
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "No releases installed.")

	_, code = execute(t, "which")
	assert.Equal(t, exitSymlink, code)

	for _, name := range []string{"4.2-stable", "4.3-rc1"} {
		dir := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(dir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "Godot_v"+name+"_linux.x86_64"), []byte("bin"), 0o755))
	}

	out, code = execute(t, "set", "4.2")
	require.Equal(t, exitOK, code)
	assert.Equal(t, "Now using 4.2-stable\n", out)

	out, code = execute(t, "list")
	require.Equal(t, exitOK, code)
	assert.Equal(t, "  4.3-rc1\n* 4.2-stable\n", out)

	out, code = execute(t, "which")
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "4.2-stable\n")
	assert.Contains(t, out, "Godot_v4.2-stable_linux.x86_64")

	out, code = execute(t, "remove", "4.2")
	require.Equal(t, exitOK, code)
	assert.Equal(t, "Removed 4.2-stable\n", out)
	assert.NoDirExists(t, filepath.Join(root, "4.2-stable"))

	_, code = execute(t, "which")
	assert.Equal(t, exitSymlink, code)

	_, code = execute(t, "set", "5")
	assert.Equal(t, exitUsage, code)
}

func TestEnvCommand(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("home directory comes from USERPROFILE on windows")
	}
	root := testutil.SetupTestEnv(t)
	home := t.TempDir()
	t.Setenv("HOME", home)

	out, code := execute(t, "env", "bash")
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, filepath.Join(root, "bin"))

	_, code = execute(t, "env", "tcsh")
	assert.Equal(t, exitUsage, code)

	out, code = execute(t, "env", "zsh", "--install")
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, ".zshrc")
	data, err := os.ReadFile(filepath.Join(home, ".zshrc"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `eval "$(gdvm env zsh)"`)

	out, code = execute(t, "env", "zsh", "--install")
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "already sets up gdvm")
}
