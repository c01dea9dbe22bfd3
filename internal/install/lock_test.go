package install

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patricktcoakley/gdvm-sub001/internal/release"
)

func TestAcquireLock_WaitsForHolder(t *testing.T) {
	dir := t.TempDir()

	first, err := AcquireLock(context.Background(), dir, "4.2-stable")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "4.2-stable.lock"))

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	_, err = AcquireLock(ctx, dir, "4.2-stable")
	require.ErrorIs(t, err, context.DeadlineExceeded)

	other, err := AcquireLock(context.Background(), dir, "4.3-stable")
	require.NoError(t, err, "different releases do not contend")
	require.NoError(t, other.Release())

	require.NoError(t, first.Release())
	second, err := AcquireLock(context.Background(), dir, "4.2-stable")
	require.NoError(t, err)
	require.NoError(t, second.Release())
	require.NoError(t, second.Release(), "releasing twice is a no-op")
}

func TestInstallerLock_SkipsNonOSFilesystem(t *testing.T) {
	h := newHarness(t, release.MustParse("4.2-stable"))
	locksDir := filepath.Join(t.TempDir(), "locks")
	inst, err := NewInstaller(Config{
		Root:      "/gdvm",
		LocksDir:  locksDir,
		Fs:        afero.NewMemMapFs(),
		Fetcher:   h.fetcher,
		Platform:  namer{},
		Activator: h.activator,
	})
	require.NoError(t, err)

	l, err := inst.lock(context.Background(), "4.2-stable")
	require.NoError(t, err)
	assert.Nil(t, l)
	require.NoError(t, l.Release())
	assert.NoDirExists(t, locksDir, "nothing is created on the host disk")
}

func TestRemove_ReleasesLock(t *testing.T) {
	rel := release.MustParse("4.2-stable")
	h := newHarness(t, rel)
	_, err := h.installer.Install(context.Background(), rel, Options{})
	require.NoError(t, err)
	require.NoError(t, h.installer.Remove(context.Background(), rel))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	l, err := AcquireLock(ctx, h.installer.cfg.LocksDir, rel.NameWithRuntime())
	require.NoError(t, err, "remove must not keep the release locked")
	require.NoError(t, l.Release())
}
