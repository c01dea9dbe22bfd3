package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/patricktcoakley/gdvm-sub001/internal/install"
	"github.com/patricktcoakley/gdvm-sub001/internal/release"
	"github.com/patricktcoakley/gdvm-sub001/internal/symlink"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockReleases struct {
	names     []string
	err       error
	refreshed bool
}

func (m *mockReleases) ListReleases(ctx context.Context) ([]string, error) {
	return m.names, m.err
}

func (m *mockReleases) RefreshReleases(ctx context.Context) ([]string, error) {
	m.refreshed = true
	return m.names, m.err
}

type mockInstaller struct {
	installed  []release.Release
	current    *release.Release
	installErr error
	removeErr  error

	gotInstall *release.Release
	gotOpts    install.Options
	gotRemove  *release.Release
}

func (m *mockInstaller) Install(ctx context.Context, rel release.Release, opts install.Options) (install.Outcome, error) {
	m.gotInstall = &rel
	m.gotOpts = opts
	if m.installErr != nil {
		return install.Outcome{}, m.installErr
	}
	return install.Outcome{Kind: install.NewInstallation, Name: rel.NameWithRuntime(), Activated: opts.SetDefault}, nil
}

func (m *mockInstaller) Remove(ctx context.Context, rel release.Release) error {
	m.gotRemove = &rel
	return m.removeErr
}

func (m *mockInstaller) Installed() ([]release.Release, error) {
	return m.installed, nil
}

func (m *mockInstaller) Current() (release.Release, error) {
	if m.current == nil {
		return release.Release{}, symlink.ErrNoVersionSet
	}
	return *m.current, nil
}

func (m *mockInstaller) Dir(rel release.Release) string {
	return filepath.Join("/gdvm", rel.NameWithRuntime())
}

type mockActivator struct {
	resolveErr error
	setDir     string
	repaired   bool
}

func (m *mockActivator) SetCurrent(dir string) error {
	m.setDir = dir
	return nil
}

func (m *mockActivator) ResolveCurrent() (symlink.Info, error) {
	if m.resolveErr != nil {
		return symlink.Info{}, m.resolveErr
	}
	return symlink.Info{SymlinkPath: "/gdvm/bin/godot", Target: "/gdvm/4.2-stable/Godot_v4.2-stable_linux.x86_64"}, nil
}

func (m *mockActivator) Repair() (bool, error) {
	m.repaired = true
	return true, nil
}

var remoteNames = []string{"4.3-beta2", "4.2-stable", "4.2.1-stable", "3.5.3-stable", "4.3-rc1", "not-a-release"}

func newTestService(r *mockReleases, i *mockInstaller, a *mockActivator) *VersionService {
	return NewVersionService(r, i, a, nil)
}

func TestInstall_ResolvesAgainstRemote(t *testing.T) {
	tests := []struct {
		name  string
		query []string
		want  string
	}{
		{"empty_is_latest_stable", nil, "4.2.1-stable"},
		{"version_prefix", []string{"4.2"}, "4.2.1-stable"},
		{"full_version", []string{"4.2.0-stable"}, "4.2-stable"},
		{"mono", []string{"3", "mono"}, "3.5.3-stable-mono"},
		{"channel", []string{"4.3", "beta"}, "4.3-beta2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inst := &mockInstaller{}
			svc := newTestService(&mockReleases{names: remoteNames}, inst, &mockActivator{})

			res, err := svc.Install(context.Background(), InstallRequest{Query: tt.query})
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Release.NameWithRuntime())
			require.NotNil(t, inst.gotInstall)
			assert.Equal(t, tt.want, inst.gotInstall.NameWithRuntime())
		})
	}
}

func TestInstall_DefaultFlagForcesActivation(t *testing.T) {
	inst := &mockInstaller{}
	rels := &mockReleases{names: remoteNames}
	svc := newTestService(rels, inst, &mockActivator{})

	res, err := svc.Install(context.Background(), InstallRequest{Query: []string{"4.2"}, Default: true, Refresh: true})
	require.NoError(t, err)
	assert.True(t, inst.gotOpts.SetDefault)
	assert.True(t, res.Outcome.Activated)
	assert.True(t, rels.refreshed)
}

func TestInstall_ResolutionErrors(t *testing.T) {
	t.Run("no_match", func(t *testing.T) {
		inst := &mockInstaller{}
		svc := newTestService(&mockReleases{names: remoteNames}, inst, &mockActivator{})

		_, err := svc.Install(context.Background(), InstallRequest{Query: []string{"9.9"}})
		var rerr *release.ResolutionError
		require.True(t, errors.As(err, &rerr))
		assert.Equal(t, release.NotFound, rerr.Kind)
		assert.Nil(t, inst.gotInstall)
	})

	t.Run("invalid_tokens", func(t *testing.T) {
		svc := newTestService(&mockReleases{names: remoteNames}, &mockInstaller{}, &mockActivator{})

		_, err := svc.Install(context.Background(), InstallRequest{Query: []string{"banana"}})
		var rerr *release.ResolutionError
		require.True(t, errors.As(err, &rerr))
		assert.Equal(t, release.InvalidVersion, rerr.Kind)
	})

	t.Run("list_failure", func(t *testing.T) {
		cause := errors.New("offline")
		svc := newTestService(&mockReleases{err: cause}, &mockInstaller{}, &mockActivator{})

		_, err := svc.Install(context.Background(), InstallRequest{})
		var rerr *release.ResolutionError
		require.True(t, errors.As(err, &rerr))
		assert.Equal(t, release.Failed, rerr.Kind)
		assert.ErrorIs(t, err, cause)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		svc := newTestService(&mockReleases{err: context.Canceled}, &mockInstaller{}, &mockActivator{})

		_, err := svc.Install(ctx, InstallRequest{})
		assert.ErrorIs(t, err, context.Canceled)
		var rerr *release.ResolutionError
		assert.False(t, errors.As(err, &rerr))
	})
}

func TestInstall_PassesInstallerErrorsThrough(t *testing.T) {
	failed := &install.FailedError{Reason: "download failed"}
	svc := newTestService(&mockReleases{names: remoteNames}, &mockInstaller{installErr: failed}, &mockActivator{})

	_, err := svc.Install(context.Background(), InstallRequest{})
	var got *install.FailedError
	require.True(t, errors.As(err, &got))
	assert.Equal(t, "download failed", got.Reason)
}

func TestSearch(t *testing.T) {
	svc := newTestService(&mockReleases{names: remoteNames}, &mockInstaller{}, &mockActivator{})

	got, err := svc.Search(context.Background(), []string{"4"}, false)
	require.NoError(t, err)
	names := make([]string, len(got))
	for i, r := range got {
		names[i] = r.NameWithRuntime()
	}
	assert.Equal(t, []string{"4.3-rc1", "4.3-beta2", "4.2.1-stable", "4.2-stable"}, names)

	got, err = svc.Search(context.Background(), []string{"mono", "stable"}, false)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for _, r := range got {
		assert.True(t, r.IsMono())
	}

	_, err = svc.Search(context.Background(), []string{"4.2", "4.3"}, false)
	assert.Error(t, err)
}

func TestSetAndRemove_UseInstalledReleases(t *testing.T) {
	inst := &mockInstaller{installed: []release.Release{
		release.MustParse("4.2-stable-mono"),
		release.MustParse("4.2-stable"),
		release.MustParse("3.5.3-stable"),
	}}
	act := &mockActivator{}
	svc := newTestService(&mockReleases{}, inst, act)

	rel, err := svc.Set([]string{"4"})
	require.NoError(t, err)
	assert.Equal(t, "4.2-stable", rel.NameWithRuntime())
	assert.Equal(t, filepath.Join("/gdvm", "4.2-stable"), act.setDir)

	rel, err = svc.Remove(context.Background(), []string{"4.2", "mono"})
	require.NoError(t, err)
	assert.Equal(t, "4.2-stable-mono", rel.NameWithRuntime())
	require.NotNil(t, inst.gotRemove)
	assert.Equal(t, "4.2-stable-mono", inst.gotRemove.NameWithRuntime())

	_, err = svc.Set([]string{"4.3"})
	var rerr *release.ResolutionError
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, release.NotFound, rerr.Kind)
}

func TestWhich(t *testing.T) {
	t.Run("current", func(t *testing.T) {
		cur := release.MustParse("4.2-stable")
		svc := newTestService(&mockReleases{}, &mockInstaller{current: &cur}, &mockActivator{})

		info, rel, err := svc.Which()
		require.NoError(t, err)
		assert.Equal(t, "/gdvm/bin/godot", info.SymlinkPath)
		assert.Equal(t, "4.2-stable", rel.NameWithRuntime())
	})

	t.Run("none", func(t *testing.T) {
		svc := newTestService(&mockReleases{}, &mockInstaller{}, &mockActivator{resolveErr: symlink.ErrNoVersionSet})

		_, _, err := svc.Which()
		assert.ErrorIs(t, err, symlink.ErrNoVersionSet)
	})

	t.Run("dangling_is_repaired", func(t *testing.T) {
		act := &mockActivator{resolveErr: &symlink.InvalidSymlinkError{Path: "/gdvm/bin/godot", Target: "/gdvm/4.1-stable/x"}}
		svc := newTestService(&mockReleases{}, &mockInstaller{}, act)

		_, _, err := svc.Which()
		assert.ErrorIs(t, err, symlink.ErrNoVersionSet)
		assert.True(t, act.repaired)
	})
}

func TestInstalled(t *testing.T) {
	cur := release.MustParse("4.2-stable")
	inst := &mockInstaller{installed: []release.Release{cur}, current: &cur}
	svc := newTestService(&mockReleases{}, inst, &mockActivator{})

	rels, got, err := svc.Installed()
	require.NoError(t, err)
	assert.Len(t, rels, 1)
	require.NotNil(t, got)
	assert.Equal(t, "4.2-stable", got.NameWithRuntime())

	svc = newTestService(&mockReleases{}, &mockInstaller{installed: []release.Release{cur}}, &mockActivator{resolveErr: symlink.ErrNoVersionSet})
	rels, got, err = svc.Installed()
	require.NoError(t, err)
	assert.Len(t, rels, 1)
	assert.Nil(t, got)
}
