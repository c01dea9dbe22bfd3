// Package service implements the gdvm commands on top of the fetch,
// install and symlink packages. The CLI only parses flags and prints.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/patricktcoakley/gdvm-sub001/internal/install"
	"github.com/patricktcoakley/gdvm-sub001/internal/release"
	"github.com/patricktcoakley/gdvm-sub001/internal/symlink"
)

// ReleaseLister provides the remote release list.
type ReleaseLister interface {
	ListReleases(ctx context.Context) ([]string, error)
	RefreshReleases(ctx context.Context) ([]string, error)
}

// Installer is the part of install.Installer the service uses.
type Installer interface {
	Install(ctx context.Context, rel release.Release, opts install.Options) (install.Outcome, error)
	Remove(ctx context.Context, rel release.Release) error
	Installed() ([]release.Release, error)
	Current() (release.Release, error)
	Dir(rel release.Release) string
}

// Activator is the part of symlink.Activator the service uses.
type Activator interface {
	SetCurrent(releaseDir string) error
	ResolveCurrent() (symlink.Info, error)
	Repair() (bool, error)
}

// VersionService resolves queries and runs install, set, remove and the
// listing commands.
type VersionService struct {
	releases  ReleaseLister
	installer Installer
	activator Activator
	logger    *slog.Logger
}

// NewVersionService wires a VersionService.
func NewVersionService(releases ReleaseLister, installer Installer, activator Activator, logger *slog.Logger) *VersionService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &VersionService{releases: releases, installer: installer, activator: activator, logger: logger}
}

// InstallRequest holds the parameters of an install.
type InstallRequest struct {
	Query   []string
	Default bool
	Refresh bool
	Options install.Options
}

// InstallResult reports what Install did.
type InstallResult struct {
	Release release.Release
	Outcome install.Outcome
}

func (s *VersionService) remote(ctx context.Context, refresh bool) ([]string, error) {
	var names []string
	var err error
	if refresh {
		names, err = s.releases.RefreshReleases(ctx)
	} else {
		names, err = s.releases.ListReleases(ctx)
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &release.ResolutionError{Kind: release.Failed, Message: "could not list releases", Err: err}
	}
	return release.WithRuntimes(names), nil
}

func resolve(tokens, known []string) (release.Release, error) {
	rel, ok, err := release.ResolveQuery(tokens, known)
	if err != nil {
		return release.Release{}, err
	}
	if !ok {
		q := strings.Join(tokens, " ")
		if q == "" {
			q = "latest"
		}
		return release.Release{}, &release.ResolutionError{Kind: release.NotFound, Message: fmt.Sprintf("no release matches %q", q)}
	}
	return rel, nil
}

// Install resolves the query against the remote releases and installs the
// result.
func (s *VersionService) Install(ctx context.Context, req InstallRequest) (*InstallResult, error) {
	known, err := s.remote(ctx, req.Refresh)
	if err != nil {
		return nil, err
	}
	rel, err := resolve(req.Query, known)
	if err != nil {
		return nil, err
	}

	opts := req.Options
	opts.SetDefault = opts.SetDefault || req.Default
	out, err := s.installer.Install(ctx, rel, opts)
	if err != nil {
		return nil, err
	}
	return &InstallResult{Release: rel, Outcome: out}, nil
}

// Search returns the remote releases matching the query, newest first. An
// empty query matches everything.
func (s *VersionService) Search(ctx context.Context, tokens []string, refresh bool) ([]release.Release, error) {
	q, err := release.ParseQuery(tokens)
	if err != nil {
		return nil, err
	}
	known, err := s.remote(ctx, refresh)
	if err != nil {
		return nil, err
	}

	var out []release.Release
	for _, r := range release.ParseAll(known) {
		if q.HasRuntime() || r.Runtime == release.Standard {
			if q.Matches(r) {
				out = append(out, r)
			}
		}
	}
	release.SortDescending(out)
	return out, nil
}

// Installed lists installed releases and the current one, if any.
func (s *VersionService) Installed() ([]release.Release, *release.Release, error) {
	rels, err := s.installer.Installed()
	if err != nil {
		return nil, nil, err
	}
	cur, err := s.current()
	if err != nil {
		return rels, nil, nil
	}
	return rels, &cur, nil
}

func (s *VersionService) installedNames() ([]string, error) {
	rels, err := s.installer.Installed()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(rels))
	for i, r := range rels {
		names[i] = r.NameWithRuntime()
	}
	return names, nil
}

// Set makes the installed release matching the query current.
func (s *VersionService) Set(tokens []string) (release.Release, error) {
	names, err := s.installedNames()
	if err != nil {
		return release.Release{}, err
	}
	rel, err := resolve(tokens, names)
	if err != nil {
		return release.Release{}, err
	}
	if err := s.activator.SetCurrent(s.installer.Dir(rel)); err != nil {
		return release.Release{}, fmt.Errorf("set %s: %w", rel, err)
	}
	return rel, nil
}

// Remove deletes the installed release matching the query.
func (s *VersionService) Remove(ctx context.Context, tokens []string) (release.Release, error) {
	names, err := s.installedNames()
	if err != nil {
		return release.Release{}, err
	}
	rel, err := resolve(tokens, names)
	if err != nil {
		return release.Release{}, err
	}
	if err := s.installer.Remove(ctx, rel); err != nil {
		return release.Release{}, err
	}
	return rel, nil
}

// Which returns the current activation. A dangling symlink is reported,
// removed and then treated as no version set.
func (s *VersionService) Which() (symlink.Info, release.Release, error) {
	info, err := s.activator.ResolveCurrent()
	if err != nil {
		return symlink.Info{}, release.Release{}, s.heal(err)
	}
	cur, err := s.installer.Current()
	if err != nil {
		return info, release.Release{}, err
	}
	return info, cur, nil
}

func (s *VersionService) current() (release.Release, error) {
	if _, err := s.activator.ResolveCurrent(); err != nil {
		return release.Release{}, s.heal(err)
	}
	return s.installer.Current()
}

func (s *VersionService) heal(err error) error {
	var invalid *symlink.InvalidSymlinkError
	if !errors.As(err, &invalid) {
		return err
	}
	s.logger.Warn("current version points to a missing install, removing link",
		"symlink", invalid.Path, "target", invalid.Target)
	if _, rerr := s.activator.Repair(); rerr != nil {
		return errors.Join(err, rerr)
	}
	return symlink.ErrNoVersionSet
}
