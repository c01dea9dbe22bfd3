// Package symlink makes one installed release current by pointing the
// primary symlink (and on macOS the .app symlink) at it.
package symlink

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/patricktcoakley/gdvm-sub001/internal/platform"
)

// ErrNoVersionSet is returned when no primary symlink exists.
var ErrNoVersionSet = errors.New("no version set")

// ErrNoExecutable is returned when a release directory holds no Godot
// executable for the host.
var ErrNoExecutable = errors.New("no godot executable found")

// InvalidSymlinkError is a symlink whose target no longer exists.
type InvalidSymlinkError struct {
	Path   string
	Target string
}

func (e *InvalidSymlinkError) Error() string {
	return fmt.Sprintf("symlink %s points to missing %s", e.Path, e.Target)
}

// Info describes the current activation.
type Info struct {
	SymlinkPath string
	Target      string
	// MacAppSymlinkPath is empty unless a valid .app symlink exists.
	MacAppSymlinkPath string
}

// ReleaseDir returns the release directory under root that the primary
// symlink points into.
func (i Info) ReleaseDir(root string) (string, bool) {
	rel, err := filepath.Rel(filepath.Clean(root), i.Target)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", false
	}
	first := strings.SplitN(filepath.ToSlash(rel), "/", 2)[0]
	return filepath.Join(root, first), true
}

// Activator manages the activation symlinks.
type Activator struct {
	fs         afero.Fs
	links      afero.Symlinker
	symlink    string
	macAppLink string
	os         platform.OS
}

// NewActivator returns an Activator for the symlink paths. fsys must
// support symlinks.
func NewActivator(fsys afero.Fs, symlinkPath, macAppSymlinkPath string, hostOS platform.OS) (*Activator, error) {
	links, ok := fsys.(afero.Symlinker)
	if !ok {
		return nil, fmt.Errorf("filesystem %s does not support symlinks", fsys.Name())
	}
	return &Activator{
		fs:         fsys,
		links:      links,
		symlink:    symlinkPath,
		macAppLink: macAppSymlinkPath,
		os:         hostOS,
	}, nil
}

// SetCurrent points the primary symlink at the executable in releaseDir.
// Links are replaced by renaming a freshly created link over the old one.
func (a *Activator) SetCurrent(releaseDir string) error {
	exe, app, err := a.FindExecutable(releaseDir)
	if err != nil {
		return err
	}
	if err := a.replace(exe, a.symlink); err != nil {
		return err
	}
	if a.os != platform.MacOS || a.macAppLink == "" {
		return nil
	}
	if app != "" {
		return a.replace(app, a.macAppLink)
	}
	return a.remove(a.macAppLink)
}

// FindExecutable returns the Godot executable in releaseDir and, on
// macOS, the .app bundle containing it.
func (a *Activator) FindExecutable(releaseDir string) (exe, app string, err error) {
	entries, err := afero.ReadDir(a.fs, releaseDir)
	if err != nil {
		return "", "", fmt.Errorf("read %s: %w", releaseDir, err)
	}

	for _, e := range entries {
		name := e.Name()
		switch a.os {
		case platform.MacOS:
			if e.IsDir() && strings.HasSuffix(name, ".app") {
				app = filepath.Join(releaseDir, name)
				exe = filepath.Join(app, "Contents", "MacOS", "Godot")
				if ok, _ := afero.Exists(a.fs, exe); ok {
					return exe, app, nil
				}
			}
		case platform.Windows:
			lower := strings.ToLower(name)
			if !e.IsDir() && strings.HasSuffix(lower, ".exe") && !strings.Contains(lower, "_console") {
				return filepath.Join(releaseDir, name), "", nil
			}
		default:
			if e.Mode().IsRegular() && strings.HasPrefix(name, "Godot_v") {
				return filepath.Join(releaseDir, name), "", nil
			}
		}
	}
	return "", "", fmt.Errorf("%w in %s", ErrNoExecutable, releaseDir)
}

func (a *Activator) replace(target, link string) error {
	if err := a.fs.MkdirAll(filepath.Dir(link), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(link), err)
	}
	tmp := fmt.Sprintf("%s.%d.tmp", link, os.Getpid())
	_ = a.fs.Remove(tmp)
	if err := a.links.SymlinkIfPossible(target, tmp); err != nil {
		return fmt.Errorf("create symlink %s: %w", tmp, err)
	}
	if err := a.fs.Rename(tmp, link); err != nil {
		_ = a.fs.Remove(tmp)
		return fmt.Errorf("replace symlink %s: %w", link, err)
	}
	return nil
}

func (a *Activator) remove(link string) error {
	if err := a.fs.Remove(link); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", link, err)
	}
	return nil
}

// inspect returns the target of link. present is false when link does not
// exist; valid is false when its target is missing.
func (a *Activator) inspect(link string) (target string, present, valid bool, err error) {
	if _, _, err := a.links.LstatIfPossible(link); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, false, nil
		}
		return "", false, false, err
	}
	target, err = a.links.ReadlinkIfPossible(link)
	if err != nil {
		return "", true, false, fmt.Errorf("read symlink %s: %w", link, err)
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(filepath.Dir(link), target)
	}
	if _, err := a.fs.Stat(target); err != nil {
		return target, true, false, nil
	}
	return target, true, true, nil
}

// ResolveCurrent reports the current activation. It returns
// ErrNoVersionSet when there is none and *InvalidSymlinkError when the
// primary symlink dangles.
func (a *Activator) ResolveCurrent() (Info, error) {
	target, present, valid, err := a.inspect(a.symlink)
	if err != nil {
		return Info{}, err
	}
	if !present {
		return Info{}, ErrNoVersionSet
	}
	if !valid {
		return Info{}, &InvalidSymlinkError{Path: a.symlink, Target: target}
	}

	info := Info{SymlinkPath: a.symlink, Target: target}
	if a.macAppLink != "" {
		if _, ok, valid, _ := a.inspect(a.macAppLink); ok && valid {
			info.MacAppSymlinkPath = a.macAppLink
		}
	}
	return info, nil
}

// Repair removes dangling activation symlinks and reports whether any was
// removed.
func (a *Activator) Repair() (bool, error) {
	removed := false
	for _, link := range []string{a.symlink, a.macAppLink} {
		if link == "" {
			continue
		}
		_, present, valid, err := a.inspect(link)
		if err != nil {
			return removed, err
		}
		if present && !valid {
			if err := a.remove(link); err != nil {
				return removed, err
			}
			removed = true
		}
	}
	return removed, nil
}

// Clear removes both activation symlinks.
func (a *Activator) Clear() error {
	if err := a.remove(a.symlink); err != nil {
		return err
	}
	if a.macAppLink != "" {
		return a.remove(a.macAppLink)
	}
	return nil
}
