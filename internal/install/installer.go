// Package install downloads, verifies, extracts and activates releases.
package install

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/patricktcoakley/gdvm-sub001/internal/archive"
	"github.com/patricktcoakley/gdvm-sub001/internal/fetch"
	"github.com/patricktcoakley/gdvm-sub001/internal/progress"
	"github.com/patricktcoakley/gdvm-sub001/internal/release"
	"github.com/patricktcoakley/gdvm-sub001/internal/symlink"
)

// ErrNotInstalled is returned by Remove for a release with no directory.
var ErrNotInstalled = errors.New("release is not installed")

// Fetcher is the part of fetch.Fetcher the installer needs.
type Fetcher interface {
	GetChecksumFile(ctx context.Context, rel release.Release) ([]byte, error)
	GetChecksumSignature(ctx context.Context, rel release.Release) ([]byte, error)
	GetArchive(ctx context.Context, rel release.Release, artifact string, sink fetch.Sink) error
}

// ArtifactNamer maps a release to the archive name for the host.
type ArtifactNamer interface {
	ArtifactName(rel release.Release) (string, error)
}

// Activator is the part of symlink.Activator the installer needs.
type Activator interface {
	SetCurrent(releaseDir string) error
	ResolveCurrent() (symlink.Info, error)
	FindExecutable(releaseDir string) (exe, app string, err error)
	Repair() (bool, error)
	Clear() error
}

// Config wires an Installer.
type Config struct {
	// Root holds one directory per installed release.
	Root string
	// DownloadsDir receives archives while they are verified.
	DownloadsDir string
	// LocksDir holds the per-release lock files.
	LocksDir string

	Fs        afero.Fs
	Fetcher   Fetcher
	Platform  ArtifactNamer
	Activator Activator
	Verifier  *Verifier
	Logger    *slog.Logger
	// Windows skips the executable bit fixup.
	Windows bool
}

// Installer runs the installation pipeline.
type Installer struct {
	cfg       Config
	extractor *archive.Extractor
	logger    *slog.Logger
}

// NewInstaller validates cfg and returns an Installer.
func NewInstaller(cfg Config) (*Installer, error) {
	if cfg.Root == "" {
		return nil, fmt.Errorf("root is required")
	}
	if cfg.Fetcher == nil || cfg.Platform == nil || cfg.Activator == nil {
		return nil, fmt.Errorf("fetcher, platform and activator are required")
	}
	if cfg.Fs == nil {
		cfg.Fs = afero.NewOsFs()
	}
	if cfg.Verifier == nil {
		cfg.Verifier = NewVerifier(cfg.Fs)
	}
	if cfg.DownloadsDir == "" {
		cfg.DownloadsDir = filepath.Join(cfg.Root, ".cache", "downloads")
	}
	if cfg.LocksDir == "" {
		cfg.LocksDir = filepath.Join(cfg.Root, ".locks")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Installer{cfg: cfg, extractor: archive.NewExtractor(cfg.Fs), logger: logger}, nil
}

// Dir returns the install directory of rel.
func (i *Installer) Dir(rel release.Release) string {
	return filepath.Join(i.cfg.Root, rel.NameWithRuntime())
}

// IsInstalled reports whether rel's directory exists.
func (i *Installer) IsInstalled(rel release.Release) (bool, error) {
	return afero.DirExists(i.cfg.Fs, i.Dir(rel))
}

// Install runs the pipeline for rel. An existing install short-circuits
// with AlreadyInstalled before any network activity.
func (i *Installer) Install(ctx context.Context, rel release.Release, opts Options) (Outcome, error) {
	name := rel.NameWithRuntime()
	obs := progress.Safe(opts.Observer)
	log := i.logger.With("release", name)

	if ok, err := i.IsInstalled(rel); err != nil {
		return Outcome{}, err
	} else if ok {
		log.Debug("already installed")
		return Outcome{Kind: AlreadyInstalled, Name: name}, nil
	}

	obs.Report(Initializing, "Preparing "+name)
	artifact, err := i.cfg.Platform.ArtifactName(rel)
	if err != nil {
		return Outcome{}, err
	}

	lock, err := i.lock(ctx, name)
	if err != nil {
		return Outcome{}, err
	}
	defer i.unlock(lock, log)

	// Another process may have finished the same install while we waited.
	if ok, err := i.IsInstalled(rel); err != nil {
		return Outcome{}, err
	} else if ok {
		return Outcome{Kind: AlreadyInstalled, Name: name}, nil
	}

	obs.Report(Downloading, "Fetching checksums")
	expected, err := i.expectedChecksum(ctx, rel, artifact)
	if err != nil {
		return Outcome{}, err
	}

	archivePath := filepath.Join(i.cfg.DownloadsDir, artifact)
	if err := i.download(ctx, rel, artifact, archivePath, obs); err != nil {
		return Outcome{}, err
	}

	obs.Report(VerifyingChecksum, "Verifying "+artifact)
	if err := i.cfg.Verifier.VerifyFile(archivePath, expected); err != nil {
		_ = i.cfg.Fs.Remove(archivePath)
		return Outcome{}, &FailedError{Release: rel, Reason: "checksum verification failed", Err: err}
	}

	obs.Report(Extracting, "Extracting "+artifact)
	if err := i.extract(ctx, rel, archivePath); err != nil {
		_ = i.cfg.Fs.Remove(archivePath)
		return Outcome{}, err
	}
	if err := i.cfg.Fs.Remove(archivePath); err != nil {
		log.Debug("remove archive", "path", archivePath, "error", err)
	}

	obs.Report(SettingDefault, "Checking current version")
	activated, err := i.activateIfNeeded(rel, opts.SetDefault)
	if err != nil {
		return Outcome{}, &FailedError{Release: rel, Reason: "activation failed", Err: err}
	}

	obs.Report(Done, "Installed "+name)
	log.Info("installed", "activated", activated)
	return Outcome{Kind: NewInstallation, Name: name, Activated: activated}, nil
}

func (i *Installer) expectedChecksum(ctx context.Context, rel release.Release, artifact string) (string, error) {
	manifest, err := i.cfg.Fetcher.GetChecksumFile(ctx, rel)
	if err != nil {
		return "", mapFetchError(rel, "checksum download failed", err)
	}

	if i.cfg.Verifier.HasKeyring() {
		sig, err := i.cfg.Fetcher.GetChecksumSignature(ctx, rel)
		if err != nil {
			if fetch.IsCancellation(err) {
				return "", err
			}
			return "", &FailedError{Release: rel, Reason: "signature download failed", Err: err}
		}
		if err := i.cfg.Verifier.VerifyManifest(manifest, sig); err != nil {
			return "", &FailedError{Release: rel, Reason: "signature verification failed", Err: err}
		}
	}

	sum, err := fetch.FindChecksum(manifest, artifact)
	if err != nil {
		if errors.Is(err, fetch.ErrChecksumNotFound) {
			return "", &NotFoundError{Release: rel, Messages: []string{err.Error()}}
		}
		return "", &FailedError{Release: rel, Reason: "invalid checksum manifest", Err: err}
	}
	return sum, nil
}

func (i *Installer) download(ctx context.Context, rel release.Release, artifact, archivePath string, obs progress.Observer[Stage]) error {
	meter := progress.NewMeter(progress.DefaultMeterInterval, func(msg string) {
		obs.Report(Downloading, msg)
	})
	sink := fetch.NewFileSink(i.cfg.Fs, archivePath)
	obs.Report(Downloading, "Downloading "+artifact)

	if err := i.cfg.Fetcher.GetArchive(ctx, rel, artifact, fetch.NewMeteredSink(sink, meter)); err != nil {
		sink.Abort()
		return mapFetchError(rel, "download failed", err)
	}
	if err := sink.Commit(); err != nil {
		sink.Abort()
		return &FailedError{Release: rel, Reason: "download failed", Err: err}
	}
	return nil
}

// extract unpacks into a staging directory under the root and renames it
// into place, so a release directory is never half-written.
func (i *Installer) extract(ctx context.Context, rel release.Release, archivePath string) error {
	fsys := i.cfg.Fs
	staging := filepath.Join(i.cfg.Root, ".staging-"+rel.NameWithRuntime())
	if err := fsys.RemoveAll(staging); err != nil {
		return &FailedError{Release: rel, Reason: "extraction failed", Err: err}
	}

	fail := func(err error) error {
		_ = fsys.RemoveAll(staging)
		if fetch.IsCancellation(err) {
			return err
		}
		return &FailedError{Release: rel, Reason: "extraction failed", Err: err}
	}

	if err := i.extractor.ExtractZip(ctx, archivePath, staging); err != nil {
		return fail(err)
	}

	exe, _, err := i.cfg.Activator.FindExecutable(staging)
	if err != nil {
		return fail(err)
	}
	if !i.cfg.Windows {
		if err := fsys.Chmod(exe, 0o755); err != nil {
			return fail(err)
		}
	}

	if err := fsys.Rename(staging, i.Dir(rel)); err != nil {
		return fail(err)
	}
	return nil
}

// activateIfNeeded makes rel current when forced, when nothing is current,
// or when the current link dangles.
func (i *Installer) activateIfNeeded(rel release.Release, force bool) (bool, error) {
	_, err := i.cfg.Activator.ResolveCurrent()
	var invalid *symlink.InvalidSymlinkError
	switch {
	case errors.As(err, &invalid):
		i.logger.Warn("removing dangling symlink", "path", invalid.Path, "target", invalid.Target)
		if _, err := i.cfg.Activator.Repair(); err != nil {
			return false, err
		}
	case errors.Is(err, symlink.ErrNoVersionSet):
	case err != nil:
		return false, err
	default:
		if !force {
			return false, nil
		}
	}

	if err := i.cfg.Activator.SetCurrent(i.Dir(rel)); err != nil {
		return false, err
	}
	return true, nil
}

func mapFetchError(rel release.Release, reason string, err error) error {
	if fetch.IsCancellation(err) {
		return err
	}
	if fetch.IsNotFound(err) {
		nf := &NotFoundError{Release: rel}
		var all *fetch.AllSourcesFailed
		if errors.As(err, &all) {
			for _, e := range all.Errors {
				nf.Messages = append(nf.Messages, e.Error())
			}
		}
		return nf
	}
	return &FailedError{Release: rel, Reason: reason, Err: err}
}

// lock takes the per-release lock. File locks only exist on the OS
// filesystem, so any other afero.Fs gets a nil Lock, whose Release is a no-op.
func (i *Installer) lock(ctx context.Context, name string) (*Lock, error) {
	if _, ok := i.cfg.Fs.(*afero.OsFs); !ok {
		i.logger.Debug("filesystem has no file locks, skipping", "release", name)
		return nil, nil
	}
	return AcquireLock(ctx, i.cfg.LocksDir, name)
}

func (i *Installer) unlock(l *Lock, log *slog.Logger) {
	if err := l.Release(); err != nil {
		log.Warn("release lock", "error", err)
	}
}

// Remove deletes rel's directory. The activation links are cleared first
// when they point into it.
func (i *Installer) Remove(ctx context.Context, rel release.Release) error {
	dir := i.Dir(rel)
	if ok, err := afero.DirExists(i.cfg.Fs, dir); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("%s: %w", rel, ErrNotInstalled)
	}

	lock, err := i.lock(ctx, rel.NameWithRuntime())
	if err != nil {
		return err
	}
	defer i.unlock(lock, i.logger.With("release", rel.NameWithRuntime()))

	if info, err := i.cfg.Activator.ResolveCurrent(); err == nil {
		if current, ok := info.ReleaseDir(i.cfg.Root); ok && current == dir {
			if err := i.cfg.Activator.Clear(); err != nil {
				return fmt.Errorf("clear current version: %w", err)
			}
		}
	}

	if err := i.cfg.Fs.RemoveAll(dir); err != nil {
		return fmt.Errorf("remove %s: %w", dir, err)
	}
	i.logger.Info("removed", "release", rel.NameWithRuntime())
	return nil
}

// Installed lists installed releases, newest first. Directories whose name
// is not a canonical release name are ignored.
func (i *Installer) Installed() ([]release.Release, error) {
	entries, err := afero.ReadDir(i.cfg.Fs, i.cfg.Root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var out []release.Release
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		rel, ok := release.Parse(e.Name())
		if ok && rel.NameWithRuntime() == e.Name() {
			out = append(out, rel)
		}
	}
	release.SortDescending(out)
	return out, nil
}

// Current returns the release the activation symlink points into.
func (i *Installer) Current() (release.Release, error) {
	info, err := i.cfg.Activator.ResolveCurrent()
	if err != nil {
		return release.Release{}, err
	}
	dir, ok := info.ReleaseDir(i.cfg.Root)
	if !ok {
		return release.Release{}, fmt.Errorf("symlink %s points outside %s", info.SymlinkPath, i.cfg.Root)
	}
	rel, ok := release.Parse(filepath.Base(dir))
	if !ok {
		return release.Release{}, fmt.Errorf("symlink %s points to unknown release %s", info.SymlinkPath, dir)
	}
	return rel, nil
}
