package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/afero"

	"github.com/patricktcoakley/gdvm-sub001/internal/config"
	"github.com/patricktcoakley/gdvm-sub001/internal/fetch"
	"github.com/patricktcoakley/gdvm-sub001/internal/install"
	"github.com/patricktcoakley/gdvm-sub001/internal/logging"
	"github.com/patricktcoakley/gdvm-sub001/internal/platform"
	"github.com/patricktcoakley/gdvm-sub001/internal/service"
	"github.com/patricktcoakley/gdvm-sub001/internal/symlink"
)

// app holds the per-invocation state shared by all commands.
type app struct {
	stdout io.Writer
	stderr io.Writer
	fs     afero.Fs

	verbose bool
	noColor bool

	paths    config.Paths
	cfg      *config.Config
	cfgErr   error
	logger   *slog.Logger
	closeLog func() error
	style    style

	// detector is replaced in tests.
	detector platform.Detector
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{
		stdout:   stdout,
		stderr:   stderr,
		fs:       afero.NewOsFs(),
		logger:   slog.New(slog.DiscardHandler),
		closeLog: func() error { return nil },
		style:    newStyle(true),
		detector: platform.NewDetector(),
	}
}

// setup resolves paths, loads the config and builds the logger. A broken
// config is remembered rather than returned when tolerant is set, so the
// config commands can still repair it.
func (a *app) setup(tolerant bool) error {
	a.style = newStyle(a.noColor || os.Getenv("NO_COLOR") != "" || !logging.IsTerminal(a.stdout))

	paths, err := config.ResolvePaths()
	if err != nil {
		return err
	}
	a.paths = paths

	a.cfg, a.cfgErr = config.Load(a.fs, paths.ConfigFile)
	if a.cfgErr != nil && !tolerant {
		return a.cfgErr
	}

	level := "info"
	if a.cfg != nil {
		level = a.cfg.Log.Level
	}
	if a.verbose {
		level = "debug"
	}
	lvl, err := logging.ParseLevel(level)
	if err != nil {
		return err
	}

	logger, closeFn, err := logging.New(logging.Options{
		Level:   lvl,
		Console: a.stderr,
		NoColor: a.noColor,
		File:    paths.LogFile,
	})
	if err != nil {
		return err
	}
	a.logger = logger
	a.closeLog = closeFn
	return nil
}

func (a *app) close() {
	if err := a.closeLog(); err != nil {
		fmt.Fprintf(a.stderr, "close log: %v\n", err)
	}
}

// stack is everything a version command needs.
type stack struct {
	fetcher   *fetch.Fetcher
	installer *install.Installer
	activator *symlink.Activator
	versions  *service.VersionService
	host      platform.Info
}

func (a *app) buildStack(ctx context.Context) (*stack, error) {
	resolver, err := platform.NewResolver(ctx, a.detector)
	if err != nil {
		return nil, fmt.Errorf("detect platform: %w", err)
	}
	host := resolver.Host()
	a.logger.Debug("host detected", "os", host.OS, "arch", host.Arch, "kernel_arch", host.KernelArch)

	policy := fetch.DefaultRetryPolicy()
	policy.Notify = func(err error, wait time.Duration) {
		a.logger.Warn("request failed, retrying", "error", err, "wait", wait)
	}
	client := fetch.NewClient(fetch.WithLogger(a.logger), fetch.WithRetryPolicy(policy))
	var ghOpts []fetch.GitHubOption
	if a.cfg.GitHub.Token != "" {
		ghOpts = append(ghOpts, fetch.WithToken(a.cfg.GitHub.Token))
	}
	sources := []fetch.Source{
		fetch.NewGitHub(client, ghOpts...),
		fetch.NewTuxFamily(client, fetch.TuxFamilyURL),
	}
	fetcher := fetch.NewFetcher(sources,
		fetch.WithCache(fetch.NewCache(a.fs, a.paths.ReleasesCacheDir, fetch.DefaultCacheTTL)),
		fetch.WithFetcherLogger(a.logger),
	)

	activator, err := symlink.NewActivator(a.fs, a.paths.Symlink, a.paths.MacAppSymlink, host.OS)
	if err != nil {
		return nil, err
	}

	verifier := install.NewVerifier(a.fs)
	if a.cfg.Verify.Keyring != "" {
		if err := verifier.LoadKeyring(a.cfg.Verify.Keyring); err != nil {
			return nil, &config.Error{Path: a.paths.ConfigFile, Err: err}
		}
	}

	installer, err := install.NewInstaller(install.Config{
		Root:         a.paths.Root,
		DownloadsDir: a.paths.DownloadsDir,
		LocksDir:     a.paths.LocksDir,
		Fs:           a.fs,
		Fetcher:      fetcher,
		Platform:     resolver,
		Activator:    activator,
		Verifier:     verifier,
		Logger:       a.logger,
		Windows:      host.IsWindows(),
	})
	if err != nil {
		return nil, err
	}

	return &stack{
		fetcher:   fetcher,
		installer: installer,
		activator: activator,
		versions:  service.NewVersionService(fetcher, installer, activator, a.logger),
		host:      host,
	}, nil
}

// style colors terminal output.
type style struct {
	current    func(a ...any) string
	success    func(a ...any) string
	warn       func(a ...any) string
	errorLabel func(a ...any) string
	stage      func(a ...any) string
	dim        func(a ...any) string
}

func newStyle(plain bool) style {
	mk := func(attrs ...color.Attribute) func(a ...any) string {
		c := color.New(attrs...)
		if plain {
			c.DisableColor()
		} else {
			c.EnableColor()
		}
		return c.SprintFunc()
	}
	return style{
		current:    mk(color.FgGreen, color.Bold),
		success:    mk(color.FgGreen),
		warn:       mk(color.FgYellow),
		errorLabel: mk(color.FgRed, color.Bold),
		stage:      mk(color.FgCyan),
		dim:        mk(color.Faint),
	}
}
