package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/patricktcoakley/gdvm-sub001/internal/config"
	"github.com/patricktcoakley/gdvm-sub001/internal/install"
	"github.com/patricktcoakley/gdvm-sub001/internal/platform"
	"github.com/patricktcoakley/gdvm-sub001/internal/release"
	"github.com/patricktcoakley/gdvm-sub001/internal/symlink"
)

// Process exit codes.
const (
	exitOK        = 0
	exitFailure   = 1
	exitUsage     = 2
	exitSymlink   = 3
	exitConfig    = 4
	exitCancelled = 130
)

// usageError marks bad flags or arguments.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

// exitCode maps an error returned by a command to the process exit code.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return exitCancelled
	}

	var usage *usageError
	if errors.As(err, &usage) {
		return exitUsage
	}

	var cfgErr *config.Error
	if errors.As(err, &cfgErr) {
		return exitConfig
	}

	var resErr *release.ResolutionError
	if errors.As(err, &resErr) {
		if resErr.Kind == release.Failed {
			return exitFailure
		}
		return exitUsage
	}

	var notFound *install.NotFoundError
	if errors.As(err, &notFound) {
		return exitUsage
	}

	var invalid *symlink.InvalidSymlinkError
	if errors.As(err, &invalid) || errors.Is(err, symlink.ErrNoVersionSet) || errors.Is(err, symlink.ErrNoExecutable) {
		return exitSymlink
	}

	return exitFailure
}

// describe renders err for the terminal, adding hints for the errors a user
// can act on.
func describe(err error) string {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "cancelled"
	}

	var resErr *release.ResolutionError
	if errors.As(err, &resErr) && resErr.Kind == release.NotFound {
		return fmt.Sprintf("%v (run `gdvm search` to see available releases)", err)
	}

	var unsupported *platform.UnsupportedError
	if errors.As(err, &unsupported) {
		return fmt.Sprintf("%v (try a different version, or a release without mono)", err)
	}

	if errors.Is(err, symlink.ErrNoVersionSet) {
		return "no version set (run `gdvm set <version>` or `gdvm install <version>`)"
	}
	return err.Error()
}
