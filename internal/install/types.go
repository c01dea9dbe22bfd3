package install

import (
	"fmt"
	"strings"

	"github.com/patricktcoakley/gdvm-sub001/internal/progress"
	"github.com/patricktcoakley/gdvm-sub001/internal/release"
)

// Stage is one step of an installation. Stages are reported in order and
// never re-entered.
type Stage int

const (
	Initializing Stage = iota
	Downloading
	VerifyingChecksum
	Extracting
	SettingDefault
	Done
)

var stageNames = [...]string{
	Initializing:      "Initializing",
	Downloading:       "Downloading",
	VerifyingChecksum: "Verifying checksum",
	Extracting:        "Extracting",
	SettingDefault:    "Setting default",
	Done:              "Done",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("Stage(%d)", int(s))
	}
	return stageNames[s]
}

// OutcomeKind tells a fresh installation from a no-op.
type OutcomeKind int

const (
	AlreadyInstalled OutcomeKind = iota
	NewInstallation
)

// Outcome is the result of a successful Install.
type Outcome struct {
	Kind OutcomeKind
	// Name is the release's NameWithRuntime.
	Name string
	// Activated is set when the release was made current.
	Activated bool
}

// Options tune one Install call.
type Options struct {
	// SetDefault activates the release even when another one is current.
	SetDefault bool
	// Observer receives stage events. Nil discards them.
	Observer progress.Observer[Stage]
}

// NotFoundError means no source has the release or its artifact.
type NotFoundError struct {
	Release  release.Release
	Messages []string
}

func (e *NotFoundError) Error() string {
	msg := fmt.Sprintf("release %s not found", e.Release)
	if len(e.Messages) > 0 {
		msg += ": " + strings.Join(e.Messages, "; ")
	}
	return msg
}

// FailedError is a download, verification, extraction or activation
// failure.
type FailedError struct {
	Release release.Release
	Reason  string
	Err     error
}

func (e *FailedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("install %s: %s: %v", e.Release, e.Reason, e.Err)
	}
	return fmt.Sprintf("install %s: %s", e.Release, e.Reason)
}

func (e *FailedError) Unwrap() error {
	return e.Err
}
