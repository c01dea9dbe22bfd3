// Package shell puts the gdvm bin directory on the user's PATH.
//
// Users either evaluate the snippet directly:
//
//	eval "$(gdvm env bash)"
//
// or let `gdvm env --install` append that line to their rc file. Editing is
// idempotent and atomic (temp file + rename).
package shell

import "fmt"

// Type is a supported shell.
type Type string

const (
	Bash       Type = "bash"
	Zsh        Type = "zsh"
	Fish       Type = "fish"
	PowerShell Type = "pwsh"
	Unknown    Type = "unknown"
)

func (s Type) String() string {
	return string(s)
}

// IsValid reports whether s is supported.
func (s Type) IsValid() bool {
	switch s {
	case Bash, Zsh, Fish, PowerShell:
		return true
	default:
		return false
	}
}

// Supported lists the supported shells.
func Supported() []Type {
	return []Type{Bash, Zsh, Fish, PowerShell}
}

// Parse maps a shell name or binary path to a Type.
func Parse(name string) (Type, error) {
	s := fromPath(name)
	if !s.IsValid() {
		return Unknown, &UnsupportedShellError{Shell: name}
	}
	return s, nil
}

// UnsupportedShellError is returned for shells without PATH support.
type UnsupportedShellError struct {
	Shell string
}

func (e *UnsupportedShellError) Error() string {
	return fmt.Sprintf("unsupported shell: %q (supported: bash, zsh, fish, pwsh)", e.Shell)
}

// RCFileError represents an error with shell rc file operations
type RCFileError struct {
	Path    string
	Message string
	Cause   error
}

func (e *RCFileError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("rc file error (%s): %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("rc file error (%s): %s", e.Path, e.Message)
}

func (e *RCFileError) Unwrap() error {
	return e.Cause
}
