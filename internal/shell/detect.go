package shell

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/shirou/gopsutil/v4/process"
)

// Detection is the result of Detect.
type Detection struct {
	Shell Type
	// Method describes how the shell was found.
	Method string
	// Path is the shell binary or process name, when known.
	Path string
}

// Detector finds the user's shell.
type Detector struct {
	getenv func(string) string
	// parent returns the name of the parent process.
	parent func(ctx context.Context) (string, error)
}

// NewDetector returns a Detector for the running process.
func NewDetector() *Detector {
	return &Detector{getenv: os.Getenv, parent: parentName}
}

// Detect checks the parent process first, since $SHELL names the login
// shell rather than the one gdvm runs in, then falls back to $SHELL.
// Shell is Unknown when neither gives a supported shell.
func (d *Detector) Detect(ctx context.Context) Detection {
	if d.parent != nil {
		if name, err := d.parent(ctx); err == nil {
			if s := fromPath(name); s.IsValid() {
				return Detection{Shell: s, Method: "parent process", Path: name}
			}
		}
	}

	if sh := d.getenv("SHELL"); sh != "" {
		if s := fromPath(sh); s.IsValid() {
			return Detection{Shell: s, Method: "$SHELL", Path: sh}
		}
	}

	return Detection{Shell: Unknown, Method: "detection failed"}
}

func parentName(ctx context.Context) (string, error) {
	p, err := process.NewProcessWithContext(ctx, int32(os.Getppid()))
	if err != nil {
		return "", err
	}
	return p.NameWithContext(ctx)
}

// fromPath extracts the shell type from a binary path or process name,
// for example /bin/bash, -zsh or pwsh.exe.
func fromPath(path string) Type {
	base := strings.ToLower(filepath.Base(path))
	base = strings.TrimPrefix(base, "-")
	base = strings.TrimSuffix(base, ".exe")

	switch base {
	case "bash":
		return Bash
	case "zsh":
		return Zsh
	case "fish":
		return Fish
	case "pwsh", "powershell":
		return PowerShell
	default:
		return Unknown
	}
}
