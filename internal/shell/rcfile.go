package shell

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/spf13/afero"
)

// activationMarker identifies an existing gdvm line in an rc file.
const activationMarker = "gdvm env"

// BackupSuffix is appended to the rc file path for the backup copy.
const BackupSuffix = ".gdvm-backup"

// RCFilePath returns the startup file of s under home.
func RCFilePath(home string, s Type) (string, error) {
	switch s {
	case Bash:
		return filepath.Join(home, ".bashrc"), nil
	case Zsh:
		return filepath.Join(home, ".zshrc"), nil
	case Fish:
		return filepath.Join(home, ".config", "fish", "config.fish"), nil
	case PowerShell:
		return filepath.Join(home, ".config", "powershell", "Microsoft.PowerShell_profile.ps1"), nil
	default:
		return "", &UnsupportedShellError{Shell: s.String()}
	}
}

// InstallResult reports what Install did.
type InstallResult struct {
	RCFile         string
	Line           string
	AlreadyPresent bool
	BackupPath     string
}

// Install appends the activation line for s to rcPath unless a gdvm line
// is already there. A missing file is created. With backup set, the
// previous content is copied to rcPath+BackupSuffix first.
func Install(fsys afero.Fs, rcPath string, s Type, backup bool) (*InstallResult, error) {
	line, err := ActivationLine(s)
	if err != nil {
		return nil, err
	}
	res := &InstallResult{RCFile: rcPath, Line: line}

	existing, err := afero.ReadFile(fsys, rcPath)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, &RCFileError{Path: rcPath, Message: "failed to read file", Cause: err}
	}
	if bytes.Contains(existing, []byte(activationMarker)) {
		res.AlreadyPresent = true
		return res, nil
	}

	if backup && existing != nil {
		res.BackupPath = rcPath + BackupSuffix
		if err := afero.WriteFile(fsys, res.BackupPath, existing, 0o644); err != nil {
			return nil, &RCFileError{Path: res.BackupPath, Message: "failed to write backup file", Cause: err}
		}
	}

	var buf bytes.Buffer
	buf.Write(existing)
	if len(existing) > 0 && !bytes.HasSuffix(existing, []byte("\n")) {
		buf.WriteByte('\n')
	}
	fmt.Fprintf(&buf, "\n# gdvm - Godot version manager\n%s\n", line)

	if err := writeAtomic(fsys, rcPath, buf.Bytes()); err != nil {
		return nil, err
	}
	return res, nil
}

func writeAtomic(fsys afero.Fs, path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return &RCFileError{Path: path, Message: "failed to create parent directory", Cause: err}
	}

	mode := fs.FileMode(0o644)
	if info, err := fsys.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := afero.TempFile(fsys, dir, ".gdvm-tmp-*")
	if err != nil {
		return &RCFileError{Path: path, Message: "failed to create temporary file", Cause: err}
	}
	tmpPath := tmp.Name()
	defer func() { _ = fsys.Remove(tmpPath) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return &RCFileError{Path: path, Message: "failed to write temporary file", Cause: err}
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return &RCFileError{Path: path, Message: "failed to sync file", Cause: err}
	}
	if err := tmp.Close(); err != nil {
		return &RCFileError{Path: path, Message: "failed to close temporary file", Cause: err}
	}
	if err := fsys.Chmod(tmpPath, mode); err != nil {
		return &RCFileError{Path: path, Message: "failed to set permissions", Cause: err}
	}
	if err := fsys.Rename(tmpPath, path); err != nil {
		return &RCFileError{Path: path, Message: "failed to rename temp file", Cause: err}
	}
	return nil
}
