package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

const (
	// EnvHome overrides the root directory.
	EnvHome = "GDVM_HOME"
	// FileName is the config file name under the root.
	FileName = "gdvm.ini"
)

// Paths is every location gdvm reads or writes, derived from one root.
type Paths struct {
	Root             string
	ConfigFile       string
	BinDir           string
	Symlink          string
	MacAppSymlink    string
	CacheDir         string
	ReleasesCacheDir string
	DownloadsDir     string
	LocksDir         string
	LogDir           string
	LogFile          string
}

// NewPaths lays out the directories under root.
func NewPaths(root string) Paths {
	root = filepath.Clean(root)
	bin := filepath.Join(root, "bin")
	cache := filepath.Join(root, ".cache")
	logDir := filepath.Join(root, ".log")

	link := "godot"
	if runtime.GOOS == "windows" {
		link = "godot.exe"
	}

	return Paths{
		Root:             root,
		ConfigFile:       filepath.Join(root, FileName),
		BinDir:           bin,
		Symlink:          filepath.Join(bin, link),
		MacAppSymlink:    filepath.Join(bin, "Godot.app"),
		CacheDir:         cache,
		ReleasesCacheDir: filepath.Join(cache, "releases"),
		DownloadsDir:     filepath.Join(cache, "downloads"),
		LocksDir:         filepath.Join(root, ".locks"),
		LogDir:           logDir,
		LogFile:          filepath.Join(logDir, "gdvm.log"),
	}
}

// DefaultRoot is $GDVM_HOME, or ~/gdvm when unset.
func DefaultRoot() (string, error) {
	if root := os.Getenv(EnvHome); root != "" {
		return root, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determine home directory: %w", err)
	}
	return filepath.Join(home, "gdvm"), nil
}

// ResolvePaths returns the paths for DefaultRoot.
func ResolvePaths() (Paths, error) {
	root, err := DefaultRoot()
	if err != nil {
		return Paths{}, err
	}
	return NewPaths(root), nil
}
