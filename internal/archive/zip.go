// Package archive extracts downloaded release archives.
package archive

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// UnsafePathError reports an entry that would be written outside the
// destination directory.
type UnsafePathError struct {
	Entry  string
	Target string
}

func (e *UnsafePathError) Error() string {
	return fmt.Sprintf("illegal path in archive: %s resolves to %s", e.Entry, e.Target)
}

// Extractor unpacks zip archives onto an injected filesystem.
type Extractor struct {
	fs afero.Fs
}

// NewExtractor returns an extractor writing to fs.
func NewExtractor(fs afero.Fs) *Extractor {
	return &Extractor{fs: fs}
}

type entry struct {
	file   *zip.File
	target string
	link   string
}

// ExtractZip extracts archivePath into destDir. When every entry sits below
// one common top-level directory that directory is stripped, except for
// macOS .app bundles which are kept whole. All entries are validated before
// anything is written.
func (e *Extractor) ExtractZip(ctx context.Context, archivePath, destDir string) error {
	f, err := e.fs.Open(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat archive: %w", err)
	}
	// Insecure names are rejected by plan with the offending entry.
	zr, err := zip.NewReader(f, info.Size())
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		return fmt.Errorf("read zip: %w", err)
	}

	entries, err := plan(zr.File, destDir)
	if err != nil {
		return err
	}

	if err := e.fs.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("create dest dir: %w", err)
	}
	for _, en := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.write(en); err != nil {
			return err
		}
	}
	return nil
}

// plan maps every archive entry to its destination and rejects the archive
// if any of them escapes destDir.
func plan(files []*zip.File, destDir string) ([]entry, error) {
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name
	}
	prefix := StripPrefix(names)

	root := filepath.Clean(destDir)
	entries := make([]entry, 0, len(files))
	for _, f := range files {
		name := strings.ReplaceAll(f.Name, `\`, "/")
		if path.IsAbs(name) || filepath.IsAbs(name) {
			return nil, &UnsafePathError{Entry: f.Name, Target: name}
		}
		// Checked before stripping so a shared "../" head cannot be removed
		// as if it were a wrapper folder.
		raw := filepath.Join(root, filepath.FromSlash(name))
		if err := ensureWithinRoot(root, raw); err != nil {
			return nil, &UnsafePathError{Entry: f.Name, Target: raw}
		}
		rel := strings.TrimPrefix(name, prefix)
		if strings.Trim(rel, "/") == "" {
			continue
		}

		target := filepath.Join(root, filepath.FromSlash(rel))
		if err := ensureWithinRoot(root, target); err != nil {
			return nil, &UnsafePathError{Entry: f.Name, Target: target}
		}

		en := entry{file: f, target: target}
		if f.Mode()&os.ModeSymlink != 0 {
			link, err := readLink(f)
			if err != nil {
				return nil, err
			}
			resolved := link
			if !filepath.IsAbs(link) {
				resolved = filepath.Join(filepath.Dir(target), filepath.FromSlash(link))
			}
			if err := ensureWithinRoot(root, resolved); err != nil {
				return nil, &UnsafePathError{Entry: f.Name, Target: resolved}
			}
			en.link = link
		}
		entries = append(entries, en)
	}
	return entries, nil
}

// StripPrefix returns the top-level directory ("name/") to strip from every
// entry, or "" when the archive is already flat or its root is a .app
// bundle.
func StripPrefix(names []string) string {
	var first string
	nested := false
	for _, n := range names {
		n = strings.ReplaceAll(n, `\`, "/")
		head, rest, found := strings.Cut(n, "/")
		if first == "" {
			first = head
		} else if head != first {
			return ""
		}
		if found && rest != "" {
			nested = true
		}
	}
	if !nested || first == "" || first == "." || first == ".." || strings.HasSuffix(first, ".app") {
		return ""
	}
	return first + "/"
}

func ensureWithinRoot(root, target string) error {
	target = filepath.Clean(target)
	if target == root {
		return nil
	}
	if !strings.HasPrefix(target, root+string(os.PathSeparator)) {
		return fmt.Errorf("illegal path %s", target)
	}
	return nil
}

func readLink(f *zip.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()
	b, err := io.ReadAll(io.LimitReader(rc, 4096))
	if err != nil {
		return "", fmt.Errorf("read link %s: %w", f.Name, err)
	}
	return string(b), nil
}

func (e *Extractor) write(en entry) error {
	f := en.file
	switch {
	case f.FileInfo().IsDir():
		if err := e.fs.MkdirAll(en.target, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", en.target, err)
		}
		return nil

	case en.link != "":
		if err := e.fs.MkdirAll(filepath.Dir(en.target), 0o755); err != nil {
			return fmt.Errorf("create parent dir for %s: %w", en.target, err)
		}
		linker, ok := e.fs.(afero.Linker)
		if !ok {
			return fmt.Errorf("create symlink %s: filesystem does not support symlinks", en.target)
		}
		if err := linker.SymlinkIfPossible(en.link, en.target); err != nil {
			return fmt.Errorf("create symlink %s: %w", en.target, err)
		}
		return nil
	}

	if err := e.fs.MkdirAll(filepath.Dir(en.target), 0o755); err != nil {
		return fmt.Errorf("create parent dir for %s: %w", en.target, err)
	}
	mode := f.Mode().Perm()
	if mode == 0 {
		mode = 0o644
	}
	out, err := e.fs.OpenFile(en.target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("create file %s: %w", en.target, err)
	}
	rc, err := f.Open()
	if err != nil {
		out.Close()
		return fmt.Errorf("open %s: %w", f.Name, err)
	}
	_, err = io.Copy(out, rc)
	rc.Close()
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write file %s: %w", en.target, err)
	}
	return nil
}
