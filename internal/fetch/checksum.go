package fetch

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"path"
	"strings"
)

const (
	// ChecksumFile is the manifest published next to every release.
	ChecksumFile = "SHA512-SUMS.txt"
	// ChecksumSignatureFile is the detached OpenPGP signature of the manifest.
	ChecksumSignatureFile = ChecksumFile + ".sig"
)

// ErrChecksumNotFound is returned when the manifest has no entry for a file.
var ErrChecksumNotFound = errors.New("checksum not found")

// FindChecksum returns the hex digest for filename in a manifest of
// "<hex>  <filename>" lines. Entries carrying a path or a binary-mode "*"
// marker match on their basename.
func FindChecksum(manifest []byte, filename string) (string, error) {
	scanner := bufio.NewScanner(bytes.NewReader(manifest))
	for scanner.Scan() {
		parts := strings.Fields(scanner.Text())
		if len(parts) < 2 {
			continue
		}
		name := strings.TrimPrefix(parts[1], "*")
		if name == filename || path.Base(name) == filename {
			return strings.ToLower(parts[0]), nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("scan checksum file: %w", err)
	}
	return "", fmt.Errorf("%w for %s", ErrChecksumNotFound, filename)
}
