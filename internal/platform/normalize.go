package platform

import (
	"fmt"
	"strings"
)

// osMap maps GOOS and gopsutil OS names to OS values.
var osMap = map[string]OS{
	"windows": Windows,
	"linux":   Linux,
	"darwin":  MacOS,
	"macos":   MacOS,
	"freebsd": FreeBSD,
}

// archMap maps GOARCH values and kernel machine names to Arch values.
var archMap = map[string]Arch{
	"386":     X86,
	"i386":    X86,
	"i686":    X86,
	"x86":     X86,
	"amd64":   X64,
	"x86_64":  X64,
	"x64":     X64,
	"arm":     Arm32,
	"armv6l":  Arm32,
	"armv7l":  Arm32,
	"armv7":   Arm32,
	"arm64":   Arm64,
	"aarch64": Arm64,
}

// normalizeOS converts an OS name to an OS value. Unrecognized systems map to
// Unknown rather than failing; the artifact table rejects them later.
func normalizeOS(name string) OS {
	if os, ok := osMap[strings.ToLower(strings.TrimSpace(name))]; ok {
		return os
	}
	return Unknown
}

// normalizeArch converts an architecture name to an Arch value.
func normalizeArch(arch string) (Arch, error) {
	if a, ok := archMap[strings.ToLower(strings.TrimSpace(arch))]; ok {
		return a, nil
	}
	return 0, fmt.Errorf("unsupported architecture: %s", arch)
}
