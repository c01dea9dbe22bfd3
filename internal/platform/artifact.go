package platform

import (
	"context"
	"fmt"

	"github.com/patricktcoakley/gdvm-sub001/internal/release"
)

// version is a major.minor boundary. The zero value of until means "open".
type version struct {
	major, minor uint
}

var openEnded = version{}

// artifactKey identifies one column of the naming matrix.
type artifactKey struct {
	os      OS
	arch    Arch
	runtime release.Runtime
}

// artifactRow names the artifact suffix for releases in [from, until).
type artifactRow struct {
	from   version
	until  version
	suffix string
}

func (r artifactRow) contains(rel release.Release) bool {
	if !rel.AtLeast(r.from.major, r.from.minor) {
		return false
	}
	if r.until == openEnded {
		return true
	}
	return !rel.AtLeast(r.until.major, r.until.minor)
}

var (
	v3_0 = version{3, 0}
	v3_3 = version{3, 3}
	v4_0 = version{4, 0}
	v4_2 = version{4, 2}
	v4_3 = version{4, 3}
)

// artifactTable is the complete naming matrix. A combination with no row is
// unsupported; nothing is derived by default.
var artifactTable = map[artifactKey][]artifactRow{
	{Linux, X64, release.Standard}: {
		{v3_0, v4_0, "x11.64"},
		{v4_0, openEnded, "linux.x86_64"},
	},
	{Linux, X64, release.Mono}: {
		{v3_0, v4_0, "mono_x11_64"},
		{v4_0, openEnded, "mono_linux_x86_64"},
	},
	{Linux, X86, release.Standard}: {
		{v3_0, v4_0, "x11.32"},
		{v4_0, openEnded, "linux.x86_32"},
	},
	{Linux, X86, release.Mono}: {
		{v3_0, v4_0, "mono_x11_32"},
		{v4_0, openEnded, "mono_linux_x86_32"},
	},
	{Linux, Arm64, release.Standard}: {
		{v4_0, openEnded, "linux.arm64"},
	},
	{Linux, Arm64, release.Mono}: {
		{v4_2, openEnded, "mono_linux_arm64"},
	},
	{Linux, Arm32, release.Standard}: {
		{v4_0, openEnded, "linux.arm32"},
	},
	{Linux, Arm32, release.Mono}: {
		{v4_2, openEnded, "mono_linux_arm32"},
	},

	{MacOS, X64, release.Standard}: {
		{v3_0, v3_3, "osx.64"},
		{v3_3, v4_0, "osx.universal"},
		{v4_0, openEnded, "macos.universal"},
	},
	{MacOS, X64, release.Mono}: {
		{v3_0, v3_3, "mono_osx.64"},
		{v3_3, v4_0, "mono_osx.universal"},
		{v4_0, openEnded, "mono_macos.universal"},
	},
	{MacOS, Arm64, release.Standard}: {
		{v3_3, v4_0, "osx.universal"},
		{v4_0, openEnded, "macos.universal"},
	},
	{MacOS, Arm64, release.Mono}: {
		{v3_3, v4_0, "mono_osx.universal"},
		{v4_0, openEnded, "mono_macos.universal"},
	},

	{Windows, X64, release.Standard}: {
		{v3_0, openEnded, "win64.exe"},
	},
	{Windows, X64, release.Mono}: {
		{v3_0, openEnded, "mono_win64"},
	},
	{Windows, X86, release.Standard}: {
		{v3_0, openEnded, "win32.exe"},
	},
	{Windows, X86, release.Mono}: {
		{v3_0, openEnded, "mono_win32"},
	},
	{Windows, Arm64, release.Standard}: {
		{v4_3, openEnded, "windows_arm64.exe"},
	},
	{Windows, Arm64, release.Mono}: {
		{v4_3, openEnded, "mono_windows_arm64"},
	},
}

// UnsupportedError reports a release/host combination with no published
// artifact.
type UnsupportedError struct {
	Release release.Release
	OS      OS
	Arch    Arch
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("godot %s is not available for %s/%s", e.Release.NameWithRuntime(), e.OS, e.Arch)
}

// ArtifactSuffix returns the platform part of the artifact name, e.g.
// "linux.x86_64" or "mono_macos.universal".
func ArtifactSuffix(rel release.Release, os OS, arch Arch) (string, error) {
	rows, ok := artifactTable[artifactKey{os: os, arch: arch, runtime: rel.Runtime}]
	if !ok {
		return "", &UnsupportedError{Release: rel, OS: os, Arch: arch}
	}
	for _, row := range rows {
		if row.contains(rel) {
			return row.suffix, nil
		}
	}
	return "", &UnsupportedError{Release: rel, OS: os, Arch: arch}
}

// ArtifactName returns the archive file name, e.g.
// "Godot_v4.2-stable_linux.x86_64.zip".
func ArtifactName(rel release.Release, os OS, arch Arch) (string, error) {
	suffix, err := ArtifactSuffix(rel, os, arch)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Godot_v%s_%s.zip", rel.Name(), suffix), nil
}

// Resolver binds the artifact table to one host.
type Resolver struct {
	info Info
}

// NewResolver detects the host once and returns a Resolver for it.
func NewResolver(ctx context.Context, detector Detector) (*Resolver, error) {
	info, err := detector.Detect(ctx)
	if err != nil {
		return nil, err
	}
	return &Resolver{info: *info}, nil
}

// Host returns the detected host.
func (r *Resolver) Host() Info {
	return r.info
}

// GetPlatformString returns the artifact suffix of rel for the host.
func (r *Resolver) GetPlatformString(rel release.Release) (string, error) {
	return ArtifactSuffix(rel, r.info.OS, r.info.Arch)
}

// ArtifactName returns the archive file name of rel for the host.
func (r *Resolver) ArtifactName(rel release.Release) (string, error) {
	return ArtifactName(rel, r.info.OS, r.info.Arch)
}
