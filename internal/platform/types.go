// Package platform detects the host operating system and architecture and
// maps a Godot release onto the artifact name published for that host.
//
// Detection uses runtime.GOOS/GOARCH refined by gopsutil's kernel
// architecture, so a translated (Rosetta, WoW64) process still resolves the
// native build. Artifact naming is an explicit lookup table because upstream
// naming changed at several version boundaries.
package platform

import "context"

// OS is a host operating system.
type OS int

const (
	Unknown OS = iota
	Windows
	Linux
	MacOS
	FreeBSD
)

// String returns the lowercase OS name.
func (o OS) String() string {
	switch o {
	case Windows:
		return "windows"
	case Linux:
		return "linux"
	case MacOS:
		return "macos"
	case FreeBSD:
		return "freebsd"
	default:
		return "unknown"
	}
}

// Arch is a host CPU architecture.
type Arch int

const (
	X86 Arch = iota
	X64
	Arm32
	Arm64
)

// String returns the architecture name.
func (a Arch) String() string {
	switch a {
	case X86:
		return "x86"
	case X64:
		return "x64"
	case Arm32:
		return "arm32"
	case Arm64:
		return "arm64"
	default:
		return "unknown"
	}
}

// Info contains platform detection information.
type Info struct {
	OS         OS
	Arch       Arch
	ArchRaw    string // runtime.GOARCH of this process
	KernelArch string // machine architecture reported by the kernel, may be empty
}

// IsMacOS returns true if the platform is macOS.
func (i *Info) IsMacOS() bool {
	return i.OS == MacOS
}

// IsWindows returns true if the platform is Windows.
func (i *Info) IsWindows() bool {
	return i.OS == Windows
}

// IsAppleSilicon returns true if running on Apple Silicon (macOS + arm64).
func (i *Info) IsAppleSilicon() bool {
	return i.OS == MacOS && i.Arch == Arm64
}

// Detector is the interface for platform detection.
type Detector interface {
	Detect(ctx context.Context) (*Info, error)
}

// StaticDetector always returns the same Info. Useful for tests and for
// forcing a target platform.
type StaticDetector struct {
	Info Info
}

// Detect returns a copy of the configured info.
func (d StaticDetector) Detect(ctx context.Context) (*Info, error) {
	info := d.Info
	return &info, nil
}
