package platform

import (
	"context"
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/v4/host"
)

// RealDetector implements Detector using actual platform detection.
type RealDetector struct {
	goos   string
	goarch string
	// hostInfo is overridable in tests.
	hostInfo func(ctx context.Context) (*host.InfoStat, error)
}

// NewDetector creates a new platform detector.
func NewDetector() Detector {
	return &RealDetector{
		goos:     runtime.GOOS,
		goarch:   runtime.GOARCH,
		hostInfo: host.InfoWithContext,
	}
}

// Detect performs platform detection and returns platform information.
//
// The OS comes from runtime.GOOS. The architecture prefers the kernel's
// machine type from gopsutil, so an x86_64 binary running under Rosetta on
// Apple Silicon still reports arm64. If gopsutil fails, detection falls back
// to runtime.GOARCH; a cancelled context is a hard failure.
func (d *RealDetector) Detect(ctx context.Context) (*Info, error) {
	info := &Info{
		OS:      normalizeOS(d.goos),
		ArchRaw: d.goarch,
	}

	arch, err := normalizeArch(d.goarch)
	if err != nil {
		return nil, fmt.Errorf("platform detection failed: %w", err)
	}
	info.Arch = arch

	if d.hostInfo == nil {
		return info, nil
	}

	stat, err := d.hostInfo(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("platform detection cancelled: %w", ctx.Err())
		}
		return info, nil
	}

	info.KernelArch = stat.KernelArch
	if kernelArch, err := normalizeArch(stat.KernelArch); err == nil {
		info.Arch = kernelArch
	}

	return info, nil
}
