package platform

import (
	"context"
	"errors"
	"runtime"
	"testing"

	"github.com/shirou/gopsutil/v4/host"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRealDetector_Detect(t *testing.T) {
	detector := NewDetector()

	info, err := detector.Detect(context.Background())
	require.NoError(t, err)

	assert.Equal(t, normalizeOS(runtime.GOOS), info.OS)
	assert.Equal(t, runtime.GOARCH, info.ArchRaw)
}

func TestRealDetector_PrefersKernelArch(t *testing.T) {
	detector := &RealDetector{
		goos:   "darwin",
		goarch: "amd64",
		hostInfo: func(ctx context.Context) (*host.InfoStat, error) {
			return &host.InfoStat{OS: "darwin", KernelArch: "arm64"}, nil
		},
	}

	info, err := detector.Detect(context.Background())
	require.NoError(t, err)

	assert.Equal(t, MacOS, info.OS)
	assert.Equal(t, Arm64, info.Arch)
	assert.Equal(t, "amd64", info.ArchRaw)
	assert.Equal(t, "arm64", info.KernelArch)
	assert.True(t, info.IsAppleSilicon())
}

func TestRealDetector_FallsBackWhenHostInfoFails(t *testing.T) {
	detector := &RealDetector{
		goos:   "linux",
		goarch: "amd64",
		hostInfo: func(ctx context.Context) (*host.InfoStat, error) {
			return nil, errors.New("no /proc")
		},
	}

	info, err := detector.Detect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Linux, info.OS)
	assert.Equal(t, X64, info.Arch)
}

func TestRealDetector_IgnoresUnknownKernelArch(t *testing.T) {
	detector := &RealDetector{
		goos:   "linux",
		goarch: "arm64",
		hostInfo: func(ctx context.Context) (*host.InfoStat, error) {
			return &host.InfoStat{KernelArch: "riscv64"}, nil
		},
	}

	info, err := detector.Detect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Arm64, info.Arch)
}

func TestRealDetector_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	detector := &RealDetector{
		goos:   "linux",
		goarch: "amd64",
		hostInfo: func(ctx context.Context) (*host.InfoStat, error) {
			return nil, ctx.Err()
		},
	}

	_, err := detector.Detect(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRealDetector_UnsupportedArch(t *testing.T) {
	detector := &RealDetector{goos: "linux", goarch: "riscv64"}

	_, err := detector.Detect(context.Background())
	require.Error(t, err)
}

func TestStaticDetector(t *testing.T) {
	d := StaticDetector{Info: Info{OS: Windows, Arch: Arm64}}
	info, err := d.Detect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Windows, info.OS)
	assert.Equal(t, Arm64, info.Arch)

	info.OS = Linux
	again, _ := d.Detect(context.Background())
	assert.Equal(t, Windows, again.OS)
}
