package platform

import (
	"context"
	"testing"

	"github.com/patricktcoakley/gdvm-sub001/internal/release"
)

func BenchmarkDetect(b *testing.B) {
	detector := NewDetector()
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = detector.Detect(ctx)
	}
}

func BenchmarkNormalizeArch(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = normalizeArch("x86_64")
	}
}

func BenchmarkArtifactSuffix(b *testing.B) {
	rel := release.MustParse("4.3-stable-mono")
	for i := 0; i < b.N; i++ {
		_, _ = ArtifactSuffix(rel, Windows, Arm64)
	}
}
