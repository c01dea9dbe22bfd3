package platform_test

import (
	"context"
	"fmt"
	"log"

	"github.com/patricktcoakley/gdvm-sub001/internal/platform"
	"github.com/patricktcoakley/gdvm-sub001/internal/release"
)

func ExampleDetector_Detect() {
	detector := platform.NewDetector()
	info, err := detector.Detect(context.Background())
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("OS: %s\n", info.OS)
	fmt.Printf("Architecture: %s\n", info.Arch)
}

func ExampleArtifactName() {
	rel := release.MustParse("4.2-stable-mono")
	name, err := platform.ArtifactName(rel, platform.Linux, platform.X64)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(name)
	// Output: Godot_v4.2-stable_mono_linux_x86_64.zip
}

func ExampleResolver_GetPlatformString() {
	detector := platform.StaticDetector{Info: platform.Info{OS: platform.MacOS, Arch: platform.Arm64}}
	resolver, err := platform.NewResolver(context.Background(), detector)
	if err != nil {
		log.Fatal(err)
	}

	suffix, err := resolver.GetPlatformString(release.MustParse("4.3-stable"))
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(suffix)
	// Output: macos.universal
}
