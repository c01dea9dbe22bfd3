// Package release models Godot release identifiers and resolves free-form
// user queries into one concrete release.
//
// A release is written as "major.minor[.patch]-type[-mono]", for example
// "4.2-stable", "4.3-rc1" or "3.5.3-stable-mono". Releases are totally
// ordered by version, then by release type (stable > rc > beta > alpha > dev,
// higher iteration first within a channel).
package release

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Runtime is the build flavor of a release.
type Runtime int

const (
	// Standard is the regular GDScript-only build.
	Standard Runtime = iota
	// Mono is the .NET-enabled build.
	Mono
)

// String returns "standard" or "mono".
func (r Runtime) String() string {
	if r == Mono {
		return "mono"
	}
	return "standard"
}

// ParseRuntime parses a runtime token.
func ParseRuntime(s string) (Runtime, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mono":
		return Mono, true
	case "standard":
		return Standard, true
	default:
		return Standard, false
	}
}

// Release is one immutable build identity.
type Release struct {
	Major    uint
	Minor    uint
	Patch    uint
	HasPatch bool
	Type     Type
	Runtime  Runtime
}

// Version returns the dotted version without type, e.g. "4.2" or "3.5.3".
func (r Release) Version() string {
	v := strconv.FormatUint(uint64(r.Major), 10) + "." + strconv.FormatUint(uint64(r.Minor), 10)
	if r.HasPatch {
		v += "." + strconv.FormatUint(uint64(r.Patch), 10)
	}
	return v
}

// Name returns the canonical name without runtime suffix, e.g. "4.2-stable".
func (r Release) Name() string {
	return r.Version() + "-" + r.Type.String()
}

// NameWithRuntime returns Name with "-mono" appended for Mono builds. It is
// also the name of the release's install directory.
func (r Release) NameWithRuntime() string {
	if r.Runtime == Mono {
		return r.Name() + "-mono"
	}
	return r.Name()
}

// String is NameWithRuntime.
func (r Release) String() string {
	return r.NameWithRuntime()
}

// IsMono reports whether r is a Mono build.
func (r Release) IsMono() bool {
	return r.Runtime == Mono
}

// WithRuntime returns a copy of r with the given runtime.
func (r Release) WithRuntime(rt Runtime) Release {
	r.Runtime = rt
	return r
}

// AtLeast reports whether r's major.minor is at least major.minor.
func (r Release) AtLeast(major, minor uint) bool {
	if r.Major != major {
		return r.Major > major
	}
	return r.Minor >= minor
}

// Equal reports field equality on the normalized version (absent patch is
// treated as zero), type and runtime.
func (r Release) Equal(o Release) bool {
	return Compare(r, o) == 0
}

// CompareTo compares r with other. Any release is greater than an absent one.
func (r Release) CompareTo(other *Release) int {
	if other == nil {
		return 1
	}
	return Compare(r, *other)
}

// Compare orders releases by (major, minor, patch-or-0), then by type. The
// runtime only breaks otherwise exact ties, Standard before Mono, so that the
// order stays consistent with Equal.
func Compare(a, b Release) int {
	if c := cmpUint(a.Major, b.Major); c != 0 {
		return c
	}
	if c := cmpUint(a.Minor, b.Minor); c != 0 {
		return c
	}
	if c := cmpUint(a.Patch, b.Patch); c != 0 {
		return c
	}
	if c := CompareTypes(a.Type, b.Type); c != 0 {
		return c
	}
	return cmpInt(int(a.Runtime), int(b.Runtime))
}

// CompareVersion compares only the numeric version parts.
func CompareVersion(a, b Release) int {
	if c := cmpUint(a.Major, b.Major); c != 0 {
		return c
	}
	if c := cmpUint(a.Minor, b.Minor); c != 0 {
		return c
	}
	return cmpUint(a.Patch, b.Patch)
}

func cmpUint(a, b uint) int {
	switch {
	case a > b:
		return 1
	case a < b:
		return -1
	default:
		return 0
	}
}

// Parse parses "major.minor[.patch]-type[-mono]". It returns false when the
// text is not a structurally valid release name.
func Parse(text string) (Release, bool) {
	parts := strings.Split(strings.TrimSpace(text), "-")
	if len(parts) < 2 || len(parts) > 3 {
		return Release{}, false
	}

	r, ok := parseVersion(parts[0])
	if !ok {
		return Release{}, false
	}

	t, ok := ParseType(parts[1])
	if !ok {
		return Release{}, false
	}
	r.Type = t

	if len(parts) == 3 {
		if !strings.EqualFold(parts[2], "mono") {
			return Release{}, false
		}
		r.Runtime = Mono
	}

	return r, true
}

// MustParse is Parse that panics on invalid input. For tests and constants.
func MustParse(text string) Release {
	r, ok := Parse(text)
	if !ok {
		panic(fmt.Sprintf("release: invalid release name %q", text))
	}
	return r
}

// parseVersion parses a 1-3 component dotted version.
func parseVersion(s string) (Release, bool) {
	components, ok := parseComponents(s)
	if !ok {
		return Release{}, false
	}
	r := Release{Major: components[0]}
	if len(components) > 1 {
		r.Minor = components[1]
	}
	if len(components) > 2 {
		r.Patch = components[2]
		r.HasPatch = true
	}
	return r, true
}

func parseComponents(s string) ([]uint, bool) {
	if s == "" {
		return nil, false
	}
	fields := strings.Split(s, ".")
	if len(fields) > 3 {
		return nil, false
	}
	out := make([]uint, 0, len(fields))
	for _, f := range fields {
		if f == "" {
			return nil, false
		}
		for i := 0; i < len(f); i++ {
			if f[i] < '0' || f[i] > '9' {
				return nil, false
			}
		}
		n, err := strconv.ParseUint(f, 10, 32)
		if err != nil {
			return nil, false
		}
		out = append(out, uint(n))
	}
	return out, true
}

// ParseAll parses every name and silently drops those that are not releases.
func ParseAll(names []string) []Release {
	out := make([]Release, 0, len(names))
	for _, n := range names {
		if r, ok := Parse(n); ok {
			out = append(out, r)
		}
	}
	return out
}

// SortDescending sorts releases newest first.
func SortDescending(rs []Release) {
	sort.SliceStable(rs, func(i, j int) bool {
		return Compare(rs[i], rs[j]) > 0
	})
}

// Sort sorts releases oldest first.
func Sort(rs []Release) {
	sort.SliceStable(rs, func(i, j int) bool {
		return Compare(rs[i], rs[j]) < 0
	})
}
