package release

import (
	"sort"
	"strings"
)

// Query is a classified user query.
type Query struct {
	// Version holds the dotted version components, nil when not given.
	Version []uint
	// Latest is set by the "latest" keyword.
	Latest bool
	// Type is an exact release type filter, nil when not given.
	Type *Type
	// Channel is a bare channel filter ("beta"), nil when not given.
	Channel *Channel
	// Runtime is a runtime filter, nil when not given.
	Runtime *Runtime
}

// HasRuntime reports whether the query names a runtime.
func (q Query) HasRuntime() bool {
	return q.Runtime != nil
}

// normalizeTokens splits hyphenated tokens so "4.3-stable-mono" behaves like
// "4.3", "stable", "mono".
func normalizeTokens(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		for _, sub := range strings.Split(tok, "-") {
			sub = strings.TrimSpace(sub)
			if sub != "" {
				out = append(out, sub)
			}
		}
	}
	return out
}

// ParseQuery classifies every token. All unrecognized or conflicting tokens
// are gathered and reported in a single InvalidVersion error.
func ParseQuery(tokens []string) (Query, error) {
	var q Query
	var invalid []string

	for _, tok := range normalizeTokens(tokens) {
		lower := strings.ToLower(tok)

		if components, ok := parseComponents(lower); ok {
			if q.Version != nil {
				invalid = append(invalid, tok)
				continue
			}
			q.Version = components
			continue
		}

		if lower == "latest" {
			q.Latest = true
			continue
		}

		if t, ok := ParseType(lower); ok {
			if q.Type != nil || q.Channel != nil {
				invalid = append(invalid, tok)
				continue
			}
			q.Type = &t
			continue
		}

		if c, ok := ParseChannel(lower); ok {
			if q.Type != nil || q.Channel != nil {
				invalid = append(invalid, tok)
				continue
			}
			q.Channel = &c
			continue
		}

		if rt, ok := ParseRuntime(lower); ok {
			if q.Runtime != nil {
				invalid = append(invalid, tok)
				continue
			}
			q.Runtime = &rt
			continue
		}

		invalid = append(invalid, tok)
	}

	if len(invalid) > 0 {
		return Query{}, &ResolutionError{
			Kind:    InvalidVersion,
			Message: "Invalid arguments: " + strings.Join(invalid, ", "),
		}
	}

	return q, nil
}

// Matches reports whether r satisfies every filter in q.
func (q Query) Matches(r Release) bool {
	if q.Version != nil && !versionPrefixMatches(q.Version, r) {
		return false
	}
	if q.Type != nil && r.Type != *q.Type {
		return false
	}
	if q.Channel != nil && r.Type.Channel != *q.Channel {
		return false
	}
	if q.Runtime != nil && r.Runtime != *q.Runtime {
		return false
	}
	return true
}

// versionPrefixMatches compares the query components with the leading
// components of r, treating an absent patch as zero.
func versionPrefixMatches(components []uint, r Release) bool {
	have := []uint{r.Major, r.Minor, r.Patch}
	for i, c := range components {
		if have[i] != c {
			return false
		}
	}
	return true
}

// Resolve picks the best release in candidates for q.
//
// Without a type filter the stable channel wins over newer pre-releases.
// Within the winning channel the highest version wins, then the highest
// iteration number. Standard is preferred over Mono when the query does not
// name a runtime and both are otherwise equal.
func (q Query) Resolve(candidates []Release) (Release, bool) {
	var matched []Release
	for _, r := range candidates {
		if q.Matches(r) {
			matched = append(matched, r)
		}
	}
	if len(matched) == 0 {
		return Release{}, false
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return better(matched[i], matched[j])
	})
	return matched[0], true
}

// better reports whether a should be preferred over b.
func better(a, b Release) bool {
	if a.Type.Channel != b.Type.Channel {
		return a.Type.Channel > b.Type.Channel
	}
	if c := CompareVersion(a, b); c != 0 {
		return c > 0
	}
	if a.Type.N != b.Type.N {
		return a.Type.N > b.Type.N
	}
	if a.HasPatch != b.HasPatch {
		return a.HasPatch
	}
	return a.Runtime < b.Runtime
}

// ResolveQuery turns free-form tokens into one release chosen among the
// known release names. It returns an InvalidVersion *ResolutionError for
// malformed tokens and ok=false when the query is valid but matches nothing.
// Known names that are not release names are ignored.
func ResolveQuery(tokens []string, known []string) (Release, bool, error) {
	q, err := ParseQuery(tokens)
	if err != nil {
		return Release{}, false, err
	}
	r, ok := q.Resolve(ParseAll(known))
	return r, ok, nil
}

// WithRuntimes expands remote release names, which never carry a runtime, so
// that every name appears once per runtime.
func WithRuntimes(names []string) []string {
	out := make([]string, 0, len(names)*2)
	for _, n := range names {
		r, ok := Parse(n)
		if !ok {
			continue
		}
		out = append(out, r.WithRuntime(Standard).NameWithRuntime(), r.WithRuntime(Mono).NameWithRuntime())
	}
	return out
}
