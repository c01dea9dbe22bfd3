package release

import (
	"fmt"
	"strconv"
	"strings"
)

// Channel is the stability track of a release. Higher values take precedence.
type Channel int

const (
	ChannelDev Channel = iota
	ChannelAlpha
	ChannelBeta
	ChannelRC
	ChannelStable
)

// channelPrefixes maps the textual prefix of each pre-release channel.
// Stable has no prefix and no iteration number.
var channelPrefixes = map[Channel]string{
	ChannelRC:    "rc",
	ChannelBeta:  "beta",
	ChannelAlpha: "alpha",
	ChannelDev:   "dev",
}

// String returns the channel prefix ("stable" for the stable channel).
func (c Channel) String() string {
	if c == ChannelStable {
		return "stable"
	}
	if p, ok := channelPrefixes[c]; ok {
		return p
	}
	return fmt.Sprintf("channel(%d)", int(c))
}

// ParseChannel parses a bare channel word such as "beta" or "stable".
func ParseChannel(s string) (Channel, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "stable" {
		return ChannelStable, true
	}
	for c, p := range channelPrefixes {
		if s == p {
			return c, true
		}
	}
	return 0, false
}

// Type is a release type: Stable, or a pre-release channel with a positive
// iteration number (rc1, beta3, ...).
type Type struct {
	Channel Channel
	N       int
}

// Stable is the stable release type.
var Stable = Type{Channel: ChannelStable}

// RC returns the nth release candidate type.
func RC(n int) Type { return Type{Channel: ChannelRC, N: n} }

// Beta returns the nth beta type.
func Beta(n int) Type { return Type{Channel: ChannelBeta, N: n} }

// Alpha returns the nth alpha type.
func Alpha(n int) Type { return Type{Channel: ChannelAlpha, N: n} }

// Dev returns the nth dev snapshot type.
func Dev(n int) Type { return Type{Channel: ChannelDev, N: n} }

// IsStable reports whether t is the stable type.
func (t Type) IsStable() bool {
	return t.Channel == ChannelStable
}

// String formats the type in its canonical lowercase form.
func (t Type) String() string {
	if t.IsStable() {
		return "stable"
	}
	return channelPrefixes[t.Channel] + strconv.Itoa(t.N)
}

// ParseType parses "stable" or "<prefix><n>" case-insensitively.
func ParseType(s string) (Type, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "stable" {
		return Stable, true
	}
	for c, p := range channelPrefixes {
		if !strings.HasPrefix(s, p) {
			continue
		}
		digits := s[len(p):]
		if digits == "" || digits[0] == '+' || digits[0] == '-' {
			return Type{}, false
		}
		n, err := strconv.Atoi(digits)
		if err != nil || n <= 0 {
			return Type{}, false
		}
		return Type{Channel: c, N: n}, true
	}
	return Type{}, false
}

// CompareTypes orders by channel precedence, then by iteration number.
func CompareTypes(a, b Type) int {
	if a.Channel != b.Channel {
		return cmpInt(int(a.Channel), int(b.Channel))
	}
	return cmpInt(a.N, b.N)
}

func cmpInt(a, b int) int {
	switch {
	case a > b:
		return 1
	case a < b:
		return -1
	default:
		return 0
	}
}
