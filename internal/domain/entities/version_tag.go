package entities

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
	modsemver "golang.org/x/mod/semver"
)

// ErrNotVersion is returned when a ref does not carry a dot-delimited numeric suffix.
var ErrNotVersion = errors.New("ref does not look like a version")

// versionTagPattern matches "<prefix>/v1.2.3-rc.1"; the prefix and prerelease are optional.
var versionTagPattern = regexp.MustCompile(
	`^(?:(?P<prefix>.+)/)?(?P<v>[vV])?(?P<numbers>\d+(?:\.\d+)*)(?:-(?P<pre>[0-9A-Za-z]+(?:[.-][0-9A-Za-z]+)*))?$`,
)

// VersionTag is an immutable, parsed view of a version-shaped tag or branch name.
type VersionTag struct {
	Raw        string
	Prefix     string // monorepo path scope, empty for top-level tags
	Segments   []int
	Prerelease string
	HasV       bool
}

// ParseVersionTag parses raw into a VersionTag, returning ErrNotVersion for
// refs such as "main", "reactive" or "refassm-blog-post".
func ParseVersionTag(raw string) (VersionTag, error) {
	match := versionTagPattern.FindStringSubmatch(raw)
	if match == nil {
		return VersionTag{}, fmt.Errorf("%w: %q", ErrNotVersion, raw)
	}

	groups := make(map[string]string, len(match))
	for i, name := range versionTagPattern.SubexpNames() {
		if name != "" {
			groups[name] = match[i]
		}
	}

	parts := strings.Split(groups["numbers"], ".")
	segments := make([]int, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return VersionTag{}, fmt.Errorf("%w: %q", ErrNotVersion, raw)
		}
		segments = append(segments, n)
	}

	return VersionTag{
		Raw:        raw,
		Prefix:     groups["prefix"],
		Segments:   segments,
		Prerelease: groups["pre"],
		HasV:       groups["v"] != "",
	}, nil
}

// LooksLikeVersion reports whether ref parses as a VersionTag.
func LooksLikeVersion(ref string) bool {
	_, err := ParseVersionTag(ref)
	return err == nil
}

// Precision is the number of numeric components the tag spells out.
func (v VersionTag) Precision() int { return len(v.Segments) }

// IsPrerelease reports whether the tag carries a "-suffix".
func (v VersionTag) IsPrerelease() bool { return v.Prerelease != "" }

// Segment returns the i-th numeric component, or zero when it is not present.
func (v VersionTag) Segment(i int) int {
	if i < len(v.Segments) {
		return v.Segments[i]
	}
	return 0
}

// Compare orders two tags numerically, padding the shorter one with zeros.
// Prefixes are ignored here; callers never compare across path scopes.
func (v VersionTag) Compare(other VersionTag) int {
	width := max(len(v.Segments), len(other.Segments))
	if width <= 3 { //nolint:mnd // semver core has three components
		return modsemver.Compare(v.canonical(), other.canonical())
	}

	for i := range width {
		a, b := v.Segment(i), other.Segment(i)
		if a != b {
			if a < b {
				return -1
			}
			return 1
		}
	}
	return modsemver.Compare("v0.0.0"+v.prereleaseSuffix(), "v0.0.0"+other.prereleaseSuffix())
}

// Equal reports numeric equality; "v1.2.3" and "1.2.3" are equal.
func (v VersionTag) Equal(other VersionTag) bool { return v.Compare(other) == 0 }

// SamePrefix reports whether both tags follow the same naming scheme (path scope).
func (v VersionTag) SamePrefix(other VersionTag) bool { return v.Prefix == other.Prefix }

// String renders the numeric form without prefix or leading "v", e.g. "1.2.3".
func (v VersionTag) String() string {
	parts := make([]string, len(v.Segments))
	for i, s := range v.Segments {
		parts[i] = strconv.Itoa(s)
	}
	return strings.Join(parts, ".") + v.prereleaseSuffix()
}

// Truncate returns the version cut (or zero-padded) to n numeric components.
// The result drops the prerelease and has no Raw form of its own.
func (v VersionTag) Truncate(n int) VersionTag {
	segments := make([]int, n)
	for i := range n {
		segments[i] = v.Segment(i)
	}
	truncated := VersionTag{Prefix: v.Prefix, Segments: segments, HasV: v.HasV}
	truncated.Raw = truncated.Format()
	return truncated
}

// Format renders the tag the way it would be spelled as a ref, honoring prefix and "v".
func (v VersionTag) Format() string {
	var sb strings.Builder
	if v.Prefix != "" {
		sb.WriteString(v.Prefix)
		sb.WriteString("/")
	}
	if v.HasV {
		sb.WriteString("v")
	}
	sb.WriteString(v.String())
	return sb.String()
}

// SemVer converts the tag into a Masterminds version for range predicates.
// Components past the patch level are dropped.
func (v VersionTag) SemVer() *semver.Version {
	return semver.New(
		uint64(v.Segment(0)), //nolint:gosec // segments are parsed from digits only
		uint64(v.Segment(1)), //nolint:gosec // segments are parsed from digits only
		uint64(v.Segment(2)), //nolint:gosec // segments are parsed from digits only
		v.Prerelease,
		"",
	)
}

func (v VersionTag) canonical() string {
	return fmt.Sprintf("v%d.%d.%d%s", v.Segment(0), v.Segment(1), v.Segment(2), v.prereleaseSuffix())
}

func (v VersionTag) prereleaseSuffix() string {
	if v.Prerelease == "" {
		return ""
	}
	return "-" + v.Prerelease
}
