package entities

import (
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// VersionRange is a predicate over versions, e.g. ">= 1.1.0" or ">= 2.0, < 2.7.5".
type VersionRange struct {
	Expression  string
	constraints *semver.Constraints
}

// ParseVersionRange parses a Masterminds constraint expression.
func ParseVersionRange(expression string) (VersionRange, error) {
	constraints, err := semver.NewConstraint(expression)
	if err != nil {
		return VersionRange{}, fmt.Errorf("invalid version range %q: %w", expression, err)
	}
	return VersionRange{Expression: expression, constraints: constraints}, nil
}

// Contains reports whether version satisfies the range.
func (r VersionRange) Contains(version VersionTag) bool {
	if r.constraints == nil {
		return false
	}
	return r.constraints.Check(version.SemVer())
}

func (r VersionRange) String() string { return r.Expression }

// AnyContains reports whether any of ranges contains version.
func AnyContains(ranges []VersionRange, version VersionTag) bool {
	for _, r := range ranges {
		if r.Contains(version) {
			return true
		}
	}
	return false
}

// IgnoreRule excludes versions of matching dependencies from candidacy.
// A rule naming neither versions nor update types ignores every update.
type IgnoreRule struct {
	DependencyName string // exact name or a glob such as "actions/*"
	Versions       []VersionRange
	UpdateTypes    []UpdateType
}

// Matches reports whether the rule applies to the named dependency.
func (r IgnoreRule) Matches(dependencyName string) bool {
	if r.DependencyName == "" || r.DependencyName == dependencyName {
		return true
	}
	matched, err := path.Match(strings.ToLower(r.DependencyName), strings.ToLower(dependencyName))
	return err == nil && matched
}

// Ignores reports whether the rule drops the move from current to candidate.
func (r IgnoreRule) Ignores(current, candidate VersionTag) bool {
	if len(r.Versions) == 0 && len(r.UpdateTypes) == 0 {
		return true
	}
	if AnyContains(r.Versions, candidate) {
		return true
	}
	return slices.Contains(r.UpdateTypes, ClassifyUpdate(current, candidate))
}

// IsIgnored reports whether any rule for dependencyName drops candidate.
func IsIgnored(rules []IgnoreRule, dependencyName string, current, candidate VersionTag) bool {
	for _, rule := range rules {
		if rule.Matches(dependencyName) && rule.Ignores(current, candidate) {
			return true
		}
	}
	return false
}
