package entities

import (
	"regexp"
	"strings"
)

// RefClass is the outcome of classifying a pinned ref against a RefIndex.
type RefClass int

const (
	RefClassTag RefClass = iota
	RefClassBranch
	RefClassCommitSHA
)

func (c RefClass) String() string {
	switch c {
	case RefClassBranch:
		return "branch"
	case RefClassCommitSHA:
		return "commit"
	default:
		return "tag"
	}
}

var commitSHAPattern = regexp.MustCompile(`^[0-9a-fA-F]{7,40}$`)

// LooksLikeCommitSHA reports whether ref is a 7 to 40 character hex string.
func LooksLikeCommitSHA(ref string) bool {
	return commitSHAPattern.MatchString(ref)
}

// Classify decides whether ref names a branch, a tag or a raw commit SHA.
// Unknown, non-hex refs fall back to RefClassTag so that an unresolvable tag
// surfaces as "current version unknown" instead of failing the resolution.
func Classify(ref string, index *RefIndex) RefClass {
	if index != nil {
		if _, ok := index.Branch(ref); ok {
			return RefClassBranch
		}
		if _, ok := index.Tag(ref); ok {
			return RefClassTag
		}
	}
	if LooksLikeCommitSHA(ref) {
		return RefClassCommitSHA
	}
	return RefClassTag
}

// SameCommit compares a possibly abbreviated SHA with a full one.
func SameCommit(sha, other string) bool {
	if sha == "" || other == "" {
		return false
	}
	a, b := strings.ToLower(sha), strings.ToLower(other)
	if len(a) > len(b) {
		a, b = b, a
	}
	return strings.HasPrefix(b, a)
}
