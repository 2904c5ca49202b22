package entities

import (
	"slices"
	"sort"
	"strings"
)

// RefIndex is an immutable snapshot of the branches and tags advertised by one
// remote repository. It is built once per dependency resolution and never refreshed.
type RefIndex struct {
	branches      map[string]RemoteRef
	tags          map[string]RemoteRef
	versionRefs   []VersionRef
	defaultBranch string
}

// NewRefIndex builds an index from a flat ref listing. Duplicate names of the
// same kind are collapsed; the last occurrence wins.
func NewRefIndex(refs []RemoteRef, defaultBranch string) *RefIndex {
	index := &RefIndex{
		branches:      make(map[string]RemoteRef),
		tags:          make(map[string]RemoteRef),
		defaultBranch: strings.TrimPrefix(defaultBranch, "refs/heads/"),
	}

	for _, ref := range refs {
		if ref.Name == "" {
			continue
		}
		switch ref.Kind {
		case RefKindBranch:
			index.branches[ref.Name] = ref
		case RefKindTag:
			index.tags[ref.Name] = ref
		}
	}

	for _, name := range sortedKeys(index.branches) {
		index.appendVersionRef(index.branches[name])
	}
	for _, name := range sortedKeys(index.tags) {
		index.appendVersionRef(index.tags[name])
	}

	return index
}

// EmptyRefIndex is what an unreachable remote degrades to.
func EmptyRefIndex() *RefIndex {
	return NewRefIndex(nil, "")
}

func (i *RefIndex) appendVersionRef(ref RemoteRef) {
	version, err := ParseVersionTag(ref.Name)
	if err != nil {
		return
	}
	i.versionRefs = append(i.versionRefs, VersionRef{Ref: ref, Version: version})
}

// IsEmpty reports whether the remote advertised nothing (or could not be reached).
func (i *RefIndex) IsEmpty() bool {
	return len(i.branches) == 0 && len(i.tags) == 0
}

// DefaultBranch is the branch HEAD points to on the remote.
func (i *RefIndex) DefaultBranch() string { return i.defaultBranch }

// Tags returns every tag name, sorted.
func (i *RefIndex) Tags() []string { return sortedKeys(i.tags) }

// Branches returns every branch name, sorted.
func (i *RefIndex) Branches() []string { return sortedKeys(i.branches) }

// Tag looks a tag up by its exact name.
func (i *RefIndex) Tag(name string) (RemoteRef, bool) {
	ref, ok := i.tags[name]
	return ref, ok
}

// Branch looks a branch up by its exact name.
func (i *RefIndex) Branch(name string) (RemoteRef, bool) {
	ref, ok := i.branches[name]
	return ref, ok
}

// BranchTip returns the commit a branch points to, or "" when it is unknown.
func (i *RefIndex) BranchTip(name string) string {
	return i.branches[name].CommitSHA
}

// TagTarget returns the commit a tag resolves to, or "" when it is unknown.
func (i *RefIndex) TagTarget(name string) string {
	return i.tags[name].CommitSHA
}

// TagsForSHA lists the tags whose commit matches sha (abbreviations allowed).
func (i *RefIndex) TagsForSHA(sha string) []string {
	return namesForSHA(i.tags, sha)
}

// BranchesForSHA lists the branches whose tip matches sha (abbreviations allowed).
func (i *RefIndex) BranchesForSHA(sha string) []string {
	return namesForSHA(i.branches, sha)
}

// ExpandSHA returns the full commit SHA for an abbreviation when some ref points at it.
func (i *RefIndex) ExpandSHA(sha string) string {
	for _, refs := range []map[string]RemoteRef{i.tags, i.branches} {
		for _, name := range sortedKeys(refs) {
			if SameCommit(sha, refs[name].CommitSHA) {
				return refs[name].CommitSHA
			}
		}
	}
	return ""
}

// VersionRefs returns the version-shaped refs in the given path scope,
// restricted to the requested kinds (all kinds when none are given).
func (i *RefIndex) VersionRefs(prefix string, kinds ...RefKind) []VersionRef {
	var result []VersionRef
	for _, vr := range i.versionRefs {
		if vr.Version.Prefix != prefix {
			continue
		}
		if len(kinds) > 0 && !slices.Contains(kinds, vr.Ref.Kind) {
			continue
		}
		result = append(result, vr)
	}
	return result
}

// VersionTags is VersionRefs limited to tags.
func (i *RefIndex) VersionTags(prefix string) []VersionRef {
	return i.VersionRefs(prefix, RefKindTag)
}

// VersionBranches is VersionRefs limited to branches.
func (i *RefIndex) VersionBranches(prefix string) []VersionRef {
	return i.VersionRefs(prefix, RefKindBranch)
}

// MostSpecificTagForSHA returns the highest version tag in the prefix path
// scope pointing at sha. Among numerically equal tags ("v2", "v2.0.0") the
// most precise one wins.
func (i *RefIndex) MostSpecificTagForSHA(sha, prefix string) (VersionRef, bool) {
	var matches []VersionRef
	for _, vr := range i.versionRefs {
		if vr.Ref.Kind == RefKindTag && vr.Version.Prefix == prefix && SameCommit(sha, vr.Ref.CommitSHA) {
			matches = append(matches, vr)
		}
	}
	return MaxVersionRef(matches)
}

// ScopeFor returns the tag path scope of a declaration living at path. Paths
// without tags of their own, such as "github/codeql-action/init", share the
// top-level scope.
func (i *RefIndex) ScopeFor(path string) string {
	path = strings.Trim(path, "/")
	if path == "" {
		return ""
	}
	for _, vr := range i.versionRefs {
		if vr.Ref.Kind == RefKindTag && vr.Version.Prefix == path {
			return path
		}
	}
	return ""
}

// HighestVersionTag returns the highest tag in the path scope accepted by keep.
func (i *RefIndex) HighestVersionTag(prefix string, keep func(VersionRef) bool) (VersionRef, bool) {
	var accepted []VersionRef
	for _, vr := range i.VersionTags(prefix) {
		if keep == nil || keep(vr) {
			accepted = append(accepted, vr)
		}
	}
	return MaxVersionRef(accepted)
}

// LocalTagForLatestRelease returns the highest non-prerelease tag in the path scope.
func (i *RefIndex) LocalTagForLatestRelease(prefix string) (VersionRef, bool) {
	return i.HighestVersionTag(prefix, func(vr VersionRef) bool {
		return !vr.Version.IsPrerelease()
	})
}

// RefForVersion spells target in the naming scheme of style using as few
// numeric components as possible, starting at style's precision. A shorter
// ref is only chosen when it resolves to the same commit as target, so the
// returned ref always lands where target does. Among equally precise
// candidates, refs of the preferred kind and with style's "v" convention win.
func (i *RefIndex) RefForVersion(target VersionRef, style VersionTag, prefer RefKind, kinds ...RefKind) VersionRef {
	if target.Version.IsPrerelease() {
		return target
	}

	for precision := style.Precision(); precision <= target.Version.Precision(); precision++ {
		want := target.Version.Truncate(precision)

		var found []VersionRef
		for _, vr := range i.VersionRefs(style.Prefix, kinds...) {
			if vr.Version.Precision() != precision || vr.Version.IsPrerelease() || !vr.Version.Equal(want) {
				continue
			}
			if !SameCommit(vr.Ref.CommitSHA, target.Ref.CommitSHA) {
				continue
			}
			found = append(found, vr)
		}

		if len(found) > 0 {
			sort.SliceStable(found, func(a, b int) bool {
				return representationRank(found[a], style, prefer) < representationRank(found[b], style, prefer)
			})
			return found[0]
		}
	}
	return target
}

func representationRank(vr VersionRef, style VersionTag, prefer RefKind) int {
	rank := 0
	if vr.Ref.Kind != prefer {
		rank += 2
	}
	if vr.Version.HasV != style.HasV {
		rank++
	}
	return rank
}

// MaxVersionRef returns the highest version; ties go to the more precise ref,
// remaining ties keep input order.
func MaxVersionRef(refs []VersionRef) (VersionRef, bool) {
	if len(refs) == 0 {
		return VersionRef{}, false
	}
	best := refs[0]
	for _, vr := range refs[1:] {
		cmp := vr.Version.Compare(best.Version)
		if cmp > 0 || (cmp == 0 && vr.Version.Precision() > best.Version.Precision()) {
			best = vr
		}
	}
	return best, true
}

// MinVersionRef returns the lowest version; ties go to the more precise ref.
func MinVersionRef(refs []VersionRef) (VersionRef, bool) {
	if len(refs) == 0 {
		return VersionRef{}, false
	}
	best := refs[0]
	for _, vr := range refs[1:] {
		cmp := vr.Version.Compare(best.Version)
		if cmp < 0 || (cmp == 0 && vr.Version.Precision() > best.Version.Precision()) {
			best = vr
		}
	}
	return best, true
}

func namesForSHA(refs map[string]RemoteRef, sha string) []string {
	var names []string
	for _, name := range sortedKeys(refs) {
		if SameCommit(sha, refs[name].CommitSHA) {
			names = append(names, name)
		}
	}
	return names
}

func sortedKeys(refs map[string]RemoteRef) []string {
	keys := make([]string, 0, len(refs))
	for name := range refs {
		keys = append(keys, name)
	}
	sort.Strings(keys)
	return keys
}
