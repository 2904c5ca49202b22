package resolver

import (
	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/refupdate/internal/domain/entities"
)

// SecuritySelector finds the lowest version that clears every applicable advisory.
type SecuritySelector struct{}

// NewSecuritySelector creates a SecuritySelector.
func NewSecuritySelector() *SecuritySelector {
	return &SecuritySelector{}
}

// IsVulnerable reports whether any advisory marks version as unsafe.
func (it *SecuritySelector) IsVulnerable(version entities.VersionTag, advisories []entities.SecurityAdvisory) bool {
	for _, advisory := range advisories {
		if advisory.Vulnerable(version) {
			return true
		}
	}
	return false
}

// LowestSecurityFixVersion returns the smallest upgrade of decl that is not
// vulnerable and not ignored. Candidates keeping the pin's precision are tried
// first; when none is safe the search widens to every precision. A pin with no
// safe upgrade stays where it is.
func (it *SecuritySelector) LowestSecurityFixVersion(
	decl entities.Declaration,
	index *entities.RefIndex,
	advisories []entities.SecurityAdvisory,
	opts Options,
) (*entities.Resolution, error) {
	if index == nil || index.IsEmpty() {
		return entities.NoUpdate(decl.Ref, nil), nil
	}

	current, ok := CurrentVersion(decl, index)
	if !ok {
		return entities.NoUpdate(decl.Ref, nil), nil
	}
	effective := effectiveVersion(index, decl.Ref, current)
	if !it.IsVulnerable(effective, advisories) {
		return entities.NoUpdate(decl.Ref, &current), nil
	}

	class := entities.Classify(decl.Ref, index)
	kinds := []entities.RefKind{entities.RefKindTag}
	if class == entities.RefClassBranch {
		kinds = nil
	}

	name := entities.DependencyName(decl)
	var safe []entities.VersionRef
	for _, candidate := range index.VersionRefs(current.Prefix, kinds...) {
		// a floating "v2" at the 2.7.4 commit must never move back to 2.0.1
		if candidate.Ref.CommitSHA == "" || candidate.Version.Compare(effective) <= 0 {
			continue
		}
		if candidate.Version.IsPrerelease() && !current.IsPrerelease() {
			continue
		}
		if entities.IsIgnored(opts.IgnoreRules, name, current, candidate.Version) {
			continue
		}
		if it.IsVulnerable(effectiveVersion(index, candidate.Name(), candidate.Version), advisories) {
			continue
		}
		safe = append(safe, candidate)
	}

	fix, found := entities.MinVersionRef(samePrecision(safe, current.Precision()))
	if !found {
		fix, found = entities.MinVersionRef(safe)
	}
	if !found {
		logger.Warnf("No version of %s clears the known advisories, keeping %s", name, decl.Ref)
		return entities.NoUpdate(decl.Ref, &current), nil
	}

	resolution := versionResolution(decl.Ref, current, fix, fix)
	if class == entities.RefClassCommitSHA {
		return commitResolution(decl.Ref, resolution), nil
	}
	return resolution, nil
}

// effectiveVersion is the most specific version sharing the commit of ref, so
// that a floating "v2" tag is judged by the release it currently points at.
func effectiveVersion(index *entities.RefIndex, ref string, version entities.VersionTag) entities.VersionTag {
	sha := ref
	if target := index.TagTarget(ref); target != "" {
		sha = target
	} else if tip := index.BranchTip(ref); tip != "" {
		sha = tip
	}

	specific, ok := index.MostSpecificTagForSHA(sha, version.Prefix)
	if !ok || specific.Version.Compare(version) < 0 {
		return version
	}
	return specific.Version
}

func samePrecision(refs []entities.VersionRef, precision int) []entities.VersionRef {
	var matching []entities.VersionRef
	for _, vr := range refs {
		if vr.Version.Precision() == precision {
			matching = append(matching, vr)
		}
	}
	return matching
}
