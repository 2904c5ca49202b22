package rewriter

import (
	"github.com/rios0rios0/refupdate/internal/domain/entities"
)

// RequirementRewriter fans a resolved target out over every declaration of a dependency.
type RequirementRewriter struct{}

// NewRequirementRewriter creates a RequirementRewriter.
func NewRequirementRewriter() *RequirementRewriter {
	return &RequirementRewriter{}
}

// UpdatedRequirements returns the declarations of dep re-pinned towards target.
// Declarations sharing a (source, ref) pair receive the same new ref. Each
// distinct pin keeps its own form: SHA pins move to the target commit, tag
// pins to a tag in their own prefix and precision, version-named branches to
// the matching branch. Branches that are not version-named never move.
func (it *RequirementRewriter) UpdatedRequirements(
	dep entities.Dependency,
	target *entities.Resolution,
	index *entities.RefIndex,
) []entities.Declaration {
	updated := make([]entities.Declaration, 0, len(dep.Declarations))
	if !target.IsUpdate() {
		return append(updated, dep.Declarations...)
	}

	newRefs := make(map[string]string)
	for _, site := range dep.UniqueRefs() {
		newRefs[site.Key()] = refForSite(site, target, index)
	}

	for _, decl := range dep.Declarations {
		if ref := newRefs[decl.Key()]; ref != decl.Ref {
			decl = decl.WithRef(ref)
		}
		updated = append(updated, decl)
	}
	return updated
}

// Updates pairs every declaration with its rewritten counterpart, skipping unchanged ones.
func (it *RequirementRewriter) Updates(
	dep entities.Dependency,
	target *entities.Resolution,
	index *entities.RefIndex,
) []entities.DeclarationUpdate {
	var updates []entities.DeclarationUpdate
	for i, decl := range it.UpdatedRequirements(dep, target, index) {
		update := entities.DeclarationUpdate{Previous: dep.Declarations[i], Updated: decl}
		if update.Changed() {
			updates = append(updates, update)
		}
	}
	return updates
}

func refForSite(site entities.Declaration, target *entities.Resolution, index *entities.RefIndex) string {
	if site.Ref == target.FromRef {
		return target.Ref
	}
	if target.Version == nil {
		return site.Ref
	}
	wanted := *target.Version

	switch entities.Classify(site.Ref, index) {
	case entities.RefClassCommitSHA:
		if entities.SameCommit(site.Ref, wanted.Ref.CommitSHA) {
			return site.Ref
		}
		if current, ok := index.MostSpecificTagForSHA(site.Ref, wanted.Version.Prefix); ok && wanted.Version.Compare(current.Version) <= 0 {
			return site.Ref
		}
		return wanted.Ref.CommitSHA
	case entities.RefClassBranch:
		current, err := entities.ParseVersionTag(site.Ref)
		if err != nil || !advances(current, wanted) {
			return site.Ref
		}
		return index.RefForVersion(wanted, current, entities.RefKindBranch).Name()
	default:
		current, err := entities.ParseVersionTag(site.Ref)
		if err != nil || !advances(current, wanted) {
			return site.Ref
		}
		return index.RefForVersion(wanted, current, entities.RefKindTag, entities.RefKindTag).Name()
	}
}

// advances reports whether wanted is a newer version in the same path scope as current.
func advances(current entities.VersionTag, wanted entities.VersionRef) bool {
	return current.SamePrefix(wanted.Version) && wanted.Version.Compare(current) > 0
}
