package resolver

import (
	"context"
	"fmt"
	"slices"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/refupdate/internal/domain/entities"
	"github.com/rios0rios0/refupdate/internal/domain/repositories"
)

// Options tunes a single resolution.
type Options struct {
	IgnoreRules       []entities.IgnoreRule
	RaiseOnAllIgnored bool
}

// VersionResolver computes the latest eligible ref for a pinned declaration.
// It only reaches the network to ask which branches contain an orphan commit.
type VersionResolver struct {
	refSource repositories.RefSourceRepository
}

// NewVersionResolver creates a VersionResolver that asks refSource about commit containment.
func NewVersionResolver(refSource repositories.RefSourceRepository) *VersionResolver {
	return &VersionResolver{refSource: refSource}
}

// LatestVersion resolves decl against the index. The returned resolution is
// never nil; ResolutionNone means the pin stays where it is.
func (it *VersionResolver) LatestVersion(
	ctx context.Context,
	decl entities.Declaration,
	index *entities.RefIndex,
	opts Options,
) (*entities.Resolution, error) {
	if index == nil || index.IsEmpty() {
		return entities.NoUpdate(decl.Ref, nil), nil
	}

	switch entities.Classify(decl.Ref, index) {
	case entities.RefClassBranch:
		return it.resolveBranch(decl, index, opts)
	case entities.RefClassCommitSHA:
		return it.resolveCommit(ctx, decl, index, opts)
	default:
		return it.resolveTag(decl, index, opts)
	}
}

// ResolveDependency resolves the primary declaration of dep, the one pinned
// at the highest known version, and returns that declaration with the result.
func (it *VersionResolver) ResolveDependency(
	ctx context.Context,
	dep entities.Dependency,
	index *entities.RefIndex,
	opts Options,
) (entities.Declaration, *entities.Resolution, error) {
	primary := PrimaryDeclaration(dep, index)
	resolution, err := it.LatestVersion(ctx, primary, index, opts)
	return primary, resolution, err
}

// PrimaryDeclaration picks the declaration with the highest resolvable
// current version, falling back to the first one.
func PrimaryDeclaration(dep entities.Dependency, index *entities.RefIndex) entities.Declaration {
	if len(dep.Declarations) == 0 {
		return entities.Declaration{}
	}

	primary := dep.Declarations[0]
	var best *entities.VersionTag
	for _, decl := range dep.UniqueRefs() {
		current, ok := CurrentVersion(decl, index)
		if !ok {
			continue
		}
		if best == nil || current.Compare(*best) > 0 {
			best = &current
			primary = decl
		}
	}
	return primary
}

// CurrentVersion determines the version a pin currently stands for: the
// parsed name of a version tag or branch, or the most specific version tag
// in the declaration's path scope pointing at a pinned commit.
func CurrentVersion(decl entities.Declaration, index *entities.RefIndex) (entities.VersionTag, bool) {
	if entities.Classify(decl.Ref, index) == entities.RefClassCommitSHA {
		if index == nil {
			return entities.VersionTag{}, false
		}
		tag, ok := index.MostSpecificTagForSHA(decl.Ref, index.ScopeFor(decl.Path))
		return tag.Version, ok
	}

	version, err := entities.ParseVersionTag(decl.Ref)
	return version, err == nil
}

func (it *VersionResolver) resolveTag(
	decl entities.Declaration,
	index *entities.RefIndex,
	opts Options,
) (*entities.Resolution, error) {
	current, err := entities.ParseVersionTag(decl.Ref)
	if err != nil {
		logger.Debugf("Current version of %s is unknown, %q is not version-shaped", entities.DependencyName(decl), decl.Ref)
		return entities.NoUpdate(decl.Ref, nil), nil
	}

	latest, found, err := latestVersionRef(decl, index, current, opts, entities.RefKindTag)
	if err != nil || !found {
		return entities.NoUpdate(decl.Ref, &current), err
	}

	representation := index.RefForVersion(latest, current, entities.RefKindTag, entities.RefKindTag)
	return versionResolution(decl.Ref, current, latest, representation), nil
}

func (it *VersionResolver) resolveBranch(
	decl entities.Declaration,
	index *entities.RefIndex,
	opts Options,
) (*entities.Resolution, error) {
	current, err := entities.ParseVersionTag(decl.Ref)
	if err != nil {
		// branches are not auto-advanced: the latest version is the tip itself
		return &entities.Resolution{
			Kind:      entities.ResolutionBranch,
			FromRef:   decl.Ref,
			Ref:       decl.Ref,
			CommitSHA: index.BranchTip(decl.Ref),
		}, nil
	}

	latest, found, err := latestVersionRef(decl, index, current, opts)
	if err != nil || !found {
		return entities.NoUpdate(decl.Ref, &current), err
	}

	representation := index.RefForVersion(latest, current, entities.RefKindBranch)
	return versionResolution(decl.Ref, current, latest, representation), nil
}

func (it *VersionResolver) resolveCommit(
	ctx context.Context,
	decl entities.Declaration,
	index *entities.RefIndex,
	opts Options,
) (*entities.Resolution, error) {
	sha := decl.Ref

	if tag, ok := index.MostSpecificTagForSHA(sha, index.ScopeFor(decl.Path)); ok {
		tagged := decl
		tagged.Ref = tag.Name()
		resolution, err := it.resolveTag(tagged, index, opts)
		return commitResolution(sha, resolution), err
	}

	if branches := index.BranchesForSHA(sha); len(branches) > 0 {
		branch := branches[0]
		for _, name := range branches {
			if name == index.DefaultBranch() {
				branch = name
			}
		}
		tip := decl
		tip.Ref = branch
		resolution, err := it.resolveBranch(tip, index, opts)
		return commitResolution(sha, resolution), err
	}

	branch, err := it.containingBranch(ctx, decl, index)
	if err != nil || branch == "" {
		return entities.NoUpdate(sha, nil), err
	}

	tip := index.BranchTip(branch)
	if tip == "" || entities.SameCommit(sha, tip) {
		return entities.NoUpdate(sha, nil), nil
	}
	return &entities.Resolution{
		Kind:      entities.ResolutionCommit,
		FromRef:   sha,
		Ref:       tip,
		CommitSHA: tip,
	}, nil
}

// containingBranch decides which branch an orphan commit should follow:
// the default branch when it contains the commit, otherwise the only branch
// that does. Several non-default candidates are ambiguous.
//
// Following a sole non-default branch mirrors Dependabot's
// find_container_branch: a commit that only lives on a release branch keeps
// tracking that branch instead of jumping to unrelated default-branch history.
func (it *VersionResolver) containingBranch(
	ctx context.Context,
	decl entities.Declaration,
	index *entities.RefIndex,
) (string, error) {
	if it.refSource == nil {
		return "", nil
	}

	branches, err := it.refSource.BranchesContainingCommit(ctx, decl.SourceURL, decl.Ref)
	if err != nil {
		logger.Warnf("Could not determine which branches of %s contain %s: %v", decl.SourceURL, decl.Ref, err)
		return "", nil
	}

	switch {
	case len(branches) == 0:
		return "", nil
	case index.DefaultBranch() != "" && slices.Contains(branches, index.DefaultBranch()):
		return index.DefaultBranch(), nil
	case len(branches) == 1:
		return branches[0], nil
	default:
		return "", entities.NewAmbiguousBranchesError(decl.Ref, branches)
	}
}

// latestVersionRef returns the highest eligible version strictly above current.
// Candidates share current's path scope and are at least as precise; ignored
// versions drop out, and prereleases too unless current is one.
func latestVersionRef(
	decl entities.Declaration,
	index *entities.RefIndex,
	current entities.VersionTag,
	opts Options,
	kinds ...entities.RefKind,
) (entities.VersionRef, bool, error) {
	higher := higherCandidates(index, current, kinds...)
	name := entities.DependencyName(decl)

	allowed := make([]entities.VersionRef, 0, len(higher))
	for _, candidate := range higher {
		if !entities.IsIgnored(opts.IgnoreRules, name, current, candidate.Version) {
			allowed = append(allowed, candidate)
		}
	}

	if len(allowed) == 0 && len(higher) > 0 {
		logger.Infof("All updates for %s were ignored", name)
		if opts.RaiseOnAllIgnored {
			return entities.VersionRef{}, false, fmt.Errorf("%s: %w", name, entities.ErrAllVersionsIgnored)
		}
		return entities.VersionRef{}, false, nil
	}

	latest, found := entities.MaxVersionRef(allowed)
	return latest, found, nil
}

func higherCandidates(
	index *entities.RefIndex,
	current entities.VersionTag,
	kinds ...entities.RefKind,
) []entities.VersionRef {
	var candidates []entities.VersionRef
	for _, candidate := range index.VersionRefs(current.Prefix, kinds...) {
		if candidate.Ref.CommitSHA == "" || candidate.Version.Precision() < current.Precision() {
			continue
		}
		if candidate.Version.IsPrerelease() && !current.IsPrerelease() {
			continue
		}
		if candidate.Version.Compare(current) > 0 {
			candidates = append(candidates, candidate)
		}
	}
	return candidates
}

func versionResolution(
	fromRef string,
	current entities.VersionTag,
	latest entities.VersionRef,
	representation entities.VersionRef,
) *entities.Resolution {
	if representation.Name() == fromRef {
		return entities.NoUpdate(fromRef, &current)
	}

	kind := entities.ResolutionTag
	if representation.IsBranch() {
		kind = entities.ResolutionBranch
	}
	return &entities.Resolution{
		Kind:           kind,
		FromRef:        fromRef,
		Ref:            representation.Name(),
		CommitSHA:      latest.Ref.CommitSHA,
		Version:        &latest,
		CurrentVersion: &current,
	}
}

// commitResolution re-expresses a ref resolution for a declaration pinned by SHA.
func commitResolution(sha string, resolution *entities.Resolution) *entities.Resolution {
	if resolution == nil || resolution.CommitSHA == "" || entities.SameCommit(sha, resolution.CommitSHA) {
		var current *entities.VersionTag
		if resolution != nil {
			current = resolution.CurrentVersion
		}
		return entities.NoUpdate(sha, current)
	}

	return &entities.Resolution{
		Kind:           entities.ResolutionCommit,
		FromRef:        sha,
		Ref:            resolution.CommitSHA,
		CommitSHA:      resolution.CommitSHA,
		Version:        resolution.Version,
		CurrentVersion: resolution.CurrentVersion,
	}
}
