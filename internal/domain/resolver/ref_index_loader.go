package resolver

import (
	"context"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/refupdate/internal/domain/entities"
	"github.com/rios0rios0/refupdate/internal/domain/repositories"
)

// RefIndexLoader snapshots the refs of a remote repository.
type RefIndexLoader struct {
	refSource repositories.RefSourceRepository
}

// NewRefIndexLoader creates a loader backed by refSource.
func NewRefIndexLoader(refSource repositories.RefSourceRepository) *RefIndexLoader {
	return &RefIndexLoader{refSource: refSource}
}

// Load lists every ref of sourceURL once. Any failure (unreachable host,
// missing repository, takedown) degrades to an empty index so the dependency
// resolves to "no update" instead of failing the run.
func (it *RefIndexLoader) Load(ctx context.Context, sourceURL string) *entities.RefIndex {
	refs, err := it.refSource.ListRemoteReferences(ctx, sourceURL)
	if err != nil {
		logger.Warnf("Failed to list references of %s, treating as no update available: %v", sourceURL, err)
		return entities.EmptyRefIndex()
	}

	defaultBranch, err := it.refSource.DefaultBranchName(ctx, sourceURL)
	if err != nil {
		logger.Debugf("Default branch of %s is unknown: %v", sourceURL, err)
		defaultBranch = ""
	}

	logger.Debugf("Indexed %d references of %s (default branch %q)", len(refs), sourceURL, defaultBranch)
	return entities.NewRefIndex(refs, defaultBranch)
}
