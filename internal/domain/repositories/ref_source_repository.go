package repositories

import (
	"context"

	"github.com/rios0rios0/refupdate/internal/domain/entities"
)

// RefSourceRepository abstracts the only operations the resolver needs from a
// Git hosting service (GitHub, GitLab, Azure DevOps, Bitbucket, CodeCommit, plain git).
// All HTTP, authentication and retry concerns live behind it.
type RefSourceRepository interface {
	// Name returns the provider identifier (e.g. "github", "gitlab", "azuredevops").
	Name() string

	// MatchesURL returns true if the given repository URL belongs to this provider.
	MatchesURL(url string) bool

	// ListRemoteReferences returns every branch and tag the remote advertises,
	// the equivalent of a git upload-pack info/refs advertisement.
	ListRemoteReferences(ctx context.Context, repositoryURL string) ([]entities.RemoteRef, error)

	// BranchesContainingCommit returns the branches from which sha is reachable,
	// the equivalent of "git branch --remotes --contains <sha>".
	BranchesContainingCommit(ctx context.Context, repositoryURL, sha string) ([]string, error)

	// DefaultBranchName returns the branch HEAD points to on the remote.
	DefaultBranchName(ctx context.Context, repositoryURL string) (string, error)
}
