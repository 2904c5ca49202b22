package azuredevops

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rios0rios0/refupdate/internal/azuredevops"
	"github.com/rios0rios0/refupdate/internal/domain/entities"
	"github.com/rios0rios0/refupdate/internal/domain/repositories"
	"github.com/rios0rios0/refupdate/internal/infrastructure/repositories/gitremote"
)

const (
	providerName  = "azuredevops"
	tokenUsername = "pat"
	headsPrefix   = "refs/heads/"
	tagsPrefix    = "refs/tags/"
)

// AzureDevOpsRefSourceRepository implements repositories.RefSourceRepository
// for Azure DevOps. The refs API peels annotated tags itself; containment has
// no REST equivalent and is answered by walking history over git.
type AzureDevOpsRefSourceRepository struct {
	token   string
	options entities.RemoteOptions
	remote  *gitremote.GitRemoteRefSourceRepository

	mu      sync.Mutex
	clients map[string]*azuredevops.Client
}

// NewAzureDevOpsRefSourceRepository creates an Azure DevOps adapter.
func NewAzureDevOpsRefSourceRepository(
	provider entities.ProviderConfig,
	options entities.RemoteOptions,
) repositories.RefSourceRepository {
	adapter := &AzureDevOpsRefSourceRepository{
		token:   provider.Token,
		options: options,
		clients: make(map[string]*azuredevops.Client),
	}
	adapter.remote = gitremote.NewNamedGitRemoteRefSourceRepository(
		providerName, tokenUsername, provider.Token, options, adapter.MatchesURL,
	)
	return adapter
}

func (it *AzureDevOpsRefSourceRepository) Name() string { return providerName }

func (it *AzureDevOpsRefSourceRepository) MatchesURL(rawURL string) bool {
	return strings.Contains(rawURL, "dev.azure.com") || strings.Contains(rawURL, "visualstudio.com")
}

// ListRemoteReferences reads branches and tags from the refs API.
func (it *AzureDevOpsRefSourceRepository) ListRemoteReferences(
	ctx context.Context,
	repositoryURL string,
) ([]entities.RemoteRef, error) {
	repo, client, err := it.clientFor(repositoryURL)
	if err != nil {
		return nil, err
	}

	gitRefs, err := client.GetRefs(ctx, repo.Project, repo.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to list references of %s: %w", repositoryURL, err)
	}

	refs := make([]entities.RemoteRef, 0, len(gitRefs))
	for _, ref := range gitRefs {
		switch {
		case strings.HasPrefix(ref.Name, headsPrefix):
			refs = append(refs, entities.RemoteRef{
				Name:      strings.TrimPrefix(ref.Name, headsPrefix),
				CommitSHA: ref.ObjectID,
				Kind:      entities.RefKindBranch,
			})
		case strings.HasPrefix(ref.Name, tagsPrefix):
			tag := entities.RemoteRef{
				Name:      strings.TrimPrefix(ref.Name, tagsPrefix),
				CommitSHA: ref.ObjectID,
				Kind:      entities.RefKindTag,
			}
			if ref.PeeledObjectID != "" {
				tag.TagSHA = ref.ObjectID
				tag.CommitSHA = ref.PeeledObjectID
			}
			refs = append(refs, tag)
		}
	}
	return refs, nil
}

// DefaultBranchName reads the repository's default branch.
func (it *AzureDevOpsRefSourceRepository) DefaultBranchName(
	ctx context.Context,
	repositoryURL string,
) (string, error) {
	repo, client, err := it.clientFor(repositoryURL)
	if err != nil {
		return "", err
	}

	repository, err := client.GetRepository(ctx, repo.Project, repo.Name)
	if err != nil {
		return "", fmt.Errorf("failed to get repository %s: %w", repositoryURL, err)
	}
	return strings.TrimPrefix(repository.DefaultBranch, headsPrefix), nil
}

func (it *AzureDevOpsRefSourceRepository) BranchesContainingCommit(
	ctx context.Context,
	repositoryURL, sha string,
) ([]string, error) {
	return it.remote.BranchesContainingCommit(ctx, repositoryURL, sha)
}

// clientFor returns the cached API client of the URL's organization.
func (it *AzureDevOpsRefSourceRepository) clientFor(
	repositoryURL string,
) (entities.Repository, *azuredevops.Client, error) {
	repo, err := entities.ParseSourceRepository(repositoryURL)
	if err != nil {
		return entities.Repository{}, nil, err
	}
	if repo.ProviderName != entities.ProviderAzureDevOps {
		return entities.Repository{}, nil, fmt.Errorf("%s is not an Azure DevOps repository", repositoryURL)
	}

	it.mu.Lock()
	defer it.mu.Unlock()
	client, ok := it.clients[repo.Organization]
	if !ok {
		client = azuredevops.NewClient(repo.Organization, it.token, it.options.ConnectTimeout+it.options.ReadTimeout)
		it.clients[repo.Organization] = client
	}
	return repo, client, nil
}
