package gitlab

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	logger "github.com/sirupsen/logrus"
	gl "gitlab.com/gitlab-org/api/client-go"

	"github.com/rios0rios0/refupdate/internal/domain/entities"
	"github.com/rios0rios0/refupdate/internal/domain/repositories"
	"github.com/rios0rios0/refupdate/internal/infrastructure/repositories/gitremote"
)

const (
	providerName  = "gitlab"
	defaultHost   = "gitlab.com"
	tokenUsername = "oauth2"
	perPage       = 100
	refTypeBranch = "branch"
)

var errClientNotInitialized = errors.New("gitlab client not initialized")

// GitLabRefSourceRepository implements repositories.RefSourceRepository for GitLab.
type GitLabRefSourceRepository struct {
	host   string
	client *gl.Client
	remote *gitremote.GitRemoteRefSourceRepository
}

// NewGitLabRefSourceRepository creates a GitLab adapter. A base URL selects a self-managed instance.
func NewGitLabRefSourceRepository(
	provider entities.ProviderConfig,
	options entities.RemoteOptions,
) repositories.RefSourceRepository {
	clientOptions := []gl.ClientOptionFunc{
		gl.WithHTTPClient(&http.Client{Timeout: options.ConnectTimeout + options.ReadTimeout}),
	}

	host := defaultHost
	if provider.BaseURL != "" {
		clientOptions = append(clientOptions, gl.WithBaseURL(provider.BaseURL))
		if parsed, err := url.Parse(provider.BaseURL); err == nil {
			host = parsed.Host
		}
	}

	adapter := &GitLabRefSourceRepository{host: host}
	client, err := gl.NewClient(provider.Token, clientOptions...)
	if err != nil {
		// Return an adapter that will fail on use rather than panicking at construction
		logger.Warnf("[%s] Failed to create client: %v", providerName, err)
	} else {
		adapter.client = client
	}

	adapter.remote = gitremote.NewNamedGitRemoteRefSourceRepository(
		providerName, tokenUsername, provider.Token, options, adapter.MatchesURL,
	)
	return adapter
}

func (it *GitLabRefSourceRepository) Name() string { return providerName }

func (it *GitLabRefSourceRepository) MatchesURL(rawURL string) bool {
	return strings.Contains(rawURL, it.host)
}

func (it *GitLabRefSourceRepository) ListRemoteReferences(
	ctx context.Context,
	repositoryURL string,
) ([]entities.RemoteRef, error) {
	return it.remote.ListRemoteReferences(ctx, repositoryURL)
}

// DefaultBranchName reads the project's default branch.
func (it *GitLabRefSourceRepository) DefaultBranchName(
	ctx context.Context,
	repositoryURL string,
) (string, error) {
	if it.client == nil {
		return "", errClientNotInitialized
	}

	pid, err := projectPath(repositoryURL)
	if err != nil {
		return "", err
	}

	project, resp, err := it.client.Projects.GetProject(pid, &gl.GetProjectOptions{}, gl.WithContext(ctx))
	if err != nil {
		return "", statusError("get project "+pid, resp, err)
	}
	return project.DefaultBranch, nil
}

// BranchesContainingCommit uses the commit refs endpoint, which answers the
// containment question server-side.
func (it *GitLabRefSourceRepository) BranchesContainingCommit(
	ctx context.Context,
	repositoryURL, sha string,
) ([]string, error) {
	if it.client == nil {
		return nil, errClientNotInitialized
	}

	pid, err := projectPath(repositoryURL)
	if err != nil {
		return nil, err
	}

	var branches []string
	opts := &gl.GetCommitRefsOptions{
		ListOptions: gl.ListOptions{PerPage: perPage},
		Type:        gl.Ptr(refTypeBranch),
	}
	for {
		refs, resp, refsErr := it.client.Commits.GetCommitRefs(pid, sha, opts, gl.WithContext(ctx))
		if refsErr != nil {
			return nil, statusError("get refs of "+sha, resp, refsErr)
		}

		for _, ref := range refs {
			if ref.Type == refTypeBranch {
				branches = append(branches, ref.Name)
			}
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return branches, nil
}

// projectPath returns the "group/subgroup/project" path GitLab accepts as a project ID.
func projectPath(repositoryURL string) (string, error) {
	repo, err := entities.ParseSourceRepository(repositoryURL)
	if err != nil {
		return "", err
	}
	if repo.ID == "" {
		return "", fmt.Errorf("cannot determine project of %s", repositoryURL)
	}
	return repo.ID, nil
}

func statusError(operation string, resp *gl.Response, err error) error {
	if resp == nil || resp.Response == nil {
		return fmt.Errorf("%s: %w", operation, err)
	}
	return &entities.RemoteStatusError{Operation: operation, StatusCode: resp.StatusCode, Err: err}
}
