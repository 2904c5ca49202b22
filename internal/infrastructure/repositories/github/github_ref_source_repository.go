package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	gh "github.com/google/go-github/v66/github"
	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/refupdate/internal/domain/entities"
	"github.com/rios0rios0/refupdate/internal/domain/repositories"
	"github.com/rios0rios0/refupdate/internal/infrastructure/repositories/gitremote"
)

const (
	providerName    = "github"
	defaultHost     = "github.com"
	tokenUsername   = "x-access-token"
	perPage         = 100
	statusAhead     = "ahead"
	statusIdentical = "identical"
)

// GitHubRefSourceRepository implements repositories.RefSourceRepository for GitHub.
// Refs come from the smart protocol, which peels annotated tags in one round
// trip; the REST API answers default branch and containment questions.
type GitHubRefSourceRepository struct {
	host   string
	client *gh.Client
	remote *gitremote.GitRemoteRefSourceRepository
}

// NewGitHubRefSourceRepository creates a GitHub adapter. A base URL selects GitHub Enterprise.
func NewGitHubRefSourceRepository(
	provider entities.ProviderConfig,
	options entities.RemoteOptions,
) repositories.RefSourceRepository {
	httpClient := &http.Client{Timeout: options.ConnectTimeout + options.ReadTimeout}
	client := gh.NewClient(httpClient)
	if provider.Token != "" {
		client = client.WithAuthToken(provider.Token)
	}

	host := defaultHost
	if provider.BaseURL != "" {
		enterprise, err := client.WithEnterpriseURLs(provider.BaseURL, provider.BaseURL)
		if err != nil {
			logger.Warnf("[%s] Ignoring invalid base URL %q: %v", providerName, provider.BaseURL, err)
		} else {
			client = enterprise
			if parsed, parseErr := url.Parse(provider.BaseURL); parseErr == nil {
				host = parsed.Host
			}
		}
	}

	adapter := &GitHubRefSourceRepository{host: host, client: client}
	adapter.remote = gitremote.NewNamedGitRemoteRefSourceRepository(
		providerName, tokenUsername, provider.Token, options, adapter.MatchesURL,
	)
	return adapter
}

func (it *GitHubRefSourceRepository) Name() string { return providerName }

func (it *GitHubRefSourceRepository) MatchesURL(rawURL string) bool {
	return strings.Contains(rawURL, it.host)
}

func (it *GitHubRefSourceRepository) ListRemoteReferences(
	ctx context.Context,
	repositoryURL string,
) ([]entities.RemoteRef, error) {
	return it.remote.ListRemoteReferences(ctx, repositoryURL)
}

// DefaultBranchName asks the repositories API for the default branch.
func (it *GitHubRefSourceRepository) DefaultBranchName(
	ctx context.Context,
	repositoryURL string,
) (string, error) {
	owner, name, err := ownerAndName(repositoryURL)
	if err != nil {
		return "", err
	}

	repo, resp, err := it.client.Repositories.Get(ctx, owner, name)
	if err != nil {
		return "", statusError("get repository "+owner+"/"+name, resp, err)
	}
	return repo.GetDefaultBranch(), nil
}

// BranchesContainingCommit compares sha against every branch; a branch
// contains the commit when it is ahead of or identical to it.
func (it *GitHubRefSourceRepository) BranchesContainingCommit(
	ctx context.Context,
	repositoryURL, sha string,
) ([]string, error) {
	owner, name, err := ownerAndName(repositoryURL)
	if err != nil {
		return nil, err
	}

	var branches []string
	opts := &gh.BranchListOptions{ListOptions: gh.ListOptions{PerPage: perPage}}
	for {
		page, resp, listErr := it.client.Repositories.ListBranches(ctx, owner, name, opts)
		if listErr != nil {
			return nil, statusError("list branches of "+owner+"/"+name, resp, listErr)
		}

		for _, branch := range page {
			comparison, compareResp, compareErr := it.client.Repositories.CompareCommits(
				ctx, owner, name, sha, branch.GetName(), &gh.ListOptions{PerPage: 1},
			)
			if compareErr != nil {
				if compareResp != nil && compareResp.StatusCode == http.StatusNotFound {
					continue
				}
				return nil, statusError("compare "+sha+"..."+branch.GetName(), compareResp, compareErr)
			}
			status := comparison.GetStatus()
			if status == statusAhead || status == statusIdentical {
				branches = append(branches, branch.GetName())
			}
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return branches, nil
}

func ownerAndName(repositoryURL string) (string, string, error) {
	repo, err := entities.ParseSourceRepository(repositoryURL)
	if err != nil {
		return "", "", err
	}
	if repo.Organization == "" || repo.Name == "" {
		return "", "", fmt.Errorf("cannot determine owner and name of %s", repositoryURL)
	}
	return repo.Organization, repo.Name, nil
}

func statusError(operation string, resp *gh.Response, err error) error {
	if resp == nil || resp.Response == nil {
		return fmt.Errorf("%s: %w", operation, err)
	}
	return &entities.RemoteStatusError{Operation: operation, StatusCode: resp.StatusCode, Err: err}
}
