package entities

import (
	"fmt"
	"net/url"
	"strings"

	gitforgeEntities "github.com/rios0rios0/gitforge/domain/entities"
)

// Repository is re-exported from gitforge.
type Repository = gitforgeEntities.Repository

const (
	ProviderGitHub      = "github"
	ProviderGitLab      = "gitlab"
	ProviderAzureDevOps = "azuredevops"
	ProviderBitbucket   = "bitbucket"
	ProviderCodeCommit  = "codecommit"
	ProviderGit         = "git"
)

// ParseSourceRepository identifies the hosting provider, owner and name of a
// dependency's clone URL.
func ParseSourceRepository(rawURL string) (Repository, error) {
	cleaned := strings.TrimSuffix(strings.TrimPrefix(rawURL, "git::"), ".git")

	if strings.HasPrefix(cleaned, "git@") {
		host, rest, found := strings.Cut(strings.TrimPrefix(cleaned, "git@"), ":")
		if !found {
			return Repository{}, fmt.Errorf("unsupported git remote URL: %s", rawURL)
		}
		cleaned = "https://" + host + "/" + strings.TrimPrefix(rest, "v3/")
	}

	parsed, err := url.Parse(cleaned)
	if err != nil || parsed.Host == "" {
		return Repository{}, fmt.Errorf("unsupported git remote URL: %s", rawURL)
	}

	host := strings.ToLower(parsed.Host)
	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	repo := Repository{RemoteURL: rawURL, ProviderName: ProviderGit}

	switch {
	case strings.Contains(host, "dev.azure.com") || strings.Contains(host, "visualstudio.com"):
		repo.ProviderName = ProviderAzureDevOps
		// org/project/_git/repo (HTTPS) or org/project/repo (SSH v3)
		cleanedSegments := make([]string, 0, len(segments))
		for _, s := range segments {
			if s != "_git" {
				cleanedSegments = append(cleanedSegments, s)
			}
		}
		if len(cleanedSegments) < 3 { //nolint:mnd // org, project, repo
			return Repository{}, fmt.Errorf("invalid Azure DevOps URL: %s", rawURL)
		}
		repo.Organization = cleanedSegments[0]
		repo.Project = cleanedSegments[1]
		repo.Name = cleanedSegments[len(cleanedSegments)-1]
	case strings.HasPrefix(host, "git-codecommit."):
		repo.ProviderName = ProviderCodeCommit
		repo.Name = segments[len(segments)-1]
	default:
		if len(segments) < 2 { //nolint:mnd // owner and name
			return Repository{}, fmt.Errorf("unsupported git remote URL: %s", rawURL)
		}
		switch {
		case strings.Contains(host, "github"):
			repo.ProviderName = ProviderGitHub
		case strings.Contains(host, "gitlab"):
			repo.ProviderName = ProviderGitLab
		case strings.Contains(host, "bitbucket"):
			repo.ProviderName = ProviderBitbucket
		}
		repo.Organization = strings.Join(segments[:len(segments)-1], "/")
		repo.Name = segments[len(segments)-1]
	}

	repo.ID = strings.Trim(repo.Organization+"/"+repo.Name, "/")
	return repo, nil
}
