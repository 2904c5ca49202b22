package repositories

import (
	"strings"

	"go.uber.org/dig"

	"github.com/rios0rios0/refupdate/internal/domain/entities"
	domainRepos "github.com/rios0rios0/refupdate/internal/domain/repositories"
	adoRepo "github.com/rios0rios0/refupdate/internal/infrastructure/repositories/azuredevops"
	ghRepo "github.com/rios0rios0/refupdate/internal/infrastructure/repositories/github"
	gaRepo "github.com/rios0rios0/refupdate/internal/infrastructure/repositories/githubactions"
	glRepo "github.com/rios0rios0/refupdate/internal/infrastructure/repositories/gitlab"
	gitRepo "github.com/rios0rios0/refupdate/internal/infrastructure/repositories/gitremote"
	osvRepo "github.com/rios0rios0/refupdate/internal/infrastructure/repositories/osv"
	tfRepo "github.com/rios0rios0/refupdate/internal/infrastructure/repositories/terraform"
)

// RegisterProviders registers all repository providers with the DIG container.
func RegisterProviders(container *dig.Container) error {
	// Register ref source registry with all adapter factories, catch-all last
	if err := container.Provide(func() *RefSourceRegistry {
		reg := NewRefSourceRegistry()
		reg.Register(entities.ProviderGitHub, ghRepo.NewGitHubRefSourceRepository)
		reg.Register(entities.ProviderGitLab, glRepo.NewGitLabRefSourceRepository)
		reg.Register(entities.ProviderAzureDevOps, adoRepo.NewAzureDevOpsRefSourceRepository)
		reg.Register(entities.ProviderBitbucket, newBitbucketRefSourceRepository)
		reg.Register(entities.ProviderCodeCommit, newCodeCommitRefSourceRepository)
		reg.Register(entities.ProviderGit, gitRepo.NewGitRemoteRefSourceRepository)
		return reg
	}); err != nil {
		return err
	}

	// Register ecosystem registry with all declaration formats
	if err := container.Provide(func() *EcosystemRegistry {
		reg := NewEcosystemRegistry()
		reg.Register(gaRepo.NewGitHubActionsEcosystemRepository())
		reg.Register(tfRepo.NewTerraformEcosystemRepository())
		return reg
	}); err != nil {
		return err
	}

	// Register advisory loader
	if err := container.Provide(osvRepo.NewOSVAdvisoryRepository); err != nil {
		return err
	}

	return nil
}

func newBitbucketRefSourceRepository(
	provider entities.ProviderConfig,
	options entities.RemoteOptions,
) domainRepos.RefSourceRepository {
	return gitRepo.NewNamedGitRemoteRefSourceRepository(
		entities.ProviderBitbucket, "x-token-auth", provider.Token, options,
		func(url string) bool { return strings.Contains(url, "bitbucket.org") },
	)
}

func newCodeCommitRefSourceRepository(
	provider entities.ProviderConfig,
	options entities.RemoteOptions,
) domainRepos.RefSourceRepository {
	// HTTPS Git credentials are configured as "username:password"
	username, password, found := strings.Cut(provider.Token, ":")
	if !found {
		username, password = "", provider.Token
	}
	return gitRepo.NewNamedGitRemoteRefSourceRepository(
		entities.ProviderCodeCommit, username, password, options,
		func(url string) bool { return strings.Contains(url, "git-codecommit.") },
	)
}
