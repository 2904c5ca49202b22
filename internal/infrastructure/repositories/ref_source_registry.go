package repositories

import (
	"context"
	"fmt"

	"github.com/rios0rios0/refupdate/internal/domain/entities"
	domainRepos "github.com/rios0rios0/refupdate/internal/domain/repositories"
)

// RefSourceFactory is a constructor function that creates a RefSourceRepository from its configuration.
type RefSourceFactory func(provider entities.ProviderConfig, options entities.RemoteOptions) domainRepos.RefSourceRepository

// RefSourceRegistry manages all registered Git hosting adapters.
type RefSourceRegistry struct {
	factories map[string]RefSourceFactory
	order     []string
}

// NewRefSourceRegistry creates an empty ref source registry.
func NewRefSourceRegistry() *RefSourceRegistry {
	return &RefSourceRegistry{
		factories: make(map[string]RefSourceFactory),
	}
}

// Register adds a factory under the given name (e.g. "github"). URLs are
// offered to adapters in registration order, so the catch-all goes last.
func (r *RefSourceRegistry) Register(name string, factory RefSourceFactory) {
	if _, ok := r.factories[name]; !ok {
		r.order = append(r.order, name)
	}
	r.factories[name] = factory
}

// Get returns a configured adapter for the given name, wrapped with the retry policy.
func (r *RefSourceRegistry) Get(
	name string,
	provider entities.ProviderConfig,
	options entities.RemoteOptions,
) (domainRepos.RefSourceRepository, error) {
	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", entities.ErrUnknownProvider, name)
	}
	return NewRetryingRefSourceRepository(factory(provider, options), options), nil
}

// Names returns the registered adapter names in registration order.
func (r *RefSourceRegistry) Names() []string {
	return append([]string(nil), r.order...)
}

// Router builds every adapter from settings and returns a RefSourceRepository
// that dispatches each call by repository URL.
func (r *RefSourceRegistry) Router(settings *entities.Settings) *RefSourceRouter {
	router := &RefSourceRouter{}
	for _, name := range r.order {
		adapter, _ := r.Get(name, settings.Provider(name), settings.Remote)
		router.sources = append(router.sources, adapter)
	}
	return router
}

// RefSourceRouter implements domainRepos.RefSourceRepository over a list of adapters.
type RefSourceRouter struct {
	sources []domainRepos.RefSourceRepository
}

// NewRefSourceRouter creates a router over sources, tried in order.
func NewRefSourceRouter(sources ...domainRepos.RefSourceRepository) *RefSourceRouter {
	return &RefSourceRouter{sources: sources}
}

func (r *RefSourceRouter) Name() string { return "router" }

func (r *RefSourceRouter) MatchesURL(url string) bool {
	_, err := r.sourceFor(url)
	return err == nil
}

func (r *RefSourceRouter) ListRemoteReferences(ctx context.Context, repositoryURL string) ([]entities.RemoteRef, error) {
	source, err := r.sourceFor(repositoryURL)
	if err != nil {
		return nil, err
	}
	return source.ListRemoteReferences(ctx, repositoryURL)
}

func (r *RefSourceRouter) BranchesContainingCommit(ctx context.Context, repositoryURL, sha string) ([]string, error) {
	source, err := r.sourceFor(repositoryURL)
	if err != nil {
		return nil, err
	}
	return source.BranchesContainingCommit(ctx, repositoryURL, sha)
}

func (r *RefSourceRouter) DefaultBranchName(ctx context.Context, repositoryURL string) (string, error) {
	source, err := r.sourceFor(repositoryURL)
	if err != nil {
		return "", err
	}
	return source.DefaultBranchName(ctx, repositoryURL)
}

func (r *RefSourceRouter) sourceFor(repositoryURL string) (domainRepos.RefSourceRepository, error) {
	for _, source := range r.sources {
		if source.MatchesURL(repositoryURL) {
			return source, nil
		}
	}
	return nil, fmt.Errorf("%w: no adapter accepts %s", entities.ErrUnknownProvider, repositoryURL)
}
