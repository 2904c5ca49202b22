package repositories

import (
	domainRepos "github.com/rios0rios0/refupdate/internal/domain/repositories"
)

// EcosystemRegistry manages all registered declaration file formats.
type EcosystemRegistry struct {
	ecosystems map[string]domainRepos.EcosystemRepository
	order      []string
}

// NewEcosystemRegistry creates an empty ecosystem registry.
func NewEcosystemRegistry() *EcosystemRegistry {
	return &EcosystemRegistry{
		ecosystems: make(map[string]domainRepos.EcosystemRepository),
	}
}

// Register adds an ecosystem under its name.
func (r *EcosystemRegistry) Register(e domainRepos.EcosystemRepository) {
	if _, ok := r.ecosystems[e.Name()]; !ok {
		r.order = append(r.order, e.Name())
	}
	r.ecosystems[e.Name()] = e
}

// Get returns the ecosystem with the given name, or nil if not registered.
func (r *EcosystemRegistry) Get(name string) domainRepos.EcosystemRepository {
	return r.ecosystems[name]
}

// All returns every registered ecosystem in registration order.
func (r *EcosystemRegistry) All() []domainRepos.EcosystemRepository {
	result := make([]domainRepos.EcosystemRepository, 0, len(r.order))
	for _, name := range r.order {
		result = append(result, r.ecosystems[name])
	}
	return result
}

// Detect returns the first ecosystem claiming the file, or nil.
func (r *EcosystemRegistry) Detect(path string) domainRepos.EcosystemRepository {
	for _, name := range r.order {
		if r.ecosystems[name].Detect(path) {
			return r.ecosystems[name]
		}
	}
	return nil
}

// Names returns the list of registered ecosystem names.
func (r *EcosystemRegistry) Names() []string {
	return append([]string(nil), r.order...)
}
