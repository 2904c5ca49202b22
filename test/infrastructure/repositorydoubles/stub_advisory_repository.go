//go:build integration || unit || test

package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"

	"github.com/rios0rios0/refupdate/internal/domain/entities"
	"github.com/rios0rios0/refupdate/internal/domain/repositories"
)

// StubAdvisoryRepository returns a fixed set of advisories.
type StubAdvisoryRepository struct {
	Advisories []entities.SecurityAdvisory
	LoadErr    error
	LoadedFrom [][]string
}

var _ repositories.AdvisoryRepository = (*StubAdvisoryRepository)(nil)

func (s *StubAdvisoryRepository) LoadAdvisories(
	_ context.Context, sources []string,
) ([]entities.SecurityAdvisory, error) {
	s.LoadedFrom = append(s.LoadedFrom, sources)
	return s.Advisories, s.LoadErr
}

// DummyAdvisoryRepository never yields advisories.
type DummyAdvisoryRepository struct{}

var _ repositories.AdvisoryRepository = (*DummyAdvisoryRepository)(nil)

func (d *DummyAdvisoryRepository) LoadAdvisories(
	_ context.Context, _ []string,
) ([]entities.SecurityAdvisory, error) {
	return nil, nil
}
