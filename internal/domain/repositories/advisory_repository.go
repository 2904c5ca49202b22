package repositories

import (
	"context"

	"github.com/rios0rios0/refupdate/internal/domain/entities"
)

// AdvisoryRepository loads security advisories from an external feed.
type AdvisoryRepository interface {
	// LoadAdvisories reads every advisory from the given sources (file paths or URLs).
	LoadAdvisories(ctx context.Context, sources []string) ([]entities.SecurityAdvisory, error)
}
