package repositories

import (
	"github.com/rios0rios0/refupdate/internal/domain/entities"
)

// EcosystemRepository abstracts a file format that pins dependencies to git refs
// (GitHub Actions workflows, Terraform module sources, etc.). It owns discovery,
// parsing and in-place rewriting of declarations; resolution happens elsewhere.
type EcosystemRepository interface {
	// Name returns the ecosystem identifier (e.g. "github-actions", "terraform").
	Name() string

	// Detect returns true if the file at path belongs to this ecosystem.
	Detect(path string) bool

	// ParseDeclarations extracts every git-ref-pinned declaration from content.
	ParseDeclarations(path, content string) ([]entities.Declaration, error)

	// ApplyUpdate rewrites one declaration inside content. The index is the
	// snapshot the update was resolved against; it is used to refresh version
	// comments that annotate SHA pins.
	ApplyUpdate(content string, update entities.DeclarationUpdate, index *entities.RefIndex) string
}
