//go:build integration || unit || test

package entitybuilders //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"slices"

	testkit "github.com/rios0rios0/testkit/pkg/test"

	"github.com/rios0rios0/refupdate/internal/domain/entities"
)

// RefIndexBuilder assembles the ref advertisement of a fake remote.
type RefIndexBuilder struct {
	*testkit.BaseBuilder
	refs          []entities.RemoteRef
	defaultBranch string
}

// NewRefIndexBuilder starts with an empty remote whose default branch is "main".
func NewRefIndexBuilder() *RefIndexBuilder {
	return &RefIndexBuilder{BaseBuilder: testkit.NewBaseBuilder(), defaultBranch: "main"}
}

// WithTag adds a lightweight tag.
func (b *RefIndexBuilder) WithTag(name, commitSHA string) *RefIndexBuilder {
	b.refs = append(b.refs, entities.RemoteRef{Name: name, CommitSHA: commitSHA, Kind: entities.RefKindTag})
	return b
}

// WithAnnotatedTag adds a tag whose object differs from the commit it peels to.
func (b *RefIndexBuilder) WithAnnotatedTag(name, tagSHA, commitSHA string) *RefIndexBuilder {
	b.refs = append(b.refs, entities.RemoteRef{
		Name: name, CommitSHA: commitSHA, TagSHA: tagSHA, Kind: entities.RefKindTag,
	})
	return b
}

// WithBranch adds a branch.
func (b *RefIndexBuilder) WithBranch(name, commitSHA string) *RefIndexBuilder {
	b.refs = append(b.refs, entities.RemoteRef{Name: name, CommitSHA: commitSHA, Kind: entities.RefKindBranch})
	return b
}

// WithDefaultBranch sets the branch HEAD points at.
func (b *RefIndexBuilder) WithDefaultBranch(name string) *RefIndexBuilder {
	b.defaultBranch = name
	return b
}

// Build creates the index (satisfies testkit.Builder interface).
func (b *RefIndexBuilder) Build() interface{} {
	return b.BuildRefIndex()
}

// BuildRefIndex creates the index with a concrete return type.
func (b *RefIndexBuilder) BuildRefIndex() *entities.RefIndex {
	return entities.NewRefIndex(b.BuildRefs(), b.defaultBranch)
}

// BuildRefs returns the raw advertisement, e.g. for a ref source stub.
func (b *RefIndexBuilder) BuildRefs() []entities.RemoteRef {
	return slices.Clone(b.refs)
}

// DefaultBranch returns the configured default branch.
func (b *RefIndexBuilder) DefaultBranch() string {
	return b.defaultBranch
}

// Reset clears the builder state, allowing it to be reused.
func (b *RefIndexBuilder) Reset() testkit.Builder {
	b.BaseBuilder.Reset()
	b.refs = nil
	b.defaultBranch = "main"
	return b
}

// Clone creates a deep copy of the RefIndexBuilder.
func (b *RefIndexBuilder) Clone() testkit.Builder {
	return &RefIndexBuilder{
		BaseBuilder:   b.BaseBuilder.Clone().(*testkit.BaseBuilder),
		refs:          slices.Clone(b.refs),
		defaultBranch: b.defaultBranch,
	}
}
