//go:build unit

package rewriter_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/refupdate/internal/domain/entities"
	"github.com/rios0rios0/refupdate/internal/domain/resolver"
	"github.com/rios0rios0/refupdate/internal/domain/rewriter"
	"github.com/rios0rios0/refupdate/test/domain/entitybuilders"
)

const (
	shaMaster = "aa1b2c3d4e5f60718293a4b5c6d7e8f901234567"
	shaV200   = "b1b2c3d4e5f60718293a4b5c6d7e8f9012345678"
	shaV210   = "c1b2c3d4e5f60718293a4b5c6d7e8f9012345679"
	shaV220   = "d1b2c3d4e5f60718293a4b5c6d7e8f901234567a"
)

func buildIndex() *entities.RefIndex {
	return entitybuilders.NewRefIndexBuilder().
		WithBranch("master", shaMaster).
		WithDefaultBranch("master").
		WithTag("v2", shaV220).
		WithTag("v2.0.0", shaV200).
		WithTag("v2.1.0", shaV210).
		WithTag("v2.2.0", shaV220).
		BuildRefIndex()
}

func resolve(t *testing.T, dep entities.Dependency, index *entities.RefIndex) *entities.Resolution {
	t.Helper()
	_, resolution, err := resolver.NewVersionResolver(nil).ResolveDependency(
		context.Background(), dep, index, resolver.Options{},
	)
	require.NoError(t, err)
	return resolution
}

func TestRequirementRewriter_UpdatedRequirements(t *testing.T) {
	t.Parallel()

	t.Run("should advance the tag site and leave the master site unchanged", func(t *testing.T) {
		t.Parallel()

		// given
		index := buildIndex()
		builder := entitybuilders.NewDeclarationBuilder().WithRepository("org/action")
		tagged := builder.WithRef("v2.1.0").WithFile("a.yml").BuildDeclaration()
		branch := builder.WithRef("master").WithFile("b.yml").AsBranch().BuildDeclaration()
		dep := entities.GroupDeclarations("github-actions", []entities.Declaration{tagged, branch})[0]
		target := resolve(t, dep, index)

		// when
		updated := rewriter.NewRequirementRewriter().UpdatedRequirements(dep, target, index)

		// then
		require.Len(t, updated, 2)
		assert.Equal(t, "v2.2.0", updated[0].Ref)
		assert.Equal(t, "org/action@v2.2.0", updated[0].DeclarationString)
		assert.Equal(t, "master", updated[1].Ref)
		assert.Equal(t, "org/action@master", updated[1].DeclarationString)
	})

	t.Run("should give every declaration sharing a pin the same new ref", func(t *testing.T) {
		t.Parallel()

		// given
		index := buildIndex()
		builder := entitybuilders.NewDeclarationBuilder().WithRepository("org/action").WithRef("v2.0.0")
		first := builder.WithFile("a.yml").BuildDeclaration()
		second := builder.WithFile("b.yml").BuildDeclaration()
		dep := entities.GroupDeclarations("github-actions", []entities.Declaration{first, second})[0]
		target := resolve(t, dep, index)

		// when
		updated := rewriter.NewRequirementRewriter().UpdatedRequirements(dep, target, index)

		// then
		require.Len(t, updated, 2)
		assert.Equal(t, "v2.2.0", updated[0].Ref)
		assert.Equal(t, "v2.2.0", updated[1].Ref)
	})

	t.Run("should move a SHA site to the commit of the target version", func(t *testing.T) {
		t.Parallel()

		// given
		index := buildIndex()
		builder := entitybuilders.NewDeclarationBuilder().WithRepository("org/action")
		tagged := builder.WithRef("v2.1.0").WithFile("a.yml").BuildDeclaration()
		pinned := builder.WithRef(shaV200).WithFile("b.yml").BuildDeclaration()
		dep := entities.GroupDeclarations("github-actions", []entities.Declaration{tagged, pinned})[0]
		target := resolve(t, dep, index)

		// when
		updated := rewriter.NewRequirementRewriter().UpdatedRequirements(dep, target, index)

		// then
		assert.Equal(t, "v2.2.0", updated[0].Ref)
		assert.Equal(t, shaV220, updated[1].Ref)
		assert.Equal(t, "org/action@"+shaV220, updated[1].DeclarationString)
	})

	t.Run("should keep the precision of each tag site", func(t *testing.T) {
		t.Parallel()

		// given
		index := buildIndex()
		builder := entitybuilders.NewDeclarationBuilder().WithRepository("org/action")
		full := builder.WithRef("v2.0.0").WithFile("a.yml").BuildDeclaration()
		major := builder.WithRef("v2").WithFile("b.yml").BuildDeclaration()
		dep := entities.GroupDeclarations("github-actions", []entities.Declaration{full, major})[0]
		target := resolve(t, dep, index)

		// when
		updated := rewriter.NewRequirementRewriter().UpdatedRequirements(dep, target, index)

		// then
		assert.Equal(t, "v2.2.0", updated[0].Ref)
		assert.Equal(t, "v2", updated[1].Ref)
	})

	t.Run("should rewrite the ref of a Terraform query-style source", func(t *testing.T) {
		t.Parallel()

		// given
		index := buildIndex()
		decl := entitybuilders.NewDeclarationBuilder().
			WithRepository("org/module").WithPath("modules/vpc").WithRef("v2.0.0").WithQueryStyle().
			BuildDeclaration()
		dep := entities.GroupDeclarations("terraform", []entities.Declaration{decl})[0]
		target := resolve(t, dep, index)

		// when
		updated := rewriter.NewRequirementRewriter().UpdatedRequirements(dep, target, index)

		// then
		assert.Equal(t, "git::https://github.com/org/module.git//modules/vpc?ref=v2.2.0", updated[0].DeclarationString)
	})

	t.Run("should leave every declaration alone when there is no update", func(t *testing.T) {
		t.Parallel()

		// given
		index := buildIndex()
		decl := entitybuilders.NewDeclarationBuilder().WithRepository("org/action").WithRef("v2.2.0").BuildDeclaration()
		dep := entities.GroupDeclarations("github-actions", []entities.Declaration{decl})[0]
		target := resolve(t, dep, index)

		// when
		updates := rewriter.NewRequirementRewriter().Updates(dep, target, index)

		// then
		assert.False(t, target.IsUpdate())
		assert.Empty(t, updates)
	})
}

func TestRequirementRewriter_Updates(t *testing.T) {
	t.Parallel()

	t.Run("should only report declarations whose ref changes", func(t *testing.T) {
		t.Parallel()

		// given
		index := buildIndex()
		builder := entitybuilders.NewDeclarationBuilder().WithRepository("org/action")
		tagged := builder.WithRef("v2.1.0").WithFile("a.yml").BuildDeclaration()
		branch := builder.WithRef("master").WithFile("b.yml").AsBranch().BuildDeclaration()
		dep := entities.GroupDeclarations("github-actions", []entities.Declaration{tagged, branch})[0]
		target := resolve(t, dep, index)

		// when
		updates := rewriter.NewRequirementRewriter().Updates(dep, target, index)

		// then
		require.Len(t, updates, 1)
		assert.Equal(t, "a.yml", updates[0].Previous.File)
		assert.Equal(t, "v2.1.0", updates[0].Previous.Ref)
		assert.Equal(t, "v2.2.0", updates[0].Updated.Ref)
	})
}
