//go:build unit

package gitremote //nolint:testpackage // tests unexported functions

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/refupdate/internal/domain/entities"
)

// localRemote is an on-disk repository:
//
//	master:  c1 -- c2
//	feature:   \-- c3
type localRemote struct {
	dir        string
	c1, c2, c3 plumbing.Hash
}

func newLocalRemote(t *testing.T) localRemote {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	worktree, err := repo.Worktree()
	require.NoError(t, err)

	commit := func(content string) plumbing.Hash {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "action.yml"), []byte(content), 0o644))
		_, addErr := worktree.Add("action.yml")
		require.NoError(t, addErr)
		hash, commitErr := worktree.Commit(content, &git.CommitOptions{
			Author: &object.Signature{Name: "dev", Email: "dev@example.com", When: time.Unix(1700000000, 0)},
		})
		require.NoError(t, commitErr)
		return hash
	}

	remote := localRemote{dir: dir}
	remote.c1 = commit("name: one\n")
	remote.c2 = commit("name: two\n")
	_, err = repo.CreateTag("v1.0.0", remote.c1, nil)
	require.NoError(t, err)

	require.NoError(t, worktree.Checkout(&git.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName("feature"),
		Hash:   remote.c1,
		Create: true,
	}))
	remote.c3 = commit("name: three\n")
	return remote
}

func TestGitRemoteRefSourceRepository_ListRemoteReferences(t *testing.T) {
	t.Parallel()

	t.Run("should list the branches and tags a remote advertises", func(t *testing.T) {
		t.Parallel()

		// given
		remote := newLocalRemote(t)
		adapter := NewNamedGitRemoteRefSourceRepository("git", "", "", entities.RemoteOptions{}, nil)

		// when
		refs, err := adapter.ListRemoteReferences(context.Background(), remote.dir)

		// then
		require.NoError(t, err)
		assert.Contains(t, refs, entities.RemoteRef{Name: "master", CommitSHA: remote.c2.String(), Kind: entities.RefKindBranch})
		assert.Contains(t, refs, entities.RemoteRef{Name: "feature", CommitSHA: remote.c3.String(), Kind: entities.RefKindBranch})
		assert.Contains(t, refs, entities.RemoteRef{Name: "v1.0.0", CommitSHA: remote.c1.String(), Kind: entities.RefKindTag})
	})

	t.Run("should fail for a repository that does not exist", func(t *testing.T) {
		t.Parallel()

		// given
		adapter := NewNamedGitRemoteRefSourceRepository("git", "", "", entities.RemoteOptions{}, nil)

		// when
		_, err := adapter.ListRemoteReferences(context.Background(), filepath.Join(t.TempDir(), "missing"))

		// then
		require.Error(t, err)
	})
}

func TestGitRemoteRefSourceRepository_BranchesContainingCommit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		commit func(localRemote) plumbing.Hash
		want   []string
	}{
		{
			name:   "should find every branch a shared ancestor is reachable from",
			commit: func(r localRemote) plumbing.Hash { return r.c1 },
			want:   []string{"feature", "master"},
		},
		{
			name:   "should find the single branch a tip commit belongs to",
			commit: func(r localRemote) plumbing.Hash { return r.c2 },
			want:   []string{"master"},
		},
		{
			name:   "should find a commit only reachable from a side branch",
			commit: func(r localRemote) plumbing.Hash { return r.c3 },
			want:   []string{"feature"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// given
			remote := newLocalRemote(t)
			adapter := NewNamedGitRemoteRefSourceRepository("git", "", "", entities.RemoteOptions{}, nil)

			// when
			branches, err := adapter.BranchesContainingCommit(context.Background(), remote.dir, tt.commit(remote).String())

			// then
			require.NoError(t, err)
			assert.Equal(t, tt.want, branches)
		})
	}

	t.Run("should fail for a commit the remote does not have", func(t *testing.T) {
		t.Parallel()

		// given
		remote := newLocalRemote(t)
		adapter := NewNamedGitRemoteRefSourceRepository("git", "", "", entities.RemoteOptions{}, nil)

		// when
		_, err := adapter.BranchesContainingCommit(
			context.Background(), remote.dir, "0123456789abcdef0123456789abcdef01234567",
		)

		// then
		require.ErrorContains(t, err, "not found")
	})
}

func TestAdvertisedRefs(t *testing.T) {
	t.Parallel()

	t.Run("should report annotated tags with the commit they peel to", func(t *testing.T) {
		t.Parallel()

		// given
		commit := plumbing.NewHash("1111111111111111111111111111111111111111")
		tagObject := plumbing.NewHash("2222222222222222222222222222222222222222")
		advertised := []*plumbing.Reference{
			plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.NewBranchReferenceName("main")),
			plumbing.NewHashReference(plumbing.NewBranchReferenceName("main"), commit),
			plumbing.NewHashReference(plumbing.NewTagReferenceName("v2.0.0"), tagObject),
			plumbing.NewHashReference(plumbing.ReferenceName("refs/tags/v2.0.0^{}"), commit),
			plumbing.NewHashReference(plumbing.ReferenceName("refs/pull/1/head"), commit),
		}

		// when
		refs, head := advertisedRefs(advertised)

		// then
		assert.Equal(t, "main", head)
		assert.Equal(t, []entities.RemoteRef{
			{Name: "main", CommitSHA: commit.String(), Kind: entities.RefKindBranch},
			{Name: "v2.0.0", CommitSHA: commit.String(), TagSHA: tagObject.String(), Kind: entities.RefKindTag},
		}, refs)
	})
}

func TestCloneURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		url  string
		want string
	}{
		{name: "should append .git to HTTPS URLs", url: "https://github.com/actions/checkout", want: "https://github.com/actions/checkout.git"},
		{name: "should keep an existing .git suffix", url: "https://gitlab.com/acme/tools.git", want: "https://gitlab.com/acme/tools.git"},
		{name: "should keep Azure DevOps URLs", url: "https://dev.azure.com/acme/infra/_git/modules", want: "https://dev.azure.com/acme/infra/_git/modules"},
		{name: "should keep SSH URLs", url: "git@github.com:actions/checkout.git", want: "git@github.com:actions/checkout.git"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// given
			url := tt.url

			// when
			got := cloneURL(url)

			// then
			assert.Equal(t, tt.want, got)
		})
	}
}
