package gitremote

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/storage/memory"
	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/refupdate/internal/domain/entities"
	"github.com/rios0rios0/refupdate/internal/domain/repositories"
)

const (
	peeledSuffix       = "^{}"
	remoteName         = "origin"
	remoteBranchPrefix = "refs/remotes/" + remoteName + "/"
)

var errNoHead = errors.New("remote does not advertise HEAD")

// GitRemoteRefSourceRepository talks the git smart protocol directly. It works
// against any host and backs the provider-specific adapters for operations
// their APIs lack.
type GitRemoteRefSourceRepository struct {
	name     string
	username string
	token    string
	matches  func(string) bool
	options  entities.RemoteOptions

	mu    sync.Mutex
	heads map[string]string
}

// NewGitRemoteRefSourceRepository creates the generic adapter. It matches every URL.
func NewGitRemoteRefSourceRepository(
	provider entities.ProviderConfig,
	options entities.RemoteOptions,
) repositories.RefSourceRepository {
	return NewNamedGitRemoteRefSourceRepository(entities.ProviderGit, "", provider.Token, options, nil)
}

// NewNamedGitRemoteRefSourceRepository creates an adapter registered under name
// that authenticates with username/token over HTTPS. A nil matcher accepts every URL.
func NewNamedGitRemoteRefSourceRepository(
	name, username, token string,
	options entities.RemoteOptions,
	matches func(string) bool,
) *GitRemoteRefSourceRepository {
	if username == "" {
		username = "git"
	}
	return &GitRemoteRefSourceRepository{
		name:     name,
		username: username,
		token:    token,
		matches:  matches,
		options:  options,
		heads:    make(map[string]string),
	}
}

func (it *GitRemoteRefSourceRepository) Name() string { return it.name }

func (it *GitRemoteRefSourceRepository) MatchesURL(url string) bool {
	return it.matches == nil || it.matches(url)
}

// ListRemoteReferences reads the upload-pack advertisement. Annotated tags are
// reported with the commit they peel to.
func (it *GitRemoteRefSourceRepository) ListRemoteReferences(
	ctx context.Context,
	repositoryURL string,
) ([]entities.RemoteRef, error) {
	ctx, cancel := it.withTimeout(ctx)
	defer cancel()

	remote := git.NewRemote(memory.NewStorage(), &config.RemoteConfig{
		Name: remoteName,
		URLs: []string{cloneURL(repositoryURL)},
	})
	advertised, err := remote.ListContext(ctx, &git.ListOptions{
		Auth:          it.auth(repositoryURL),
		PeelingOption: git.AppendPeeled,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list references of %s: %w", repositoryURL, err)
	}

	refs, head := advertisedRefs(advertised)
	if head != "" {
		it.mu.Lock()
		it.heads[repositoryURL] = head
		it.mu.Unlock()
	}
	logger.Debugf("[%s] %s advertised %d refs", it.name, repositoryURL, len(refs))
	return refs, nil
}

// DefaultBranchName follows the HEAD symref of the remote.
func (it *GitRemoteRefSourceRepository) DefaultBranchName(
	ctx context.Context,
	repositoryURL string,
) (string, error) {
	it.mu.Lock()
	head, ok := it.heads[repositoryURL]
	it.mu.Unlock()
	if ok {
		return head, nil
	}

	if _, err := it.ListRemoteReferences(ctx, repositoryURL); err != nil {
		return "", err
	}

	it.mu.Lock()
	defer it.mu.Unlock()
	if head, ok = it.heads[repositoryURL]; !ok {
		return "", fmt.Errorf("%s: %w", repositoryURL, errNoHead)
	}
	return head, nil
}

// BranchesContainingCommit fetches the history of every branch into memory and
// walks it, the equivalent of "git branch --remotes --contains".
func (it *GitRemoteRefSourceRepository) BranchesContainingCommit(
	ctx context.Context,
	repositoryURL, sha string,
) ([]string, error) {
	ctx, cancel := it.withTimeout(ctx)
	defer cancel()

	repo, err := git.CloneContext(ctx, memory.NewStorage(), nil, &git.CloneOptions{
		URL:        cloneURL(repositoryURL),
		Auth:       it.auth(repositoryURL),
		RemoteName: remoteName,
		NoCheckout: true,
		Tags:       git.NoTags,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", repositoryURL, err)
	}

	target, err := resolveCommit(repo, sha)
	if err != nil {
		return nil, err
	}

	iter, err := repo.References()
	if err != nil {
		return nil, fmt.Errorf("failed to read references of %s: %w", repositoryURL, err)
	}
	defer iter.Close()

	var branches []string
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name().String()
		if ref.Type() != plumbing.HashReference || !strings.HasPrefix(name, remoteBranchPrefix) {
			return nil
		}
		tip, tipErr := repo.CommitObject(ref.Hash())
		if tipErr != nil {
			return nil //nolint:nilerr // refs pointing at non-commits cannot contain a commit
		}
		contained, ancestorErr := target.IsAncestor(tip)
		if ancestorErr != nil {
			return ancestorErr
		}
		if contained || tip.Hash == target.Hash {
			branches = append(branches, strings.TrimPrefix(name, remoteBranchPrefix))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk history of %s: %w", repositoryURL, err)
	}

	sort.Strings(branches)
	return branches, nil
}

func (it *GitRemoteRefSourceRepository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if it.options.ReadTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, it.options.ConnectTimeout+it.options.ReadTimeout)
}

func (it *GitRemoteRefSourceRepository) auth(repositoryURL string) transport.AuthMethod {
	if it.token == "" || !strings.HasPrefix(repositoryURL, "https://") {
		return nil
	}
	return &githttp.BasicAuth{Username: it.username, Password: it.token}
}

// advertisedRefs converts an advertisement into branches and tags. Peeled
// entries ("refs/tags/v1^{}") replace the tag object with its commit.
func advertisedRefs(advertised []*plumbing.Reference) ([]entities.RemoteRef, string) {
	byName := make(map[string]*entities.RemoteRef)
	var order []string
	head := ""

	for _, ref := range advertised {
		name := ref.Name().String()
		if name == plumbing.HEAD.String() {
			if ref.Type() == plumbing.SymbolicReference {
				head = ref.Target().Short()
			}
			continue
		}
		if ref.Type() != plumbing.HashReference {
			continue
		}

		peeled := strings.HasSuffix(name, peeledSuffix)
		name = strings.TrimSuffix(name, peeledSuffix)

		var remoteRef entities.RemoteRef
		switch {
		case strings.HasPrefix(name, "refs/heads/"):
			remoteRef = entities.RemoteRef{Name: strings.TrimPrefix(name, "refs/heads/"), Kind: entities.RefKindBranch}
		case strings.HasPrefix(name, "refs/tags/"):
			remoteRef = entities.RemoteRef{Name: strings.TrimPrefix(name, "refs/tags/"), Kind: entities.RefKindTag}
		default:
			continue
		}

		existing, seen := byName[name]
		if !seen {
			existing = &remoteRef
			byName[name] = existing
			order = append(order, name)
		}
		if peeled {
			existing.TagSHA = existing.CommitSHA
			existing.CommitSHA = ref.Hash().String()
			continue
		}
		if existing.CommitSHA == "" {
			existing.CommitSHA = ref.Hash().String()
		} else {
			existing.TagSHA = ref.Hash().String()
		}
	}

	refs := make([]entities.RemoteRef, 0, len(order))
	for _, name := range order {
		refs = append(refs, *byName[name])
	}
	return refs, head
}

func resolveCommit(repo *git.Repository, sha string) (*object.Commit, error) {
	hash := plumbing.NewHash(sha)
	if len(sha) < len(hash.String()) {
		resolved, err := repo.ResolveRevision(plumbing.Revision(sha))
		if err != nil {
			return nil, fmt.Errorf("commit %s not found: %w", sha, err)
		}
		hash = *resolved
	}

	commit, err := repo.CommitObject(hash)
	if err != nil {
		return nil, fmt.Errorf("commit %s not found: %w", sha, err)
	}
	return commit, nil
}

// cloneURL turns "https://github.com/owner/repo" into something every host accepts.
func cloneURL(repositoryURL string) string {
	if strings.HasPrefix(repositoryURL, "https://") && !strings.HasSuffix(repositoryURL, ".git") &&
		!strings.Contains(repositoryURL, "/_git/") {
		return repositoryURL + ".git"
	}
	return repositoryURL
}
