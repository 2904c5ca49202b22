package repositories

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/cenkalti/backoff/v4"
	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/refupdate/internal/domain/entities"
	domainRepos "github.com/rios0rios0/refupdate/internal/domain/repositories"
)

// RetryingRefSourceRepository applies one finite retry policy to the three
// operations the resolver calls. Only failures carrying a retryable HTTP
// status, or transport failures without a status, are retried.
type RetryingRefSourceRepository struct {
	inner      domainRepos.RefSourceRepository
	options    entities.RemoteOptions
	newBackOff func() backoff.BackOff
}

// NewRetryingRefSourceRepository wraps inner with the configured retry policy.
func NewRetryingRefSourceRepository(
	inner domainRepos.RefSourceRepository,
	options entities.RemoteOptions,
) *RetryingRefSourceRepository {
	return &RetryingRefSourceRepository{
		inner:   inner,
		options: options,
		newBackOff: func() backoff.BackOff {
			return backoff.NewExponentialBackOff()
		},
	}
}

func (it *RetryingRefSourceRepository) Name() string { return it.inner.Name() }

func (it *RetryingRefSourceRepository) MatchesURL(url string) bool { return it.inner.MatchesURL(url) }

func (it *RetryingRefSourceRepository) ListRemoteReferences(
	ctx context.Context,
	repositoryURL string,
) ([]entities.RemoteRef, error) {
	var refs []entities.RemoteRef
	err := it.retry(ctx, "list references", func() error {
		var err error
		refs, err = it.inner.ListRemoteReferences(ctx, repositoryURL)
		return err
	})
	return refs, err
}

func (it *RetryingRefSourceRepository) BranchesContainingCommit(
	ctx context.Context,
	repositoryURL, sha string,
) ([]string, error) {
	var branches []string
	err := it.retry(ctx, "branches containing "+sha, func() error {
		var err error
		branches, err = it.inner.BranchesContainingCommit(ctx, repositoryURL, sha)
		return err
	})
	return branches, err
}

func (it *RetryingRefSourceRepository) DefaultBranchName(
	ctx context.Context,
	repositoryURL string,
) (string, error) {
	var branch string
	err := it.retry(ctx, "default branch", func() error {
		var err error
		branch, err = it.inner.DefaultBranchName(ctx, repositoryURL)
		return err
	})
	return branch, err
}

func (it *RetryingRefSourceRepository) retry(ctx context.Context, operation string, call func() error) error {
	policy := backoff.WithContext(
		backoff.WithMaxRetries(it.newBackOff(), uint64(max(it.options.MaxRetries, 0))), //nolint:gosec // clamped above
		ctx,
	)

	return backoff.RetryNotify(
		func() error {
			err := call()
			if err != nil && !it.retryable(err) {
				return backoff.Permanent(err)
			}
			return err
		},
		policy,
		func(err error, wait time.Duration) {
			logger.Debugf("[%s] Retrying %s in %s: %v", it.inner.Name(), operation, wait, err)
		},
	)
}

func (it *RetryingRefSourceRepository) retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var statusErr *entities.RemoteStatusError
	if errors.As(err, &statusErr) {
		return slices.Contains(it.options.RetryStatusCodes, statusErr.StatusCode)
	}
	return true
}
