//go:build unit

package repositories

import "github.com/cenkalti/backoff/v4"

// WithoutBackOffDelay makes retries immediate.
func WithoutBackOffDelay(repository *RetryingRefSourceRepository) *RetryingRefSourceRepository {
	repository.newBackOff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }
	return repository
}
