//go:build integration || unit || test

// Package repositorydoubles provides test doubles (spies, stubs, dummies) for
// repository interfaces. These are hand-crafted implementations, no mock frameworks.
package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"
	"sync"

	"github.com/rios0rios0/refupdate/internal/domain/entities"
	"github.com/rios0rios0/refupdate/internal/domain/repositories"
)

// SpyRefSourceRepository implements repositories.RefSourceRepository as a configurable spy.
// It is safe for concurrent use, since commands resolve dependencies in parallel.
type SpyRefSourceRepository struct {
	// --- identity ---
	SourceName string
	MatchAll   bool
	Matches    []string

	// --- ListRemoteReferences ---
	Refs    []entities.RemoteRef
	RefsBy  map[string][]entities.RemoteRef // url -> refs, takes precedence over Refs
	ListErr error

	// --- BranchesContainingCommit ---
	Containing    map[string][]string // sha -> branches
	ContainingErr error

	// --- DefaultBranchName ---
	DefaultBranch    string
	DefaultBranchErr error

	mu               sync.Mutex
	ListCalls        []string
	ContainingCalls  []string
	DefaultCallCount int
}

var _ repositories.RefSourceRepository = (*SpyRefSourceRepository)(nil)

func (s *SpyRefSourceRepository) Name() string { return s.SourceName }

func (s *SpyRefSourceRepository) MatchesURL(url string) bool {
	if s.MatchAll {
		return true
	}
	for _, candidate := range s.Matches {
		if candidate == url {
			return true
		}
	}
	return false
}

func (s *SpyRefSourceRepository) ListRemoteReferences(
	_ context.Context, url string,
) ([]entities.RemoteRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ListCalls = append(s.ListCalls, url)
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	if refs, ok := s.RefsBy[url]; ok {
		return refs, nil
	}
	return s.Refs, nil
}

func (s *SpyRefSourceRepository) BranchesContainingCommit(
	_ context.Context, _, sha string,
) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ContainingCalls = append(s.ContainingCalls, sha)
	if s.ContainingErr != nil {
		return nil, s.ContainingErr
	}
	return s.Containing[sha], nil
}

func (s *SpyRefSourceRepository) DefaultBranchName(_ context.Context, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.DefaultCallCount++
	return s.DefaultBranch, s.DefaultBranchErr
}

// FlakyRefSourceRepository fails a fixed number of times before delegating.
type FlakyRefSourceRepository struct {
	Inner    repositories.RefSourceRepository
	Failures int
	Err      error

	mu    sync.Mutex
	Calls int
}

var _ repositories.RefSourceRepository = (*FlakyRefSourceRepository)(nil)

func (f *FlakyRefSourceRepository) Name() string { return f.Inner.Name() }

func (f *FlakyRefSourceRepository) MatchesURL(url string) bool { return f.Inner.MatchesURL(url) }

func (f *FlakyRefSourceRepository) ListRemoteReferences(
	ctx context.Context, url string,
) ([]entities.RemoteRef, error) {
	if err := f.fail(); err != nil {
		return nil, err
	}
	return f.Inner.ListRemoteReferences(ctx, url)
}

func (f *FlakyRefSourceRepository) BranchesContainingCommit(
	ctx context.Context, url, sha string,
) ([]string, error) {
	if err := f.fail(); err != nil {
		return nil, err
	}
	return f.Inner.BranchesContainingCommit(ctx, url, sha)
}

func (f *FlakyRefSourceRepository) DefaultBranchName(ctx context.Context, url string) (string, error) {
	if err := f.fail(); err != nil {
		return "", err
	}
	return f.Inner.DefaultBranchName(ctx, url)
}

func (f *FlakyRefSourceRepository) fail() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls++
	if f.Calls <= f.Failures {
		return f.Err
	}
	return nil
}
