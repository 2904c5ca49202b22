//go:build integration || unit || test

package commanddoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"

	"github.com/rios0rios0/refupdate/internal/domain/commands"
	"github.com/rios0rios0/refupdate/internal/domain/entities"
)

// StubResolveCommand is a stub implementation of commands.Resolve.
type StubResolveCommand struct {
	ExecuteCallCount int
	Result           *commands.ResolveResult
	ExecuteErr       error
	LastOpts         commands.ResolveOptions
}

var _ commands.Resolve = (*StubResolveCommand)(nil)

func (s *StubResolveCommand) Execute(
	_ context.Context,
	_ *entities.Settings,
	opts commands.ResolveOptions,
) (*commands.ResolveResult, error) {
	s.ExecuteCallCount++
	s.LastOpts = opts
	return s.Result, s.ExecuteErr
}
