package entities

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	// ErrAllVersionsIgnored is raised, on request, when ignore rules filter out every newer version.
	ErrAllVersionsIgnored = errors.New("all versions of the dependency are ignored")

	// ErrUnknownProvider is returned when no ref source is registered under a name.
	ErrUnknownProvider = errors.New("unknown provider type")
)

// AmbiguousBranchesError is returned when a pinned commit is reachable from
// several branches, none of which is the default branch.
type AmbiguousBranchesError struct {
	SHA      string
	Branches []string
}

// NewAmbiguousBranchesError sorts branches so the message is reproducible.
func NewAmbiguousBranchesError(sha string, branches []string) *AmbiguousBranchesError {
	sorted := slices.Clone(branches)
	slices.Sort(sorted)
	return &AmbiguousBranchesError{SHA: sha, Branches: sorted}
}

func (e *AmbiguousBranchesError) Error() string {
	return fmt.Sprintf("Multiple ambiguous branches (%s) include %s!", strings.Join(e.Branches, ", "), e.SHA)
}

// RemoteStatusError carries the HTTP status of a failed provider call so the
// retry policy can decide whether to try again.
type RemoteStatusError struct {
	Operation  string
	StatusCode int
	Err        error
}

func (e *RemoteStatusError) Error() string {
	return fmt.Sprintf("%s failed with status %d: %v", e.Operation, e.StatusCode, e.Err)
}

func (e *RemoteStatusError) Unwrap() error { return e.Err }
