//go:build unit

package github //nolint:testpackage // tests unexported functions

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/refupdate/internal/domain/entities"
)

const widgetsURL = "https://github.com/acme/widgets"

func newTestAdapter(t *testing.T, handler http.Handler) *GitHubRefSourceRepository {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	adapter := NewGitHubRefSourceRepository(
		entities.ProviderConfig{Type: providerName, Token: "token", BaseURL: server.URL},
		entities.RemoteOptions{ConnectTimeout: time.Second, ReadTimeout: time.Second},
	)
	return adapter.(*GitHubRefSourceRepository)
}

func TestGitHubRefSourceRepository_MatchesURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		url      string
		expected bool
	}{
		{name: "should match HTTPS GitHub URL", url: "https://github.com/actions/checkout", expected: true},
		{name: "should match SSH GitHub URL", url: "git@github.com:actions/checkout.git", expected: true},
		{name: "should not match GitLab URL", url: "https://gitlab.com/org/repo.git", expected: false},
		{name: "should not match Azure DevOps URL", url: "https://dev.azure.com/org/project/_git/repo", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// given
			adapter := NewGitHubRefSourceRepository(entities.ProviderConfig{}, entities.RemoteOptions{})

			// when
			result := adapter.MatchesURL(tt.url)

			// then
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestGitHubRefSourceRepository_DefaultBranchName(t *testing.T) {
	t.Parallel()

	t.Run("should read the default branch of the repository", func(t *testing.T) {
		t.Parallel()

		// given
		mux := http.NewServeMux()
		mux.HandleFunc("/api/v3/repos/acme/widgets", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"name": "widgets", "default_branch": "trunk"}`)
		})
		adapter := newTestAdapter(t, mux)

		// when
		branch, err := adapter.DefaultBranchName(context.Background(), widgetsURL)

		// then
		require.NoError(t, err)
		assert.Equal(t, "trunk", branch)
	})

	t.Run("should carry the HTTP status of a failed call", func(t *testing.T) {
		t.Parallel()

		// given
		adapter := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))

		// when
		_, err := adapter.DefaultBranchName(context.Background(), widgetsURL)

		// then
		var statusErr *entities.RemoteStatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	})
}

func TestGitHubRefSourceRepository_BranchesContainingCommit(t *testing.T) {
	t.Parallel()

	t.Run("should keep branches that are ahead of or identical to the commit", func(t *testing.T) {
		t.Parallel()

		// given
		statuses := map[string]string{"main": "ahead", "release": "identical", "feature": "diverged"}
		mux := http.NewServeMux()
		mux.HandleFunc("/api/v3/repos/acme/widgets/branches", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `[{"name": "main"}, {"name": "release"}, {"name": "feature"}, {"name": "deleted"}]`)
		})
		mux.HandleFunc("/api/v3/repos/acme/widgets/compare/", func(w http.ResponseWriter, r *http.Request) {
			branch := r.URL.Path[strings.LastIndex(r.URL.Path, "...")+len("..."):]
			status, ok := statuses[branch]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprintf(w, `{"status": %q}`, status)
		})
		adapter := newTestAdapter(t, mux)

		// when
		branches, err := adapter.BranchesContainingCommit(context.Background(), widgetsURL, "abc123")

		// then
		require.NoError(t, err)
		assert.Equal(t, []string{"main", "release"}, branches)
	})

	t.Run("should reject URLs without an owner", func(t *testing.T) {
		t.Parallel()

		// given
		adapter := NewGitHubRefSourceRepository(entities.ProviderConfig{}, entities.RemoteOptions{})

		// when
		_, err := adapter.BranchesContainingCommit(context.Background(), "https://github.com/", "abc123")

		// then
		require.Error(t, err)
	})
}
