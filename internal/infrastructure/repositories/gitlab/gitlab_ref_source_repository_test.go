//go:build unit

package gitlab //nolint:testpackage // tests unexported functions

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/refupdate/internal/domain/entities"
)

const toolsURL = "https://gitlab.com/acme/platform/tools"

func newTestAdapter(t *testing.T, handler http.HandlerFunc) *GitLabRefSourceRepository {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	adapter := NewGitLabRefSourceRepository(
		entities.ProviderConfig{Type: providerName, Token: "token", BaseURL: server.URL},
		entities.RemoteOptions{ConnectTimeout: time.Second, ReadTimeout: time.Second},
	).(*GitLabRefSourceRepository)
	adapter.host = "gitlab.com"
	return adapter
}

func TestGitLabRefSourceRepository_DefaultBranchName(t *testing.T) {
	t.Parallel()

	t.Run("should read the default branch of the project", func(t *testing.T) {
		t.Parallel()

		// given
		adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.EscapedPath() != "/api/v4/projects/acme%2Fplatform%2Ftools" {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"id": 7, "default_branch": "develop"}`)
		})

		// when
		branch, err := adapter.DefaultBranchName(context.Background(), toolsURL)

		// then
		require.NoError(t, err)
		assert.Equal(t, "develop", branch)
		assert.True(t, adapter.MatchesURL(toolsURL))
	})

	t.Run("should carry the HTTP status of a missing project", func(t *testing.T) {
		t.Parallel()

		// given
		adapter := newTestAdapter(t, func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"message": "404 Project Not Found"}`)
		})

		// when
		_, err := adapter.DefaultBranchName(context.Background(), toolsURL)

		// then
		var statusErr *entities.RemoteStatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	})
}

func TestGitLabRefSourceRepository_BranchesContainingCommit(t *testing.T) {
	t.Parallel()

	t.Run("should return only the branches among the commit refs", func(t *testing.T) {
		t.Parallel()

		// given
		adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("type") != "branch" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `[{"type": "branch", "name": "main"}, {"type": "tag", "name": "v1.0.0"}, {"type": "branch", "name": "stable"}]`)
		})

		// when
		branches, err := adapter.BranchesContainingCommit(context.Background(), toolsURL, "abc123")

		// then
		require.NoError(t, err)
		assert.Equal(t, []string{"main", "stable"}, branches)
	})
}

func TestProjectPath(t *testing.T) {
	t.Parallel()

	t.Run("should keep nested groups in the project path", func(t *testing.T) {
		t.Parallel()

		// given
		url := "https://gitlab.com/acme/platform/tools.git"

		// when
		pid, err := projectPath(url)

		// then
		require.NoError(t, err)
		assert.Equal(t, "acme/platform/tools", pid)
	})
}
