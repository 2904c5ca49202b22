//go:build unit

package azuredevops //nolint:testpackage // tests unexported functions

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/refupdate/internal/domain/entities"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewTLSServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(server.URL, "pat", 0)
	client.httpClient = server.Client()
	return client
}

func TestClient_GetRefs(t *testing.T) {
	t.Parallel()

	t.Run("should follow continuation tokens and peel tags", func(t *testing.T) {
		t.Parallel()

		// given
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/infra/_apis/git/repositories/modules/refs", r.URL.Path)
			assert.Equal(t, "true", r.URL.Query().Get("peelTags"))
			user, pass, ok := r.BasicAuth()
			assert.True(t, ok)
			assert.Empty(t, user)
			assert.Equal(t, "pat", pass)

			w.Header().Set("Content-Type", "application/json")
			if r.URL.Query().Get("continuationToken") == "" {
				w.Header().Set(continuationHead, "page-2")
				fmt.Fprint(w, `{"value": [{"name": "refs/heads/main", "objectId": "aaa"}]}`)
				return
			}
			fmt.Fprint(w, `{"value": [{"name": "refs/tags/v1.0.0", "objectId": "ttt", "peeledObjectId": "bbb"}]}`)
		})

		// when
		refs, err := client.GetRefs(context.Background(), "infra", "modules")

		// then
		require.NoError(t, err)
		assert.Equal(t, []GitRef{
			{Name: "refs/heads/main", ObjectID: "aaa"},
			{Name: "refs/tags/v1.0.0", ObjectID: "ttt", PeeledObjectID: "bbb"},
		}, refs)
	})

	t.Run("should return the HTTP status of a failed call", func(t *testing.T) {
		t.Parallel()

		// given
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			fmt.Fprint(w, "slow down")
		})

		// when
		_, err := client.GetRefs(context.Background(), "infra", "modules")

		// then
		var statusErr *entities.RemoteStatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)
		assert.ErrorContains(t, err, "slow down")
	})
}

func TestClient_GetRepository(t *testing.T) {
	t.Parallel()

	t.Run("should decode the repository metadata", func(t *testing.T) {
		t.Parallel()

		// given
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"id": "1", "name": "modules", "defaultBranch": "refs/heads/main"}`)
		})

		// when
		repository, err := client.GetRepository(context.Background(), "infra", "modules")

		// then
		require.NoError(t, err)
		assert.Equal(t, "refs/heads/main", repository.DefaultBranch)
		assert.Equal(t, "modules", repository.Name)
	})
}

func TestNewClient(t *testing.T) {
	t.Parallel()

	t.Run("should expand a bare organization name", func(t *testing.T) {
		t.Parallel()

		// given
		organization := "acme"

		// when
		client := NewClient(organization, "", 0)

		// then
		assert.Equal(t, "https://dev.azure.com/acme", client.BaseURL())
	})
}
