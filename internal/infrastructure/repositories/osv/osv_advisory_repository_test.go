//go:build unit

package osv //nolint:testpackage // tests unexported functions

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/osv-scanner/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/refupdate/internal/domain/entities"
)

const checkoutAdvisory = `{
  "id": "GHSA-aaaa-bbbb-cccc",
  "affected": [{
    "package": {"ecosystem": "GitHub Actions", "name": "actions/checkout"},
    "ranges": [{
      "type": "ECOSYSTEM",
      "events": [{"introduced": "2.0.0"}, {"fixed": "2.7.5"}, {"introduced": "3.0.0"}, {"last_affected": "3.1.0"}]
    }]
  }]
}`

func mustVersion(t *testing.T, raw string) entities.VersionTag {
	t.Helper()
	version, err := entities.ParseVersionTag(raw)
	require.NoError(t, err)
	return version
}

func TestIntervals(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		events   []models.Event
		expected []string
	}{
		{
			name:     "should close an interval at the fixed version",
			events:   []models.Event{{Introduced: "1.0.0"}, {Fixed: "1.0.4"}},
			expected: []string{">= 1.0.0, < 1.0.4"},
		},
		{
			name:     "should include the last affected version",
			events:   []models.Event{{Introduced: "v2.0.0"}, {LastAffected: "v2.3.0"}},
			expected: []string{">= 2.0.0, <= 2.3.0"},
		},
		{
			name:     "should start from the first version when introduced is zero",
			events:   []models.Event{{Introduced: "0"}, {Fixed: "1.2.0"}},
			expected: []string{">= 0.0.0-0, < 1.2.0"},
		},
		{
			name:     "should leave an interval without upper bound open",
			events:   []models.Event{{Introduced: "4.0.0"}},
			expected: []string{">= 4.0.0"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// when
			result := intervals(tt.events)

			// then
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestOSVAdvisoryRepository_LoadAdvisories(t *testing.T) {
	t.Parallel()

	t.Run("should load a single vulnerability from a file", func(t *testing.T) {
		t.Parallel()

		// given
		path := filepath.Join(t.TempDir(), "checkout.json")
		require.NoError(t, os.WriteFile(path, []byte(checkoutAdvisory), 0o600))
		repo := NewOSVAdvisoryRepository()

		// when
		advisories, err := repo.LoadAdvisories(context.Background(), []string{path})

		// then
		require.NoError(t, err)
		require.Len(t, advisories, 1)
		advisory := advisories[0]
		assert.Equal(t, "GHSA-aaaa-bbbb-cccc", advisory.ID)
		assert.Equal(t, "actions/checkout", advisory.DependencyName)
		assert.True(t, advisory.Vulnerable(mustVersion(t, "v2.7.4")))
		assert.False(t, advisory.Vulnerable(mustVersion(t, "v2.7.5")))
		assert.True(t, advisory.Vulnerable(mustVersion(t, "v3.1.0")))
		assert.False(t, advisory.Vulnerable(mustVersion(t, "v3.1.1")))
	})

	t.Run("should load a vulns list over HTTP", func(t *testing.T) {
		t.Parallel()

		// given
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"vulns": [` + checkoutAdvisory + `]}`))
		}))
		defer server.Close()
		repo := NewOSVAdvisoryRepository()

		// when
		advisories, err := repo.LoadAdvisories(context.Background(), []string{server.URL})

		// then
		require.NoError(t, err)
		assert.Len(t, advisories, 1)
	})

	t.Run("should report failing sources and keep the others", func(t *testing.T) {
		t.Parallel()

		// given
		path := filepath.Join(t.TempDir(), "list.json")
		require.NoError(t, os.WriteFile(path, []byte("["+checkoutAdvisory+"]"), 0o600))
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()
		repo := NewOSVAdvisoryRepository()

		// when
		advisories, err := repo.LoadAdvisories(
			context.Background(),
			[]string{path, server.URL, filepath.Join(t.TempDir(), "missing.json")},
		)

		// then
		require.Error(t, err)
		assert.Len(t, advisories, 1)
		var statusErr *entities.RemoteStatusError
		require.True(t, errors.As(err, &statusErr))
		assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	})
}
