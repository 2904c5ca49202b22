//go:build unit

package entities_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rios0rios0/refupdate/internal/domain/entities"
	"github.com/rios0rios0/refupdate/test/domain/entitybuilders"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	index := entitybuilders.NewRefIndexBuilder().
		WithBranch("main", shaOne).
		WithBranch("deadbeef", shaTwo).
		WithTag("v1.0.0", shaThree).
		WithTag("cafebabe", shaThree).
		BuildRefIndex()

	tests := []struct {
		name     string
		ref      string
		expected entities.RefClass
	}{
		{name: "should classify a known branch", ref: "main", expected: entities.RefClassBranch},
		{name: "should classify a known tag", ref: "v1.0.0", expected: entities.RefClassTag},
		{name: "should classify a full SHA", ref: shaOne, expected: entities.RefClassCommitSHA},
		{name: "should classify an abbreviated SHA", ref: "1111111", expected: entities.RefClassCommitSHA},
		{name: "should prefer a branch named like a SHA", ref: "deadbeef", expected: entities.RefClassBranch},
		{name: "should prefer a tag named like a SHA", ref: "cafebabe", expected: entities.RefClassTag},
		{name: "should fall back to tag for unknown refs", ref: "v9.9.9", expected: entities.RefClassTag},
		{name: "should not treat short hex strings as SHAs", ref: "abc123", expected: entities.RefClassTag},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// given
			ref := tt.ref

			// when
			class := entities.Classify(ref, index)

			// then
			assert.Equal(t, tt.expected, class)
		})
	}
}

func TestSameCommit(t *testing.T) {
	t.Parallel()

	t.Run("should match an abbreviation in either order and any case", func(t *testing.T) {
		t.Parallel()

		// given
		full := "ABCDEF0123456789abcdef0123456789abcdef01"

		// when
		forward := entities.SameCommit("abcdef0", full)
		backward := entities.SameCommit(full, "abcdef0")

		// then
		assert.True(t, forward)
		assert.True(t, backward)
	})

	t.Run("should never match an empty SHA", func(t *testing.T) {
		t.Parallel()

		// when
		matched := entities.SameCommit("", shaOne)

		// then
		assert.False(t, matched)
	})
}
