package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentinelWrapping(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{
			name:  "wrapped conflict keeps identity",
			err:   Wrap(ErrConflict, "url/tag already queued"),
			check: IsConflictError,
		},
		{
			name:  "wrapped not-found keeps identity",
			err:   Wrapf(ErrNotFound, "ingestion %s", "abc"),
			check: IsNotFoundError,
		},
		{
			name:  "wrapped invalid-request keeps identity",
			err:   Wrap(ErrInvalidRequest, "missing tag"),
			check: IsInvalidRequestError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.check(tt.err))
		})
	}
}

func TestFormattedConstructors(t *testing.T) {
	err := NewConflictError("version already exists for %s@%s", "o-table", "v1.0.0")
	assert.True(t, IsConflictError(err))
	assert.Contains(t, err.Error(), "o-table@v1.0.0")

	err = NewInvalidRequestError("tag %q is not a valid semver", "latest")
	assert.True(t, IsInvalidRequestError(err))
	assert.False(t, IsConflictError(err))

	err = NewNotFoundError("no ingestion with id %s", "123")
	assert.True(t, IsNotFoundError(err))
}

func TestNilChecks(t *testing.T) {
	assert.False(t, IsNotFoundError(nil))
	assert.False(t, IsConflictError(nil))
	assert.False(t, IsInvalidRequestError(nil))
}
