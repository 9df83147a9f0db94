package eos_err

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewExpectedError(t *testing.T) {
	t.Parallel()

	assert.NoError(t, NewExpectedError(nil))

	original := errors.New("user configuration error")
	wrapped := NewExpectedError(original)
	require.Error(t, wrapped)

	var userErr *UserError
	assert.True(t, errors.As(wrapped, &userErr))
	assert.ErrorIs(t, wrapped, original)
	assert.True(t, IsExpectedUserError(wrapped))
	assert.False(t, IsExpectedUserError(original))
}

func TestGetExitCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"plain", errors.New("x"), 1},
		{"validation", NewValidationError("bad flag"), 2},
		{"internal", NewInternalError("bug", errors.New("x")), 3},
		{"panic", NewPanicError("nil map"), 3},
		{"cancelled", NewUserCancelledError("sanitize"), 130},
		{"filesystem", NewFilesystemError("disk", errors.New("x")), 1},
		{"user", NewExpectedError(errors.New("x")), 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, GetExitCode(tt.err))
		})
	}
}

func TestClassifiedErrorMessage(t *testing.T) {
	t.Parallel()

	err := NewFilesystemError("cannot read mount table", errors.New("EACCES"), "Run as root")
	msg := err.Error()
	assert.Contains(t, msg, "cannot read mount table")
	assert.Contains(t, msg, "Cause: EACCES")
	assert.Contains(t, msg, "1. Run as root")
}
