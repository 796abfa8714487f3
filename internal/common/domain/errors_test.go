package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf_WrappedAppError(t *testing.T) {
	err := fmt.Errorf("create booking: %w", NewConflictError("dates taken"))

	assert.Equal(t, KindConflict, KindOf(err))
	assert.True(t, IsKind(err, KindConflict))
	assert.False(t, IsKind(err, KindValidation))
}

func TestKindOf_PlainError(t *testing.T) {
	assert.Equal(t, ErrorKind(""), KindOf(errors.New("boom")))
	assert.Equal(t, ErrorKind(""), KindOf(nil))
}

func TestAppError_UnwrapKeepsCause(t *testing.T) {
	cause := errors.New("unique violation")
	err := &AppError{Kind: KindConflict, Message: "overlap", Err: cause}

	require.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "overlap")
}

func TestNewInvalidStateError_Message(t *testing.T) {
	err := NewInvalidStateError("accepted", "cancelled")

	assert.Equal(t, KindInvalidState, err.Kind)
	assert.Equal(t, "cannot transition from accepted to cancelled", err.Message)
}

func TestFormatCents(t *testing.T) {
	assert.Equal(t, "300.00", FormatCents(30000))
	assert.Equal(t, "0.05", FormatCents(5))
	assert.Equal(t, "-1.50", FormatCents(-150))
}

func TestParseCents(t *testing.T) {
	cases := map[string]int64{
		"100":     10000,
		"99.99":   9999,
		"125.5":   12550,
		"0.07":    7,
		"42.1000": 4210,
		"-3.25":   -325,
	}
	for in, want := range cases {
		got, err := ParseCents(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestParseCents_Rejects(t *testing.T) {
	for _, in := range []string{"", "abc", "1.005", "1.2.3"} {
		_, err := ParseCents(in)
		assert.Error(t, err, in)
	}
}
