package listing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewListing_Valid(t *testing.T) {
	host := uuid.New()
	l, err := NewListing(uuid.New(), host, 10000, 4, true, StatusActive, time.Now())
	require.NoError(t, err)

	assert.True(t, l.IsBookable())
	assert.True(t, l.IsHostedBy(host))
	assert.False(t, l.IsHostedBy(uuid.New()))
	assert.True(t, l.InstantBook())
}

func TestNewListing_Invalid(t *testing.T) {
	now := time.Now()
	cases := []struct {
		name  string
		build func() (*Listing, error)
	}{
		{"nil id", func() (*Listing, error) { return NewListing(uuid.Nil, uuid.New(), 100, 1, false, StatusActive, now) }},
		{"nil host", func() (*Listing, error) { return NewListing(uuid.New(), uuid.Nil, 100, 1, false, StatusActive, now) }},
		{"zero price", func() (*Listing, error) { return NewListing(uuid.New(), uuid.New(), 0, 1, false, StatusActive, now) }},
		{"zero guests", func() (*Listing, error) { return NewListing(uuid.New(), uuid.New(), 100, 0, false, StatusActive, now) }},
		{"bad status", func() (*Listing, error) { return NewListing(uuid.New(), uuid.New(), 100, 1, false, "archived", now) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.build()
			assert.Error(t, err)
		})
	}
}

func TestInactiveListingIsNotBookable(t *testing.T) {
	l := Reconstruct(uuid.New(), uuid.New(), 100, 2, false, StatusInactive, time.Now())
	assert.False(t, l.IsBookable())
}

func TestDeactivatedReturnsWithdrawnCopy(t *testing.T) {
	l := Reconstruct(uuid.New(), uuid.New(), 100, 2, true, StatusActive, time.Now().Add(-time.Hour))
	at := time.Now()

	withdrawn := l.Deactivated(at)
	assert.False(t, withdrawn.IsBookable())
	assert.True(t, at.UTC().Equal(withdrawn.UpdatedAt()))
	assert.True(t, l.IsBookable(), "original snapshot is unchanged")
	assert.Equal(t, l.HostID(), withdrawn.HostID())
}
