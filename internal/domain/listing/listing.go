package listing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status is the publication state of a listing.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// IsValid returns true if the status is recognised.
func (s Status) IsValid() bool {
	return s == StatusActive || s == StatusInactive
}

// ParseStatus converts a string to a Status.
func ParseStatus(s string) (Status, error) {
	status := Status(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid listing status: %s", s)
	}
	return status, nil
}

// Listing is the booking service's read model of a host's property. Listings are
// owned by the listing service; this side only stores the attributes bookings need.
type Listing struct {
	id                 uuid.UUID
	hostID             uuid.UUID
	pricePerNightCents int64
	maxGuests          int
	instantBook        bool
	status             Status
	updatedAt          time.Time
}

// NewListing validates and builds a listing snapshot.
func NewListing(
	id, hostID uuid.UUID,
	pricePerNightCents int64,
	maxGuests int,
	instantBook bool,
	status Status,
	updatedAt time.Time,
) (*Listing, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("listing ID is required")
	}
	if hostID == uuid.Nil {
		return nil, fmt.Errorf("host ID is required")
	}
	if pricePerNightCents <= 0 {
		return nil, fmt.Errorf("price per night must be positive")
	}
	if maxGuests <= 0 {
		return nil, fmt.Errorf("max guests must be positive")
	}
	if !status.IsValid() {
		return nil, fmt.Errorf("invalid listing status: %s", status)
	}
	return Reconstruct(id, hostID, pricePerNightCents, maxGuests, instantBook, status, updatedAt), nil
}

// Reconstruct rebuilds a Listing from persistence data (no validation).
func Reconstruct(
	id, hostID uuid.UUID,
	pricePerNightCents int64,
	maxGuests int,
	instantBook bool,
	status Status,
	updatedAt time.Time,
) *Listing {
	return &Listing{
		id:                 id,
		hostID:             hostID,
		pricePerNightCents: pricePerNightCents,
		maxGuests:          maxGuests,
		instantBook:        instantBook,
		status:             status,
		updatedAt:          updatedAt.UTC(),
	}
}

func (l *Listing) ID() uuid.UUID             { return l.id }
func (l *Listing) HostID() uuid.UUID         { return l.hostID }
func (l *Listing) PricePerNightCents() int64 { return l.pricePerNightCents }
func (l *Listing) MaxGuests() int            { return l.maxGuests }
func (l *Listing) InstantBook() bool         { return l.instantBook }
func (l *Listing) Status() Status            { return l.status }
func (l *Listing) UpdatedAt() time.Time      { return l.updatedAt }

// IsBookable returns true if guests may request stays on this listing.
func (l *Listing) IsBookable() bool {
	return l.status == StatusActive
}

// IsHostedBy reports whether userID owns this listing.
func (l *Listing) IsHostedBy(userID uuid.UUID) bool {
	return l.hostID == userID
}

// Deactivated returns a copy withdrawn from booking as of at.
func (l *Listing) Deactivated(at time.Time) *Listing {
	cp := *l
	cp.status = StatusInactive
	cp.updatedAt = at.UTC()
	return &cp
}
