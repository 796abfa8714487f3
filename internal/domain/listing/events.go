package listing

import (
	"time"

	"github.com/google/uuid"
)

// Event types consumed from the listing service.
const (
	EventCreated     = "listing.created"
	EventUpdated     = "listing.updated"
	EventDeactivated = "listing.deactivated"
)

// SnapshotEvent carries the full bookable state of a listing. Created and updated
// events use it.
type SnapshotEvent struct {
	ListingID     uuid.UUID `json:"listing_id"`
	HostID        uuid.UUID `json:"host_id"`
	PricePerNight string    `json:"price_per_night"`
	MaxGuests     int       `json:"max_guests"`
	InstantBook   bool      `json:"instant_book"`
	Status        string    `json:"status"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// DeactivatedEvent withdraws a listing from booking.
type DeactivatedEvent struct {
	ListingID uuid.UUID `json:"listing_id"`
	UpdatedAt time.Time `json:"updated_at"`
}
