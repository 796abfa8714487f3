package booking

import (
	"context"
	"iter"

	"github.com/google/uuid"
)

// StatusTotal aggregates bookings of one status.
type StatusTotal struct {
	Count           int64
	TotalPriceCents int64
}

// BookingRepository defines the persistence contract for booking aggregates.
// Methods join a transaction carried by ctx when one is open.
type BookingRepository interface {
	// FindByID retrieves a booking by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// HasOverlap reports whether a calendar-blocking booking on the listing overlaps stay.
	HasOverlap(ctx context.Context, listingID uuid.UUID, stay Stay) (bool, error)

	// ListByGuest streams the guest's bookings, newest first. Each range re-runs the query.
	ListByGuest(ctx context.Context, guestID uuid.UUID) iter.Seq2[*Booking, error]

	// ListByHost streams bookings on listings owned by hostID, newest first.
	ListByHost(ctx context.Context, hostID uuid.UUID) iter.Seq2[*Booking, error]

	// StatusTotalsByHost returns counts and summed total price per status for a host.
	StatusTotalsByHost(ctx context.Context, hostID uuid.UUID) (map[BookingStatus]StatusTotal, error)

	// Save persists a new booking.
	Save(ctx context.Context, booking *Booking) error

	// Update persists changes to an existing booking with optimistic locking.
	Update(ctx context.Context, booking *Booking) error

	// DeleteByGuest hard-deletes the booking if guestID created it.
	DeleteByGuest(ctx context.Context, id, guestID uuid.UUID) error
}
