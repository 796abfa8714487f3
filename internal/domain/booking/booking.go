package booking

import (
	"time"

	"github.com/google/uuid"

	"github.com/hearthstay/service-booking/internal/common/domain"
)

// Booking is the aggregate root for one reservation attempt on a listing.
type Booking struct {
	id              uuid.UUID
	listingID       uuid.UUID
	guestID         uuid.UUID
	stay            Stay
	numGuests       int
	totalPriceCents int64
	status          BookingStatus

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// NewBooking creates a booking. Instant-book listings skip host approval.
func NewBooking(
	listingID uuid.UUID,
	guestID uuid.UUID,
	stay Stay,
	numGuests int,
	totalPriceCents int64,
	instantBook bool,
) (*Booking, error) {
	if listingID == uuid.Nil {
		return nil, domain.NewValidationError("listing ID is required")
	}
	if guestID == uuid.Nil {
		return nil, domain.NewValidationError("guest ID is required")
	}
	if numGuests <= 0 {
		return nil, domain.NewValidationError("num_guests must be positive")
	}
	if totalPriceCents <= 0 {
		return nil, domain.NewValidationError("total price must be positive")
	}

	status := StatusPending
	if instantBook {
		status = StatusAccepted
	}

	now := time.Now().UTC()
	return &Booking{
		id:              uuid.New(),
		listingID:       listingID,
		guestID:         guestID,
		stay:            stay,
		numGuests:       numGuests,
		totalPriceCents: totalPriceCents,
		status:          status,
		version:         1,
		createdAt:       now,
		updatedAt:       now,
	}, nil
}

// ReconstructBooking rebuilds a Booking from persistence data (no validation).
func ReconstructBooking(
	id uuid.UUID,
	listingID uuid.UUID,
	guestID uuid.UUID,
	stay Stay,
	numGuests int,
	totalPriceCents int64,
	status BookingStatus,
	version int64,
	createdAt time.Time,
	updatedAt time.Time,
) *Booking {
	return &Booking{
		id:              id,
		listingID:       listingID,
		guestID:         guestID,
		stay:            stay,
		numGuests:       numGuests,
		totalPriceCents: totalPriceCents,
		status:          status,
		version:         version,
		createdAt:       createdAt,
		updatedAt:       updatedAt,
	}
}

// --- Getters ---

// ID returns the booking's unique identifier.
func (b *Booking) ID() uuid.UUID { return b.id }

// ListingID returns the booked listing.
func (b *Booking) ListingID() uuid.UUID { return b.listingID }

// GuestID returns the user who requested the stay.
func (b *Booking) GuestID() uuid.UUID { return b.guestID }

// Stay returns the booked date range.
func (b *Booking) Stay() Stay { return b.stay }

// NumGuests returns the party size.
func (b *Booking) NumGuests() int { return b.numGuests }

// TotalPriceCents returns the price fixed at creation.
func (b *Booking) TotalPriceCents() int64 { return b.totalPriceCents }

// Status returns the current booking status.
func (b *Booking) Status() BookingStatus { return b.status }

// Version returns the entity version for optimistic locking.
func (b *Booking) Version() int64 { return b.version }

// CreatedAt returns the creation timestamp.
func (b *Booking) CreatedAt() time.Time { return b.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (b *Booking) UpdatedAt() time.Time { return b.updatedAt }

// --- Behavior ---

// ChangeStatus moves the booking to target on behalf of party.
func (b *Booking) ChangeStatus(party Party, target BookingStatus) error {
	if err := CheckTransition(party, b.status, target); err != nil {
		return err
	}
	b.status = target
	b.updatedAt = time.Now().UTC()
	return nil
}

// IncrementVersion bumps the version for optimistic locking.
func (b *Booking) IncrementVersion() {
	b.version++
	b.updatedAt = time.Now().UTC()
}
