package booking

import (
	"time"

	"github.com/google/uuid"
)

// Event types published by the booking service.
const (
	EventRequested     = "booking.requested"
	EventStatusChanged = "booking.status_changed"
	EventDeleted       = "booking.deleted"
)

// RequestedEvent is published after a booking is created.
type RequestedEvent struct {
	BookingID  uuid.UUID `json:"booking_id"`
	ListingID  uuid.UUID `json:"listing_id"`
	GuestID    uuid.UUID `json:"guest_id"`
	HostID     uuid.UUID `json:"host_id"`
	StartDate  string    `json:"start_date"`
	EndDate    string    `json:"end_date"`
	NumGuests  int       `json:"num_guests"`
	TotalPrice string    `json:"total_price"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurred_at"`
}

// StatusChangedEvent is published after a host decision or a guest cancellation.
type StatusChangedEvent struct {
	BookingID  uuid.UUID `json:"booking_id"`
	ListingID  uuid.UUID `json:"listing_id"`
	GuestID    uuid.UUID `json:"guest_id"`
	FromStatus string    `json:"from_status"`
	ToStatus   string    `json:"to_status"`
	ChangedBy  uuid.UUID `json:"changed_by"`
	OccurredAt time.Time `json:"occurred_at"`
}

// DeletedEvent is published after a guest removes a booking.
type DeletedEvent struct {
	BookingID  uuid.UUID `json:"booking_id"`
	GuestID    uuid.UUID `json:"guest_id"`
	OccurredAt time.Time `json:"occurred_at"`
}
