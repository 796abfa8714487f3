package booking

import "fmt"

// BookingStatus represents the current state of a booking in its lifecycle.
type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusAccepted  BookingStatus = "accepted"
	StatusRejected  BookingStatus = "rejected"
	StatusCancelled BookingStatus = "cancelled"
	// StatusCompleted is reported by earnings figures but no operation in this
	// service produces it.
	StatusCompleted BookingStatus = "completed"
)

// validTransitions defines the state machine for booking status transitions.
// Only a pending request can be decided; every other state is final.
var validTransitions = map[BookingStatus][]BookingStatus{
	StatusPending:   {StatusAccepted, StatusRejected, StatusCancelled},
	StatusAccepted:  {},
	StatusRejected:  {},
	StatusCancelled: {},
	StatusCompleted: {},
}

// AllStatuses lists every recognised status in lifecycle order.
var AllStatuses = []BookingStatus{StatusPending, StatusAccepted, StatusRejected, StatusCancelled, StatusCompleted}

// ReleasedStatuses are the statuses whose dates no longer block the calendar.
var ReleasedStatuses = []BookingStatus{StatusRejected, StatusCancelled}

// EarningStatuses are the statuses counted towards host earnings.
var EarningStatuses = []BookingStatus{StatusAccepted, StatusCompleted}

// IsValid returns true if the status is a recognized booking status.
func (s BookingStatus) IsValid() bool {
	_, exists := validTransitions[s]
	return exists
}

// CanTransitionTo returns true if a transition from this status to the target is allowed.
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	for _, t := range validTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// BlocksCalendar returns true if a booking in this status holds its dates.
func (s BookingStatus) BlocksCalendar() bool {
	for _, released := range ReleasedStatuses {
		if s == released {
			return false
		}
	}
	return true
}

// String returns the string representation of the status.
func (s BookingStatus) String() string {
	return string(s)
}

// ParseBookingStatus converts a string to a BookingStatus, returning an error if invalid.
func ParseBookingStatus(s string) (BookingStatus, error) {
	status := BookingStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid booking status: %s", s)
	}
	return status, nil
}
