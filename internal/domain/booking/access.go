package booking

import (
	"github.com/google/uuid"

	"github.com/hearthstay/service-booking/internal/common/domain"
)

// Party is the caller's relationship to one booking.
type Party int

const (
	PartyNone Party = iota
	PartyGuest
	PartyHost
)

// String returns the party name used in logs.
func (p Party) String() string {
	switch p {
	case PartyGuest:
		return "guest"
	case PartyHost:
		return "host"
	default:
		return "none"
	}
}

// partyTargets is the single table of which statuses each party may request.
var partyTargets = map[Party][]BookingStatus{
	PartyHost:  {StatusAccepted, StatusRejected},
	PartyGuest: {StatusCancelled},
}

// ResolveParty determines how userID relates to a booking on a listing owned by hostID.
// The host check comes first; a host can never be the guest on their own listing.
func ResolveParty(b *Booking, hostID, userID uuid.UUID) Party {
	switch {
	case userID == hostID:
		return PartyHost
	case userID == b.GuestID():
		return PartyGuest
	default:
		return PartyNone
	}
}

// CanRequest reports whether the party may ask for the target status.
func (p Party) CanRequest(target BookingStatus) bool {
	for _, t := range partyTargets[p] {
		if t == target {
			return true
		}
	}
	return false
}

// CheckTransition applies the capability table first and the state machine second.
// A target outside the party's table is refused whether or not it names a known status.
func CheckTransition(party Party, current, target BookingStatus) error {
	switch party {
	case PartyHost:
		if !party.CanRequest(target) {
			return domain.NewPolicyError("Invalid status for host")
		}
	case PartyGuest:
		if !party.CanRequest(target) {
			return domain.NewPolicyError("Guests can only cancel bookings")
		}
	default:
		return domain.NewForbiddenError("Access denied")
	}

	if !current.CanTransitionTo(target) {
		return domain.NewInvalidStateError(string(current), string(target))
	}
	return nil
}
