package booking

import "fmt"

// MaxTotalPriceCents is the largest total the bookings.total_price column
// (numeric(12,2)) can hold.
const MaxTotalPriceCents int64 = 999_999_999_999

// PricingStrategy defines the interface for pricing a stay.
type PricingStrategy interface {
	// Quote prices the stay at the given nightly rate.
	Quote(params PricingParams) (Quote, error)
}

// PricingParams holds the inputs for price calculation.
type PricingParams struct {
	Stay               Stay
	PricePerNightCents int64
}

// Quote is a priced stay. SubtotalCents is what a booking records as its total price;
// the service fee is shown to guests but never stored.
type Quote struct {
	Nights             int64
	PricePerNightCents int64
	SubtotalCents      int64
	ServiceFeeCents    int64
	TotalCents         int64
}

// NightlyPricingStrategy charges a flat nightly rate with a percentage service fee.
type NightlyPricingStrategy struct {
	serviceFeePercent int64
}

// NewNightlyPricingStrategy creates a NightlyPricingStrategy.
func NewNightlyPricingStrategy(serviceFeePercent int64) *NightlyPricingStrategy {
	return &NightlyPricingStrategy{serviceFeePercent: serviceFeePercent}
}

// Quote computes nights × nightly rate, plus the fee rounded half up to the cent.
func (s *NightlyPricingStrategy) Quote(params PricingParams) (Quote, error) {
	if params.PricePerNightCents <= 0 {
		return Quote{}, fmt.Errorf("price per night must be positive")
	}
	nights := params.Stay.Nights()
	if nights < 1 {
		return Quote{}, fmt.Errorf("stay must be at least one night")
	}

	if params.PricePerNightCents > MaxTotalPriceCents/nights {
		return Quote{}, fmt.Errorf("total for %d nights exceeds the maximum booking price", nights)
	}

	subtotal := nights * params.PricePerNightCents
	fee := (subtotal*s.serviceFeePercent + 50) / 100

	return Quote{
		Nights:             nights,
		PricePerNightCents: params.PricePerNightCents,
		SubtotalCents:      subtotal,
		ServiceFeeCents:    fee,
		TotalCents:         subtotal + fee,
	}, nil
}
