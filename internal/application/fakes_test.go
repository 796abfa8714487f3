package application

import (
	"context"
	"iter"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/hearthstay/service-booking/internal/common/domain"
	"github.com/hearthstay/service-booking/internal/common/kafka"
	bookingDomain "github.com/hearthstay/service-booking/internal/domain/booking"
	"github.com/hearthstay/service-booking/internal/domain/listing"
)

// memoryStore backs both fake repositories so host views can join on listings.
type memoryStore struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]*bookingDomain.Booking
	versions map[uuid.UUID]int64
	order    []uuid.UUID
	listings map[uuid.UUID]*listing.Listing
	saveErr  error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		bookings: make(map[uuid.UUID]*bookingDomain.Booking),
		versions: make(map[uuid.UUID]int64),
		listings: make(map[uuid.UUID]*listing.Listing),
	}
}

// --- booking repository ---

type fakeBookingRepo struct{ s *memoryStore }

func (r *fakeBookingRepo) FindByID(_ context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	bk, ok := r.s.bookings[id]
	if !ok {
		return nil, domain.NewNotFoundError("Booking", id.String())
	}
	cp := *bk
	return &cp, nil
}

func (r *fakeBookingRepo) HasOverlap(_ context.Context, listingID uuid.UUID, stay bookingDomain.Stay) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, bk := range r.s.bookings {
		if bk.ListingID() == listingID && bk.Status().BlocksCalendar() && bk.Stay().Overlaps(stay) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeBookingRepo) ListByGuest(_ context.Context, guestID uuid.UUID) iter.Seq2[*bookingDomain.Booking, error] {
	return r.list(func(bk *bookingDomain.Booking) bool { return bk.GuestID() == guestID })
}

func (r *fakeBookingRepo) ListByHost(_ context.Context, hostID uuid.UUID) iter.Seq2[*bookingDomain.Booking, error] {
	return r.list(func(bk *bookingDomain.Booking) bool {
		l, ok := r.s.listings[bk.ListingID()]
		return ok && l.HostID() == hostID
	})
}

// list snapshots matching bookings newest first on every range.
func (r *fakeBookingRepo) list(match func(*bookingDomain.Booking) bool) iter.Seq2[*bookingDomain.Booking, error] {
	return func(yield func(*bookingDomain.Booking, error) bool) {
		r.s.mu.Lock()
		var matched []*bookingDomain.Booking
		for _, id := range slices.Backward(r.s.order) {
			if bk, ok := r.s.bookings[id]; ok && match(bk) {
				cp := *bk
				matched = append(matched, &cp)
			}
		}
		r.s.mu.Unlock()

		for _, bk := range matched {
			if !yield(bk, nil) {
				return
			}
		}
	}
}

func (r *fakeBookingRepo) StatusTotalsByHost(_ context.Context, hostID uuid.UUID) (map[bookingDomain.BookingStatus]bookingDomain.StatusTotal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	totals := make(map[bookingDomain.BookingStatus]bookingDomain.StatusTotal)
	for _, bk := range r.s.bookings {
		l, ok := r.s.listings[bk.ListingID()]
		if !ok || l.HostID() != hostID {
			continue
		}
		t := totals[bk.Status()]
		t.Count++
		t.TotalPriceCents += bk.TotalPriceCents()
		totals[bk.Status()] = t
	}
	return totals, nil
}

func (r *fakeBookingRepo) Save(_ context.Context, bk *bookingDomain.Booking) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.saveErr != nil {
		return r.s.saveErr
	}
	cp := *bk
	r.s.bookings[bk.ID()] = &cp
	r.s.versions[bk.ID()] = bk.Version()
	r.s.order = append(r.s.order, bk.ID())
	return nil
}

func (r *fakeBookingRepo) Update(_ context.Context, bk *bookingDomain.Booking) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.versions[bk.ID()] != bk.Version()-1 {
		return domain.NewConflictError("booking was modified by another transaction")
	}
	cp := *bk
	r.s.bookings[bk.ID()] = &cp
	r.s.versions[bk.ID()] = bk.Version()
	return nil
}

func (r *fakeBookingRepo) DeleteByGuest(_ context.Context, id, guestID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	bk, ok := r.s.bookings[id]
	if !ok || bk.GuestID() != guestID {
		return domain.NewNotFoundMessage("Booking not found or access denied")
	}
	delete(r.s.bookings, id)
	return nil
}

// --- listing repository ---

type fakeListingRepo struct {
	s           *memoryStore
	lockedReads int
}

func (r *fakeListingRepo) FindByID(_ context.Context, id uuid.UUID) (*listing.Listing, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.listings[id]
	if !ok {
		return nil, domain.NewNotFoundError("Listing", id.String())
	}
	return l, nil
}

func (r *fakeListingRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*listing.Listing, error) {
	r.s.mu.Lock()
	r.lockedReads++
	r.s.mu.Unlock()
	return r.FindByID(ctx, id)
}

func (r *fakeListingRepo) Upsert(_ context.Context, l *listing.Listing) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if current, ok := r.s.listings[l.ID()]; ok && current.UpdatedAt().After(l.UpdatedAt()) {
		return nil
	}
	r.s.listings[l.ID()] = l
	return nil
}

// --- transactions ---

// serialTx stands in for the listing row lock: one transaction body runs at a time.
type serialTx struct {
	mu    sync.Mutex
	calls int
}

func (t *serialTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls++
	return fn(ctx)
}

// --- publisher ---

type recordingPublisher struct {
	mu     sync.Mutex
	events []kafka.CloudEvent
	err    error
}

func (p *recordingPublisher) PublishEvent(_ context.Context, _ string, event kafka.CloudEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}
