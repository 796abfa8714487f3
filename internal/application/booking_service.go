package application

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hearthstay/service-booking/internal/common/auth"
	"github.com/hearthstay/service-booking/internal/common/domain"
	"github.com/hearthstay/service-booking/internal/common/kafka"
	bookingDomain "github.com/hearthstay/service-booking/internal/domain/booking"
	"github.com/hearthstay/service-booking/internal/domain/listing"
)

const eventSource = "service-booking"

// EventPublisher publishes CloudEvents to a topic.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, event kafka.CloudEvent) error
}

// Transactor runs fn inside one database transaction carried by the context.
type Transactor interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// CreateBookingRequest holds the data needed to create a new booking.
type CreateBookingRequest struct {
	ListingID uuid.UUID `json:"listing_id"`
	StartDate string    `json:"start_date"`
	EndDate   string    `json:"end_date"`
	NumGuests int       `json:"num_guests"`
}

// UpdateStatusRequest asks for a booking status change.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// QuoteRequest asks for a price preview.
type QuoteRequest struct {
	ListingID uuid.UUID `json:"listing_id"`
	StartDate string    `json:"start_date"`
	EndDate   string    `json:"end_date"`
	NumGuests int       `json:"num_guests"`
}

// BookingDTO is the response representation of a booking.
type BookingDTO struct {
	ID         uuid.UUID `json:"id"`
	ListingID  uuid.UUID `json:"listing_id"`
	GuestID    uuid.UUID `json:"guest_id"`
	StartDate  string    `json:"start_date"`
	EndDate    string    `json:"end_date"`
	Nights     int64     `json:"nights"`
	NumGuests  int       `json:"num_guests"`
	TotalPrice string    `json:"total_price"`
	Status     string    `json:"status"`
	Version    int64     `json:"version"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// QuoteDTO is a priced stay.
type QuoteDTO struct {
	ListingID     uuid.UUID `json:"listing_id"`
	StartDate     string    `json:"start_date"`
	EndDate       string    `json:"end_date"`
	Nights        int64     `json:"nights"`
	NumGuests     int       `json:"num_guests"`
	PricePerNight string    `json:"price_per_night"`
	Subtotal      string    `json:"subtotal"`
	ServiceFee    string    `json:"service_fee"`
	Total         string    `json:"total"`
	InstantBook   bool      `json:"instant_book"`
}

// HostBookingStatsDTO holds the figures shown on a host dashboard.
type HostBookingStatsDTO struct {
	TotalBookings int64            `json:"total_bookings"`
	ByStatus      map[string]int64 `json:"by_status"`
	Earnings      string           `json:"earnings"`
}

// RoleView selects which side of the marketplace a booking list is drawn from.
type RoleView string

const (
	ViewGuest RoleView = "guest"
	ViewHost  RoleView = "host"
)

// ResolveView validates an explicit view or derives one from the caller's role.
func ResolveView(view string, role auth.Role) (RoleView, error) {
	switch RoleView(view) {
	case ViewGuest, ViewHost:
		return RoleView(view), nil
	case "":
		if role == auth.RoleHost {
			return ViewHost, nil
		}
		return ViewGuest, nil
	default:
		return "", domain.NewValidationError(fmt.Sprintf("invalid role view: %s", view))
	}
}

// BookingService is the application service orchestrating booking use cases.
type BookingService struct {
	repo     bookingDomain.BookingRepository
	listings listing.Reader
	tx       Transactor
	pricing  bookingDomain.PricingStrategy
	producer EventPublisher
	topic    string
	logger   *zap.Logger
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	repo bookingDomain.BookingRepository,
	listings listing.Reader,
	tx Transactor,
	pricing bookingDomain.PricingStrategy,
	producer EventPublisher,
	topic string,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		repo:     repo,
		listings: listings,
		tx:       tx,
		pricing:  pricing,
		producer: producer,
		topic:    topic,
		logger:   logger,
	}
}

// CreateBooking reserves a stay for guestID. The listing row stays locked from the
// availability check until the insert commits, so two requests for one listing
// are decided one after the other.
func (s *BookingService) CreateBooking(ctx context.Context, guestID uuid.UUID, req CreateBookingRequest) (*BookingDTO, error) {
	if err := requireStayInput(req.ListingID, req.StartDate, req.EndDate, req.NumGuests); err != nil {
		return nil, err
	}

	var (
		bk     *bookingDomain.Booking
		hostID uuid.UUID
	)
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		l, err := s.bookableListing(ctx, req.ListingID, s.listings.FindByIDForUpdate)
		if err != nil {
			return err
		}
		hostID = l.HostID()

		if l.IsHostedBy(guestID) {
			return domain.NewPolicyError("You cannot book your own listing")
		}

		stay, err := parseStay(req.StartDate, req.EndDate)
		if err != nil {
			return err
		}

		overlap, err := s.repo.HasOverlap(ctx, l.ID(), stay)
		if err != nil {
			return err
		}
		if overlap {
			return domain.NewConflictError("Listing is not available for selected dates")
		}

		if err := checkCapacity(l, req.NumGuests); err != nil {
			return err
		}

		quote, err := s.pricing.Quote(bookingDomain.PricingParams{
			Stay:               stay,
			PricePerNightCents: l.PricePerNightCents(),
		})
		if err != nil {
			return domain.NewValidationError(fmt.Sprintf("pricing error: %v", err))
		}

		bk, err = bookingDomain.NewBooking(l.ID(), guestID, stay, req.NumGuests, quote.SubtotalCents, l.InstantBook())
		if err != nil {
			return err
		}

		if err := s.repo.Save(ctx, bk); err != nil {
			return fmt.Errorf("failed to save booking: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("booking created",
		zap.String("booking_id", bk.ID().String()),
		zap.String("listing_id", bk.ListingID().String()),
		zap.String("status", bk.Status().String()),
	)
	s.publishBookingRequested(ctx, bk, hostID)

	result := toBookingDTO(bk)
	return &result, nil
}

// TransitionBookingStatus lets the host decide a pending request or its guest cancel it.
// The requested status is checked against what the caller's party may ask for, so an
// unrecognised status is refused the same way as a recognised one they may not set.
func (s *BookingService) TransitionBookingStatus(ctx context.Context, bookingID, requesterID uuid.UUID, req UpdateStatusRequest) (*BookingDTO, error) {
	target := bookingDomain.BookingStatus(req.Status)

	bk, party, err := s.loadWithParty(ctx, bookingID, requesterID)
	if err != nil {
		return nil, err
	}

	from := bk.Status()
	if err := bk.ChangeStatus(party, target); err != nil {
		return nil, err
	}

	bk.IncrementVersion()
	if err := s.repo.Update(ctx, bk); err != nil {
		return nil, err
	}

	s.logger.Info("booking status changed",
		zap.String("booking_id", bk.ID().String()),
		zap.String("from", from.String()),
		zap.String("to", target.String()),
		zap.String("party", party.String()),
	)

	evt := bookingDomain.StatusChangedEvent{
		BookingID:  bk.ID(),
		ListingID:  bk.ListingID(),
		GuestID:    bk.GuestID(),
		FromStatus: from.String(),
		ToStatus:   target.String(),
		ChangedBy:  requesterID,
		OccurredAt: time.Now().UTC(),
	}
	s.publishEvent(ctx, bookingDomain.EventStatusChanged, bk.ID().String(), evt)

	result := toBookingDTO(bk)
	return &result, nil
}

// DeleteBooking removes a booking created by guestID, whatever its status.
func (s *BookingService) DeleteBooking(ctx context.Context, bookingID, guestID uuid.UUID) error {
	if err := s.repo.DeleteByGuest(ctx, bookingID, guestID); err != nil {
		return err
	}

	s.logger.Info("booking deleted", zap.String("booking_id", bookingID.String()))

	evt := bookingDomain.DeletedEvent{
		BookingID:  bookingID,
		GuestID:    guestID,
		OccurredAt: time.Now().UTC(),
	}
	s.publishEvent(ctx, bookingDomain.EventDeleted, bookingID.String(), evt)
	return nil
}

// ListBookingsForActor returns the caller's bookings as a lazy sequence. Ranging over
// the result runs the query; ranging again runs it again.
func (s *BookingService) ListBookingsForActor(ctx context.Context, requesterID uuid.UUID, role auth.Role, view string) (iter.Seq2[BookingDTO, error], error) {
	v, err := ResolveView(view, role)
	if err != nil {
		return nil, err
	}

	var source iter.Seq2[*bookingDomain.Booking, error]
	switch v {
	case ViewHost:
		source = s.repo.ListByHost(ctx, requesterID)
	default:
		source = s.repo.ListByGuest(ctx, requesterID)
	}

	return func(yield func(BookingDTO, error) bool) {
		for bk, err := range source {
			if err != nil {
				yield(BookingDTO{}, err)
				return
			}
			if !yield(toBookingDTO(bk), nil) {
				return
			}
		}
	}, nil
}

// GetBooking returns a booking to its guest or the listing's host.
func (s *BookingService) GetBooking(ctx context.Context, bookingID, requesterID uuid.UUID) (*BookingDTO, error) {
	bk, party, err := s.loadWithParty(ctx, bookingID, requesterID)
	if err != nil {
		return nil, err
	}
	if party == bookingDomain.PartyNone {
		return nil, domain.NewForbiddenError("Access denied")
	}
	result := toBookingDTO(bk)
	return &result, nil
}

// QuoteStay prices a prospective stay without reserving it.
func (s *BookingService) QuoteStay(ctx context.Context, req QuoteRequest) (*QuoteDTO, error) {
	if err := requireStayInput(req.ListingID, req.StartDate, req.EndDate, req.NumGuests); err != nil {
		return nil, err
	}

	l, err := s.bookableListing(ctx, req.ListingID, s.listings.FindByID)
	if err != nil {
		return nil, err
	}

	stay, err := parseStay(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	if err := checkCapacity(l, req.NumGuests); err != nil {
		return nil, err
	}

	quote, err := s.pricing.Quote(bookingDomain.PricingParams{
		Stay:               stay,
		PricePerNightCents: l.PricePerNightCents(),
	})
	if err != nil {
		return nil, domain.NewValidationError(fmt.Sprintf("pricing error: %v", err))
	}

	return &QuoteDTO{
		ListingID:     l.ID(),
		StartDate:     stay.Start().Format(bookingDomain.DateLayout),
		EndDate:       stay.End().Format(bookingDomain.DateLayout),
		Nights:        quote.Nights,
		NumGuests:     req.NumGuests,
		PricePerNight: domain.FormatCents(quote.PricePerNightCents),
		Subtotal:      domain.FormatCents(quote.SubtotalCents),
		ServiceFee:    domain.FormatCents(quote.ServiceFeeCents),
		Total:         domain.FormatCents(quote.TotalCents),
		InstantBook:   l.InstantBook(),
	}, nil
}

// HostBookingStats returns per-status counts and earnings across a host's listings.
func (s *BookingService) HostBookingStats(ctx context.Context, hostID uuid.UUID) (*HostBookingStatsDTO, error) {
	totals, err := s.repo.StatusTotalsByHost(ctx, hostID)
	if err != nil {
		return nil, fmt.Errorf("failed to get host booking stats: %w", err)
	}

	stats := &HostBookingStatsDTO{ByStatus: make(map[string]int64, len(bookingDomain.AllStatuses))}
	for _, status := range bookingDomain.AllStatuses {
		stats.ByStatus[status.String()] = totals[status].Count
		stats.TotalBookings += totals[status].Count
	}

	var earnings int64
	for _, status := range bookingDomain.EarningStatuses {
		earnings += totals[status].TotalPriceCents
	}
	stats.Earnings = domain.FormatCents(earnings)

	return stats, nil
}

// --- Helpers ---

// requireStayInput only checks presence; date parsing waits until the listing and
// its host are known.
func requireStayInput(listingID uuid.UUID, startDate, endDate string, numGuests int) error {
	if listingID == uuid.Nil || startDate == "" || endDate == "" || numGuests == 0 {
		return domain.NewValidationError("listing_id, start_date, end_date and num_guests are required")
	}
	if numGuests < 0 {
		return domain.NewValidationError("num_guests must be positive")
	}
	return nil
}

func parseStay(startDate, endDate string) (bookingDomain.Stay, error) {
	start, err := bookingDomain.ParseDate(startDate)
	if err != nil {
		return bookingDomain.Stay{}, domain.NewValidationError("start_date must be a YYYY-MM-DD date")
	}
	end, err := bookingDomain.ParseDate(endDate)
	if err != nil {
		return bookingDomain.Stay{}, domain.NewValidationError("end_date must be a YYYY-MM-DD date")
	}
	return bookingDomain.NewStay(start, end)
}

// bookableListing loads a listing with find and hides inactive ones behind the same
// not-found error as missing ones.
func (s *BookingService) bookableListing(
	ctx context.Context,
	id uuid.UUID,
	find func(context.Context, uuid.UUID) (*listing.Listing, error),
) (*listing.Listing, error) {
	l, err := find(ctx, id)
	if err != nil {
		if domain.IsKind(err, domain.KindNotFound) {
			return nil, domain.NewNotFoundMessage("Listing not found or inactive")
		}
		return nil, err
	}
	if !l.IsBookable() {
		return nil, domain.NewNotFoundMessage("Listing not found or inactive")
	}
	return l, nil
}

func (s *BookingService) loadWithParty(ctx context.Context, bookingID, requesterID uuid.UUID) (*bookingDomain.Booking, bookingDomain.Party, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, bookingDomain.PartyNone, err
	}
	l, err := s.listings.FindByID(ctx, bk.ListingID())
	if err != nil {
		return nil, bookingDomain.PartyNone, fmt.Errorf("failed to load listing for booking %s: %w", bk.ID(), err)
	}
	return bk, bookingDomain.ResolveParty(bk, l.HostID(), requesterID), nil
}

func checkCapacity(l *listing.Listing, numGuests int) error {
	if numGuests > l.MaxGuests() {
		return domain.NewValidationError(fmt.Sprintf("This listing can accommodate maximum %d guests", l.MaxGuests()))
	}
	return nil
}

func toBookingDTO(bk *bookingDomain.Booking) BookingDTO {
	return BookingDTO{
		ID:         bk.ID(),
		ListingID:  bk.ListingID(),
		GuestID:    bk.GuestID(),
		StartDate:  bk.Stay().Start().Format(bookingDomain.DateLayout),
		EndDate:    bk.Stay().End().Format(bookingDomain.DateLayout),
		Nights:     bk.Stay().Nights(),
		NumGuests:  bk.NumGuests(),
		TotalPrice: domain.FormatCents(bk.TotalPriceCents()),
		Status:     string(bk.Status()),
		Version:    bk.Version(),
		CreatedAt:  bk.CreatedAt(),
		UpdatedAt:  bk.UpdatedAt(),
	}
}

func (s *BookingService) publishBookingRequested(ctx context.Context, bk *bookingDomain.Booking, hostID uuid.UUID) {
	evt := bookingDomain.RequestedEvent{
		BookingID:  bk.ID(),
		ListingID:  bk.ListingID(),
		GuestID:    bk.GuestID(),
		HostID:     hostID,
		StartDate:  bk.Stay().Start().Format(bookingDomain.DateLayout),
		EndDate:    bk.Stay().End().Format(bookingDomain.DateLayout),
		NumGuests:  bk.NumGuests(),
		TotalPrice: domain.FormatCents(bk.TotalPriceCents()),
		Status:     bk.Status().String(),
		OccurredAt: time.Now().UTC(),
	}
	s.publishEvent(ctx, bookingDomain.EventRequested, bk.ID().String(), evt)
}

// publishEvent is best effort: the booking change is already committed, so a failed
// publish is logged and the caller still succeeds.
func (s *BookingService) publishEvent(ctx context.Context, eventType, subject string, data interface{}) {
	cloudEvent, err := kafka.NewCloudEvent(eventSource, eventType, subject, data)
	if err != nil {
		s.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}

	if err := s.producer.PublishEvent(ctx, s.topic, cloudEvent); err != nil {
		s.logger.Error("failed to publish event",
			zap.String("topic", s.topic),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}
