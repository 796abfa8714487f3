package repository

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/hearthstay/service-booking/internal/common/database"
	"github.com/hearthstay/service-booking/internal/common/domain"
	bookingDomain "github.com/hearthstay/service-booking/internal/domain/booking"
)

// SQLSTATE codes raised by the bookings table.
const (
	pgExclusionViolation  = "23P01"
	pgForeignKeyViolation = "23503"
)

// BookingModel is the GORM model for the bookings table.
type BookingModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	ListingID  uuid.UUID `gorm:"type:uuid;not null"`
	GuestID    uuid.UUID `gorm:"type:uuid;not null"`
	StartDate  time.Time `gorm:"type:date;not null"`
	EndDate    time.Time `gorm:"type:date;not null"`
	NumGuests  int       `gorm:"not null"`
	TotalPrice string    `gorm:"type:numeric(12,2);not null"`
	Status     string    `gorm:"not null;size:20"`
	Version    int64     `gorm:"not null;default:1"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (BookingModel) TableName() string {
	return "bookings"
}

// GormBookingRepository is the GORM-based implementation of BookingRepository.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// FindByID retrieves a booking by its unique identifier.
func (r *GormBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := database.Conn(ctx, r.db).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Booking", id.String())
		}
		return nil, fmt.Errorf("failed to find booking by ID: %w", err)
	}
	return toDomainBooking(&model)
}

// HasOverlap reports whether a calendar-blocking booking on the listing shares a day with stay.
func (r *GormBookingRepository) HasOverlap(ctx context.Context, listingID uuid.UUID, stay bookingDomain.Stay) (bool, error) {
	var exists bool
	err := database.Conn(ctx, r.db).Raw(
		`SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE listing_id = ?
			  AND status NOT IN ?
			  AND start_date <= ?::date
			  AND ?::date <= end_date
		)`,
		listingID,
		statusStrings(bookingDomain.ReleasedStatuses),
		stay.End().Format(bookingDomain.DateLayout),
		stay.Start().Format(bookingDomain.DateLayout),
	).Scan(&exists).Error
	if err != nil {
		return false, fmt.Errorf("failed to check booking overlap: %w", err)
	}
	return exists, nil
}

// ListByGuest streams the guest's bookings, newest first.
func (r *GormBookingRepository) ListByGuest(ctx context.Context, guestID uuid.UUID) iter.Seq2[*bookingDomain.Booking, error] {
	return r.stream(ctx, func(q *gorm.DB) *gorm.DB {
		return q.Where("bookings.guest_id = ?", guestID)
	})
}

// ListByHost streams bookings on listings owned by hostID, newest first.
func (r *GormBookingRepository) ListByHost(ctx context.Context, hostID uuid.UUID) iter.Seq2[*bookingDomain.Booking, error] {
	return r.stream(ctx, func(q *gorm.DB) *gorm.DB {
		return q.Select("bookings.*").
			Joins("JOIN listings ON listings.id = bookings.listing_id").
			Where("listings.host_id = ?", hostID)
	})
}

// stream runs the scoped query each time the sequence is ranged over and
// converts rows one at a time. Iteration stops at the first error.
func (r *GormBookingRepository) stream(ctx context.Context, scope func(*gorm.DB) *gorm.DB) iter.Seq2[*bookingDomain.Booking, error] {
	return func(yield func(*bookingDomain.Booking, error) bool) {
		conn := database.Conn(ctx, r.db)
		rows, err := scope(conn.Model(&BookingModel{})).
			Order("bookings.created_at DESC, bookings.id DESC").
			Rows()
		if err != nil {
			yield(nil, fmt.Errorf("failed to list bookings: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var model BookingModel
			if err := conn.ScanRows(rows, &model); err != nil {
				yield(nil, fmt.Errorf("failed to scan booking: %w", err))
				return
			}
			bk, err := toDomainBooking(&model)
			if !yield(bk, err) || err != nil {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(nil, fmt.Errorf("failed to iterate bookings: %w", err))
		}
	}
}

// StatusTotalsByHost returns booking counts and summed prices per status for a host.
func (r *GormBookingRepository) StatusTotalsByHost(ctx context.Context, hostID uuid.UUID) (map[bookingDomain.BookingStatus]bookingDomain.StatusTotal, error) {
	type statusRow struct {
		Status string
		Count  int64
		Total  string
	}
	var results []statusRow
	if err := database.Conn(ctx, r.db).Model(&BookingModel{}).
		Select("bookings.status AS status, COUNT(*) AS count, COALESCE(SUM(bookings.total_price), 0)::text AS total").
		Joins("JOIN listings ON listings.id = bookings.listing_id").
		Where("listings.host_id = ?", hostID).
		Group("bookings.status").
		Scan(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to total bookings by status: %w", err)
	}

	totals := make(map[bookingDomain.BookingStatus]bookingDomain.StatusTotal, len(results))
	for _, row := range results {
		status, err := bookingDomain.ParseBookingStatus(row.Status)
		if err != nil {
			return nil, err
		}
		cents, err := domain.ParseCents(row.Total)
		if err != nil {
			return nil, fmt.Errorf("failed to parse total for %s: %w", row.Status, err)
		}
		totals[status] = bookingDomain.StatusTotal{Count: row.Count, TotalPriceCents: cents}
	}
	return totals, nil
}

// Save persists a new booking. An overlapping calendar-blocking booking committed
// by another transaction surfaces as a conflict.
func (r *GormBookingRepository) Save(ctx context.Context, bk *bookingDomain.Booking) error {
	model := toBookingModel(bk)
	if err := database.Conn(ctx, r.db).Create(model).Error; err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case pgExclusionViolation:
				return &domain.AppError{Kind: domain.KindConflict, Message: "Listing is not available for selected dates", Err: err}
			case pgForeignKeyViolation:
				return &domain.AppError{Kind: domain.KindNotFound, Message: "Listing not found or inactive", Err: err}
			}
		}
		return fmt.Errorf("failed to save booking: %w", err)
	}
	return nil
}

// Update persists changes to an existing booking with optimistic locking.
func (r *GormBookingRepository) Update(ctx context.Context, bk *bookingDomain.Booking) error {
	model := toBookingModel(bk)

	// IncrementVersion has already run, so the stored row is one version behind.
	expectedVersion := bk.Version() - 1
	result := database.Conn(ctx, r.db).
		Model(&BookingModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"status":     model.Status,
			"version":    model.Version,
			"updated_at": model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update booking: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return domain.NewConflictError("booking was modified by another transaction")
	}

	return nil
}

// DeleteByGuest removes the booking only when guestID created it. Absence and
// foreign ownership are reported identically.
func (r *GormBookingRepository) DeleteByGuest(ctx context.Context, id, guestID uuid.UUID) error {
	result := database.Conn(ctx, r.db).
		Where("id = ? AND guest_id = ?", id, guestID).
		Delete(&BookingModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete booking: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundMessage("Booking not found or access denied")
	}
	return nil
}

// --- Conversion Helpers ---

func statusStrings(statuses []bookingDomain.BookingStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

func toBookingModel(bk *bookingDomain.Booking) *BookingModel {
	return &BookingModel{
		ID:         bk.ID(),
		ListingID:  bk.ListingID(),
		GuestID:    bk.GuestID(),
		StartDate:  bk.Stay().Start(),
		EndDate:    bk.Stay().End(),
		NumGuests:  bk.NumGuests(),
		TotalPrice: domain.FormatCents(bk.TotalPriceCents()),
		Status:     string(bk.Status()),
		Version:    bk.Version(),
		CreatedAt:  bk.CreatedAt(),
		UpdatedAt:  bk.UpdatedAt(),
	}
}

func toDomainBooking(m *BookingModel) (*bookingDomain.Booking, error) {
	status, err := bookingDomain.ParseBookingStatus(m.Status)
	if err != nil {
		return nil, err
	}

	totalCents, err := domain.ParseCents(m.TotalPrice)
	if err != nil {
		return nil, fmt.Errorf("failed to parse total price of booking %s: %w", m.ID, err)
	}

	return bookingDomain.ReconstructBooking(
		m.ID,
		m.ListingID,
		m.GuestID,
		bookingDomain.ReconstructStay(m.StartDate, m.EndDate),
		m.NumGuests,
		totalCents,
		status,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}
