package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hearthstay/service-booking/internal/common/database"
	"github.com/hearthstay/service-booking/internal/common/domain"
	"github.com/hearthstay/service-booking/internal/domain/listing"
)

// ListingModel is the GORM model for the listings projection.
type ListingModel struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	HostID        uuid.UUID `gorm:"type:uuid;index;not null"`
	PricePerNight string    `gorm:"type:numeric(10,2);not null"`
	MaxGuests     int       `gorm:"not null"`
	InstantBook   bool      `gorm:"not null"`
	Status        string    `gorm:"not null;size:20"`
	UpdatedAt     time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (ListingModel) TableName() string {
	return "listings"
}

// GormListingRepository is the GORM-based implementation of listing.Repository.
type GormListingRepository struct {
	db *gorm.DB
}

// NewGormListingRepository creates a new GormListingRepository.
func NewGormListingRepository(db *gorm.DB) *GormListingRepository {
	return &GormListingRepository{db: db}
}

// FindByID retrieves a listing snapshot.
func (r *GormListingRepository) FindByID(ctx context.Context, id uuid.UUID) (*listing.Listing, error) {
	return r.find(database.Conn(ctx, r.db), id)
}

// FindByIDForUpdate retrieves a listing and locks its row for the rest of the
// transaction carried by ctx.
func (r *GormListingRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*listing.Listing, error) {
	return r.find(database.Conn(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *GormListingRepository) find(q *gorm.DB, id uuid.UUID) (*listing.Listing, error) {
	var model ListingModel
	if err := q.Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Listing", id.String())
		}
		return nil, fmt.Errorf("failed to find listing: %w", err)
	}
	return toDomainListing(&model)
}

// Upsert inserts the snapshot or overwrites the stored one when it is not newer.
// Redelivered or out-of-order events therefore leave the row unchanged.
func (r *GormListingRepository) Upsert(ctx context.Context, l *listing.Listing) error {
	model := toListingModel(l)
	err := database.Conn(ctx, r.db).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"host_id", "price_per_night", "max_guests", "instant_book", "status", "updated_at",
		}),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Expr{SQL: "listings.updated_at <= EXCLUDED.updated_at"},
		}},
	}).Create(model).Error
	if err != nil {
		return fmt.Errorf("failed to upsert listing: %w", err)
	}
	return nil
}

func toListingModel(l *listing.Listing) *ListingModel {
	return &ListingModel{
		ID:            l.ID(),
		HostID:        l.HostID(),
		PricePerNight: domain.FormatCents(l.PricePerNightCents()),
		MaxGuests:     l.MaxGuests(),
		InstantBook:   l.InstantBook(),
		Status:        string(l.Status()),
		UpdatedAt:     l.UpdatedAt(),
	}
}

func toDomainListing(m *ListingModel) (*listing.Listing, error) {
	status, err := listing.ParseStatus(m.Status)
	if err != nil {
		return nil, err
	}
	price, err := domain.ParseCents(m.PricePerNight)
	if err != nil {
		return nil, fmt.Errorf("failed to parse price of listing %s: %w", m.ID, err)
	}
	return listing.Reconstruct(m.ID, m.HostID, price, m.MaxGuests, m.InstantBook, status, m.UpdatedAt), nil
}
