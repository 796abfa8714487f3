package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hearthstay/service-booking/internal/domain/listing"
)

const listingKeyPrefix = "booking:listing:"

// cachedListing is the JSON form stored in redis.
type cachedListing struct {
	ID                 uuid.UUID `json:"id"`
	HostID             uuid.UUID `json:"host_id"`
	PricePerNightCents int64     `json:"price_per_night_cents"`
	MaxGuests          int       `json:"max_guests"`
	InstantBook        bool      `json:"instant_book"`
	Status             string    `json:"status"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// CachedListingRepository serves FindByID from redis and delegates everything else.
// Locked reads always go to the database. Redis failures degrade to a database read.
type CachedListingRepository struct {
	next   listing.Repository
	client redis.Cmdable
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedListingRepository wraps next with a read-through cache.
func NewCachedListingRepository(next listing.Repository, client redis.Cmdable, ttl time.Duration, logger *zap.Logger) *CachedListingRepository {
	return &CachedListingRepository{next: next, client: client, ttl: ttl, logger: logger}
}

// FindByID returns the cached snapshot or loads and caches it.
func (r *CachedListingRepository) FindByID(ctx context.Context, id uuid.UUID) (*listing.Listing, error) {
	key := listingKey(id)

	raw, err := r.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		if l, decodeErr := decodeListing(raw); decodeErr == nil {
			return l, nil
		}
		r.logger.Warn("discarding undecodable cached listing", zap.String("listing_id", id.String()))
	case !errors.Is(err, redis.Nil):
		r.logger.Warn("listing cache read failed", zap.String("listing_id", id.String()), zap.Error(err))
	}

	l, err := r.next.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if payload, err := encodeListing(l); err == nil {
		if err := r.client.Set(ctx, key, payload, r.ttl).Err(); err != nil {
			r.logger.Warn("listing cache write failed", zap.String("listing_id", id.String()), zap.Error(err))
		}
	}
	return l, nil
}

// FindByIDForUpdate bypasses the cache.
func (r *CachedListingRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*listing.Listing, error) {
	return r.next.FindByIDForUpdate(ctx, id)
}

// Upsert writes through and drops the cached entry.
func (r *CachedListingRepository) Upsert(ctx context.Context, l *listing.Listing) error {
	if err := r.next.Upsert(ctx, l); err != nil {
		return err
	}
	r.Invalidate(ctx, l.ID())
	return nil
}

// Invalidate removes a listing from the cache.
func (r *CachedListingRepository) Invalidate(ctx context.Context, id uuid.UUID) {
	if err := r.client.Del(ctx, listingKey(id)).Err(); err != nil {
		r.logger.Warn("listing cache invalidation failed", zap.String("listing_id", id.String()), zap.Error(err))
	}
}

func listingKey(id uuid.UUID) string {
	return listingKeyPrefix + id.String()
}

func encodeListing(l *listing.Listing) ([]byte, error) {
	return json.Marshal(cachedListing{
		ID:                 l.ID(),
		HostID:             l.HostID(),
		PricePerNightCents: l.PricePerNightCents(),
		MaxGuests:          l.MaxGuests(),
		InstantBook:        l.InstantBook(),
		Status:             string(l.Status()),
		UpdatedAt:          l.UpdatedAt(),
	})
}

func decodeListing(raw []byte) (*listing.Listing, error) {
	var c cachedListing
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, err
	}
	status, err := listing.ParseStatus(c.Status)
	if err != nil {
		return nil, err
	}
	return listing.Reconstruct(c.ID, c.HostID, c.PricePerNightCents, c.MaxGuests, c.InstantBook, status, c.UpdatedAt), nil
}
