package listing

import (
	"context"

	"github.com/google/uuid"
)

// Reader is the read side the booking engine depends on.
type Reader interface {
	// FindByID returns the listing regardless of status.
	FindByID(ctx context.Context, id uuid.UUID) (*Listing, error)

	// FindByIDForUpdate returns the listing and, inside a transaction, locks its row
	// until the transaction ends. Concurrent bookings on one listing serialize here.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Listing, error)
}

// Repository adds the projection writes performed by the listing event consumer.
type Repository interface {
	Reader

	// Upsert stores the latest snapshot, ignoring snapshots older than the stored one.
	Upsert(ctx context.Context, l *Listing) error
}
