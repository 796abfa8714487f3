package application

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hearthstay/service-booking/internal/common/domain"
	"github.com/hearthstay/service-booking/internal/domain/listing"
)

// ListingProjectionService keeps the local listing read model in step with the
// listing service's events.
type ListingProjectionService struct {
	repo   listing.Repository
	logger *zap.Logger
}

// NewListingProjectionService creates a new ListingProjectionService.
func NewListingProjectionService(repo listing.Repository, logger *zap.Logger) *ListingProjectionService {
	return &ListingProjectionService{repo: repo, logger: logger}
}

// ApplySnapshot stores a created or updated listing. Replaying the same snapshot is a no-op.
func (s *ListingProjectionService) ApplySnapshot(ctx context.Context, evt listing.SnapshotEvent) error {
	price, err := domain.ParseCents(evt.PricePerNight)
	if err != nil {
		return &domain.AppError{Kind: domain.KindValidation, Message: fmt.Sprintf("invalid price for listing %s", evt.ListingID), Err: err}
	}
	status, err := listing.ParseStatus(evt.Status)
	if err != nil {
		return &domain.AppError{Kind: domain.KindValidation, Message: "invalid listing status", Err: err}
	}

	l, err := listing.NewListing(evt.ListingID, evt.HostID, price, evt.MaxGuests, evt.InstantBook, status, evt.UpdatedAt)
	if err != nil {
		return &domain.AppError{Kind: domain.KindValidation, Message: "invalid listing snapshot", Err: err}
	}

	if err := s.repo.Upsert(ctx, l); err != nil {
		return err
	}

	s.logger.Debug("listing projected",
		zap.String("listing_id", l.ID().String()),
		zap.String("status", string(l.Status())),
	)
	return nil
}

// Deactivate withdraws a listing. Listings never seen before are skipped since
// there is nothing to withdraw and no snapshot to store.
func (s *ListingProjectionService) Deactivate(ctx context.Context, evt listing.DeactivatedEvent) error {
	current, err := s.repo.FindByID(ctx, evt.ListingID)
	if err != nil {
		if domain.IsKind(err, domain.KindNotFound) {
			s.logger.Warn("deactivation for unknown listing", zap.String("listing_id", evt.ListingID.String()))
			return nil
		}
		return err
	}

	if err := s.repo.Upsert(ctx, current.Deactivated(evt.UpdatedAt)); err != nil {
		return err
	}

	s.logger.Info("listing deactivated", zap.String("listing_id", evt.ListingID.String()))
	return nil
}
