package events

import (
	"context"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/hearthstay/service-booking/internal/common/domain"
	"github.com/hearthstay/service-booking/internal/common/kafka"
	"github.com/hearthstay/service-booking/internal/domain/listing"
)

// ListingProjector applies listing events to the local read model.
type ListingProjector interface {
	ApplySnapshot(ctx context.Context, evt listing.SnapshotEvent) error
	Deactivate(ctx context.Context, evt listing.DeactivatedEvent) error
}

// ListingEventConsumer listens to listing events and maintains the listing projection.
type ListingEventConsumer struct {
	consumer  *kafka.Consumer
	projector ListingProjector
	logger    *zap.Logger
}

// NewListingEventConsumer creates a new ListingEventConsumer.
func NewListingEventConsumer(
	brokers []string,
	groupID string,
	topic string,
	projector ListingProjector,
	logger *zap.Logger,
) *ListingEventConsumer {
	consumer := kafka.NewConsumer(brokers, groupID, topic, logger)
	return &ListingEventConsumer{
		consumer:  consumer,
		projector: projector,
		logger:    logger,
	}
}

// Start begins consuming listing events. This blocks until the context is cancelled.
func (c *ListingEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *ListingEventConsumer) Close() error {
	return c.consumer.Close()
}

func (c *ListingEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	cloudEvent, err := kafka.ParseCloudEvent(msg.Value)
	if err != nil {
		c.logger.Error("failed to parse cloud event from listing topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // Don't retry malformed messages
	}

	switch cloudEvent.Type {
	case listing.EventCreated, listing.EventUpdated:
		var evt listing.SnapshotEvent
		if err := cloudEvent.ParseData(&evt); err != nil {
			c.logger.Error("failed to parse listing snapshot", zap.String("type", cloudEvent.Type), zap.Error(err))
			return nil
		}
		return c.apply(cloudEvent, evt.ListingID.String(), c.projector.ApplySnapshot(ctx, evt))
	case listing.EventDeactivated:
		var evt listing.DeactivatedEvent
		if err := cloudEvent.ParseData(&evt); err != nil {
			c.logger.Error("failed to parse listing deactivation", zap.Error(err))
			return nil
		}
		return c.apply(cloudEvent, evt.ListingID.String(), c.projector.Deactivate(ctx, evt))
	default:
		c.logger.Debug("ignoring unhandled listing event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}
}

// apply decides whether a projection error is worth a redelivery. Invalid payloads
// never become valid, so they are logged and dropped.
func (c *ListingEventConsumer) apply(ce kafka.CloudEvent, listingID string, err error) error {
	if err == nil {
		return nil
	}
	if domain.IsKind(err, domain.KindValidation) {
		c.logger.Error("dropping invalid listing event",
			zap.String("type", ce.Type),
			zap.String("listing_id", listingID),
			zap.Error(err),
		)
		return nil
	}
	c.logger.Error("failed to project listing event",
		zap.String("type", ce.Type),
		zap.String("listing_id", listingID),
		zap.Error(err),
	)
	return err
}
