//go:build integration

package main_test

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	kafkamodule "github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/hearthstay/service-booking/internal/application"
	"github.com/hearthstay/service-booking/internal/common/database"
	"github.com/hearthstay/service-booking/internal/common/domain"
	"github.com/hearthstay/service-booking/internal/common/kafka"
	"github.com/hearthstay/service-booking/internal/config"
	bookingDomain "github.com/hearthstay/service-booking/internal/domain/booking"
	"github.com/hearthstay/service-booking/internal/domain/listing"
	bookingEvents "github.com/hearthstay/service-booking/internal/events"
	"github.com/hearthstay/service-booking/internal/repository"
	"github.com/hearthstay/service-booking/migrations"
)

const (
	bookingTopic = "booking.events"
	listingTopic = "listing.events"
)

// setupPostgres starts PostgreSQL, applies the SQL migrations and returns a connected GORM DB.
func setupPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "test",
				"POSTGRES_PASSWORD": "test",
				"POSTGRES_DB":       "test_booking",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "failed to start PostgreSQL container")
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate PostgreSQL container: %v", err)
		}
	})

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	cfg := config.DatabaseConfig{
		Host:     host,
		Port:     port.Port(),
		User:     "test",
		Password: "test",
		DBName:   "test_booking",
		SSLMode:  "disable",
	}

	// Poll until the server actually accepts connections.
	var db *gorm.DB
	require.Eventually(t, func() bool {
		db, err = database.Connect(cfg, zap.NewNop())
		return err == nil
	}, 30*time.Second, time.Second, "PostgreSQL not ready for connections")

	require.NoError(t, database.RunMigrations(migrations.FS, cfg.DatabaseURL(), zap.NewNop()))
	return db
}

// setupRedis starts redis and returns a client.
func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "failed to start redis container")
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate redis container: %v", err)
		}
	})

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: endpoint})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(ctx).Err())
	return client
}

// setupKafka starts a single-node broker and pre-creates the service topics.
func setupKafka(t *testing.T) []string {
	t.Helper()
	ctx := context.Background()

	kafkaContainer, err := kafkamodule.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err, "failed to start Kafka container")
	t.Cleanup(func() {
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate Kafka container: %v", err)
		}
	})

	brokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err, "failed to get Kafka brokers")

	createTopics(t, brokers, bookingTopic, listingTopic)
	return brokers
}

// discardPublisher satisfies application.EventPublisher for tests without a broker.
type discardPublisher struct{}

func (discardPublisher) PublishEvent(context.Context, string, kafka.CloudEvent) error { return nil }

// bookingStack holds wired-up booking service components.
type bookingStack struct {
	Service    *application.BookingService
	Bookings   *repository.GormBookingRepository
	Listings   listing.Repository
	Projection *application.ListingProjectionService
}

// setupBookingStack wires the service over db. listings defaults to the uncached repository.
func setupBookingStack(t *testing.T, db *gorm.DB, listings listing.Repository, publisher application.EventPublisher) *bookingStack {
	t.Helper()
	logger := zap.NewNop()

	if listings == nil {
		listings = repository.NewGormListingRepository(db)
	}
	if publisher == nil {
		publisher = discardPublisher{}
	}
	bookings := repository.NewGormBookingRepository(db)

	svc := application.NewBookingService(
		bookings,
		listings,
		database.NewTxManager(db),
		bookingDomain.NewNightlyPricingStrategy(10),
		publisher,
		bookingTopic,
		logger,
	)
	return &bookingStack{
		Service:    svc,
		Bookings:   bookings,
		Listings:   listings,
		Projection: application.NewListingProjectionService(listings, logger),
	}
}

// newListingConsumer creates a consumer in a fresh group.
func newListingConsumer(brokers []string, projector bookingEvents.ListingProjector) *bookingEvents.ListingEventConsumer {
	groupID := fmt.Sprintf("test-booking-%s", uuid.New().String()[:8])
	return bookingEvents.NewListingEventConsumer(brokers, groupID, listingTopic, projector, zap.NewNop())
}

// seedListing stores an active listing directly through the projection.
func seedListing(t *testing.T, stack *bookingStack, hostID uuid.UUID, price string, maxGuests int, instantBook bool) uuid.UUID {
	t.Helper()
	id := uuid.New()
	require.NoError(t, stack.Projection.ApplySnapshot(context.Background(), listing.SnapshotEvent{
		ListingID:     id,
		HostID:        hostID,
		PricePerNight: price,
		MaxGuests:     maxGuests,
		InstantBook:   instantBook,
		Status:        "active",
		UpdatedAt:     time.Now().UTC(),
	}))
	return id
}

// newStoredBooking builds a booking aggregate for direct repository writes.
func newStoredBooking(t *testing.T, listingID uuid.UUID, start, end string) *bookingDomain.Booking {
	t.Helper()
	s, err := bookingDomain.ParseDate(start)
	require.NoError(t, err)
	e, err := bookingDomain.ParseDate(end)
	require.NoError(t, err)
	stay, err := bookingDomain.NewStay(s, e)
	require.NoError(t, err)
	bk, err := bookingDomain.NewBooking(listingID, uuid.New(), stay, 2, stay.Nights()*10000, false)
	require.NoError(t, err)
	return bk
}

func requireKind(t *testing.T, err error, kind domain.ErrorKind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, domain.KindOf(err), "unexpected error: %v", err)
}

// publishTestEvent publishes a CloudEvent to Kafka.
func publishTestEvent(t *testing.T, brokers []string, topic, source, eventType, subject string, data interface{}) {
	t.Helper()
	producer := kafka.NewProducer(brokers, zap.NewNop())
	defer func() { _ = producer.Close() }()

	ce, err := kafka.NewCloudEvent(source, eventType, subject, data)
	require.NoError(t, err, "failed to create cloud event")

	err = producer.PublishEvent(context.Background(), topic, ce)
	require.NoError(t, err, "failed to publish event")
}

// consumeOneEvent reads from a Kafka topic until it finds an event of the expected type.
func consumeOneEvent(t *testing.T, brokers []string, topic, expectedType string, timeout time.Duration) kafka.CloudEvent {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	groupID := fmt.Sprintf("test-assert-%s", uuid.New().String()[:8])
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     brokers,
		GroupID:     groupID,
		Topic:       topic,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafkago.FirstOffset,
	})
	defer func() { _ = reader.Close() }()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				t.Fatalf("timed out waiting for event type %q on topic %q", expectedType, topic)
			}
			continue
		}
		ce, err := kafka.ParseCloudEvent(msg.Value)
		if err != nil {
			continue
		}
		if ce.Type == expectedType {
			return ce
		}
	}
}

// createTopics pre-creates Kafka topics so producers don't fail with "Unknown Topic".
func createTopics(t *testing.T, brokers []string, topics ...string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", brokers[0])
	require.NoError(t, err, "failed to dial Kafka for topic creation")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "failed to get Kafka controller")

	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, fmt.Sprintf("%d", controller.Port)))
	require.NoError(t, err, "failed to connect to Kafka controller")
	defer controllerConn.Close()

	topicConfigs := make([]kafkago.TopicConfig, len(topics))
	for i, topic := range topics {
		topicConfigs[i] = kafkago.TopicConfig{
			Topic:             topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		}
	}
	err = controllerConn.CreateTopics(topicConfigs...)
	require.NoError(t, err, "failed to create Kafka topics")

	// Give Kafka a moment to propagate topic metadata.
	time.Sleep(1 * time.Second)
}
