//go:build integration

package main_test

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	kafkamodule "github.com/testcontainers/testcontainers-go/modules/kafka"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/picktoride/service-rental/internal/application"
	bookingDomain "github.com/picktoride/service-rental/internal/domain/booking"
	rentalEvents "github.com/picktoride/service-rental/internal/events"
	"github.com/picktoride/service-rental/internal/messaging"
	"github.com/picktoride/service-rental/internal/platform/async"
	"github.com/picktoride/service-rental/internal/platform/auth"
	"github.com/picktoride/service-rental/internal/platform/database"
	"github.com/picktoride/service-rental/internal/platform/kafka"
	"github.com/picktoride/service-rental/internal/repository"
)

// testInfra holds shared test infrastructure.
type testInfra struct {
	DB           *gorm.DB
	KafkaBrokers []string
	Cleanup      func()
}

// rentalStack holds wired-up rental service components.
type rentalStack struct {
	Stores     application.Stores
	Bookings   *application.BookingService
	Payments   *application.PaymentService
	Fleet      *application.FleetService
	Dispatcher *async.Dispatcher
	Consumer   *rentalEvents.PaymentEventConsumer
	Cleanup    func()
}

var adminActor = application.Actor{UserID: uuid.New(), Role: auth.RoleAdmin}

// setupPostgres starts a PostgreSQL container and applies the SQL migrations.
func setupPostgres(t *testing.T) (*gorm.DB, func()) {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("test_rental"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		tcpostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err, "failed to start PostgreSQL container")

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, database.RunMigrations(connStr, "migrations", zap.NewNop()))

	db, err := gorm.Open(postgres.Open(connStr), &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	return db, func() {
		if err := testcontainers.TerminateContainer(pgContainer); err != nil {
			t.Logf("failed to terminate PostgreSQL container: %v", err)
		}
	}
}

// setupContainers starts PostgreSQL and Kafka testcontainers.
func setupContainers(t *testing.T) *testInfra {
	t.Helper()
	ctx := context.Background()

	db, stopPostgres := setupPostgres(t)

	// confluent-local runs KRaft without a separate zookeeper.
	kafkaContainer, err := kafkamodule.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err, "failed to start Kafka container")

	kafkaBrokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err, "failed to get Kafka brokers")

	createTopics(t, kafkaBrokers, messaging.TopicBookingEvents, messaging.TopicPaymentEvents)

	cleanup := func() {
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate Kafka container: %v", err)
		}
		stopPostgres()
	}

	return &testInfra{
		DB:           db,
		KafkaBrokers: kafkaBrokers,
		Cleanup:      cleanup,
	}
}

// setupRentalStack wires the rental services against db. brokers may be nil for database-only tests.
func setupRentalStack(t *testing.T, db *gorm.DB, brokers []string) *rentalStack {
	t.Helper()
	logger, _ := zap.NewDevelopment()

	stores := application.Stores{
		Bookings:      repository.NewGormBookingRepository(db),
		Cars:          repository.NewGormCarRepository(db),
		Staff:         repository.NewGormStaffRepository(db),
		Schedules:     repository.NewGormDriverScheduleRepository(db),
		Maintenance:   repository.NewGormMaintenanceRepository(db),
		Extensions:    repository.NewGormExtensionRepository(db),
		HandOvers:     repository.NewGormHandOverRepository(db),
		Returns:       repository.NewGormReturnRepository(db),
		Payments:      repository.NewGormPaymentRepository(db),
		Notifications: repository.NewGormNotificationRepository(db),
	}
	tx := database.NewTxManager(db)

	var (
		publisher application.EventPublisher
		producer  *kafka.Producer
	)
	if len(brokers) > 0 {
		producer = kafka.NewProducer(brokers, logger)
		publisher = rentalEvents.NewKafkaPublisher(producer)
	}

	dispatcher := async.NewDispatcher(logger)
	effects := application.NewSideEffects(dispatcher,
		application.NewNotificationService(stores.Notifications),
		application.NewAuditLogger(repository.NewGormAuditRepository(db)),
		publisher, logger)

	pricing := bookingDomain.NewStandardPricingStrategy(bookingDomain.DefaultDriverDailyRate, bookingDomain.DefaultBookingFee)
	bookings := application.NewBookingService(tx, stores, pricing, effects, logger)
	payments := application.NewPaymentService(tx, stores, bookings, effects, logger)

	stack := &rentalStack{
		Stores:     stores,
		Bookings:   bookings,
		Payments:   payments,
		Fleet:      application.NewFleetService(tx, stores, effects, logger),
		Dispatcher: dispatcher,
	}
	if len(brokers) > 0 {
		groupID := fmt.Sprintf("test-rental-%s", uuid.New().String()[:8])
		stack.Consumer = rentalEvents.NewPaymentEventConsumer(brokers, groupID, payments, logger)
	}
	stack.Cleanup = func() {
		dispatcher.Wait()
		if stack.Consumer != nil {
			_ = stack.Consumer.Close()
		}
		if producer != nil {
			_ = producer.Close()
		}
	}
	return stack
}

// seedCar registers an active car at the given daily rate.
func seedCar(t *testing.T, stack *rentalStack, dailyRate int64) uuid.UUID {
	t.Helper()
	car, err := stack.Fleet.RegisterCar(context.Background(), adminActor, application.RegisterCarRequest{
		Name:               "Toyota Aqua",
		Brand:              "Toyota",
		RegistrationNumber: "CAB-" + uuid.New().String()[:4],
		Category:           "Hatchback",
		DailyRate:          decimal.NewFromInt(dailyRate),
	})
	require.NoError(t, err)
	return car.ID
}

// seedDriver registers a staff member who can drive.
func seedDriver(t *testing.T, stack *rentalStack) uuid.UUID {
	t.Helper()
	driver, err := stack.Fleet.RegisterStaff(context.Background(), adminActor, application.RegisterStaffRequest{
		UserID:   uuid.New(),
		FullName: "Nimal Perera",
		IsDriver: true,
	})
	require.NoError(t, err)
	return driver.ID
}

// futureDate returns today plus days in the wire date format.
func futureDate(days int) string {
	return time.Now().UTC().AddDate(0, 0, days).Format(application.DateLayout)
}

// publishTestEvent publishes a CloudEvent to Kafka.
func publishTestEvent(t *testing.T, brokers []string, topic, source, eventType string, data interface{}) {
	t.Helper()
	logger, _ := zap.NewDevelopment()
	producer := kafka.NewProducer(brokers, logger)
	defer func() { _ = producer.Close() }()

	ce, err := kafka.NewCloudEvent(source, eventType, data)
	require.NoError(t, err, "failed to create cloud event")

	err = producer.PublishEvent(context.Background(), topic, ce)
	require.NoError(t, err, "failed to publish event")
}

// waitForBookingStatus polls the bookings table until the status matches.
func waitForBookingStatus(t *testing.T, db *gorm.DB, bookingID uuid.UUID, expectedStatus string, timeout time.Duration) repository.BookingModel {
	t.Helper()
	var result repository.BookingModel
	require.Eventually(t, func() bool {
		var model repository.BookingModel
		if err := db.Where("id = ?", bookingID).First(&model).Error; err != nil {
			return false
		}
		if model.Status == expectedStatus {
			result = model
			return true
		}
		return false
	}, timeout, 200*time.Millisecond, "booking did not transition to %s", expectedStatus)
	return result
}

// consumeOneEvent reads from a Kafka topic until it finds an event of the expected type.
func consumeOneEvent(t *testing.T, brokers []string, topic, expectedType string, timeout time.Duration) kafka.CloudEvent {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     brokers,
		GroupID:     fmt.Sprintf("test-assert-%s", uuid.New().String()[:8]),
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
	require.NoError(t, controllerConn.CreateTopics(topicConfigs...), "failed to create Kafka topics")

	time.Sleep(1 * time.Second)
}
