package events

import (
	"context"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/picktoride/service-rental/internal/application"
	"github.com/picktoride/service-rental/internal/messaging"
	"github.com/picktoride/service-rental/internal/platform/domain"
	"github.com/picktoride/service-rental/internal/platform/kafka"
)

// PaymentRecorder applies a payment cleared by the gateway.
type PaymentRecorder interface {
	RecordExternalPayment(ctx context.Context, evt messaging.PaymentSucceededEvent) (*application.BookingDTO, error)
}

// PaymentEventConsumer listens to payment events and confirms the paid bookings.
type PaymentEventConsumer struct {
	consumer *kafka.Consumer
	payments PaymentRecorder
	logger   *zap.Logger
}

// NewPaymentEventConsumer creates a new PaymentEventConsumer.
func NewPaymentEventConsumer(
	brokers []string,
	groupID string,
	payments PaymentRecorder,
	logger *zap.Logger,
) *PaymentEventConsumer {
	consumer := kafka.NewConsumer(brokers, groupID, messaging.TopicPaymentEvents, logger)
	return &PaymentEventConsumer{
		consumer: consumer,
		payments: payments,
		logger:   logger,
	}
}

// Start begins consuming payment events. This blocks until the context is cancelled.
func (c *PaymentEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *PaymentEventConsumer) Close() error {
	return c.consumer.Close()
}

func (c *PaymentEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	cloudEvent, err := kafka.ParseCloudEvent(msg.Value)
	if err != nil {
		c.logger.Error("dropping malformed payment message",
			zap.Error(err),
			zap.Int64("offset", msg.Offset),
		)
		return nil
	}

	switch cloudEvent.Type {
	case messaging.PaymentSucceeded:
		return c.handlePaymentSucceeded(ctx, cloudEvent)
	default:
		c.logger.Debug("ignoring unhandled payment event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}
}

func (c *PaymentEventConsumer) handlePaymentSucceeded(ctx context.Context, cloudEvent kafka.CloudEvent) error {
	var evt messaging.PaymentSucceededEvent
	if err := cloudEvent.ParseData(&evt); err != nil {
		c.logger.Error("failed to parse PaymentSucceededEvent data", zap.Error(err))
		return nil
	}

	log := c.logger.With(
		zap.String("booking_id", evt.BookingID.String()),
		zap.String("payment_id", evt.PaymentID.String()),
	)
	log.Info("processing payment succeeded event")

	result, err := c.payments.RecordExternalPayment(ctx, evt)
	if err != nil {
		// Business rejections will not succeed on redelivery.
		if appErr, ok := domain.AsAppError(err); ok {
			log.Warn("payment event rejected",
				zap.String("code", string(appErr.Code)),
				zap.String("reason", appErr.Message),
			)
			return nil
		}
		log.Error("failed to record payment", zap.Error(err))
		return err
	}

	log.Info("booking confirmed by payment", zap.String("booking_code", result.BookingCode))
	return nil
}
