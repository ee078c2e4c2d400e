package events

import (
	"context"
	"fmt"
	"time"

	"campsite/pkg/kafka"
	kafka_config "campsite/pkg/kafka/config"
	kafka_middleware "campsite/pkg/kafka/middleware"
	"campsite/pkg/logger"
	"campsite/pkg/middleware"
)

const source = "campsite-bookings"

// Producer is the part of kafka.Producer the publisher needs.
type Producer interface {
	Publish(ctx context.Context, msg kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	producer Producer
	timeout  time.Duration
	retries  int
	backoff  time.Duration
	log      *logger.Logger
}

// NewKafkaPublisher connects a producer for the booking topic and installs the
// logging and metrics middleware when enabled.
func NewKafkaPublisher(cfg *kafka_config.Config, metrics *kafka_middleware.Metrics, log *logger.Logger) (*KafkaPublisher, error) {
	log = log.Component("events")
	producer, err := kafka.NewProducer(cfg, cfg.BookingTopic, cfg.BookingDLQTopic, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create booking producer: %w", err)
	}
	if cfg.EnableMiddleware {
		producer.Use(kafka_middleware.LoggingProducerMiddleware(log))
		producer.Use(kafka_middleware.MetricsProducerMiddleware(metrics))
	}
	return NewPublisher(producer, cfg.ProducerPublishTimeout, cfg.ProducerPublishRetries, log), nil
}

func NewPublisher(producer Producer, timeout time.Duration, retries int, log *logger.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		producer: producer,
		timeout:  timeout,
		retries:  retries,
		backoff:  100 * time.Millisecond,
		log:      log,
	}
}

// Publish sends ev keyed by booking id, so the events of one booking stay ordered.
// Transient failures are retried; the caller's cancellation is not inherited because
// the booking change it reports is already committed.
func (p *KafkaPublisher) Publish(ctx context.Context, ev BookingEvent) error {
	msg, err := kafka.NewMessage().
		WithKey(ev.BookingID).
		WithValue(ev).
		WithEventType(string(ev.Type)).
		WithSchemaVersion(SchemaVersion).
		WithSource(source).
		WithCorrelationID(middleware.RequestIDFromContext(ctx)).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build %s event: %w", ev.Type, err)
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()

	for attempt := 0; ; attempt++ {
		err = p.producer.Publish(ctx, msg)
		if !kafka.ShouldRetry(err, attempt, p.retries) {
			break
		}
		p.log.Warn("Retrying event publish",
			"event_type", ev.Type,
			"booking_id", ev.BookingID,
			"attempt", attempt+1,
			"error", err,
		)
		select {
		case <-time.After(p.backoff * time.Duration(attempt+1)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err != nil {
		return fmt.Errorf("failed to publish %s event: %w", ev.Type, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
