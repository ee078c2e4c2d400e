package kafka_config

import "time"

const (
	// Default Kafka broker
	DefaultKafkaBrokers = "localhost:9092"

	// Topic defaults
	DefaultBookingTopic    = "campsite.bookings"
	DefaultBookingDLQTopic = "campsite.bookings.dlq"

	// Producer defaults
	DefaultProducerMaxAttempts    = 3
	DefaultProducerBatchTimeout   = 10 * time.Millisecond
	DefaultProducerRequireAcks    = -1 // Require all replicas
	DefaultProducerCompression    = "snappy"
	DefaultProducerAsync          = false
	DefaultProducerPublishTimeout = 5 * time.Second
	DefaultProducerPublishRetries = 2

	// Middleware defaults
	DefaultEnableMiddleware = true
)
