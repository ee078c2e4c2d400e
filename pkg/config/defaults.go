package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "campsite"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRateLimitRequests = 60
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 5 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 64 * 1024 // 64KB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	StorageFile   = "file"
	StorageMemory = "memory"
	StorageMongo  = "mongo"

	DefaultStorageBackend = StorageFile
	DefaultDatabaseFolder = "database"

	DefaultMinDaysAheadOfArrival = 1
	DefaultMaxDaysAheadOfArrival = 30
	DefaultMaxReservableDays     = 3

	DefaultShardMailboxSize      = 64
	DefaultCalendarCheckInterval = 1 * time.Minute

	DefaultEventsEnabled = false
)
