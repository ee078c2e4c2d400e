package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvStorageBackend = "STORAGE_BACKEND"
	EnvDatabaseFolder = "DATABASE_FOLDER"

	EnvMinDaysAheadOfArrival = "MIN_DAYS_AHEAD_OF_ARRIVAL"
	EnvMaxDaysAheadOfArrival = "MAX_DAYS_AHEAD_OF_ARRIVAL"
	EnvMaxReservableDays     = "MAX_RESERVABLE_DAYS"

	EnvShardMailboxSize      = "SHARD_MAILBOX_SIZE"
	EnvCalendarCheckInterval = "CALENDAR_CHECK_INTERVAL"

	EnvEventsEnabled = "EVENTS_ENABLED"
)
