package errors

import "errors"

var (
	ErrShardStopped = errors.New("shard is stopped")

	ErrRouterStopped = errors.New("date router is stopped")

	ErrRouterInactive = errors.New("date router is not active")

	ErrCorruptLog = errors.New("shard log is corrupt")

	ErrInvariantViolation = errors.New("booking engine invariant violated")

	ErrUnknownDate = errors.New("no shard for date")

	ErrPartialCommit = errors.New("commit did not reach every date")
)
