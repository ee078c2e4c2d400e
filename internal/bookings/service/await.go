package service

import (
	"context"

	apperrors "campsite/pkg/errors"
)

type result[T any] struct {
	value T
	err   error
}

// await runs fn in its own goroutine and waits for it until ctx ends. A coordinator
// abandoned this way still finishes its commit or revert phase in the background.
func await[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	done := make(chan result[T], 1)
	go func() {
		v, err := fn()
		done <- result[T]{value: v, err: err}
	}()

	select {
	case r := <-done:
		return r.value, r.err
	case <-ctx.Done():
		var zero T
		return zero, apperrors.Timeout(apperrors.English.Lookup(apperrors.CodeTimeout))
	}
}
