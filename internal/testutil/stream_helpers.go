package testutil

import (
	"context"

	"github.com/Belphemur/MediaFetch/internal/models"
)

// AwaitResult waits for the single value delivered by a background operation.
// This is a test helper and should not be used in production code.
func AwaitResult[T any](ctx context.Context, stream <-chan models.StreamResult[T]) (T, error) {
	var zero T
	select {
	case result, ok := <-stream:
		if !ok {
			return zero, context.Canceled
		}
		return result.Value, result.Err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// DrainResults consumes a stream until it is closed and returns every value,
// stopping at the first error.
// This is a test helper and should not be used in production code.
func DrainResults[T any](ctx context.Context, stream <-chan models.StreamResult[T]) ([]T, error) {
	var values []T
	for {
		select {
		case result, ok := <-stream:
			if !ok {
				return values, nil
			}
			if result.Err != nil {
				return values, result.Err
			}
			values = append(values, result.Value)
		case <-ctx.Done():
			return values, ctx.Err()
		}
	}
}
