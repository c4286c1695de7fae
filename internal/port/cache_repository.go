package port

import "context"

type CacheRepository interface {
	// SetIdempotency sets a key for idempotency check, returns false if
	// it already exists.
	SetIdempotency(ctx context.Context, key string) (bool, error)

	// ReleaseIdempotency removes the key so the request id can be retried
	// (rollback on failed placement).
	ReleaseIdempotency(ctx context.Context, key string) error
}
