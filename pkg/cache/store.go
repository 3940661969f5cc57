package cache

import "context"

// Store is the key/value backend a Manager persists through. Get returns
// ErrNotFound (possibly wrapped) for a missing key. Implementations must be
// safe for concurrent use.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
