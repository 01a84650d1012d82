package store

import "context"

// Keys of the durable client-side entries.
const (
	KeyAuth    = "sheetify.auth"
	KeySession = "sheetify.session"
)

// Store persists small opaque values under fixed keys. Writes are full
// overwrites; there is no read-modify-write.
type Store interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error

	// Lifecycle
	Close() error
	Migrate(ctx context.Context) error
}
