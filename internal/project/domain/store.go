package domain

import "context"

// Store is the ledger persistence collaborator: a string key-value store
// holding one serialized ledger per estimate ID. Implementations must be
// durable by the time Set returns.
type Store interface {
	// Get returns the stored value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	// Keys lists every stored estimate ID.
	Keys(ctx context.Context) ([]string, error)
}
