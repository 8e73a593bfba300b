// Package metadata is a small key-value repository over the local SQLite
// database. The session store uses it as a persistent cell.
package metadata

import (
	"context"
)

// Repository stores opaque values by key. Get returns (nil, nil) for a
// missing key; Delete of a missing key is not an error.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error

	// List returns every pair whose key starts with prefix ("" for all).
	List(ctx context.Context, prefix string) (map[string][]byte, error)

	// Clear deletes every key that starts with prefix ("" for all).
	Clear(ctx context.Context, prefix string) error
}
