// Package storage provides abstractions for persistent ledger storage.
package storage

import (
	"context"

	"github.com/mmynk/subsplit/internal/models"
)

// Store persists the ledger as a single snapshot.
// This abstraction allows swapping storage backends (flat file, SQLite, Redis, S3)
// without changing the ledger.
type Store interface {
	// Load reads the whole ledger.
	// A store that has never been saved to returns an empty ledger, not an error.
	Load(ctx context.Context) (*models.Ledger, error)

	// Save replaces the persisted ledger with the given one.
	// A failed Save must leave the previously persisted ledger readable.
	Save(ctx context.Context, ledger *models.Ledger) error

	// Close releases any resources held by the store.
	Close() error
}
