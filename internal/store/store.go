// Package store persists categorized transactions and answers the dedup
// question "has this reference been seen before".
package store

import (
	"context"
	"errors"

	"github.com/insightdelivered/bank-sms-parser/internal/models"
)

// ErrNotFound is returned when no transaction matches a lookup.
var ErrNotFound = errors.New("transaction not found")

// ErrDuplicateReference is returned by Create when the reference is already stored.
var ErrDuplicateReference = errors.New("reference already stored")

// Store is the persistence boundary used by the ingest service.
type Store interface {
	// FindByReference returns the stored transaction with the given reference or ErrNotFound.
	FindByReference(ctx context.Context, ref string) (*models.StoredTransaction, error)
	// Create assigns ID and CreatedAt (when zero) and saves txn.
	Create(ctx context.Context, txn *models.StoredTransaction) error
	// List returns up to limit transactions, newest first.
	List(ctx context.Context, limit int) ([]models.StoredTransaction, error)
	Close() error
}
