// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/snapledger/snapledger/internal/model"
)

// AnalysisGateway submits a captured receipt image for analysis and
// returns the extracted draft transaction. Implementations are treated
// as untrusted and unreliable: any rejection or malformed response
// surfaces as an error, which the batch store records on the item.
type AnalysisGateway interface {
	Analyze(ctx context.Context, image model.CapturedImage) (*model.DraftTransaction, error)
}

// Persister commits an accepted draft transaction to durable storage.
// Commits are per item, never transactional across a batch.
type Persister interface {
	SaveTransaction(ctx context.Context, tx model.DraftTransaction) (string, error)
}

// TransactionFilter defines filtering options for committed-transaction queries.
type TransactionFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	Merchant  string
	Limit     int
	Offset    int
}

// TransactionStore is the full contract of the persistence layer,
// extending Persister with the read/delete surface used by the CLI.
type TransactionStore interface {
	Persister
	GetTransactionByID(ctx context.Context, id string) (*model.DraftTransaction, error)
	GetTransactions(ctx context.Context, filter TransactionFilter) ([]model.DraftTransaction, error)
	DeleteTransaction(ctx context.Context, id string) error
	Migrate(ctx context.Context) error
	Close() error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
