package repository

import "context"

// TxManager runs a function within a storage transaction. Repositories called
// with the context passed to fn participate in the same transaction, which is
// how result ingestion and cache recomputation stay atomic: a reader can
// never observe a test result without its corresponding cache update.
type TxManager interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
