package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/openbaseline/compliance/internal/domain/repository"
)

type txContextKey struct{}

// GormTxManager implements repository.TxManager on gorm. The transaction
// handle travels in the context so every repository called inside fn joins the
// same transaction without knowing about it.
type GormTxManager struct {
	db *gorm.DB
}

// NewTxManager creates a GormTxManager.
func NewTxManager(db *gorm.DB) repository.TxManager {
	return &GormTxManager{db: db}
}

// WithinTransaction runs fn inside one transaction. Nested calls join the
// already-open transaction instead of starting a new one.
func (m *GormTxManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txContextKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txContextKey{}, tx))
	})
}

// dbFromContext returns the transaction carried in ctx, or the shared pool
// when no transaction is open.
func dbFromContext(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txContextKey{}).(*gorm.DB); ok {
		return tx
	}
	return fallback.WithContext(ctx)
}
