package database

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
)

type txKey struct{}

// TxManager runs functions inside a database transaction carried on the context.
type TxManager struct {
	db *gorm.DB
}

// NewTxManager creates a TxManager over db.
func NewTxManager(db *gorm.DB) *TxManager {
	return &TxManager{db: db}
}

// WithinTransaction runs fn in a READ COMMITTED transaction. Repositories obtain the
// transaction via Conn. Nested calls reuse the outer transaction.
func (m *TxManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	}, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
}

// Conn returns the transaction bound to ctx, or db scoped to ctx when there is none.
func Conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}
