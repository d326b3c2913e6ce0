package repository

import (
	"context"
	"database/sql"
)

// DBTX is the subset of sqlx operations shared by *sqlx.DB and
// *sqlx.Tx, so repository methods run unchanged inside or outside a
// transaction.
type DBTX interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}
