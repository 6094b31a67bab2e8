// Package repository provides data access abstractions for the Depotrack
// application. It implements the Repository pattern to separate data access
// concerns from business logic.
package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

// Queryable defines the common interface between *sqlx.DB and *sqlx.Tx.
// This allows repositories to work seamlessly with both direct queries and transactions.
type Queryable interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	Rebind(query string) string
}

// Compile-time verification that sqlx.DB and sqlx.Tx implement Queryable
var (
	_ Queryable = (*sqlx.DB)(nil)
	_ Queryable = (*sqlx.Tx)(nil)
)
