package store

import (
	"context"
	"database/sql"
)

// Execer is satisfied by both *sqlx.DB and *sqlx.Tx. Mutating store methods
// take one explicitly so the caller decides the transaction boundary.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type Getter interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
}

type Selecter interface {
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}

// DB is the read-side handle stores are constructed with.
type DB interface {
	Execer
	Getter
	Selecter
}
