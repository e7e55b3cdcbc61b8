package dialect

import (
	"context"
)

// Dialect names for external usage.
const (
	Postgres  = "postgres"
	MySQL     = "mysql"
	SQLite    = "sqlite"
	SQLServer = "sqlserver"
)

// ExecQuerier wraps the 2 database operations.
type ExecQuerier interface {
	// Exec executes a query that does not return records. For example, in SQL,
	// INSERT or UPDATE. It scans the result into the pointer v. For SQL drivers,
	// it is dialect/sql.Result.
	Exec(ctx context.Context, query string, args, v any) error
	// Query executes a query that returns rows, typically a SELECT in SQL or a
	// statement with an output clause. It scans the result into the pointer v.
	// For SQL drivers, it is *dialect/sql.Rows.
	Query(ctx context.Context, query string, args, v any) error
}

// Driver is the interface that wraps all necessary operations for the bulk
// engine to talk to a database.
type Driver interface {
	ExecQuerier
	// Tx starts and returns a new transaction.
	// The provided context is used until the transaction is committed or rolled back.
	Tx(context.Context) (Tx, error)
	// Close closes the underlying connection.
	Close() error
	// Dialect returns the dialect name of the driver.
	Dialect() string
}

// Tx wraps the Exec and Query operations in transaction.
type Tx interface {
	ExecQuerier
	Commit() error
	Rollback() error
}

type txCtxKey struct{}

// NewTxContext returns a new context carrying an ambient transaction. Bulk
// operations executed with this context run on tx and never open a
// transaction of their own.
func NewTxContext(parent context.Context, tx Tx) context.Context {
	return context.WithValue(parent, txCtxKey{}, tx)
}

// TxFromContext returns the ambient transaction stored in ctx, if any.
func TxFromContext(ctx context.Context) Tx {
	tx, _ := ctx.Value(txCtxKey{}).(Tx)
	return tx
}
