// Package dialect provides database dialect abstraction for bulk writes.
//
// This package defines the driver contracts the bulk engine executes on and
// the Policy that captures everything backend specific about the generated
// statement text: identifier quoting, parameter markers, literal formatting,
// output clauses and parameter limits.
//
// # Supported Dialects
//
//   - Postgres: PostgreSQL (MERGE ... RETURNING needs 17+)
//   - SQLServer: Microsoft SQL Server
//   - SQLite: SQLite 3.35+
//   - MySQL: MySQL/MariaDB (no output clause, no MERGE)
//
// # Driver Interface
//
//	type Driver interface {
//	    Exec(ctx context.Context, query string, args, v any) error
//	    Query(ctx context.Context, query string, args, v any) error
//	    Tx(ctx context.Context) (Tx, error)
//	    Close() error
//	    Dialect() string
//	}
//
// # Ambient Transactions
//
// A transaction attached to a context with NewTxContext is picked up by every
// bulk operation executed with that context:
//
//	tx, _ := drv.Tx(ctx)
//	ctx = dialect.NewTxContext(ctx, tx)
//	_, err := bulk.Insert(client, rows).Exec(ctx) // runs on tx
//
// # Policies
//
//	p := dialect.MustLookup(dialect.Postgres)
//	p.Quote("user")          // "user"
//	p.Placeholder("Name0", 1) // $1
package dialect
