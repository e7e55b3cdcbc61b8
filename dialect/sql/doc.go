// Package sql implements the dialect.Driver contract on top of database/sql.
//
// The bulk engine only needs two primitives from the database: Exec for
// statements whose affected-row count is enough, and Query for statements with
// an output clause (RETURNING / OUTPUT). Both take the statement arguments as
// []any and a destination:
//
//	var res sql.Result
//	err := drv.Exec(ctx, query, args, &res)
//
//	var rows sql.Rows
//	err := drv.Query(ctx, query, args, &rows)
//	defer rows.Close()
//
// # Opening a Driver
//
//	drv, err := sql.Open(dialect.Postgres, dsn)
//
//	// Or wrap an existing pool / transaction:
//	drv := sql.OpenDB(dialect.SQLServer, db)
//	tx := sql.WrapTx(dialect.SQLServer, stdTx)
//
// # Decorators
//
// StatsDriver counts statements, parameters, commits and rollbacks and reports
// slow statements; DebugDriver logs every statement through log/slog.
//
//	drv = sql.NewStatsDriver(drv, sql.WithSlowLog(logger))
//
// # Constraint Errors
//
// Bulk statements surface driver errors unmodified. Constraint and the
// Is*ConstraintError helpers classify them for lib/pq, go-sql-driver/mysql,
// modernc.org/sqlite and SQL Server messages.
package sql
