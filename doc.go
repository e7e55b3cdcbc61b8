// Package bulkwrite holds the error taxonomy shared by the bulk write engine
// and its supporting packages.
//
// The engine itself lives in package bulk. Package columns maps Go structs to
// column trees, package expr compiles predicates and assignments to SQL, and
// package dialect describes the backends (SQL Server, PostgreSQL, MySQL and
// SQLite) with dialect/sql executing statements over database/sql.
//
// Errors raised before a statement reaches the database are typed and can be
// matched with the Is helpers:
//
//	n, err := bulk.Merge(client, users, bulk.MergeUpsert).Exec(ctx)
//	switch {
//	case bulkwrite.IsNotSupported(err):
//		// retry with another strategy
//	case bulkwrite.IsUsageError(err):
//		// a builder was misconfigured
//	}
//
// Database errors are returned as the driver reported them.
package bulkwrite
