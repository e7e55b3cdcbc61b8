package sql

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	"github.com/syssam/bulkwrite/dialect"
)

func BenchmarkConstraint(b *testing.B) {
	errs := []error{
		&pq.Error{Code: "23505"},
		fmt.Errorf("dialect/sql: exec: %w", &pq.Error{Code: "23503"}),
		errors.New("UNIQUE constraint failed: users.email"),
		errors.New("connection reset by peer"),
	}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		Constraint(errs[i%len(errs)])
	}
}

func BenchmarkStatsDriverExec(b *testing.B) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	if err != nil {
		b.Fatal(err)
	}
	defer db.Close()

	const query = `INSERT INTO "users" ("name") VALUES ($1)`
	for i := 0; i < b.N; i++ {
		mock.ExpectExec(query).WillReturnResult(sqlmock.NewResult(1, 1))
	}
	drv := NewStatsDriver(OpenDB(dialect.Postgres, db))
	ctx := context.Background()
	args := []any{"a8m"}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := drv.Exec(ctx, query, args, nil); err != nil {
			b.Fatal(err)
		}
	}
}
