package sql

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/syssam/bulkwrite/dialect"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenDB(t *testing.T) {
	tests := []struct {
		name    string
		dialect string
		want    string
	}{
		{"Postgres", dialect.Postgres, dialect.Postgres},
		{"MySQL", dialect.MySQL, dialect.MySQL},
		{"SQLite", dialect.SQLite, dialect.SQLite},
		{"SQLServer", dialect.SQLServer, dialect.SQLServer},
		{"Wrapped", "postgres+otel", dialect.Postgres},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, _, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			drv := OpenDB(tt.dialect, db)
			assert.NotNil(t, drv)
			assert.Equal(t, tt.want, drv.Dialect())
			assert.Same(t, db, drv.DB())
		})
	}
}

func TestDriverQuery(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	drv := OpenDB(dialect.Postgres, db)

	t.Run("returning", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO "users" \("name"\) VALUES \(\$1\) RETURNING "id"`).
			WithArgs("Alice").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

		rows := &Rows{}
		err := drv.Query(context.Background(), `INSERT INTO "users" ("name") VALUES ($1) RETURNING "id"`, []any{"Alice"}, rows)
		require.NoError(t, err)
		require.True(t, rows.Next())
		var id int64
		require.NoError(t, rows.Scan(&id))
		assert.Equal(t, int64(7), id)
		require.NoError(t, rows.Close())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("query_error", func(t *testing.T) {
		mock.ExpectQuery("SELECT").WillReturnError(errors.New("database error"))

		rows := &Rows{}
		err := drv.Query(context.Background(), "SELECT", []any{}, rows)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "dialect/sql: query: database error")
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("invalid_destination", func(t *testing.T) {
		err := drv.Query(context.Background(), "SELECT 1", []any{}, &sql.Rows{})
		require.Error(t, err)
		err = drv.Query(context.Background(), "SELECT 1", "args", &Rows{})
		require.Error(t, err)
	})
}

func TestDriverExec(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	drv := OpenDB(dialect.Postgres, db)

	t.Run("result", func(t *testing.T) {
		mock.ExpectExec(`DELETE FROM "users" WHERE "age" > 30`).
			WillReturnResult(sqlmock.NewResult(0, 4))

		var res Result
		err := drv.Exec(context.Background(), `DELETE FROM "users" WHERE "age" > 30`, []any{}, &res)
		require.NoError(t, err)
		n, err := res.RowsAffected()
		require.NoError(t, err)
		assert.Equal(t, int64(4), n)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("exec_error_is_wrapped", func(t *testing.T) {
		cause := errors.New("constraint violation")
		mock.ExpectExec("DELETE").WillReturnError(cause)

		err := drv.Exec(context.Background(), "DELETE FROM users", []any{}, nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, cause)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("invalid_destination", func(t *testing.T) {
		var n int
		err := drv.Exec(context.Background(), "DELETE FROM users", []any{}, &n)
		require.Error(t, err)
	})
}

func TestDriverTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	drv := OpenDB(dialect.Postgres, db)

	t.Run("commit", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO users").WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		tx, err := drv.Tx(context.Background())
		require.NoError(t, err)
		require.NoError(t, tx.Exec(context.Background(), "INSERT INTO users (name) VALUES ('test')", []any{}, nil))
		require.NoError(t, tx.Commit())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rollback", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO users").WillReturnError(errors.New("error"))
		mock.ExpectRollback()

		tx, err := drv.Tx(context.Background())
		require.NoError(t, err)
		require.Error(t, tx.Exec(context.Background(), "INSERT INTO users (name) VALUES ('test')", []any{}, nil))
		require.NoError(t, tx.Rollback())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("wrap_external_tx", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE users").WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectCommit()

		stdTx, err := db.Begin()
		require.NoError(t, err)
		tx := WrapTx(dialect.Postgres, stdTx)
		require.NoError(t, tx.Exec(context.Background(), "UPDATE users SET active = TRUE", []any{}, nil))
		require.NoError(t, tx.Commit())
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestContextCancellation(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	drv := OpenDB(dialect.Postgres, db)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	mock.ExpectQuery("SELECT").WillReturnError(context.Canceled)
	rows := &Rows{}
	err = drv.Query(ctx, "SELECT 1", []any{}, rows)
	assert.Error(t, err)
}
