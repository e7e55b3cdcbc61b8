package sql

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/bulkwrite/dialect"
)

func TestStatsDriver(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	var slow []string
	drv := NewStatsDriver(OpenDB(dialect.SQLite, db),
		WithSlowThreshold(0),
		WithSlowHook(func(_ context.Context, query string, args []any, _ time.Duration) {
			slow = append(slow, query)
		}),
	)
	assert.Equal(t, dialect.SQLite, drv.Dialect())
	assert.Equal(t, time.Duration(0), drv.SlowThreshold())

	mock.ExpectExec("INSERT INTO").WithArgs("a", "b").WillReturnResult(sqlmock.NewResult(2, 2))
	mock.ExpectQuery("DELETE FROM").WillReturnError(errors.New("boom"))

	require.NoError(t, drv.Exec(context.Background(), `INSERT INTO "t" ("n") VALUES (?), (?)`, []any{"a", "b"}, nil))
	require.Error(t, drv.Query(context.Background(), `DELETE FROM "t" RETURNING "id"`, []any{}, &Rows{}))
	require.NoError(t, mock.ExpectationsWereMet())

	s := drv.Stats().Snapshot()
	assert.Equal(t, int64(1), s.Execs)
	assert.Equal(t, int64(1), s.Queries)
	assert.Equal(t, int64(2), s.Statements())
	assert.Equal(t, int64(2), s.Params)
	assert.Equal(t, int64(1), s.Errors)
	assert.Equal(t, int64(2), s.Slow)
	assert.Len(t, slow, 2)
	assert.Contains(t, s.String(), "execs=1")

	drv.Stats().Reset()
	assert.Equal(t, StatsSnapshot{}, drv.Stats().Snapshot())
}

func TestStatsTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	drv := NewStatsDriver(OpenDB(dialect.Postgres, db), WithSlowThreshold(time.Hour))

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectRollback()

	tx, err := drv.Tx(context.Background())
	require.NoError(t, err)
	require.NoError(t, tx.Exec(context.Background(), "UPDATE t SET n = 1", []any{}, nil))
	require.NoError(t, tx.Commit())

	tx, err = drv.Tx(context.Background())
	require.NoError(t, err)
	require.NoError(t, tx.Rollback())
	require.NoError(t, mock.ExpectationsWereMet())

	s := drv.Stats().Snapshot()
	assert.Equal(t, int64(1), s.Execs)
	assert.Equal(t, int64(1), s.Commits)
	assert.Equal(t, int64(1), s.Rollbacks)
	assert.Zero(t, s.Slow)
}

func TestStatsSnapshotAvg(t *testing.T) {
	assert.Zero(t, StatsSnapshot{}.AvgDuration())
	s := StatsSnapshot{Queries: 1, Execs: 3, Duration: 8 * time.Millisecond}
	assert.Equal(t, 2*time.Millisecond, s.AvgDuration())
}

func TestDebugDriver(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	drv := NewDebugDriver(OpenDB(dialect.MySQL, db), DebugWithLogger(logger))

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	tx, err := drv.Tx(context.Background())
	require.NoError(t, err)
	require.NoError(t, tx.Exec(context.Background(), "DELETE FROM `t` WHERE `n` > 1", []any{}, nil))
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())

	out := buf.String()
	assert.Contains(t, out, "begin transaction")
	assert.Contains(t, out, "bulk tx exec")
	assert.Contains(t, out, "commit transaction")
}

func TestDebugDriverLevel(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	drv := NewDebugDriver(OpenDB(dialect.MySQL, db), DebugWithLogger(logger))

	mock.ExpectExec("DELETE FROM").WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, drv.Exec(context.Background(), "DELETE FROM t", []any{}, nil))
	assert.Empty(t, buf.String())

	drv = NewDebugDriver(OpenDB(dialect.MySQL, db), DebugWithLogger(logger), DebugWithLevel(slog.LevelInfo))
	mock.ExpectExec("DELETE FROM").WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, drv.Exec(context.Background(), "DELETE FROM t", []any{}, nil))
	assert.Contains(t, buf.String(), "bulk exec")
}
