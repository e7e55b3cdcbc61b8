package bulk

import (
	"context"
	"errors"
	"fmt"

	"github.com/syssam/bulkwrite"
	"github.com/syssam/bulkwrite/dialect"
	"github.com/syssam/bulkwrite/dialect/sql"
)

// BatchSize returns the number of objects that fit in one statement when
// every object binds perObject parameters: floor(maxParams/perObject),
// further capped by limit when positive. It returns 0 if a single object
// does not fit.
func BatchSize(maxParams, perObject, limit int) int {
	if perObject <= 0 {
		perObject = 1
	}
	n := maxParams / perObject
	if limit > 0 && limit < n {
		n = limit
	}
	return n
}

// Batches splits n objects into consecutive [lo, hi) ranges of at most size.
func Batches(n, size int) [][2]int {
	if n <= 0 || size <= 0 {
		return nil
	}
	out := make([][2]int, 0, (n+size-1)/size)
	for lo := 0; lo < n; lo += size {
		out = append(out, [2]int{lo, min(lo+size, n)})
	}
	return out
}

func (c *Client) batchSize(op string, perObject int, o execOptions) (int, error) {
	size := BatchSize(c.maxParameters(), perObject, o.batchSize)
	if size == 0 {
		return 0, bulkwrite.NewNotSupportedError(op, c.policy.Name(),
			"one object binds %d parameters, above the ceiling of %d; use the arrays values mode", perObject, c.maxParameters())
	}
	return size, nil
}

// batchFunc executes the statement for objects [lo, hi) on ex and returns
// the affected or output row count.
type batchFunc func(ctx context.Context, ex dialect.ExecQuerier, lo, hi int) (int64, error)

// run executes fn for every batch of n objects and sums the results. Any
// error stops the run: batches after it are not executed, and if the engine
// opened the transaction it is rolled back. With a caller, ambient or
// disabled transaction, batches that already ran stay applied and their
// count is returned alongside the error.
func (c *Client) run(ctx context.Context, op string, t *target, n, size int, o execOptions, fn batchFunc) (int64, error) {
	batches := Batches(n, size)
	if len(batches) == 0 {
		return 0, nil
	}
	ex, tx, err := c.executor(ctx, o, len(batches))
	if err != nil {
		return 0, err
	}
	var total int64
	for i, b := range batches {
		affected, err := c.batch(ctx, ex, b[0], b[1], fn)
		if err != nil {
			if tx != nil {
				return 0, c.rollback(ctx, tx, op, t, err)
			}
			return total, err
		}
		total += affected
		c.logger.DebugContext(ctx, "bulk batch",
			"op", op,
			"entity", t.name,
			"batch", i+1,
			"batches", len(batches),
			"rows", b[1]-b[0],
			"affected", affected,
		)
	}
	if tx != nil {
		if err := tx.Commit(); err != nil {
			return 0, fmt.Errorf("bulk: %s: commit: %w", op, err)
		}
	}
	return total, nil
}

func (c *Client) batch(ctx context.Context, ex dialect.ExecQuerier, lo, hi int, fn batchFunc) (int64, error) {
	if c.config.CommandTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.CommandTimeout)
		defer cancel()
	}
	return fn(ctx, ex, lo, hi)
}

// executor decides where the batches run. A caller transaction wins over an
// ambient one, an ambient one over the engine's own. The engine opens a
// transaction only for more than one batch and only if not opted out; the
// returned Tx is non-nil exactly when the engine owns it.
func (c *Client) executor(ctx context.Context, o execOptions, batches int) (dialect.ExecQuerier, dialect.Tx, error) {
	if o.tx != nil {
		return o.tx, nil, nil
	}
	if tx := dialect.TxFromContext(ctx); tx != nil {
		return tx, nil, nil
	}
	if o.noInnerTx || batches <= 1 {
		return c.driver, nil, nil
	}
	tx, err := c.driver.Tx(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("bulk: begin transaction: %w", err)
	}
	return tx, tx, nil
}

func (c *Client) rollback(ctx context.Context, tx dialect.Tx, op string, t *target, err error) error {
	c.logger.WarnContext(ctx, "bulk rollback", "op", op, "entity", t.name, "error", err)
	if rerr := tx.Rollback(); rerr != nil {
		return errors.Join(err, &bulkwrite.RollbackError{Err: rerr})
	}
	return err
}

func (c *Client) logStatement(ctx context.Context, op, query string, args []any) {
	if c.config.LogStatements {
		c.logger.DebugContext(ctx, "bulk statement", "op", op, "sql", query, "params", len(args))
	}
}

// execStatement runs a statement without output and returns the affected
// row count.
func (c *Client) execStatement(ctx context.Context, ex dialect.ExecQuerier, op, query string, args []any) (int64, error) {
	c.logStatement(ctx, op, query, args)
	var res sql.Result
	if err := ex.Exec(ctx, query, args, &res); err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// queryStatement runs a statement with an output clause and hands its rows
// to read.
func (c *Client) queryStatement(ctx context.Context, ex dialect.ExecQuerier, op, query string, args []any, read func(*sql.Rows) (int64, error)) (int64, error) {
	c.logStatement(ctx, op, query, args)
	rows := &sql.Rows{}
	if err := ex.Query(ctx, query, args, rows); err != nil {
		return 0, err
	}
	defer rows.Close()
	n, err := read(rows)
	if err != nil {
		return n, err
	}
	return n, rows.Err()
}
