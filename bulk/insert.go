package bulk

import (
	"context"
	"reflect"

	"github.com/syssam/bulkwrite"
	"github.com/syssam/bulkwrite/columns"
	"github.com/syssam/bulkwrite/dialect"
	"github.com/syssam/bulkwrite/dialect/sql"
)

// InsertBuilder is the builder for inserting a slice of objects.
type InsertBuilder[T any] struct {
	client  *Client
	rows    []*T
	columns columns.Policy
	output  columns.Policy
}

// Insert returns a builder inserting rows. By default every mapped column
// except generated ones is inserted and nothing is read back.
func Insert[T any](c *Client, rows []*T) *InsertBuilder[T] {
	return &InsertBuilder[T]{
		client:  c,
		rows:    rows,
		columns: columns.Policy{Generated: columns.Exclude},
		output:  columns.Policy{ExcludeAll: true},
	}
}

// Columns sets the inserted columns.
func (b *InsertBuilder[T]) Columns(p columns.Policy) *InsertBuilder[T] {
	b.columns = p
	return b
}

// Returning reads the selected columns of the inserted rows back into the
// objects, e.g. database generated keys.
func (b *InsertBuilder[T]) Returning(p columns.Policy) *InsertBuilder[T] {
	b.output = p
	return b
}

// ReturningGenerated reads generated columns back into the objects.
func (b *InsertBuilder[T]) ReturningGenerated() *InsertBuilder[T] {
	return b.Returning(columns.Policy{ExcludeAll: true, Generated: columns.Include})
}

// Exec inserts the rows and returns the number of affected rows, or of
// rows read back when output columns are selected.
func (b *InsertBuilder[T]) Exec(ctx context.Context, opts ...ExecOption) (int64, error) {
	const op = "insert"
	c := b.client
	t, err := c.target(reflect.TypeFor[T]())
	if err != nil {
		return 0, err
	}
	cols := columns.Select(t.tree, b.columns)
	if len(cols) == 0 {
		return 0, bulkwrite.NewUsageError(op, "no columns selected for %s", t.name)
	}
	out := columns.Select(t.tree, b.output)
	if len(out) > 0 && c.policy.OutputKeyword() == "" {
		return 0, bulkwrite.NewNotSupportedError(op, c.policy.Name(), "output columns")
	}
	if err := checkRows(op, b.rows); err != nil {
		return 0, err
	}
	o := c.execOptions(opts)
	if c.arrays() {
		return b.execArrays(ctx, t, cols, out, o)
	}
	size, err := c.batchSize(op, len(cols), o)
	if err != nil {
		return 0, err
	}
	return c.run(ctx, op, t, len(b.rows), size, o, func(ctx context.Context, ex dialect.ExecQuerier, lo, hi int) (int64, error) {
		objs := b.rows[lo:hi]
		vals, err := values(cols, objs)
		if err != nil {
			return 0, err
		}
		s := newBuilder(c.policy)
		switch {
		case len(out) == 0:
			insertValues(s, t, cols, vals)
			return c.execStatement(ctx, ex, op, s.String(), s.Args())
		case c.policy.OutputInline():
			// An INSERT ... OUTPUT cannot see source columns; a MERGE that
			// never matches can, so its output carries the object index.
			m := &mergePlan{t: t, variant: MergeInsert, insert: cols, source: cols, out: out, indexed: true}
			c.mergeStatement(s, m, vals)
			return c.queryStatement(ctx, ex, op, s.String(), s.Args(), func(rows *sql.Rows) (int64, error) {
				return readOutput(rows, out, correlation{indexed: true}, assignTo(objs, out))
			})
		default:
			insertValues(s, t, cols, vals)
			s.Output(out, "", dialect.Inserted, false)
			return c.queryStatement(ctx, ex, op, s.String(), s.Args(), func(rows *sql.Rows) (int64, error) {
				return readOutput(rows, out, correlation{}, assignTo(objs, out))
			})
		}
	})
}

// execArrays inserts all rows in one statement binding a single array per
// column.
func (b *InsertBuilder[T]) execArrays(ctx context.Context, t *target, cols, out []*columns.Property, o execOptions) (int64, error) {
	const op = "insert"
	c := b.client
	if c.policy.ArrayArg(nil) == nil {
		return 0, bulkwrite.NewNotSupportedError(op, c.policy.Name(), "the arrays values mode")
	}
	if err := c.requireTypes(t, cols); err != nil {
		return 0, err
	}
	n := len(b.rows)
	return c.run(ctx, op, t, n, n, o, func(ctx context.Context, ex dialect.ExecQuerier, _, _ int) (int64, error) {
		vals, err := values(cols, b.rows)
		if err != nil {
			return 0, err
		}
		s := newBuilder(c.policy)
		s.WriteString("INSERT INTO ")
		s.WriteString(t.table)
		s.WriteByte(' ')
		s.Columns(cols)
		s.WriteString(" SELECT * FROM unnest(")
		s.Arrays(cols, vals)
		s.WriteByte(')')
		if len(out) == 0 {
			return c.execStatement(ctx, ex, op, s.String(), s.Args())
		}
		s.Output(out, "", dialect.Inserted, false)
		return c.queryStatement(ctx, ex, op, s.String(), s.Args(), func(rows *sql.Rows) (int64, error) {
			return readOutput(rows, out, correlation{}, assignTo(b.rows, out))
		})
	})
}

// insertValues writes INSERT INTO <table> (<cols>) VALUES <tuples>.
func insertValues(s *builder, t *target, cols []*columns.Property, vals [][]any) {
	s.WriteString("INSERT INTO ")
	s.WriteString(t.table)
	s.WriteByte(' ')
	s.Columns(cols)
	s.WriteString(" VALUES ")
	s.Tuples(cols, vals, false, false)
}
