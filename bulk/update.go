package bulk

import (
	"context"
	"reflect"
	"strconv"
	"strings"

	"github.com/syssam/bulkwrite"
	"github.com/syssam/bulkwrite/columns"
	"github.com/syssam/bulkwrite/dialect"
	"github.com/syssam/bulkwrite/dialect/sql"
	"github.com/syssam/bulkwrite/expr"
)

// UpdateBuilder is the builder for updating every row matching a predicate
// in one statement.
type UpdateBuilder[T any] struct {
	client  *Client
	where   *expr.Lambda
	sets    []*expr.Lambda
	values  *T
	columns columns.Policy
	limit   int
	output  columns.Policy
}

// Update returns a builder updating rows of the table of T.
func Update[T any](c *Client) *UpdateBuilder[T] {
	return &UpdateBuilder[T]{
		client: c,
		output: columns.Policy{ExcludeAll: true},
	}
}

// Where sets the predicate, a lambda over the row, e.g.
//
//	expr.Fn(expr.GT(expr.F("u", "Age"), expr.C(18)), "u")
//
// An update without a predicate is rejected.
func (b *UpdateBuilder[T]) Where(pred *expr.Lambda) *UpdateBuilder[T] {
	b.where = pred
	return b
}

// Set adds assignments computed by the database. Each is a lambda over the
// row whose body is an *expr.Assign.
func (b *UpdateBuilder[T]) Set(assigns ...*expr.Lambda) *UpdateBuilder[T] {
	b.sets = append(b.sets, assigns...)
	return b
}

// SetValues assigns the members of obj selected by p as bound parameters.
func (b *UpdateBuilder[T]) SetValues(obj *T, p columns.Policy) *UpdateBuilder[T] {
	b.values = obj
	b.columns = p
	return b
}

// Limit caps the number of updated rows.
func (b *UpdateBuilder[T]) Limit(n int) *UpdateBuilder[T] {
	b.limit = n
	return b
}

// Returning selects the columns read back by Exec and Query.
func (b *UpdateBuilder[T]) Returning(p columns.Policy) *UpdateBuilder[T] {
	b.output = p
	return b
}

// Exec runs the update and returns the number of updated rows.
func (b *UpdateBuilder[T]) Exec(ctx context.Context, opts ...ExecOption) (int64, error) {
	t, err := b.client.target(reflect.TypeFor[T]())
	if err != nil {
		return 0, err
	}
	out := columns.Select(t.tree, b.output)
	s, err := b.statement(t, out)
	if err != nil {
		return 0, err
	}
	return b.client.single(ctx, "update", t, s, out, discard, opts)
}

// Query runs the update and returns the updated rows as new objects holding
// the Returning columns, all mapped columns if none were selected.
func (b *UpdateBuilder[T]) Query(ctx context.Context, opts ...ExecOption) ([]*T, error) {
	t, err := b.client.target(reflect.TypeFor[T]())
	if err != nil {
		return nil, err
	}
	out := columns.Select(t.tree, b.output)
	if len(out) == 0 {
		out = columns.Select(t.tree, columns.Policy{})
	}
	s, err := b.statement(t, out)
	if err != nil {
		return nil, err
	}
	var objs []*T
	if _, err := b.client.single(ctx, "update", t, s, out, collect(&objs, out), opts); err != nil {
		return nil, err
	}
	return objs, nil
}

func (b *UpdateBuilder[T]) statement(t *target, out []*columns.Property) (*builder, error) {
	const op = "update"
	c := b.client
	if b.where == nil {
		return nil, bulkwrite.NewUsageError(op, "no predicate for %s; updating every row needs an explicit always-true predicate", t.name)
	}
	if len(out) > 0 && c.policy.OutputKeyword() == "" {
		return nil, bulkwrite.NewNotSupportedError(op, c.policy.Name(), "output columns")
	}
	if b.limit < 0 {
		return nil, bulkwrite.NewUsageError(op, "negative limit %d", b.limit)
	}
	s := newBuilder(c.policy)
	var sets []string
	if b.values != nil {
		cols := columns.Select(t.tree, b.columns)
		vals, err := columns.Values(cols, b.values)
		if err != nil {
			return nil, err
		}
		for i, p := range cols {
			sets = append(sets, s.Quote(p.Column)+" = "+s.Bind(s.Param(p.Column, 0), vals[i]))
		}
	}
	for _, a := range b.sets {
		if a == nil {
			return nil, bulkwrite.NewUsageError(op, "nil assignment")
		}
		if _, ok := a.Body.(*expr.Assign); !ok {
			return nil, bulkwrite.NewUsageError(op, "assignment is a %T, not an assignment", a.Body)
		}
		set, err := c.compile(t, a, whereContext())
		if err != nil {
			return nil, err
		}
		sets = append(sets, set)
	}
	if len(sets) == 0 {
		return nil, bulkwrite.NewUsageError(op, "no columns selected for %s", t.name)
	}
	where, err := c.compile(t, b.where, whereContext())
	if err != nil {
		return nil, err
	}
	style := c.policy.LimitStyle()
	s.WriteString("UPDATE ")
	if b.limit > 0 && style == dialect.LimitTop {
		s.WriteString(dialect.TopClause(b.limit))
		s.WriteByte(' ')
	}
	s.WriteString(t.table)
	s.WriteString(" SET ")
	s.WriteString(strings.Join(sets, ", "))
	if len(out) > 0 && c.policy.OutputInline() {
		s.Output(out, "", dialect.Inserted, false)
	}
	s.WriteString(" WHERE ")
	if b.limit > 0 && style == dialect.LimitRowID {
		id := c.policy.RowID()
		s.WriteString(id + " IN (SELECT " + id + " FROM " + t.table + " WHERE " + where + " LIMIT " + strconv.Itoa(b.limit) + ")")
	} else {
		s.WriteString(where)
	}
	if b.limit > 0 && style == dialect.LimitTrailing {
		s.WriteString(" LIMIT " + strconv.Itoa(b.limit))
	}
	if len(out) > 0 && !c.policy.OutputInline() {
		s.Output(out, "", dialect.Inserted, false)
	}
	return s, nil
}

// single runs a one-statement operation, reading its output rows with
// visit when out is not empty.
func (c *Client) single(ctx context.Context, op string, t *target, s *builder, out []*columns.Property, visit visitFunc, opts []ExecOption) (int64, error) {
	return c.run(ctx, op, t, 1, 1, c.execOptions(opts), func(ctx context.Context, ex dialect.ExecQuerier, _, _ int) (int64, error) {
		if len(out) == 0 {
			return c.execStatement(ctx, ex, op, s.String(), s.Args())
		}
		return c.queryStatement(ctx, ex, op, s.String(), s.Args(), func(rows *sql.Rows) (int64, error) {
			return readOutput(rows, out, correlation{}, visit)
		})
	})
}

func discard(int, []any) error { return nil }
