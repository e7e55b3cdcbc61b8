package bulk

import (
	"context"
	"reflect"

	"github.com/syssam/bulkwrite"
	"github.com/syssam/bulkwrite/columns"
	"github.com/syssam/bulkwrite/dialect"
	"github.com/syssam/bulkwrite/expr"
)

// DeleteBuilder is the builder for deleting every row matching a predicate
// in one statement.
type DeleteBuilder[T any] struct {
	client *Client
	where  *expr.Lambda
	output columns.Policy
}

// Delete returns a builder deleting rows of the table of T.
func Delete[T any](c *Client) *DeleteBuilder[T] {
	return &DeleteBuilder[T]{
		client: c,
		output: columns.Policy{ExcludeAll: true},
	}
}

// Where sets the predicate, a lambda over the row. A delete without a
// predicate is rejected.
func (b *DeleteBuilder[T]) Where(pred *expr.Lambda) *DeleteBuilder[T] {
	b.where = pred
	return b
}

// Returning selects the columns of the deleted rows read back by Exec and
// Query.
func (b *DeleteBuilder[T]) Returning(p columns.Policy) *DeleteBuilder[T] {
	b.output = p
	return b
}

// Exec runs the delete and returns the number of deleted rows.
func (b *DeleteBuilder[T]) Exec(ctx context.Context, opts ...ExecOption) (int64, error) {
	t, err := b.client.target(reflect.TypeFor[T]())
	if err != nil {
		return 0, err
	}
	out := columns.Select(t.tree, b.output)
	s, err := b.statement(t, out)
	if err != nil {
		return 0, err
	}
	return b.client.single(ctx, "delete", t, s, out, discard, opts)
}

// Query runs the delete and returns the deleted rows as new objects
// holding the Returning columns, all mapped columns if none were selected.
func (b *DeleteBuilder[T]) Query(ctx context.Context, opts ...ExecOption) ([]*T, error) {
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
	if _, err := b.client.single(ctx, "delete", t, s, out, collect(&objs, out), opts); err != nil {
		return nil, err
	}
	return objs, nil
}

func (b *DeleteBuilder[T]) statement(t *target, out []*columns.Property) (*builder, error) {
	const op = "delete"
	c := b.client
	if b.where == nil {
		return nil, bulkwrite.NewUsageError(op, "no predicate for %s; deleting every row needs an explicit always-true predicate", t.name)
	}
	if len(out) > 0 && c.policy.OutputKeyword() == "" {
		return nil, bulkwrite.NewNotSupportedError(op, c.policy.Name(), "output columns")
	}
	where, err := c.compile(t, b.where, whereContext())
	if err != nil {
		return nil, err
	}
	s := newBuilder(c.policy)
	s.WriteString("DELETE FROM ")
	s.WriteString(t.table)
	if len(out) > 0 && c.policy.OutputInline() {
		s.Output(out, "", dialect.Deleted, false)
	}
	s.WriteString(" WHERE ")
	s.WriteString(where)
	if len(out) > 0 && !c.policy.OutputInline() {
		s.Output(out, "", dialect.Deleted, false)
	}
	return s, nil
}
