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

// Variant selects what a merge does with matched and unmatched rows.
type Variant int

const (
	// MergeInsert inserts objects that match no target row.
	MergeInsert Variant = iota
	// MergeUpdate updates target rows matched by an object.
	MergeUpdate
	// MergeUpsert updates matched rows and inserts the rest.
	MergeUpsert
	// MergeDeleteMatched deletes target rows matched by an object.
	MergeDeleteMatched
	// MergeDeleteUnmatched upserts the objects and deletes every target row
	// no object matches, making the table equal to the input.
	MergeDeleteUnmatched
)

var variantNames = [...]string{
	MergeInsert:          "insert",
	MergeUpdate:          "update",
	MergeUpsert:          "upsert",
	MergeDeleteMatched:   "delete matched",
	MergeDeleteUnmatched: "delete unmatched",
}

func (v Variant) String() string {
	if v >= 0 && int(v) < len(variantNames) {
		return variantNames[v]
	}
	return "Variant(" + strconv.Itoa(int(v)) + ")"
}

func (v Variant) inserts() bool {
	return v == MergeInsert || v == MergeUpsert || v == MergeDeleteUnmatched
}

func (v Variant) updates() bool {
	return v == MergeUpdate || v == MergeUpsert || v == MergeDeleteUnmatched
}

func (v Variant) deletes() bool {
	return v == MergeDeleteMatched || v == MergeDeleteUnmatched
}

// MergeBuilder is the builder for merging a slice of objects into a table.
type MergeBuilder[T any] struct {
	client   *Client
	rows     []*T
	variant  Variant
	on       columns.Policy
	insert   columns.Policy
	update   columns.Policy
	output   columns.Policy
	sets     []*expr.Lambda
	updateIf *expr.Lambda
	deleteIf *expr.Lambda
}

// Merge returns a builder merging rows into their table. Objects match
// target rows on the primary key unless On says otherwise; generated
// columns are neither inserted nor updated and keys are not updated.
func Merge[T any](c *Client, rows []*T, v Variant) *MergeBuilder[T] {
	return &MergeBuilder[T]{
		client:  c,
		rows:    rows,
		variant: v,
		on:      columns.Policy{ExcludeAll: true, PrimaryKey: columns.Include},
		insert:  columns.Policy{Generated: columns.Exclude},
		update:  columns.Policy{Generated: columns.Exclude, PrimaryKey: columns.Exclude},
		output:  columns.Policy{ExcludeAll: true},
	}
}

// On sets the columns objects are matched on.
func (b *MergeBuilder[T]) On(p columns.Policy) *MergeBuilder[T] {
	b.on = p
	return b
}

// InsertColumns sets the columns written for unmatched objects.
func (b *MergeBuilder[T]) InsertColumns(p columns.Policy) *MergeBuilder[T] {
	b.insert = p
	return b
}

// UpdateColumns sets the columns copied from matched objects.
func (b *MergeBuilder[T]) UpdateColumns(p columns.Policy) *MergeBuilder[T] {
	b.update = p
	return b
}

// Returning reads the selected columns of the affected rows back into the
// objects.
func (b *MergeBuilder[T]) Returning(p columns.Policy) *MergeBuilder[T] {
	b.output = p
	return b
}

// UpdateWith adds assignments to the update clause. Each is a lambda over
// (target, source) whose body is an *expr.Assign, e.g.
//
//	expr.Fn(expr.Set(expr.F("t", "Stock"), expr.Add(expr.F("t", "Stock"), expr.F("s", "Stock"))), "t", "s")
//
// Members of the source row must be selected by the insert columns.
func (b *MergeBuilder[T]) UpdateWith(assigns ...*expr.Lambda) *MergeBuilder[T] {
	b.sets = append(b.sets, assigns...)
	return b
}

// UpdateIf restricts the update clause to matched rows satisfying cond, a
// lambda over (target, source).
func (b *MergeBuilder[T]) UpdateIf(cond *expr.Lambda) *MergeBuilder[T] {
	b.updateIf = cond
	return b
}

// DeleteIf restricts the delete clause to rows satisfying cond. It is a
// lambda over (target, source) for MergeDeleteMatched and over (target)
// for MergeDeleteUnmatched.
func (b *MergeBuilder[T]) DeleteIf(cond *expr.Lambda) *MergeBuilder[T] {
	b.deleteIf = cond
	return b
}

// mergePlan is a validated merge, shared by every batch.
type mergePlan struct {
	t       *target
	variant Variant
	on      []*columns.Property
	insert  []*columns.Property
	update  []*columns.Property
	source  []*columns.Property
	out     []*columns.Property
	sets    []string
	// updateIf and deleteIf are compiled conditions, empty when unset.
	updateIf string
	deleteIf string
	indexed  bool
	arrays   bool
}

// Exec merges the rows and returns the number of affected rows, or of rows
// read back when output columns are selected.
func (b *MergeBuilder[T]) Exec(ctx context.Context, opts ...ExecOption) (int64, error) {
	op := "merge " + b.variant.String()
	c := b.client
	t, err := c.target(reflect.TypeFor[T]())
	if err != nil {
		return 0, err
	}
	m, err := b.plan(op, t)
	if err != nil {
		return 0, err
	}
	if err := checkRows(op, b.rows); err != nil {
		return 0, err
	}
	o := c.execOptions(opts)
	size := len(b.rows)
	if m.arrays {
		if err := c.requireTypes(t, m.source); err != nil {
			return 0, err
		}
	} else if size, err = c.batchSize(op, len(m.source), o); err != nil {
		return 0, err
	}
	if b.variant == MergeDeleteUnmatched && size < len(b.rows) {
		return 0, bulkwrite.NewNotSupportedError(op, c.policy.Name(),
			"all %d objects must fit one statement, %d do; use the arrays values mode", len(b.rows), size)
	}
	corr := correlation{indexed: m.indexed}
	if m.arrays {
		corr.base = 1
	}
	return c.run(ctx, op, t, len(b.rows), size, o, func(ctx context.Context, ex dialect.ExecQuerier, lo, hi int) (int64, error) {
		objs := b.rows[lo:hi]
		vals, err := values(m.source, objs)
		if err != nil {
			return 0, err
		}
		s := newBuilder(c.policy)
		if c.policy.UpsertStyle() == dialect.UpsertMerge {
			c.mergeStatement(s, m, vals)
		} else {
			c.upsertStatement(s, m, vals)
		}
		if len(m.out) == 0 {
			return c.execStatement(ctx, ex, op, s.String(), s.Args())
		}
		return c.queryStatement(ctx, ex, op, s.String(), s.Args(), func(rows *sql.Rows) (int64, error) {
			return readOutput(rows, m.out, corr, assignTo(objs, m.out))
		})
	})
}

// plan selects the columns of every clause and compiles the conditions.
// All usage errors surface here, before any statement runs.
func (b *MergeBuilder[T]) plan(op string, t *target) (*mergePlan, error) {
	c := b.client
	v := b.variant
	if v < MergeInsert || v > MergeDeleteUnmatched {
		return nil, bulkwrite.NewUsageError("merge", "unknown variant %d", int(v))
	}
	m := &mergePlan{
		t:       t,
		variant: v,
		on:      columns.Select(t.tree, b.on),
		out:     columns.Select(t.tree, b.output),
	}
	if v.inserts() {
		m.insert = columns.Select(t.tree, b.insert)
	}
	if v.updates() {
		m.update = columns.Select(t.tree, b.update)
	}
	switch {
	case v != MergeInsert && len(m.on) == 0:
		return nil, bulkwrite.NewUsageError(op, "no match columns selected for %s", t.name)
	case v.inserts() && len(m.insert) == 0:
		return nil, bulkwrite.NewUsageError(op, "no insert columns selected for %s", t.name)
	case v.updates() && len(m.update) == 0 && len(b.sets) == 0:
		return nil, bulkwrite.NewUsageError(op, "no update columns selected for %s", t.name)
	case !v.updates() && (b.updateIf != nil || len(b.sets) > 0):
		return nil, bulkwrite.NewUsageError(op, "update clauses given to a merge that does not update")
	case !v.deletes() && b.deleteIf != nil:
		return nil, bulkwrite.NewUsageError(op, "delete condition given to a merge that does not delete")
	case len(m.out) > 0 && c.policy.OutputKeyword() == "":
		return nil, bulkwrite.NewNotSupportedError(op, c.policy.Name(), "output columns")
	}
	// Custom clauses may read any source member the insert policy selects.
	var extra []*columns.Property
	if len(b.sets) > 0 || b.updateIf != nil || b.deleteIf != nil {
		extra = columns.Select(t.tree, b.insert)
	}
	var ctx expr.Context
	switch c.policy.UpsertStyle() {
	case dialect.UpsertMerge:
		m.source = union(t, m.on, m.insert, m.update, extra)
		m.indexed = len(m.out) > 0
		ctx.BareTarget = !c.policy.QualifySetTarget()
		if c.arrays() {
			if c.policy.ArrayArg(nil) == nil {
				return nil, bulkwrite.NewNotSupportedError(op, c.policy.Name(), "the arrays values mode")
			}
			m.arrays = true
		}
	default:
		switch {
		case v != MergeInsert && v != MergeUpsert:
			return nil, bulkwrite.NewNotSupportedError(op, c.policy.Name(), "the dialect has no MERGE statement")
		case c.arrays():
			return nil, bulkwrite.NewNotSupportedError(op, c.policy.Name(), "the arrays values mode")
		case v == MergeInsert && len(m.on) > 0 && len(m.out) > 0:
			return nil, bulkwrite.NewNotSupportedError(op, c.policy.Name(), "output columns of inserts that skip conflicting rows")
		case c.policy.UpsertStyle() == dialect.UpsertOnDuplicateKey && (len(b.sets) > 0 || b.updateIf != nil):
			return nil, bulkwrite.NewNotSupportedError(op, c.policy.Name(), "custom or conditional updates")
		}
		// Conflicts are detected on inserted values, so every matched or
		// updated column is inserted too.
		m.source = union(t, m.insert, m.on, m.update, extra)
		ctx.Aliases = []string{t.table, "excluded"}
		ctx.BareTarget = true
	}
	for _, a := range b.sets {
		if a == nil {
			return nil, bulkwrite.NewUsageError(op, "nil update assignment")
		}
		if _, ok := a.Body.(*expr.Assign); !ok {
			return nil, bulkwrite.NewUsageError(op, "update assignment is a %T, not an assignment", a.Body)
		}
		s, err := c.compile(t, a, ctx)
		if err != nil {
			return nil, err
		}
		m.sets = append(m.sets, s)
	}
	var err error
	if b.updateIf != nil {
		if m.updateIf, err = c.compile(t, b.updateIf, ctx); err != nil {
			return nil, err
		}
	}
	if b.deleteIf != nil {
		if m.deleteIf, err = c.compile(t, b.deleteIf, ctx); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// mergeStatement writes a MERGE statement for one batch:
//
//	MERGE INTO <table> AS T USING (VALUES ...) AS S (<source>[, __bulk_idx])
//	ON <match> WHEN ... [OUTPUT|RETURNING ...]
func (c *Client) mergeStatement(s *builder, m *mergePlan, vals [][]any) {
	s.WriteString("MERGE INTO ")
	s.WriteString(m.t.table)
	s.WriteString(" AS T USING ")
	var extra []string
	if m.indexed {
		extra = append(extra, IndexColumn)
	}
	if m.arrays {
		s.WriteString("(SELECT * FROM unnest(")
		s.Arrays(m.source, vals)
		s.WriteByte(')')
		if m.indexed {
			s.WriteString(" WITH ORDINALITY")
		}
		s.WriteString(" AS u ")
		s.Columns(m.source, extra...)
		s.WriteString(") AS S")
	} else {
		s.WriteString("(VALUES ")
		s.Tuples(m.source, vals, true, m.indexed)
		s.WriteString(") AS S ")
		s.Columns(m.source, extra...)
	}
	s.WriteString(" ON ")
	s.WriteString(c.matchCondition(m))
	if m.variant.updates() {
		s.WriteString(" WHEN MATCHED")
		writeCondition(s, m.updateIf)
		s.WriteString(" THEN UPDATE SET ")
		s.WriteString(c.mergeSets(m))
	}
	if m.variant == MergeDeleteMatched {
		s.WriteString(" WHEN MATCHED")
		writeCondition(s, m.deleteIf)
		s.WriteString(" THEN DELETE")
	}
	if m.variant.inserts() {
		s.WriteString(" WHEN NOT MATCHED THEN INSERT ")
		s.Columns(m.insert)
		s.WriteString(" VALUES (")
		for i, p := range m.insert {
			if i > 0 {
				s.WriteString(", ")
			}
			s.WriteString("S." + s.Quote(p.Column))
		}
		s.WriteByte(')')
	}
	if m.variant == MergeDeleteUnmatched {
		s.WriteString(" WHEN NOT MATCHED BY SOURCE")
		writeCondition(s, m.deleteIf)
		s.WriteString(" THEN DELETE")
	}
	if len(m.out) > 0 {
		image := dialect.Inserted
		if m.variant == MergeDeleteMatched {
			image = dialect.Deleted
		}
		s.Output(m.out, "T", image, m.indexed)
	}
	s.WriteString(c.policy.MergeTerminator())
}

func (c *Client) matchCondition(m *mergePlan) string {
	if len(m.on) == 0 {
		return "1 = 0"
	}
	conds := make([]string, len(m.on))
	for i, p := range m.on {
		col := c.policy.Quote(p.Column)
		conds[i] = "T." + col + " = S." + col
	}
	return strings.Join(conds, " AND ")
}

func (c *Client) mergeSets(m *mergePlan) string {
	sets := make([]string, 0, len(m.update)+len(m.sets))
	for _, p := range m.update {
		col := c.policy.Quote(p.Column)
		target := col
		if c.policy.QualifySetTarget() {
			target = "T." + col
		}
		sets = append(sets, target+" = S."+col)
	}
	return strings.Join(append(sets, m.sets...), ", ")
}

// upsertStatement writes the INSERT ... ON CONFLICT or ON DUPLICATE KEY
// UPDATE form of a merge for dialects without MERGE.
func (c *Client) upsertStatement(s *builder, m *mergePlan, vals [][]any) {
	insertValues(s, m.t, m.source, vals)
	if len(m.on) > 0 {
		switch c.policy.UpsertStyle() {
		case dialect.UpsertOnConflict:
			s.WriteString(" ON CONFLICT ")
			s.Columns(m.on)
			if m.variant == MergeInsert {
				s.WriteString(" DO NOTHING")
				break
			}
			sets := make([]string, 0, len(m.update)+len(m.sets))
			for _, p := range m.update {
				col := c.policy.Quote(p.Column)
				sets = append(sets, col+" = excluded."+col)
			}
			s.WriteString(" DO UPDATE SET ")
			s.WriteString(strings.Join(append(sets, m.sets...), ", "))
			if m.updateIf != "" {
				s.WriteString(" WHERE ")
				s.WriteString(m.updateIf)
			}
		case dialect.UpsertOnDuplicateKey:
			s.WriteString(" ON DUPLICATE KEY UPDATE ")
			if m.variant == MergeInsert {
				// A self-assignment turns duplicates into no-ops.
				col := c.policy.Quote(m.on[0].Column)
				s.WriteString(col + " = " + col)
				break
			}
			sets := make([]string, len(m.update))
			for i, p := range m.update {
				col := c.policy.Quote(p.Column)
				sets[i] = col + " = VALUES(" + col + ")"
			}
			s.WriteString(strings.Join(sets, ", "))
		}
	}
	if len(m.out) > 0 {
		s.Output(m.out, "", dialect.Inserted, false)
	}
}

func writeCondition(s *builder, cond string) {
	if cond != "" {
		s.WriteString(" AND ")
		s.WriteString(cond)
	}
}
