package bulk

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/syssam/bulkwrite"
	"github.com/syssam/bulkwrite/columns"
	"github.com/syssam/bulkwrite/dialect"
	"github.com/syssam/bulkwrite/expr"
)

// IndexColumn is the synthetic source column that carries the position of
// each object in the batch, so output rows can be matched back to their
// objects whatever order the database returns them in.
const IndexColumn = "__bulk_idx"

// ParamName returns the bind parameter name of column in the given row:
// the column with non-identifier characters replaced, followed by the row
// index. Columns ending in a digit get a separating underscore. Within one
// statement, columns whose names sanitize alike get numbered stems, see
// builder.Param.
func ParamName(column string, row int) string {
	return paramStem(column) + strconv.Itoa(row)
}

// paramStem is the row independent part of a parameter name. It never ends
// in a digit, so the row index that follows it is unambiguous.
func paramStem(column string) string {
	var b strings.Builder
	for _, r := range column {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	if s := b.String(); s != "" && s[len(s)-1] >= '0' && s[len(s)-1] <= '9' {
		b.WriteByte('_')
	}
	return b.String()
}

// builder accumulates the text and arguments of one statement.
type builder struct {
	strings.Builder
	policy dialect.Policy
	args   []any
	stems  map[string]string // column -> parameter stem
	taken  map[string]bool
}

func newBuilder(p dialect.Policy) *builder {
	return &builder{
		policy: p,
		stems:  make(map[string]string),
		taken:  make(map[string]bool),
	}
}

// Param returns the parameter name of column in row. The first column to
// claim a stem keeps the ParamName form; a later column sanitizing to the
// same stem gets a numbered one, e.g. "first_name2_0".
func (b *builder) Param(column string, row int) string {
	stem, ok := b.stems[column]
	if !ok {
		base := paramStem(column)
		stem = base
		for n := 2; b.taken[stem]; n++ {
			stem = base + strconv.Itoa(n) + "_"
		}
		b.stems[column] = stem
		b.taken[stem] = true
	}
	return stem + strconv.Itoa(row)
}

// Bind adds a parameter and returns its placeholder. Nil values are written
// as the NULL literal and bind nothing.
func (b *builder) Bind(name string, v any) string {
	if v == nil {
		return "NULL"
	}
	b.args = append(b.args, b.policy.Arg(name, v))
	return b.policy.Placeholder(name, len(b.args))
}

func (b *builder) Quote(ident string) string { return b.policy.Quote(ident) }

// Pad writes a space followed by s.
func (b *builder) Pad(s string) *builder {
	b.WriteByte(' ')
	b.WriteString(s)
	return b
}

// Columns writes the parenthesized column list of props, followed by extra
// identifiers.
func (b *builder) Columns(props []*columns.Property, extra ...string) *builder {
	b.WriteByte('(')
	for i, p := range props {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(b.Quote(p.Column))
	}
	for i, e := range extra {
		if i > 0 || len(props) > 0 {
			b.WriteString(", ")
		}
		b.WriteString(b.Quote(e))
	}
	b.WriteByte(')')
	return b
}

// Tuples writes the rows of a VALUES list, one per row of cells. With cast
// set, cells carry the SQL type of their column so the backend does not
// infer one from the values. With index set, every row ends with its
// position.
func (b *builder) Tuples(props []*columns.Property, rows [][]any, cast, index bool) *builder {
	var types []string
	if cast {
		types = make([]string, len(props))
		for j, p := range props {
			types[j] = sqlType(b.policy, p)
		}
	}
	for i, vals := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for j, p := range props {
			if j > 0 {
				b.WriteString(", ")
			}
			switch v := vals[j]; {
			case cast && v == nil:
				b.WriteString(b.policy.TypedNull(types[j]))
			case cast:
				b.WriteString(b.policy.CastParam(b.Bind(b.Param(p.Column, i), v), types[j]))
			default:
				b.WriteString(b.Bind(b.Param(p.Column, i), v))
			}
		}
		if index {
			if len(props) > 0 {
				b.WriteString(", ")
			}
			b.WriteString(strconv.Itoa(i))
		}
		b.WriteByte(')')
	}
	return b
}

// Arrays writes one array parameter per column, cast to the column type,
// for consumption by unnest.
func (b *builder) Arrays(props []*columns.Property, rows [][]any) *builder {
	for j, p := range props {
		if j > 0 {
			b.WriteString(", ")
		}
		vals := make([]any, len(rows))
		for i := range rows {
			vals[i] = rows[i][j]
		}
		b.args = append(b.args, b.policy.ArrayArg(vals))
		b.WriteString(b.policy.CastParam(b.policy.Placeholder(p.Column, len(b.args)), sqlType(b.policy, p)+"[]"))
	}
	return b
}

// Output writes the output columns of props, qualified for a MERGE target
// when qualifier is set, preceded by the correlation index column of the
// source when index is set.
func (b *builder) Output(props []*columns.Property, qualifier string, image dialect.OutputImage, index bool) *builder {
	b.Pad(b.policy.OutputKeyword())
	b.WriteByte(' ')
	if index {
		b.WriteString("S." + b.Quote(IndexColumn))
		if len(props) > 0 {
			b.WriteString(", ")
		}
	}
	for i, p := range props {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(b.policy.OutputColumn(p.Column, qualifier, image))
	}
	return b
}

// Args returns the bound arguments.
func (b *builder) Args() []any { return b.args }

// values binds every object and returns the cells of props per object.
func values[T any](props []*columns.Property, objs []*T) ([][]any, error) {
	out := make([][]any, len(objs))
	for i, obj := range objs {
		vals, err := columns.Values(props, obj)
		if err != nil {
			return nil, err
		}
		out[i] = vals
	}
	return out, nil
}

// checkRows rejects nil objects before any statement is built.
func checkRows[T any](op string, rows []*T) error {
	for i, r := range rows {
		if r == nil {
			return bulkwrite.NewUsageError(op, "object %d is nil", i)
		}
	}
	return nil
}

// sqlType is the configured type of p, or the dialect default for its Go
// type.
func sqlType(pol dialect.Policy, p *columns.Property) string {
	if p.SQLType != "" {
		return p.SQLType
	}
	return pol.ColumnType(p.Field.Type)
}

// requireTypes reports the first column with neither a configured SQL type
// nor a dialect default, which array binding needs for its casts.
func (c *Client) requireTypes(t *target, props []*columns.Property) error {
	for _, p := range props {
		if sqlType(c.policy, p) == "" {
			return bulkwrite.NewMemberConfigurationError(t.name, p.Name, "the arrays values mode requires a configured SQL type")
		}
	}
	return nil
}

// union returns the leaves of the tree selected by any of the lists, in
// tree order.
func union(t *target, lists ...[]*columns.Property) []*columns.Property {
	seen := make(map[*columns.Property]bool)
	for _, l := range lists {
		for _, p := range l {
			seen[p] = true
		}
	}
	var out []*columns.Property
	for _, p := range columns.Flatten(t.tree.Props) {
		if seen[p] {
			out = append(out, p)
		}
	}
	return out
}

// compile compiles an expression of the target entity.
func (c *Client) compile(t *target, n expr.Node, ctx expr.Context) (string, error) {
	ctx.Entity = t.tree.Entity
	ctx.Formatter = c.policy
	f, err := expr.Compile(n, ctx)
	if err != nil {
		return "", err
	}
	return f.SQL, nil
}

// whereContext compiles predicates of single-table statements, whose table
// carries no alias.
func whereContext() expr.Context {
	return expr.Context{NoAlias: true}
}
