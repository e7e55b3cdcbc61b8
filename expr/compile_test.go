package expr_test

import (
	"database/sql/driver"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/bulkwrite"
	"github.com/syssam/bulkwrite/dialect"
	"github.com/syssam/bulkwrite/expr"
	"github.com/syssam/bulkwrite/schema"
)

type Status int

type Limits struct {
	Min int
	Tag string
}

// brokenValuer fails to produce its driver value.
type brokenValuer struct{}

func (brokenValuer) Value() (driver.Value, error) { return nil, errors.New("no value") }

func compile(t *testing.T, n expr.Node, ctx expr.Context) string {
	t.Helper()
	f, err := expr.Compile(n, ctx)
	require.NoError(t, err)
	return f.SQL
}

func TestCompile(t *testing.T) {
	limit := 18
	ids := []int{1, 2, 3}
	var empty []string
	cfg := &Limits{Min: 5, Tag: "vip"}
	x := expr.P("x")

	tests := []struct {
		name string
		node expr.Node
		want string
	}{
		{
			name: "captured_variable",
			node: expr.Fn(expr.GT(x.Field("Age"), expr.V("limit", &limit)), "x"),
			want: "T.[Age] > 18",
		},
		{
			name: "string_constant",
			node: expr.Fn(expr.EQ(x.Field("Name"), expr.C("O'Brien")), "x"),
			want: "T.[Name] = N'O''Brien'",
		},
		{
			name: "not_equal",
			node: expr.Fn(expr.NE(x.Field("Name"), expr.C("a")), "x"),
			want: "T.[Name] <> N'a'",
		},
		{
			name: "logical",
			node: expr.Fn(expr.Or(expr.EQ(x.Field("Active"), expr.C(true)), expr.LE(x.Field("Age"), expr.C(3))), "x"),
			want: "(T.[Active] = 1) OR (T.[Age] <= 3)",
		},
		{
			name: "nested_logical",
			node: expr.Fn(expr.And(expr.EQ(x.Field("A"), expr.C(1)), expr.EQ(x.Field("B"), expr.C(2)), expr.EQ(x.Field("C"), expr.C(3))), "x"),
			want: "((T.[A] = 1) AND (T.[B] = 2)) AND (T.[C] = 3)",
		},
		{
			name: "owned_member",
			node: expr.Fn(expr.EQ(x.Field("Address.City"), expr.C("Oslo")), "x"),
			want: "T.[Address_City] = N'Oslo'",
		},
		{
			name: "captured_member",
			node: expr.Fn(expr.GE(x.Field("Age"), expr.Get(expr.V("cfg", &cfg), "Min")), "x"),
			want: "T.[Age] >= 5",
		},
		{
			name: "contains",
			node: expr.Fn(expr.In(x.Field("ID"), expr.V("ids", &ids)), "x"),
			want: "T.[ID] IN (1, 2, 3)",
		},
		{
			name: "contains_static_form",
			node: expr.Fn(&expr.Call{Method: "Contains", Args: []expr.Node{expr.C([]string{"a", "b"}), x.Field("Name")}}, "x"),
			want: "T.[Name] IN (N'a', N'b')",
		},
		{
			name: "contains_empty",
			node: expr.Fn(expr.In(x.Field("Name"), expr.V("empty", &empty)), "x"),
			want: "1 = 0",
		},
		{
			name: "enum",
			node: expr.Fn(expr.EQ(x.Field("Status"), expr.C(Status(2))), "x"),
			want: "T.[Status] = 2",
		},
		{
			name: "arithmetic_grouping",
			node: expr.Fn(expr.GT(expr.Mul(expr.Add(x.Field("A"), expr.C(1)), expr.C(2)), expr.C(10)), "x"),
			want: "(T.[A] + 1) * 2 > 10",
		},
		{
			name: "arithmetic_right_assoc",
			node: expr.Fn(expr.EQ(expr.Sub(x.Field("A"), expr.Sub(x.Field("B"), expr.C(1))), expr.C(0)), "x"),
			want: "T.[A] - (T.[B] - 1) = 0",
		},
		{
			name: "arithmetic_precedence",
			node: expr.Fn(expr.EQ(expr.Add(x.Field("A"), expr.Mul(x.Field("B"), expr.C(2))), expr.C(0)), "x"),
			want: "T.[A] + T.[B] * 2 = 0",
		},
		{
			name: "not",
			node: expr.Fn(expr.Not(expr.EQ(x.Field("Active"), expr.C(true))), "x"),
			want: "NOT (T.[Active] = 1)",
		},
		{
			name: "negate",
			node: expr.Fn(expr.EQ(expr.Neg(x.Field("A")), expr.Neg(expr.Add(x.Field("B"), expr.C(1)))), "x"),
			want: "-T.[A] = -(T.[B] + 1)",
		},
		{
			name: "convert_constant",
			node: expr.Fn(expr.EQ(x.Field("Level"), expr.As(expr.C(Status(4)), int64(0))), "x"),
			want: "T.[Level] = 4",
		},
		{
			name: "convert_column",
			node: expr.Fn(expr.EQ(expr.As(x.Field("Level"), int64(0)), expr.C(4)), "x"),
			want: "T.[Level] = 4",
		},
		{
			name: "two_parameters",
			node: expr.Fn(expr.EQ(expr.F("t", "ID"), expr.F("s", "ID")), "t", "s"),
			want: "T.[ID] = S.[ID]",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, compile(t, tt.node, expr.Context{}))
		})
	}
}

func TestCompileNullRewrite(t *testing.T) {
	left := expr.Fn(expr.EQ(expr.F("x", "Prop"), expr.C(nil)), "x")
	right := expr.Fn(expr.EQ(expr.C(nil), expr.F("x", "Prop")), "x")
	a := compile(t, left, expr.Context{})
	b := compile(t, right, expr.Context{})
	assert.Equal(t, a, b)
	assert.Equal(t, "T.[Prop] IS NULL", a)

	var missing *string
	ne := expr.Fn(expr.NE(expr.V("missing", &missing), expr.F("x", "Prop")), "x")
	assert.Equal(t, "T.[Prop] IS NOT NULL", compile(t, ne, expr.Context{}))

	_, err := expr.Compile(expr.EQ(expr.C(nil), expr.C(nil)), expr.Context{})
	require.Error(t, err)
	assert.True(t, bulkwrite.IsCompilerError(err))
	assert.Contains(t, err.Error(), "ambiguous")
}

func TestCompileAssign(t *testing.T) {
	set := expr.Set(
		expr.Fn(expr.F("t", "Qty"), "t"),
		expr.Fn(expr.Add(expr.F("t", "Qty"), expr.F("s", "Qty")), "t", "s"),
	)
	assert.Equal(t, "T.[Qty] = T.[Qty] + S.[Qty]", compile(t, set, expr.Context{}))
	assert.Equal(t, "[Qty] = T.[Qty] + S.[Qty]", compile(t, set, expr.Context{BareTarget: true}))
	assert.Equal(t, "[Qty] = [Qty] + [Qty]", compile(t, set, expr.Context{NoAlias: true}))

	custom := expr.Context{Aliases: []string{"tgt", "src"}}
	assert.Equal(t, "tgt.[Qty] = tgt.[Qty] + src.[Qty]", compile(t, set, custom))

	_, err := expr.Compile(expr.Set(expr.C(1), expr.C(2)), expr.Context{})
	require.Error(t, err)
	assert.True(t, bulkwrite.IsCompilerError(err))
}

func TestCompileEntity(t *testing.T) {
	type Customer struct {
		ID   int64
		Name string
	}
	e := schema.NewEntity(reflect.TypeOf(Customer{}), "customers",
		&schema.Field{Path: "ID", Column: "ID"},
		&schema.Field{Path: "Name", Column: "full_name"},
		&schema.Field{Path: "Address.City", Column: "town"},
		&schema.Field{Path: "Note"},
	).AddOwned("Address").AddIgnored("Secret")
	ctx := expr.Context{Entity: e, Formatter: dialect.MustLookup(dialect.Postgres)}
	n := expr.Fn(expr.And(
		expr.EQ(expr.F("x", "Name"), expr.C("a")),
		expr.EQ(expr.F("x", "Address.City"), expr.C("b")),
		expr.EQ(expr.F("x", "ID"), expr.C(int64(7))),
	), "x")
	assert.Equal(t, `((T."full_name" = 'a') AND (T."town" = 'b')) AND (T."ID" = 7)`, compile(t, n, ctx))

	tests := []struct {
		path  string
		check func(error) bool
	}{
		{"Nmae", bulkwrite.IsConfigurationError},
		{"Secret", bulkwrite.IsConfigurationError},
		{"Note", bulkwrite.IsConfigurationError},
		{"Address", bulkwrite.IsCompilerError},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			f, err := expr.Compile(expr.Fn(expr.EQ(expr.F("x", tt.path), expr.C("a")), "x"), ctx)
			require.Error(t, err)
			assert.True(t, tt.check(err), err.Error())
			assert.Contains(t, err.Error(), tt.path)
			assert.Empty(t, f.SQL)
		})
	}

	// Assignment targets resolve the same way.
	_, err := expr.Compile(expr.Fn(expr.Set(expr.F("x", "Nmae"), expr.C("a")), "x"), ctx)
	assert.True(t, bulkwrite.IsConfigurationError(err))
}

func TestCompileConstants(t *testing.T) {
	limit := 3
	tags := []string{"a", "b"}
	f, err := expr.Compile(expr.Fn(expr.And(
		expr.GT(expr.F("x", "Age"), expr.V("limit", &limit)),
		expr.In(expr.F("x", "Tag"), expr.V("tags", &tags)),
	), "x"), expr.Context{NoAlias: true})
	require.NoError(t, err)
	assert.Equal(t, "([Age] > 3) AND ([Tag] IN (N'a', N'b'))", f.SQL)
	assert.Equal(t, []any{3, "a", "b"}, f.Constants)
	assert.Equal(t, f.SQL, f.String())

	// Captured variables are read at compile time, not at build time.
	n := expr.Fn(expr.EQ(expr.F("x", "Age"), expr.V("limit", &limit)), "x")
	limit = 4
	assert.Equal(t, "T.[Age] = 4", compile(t, n, expr.Context{}))
}

func TestCompileErrors(t *testing.T) {
	notSlice := 5
	tests := []struct {
		name string
		node expr.Node
		msg  string
	}{
		{"nil", nil, "nil expression"},
		{"bare_param", expr.Fn(expr.P("x"), "x"), "cannot be used as a value"},
		{"out_of_scope", expr.Fn(expr.EQ(expr.F("y", "A"), expr.C(1)), "x"), "not in scope"},
		{"alias_overflow", expr.Fn(expr.EQ(expr.F("c", "A"), expr.C(1)), "a", "b", "c"), "exceeds the 2 available aliases"},
		{"unsupported_method", &expr.Call{Method: "StartsWith", Recv: expr.F("x", "Name"), Args: []expr.Node{expr.C("a")}}, "method StartsWith is not supported"},
		{"contains_without_collection", &expr.Call{Method: "Contains", Args: []expr.Node{expr.C(1)}}, "no collection operand"},
		{"contains_column", expr.Fn(expr.In(expr.C("a"), expr.F("x", "Tags")), "x"), "no collection operand"},
		{"contains_scalar", expr.Fn(expr.In(expr.F("x", "A"), expr.V("n", &notSlice)), "x"), "no collection operand"},
		{"missing_member", expr.Get(expr.C(Limits{}), "Max"), "has no member Max"},
		{"nil_member", expr.Get(expr.C((*Limits)(nil)), "Min"), "nil value"},
		{"bad_convert", expr.As(expr.C("a"), time.Time{}), "cannot convert"},
		{"member_of_call", expr.Get(expr.In(expr.C(1), expr.C([]int{1})), "X"), "is not supported"},
		{"failing_valuer", expr.Fn(expr.EQ(expr.F("x", "Name"), expr.C(brokenValuer{})), "x"), "no value"},
		{"failing_valuer_in_list", expr.Fn(expr.In(expr.F("x", "Name"), expr.C([]any{"a", brokenValuer{}})), "x"), "no value"},
		{"struct_constant", expr.Fn(expr.EQ(expr.F("x", "Name"), expr.C(Limits{})), "x"), "no SQL literal form"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := expr.Compile(tt.node, expr.Context{})
			require.Error(t, err)
			assert.ErrorIs(t, err, bulkwrite.ErrCompiler)
			assert.Contains(t, err.Error(), tt.msg)
			assert.Empty(t, f.SQL)
		})
	}
}

func TestLiteral(t *testing.T) {
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	ts := time.Date(2024, 3, 9, 14, 5, 6, 120000000, time.UTC)
	s := "p"
	ss := dialect.MustLookup(dialect.SQLServer)
	pg := dialect.MustLookup(dialect.Postgres)

	tests := []struct {
		v    any
		f    expr.Formatter
		want string
	}{
		{nil, ss, "NULL"},
		{(*int)(nil), ss, "NULL"},
		{&s, ss, "N'p'"},
		{true, ss, "1"},
		{false, pg, "FALSE"},
		{"it's", pg, "'it''s'"},
		{id, ss, "cast('6ba7b810-9dad-11d1-80b4-00c04fd430c8' as uniqueidentifier)"},
		{id, pg, "'6ba7b810-9dad-11d1-80b4-00c04fd430c8'::uuid"},
		{ts, ss, "cast('2024-03-09 14:05:06.1200000' as datetime2)"},
		{ts, pg, "'2024-03-09 14:05:06.120000'::timestamp"},
		{Status(7), ss, "7"},
		{uint8(9), ss, "9"},
		{1.5, ss, "1.5"},
		{float32(0.25), ss, "0.25"},
		{int64(-3), ss, "-3"},
	}
	for _, tt := range tests {
		got, err := expr.Literal(tt.v, tt.f)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%T(%v)", tt.v, tt.v)
	}

	_, err := expr.Literal(brokenValuer{}, ss)
	assert.True(t, bulkwrite.IsCompilerError(err))
}

func TestDefaultAliases(t *testing.T) {
	aliases := expr.DefaultAliases()
	assert.Equal(t, []string{"T", "S"}, aliases)
	aliases[0] = "X"
	assert.Equal(t, "T.[A] = 1", compile(t, expr.Fn(expr.EQ(expr.F("x", "A"), expr.C(1)), "x"), expr.Context{}))
	assert.Equal(t, []string{"T", "S"}, expr.DefaultAliases())
}

func TestOpString(t *testing.T) {
	assert.Equal(t, "<>", expr.OpNE.String())
	assert.Equal(t, "AND", expr.OpAnd.String())
	assert.Equal(t, "Op(99)", expr.Op(99).String())
	assert.Panics(t, func() { expr.And() })
}
