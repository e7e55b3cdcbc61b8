package dialect

import (
	"fmt"
	"reflect"
	"strings"
	"time"
)

// OutputImage selects which row image an output column reads from.
type OutputImage int

const (
	// Inserted is the row after the statement ran (inserted or updated values).
	Inserted OutputImage = iota
	// Deleted is the row before the statement ran.
	Deleted
)

// LimitStyle describes how a dialect restricts the number of rows touched by
// an UPDATE.
type LimitStyle int

const (
	// LimitTop renders UPDATE TOP (n).
	LimitTop LimitStyle = iota
	// LimitTrailing appends LIMIT n to the statement.
	LimitTrailing
	// LimitRowID restricts the statement with a row-id sub-select.
	LimitRowID
)

// UpsertStyle describes the statement family a dialect uses for merges.
type UpsertStyle int

const (
	// UpsertMerge uses a MERGE statement.
	UpsertMerge UpsertStyle = iota
	// UpsertOnConflict uses INSERT ... ON CONFLICT.
	UpsertOnConflict
	// UpsertOnDuplicateKey uses INSERT ... ON DUPLICATE KEY UPDATE.
	UpsertOnDuplicateKey
)

// Policy is the formatting and limits policy of one database backend. The
// bulk engine and the expression compiler consult it for every piece of text
// that differs between backends.
type Policy interface {
	// Name returns the dialect name, e.g. Postgres.
	Name() string
	// MaxParameters returns the maximum number of bind parameters in one statement.
	MaxParameters() int

	// Quote quotes a single identifier.
	Quote(ident string) string
	// QuoteTable quotes an optionally schema-qualified table name.
	QuoteTable(schema, table string) string
	// Placeholder returns the parameter marker for the named parameter at the
	// given 1-based ordinal position.
	Placeholder(name string, ordinal int) string
	// Arg wraps a value into the bindable argument expected by the driver.
	Arg(name string, v any) any
	// CastParam wraps a placeholder in a cast to sqlType where the backend
	// cannot infer parameter types (e.g. inside a VALUES source table).
	CastParam(placeholder, sqlType string) string
	// ArrayArg returns a single bindable argument holding all values, or nil
	// if the dialect cannot bind arrays.
	ArrayArg(values []any) any
	// ColumnType returns the column type assumed for members of Go type t
	// when the mapping configures none, or "" if there is no safe default.
	ColumnType(t reflect.Type) string
	// TypedNull renders a NULL of sqlType for places where the backend
	// infers column types from the values, such as a VALUES source table.
	TypedNull(sqlType string) string

	// BoolLiteral renders a boolean literal.
	BoolLiteral(v bool) string
	// StringLiteral renders an escaped string literal.
	StringLiteral(s string) string
	// UUIDLiteral renders a typed UUID literal.
	UUIDLiteral(s string) string
	// TimeLiteral renders a typed date/time literal.
	TimeLiteral(t time.Time) string

	// OutputKeyword returns OUTPUT or RETURNING, or "" if output is unsupported.
	OutputKeyword() string
	// OutputInline reports whether the output clause sits between clauses
	// (SQL Server) rather than at the end of the statement.
	OutputInline() bool
	// OutputColumn renders one column of an output clause. qualifier is the
	// target alias of a MERGE statement, empty otherwise.
	OutputColumn(column, qualifier string, image OutputImage) string

	// LimitStyle reports how UPDATE ... LIMIT is expressed.
	LimitStyle() LimitStyle
	// RowID returns the physical row identifier used by LimitRowID.
	RowID() string
	// UpsertStyle reports the merge statement family.
	UpsertStyle() UpsertStyle
	// QualifySetTarget reports whether SET targets in a MERGE may carry the
	// target alias.
	QualifySetTarget() bool
	// MergeTerminator is appended to MERGE statements.
	MergeTerminator() string
}

var policies = map[string]Policy{
	Postgres:  postgres{},
	SQLServer: sqlServer{},
	MySQL:     mysql{},
	SQLite:    sqlite{},
}

// Lookup returns the policy registered for the given dialect name. Names
// with a driver suffix, e.g. "postgres+otel", resolve to the base dialect.
func Lookup(name string) (Policy, bool) {
	if p, ok := policies[name]; ok {
		return p, true
	}
	for base, p := range policies {
		if strings.HasPrefix(name, base) {
			return p, true
		}
	}
	return nil, false
}

// MustLookup is like Lookup but panics if the dialect is unknown.
func MustLookup(name string) Policy {
	p, ok := Lookup(name)
	if !ok {
		panic(fmt.Sprintf("dialect: unknown dialect %q", name))
	}
	return p
}

// castLiteral renders the portable cast('<v>' as <type>) form.
func castLiteral(v, typ string) string {
	return "cast('" + strings.ReplaceAll(v, "'", "''") + "' as " + typ + ")"
}

// quoteWith quotes an identifier with the given delimiters, doubling any
// closing delimiter found inside it.
func quoteWith(ident, open, closing string) string {
	return open + strings.ReplaceAll(ident, closing, closing+closing) + closing
}

func quoteTable(p Policy, schema, table string) string {
	if schema == "" {
		return p.Quote(table)
	}
	return p.Quote(schema) + "." + p.Quote(table)
}
