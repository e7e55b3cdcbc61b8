package expr

import (
	"slices"
	"time"

	"github.com/syssam/bulkwrite/dialect"
	"github.com/syssam/bulkwrite/schema"
)

// Formatter renders identifiers and literals for one backend.
// dialect.Policy implements it.
type Formatter interface {
	Quote(ident string) string
	BoolLiteral(v bool) string
	StringLiteral(s string) string
	UUIDLiteral(s string) string
	TimeLiteral(t time.Time) string
}

// defaultAliases is the alias table used when a Context has none: the first
// lambda parameter is the target row, the second the source row.
var defaultAliases = []string{"T", "S"}

// DefaultAliases returns a copy of the alias table used when a Context has
// none.
func DefaultAliases() []string {
	return slices.Clone(defaultAliases)
}

// Context is the per-call state of the compiler. It is passed by value:
// descending into a sub-expression bound to other parameters works on a copy.
type Context struct {
	// Params are the lambda parameter names in scope, mapped positionally
	// to Aliases.
	Params []string
	// Entity resolves renamed and owned members to columns; paths it does
	// not map are errors. Without it, member paths are joined with "_".
	Entity *schema.Entity
	// Aliases overrides DefaultAliases().
	Aliases []string
	// NoAlias emits bare column references, for statement shapes whose
	// table carries no alias.
	NoAlias bool
	// BareTarget emits the target side of assignments without an alias,
	// for backends that reject qualified SET targets in MERGE.
	BareTarget bool
	// Formatter defaults to the SQL Server policy.
	Formatter Formatter
}

func (c Context) formatter() Formatter {
	if c.Formatter == nil {
		return dialect.MustLookup(dialect.SQLServer)
	}
	return c.Formatter
}

func (c Context) aliases() []string {
	if len(c.Aliases) > 0 {
		return c.Aliases
	}
	return defaultAliases
}

// WithParams returns a copy of c with the given parameters in scope.
func (c Context) WithParams(params ...string) Context {
	c.Params = params
	return c
}

// Fragment is a compiled SQL fragment.
type Fragment struct {
	SQL string
	// Constants are the captured and literal values folded into SQL, in
	// order of appearance.
	Constants []any
}

// String returns the SQL text.
func (f Fragment) String() string {
	return f.SQL
}
