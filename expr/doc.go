// Package expr compiles predicate and assignment expression trees to SQL.
//
// Expressions are plain trees of Node values built with the helpers of this
// package, the Go counterpart of a lambda `x => x.Age > limit`:
//
//	limit := 18
//	where := expr.Fn(expr.GT(expr.F("x", "Age"), expr.V("limit", &limit)), "x")
//
//	f, err := expr.Compile(where, expr.Context{Formatter: dialect.MustLookup(dialect.Postgres)})
//	f.SQL // T."Age" > 18
//
// Lambda parameters map positionally to aliases (T, S by default), member
// chains resolve to columns through an optional schema.Entity, and captured
// variables are read at compile time and inlined as literals.
package expr
