package dialect

import (
	"reflect"
	"strings"
	"time"
)

// sqlite is the SQLite policy (3.35+ for RETURNING). Upserts use
// INSERT ... ON CONFLICT.
type sqlite struct{}

func (sqlite) Name() string { return SQLite }

// MaxParameters is SQLITE_MAX_VARIABLE_NUMBER of builds since 3.32.
func (sqlite) MaxParameters() int { return 32766 }

func (sqlite) Quote(ident string) string { return quoteWith(ident, `"`, `"`) }

func (p sqlite) QuoteTable(schema, table string) string { return quoteTable(p, schema, table) }

func (sqlite) Placeholder(string, int) string { return "?" }

func (sqlite) Arg(_ string, v any) any { return v }

func (sqlite) CastParam(placeholder, _ string) string { return placeholder }

func (sqlite) ArrayArg([]any) any { return nil }

// ColumnType has no defaults: rows are inserted straight into the target
// table, whose columns type them.
func (sqlite) ColumnType(reflect.Type) string { return "" }

func (sqlite) TypedNull(string) string { return "NULL" }

func (sqlite) BoolLiteral(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

func (sqlite) StringLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func (sqlite) UUIDLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// TimeLiteral uses the layout the SQLite driver writes time.Time values
// with, so literals compare equal to stored values.
func (sqlite) TimeLiteral(t time.Time) string {
	return "'" + t.Format("2006-01-02 15:04:05.999999999-07:00") + "'"
}

func (sqlite) OutputKeyword() string { return "RETURNING" }
func (sqlite) OutputInline() bool    { return false }

func (p sqlite) OutputColumn(column, _ string, _ OutputImage) string { return p.Quote(column) }

func (sqlite) LimitStyle() LimitStyle   { return LimitRowID }
func (sqlite) RowID() string            { return "rowid" }
func (sqlite) UpsertStyle() UpsertStyle { return UpsertOnConflict }
func (sqlite) QualifySetTarget() bool   { return false }
func (sqlite) MergeTerminator() string  { return "" }
