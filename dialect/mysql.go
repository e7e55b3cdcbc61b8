package dialect

import (
	"reflect"
	"strings"
	"time"
)

// mysql is the MySQL/MariaDB policy. It has no output clause and no MERGE;
// upserts use ON DUPLICATE KEY UPDATE.
type mysql struct{}

func (mysql) Name() string       { return MySQL }
func (mysql) MaxParameters() int { return 65535 }

func (mysql) Quote(ident string) string { return quoteWith(ident, "`", "`") }

func (p mysql) QuoteTable(schema, table string) string { return quoteTable(p, schema, table) }

func (mysql) Placeholder(string, int) string { return "?" }

func (mysql) Arg(_ string, v any) any { return v }

func (mysql) CastParam(placeholder, _ string) string { return placeholder }

func (mysql) ArrayArg([]any) any { return nil }

// ColumnType has no defaults: rows are inserted straight into the target
// table, whose columns type them.
func (mysql) ColumnType(reflect.Type) string { return "" }

func (mysql) TypedNull(string) string { return "NULL" }

func (mysql) BoolLiteral(v bool) string {
	if v {
		return "TRUE"
	}
	return "FALSE"
}

// StringLiteral escapes backslashes as well, since MySQL treats them as
// escape characters inside string literals by default.
func (mysql) StringLiteral(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func (mysql) UUIDLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func (mysql) TimeLiteral(t time.Time) string {
	return castLiteral(t.Format("2006-01-02 15:04:05.000000"), "datetime(6)")
}

func (mysql) OutputKeyword() string                           { return "" }
func (mysql) OutputInline() bool                              { return false }
func (mysql) OutputColumn(string, string, OutputImage) string { return "" }

func (mysql) LimitStyle() LimitStyle   { return LimitTrailing }
func (mysql) RowID() string            { return "" }
func (mysql) UpsertStyle() UpsertStyle { return UpsertOnDuplicateKey }
func (mysql) QualifySetTarget() bool   { return false }
func (mysql) MergeTerminator() string  { return "" }
