package dialect

import (
	"database/sql"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// sqlServer is the Microsoft SQL Server policy. Parameters are named
// (@name) and output is expressed with an OUTPUT clause placed before
// VALUES/WHERE.
type sqlServer struct{}

func (sqlServer) Name() string       { return SQLServer }
func (sqlServer) MaxParameters() int { return 2100 }

func (sqlServer) Quote(ident string) string { return quoteWith(ident, "[", "]") }

func (p sqlServer) QuoteTable(schema, table string) string { return quoteTable(p, schema, table) }

func (sqlServer) Placeholder(name string, _ int) string { return "@" + name }

func (sqlServer) Arg(name string, v any) any { return sql.Named(name, v) }

func (sqlServer) CastParam(placeholder, _ string) string { return placeholder }

func (sqlServer) ArrayArg([]any) any { return nil }

var sqlServerTypes = map[typeClass]string{
	classBool:    "bit",
	classInt16:   "smallint",
	classInt32:   "int",
	classInt64:   "bigint",
	classFloat32: "real",
	classFloat64: "float",
	classString:  "nvarchar(max)",
	classBytes:   "varbinary(max)",
	classTime:    "datetime2",
	classUUID:    "uniqueidentifier",
}

func (sqlServer) ColumnType(t reflect.Type) string { return columnType(t, sqlServerTypes) }

// TypedNull casts NULL explicitly: a VALUES column that is NULL in every row
// is otherwise typed int.
func (sqlServer) TypedNull(sqlType string) string {
	if sqlType == "" {
		return "NULL"
	}
	return "CAST(NULL AS " + sqlType + ")"
}

func (sqlServer) BoolLiteral(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

func (sqlServer) StringLiteral(s string) string {
	return "N'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func (sqlServer) UUIDLiteral(s string) string { return castLiteral(s, "uniqueidentifier") }

func (sqlServer) TimeLiteral(t time.Time) string {
	return castLiteral(t.Format("2006-01-02 15:04:05.0000000"), "datetime2")
}

func (sqlServer) OutputKeyword() string { return "OUTPUT" }
func (sqlServer) OutputInline() bool    { return true }

func (p sqlServer) OutputColumn(column, _ string, image OutputImage) string {
	if image == Deleted {
		return "DELETED." + p.Quote(column)
	}
	return "INSERTED." + p.Quote(column)
}

func (sqlServer) LimitStyle() LimitStyle   { return LimitTop }
func (sqlServer) RowID() string            { return "" }
func (sqlServer) UpsertStyle() UpsertStyle { return UpsertMerge }
func (sqlServer) QualifySetTarget() bool   { return true }
func (sqlServer) MergeTerminator() string  { return ";" }

// TopClause renders the TOP (n) modifier used by LimitTop dialects.
func TopClause(n int) string { return "TOP (" + strconv.Itoa(n) + ")" }
