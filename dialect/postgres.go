package dialect

import (
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
)

// postgres is the PostgreSQL policy. Parameters are positional ($n) and
// output is a trailing RETURNING clause. MERGE with RETURNING requires
// PostgreSQL 17.
type postgres struct{}

func (postgres) Name() string       { return Postgres }
func (postgres) MaxParameters() int { return 65535 }

func (postgres) Quote(ident string) string { return pq.QuoteIdentifier(ident) }

func (p postgres) QuoteTable(schema, table string) string { return quoteTable(p, schema, table) }

func (postgres) Placeholder(_ string, ordinal int) string { return "$" + strconv.Itoa(ordinal) }

func (postgres) Arg(_ string, v any) any { return v }

func (postgres) CastParam(placeholder, sqlType string) string {
	if sqlType == "" {
		return placeholder
	}
	return placeholder + "::" + sqlType
}

func (postgres) ArrayArg(values []any) any { return pq.Array(values) }

var postgresTypes = map[typeClass]string{
	classBool:    "boolean",
	classInt16:   "smallint",
	classInt32:   "integer",
	classInt64:   "bigint",
	classFloat32: "real",
	classFloat64: "double precision",
	classString:  "text",
	classBytes:   "bytea",
	classTime:    "timestamp",
	classUUID:    "uuid",
}

// ColumnType matches the casts of the literal formatter: time.Time is a
// timestamp without time zone.
func (postgres) ColumnType(t reflect.Type) string { return columnType(t, postgresTypes) }

func (postgres) TypedNull(sqlType string) string {
	if sqlType == "" {
		return "NULL"
	}
	return "NULL::" + sqlType
}

func (postgres) BoolLiteral(v bool) string {
	if v {
		return "TRUE"
	}
	return "FALSE"
}

func (postgres) StringLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func (postgres) UUIDLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'::uuid"
}

func (postgres) TimeLiteral(t time.Time) string {
	return "'" + t.Format("2006-01-02 15:04:05.000000") + "'::timestamp"
}

func (postgres) OutputKeyword() string { return "RETURNING" }
func (postgres) OutputInline() bool    { return false }

func (p postgres) OutputColumn(column, qualifier string, _ OutputImage) string {
	if qualifier != "" {
		return qualifier + "." + p.Quote(column)
	}
	return p.Quote(column)
}

func (postgres) LimitStyle() LimitStyle   { return LimitRowID }
func (postgres) RowID() string            { return "ctid" }
func (postgres) UpsertStyle() UpsertStyle { return UpsertMerge }
func (postgres) QualifySetTarget() bool   { return false }
func (postgres) MergeTerminator() string  { return "" }
