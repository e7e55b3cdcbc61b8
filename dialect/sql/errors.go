package sql

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// ConstraintKind classifies a constraint violation reported by the database.
type ConstraintKind int

const (
	// NoConstraint means the error is not a recognized constraint violation.
	NoConstraint ConstraintKind = iota
	// UniqueConstraint is a unique index or primary key violation.
	UniqueConstraint
	// ForeignKeyConstraint is a missing parent or existing child row.
	ForeignKeyConstraint
	// CheckConstraint is a failed check condition.
	CheckConstraint
	// NotNullConstraint is a NULL written to a non-nullable column.
	NotNullConstraint
)

// String implements fmt.Stringer.
func (k ConstraintKind) String() string {
	switch k {
	case UniqueConstraint:
		return "unique"
	case ForeignKeyConstraint:
		return "foreign key"
	case CheckConstraint:
		return "check"
	case NotNullConstraint:
		return "not null"
	default:
		return "none"
	}
}

// PostgreSQL SQLSTATE codes for constraint violations (Class 23).
const (
	pgNotNullViolation    = "23502"
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
	pgCheckViolation      = "23514"
)

// MySQL error numbers for constraint violations.
const (
	mysqlBadNull                = 1048
	mysqlDuplicateEntry         = 1062
	mysqlForeignKeyParent       = 1451 // Cannot delete or update a parent row
	mysqlForeignKeyChild        = 1452 // Cannot add or update a child row
	mysqlCheckConstraintViolate = 3819
)

// sqlStateError is implemented by drivers exposing SQLSTATE codes (pgx and
// others) that are not linked into this package.
type sqlStateError interface {
	SQLState() string
}

// Constraint classifies err. Bulk statements propagate driver errors
// unmodified, so this is the way callers tell a duplicate key in batch N
// from a connectivity failure.
func Constraint(err error) ConstraintKind {
	if err == nil {
		return NoConstraint
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pgKind(string(pqErr.Code))
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case mysqlDuplicateEntry:
			return UniqueConstraint
		case mysqlForeignKeyParent, mysqlForeignKeyChild:
			return ForeignKeyConstraint
		case mysqlCheckConstraintViolate:
			return CheckConstraint
		case mysqlBadNull:
			return NotNullConstraint
		}
		return NoConstraint
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return UniqueConstraint
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return ForeignKeyConstraint
		case sqlite3.SQLITE_CONSTRAINT_CHECK:
			return CheckConstraint
		case sqlite3.SQLITE_CONSTRAINT_NOTNULL:
			return NotNullConstraint
		}
	}
	var stateErr sqlStateError
	if errors.As(err, &stateErr) {
		if k := pgKind(stateErr.SQLState()); k != NoConstraint {
			return k
		}
	}
	// Fallback to string matching for drivers that don't expose codes.
	msg := err.Error()
	switch {
	case containsAny(msg, "Error 1062", "violates unique constraint", "UNIQUE constraint failed", "Violation of PRIMARY KEY constraint", "Cannot insert duplicate key"):
		return UniqueConstraint
	case containsAny(msg, "Error 1451", "Error 1452", "violates foreign key constraint", "FOREIGN KEY constraint failed", "conflicted with the FOREIGN KEY constraint"):
		return ForeignKeyConstraint
	case containsAny(msg, "Error 3819", "violates check constraint", "CHECK constraint failed", "conflicted with the CHECK constraint"):
		return CheckConstraint
	case containsAny(msg, "Error 1048", "violates not-null constraint", "NOT NULL constraint failed", "Cannot insert the value NULL"):
		return NotNullConstraint
	}
	return NoConstraint
}

func pgKind(code string) ConstraintKind {
	switch code {
	case pgUniqueViolation:
		return UniqueConstraint
	case pgForeignKeyViolation:
		return ForeignKeyConstraint
	case pgCheckViolation:
		return CheckConstraint
	case pgNotNullViolation:
		return NotNullConstraint
	}
	return NoConstraint
}

// IsConstraintError reports if the error resulted from a database constraint violation.
func IsConstraintError(err error) bool {
	return Constraint(err) != NoConstraint
}

// IsUniqueConstraintError reports if the error resulted from a DB uniqueness constraint violation.
func IsUniqueConstraintError(err error) bool {
	return Constraint(err) == UniqueConstraint
}

// IsForeignKeyConstraintError reports if the error resulted from a database foreign-key constraint violation.
func IsForeignKeyConstraintError(err error) bool {
	return Constraint(err) == ForeignKeyConstraint
}

// IsCheckConstraintError reports if the error resulted from a database check constraint violation.
func IsCheckConstraintError(err error) bool {
	return Constraint(err) == CheckConstraint
}

// IsNotNullConstraintError reports if the error resulted from a NULL written to a non-nullable column.
func IsNotNullConstraintError(err error) bool {
	return Constraint(err) == NotNullConstraint
}

// containsAny returns true if s contains any of the substrings.
func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
