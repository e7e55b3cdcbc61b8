package bulkwrite

import (
	"errors"
	"fmt"
)

// Sentinel errors for the four failure classes raised before any statement
// reaches the database. Typed errors below match them with errors.Is.
var (
	// ErrConfiguration is returned when an entity or one of its members has no
	// usable mapping in the metadata provider.
	ErrConfiguration = errors.New("bulkwrite: configuration error")

	// ErrCompiler is returned when an expression tree cannot be translated to SQL.
	ErrCompiler = errors.New("bulkwrite: expression compiler error")

	// ErrUsage is returned when a bulk operation is called with missing or
	// inconsistent arguments.
	ErrUsage = errors.New("bulkwrite: usage error")

	// ErrNotSupported is returned when the requested operation cannot be
	// expressed for the target dialect or exceeds its limits.
	ErrNotSupported = errors.New("bulkwrite: not supported")
)

// ConfigurationError represents a missing or invalid metadata mapping.
type ConfigurationError struct {
	Entity string // Go type name of the entity
	Member string // Optional: the dotted member path
	Reason string
}

// Error returns the error string.
func (e *ConfigurationError) Error() string {
	if e.Member != "" {
		return fmt.Sprintf("bulkwrite: entity %s: member %q: %s", e.Entity, e.Member, e.Reason)
	}
	return fmt.Sprintf("bulkwrite: entity %s: %s", e.Entity, e.Reason)
}

// Is reports whether the target error matches ErrConfiguration.
func (e *ConfigurationError) Is(err error) bool {
	return err == ErrConfiguration
}

// NewConfigurationError returns a new ConfigurationError for the given entity.
func NewConfigurationError(entity, reason string) *ConfigurationError {
	return &ConfigurationError{Entity: entity, Reason: reason}
}

// NewMemberConfigurationError returns a new ConfigurationError for a member of the given entity.
func NewMemberConfigurationError(entity, member, reason string) *ConfigurationError {
	return &ConfigurationError{Entity: entity, Member: member, Reason: reason}
}

// IsConfigurationError returns true if the error is a ConfigurationError.
func IsConfigurationError(err error) bool {
	if err == nil {
		return false
	}
	var e *ConfigurationError
	return errors.As(err, &e) || errors.Is(err, ErrConfiguration)
}

// CompilerError represents an expression that has no SQL translation.
type CompilerError struct {
	Node   string // Kind of the offending node, e.g. "call" or "binary"
	Reason string
}

// Error returns the error string.
func (e *CompilerError) Error() string {
	if e.Node != "" {
		return fmt.Sprintf("bulkwrite: compile %s: %s", e.Node, e.Reason)
	}
	return fmt.Sprintf("bulkwrite: compile: %s", e.Reason)
}

// Is reports whether the target error matches ErrCompiler.
func (e *CompilerError) Is(err error) bool {
	return err == ErrCompiler
}

// NewCompilerError returns a new CompilerError.
func NewCompilerError(node, format string, args ...any) *CompilerError {
	return &CompilerError{Node: node, Reason: fmt.Sprintf(format, args...)}
}

// IsCompilerError returns true if the error is a CompilerError.
func IsCompilerError(err error) bool {
	if err == nil {
		return false
	}
	var e *CompilerError
	return errors.As(err, &e) || errors.Is(err, ErrCompiler)
}

// UsageError represents a bulk operation that was called incorrectly, for
// example a DELETE without a predicate.
type UsageError struct {
	Op     string // Operation (e.g., "insert", "update", "merge")
	Reason string
}

// Error returns the error string.
func (e *UsageError) Error() string {
	return fmt.Sprintf("bulkwrite: %s: %s", e.Op, e.Reason)
}

// Is reports whether the target error matches ErrUsage.
func (e *UsageError) Is(err error) bool {
	return err == ErrUsage
}

// NewUsageError returns a new UsageError.
func NewUsageError(op, format string, args ...any) *UsageError {
	return &UsageError{Op: op, Reason: fmt.Sprintf(format, args...)}
}

// IsUsageError returns true if the error is a UsageError.
func IsUsageError(err error) bool {
	if err == nil {
		return false
	}
	var e *UsageError
	return errors.As(err, &e) || errors.Is(err, ErrUsage)
}

// NotSupportedError represents an operation the dialect cannot express.
type NotSupportedError struct {
	Op      string
	Dialect string
	Reason  string
}

// Error returns the error string.
func (e *NotSupportedError) Error() string {
	if e.Dialect != "" {
		return fmt.Sprintf("bulkwrite: %s is not supported by %s: %s", e.Op, e.Dialect, e.Reason)
	}
	return fmt.Sprintf("bulkwrite: %s is not supported: %s", e.Op, e.Reason)
}

// Is reports whether the target error matches ErrNotSupported.
func (e *NotSupportedError) Is(err error) bool {
	return err == ErrNotSupported
}

// NewNotSupportedError returns a new NotSupportedError.
func NewNotSupportedError(op, dialect, format string, args ...any) *NotSupportedError {
	return &NotSupportedError{Op: op, Dialect: dialect, Reason: fmt.Sprintf(format, args...)}
}

// IsNotSupported returns true if the error is a NotSupportedError.
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}
	var e *NotSupportedError
	return errors.As(err, &e) || errors.Is(err, ErrNotSupported)
}

// RollbackError wraps an error that occurred while rolling back an
// engine-owned transaction after a failed batch.
type RollbackError struct {
	Err error // Error returned by Rollback
}

// Error returns the error string.
func (e *RollbackError) Error() string {
	return fmt.Sprintf("bulkwrite: rollback failed: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *RollbackError) Unwrap() error {
	return e.Err
}

// IsRollbackError returns true if the error chain contains a RollbackError.
func IsRollbackError(err error) bool {
	if err == nil {
		return false
	}
	var e *RollbackError
	return errors.As(err, &e)
}
