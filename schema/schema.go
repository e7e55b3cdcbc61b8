package schema

import (
	"database/sql"
	"database/sql/driver"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/syssam/bulkwrite"
)

// Provider supplies storage mappings for entity types. Implementations must
// be safe for concurrent use; the column resolver calls Entity at most once
// per type and caches the result.
type Provider interface {
	// Entity returns the mapping of the given struct type. A type with no
	// mapping is a *bulkwrite.ConfigurationError.
	Entity(t reflect.Type) (*Entity, error)
}

// ProviderFunc adapts an ordinary function to the Provider interface.
type ProviderFunc func(reflect.Type) (*Entity, error)

// Entity implements Provider.
func (f ProviderFunc) Entity(t reflect.Type) (*Entity, error) { return f(t) }

// Field is the storage mapping of one member.
type Field struct {
	// Path is the dotted Go member path from the entity root, e.g. "Address.City".
	Path string
	// Column is the database column name. Empty means the member is not stored.
	Column string
	// SQLType is the configured column type, e.g. "varchar(100)". Optional.
	SQLType    string
	PrimaryKey bool
	// Generated marks columns computed by the database: identities,
	// defaults read back after insert, computed columns.
	Generated bool
}

// Entity is the storage mapping of one struct type.
type Entity struct {
	Type   reflect.Type
	Schema string
	Table  string

	fields  []*Field
	byPath  map[string]*Field
	owned   map[string]bool
	ignored map[string]bool
}

// NewEntity returns an entity mapping for the given type and table. table may
// be schema qualified ("dbo.Users").
func NewEntity(typ reflect.Type, table string, fields ...*Field) *Entity {
	e := &Entity{
		Type:    typ,
		byPath:  make(map[string]*Field, len(fields)),
		owned:   make(map[string]bool),
		ignored: make(map[string]bool),
	}
	e.Schema, e.Table = SplitTable(table)
	for _, f := range fields {
		e.AddField(f)
	}
	return e
}

// AddField adds or replaces the mapping of f.Path.
func (e *Entity) AddField(f *Field) *Entity {
	if old, ok := e.byPath[f.Path]; ok {
		*old = *f
		return e
	}
	e.fields = append(e.fields, f)
	e.byPath[f.Path] = f
	return e
}

// AddOwned marks the given member paths as owned (embedded) objects whose
// members are stored in the entity's own table.
func (e *Entity) AddOwned(paths ...string) *Entity {
	for _, p := range paths {
		e.owned[p] = true
	}
	return e
}

// AddIgnored marks the given member paths as not stored. Unlike an unmapped
// scalar, an ignored struct member is not expected to be owned.
func (e *Entity) AddIgnored(paths ...string) *Entity {
	for _, p := range paths {
		e.ignored[p] = true
	}
	return e
}

// Ignored reports whether the member at path was explicitly excluded.
func (e *Entity) Ignored(path string) bool {
	return e.ignored[path]
}

// Field returns the mapping of the member at path.
func (e *Entity) Field(path string) (*Field, bool) {
	f, ok := e.byPath[path]
	return f, ok
}

// Fields returns the mapped members in declaration order.
func (e *Entity) Fields() []*Field {
	return e.fields
}

// Owned reports whether the member at path is an owned object.
func (e *Entity) Owned(path string) bool {
	return e.owned[path]
}

// Name returns the Go name of the entity type.
func (e *Entity) Name() string {
	return TypeName(e.Type)
}

// Static is a Provider backed by a fixed set of mappings.
type Static map[reflect.Type]*Entity

// Add registers e under its type.
func (s Static) Add(e *Entity) Static {
	s[e.Type] = e
	return s
}

// Entity implements Provider.
func (s Static) Entity(t reflect.Type) (*Entity, error) {
	t = Indirect(t)
	if e, ok := s[t]; ok {
		return e, nil
	}
	return nil, bulkwrite.NewConfigurationError(TypeName(t), "no mapping registered")
}

// SplitTable splits a possibly schema qualified table name.
func SplitTable(name string) (schema, table string) {
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		return name[:i], name[i+1:]
	}
	return "", name
}

// Indirect returns the element type of pointer types.
func Indirect(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// TypeName returns the unqualified Go name of t, e.g. "User".
func TypeName(t reflect.Type) string {
	t = Indirect(t)
	if t == nil {
		return "<nil>"
	}
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}

var (
	timeType    = reflect.TypeOf(time.Time{})
	uuidType    = reflect.TypeOf(uuid.UUID{})
	bytesType   = reflect.TypeOf([]byte(nil))
	valuerType  = reflect.TypeOf((*driver.Valuer)(nil)).Elem()
	scannerType = reflect.TypeOf((*sql.Scanner)(nil)).Elem()
)

// IsScalar reports whether values of t are stored in a single column:
// basic kinds, []byte, time.Time, uuid.UUID, driver.Valuer and sql.Scanner
// implementations, and pointers to any of them.
func IsScalar(t reflect.Type) bool {
	t = Indirect(t)
	switch t {
	case timeType, uuidType, bytesType:
		return true
	}
	if t.Implements(valuerType) || reflect.PointerTo(t).Implements(scannerType) {
		return true
	}
	switch t.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	case reflect.Slice:
		return t.Elem().Kind() == reflect.Uint8
	}
	return false
}

// IsEnum reports whether t is a named integer type other than the builtin
// ones, e.g. `type Status int`. Enums are bound by their integral value.
func IsEnum(t reflect.Type) bool {
	t = Indirect(t)
	if t.PkgPath() == "" {
		return false
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return !t.Implements(valuerType)
	}
	return false
}
