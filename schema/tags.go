package schema

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-openapi/inflect"

	"github.com/syssam/bulkwrite"
)

// TagName is the struct tag read by the Tags provider.
//
//	type User struct {
//	    ID        int64     `bulk:",pk,generated"`
//	    Email     string    `bulk:"email_address,type=varchar(255)"`
//	    CreatedAt time.Time `bulk:",generated"`
//	    Address   Address   `bulk:",owned"`
//	    Posts     []Post    // slices and maps are never stored
//	    Secret    string    `bulk:"-"`
//	}
const TagName = "bulk"

// Naming selects how table and column names are derived from Go names when a
// tag does not name them explicitly.
type Naming int

const (
	// Verbatim keeps Go member names as column names and pluralizes the type
	// name for the table: User.CreatedAt -> Users.CreatedAt, owned members
	// are joined with "_" (Address_City).
	Verbatim Naming = iota
	// SnakeCase converts names to snake_case: User.CreatedAt -> users.created_at,
	// owned members become address_city.
	SnakeCase
)

// Tabler is implemented by entities that name their own table. The name may
// be schema qualified.
type Tabler interface {
	TableName() string
}

// Tags is a Provider that derives mappings from struct declarations and
// `bulk` tags. The zero value uses Verbatim naming.
type Tags struct {
	Naming Naming
}

type tag struct {
	column    string
	skip      bool
	pk        bool
	generated bool
	owned     bool
	sqlType   string
}

func parseTag(s string) (tag, error) {
	var t tag
	if s == "-" {
		t.skip = true
		return t, nil
	}
	for i, part := range splitTag(s) {
		part = strings.TrimSpace(part)
		if i == 0 {
			t.column = part
			continue
		}
		switch {
		case part == "pk":
			t.pk = true
		case part == "generated":
			t.generated = true
		case part == "owned":
			t.owned = true
		case strings.HasPrefix(part, "type="):
			t.sqlType = strings.TrimPrefix(part, "type=")
		case part == "":
		default:
			return t, fmt.Errorf("unknown tag option %q", part)
		}
	}
	return t, nil
}

// splitTag splits on commas outside parentheses, so "type=numeric(10,2)"
// stays one option.
func splitTag(s string) []string {
	var (
		parts []string
		depth int
		start int
	)
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}

// Entity implements Provider.
func (p Tags) Entity(t reflect.Type) (*Entity, error) {
	t = Indirect(t)
	if t == nil || t.Kind() != reflect.Struct {
		return nil, bulkwrite.NewConfigurationError(TypeName(t), "entity must be a struct type")
	}
	e := NewEntity(t, p.table(t))
	if err := p.walk(e, t, "", "", 0); err != nil {
		return nil, err
	}
	// Without an explicit key, a top-level ID member is the primary key.
	for _, f := range e.fields {
		if f.PrimaryKey {
			return e, nil
		}
	}
	for _, name := range []string{"ID", "Id"} {
		if f, ok := e.Field(name); ok {
			f.PrimaryKey = true
			break
		}
	}
	return e, nil
}

func (p Tags) table(t reflect.Type) string {
	if tb, ok := reflect.New(t).Interface().(Tabler); ok {
		return tb.TableName()
	}
	name := inflect.Pluralize(t.Name())
	if p.Naming == SnakeCase {
		return inflect.Underscore(name)
	}
	return name
}

func (p Tags) column(name string) string {
	if p.Naming == SnakeCase {
		return inflect.Underscore(name)
	}
	return name
}

// walk records the members of t. prefix is the dotted path of the owning
// member and colPrefix its column prefix; depth counts owned levels.
func (p Tags) walk(e *Entity, t reflect.Type, prefix, colPrefix string, depth int) error {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		tg, err := parseTag(sf.Tag.Get(TagName))
		if err != nil {
			return bulkwrite.NewMemberConfigurationError(TypeName(e.Type), prefix+sf.Name, err.Error())
		}
		if tg.skip {
			e.AddIgnored(prefix + sf.Name)
			continue
		}
		ft := Indirect(sf.Type)
		// Embedded structs are promoted into the parent.
		if sf.Anonymous && ft.Kind() == reflect.Struct && !IsScalar(ft) && !tg.owned {
			if err := p.walk(e, ft, prefix, colPrefix, depth); err != nil {
				return err
			}
			continue
		}
		path := prefix + sf.Name
		col := tg.column
		if col == "" {
			col = colPrefix + p.column(sf.Name)
		}
		switch {
		case tg.owned:
			e.AddOwned(path)
			// Deeper owned levels are recorded but not expanded; the column
			// resolver rejects them.
			if depth == 0 && ft.Kind() == reflect.Struct {
				if err := p.walk(e, ft, path+".", col+"_", depth+1); err != nil {
					return err
				}
			}
		case IsScalar(ft):
			e.AddField(&Field{
				Path:       path,
				Column:     col,
				SQLType:    tg.sqlType,
				PrimaryKey: tg.pk,
				Generated:  tg.generated,
			})
		}
	}
	return nil
}

var _ Provider = Tags{}
