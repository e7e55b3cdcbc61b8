package columns

import (
	"database/sql/driver"
	"fmt"
	"reflect"

	"github.com/syssam/bulkwrite/schema"
)

var valuerType = reflect.TypeOf((*driver.Valuer)(nil)).Elem()

// BindValues extracts the values of instance, a struct or a pointer to one,
// into the Value field of every property of the tree. Owned objects that are
// nil yield nil for all of their members. Enums bind as their integral value
// and driver.Valuer members are evaluated, so a nil Value always means NULL.
func BindValues(props []*Property, instance any) error {
	v := reflect.ValueOf(instance)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return fmt.Errorf("columns: bind values: nil %s", v.Type())
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return fmt.Errorf("columns: bind values: expect struct, got %s", v.Type())
	}
	return bindValues(props, v)
}

func bindValues(props []*Property, root reflect.Value) error {
	for _, p := range props {
		fv, ok := fieldByIndex(root, p.Index)
		if p.IsComplex() {
			p.Value = nil
			if ok && !(fv.Kind() == reflect.Pointer && fv.IsNil()) {
				p.Value = fv.Interface()
			}
			if err := bindValues(p.Children, root); err != nil {
				return err
			}
			continue
		}
		if !ok {
			p.Value = nil
			continue
		}
		val, err := scalar(fv)
		if err != nil {
			return fmt.Errorf("columns: bind %s: %w", p.Name, err)
		}
		p.Value = val
	}
	return nil
}

// Values binds instance and returns the values of the flat list in order.
func Values(list []*Property, instance any) ([]any, error) {
	if err := BindValues(list, instance); err != nil {
		return nil, err
	}
	out := make([]any, len(list))
	for i, p := range list {
		out[i] = p.Value
	}
	return out, nil
}

// fieldByIndex is like reflect.Value.FieldByIndex but reports false instead
// of panicking when it meets a nil pointer on the path.
func fieldByIndex(v reflect.Value, index []int) (reflect.Value, bool) {
	for i, x := range index {
		if i > 0 {
			for v.Kind() == reflect.Pointer {
				if v.IsNil() {
					return reflect.Value{}, false
				}
				v = v.Elem()
			}
		}
		v = v.Field(x)
	}
	return v, true
}

func scalar(fv reflect.Value) (any, error) {
	if fv.Kind() == reflect.Pointer {
		if fv.IsNil() {
			return nil, nil
		}
		if fv.Type().Implements(valuerType) {
			return fv.Interface().(driver.Valuer).Value()
		}
		fv = fv.Elem()
	}
	switch {
	case fv.Type().Implements(valuerType):
		return fv.Interface().(driver.Valuer).Value()
	case fv.CanAddr() && fv.Addr().Type().Implements(valuerType):
		return fv.Addr().Interface().(driver.Valuer).Value()
	case schema.IsEnum(fv.Type()):
		switch fv.Kind() {
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return fv.Uint(), nil
		default:
			return fv.Int(), nil
		}
	}
	return fv.Interface(), nil
}

// NewHolder allocates a scan destination for the leaf prop. database/sql
// converts into it, so nullable pointers, enums and sql.Scanner types are
// decoded by their own rules. Members that are not pointers get a pointer
// destination, so a NULL scans cleanly and assigns the zero value.
func NewHolder(prop *Property) any {
	t := prop.Field.Type
	if t.Kind() != reflect.Pointer {
		t = reflect.PointerTo(t)
	}
	return reflect.New(t).Interface()
}

// Assign stores a holder returned by NewHolder into the member of instance
// described by prop. Nil owned pointers on the way are allocated.
func Assign(prop *Property, instance any, holder any) error {
	v := reflect.ValueOf(instance)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return fmt.Errorf("columns: assign %s: expect non-nil pointer, got %T", prop.Name, instance)
	}
	v = v.Elem()
	for i, x := range prop.Index {
		if i > 0 {
			for v.Kind() == reflect.Pointer {
				if v.IsNil() {
					v.Set(reflect.New(v.Type().Elem()))
				}
				v = v.Elem()
			}
		}
		v = v.Field(x)
	}
	hv := reflect.ValueOf(holder)
	if hv.Kind() != reflect.Pointer || hv.IsNil() {
		return fmt.Errorf("columns: assign %s: holder %T does not match %s", prop.Name, holder, v.Type())
	}
	hv = hv.Elem()
	if hv.Type() != v.Type() {
		if hv.Kind() != reflect.Pointer || hv.Type().Elem() != v.Type() {
			return fmt.Errorf("columns: assign %s: holder %T does not match %s", prop.Name, holder, v.Type())
		}
		if hv.IsNil() {
			v.Set(reflect.Zero(v.Type()))
			return nil
		}
		hv = hv.Elem()
	}
	v.Set(hv)
	return nil
}
