package dialect

import (
	"database/sql"
	"reflect"
	"time"

	"github.com/google/uuid"
)

// typeClass is the portable family of a Go member type, used to pick a
// column type when the mapping configures none.
type typeClass int

const (
	classUnknown typeClass = iota
	classBool
	classInt16
	classInt32
	classInt64
	classFloat32
	classFloat64
	classString
	classBytes
	classTime
	classUUID
)

var (
	timeType  = reflect.TypeOf(time.Time{})
	uuidType  = reflect.TypeOf(uuid.UUID{})
	bytesType = reflect.TypeOf([]byte(nil))

	nullTypes = map[reflect.Type]typeClass{
		reflect.TypeOf(sql.NullBool{}):    classBool,
		reflect.TypeOf(sql.NullByte{}):    classInt16,
		reflect.TypeOf(sql.NullInt16{}):   classInt16,
		reflect.TypeOf(sql.NullInt32{}):   classInt32,
		reflect.TypeOf(sql.NullInt64{}):   classInt64,
		reflect.TypeOf(sql.NullFloat64{}): classFloat64,
		reflect.TypeOf(sql.NullString{}):  classString,
		reflect.TypeOf(sql.NullTime{}):    classTime,
		reflect.TypeOf(uuid.NullUUID{}):   classUUID,
	}
)

func classify(t reflect.Type) typeClass {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return classUnknown
	}
	switch t {
	case timeType:
		return classTime
	case uuidType:
		return classUUID
	case bytesType:
		return classBytes
	}
	if c, ok := nullTypes[t]; ok {
		return c
	}
	switch t.Kind() {
	case reflect.Bool:
		return classBool
	case reflect.Int8, reflect.Int16, reflect.Uint8:
		return classInt16
	case reflect.Int32, reflect.Uint16:
		return classInt32
	case reflect.Int, reflect.Int64, reflect.Uint, reflect.Uint32, reflect.Uint64:
		return classInt64
	case reflect.Float32:
		return classFloat32
	case reflect.Float64:
		return classFloat64
	case reflect.String:
		return classString
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return classBytes
		}
	}
	return classUnknown
}

// columnType looks the class of t up in names, returning "" for types
// without a default.
func columnType(t reflect.Type, names map[typeClass]string) string {
	return names[classify(t)]
}
