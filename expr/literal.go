package expr

import (
	"database/sql/driver"
	"reflect"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/syssam/bulkwrite"
)

// Literal formats v as a SQL literal of the backend described by f.
//
//	nil, nil pointers  NULL
//	bool               f.BoolLiteral
//	string             f.StringLiteral
//	uuid.UUID          f.UUIDLiteral
//	time.Time          f.TimeLiteral
//	enums              their integral value
//	driver.Valuer      the literal of its value
//
// Other values, and Valuers that fail, are a *bulkwrite.CompilerError.
func Literal(v any, f Formatter) (string, error) {
	if v == nil {
		return null, nil
	}
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return null, nil
		}
		return Literal(rv.Elem().Interface(), f)
	}
	switch v := v.(type) {
	case bool:
		return f.BoolLiteral(v), nil
	case string:
		return f.StringLiteral(v), nil
	case []byte:
		return f.StringLiteral(string(v)), nil
	case uuid.UUID:
		return f.UUIDLiteral(v.String()), nil
	case time.Time:
		return f.TimeLiteral(v), nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32), nil
	case driver.Valuer:
		dv, err := v.Value()
		if err != nil {
			return "", bulkwrite.NewCompilerError("literal", "value of %T: %v", v, err)
		}
		if _, again := dv.(driver.Valuer); again {
			return "", bulkwrite.NewCompilerError("literal", "value of %T is itself a driver.Valuer", v)
		}
		return Literal(dv, f)
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return f.BoolLiteral(rv.Bool()), nil
	case reflect.String:
		return f.StringLiteral(rv.String()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		// Covers enums: `type Status int` renders as its number.
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'g', -1, 64), nil
	}
	return "", bulkwrite.NewCompilerError("literal", "%T has no SQL literal form", v)
}
