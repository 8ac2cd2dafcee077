package typedb

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// datetimeLayout is the TypeQL datetime literal, always rendered in UTC.
const datetimeLayout = "2006-01-02T15:04:05.000000+0000"

// Date renders as an unquoted YYYY-MM-DD literal instead of a full datetime.
type Date time.Time

// Sanitize escapes a string for splicing between double quotes in a TypeQL
// literal. Backslashes are escaped before quotes; reversing the order would
// let `x\"` survive as an unterminated literal.
func Sanitize(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}

// FormatValue maps a Go value to its TypeQL literal form. Absent values
// (nil, typed nil pointers) fail with NullLiteralError: the query language
// has no null literal and callers must use clause elision instead.
func FormatValue(v any) (string, error) {
	if v == nil {
		return "", &NullLiteralError{}
	}

	switch val := v.(type) {
	case string:
		return `"` + Sanitize(val) + `"`, nil
	case uuid.UUID:
		return `"` + val.String() + `"`, nil
	// bool must be handled before the integer cases: several callers hold
	// values as any, and a bool rendered as 0/1 would type-check as long.
	case bool:
		if val {
			return "true", nil
		}
		return "false", nil
	case int:
		return strconv.Itoa(val), nil
	case int32:
		return strconv.FormatInt(int64(val), 10), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32), nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	case Date:
		return time.Time(val).UTC().Format("2006-01-02"), nil
	case time.Time:
		return val.UTC().Format(datetimeLayout), nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return "", &NullLiteralError{}
		}
		return FormatValue(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		parts := make([]string, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			lit, err := FormatValue(rv.Index(i).Interface())
			if err != nil {
				return "", err
			}
			parts = append(parts, lit)
		}
		return "[" + strings.Join(parts, ", ") + "]", nil
	}

	return "", fmt.Errorf("unsupported value type %T", v)
}

// isAbsent reports whether a parameter value stands for "no value". Typed nil
// pointers count: optional model fields arrive here as *string / *time.Time.
func isAbsent(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
