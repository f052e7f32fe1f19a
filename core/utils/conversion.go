package utils

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// ToFloat returns numeric payload values as float64. Strings are not numbers
// here: "3" and 3 stay distinct field values.
func ToFloat(val any) (float64, bool) {
	if n, ok := val.(json.Number); ok {
		f, err := n.Float64()
		return f, err == nil
	}
	if val == nil {
		return 0, false
	}
	rv := reflect.ValueOf(val)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	default:
		return 0, false
	}
}

// ToInt converts numbers and numeric text to int, truncating fractions.
// Anything else yields 0.
func ToInt(val any) int {
	if f, ok := ToFloat(val); ok {
		return int(f)
	}
	s := strings.TrimSpace(ToString(val))
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	return 0
}

// ToString renders a payload value as text; nil is the empty string.
func ToString(val any) string {
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case json.Number:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
