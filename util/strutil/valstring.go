package strutil

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Vtos converts any numeric or common type value to a string.
func Vtos(value any) (string, error) {
	v := reflect.ValueOf(value)

	// Handle nil case
	if !v.IsValid() {
		return "", fmt.Errorf("invalid value")
	}

	// Handle pointer dereferencing
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return "", fmt.Errorf("nil pointer")
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.String:
		return v.String(), nil

	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'f', -1, 64), nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10), nil

	case reflect.Bool:
		return strconv.FormatBool(v.Bool()), nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10), nil

	default:
		return "", fmt.Errorf("unsupported kind %s", v.Kind())
	}
}

// Stov parses value into a reflect.Value of exactly typ, so the result can be
// assigned to a struct field of that type. Surrounding whitespace is ignored
// for non-string kinds.
func Stov(value string, typ reflect.Type) (reflect.Value, error) {
	if typ.Kind() == reflect.String {
		return reflect.ValueOf(value).Convert(typ), nil
	}

	value = strings.TrimSpace(value)

	var (
		parsed any
		err    error
	)

	switch typ.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		parsed, err = strconv.ParseInt(value, 10, typ.Bits())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		parsed, err = strconv.ParseUint(value, 10, typ.Bits())
	case reflect.Float32, reflect.Float64:
		parsed, err = strconv.ParseFloat(value, typ.Bits())
	case reflect.Bool:
		parsed, err = strconv.ParseBool(value)
	default:
		return reflect.Value{}, fmt.Errorf("unsupported type %s", typ.Kind())
	}

	if err != nil {
		return reflect.Value{}, err
	}

	return reflect.ValueOf(parsed).Convert(typ), nil
}
