package sdp

import (
	"fmt"
	"reflect"

	"github.com/pion/sdp/v3"
	"github.com/rebeljah/gamestream/util/strutil"
)

// PopulateStructFromAttributes fills the fields of the struct pointed to by v
// from SDP attributes. A field is matched by its `sdp` tag; attributes with
// no matching field are ignored, so a full session description can be fed
// in. Fields without an `sdp` tag are left unmodified. Pointer fields are
// allocated before being set.
//
// Returns an error if a type conversion fails for a matched field.
func PopulateStructFromAttributes(v any, attributes []sdp.Attribute) error {
	val := reflect.ValueOf(v)
	if val.Kind() != reflect.Ptr || val.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("expected a pointer to a struct, got %T", v)
	}

	val = val.Elem()
	typ := val.Type()

	fields := make(map[string]int, typ.NumField())
	for i := range typ.NumField() {
		if tag := typ.Field(i).Tag.Get("sdp"); tag != "" {
			fields[tag] = i
		}
	}

	for _, attr := range attributes {
		i, ok := fields[attr.Key]
		if !ok {
			continue
		}

		field := typ.Field(i)
		fieldValue := val.Field(i)
		fieldType := field.Type

		if fieldType.Kind() == reflect.Ptr {
			fieldType = fieldType.Elem()
		}

		converted, err := strutil.Stov(attr.Value, fieldType)
		if err != nil {
			return fmt.Errorf("error converting value for field `%s`: %w", field.Name, err)
		}

		if fieldValue.Kind() == reflect.Ptr {
			fieldValue.Set(reflect.New(fieldType))
			fieldValue = fieldValue.Elem()
		}
		fieldValue.Set(converted)
	}

	return nil
}

// NewAttributesFromStruct converts every field of the struct pointed to by v
// that carries an `sdp:"key"` tag into an sdp.Attribute, in field order.
// A tagged field whose value cannot be formatted as a string is an error.
func NewAttributesFromStruct(v any) ([]sdp.Attribute, error) {
	val := reflect.ValueOf(v)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	if val.Kind() != reflect.Struct {
		return nil, fmt.Errorf("expected a struct, got %T", v)
	}

	typ := val.Type()
	var attributes []sdp.Attribute

	for i := range typ.NumField() {
		sdpKey := typ.Field(i).Tag.Get("sdp")
		if sdpKey == "" {
			continue
		}

		s, err := strutil.Vtos(val.Field(i).Interface())
		if err != nil {
			return nil, fmt.Errorf("field `%s` cannot be made into string: %w", typ.Field(i).Name, err)
		}

		attributes = append(attributes, sdp.NewAttribute(sdpKey, s))
	}

	return attributes, nil
}
