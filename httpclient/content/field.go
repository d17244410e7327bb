package content

import (
	"encoding"
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// Kind classifies a field value. Filters are registered per Kind.
type Kind string

// Value kinds recognised by the encoders.
const (
	KindArray   Kind = "array"
	KindObject  Kind = "object"
	KindString  Kind = "string"
	KindNumber  Kind = "number"
	KindBoolean Kind = "boolean"
	KindBytes   Kind = "bytes"
	KindNull    Kind = "null"
)

// Field is a single key/value pair waiting to be encoded.
type Field struct {
	Key   string
	Value any
}

// Fields is an ordered object. Use it when field order matters, since Go
// maps are encoded in sorted key order.
type Fields []Field

// KindOf reports the kind of v.
//
// Values implementing encoding.TextMarshaler or fmt.Stringer are strings,
// []byte is bytes, slices and arrays are arrays, and maps and structs are
// objects. Fields and []Field are ordered objects. Nil pointers and nil
// interfaces are null.
func KindOf(v any) Kind {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return KindNull
	}
	if rv.Kind() == reflect.Pointer && rv.IsNil() {
		return KindNull
	}

	switch v.(type) {
	case []byte:
		return KindBytes
	case Fields, []Field:
		return KindObject
	case encoding.TextMarshaler, fmt.Stringer:
		return KindString
	}

	switch rv.Kind() {
	case reflect.Pointer:
		return KindOf(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		return KindArray
	case reflect.String:
		return KindString
	case reflect.Bool:
		return KindBoolean
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return KindNumber
	default:
		return KindObject
	}
}

// Stringify renders a scalar value the way the default filter does.
func Stringify(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	case []byte:
		return string(x), nil
	case encoding.TextMarshaler:
		b, err := x.MarshalText()
		if err != nil {
			return "", err
		}
		return string(b), nil
	case fmt.Stringer:
		return x.String(), nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return "", nil
		}
		return Stringify(rv.Elem().Interface())
	case reflect.String:
		return rv.String(), nil
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.Float32:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 32), nil
	case reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64), nil
	default:
		return fmt.Sprint(v), nil
	}
}

// fieldsOf takes a shallow snapshot of the top-level fields of object.
func fieldsOf(object any) (Fields, error) {
	switch o := object.(type) {
	case nil:
		return Fields{}, nil
	case Fields:
		return append(Fields{}, o...), nil
	case []Field:
		return append(Fields{}, o...), nil
	case url.Values:
		keys := make([]string, 0, len(o))
		for k := range o {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		fields := make(Fields, 0, len(keys))
		for _, k := range keys {
			fields = append(fields, Field{Key: k, Value: o[k]})
		}
		return fields, nil
	}

	rv := reflect.ValueOf(object)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return Fields{}, nil
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map:
		return mapFields(rv), nil
	case reflect.Struct:
		return structFields(rv), nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedObject, object)
	}
}

func mapFields(rv reflect.Value) Fields {
	fields := make(Fields, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		key, _ := Stringify(iter.Key().Interface())
		fields = append(fields, Field{Key: key, Value: iter.Value().Interface()})
	}
	sort.SliceStable(fields, func(i, j int) bool { return fields[i].Key < fields[j].Key })
	return fields
}

// structFields lists exported fields in declaration order. Names come from
// the "form" tag, then the "json" tag, then the Go field name. Untagged
// embedded structs are flattened.
func structFields(rv reflect.Value) Fields {
	rt := rv.Type()
	fields := make(Fields, 0, rt.NumField())

	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		fv := rv.Field(i)

		name, omitEmpty, tagged := fieldTag(sf)
		if name == "-" {
			continue
		}

		if sf.Anonymous && !tagged {
			embedded := fv
			if embedded.Kind() == reflect.Pointer {
				if embedded.IsNil() {
					continue
				}
				embedded = embedded.Elem()
			}
			if embedded.Kind() == reflect.Struct {
				fields = append(fields, structFields(embedded)...)
				continue
			}
		}

		if !sf.IsExported() || !fv.CanInterface() {
			continue
		}
		if omitEmpty && fv.IsZero() {
			continue
		}
		if name == "" {
			name = sf.Name
		}

		fields = append(fields, Field{Key: name, Value: fv.Interface()})
	}

	return fields
}

func fieldTag(sf reflect.StructField) (name string, omitEmpty, tagged bool) {
	tag, ok := sf.Tag.Lookup("form")
	if !ok {
		tag, ok = sf.Tag.Lookup("json")
	}
	if !ok {
		return "", false, false
	}

	parts := strings.Split(tag, ",")
	for _, opt := range parts[1:] {
		if opt == "omitempty" {
			omitEmpty = true
		}
	}
	return parts[0], omitEmpty, true
}
