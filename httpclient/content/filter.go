package content

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrNestedStructure is returned when an object or map value reaches the
	// default object filter.
	ErrNestedStructure = errors.New("nested data structure are not supported in forms")

	// ErrUnsupportedObject is returned when the value passed to Form or
	// Multipart has no fields (it is not a struct, map, Fields or url.Values).
	ErrUnsupportedObject = errors.New("content: value cannot be encoded as form fields")
)

// Filter transforms a field before it is encoded.
//
// It returns the pair to encode and true, or false to drop the pair. The
// queue is the live work list: a filter may push fields onto it to have
// them encoded next.
type Filter func(f Field, q *Queue) (Field, bool, error)

// Filters maps value kinds to filters. Kinds without an entry use the
// default filter for that kind.
type Filters map[Kind]Filter

// DefaultFilter stringifies scalar values.
func DefaultFilter(f Field, _ *Queue) (Field, bool, error) {
	s, err := Stringify(f.Value)
	if err != nil {
		return Field{}, false, fmt.Errorf("field %q: %w", f.Key, err)
	}
	return Field{Key: f.Key, Value: s}, true, nil
}

// ObjectFilter rejects nested structures.
func ObjectFilter(f Field, _ *Queue) (Field, bool, error) {
	return Field{}, false, fmt.Errorf("field %q: %w", f.Key, ErrNestedStructure)
}

// ArrayFilter expands a slice or array into one field per element, under
// the same key and in element order.
func ArrayFilter(f Field, q *Queue) (Field, bool, error) {
	rv := reflect.ValueOf(f.Value)
	for rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}

	elems := make([]Field, rv.Len())
	for i := range elems {
		elems[i] = Field{Key: f.Key, Value: rv.Index(i).Interface()}
	}
	q.PushFront(elems...)

	return Field{}, false, nil
}

// NullFilter drops nil values.
func NullFilter(_ Field, _ *Queue) (Field, bool, error) {
	return Field{}, false, nil
}

func defaultFilterFor(k Kind) Filter {
	switch k {
	case KindArray:
		return ArrayFilter
	case KindObject:
		return ObjectFilter
	case KindNull:
		return NullFilter
	default:
		return DefaultFilter
	}
}
