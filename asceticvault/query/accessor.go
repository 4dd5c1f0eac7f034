package query

import (
	"fmt"
	"reflect"
	"strings"
)

// CaseAccessor reads bound parameters in string form and normalizes
// candidates, applying the case policy of a condition.
type CaseAccessor interface {
	NextString(params *Parameters) (string, error)
	NextArray(params *Parameters) ([]string, error)
	Normalize(candidate string) string
}

var (
	AsIs      CaseAccessor = asIsAccessor{}
	Lowercase CaseAccessor = lowercaseAccessor{}
)

// AccessorFor selects Lowercase when the part ignores case.
func AccessorFor(part Part) CaseAccessor {
	if part.ShouldIgnoreCase() {
		return Lowercase
	}
	return AsIs
}

type asIsAccessor struct{}

func (asIsAccessor) NextString(params *Parameters) (string, error) {
	index, value, err := params.next()
	if err != nil {
		return "", err
	}
	return stringify(index, value)
}

func (asIsAccessor) NextArray(params *Parameters) ([]string, error) {
	index, value, err := params.next()
	if err != nil {
		return nil, err
	}
	return stringSlice(index, value)
}

func (asIsAccessor) Normalize(candidate string) string {
	return candidate
}

type lowercaseAccessor struct{}

func (lowercaseAccessor) NextString(params *Parameters) (string, error) {
	s, err := AsIs.NextString(params)
	if err != nil {
		return "", err
	}
	return strings.ToLower(s), nil
}

func (lowercaseAccessor) NextArray(params *Parameters) ([]string, error) {
	values, err := AsIs.NextArray(params)
	if err != nil {
		return nil, err
	}
	for i, v := range values {
		values[i] = strings.ToLower(v)
	}
	return values, nil
}

func (lowercaseAccessor) Normalize(candidate string) string {
	return strings.ToLower(candidate)
}

// isNil reports untyped nil as well as nil pointers, maps, slices, funcs,
// channels and interfaces stored in an interface value.
func isNil(value any) bool {
	if value == nil {
		return true
	}
	switch rv := reflect.ValueOf(value); rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}

func stringify(index int, value any) (string, error) {
	if isNil(value) {
		return "", &InvalidParameterError{Index: index, Reason: "nil value"}
	}
	switch v := value.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case fmt.Stringer:
		return v.String(), nil
	default:
		return fmt.Sprint(v), nil
	}
}

// stringSlice converts a collection parameter element-wise. A scalar is
// treated as a single-element collection.
func stringSlice(index int, value any) ([]string, error) {
	if isNil(value) {
		return nil, &InvalidParameterError{Index: index, Reason: "nil collection"}
	}
	switch v := value.(type) {
	case []string:
		return append([]string(nil), v...), nil
	case []byte:
		return []string{string(v)}, nil
	case []any:
		result := make([]string, len(v))
		for i, item := range v {
			s, err := stringify(index, item)
			if err != nil {
				return nil, err
			}
			result[i] = s
		}
		return result, nil
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		s, err := stringify(index, value)
		if err != nil {
			return nil, err
		}
		return []string{s}, nil
	}
	result := make([]string, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		s, err := stringify(index, rv.Index(i).Interface())
		if err != nil {
			return nil, err
		}
		result[i] = s
	}
	return result, nil
}
