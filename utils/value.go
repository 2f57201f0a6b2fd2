package utils

import (
	"reflect"

	"github.com/pkg/errors"
)

// AssertType attempts to assert that the given interface argument is
// the given type parameter.
func AssertType[T any](from interface{}) (T, error) {
	var zero T
	asserted, ok := from.(T)
	if !ok {
		return zero, errors.Errorf("expected %s but got %T", reflect.TypeOf((*T)(nil)).Elem(), from)
	}
	return asserted, nil
}
