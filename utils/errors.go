package utils

import (
	"reflect"

	"github.com/pkg/errors"
)

// TypeStr returns a human readable name of the type of the given value. A typed nil pointer to an
// interface (e.g. `(*sensor.Readings)(nil)`) names the interface itself.
func TypeStr(v interface{}) string {
	if v == nil {
		return "<unknown (nil interface)>"
	}
	t := reflect.TypeOf(v)
	if t.Kind() == reflect.Ptr && t.Elem().Kind() == reflect.Interface {
		return t.Elem().String()
	}
	return t.String()
}

// NewUnexpectedTypeError is used when there is a type mismatch.
func NewUnexpectedTypeError(expected, actual interface{}) error {
	return errors.Errorf("expected %s but got %T", TypeStr(expected), actual)
}

// NewUnimplementedInterfaceError is used when there is a failed interface check.
func NewUnimplementedInterfaceError(expected, actual interface{}) error {
	return errors.Errorf("expected implementation of %s but got %T", TypeStr(expected), actual)
}

// DependencyTypeError is used when a resolved dependency does not implement what its dependent
// needs from it.
func DependencyTypeError(name string, expected, actual interface{}) error {
	return errors.Errorf("dependency %q should be an implementation of %s but it was a %T", name, TypeStr(expected), actual)
}
