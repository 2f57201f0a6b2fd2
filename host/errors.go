package host

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrClosed is returned by every host operation after Close.
var ErrClosed = errors.New("host is closed")

// NotFoundError is returned when no running component has the requested name.
type NotFoundError struct {
	Name string
}

// NewNotFoundError returns an error for a missing component.
func NewNotFoundError(name string) error {
	return &NotFoundError{Name: name}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("component %q not found", e.Name)
}

// IsNotFoundError returns if the given error is any kind of not found error.
func IsNotFoundError(err error) bool {
	var errArt *NotFoundError
	return errors.As(err, &errArt)
}
