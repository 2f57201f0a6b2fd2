package resource

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrHandleClosed is returned by every call on a handle whose last holder has released it.
var ErrHandleClosed = errors.New("component handle is closed")

// A DuplicateNameError is returned when a model is registered twice.
type DuplicateNameError struct {
	Model Model
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("model %q is already registered", e.Model)
}

// NewDuplicateNameError returns an error for a second registration of model.
func NewDuplicateNameError(model Model) error {
	return &DuplicateNameError{Model: model}
}

// IsDuplicateName returns if the given error is any kind of duplicate registration error.
func IsDuplicateName(err error) bool {
	var errArt *DuplicateNameError
	return errors.As(err, &errArt)
}

// An UnknownComponentError is returned when construction names a model nobody registered.
type UnknownComponentError struct {
	Model Model
}

func (e *UnknownComponentError) Error() string {
	return fmt.Sprintf("unknown component model %q", e.Model)
}

// NewUnknownComponentError returns an error for an unregistered model.
func NewUnknownComponentError(model Model) error {
	return &UnknownComponentError{Model: model}
}

// IsUnknownComponent returns if the given error is any kind of unknown model error.
func IsUnknownComponent(err error) bool {
	var errArt *UnknownComponentError
	return errors.As(err, &errArt)
}

// A ConfigurationError is returned when a component cannot be built from its config.
type ConfigurationError struct {
	Name  string
	Model Model
	Cause error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("cannot configure %q (model %q): %v", e.Name, e.Model, e.Cause)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Cause
}

// NewConfigurationError wraps cause. A cause that already is a ConfigurationError is returned as is.
func NewConfigurationError(name string, model Model, cause error) error {
	if IsConfigurationError(cause) {
		return cause
	}
	return &ConfigurationError{Name: name, Model: model, Cause: cause}
}

// IsConfigurationError returns if the given error is any kind of configuration error.
func IsConfigurationError(err error) bool {
	var errArt *ConfigurationError
	return errors.As(err, &errArt)
}

// An UnsupportedCapabilityError is returned when a caller invokes a capability the component
// does not implement.
type UnsupportedCapabilityError struct {
	Name       string
	Capability Capability
}

func (e *UnsupportedCapabilityError) Error() string {
	return fmt.Sprintf("component %q does not support %s", e.Name, e.Capability)
}

// NewUnsupportedCapabilityError returns an error for a call to a missing capability.
func NewUnsupportedCapabilityError(name string, c Capability) error {
	return &UnsupportedCapabilityError{Name: name, Capability: c}
}

// IsUnsupportedCapability returns if the given error is any kind of unsupported capability error.
func IsUnsupportedCapability(err error) bool {
	var errArt *UnsupportedCapabilityError
	return errors.As(err, &errArt)
}

// An OperationalError is a genuine fault raised by a capability call.
type OperationalError struct {
	Name       string
	Capability Capability
	Cause      error
}

func (e *OperationalError) Error() string {
	return fmt.Sprintf("%s on %q failed: %v", e.Capability, e.Name, e.Cause)
}

func (e *OperationalError) Unwrap() error {
	return e.Cause
}

// IsOperationalError returns if the given error is any kind of operational error.
func IsOperationalError(err error) bool {
	var errArt *OperationalError
	return errors.As(err, &errArt)
}

// A DependencyNotReadyError is used whenever we reference a dependency that has not been
// constructed and registered yet.
type DependencyNotReadyError struct {
	Name   string
	Reason error
}

func (e *DependencyNotReadyError) Error() string {
	return fmt.Sprintf("dependency %q is not ready yet; reason=%s", e.Name, e.Reason)
}

func (e *DependencyNotReadyError) Unwrap() error {
	return e.Reason
}

// PrettyPrint returns a formatted string representing a `DependencyNotReadyError` error. This can be useful as a
// `DependencyNotReadyError` often wraps a series of lower level `DependencyNotReadyError` errors.
func (e *DependencyNotReadyError) PrettyPrint() string {
	var leafError error
	indent := ""
	ret := strings.Builder{}
	for curError := e; curError != nil; indent += "  " {
		if curError == e {
			ret.WriteString(fmt.Sprintf("Dependency %q is not ready yet\n", curError.Name))
		} else {
			ret.WriteString(indent)
			ret.WriteString(fmt.Sprintf("- Because %q is not ready yet\n", curError.Name))
		}

		var errArt *DependencyNotReadyError
		if errors.As(curError.Reason, &errArt) {
			curError = errArt
		} else {
			leafError = curError.Reason
			curError = nil
		}
	}

	ret.WriteString(indent)
	ret.WriteString(fmt.Sprintf("- Because %q", leafError))

	return ret.String()
}

// IsDependencyNotReadyError returns if the given error is any kind of dependency not found error.
func IsDependencyNotReadyError(err error) bool {
	var errArt *DependencyNotReadyError
	return errors.As(err, &errArt)
}
