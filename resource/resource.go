// Package resource contains the component contract shared by the host and every sensor model:
// capability interfaces, the model registry, configs, and the shared handle that serializes calls
// into one component instance.
package resource

import (
	"context"

	"go.viam.com/diagsensors/values"
)

// A Component is any value a model constructor returns. It must implement at least one of
// Readings, Status, or Commander; which ones it implements are its capabilities.
type Component interface{}

// Readings produces a snapshot of named sensor outputs. Calls may have side effects.
type Readings interface {
	Readings(ctx context.Context) (*values.Readings, error)
}

// Status produces an optional structured summary. A nil record means the component has nothing
// to report. Implementations should treat it as a peek.
type Status interface {
	Status(ctx context.Context) (values.Record, error)
}

// Commander accepts an out-of-band request. cmd may be nil. A nil response means no payload.
type Commander interface {
	DoCommand(ctx context.Context, cmd values.Record) (values.Record, error)
}

// A Capability is one of the three behaviors a component can offer.
type Capability string

// The known capabilities, in the order CapabilitiesOf reports them.
const (
	CapabilityReadings  = Capability("readings")
	CapabilityStatus    = Capability("status")
	CapabilityDoCommand = Capability("do_command")
)

func (c Capability) String() string {
	return string(c)
}

// CapabilitiesOf returns the capabilities comp implements in fixed order.
func CapabilitiesOf(comp Component) []Capability {
	var out []Capability
	if _, ok := comp.(Readings); ok {
		out = append(out, CapabilityReadings)
	}
	if _, ok := comp.(Status); ok {
		out = append(out, CapabilityStatus)
	}
	if _, ok := comp.(Commander); ok {
		out = append(out, CapabilityDoCommand)
	}
	return out
}

// Closer is implemented by components holding resources that must be released when the last
// handle holder lets go.
type Closer interface {
	Close(ctx context.Context) error
}

func closeComponent(ctx context.Context, comp Component) error {
	if c, ok := comp.(Closer); ok {
		return c.Close(ctx)
	}
	return nil
}
