// Package sysinfo implements a system diagnostics sensor reporting the platform timestamp and
// free memory.
package sysinfo

import (
	"context"

	"github.com/pkg/errors"

	"go.viam.com/diagsensors/components/sensor"
	"go.viam.com/diagsensors/logging"
	"go.viam.com/diagsensors/platform"
	"go.viam.com/diagsensors/resource"
	"go.viam.com/diagsensors/utils"
	"go.viam.com/diagsensors/values"
)

// Model is the registered name of this sensor.
var Model = resource.Model("esp32-sysinfo")

// Config is the native config of the sensor.
type Config struct {
	Platform string `json:"platform"`
	// IncludeUptime adds an "uptime" reading in seconds.
	IncludeUptime bool `json:"include_uptime"`
}

// Register registers the model in reg.
func Register(reg *resource.Registry) error {
	return reg.Register(Model, resource.Registration{
		API:         sensor.API,
		Constructor: newSensor,
		AttributeMapConverter: func(attrs utils.AttributeMap) (interface{}, error) {
			return resource.TransformAttributeMap[*Config](attrs)
		},
	})
}

func newSensor(
	_ context.Context,
	_ resource.Dependencies,
	conf resource.Config,
	logger logging.Logger,
) (resource.Component, error) {
	native, err := resource.NativeConfig[*Config](conf)
	if err != nil {
		return nil, err
	}
	p, err := platform.ByName(native.Platform)
	if err != nil {
		return nil, err
	}
	return NewSensor(p, native.IncludeUptime), nil
}

// Sensor reports timestamp, internal, spiram and stack. stack is null where the platform
// cannot measure it.
type Sensor struct {
	platform      platform.Diagnostics
	includeUptime bool
}

// NewSensor returns a sensor reading from p.
func NewSensor(p platform.Diagnostics, includeUptime bool) *Sensor {
	return &Sensor{platform: p, includeUptime: includeUptime}
}

// Readings samples the platform.
func (s *Sensor) Readings(ctx context.Context) (*values.Readings, error) {
	mem, err := s.platform.Memory()
	if err != nil {
		return nil, errors.Wrap(err, "reading memory stats")
	}
	out := values.NewReadings(5)
	out.Set("timestamp", values.Number(s.platform.Timestamp()))
	out.Set("internal", values.Number(float64(mem.Internal)))
	out.Set("spiram", values.Number(float64(mem.External)))
	if mem.Stack != nil {
		out.Set("stack", values.Number(float64(*mem.Stack)))
	} else {
		out.Set("stack", values.Null())
	}
	if s.includeUptime {
		out.Set("uptime", values.Number(s.platform.Uptime().Seconds()))
	}
	return out, nil
}

// Status has nothing to report beyond being present.
func (s *Sensor) Status(ctx context.Context) (values.Record, error) {
	return values.EmptyRecord(), nil
}
