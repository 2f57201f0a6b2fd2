// Package fat implements a sized-buffer generator: every readings call fills a buffer of the
// configured size from the platform entropy source and reports it base64 encoded.
package fat

import (
	"context"
	"encoding/base64"

	"github.com/pkg/errors"

	"go.viam.com/diagsensors/components/sensor"
	"go.viam.com/diagsensors/logging"
	"go.viam.com/diagsensors/platform"
	"go.viam.com/diagsensors/resource"
	"go.viam.com/diagsensors/utils"
	"go.viam.com/diagsensors/values"
)

// Model is the registered name of this sensor.
var Model = resource.Model("esp32-fat")

// DefaultLen is the buffer size used when "len" is absent or not an integer.
const DefaultLen = 10

// Config is the native config of the sensor.
type Config struct {
	Len      int
	Platform string
}

// NewConfig reads "len" and "platform". A missing or mistyped len falls back to DefaultLen; a
// negative one is an error.
func NewConfig(attrs utils.AttributeMap) (*Config, error) {
	conf := &Config{
		Len:      attrs.Int("len", DefaultLen),
		Platform: attrs.String(sensor.PlatformAttribute, ""),
	}
	if conf.Len < 0 {
		return nil, errors.Errorf("len must be non-negative, got %d", conf.Len)
	}
	return conf, nil
}

// Register registers the model in reg.
func Register(reg *resource.Registry) error {
	return reg.Register(Model, resource.Registration{
		API:         sensor.API,
		Constructor: newSensor,
		AttributeMapConverter: func(attrs utils.AttributeMap) (interface{}, error) {
			return NewConfig(attrs)
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
	logger.Debugw("sized buffer sensor configured", "len", native.Len, "platform", p.Name())
	return NewSensor(native.Len, p), nil
}

// Sensor reports "blob", a base64 string of size random bytes.
type Sensor struct {
	size     int
	platform platform.Diagnostics
}

// NewSensor returns a sensor producing size bytes per reading. size must not be negative.
func NewSensor(size int, p platform.Diagnostics) *Sensor {
	return &Sensor{size: size, platform: p}
}

// Readings returns a fresh blob. A zero size gives the empty string.
func (s *Sensor) Readings(ctx context.Context) (*values.Readings, error) {
	buf := make([]byte, s.size)
	if err := s.platform.FillRandom(buf); err != nil {
		return nil, errors.Wrap(err, "filling random buffer")
	}
	return values.ReadingsOf("blob", values.String(base64.StdEncoding.EncodeToString(buf))), nil
}

// Status has nothing to report beyond being present.
func (s *Sensor) Status(ctx context.Context) (values.Record, error) {
	return values.EmptyRecord(), nil
}
