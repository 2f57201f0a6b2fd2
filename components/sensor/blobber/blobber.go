// Package blobber implements a counter-driven periodic sensor: every readings call advances a
// counter and reports two sine waves derived from the current time.
package blobber

import (
	"context"
	"math"
	"time"

	"github.com/benbjohnson/clock"

	"go.viam.com/diagsensors/components/sensor"
	"go.viam.com/diagsensors/logging"
	"go.viam.com/diagsensors/platform"
	"go.viam.com/diagsensors/resource"
	"go.viam.com/diagsensors/values"
)

// Model is the registered name of this sensor.
var Model = resource.Model("esp32-blobber")

const (
	slowPeriod = time.Hour
	fastPeriod = time.Minute
	amplitude  = 100.0
)

// Register registers the model in reg.
func Register(reg *resource.Registry) error {
	return sensor.Register(reg, Model, newSensor)
}

func newSensor(
	_ context.Context,
	_ resource.Dependencies,
	conf resource.Config,
	logger logging.Logger,
) (resource.Component, error) {
	p, err := sensor.PlatformFromConfig(conf)
	if err != nil {
		return nil, err
	}
	clk := clock.New()
	if sim, ok := p.(*platform.Simulated); ok {
		clk = sim.Clock
	}
	return NewSensor(clk, logger), nil
}

// Sensor reports sin1 (one hour period), sin2 (one minute period) and inner, the number of
// readings calls so far. Callers serialize access through a resource.Handle.
type Sensor struct {
	clock  clock.Clock
	logger logging.Logger
	inner  uint64
}

// NewSensor returns a sensor reading time from clk.
func NewSensor(clk clock.Clock, logger logging.Logger) *Sensor {
	return &Sensor{clock: clk, logger: logger}
}

// Readings advances the counter and samples both waves.
func (s *Sensor) Readings(ctx context.Context) (*values.Readings, error) {
	s.inner++
	t := float64(s.clock.Now().UnixNano()) / float64(time.Second)
	out := values.NewReadings(3)
	out.Set("sin1", values.Number(wave(t, slowPeriod)))
	out.Set("sin2", values.Number(wave(t, fastPeriod)))
	out.Set("inner", values.Number(float64(s.inner)))
	return out, nil
}

// Status has nothing to report beyond being present.
func (s *Sensor) Status(ctx context.Context) (values.Record, error) {
	return values.EmptyRecord(), nil
}

func wave(t float64, period time.Duration) float64 {
	return amplitude * math.Sin(2*math.Pi*t/period.Seconds())
}
