// Package trigger implements a command-only diagnostic sensor. A command carrying the "panic"
// key deliberately aborts the process so hosts can exercise crash recovery; every other command
// is a no-op.
package trigger

import (
	"context"

	"github.com/pkg/errors"

	"go.viam.com/diagsensors/components/sensor"
	"go.viam.com/diagsensors/logging"
	"go.viam.com/diagsensors/resource"
	"go.viam.com/diagsensors/values"
)

// Model is the registered name of this sensor.
var Model = resource.Model("esp32-data")

// AbortKey is the command key that triggers the abort.
const AbortKey = "panic"

// ErrIntentionalAbort is the value the default abort panics with.
var ErrIntentionalAbort = errors.New("bye")

// PanicAbort is the default abort.
func PanicAbort() {
	panic(ErrIntentionalAbort)
}

// Register registers the model in reg.
func Register(reg *resource.Registry) error {
	return sensor.Register(reg, Model, func(
		_ context.Context,
		_ resource.Dependencies,
		_ resource.Config,
		logger logging.Logger,
	) (resource.Component, error) {
		return NewSensor(PanicAbort, logger), nil
	})
}

// Sensor only implements DoCommand.
type Sensor struct {
	abort  func()
	logger logging.Logger
}

// NewSensor returns a sensor calling abort on the trigger key.
func NewSensor(abort func(), logger logging.Logger) *Sensor {
	return &Sensor{abort: abort, logger: logger}
}

// DoCommand aborts on AbortKey and otherwise returns no response.
func (s *Sensor) DoCommand(ctx context.Context, cmd values.Record) (values.Record, error) {
	if cmd == nil {
		return nil, nil
	}
	s.logger.Infow("command received", "cmd", cmd)
	if cmd.Has(AbortKey) {
		s.logger.Warn("abort requested by command")
		s.abort()
	}
	return nil, nil
}
