// Package internet implements a reachability sensor. Every readings call probes a TCP endpoint;
// a failed probe is reported as data, never as an error.
package internet

import (
	"context"
	"net"
	"time"

	"github.com/pkg/errors"

	"go.viam.com/diagsensors/components/sensor"
	"go.viam.com/diagsensors/logging"
	"go.viam.com/diagsensors/resource"
	"go.viam.com/diagsensors/utils"
	"go.viam.com/diagsensors/values"
)

// Model is the registered name of this sensor.
var Model = resource.Model("esp32-internet")

// Defaults for the optional attributes.
const (
	DefaultAddress   = "8.8.8.8:53"
	DefaultTimeoutMS = 2000
)

// A Prober checks that address is reachable within timeout.
type Prober func(ctx context.Context, address string, timeout time.Duration) error

// TCPProbe opens and immediately closes a TCP connection.
func TCPProbe(ctx context.Context, address string, timeout time.Duration) error {
	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", address)
	if err != nil {
		return err
	}
	return conn.Close()
}

// Config is the native config of the sensor.
type Config struct {
	Address string
	Timeout time.Duration
}

// NewConfig reads "address" and "timeout_ms", falling back to the defaults when either is
// absent or mistyped. The address must be host:port and the timeout positive.
func NewConfig(attrs utils.AttributeMap) (*Config, error) {
	address := attrs.String("address", DefaultAddress)
	if _, _, err := net.SplitHostPort(address); err != nil {
		return nil, errors.Wrapf(err, "invalid address %q", address)
	}
	ms := attrs.Int("timeout_ms", DefaultTimeoutMS)
	if ms <= 0 {
		return nil, errors.Errorf("timeout_ms must be positive, got %d", ms)
	}
	return &Config{Address: address, Timeout: time.Duration(ms) * time.Millisecond}, nil
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
	return NewSensor(*native, TCPProbe, logger), nil
}

// Sensor tracks whether the endpoint answered the last probe and how many probes in a row have
// failed.
type Sensor struct {
	conf   Config
	probe  Prober
	logger logging.Logger

	inet   uint32
	online bool
}

// NewSensor returns a sensor that starts offline with no failures.
func NewSensor(conf Config, probe Prober, logger logging.Logger) *Sensor {
	return &Sensor{conf: conf, probe: probe, logger: logger}
}

// Readings probes once and reports online and inet.
func (s *Sensor) Readings(ctx context.Context) (*values.Readings, error) {
	probeCtx, cancel := context.WithTimeout(ctx, s.conf.Timeout)
	defer cancel()
	if err := s.probe(probeCtx, s.conf.Address, s.conf.Timeout); err != nil {
		s.inet++
		s.online = false
		s.logger.Errorw("reachability probe failed", "address", s.conf.Address, "failures", s.inet, "error", err)
	} else {
		s.inet = 0
		s.online = true
	}
	out := values.NewReadings(2)
	out.Set("online", values.Bool(s.online))
	out.Set("inet", values.Number(float64(s.inet)))
	return out, nil
}

// Status reports the outcome of the last probe without probing.
func (s *Sensor) Status(ctx context.Context) (values.Record, error) {
	return values.Record{
		"online":  values.Bool(s.online),
		"inet":    values.Number(float64(s.inet)),
		"address": values.String(s.conf.Address),
	}, nil
}
