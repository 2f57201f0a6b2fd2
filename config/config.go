// Package config defines the structures to configure a sensor host and the components it runs.
package config

import (
	"fmt"
	"time"

	"github.com/pkg/errors"

	"go.viam.com/diagsensors/components/sensor"
	"go.viam.com/diagsensors/logging"
	"go.viam.com/diagsensors/platform"
	"go.viam.com/diagsensors/resource"
)

// DefaultPollInterval is used when the config does not set poll_interval.
const DefaultPollInterval = time.Second

// A Config describes the configuration of a sensor host.
type Config struct {
	// Platform is the default platform for every component that does not name its own.
	Platform   string            `json:"platform,omitempty"`
	RawPoll    string            `json:"poll_interval,omitempty"`
	Components []resource.Config `json:"components,omitempty"`

	PollInterval   time.Duration `json:"-"`
	ConfigFilePath string        `json:"-"`
}

// Ensure ensures all parts of the config are valid, fills in defaults, and sorts components
// based on what they depend on.
func (c *Config) Ensure(logger logging.Logger) error {
	if _, err := platform.ByName(c.Platform); err != nil {
		return errors.Wrap(err, `error validating "platform"`)
	}

	c.PollInterval = DefaultPollInterval
	if c.RawPoll != "" {
		d, err := time.ParseDuration(c.RawPoll)
		if err != nil {
			return errors.Wrap(err, `error validating "poll_interval"`)
		}
		if d <= 0 {
			return errors.Errorf(`error validating "poll_interval": must be positive, got %s`, d)
		}
		c.PollInterval = d
	}

	for idx := range c.Components {
		comp := &c.Components[idx]
		if err := comp.Validate(fmt.Sprintf("%s.%d", "components", idx)); err != nil {
			return err
		}
		if c.Platform != "" && !comp.Attributes.Has(sensor.PlatformAttribute) {
			attrs := make(map[string]interface{}, len(comp.Attributes)+1)
			for k, v := range comp.Attributes {
				attrs[k] = v
			}
			attrs[sensor.PlatformAttribute] = c.Platform
			comp.Attributes = attrs
		}
	}

	sorted, err := SortComponents(c.Components)
	if err != nil {
		return err
	}
	c.Components = sorted
	logger.Debugw("config ensured", "components", len(c.Components), "poll_interval", c.PollInterval)
	return nil
}

// FindComponent finds a particular component by name.
func (c Config) FindComponent(name string) *resource.Config {
	for _, cmp := range c.Components {
		if cmp.Name == name {
			return &cmp
		}
	}
	return nil
}

// SortComponents sorts list of components topologically based off what other components they
// depend on. Names must be unique and every dependency must be configured.
func SortComponents(components []resource.Config) ([]resource.Config, error) {
	byName := make(map[string]resource.Config, len(components))
	for _, conf := range components {
		if _, ok := byName[conf.Name]; ok {
			return nil, errors.Errorf("component name %q is not unique", conf.Name)
		}
		byName[conf.Name] = conf
	}

	g, err := resource.BuildGraph(components)
	if err != nil {
		return nil, err
	}
	order := g.TopologicalSort()
	sorted := make([]resource.Config, 0, len(order))
	for _, name := range order {
		sorted = append(sorted, byName[name])
	}
	return sorted, nil
}
