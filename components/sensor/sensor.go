// Package sensor defines the helpers shared by every sensor model: its API, naming, registration,
// dependency lookup, and platform selection.
package sensor

import (
	"github.com/pkg/errors"

	"go.viam.com/diagsensors/platform"
	"go.viam.com/diagsensors/resource"
	"go.viam.com/diagsensors/utils"
)

// API is a constant that identifies the component resource API.
var API = resource.APIComponentSensor

// PlatformAttribute names the optional attribute that selects a platform by name.
const PlatformAttribute = "platform"

// Named is a helper for getting the named Sensor's typed resource name.
func Named(name string) resource.Name {
	return resource.NewName(API, name)
}

// Register registers a sensor model in reg.
func Register(reg *resource.Registry, model resource.Model, constructor resource.Create) error {
	return reg.Register(model, resource.Registration{API: API, Constructor: constructor})
}

// FromDependencies is a helper for getting the named readings-capable sensor from a collection
// of dependencies.
func FromDependencies(deps resource.Dependencies, name string) (*resource.Handle, error) {
	h, err := deps.Lookup(name)
	if err != nil {
		return nil, err
	}
	if h.Name().API != API {
		return nil, errors.Wrapf(utils.DependencyTypeError(name, "Sensor", h), "%s is not a sensor", h.Name().API)
	}
	if !h.Supports(resource.CapabilityReadings) {
		return nil, resource.NewUnsupportedCapabilityError(name, resource.CapabilityReadings)
	}
	return h, nil
}

// PlatformFromConfig resolves the platform named by the config's platform attribute, defaulting
// to the native one.
func PlatformFromConfig(conf resource.Config) (platform.Diagnostics, error) {
	return platform.ByName(conf.Attributes.String(PlatformAttribute, ""))
}
