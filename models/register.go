// Package models registers the diagnostic sensor models this module ships.
package models

import (
	"go.viam.com/diagsensors/components/sensor/blobber"
	"go.viam.com/diagsensors/components/sensor/fat"
	"go.viam.com/diagsensors/components/sensor/internet"
	"go.viam.com/diagsensors/components/sensor/sysinfo"
	"go.viam.com/diagsensors/components/sensor/trigger"
	"go.viam.com/diagsensors/resource"
)

var registrations = []func(*resource.Registry) error{
	trigger.Register,
	internet.Register,
	fat.Register,
	blobber.Register,
	sysinfo.Register,
}

// RegisterModels registers every model in a fixed order and stops at the first failure. A
// DuplicateNameError here means startup must abort.
func RegisterModels(reg *resource.Registry) error {
	for _, register := range registrations {
		if err := register(reg); err != nil {
			return err
		}
	}
	return nil
}

// Models returns the names RegisterModels binds, in registration order.
func Models() []resource.Model {
	return []resource.Model{trigger.Model, internet.Model, fat.Model, blobber.Model, sysinfo.Model}
}
