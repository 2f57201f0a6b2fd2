package resource

import (
	"fmt"
	"reflect"

	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"go.viam.com/diagsensors/utils"
)

// A Config describes the configuration of a component instance.
type Config struct {
	Name       string             `json:"name"`
	API        API                `json:"type"`
	Model      Model              `json:"model"`
	Attributes utils.AttributeMap `json:"attributes"`
	DependsOn  []string           `json:"depends_on"`

	ConvertedAttributes interface{} `json:"-"`
}

// NativeConfig returns the native config from the given config via its
// converted attributes.
func NativeConfig[T any](conf Config) (T, error) {
	return utils.AssertType[T](conf.ConvertedAttributes)
}

// ResourceName returns the fully qualified name of the instance.
func (conf *Config) ResourceName() Name {
	return NewName(conf.API, conf.Name)
}

// Equals checks if the two configs are deeply equal to each other.
func (conf Config) Equals(other Config) bool {
	//nolint:govet
	return reflect.DeepEqual(conf, other)
}

// String returns a verbose representation of the config.
func (conf *Config) String() string {
	return fmt.Sprintf("%#v", conf)
}

// Validate ensures all parts of the config are valid. An unset API defaults to component:sensor.
func (conf *Config) Validate(path string) error {
	if conf.Name == "" {
		return goutils.NewConfigValidationFieldRequiredError(path, "name")
	}
	if conf.Model == "" {
		return goutils.NewConfigValidationFieldRequiredError(path, "model")
	}
	if err := conf.Model.Validate(); err != nil {
		return errors.Wrapf(err, "error validating %q", path)
	}
	if conf.API.IsZero() {
		conf.API = APIComponentSensor
	}
	if err := conf.API.Validate(); err != nil {
		return errors.Wrapf(err, "error validating %q", path)
	}
	seen := make(map[string]struct{}, len(conf.DependsOn))
	for idx, dep := range conf.DependsOn {
		if dep == "" {
			return goutils.NewConfigValidationFieldRequiredError(fmt.Sprintf("%s.depends_on.%d", path, idx), "name")
		}
		if dep == conf.Name {
			return errors.Errorf("%q cannot depend on itself", conf.Name)
		}
		if _, ok := seen[dep]; ok {
			return errors.Errorf("%q lists dependency %q twice", conf.Name, dep)
		}
		seen[dep] = struct{}{}
	}
	return nil
}
