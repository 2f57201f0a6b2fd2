package resource_test

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/diagsensors/logging"
	"go.viam.com/diagsensors/resource"
	"go.viam.com/diagsensors/utils"
	"go.viam.com/diagsensors/values"
)

type readingsOnly struct{ calls int }

func (r *readingsOnly) Readings(ctx context.Context) (*values.Readings, error) {
	r.calls++
	return values.ReadingsOf("calls", values.Number(float64(r.calls))), nil
}

type closeOnly struct{ closed int }

func (c *closeOnly) Close(ctx context.Context) error {
	c.closed++
	return nil
}

func newReadingsOnly(context.Context, resource.Dependencies, resource.Config, logging.Logger) (resource.Component, error) {
	return &readingsOnly{}, nil
}

func TestRegisterDuplicate(t *testing.T) {
	reg := resource.NewRegistry()
	test.That(t, reg.Register("esp32-x", resource.Registration{Constructor: newReadingsOnly}), test.ShouldBeNil)

	err := reg.Register("esp32-x", resource.Registration{Constructor: newReadingsOnly})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, resource.IsDuplicateName(err), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "esp32-x")

	test.That(t, reg.Models(), test.ShouldResemble, []resource.Model{"esp32-x"})
}

func TestRegisterInvalid(t *testing.T) {
	reg := resource.NewRegistry()

	err := reg.Register("esp32-x", resource.Registration{})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "nil constructor")

	for _, bad := range []resource.Model{"", "-lead", "has space", "a:b"} {
		err := reg.Register(bad, resource.Registration{Constructor: newReadingsOnly})
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, resource.IsDuplicateName(err), test.ShouldBeFalse)
	}
	test.That(t, reg.Models(), test.ShouldBeEmpty)
}

func TestRegisterAfterSeal(t *testing.T) {
	reg := resource.NewRegistry()
	test.That(t, reg.Register("a", resource.Registration{Constructor: newReadingsOnly}), test.ShouldBeNil)
	reg.Seal()
	reg.Seal()
	test.That(t, reg.Sealed(), test.ShouldBeTrue)

	err := reg.Register("b", resource.Registration{Constructor: newReadingsOnly})
	test.That(t, errors.Is(err, resource.ErrRegistrySealed), test.ShouldBeTrue)

	_, ok := reg.Lookup("a")
	test.That(t, ok, test.ShouldBeTrue)
	_, ok = reg.Lookup("b")
	test.That(t, ok, test.ShouldBeFalse)
}

func TestRegisterManyDistinct(t *testing.T) {
	logger := logging.NewTestLogger(t)
	names := make([]resource.Model, 20)
	for i := range names {
		names[i] = resource.Model(fmt.Sprintf("model-%02d", i))
	}
	rand.New(rand.NewSource(1)).Shuffle(len(names), func(i, j int) { names[i], names[j] = names[j], names[i] })

	reg := resource.NewRegistry()
	for _, m := range names {
		test.That(t, reg.Register(m, resource.Registration{Constructor: newReadingsOnly}), test.ShouldBeNil)
	}
	reg.Seal()
	test.That(t, reg.Models(), test.ShouldHaveLength, len(names))

	for _, m := range names {
		h, err := reg.Construct(context.Background(), resource.Config{Name: "inst-" + string(m), Model: m}, nil, logger)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, h.Model(), test.ShouldEqual, m)
		test.That(t, h.Name(), test.ShouldResemble, resource.NewName(resource.APIComponentSensor, "inst-"+string(m)))
		test.That(t, h.Release(context.Background()), test.ShouldBeNil)
	}
}

func TestConstructUnknown(t *testing.T) {
	logger := logging.NewTestLogger(t)
	reg := resource.NewRegistry()
	test.That(t, reg.Register("known", resource.Registration{Constructor: newReadingsOnly}), test.ShouldBeNil)

	_, err := reg.Construct(context.Background(), resource.Config{Name: "x", Model: "unknown"}, nil, logger)
	test.That(t, resource.IsUnknownComponent(err), test.ShouldBeTrue)
	test.That(t, resource.IsConfigurationError(err), test.ShouldBeFalse)

	h, err := reg.Construct(context.Background(), resource.Config{Name: "x", Model: "known"}, nil, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, h.Capabilities(), test.ShouldResemble, []resource.Capability{resource.CapabilityReadings})
}

func TestConstructConfigurationErrors(t *testing.T) {
	logger := logging.NewTestLogger(t)
	reg := resource.NewRegistry()
	cause := errors.New("len must be non-negative")
	test.That(t, reg.Register("failing", resource.Registration{
		Constructor: func(context.Context, resource.Dependencies, resource.Config, logging.Logger) (resource.Component, error) {
			return nil, cause
		},
	}), test.ShouldBeNil)
	test.That(t, reg.Register("already-typed", resource.Registration{
		Constructor: func(_ context.Context, _ resource.Dependencies, conf resource.Config, _ logging.Logger) (resource.Component, error) {
			return nil, resource.NewConfigurationError(conf.Name, conf.Model, cause)
		},
	}), test.ShouldBeNil)
	leftover := &closeOnly{}
	test.That(t, reg.Register("empty", resource.Registration{
		Constructor: func(context.Context, resource.Dependencies, resource.Config, logging.Logger) (resource.Component, error) {
			return leftover, nil
		},
	}), test.ShouldBeNil)
	test.That(t, reg.Register("ok", resource.Registration{Constructor: newReadingsOnly}), test.ShouldBeNil)

	t.Run("constructor failure", func(t *testing.T) {
		_, err := reg.Construct(context.Background(), resource.Config{Name: "f", Model: "failing"}, nil, logger)
		test.That(t, resource.IsConfigurationError(err), test.ShouldBeTrue)
		test.That(t, errors.Is(err, cause), test.ShouldBeTrue)
		var confErr *resource.ConfigurationError
		test.That(t, errors.As(err, &confErr), test.ShouldBeTrue)
		test.That(t, confErr.Name, test.ShouldEqual, "f")
	})

	t.Run("not double wrapped", func(t *testing.T) {
		_, err := reg.Construct(context.Background(), resource.Config{Name: "f", Model: "already-typed"}, nil, logger)
		var confErr *resource.ConfigurationError
		test.That(t, errors.As(err, &confErr), test.ShouldBeTrue)
		test.That(t, confErr.Cause, test.ShouldEqual, cause)
	})

	t.Run("no capability", func(t *testing.T) {
		_, err := reg.Construct(context.Background(), resource.Config{Name: "e", Model: "empty"}, nil, logger)
		test.That(t, resource.IsConfigurationError(err), test.ShouldBeTrue)
		test.That(t, err.Error(), test.ShouldContainSubstring, "implements no capability")
		test.That(t, err.Error(), test.ShouldContainSubstring, "expected implementation of resource.Readings")
		test.That(t, leftover.closed, test.ShouldEqual, 1)
	})

	t.Run("invalid config", func(t *testing.T) {
		_, err := reg.Construct(context.Background(), resource.Config{Model: "ok"}, nil, logger)
		test.That(t, resource.IsConfigurationError(err), test.ShouldBeTrue)
		test.That(t, err.Error(), test.ShouldContainSubstring, "name")
	})

	t.Run("wrong api", func(t *testing.T) {
		conf := resource.Config{Name: "m", Model: "ok", API: resource.NewAPI("component", "motor")}
		_, err := reg.Construct(context.Background(), conf, nil, logger)
		test.That(t, resource.IsConfigurationError(err), test.ShouldBeTrue)
	})
}

func TestDefaultRegistryIsShared(t *testing.T) {
	test.That(t, resource.DefaultRegistry(), test.ShouldEqual, resource.DefaultRegistry())
}

func TestDependenciesLookup(t *testing.T) {
	logger := logging.NewTestLogger(t)
	h, err := resource.NewHandle(resource.NewName(resource.APIComponentSensor, "dep"), "m", &readingsOnly{}, logger)
	test.That(t, err, test.ShouldBeNil)
	deps := resource.Dependencies{h}

	found, err := deps.Lookup("dep")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, found, test.ShouldEqual, h)
	test.That(t, deps.Names(), test.ShouldResemble, []string{"dep"})

	_, err = deps.Lookup("other")
	test.That(t, resource.IsDependencyNotReadyError(err), test.ShouldBeTrue)
}

func TestDependencyNotReadyPrettyPrint(t *testing.T) {
	err := &resource.DependencyNotReadyError{
		Name:   "outer",
		Reason: &resource.DependencyNotReadyError{Name: "inner", Reason: errors.New("gone")},
	}
	test.That(t, err.PrettyPrint(), test.ShouldEqual,
		"Dependency \"outer\" is not ready yet\n  - Because \"inner\" is not ready yet\n    - Because \"gone\"")
}

type sizeConfig struct{ Len int }

func TestConstructAttributeMapConverter(t *testing.T) {
	logger := logging.NewTestLogger(t)
	reg := resource.NewRegistry()
	var got *sizeConfig
	test.That(t, reg.Register("sized", resource.Registration{
		AttributeMapConverter: func(attrs utils.AttributeMap) (interface{}, error) {
			n := attrs.Int("len", 10)
			if n < 0 {
				return nil, errors.Errorf("len must be non-negative, got %d", n)
			}
			return &sizeConfig{Len: n}, nil
		},
		Constructor: func(_ context.Context, _ resource.Dependencies, conf resource.Config, _ logging.Logger) (resource.Component, error) {
			native, err := resource.NativeConfig[*sizeConfig](conf)
			if err != nil {
				return nil, err
			}
			got = native
			return &readingsOnly{}, nil
		},
	}), test.ShouldBeNil)

	_, err := reg.Construct(context.Background(), resource.Config{Name: "s", Model: "sized"}, nil, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, got.Len, test.ShouldEqual, 10)

	conf := resource.Config{Name: "s", Model: "sized", Attributes: utils.AttributeMap{"len": -1}}
	_, err = reg.Construct(context.Background(), conf, nil, logger)
	test.That(t, resource.IsConfigurationError(err), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "non-negative")
	test.That(t, conf.ConvertedAttributes, test.ShouldBeNil)

	_, err = resource.NativeConfig[*sizeConfig](resource.Config{})
	test.That(t, err, test.ShouldNotBeNil)
}
