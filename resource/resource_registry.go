package resource

import (
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/atomic"
	goutils "go.viam.com/utils"

	"go.viam.com/diagsensors/logging"
	"go.viam.com/diagsensors/utils"
)

// A Create creates a component from a collection of dependencies and a given config.
type Create func(
	ctx context.Context,
	deps Dependencies,
	conf Config,
	logger logging.Logger,
) (Component, error)

// An AttributeMapConverter converts an attribute map into a native config type for a model.
type AttributeMapConverter func(attributes utils.AttributeMap) (interface{}, error)

// A Registration stores construction info for a model. A constructor is mandatory.
type Registration struct {
	API         API
	Constructor Create

	// AttributeMapConverter is used to convert raw attributes to the model's native config
	// before the constructor runs. Its result is available through NativeConfig.
	AttributeMapConverter AttributeMapConverter
}

// ErrRegistrySealed is returned by Register once the registry has been sealed.
var ErrRegistrySealed = errors.New("registry is sealed")

// A Registry maps model names to constructors. It is populated during a single-threaded init
// phase and sealed before the host begins dispatching; from then on it is read-only and lookups
// take no lock. Entries are never removed.
type Registry struct {
	mu      sync.Mutex
	sealed  atomic.Bool
	entries map[Model]Registration
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: map[Model]Registration{}}
}

var defaultRegistry = sync.OnceValue(NewRegistry)

// DefaultRegistry returns the process-wide registry, creating it on first use.
func DefaultRegistry() *Registry {
	return defaultRegistry()
}

// Register binds model to reg for the remainder of the process. Binding a model twice is a
// DuplicateNameError and leaves the first binding in place.
func (r *Registry) Register(model Model, reg Registration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed.Load() {
		return errors.Wrapf(ErrRegistrySealed, "cannot register model %q", model)
	}
	if err := model.Validate(); err != nil {
		return err
	}
	if reg.Constructor == nil {
		return errors.Errorf("cannot register a nil constructor for model %q", model)
	}
	if reg.API.IsZero() {
		reg.API = APIComponentSensor
	}
	if err := reg.API.Validate(); err != nil {
		return errors.Wrapf(err, "cannot register model %q", model)
	}
	if _, old := r.entries[model]; old {
		return NewDuplicateNameError(model)
	}
	r.entries[model] = reg
	return nil
}

// Seal ends the init phase. Later Register calls fail. Sealing twice is harmless.
func (r *Registry) Seal() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sealed.Store(true)
}

// Sealed reports whether Seal has been called.
func (r *Registry) Sealed() bool {
	return r.sealed.Load()
}

// Lookup returns the registration for model.
func (r *Registry) Lookup(model Model) (Registration, bool) {
	if !r.sealed.Load() {
		r.mu.Lock()
		defer r.mu.Unlock()
	}
	reg, ok := r.entries[model]
	return reg, ok
}

// Models returns every registered model, sorted.
func (r *Registry) Models() []Model {
	if !r.sealed.Load() {
		r.mu.Lock()
		defer r.mu.Unlock()
	}
	out := make([]Model, 0, len(r.entries))
	for m := range r.entries {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Construct builds a component from conf and wraps it in a handle with a single holder.
// An unbound model is an UnknownComponentError; an invalid config, a failing constructor, or a
// component with no capability is a ConfigurationError.
func (r *Registry) Construct(ctx context.Context, conf Config, deps Dependencies, logger logging.Logger) (*Handle, error) {
	reg, ok := r.Lookup(conf.Model)
	if !ok {
		return nil, NewUnknownComponentError(conf.Model)
	}
	if err := conf.Validate(conf.Name); err != nil {
		return nil, NewConfigurationError(conf.Name, conf.Model, err)
	}
	if conf.API != reg.API {
		return nil, NewConfigurationError(conf.Name, conf.Model,
			errors.Errorf("model is registered for api %q, not %q", reg.API, conf.API))
	}

	if reg.AttributeMapConverter != nil {
		converted, err := reg.AttributeMapConverter(conf.Attributes)
		if err != nil {
			return nil, NewConfigurationError(conf.Name, conf.Model, err)
		}
		conf.ConvertedAttributes = converted
	}

	compLogger := logger.Sublogger(conf.Name)
	comp, err := reg.Constructor(ctx, deps, conf, compLogger)
	if err != nil {
		return nil, NewConfigurationError(conf.Name, conf.Model, err)
	}
	h, err := NewHandle(conf.ResourceName(), conf.Model, comp, compLogger)
	if err != nil {
		goutils.UncheckedError(closeComponent(ctx, comp))
		return nil, NewConfigurationError(conf.Name, conf.Model, err)
	}
	return h, nil
}
