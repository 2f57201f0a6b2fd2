// Package host runs a set of sensor components described by a config. It constructs them in
// dependency order, rebuilds what changed when the config changes, and polls their readings.
package host

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/lo"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"
	"golang.org/x/sync/errgroup"

	"go.viam.com/diagsensors/config"
	"go.viam.com/diagsensors/logging"
	"go.viam.com/diagsensors/resource"
	"go.viam.com/diagsensors/values"
)

// entry is a running component together with the dependency handles it holds.
type entry struct {
	conf   resource.Config
	handle *resource.Handle
	deps   resource.Dependencies
}

// A Host owns the handles of every running component. It is safe for concurrent use.
type Host struct {
	registry   *resource.Registry
	logger     logging.Logger
	metricsReg *prometheus.Registry
	metrics    *pollMetrics

	mu      sync.Mutex
	entries map[string]*entry
	graph   *resource.Graph
	conf    *config.Config
	closed  bool
}

// New returns a host that constructs components from registry. Nothing runs until Apply.
func New(registry *resource.Registry, logger logging.Logger, opts ...Option) (*Host, error) {
	if registry == nil {
		return nil, errors.New("host needs a registry")
	}
	var o options
	for _, opt := range opts {
		opt.apply(&o)
	}
	if o.metrics == nil {
		o.metrics = prometheus.NewRegistry()
	}
	metrics, err := newPollMetrics(o.metrics)
	if err != nil {
		return nil, err
	}
	return &Host{
		registry:   registry,
		logger:     logger,
		metricsReg: o.metrics,
		metrics:    metrics,
		entries:    map[string]*entry{},
		graph:      resource.NewGraph(),
	}, nil
}

// MetricsRegistry returns the registry the host's poll metrics are registered with.
func (h *Host) MetricsRegistry() *prometheus.Registry {
	return h.metricsReg
}

// Config returns the last applied config, or nil.
func (h *Host) Config() *config.Config {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.conf
}

// Apply makes the running components match conf. Components whose config is unchanged keep
// running. Changed and removed components are closed along with everything that depends on
// them, then every missing component is constructed in dependency order. A component that
// fails to construct is logged and skipped, and its dependents are skipped too; all such
// failures are returned together.
func (h *Host) Apply(ctx context.Context, conf *config.Config) error {
	if conf == nil {
		return errors.New("cannot apply a nil config")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrClosed
	}

	newGraph, err := resource.BuildGraph(conf.Components)
	if err != nil {
		return err
	}
	byName := make(map[string]resource.Config, len(conf.Components))
	for _, c := range conf.Components {
		byName[c.Name] = c
	}

	marked := map[string]struct{}{}
	for name, e := range h.entries {
		if c, ok := byName[name]; ok && c.Equals(e.conf) {
			continue
		}
		marked[name] = struct{}{}
		for _, dependent := range h.graph.Dependents(name) {
			marked[dependent] = struct{}{}
		}
	}

	var allErrs error
	if len(marked) > 0 {
		h.logger.Infow("rebuilding components", "components", lo.Keys(marked))
	}
	allErrs = multierr.Combine(allErrs, h.removeInOrder(ctx, func(name string) bool {
		_, ok := marked[name]
		return ok
	}))

	for _, name := range newGraph.TopologicalSort() {
		if _, ok := h.entries[name]; ok {
			continue
		}
		c := byName[name]
		e, err := h.newEntry(ctx, c)
		if err != nil {
			h.logger.Errorw("failed to construct component", "name", name, "model", c.Model, "error", err)
			allErrs = multierr.Combine(allErrs, err)
			continue
		}
		h.logger.Debugw("constructed component", "name", name, "model", c.Model, "id", e.handle.ID())
		h.entries[name] = e
	}

	h.graph = newGraph
	h.conf = conf
	h.metrics.components.Set(float64(len(h.entries)))
	return allErrs
}

// removeInOrder removes every entry selected by shouldRemove, dependents first.
func (h *Host) removeInOrder(ctx context.Context, shouldRemove func(name string) bool) error {
	var allErrs error
	order := h.graph.TopologicalSort()
	for i := len(order) - 1; i >= 0; i-- {
		name := order[i]
		e, ok := h.entries[name]
		if !ok || !shouldRemove(name) {
			continue
		}
		delete(h.entries, name)
		allErrs = multierr.Combine(allErrs, e.handle.Release(ctx), releaseAll(ctx, e.deps))
	}
	return allErrs
}

func releaseAll(ctx context.Context, deps resource.Dependencies) error {
	var allErrs error
	for _, dep := range deps {
		allErrs = multierr.Combine(allErrs, dep.Release(ctx))
	}
	return allErrs
}

func (h *Host) getDependencies(conf resource.Config) (resource.Dependencies, error) {
	deps := make(resource.Dependencies, 0, len(conf.DependsOn))
	for _, name := range conf.DependsOn {
		e, ok := h.entries[name]
		if !ok {
			goutils.UncheckedError(releaseAll(context.Background(), deps))
			return nil, &resource.DependencyNotReadyError{Name: name, Reason: errors.New("it is not running")}
		}
		if err := e.handle.Retain(); err != nil {
			goutils.UncheckedError(releaseAll(context.Background(), deps))
			return nil, &resource.DependencyNotReadyError{Name: name, Reason: err}
		}
		deps = append(deps, e.handle)
	}
	return deps, nil
}

func (h *Host) newEntry(ctx context.Context, conf resource.Config) (e *entry, err error) {
	deps, err := h.getDependencies(conf)
	if err != nil {
		return nil, resource.NewConfigurationError(conf.Name, conf.Model, err)
	}
	defer func() {
		if r := recover(); r != nil {
			err = resource.NewConfigurationError(conf.Name, conf.Model,
				errors.Wrap(errors.Errorf("%v", r), "panic creating component"))
		}
		if err != nil {
			goutils.UncheckedError(releaseAll(ctx, deps))
		}
	}()

	handle, err := h.registry.Construct(ctx, conf, deps, h.logger)
	if err != nil {
		return nil, err
	}
	return &entry{conf: conf, handle: handle, deps: deps}, nil
}

// Names returns the names of the running components, sorted.
func (h *Host) Names() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	names := lo.Keys(h.entries)
	slices.Sort(names)
	return names
}

// Handle returns the handle of a running component. The handle stays owned by the host; a
// caller that keeps it across an Apply must Retain it.
func (h *Host) Handle(name string) (*resource.Handle, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrClosed
	}
	e, ok := h.entries[name]
	if !ok {
		return nil, NewNotFoundError(name)
	}
	return e.handle, nil
}

// acquire returns a retained handle. The caller must release it.
func (h *Host) acquire(name string) (*resource.Handle, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrClosed
	}
	e, ok := h.entries[name]
	if !ok {
		return nil, NewNotFoundError(name)
	}
	if err := e.handle.Retain(); err != nil {
		return nil, err
	}
	return e.handle, nil
}

func (h *Host) release(ctx context.Context, handle *resource.Handle) {
	if err := handle.Release(ctx); err != nil {
		h.logger.Errorw("failed to release component", "name", handle.Name().Name, "error", err)
	}
}

// Readings returns the readings of the named component.
func (h *Host) Readings(ctx context.Context, name string) (*values.Readings, error) {
	handle, err := h.acquire(name)
	if err != nil {
		return nil, err
	}
	defer h.release(ctx, handle)
	return handle.Readings(ctx)
}

// Status returns the status of the named component.
func (h *Host) Status(ctx context.Context, name string) (values.Record, error) {
	handle, err := h.acquire(name)
	if err != nil {
		return nil, err
	}
	defer h.release(ctx, handle)
	return handle.Status(ctx)
}

// DoCommand sends cmd to the named component.
func (h *Host) DoCommand(ctx context.Context, name string, cmd values.Record) (values.Record, error) {
	handle, err := h.acquire(name)
	if err != nil {
		return nil, err
	}
	defer h.release(ctx, handle)
	return handle.DoCommand(ctx, cmd)
}

// A PollResult is the outcome of reading one component during a poll.
type PollResult struct {
	Name     string
	Readings *values.Readings
	Err      error
	Duration time.Duration
}

// PollOnce reads every component that supports readings, concurrently, and returns the results
// sorted by name. A failing component does not affect the others.
func (h *Host) PollOnce(ctx context.Context) ([]PollResult, error) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrClosed
	}
	names := lo.Keys(h.entries)
	slices.Sort(names)
	handles := make([]*resource.Handle, 0, len(names))
	for _, name := range names {
		handle := h.entries[name].handle
		if !handle.Supports(resource.CapabilityReadings) {
			continue
		}
		if err := handle.Retain(); err != nil {
			continue
		}
		handles = append(handles, handle)
	}
	h.mu.Unlock()

	results := make([]PollResult, len(handles))
	var g errgroup.Group
	for i, handle := range handles {
		g.Go(func() error {
			defer h.release(ctx, handle)
			name := handle.Name().Name
			start := time.Now()
			readings, err := handle.Readings(ctx)
			took := time.Since(start)
			h.metrics.recordReadings(name, took.Seconds(), err)
			results[i] = PollResult{Name: name, Readings: readings, Err: err, Duration: took}
			return nil
		})
	}
	goutils.UncheckedError(g.Wait())
	h.metrics.polls.Inc()
	return results, ctx.Err()
}

// Close releases every component, dependents first. Later calls return ErrClosed.
func (h *Host) Close(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	err := h.removeInOrder(ctx, func(string) bool { return true })
	h.metrics.components.Set(0)
	return err
}
