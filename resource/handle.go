package resource

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/atomic"

	"go.viam.com/diagsensors/logging"
	"go.viam.com/diagsensors/utils"
	"go.viam.com/diagsensors/values"
)

// A Handle is the shared, lock-protected owner of one component instance. Every capability call
// holds the handle's mutex for its full duration, so calls on one instance never interleave while
// calls on different handles proceed independently.
//
// A handle starts with one holder. Retain adds a holder and Release drops one; when the last
// holder releases, the component is closed and every later call returns ErrHandleClosed.
type Handle struct {
	name   Name
	model  Model
	id     uuid.UUID
	caps   []Capability
	logger logging.Logger

	mu     sync.Mutex
	comp   Component
	closed bool

	refs atomic.Int64
}

// NewHandle wraps comp. It fails if comp implements no capability.
func NewHandle(name Name, model Model, comp Component, logger logging.Logger) (*Handle, error) {
	if comp == nil {
		return nil, errors.Errorf("component %q is nil", name.Name)
	}
	caps := CapabilitiesOf(comp)
	if len(caps) == 0 {
		return nil, errors.Wrapf(utils.NewUnimplementedInterfaceError((*Readings)(nil), comp),
			"component %q implements no capability", name.Name)
	}
	h := &Handle{
		name:   name,
		model:  model,
		id:     uuid.New(),
		caps:   caps,
		logger: logger,
		comp:   comp,
	}
	h.refs.Store(1)
	return h, nil
}

// Name returns the instance name.
func (h *Handle) Name() Name {
	return h.name
}

// Model returns the model the instance was built from.
func (h *Handle) Model() Model {
	return h.model
}

// ID is unique per constructed instance, so a rebuilt component under the same name gets a new one.
func (h *Handle) ID() uuid.UUID {
	return h.id
}

// Capabilities returns the capabilities of the wrapped component in fixed order.
func (h *Handle) Capabilities() []Capability {
	return append([]Capability(nil), h.caps...)
}

// Supports reports whether the component implements c.
func (h *Handle) Supports(c Capability) bool {
	for _, have := range h.caps {
		if have == c {
			return true
		}
	}
	return false
}

// Refs returns the number of current holders.
func (h *Handle) Refs() int64 {
	return h.refs.Load()
}

// Readings calls the component's Readings under the instance lock.
func (h *Handle) Readings(ctx context.Context) (*values.Readings, error) {
	r, ok := h.comp.(Readings)
	if !ok {
		return nil, NewUnsupportedCapabilityError(h.name.Name, CapabilityReadings)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrHandleClosed
	}
	out, err := r.Readings(ctx)
	if err != nil {
		return nil, h.operational(CapabilityReadings, err)
	}
	if out == nil {
		out = values.NewReadings(0)
	}
	return out, nil
}

// Status calls the component's Status under the instance lock.
func (h *Handle) Status(ctx context.Context) (values.Record, error) {
	s, ok := h.comp.(Status)
	if !ok {
		return nil, NewUnsupportedCapabilityError(h.name.Name, CapabilityStatus)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrHandleClosed
	}
	out, err := s.Status(ctx)
	if err != nil {
		return nil, h.operational(CapabilityStatus, err)
	}
	return out, nil
}

// DoCommand calls the component's DoCommand under the instance lock. A panic inside the command
// still releases the lock before it propagates.
func (h *Handle) DoCommand(ctx context.Context, cmd values.Record) (values.Record, error) {
	c, ok := h.comp.(Commander)
	if !ok {
		return nil, NewUnsupportedCapabilityError(h.name.Name, CapabilityDoCommand)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrHandleClosed
	}
	out, err := c.DoCommand(ctx, cmd)
	if err != nil {
		return nil, h.operational(CapabilityDoCommand, err)
	}
	return out, nil
}

func (h *Handle) operational(c Capability, err error) error {
	if errors.Is(err, ErrHandleClosed) || IsUnsupportedCapability(err) || IsOperationalError(err) {
		return err
	}
	h.logger.Debugw("capability call failed", "name", h.name.Name, "capability", c, "error", err)
	return &OperationalError{Name: h.name.Name, Capability: c, Cause: err}
}

// Retain adds a holder. It fails once the handle has been closed.
func (h *Handle) Retain() error {
	for {
		n := h.refs.Load()
		if n <= 0 {
			return ErrHandleClosed
		}
		if h.refs.CompareAndSwap(n, n+1) {
			return nil
		}
	}
}

// Release drops a holder. Dropping the last one closes the component, waiting for any in-flight
// call to finish first.
func (h *Handle) Release(ctx context.Context) error {
	for {
		n := h.refs.Load()
		if n <= 0 {
			return errors.Errorf("handle %q released more times than retained", h.name.Name)
		}
		if !h.refs.CompareAndSwap(n, n-1) {
			continue
		}
		if n > 1 {
			return nil
		}
		return h.close(ctx)
	}
}

func (h *Handle) close(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	h.logger.Debugw("closing component", "name", h.name.Name, "model", h.model, "id", h.id)
	if err := closeComponent(ctx, h.comp); err != nil {
		return errors.Wrapf(err, "closing %q", h.name.Name)
	}
	return nil
}
