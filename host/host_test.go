package host

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/multierr"
	"go.viam.com/test"

	"go.viam.com/diagsensors/components/sensor/trigger"
	"go.viam.com/diagsensors/config"
	"go.viam.com/diagsensors/logging"
	"go.viam.com/diagsensors/models"
	"go.viam.com/diagsensors/resource"
	"go.viam.com/diagsensors/values"
)

type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(event string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
}

func (l *eventLog) take() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := l.events
	l.events = nil
	return out
}

type recorder struct {
	name string
	deps []string
	fail bool
	log  *eventLog
}

func (r *recorder) Readings(ctx context.Context) (*values.Readings, error) {
	if r.fail {
		return nil, errors.New("sensor unplugged")
	}
	return values.ReadingsOf("deps", values.Number(float64(len(r.deps)))), nil
}

func (r *recorder) Close(ctx context.Context) error {
	r.log.add("close " + r.name)
	return nil
}

func newRecorderRegistry(t *testing.T, log *eventLog) *resource.Registry {
	t.Helper()
	reg := resource.NewRegistry()
	test.That(t, reg.Register("recorder", resource.Registration{
		Constructor: func(
			_ context.Context,
			deps resource.Dependencies,
			conf resource.Config,
			_ logging.Logger,
		) (resource.Component, error) {
			log.add("construct " + conf.Name)
			if conf.Attributes.Bool("broken", false) {
				return nil, errors.New("cannot open device")
			}
			if conf.Attributes.Bool("panic", false) {
				panic("kaboom")
			}
			return &recorder{name: conf.Name, deps: deps.Names(), fail: conf.Attributes.Bool("fail", false), log: log}, nil
		},
	}), test.ShouldBeNil)
	reg.Seal()
	return reg
}

func mustConfig(t *testing.T, js string) *config.Config {
	t.Helper()
	conf, err := config.FromReader(context.Background(), "", strings.NewReader(js), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	return conf
}

func refs(t *testing.T, h *Host, name string) int64 {
	t.Helper()
	handle, err := h.Handle(name)
	test.That(t, err, test.ShouldBeNil)
	return handle.Refs()
}

const chainConfig = `{"components": [
	{"name": "c", "model": "recorder", "depends_on": ["b"]},
	{"name": "b", "model": "recorder", "depends_on": ["a"]},
	{"name": "a", "model": "recorder"%s},
	{"name": "d", "model": "recorder"}
]}`

func TestApplyDependencyOrder(t *testing.T) {
	logger := logging.NewTestLogger(t)
	ctx := context.Background()
	log := &eventLog{}
	h, err := New(newRecorderRegistry(t, log), logger)
	test.That(t, err, test.ShouldBeNil)
	defer func() {
		test.That(t, h.Close(ctx), test.ShouldBeNil)
	}()

	conf := mustConfig(t, strings.Replace(chainConfig, "%s", "", 1))
	test.That(t, h.Apply(ctx, conf), test.ShouldBeNil)
	test.That(t, h.Config(), test.ShouldEqual, conf)
	test.That(t, h.Names(), test.ShouldResemble, []string{"a", "b", "c", "d"})
	test.That(t, log.take(), test.ShouldResemble, []string{"construct a", "construct d", "construct b", "construct c"})

	test.That(t, refs(t, h, "a"), test.ShouldEqual, 2)
	test.That(t, refs(t, h, "b"), test.ShouldEqual, 2)
	test.That(t, refs(t, h, "c"), test.ShouldEqual, 1)
	test.That(t, refs(t, h, "d"), test.ShouldEqual, 1)

	readings, err := h.Readings(ctx, "b")
	test.That(t, err, test.ShouldBeNil)
	deps, _ := readings.Get("deps")
	test.That(t, deps, test.ShouldResemble, values.Number(1))
	test.That(t, refs(t, h, "b"), test.ShouldEqual, 2)
}

func TestApplyRebuildsChangedAndDependents(t *testing.T) {
	logger := logging.NewTestLogger(t)
	ctx := context.Background()
	log := &eventLog{}
	h, err := New(newRecorderRegistry(t, log), logger)
	test.That(t, err, test.ShouldBeNil)
	defer func() {
		test.That(t, h.Close(ctx), test.ShouldBeNil)
	}()

	test.That(t, h.Apply(ctx, mustConfig(t, strings.Replace(chainConfig, "%s", "", 1))), test.ShouldBeNil)
	log.take()
	d, err := h.Handle("d")
	test.That(t, err, test.ShouldBeNil)
	oldA, err := h.Handle("a")
	test.That(t, err, test.ShouldBeNil)

	t.Run("unchanged config keeps everything", func(t *testing.T) {
		test.That(t, h.Apply(ctx, mustConfig(t, strings.Replace(chainConfig, "%s", "", 1))), test.ShouldBeNil)
		test.That(t, log.take(), test.ShouldBeEmpty)
	})

	t.Run("changed component rebuilds dependents", func(t *testing.T) {
		test.That(t, h.Apply(ctx, mustConfig(t, strings.Replace(chainConfig, "%s", `, "attributes": {"x": 1}`, 1))), test.ShouldBeNil)
		test.That(t, log.take(), test.ShouldResemble, []string{
			"close c", "close b", "close a",
			"construct a", "construct b", "construct c",
		})
		newA, err := h.Handle("a")
		test.That(t, err, test.ShouldBeNil)
		test.That(t, newA.ID(), test.ShouldNotEqual, oldA.ID())

		_, err = oldA.Readings(ctx)
		test.That(t, errors.Is(err, resource.ErrHandleClosed), test.ShouldBeTrue)

		kept, err := h.Handle("d")
		test.That(t, err, test.ShouldBeNil)
		test.That(t, kept, test.ShouldEqual, d)
	})

	t.Run("removed component", func(t *testing.T) {
		test.That(t, h.Apply(ctx, mustConfig(t, `{"components": [
			{"name": "b", "model": "recorder", "depends_on": ["a"]},
			{"name": "a", "model": "recorder", "attributes": {"x": 1}},
			{"name": "d", "model": "recorder"}
		]}`)), test.ShouldBeNil)
		test.That(t, log.take(), test.ShouldResemble, []string{"close c"})
		test.That(t, h.Names(), test.ShouldResemble, []string{"a", "b", "d"})
		test.That(t, refs(t, h, "b"), test.ShouldEqual, 1)

		_, err := h.Readings(ctx, "c")
		test.That(t, IsNotFoundError(err), test.ShouldBeTrue)
	})
}

func TestApplyFailuresAreIsolated(t *testing.T) {
	logger := logging.NewTestLogger(t)
	ctx := context.Background()
	log := &eventLog{}
	h, err := New(newRecorderRegistry(t, log), logger)
	test.That(t, err, test.ShouldBeNil)
	defer func() {
		test.That(t, h.Close(ctx), test.ShouldBeNil)
	}()

	conf := mustConfig(t, `{"components": [
		{"name": "a", "model": "recorder", "attributes": {"broken": true}},
		{"name": "b", "model": "recorder", "depends_on": ["a"]},
		{"name": "d", "model": "recorder"},
		{"name": "e", "model": "recorder", "depends_on": ["d"], "attributes": {"panic": true}},
		{"name": "u", "model": "no-such-model"}
	]}`)
	err = h.Apply(ctx, conf)
	test.That(t, err, test.ShouldNotBeNil)
	errs := multierr.Errors(err)
	test.That(t, errs, test.ShouldHaveLength, 4)

	test.That(t, resource.IsConfigurationError(errs[0]), test.ShouldBeTrue)
	test.That(t, errs[0].Error(), test.ShouldContainSubstring, "cannot open device")
	test.That(t, resource.IsUnknownComponent(errs[1]), test.ShouldBeTrue)
	test.That(t, resource.IsDependencyNotReadyError(errs[2]), test.ShouldBeTrue)
	test.That(t, resource.IsConfigurationError(errs[3]), test.ShouldBeTrue)
	test.That(t, errs[3].Error(), test.ShouldContainSubstring, "panic creating component")

	test.That(t, h.Names(), test.ShouldResemble, []string{"d"})
	test.That(t, refs(t, h, "d"), test.ShouldEqual, 1)

	// failed components are retried on the next apply
	log.take()
	test.That(t, h.Apply(ctx, conf), test.ShouldNotBeNil)
	test.That(t, log.take(), test.ShouldResemble, []string{"construct a", "construct e"})
}

func TestHostCalls(t *testing.T) {
	logger := logging.NewTestLogger(t)
	ctx := context.Background()
	reg := resource.NewRegistry()
	test.That(t, models.RegisterModels(reg), test.ShouldBeNil)
	reg.Seal()

	h, err := New(reg, logger)
	test.That(t, err, test.ShouldBeNil)
	defer func() {
		test.That(t, h.Close(ctx), test.ShouldBeNil)
	}()

	test.That(t, h.Apply(ctx, mustConfig(t, `{"platform": "simulated", "components": [
		{"name": "fat", "model": "esp32-fat", "attributes": {"len": 4}},
		{"name": "blob", "model": "esp32-blobber"},
		{"name": "sys", "model": "esp32-sysinfo"},
		{"name": "trig", "model": "esp32-data"}
	]}`)), test.ShouldBeNil)

	readings, err := h.Readings(ctx, "fat")
	test.That(t, err, test.ShouldBeNil)
	blob, ok := readings.Get("blob")
	test.That(t, ok, test.ShouldBeTrue)
	s, _ := blob.AsString()
	test.That(t, s, test.ShouldHaveLength, 8)

	status, err := h.Status(ctx, "fat")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, status, test.ShouldBeEmpty)

	_, err = h.Status(ctx, "trig")
	test.That(t, resource.IsUnsupportedCapability(err), test.ShouldBeTrue)
	_, err = h.DoCommand(ctx, "fat", values.Record{"x": values.Number(1)})
	test.That(t, resource.IsUnsupportedCapability(err), test.ShouldBeTrue)

	resp, err := h.DoCommand(ctx, "trig", values.Record{"hello": values.Number(1)})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, resp, test.ShouldBeNil)

	test.That(t, func() {
		h.DoCommand(ctx, "trig", values.Record{trigger.AbortKey: values.Bool(true)})
	}, test.ShouldPanicWith, trigger.ErrIntentionalAbort)
	test.That(t, refs(t, h, "trig"), test.ShouldEqual, 1)

	_, err = h.Readings(ctx, "missing")
	test.That(t, IsNotFoundError(err), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "missing")
}

func TestPollOnce(t *testing.T) {
	logger := logging.NewTestLogger(t)
	ctx := context.Background()
	log := &eventLog{}
	metricsReg := prometheus.NewRegistry()
	h, err := New(newRecorderRegistry(t, log), logger, WithMetricsRegistry(metricsReg))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, h.MetricsRegistry(), test.ShouldEqual, metricsReg)
	defer func() {
		test.That(t, h.Close(ctx), test.ShouldBeNil)
	}()

	_, err = New(newRecorderRegistry(t, log), logger, WithMetricsRegistry(metricsReg))
	test.That(t, err, test.ShouldNotBeNil)

	test.That(t, h.Apply(ctx, mustConfig(t, `{"components": [
		{"name": "ok", "model": "recorder"},
		{"name": "bad", "model": "recorder", "attributes": {"fail": true}}
	]}`)), test.ShouldBeNil)

	results, err := h.PollOnce(ctx)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, results, test.ShouldHaveLength, 2)
	test.That(t, results[0].Name, test.ShouldEqual, "bad")
	test.That(t, resource.IsOperationalError(results[0].Err), test.ShouldBeTrue)
	test.That(t, results[0].Err.Error(), test.ShouldContainSubstring, "sensor unplugged")
	test.That(t, results[1].Name, test.ShouldEqual, "ok")
	test.That(t, results[1].Err, test.ShouldBeNil)
	test.That(t, results[1].Readings.Len(), test.ShouldEqual, 1)

	test.That(t, testutil.ToFloat64(h.metrics.readings.WithLabelValues("ok", statusSuccess)), test.ShouldEqual, 1)
	test.That(t, testutil.ToFloat64(h.metrics.readings.WithLabelValues("bad", statusFailure)), test.ShouldEqual, 1)
	test.That(t, testutil.ToFloat64(h.metrics.polls), test.ShouldEqual, 1)
	test.That(t, testutil.ToFloat64(h.metrics.components), test.ShouldEqual, 2)
}

func TestConcurrentCallsDuringApply(t *testing.T) {
	logger := logging.NewTestLogger(t)
	ctx := context.Background()
	h, err := New(newRecorderRegistry(t, &eventLog{}), logger)
	test.That(t, err, test.ShouldBeNil)

	confA := mustConfig(t, `{"components": [{"name": "s", "model": "recorder"}]}`)
	confB := mustConfig(t, `{"components": [{"name": "s", "model": "recorder", "attributes": {"x": 1}}]}`)
	test.That(t, h.Apply(ctx, confA), test.ShouldBeNil)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_, err := h.Readings(ctx, "s")
				if err != nil && !errors.Is(err, resource.ErrHandleClosed) && !IsNotFoundError(err) {
					t.Errorf("unexpected error: %v", err)
				}
			}
		}()
	}
	for i := 0; i < 10; i++ {
		conf := confA
		if i%2 == 0 {
			conf = confB
		}
		test.That(t, h.Apply(ctx, conf), test.ShouldBeNil)
	}
	wg.Wait()
	test.That(t, refs(t, h, "s"), test.ShouldEqual, 1)
	test.That(t, h.Close(ctx), test.ShouldBeNil)
}

func TestClose(t *testing.T) {
	logger := logging.NewTestLogger(t)
	ctx := context.Background()
	log := &eventLog{}
	h, err := New(newRecorderRegistry(t, log), logger)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, h.Apply(ctx, mustConfig(t, strings.Replace(chainConfig, "%s", "", 1))), test.ShouldBeNil)
	log.take()

	test.That(t, h.Close(ctx), test.ShouldBeNil)
	test.That(t, log.take(), test.ShouldResemble, []string{"close c", "close b", "close d", "close a"})
	test.That(t, h.Names(), test.ShouldBeEmpty)
	test.That(t, h.Close(ctx), test.ShouldBeNil)

	_, err = h.Readings(ctx, "a")
	test.That(t, err, test.ShouldEqual, ErrClosed)
	_, err = h.PollOnce(ctx)
	test.That(t, err, test.ShouldEqual, ErrClosed)
	test.That(t, h.Apply(ctx, &config.Config{}), test.ShouldEqual, ErrClosed)
	test.That(t, h.Apply(ctx, nil), test.ShouldNotBeNil)

	_, err = New(nil, logger)
	test.That(t, err, test.ShouldNotBeNil)
}
