package host

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"go.uber.org/multierr"

	"go.viam.com/diagsensors/logging"
)

// A Poller polls a host's readings on a fixed interval. A round that outlives the interval
// delays the next one instead of overlapping it.
type Poller struct {
	host      *Host
	logger    logging.Logger
	scheduler gocron.Scheduler
	sink      func([]PollResult)

	cancelCtx context.Context
	cancel    context.CancelFunc

	mu       sync.Mutex
	jobID    uuid.UUID
	interval time.Duration

	rounds atomic.Int64
}

// NewPoller returns a stopped poller. sink, if not nil, receives the results of every round.
func NewPoller(host *Host, interval time.Duration, logger logging.Logger, sink func([]PollResult)) (*Poller, error) {
	if interval <= 0 {
		return nil, errors.Errorf("poll interval must be positive, got %s", interval)
	}
	pollLogger := logger.Sublogger("poller")
	scheduler, err := gocron.NewScheduler(gocron.WithLogger(gocronLogger{pollLogger}))
	if err != nil {
		return nil, err
	}
	cancelCtx, cancel := context.WithCancel(context.Background())
	p := &Poller{
		host:      host,
		logger:    pollLogger,
		scheduler: scheduler,
		sink:      sink,
		cancelCtx: cancelCtx,
		cancel:    cancel,
		interval:  interval,
	}

	j, err := scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(p.poll),
		p.jobOptions()...,
	)
	if err != nil {
		cancel()
		return nil, multierr.Combine(err, scheduler.Shutdown())
	}
	p.jobID = j.ID()
	return p, nil
}

func (p *Poller) jobOptions() []gocron.JobOption {
	return []gocron.JobOption{
		gocron.WithName("poll"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	}
}

// Start begins polling.
func (p *Poller) Start() {
	p.scheduler.Start()
}

// SetInterval changes the poll interval.
func (p *Poller) SetInterval(interval time.Duration) error {
	if interval <= 0 {
		return errors.Errorf("poll interval must be positive, got %s", interval)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if interval == p.interval {
		return nil
	}
	j, err := p.scheduler.Update(p.jobID, gocron.DurationJob(interval), gocron.NewTask(p.poll), p.jobOptions()...)
	if err != nil {
		return err
	}
	p.logger.Infow("poll interval changed", "from", p.interval, "to", interval)
	p.jobID = j.ID()
	p.interval = interval
	return nil
}

// Rounds returns how many poll rounds have completed.
func (p *Poller) Rounds() int64 {
	return p.rounds.Load()
}

// Shutdown stops polling and waits for a running round to finish.
func (p *Poller) Shutdown() error {
	p.logger.Info("Shutting down gracefully")
	p.cancel()
	return p.scheduler.Shutdown()
}

func (p *Poller) poll() {
	results, err := p.host.PollOnce(p.cancelCtx)
	if err != nil {
		p.logger.Warnw("poll round did not complete", "error", err)
	}
	for _, r := range results {
		if r.Err != nil {
			p.logger.Warnw("readings failed", "name", r.Name, "error", r.Err)
			continue
		}
		p.logger.Debugw("readings", "name", r.Name, "readings", r.Readings, "took", r.Duration)
	}
	p.rounds.Inc()
	if p.sink != nil {
		p.sink(results)
	}
}

// gocronLogger adapts a Logger to the scheduler's key-value logger.
type gocronLogger struct {
	logger logging.Logger
}

func (l gocronLogger) Debug(msg string, args ...any) { l.logger.Debugw(msg, args...) }
func (l gocronLogger) Info(msg string, args ...any)  { l.logger.Infow(msg, args...) }
func (l gocronLogger) Warn(msg string, args ...any)  { l.logger.Warnw(msg, args...) }
func (l gocronLogger) Error(msg string, args ...any) { l.logger.Errorw(msg, args...) }
