package platform

import (
	"math/rand"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// Simulated is a deterministic in-memory platform for tests and dry runs.
type Simulated struct {
	Clock clock.Clock

	mu    sync.Mutex
	rng   *rand.Rand
	start time.Time
	mem   MemoryStats
}

// SimulatedOption customizes a Simulated platform.
type SimulatedOption func(*Simulated)

// WithClock sets the time source, usually a *clock.Mock.
func WithClock(c clock.Clock) SimulatedOption {
	return func(s *Simulated) {
		s.Clock = c
		s.start = c.Now()
	}
}

// WithSeed sets the seed of the byte generator.
func WithSeed(seed int64) SimulatedOption {
	return func(s *Simulated) {
		s.rng = rand.New(rand.NewSource(seed)) //nolint:gosec
	}
}

// WithMemory sets the stats Memory reports.
func WithMemory(mem MemoryStats) SimulatedOption {
	return func(s *Simulated) {
		s.mem = mem
	}
}

// NewSimulated returns a simulated platform on a mock clock, seeded with 1 and reporting
// 256KiB internal, 4MiB external and 2KiB stack.
func NewSimulated(opts ...SimulatedOption) *Simulated {
	stack := uint64(2048)
	mock := clock.NewMock()
	s := &Simulated{
		Clock: mock,
		start: mock.Now(),
		rng:   rand.New(rand.NewSource(1)), //nolint:gosec
		mem:   MemoryStats{Internal: 256 << 10, External: 4 << 20, Stack: &stack},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns "simulated".
func (s *Simulated) Name() string {
	return NameSimulated
}

// FillRandom fills buf from the seeded generator.
func (s *Simulated) FillRandom(buf []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.rng.Read(buf)
	return err
}

// Timestamp returns unix seconds of the clock.
func (s *Simulated) Timestamp() float64 {
	return float64(s.Clock.Now().UnixNano()) / float64(time.Second)
}

// Uptime returns clock time elapsed since construction.
func (s *Simulated) Uptime() time.Duration {
	return s.Clock.Since(s.start)
}

// Memory returns the configured stats. The stack value is copied.
func (s *Simulated) Memory() (MemoryStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.mem
	if s.mem.Stack != nil {
		stack := *s.mem.Stack
		out.Stack = &stack
	}
	return out, nil
}
