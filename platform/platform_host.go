//go:build !tinygo

package platform

import (
	"crypto/rand"
	"time"

	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

var processStart = time.Now()

type hostDiagnostics struct{}

// Native returns the development host implementation: crypto/rand entropy, wall clock time,
// and free RAM and swap as internal and external memory.
func Native() Diagnostics {
	return hostDiagnostics{}
}

func (hostDiagnostics) Name() string {
	return "host"
}

func (hostDiagnostics) FillRandom(buf []byte) error {
	_, err := rand.Read(buf)
	return err
}

// Timestamp is in whole seconds.
func (hostDiagnostics) Timestamp() float64 {
	return float64(time.Now().Unix())
}

// Uptime is system uptime, or process uptime if the system will not say.
func (hostDiagnostics) Uptime() time.Duration {
	secs, err := host.Uptime()
	if err != nil || secs == 0 {
		return time.Since(processStart)
	}
	return time.Duration(secs) * time.Second
}

func (hostDiagnostics) Memory() (MemoryStats, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return MemoryStats{}, errors.Wrap(err, "reading virtual memory")
	}
	swap, err := mem.SwapMemory()
	if err != nil {
		return MemoryStats{}, errors.Wrap(err, "reading swap memory")
	}
	return MemoryStats{Internal: vm.Free, External: swap.Free}, nil
}
