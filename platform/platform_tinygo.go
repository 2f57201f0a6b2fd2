//go:build tinygo

package platform

import (
	"encoding/binary"
	"machine"
	"runtime"
	"time"
)

var bootTime = time.Now()

type tinygoDiagnostics struct{}

// Native returns the constrained target implementation: hardware RNG, microseconds since boot,
// and runtime heap stats. Stack high-water is not available.
func Native() Diagnostics {
	return tinygoDiagnostics{}
}

func (tinygoDiagnostics) Name() string {
	return "tinygo"
}

func (tinygoDiagnostics) FillRandom(buf []byte) error {
	var word [4]byte
	for i := 0; i < len(buf); i += 4 {
		v, err := machine.GetRNG()
		if err != nil {
			return err
		}
		binary.LittleEndian.PutUint32(word[:], v)
		copy(buf[i:], word[:])
	}
	return nil
}

func (tinygoDiagnostics) Timestamp() float64 {
	return float64(time.Since(bootTime).Microseconds())
}

func (tinygoDiagnostics) Uptime() time.Duration {
	return time.Since(bootTime)
}

func (tinygoDiagnostics) Memory() (MemoryStats, error) {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return MemoryStats{
		Internal: sub(ms.HeapSys, ms.HeapInuse),
		External: sub(ms.Sys, ms.HeapSys),
	}, nil
}

func sub(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}
