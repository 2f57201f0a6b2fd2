// Package platform is the single seam where sensor behavior differs between a constrained
// target and a development host: entropy, timing, and memory introspection. The method set and
// result shapes are identical everywhere, so components and their tests never look past it.
package platform

import (
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Names accepted by ByName.
const (
	NameNative    = "native"
	NameSimulated = "simulated"
)

// MemoryStats is a snapshot of free memory in bytes. Stack is the remaining stack high-water
// mark of the calling task, nil where the platform cannot report it.
type MemoryStats struct {
	Internal uint64
	External uint64
	Stack    *uint64
}

// Diagnostics is what components may ask of the platform they run on.
type Diagnostics interface {
	// Name identifies the implementation, e.g. "host" or "tinygo".
	Name() string
	// FillRandom fills buf entirely from the platform entropy source.
	FillRandom(buf []byte) error
	// Timestamp is the platform's notion of now in seconds. Its epoch is platform defined.
	Timestamp() float64
	Uptime() time.Duration
	Memory() (MemoryStats, error)
}

// ByName resolves a platform by its config name. "" and "native" give the build default.
func ByName(name string) (Diagnostics, error) {
	switch strings.ToLower(name) {
	case "", NameNative:
		return Native(), nil
	case NameSimulated:
		return NewSimulated(), nil
	default:
		return nil, errors.Errorf("unknown platform %q, expected %q or %q", name, NameNative, NameSimulated)
	}
}
