package utils

import (
	"encoding/json"
	"math"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
)

// ErrAttributeMissing is returned by the Try* getters when the attribute is not set.
var ErrAttributeMissing = errors.New("attribute missing")

// AttributeMap is a convenience wrapper for pulling typed attributes out of a component config.
// The plain getters never fail: an absent or mistyped attribute yields the caller's default.
// Use the Try* variants to tell the two cases apart.
type AttributeMap map[string]interface{}

// Has returns whether or not the given attribute is in the map.
func (am AttributeMap) Has(name string) bool {
	_, has := am[name]
	return has
}

// TryInt returns the integer attribute. Only numeric values are accepted; a float must be
// integral. Strings and bools are reported as mistyped.
func (am AttributeMap) TryInt(name string) (int, error) {
	x, has := am[name]
	if !has || x == nil {
		return 0, ErrAttributeMissing
	}
	if !isNumeric(x) {
		return 0, NewUnexpectedTypeError(0, x)
	}
	f, err := cast.ToFloat64E(x)
	if err != nil {
		return 0, errors.Wrapf(err, "attribute %q", name)
	}
	if f != math.Trunc(f) || f > math.MaxInt32 || f < math.MinInt32 {
		return 0, errors.Errorf("attribute %q must be a 32-bit integer, got %v", name, x)
	}
	return cast.ToIntE(x)
}

// Int returns the integer attribute or def when it is absent or mistyped.
func (am AttributeMap) Int(name string, def int) int {
	v, err := am.TryInt(name)
	if err != nil {
		return def
	}
	return v
}

// TryFloat64 returns the numeric attribute as a float64.
func (am AttributeMap) TryFloat64(name string) (float64, error) {
	x, has := am[name]
	if !has || x == nil {
		return 0, ErrAttributeMissing
	}
	if !isNumeric(x) {
		return 0, NewUnexpectedTypeError(0.0, x)
	}
	return cast.ToFloat64E(x)
}

// Float64 returns the numeric attribute or def when it is absent or mistyped.
func (am AttributeMap) Float64(name string, def float64) float64 {
	v, err := am.TryFloat64(name)
	if err != nil {
		return def
	}
	return v
}

// Bool returns the boolean attribute or def when it is absent or mistyped.
func (am AttributeMap) Bool(name string, def bool) bool {
	x, has := am[name]
	if !has {
		return def
	}
	if v, ok := x.(bool); ok {
		return v
	}
	return def
}

// String returns the string attribute or def when it is absent or mistyped.
func (am AttributeMap) String(name, def string) string {
	x, has := am[name]
	if !has {
		return def
	}
	if v, ok := x.(string); ok {
		return v
	}
	return def
}

// Duration returns a duration attribute. Strings are parsed with time.ParseDuration ("250ms");
// numbers are taken as milliseconds. Anything else, including negative durations, yields def.
func (am AttributeMap) Duration(name string, def time.Duration) time.Duration {
	x, has := am[name]
	if !has {
		return def
	}
	var d time.Duration
	switch v := x.(type) {
	case string:
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return def
		}
		d = parsed
	default:
		if !isNumeric(v) {
			return def
		}
		ms, err := cast.ToFloat64E(v)
		if err != nil {
			return def
		}
		d = time.Duration(ms * float64(time.Millisecond))
	}
	if d < 0 {
		return def
	}
	return d
}

func isNumeric(x interface{}) bool {
	switch x.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, json.Number:
		return true
	default:
		return false
	}
}
