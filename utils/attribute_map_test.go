package utils

import (
	"encoding/json"
	"testing"
	"time"

	"go.viam.com/test"
)

var sampleAttributeMap = AttributeMap{
	"ok_int":           12,
	"ok_float_int":     float64(40),
	"ok_json_number":   json.Number("7"),
	"ok_zero":          0,
	"bad_int_string":   "12",
	"bad_int_bool":     true,
	"bad_int_fraction": 10.5,
	"bad_int_huge":     1e12,
	"ok_float":         2.5,
	"ok_bool":          true,
	"bad_bool":         "true",
	"ok_string":        "8.8.8.8:53",
	"bad_string":       53,
	"ok_duration_str":  "250ms",
	"ok_duration_ms":   1500,
	"bad_duration":     "soon",
	"neg_duration":     -5,
	"nil_value":        nil,
}

func TestAttributeMapInt(t *testing.T) {
	test.That(t, sampleAttributeMap.Int("ok_int", 10), test.ShouldEqual, 12)
	test.That(t, sampleAttributeMap.Int("ok_float_int", 10), test.ShouldEqual, 40)
	test.That(t, sampleAttributeMap.Int("ok_json_number", 10), test.ShouldEqual, 7)
	test.That(t, sampleAttributeMap.Int("ok_zero", 10), test.ShouldEqual, 0)

	// absent or mistyped falls back to the default
	for _, name := range []string{
		"junk_key", "nil_value", "bad_int_string", "bad_int_bool", "bad_int_fraction", "bad_int_huge",
	} {
		test.That(t, sampleAttributeMap.Int(name, 10), test.ShouldEqual, 10)
	}

	_, err := sampleAttributeMap.TryInt("junk_key")
	test.That(t, err, test.ShouldEqual, ErrAttributeMissing)
	_, err = sampleAttributeMap.TryInt("bad_int_string")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err, test.ShouldNotEqual, ErrAttributeMissing)
}

func TestAttributeMapScalars(t *testing.T) {
	test.That(t, sampleAttributeMap.Float64("ok_float", 1), test.ShouldEqual, 2.5)
	test.That(t, sampleAttributeMap.Float64("ok_int", 1), test.ShouldEqual, 12.0)
	test.That(t, sampleAttributeMap.Float64("ok_string", 1), test.ShouldEqual, 1.0)

	test.That(t, sampleAttributeMap.Bool("ok_bool", false), test.ShouldBeTrue)
	test.That(t, sampleAttributeMap.Bool("bad_bool", false), test.ShouldBeFalse)
	test.That(t, sampleAttributeMap.Bool("junk_key", true), test.ShouldBeTrue)

	test.That(t, sampleAttributeMap.String("ok_string", "x"), test.ShouldEqual, "8.8.8.8:53")
	test.That(t, sampleAttributeMap.String("bad_string", "x"), test.ShouldEqual, "x")
	test.That(t, sampleAttributeMap.Has("nil_value"), test.ShouldBeTrue)
	test.That(t, sampleAttributeMap.Has("junk_key"), test.ShouldBeFalse)
}

func TestAttributeMapDuration(t *testing.T) {
	def := 2 * time.Second
	test.That(t, sampleAttributeMap.Duration("ok_duration_str", def), test.ShouldEqual, 250*time.Millisecond)
	test.That(t, sampleAttributeMap.Duration("ok_duration_ms", def), test.ShouldEqual, 1500*time.Millisecond)
	test.That(t, sampleAttributeMap.Duration("bad_duration", def), test.ShouldEqual, def)
	test.That(t, sampleAttributeMap.Duration("neg_duration", def), test.ShouldEqual, def)
	test.That(t, sampleAttributeMap.Duration("ok_bool", def), test.ShouldEqual, def)
	test.That(t, sampleAttributeMap.Duration("junk_key", def), test.ShouldEqual, def)
}
