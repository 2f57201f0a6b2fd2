package resource

import (
	"encoding/json"
	"reflect"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"

	"go.viam.com/diagsensors/utils"
)

// TransformAttributeMap uses an attribute map to transform attributes to the prescribed format.
// A scalar attribute whose type does not fit its field is ignored and the field keeps its zero
// value, the same fallback the AttributeMap getters apply.
func TransformAttributeMap[T any](attributes utils.AttributeMap) (T, error) {
	var out T

	var forResult interface{}
	toT := reflect.TypeOf(out)
	if toT == nil {
		return out, errors.New("cannot transform attributes into a nil type")
	}
	if toT.Kind() == reflect.Ptr {
		// needs to be allocated then
		var ok bool
		out, ok = reflect.New(toT.Elem()).Interface().(T)
		if !ok {
			return out, errors.Errorf("expected %T but got %T", out, reflect.New(toT.Elem()).Interface())
		}
		forResult = out
	} else {
		forResult = &out
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           forResult,
		ErrorUnused:      false,
		WeaklyTypedInput: false,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			keepMistypedScalar,
		),
	})
	if err != nil {
		return out, err
	}
	if err := decoder.Decode(attributes); err != nil {
		return out, err
	}
	return out, nil
}

var jsonNumberType = reflect.TypeOf(json.Number(""))

// keepMistypedScalar replaces a value that cannot fill a scalar field with the field's current
// value.
func keepMistypedScalar(from, to reflect.Value) (interface{}, error) {
	if !from.IsValid() {
		return nil, nil
	}
	if !to.IsValid() {
		return from.Interface(), nil
	}
	if scalarFits(from.Type(), to.Kind()) {
		return from.Interface(), nil
	}
	switch to.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return to.Interface(), nil
	default:
		return from.Interface(), nil
	}
}

func scalarFits(from reflect.Type, to reflect.Kind) bool {
	switch to {
	case reflect.Bool:
		return from.Kind() == reflect.Bool
	case reflect.String:
		return from.Kind() == reflect.String && from != jsonNumberType
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		if from == jsonNumberType {
			return true
		}
		switch from.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
			reflect.Float32, reflect.Float64:
			return true
		default:
			return false
		}
	default:
		return true
	}
}
