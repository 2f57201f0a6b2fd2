package values

import (
	"slices"

	"github.com/pkg/errors"
	"google.golang.org/protobuf/types/known/structpb"
)

// ToProto converts v to its protobuf counterpart.
func (v Value) ToProto() *structpb.Value {
	switch v.kind {
	case KindBool:
		return structpb.NewBoolValue(v.b)
	case KindNumber:
		return structpb.NewNumberValue(v.n)
	case KindString:
		return structpb.NewStringValue(v.s)
	default:
		return structpb.NewNullValue()
	}
}

// ValueFromProto converts a protobuf value. Lists and structs have no Value form.
func ValueFromProto(pv *structpb.Value) (Value, error) {
	if pv == nil {
		return Null(), nil
	}
	switch k := pv.GetKind().(type) {
	case nil, *structpb.Value_NullValue:
		return Null(), nil
	case *structpb.Value_BoolValue:
		return Bool(k.BoolValue), nil
	case *structpb.Value_NumberValue:
		return Number(k.NumberValue), nil
	case *structpb.Value_StringValue:
		return String(k.StringValue), nil
	default:
		return Value{}, errors.Errorf("unsupported protobuf value kind %T", k)
	}
}

// ToProto converts the readings to a protobuf struct. Protobuf maps are unordered.
func (r *Readings) ToProto() *structpb.Struct {
	out := &structpb.Struct{Fields: make(map[string]*structpb.Value, r.Len())}
	r.Range(func(k string, v Value) bool {
		out.Fields[k] = v.ToProto()
		return true
	})
	return out
}

// ReadingsFromProto converts a protobuf struct into readings with keys in sorted order, since
// protobuf carries no order of its own.
func ReadingsFromProto(s *structpb.Struct) (*Readings, error) {
	fields := s.GetFields()
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	r := NewReadings(len(keys))
	for _, k := range keys {
		v, err := ValueFromProto(fields[k])
		if err != nil {
			return nil, errors.Wrapf(err, "reading %q", k)
		}
		r.Set(k, v)
	}
	return r, nil
}

// ToProto converts the record. A nil Record converts to a nil struct.
func (r Record) ToProto() *structpb.Struct {
	if r == nil {
		return nil
	}
	out := &structpb.Struct{Fields: make(map[string]*structpb.Value, len(r))}
	for k, v := range r {
		out.Fields[k] = v.ToProto()
	}
	return out
}

// RecordFromProto converts a protobuf struct. A nil struct converts to a nil Record.
func RecordFromProto(s *structpb.Struct) (Record, error) {
	if s == nil {
		return nil, nil
	}
	rec := make(Record, len(s.GetFields()))
	for k, pv := range s.GetFields() {
		v, err := ValueFromProto(pv)
		if err != nil {
			return nil, errors.Wrapf(err, "field %q", k)
		}
		rec[k] = v
	}
	return rec, nil
}
