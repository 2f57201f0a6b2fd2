package values

import "github.com/pkg/errors"

// A Record is a structured status or command payload. A nil Record means "absent"; a non-nil
// empty Record is present but carries no fields.
type Record map[string]Value

// EmptyRecord returns a present record with no fields.
func EmptyRecord() Record { return Record{} }

// RecordFromMap converts a native map, as decoded from JSON, into a Record. A nil map gives a nil
// Record.
func RecordFromMap(m map[string]interface{}) (Record, error) {
	if m == nil {
		return nil, nil
	}
	rec := make(Record, len(m))
	for k, raw := range m {
		v, err := FromInterface(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "field %q", k)
		}
		rec[k] = v
	}
	return rec, nil
}

// Has reports whether key is present. Safe on a nil Record.
func (r Record) Has(key string) bool {
	_, ok := r[key]
	return ok
}

// Clone returns a copy. Cloning nil gives nil.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Equal compares presence and contents.
func (r Record) Equal(other Record) bool {
	if (r == nil) != (other == nil) || len(r) != len(other) {
		return false
	}
	for k, v := range r {
		ov, ok := other[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}
