package values

import (
	"bytes"
	"encoding/json"
)

// Readings is an ordered mapping from key to Value. Keys are unique; iteration follows first
// insertion. The zero value is not usable, use NewReadings.
type Readings struct {
	keys  []string
	items map[string]Value
}

// NewReadings returns an empty Readings with room for n keys.
func NewReadings(n int) *Readings {
	return &Readings{keys: make([]string, 0, n), items: make(map[string]Value, n)}
}

// ReadingsOf builds a Readings from alternating key, Value pairs. It panics on an odd count or a
// non-string key, so only use it with literals.
func ReadingsOf(pairs ...interface{}) *Readings {
	if len(pairs)%2 != 0 {
		panic("ReadingsOf needs key/value pairs")
	}
	r := NewReadings(len(pairs) / 2)
	for i := 0; i < len(pairs); i += 2 {
		r.Set(pairs[i].(string), pairs[i+1].(Value))
	}
	return r
}

// Set binds key to v. Re-setting an existing key keeps its original position.
func (r *Readings) Set(key string, v Value) {
	if _, ok := r.items[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.items[key] = v
}

// Get looks up key.
func (r *Readings) Get(key string) (Value, bool) {
	if r == nil {
		return Value{}, false
	}
	v, ok := r.items[key]
	return v, ok
}

// Keys returns a copy of the keys in insertion order.
func (r *Readings) Keys() []string {
	if r == nil {
		return nil
	}
	return append([]string(nil), r.keys...)
}

// Len returns the number of keys.
func (r *Readings) Len() int {
	if r == nil {
		return 0
	}
	return len(r.keys)
}

// Range calls f for every entry in insertion order until f returns false.
func (r *Readings) Range(f func(key string, v Value) bool) {
	if r == nil {
		return
	}
	for _, k := range r.keys {
		if !f(k, r.items[k]) {
			return
		}
	}
}

// Equal reports whether both readings hold the same keys, in the same order, with equal values.
func (r *Readings) Equal(other *Readings) bool {
	if r.Len() != other.Len() {
		return false
	}
	if r.Len() == 0 {
		return true
	}
	for i, k := range r.keys {
		if other.keys[i] != k || !r.items[k].Equal(other.items[k]) {
			return false
		}
	}
	return true
}

// AsMap flattens the readings into native Go values. Order is lost.
func (r *Readings) AsMap() map[string]interface{} {
	out := make(map[string]interface{}, r.Len())
	r.Range(func(k string, v Value) bool {
		out[k] = v.Interface()
		return true
	})
	return out
}

// MarshalJSON writes a JSON object whose members follow insertion order.
func (r *Readings) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	var err error
	r.Range(func(k string, v Value) bool {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		var key, enc []byte
		if key, err = json.Marshal(k); err != nil {
			return false
		}
		if enc, err = json.Marshal(v); err != nil {
			return false
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(enc)
		return true
	})
	if err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
