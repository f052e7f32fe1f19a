package reconcile

import (
	"bytes"
	"encoding/json"
	"fmt"

	"lesson-sync/core/utils"
)

// Payload is an ordered mapping of field names to scalar values.
// A field that is present with a nil value is an explicit null, which is
// different from an absent field.
type Payload struct {
	keys   []string
	values map[string]any
}

// NewPayload builds a payload from alternating name/value pairs.
// It panics if a name is not a string, since that is a programming error.
func NewPayload(pairs ...any) *Payload {
	p := &Payload{values: make(map[string]any, len(pairs)/2)}
	for i := 0; i+1 < len(pairs); i += 2 {
		name, ok := pairs[i].(string)
		if !ok {
			panic(fmt.Sprintf("reconcile: payload field name at position %d is %T, not string", i, pairs[i]))
		}
		p.Set(name, pairs[i+1])
	}
	return p
}

// Len returns the number of fields.
func (p *Payload) Len() int {
	if p == nil {
		return 0
	}
	return len(p.keys)
}

// Keys returns the field names in insertion order.
func (p *Payload) Keys() []string {
	if p == nil {
		return nil
	}
	keys := make([]string, len(p.keys))
	copy(keys, p.keys)
	return keys
}

// Get returns the value of a field and whether it is present.
func (p *Payload) Get(name string) (any, bool) {
	if p == nil {
		return nil, false
	}
	v, ok := p.values[name]
	return v, ok
}

// Has reports whether the field is present, including explicit nulls.
func (p *Payload) Has(name string) bool {
	_, ok := p.Get(name)
	return ok
}

// String returns the field value converted to a string, or "" when absent or null.
func (p *Payload) String(name string) string {
	v, _ := p.Get(name)
	return utils.ToString(v)
}

// Set assigns a field. New fields are appended; existing fields keep their position.
func (p *Payload) Set(name string, value any) {
	if p.values == nil {
		p.values = make(map[string]any)
	}
	if _, exists := p.values[name]; !exists {
		p.keys = append(p.keys, name)
	}
	p.values[name] = normalizeValue(value)
}

// Delete removes a field if present.
func (p *Payload) Delete(name string) {
	if p == nil {
		return
	}
	if _, exists := p.values[name]; !exists {
		return
	}
	delete(p.values, name)
	for i, k := range p.keys {
		if k == name {
			p.keys = append(p.keys[:i], p.keys[i+1:]...)
			break
		}
	}
}

// Clone returns a copy that shares no state with p.
func (p *Payload) Clone() *Payload {
	c := &Payload{values: make(map[string]any, p.Len())}
	if p == nil {
		return c
	}
	c.keys = make([]string, len(p.keys))
	copy(c.keys, p.keys)
	for k, v := range p.values {
		c.values[k] = v
	}
	return c
}

// MarshalJSON encodes the payload as a JSON object preserving field order.
func (p *Payload) MarshalJSON() ([]byte, error) {
	if p == nil {
		return []byte("null"), nil
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range p.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(p.values[k])
		if err != nil {
			return nil, fmt.Errorf("failed to encode field %s: %w", k, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object preserving field order.
// Integral numbers decode to int64, other numbers to float64.
func (p *Payload) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("payload must be a JSON object, got %v", tok)
	}

	p.keys = nil
	p.values = make(map[string]any)

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected payload key %v", tok)
		}

		var value any
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("failed to decode field %s: %w", name, err)
		}
		p.Set(name, value)
	}

	// Consume the closing brace
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// normalizeValue collapses json.Number into int64 or float64 so that values
// decoded from different stores compare and re-encode the same way.
func normalizeValue(v any) any {
	n, ok := v.(json.Number)
	if !ok {
		return v
	}
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}

// ValuesEqual compares two payload values.
// Numbers compare by value regardless of their Go type; nil only equals nil.
// Text never equals a non-text value, so 3 and "3" differ.
func ValuesEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if af, ok := utils.ToFloat(a); ok {
		if bf, ok := utils.ToFloat(b); ok {
			return af == bf
		}
	}
	if isText(a) != isText(b) {
		return false
	}
	return utils.ToString(a) == utils.ToString(b)
}

func isText(v any) bool {
	switch v.(type) {
	case string, []byte:
		return true
	default:
		return false
	}
}
