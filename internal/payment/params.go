package payment

import (
	"bytes"
	"encoding/json"
	"net/url"
	"strings"
)

// ParameterSet is an insertion-ordered string map holding one outbound payload.
// Setting an existing key overwrites the value in place, so merging parameter
// groups is last-write-wins.
type ParameterSet struct {
	keys   []string
	values map[string]string
}

func NewParameterSet() *ParameterSet {
	return &ParameterSet{values: make(map[string]string)}
}

// ParametersFrom builds a set from pairs given as key, value, key, value...
// A trailing odd key is ignored.
func ParametersFrom(pairs ...string) *ParameterSet {
	p := NewParameterSet()
	for i := 0; i+1 < len(pairs); i += 2 {
		p.Set(pairs[i], pairs[i+1])
	}
	return p
}

func (p *ParameterSet) Set(key, value string) {
	if _, ok := p.values[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.values[key] = value
}

// SetIf sets key only when value is non-empty.
func (p *ParameterSet) SetIf(key, value string) {
	if value != "" {
		p.Set(key, value)
	}
}

func (p *ParameterSet) Get(key string) (string, bool) {
	v, ok := p.values[key]
	return v, ok
}

func (p *ParameterSet) Value(key string) string {
	return p.values[key]
}

func (p *ParameterSet) Has(key string) bool {
	_, ok := p.values[key]
	return ok
}

func (p *ParameterSet) Delete(key string) {
	if _, ok := p.values[key]; !ok {
		return
	}
	delete(p.values, key)
	for i, k := range p.keys {
		if k == key {
			p.keys = append(p.keys[:i], p.keys[i+1:]...)
			break
		}
	}
}

// Merge copies every field of others into p, in order.
func (p *ParameterSet) Merge(others ...*ParameterSet) *ParameterSet {
	for _, o := range others {
		if o == nil {
			continue
		}
		for _, k := range o.keys {
			p.Set(k, o.values[k])
		}
	}
	return p
}

func (p *ParameterSet) Len() int {
	return len(p.keys)
}

// Keys returns the field names in insertion order.
func (p *ParameterSet) Keys() []string {
	out := make([]string, len(p.keys))
	copy(out, p.keys)
	return out
}

func (p *ParameterSet) Clone() *ParameterSet {
	return NewParameterSet().Merge(p)
}

// Encode renders the set as an application/x-www-form-urlencoded body,
// preserving insertion order.
func (p *ParameterSet) Encode() string {
	var sb strings.Builder
	for i, k := range p.keys {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(k))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(p.values[k]))
	}
	return sb.String()
}

func (p *ParameterSet) Values() url.Values {
	v := make(url.Values, len(p.keys))
	for _, k := range p.keys {
		v.Set(k, p.values[k])
	}
	return v
}

// MarshalJSON writes an object whose members follow insertion order.
func (p *ParameterSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range p.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(p.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
