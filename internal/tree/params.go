package tree

import (
	"fmt"
	"math/big"

	"github.com/zclconf/go-cty/cty"
)

// Params is an insertion-ordered set of named parameter overrides. Values
// are cty numbers, strings or bools.
type Params struct {
	names  []string
	values map[string]cty.Value
}

// NewParams returns an empty parameter set.
func NewParams() *Params {
	return &Params{values: make(map[string]cty.Value)}
}

// NumberValue, StringValue and BoolValue are shorthands for building values.
func NumberValue(f float64) cty.Value { return cty.NumberFloatVal(f) }
func StringValue(s string) cty.Value  { return cty.StringVal(s) }
func BoolValue(b bool) cty.Value      { return cty.BoolVal(b) }

// Set adds or replaces a parameter. Replacing keeps the original position.
func (p *Params) Set(name string, v cty.Value) error {
	if name == "" {
		return fmt.Errorf("%w: parameter name is empty", ErrInvalidJob)
	}
	if v.IsNull() || !v.IsKnown() {
		return fmt.Errorf("%w: parameter %q has no value", ErrInvalidJob, name)
	}
	if t := v.Type(); !t.Equals(cty.Number) && !t.Equals(cty.String) && !t.Equals(cty.Bool) {
		return fmt.Errorf("%w: parameter %q must be a number, string or bool, got %s",
			ErrInvalidJob, name, v.Type().FriendlyName())
	}
	if _, exists := p.values[name]; !exists {
		p.names = append(p.names, name)
	}
	p.values[name] = v
	return nil
}

// Get returns the value for name.
func (p *Params) Get(name string) (cty.Value, bool) {
	v, ok := p.values[name]
	return v, ok
}

// Names returns parameter names in insertion order.
func (p *Params) Names() []string {
	out := make([]string, len(p.names))
	copy(out, p.names)
	return out
}

// Len is the number of parameters.
func (p *Params) Len() int { return len(p.names) }

// Each calls fn for every parameter in insertion order.
func (p *Params) Each(fn func(name string, v cty.Value)) {
	for _, name := range p.names {
		fn(name, p.values[name])
	}
}

// Clone returns an independent copy.
func (p *Params) Clone() *Params {
	out := NewParams()
	p.Each(func(name string, v cty.Value) {
		out.names = append(out.names, name)
		out.values[name] = v
	})
	return out
}

// FormatNumber renders a cty number in its shortest decimal form, without
// exponent for the magnitudes part parameters use.
func FormatNumber(v cty.Value) string {
	bf := v.AsBigFloat()
	if bf.IsInt() {
		i, _ := bf.Int(nil)
		return i.String()
	}
	f, _ := bf.Float64()
	return big.NewFloat(f).Text('f', -1)
}
