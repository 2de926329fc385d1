// Package params describes the arguments of an outbound contract call and
// renders them for the two transaction submission paths used by the wallet
// bridge.
//
// A Builder is filled in call-argument order and then projected into one of
// three shapes:
//
//   - SignatureFragment: "address recipient, uint256 amount", wrapped by the
//     caller into a human-readable declaration "function transfer(...)".
//   - PositionalValues: the arguments as strings, in order, for a generic
//     call against that declaration.
//   - Structured: a typed FunctionParameters aggregate that ABI-encodes the
//     arguments directly.
//
// Rendering never mutates the builder. A builder may be rendered any number of
// times and appended to between renders, although callers normally create one
// per contract call and discard it afterwards.
package params

import (
	"regexp"
	"slices"
	"strings"

	"github.com/samber/lo"
)

// Param is one contract-call argument.
type Param struct {
	Type  string // semantic type tag, e.g. "address", "uint256", "stringArray"
	Name  string // used only by SignatureFragment
	Value any    // interpreted according to Type
}

// Builder accumulates call parameters in argument order.
type Builder struct {
	params []Param
}

// New returns an empty builder.
func New() *Builder {
	return &Builder{}
}

// Add appends p and returns the builder for chaining. Nothing is validated
// here; Structured is the only render that checks type tags.
func (b *Builder) Add(p Param) *Builder {
	b.params = append(b.params, p)
	return b
}

// AddParam is shorthand for Add(Param{Type: typ, Name: name, Value: value}).
func (b *Builder) AddParam(typ, name string, value any) *Builder {
	return b.Add(Param{Type: typ, Name: name, Value: value})
}

// Len returns the number of parameters added so far.
func (b *Builder) Len() int {
	return len(b.params)
}

// Params returns a copy of the parameter sequence.
func (b *Builder) Params() []Param {
	return slices.Clone(b.params)
}

// SignatureFragment lists every parameter as "<type> <name>" joined by ", ".
// An empty builder yields "".
func (b *Builder) SignatureFragment() string {
	return strings.Join(lo.Map(b.params, func(p Param, _ int) string {
		return p.Type + " " + p.Name
	}), ", ")
}

// PositionalValues returns each parameter value converted to its string form,
// in append order. The result is never nil.
func (b *Builder) PositionalValues() []string {
	return lo.Map(b.params, func(p Param, _ int) string {
		return Stringify(p.Value)
	})
}

var typeTagPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9]*$`)

// Structured builds a FunctionParameters aggregate by invoking, for each
// parameter in order, the setter registered for its type tag. The setter for
// tag "uint256" is "addUint256"; see SupportedTypes for the full vocabulary.
//
// It fails with *InvalidTypeError when a tag is not alphanumeric or does not
// start with a letter, *UnsupportedTypeError when no setter exists for the tag,
// and *InvalidValueError when the setter cannot convert the value. No partial
// aggregate is returned on failure.
func (b *Builder) Structured() (*FunctionParameters, error) {
	fp := NewFunctionParameters()
	for _, p := range b.params {
		if !typeTagPattern.MatchString(p.Type) {
			return nil, &InvalidTypeError{Type: p.Type}
		}
		name := setterName(p.Type)
		set, ok := setters[name]
		if !ok {
			return nil, &UnsupportedTypeError{Type: p.Type, Setter: name}
		}
		if err := set(fp, p.Value); err != nil {
			return nil, &InvalidValueError{Type: p.Type, Name: p.Name, Value: p.Value, Err: err}
		}
	}
	return fp, nil
}

// setterName derives "add<Type>" from a validated tag.
func setterName(tag string) string {
	return "add" + strings.ToUpper(tag[:1]) + tag[1:]
}
