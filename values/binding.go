package values

import (
	"maps"
	"slices"

	"github.com/reglet-dev/typeddata/errors"
	"github.com/reglet-dev/typeddata/host"
)

// Binding is a host Binding: local variables plus a receiver that source
// can be evaluated against.
type Binding struct {
	v host.Value
}

// NewBinding returns an empty Binding. Hosts newer than 3.1 return a
// NotImplementedError.
func NewBinding() (Binding, error) {
	v, err := host.Current().NewBinding()
	if err != nil {
		return Binding{}, err
	}
	return Binding{v: v}, nil
}

// TryConvertBinding returns v as a Binding.
func TryConvertBinding(v host.Value) (Binding, error) {
	rt := host.Current()
	if !rt.IsBinding(v) {
		return Binding{}, &errors.ConversionError{Actual: rt.Classname(v), Expected: "Binding"}
	}
	return Binding{v: v}, nil
}

// Value returns the host value.
func (b Binding) Value() host.Value { return b.v }

// Eval evaluates src against b.
func (b Binding) Eval(src string) (host.Value, error) {
	return host.Current().BindingEval(b.v, src)
}

// LocalVariableGet returns a local variable. Undefined names are a NameError.
func (b Binding) LocalVariableGet(name string) (host.Value, error) {
	return host.Current().BindingLocalGet(b.v, name)
}

// LocalVariableSet sets a local variable.
func (b Binding) LocalVariableSet(name string, v host.Value) error {
	return host.Current().BindingLocalSet(b.v, name, v)
}

// LocalVariables returns the names of the local variables.
func (b Binding) LocalVariables() []string {
	names, err := host.Current().BindingLocals(b.v)
	if err != nil {
		host.Bug("%v", err)
	}
	return names
}

// Eval evaluates src in a new Binding holding locals.
func Eval(src string, locals map[string]host.Value) (host.Value, error) {
	rt := host.Current()
	scope := rt.OpenScope()
	defer scope.Close()

	b, err := NewBinding()
	if err != nil {
		return host.Nil, err
	}
	for _, name := range slices.Sorted(maps.Keys(locals)) {
		if err := b.LocalVariableSet(name, locals[name]); err != nil {
			return host.Nil, err
		}
	}
	v, err := b.Eval(src)
	if err != nil {
		return host.Nil, err
	}
	return scope.Escape(v), nil
}
