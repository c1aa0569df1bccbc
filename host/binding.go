package host

import (
	"maps"
	"slices"

	"github.com/reglet-dev/typeddata/errors"
)

type bindingData struct {
	locals   map[string]Value
	receiver Value
}

// Evaluator evaluates source text against a Binding.
type Evaluator interface {
	Eval(rt *Runtime, binding Value, src string) (Value, error)
}

// NewBinding returns a Binding with no local variables whose receiver is the
// top-level object. Hosts newer than 3.1 do not support creating bindings
// from native code.
func (rt *Runtime) NewBinding() (Value, error) {
	if !rt.version.Features().BindingNew {
		return 0, errors.NewException(errors.ClassNotImplementedError,
			"binding creation requires host API <= 3.1, have %s", rt.version)
	}
	return rt.newObject(rt.builtin.binding, KindBinding, &bindingData{
		locals:   make(map[string]Value),
		receiver: rt.main,
	}, 64), nil
}

func (rt *Runtime) bindingData(v Value) (*bindingData, error) {
	o := rt.object(v)
	if o == nil || o.kind != KindBinding {
		return nil, &errors.ConversionError{Actual: rt.Classname(v), Expected: "Binding"}
	}
	return o.payload.(*bindingData), nil
}

// IsBinding reports whether v is a Binding.
func (rt *Runtime) IsBinding(v Value) bool { return rt.KindOf(v) == KindBinding }

// BindingEval evaluates src in the context of a Binding.
func (rt *Runtime) BindingEval(b Value, src string) (Value, error) {
	if _, err := rt.bindingData(b); err != nil {
		return 0, err
	}
	scope := rt.OpenScope()
	defer scope.Close()
	v, err := rt.evaluator.Eval(rt, b, src)
	if err != nil {
		return 0, err
	}
	return scope.Escape(v), nil
}

// BindingLocalGet returns the value of a local variable.
func (rt *Runtime) BindingLocalGet(b Value, name string) (Value, error) {
	d, err := rt.bindingData(b)
	if err != nil {
		return 0, err
	}
	v, ok := d.locals[name]
	if !ok {
		return 0, errors.NewException(errors.ClassNameError, "local variable '%s' is not defined for %s",
			name, rt.Inspect(b))
	}
	return v, nil
}

// BindingLocalSet sets a local variable, defining it when needed.
func (rt *Runtime) BindingLocalSet(b Value, name string, v Value) error {
	d, err := rt.bindingData(b)
	if err != nil {
		return err
	}
	if !isLocalName(name) {
		return errors.NewException(errors.ClassNameError, "wrong local variable name '%s' for %s", name, rt.Inspect(b))
	}
	d.locals[name] = v
	rt.WriteBarrier(b, v)
	return nil
}

// BindingLocalDefined reports whether a local variable is defined.
func (rt *Runtime) BindingLocalDefined(b Value, name string) bool {
	d, err := rt.bindingData(b)
	if err != nil {
		return false
	}
	_, ok := d.locals[name]
	return ok
}

// BindingLocals returns the local variable names in sorted order.
func (rt *Runtime) BindingLocals(b Value) ([]string, error) {
	d, err := rt.bindingData(b)
	if err != nil {
		return nil, err
	}
	return slices.Sorted(maps.Keys(d.locals)), nil
}

// BindingReceiver returns the receiver of a Binding.
func (rt *Runtime) BindingReceiver(b Value) (Value, error) {
	d, err := rt.bindingData(b)
	if err != nil {
		return 0, err
	}
	return d.receiver, nil
}

func isLocalName(name string) bool {
	if name == "" {
		return false
	}
	for i, c := range name {
		switch {
		case c == '_', c >= 'a' && c <= 'z':
		case i > 0 && (c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'):
		default:
			return false
		}
	}
	return true
}
