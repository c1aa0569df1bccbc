package host

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/reglet-dev/typeddata/errors"
)

// Call is the context of one method invocation.
type Call struct {
	Runtime *Runtime
	Class   *Class
	Method  string
	Self    Value
	Args    []Value
}

// Arg returns the i-th argument, or nil when absent.
func (c *Call) Arg(i int) Value {
	if i < len(c.Args) {
		return c.Args[i]
	}
	return Nil
}

// MethodFunc implements a host method.
type MethodFunc func(call *Call) (Value, error)

// Middleware wraps a MethodFunc to add cross-cutting behaviour.
// The first middleware given to the runtime wraps outermost.
type Middleware func(next MethodFunc) MethodFunc

// Method is a method defined on a class.
type Method struct {
	Name string
	// Arity is the required argument count; -1 accepts any.
	Arity int
	fn    MethodFunc
}

// DefineMethod defines or replaces a method on c. The runtime's method
// middleware is applied once, at definition.
func (c *Class) DefineMethod(name string, arity int, fn MethodFunc) {
	wrapped := fn
	for i := len(c.rt.middleware) - 1; i >= 0; i-- {
		wrapped = c.rt.middleware[i](wrapped)
	}
	c.methods[name] = &Method{Name: name, Arity: arity, fn: wrapped}
}

// lookup finds name on c or its ancestors.
func (c *Class) lookup(name string) *Method {
	for k := c; k != nil; k = k.superclass {
		if m, ok := k.methods[name]; ok {
			return m
		}
	}
	return nil
}

// HasMethod reports whether instances of c respond to name.
func (c *Class) HasMethod(name string) bool { return c.lookup(name) != nil }

// RespondTo reports whether v has a method called name.
func (rt *Runtime) RespondTo(v Value, name string) bool {
	return rt.ClassOf(v).lookup(name) != nil
}

// Funcall calls method name on recv. Values allocated by the method are
// released when it returns, except the result.
func (rt *Runtime) Funcall(recv Value, name string, args ...Value) (Value, error) {
	class := rt.ClassOf(recv)
	m := class.lookup(name)
	if m == nil {
		return 0, errors.NewException(errors.ClassNoMethodError,
			"undefined method '%s' for an instance of %s", name, class.name)
	}
	return rt.invoke(m, class, recv, args)
}

func (rt *Runtime) invoke(m *Method, class *Class, recv Value, args []Value) (Value, error) {
	if m.Arity >= 0 && len(args) != m.Arity {
		return 0, arityError(len(args), m.Arity)
	}
	scope := rt.OpenScope()
	defer scope.Close()

	v, err := m.fn(&Call{Runtime: rt, Class: class, Method: m.Name, Self: recv, Args: args})
	if err != nil {
		return 0, err
	}
	return scope.Escape(v), nil
}

func arityError(given, expected int) error {
	return errors.NewException(errors.ClassArgumentError,
		"wrong number of arguments (given %d, expected %d)", given, expected)
}

// PanicRecoveryMiddleware converts a panic inside a method into a fatal
// exception returned to the caller.
func PanicRecoveryMiddleware() Middleware {
	return func(next MethodFunc) MethodFunc {
		return func(call *Call) (v Value, err error) {
			defer func() {
				if r := recover(); r != nil {
					v = 0
					err = errors.NewException(errors.ClassFatal, "panic in %s#%s: %v",
						call.Class.Name(), call.Method, r)
				}
			}()
			return next(call)
		}
	}
}

// LoggingMiddleware logs every method invocation at debug level.
func LoggingMiddleware(logger *slog.Logger) Middleware {
	return func(next MethodFunc) MethodFunc {
		return func(call *Call) (Value, error) {
			start := time.Now()
			v, err := next(call)
			attrs := []any{
				slog.String("class", call.Class.Name()),
				slog.String("method", call.Method),
				slog.Int("argc", len(call.Args)),
				slog.Duration("duration", time.Since(start)),
			}
			if err != nil {
				logger.Debug("method failed", append(attrs, slog.Any("error", err))...)
			} else {
				logger.Debug("method completed", attrs...)
			}
			return v, err
		}
	}
}

// MustFuncall is Funcall that panics on error. Use it only where the method
// is known to exist and not to fail.
func (rt *Runtime) MustFuncall(recv Value, name string, args ...Value) Value {
	v, err := rt.Funcall(recv, name, args...)
	if err != nil {
		panic(fmt.Sprintf("host: %s: %v", name, err))
	}
	return v
}
