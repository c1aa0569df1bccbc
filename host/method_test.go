package host_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reglet-dev/typeddata/errors"
	"github.com/reglet-dev/typeddata/host"
	"github.com/reglet-dev/typeddata/internal/testutil"
)

func TestDefineClass(t *testing.T) {
	rt := testutil.Embed(t)

	point, err := rt.DefineClass("Point", nil)
	require.NoError(t, err)
	assert.Equal(t, "Point", point.Name())
	assert.Same(t, rt.ObjectClass(), point.Superclass())

	again, err := rt.DefineClass("Point", nil)
	require.NoError(t, err)
	assert.Same(t, point, again)

	_, err = rt.DefineClass("Point", rt.StringClass())
	testutil.AssertExceptionClass(t, errors.ClassTypeError, err)
	assert.Contains(t, err.Error(), "superclass mismatch for class Point")

	found, ok := rt.LookupClass("Point")
	assert.True(t, ok)
	assert.Same(t, point, found)
}

func TestClassOf(t *testing.T) {
	rt := testutil.Embed(t)

	tests := []struct {
		value host.Value
		want  string
	}{
		{value: rt.Int(1), want: "Integer"},
		{value: rt.Int(host.FixnumMax + 1), want: "Integer"},
		{value: host.Nil, want: "NilClass"},
		{value: host.True, want: "TrueClass"},
		{value: host.False, want: "FalseClass"},
		{value: rt.Intern("sym"), want: "Symbol"},
		{value: rt.NewString("s"), want: "String"},
		{value: rt.NewArray(), want: "Array"},
		{value: rt.NewHash(), want: "Hash"},
		{value: rt.ObjectClass().Value(), want: "Class"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, rt.Classname(tt.value))
	}

	assert.True(t, rt.IsKindOf(rt.Int(1), rt.ObjectClass()))
	assert.False(t, rt.IsKindOf(rt.Int(1), rt.StringClass()))
}

func TestFuncall_Errors(t *testing.T) {
	rt := testutil.Embed(t)

	_, err := rt.Funcall(rt.Int(1), "frobnicate")
	testutil.AssertExceptionClass(t, errors.ClassNoMethodError, err)
	assert.Contains(t, err.Error(), "undefined method 'frobnicate' for an instance of Integer")

	_, err = rt.Funcall(rt.NewString("s"), "eql?")
	testutil.AssertExceptionClass(t, errors.ClassArgumentError, err)
	assert.Contains(t, err.Error(), "wrong number of arguments (given 0, expected 1)")
}

func TestDefineMethod(t *testing.T) {
	rt := testutil.Embed(t)
	greeter := rt.MustDefineClass("Greeter", nil)
	greeter.DefineMethod("greet", 1, func(c *host.Call) (host.Value, error) {
		name, err := c.Runtime.StringBytes(c.Arg(0))
		if err != nil {
			return 0, err
		}
		return c.Runtime.NewString("hello " + string(name)), nil
	})

	obj, err := rt.New(greeter)
	require.NoError(t, err)
	assert.True(t, rt.RespondTo(obj, "greet"))

	out, err := rt.Funcall(obj, "greet", rt.NewString("world"))
	require.NoError(t, err)
	assert.Equal(t, "hello world", testutil.HostString(t, rt, out))

	_, err = rt.Funcall(obj, "greet", rt.Int(1))
	require.ErrorIs(t, err, errors.ErrTypeConversion)
}

func TestNew_Initialize(t *testing.T) {
	rt := testutil.Embed(t)
	counter := rt.MustDefineClass("Counter", nil)
	var got []host.Value
	counter.DefineMethod("initialize", -1, func(c *host.Call) (host.Value, error) {
		got = append(got, c.Args...)
		return host.Nil, nil
	})

	_, err := rt.Funcall(counter.Value(), "new", rt.Int(5))
	require.NoError(t, err)
	assert.Equal(t, []host.Value{rt.Int(5)}, got)
}

func TestNew_UndefinedAllocator(t *testing.T) {
	rt := testutil.Embed(t)
	handle := rt.MustDefineClass("Handle", nil)
	handle.UndefAlloc()

	_, err := rt.New(handle)
	testutil.AssertExceptionClass(t, errors.ClassTypeError, err)
	assert.Contains(t, err.Error(), "allocator undefined for Handle")
}

func TestMiddleware_Order(t *testing.T) {
	var order []string
	record := func(name string) host.Middleware {
		return func(next host.MethodFunc) host.MethodFunc {
			return func(c *host.Call) (host.Value, error) {
				order = append(order, name+":"+c.Method)
				return next(c)
			}
		}
	}
	rt := testutil.Embed(t, host.WithMethodMiddleware(record("first"), record("second")))

	probe := rt.MustDefineClass("Probe", nil)
	probe.DefineMethod("ping", 0, func(*host.Call) (host.Value, error) {
		order = append(order, "ping")
		return host.True, nil
	})
	obj, err := rt.New(probe)
	require.NoError(t, err)

	order = nil
	_, err = rt.Funcall(obj, "ping")
	require.NoError(t, err)
	assert.Equal(t, []string{"first:ping", "second:ping", "ping"}, order)
}

func TestPanicRecoveryMiddleware(t *testing.T) {
	rt := testutil.Embed(t, host.WithMethodMiddleware(host.PanicRecoveryMiddleware()))

	bomb := rt.MustDefineClass("Bomb", nil)
	bomb.DefineMethod("explode", 0, func(*host.Call) (host.Value, error) {
		panic("boom")
	})
	obj, err := rt.New(bomb)
	require.NoError(t, err)

	_, err = rt.Funcall(obj, "explode")
	testutil.AssertExceptionClass(t, errors.ClassFatal, err)
	assert.Contains(t, err.Error(), "panic in Bomb#explode: boom")
}

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	rt := testutil.Embed(t, host.WithMethodMiddleware(host.LoggingMiddleware(logger)))

	_, err := rt.Funcall(rt.NewString("x"), "bytesize")
	require.NoError(t, err)
	_, err = rt.Funcall(rt.NewHash(), "fetch", rt.Int(1))
	require.Error(t, err)

	out := buf.String()
	assert.Contains(t, out, "method completed")
	assert.Contains(t, out, "method=bytesize")
	assert.Contains(t, out, "method failed")
	assert.Contains(t, out, "class=Hash")
}
