package host_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reglet-dev/typeddata/errors"
	"github.com/reglet-dev/typeddata/host"
	"github.com/reglet-dev/typeddata/hostconfig"
	"github.com/reglet-dev/typeddata/internal/testutil"
)

func newBinding(t *testing.T, rt *host.Runtime) host.Value {
	t.Helper()
	b, err := rt.NewBinding()
	require.NoError(t, err)
	return b
}

func TestBinding_EvalExpression(t *testing.T) {
	rt := testutil.Embed(t)
	b := newBinding(t, rt)

	require.NoError(t, rt.BindingLocalSet(b, "a", rt.Int(1)))
	require.NoError(t, rt.BindingLocalSet(b, "b", rt.Int(2)))

	v, err := rt.BindingEval(b, "a + b")
	require.NoError(t, err)
	assert.Equal(t, rt.Int(3), v)
}

func TestBinding_EvalAssignments(t *testing.T) {
	rt := testutil.Embed(t)
	b := newBinding(t, rt)
	require.NoError(t, rt.BindingLocalSet(b, "a", rt.Int(20)))

	v, err := rt.BindingEval(b, "c = a * 2\nd = c + 2\n")
	require.NoError(t, err)
	assert.Equal(t, rt.Int(42), v)

	c, err := rt.BindingLocalGet(b, "c")
	require.NoError(t, err)
	assert.Equal(t, rt.Int(40), c)

	names, err := rt.BindingLocals(b)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c", "d"}, names)
}

func TestBinding_EvalValues(t *testing.T) {
	rt := testutil.Embed(t)
	b := newBinding(t, rt)
	require.NoError(t, rt.BindingLocalSet(b, "name", rt.NewString("world")))

	v, err := rt.BindingEval(b, `upper("hello ${name}")`)
	require.NoError(t, err)
	assert.Equal(t, "HELLO WORLD", testutil.HostString(t, rt, v))

	v, err = rt.BindingEval(b, "7 / 2")
	require.NoError(t, err)
	r, err := rt.RationalValue(v)
	require.NoError(t, err)
	assert.Equal(t, big.NewRat(7, 2), r)

	v, err = rt.BindingEval(b, `[1, "two", true]`)
	require.NoError(t, err)
	assert.Equal(t, `[1, "two", true]`, rt.Inspect(v))

	v, err = rt.BindingEval(b, "null")
	require.NoError(t, err)
	assert.Equal(t, host.Nil, v)
}

func TestBinding_EvalErrors(t *testing.T) {
	rt := testutil.Embed(t)
	b := newBinding(t, rt)

	_, err := rt.BindingEval(b, "missing + 1")
	testutil.AssertExceptionClass(t, errors.ClassNameError, err)
	assert.Contains(t, err.Error(), "undefined local variable or method 'missing'")

	_, err = rt.BindingEval(b, "1 +")
	testutil.AssertExceptionClass(t, errors.ClassSyntaxError, err)

	_, err = rt.BindingEval(b, `1 + "x"`)
	testutil.AssertExceptionClass(t, errors.ClassArgumentError, err)

	dt := rt.MustDefineClass("Opaque", nil)
	obj, err := rt.New(dt)
	require.NoError(t, err)
	require.NoError(t, rt.BindingLocalSet(b, "opaque", obj))
	_, err = rt.BindingEval(b, "opaque")
	require.ErrorIs(t, err, errors.ErrTypeConversion)
}

func TestBinding_LocalVariables(t *testing.T) {
	rt := testutil.Embed(t)
	b := newBinding(t, rt)

	_, err := rt.BindingLocalGet(b, "x")
	testutil.AssertExceptionClass(t, errors.ClassNameError, err)
	assert.Contains(t, err.Error(), "local variable 'x' is not defined for #<Binding:")

	_, err = rt.Funcall(b, "local_variable_set", rt.Intern("x"), rt.Int(9))
	require.NoError(t, err)
	v, err := rt.Funcall(b, "local_variable_get", rt.NewString("x"))
	require.NoError(t, err)
	assert.Equal(t, rt.Int(9), v)

	defined, err := rt.Funcall(b, "local_variable_defined?", rt.Intern("x"))
	require.NoError(t, err)
	assert.Equal(t, host.True, defined)

	err = rt.BindingLocalSet(b, "Bad", host.Nil)
	testutil.AssertExceptionClass(t, errors.ClassNameError, err)

	recv, err := rt.BindingReceiver(b)
	require.NoError(t, err)
	assert.Equal(t, rt.Main(), recv)
}

func TestBinding_LocalsSurviveCollection(t *testing.T) {
	rt := testutil.Embed(t)
	b := newBinding(t, rt)

	scope := rt.OpenScope()
	require.NoError(t, rt.BindingLocalSet(b, "s", rt.NewString("kept")))
	scope.Close()

	require.NoError(t, rt.Compact())
	v, err := rt.BindingLocalGet(b, "s")
	require.NoError(t, err)
	assert.Equal(t, "kept", testutil.HostString(t, rt, v))
}

func TestBinding_UnsupportedVersion(t *testing.T) {
	rt := testutil.Embed(t, host.WithVersion(hostconfig.MustParseVersion("3.2")))

	_, err := rt.NewBinding()
	testutil.AssertExceptionClass(t, errors.ClassNotImplementedError, err)
}
