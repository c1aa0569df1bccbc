package values_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/reglet-dev/typeddata/errors"
	"github.com/reglet-dev/typeddata/host"
	"github.com/reglet-dev/typeddata/hostconfig"
	"github.com/reglet-dev/typeddata/internal/testutil"
	"github.com/reglet-dev/typeddata/values"
)

type mockEvaluator struct {
	mock.Mock
}

func (m *mockEvaluator) Eval(rt *host.Runtime, b host.Value, src string) (host.Value, error) {
	args := m.Called(rt, b, src)
	return args.Get(0).(host.Value), args.Error(1)
}

func TestBinding_LocalVariables(t *testing.T) {
	rt := testutil.Embed(t)

	b, err := values.NewBinding()
	require.NoError(t, err)

	_, err = b.LocalVariableGet("x")
	testutil.AssertExceptionClass(t, errors.ClassNameError, err)

	require.NoError(t, b.LocalVariableSet("x", rt.Int(1)))
	require.NoError(t, b.LocalVariableSet("y", rt.Int(2)))
	v, err := b.LocalVariableGet("x")
	require.NoError(t, err)
	assert.Equal(t, rt.Int(1), v)
	assert.Equal(t, []string{"x", "y"}, b.LocalVariables())

	v, err = b.Eval("x + y")
	require.NoError(t, err)
	assert.Equal(t, rt.Int(3), v)

	same, err := values.TryConvertBinding(b.Value())
	require.NoError(t, err)
	assert.Equal(t, b, same)
	_, err = values.TryConvertBinding(host.Nil)
	assert.EqualError(t, err, "no implicit conversion of NilClass into Binding")
}

func TestEval(t *testing.T) {
	rt := testutil.Embed(t)

	v, err := values.Eval(`"${greeting}, ${name}"`, map[string]host.Value{
		"greeting": rt.NewString("hello"),
		"name":     rt.NewString("world"),
	})
	require.NoError(t, err)
	assert.Equal(t, "hello, world", testutil.HostString(t, rt, v))

	v, err = values.Eval("max(a, b) * 2", map[string]host.Value{"a": rt.Int(3), "b": rt.Int(5)})
	require.NoError(t, err)
	assert.Equal(t, rt.Int(10), v)
}

func TestEval_UsesConfiguredEvaluator(t *testing.T) {
	eval := new(mockEvaluator)
	rt := testutil.Embed(t, host.WithEvaluator(eval))

	eval.On("Eval", rt, mock.Anything, "x.succ").
		Run(func(args mock.Arguments) {
			x, err := rt.BindingLocalGet(args.Get(1).(host.Value), "x")
			require.NoError(t, err)
			assert.Equal(t, rt.Int(41), x)
		}).
		Return(rt.Int(42), nil).
		Once()

	v, err := values.Eval("x.succ", map[string]host.Value{"x": rt.Int(41)})
	require.NoError(t, err)
	assert.Equal(t, rt.Int(42), v)
	eval.AssertExpectations(t)
}

func TestEval_EvaluatorError(t *testing.T) {
	eval := new(mockEvaluator)
	testutil.Embed(t, host.WithEvaluator(eval))

	failure := errors.NewException(errors.ClassSyntaxError, "unexpected end of input")
	eval.On("Eval", mock.Anything, mock.Anything, "(").Return(host.Nil, failure)

	_, err := values.Eval("(", nil)
	assert.ErrorIs(t, err, failure)
	eval.AssertExpectations(t)
}

func TestNewBinding_UnsupportedVersion(t *testing.T) {
	testutil.Embed(t, host.WithVersion(hostconfig.MustParseVersion("3.2")))

	_, err := values.NewBinding()
	testutil.AssertExceptionClass(t, errors.ClassNotImplementedError, err)
	_, err = values.Eval("1", nil)
	testutil.AssertExceptionClass(t, errors.ClassNotImplementedError, err)
}
