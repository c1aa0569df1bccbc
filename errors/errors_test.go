package errors

import (
	stdErrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversionError(t *testing.T) {
	err := &ConversionError{Actual: "Integer", Expected: "Point"}

	assert.Equal(t, "no implicit conversion of Integer into Point", err.Error())
	assert.Equal(t, ClassTypeError, ExceptionClass(err))
	assert.ErrorIs(t, err, ErrTypeConversion)
}

func TestWrongTypeError(t *testing.T) {
	err := &WrongTypeError{Actual: "Shape", Expected: "circle"}

	assert.Equal(t, "wrong argument type Shape (expected circle)", err.Error())
	assert.Equal(t, ClassTypeError, ExceptionClass(err))
	assert.ErrorIs(t, err, ErrTypeConversion)
}

func TestEncodingError(t *testing.T) {
	t.Run("label mismatch", func(t *testing.T) {
		err := &EncodingError{Encoding: "ISO-8859-1"}
		assert.Equal(t, "expected utf-8, got ISO-8859-1", err.Error())
	})

	t.Run("wrapped", func(t *testing.T) {
		cause := stdErrors.New("invalid byte sequence")
		err := &EncodingError{Encoding: "UTF-8", Err: cause}
		assert.Equal(t, "UTF-8: invalid byte sequence", err.Error())
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, ClassEncodingError, ExceptionClass(err))
	})
}

func TestException(t *testing.T) {
	err := NewException(ClassNameError, "local variable %q is not defined", "b")
	assert.Equal(t, `local variable "b" is not defined (NameError)`, err.Error())
	assert.True(t, IsClass(err, ClassNameError))
	assert.False(t, IsClass(err, ClassTypeError))
}

func TestExceptionClass_Wrapped(t *testing.T) {
	wrapped := fmt.Errorf("converting argument: %w", &ConversionError{Actual: "nil", Expected: "String"})

	assert.Equal(t, ClassTypeError, ExceptionClass(wrapped))
	assert.ErrorIs(t, wrapped, ErrTypeConversion)

	var conv *ConversionError
	require.ErrorAs(t, wrapped, &conv)
	assert.Equal(t, "nil", conv.Actual)
}

func TestExceptionClass_Unclassified(t *testing.T) {
	assert.Equal(t, ClassRuntimeError, ExceptionClass(stdErrors.New("boom")))
	assert.Equal(t, "", ExceptionClass(nil))
}
