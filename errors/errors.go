// Package errors provides the recoverable error types of the host runtime and
// the typed-data layer. All error types support errors.As() and errors.Is().
//
// Recoverable errors are returned to Go callers, who decide whether to raise
// them as host exceptions. Runtime-integrity violations are never returned;
// they terminate the process (see host.Bug).
package errors

import (
	stdErrors "errors"
	"fmt"
)

// Host exception class names.
const (
	ClassStandardError       = "StandardError"
	ClassTypeError           = "TypeError"
	ClassArgumentError       = "ArgumentError"
	ClassNameError           = "NameError"
	ClassNoMethodError       = "NoMethodError"
	ClassFrozenError         = "FrozenError"
	ClassEncodingError       = "EncodingError"
	ClassNotImplementedError = "NotImplementedError"
	ClassRangeError          = "RangeError"
	ClassKeyError            = "KeyError"
	ClassIndexError          = "IndexError"
	ClassIOError             = "IOError"
	ClassZeroDivisionError   = "ZeroDivisionError"
	ClassSyntaxError         = "SyntaxError"
	ClassRuntimeError        = "RuntimeError"
	ClassFatal               = "fatal"
)

// ErrTypeConversion matches every failed conversion of a host value into a
// Go-side type, whatever stage of the check rejected it.
var ErrTypeConversion = stdErrors.New("type conversion failed")

// Classified is implemented by errors that know their host exception class.
type Classified interface {
	error
	ExceptionClass() string
}

// ExceptionClass returns the host exception class for err.
// Unclassified errors are RuntimeErrors.
func ExceptionClass(err error) string {
	if err == nil {
		return ""
	}
	var c Classified
	if stdErrors.As(err, &c) {
		return c.ExceptionClass()
	}
	return ClassRuntimeError
}

// ConversionError reports a host value whose class does not match the
// expected type.
type ConversionError struct {
	Actual   string
	Expected string
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("no implicit conversion of %s into %s", e.Actual, e.Expected)
}

// ExceptionClass implements Classified.
func (e *ConversionError) ExceptionClass() string { return ClassTypeError }

// Is makes ConversionError match ErrTypeConversion.
func (e *ConversionError) Is(target error) bool { return target == ErrTypeConversion }

// WrongTypeError reports a wrapped object of the right class whose data type
// descriptor belongs to a different Go type.
type WrongTypeError struct {
	Actual   string
	Expected string
}

func (e *WrongTypeError) Error() string {
	return fmt.Sprintf("wrong argument type %s (expected %s)", e.Actual, e.Expected)
}

// ExceptionClass implements Classified.
func (e *WrongTypeError) ExceptionClass() string { return ClassTypeError }

// Is makes WrongTypeError match ErrTypeConversion.
func (e *WrongTypeError) Is(target error) bool { return target == ErrTypeConversion }

// EncodingError reports string bytes that cannot be read as text under the
// expected encoding.
type EncodingError struct {
	Err      error
	Encoding string
}

func (e *EncodingError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("expected utf-8, got %s", e.Encoding)
	}
	if e.Encoding == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Encoding, e.Err)
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}

// ExceptionClass implements Classified.
func (e *EncodingError) ExceptionClass() string { return ClassEncodingError }

// Exception is any other host-level exception.
type Exception struct {
	Class   string
	Message string
}

// NewException creates an Exception with a formatted message.
func NewException(class, format string, args ...any) *Exception {
	return &Exception{Class: class, Message: fmt.Sprintf(format, args...)}
}

func (e *Exception) Error() string {
	return fmt.Sprintf("%s (%s)", e.Message, e.Class)
}

// ExceptionClass implements Classified.
func (e *Exception) ExceptionClass() string { return e.Class }

// IsClass reports whether err is classified as the given exception class.
func IsClass(err error, class string) bool {
	return err != nil && ExceptionClass(err) == class
}
