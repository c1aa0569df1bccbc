package values

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/reglet-dev/typeddata/errors"
	"github.com/reglet-dev/typeddata/host"
)

// String is a host String.
type String struct {
	v host.Value
}

// NewString returns a UTF-8 String holding s.
func NewString(s string) String {
	return String{v: host.Current().NewString(s)}
}

// StringFromSlice returns a binary (ASCII-8BIT) String holding a copy of b.
func StringFromSlice(b []byte) String {
	v, err := host.Current().NewStringBytes(b, host.EncodingBinary)
	if err != nil {
		host.Bug("creating binary string: %v", err)
	}
	return String{v: v}
}

// StringFromValue returns v as a String when it is one.
func StringFromValue(v host.Value) (String, bool) {
	if !host.Current().IsString(v) {
		return String{}, false
	}
	return String{v: v}, true
}

// TryConvertString returns v as a String, calling to_str on values that
// define it.
func TryConvertString(v host.Value) (String, error) {
	rt := host.Current()
	if rt.IsString(v) {
		return String{v: v}, nil
	}
	if !rt.RespondTo(v, "to_str") {
		return String{}, &errors.ConversionError{Actual: rt.Classname(v), Expected: "String"}
	}
	s, err := rt.Funcall(v, "to_str")
	if err != nil {
		return String{}, err
	}
	if !rt.IsString(s) {
		return String{}, errors.NewException(errors.ClassTypeError,
			"can't convert %s to String (%s#to_str gives %s)", rt.Classname(v), rt.Classname(v), rt.Classname(s))
	}
	return String{v: s}, nil
}

// Value returns the host value.
func (s String) Value() host.Value { return s.v }

// AsSlice returns the bytes of s. The slice is borrowed: it must not be
// modified or kept past the next change to s.
func (s String) AsSlice() []byte {
	b, err := host.Current().StringBytes(s.v)
	if err != nil {
		host.Bug("%v", err)
	}
	return b
}

// Encoding returns the encoding name of s.
func (s String) Encoding() string {
	enc, err := host.Current().StringEncoding(s.v)
	if err != nil {
		host.Bug("%v", err)
	}
	return enc
}

// IsUTF8CompatibleEncoding reports whether the bytes of s can be read as
// UTF-8 without transcoding.
func (s String) IsUTF8CompatibleEncoding() bool {
	switch s.Encoding() {
	case host.EncodingUTF8, host.EncodingASCII:
		return true
	}
	return false
}

// EncodeUTF8 returns s transcoded to UTF-8.
func (s String) EncodeUTF8() (String, error) {
	v, err := host.Current().StringEncode(s.v, host.EncodingUTF8)
	if err != nil {
		return String{}, err
	}
	return String{v: v}, nil
}

// AsStr returns the contents of s, which must be valid UTF-8 in a
// UTF-8 compatible encoding.
func (s String) AsStr() (string, error) {
	if !s.IsUTF8CompatibleEncoding() {
		return "", &errors.EncodingError{Encoding: s.Encoding()}
	}
	b := s.AsSlice()
	if !utf8.Valid(b) {
		return "", &errors.EncodingError{Encoding: s.Encoding(), Err: fmt.Errorf("invalid byte sequence in %s", s.Encoding())}
	}
	return string(b), nil
}

// ToString returns the contents of s transcoded to UTF-8.
func (s String) ToString() (string, error) {
	if s.IsUTF8CompatibleEncoding() {
		return s.AsStr()
	}
	u, err := s.EncodeUTF8()
	if err != nil {
		return "", err
	}
	return u.AsStr()
}

// ToStringLossy decodes the bytes of s as UTF-8 whatever its encoding,
// replacing each invalid byte with U+FFFD.
func (s String) ToStringLossy() string {
	b := s.AsSlice()
	var sb strings.Builder
	sb.Grow(len(b))
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		sb.WriteRune(r)
		b = b[size:]
	}
	return sb.String()
}

// Write appends p to s.
func (s String) Write(p []byte) (int, error) {
	if err := host.Current().StringCat(s.v, bytes.Clone(p)); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (s String) String() string { return s.ToStringLossy() }
