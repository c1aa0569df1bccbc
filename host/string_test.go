package host_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reglet-dev/typeddata/errors"
	"github.com/reglet-dev/typeddata/host"
	"github.com/reglet-dev/typeddata/internal/testutil"
)

func TestString_Transcode(t *testing.T) {
	rt := testutil.Embed(t)

	latin1, err := rt.NewStringBytes([]byte("caf\xe9"), "iso-8859-1")
	require.NoError(t, err)
	enc, err := rt.StringEncoding(latin1)
	require.NoError(t, err)
	assert.Equal(t, "ISO-8859-1", enc)

	utf8, err := rt.StringEncode(latin1, host.EncodingUTF8)
	require.NoError(t, err)
	assert.Equal(t, "café", testutil.HostString(t, rt, utf8))

	back, err := rt.StringEncode(utf8, "Windows-1252")
	require.NoError(t, err)
	b, err := rt.StringBytes(back)
	require.NoError(t, err)
	assert.Equal(t, []byte("caf\xe9"), b)

	utf16, err := rt.StringEncode(utf8, "UTF-16LE")
	require.NoError(t, err)
	b, err = rt.StringBytes(utf16)
	require.NoError(t, err)
	assert.Equal(t, []byte{'c', 0, 'a', 0, 'f', 0, 0xe9, 0}, b)
}

func TestString_TranscodeErrors(t *testing.T) {
	rt := testutil.Embed(t)

	binary, err := rt.NewStringBytes([]byte{0xff, 'a'}, "binary")
	require.NoError(t, err)
	_, err = rt.StringEncode(binary, host.EncodingUTF8)
	testutil.AssertExceptionClass(t, errors.ClassEncodingError, err)
	assert.Contains(t, err.Error(), `"\xFF" from ASCII-8BIT to UTF-8`)

	invalid, err := rt.NewStringBytes([]byte{0xc3, 0x28}, host.EncodingUTF8)
	require.NoError(t, err)
	_, err = rt.StringEncode(invalid, "ISO-8859-1")
	testutil.AssertExceptionClass(t, errors.ClassEncodingError, err)

	_, err = rt.StringEncode(rt.NewString("snowman ☃"), host.EncodingASCII)
	testutil.AssertExceptionClass(t, errors.ClassEncodingError, err)
	assert.Contains(t, err.Error(), "U+2603")

	_, err = rt.NewStringBytes(nil, "no-such-encoding")
	testutil.AssertExceptionClass(t, errors.ClassArgumentError, err)
}

func TestString_ASCIIBinaryPassesThrough(t *testing.T) {
	rt := testutil.Embed(t)

	binary, err := rt.NewStringBytes([]byte("plain"), host.EncodingBinary)
	require.NoError(t, err)
	utf8, err := rt.StringEncode(binary, host.EncodingUTF8)
	require.NoError(t, err)
	assert.Equal(t, "plain", testutil.HostString(t, rt, utf8))
}

func TestString_Methods(t *testing.T) {
	rt := testutil.Embed(t)
	a := rt.NewString("hello")
	b := rt.NewString("hello")

	eq, err := rt.Funcall(a, "eql?", b)
	require.NoError(t, err)
	assert.Equal(t, host.True, eq)

	ha, err := rt.KeyHash(a)
	require.NoError(t, err)
	hb, err := rt.KeyHash(b)
	require.NoError(t, err)
	assert.Equal(t, ha, hb)

	assert.Equal(t, `"hello"`, rt.Inspect(a))
	assert.Equal(t, "hello", rt.ToS(a))

	_, err = rt.Funcall(a, "<<", rt.NewString(", world"))
	require.NoError(t, err)
	assert.Equal(t, "hello, world", testutil.HostString(t, rt, a))

	size, err := rt.Funcall(a, "bytesize")
	require.NoError(t, err)
	n, err := rt.ToInt64(size)
	require.NoError(t, err)
	assert.Equal(t, int64(12), n)
}

func TestString_FrozenAppend(t *testing.T) {
	rt := testutil.Embed(t)
	s := rt.Freeze(rt.NewString("frozen"))

	err := rt.StringCat(s, []byte("!"))
	testutil.AssertExceptionClass(t, errors.ClassFrozenError, err)
	assert.Contains(t, err.Error(), "can't modify frozen String")
}

func TestString_WrongKind(t *testing.T) {
	rt := testutil.Embed(t)
	_, err := rt.StringBytes(rt.Int(3))
	require.ErrorIs(t, err, errors.ErrTypeConversion)
	assert.Equal(t, "no implicit conversion of Integer into String", err.Error())
}
