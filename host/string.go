package host

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"

	"github.com/reglet-dev/typeddata/errors"
)

// Encoding names with special handling.
const (
	EncodingUTF8   = "UTF-8"
	EncodingASCII  = "US-ASCII"
	EncodingBinary = "ASCII-8BIT"
)

var encodings = map[string]encoding.Encoding{
	"UTF-16LE":     unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM),
	"UTF-16BE":     unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM),
	"ISO-8859-1":   charmap.ISO8859_1,
	"ISO-8859-2":   charmap.ISO8859_2,
	"ISO-8859-15":  charmap.ISO8859_15,
	"Windows-1250": charmap.Windows1250,
	"Windows-1251": charmap.Windows1251,
	"Windows-1252": charmap.Windows1252,
	"KOI8-R":       charmap.KOI8R,
	"IBM437":       charmap.CodePage437,
}

var encodingAliases = map[string]string{
	"utf8":   EncodingUTF8,
	"ascii":  EncodingASCII,
	"binary": EncodingBinary,
}

// CanonicalEncoding returns the canonical name of a supported encoding.
func CanonicalEncoding(name string) (string, error) {
	switch {
	case strings.EqualFold(name, EncodingUTF8):
		return EncodingUTF8, nil
	case strings.EqualFold(name, EncodingASCII):
		return EncodingASCII, nil
	case strings.EqualFold(name, EncodingBinary):
		return EncodingBinary, nil
	}
	if canon, ok := encodingAliases[strings.ToLower(name)]; ok {
		return canon, nil
	}
	for canon := range encodings {
		if strings.EqualFold(name, canon) {
			return canon, nil
		}
	}
	if enc, err := ianaindex.IANA.Encoding(name); err == nil && enc != nil {
		if canon, err := ianaindex.IANA.Name(enc); err == nil {
			return canon, nil
		}
	}
	return "", errors.NewException(errors.ClassArgumentError, "unknown encoding name - %s", name)
}

func lookupEncoding(canon string) (encoding.Encoding, error) {
	if enc, ok := encodings[canon]; ok {
		return enc, nil
	}
	enc, err := ianaindex.IANA.Encoding(canon)
	if err != nil || enc == nil {
		return nil, &errors.EncodingError{Encoding: canon, Err: fmt.Errorf("converter not found")}
	}
	return enc, nil
}

func isASCII(b []byte) bool {
	for _, c := range b {
		if c >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

type stringData struct {
	b   []byte
	enc string
}

// NewString returns a UTF-8 host String.
func (rt *Runtime) NewString(s string) Value {
	return rt.newString(rt.builtin.string, []byte(s), EncodingUTF8)
}

// NewStringBytes returns a host String holding a copy of b tagged with enc.
func (rt *Runtime) NewStringBytes(b []byte, enc string) (Value, error) {
	canon, err := CanonicalEncoding(enc)
	if err != nil {
		return 0, err
	}
	return rt.newString(rt.builtin.string, bytes.Clone(b), canon), nil
}

func (rt *Runtime) newString(class *Class, b []byte, enc string) Value {
	return rt.newObject(class, KindString, &stringData{b: b, enc: enc}, uintptr(cap(b)))
}

func (rt *Runtime) stringData(v Value) (*stringData, error) {
	o := rt.object(v)
	if o == nil || o.kind != KindString {
		return nil, &errors.ConversionError{Actual: rt.Classname(v), Expected: "String"}
	}
	return o.payload.(*stringData), nil
}

// IsString reports whether v is a String.
func (rt *Runtime) IsString(v Value) bool {
	return rt.KindOf(v) == KindString
}

// StringBytes returns the bytes of a String. The slice is borrowed and is
// only valid until the string is next modified.
func (rt *Runtime) StringBytes(v Value) ([]byte, error) {
	s, err := rt.stringData(v)
	if err != nil {
		return nil, err
	}
	return s.b, nil
}

// StringEncoding returns the encoding name of a String.
func (rt *Runtime) StringEncoding(v Value) (string, error) {
	s, err := rt.stringData(v)
	if err != nil {
		return "", err
	}
	return s.enc, nil
}

// StringCat appends b to a String.
func (rt *Runtime) StringCat(v Value, b []byte) error {
	s, err := rt.stringData(v)
	if err != nil {
		return err
	}
	if err := rt.checkFrozen(v); err != nil {
		return err
	}
	s.b = append(s.b, b...)
	rt.mustObject(v).size = uintptr(cap(s.b))
	return nil
}

// StringEncode returns a new String with the contents of v transcoded to enc.
func (rt *Runtime) StringEncode(v Value, enc string) (Value, error) {
	s, err := rt.stringData(v)
	if err != nil {
		return 0, err
	}
	target, err := CanonicalEncoding(enc)
	if err != nil {
		return 0, err
	}
	out, err := transcode(s.b, s.enc, target)
	if err != nil {
		return 0, err
	}
	return rt.newString(rt.builtin.string, out, target), nil
}

// transcode converts b from one encoding to another through UTF-8.
func transcode(b []byte, from, to string) ([]byte, error) {
	if from == to {
		return bytes.Clone(b), nil
	}

	var text []byte
	switch from {
	case EncodingUTF8:
		if !utf8.Valid(b) {
			return nil, &errors.EncodingError{Encoding: from, Err: fmt.Errorf("invalid byte sequence in %s", from)}
		}
		text = b
	case EncodingASCII, EncodingBinary:
		if !isASCII(b) {
			return nil, &errors.EncodingError{Encoding: from, Err: fmt.Errorf("%s from %s to %s", quoteFirstHigh(b), from, to)}
		}
		text = b
	default:
		enc, err := lookupEncoding(from)
		if err != nil {
			return nil, err
		}
		text, err = enc.NewDecoder().Bytes(b)
		if err != nil {
			return nil, &errors.EncodingError{Encoding: from, Err: err}
		}
	}

	switch to {
	case EncodingUTF8:
		return bytes.Clone(text), nil
	case EncodingASCII, EncodingBinary:
		if !isASCII(text) {
			r, _ := utf8.DecodeRune(text[firstHigh(text):])
			return nil, &errors.EncodingError{Encoding: to, Err: fmt.Errorf("U+%04X from UTF-8 to %s", r, to)}
		}
		return bytes.Clone(text), nil
	}
	enc, err := lookupEncoding(to)
	if err != nil {
		return nil, err
	}
	out, err := enc.NewEncoder().Bytes(text)
	if err != nil {
		return nil, &errors.EncodingError{Encoding: to, Err: err}
	}
	return out, nil
}

func firstHigh(b []byte) int {
	for i, c := range b {
		if c >= utf8.RuneSelf {
			return i
		}
	}
	return len(b)
}

func quoteFirstHigh(b []byte) string {
	return fmt.Sprintf(`"\x%02X"`, b[firstHigh(b)])
}

// stringEql compares contents; strings with different encodings are equal
// only when both hold ASCII text.
func (rt *Runtime) stringEql(a, b Value) bool {
	x, err := rt.stringData(a)
	if err != nil {
		return false
	}
	y, err := rt.stringData(b)
	if err != nil {
		return false
	}
	if !bytes.Equal(x.b, y.b) {
		return false
	}
	return x.enc == y.enc || isASCII(x.b)
}

func (rt *Runtime) inspectString(v Value) string {
	s, err := rt.stringData(v)
	if err != nil {
		return ""
	}
	if s.enc == EncodingUTF8 || s.enc == EncodingASCII {
		return strconv.Quote(string(s.b))
	}
	return strconv.QuoteToASCII(string(s.b))
}
