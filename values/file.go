package values

import (
	"os"

	"github.com/reglet-dev/typeddata/errors"
	"github.com/reglet-dev/typeddata/host"
)

// File is a host File.
type File struct {
	v host.Value
}

// OpenFile opens path as a host File.
func OpenFile(path string, flag int, perm os.FileMode) (File, error) {
	v, err := host.Current().OpenFile(path, flag, perm)
	if err != nil {
		return File{}, err
	}
	return File{v: v}, nil
}

// FileFromValue returns v as a File when it is one.
func FileFromValue(v host.Value) (File, bool) {
	if !host.Current().IsFile(v) {
		return File{}, false
	}
	return File{v: v}, true
}

// TryConvertFile returns v as a File.
func TryConvertFile(v host.Value) (File, error) {
	if f, ok := FileFromValue(v); ok {
		return f, nil
	}
	return File{}, &errors.ConversionError{Actual: host.Current().Classname(v), Expected: "File"}
}

// Value returns the host value.
func (f File) Value() host.Value { return f.v }

// Path returns the path the file was opened with.
func (f File) Path() string {
	p, err := host.Current().FilePath(f.v)
	if err != nil {
		host.Bug("%v", err)
	}
	return p
}

// Read reads the rest of the file.
func (f File) Read() ([]byte, error) {
	return host.Current().FileRead(f.v)
}

// Write writes p to the file.
func (f File) Write(p []byte) (int, error) {
	return host.Current().FileWrite(f.v, p)
}

// Close closes the file.
func (f File) Close() error {
	return host.Current().FileClose(f.v)
}
