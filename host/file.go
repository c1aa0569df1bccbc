package host

import (
	"io"
	"os"

	"github.com/reglet-dev/typeddata/errors"
)

type fileData struct {
	f      *os.File
	path   string
	closed bool
}

// OpenFile opens path and returns a File.
func (rt *Runtime) OpenFile(path string, flag int, perm os.FileMode) (Value, error) {
	f, err := os.OpenFile(path, flag, perm)
	if err != nil {
		return 0, errors.NewException(errors.ClassIOError, "%v", err)
	}
	return rt.NewFile(f), nil
}

// NewFile wraps an open file. The runtime closes it when the File is
// collected.
func (rt *Runtime) NewFile(f *os.File) Value {
	return rt.newObject(rt.builtin.file, KindFile, &fileData{f: f, path: f.Name()}, 64)
}

func (rt *Runtime) fileData(v Value) (*fileData, error) {
	o := rt.object(v)
	if o == nil || o.kind != KindFile {
		return nil, &errors.ConversionError{Actual: rt.Classname(v), Expected: "File"}
	}
	return o.payload.(*fileData), nil
}

// IsFile reports whether v is a File.
func (rt *Runtime) IsFile(v Value) bool { return rt.KindOf(v) == KindFile }

// FilePath returns the path a File was opened with.
func (rt *Runtime) FilePath(v Value) (string, error) {
	d, err := rt.fileData(v)
	if err != nil {
		return "", err
	}
	return d.path, nil
}

// FileRead reads the rest of a File.
func (rt *Runtime) FileRead(v Value) ([]byte, error) {
	d, err := rt.openFileData(v)
	if err != nil {
		return nil, err
	}
	b, err := io.ReadAll(d.f)
	if err != nil {
		return nil, errors.NewException(errors.ClassIOError, "%v", err)
	}
	return b, nil
}

// FileWrite writes b to a File.
func (rt *Runtime) FileWrite(v Value, b []byte) (int, error) {
	d, err := rt.openFileData(v)
	if err != nil {
		return 0, err
	}
	n, err := d.f.Write(b)
	if err != nil {
		return n, errors.NewException(errors.ClassIOError, "%v", err)
	}
	return n, nil
}

// FileClose closes a File. Closing twice is allowed.
func (rt *Runtime) FileClose(v Value) error {
	d, err := rt.fileData(v)
	if err != nil {
		return err
	}
	return d.close()
}

// FileClosed reports whether a File is closed.
func (rt *Runtime) FileClosed(v Value) (bool, error) {
	d, err := rt.fileData(v)
	if err != nil {
		return false, err
	}
	return d.closed, nil
}

func (rt *Runtime) openFileData(v Value) (*fileData, error) {
	d, err := rt.fileData(v)
	if err != nil {
		return nil, err
	}
	if d.closed {
		return nil, errors.NewException(errors.ClassIOError, "closed stream")
	}
	return d, nil
}

func (d *fileData) close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	if err := d.f.Close(); err != nil {
		return errors.NewException(errors.ClassIOError, "%v", err)
	}
	return nil
}
