package typeddata

import (
	"runtime"
	"sync"

	"github.com/reglet-dev/typeddata/host"
	"github.com/reglet-dev/typeddata/internal/abi"
)

// DataType is the collector descriptor of one Go type. It owns its name and
// is never modified after Build.
type DataType struct {
	dt      host.DataType
	once    sync.Once
	cleanup runtime.Cleanup
}

func newDataType(hdt host.DataType) *DataType {
	d := &DataType{dt: hdt}
	d.cleanup = runtime.AddCleanup(d, releaseName, hdt.Name)
	return d
}

func releaseName(name abi.CString) { abi.Free(name) }

// Host returns the descriptor handed to the host. Its identity is the type's
// identity.
func (d *DataType) Host() *host.DataType { return &d.dt }

// Name returns the descriptor name. A closed DataType has an empty name.
func (d *DataType) Name() string { return d.dt.WrapName() }

// Flags returns the capability flags.
func (d *DataType) Flags() host.DataTypeFlags { return d.dt.Flags }

// Close releases the name. It is safe to call more than once; values of the
// type must not be wrapped afterwards.
func (d *DataType) Close() {
	d.once.Do(func() {
		d.cleanup.Stop()
		releaseName(d.dt.Name)
	})
}
