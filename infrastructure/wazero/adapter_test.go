package wazero

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/reglet-dev/typeddata/host"
	"github.com/reglet-dev/typeddata/hostconfig"
	"github.com/reglet-dev/typeddata/internal/abi"
	"github.com/reglet-dev/typeddata/internal/testutil"
)

// guestImport is a host function the test guest imports. Functions take
// one i64 argument when unary is set and always return one i64.
type guestImport struct {
	name  string
	unary bool
}

// guestWasm encodes a module that imports fns from module, and exports
// memory, allocate (always 1024) and call_<name> for each import, which
// forwards its arguments to the import.
func guestWasm(module string, fns ...guestImport) []byte {
	const (
		typeUnary = 0 // (i64) -> i64
		typeAlloc = 1 // (i32) -> i32
		typeNone  = 2 // () -> i64
	)
	typeOf := func(f guestImport) byte {
		if f.unary {
			return typeUnary
		}
		return typeNone
	}
	uleb := func(n int) []byte {
		var out []byte
		for {
			b := byte(n & 0x7f)
			n >>= 7
			if n == 0 {
				return append(out, b)
			}
			out = append(out, b|0x80)
		}
	}
	name := func(s string) []byte { return append(uleb(len(s)), s...) }
	vec := func(items ...[]byte) []byte {
		out := uleb(len(items))
		for _, it := range items {
			out = append(out, it...)
		}
		return out
	}
	section := func(id byte, body []byte) []byte {
		return append(append([]byte{id}, uleb(len(body))...), body...)
	}

	var imports, funcs, exports, codes [][]byte
	for _, f := range fns {
		imports = append(imports, append(append(name(module), name(f.name)...), 0x00, typeOf(f)))
	}
	n := len(fns)

	funcs = append(funcs, []byte{typeAlloc})
	codes = append(codes, []byte{0x05, 0x00, 0x41, 0x80, 0x08, 0x0b})
	exports = append(exports,
		append(name("memory"), 0x02, 0x00),
		append(name("allocate"), append([]byte{0x00}, uleb(n)...)...))

	for i, f := range fns {
		funcs = append(funcs, []byte{typeOf(f)})
		body := []byte{0x00}
		if f.unary {
			body = append(body, 0x20, 0x00)
		}
		body = append(append(append(body, 0x10), uleb(i)...), 0x0b)
		codes = append(codes, append(uleb(len(body)), body...))
		exports = append(exports, append(name("call_"+f.name), append([]byte{0x00}, uleb(n+1+i)...)...))
	}

	out := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}
	out = append(out, section(1, vec(
		[]byte{0x60, 0x01, 0x7e, 0x01, 0x7e},
		[]byte{0x60, 0x01, 0x7f, 0x01, 0x7f},
		[]byte{0x60, 0x00, 0x01, 0x7e},
	))...)
	out = append(out, section(2, vec(imports...))...)
	out = append(out, section(3, vec(funcs...))...)
	out = append(out, section(5, vec([]byte{0x00, 0x01}))...)
	out = append(out, section(7, vec(exports...))...)
	out = append(out, section(10, vec(codes...))...)
	return out
}

var bridgeImports = []guestImport{
	{"memsize_of", true},
	{"data_type_id", true},
	{"object_id", true},
	{"class_name", true},
	{"gc_start", false},
	{"gc_compact", false},
}

func newRuntime(t *testing.T) (context.Context, wazero.Runtime) {
	t.Helper()
	ctx := context.Background()
	r := wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfigInterpreter())
	t.Cleanup(func() { _ = r.Close(ctx) })
	return ctx, r
}

// newGuest registers the bridge and instantiates a guest importing every
// bridge function.
func newGuest(t *testing.T, opts ...AdapterOption) (context.Context, *Bridge, api.Module) {
	t.Helper()
	ctx, r := newRuntime(t)
	bridge, err := RegisterWithRuntime(ctx, r, opts...)
	require.NoError(t, err)
	guest, err := r.Instantiate(ctx, guestWasm(DefaultModuleName, bridgeImports...))
	require.NoError(t, err)
	return ctx, bridge, guest
}

func call(t *testing.T, ctx context.Context, mod api.Module, name string, params ...uint64) uint64 {
	t.Helper()
	fn := mod.ExportedFunction(name)
	require.NotNil(t, fn, "export %s", name)
	results, err := fn.Call(ctx, params...)
	require.NoError(t, err)
	require.Len(t, results, 1)
	return results[0]
}

type payload struct{ a, b uint64 }

func wrapPayload(t *testing.T, rt *host.Runtime) (host.Value, *host.DataType) {
	t.Helper()
	name := abi.MustAlloc("payload")
	t.Cleanup(func() { abi.Free(name) })
	dt := &host.DataType{
		Name:          name,
		Free:          func(unsafe.Pointer) {},
		EstimatedSize: unsafe.Sizeof(payload{}),
	}
	class := rt.MustDefineClass("Payload", nil)
	return rt.TypedDataWrap(class, unsafe.Pointer(&payload{}), dt), dt
}

func TestDefaultAdapterConfig(t *testing.T) {
	cfg := defaultAdapterConfig()
	assert.Equal(t, DefaultModuleName, cfg.ModuleName)
	assert.NotNil(t, cfg.Logger)

	WithModuleName("custom_module")(&cfg)
	WithCustomHandler(CustomHandler{Name: "extra"})(&cfg)
	assert.Equal(t, "custom_module", cfg.ModuleName)
	require.Len(t, cfg.CustomHandlers, 1)
	assert.Equal(t, "extra", cfg.CustomHandlers[0].Name)
}

func TestPackUnpackPtrLen(t *testing.T) {
	tests := []struct {
		ptr    uint32
		length uint32
	}{
		{0, 0},
		{1, 1},
		{0xFFFFFFFF, 0xFFFFFFFF},
		{0x12345678, 0x9ABCDEF0},
		{100, 50},
	}

	for _, tt := range tests {
		gotPtr, gotLen := unpackPtrLen(packPtrLen(tt.ptr, tt.length))
		assert.Equal(t, tt.ptr, gotPtr)
		assert.Equal(t, tt.length, gotLen)
	}
}

func TestBridge_ValueQueries(t *testing.T) {
	rt := testutil.Embed(t)
	ctx, bridge, guest := newGuest(t)

	v, dt := wrapPayload(t, rt)
	s := rt.NewString("not typed")

	assert.Equal(t, uint64(unsafe.Sizeof(payload{})), call(t, ctx, guest, "call_memsize_of", uint64(v)))

	id := call(t, ctx, guest, "call_data_type_id", uint64(v))
	assert.Equal(t, uint64(1), id)
	assert.Equal(t, id, call(t, ctx, guest, "call_data_type_id", uint64(v)), "identifiers are stable")
	assert.Equal(t, uint64(0), call(t, ctx, guest, "call_data_type_id", uint64(s)))
	got, ok := bridge.DataType(id)
	require.True(t, ok)
	assert.Same(t, dt, got)
	assert.Equal(t, id, bridge.DataTypeID(dt))

	assert.Equal(t, rt.ObjectID(v), call(t, ctx, guest, "call_object_id", uint64(v)))
	assert.Equal(t, uint64(0), call(t, ctx, guest, "call_object_id", 0))
}

func TestBridge_Collection(t *testing.T) {
	rt := testutil.Embed(t)
	ctx, _, guest := newGuest(t)

	scope := rt.OpenScope()
	for range 8 {
		rt.NewString("garbage")
	}
	scope.Close()

	before := rt.GCStats()
	freed := call(t, ctx, guest, "call_gc_start")
	assert.GreaterOrEqual(t, freed, uint64(8))
	assert.Equal(t, before.Count+1, rt.GCStats().Count)

	moved := call(t, ctx, guest, "call_gc_compact")
	assert.GreaterOrEqual(t, int64(moved), int64(0))
	assert.Equal(t, before.CompactCount+1, rt.GCStats().CompactCount)
}

func TestBridge_CompactUnsupported(t *testing.T) {
	testutil.Embed(t, host.WithVersion(hostconfig.MustParseVersion("2.6")))
	var logs bytes.Buffer
	ctx, _, guest := newGuest(t, WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))

	assert.Equal(t, int64(-1), int64(call(t, ctx, guest, "call_gc_compact")))
	assert.Contains(t, logs.String(), "guest requested compaction")
}

func TestBridge_GuestClassName(t *testing.T) {
	rt := testutil.Embed(t)
	ctx, _, guest := newGuest(t)

	v, _ := wrapPayload(t, rt)
	ptr, length := unpackPtrLen(call(t, ctx, guest, "call_class_name", uint64(v)))
	assert.Equal(t, uint32(1024), ptr)
	name, ok := guest.Memory().Read(ptr, length)
	require.True(t, ok)
	assert.Equal(t, "Payload", string(name))

	ptr, length = unpackPtrLen(call(t, ctx, guest, "call_class_name", uint64(host.Nil)))
	name, ok = guest.Memory().Read(ptr, length)
	require.True(t, ok)
	assert.Equal(t, "NilClass", string(name))
}

func TestBridge_ClassNameOfInvalidValue(t *testing.T) {
	rt := testutil.Embed(t)
	ctx, _, guest := newGuest(t)

	scope := rt.OpenScope()
	stale := rt.NewString("gone")
	scope.Close()
	rt.GC()

	tests := []struct {
		name  string
		value host.Value
	}{
		{"zero", 0},
		{"undef", host.Undef},
		{"untagged immediate", 0x22},
		{"empty slot", 0x04},
		{"collected", stale},
	}
	for _, tt := range tests {
		assert.Equal(t, uint64(0), call(t, ctx, guest, "call_class_name", uint64(tt.value)), tt.name)
	}
	assert.True(t, rt.IsLive(host.Nil), "runtime still usable")
}

func TestBridge_CustomHandler(t *testing.T) {
	testutil.Embed(t)
	ctx, r := newRuntime(t)
	_, err := RegisterWithRuntime(ctx, r, WithCustomHandler(CustomHandler{
		Name: "answer",
		Handler: api.GoModuleFunc(func(_ context.Context, _ api.Module, stack []uint64) {
			stack[0] = 42
		}),
		ResultTypes: []api.ValueType{api.ValueTypeI64},
	}))
	require.NoError(t, err)

	guest, err := r.Instantiate(ctx, guestWasm(DefaultModuleName, guestImport{name: "answer"}))
	require.NoError(t, err)
	assert.Equal(t, uint64(42), call(t, ctx, guest, "call_answer"))
}

func TestBridge_ModuleName(t *testing.T) {
	testutil.Embed(t)
	ctx, r := newRuntime(t)
	_, err := RegisterWithRuntime(ctx, r, WithModuleName("custom_host"))
	require.NoError(t, err)

	_, err = r.Instantiate(ctx, guestWasm(DefaultModuleName, bridgeImports[0]))
	require.Error(t, err, "default name is not registered")

	guest, err := r.Instantiate(ctx, guestWasm("custom_host", bridgeImports[0]))
	require.NoError(t, err)
	assert.Equal(t, uint64(0), call(t, ctx, guest, "call_memsize_of", 0))
}
