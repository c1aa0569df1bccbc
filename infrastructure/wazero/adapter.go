package wazero

import (
	"context"
	"log/slog"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/reglet-dev/typeddata/host"
)

// DefaultModuleName is the host module guests import from.
const DefaultModuleName = "typeddata_host"

// AdapterConfig holds configuration for the bridge.
type AdapterConfig struct {
	// ModuleName is the host module name (default: "typeddata_host").
	ModuleName string

	// Logger receives bridge diagnostics (default: slog.Default()).
	Logger *slog.Logger

	// CustomHandlers are exported next to the built-in functions.
	CustomHandlers []CustomHandler
}

// CustomHandler is an additional function exported by the host module.
type CustomHandler struct {
	// Name is the exported function name.
	Name string

	// Handler is the wazero GoModuleFunc implementation.
	Handler api.GoModuleFunc

	// ParamTypes are the WASM parameter types.
	ParamTypes []api.ValueType

	// ResultTypes are the WASM result types.
	ResultTypes []api.ValueType
}

// AdapterOption configures the bridge.
type AdapterOption func(*AdapterConfig)

// WithModuleName sets the host module name.
func WithModuleName(name string) AdapterOption {
	return func(c *AdapterConfig) {
		c.ModuleName = name
	}
}

// WithLogger sets the logger for bridge diagnostics.
func WithLogger(logger *slog.Logger) AdapterOption {
	return func(c *AdapterConfig) {
		c.Logger = logger
	}
}

// WithCustomHandler adds a function to the host module.
func WithCustomHandler(h CustomHandler) AdapterOption {
	return func(c *AdapterConfig) {
		c.CustomHandlers = append(c.CustomHandlers, h)
	}
}

func defaultAdapterConfig() AdapterConfig {
	return AdapterConfig{
		ModuleName: DefaultModuleName,
		Logger:     slog.Default(),
	}
}

// Bridge is an instantiated host module. It assigns DataType identifiers in
// the order guests first ask about them.
type Bridge struct {
	cfg    AdapterConfig
	module api.Module

	mu    sync.Mutex
	ids   map[*host.DataType]uint64
	types []*host.DataType
}

// RegisterWithRuntime instantiates the host module in r.
func RegisterWithRuntime(ctx context.Context, r wazero.Runtime, opts ...AdapterOption) (*Bridge, error) {
	cfg := defaultAdapterConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	b := &Bridge{cfg: cfg, ids: make(map[*host.DataType]uint64)}

	i64 := []api.ValueType{api.ValueTypeI64}
	builder := r.NewHostModuleBuilder(cfg.ModuleName)
	export := func(name string, fn api.GoModuleFunc, params []api.ValueType) {
		builder.NewFunctionBuilder().
			WithGoModuleFunction(fn, params, i64).
			WithName(name).
			Export(name)
	}
	export("memsize_of", b.memsizeOf, i64)
	export("data_type_id", b.dataTypeID, i64)
	export("object_id", b.objectID, i64)
	export("class_name", b.className, i64)
	export("gc_start", b.gcStart, nil)
	export("gc_compact", b.gcCompact, nil)

	for _, ch := range cfg.CustomHandlers {
		builder.NewFunctionBuilder().
			WithGoModuleFunction(ch.Handler, ch.ParamTypes, ch.ResultTypes).
			Export(ch.Name)
	}

	mod, err := builder.Instantiate(ctx)
	if err != nil {
		return nil, err
	}
	b.module = mod
	return b, nil
}

// Module returns the instantiated host module.
func (b *Bridge) Module() api.Module { return b.module }

// DataTypeID returns the identifier assigned to dt, or 0 when guests never
// saw it.
func (b *Bridge) DataTypeID(dt *host.DataType) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ids[dt]
}

// DataType returns the DataType with the given identifier.
func (b *Bridge) DataType(id uint64) (*host.DataType, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if id == 0 || id > uint64(len(b.types)) {
		return nil, false
	}
	return b.types[id-1], true
}

func (b *Bridge) idOf(dt *host.DataType) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if id, ok := b.ids[dt]; ok {
		return id
	}
	b.types = append(b.types, dt)
	id := uint64(len(b.types))
	b.ids[dt] = id
	return id
}

func (b *Bridge) memsizeOf(_ context.Context, _ api.Module, stack []uint64) {
	stack[0] = uint64(host.Current().ObjectSize(host.Value(stack[0])))
}

func (b *Bridge) dataTypeID(_ context.Context, _ api.Module, stack []uint64) {
	dt := host.Current().TypedDataType(host.Value(stack[0]))
	if dt == nil {
		stack[0] = 0
		return
	}
	stack[0] = b.idOf(dt)
}

func (b *Bridge) objectID(_ context.Context, _ api.Module, stack []uint64) {
	rt := host.Current()
	v := host.Value(stack[0])
	if !rt.IsLive(v) {
		stack[0] = 0
		return
	}
	stack[0] = rt.ObjectID(v)
}

// className answers 0 for values that have no class.
func (b *Bridge) className(ctx context.Context, mod api.Module, stack []uint64) {
	rt := host.Current()
	v := host.Value(stack[0])
	if k := rt.KindOf(v); k == host.KindNone || k == host.KindUndef {
		b.cfg.Logger.DebugContext(ctx, "wazero: class_name of invalid value", "value", stack[0])
		stack[0] = 0
		return
	}
	stack[0] = b.writeResponse(ctx, mod, []byte(rt.Classname(v)))
}

func (b *Bridge) gcStart(ctx context.Context, _ api.Module, stack []uint64) {
	rt := host.Current()
	rt.GC()
	freed := rt.GCStats().LastFreed
	b.cfg.Logger.DebugContext(ctx, "wazero: guest requested collection", "freed", freed)
	stack[0] = uint64(freed) //nolint:gosec // G115: freed count is non-negative
}

func (b *Bridge) gcCompact(ctx context.Context, _ api.Module, stack []uint64) {
	rt := host.Current()
	if err := rt.Compact(); err != nil {
		b.cfg.Logger.WarnContext(ctx, "wazero: guest requested compaction", "error", err)
		stack[0] = api.EncodeI64(-1)
		return
	}
	stack[0] = uint64(rt.GCStats().LastMoved) //nolint:gosec // G115: moved count is non-negative
}

// writeResponse allocates memory in the guest and writes data to it.
// Returns packed ptr+len or 0 on failure.
func (b *Bridge) writeResponse(ctx context.Context, mod api.Module, data []byte) uint64 {
	allocateFn := mod.ExportedFunction("allocate")
	if allocateFn == nil {
		b.cfg.Logger.ErrorContext(ctx, "wazero: guest module missing 'allocate' export")
		return 0
	}

	results, err := allocateFn.Call(ctx, uint64(len(data)))
	if err != nil {
		b.cfg.Logger.ErrorContext(ctx, "wazero: failed to call guest allocate", "error", err)
		return 0
	}
	ptr := uint32(results[0]) //nolint:gosec // G115: WASM32 pointers are always 32-bit

	mem := mod.Memory()
	if mem == nil || !mem.Write(ptr, data) {
		b.cfg.Logger.ErrorContext(ctx, "wazero: failed to write response to guest memory")
		return 0
	}
	return packPtrLen(ptr, uint32(len(data))) //nolint:gosec // G115: class names are short
}

// packPtrLen packs a pointer and length into a single i64.
// Upper 32 bits: pointer, lower 32 bits: length.
func packPtrLen(ptr, length uint32) uint64 {
	return (uint64(ptr) << 32) | uint64(length)
}

// unpackPtrLen unpacks a pointer and length from a packed i64.
func unpackPtrLen(packed uint64) (ptr, length uint32) {
	ptr = uint32(packed >> 32)           //nolint:gosec // G115: Packed format stores 32-bit values
	length = uint32(packed & 0xFFFFFFFF) //nolint:gosec // G115: Packed format stores 32-bit values
	return ptr, length
}
