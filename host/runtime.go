package host

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"sync/atomic"

	"github.com/reglet-dev/typeddata/hostconfig"
	"github.com/reglet-dev/typeddata/log"
)

// active is the runtime bound in this process, if any.
var active atomic.Pointer[Runtime]

// Runtime is an embedded host runtime.
type Runtime struct {
	cfg        hostconfig.Config
	version    hostconfig.Version
	logger     *slog.Logger
	logWriter  io.Writer
	middleware []Middleware
	evaluator  Evaluator

	tid    int
	closed bool
	// ownLogger is set when the logger was built from the config.
	ownLogger bool

	heap      heap
	nextID    uint64
	scope     *Scope
	roots     []Value
	addresses map[*Value]struct{}
	classes   map[string]*Class
	symbols   symbolTable
	gc        collector
	builtin   builtinClasses
	main      Value
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithConfig sets the runtime configuration.
func WithConfig(cfg hostconfig.Config) Option {
	return func(rt *Runtime) {
		rt.cfg = cfg
	}
}

// WithLogger sets the runtime logger. It overrides the log section of the
// configuration.
func WithLogger(logger *slog.Logger) Option {
	return func(rt *Runtime) {
		rt.logger = logger
	}
}

// WithLogWriter sets where the configured logger writes. Defaults to stderr.
func WithLogWriter(w io.Writer) Option {
	return func(rt *Runtime) {
		rt.logWriter = w
	}
}

// WithMethodMiddleware adds middleware applied to every method defined on
// the runtime, built-ins included. The first middleware wraps outermost.
func WithMethodMiddleware(mw ...Middleware) Option {
	return func(rt *Runtime) {
		rt.middleware = append(rt.middleware, mw...)
	}
}

// WithVersion overrides the emulated host API version.
func WithVersion(v hostconfig.Version) Option {
	return func(rt *Runtime) {
		rt.cfg.APIVersion = v.String()
	}
}

// WithEvaluator sets the expression evaluator behind Binding#eval.
func WithEvaluator(e Evaluator) Option {
	return func(rt *Runtime) {
		rt.evaluator = e
	}
}

// Embed creates a runtime and binds it to the calling goroutine's OS thread.
// Only one runtime may be active per process; call Cleanup to release it.
func Embed(opts ...Option) (*Runtime, error) {
	rt := &Runtime{
		cfg:       hostconfig.DefaultConfig(),
		logWriter: os.Stderr,
		addresses: make(map[*Value]struct{}),
		classes:   make(map[string]*Class),
	}
	for _, opt := range opts {
		opt(rt)
	}

	if err := rt.cfg.Validate(); err != nil {
		return nil, err
	}
	rt.version = rt.cfg.Version()
	if rt.logger == nil {
		rt.logger = log.New(rt.cfg.Log, rt.logWriter)
		rt.ownLogger = true
	}
	if rt.evaluator == nil {
		rt.evaluator = NewHCLEvaluator()
	}
	if rt.cfg.GC.HeapSlots == 0 {
		rt.cfg.GC.HeapSlots = hostconfig.DefaultHeapSlots
	}
	if rt.cfg.GC.MallocLimit == 0 {
		rt.cfg.GC.MallocLimit = hostconfig.DefaultMallocLimit
	}

	runtime.LockOSThread()
	if !active.CompareAndSwap(nil, rt) {
		runtime.UnlockOSThread()
		return nil, fmt.Errorf("host runtime already active")
	}
	rt.tid = threadID()

	rt.heap.init(rt.cfg.GC.HeapSlots)
	rt.gc.init(rt)
	rt.scope = &Scope{rt: rt}
	rt.initBuiltins()

	rt.logger.Debug("host runtime embedded",
		"version", rt.version.String(),
		"heap_slots", rt.cfg.GC.HeapSlots,
		"gc_stress", rt.cfg.GC.Stress)
	return rt, nil
}

// Current returns the runtime bound to the calling thread.
// It terminates the process when no runtime is bound or the caller is not on
// the mutator thread.
func Current() *Runtime {
	rt := active.Load()
	if rt == nil {
		Bug("no host runtime is bound")
	}
	if tid := threadID(); tid != rt.tid {
		Bug("host runtime accessed from thread %d, bound to thread %d", tid, rt.tid)
	}
	return rt
}

// Active returns the bound runtime when the caller is on its thread.
func Active() (*Runtime, bool) {
	rt := active.Load()
	if rt == nil || threadID() != rt.tid {
		return nil, false
	}
	return rt, true
}

// Cleanup frees every wrapped native value, unbinds the runtime and releases
// the OS thread. Further use of rt or its values is a bug.
func (rt *Runtime) Cleanup() {
	if rt.closed {
		return
	}
	if threadID() != rt.tid {
		Bug("host runtime cleaned up from thread %d, bound to thread %d", threadID(), rt.tid)
	}
	rt.gc.running = true
	freed := 0
	for i, o := range rt.heap.slots {
		if o == nil {
			continue
		}
		if o.kind == KindData {
			freed++
		}
		rt.finalize(o)
		rt.heap.slots[i] = nil
	}
	rt.gc.running = false
	rt.gc.flushFinalizers()
	rt.closed = true

	rt.logger.Debug("host runtime cleaned up", "freed_data", freed)
	active.CompareAndSwap(rt, nil)
	runtime.UnlockOSThread()
}

// Version returns the emulated host API version.
func (rt *Runtime) Version() hostconfig.Version { return rt.version }

// Config returns the runtime configuration.
func (rt *Runtime) Config() hostconfig.Config { return rt.cfg }

// Logger returns the runtime logger.
func (rt *Runtime) Logger() *slog.Logger { return rt.logger }

func (rt *Runtime) logsToStderr() bool {
	return rt.ownLogger && rt.logWriter == io.Writer(os.Stderr)
}

// Main returns the top-level object.
func (rt *Runtime) Main() Value { return rt.main }

// SetGCStress toggles a full collection before every allocation.
func (rt *Runtime) SetGCStress(on bool) { rt.cfg.GC.Stress = on }
