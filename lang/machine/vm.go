// Package machine implements the stack-based bytecode interpreter: the
// value stack, call frames, open-upvalue list, globals table, and the
// dispatch loop that executes a compiled Function.
package machine

import (
	"io"
	"time"

	"github.com/mna/sharo/lang/types"
)

// DefaultFramesMax is the call-frame depth used when a VM is constructed
// with framesMax <= 0.
const DefaultFramesMax = 64

// DefaultStackMax is the value-stack size used when a VM is constructed
// with stackMax <= 0.
const DefaultStackMax = DefaultFramesMax * 256

// CallFrame is one live function invocation: the closure being run, the
// instruction pointer into its chunk, and the base stack slot its locals
// and parameters start at (slot 0 holds the callee itself, or self for a
// bound method call).
type CallFrame struct {
	closure   *types.Closure
	ip        int
	slotsBase int
}

// Importer loads and compiles the source at path into a top-level
// Function, for the IMPORT instruction. The driver supplies this, since
// the VM core has no file-system access of its own.
type Importer func(path string) (*types.Function, error)

// VM is a single-threaded bytecode interpreter. It owns the entire
// object graph reachable during execution: the value stack, the frame
// stack, the open-upvalue list, the globals table, and the heap that
// every object is allocated from.
type VM struct {
	heap    *types.Heap
	globals *types.Table

	stack     []types.Value
	stackTop  int
	frames    []CallFrame
	framesMax int
	openHead  *types.Upvalue
	startedAt time.Time

	importFn Importer
	traceOut io.Writer
	err      error
}

// Config tunes the resource limits and tracing behavior of a VM. A zero
// Config gets DefaultStackMax/DefaultFramesMax and no tracing.
type Config struct {
	StackMax  int
	FramesMax int
	Trace     io.Writer
}

// New returns a VM ready to run compiled Functions. heap must be the same
// Heap the compiler used to produce any Function this VM executes, since
// constant-pool objects and interned strings must be shared for identity
// comparisons to hold.
func New(heap *types.Heap, globals *types.Table, importFn Importer, cfg Config) *VM {
	stackMax := cfg.StackMax
	if stackMax <= 0 {
		stackMax = DefaultStackMax
	}
	framesMax := cfg.FramesMax
	if framesMax <= 0 {
		framesMax = DefaultFramesMax
	}
	return &VM{
		heap:      heap,
		globals:   globals,
		stack:     make([]types.Value, stackMax),
		frames:    make([]CallFrame, 0, framesMax),
		framesMax: framesMax,
		startedAt: time.Now(),
		importFn:  importFn,
		traceOut:  cfg.Trace,
	}
}

// Globals returns the VM's globals table, for native registration.
func (vm *VM) Globals() *types.Table { return vm.globals }

// Heap returns the VM's heap, for native functions that allocate.
func (vm *VM) Heap() *types.Heap { return vm.heap }

// StartedAt returns the instant the VM was constructed, the epoch the
// clock() native measures elapsed time against.
func (vm *VM) StartedAt() time.Time { return vm.startedAt }

func (vm *VM) resetStack() {
	vm.stackTop = 0
	vm.frames = vm.frames[:0]
	vm.openHead = nil
}

func (vm *VM) push(v types.Value) {
	vm.stack[vm.stackTop] = v
	vm.stackTop++
}

func (vm *VM) pop() types.Value {
	vm.stackTop--
	return vm.stack[vm.stackTop]
}

func (vm *VM) peek(distance int) types.Value {
	return vm.stack[vm.stackTop-1-distance]
}

func (vm *VM) frame() *CallFrame { return &vm.frames[len(vm.frames)-1] }

// Interpret runs fn to completion as the top-level script: it wraps fn in
// a closure with no upvalues, pushes it as the first call frame, and runs
// the dispatch loop until the outermost frame returns.
func (vm *VM) Interpret(fn *types.Function) error {
	vm.resetStack()
	closure := vm.heap.NewClosure(fn)
	vm.push(types.FromObj(closure))
	if !vm.call(closure, 0) {
		return vm.err
	}
	return vm.run()
}
