// Package natives implements the concrete native-function library: clock,
// str, len, error and assert, plus the Register entry point host code
// calls to install them into a VM's globals table before execution.
package natives

import (
	"fmt"
	"os"
	"time"

	"github.com/mna/sharo/lang/types"
)

// Register installs every native function this package provides into
// globals, interning each name through heap so identifier lookups for
// "clock", "str", and so on resolve to the same String the compiler
// produces for a call site.
func Register(globals *types.Table, heap *types.Heap, startedAt time.Time) {
	install := func(name string, fn types.NativeFn) {
		globals.Set(heap.Intern(name), types.FromObj(heap.NewNative(name, fn)))
	}

	install("clock", clockNative(startedAt))
	install("str", strNative(heap))
	install("len", lenNative)
	install("error", errorNative)
	install("assert", assertNative)
}

// clockNative returns the native backing clock(), grounded on the
// original interpreter's clockNative: seconds elapsed since the VM
// started, rather than since the Unix epoch.
func clockNative(startedAt time.Time) types.NativeFn {
	return func(args []types.Value) (types.Value, error) {
		if len(args) != 0 {
			return types.Nil, fmt.Errorf("clock() takes no arguments")
		}
		return types.Float(time.Since(startedAt).Seconds()), nil
	}
}

func strNative(heap *types.Heap) types.NativeFn {
	return func(args []types.Value) (types.Value, error) {
		if len(args) != 1 {
			return types.Nil, fmt.Errorf("str() takes exactly 1 argument")
		}
		return types.FromObj(heap.Intern(types.Stringify(args[0]))), nil
	}
}

func lenNative(args []types.Value) (types.Value, error) {
	if len(args) != 1 {
		return types.Nil, fmt.Errorf("len() takes exactly 1 argument")
	}
	v := args[0]
	if !v.IsObj() {
		return types.Nil, fmt.Errorf("len() argument must be a string or array")
	}
	switch obj := v.AsObj().(type) {
	case *types.String:
		return types.Int(int64(len(obj.Chars))), nil
	case *types.Array:
		return types.Int(int64(len(obj.Elements))), nil
	default:
		return types.Nil, fmt.Errorf("len() argument must be a string or array")
	}
}

// errorNative prints its message to stderr and terminates the process
// with exit code 70, rather than merely returning a runtime error.
func errorNative(args []types.Value) (types.Value, error) {
	msg := "error"
	if len(args) == 1 {
		msg = types.Stringify(args[0])
	}
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(70)
	return types.Nil, nil
}

func assertNative(args []types.Value) (types.Value, error) {
	if len(args) != 2 {
		return types.Nil, fmt.Errorf("assert() takes exactly 2 arguments")
	}
	if !args[0].Truthy() {
		return errorNative(args[1:2])
	}
	return types.Nil, nil
}
