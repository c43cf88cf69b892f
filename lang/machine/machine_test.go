package machine_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mna/sharo/lang/compiler"
	"github.com/mna/sharo/lang/machine"
	"github.com/mna/sharo/lang/types"
)

// run compiles and runs src against a fresh VM, returning the globals
// table so the test can inspect whatever names the program declared.
func run(t *testing.T, src string) (*types.Heap, *types.Table) {
	t.Helper()
	heap := types.NewHeap()
	globals := types.NewTable()
	fn, errs := compiler.Compile(heap, src)
	require.Empty(t, errs, "compile errors: %v", errs)

	vm := machine.New(heap, globals, nil, machine.Config{})
	err := vm.Interpret(fn)
	require.NoError(t, err)
	return heap, globals
}

func global(t *testing.T, heap *types.Heap, globals *types.Table, name string) types.Value {
	t.Helper()
	v, ok := globals.Get(heap.Intern(name))
	require.True(t, ok, "global %q not defined", name)
	return v
}

func TestArithmetic(t *testing.T) {
	heap, globals := run(t, `x := 1 + 2 * 3
y := 10 / 4
z := 10.0 / 4.0`)
	require.Equal(t, int64(7), global(t, heap, globals, "x").AsInt())
	require.Equal(t, int64(2), global(t, heap, globals, "y").AsInt())
	require.Equal(t, 2.5, global(t, heap, globals, "z").AsFloat())
}

func TestStringConcatenation(t *testing.T) {
	heap, globals := run(t, `a := "foo" + "bar"
b := "count: " + 3`)
	require.Equal(t, "foobar", global(t, heap, globals, "a").AsObj().(*types.String).Chars)
	require.Equal(t, "count: 3", global(t, heap, globals, "b").AsObj().(*types.String).Chars)
}

func TestClosuresShareUpvalueState(t *testing.T) {
	heap, globals := run(t, `counter() {
    n := 0
    inc() {
        n = n + 1
        return n
    }
    return inc
}
c := counter()
a := c()
b := c()`)
	require.Equal(t, int64(1), global(t, heap, globals, "a").AsInt())
	require.Equal(t, int64(2), global(t, heap, globals, "b").AsInt())
}

func TestStructFieldsAndMethods(t *testing.T) {
	heap, globals := run(t, `type Point {
    x: int,
    y: int
    sum() {
        return self.x + self.y
    }
}
p := Point()
p.x = 3
p.y = 4
total := p.sum()`)
	require.Equal(t, int64(7), global(t, heap, globals, "total").AsInt())
}

func TestArrayIndexing(t *testing.T) {
	heap, globals := run(t, `arr := [1, 2, 3]
arr[1] = 99
a := arr[0]
b := arr[1]`)
	require.Equal(t, int64(1), global(t, heap, globals, "a").AsInt())
	require.Equal(t, int64(99), global(t, heap, globals, "b").AsInt())
}

func TestArrayOutOfBoundsIsRuntimeError(t *testing.T) {
	heap := types.NewHeap()
	globals := types.NewTable()
	fn, errs := compiler.Compile(heap, `arr := [1]
x := arr[5]`)
	require.Empty(t, errs)

	vm := machine.New(heap, globals, nil, machine.Config{})
	err := vm.Interpret(fn)
	require.Error(t, err)
	require.Contains(t, err.Error(), "out of bounds")
}

func TestDivisionByZero(t *testing.T) {
	heap := types.NewHeap()
	globals := types.NewTable()
	fn, errs := compiler.Compile(heap, `x := 1 / 0`)
	require.Empty(t, errs)

	vm := machine.New(heap, globals, nil, machine.Config{})
	err := vm.Interpret(fn)
	require.Error(t, err)
	require.Contains(t, err.Error(), "Division by zero")
}

func TestUndefinedGlobalAssignmentFails(t *testing.T) {
	heap := types.NewHeap()
	globals := types.NewTable()
	fn, errs := compiler.Compile(heap, `x = 1`)
	require.Empty(t, errs)

	vm := machine.New(heap, globals, nil, machine.Config{})
	err := vm.Interpret(fn)
	require.Error(t, err)
	require.Contains(t, err.Error(), "Undefined variable")

	// the spurious table entry SET_GLOBAL's Set call created must have been
	// rolled back, or a later declaration of the same name would silently
	// fail to be treated as new.
	_, ok := globals.Get(heap.Intern("x"))
	require.False(t, ok)
}

func TestStackOverflow(t *testing.T) {
	heap := types.NewHeap()
	globals := types.NewTable()
	fn, errs := compiler.Compile(heap, `recur() {
    return recur() + 1
}
x := recur()`)
	require.Empty(t, errs)

	vm := machine.New(heap, globals, nil, machine.Config{FramesMax: 8})
	err := vm.Interpret(fn)
	require.Error(t, err)
	require.Contains(t, err.Error(), "Stack overflow")
}

func TestImportSharesGlobals(t *testing.T) {
	heap := types.NewHeap()
	modFn, errs := compiler.Compile(heap, `shared := 10`)
	require.Empty(t, errs)

	importer := func(path string) (*types.Function, error) {
		if path == "mod" {
			return modFn, nil
		}
		return nil, fmt.Errorf("module not found: %s", path)
	}

	globals := types.NewTable()
	vm := machine.New(heap, globals, importer, machine.Config{})
	fn, errs := compiler.Compile(heap, `import "mod"
y := shared + 1`)
	require.Empty(t, errs)

	err := vm.Interpret(fn)
	require.NoError(t, err)
	require.Equal(t, int64(10), global(t, heap, globals, "shared").AsInt())
	require.Equal(t, int64(11), global(t, heap, globals, "y").AsInt())
}

func TestImportWithoutImporterConfiguredFails(t *testing.T) {
	heap := types.NewHeap()
	globals := types.NewTable()
	fn, errs := compiler.Compile(heap, `import "mod"`)
	require.Empty(t, errs)

	vm := machine.New(heap, globals, nil, machine.Config{})
	err := vm.Interpret(fn)
	require.Error(t, err)
	require.Contains(t, err.Error(), "no importer configured")
}
