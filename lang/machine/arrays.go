package machine

import "github.com/mna/sharo/lang/types"

func (vm *VM) indexGet() bool {
	index := vm.peek(0)
	arrVal := vm.peek(1)
	arr, ok := arrVal.AsObj().(*types.Array)
	if !arrVal.IsObj() || !ok {
		vm.fail("Only arrays can be indexed.")
		return false
	}
	if !index.IsInt() {
		vm.fail("Array index must be an integer.")
		return false
	}
	i := index.AsInt()
	if i < 0 || i >= int64(len(arr.Elements)) {
		vm.fail("Array index out of bounds.")
		return false
	}
	vm.pop()
	vm.pop()
	vm.push(arr.Elements[i])
	return true
}

func (vm *VM) indexSet() bool {
	value := vm.peek(0)
	index := vm.peek(1)
	arrVal := vm.peek(2)
	arr, ok := arrVal.AsObj().(*types.Array)
	if !arrVal.IsObj() || !ok {
		vm.fail("Only arrays can be indexed.")
		return false
	}
	if !index.IsInt() {
		vm.fail("Array index must be an integer.")
		return false
	}
	i := index.AsInt()
	if i < 0 || i >= int64(len(arr.Elements)) {
		vm.fail("Array index out of bounds.")
		return false
	}
	arr.Elements[i] = value
	vm.pop()
	vm.pop()
	vm.pop()
	vm.push(value)
	return true
}
