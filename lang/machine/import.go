package machine

import "github.com/mna/sharo/lang/types"

// importModule implements IMPORT: it compiles (via the driver-supplied
// Importer) and immediately runs the module at the constant-pool path,
// sharing this VM's globals table. There is no module cache — importing
// the same path twice compiles and executes it twice.
func (vm *VM) importModule(pathConst byte) bool {
	path := vm.frame().closure.Function.Chunk.Constants[pathConst].AsObj().(*types.String)
	if vm.importFn == nil {
		vm.fail("Cannot import '%s': no importer configured.", path.Chars)
		return false
	}
	fn, err := vm.importFn(path.Chars)
	if err != nil {
		vm.fail("Cannot import '%s': %s", path.Chars, err.Error())
		return false
	}

	floor := len(vm.frames)
	closure := vm.heap.NewClosure(fn)
	vm.push(types.FromObj(closure))
	if !vm.call(closure, 0) {
		return false
	}
	if err := vm.runUntil(floor); err != nil {
		return false
	}
	// IMPORT is a full statement: discard the module's top-level result so
	// the stack is exactly as it was before the import ran.
	vm.pop()
	return true
}
