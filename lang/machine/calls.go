package machine

import "github.com/mna/sharo/lang/types"

// call pushes a new frame for closure, with argc arguments already sitting
// on the stack above the callee itself (slot 0 of the new frame). It
// reports false, leaving the reason in vm.err, on arity mismatch or frame
// overflow.
func (vm *VM) call(closure *types.Closure, argc int) bool {
	if argc != closure.Function.Arity {
		vm.fail("Expected %d arguments but got %d.", closure.Function.Arity, argc)
		return false
	}
	if len(vm.frames) == vm.framesMax {
		vm.fail("Stack overflow.")
		return false
	}
	vm.frames = append(vm.frames, CallFrame{
		closure:   closure,
		slotsBase: vm.stackTop - argc - 1,
	})
	return true
}

// callValue dispatches a CALL instruction's callee by its runtime tag:
// a Closure is invoked directly, a Native runs synchronously and leaves its
// result on the stack, a StructDef acts as a constructor (no user
// initializer: all fields start nil), and a BoundMethod supplies its own
// receiver in slot 0 before calling through to its Closure.
func (vm *VM) callValue(callee types.Value, argc int) bool {
	if !callee.IsObj() {
		vm.fail("Can only call functions, structs and methods.")
		return false
	}
	switch obj := callee.AsObj().(type) {
	case *types.Closure:
		return vm.call(obj, argc)
	case *types.Native:
		args := make([]types.Value, argc)
		copy(args, vm.stack[vm.stackTop-argc:vm.stackTop])
		result, err := obj.Fn(args)
		if err != nil {
			vm.fail("%s", err.Error())
			return false
		}
		vm.stackTop -= argc + 1
		vm.push(result)
		return true
	case *types.StructDef:
		if argc != 0 {
			vm.fail("Expected 0 arguments but got %d.", argc)
			return false
		}
		inst := vm.heap.NewStruct(obj)
		vm.stackTop -= argc + 1
		vm.push(types.FromObj(inst))
		return true
	case *types.BoundMethod:
		vm.stack[vm.stackTop-argc-1] = obj.Receiver
		return vm.call(obj.Method, argc)
	default:
		vm.fail("Can only call functions, structs and methods.")
		return false
	}
}
