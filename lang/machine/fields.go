package machine

import "github.com/mna/sharo/lang/types"

// bindMethod implements METHOD: pop the just-closed method Closure,
// leaving the StructDef it belongs to underneath on the stack, and attach
// the closure to the def's method table under the given name.
func (vm *VM) bindMethod() bool {
	nameConst := vm.readByte()
	name := vm.frame().closure.Function.Chunk.Constants[nameConst].AsObj().(*types.String)
	method := vm.pop().AsObj().(*types.Closure)
	def := vm.peek(0).AsObj().(*types.StructDef)
	if def.Methods == nil {
		def.Methods = types.NewTable()
	}
	def.Methods.Set(name, types.FromObj(method))
	return true
}

// getField implements GET_FIELD: a field hit pushes the stored Value; a
// miss falls through to the receiver's StructDef method table and, if
// found there, pushes a BoundMethod instead.
func (vm *VM) getField(nameConst byte) bool {
	name := vm.frame().closure.Function.Chunk.Constants[nameConst].AsObj().(*types.String)
	receiver := vm.peek(0)
	if !receiver.IsObj() {
		vm.fail("Only structs have fields.")
		return false
	}
	s, ok := receiver.AsObj().(*types.Struct)
	if !ok {
		vm.fail("Only structs have fields.")
		return false
	}
	if idx := s.Def.FieldIndex(name); idx != -1 {
		vm.pop()
		vm.push(s.Fields[idx])
		return true
	}
	if s.Def.Methods != nil {
		if m, ok := s.Def.Methods.Get(name); ok {
			vm.pop()
			bound := vm.heap.NewBoundMethod(receiver, m.AsObj().(*types.Closure))
			vm.push(types.FromObj(bound))
			return true
		}
	}
	vm.fail("Undefined property '%s'.", name.Chars)
	return false
}

// setField implements SET_FIELD: only declared fields, never methods, can
// be assigned.
func (vm *VM) setField(nameConst byte) bool {
	name := vm.frame().closure.Function.Chunk.Constants[nameConst].AsObj().(*types.String)
	value := vm.peek(0)
	receiver := vm.peek(1)
	s, ok := receiver.AsObj().(*types.Struct)
	if !receiver.IsObj() || !ok {
		vm.fail("Only structs have fields.")
		return false
	}
	idx := s.Def.FieldIndex(name)
	if idx == -1 {
		vm.fail("Undefined property '%s'.", name.Chars)
		return false
	}
	s.Fields[idx] = value
	vm.pop()
	vm.pop()
	vm.push(value)
	return true
}

// invoke fuses GET_FIELD and CALL for a method call `recv.name(args)`,
// skipping the intermediate BoundMethod allocation.
func (vm *VM) invoke(nameConst byte, argc int) bool {
	name := vm.frame().closure.Function.Chunk.Constants[nameConst].AsObj().(*types.String)
	receiver := vm.peek(argc)
	s, ok := receiver.AsObj().(*types.Struct)
	if !receiver.IsObj() || !ok {
		vm.fail("Only structs have methods.")
		return false
	}
	if idx := s.Def.FieldIndex(name); idx != -1 {
		vm.stack[vm.stackTop-argc-1] = s.Fields[idx]
		return vm.callValue(s.Fields[idx], argc)
	}
	if s.Def.Methods == nil {
		vm.fail("Undefined property '%s'.", name.Chars)
		return false
	}
	m, ok := s.Def.Methods.Get(name)
	if !ok {
		vm.fail("Undefined property '%s'.", name.Chars)
		return false
	}
	return vm.call(m.AsObj().(*types.Closure), argc)
}
