package machine

import (
	"unsafe"

	"github.com/mna/sharo/lang/types"
)

func addr(v *types.Value) uintptr { return uintptr(unsafe.Pointer(v)) }

// captureUpvalue returns the open Upvalue referencing the stack slot at
// absolute index slot, reusing an existing one if the open list already has
// it. The list is kept sorted strictly descending by the slot address it
// points at, so closeUpvalues can stop at the first entry below a boundary.
func (vm *VM) captureUpvalue(slot int) *types.Upvalue {
	target := &vm.stack[slot]
	var prev *types.Upvalue
	cur := vm.openHead
	for cur != nil && addr(cur.Location) > addr(target) {
		prev = cur
		cur = cur.NextOpen
	}
	if cur != nil && cur.Location == target {
		return cur
	}

	created := vm.heap.NewUpvalue(target)
	created.NextOpen = cur
	if prev == nil {
		vm.openHead = created
	} else {
		prev.NextOpen = created
	}
	return created
}

// closeUpvalues closes every open upvalue referencing a stack slot at or
// above lastSlot, copying its value out of the stack and detaching it from
// the open list.
func (vm *VM) closeUpvalues(lastSlot int) {
	for vm.openHead != nil && addr(vm.openHead.Location) >= addr(&vm.stack[lastSlot]) {
		uv := vm.openHead
		uv.Closed = *uv.Location
		uv.Location = &uv.Closed
		vm.openHead = uv.NextOpen
		uv.NextOpen = nil
	}
}
