package machine

import "github.com/mna/sharo/lang/types"

func (vm *VM) equal() bool {
	b := vm.pop()
	a := vm.pop()
	eq := types.Equal(a, b)
	vm.push(types.Bool(eq))
	return true
}

func (vm *VM) notEqual() bool {
	b := vm.pop()
	a := vm.pop()
	vm.push(types.Bool(!types.Equal(a, b)))
	return true
}

func (vm *VM) compare(op func(a, b float64) bool) bool {
	b := vm.peek(0)
	a := vm.peek(1)
	if !a.IsNumber() || !b.IsNumber() {
		vm.fail("Operands must be numbers.")
		return false
	}
	vm.pop()
	vm.pop()
	vm.push(types.Bool(op(a.AsNumber(), b.AsNumber())))
	return true
}

// add implements the ADD opcode's three-way dispatch: string
// concatenation (with the optional one-string/one-other stringify rule),
// integer addition, and mixed-numeric promotion to float.
func (vm *VM) add() bool {
	b := vm.peek(0)
	a := vm.peek(1)

	aStr, aIsStr := asString(a)
	bStr, bIsStr := asString(b)
	switch {
	case aIsStr && bIsStr:
		vm.pop()
		vm.pop()
		vm.push(types.FromObj(vm.heap.Intern(aStr + bStr)))
		return true
	case aIsStr && !b.IsObj():
		vm.pop()
		vm.pop()
		vm.push(types.FromObj(vm.heap.Intern(aStr + types.Stringify(b))))
		return true
	case bIsStr && !a.IsObj():
		vm.pop()
		vm.pop()
		vm.push(types.FromObj(vm.heap.Intern(types.Stringify(a) + bStr)))
		return true
	}

	if !a.IsNumber() || !b.IsNumber() {
		vm.fail("Operands must be numbers or strings.")
		return false
	}
	vm.pop()
	vm.pop()
	if a.IsInt() && b.IsInt() {
		vm.push(types.Int(addNum(a.AsInt(), b.AsInt())))
	} else {
		vm.push(types.Float(addNum(a.AsNumber(), b.AsNumber())))
	}
	return true
}

func asString(v types.Value) (string, bool) {
	if !v.IsObj() {
		return "", false
	}
	s, ok := v.AsObj().(*types.String)
	if !ok {
		return "", false
	}
	return s.Chars, true
}

func (vm *VM) numericBinary(intOp func(a, b int64) int64, floatOp func(a, b float64) float64) bool {
	b := vm.peek(0)
	a := vm.peek(1)
	if !a.IsNumber() || !b.IsNumber() {
		vm.fail("Operands must be numbers.")
		return false
	}
	vm.pop()
	vm.pop()
	if a.IsInt() && b.IsInt() {
		vm.push(types.Int(intOp(a.AsInt(), b.AsInt())))
	} else {
		vm.push(types.Float(floatOp(a.AsNumber(), b.AsNumber())))
	}
	return true
}

func (vm *VM) subtract() bool {
	return vm.numericBinary(subNum[int64], subNum[float64])
}

func (vm *VM) multiply() bool {
	return vm.numericBinary(mulNum[int64], mulNum[float64])
}

func (vm *VM) divide() bool {
	b := vm.peek(0)
	a := vm.peek(1)
	if !a.IsNumber() || !b.IsNumber() {
		vm.fail("Operands must be numbers.")
		return false
	}
	if a.IsInt() && b.IsInt() {
		if b.AsInt() == 0 {
			vm.fail("Division by zero.")
			return false
		}
		vm.pop()
		vm.pop()
		vm.push(types.Int(a.AsInt() / b.AsInt()))
		return true
	}
	vm.pop()
	vm.pop()
	vm.push(types.Float(a.AsNumber() / b.AsNumber()))
	return true
}

func (vm *VM) modulo() bool {
	b := vm.peek(0)
	a := vm.peek(1)
	if !a.IsInt() || !b.IsInt() {
		vm.fail("Operands must be integers.")
		return false
	}
	if b.AsInt() == 0 {
		vm.fail("Division by zero.")
		return false
	}
	vm.pop()
	vm.pop()
	vm.push(types.Int(a.AsInt() % b.AsInt()))
	return true
}

func (vm *VM) negate() bool {
	v := vm.peek(0)
	if !v.IsNumber() {
		vm.fail("Operand must be a number.")
		return false
	}
	vm.pop()
	if v.IsInt() {
		vm.push(types.Int(negNum(v.AsInt())))
	} else {
		vm.push(types.Float(negNum(v.AsFloat())))
	}
	return true
}

func (vm *VM) not() {
	vm.push(types.Bool(!vm.pop().Truthy()))
}

func (vm *VM) intToFloat() bool {
	v := vm.peek(0)
	if !v.IsInt() {
		vm.fail("Operand must be an integer.")
		return false
	}
	vm.pop()
	vm.push(types.Float(float64(v.AsInt())))
	return true
}

func (vm *VM) floatToInt() bool {
	v := vm.peek(0)
	if !v.IsFloat() {
		vm.fail("Operand must be a float.")
		return false
	}
	vm.pop()
	vm.push(types.Int(int64(v.AsFloat())))
	return true
}
