package machine

import (
	"fmt"
	"os"

	"github.com/mna/sharo/lang/debug"
	"github.com/mna/sharo/lang/opcode"
	"github.com/mna/sharo/lang/types"
)

// Stdout is where PRINT writes. It defaults to os.Stdout; the CLI driver or
// a test may redirect it.
var Stdout = os.Stdout

func (vm *VM) readByte() byte {
	f := vm.frame()
	b := f.closure.Function.Chunk.Code[f.ip]
	f.ip++
	return b
}

func (vm *VM) readShort() int {
	f := vm.frame()
	hi := f.closure.Function.Chunk.Code[f.ip]
	lo := f.closure.Function.Chunk.Code[f.ip+1]
	f.ip += 2
	return int(hi)<<8 | int(lo)
}

func (vm *VM) readConstant() types.Value {
	f := vm.frame()
	return f.closure.Function.Chunk.Constants[vm.readByte()]
}

// run executes the dispatch loop from the outermost frame (depth 0) to
// completion.
func (vm *VM) run() error { return vm.runUntil(0) }

// runUntil runs the dispatch loop until the frame stack unwinds back down
// to floor frames, used both by run (floor 0) and by IMPORT to run a
// nested module's top-level frame to completion without disturbing any
// frame below it.
func (vm *VM) runUntil(floor int) error {
	for {
		f := vm.frame()
		if vm.traceOut != nil {
			debug.DisassembleInstruction(vm.traceOut, f.closure.Function.Chunk, f.ip)
		}
		instr := opcode.Code(vm.readByte())

		switch instr {
		case opcode.CONSTANT:
			vm.push(vm.readConstant())
		case opcode.NIL:
			vm.push(types.Nil)
		case opcode.TRUE:
			vm.push(types.True)
		case opcode.FALSE:
			vm.push(types.False)

		case opcode.POP:
			vm.pop()
		case opcode.DUP:
			vm.push(vm.peek(0))

		case opcode.GET_LOCAL:
			slot := int(vm.readByte())
			vm.push(vm.stack[f.slotsBase+slot])
		case opcode.SET_LOCAL:
			slot := int(vm.readByte())
			vm.stack[f.slotsBase+slot] = vm.peek(0)
		case opcode.GET_LOCAL_0, opcode.GET_LOCAL_1, opcode.GET_LOCAL_2, opcode.GET_LOCAL_3:
			slot := int(instr - opcode.GET_LOCAL_0)
			vm.push(vm.stack[f.slotsBase+slot])

		case opcode.GET_GLOBAL:
			name := vm.readConstant().AsObj().(*types.String)
			v, ok := vm.globals.Get(name)
			if !ok {
				vm.fail("Undefined variable '%s'.", name.Chars)
				return vm.err
			}
			vm.push(v)
		case opcode.DEFINE_GLOBAL:
			name := vm.readConstant().AsObj().(*types.String)
			vm.globals.Set(name, vm.peek(0))
			vm.pop()
		case opcode.SET_GLOBAL:
			name := vm.readConstant().AsObj().(*types.String)
			if vm.globals.Set(name, vm.peek(0)) {
				// Set reports isNew: assigning to an undefined global is an
				// error, and the spurious entry it just created must not persist.
				vm.globals.Delete(name)
				vm.fail("Undefined variable '%s'.", name.Chars)
				return vm.err
			}

		case opcode.GET_UPVALUE:
			slot := int(vm.readByte())
			vm.push(*f.closure.Upvalues[slot].Location)
		case opcode.SET_UPVALUE:
			slot := int(vm.readByte())
			*f.closure.Upvalues[slot].Location = vm.peek(0)

		case opcode.EQUAL:
			vm.equal()
		case opcode.NOT_EQUAL:
			vm.notEqual()
		case opcode.GREATER:
			if !vm.compare(func(a, b float64) bool { return a > b }) {
				return vm.err
			}
		case opcode.GREATER_EQUAL:
			if !vm.compare(func(a, b float64) bool { return a >= b }) {
				return vm.err
			}
		case opcode.LESS:
			if !vm.compare(func(a, b float64) bool { return a < b }) {
				return vm.err
			}
		case opcode.LESS_EQUAL:
			if !vm.compare(func(a, b float64) bool { return a <= b }) {
				return vm.err
			}

		case opcode.ADD:
			if !vm.add() {
				return vm.err
			}
		case opcode.SUBTRACT:
			if !vm.subtract() {
				return vm.err
			}
		case opcode.MULTIPLY:
			if !vm.multiply() {
				return vm.err
			}
		case opcode.DIVIDE:
			if !vm.divide() {
				return vm.err
			}
		case opcode.MODULO:
			if !vm.modulo() {
				return vm.err
			}
		case opcode.NEGATE:
			if !vm.negate() {
				return vm.err
			}

		case opcode.ADD_INT:
			b, a := vm.pop().AsInt(), vm.pop().AsInt()
			vm.push(types.Int(addNum(a, b)))
		case opcode.SUBTRACT_INT:
			b, a := vm.pop().AsInt(), vm.pop().AsInt()
			vm.push(types.Int(subNum(a, b)))
		case opcode.MULTIPLY_INT:
			b, a := vm.pop().AsInt(), vm.pop().AsInt()
			vm.push(types.Int(mulNum(a, b)))
		case opcode.DIVIDE_INT:
			b, a := vm.pop().AsInt(), vm.pop().AsInt()
			if b == 0 {
				vm.fail("Division by zero.")
				return vm.err
			}
			vm.push(types.Int(a / b))
		case opcode.MODULO_INT:
			b, a := vm.pop().AsInt(), vm.pop().AsInt()
			if b == 0 {
				vm.fail("Division by zero.")
				return vm.err
			}
			vm.push(types.Int(a % b))
		case opcode.NEGATE_INT:
			vm.push(types.Int(negNum(vm.pop().AsInt())))
		case opcode.ADD_FLOAT:
			b, a := vm.pop().AsFloat(), vm.pop().AsFloat()
			vm.push(types.Float(addNum(a, b)))
		case opcode.SUBTRACT_FLOAT:
			b, a := vm.pop().AsFloat(), vm.pop().AsFloat()
			vm.push(types.Float(subNum(a, b)))
		case opcode.MULTIPLY_FLOAT:
			b, a := vm.pop().AsFloat(), vm.pop().AsFloat()
			vm.push(types.Float(mulNum(a, b)))
		case opcode.DIVIDE_FLOAT:
			b, a := vm.pop().AsFloat(), vm.pop().AsFloat()
			vm.push(types.Float(a / b))
		case opcode.NEGATE_FLOAT:
			vm.push(types.Float(negNum(vm.pop().AsFloat())))

		case opcode.INT_TO_FLOAT:
			if !vm.intToFloat() {
				return vm.err
			}
		case opcode.FLOAT_TO_INT:
			if !vm.floatToInt() {
				return vm.err
			}
		case opcode.NOT:
			vm.not()

		case opcode.JUMP:
			offset := vm.readShort()
			vm.frame().ip += offset
		case opcode.JUMP_IF_FALSE:
			offset := vm.readShort()
			if !vm.peek(0).Truthy() {
				vm.frame().ip += offset
			}
		case opcode.LOOP:
			offset := vm.readShort()
			vm.frame().ip -= offset

		case opcode.CALL:
			argc := int(vm.readByte())
			if !vm.callValue(vm.peek(argc), argc) {
				return vm.err
			}

		case opcode.CLOSURE:
			fn := vm.readConstant().AsObj().(*types.Function)
			closure := vm.heap.NewClosure(fn)
			for i := 0; i < fn.UpvalueCount; i++ {
				isLocal := vm.readByte()
				index := int(vm.readByte())
				if isLocal != 0 {
					closure.Upvalues[i] = vm.captureUpvalue(f.slotsBase + index)
				} else {
					closure.Upvalues[i] = f.closure.Upvalues[index]
				}
			}
			vm.push(types.FromObj(closure))

		case opcode.CLOSE_UPVALUE:
			vm.closeUpvalues(vm.stackTop - 1)
			vm.pop()

		case opcode.RETURN:
			result := vm.pop()
			vm.closeUpvalues(f.slotsBase)
			vm.frames = vm.frames[:len(vm.frames)-1]
			vm.stackTop = f.slotsBase
			vm.push(result)
			if len(vm.frames) == floor {
				return nil
			}

		case opcode.PRINT:
			fmt.Fprintln(Stdout, types.Stringify(vm.pop()))

		case opcode.STRUCT_DEF:
			fieldCount := int(vm.readByte())
			nameConst := vm.readByte()
			def := vm.heap.NewStructDef(vm.frame().closure.Function.Chunk.Constants[nameConst].AsObj().(*types.String))
			def.FieldNames = make([]*types.String, 0, fieldCount)
			vm.push(types.FromObj(def))
		case opcode.STRUCT_FIELD:
			fieldConst := vm.readByte()
			name := vm.frame().closure.Function.Chunk.Constants[fieldConst].AsObj().(*types.String)
			def := vm.peek(0).AsObj().(*types.StructDef)
			def.FieldNames = append(def.FieldNames, name)
		case opcode.METHOD:
			if !vm.bindMethod() {
				return vm.err
			}

		case opcode.GET_FIELD:
			nameConst := vm.readByte()
			if !vm.getField(nameConst) {
				return vm.err
			}
		case opcode.SET_FIELD:
			nameConst := vm.readByte()
			if !vm.setField(nameConst) {
				return vm.err
			}
		case opcode.INVOKE:
			nameConst := vm.readByte()
			argc := int(vm.readByte())
			if !vm.invoke(nameConst, argc) {
				return vm.err
			}

		case opcode.ARRAY:
			count := int(vm.readByte())
			elems := make([]types.Value, count)
			copy(elems, vm.stack[vm.stackTop-count:vm.stackTop])
			vm.stackTop -= count
			vm.push(types.FromObj(vm.heap.NewArray(elems)))
		case opcode.INDEX_GET:
			if !vm.indexGet() {
				return vm.err
			}
		case opcode.INDEX_SET:
			if !vm.indexSet() {
				return vm.err
			}

		case opcode.IMPORT:
			pathConst := vm.readByte()
			if !vm.importModule(pathConst) {
				return vm.err
			}

		default:
			vm.fail("Unknown opcode %d.", instr)
			return vm.err
		}
	}
}
