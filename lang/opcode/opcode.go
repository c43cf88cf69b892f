// Package opcode defines the bytecode instruction set shared by the
// compiler, the machine, and the disassembler.
package opcode

// Code identifies a single bytecode instruction.
type Code byte

const (
	// Constants and literals.
	CONSTANT Code = iota
	NIL
	TRUE
	FALSE

	// Stack.
	POP
	DUP

	// Variables.
	GET_LOCAL
	SET_LOCAL
	GET_GLOBAL
	DEFINE_GLOBAL
	SET_GLOBAL
	GET_UPVALUE
	SET_UPVALUE

	// Comparison.
	EQUAL
	NOT_EQUAL
	GREATER
	GREATER_EQUAL
	LESS
	LESS_EQUAL

	// Generic arithmetic (runtime type dispatch).
	ADD
	SUBTRACT
	MULTIPLY
	DIVIDE
	MODULO
	NEGATE

	// Typed arithmetic, reserved for a future inlining pass; the compiler
	// does not currently emit these.
	ADD_INT
	SUBTRACT_INT
	MULTIPLY_INT
	DIVIDE_INT
	MODULO_INT
	NEGATE_INT
	ADD_FLOAT
	SUBTRACT_FLOAT
	MULTIPLY_FLOAT
	DIVIDE_FLOAT
	NEGATE_FLOAT

	// Conversion/logical.
	INT_TO_FLOAT
	FLOAT_TO_INT
	NOT

	// Control.
	JUMP
	JUMP_IF_FALSE
	LOOP

	// Calls/closures.
	CALL
	CLOSURE
	CLOSE_UPVALUE
	RETURN

	// I/O.
	PRINT

	// Records.
	STRUCT_DEF
	STRUCT_FIELD
	GET_FIELD
	SET_FIELD
	METHOD
	INVOKE

	// Arrays.
	ARRAY
	INDEX_GET
	INDEX_SET

	// Modules.
	IMPORT

	// Superinstructions.
	GET_LOCAL_0
	GET_LOCAL_1
	GET_LOCAL_2
	GET_LOCAL_3
	INC_LOCAL
	ADD_LOCAL_CONST
	LESS_LOCAL_CONST
	INDEX_GET_LOCAL
)

var names = [...]string{
	CONSTANT:         "CONSTANT",
	NIL:              "NIL",
	TRUE:             "TRUE",
	FALSE:            "FALSE",
	POP:              "POP",
	DUP:              "DUP",
	GET_LOCAL:        "GET_LOCAL",
	SET_LOCAL:        "SET_LOCAL",
	GET_GLOBAL:       "GET_GLOBAL",
	DEFINE_GLOBAL:    "DEFINE_GLOBAL",
	SET_GLOBAL:       "SET_GLOBAL",
	GET_UPVALUE:      "GET_UPVALUE",
	SET_UPVALUE:      "SET_UPVALUE",
	EQUAL:            "EQUAL",
	NOT_EQUAL:        "NOT_EQUAL",
	GREATER:          "GREATER",
	GREATER_EQUAL:    "GREATER_EQUAL",
	LESS:             "LESS",
	LESS_EQUAL:       "LESS_EQUAL",
	ADD:              "ADD",
	SUBTRACT:         "SUBTRACT",
	MULTIPLY:         "MULTIPLY",
	DIVIDE:           "DIVIDE",
	MODULO:           "MODULO",
	NEGATE:           "NEGATE",
	ADD_INT:          "ADD_INT",
	SUBTRACT_INT:     "SUBTRACT_INT",
	MULTIPLY_INT:     "MULTIPLY_INT",
	DIVIDE_INT:       "DIVIDE_INT",
	MODULO_INT:       "MODULO_INT",
	NEGATE_INT:       "NEGATE_INT",
	ADD_FLOAT:        "ADD_FLOAT",
	SUBTRACT_FLOAT:   "SUBTRACT_FLOAT",
	MULTIPLY_FLOAT:   "MULTIPLY_FLOAT",
	DIVIDE_FLOAT:     "DIVIDE_FLOAT",
	NEGATE_FLOAT:     "NEGATE_FLOAT",
	INT_TO_FLOAT:     "INT_TO_FLOAT",
	FLOAT_TO_INT:     "FLOAT_TO_INT",
	NOT:              "NOT",
	JUMP:             "JUMP",
	JUMP_IF_FALSE:    "JUMP_IF_FALSE",
	LOOP:             "LOOP",
	CALL:             "CALL",
	CLOSURE:          "CLOSURE",
	CLOSE_UPVALUE:    "CLOSE_UPVALUE",
	RETURN:           "RETURN",
	PRINT:            "PRINT",
	STRUCT_DEF:       "STRUCT_DEF",
	STRUCT_FIELD:     "STRUCT_FIELD",
	GET_FIELD:        "GET_FIELD",
	SET_FIELD:        "SET_FIELD",
	METHOD:           "METHOD",
	INVOKE:           "INVOKE",
	ARRAY:            "ARRAY",
	INDEX_GET:        "INDEX_GET",
	INDEX_SET:        "INDEX_SET",
	IMPORT:           "IMPORT",
	GET_LOCAL_0:      "GET_LOCAL_0",
	GET_LOCAL_1:      "GET_LOCAL_1",
	GET_LOCAL_2:      "GET_LOCAL_2",
	GET_LOCAL_3:      "GET_LOCAL_3",
	INC_LOCAL:        "INC_LOCAL",
	ADD_LOCAL_CONST:  "ADD_LOCAL_CONST",
	LESS_LOCAL_CONST: "LESS_LOCAL_CONST",
	INDEX_GET_LOCAL:  "INDEX_GET_LOCAL",
}

func (c Code) String() string {
	if int(c) < len(names) && names[c] != "" {
		return names[c]
	}
	return "UNKNOWN"
}

// Operands describes how many operand bytes follow an opcode and how wide
// each one is. Most operands are single bytes (local slots, constant
// indices, argument counts); jump targets are the sole 16-bit operand,
// encoded big-endian. INVOKE and ADD_LOCAL_CONST/LESS_LOCAL_CONST take two
// single-byte operands.
type Operands int

const (
	// NoOperands instructions carry no operand bytes.
	NoOperands Operands = iota
	// OneByte instructions carry a single 1-byte operand.
	OneByte
	// TwoBytes instructions carry two 1-byte operands.
	TwoBytes
	// Jump16 instructions carry a single big-endian 16-bit operand.
	Jump16
	// ClosureOperands is CLOSURE's variable-length shape: a 1-byte constant
	// index followed by 2 bytes per upvalue, a count the disassembler and
	// compiler must read out of the Function constant itself rather than
	// from a fixed table entry.
	ClosureOperands
)

var operands = [...]Operands{
	CONSTANT:         OneByte,
	NIL:              NoOperands,
	TRUE:             NoOperands,
	FALSE:            NoOperands,
	POP:              NoOperands,
	DUP:              NoOperands,
	GET_LOCAL:        OneByte,
	SET_LOCAL:        OneByte,
	GET_GLOBAL:       OneByte,
	DEFINE_GLOBAL:    OneByte,
	SET_GLOBAL:       OneByte,
	GET_UPVALUE:      OneByte,
	SET_UPVALUE:      OneByte,
	EQUAL:            NoOperands,
	NOT_EQUAL:        NoOperands,
	GREATER:          NoOperands,
	GREATER_EQUAL:    NoOperands,
	LESS:             NoOperands,
	LESS_EQUAL:       NoOperands,
	ADD:              NoOperands,
	SUBTRACT:         NoOperands,
	MULTIPLY:         NoOperands,
	DIVIDE:           NoOperands,
	MODULO:           NoOperands,
	NEGATE:           NoOperands,
	ADD_INT:          NoOperands,
	SUBTRACT_INT:     NoOperands,
	MULTIPLY_INT:     NoOperands,
	DIVIDE_INT:       NoOperands,
	MODULO_INT:       NoOperands,
	NEGATE_INT:       NoOperands,
	ADD_FLOAT:        NoOperands,
	SUBTRACT_FLOAT:   NoOperands,
	MULTIPLY_FLOAT:   NoOperands,
	DIVIDE_FLOAT:     NoOperands,
	NEGATE_FLOAT:     NoOperands,
	INT_TO_FLOAT:     NoOperands,
	FLOAT_TO_INT:     NoOperands,
	NOT:              NoOperands,
	JUMP:             Jump16,
	JUMP_IF_FALSE:    Jump16,
	LOOP:             Jump16,
	CALL:             OneByte,
	CLOSURE:          ClosureOperands,
	CLOSE_UPVALUE:    NoOperands,
	RETURN:           NoOperands,
	PRINT:            NoOperands,
	STRUCT_DEF:       TwoBytes, // fieldCount, nameIdx
	STRUCT_FIELD:     OneByte,
	GET_FIELD:        OneByte,
	SET_FIELD:        OneByte,
	METHOD:           OneByte,
	INVOKE:           TwoBytes, // nameIdx, argc
	ARRAY:            OneByte,
	INDEX_GET:        NoOperands,
	INDEX_SET:        NoOperands,
	IMPORT:           OneByte,
	GET_LOCAL_0:      NoOperands,
	GET_LOCAL_1:      NoOperands,
	GET_LOCAL_2:      NoOperands,
	GET_LOCAL_3:      NoOperands,
	INC_LOCAL:        OneByte,
	ADD_LOCAL_CONST:  TwoBytes,
	LESS_LOCAL_CONST: TwoBytes,
	INDEX_GET_LOCAL:  OneByte,
}

// OperandShape reports how many, and how wide, operand bytes follow c.
func OperandShape(c Code) Operands {
	if int(c) < len(operands) {
		return operands[c]
	}
	return NoOperands
}

// Width returns the number of operand bytes following c, for every shape
// except ClosureOperands, whose width depends on the referenced function's
// upvalue count and so cannot be known from the opcode alone.
func Width(c Code) int {
	switch OperandShape(c) {
	case NoOperands:
		return 0
	case OneByte:
		return 1
	case TwoBytes:
		return 2
	case Jump16:
		return 2
	default:
		return -1
	}
}
