package compiler

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mna/sharo/lang/opcode"
	"github.com/mna/sharo/lang/types"
)

func compileOK(t *testing.T, src string) *types.Chunk {
	t.Helper()
	heap := types.NewHeap()
	fn, errs := Compile(heap, src)
	require.Empty(t, errs, "unexpected compile errors: %v", errs)
	return fn.Chunk
}

func firstOpcode(chunk *types.Chunk, n int) []opcode.Code {
	ops := make([]opcode.Code, 0, n)
	for i := 0; i < len(chunk.Code) && len(ops) < n; {
		op := opcode.Code(chunk.Code[i])
		ops = append(ops, op)
		switch opcode.OperandShape(op) {
		case opcode.NoOperands:
			i++
		case opcode.OneByte:
			i += 2
		case opcode.TwoBytes:
			i += 3
		case opcode.Jump16:
			i += 3
		default:
			i++
		}
	}
	return ops
}

func TestCompileSimpleArithmeticEmitsExpectedOps(t *testing.T) {
	chunk := compileOK(t, "1 + 2")
	ops := firstOpcode(chunk, 4)
	require.Equal(t, []opcode.Code{opcode.CONSTANT, opcode.CONSTANT, opcode.ADD, opcode.POP}, ops)
}

func TestCompileGlobalDeclarationEmitsDefineGlobal(t *testing.T) {
	chunk := compileOK(t, "x := 1")
	ops := firstOpcode(chunk, 2)
	require.Equal(t, []opcode.Code{opcode.CONSTANT, opcode.DEFINE_GLOBAL}, ops)
}

// TestLocalSuperinstructions confirms GET_LOCAL_0..3 are used for slots
// 0 through 3 and the generic GET_LOCAL with an explicit index kicks in
// past that. Slot 0 of a function frame is reserved (self for methods, an
// anonymous placeholder otherwise), so a plain function's first parameter
// already lands in slot 1.
func TestLocalSuperinstructions(t *testing.T) {
	heap := types.NewHeap()
	src := `f(a int, b int, c int, d int) {
    a
    b
    c
    d
}`
	fn, errs := Compile(heap, src)
	require.Empty(t, errs)

	// fn is the top-level script; its constants are the nested function and
	// the name "f" that DEFINE_GLOBAL binds it to.
	require.Len(t, fn.Chunk.Constants, 2)
	inner, ok := fn.Chunk.Constants[0].AsObj().(*types.Function)
	require.True(t, ok)

	ops := firstOpcode(inner.Chunk, 8)
	want := []opcode.Code{
		opcode.GET_LOCAL_1, opcode.POP,
		opcode.GET_LOCAL_2, opcode.POP,
		opcode.GET_LOCAL_3, opcode.POP,
		opcode.GET_LOCAL, opcode.POP,
	}
	require.Equal(t, want, ops)
}

func TestTooManyLocalsIsCompileError(t *testing.T) {
	heap := types.NewHeap()
	src := "f() {\n"
	for i := 0; i < maxLocals+1; i++ {
		src += "v" + itoa(i) + " := 0\n"
	}
	src += "}"
	_, errs := Compile(heap, src)
	require.NotEmpty(t, errs)
	found := false
	for _, err := range errs {
		if err.(*Error).Message == "Too many local variables in function." {
			found = true
		}
	}
	require.True(t, found, "errors: %v", errs)
}

func TestUndefinedPropertyIsRuntimeNotCompileError(t *testing.T) {
	// type-checking isn't performed at compile time: an unknown field name
	// compiles fine and only fails when the machine runs it.
	heap := types.NewHeap()
	_, errs := Compile(heap, `type T {
    x: int
}
t := T()
y := t.nope`)
	require.Empty(t, errs)
}

func TestSelfOutsideTypeIsCompileError(t *testing.T) {
	heap := types.NewHeap()
	_, errs := Compile(heap, `x := self`)
	require.NotEmpty(t, errs)
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	var b []byte
	for i > 0 {
		b = append([]byte{byte('0' + i%10)}, b...)
		i /= 10
	}
	if neg {
		b = append([]byte{'-'}, b...)
	}
	return string(b)
}
