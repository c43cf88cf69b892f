package debug

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mna/sharo/lang/compiler"
	"github.com/mna/sharo/lang/types"
)

func compile(t *testing.T, src string) *types.Chunk {
	t.Helper()
	heap := types.NewHeap()
	fn, errs := compiler.Compile(heap, src)
	require.Empty(t, errs)
	return fn.Chunk
}

func TestDisassembleSimpleExpression(t *testing.T) {
	chunk := compile(t, "1 + 2")
	var buf strings.Builder
	Disassemble(&buf, chunk, "test")

	out := buf.String()
	require.Contains(t, out, "== test ==")
	require.Contains(t, out, "CONSTANT")
	require.Contains(t, out, "ADD")
	require.Contains(t, out, "POP")
	require.Contains(t, out, "RETURN")
}

func TestDisassembleGlobalAndPrint(t *testing.T) {
	chunk := compile(t, `x := 1
print(x)`)
	var buf strings.Builder
	Disassemble(&buf, chunk, "globals")

	out := buf.String()
	require.Contains(t, out, "DEFINE_GLOBAL")
	require.Contains(t, out, "GET_GLOBAL")
	require.Contains(t, out, "PRINT")
	require.Contains(t, out, "'x'")
}

func TestDisassembleJumpTargetsAreComputed(t *testing.T) {
	chunk := compile(t, `if true {
    1
}`)
	var buf strings.Builder
	Disassemble(&buf, chunk, "jump")
	out := buf.String()
	require.Contains(t, out, "JUMP_IF_FALSE")
	require.Contains(t, out, "->")
}

func TestDisassembleInstructionReturnsNextOffset(t *testing.T) {
	chunk := compile(t, "1 + 2")
	var buf strings.Builder
	offset := DisassembleInstruction(&buf, chunk, 0)
	require.Greater(t, offset, 0)
	require.LessOrEqual(t, offset, len(chunk.Code))
}
