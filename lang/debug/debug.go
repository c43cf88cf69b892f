// Package debug implements the bytecode disassembler: a human-readable
// rendering of a compiled Chunk, used by the --test CLI mode and by the
// machine's per-instruction trace (SHARO_TRACE).
package debug

import (
	"fmt"
	"io"

	"github.com/mna/sharo/lang/opcode"
	"github.com/mna/sharo/lang/types"
)

// Disassemble prints every instruction in chunk to w, one per line,
// labeled with name (typically the enclosing function's name or
// "<script>").
func Disassemble(w io.Writer, chunk *types.Chunk, name string) {
	fmt.Fprintf(w, "== %s ==\n", name)
	for offset := 0; offset < len(chunk.Code); {
		offset = DisassembleInstruction(w, chunk, offset)
	}
}

// DisassembleInstruction prints the single instruction at offset and
// returns the offset of the one after it.
func DisassembleInstruction(w io.Writer, chunk *types.Chunk, offset int) int {
	fmt.Fprintf(w, "%04d ", offset)
	if offset > 0 && chunk.Lines[offset] == chunk.Lines[offset-1] {
		fmt.Fprint(w, "   | ")
	} else {
		fmt.Fprintf(w, "%4d ", chunk.Lines[offset])
	}

	code := opcode.Code(chunk.Code[offset])
	render, ok := formatters[code]
	if !ok {
		render = simpleInstruction
	}
	return render(w, chunk, code, offset)
}

type formatter func(w io.Writer, chunk *types.Chunk, code opcode.Code, offset int) int

var formatters map[opcode.Code]formatter

func init() {
	formatters = map[opcode.Code]formatter{
		opcode.CONSTANT:      constantInstruction,
		opcode.GET_LOCAL:     byteInstruction,
		opcode.SET_LOCAL:     byteInstruction,
		opcode.GET_GLOBAL:    constantInstruction,
		opcode.DEFINE_GLOBAL: constantInstruction,
		opcode.SET_GLOBAL:    constantInstruction,
		opcode.GET_UPVALUE:   byteInstruction,
		opcode.SET_UPVALUE:   byteInstruction,
		opcode.JUMP:          jumpInstruction(1),
		opcode.JUMP_IF_FALSE: jumpInstruction(1),
		opcode.LOOP:          jumpInstruction(-1),
		opcode.CALL:          byteInstruction,
		opcode.CLOSURE:       closureInstruction,
		opcode.STRUCT_DEF:    structDefInstruction,
		opcode.STRUCT_FIELD:  constantInstruction,
		opcode.GET_FIELD:     constantInstruction,
		opcode.SET_FIELD:     constantInstruction,
		opcode.METHOD:        constantInstruction,
		opcode.INVOKE:        invokeInstruction,
		opcode.ARRAY:         byteInstruction,
		opcode.IMPORT:        constantInstruction,
	}
}

func simpleInstruction(w io.Writer, _ *types.Chunk, code opcode.Code, offset int) int {
	fmt.Fprintln(w, code.String())
	return offset + 1
}

func byteInstruction(w io.Writer, chunk *types.Chunk, code opcode.Code, offset int) int {
	slot := chunk.Code[offset+1]
	fmt.Fprintf(w, "%-16s %4d\n", code.String(), slot)
	return offset + 2
}

func constantInstruction(w io.Writer, chunk *types.Chunk, code opcode.Code, offset int) int {
	idx := chunk.Code[offset+1]
	fmt.Fprintf(w, "%-16s %4d '%s'\n", code.String(), idx, types.Stringify(chunk.Constants[idx]))
	return offset + 2
}

func invokeInstruction(w io.Writer, chunk *types.Chunk, code opcode.Code, offset int) int {
	idx := chunk.Code[offset+1]
	argc := chunk.Code[offset+2]
	fmt.Fprintf(w, "%-16s (%d args) %4d '%s'\n", code.String(), argc, idx, types.Stringify(chunk.Constants[idx]))
	return offset + 3
}

func structDefInstruction(w io.Writer, chunk *types.Chunk, code opcode.Code, offset int) int {
	fieldCount := chunk.Code[offset+1]
	nameIdx := chunk.Code[offset+2]
	fmt.Fprintf(w, "%-16s %4d fields '%s'\n", code.String(), fieldCount, types.Stringify(chunk.Constants[nameIdx]))
	return offset + 3
}

func jumpInstruction(sign int) formatter {
	return func(w io.Writer, chunk *types.Chunk, code opcode.Code, offset int) int {
		jump := int(chunk.Code[offset+1])<<8 | int(chunk.Code[offset+2])
		fmt.Fprintf(w, "%-16s %4d -> %d\n", code.String(), offset, offset+3+sign*jump)
		return offset + 3
	}
}

func closureInstruction(w io.Writer, chunk *types.Chunk, code opcode.Code, offset int) int {
	idx := chunk.Code[offset+1]
	fn := chunk.Constants[idx].AsObj().(*types.Function)
	fmt.Fprintf(w, "%-16s %4d '%s'\n", code.String(), idx, types.Stringify(chunk.Constants[idx]))
	offset += 2
	for i := 0; i < fn.UpvalueCount; i++ {
		isLocal := chunk.Code[offset]
		index := chunk.Code[offset+1]
		kind := "upvalue"
		if isLocal != 0 {
			kind = "local"
		}
		fmt.Fprintf(w, "%04d      |                     %s %d\n", offset, kind, index)
		offset += 2
	}
	return offset
}
