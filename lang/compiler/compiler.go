// Package compiler implements a single-pass Pratt parser that compiles
// source text directly into bytecode, without ever building an AST.
package compiler

import (
	"fmt"

	"github.com/mna/sharo/lang/opcode"
	"github.com/mna/sharo/lang/scanner"
	"github.com/mna/sharo/lang/token"
	"github.com/mna/sharo/lang/types"
)

// Error is a single compile-time diagnostic, carrying the source line it
// was reported against.
type Error struct {
	Line    int
	Message string
}

func (e *Error) Error() string { return fmt.Sprintf("[line %d] Error: %s", e.Line, e.Message) }

const (
	maxLocals     = 256
	maxUpvalues   = 256
	maxConstants  = 256
	maxFields     = 256
	maxParams     = 255
	maxArgs       = 255
	maxJumpOrLoop = 65535
)

type funcKind int

const (
	kindScript funcKind = iota
	kindFunction
	kindMethod
)

type local struct {
	name     string
	depth    int
	captured bool
}

type upvalueSlot struct {
	index   int
	isLocal bool
}

// funcState is one compiler context per function being compiled, chained
// to its lexically enclosing context while that function's body is being
// parsed.
type funcState struct {
	enclosing *funcState
	fn        *types.Function
	kind      funcKind

	locals     []local
	upvalues   []upvalueSlot
	scopeDepth int
}

// typeState tracks the struct type currently being compiled, so that
// method bodies can reference `self` and fields.
type typeState struct {
	enclosing *typeState
}

// Compiler turns one source unit into a compiled top-level Function. A
// Compiler is single-use: call Compile once.
type Compiler struct {
	heap *types.Heap
	sc   *scanner.Scanner

	previous token.Token
	current  token.Token

	hadError  bool
	panicMode bool
	errs      []error

	fs *funcState
	ts *typeState
}

// Compile parses and compiles source into a top-level script Function. On
// any compile-time error it returns a nil Function and the accumulated
// errors; otherwise it returns the compiled Function and a nil error
// slice.
func Compile(heap *types.Heap, source string) (*types.Function, []error) {
	c := &Compiler{heap: heap, sc: scanner.New(source)}
	c.pushFunc(kindScript, nil)
	c.advance()
	for !c.match(token.EOF) {
		c.declaration()
	}
	fn := c.endFunc()
	if c.hadError {
		return nil, c.errs
	}
	return fn, nil
}

func (c *Compiler) chunk() *types.Chunk { return c.fs.fn.Chunk }

// --- token handling ---

func (c *Compiler) advance() {
	c.previous = c.current
	for {
		c.current = c.sc.Next()
		if c.current.Kind != token.ILLEGAL {
			return
		}
		c.errorAtCurrent(c.current.Message)
	}
}

func (c *Compiler) check(k token.Kind) bool { return c.current.Kind == k }

func (c *Compiler) match(k token.Kind) bool {
	if !c.check(k) {
		return false
	}
	c.advance()
	return true
}

func (c *Compiler) consume(k token.Kind, msg string) {
	if c.current.Kind == k {
		c.advance()
		return
	}
	c.errorAtCurrent(msg)
}

func (c *Compiler) skipTypeAnnotation() {
	if token.IsTypeKeyword(c.current.Kind) {
		c.advance()
	}
}

// --- error reporting ---

func (c *Compiler) errorAt(tok token.Token, msg string) {
	if c.panicMode {
		return
	}
	c.panicMode = true
	c.hadError = true
	c.errs = append(c.errs, &Error{Line: tok.Line, Message: msg})
}

func (c *Compiler) error(msg string)          { c.errorAt(c.previous, msg) }
func (c *Compiler) errorAtCurrent(msg string) { c.errorAt(c.current, msg) }

// --- bytecode emission ---

func (c *Compiler) emitByte(b byte) {
	c.chunk().WriteByte(b, c.previous.Line)
}

func (c *Compiler) emitOp(op opcode.Code) { c.emitByte(byte(op)) }

func (c *Compiler) emitOpByte(op opcode.Code, b byte) {
	c.emitByte(byte(op))
	c.emitByte(b)
}

func (c *Compiler) emitLoop(loopStart int) {
	c.emitOp(opcode.LOOP)
	offset := len(c.chunk().Code) - loopStart + 2
	if offset > maxJumpOrLoop {
		c.error("Loop body too large.")
	}
	c.emitByte(byte(offset >> 8))
	c.emitByte(byte(offset))
}

func (c *Compiler) emitJump(instr opcode.Code) int {
	c.emitOp(instr)
	c.emitByte(0xff)
	c.emitByte(0xff)
	return len(c.chunk().Code) - 2
}

func (c *Compiler) patchJump(offset int) {
	jump := len(c.chunk().Code) - offset - 2
	if jump > maxJumpOrLoop {
		c.error("Too much code to jump over.")
	}
	c.chunk().Code[offset] = byte(jump >> 8)
	c.chunk().Code[offset+1] = byte(jump)
}

func (c *Compiler) emitReturn() {
	c.emitOp(opcode.NIL)
	c.emitOp(opcode.RETURN)
}

func (c *Compiler) makeConstant(v types.Value) byte {
	idx := c.chunk().AddConstant(v)
	if idx >= maxConstants {
		c.error("Too many constants in one chunk.")
		return 0
	}
	return byte(idx)
}

func (c *Compiler) emitConstant(v types.Value) {
	c.emitOpByte(opcode.CONSTANT, c.makeConstant(v))
}

func (c *Compiler) identifierConstant(lexeme string) byte {
	return c.makeConstant(types.FromObj(c.heap.Intern(lexeme)))
}

// --- function/scope bookkeeping ---

func (c *Compiler) pushFunc(kind funcKind, name *types.String) {
	fs := &funcState{enclosing: c.fs, kind: kind, fn: c.heap.NewFunction()}
	fs.fn.Name = name
	// slot 0 is reserved: self for methods, an anonymous placeholder otherwise
	slot0 := local{depth: 0}
	if kind == kindMethod {
		slot0.name = "self"
	}
	fs.locals = append(fs.locals, slot0)
	c.fs = fs
}

func (c *Compiler) endFunc() *types.Function {
	c.emitReturn()
	fn := c.fs.fn
	c.fs = c.fs.enclosing
	return fn
}

func (c *Compiler) beginScope() { c.fs.scopeDepth++ }

func (c *Compiler) endScope() {
	c.fs.scopeDepth--
	for len(c.fs.locals) > 0 && c.fs.locals[len(c.fs.locals)-1].depth > c.fs.scopeDepth {
		if c.fs.locals[len(c.fs.locals)-1].captured {
			c.emitOp(opcode.CLOSE_UPVALUE)
		} else {
			c.emitOp(opcode.POP)
		}
		c.fs.locals = c.fs.locals[:len(c.fs.locals)-1]
	}
}

// --- name resolution ---

func resolveLocal(fs *funcState, name string) int {
	for i := len(fs.locals) - 1; i >= 0; i-- {
		if fs.locals[i].name == name {
			return i
		}
	}
	return -1
}

func (c *Compiler) resolveLocal(fs *funcState, name string) int {
	idx := resolveLocal(fs, name)
	if idx != -1 && fs.locals[idx].depth == -1 {
		c.error("Can't read local variable in its own initializer.")
	}
	return idx
}

func (c *Compiler) addUpvalue(fs *funcState, index int, isLocal bool) int {
	for i, uv := range fs.upvalues {
		if uv.index == index && uv.isLocal == isLocal {
			return i
		}
	}
	if len(fs.upvalues) == maxUpvalues {
		c.error("Too many closure variables in function.")
		return 0
	}
	fs.upvalues = append(fs.upvalues, upvalueSlot{index: index, isLocal: isLocal})
	fs.fn.UpvalueCount = len(fs.upvalues)
	return len(fs.upvalues) - 1
}

func (c *Compiler) resolveUpvalue(fs *funcState, name string) int {
	if fs.enclosing == nil {
		return -1
	}
	if local := c.resolveLocal(fs.enclosing, name); local != -1 {
		fs.enclosing.locals[local].captured = true
		return c.addUpvalue(fs, local, true)
	}
	if uv := c.resolveUpvalue(fs.enclosing, name); uv != -1 {
		return c.addUpvalue(fs, uv, false)
	}
	return -1
}

func (c *Compiler) addLocal(name string) {
	if len(c.fs.locals) == maxLocals {
		c.error("Too many local variables in function.")
		return
	}
	c.fs.locals = append(c.fs.locals, local{name: name, depth: -1})
}

func (c *Compiler) declareVariable(name string) {
	if c.fs.scopeDepth == 0 {
		return
	}
	for i := len(c.fs.locals) - 1; i >= 0; i-- {
		l := c.fs.locals[i]
		if l.depth != -1 && l.depth < c.fs.scopeDepth {
			break
		}
		if l.name == name {
			c.error("Already a variable with this name in this scope.")
		}
	}
	c.addLocal(name)
}

func (c *Compiler) markInitialized() {
	if c.fs.scopeDepth == 0 {
		return
	}
	c.fs.locals[len(c.fs.locals)-1].depth = c.fs.scopeDepth
}

// defineGlobalOrLocal emits DEFINE_GLOBAL for top-level declarations, or
// simply marks the local initialized now that its initializer has run.
func (c *Compiler) defineGlobalOrLocal(name string) {
	if c.fs.scopeDepth > 0 {
		c.markInitialized()
		return
	}
	c.emitOpByte(opcode.DEFINE_GLOBAL, c.identifierConstant(name))
}

// --- expressions: precedence table ---

type precedence int

const (
	precNone precedence = iota
	precAssignment
	precOr
	precAnd
	precEquality
	precComparison
	precTerm
	precFactor
	precUnary
	precCall
	precPrimary
)

type parseFn func(c *Compiler, canAssign bool)

type rule struct {
	prefix     parseFn
	infix      parseFn
	precedence precedence
}

var rules map[token.Kind]rule

func init() {
	rules = map[token.Kind]rule{
		token.LPAREN:   {(*Compiler).grouping, (*Compiler).call, precCall},
		token.LBRACK:   {(*Compiler).arrayLiteral, (*Compiler).subscript, precCall},
		token.DOT:      {nil, (*Compiler).dot, precCall},
		token.MINUS:    {(*Compiler).unary, (*Compiler).binary, precTerm},
		token.PLUS:     {nil, (*Compiler).binary, precTerm},
		token.STAR:     {nil, (*Compiler).binary, precFactor},
		token.SLASH:    {nil, (*Compiler).binary, precFactor},
		token.PERCENT:  {nil, (*Compiler).binary, precFactor},
		token.BANG:     {(*Compiler).unary, nil, precNone},
		token.BANG_EQ:  {nil, (*Compiler).binary, precEquality},
		token.EQ_EQ:    {nil, (*Compiler).binary, precEquality},
		token.GT:       {nil, (*Compiler).binary, precComparison},
		token.GT_EQ:    {nil, (*Compiler).binary, precComparison},
		token.LT:       {nil, (*Compiler).binary, precComparison},
		token.LT_EQ:    {nil, (*Compiler).binary, precComparison},
		token.IDENT:    {(*Compiler).variable, nil, precNone},
		token.STRING:   {(*Compiler).string, nil, precNone},
		token.INT:      {(*Compiler).number, nil, precNone},
		token.FLOAT:    {(*Compiler).number, nil, precNone},
		token.TRUE:     {(*Compiler).literal, nil, precNone},
		token.FALSE:    {(*Compiler).literal, nil, precNone},
		token.NIL:      {(*Compiler).literal, nil, precNone},
		token.SELF:     {(*Compiler).self, nil, precNone},
		token.AND:      {nil, (*Compiler).and, precAnd},
		token.OR:       {nil, (*Compiler).or, precOr},
		token.NOT:      {(*Compiler).unary, nil, precNone},
	}
}

func (c *Compiler) getRule(k token.Kind) rule { return rules[k] }

func (c *Compiler) parsePrecedence(p precedence) {
	c.advance()
	prefix := c.getRule(c.previous.Kind).prefix
	if prefix == nil {
		c.error("Expect expression.")
		return
	}
	canAssign := p <= precAssignment
	prefix(c, canAssign)

	for p <= c.getRule(c.current.Kind).precedence {
		c.advance()
		infix := c.getRule(c.previous.Kind).infix
		infix(c, canAssign)
	}

	if canAssign && c.match(token.EQ) {
		c.error("Invalid assignment target.")
	}
}

func (c *Compiler) expression() { c.parsePrecedence(precAssignment) }

// --- expression rule bodies ---

func (c *Compiler) grouping(_ bool) {
	c.expression()
	c.consume(token.RPAREN, "Expect ')' after expression.")
}

func (c *Compiler) call(_ bool) {
	argc := c.argumentList()
	c.emitOpByte(opcode.CALL, argc)
}

func (c *Compiler) argumentList() byte {
	var argc int
	if !c.check(token.RPAREN) {
		for {
			c.expression()
			if argc == maxArgs {
				c.error("Can't have more than 255 arguments.")
			}
			argc++
			if !c.match(token.COMMA) {
				break
			}
		}
	}
	c.consume(token.RPAREN, "Expect ')' after arguments.")
	return byte(argc)
}

func (c *Compiler) literal(_ bool) {
	switch c.previous.Kind {
	case token.FALSE:
		c.emitOp(opcode.FALSE)
	case token.NIL:
		c.emitOp(opcode.NIL)
	case token.TRUE:
		c.emitOp(opcode.TRUE)
	}
}

func (c *Compiler) number(_ bool) {
	lexeme := c.previous.Lexeme
	if c.previous.Kind == token.FLOAT {
		c.emitConstant(types.Float(parseFloat(lexeme)))
		return
	}
	c.emitConstant(types.Int(parseInt(lexeme)))
}

func (c *Compiler) string(_ bool) {
	c.emitConstant(types.FromObj(c.heap.Intern(scanner.Unescape(c.previous.Lexeme))))
}

func (c *Compiler) arrayLiteral(_ bool) {
	var count int
	if !c.check(token.RBRACK) {
		for {
			c.expression()
			if count == maxArgs {
				c.error("Can't have more than 255 elements in array literal.")
			}
			count++
			if !c.match(token.COMMA) {
				break
			}
		}
	}
	c.consume(token.RBRACK, "Expect ']' after array elements.")
	c.emitOpByte(opcode.ARRAY, byte(count))
}

func (c *Compiler) subscript(canAssign bool) {
	c.expression()
	c.consume(token.RBRACK, "Expect ']' after index.")
	if canAssign && c.match(token.EQ) {
		c.expression()
		c.emitOp(opcode.INDEX_SET)
	} else {
		c.emitOp(opcode.INDEX_GET)
	}
}

func (c *Compiler) dot(canAssign bool) {
	c.consume(token.IDENT, "Expect property name after '.'.")
	name := c.identifierConstant(c.previous.Lexeme)
	if canAssign && c.match(token.EQ) {
		c.expression()
		c.emitOpByte(opcode.SET_FIELD, name)
	} else {
		c.emitOpByte(opcode.GET_FIELD, name)
	}
}

func (c *Compiler) self(_ bool) {
	if c.ts == nil {
		c.error("Can't use 'self' outside of a type definition.")
		return
	}
	c.emitOp(opcode.GET_LOCAL_0)
}

func (c *Compiler) namedVariable(name string, canAssign bool) {
	var getOp, setOp opcode.Code
	arg := c.resolveLocal(c.fs, name)
	if arg != -1 {
		getOp, setOp = opcode.GET_LOCAL, opcode.SET_LOCAL
	} else if arg = c.resolveUpvalue(c.fs, name); arg != -1 {
		getOp, setOp = opcode.GET_UPVALUE, opcode.SET_UPVALUE
	} else {
		arg = int(c.identifierConstant(name))
		getOp, setOp = opcode.GET_GLOBAL, opcode.SET_GLOBAL
	}

	switch {
	case canAssign && c.match(token.EQ):
		c.expression()
		c.emitOpByte(setOp, byte(arg))
	case canAssign && c.check(token.COLON_EQ):
		c.error("Use '=' for assignment, ':=' is for declaration.")
	case getOp == opcode.GET_LOCAL && arg >= 0 && arg <= 3:
		c.emitOp(opcode.Code(int(opcode.GET_LOCAL_0) + arg))
	default:
		c.emitOpByte(getOp, byte(arg))
	}
}

func (c *Compiler) variable(canAssign bool) { c.namedVariable(c.previous.Lexeme, canAssign) }

func (c *Compiler) unary(_ bool) {
	op := c.previous.Kind
	c.parsePrecedence(precUnary)
	switch op {
	case token.BANG, token.NOT:
		c.emitOp(opcode.NOT)
	case token.MINUS:
		c.emitOp(opcode.NEGATE)
	}
}

func (c *Compiler) binary(_ bool) {
	op := c.previous.Kind
	r := c.getRule(op)
	c.parsePrecedence(r.precedence + 1)
	switch op {
	case token.BANG_EQ:
		c.emitOp(opcode.NOT_EQUAL)
	case token.EQ_EQ:
		c.emitOp(opcode.EQUAL)
	case token.GT:
		c.emitOp(opcode.GREATER)
	case token.GT_EQ:
		c.emitOp(opcode.GREATER_EQUAL)
	case token.LT:
		c.emitOp(opcode.LESS)
	case token.LT_EQ:
		c.emitOp(opcode.LESS_EQUAL)
	case token.PLUS:
		c.emitOp(opcode.ADD)
	case token.MINUS:
		c.emitOp(opcode.SUBTRACT)
	case token.STAR:
		c.emitOp(opcode.MULTIPLY)
	case token.SLASH:
		c.emitOp(opcode.DIVIDE)
	case token.PERCENT:
		c.emitOp(opcode.MODULO)
	}
}

func (c *Compiler) and(_ bool) {
	end := c.emitJump(opcode.JUMP_IF_FALSE)
	c.emitOp(opcode.POP)
	c.parsePrecedence(precAnd)
	c.patchJump(end)
}

func (c *Compiler) or(_ bool) {
	elseJump := c.emitJump(opcode.JUMP_IF_FALSE)
	endJump := c.emitJump(opcode.JUMP)
	c.patchJump(elseJump)
	c.emitOp(opcode.POP)
	c.parsePrecedence(precOr)
	c.patchJump(endJump)
}
