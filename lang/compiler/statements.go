package compiler

import (
	"github.com/mna/sharo/lang/opcode"
	"github.com/mna/sharo/lang/scanner"
	"github.com/mna/sharo/lang/token"
	"github.com/mna/sharo/lang/types"
)

func (c *Compiler) declaration() {
	c.statement()
	if c.panicMode {
		c.synchronize()
	}
}

// synchronize discards tokens until a likely statement boundary, so one
// syntax error does not cascade into a flood of spurious follow-on errors.
func (c *Compiler) synchronize() {
	c.panicMode = false
	for c.current.Kind != token.EOF {
		switch c.current.Kind {
		case token.IF, token.FOR, token.RETURN, token.LBRACE:
			return
		}
		c.advance()
	}
}

func (c *Compiler) block() {
	for !c.check(token.RBRACE) && !c.check(token.EOF) {
		c.declaration()
	}
	c.consume(token.RBRACE, "Expect '}' after block.")
}

func (c *Compiler) expressionStatement() {
	c.expression()
	c.emitOp(opcode.POP)
}

func (c *Compiler) ifStatement() {
	c.expression()

	thenJump := c.emitJump(opcode.JUMP_IF_FALSE)
	c.emitOp(opcode.POP)

	c.consume(token.LBRACE, "Expect '{' after if condition.")
	c.beginScope()
	c.block()
	c.endScope()

	elseJump := c.emitJump(opcode.JUMP)

	c.patchJump(thenJump)
	c.emitOp(opcode.POP)

	if c.match(token.ELSE) {
		if c.match(token.IF) {
			c.ifStatement()
		} else {
			c.consume(token.LBRACE, "Expect '{' after else.")
			c.beginScope()
			c.block()
			c.endScope()
		}
	}

	c.patchJump(elseJump)
}

func (c *Compiler) printStatement() {
	c.consume(token.LPAREN, "Expect '(' after 'print'.")
	c.expression()
	c.consume(token.RPAREN, "Expect ')' after value.")
	c.emitOp(opcode.PRINT)
}

func (c *Compiler) returnStatement() {
	if c.fs.kind == kindScript {
		c.error("Can't return from top-level code.")
	}
	if c.check(token.RBRACE) || c.check(token.EOF) {
		c.emitReturn()
	} else {
		c.expression()
		c.emitOp(opcode.RETURN)
	}
}

func (c *Compiler) forStatement() {
	c.beginScope()
	loopStart := len(c.chunk().Code)

	if c.check(token.LBRACE) {
		c.consume(token.LBRACE, "Expect '{'.")
		c.beginScope()
		c.block()
		c.endScope()
		c.emitLoop(loopStart)
	} else {
		c.expression()
		exitJump := c.emitJump(opcode.JUMP_IF_FALSE)
		c.emitOp(opcode.POP)

		c.consume(token.LBRACE, "Expect '{' after for condition.")
		c.beginScope()
		c.block()
		c.endScope()

		c.emitLoop(loopStart)
		c.patchJump(exitJump)
		c.emitOp(opcode.POP)
	}

	c.endScope()
}

func (c *Compiler) importStatement() {
	c.consume(token.STRING, "Expect module path after 'import'.")
	path := c.makeConstant(types.FromObj(c.heap.Intern(scanner.Unescape(c.previous.Lexeme))))
	c.emitOpByte(opcode.IMPORT, path)
}

// emitClosure finishes a nested function compilation: it emits the
// CLOSURE instruction for fn followed by one (is_local, index) pair per
// upvalue, into the *enclosing* chunk (c.fs must already have been
// restored to the enclosing context by the time this is called).
func (c *Compiler) emitClosure(fn *types.Function, upvalues []upvalueSlot) {
	c.emitOpByte(opcode.CLOSURE, c.makeConstant(types.FromObj(fn)))
	for _, uv := range upvalues {
		if uv.isLocal {
			c.emitByte(1)
		} else {
			c.emitByte(0)
		}
		c.emitByte(byte(uv.index))
	}
}

// parseParams compiles a parenthesized, comma-separated parameter list
// (names plus ignored type annotations) for the function currently being
// compiled, stopping at the closing ')'. If parenConsumed the opening '('
// has already been read by the caller's lookahead.
func (c *Compiler) parseParams(parenConsumed bool) {
	if !parenConsumed {
		c.consume(token.LPAREN, "Expect '(' after function name.")
	}
	if !c.check(token.RPAREN) {
		for {
			c.fs.fn.Arity++
			if c.fs.fn.Arity > maxParams {
				c.errorAtCurrent("Can't have more than 255 parameters.")
			}
			c.consume(token.IDENT, "Expect parameter name.")
			c.declareVariable(c.previous.Lexeme)
			c.skipTypeAnnotation()
			c.markInitialized()
			if !c.match(token.COMMA) {
				break
			}
		}
	}
	c.consume(token.RPAREN, "Expect ')' after parameters.")
	c.skipTypeAnnotation() // return type, parsed and discarded
}

// function compiles a nested function body (name already consumed by the
// caller and passed in as name) and returns the
// compiled Function plus the upvalue descriptors the caller must emit.
func (c *Compiler) function(kind funcKind, name *types.String, parenConsumed bool) (*types.Function, []upvalueSlot) {
	c.pushFunc(kind, name)
	c.beginScope()
	c.parseParams(parenConsumed)
	c.consume(token.LBRACE, "Expect '{' before function body.")
	c.block()
	upvalues := c.fs.upvalues
	fn := c.endFunc()
	return fn, upvalues
}

// functionNoParams compiles a nested function body whose empty parameter
// list "()" has already been fully consumed by the caller's lookahead
// (both parens), skipping straight to the optional return type annotation
// and the body.
func (c *Compiler) functionNoParams(kind funcKind, name *types.String) (*types.Function, []upvalueSlot) {
	c.pushFunc(kind, name)
	c.beginScope()
	c.skipTypeAnnotation()
	c.consume(token.LBRACE, "Expect '{' before function body.")
	c.block()
	upvalues := c.fs.upvalues
	fn := c.endFunc()
	return fn, upvalues
}

func (c *Compiler) funDeclaration(name string, parenConsumed bool) {
	if c.fs.scopeDepth > 0 {
		c.addLocal(name)
		c.markInitialized()
	}
	fn, upvalues := c.function(kindFunction, c.heap.Intern(name), parenConsumed)
	c.emitClosure(fn, upvalues)
	if c.fs.scopeDepth == 0 {
		c.emitOpByte(opcode.DEFINE_GLOBAL, c.identifierConstant(name))
	}
}

func (c *Compiler) method(name string) {
	nameConst := c.identifierConstant(name)
	fn, upvalues := c.function(kindMethod, c.heap.Intern(name), false)
	c.emitClosure(fn, upvalues)
	c.emitOpByte(opcode.METHOD, nameConst)
}

// typeDeclaration compiles `type Name { field: T, ... method(...) { ... } }`.
// Fields are expected before methods: once the first method is seen, the
// accumulated field names are flushed as STRUCT_DEF/STRUCT_FIELD
// instructions, and METHOD instructions follow for each method in turn.
func (c *Compiler) typeDeclaration() {
	c.consume(token.IDENT, "Expect type name.")
	typeName := c.previous.Lexeme
	nameConstant := c.identifierConstant(typeName)

	c.consume(token.LBRACE, "Expect '{' after type name.")

	ts := &typeState{enclosing: c.ts}
	c.ts = ts
	defer func() { c.ts = c.ts.enclosing }()

	var fieldNames []byte // constant indices, in declaration order
	flushed := false

	flush := func() {
		c.emitOpByte(opcode.STRUCT_DEF, byte(len(fieldNames)))
		c.emitByte(nameConstant)
		for _, fc := range fieldNames {
			c.emitOpByte(opcode.STRUCT_FIELD, fc)
		}
		flushed = true
	}

	for !c.check(token.RBRACE) && !c.check(token.EOF) {
		if !c.check(token.IDENT) {
			break
		}
		memberName := c.current.Lexeme
		c.advance()

		if c.check(token.LPAREN) {
			if !flushed {
				flush()
			}
			c.method(memberName)
			continue
		}

		c.consume(token.COLON, "Expect ':' after field name.")
		c.skipTypeAnnotation()

		fieldNames = append(fieldNames, c.makeConstant(types.FromObj(c.heap.Intern(memberName))))
		if len(fieldNames) > maxFields {
			c.error("Can't have more than 256 fields in a struct.")
		}
		c.match(token.COMMA)
	}

	if !flushed {
		flush()
	}

	c.consume(token.RBRACE, "Expect '}' after type body.")

	if c.fs.scopeDepth > 0 {
		c.addLocal(typeName)
		c.markInitialized()
	} else {
		c.emitOpByte(opcode.DEFINE_GLOBAL, nameConstant)
	}
}

// statement dispatches to one of the statement forms. Most of the
// language's statement-level syntax begins with a bare identifier, whose
// continuation (`:=`, `:`, `=`, `(`, `[`, `.`, or nothing) determines
// whether it is a declaration, assignment, call, subscript, field access,
// or function/struct declaration — the single-pass compiler resolves this
// by looking at what follows the identifier, with one token of
// save/restore lookahead needed for the call-vs-declaration ambiguity.
func (c *Compiler) statement() {
	switch {
	case c.match(token.IF):
		c.ifStatement()
	case c.match(token.RETURN):
		c.returnStatement()
	case c.match(token.FOR):
		c.forStatement()
	case c.match(token.TYPE):
		c.typeDeclaration()
	case c.match(token.IMPORT):
		c.importStatement()
	case c.match(token.LBRACE):
		c.beginScope()
		c.block()
		c.endScope()
	case c.match(token.IDENT):
		c.identifierLedStatement(c.previous.Lexeme)
	default:
		c.expressionStatement()
	}
}

func (c *Compiler) identifierLedStatement(name string) {
	switch {
	case name == "print" && c.check(token.LPAREN):
		c.printStatement()
	case c.check(token.COLON_EQ):
		c.advance()
		c.expression()
		if c.fs.scopeDepth > 0 {
			c.addLocal(name)
			c.markInitialized()
		} else {
			c.emitOpByte(opcode.DEFINE_GLOBAL, c.identifierConstant(name))
		}
	case c.check(token.COLON):
		c.advance()
		c.skipTypeAnnotation()
		switch {
		case c.match(token.COLON):
			c.expression()
			c.finishDeclaration(name)
		case c.match(token.EQ):
			c.expression()
			c.finishDeclaration(name)
		default:
			c.error("Expect '=' or ':' after type annotation.")
		}
	case c.check(token.EQ):
		c.advance()
		c.expression()
		c.emitAssignTo(name)
		c.emitOp(opcode.POP)
	case c.check(token.LPAREN):
		c.callOrFunDeclStatement(name)
	case c.check(token.LBRACK):
		c.namedVariable(name, false)
		c.advance() // consume '['
		c.expression()
		c.consume(token.RBRACK, "Expect ']' after index.")
		if c.match(token.EQ) {
			c.expression()
			c.emitOp(opcode.INDEX_SET)
		} else {
			c.emitOp(opcode.INDEX_GET)
		}
		c.emitOp(opcode.POP)
	case c.check(token.DOT):
		c.namedVariable(name, false)
		c.advance() // consume '.'
		c.consume(token.IDENT, "Expect field name after '.'.")
		field := c.identifierConstant(c.previous.Lexeme)
		switch {
		case c.match(token.EQ):
			c.expression()
			c.emitOpByte(opcode.SET_FIELD, field)
		case c.check(token.LPAREN):
			c.emitOpByte(opcode.GET_FIELD, field)
			c.advance() // consume '('
			argc := c.argumentList()
			c.emitOpByte(opcode.CALL, argc)
		default:
			c.emitOpByte(opcode.GET_FIELD, field)
		}
		c.emitOp(opcode.POP)
	default:
		c.namedVariable(name, true)
		c.emitOp(opcode.POP)
	}
}

func (c *Compiler) finishDeclaration(name string) {
	if c.fs.scopeDepth > 0 {
		c.addLocal(name)
		c.markInitialized()
	} else {
		c.emitOpByte(opcode.DEFINE_GLOBAL, c.identifierConstant(name))
	}
}

func (c *Compiler) emitAssignTo(name string) {
	if arg := c.resolveLocal(c.fs, name); arg != -1 {
		c.emitOpByte(opcode.SET_LOCAL, byte(arg))
		return
	}
	if arg := c.resolveUpvalue(c.fs, name); arg != -1 {
		c.emitOpByte(opcode.SET_UPVALUE, byte(arg))
		return
	}
	c.emitOpByte(opcode.SET_GLOBAL, c.identifierConstant(name))
}

// callOrFunDeclStatement resolves the single-pass ambiguity between a call
// `name(args)` and a function declaration `name(params) ret? { body }`:
// after the '(' it peeks for an identifier immediately followed by a type
// keyword (the hallmark of a parameter list), restoring the scanner and
// parser state first so the real parse can proceed from '(' again either
// way.
func (c *Compiler) callOrFunDeclStatement(name string) {
	savedScanner := c.sc.Save()
	savedCurrent := c.current
	savedPrevious := c.previous

	c.advance() // consume '('

	if !c.check(token.RPAREN) {
		looksLikeDecl := false
		if c.check(token.IDENT) {
			c.advance() // consume first identifier
			if token.IsTypeKeyword(c.current.Kind) {
				looksLikeDecl = true
			}
		}
		c.sc.Restore(savedScanner)
		c.current = savedCurrent
		c.previous = savedPrevious
		c.advance() // re-consume '('

		if looksLikeDecl {
			c.funDeclaration(name, true)
		} else {
			c.namedVariable(name, false)
			argc := c.argumentList()
			c.emitOpByte(opcode.CALL, argc)
			c.emitOp(opcode.POP)
		}
		return
	}

	// empty parens: disambiguate on what follows ')'
	c.advance() // consume ')'
	if c.check(token.LBRACE) || token.IsTypeKeyword(c.current.Kind) {
		if c.fs.scopeDepth > 0 {
			c.addLocal(name)
			c.markInitialized()
		}
		fn, upvalues := c.functionNoParams(kindFunction, c.heap.Intern(name))
		c.emitClosure(fn, upvalues)
		if c.fs.scopeDepth == 0 {
			c.emitOpByte(opcode.DEFINE_GLOBAL, c.identifierConstant(name))
		}
		return
	}

	c.namedVariable(name, false)
	c.emitOpByte(opcode.CALL, 0)
	c.emitOp(opcode.POP)
}
