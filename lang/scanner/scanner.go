// Package scanner transforms sharo source text into a lazy stream of
// lexical tokens for the compiler to consume.
//
// The scanner is adapted from the hand-written, table-free style used by
// clox-family interpreters: no regular expressions, byte indexing with a
// current/peek cursor pair, and keyword recognition by looking a scanned
// identifier up in token.Lookup's keyword map.
package scanner

import (
	"strings"

	"github.com/mna/sharo/lang/token"
)

// State is a snapshot of the scanner's cursor, sufficient to rewind scanning
// to a previous point. The compiler uses it to support one token of lookahead
// beyond its own single buffered token, which is needed to disambiguate a
// function declaration from a call (see Compiler.callOrFunDeclStatement).
type State struct {
	start   int
	current int
	line    int
}

// Scanner turns source bytes into Tokens on demand.
type Scanner struct {
	src     string
	start   int // start of the token being scanned
	current int // next byte to be read
	line    int
}

// New returns a Scanner positioned at the beginning of src.
func New(src string) *Scanner {
	return &Scanner{src: src, line: 1}
}

// Save captures the scanner's current cursor position.
func (s *Scanner) Save() State {
	return State{start: s.start, current: s.current, line: s.line}
}

// Restore rewinds the scanner to a position previously returned by Save.
func (s *Scanner) Restore(st State) {
	s.start = st.start
	s.current = st.current
	s.line = st.line
}

func (s *Scanner) isAtEnd() bool { return s.current >= len(s.src) }

func (s *Scanner) advance() byte {
	c := s.src[s.current]
	s.current++
	return c
}

func (s *Scanner) peek() byte {
	if s.isAtEnd() {
		return 0
	}
	return s.src[s.current]
}

func (s *Scanner) peekNext() byte {
	if s.current+1 >= len(s.src) {
		return 0
	}
	return s.src[s.current+1]
}

func (s *Scanner) match(expected byte) bool {
	if s.isAtEnd() || s.src[s.current] != expected {
		return false
	}
	s.current++
	return true
}

func (s *Scanner) make(kind token.Kind) token.Token {
	return token.Token{Kind: kind, Lexeme: s.src[s.start:s.current], Line: s.line}
}

func (s *Scanner) errorTok(msg string) token.Token {
	return token.Token{Kind: token.ILLEGAL, Line: s.line, Message: msg}
}

func (s *Scanner) skipWhitespace() {
	for {
		switch s.peek() {
		case ' ', '\r', '\t':
			s.advance()
		case '\n':
			s.line++
			s.advance()
		case '/':
			switch s.peekNext() {
			case '/':
				for s.peek() != '\n' && !s.isAtEnd() {
					s.advance()
				}
			case '*':
				s.advance() // consume '/'
				s.advance() // consume '*'
				depth := 1
				for depth > 0 && !s.isAtEnd() {
					switch {
					case s.peek() == '/' && s.peekNext() == '*':
						s.advance()
						s.advance()
						depth++
					case s.peek() == '*' && s.peekNext() == '/':
						s.advance()
						s.advance()
						depth--
					default:
						if s.peek() == '\n' {
							s.line++
						}
						s.advance()
					}
				}
			default:
				return
			}
		default:
			return
		}
	}
}

func isAlpha(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_'
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isHexDigit(c byte) bool {
	return isDigit(c) || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F'
}

func (s *Scanner) identifier() token.Token {
	for isAlpha(s.peek()) || isDigit(s.peek()) {
		s.advance()
	}
	lexeme := s.src[s.start:s.current]
	return token.Token{Kind: token.Lookup(lexeme), Lexeme: lexeme, Line: s.line}
}

func (s *Scanner) number() token.Token {
	// 0x... hex literal
	if s.src[s.start] == '0' && (s.peek() == 'x' || s.peek() == 'X') {
		s.advance()
		for isHexDigit(s.peek()) {
			s.advance()
		}
		return s.make(token.INT)
	}
	// 0b... binary literal
	if s.src[s.start] == '0' && (s.peek() == 'b' || s.peek() == 'B') {
		s.advance()
		for s.peek() == '0' || s.peek() == '1' {
			s.advance()
		}
		return s.make(token.INT)
	}

	isFloat := false
	for isDigit(s.peek()) {
		s.advance()
	}
	if s.peek() == '.' && isDigit(s.peekNext()) {
		isFloat = true
		s.advance()
		for isDigit(s.peek()) {
			s.advance()
		}
	}
	if s.peek() == 'e' || s.peek() == 'E' {
		isFloat = true
		s.advance()
		if s.peek() == '+' || s.peek() == '-' {
			s.advance()
		}
		for isDigit(s.peek()) {
			s.advance()
		}
	}
	if isFloat {
		return s.make(token.FLOAT)
	}
	return s.make(token.INT)
}

func (s *Scanner) string() token.Token {
	for s.peek() != '"' && !s.isAtEnd() {
		if s.peek() == '\n' {
			s.line++
		}
		if s.peek() == '\\' && s.peekNext() != 0 {
			s.advance() // the backslash is kept verbatim, only consumed here
		}
		s.advance()
	}
	if s.isAtEnd() {
		return s.errorTok("Unterminated string.")
	}
	s.advance() // closing quote
	return s.make(token.STRING)
}

// Next scans and returns the next token in the source, advancing the cursor.
func (s *Scanner) Next() token.Token {
	s.skipWhitespace()
	s.start = s.current

	if s.isAtEnd() {
		return s.make(token.EOF)
	}

	c := s.advance()
	if isAlpha(c) {
		return s.identifier()
	}
	if isDigit(c) {
		return s.number()
	}

	switch c {
	case '(':
		return s.make(token.LPAREN)
	case ')':
		return s.make(token.RPAREN)
	case '{':
		return s.make(token.LBRACE)
	case '}':
		return s.make(token.RBRACE)
	case '[':
		return s.make(token.LBRACK)
	case ']':
		return s.make(token.RBRACK)
	case ',':
		return s.make(token.COMMA)
	case '.':
		return s.make(token.DOT)
	case ';':
		return s.make(token.SEMI)
	case '+':
		return s.make(token.PLUS)
	case '*':
		return s.make(token.STAR)
	case '/':
		return s.make(token.SLASH)
	case '%':
		return s.make(token.PERCENT)
	case '?':
		return s.make(token.QUESTION)
	case '@':
		return s.make(token.AT)
	case '&':
		return s.make(token.AMP)
	case '-':
		if s.match('>') {
			return s.make(token.ARROW)
		}
		return s.make(token.MINUS)
	case '!':
		if s.match('=') {
			return s.make(token.BANG_EQ)
		}
		return s.make(token.BANG)
	case '=':
		if s.match('=') {
			return s.make(token.EQ_EQ)
		}
		return s.make(token.EQ)
	case '<':
		if s.match('=') {
			return s.make(token.LT_EQ)
		}
		return s.make(token.LT)
	case '>':
		if s.match('=') {
			return s.make(token.GT_EQ)
		}
		return s.make(token.GT)
	case ':':
		if s.match('=') {
			return s.make(token.COLON_EQ)
		}
		return s.make(token.COLON)
	case '"':
		return s.string()
	}

	return s.errorTok("Unexpected character.")
}

// Unescape resolves the backslash escapes in a scanned string literal's
// lexeme, which is stored verbatim (quotes included) by Next. A backslash
// escapes the following character by dropping itself and keeping that
// character literally, matching the source-language rule that escapes are
// not interpreted (no \n, \t, and so on: just "the next character").
func Unescape(lexeme string) string {
	// strip surrounding quotes
	body := lexeme[1 : len(lexeme)-1]
	if !strings.ContainsRune(body, '\\') {
		return body
	}
	var b strings.Builder
	b.Grow(len(body))
	for i := 0; i < len(body); i++ {
		if body[i] == '\\' && i+1 < len(body) {
			i++
		}
		b.WriteByte(body[i])
	}
	return b.String()
}
