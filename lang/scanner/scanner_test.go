package scanner

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mna/sharo/lang/token"
)

func kinds(t *testing.T, src string) []token.Kind {
	t.Helper()
	sc := New(src)
	var ks []token.Kind
	for {
		tok := sc.Next()
		ks = append(ks, tok.Kind)
		if tok.Kind == token.EOF {
			return ks
		}
	}
}

func TestScanPunctuationAndOperators(t *testing.T) {
	cases := []struct {
		src  string
		want token.Kind
	}{
		{"(", token.LPAREN},
		{")", token.RPAREN},
		{"{", token.LBRACE},
		{"}", token.RBRACE},
		{"[", token.LBRACK},
		{"]", token.RBRACK},
		{",", token.COMMA},
		{".", token.DOT},
		{"+", token.PLUS},
		{"-", token.MINUS},
		{"->", token.ARROW},
		{"*", token.STAR},
		{"/", token.SLASH},
		{"%", token.PERCENT},
		{"!", token.BANG},
		{"!=", token.BANG_EQ},
		{"=", token.EQ},
		{"==", token.EQ_EQ},
		{"<", token.LT},
		{"<=", token.LT_EQ},
		{">", token.GT},
		{">=", token.GT_EQ},
		{":", token.COLON},
		{":=", token.COLON_EQ},
	}
	for _, c := range cases {
		t.Run(c.src, func(t *testing.T) {
			sc := New(c.src)
			tok := sc.Next()
			require.Equal(t, c.want, tok.Kind)
			require.Equal(t, c.src, tok.Lexeme)
			require.Equal(t, token.EOF, sc.Next().Kind)
		})
	}
}

func TestScanKeywordsVsIdentifiers(t *testing.T) {
	cases := []struct {
		src  string
		want token.Kind
	}{
		{"true", token.TRUE},
		{"false", token.FALSE},
		{"nil", token.NIL},
		{"if", token.IF},
		{"else", token.ELSE},
		{"for", token.FOR},
		{"return", token.RETURN},
		{"type", token.TYPE},
		{"self", token.SELF},
		{"import", token.IMPORT},
		{"and", token.AND},
		{"or", token.OR},
		{"not", token.NOT},
		{"int", token.KW_INT},
		{"float", token.KW_FLOAT},
		{"bool", token.KW_BOOL},
		{"print", token.IDENT},
		{"total", token.IDENT},
		{"iffy", token.IDENT},
	}
	for _, c := range cases {
		t.Run(c.src, func(t *testing.T) {
			sc := New(c.src)
			tok := sc.Next()
			require.Equal(t, c.want, tok.Kind)
		})
	}
}

func TestScanNumbers(t *testing.T) {
	cases := []struct {
		src  string
		want token.Kind
	}{
		{"123", token.INT},
		{"0x7b", token.INT},
		{"0b1111011", token.INT},
		{"1.5", token.FLOAT},
		{"1e10", token.FLOAT},
		{"1.5e-3", token.FLOAT},
		{"1.", token.INT}, // no digit after the dot: the dot is not consumed
	}
	for _, c := range cases {
		t.Run(c.src, func(t *testing.T) {
			sc := New(c.src)
			tok := sc.Next()
			require.Equal(t, c.want, tok.Kind)
		})
	}
}

func TestScanStringLiteral(t *testing.T) {
	sc := New(`"hello world"`)
	tok := sc.Next()
	require.Equal(t, token.STRING, tok.Kind)
	require.Equal(t, `"hello world"`, tok.Lexeme)
	require.Equal(t, token.EOF, sc.Next().Kind)
}

func TestScanUnterminatedStringIsIllegal(t *testing.T) {
	sc := New(`"oops`)
	tok := sc.Next()
	require.Equal(t, token.ILLEGAL, tok.Kind)
	require.NotEmpty(t, tok.Message)
}

func TestScanUnexpectedCharacterIsIllegal(t *testing.T) {
	sc := New("`")
	tok := sc.Next()
	require.Equal(t, token.ILLEGAL, tok.Kind)
}

func TestScanSkipsLineAndBlockComments(t *testing.T) {
	src := `1 // a comment
2 /* block
spanning lines */ 3 /* /* nested */ still skipped */ 4`
	ks := kinds(t, src)
	require.Equal(t, []token.Kind{token.INT, token.INT, token.INT, token.INT, token.EOF}, ks)
}

func TestScanTracksLineNumbers(t *testing.T) {
	sc := New("1\n2\n\n3")
	var lines []int
	for {
		tok := sc.Next()
		if tok.Kind == token.EOF {
			break
		}
		lines = append(lines, tok.Line)
	}
	require.Equal(t, []int{1, 2, 4}, lines)
}

func TestSaveRestoreRewindsCursor(t *testing.T) {
	sc := New("a b c")
	first := sc.Next()
	require.Equal(t, "a", first.Lexeme)

	st := sc.Save()
	second := sc.Next()
	require.Equal(t, "b", second.Lexeme)

	sc.Restore(st)
	again := sc.Next()
	require.Equal(t, "b", again.Lexeme)
	require.Equal(t, "c", sc.Next().Lexeme)
}

func TestUnescapePassesThroughPlainText(t *testing.T) {
	require.Equal(t, "hello", Unescape(`"hello"`))
}

func TestUnescapeDropsBackslashKeepsNextCharLiteral(t *testing.T) {
	require.Equal(t, `say "hi"`, Unescape(`"say \"hi\""`))
	require.Equal(t, `a\b`, Unescape(`"a\\b"`))
}

func TestProgramLikeSource(t *testing.T) {
	src := `total := 0
i := 0
for i < 5 {
    total = total + i
    i = i + 1
}
print(total)`
	ks := kinds(t, src)
	require.Equal(t, token.IDENT, ks[0])
	require.Equal(t, token.COLON_EQ, ks[1])
	require.Equal(t, token.INT, ks[2])
	require.Contains(t, ks, token.FOR)
	require.Contains(t, ks, token.LT)
	require.Equal(t, token.EOF, ks[len(ks)-1])
}
