package lexer

import (
	"strings"
	"testing"
)

// helper to tokenize and fail on error
func mustTokenize(t *testing.T, source string) []Token {
	t.Helper()
	tokens, err := Tokenize(source, "test.lox")
	if err != nil {
		t.Fatalf("unexpected lex error: %v", err)
	}
	return tokens
}

// helper that strips the trailing EOF for easier assertions
func mustTokenizeNoEOF(t *testing.T, source string) []Token {
	t.Helper()
	tokens := mustTokenize(t, source)
	if len(tokens) == 0 {
		t.Fatal("expected at least one token (EOF)")
	}
	if tokens[len(tokens)-1].Type != TokEOF {
		t.Fatal("last token is not EOF")
	}
	return tokens[:len(tokens)-1]
}

// helper: tokenize and expect a *LexError
func mustFailLex(t *testing.T, source string) *LexError {
	t.Helper()
	_, err := Tokenize(source, "test.lox")
	if err == nil {
		t.Fatalf("expected lex error for %q", source)
	}
	le, ok := err.(*LexError)
	if !ok {
		t.Fatalf("expected *LexError, got %T", err)
	}
	if le.Diag.Code != "E_LEX" {
		t.Errorf("expected E_LEX, got %s", le.Diag.Code)
	}
	return le
}

func types(tokens []Token) []TokenType {
	out := make([]TokenType, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Type
	}
	return out
}

func assertTypes(t *testing.T, got []Token, want ...TokenType) {
	t.Helper()
	gt := types(got)
	if len(gt) != len(want) {
		t.Fatalf("expected %d tokens, got %d (%v)", len(want), len(gt), gt)
	}
	for i := range want {
		if gt[i] != want[i] {
			t.Errorf("token %d: expected type %d, got %d", i, want[i], gt[i])
		}
	}
}

// ---------------------------------------------------------------------------
// Test: empty input produces only EOF
// ---------------------------------------------------------------------------
func TestEmptyInput(t *testing.T) {
	tokens := mustTokenize(t, "")
	if len(tokens) != 1 {
		t.Fatalf("expected 1 token (EOF), got %d", len(tokens))
	}
	if tokens[0].Type != TokEOF {
		t.Errorf("expected TokEOF, got %v", tokens[0].Type)
	}
}

// ---------------------------------------------------------------------------
// Test: all keywords
// ---------------------------------------------------------------------------
func TestKeywords(t *testing.T) {
	for word, expected := range keywords {
		t.Run(word, func(t *testing.T) {
			tokens := mustTokenizeNoEOF(t, word)
			if len(tokens) != 1 {
				t.Fatalf("expected 1 token, got %d", len(tokens))
			}
			if tokens[0].Type != expected {
				t.Errorf("expected token type %d, got %d", expected, tokens[0].Type)
			}
			if !IsKeyword(tokens[0].Type) {
				t.Errorf("expected %q to be reported as a keyword", word)
			}
		})
	}
}

func TestKeywordVsIdentifier(t *testing.T) {
	tests := []struct {
		input    string
		expected TokenType
	}{
		{"class", TokClass},
		{"classy", TokIdent},
		{"fun", TokFun},
		{"funny", TokIdent},
		{"or", TokOr},
		{"orchid", TokIdent},
		{"nil", TokNil},
		{"nile", TokIdent},
		{"this", TokThis},
		{"thistle", TokIdent},
		{"break", TokBreak},
		{"breakfast", TokIdent},
		{"Var", TokIdent},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tokens := mustTokenizeNoEOF(t, tt.input)
			if len(tokens) != 1 {
				t.Fatalf("expected 1 token, got %d", len(tokens))
			}
			if tokens[0].Type != tt.expected {
				t.Errorf("expected type %d for %q, got %d", tt.expected, tt.input, tokens[0].Type)
			}
		})
	}
}

func TestIdentifiers(t *testing.T) {
	for _, input := range []string{"x", "foo", "_private", "name123", "_", "camelCase", "a1b2c3"} {
		t.Run(input, func(t *testing.T) {
			tokens := mustTokenizeNoEOF(t, input)
			if len(tokens) != 1 || tokens[0].Type != TokIdent {
				t.Fatalf("expected a single TokIdent, got %v", types(tokens))
			}
			if tokens[0].Value != input {
				t.Errorf("expected value %q, got %q", input, tokens[0].Value)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Test: number literals
// ---------------------------------------------------------------------------
func TestNumberLiterals(t *testing.T) {
	for _, input := range []string{"0", "42", "007", "3.14", "100.0", "1.23456789"} {
		t.Run(input, func(t *testing.T) {
			tokens := mustTokenizeNoEOF(t, input)
			if len(tokens) != 1 || tokens[0].Type != TokNumber {
				t.Fatalf("expected a single TokNumber, got %v", types(tokens))
			}
			if tokens[0].Value != input {
				t.Errorf("expected value %q, got %q", input, tokens[0].Value)
			}
		})
	}
}

func TestNumberTrailingDot(t *testing.T) {
	// "1." is a number followed by a dot, not a fraction.
	tokens := mustTokenizeNoEOF(t, "1.")
	assertTypes(t, tokens, TokNumber, TokDot)
	if tokens[0].Value != "1" {
		t.Errorf("expected value %q, got %q", "1", tokens[0].Value)
	}
}

func TestLeadingDotIsNotNumber(t *testing.T) {
	tokens := mustTokenizeNoEOF(t, ".5")
	assertTypes(t, tokens, TokDot, TokNumber)
}

func TestNegativeNumberIsTwoTokens(t *testing.T) {
	tokens := mustTokenizeNoEOF(t, "-7")
	assertTypes(t, tokens, TokMinus, TokNumber)
}

// ---------------------------------------------------------------------------
// Test: string literals
// ---------------------------------------------------------------------------
func TestStringLiterals(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty string", `""`, ""},
		{"simple", `"hello"`, "hello"},
		{"with spaces", `"hello world"`, "hello world"},
		{"backslash is literal", `"C:\dir"`, `C:\dir`},
		{"backslash n stays two characters", `"a\nb"`, `a\nb`},
		{"trailing backslash", `"a\"`, `a\`},
		{"unicode", `"héllo"`, "héllo"},
		{"multi-line", "\"line1\nline2\"", "line1\nline2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens := mustTokenizeNoEOF(t, tt.input)
			if len(tokens) != 1 || tokens[0].Type != TokString {
				t.Fatalf("expected a single TokString, got %v", types(tokens))
			}
			if tokens[0].Value != tt.expected {
				t.Errorf("expected value %q, got %q", tt.expected, tokens[0].Value)
			}
		})
	}
}

func TestMultiLineStringAdvancesLine(t *testing.T) {
	tokens := mustTokenizeNoEOF(t, "\"a\nb\" x")
	assertTypes(t, tokens, TokString, TokIdent)
	if tokens[1].Span.StartLine != 2 {
		t.Errorf("expected identifier on line 2, got %d", tokens[1].Span.StartLine)
	}
}

// ---------------------------------------------------------------------------
// Test: operators and punctuation
// ---------------------------------------------------------------------------
func TestOperators(t *testing.T) {
	tests := []struct {
		input    string
		expected TokenType
	}{
		{"(", TokLParen},
		{")", TokRParen},
		{"{", TokLBrace},
		{"}", TokRBrace},
		{",", TokComma},
		{".", TokDot},
		{";", TokSemicolon},
		{"?", TokQuestion},
		{":", TokColon},
		{"-", TokMinus},
		{"+", TokPlus},
		{"/", TokSlash},
		{"*", TokStar},
		{"!", TokBang},
		{"!=", TokBangEq},
		{"=", TokEquals},
		{"==", TokEqEq},
		{">", TokGt},
		{">=", TokGtEq},
		{"<", TokLt},
		{"<=", TokLtEq},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tokens := mustTokenizeNoEOF(t, tt.input)
			if len(tokens) != 1 {
				t.Fatalf("expected 1 token, got %d", len(tokens))
			}
			if tokens[0].Type != tt.expected {
				t.Errorf("expected type %d, got %d", tt.expected, tokens[0].Type)
			}
			if tokens[0].Value != tt.input {
				t.Errorf("expected value %q, got %q", tt.input, tokens[0].Value)
			}
		})
	}
}

func TestAdjacentEqualsSplit(t *testing.T) {
	tokens := mustTokenizeNoEOF(t, "a===b")
	assertTypes(t, tokens, TokIdent, TokEqEq, TokEquals, TokIdent)
}

// ---------------------------------------------------------------------------
// Test: comments
// ---------------------------------------------------------------------------
func TestLineComment(t *testing.T) {
	tokens := mustTokenizeNoEOF(t, "print 1; // trailing comment\nprint 2;")
	assertTypes(t, tokens, TokPrint, TokNumber, TokSemicolon, TokPrint, TokNumber, TokSemicolon)
}

func TestBlockComment(t *testing.T) {
	tokens := mustTokenizeNoEOF(t, "a /* skip\n this */ b")
	assertTypes(t, tokens, TokIdent, TokIdent)
	if tokens[1].Span.StartLine != 2 {
		t.Errorf("expected b on line 2, got %d", tokens[1].Span.StartLine)
	}
}

func TestSlashIsNotComment(t *testing.T) {
	tokens := mustTokenizeNoEOF(t, "6 / 2")
	assertTypes(t, tokens, TokNumber, TokSlash, TokNumber)
}

// ---------------------------------------------------------------------------
// Test: spans
// ---------------------------------------------------------------------------
func TestSpans(t *testing.T) {
	tokens := mustTokenizeNoEOF(t, "var x\n  = 10;")
	if tokens[0].Span.StartLine != 1 || tokens[0].Span.StartCol != 1 {
		t.Errorf("var: expected 1:1, got %d:%d", tokens[0].Span.StartLine, tokens[0].Span.StartCol)
	}
	if tokens[1].Span.StartCol != 5 {
		t.Errorf("x: expected col 5, got %d", tokens[1].Span.StartCol)
	}
	if tokens[2].Span.StartLine != 2 || tokens[2].Span.StartCol != 3 {
		t.Errorf("=: expected 2:3, got %d:%d", tokens[2].Span.StartLine, tokens[2].Span.StartCol)
	}
	if tokens[3].Span.EndCol != 7 {
		t.Errorf("10: expected end col 7, got %d", tokens[3].Span.EndCol)
	}
	if tokens[0].Span.File != "test.lox" {
		t.Errorf("expected file test.lox, got %q", tokens[0].Span.File)
	}
}

// ---------------------------------------------------------------------------
// Test: errors
// ---------------------------------------------------------------------------
func TestLexErrors(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		contains     string
		unterminated bool
	}{
		{"unterminated string", `"abc`, "Unterminated string", true},
		{"unterminated block comment", "/* never closed", "Unterminated block comment", true},
		{"unexpected character", "@", "Unexpected character '@'", false},
		{"hash is not a comment", "# nope", "Unexpected character '#'", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			le := mustFailLex(t, tt.input)
			if !strings.Contains(le.Error(), tt.contains) {
				t.Errorf("expected error containing %q, got %q", tt.contains, le.Error())
			}
			if le.Unterminated() != tt.unterminated {
				t.Errorf("Unterminated() = %v, want %v", le.Unterminated(), tt.unterminated)
			}
			if le.Diag.Span == nil {
				t.Error("expected span on lex diagnostic")
			}
		})
	}
}

func TestFullProgram(t *testing.T) {
	src := `class Point < Base {
  init(x, y) { this.x = x; this.y = y; }
  class origin() { return Point(0, 0); }
}
var p = Point(1, 2);
print p.x >= 1 ? "yes" : "no";`
	tokens := mustTokenize(t, src)
	if tokens[len(tokens)-1].Type != TokEOF {
		t.Fatal("expected trailing EOF")
	}
	counts := map[TokenType]int{}
	for _, tok := range tokens {
		counts[tok.Type]++
	}
	if counts[TokClass] != 2 {
		t.Errorf("expected 2 class tokens, got %d", counts[TokClass])
	}
	if counts[TokThis] != 2 {
		t.Errorf("expected 2 this tokens, got %d", counts[TokThis])
	}
	if counts[TokQuestion] != 1 || counts[TokColon] != 1 {
		t.Errorf("expected one ? and one :, got %d and %d", counts[TokQuestion], counts[TokColon])
	}
}
