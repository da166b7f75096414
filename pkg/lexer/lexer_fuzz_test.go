package lexer

import (
	"testing"
)

// FuzzTokenize feeds random inputs to the lexer to catch panics.
// Invalid input must produce an error, never a panic.
func FuzzTokenize(f *testing.F) {
	seeds := []string{
		// Keywords
		`and break class else false for fun if nil or`,
		`print return super this true var while`,
		// Literals
		`42 3.14 0 1.`,
		`"hello" "with\nescape" "quote\""`,
		// Operators
		`+ - * / > < >= <= == != = !`,
		// Punctuation
		`( ) { } , . ; ? :`,
		// Identifiers
		`x foo bar_baz myVar`,
		// Comments
		`// line comment`,
		`/* block */`,
		// Mixed
		`var x = 42;`,
		`fun f(a, b) { return a + b; }`,
		// Edge cases
		``,
		`   `,
		"\t\n\r",
		`"unterminated`,
		`/* unterminated`,
		`"""`,
		`@#$^&`,
		"\x00",
		"\"\xff\"",
		`..`,
		`.5`,
	}

	for _, s := range seeds {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, input string) {
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Fatalf("Tokenize panicked on input %q: %v", input, r)
				}
			}()
			Tokenize(input, "fuzz.lox")
		}()
	})
}
