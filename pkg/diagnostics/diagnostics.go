// Package diagnostics defines Lox diagnostic types for lex, parse, resolve and runtime errors.
package diagnostics

import (
	"fmt"
	"strings"

	"github.com/oarkflow/json"

	"github.com/thomasrohde/golox/pkg/ast"
)

// Diagnostic code constants.
const (
	// Front end
	ELex   = "E_LEX"
	EParse = "E_PARSE"

	// Resolver
	EReturnTopLevel    = "E_RETURN_TOP_LEVEL"
	EBreakOutsideLoop  = "E_BREAK_OUTSIDE_LOOP"
	ESelfInit          = "E_SELF_INIT"
	EDupParam          = "E_DUP_PARAM"
	EReturnInit        = "E_RETURN_INIT"
	EThisOutsideClass  = "E_THIS_OUTSIDE_CLASS"
	ESuperOutsideClass = "E_SUPER_OUTSIDE_CLASS"
	ESuperNoSuperclass = "E_SUPER_NO_SUPERCLASS"
	EInheritSelf       = "E_INHERIT_SELF"

	// Runtime
	EType          = "E_TYPE"
	EDivZero       = "E_DIV_ZERO"
	EUndefinedVar  = "E_UNDEFINED_VAR"
	EUndefinedProp = "E_UNDEFINED_PROP"
	ENotCallable   = "E_NOT_CALLABLE"
	EArity         = "E_ARITY"
	ENotInstance   = "E_NOT_INSTANCE"
	ESuperclass    = "E_SUPERCLASS"
	EStackOverflow = "E_STACK_OVERFLOW"
	ECanceled      = "E_CANCELED"
	ENative        = "E_NATIVE"
	EInternal      = "E_INTERNAL"

	// Host
	EIO     = "E_IO"
	EConfig = "E_CONFIG"
)

// Diagnostic represents a lex, parse, resolution or runtime diagnostic.
type Diagnostic struct {
	Code    string    `json:"code"`
	Message string    `json:"message"`
	Span    *ast.Span `json:"span,omitempty"`
	Hint    string    `json:"hint,omitempty"`
}

// MakeDiag creates a new Diagnostic.
func MakeDiag(code, message string, span *ast.Span, hint string) Diagnostic {
	return Diagnostic{
		Code:    code,
		Message: message,
		Span:    span,
		Hint:    hint,
	}
}

// IsRuntime reports whether code belongs to the runtime error family.
func IsRuntime(code string) bool {
	switch code {
	case EType, EDivZero, EUndefinedVar, EUndefinedProp, ENotCallable, EArity,
		ENotInstance, ESuperclass, EStackOverflow, ECanceled, ENative:
		return true
	}
	return false
}

// FormatDiagnostic formats a single diagnostic for display.
func FormatDiagnostic(d Diagnostic, pretty bool) string {
	if !pretty {
		b, _ := json.Marshal(d)
		return string(b)
	}
	loc := "<unknown>"
	if d.Span != nil {
		loc = fmt.Sprintf("%s:%d:%d", d.Span.File, d.Span.StartLine, d.Span.StartCol)
	}
	out := fmt.Sprintf("error[%s]: %s\n  --> %s", d.Code, d.Message, loc)
	if d.Hint != "" {
		out += fmt.Sprintf("\n  hint: %s", d.Hint)
	}
	return out
}

// FormatDiagnostics formats a slice of diagnostics for display.
func FormatDiagnostics(diags []Diagnostic, pretty bool) string {
	if !pretty {
		b, _ := json.Marshal(diags)
		return string(b)
	}
	parts := make([]string, len(diags))
	for i, d := range diags {
		parts[i] = FormatDiagnostic(d, true)
	}
	return strings.Join(parts, "\n\n")
}
