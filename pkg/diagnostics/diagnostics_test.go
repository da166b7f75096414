package diagnostics_test

import (
	"strings"
	"testing"

	"github.com/thomasrohde/golox/pkg/ast"
	"github.com/thomasrohde/golox/pkg/diagnostics"
)

func TestMakeDiag(t *testing.T) {
	span := &ast.Span{File: "test.lox", StartLine: 1, StartCol: 1, EndLine: 1, EndCol: 5}
	d := diagnostics.MakeDiag(diagnostics.EParse, "Expect ';' after value.", span, "")

	if d.Code != diagnostics.EParse {
		t.Errorf("got Code = %q, want %q", d.Code, diagnostics.EParse)
	}
	if d.Message != "Expect ';' after value." {
		t.Errorf("got Message = %q", d.Message)
	}
}

func TestFormatDiagnosticPretty(t *testing.T) {
	span := &ast.Span{File: "test.lox", StartLine: 3, StartCol: 5, EndLine: 3, EndCol: 10}
	d := diagnostics.MakeDiag(diagnostics.EUndefinedVar, "Undefined variable 'x'.", span, "declare it with 'var x;'")

	out := diagnostics.FormatDiagnostic(d, true)
	if !strings.Contains(out, "error[E_UNDEFINED_VAR]") {
		t.Errorf("expected error code in output, got: %s", out)
	}
	if !strings.Contains(out, "test.lox:3:5") {
		t.Errorf("expected location in output, got: %s", out)
	}
	if !strings.Contains(out, "hint:") {
		t.Errorf("expected hint in output, got: %s", out)
	}
}

func TestFormatDiagnosticJSON(t *testing.T) {
	d := diagnostics.MakeDiag(diagnostics.ELex, "Unexpected character '@'.", nil, "")
	out := diagnostics.FormatDiagnostic(d, false)
	if !strings.Contains(out, `"code":"E_LEX"`) {
		t.Errorf("expected JSON code in output, got: %s", out)
	}
	if strings.Contains(out, `"span"`) {
		t.Errorf("expected span to be omitted, got: %s", out)
	}
}

func TestFormatDiagnosticsJoinsPretty(t *testing.T) {
	diags := []diagnostics.Diagnostic{
		diagnostics.MakeDiag(diagnostics.EReturnTopLevel, "Can't return from top-level code.", nil, ""),
		diagnostics.MakeDiag(diagnostics.ESelfInit, "Can't read variable 'a' in its own initializer.", nil, ""),
	}
	out := diagnostics.FormatDiagnostics(diags, true)
	if strings.Count(out, "error[") != 2 {
		t.Errorf("expected two formatted diagnostics, got: %s", out)
	}
}

func TestIsRuntime(t *testing.T) {
	if !diagnostics.IsRuntime(diagnostics.EDivZero) {
		t.Error("E_DIV_ZERO should be a runtime code")
	}
	if diagnostics.IsRuntime(diagnostics.ESelfInit) {
		t.Error("E_SELF_INIT should not be a runtime code")
	}
	if diagnostics.IsRuntime(diagnostics.EInternal) {
		t.Error("E_INTERNAL is reported separately from runtime errors")
	}
}
