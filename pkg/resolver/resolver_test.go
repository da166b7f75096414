package resolver_test

import (
	"strings"
	"testing"

	"github.com/thomasrohde/golox/pkg/ast"
	"github.com/thomasrohde/golox/pkg/diagnostics"
	"github.com/thomasrohde/golox/pkg/parser"
	"github.com/thomasrohde/golox/pkg/resolver"
)

// helper parses source and resolves it. It fatals on parse errors so test
// cases focus on resolver behavior.
func mustParseAndResolve(t *testing.T, source string) (*ast.Program, resolver.Distances, []diagnostics.Diagnostic) {
	t.Helper()
	prog, parseErrs := parser.Parse(source, "test.lox")
	if len(parseErrs) > 0 {
		t.Fatalf("unexpected parse error: %s", parseErrs[0].Message)
	}
	dist, diags := resolver.Resolve(prog)
	return prog, dist, diags
}

func resolveDiags(t *testing.T, source string) []diagnostics.Diagnostic {
	t.Helper()
	_, _, diags := mustParseAndResolve(t, source)
	return diags
}

// assertNoDiags asserts zero diagnostics were produced.
func assertNoDiags(t *testing.T, diags []diagnostics.Diagnostic) {
	t.Helper()
	if len(diags) != 0 {
		var msgs []string
		for _, d := range diags {
			msgs = append(msgs, d.Code+": "+d.Message)
		}
		t.Errorf("expected no diagnostics, got %d:\n  %s", len(diags), strings.Join(msgs, "\n  "))
	}
}

// assertHasCode asserts that at least one diagnostic with the given code exists.
func assertHasCode(t *testing.T, diags []diagnostics.Diagnostic, code string) {
	t.Helper()
	for _, d := range diags {
		if d.Code == code {
			return
		}
	}
	var codes []string
	for _, d := range diags {
		codes = append(codes, d.Code)
	}
	t.Errorf("expected diagnostic code %s, got codes: %v", code, codes)
}

// findVar returns the n-th VariableExpr named name in source order.
func findVar(prog *ast.Program, name string, n int) *ast.VariableExpr {
	var found []*ast.VariableExpr
	var walkExpr func(ast.Expr)
	var walkStmt func(ast.Stmt)
	walkExpr = func(e ast.Expr) {
		switch x := e.(type) {
		case *ast.VariableExpr:
			if x.Name == name {
				found = append(found, x)
			}
		case *ast.GroupingExpr:
			walkExpr(x.Expr)
		case *ast.UnaryExpr:
			walkExpr(x.Operand)
		case *ast.BinaryExpr:
			walkExpr(x.Left)
			walkExpr(x.Right)
		case *ast.LogicalExpr:
			walkExpr(x.Left)
			walkExpr(x.Right)
		case *ast.AssignExpr:
			walkExpr(x.Value)
		case *ast.CallExpr:
			walkExpr(x.Callee)
			for _, a := range x.Args {
				walkExpr(a)
			}
		case *ast.FunctionExpr:
			for _, s := range x.Body {
				walkStmt(s)
			}
		}
	}
	walkStmt = func(s ast.Stmt) {
		switch x := s.(type) {
		case *ast.ExprStmt:
			walkExpr(x.Expr)
		case *ast.PrintStmt:
			walkExpr(x.Expr)
		case *ast.VarStmt:
			if x.Init != nil {
				walkExpr(x.Init)
			}
		case *ast.BlockStmt:
			for _, st := range x.Statements {
				walkStmt(st)
			}
		case *ast.ReturnStmt:
			if x.Value != nil {
				walkExpr(x.Value)
			}
		case *ast.FunctionStmt:
			for _, st := range x.Body {
				walkStmt(st)
			}
		case *ast.ForStmt:
			if x.Init != nil {
				walkStmt(x.Init)
			}
			if x.Cond != nil {
				walkExpr(x.Cond)
			}
			walkStmt(x.Body)
			if x.Incr != nil {
				walkExpr(x.Incr)
			}
		case *ast.WhileStmt:
			walkExpr(x.Cond)
			walkStmt(x.Body)
		case *ast.IfStmt:
			walkExpr(x.Cond)
			walkStmt(x.Then)
			if x.Else != nil {
				walkStmt(x.Else)
			}
		}
	}
	for _, s := range prog.Statements {
		walkStmt(s)
	}
	if n >= len(found) {
		return nil
	}
	return found[n]
}

// ===== Valid programs =====

func TestValidPrograms(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"globals", "var a = 1; print a;"},
		{"global redeclaration reads old value", "var a = 1; var a = a + 1;"},
		{"recursive function", "fun fib(n) { if (n < 2) return n; return fib(n - 1) + fib(n - 2); }"},
		{"local recursive function", "{ fun f(n) { if (n > 0) f(n - 1); } f(3); }"},
		{"anonymous self reference", "{ var f = fun () { return f; }; }"},
		{"forward global reference", "fun f() { return g(); } fun g() { return 1; }"},
		{"break in while", "while (true) break;"},
		{"break in for", "for (;;) { if (true) break; }"},
		{"bare return in init", "class A { init() { return; } }"},
		{"this in method", "class A { m() { return this; } }"},
		{"this in static", "class A { class make() { return this(); } }"},
		{"this in closure in method", "class A { m() { return fun () { return this; }; } }"},
		{"super in subclass", "class A { m() {} } class B < A { m() { return super.m(); } }"},
		{"shadowing", "var a = 1; { var a = 2; print a; } print a;"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertNoDiags(t, resolveDiags(t, tt.source))
		})
	}
}

func TestBoundGlobalsAreReady(t *testing.T) {
	prog, diags := parser.Parse("var clock = clock; var a = a + 1; var b = b;", "test.lox")
	if len(diags) > 0 {
		t.Fatalf("unexpected parse error: %s", diags[0].Message)
	}
	_, diags = resolver.Resolve(prog, "clock", "a")
	if len(diags) != 1 {
		t.Fatalf("expected only the unbound name to be rejected, got %d diagnostics", len(diags))
	}
	if diags[0].Code != diagnostics.ESelfInit || !strings.Contains(diags[0].Message, "'b'") {
		t.Errorf("unexpected diagnostic %s: %s", diags[0].Code, diags[0].Message)
	}
}

// ===== Invalid programs =====

func TestResolutionErrors(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		code    string
		message string
	}{
		{"top-level return", "return 1;", diagnostics.EReturnTopLevel, "Can't return from top-level code."},
		{"global self init", "var a = a;", diagnostics.ESelfInit, "Can't read variable 'a' in its own initializer."},
		{"local self init", "var a = 1; { var a = a; }", diagnostics.ESelfInit, "own initializer"},
		{"break outside loop", "break;", diagnostics.EBreakOutsideLoop, "Can't use 'break' outside of a loop."},
		{"break in function inside loop", "while (true) { fun f() { break; } }", diagnostics.EBreakOutsideLoop, "outside of a loop"},
		{"duplicate param", "fun f(a, a) {}", diagnostics.EDupParam, "Duplicate parameter 'a'."},
		{"value return in init", "class A { init() { return 1; } }", diagnostics.EReturnInit, "Can't return a value from an initializer."},
		{"this outside class", "print this;", diagnostics.EThisOutsideClass, "Can't use 'this' outside of a class."},
		{"this in plain function", "fun f() { return this; }", diagnostics.EThisOutsideClass, "outside of a class"},
		{"super outside class", "print super.x;", diagnostics.ESuperOutsideClass, "Can't use 'super' outside of a class."},
		{"super without superclass", "class A { m() { super.m(); } }", diagnostics.ESuperNoSuperclass, "no superclass"},
		{"inherit self", "class A < A {}", diagnostics.EInheritSelf, "A class can't inherit from itself."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diags := resolveDiags(t, tt.source)
			assertHasCode(t, diags, tt.code)
			for _, d := range diags {
				if d.Code == tt.code && !strings.Contains(d.Message, tt.message) {
					t.Errorf("expected message containing %q, got %q", tt.message, d.Message)
				}
				if d.Span == nil {
					t.Error("expected span on resolver diagnostic")
				}
			}
		})
	}
}

func TestDistinctErrorsForReturnAndSelfInit(t *testing.T) {
	ret := resolveDiags(t, "return;")
	self := resolveDiags(t, "var a = a;")
	if len(ret) != 1 || len(self) != 1 {
		t.Fatalf("expected one diagnostic each, got %d and %d", len(ret), len(self))
	}
	if ret[0].Code == self[0].Code {
		t.Errorf("expected distinct codes, both were %s", ret[0].Code)
	}
}

func TestErrorsAreCollected(t *testing.T) {
	diags := resolveDiags(t, "return 1;\nbreak;\nvar a = a;")
	if len(diags) != 3 {
		t.Fatalf("expected 3 diagnostics, got %d", len(diags))
	}
	assertHasCode(t, diags, diagnostics.EReturnTopLevel)
	assertHasCode(t, diags, diagnostics.EBreakOutsideLoop)
	assertHasCode(t, diags, diagnostics.ESelfInit)
}

func TestErrorsReturnNilTable(t *testing.T) {
	_, dist, diags := mustParseAndResolve(t, "{ var a = 1; print a; } return;")
	if len(diags) == 0 {
		t.Fatal("expected diagnostics")
	}
	if dist != nil {
		t.Error("expected nil distance table alongside diagnostics")
	}
}

// ===== Distances =====

func TestGlobalsHaveNoEntry(t *testing.T) {
	prog, dist, diags := mustParseAndResolve(t, "var a = 1; print a; fun f() { return a; }")
	assertNoDiags(t, diags)
	for i := 0; i < 2; i++ {
		v := findVar(prog, "a", i)
		if v == nil {
			t.Fatalf("missing reference %d", i)
		}
		if d, ok := dist[v]; ok {
			t.Errorf("reference %d: expected no entry for global, got %d", i, d)
		}
	}
}

func TestBlockDistances(t *testing.T) {
	prog, dist, diags := mustParseAndResolve(t, `{
  var a = 1;
  print a;
  {
    print a;
    {
      print a;
    }
  }
}`)
	assertNoDiags(t, diags)
	for i, want := range []int{0, 1, 2} {
		v := findVar(prog, "a", i)
		if got, ok := dist[v]; !ok || got != want {
			t.Errorf("reference %d: got distance %d (present=%v), want %d", i, got, ok, want)
		}
	}
}

func TestShadowingDistances(t *testing.T) {
	prog, dist, diags := mustParseAndResolve(t, `{
  var a = 1;
  {
    var a = 2;
    print a;
  }
  print a;
}`)
	assertNoDiags(t, diags)
	inner, outer := findVar(prog, "a", 0), findVar(prog, "a", 1)
	if dist[inner] != 0 || dist[outer] != 0 {
		t.Errorf("expected both reads to resolve to distance 0 in their own block, got %d and %d", dist[inner], dist[outer])
	}
}

func TestClosureDistance(t *testing.T) {
	prog, dist, diags := mustParseAndResolve(t, `{
  var x = 1;
  fun f() { return x; }
}`)
	assertNoDiags(t, diags)
	v := findVar(prog, "x", 0)
	if got, ok := dist[v]; !ok || got != 1 {
		t.Errorf("expected distance 1 from function body to enclosing block, got %d (present=%v)", got, ok)
	}
}

func TestParamDistance(t *testing.T) {
	prog, dist, diags := mustParseAndResolve(t, "fun f(a) { print a; { print a; } }")
	assertNoDiags(t, diags)
	if d := dist[findVar(prog, "a", 0)]; d != 0 {
		t.Errorf("expected param read at distance 0, got %d", d)
	}
	if d := dist[findVar(prog, "a", 1)]; d != 1 {
		t.Errorf("expected nested param read at distance 1, got %d", d)
	}
}

func TestForLoopDistances(t *testing.T) {
	prog, dist, diags := mustParseAndResolve(t, "for (var i = 0; i < 3; i = i + 1) print i;")
	assertNoDiags(t, diags)
	// cond runs in the initializer frame; body and increment run one frame deeper.
	cond, incrRead, body := findVar(prog, "i", 0), findVar(prog, "i", 2), findVar(prog, "i", 1)
	if d := dist[cond]; d != 0 {
		t.Errorf("cond: expected distance 0, got %d", d)
	}
	if d := dist[body]; d != 1 {
		t.Errorf("body: expected distance 1, got %d", d)
	}
	if d := dist[incrRead]; d != 1 {
		t.Errorf("increment: expected distance 1, got %d", d)
	}
}

func TestThisAndSuperDistances(t *testing.T) {
	prog, dist, diags := mustParseAndResolve(t, `class A { m() { return 1; } }
class B < A {
  m() { return super.m() + this.n; }
}`)
	assertNoDiags(t, diags)
	b := prog.Statements[1].(*ast.ClassStmt)
	ret := b.Methods[0].Body[0].(*ast.ReturnStmt)
	sum := ret.Value.(*ast.BinaryExpr)
	sup := sum.Left.(*ast.CallExpr).Callee.(*ast.SuperExpr)
	this := sum.Right.(*ast.GetExpr).Object.(*ast.ThisExpr)
	if d, ok := dist[this]; !ok || d != 1 {
		t.Errorf("this: expected distance 1, got %d (present=%v)", d, ok)
	}
	if d, ok := dist[sup]; !ok || d != 2 {
		t.Errorf("super: expected distance 2, got %d (present=%v)", d, ok)
	}
}

func TestAssignmentRecorded(t *testing.T) {
	prog, dist, diags := mustParseAndResolve(t, "{ var a; a = 1; }")
	assertNoDiags(t, diags)
	block := prog.Statements[0].(*ast.BlockStmt)
	assign := block.Statements[1].(*ast.ExprStmt).Expr.(*ast.AssignExpr)
	if d, ok := dist[assign]; !ok || d != 0 {
		t.Errorf("expected assignment at distance 0, got %d (present=%v)", d, ok)
	}
}
