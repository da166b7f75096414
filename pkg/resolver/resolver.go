// Package resolver computes static scope distances for Lox programs and
// rejects structurally invalid programs before they run.
package resolver

import (
	"fmt"

	"github.com/thomasrohde/golox/pkg/ast"
	"github.com/thomasrohde/golox/pkg/diagnostics"
)

// Distances maps each resolved variable, assignment, this and super node to
// the number of frames between its use and the frame that declares it.
// Nodes without an entry are globals.
type Distances map[ast.Expr]int

type functionKind int

const (
	fnNone functionKind = iota
	fnFunction
	fnMethod
	fnInitializer
	fnStatic
)

type classKind int

const (
	classNone classKind = iota
	classPlain
	classSub
)

// scope records which names are ready (initializer resolved) in one
// static frame, and the function nesting depth the frame belongs to.
type scope struct {
	names   map[string]bool
	fnDepth int
}

func newScope(fnDepth int) *scope {
	return &scope{names: make(map[string]bool), fnDepth: fnDepth}
}

type resolver struct {
	globals      *scope
	scopes       []*scope
	fnDepth      int
	loopDepth    int
	currentFn    functionKind
	currentClass classKind
	distances    Distances
	diags        []diagnostics.Diagnostic
}

// Resolve walks program once and returns its distance table. All structural
// errors are collected; when any are returned the table must not be used.
// bound names globals that already exist, such as natives or earlier REPL
// declarations; reading them in a redeclaring initializer is legal.
func Resolve(program *ast.Program, bound ...string) (Distances, []diagnostics.Diagnostic) {
	r := &resolver{
		globals:   newScope(0),
		distances: make(Distances),
	}
	for _, name := range bound {
		r.globals.names[name] = true
	}
	r.resolveStmts(program.Statements)
	if len(r.diags) > 0 {
		return nil, r.diags
	}
	return r.distances, nil
}

func (r *resolver) addDiag(code, msg string, span ast.Span) {
	r.diags = append(r.diags, diagnostics.MakeDiag(code, msg, &span, ""))
}

func (r *resolver) beginScope() {
	r.scopes = append(r.scopes, newScope(r.fnDepth))
}

func (r *resolver) endScope() {
	r.scopes = r.scopes[:len(r.scopes)-1]
}

func (r *resolver) innermost() *scope {
	if len(r.scopes) == 0 {
		return r.globals
	}
	return r.scopes[len(r.scopes)-1]
}

// declare marks name as not yet ready. A name that is already ready in the
// same scope keeps its ready state, so `var a = 1; var a = a;` stays legal.
func (r *resolver) declare(name string) {
	sc := r.innermost()
	if sc.names[name] {
		return
	}
	sc.names[name] = false
}

func (r *resolver) define(name string) {
	r.innermost().names[name] = true
}

// resolveLocal records the hop distance for expr. Reads of a name whose
// initializer is still being resolved fail when they happen at the same
// function depth; reads from a nested function body run later and are fine.
func (r *resolver) resolveLocal(expr ast.Expr, name string, read bool) {
	for i := len(r.scopes) - 1; i >= 0; i-- {
		sc := r.scopes[i]
		ready, ok := sc.names[name]
		if !ok {
			continue
		}
		if read && !ready && sc.fnDepth == r.fnDepth {
			r.selfInit(name, expr.NodeSpan())
		}
		r.distances[expr] = len(r.scopes) - 1 - i
		return
	}

	ready, ok := r.globals.names[name]
	if read && ok && !ready && r.fnDepth == 0 {
		r.selfInit(name, expr.NodeSpan())
	}
}

func (r *resolver) selfInit(name string, span ast.Span) {
	r.addDiag(diagnostics.ESelfInit, fmt.Sprintf("Can't read variable '%s' in its own initializer.", name), span)
}

// --- Statements ---

func (r *resolver) resolveStmts(stmts []ast.Stmt) {
	for _, stmt := range stmts {
		r.resolveStmt(stmt)
	}
}

func (r *resolver) resolveStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.ExprStmt:
		r.resolveExpr(s.Expr)
	case *ast.PrintStmt:
		r.resolveExpr(s.Expr)
	case *ast.VarStmt:
		r.declare(s.Name)
		if s.Init != nil {
			r.resolveExpr(s.Init)
		}
		r.define(s.Name)
	case *ast.BlockStmt:
		r.beginScope()
		r.resolveStmts(s.Statements)
		r.endScope()
	case *ast.IfStmt:
		r.resolveExpr(s.Cond)
		r.resolveStmt(s.Then)
		if s.Else != nil {
			r.resolveStmt(s.Else)
		}
	case *ast.WhileStmt:
		r.resolveExpr(s.Cond)
		r.loopDepth++
		r.resolveStmt(s.Body)
		r.loopDepth--
	case *ast.ForStmt:
		r.resolveFor(s)
	case *ast.BreakStmt:
		if r.loopDepth == 0 {
			r.addDiag(diagnostics.EBreakOutsideLoop, "Can't use 'break' outside of a loop.", s.Span)
		}
	case *ast.ReturnStmt:
		if r.currentFn == fnNone {
			r.addDiag(diagnostics.EReturnTopLevel, "Can't return from top-level code.", s.Span)
		}
		if s.Value != nil {
			if r.currentFn == fnInitializer {
				r.addDiag(diagnostics.EReturnInit, "Can't return a value from an initializer.", s.Span)
			}
			r.resolveExpr(s.Value)
		}
	case *ast.FunctionStmt:
		// Defined before the body so the function can call itself.
		r.declare(s.Name)
		r.define(s.Name)
		r.resolveFunction(s.Params, s.Body, fnFunction)
	case *ast.ClassStmt:
		r.resolveClass(s)
	}
}

// resolveFor mirrors the interpreter's frames: an optional frame for the
// initializer, then a fresh frame per iteration holding body and increment.
func (r *resolver) resolveFor(s *ast.ForStmt) {
	if s.Init != nil {
		r.beginScope()
		r.resolveStmt(s.Init)
	}
	if s.Cond != nil {
		r.resolveExpr(s.Cond)
	}

	r.loopDepth++
	r.beginScope()
	r.resolveStmt(s.Body)
	if s.Incr != nil {
		r.resolveExpr(s.Incr)
	}
	r.endScope()
	r.loopDepth--

	if s.Init != nil {
		r.endScope()
	}
}

// resolveFunction resolves params and body in one scope; the interpreter
// runs the body directly in the parameter frame.
func (r *resolver) resolveFunction(params []ast.Param, body []ast.Stmt, kind functionKind) {
	enclosingFn, enclosingLoop := r.currentFn, r.loopDepth
	r.currentFn = kind
	r.loopDepth = 0
	r.fnDepth++

	r.beginScope()
	seen := make(map[string]bool, len(params))
	for _, p := range params {
		if seen[p.Name] {
			r.addDiag(diagnostics.EDupParam, fmt.Sprintf("Duplicate parameter '%s'.", p.Name), p.Span)
		}
		seen[p.Name] = true
		r.declare(p.Name)
		r.define(p.Name)
	}
	r.resolveStmts(body)
	r.endScope()

	r.fnDepth--
	r.currentFn, r.loopDepth = enclosingFn, enclosingLoop
}

func (r *resolver) resolveClass(s *ast.ClassStmt) {
	enclosingClass := r.currentClass
	r.currentClass = classPlain

	r.declare(s.Name)
	r.define(s.Name)

	if s.Superclass != nil {
		if s.Superclass.Name == s.Name {
			r.addDiag(diagnostics.EInheritSelf, "A class can't inherit from itself.", s.Superclass.Span)
		}
		r.currentClass = classSub
		r.resolveExpr(s.Superclass)

		r.beginScope()
		r.define("super")
	}

	r.beginScope()
	r.define("this")

	for _, m := range s.Methods {
		kind := fnMethod
		if m.Name == "init" {
			kind = fnInitializer
		}
		r.resolveFunction(m.Params, m.Body, kind)
	}
	for _, m := range s.Statics {
		r.resolveFunction(m.Params, m.Body, fnStatic)
	}

	r.endScope()
	if s.Superclass != nil {
		r.endScope()
	}

	r.currentClass = enclosingClass
}

// --- Expressions ---

func (r *resolver) resolveExpr(expr ast.Expr) {
	switch e := expr.(type) {
	case *ast.LiteralExpr:
	case *ast.GroupingExpr:
		r.resolveExpr(e.Expr)
	case *ast.UnaryExpr:
		r.resolveExpr(e.Operand)
	case *ast.BinaryExpr:
		r.resolveExpr(e.Left)
		r.resolveExpr(e.Right)
	case *ast.LogicalExpr:
		r.resolveExpr(e.Left)
		r.resolveExpr(e.Right)
	case *ast.ConditionalExpr:
		r.resolveExpr(e.Cond)
		r.resolveExpr(e.Then)
		r.resolveExpr(e.Else)
	case *ast.VariableExpr:
		r.resolveLocal(e, e.Name, true)
	case *ast.AssignExpr:
		r.resolveExpr(e.Value)
		r.resolveLocal(e, e.Name, false)
	case *ast.CallExpr:
		r.resolveExpr(e.Callee)
		for _, arg := range e.Args {
			r.resolveExpr(arg)
		}
	case *ast.GetExpr:
		r.resolveExpr(e.Object)
	case *ast.SetExpr:
		r.resolveExpr(e.Value)
		r.resolveExpr(e.Object)
	case *ast.ThisExpr:
		if r.currentClass == classNone {
			r.addDiag(diagnostics.EThisOutsideClass, "Can't use 'this' outside of a class.", e.Span)
			return
		}
		r.resolveLocal(e, "this", true)
	case *ast.SuperExpr:
		switch r.currentClass {
		case classNone:
			r.addDiag(diagnostics.ESuperOutsideClass, "Can't use 'super' outside of a class.", e.Span)
			return
		case classPlain:
			r.addDiag(diagnostics.ESuperNoSuperclass, "Can't use 'super' in a class with no superclass.", e.Span)
			return
		}
		r.resolveLocal(e, "super", true)
	case *ast.FunctionExpr:
		r.resolveFunction(e.Params, e.Body, fnFunction)
	}
}
