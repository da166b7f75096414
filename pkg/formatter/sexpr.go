package formatter

import (
	"strings"

	"github.com/thomasrohde/golox/pkg/ast"
)

// Sexpr renders an expression in parenthesized prefix form, e.g.
// `1 + 2 * 3` becomes `(+ 1 (* 2 3))`. Used by `lox ast` and in tests.
func Sexpr(e ast.Expr) string {
	var b strings.Builder
	writeSexpr(&b, e)
	return b.String()
}

// SexprProgram renders every statement of program, one per line.
func SexprProgram(program *ast.Program) string {
	var b strings.Builder
	for _, s := range program.Statements {
		writeStmtSexpr(&b, s)
		b.WriteByte('\n')
	}
	return b.String()
}

func parenthesize(b *strings.Builder, name string, parts ...ast.Expr) {
	b.WriteByte('(')
	b.WriteString(name)
	for _, p := range parts {
		b.WriteByte(' ')
		writeSexpr(b, p)
	}
	b.WriteByte(')')
}

func writeSexpr(b *strings.Builder, e ast.Expr) {
	switch expr := e.(type) {
	case *ast.LiteralExpr:
		b.WriteString(formatLiteral(expr.Value))
	case *ast.GroupingExpr:
		parenthesize(b, "group", expr.Expr)
	case *ast.VariableExpr:
		b.WriteString(expr.Name)
	case *ast.AssignExpr:
		parenthesize(b, "= "+expr.Name, expr.Value)
	case *ast.UnaryExpr:
		parenthesize(b, string(expr.Op), expr.Operand)
	case *ast.BinaryExpr:
		parenthesize(b, string(expr.Op), expr.Left, expr.Right)
	case *ast.LogicalExpr:
		parenthesize(b, string(expr.Op), expr.Left, expr.Right)
	case *ast.ConditionalExpr:
		parenthesize(b, "?:", expr.Cond, expr.Then, expr.Else)
	case *ast.CallExpr:
		parenthesize(b, "call", append([]ast.Expr{expr.Callee}, expr.Args...)...)
	case *ast.GetExpr:
		parenthesize(b, "."+expr.Name, expr.Object)
	case *ast.SetExpr:
		parenthesize(b, "set ."+expr.Name, expr.Object, expr.Value)
	case *ast.ThisExpr:
		b.WriteString("this")
	case *ast.SuperExpr:
		b.WriteString("(super " + expr.Method + ")")
	case *ast.FunctionExpr:
		b.WriteString("(fun " + formatParams(expr.Params))
		writeBodySexpr(b, expr.Body)
		b.WriteByte(')')
	default:
		b.WriteString("?")
	}
}

func writeBodySexpr(b *strings.Builder, body []ast.Stmt) {
	for _, s := range body {
		b.WriteByte(' ')
		writeStmtSexpr(b, s)
	}
}

func writeStmtSexpr(b *strings.Builder, s ast.Stmt) {
	switch stmt := s.(type) {
	case *ast.ExprStmt:
		parenthesize(b, ";", stmt.Expr)
	case *ast.PrintStmt:
		parenthesize(b, "print", stmt.Expr)
	case *ast.VarStmt:
		if stmt.Init == nil {
			b.WriteString("(var " + stmt.Name + ")")
			return
		}
		parenthesize(b, "var "+stmt.Name, stmt.Init)
	case *ast.BlockStmt:
		b.WriteString("(block")
		writeBodySexpr(b, stmt.Statements)
		b.WriteByte(')')
	case *ast.IfStmt:
		b.WriteString("(if ")
		writeSexpr(b, stmt.Cond)
		b.WriteByte(' ')
		writeStmtSexpr(b, stmt.Then)
		if stmt.Else != nil {
			b.WriteByte(' ')
			writeStmtSexpr(b, stmt.Else)
		}
		b.WriteByte(')')
	case *ast.WhileStmt:
		b.WriteString("(while ")
		writeSexpr(b, stmt.Cond)
		b.WriteByte(' ')
		writeStmtSexpr(b, stmt.Body)
		b.WriteByte(')')
	case *ast.ForStmt:
		b.WriteString("(for ")
		if stmt.Init != nil {
			writeStmtSexpr(b, stmt.Init)
		} else {
			b.WriteString("nil")
		}
		b.WriteByte(' ')
		writeOptional(b, stmt.Cond)
		b.WriteByte(' ')
		writeOptional(b, stmt.Incr)
		b.WriteByte(' ')
		writeStmtSexpr(b, stmt.Body)
		b.WriteByte(')')
	case *ast.BreakStmt:
		b.WriteString("(break)")
	case *ast.ReturnStmt:
		if stmt.Value == nil {
			b.WriteString("(return)")
			return
		}
		parenthesize(b, "return", stmt.Value)
	case *ast.FunctionStmt:
		writeFunSexpr(b, "fun", stmt)
	case *ast.ClassStmt:
		b.WriteString("(class " + stmt.Name)
		if stmt.Superclass != nil {
			b.WriteString(" < " + stmt.Superclass.Name)
		}
		for _, m := range stmt.Statics {
			b.WriteByte(' ')
			writeFunSexpr(b, "static", m)
		}
		for _, m := range stmt.Methods {
			b.WriteByte(' ')
			writeFunSexpr(b, "method", m)
		}
		b.WriteByte(')')
	default:
		b.WriteString("?")
	}
}

func writeFunSexpr(b *strings.Builder, head string, fn *ast.FunctionStmt) {
	b.WriteString("(" + head + " " + fn.Name + formatParams(fn.Params))
	writeBodySexpr(b, fn.Body)
	b.WriteByte(')')
}

func writeOptional(b *strings.Builder, e ast.Expr) {
	if e == nil {
		b.WriteString("nil")
		return
	}
	writeSexpr(b, e)
}
