// Package formatter implements the Lox source code formatter.
package formatter

import (
	"math"
	"strconv"
	"strings"

	"github.com/thomasrohde/golox/pkg/ast"
)

const indent = "  "

// Precedence table for binary operators (higher = tighter binding)
var precedence = map[ast.BinaryOp]int{
	ast.OpEqEq: 1, ast.OpNeq: 1,
	ast.OpGt: 2, ast.OpLt: 2, ast.OpGtEq: 2, ast.OpLtEq: 2,
	ast.OpAdd: 3, ast.OpSub: 3,
	ast.OpMul: 4, ast.OpDiv: 4,
}

// exprRank orders expression forms the way the parser's precedence ladder
// does, so operands built without explicit grouping still print correctly.
func exprRank(e ast.Expr) int {
	switch expr := e.(type) {
	case *ast.AssignExpr, *ast.SetExpr:
		return -3
	case *ast.ConditionalExpr:
		return -2
	case *ast.LogicalExpr:
		if expr.Op == ast.OpOr {
			return -1
		}
		return 0
	case *ast.BinaryExpr:
		return precedence[expr.Op]
	case *ast.UnaryExpr:
		return 5
	}
	return 6
}

func needsParens(child ast.Expr, parentRank int, isRight bool) bool {
	childRank := exprRank(child)
	if childRank < parentRank {
		return true
	}
	// Left-associative operators: same rank on the right needs parens.
	return childRank == parentRank && isRight && childRank > 0 && childRank < 5
}

// Format pretty-prints a Lox AST back to source code.
func Format(program *ast.Program) string {
	if len(program.Statements) == 0 {
		return ""
	}
	lines := make([]string, 0, len(program.Statements))
	for _, s := range program.Statements {
		lines = append(lines, formatStmt(s, 0))
	}
	return strings.Join(lines, "\n") + "\n"
}

// HasComments reports whether source contains a Lox comment outside a
// string literal. Comments are not preserved by Format.
func HasComments(source string) bool {
	inString := false
	for i := 0; i < len(source); i++ {
		c := source[i]
		if c == '"' {
			inString = !inString
			continue
		}
		if !inString && c == '/' && i+1 < len(source) && (source[i+1] == '/' || source[i+1] == '*') {
			return true
		}
	}
	return false
}

func formatStmt(s ast.Stmt, depth int) string {
	prefix := strings.Repeat(indent, depth)
	switch stmt := s.(type) {
	case *ast.ExprStmt:
		return prefix + formatExpr(stmt.Expr, depth) + ";"
	case *ast.PrintStmt:
		return prefix + "print " + formatExpr(stmt.Expr, depth) + ";"
	case *ast.VarStmt:
		return prefix + formatVar(stmt, depth)
	case *ast.BlockStmt:
		return prefix + formatBlock(stmt.Statements, depth)
	case *ast.IfStmt:
		out := prefix + "if (" + formatExpr(stmt.Cond, depth) + ")" + formatBody(stmt.Then, depth)
		if stmt.Else == nil {
			return out
		}
		if _, isBlock := stmt.Then.(*ast.BlockStmt); isBlock {
			out += " else"
		} else {
			out += "\n" + prefix + "else"
		}
		if elseIf, ok := stmt.Else.(*ast.IfStmt); ok {
			return out + " " + strings.TrimPrefix(formatStmt(elseIf, depth), prefix)
		}
		return out + formatBody(stmt.Else, depth)
	case *ast.WhileStmt:
		return prefix + "while (" + formatExpr(stmt.Cond, depth) + ")" + formatBody(stmt.Body, depth)
	case *ast.ForStmt:
		init := ";"
		switch in := stmt.Init.(type) {
		case *ast.VarStmt:
			init = formatVar(in, depth)
		case *ast.ExprStmt:
			init = formatExpr(in.Expr, depth) + ";"
		}
		cond := ";"
		if stmt.Cond != nil {
			cond = " " + formatExpr(stmt.Cond, depth) + ";"
		}
		incr := ""
		if stmt.Incr != nil {
			incr = " " + formatExpr(stmt.Incr, depth)
		}
		return prefix + "for (" + init + cond + incr + ")" + formatBody(stmt.Body, depth)
	case *ast.BreakStmt:
		return prefix + "break;"
	case *ast.ReturnStmt:
		if stmt.Value == nil {
			return prefix + "return;"
		}
		return prefix + "return " + formatExpr(stmt.Value, depth) + ";"
	case *ast.FunctionStmt:
		return prefix + "fun " + formatFunction(stmt, depth)
	case *ast.ClassStmt:
		return prefix + formatClass(stmt, depth)
	}
	return ""
}

func formatVar(stmt *ast.VarStmt, depth int) string {
	if stmt.Init == nil {
		return "var " + stmt.Name + ";"
	}
	return "var " + stmt.Name + " = " + formatExpr(stmt.Init, depth) + ";"
}

// formatBody renders a loop or branch body: blocks stay on the header
// line, other statements go on their own indented line.
func formatBody(s ast.Stmt, depth int) string {
	if block, ok := s.(*ast.BlockStmt); ok {
		return " " + formatBlock(block.Statements, depth)
	}
	return "\n" + formatStmt(s, depth+1)
}

func formatBlock(stmts []ast.Stmt, depth int) string {
	if len(stmts) == 0 {
		return "{}"
	}
	lines := make([]string, len(stmts))
	for i, s := range stmts {
		lines[i] = formatStmt(s, depth+1)
	}
	return "{\n" + strings.Join(lines, "\n") + "\n" + strings.Repeat(indent, depth) + "}"
}

func formatParams(params []ast.Param) string {
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = p.Name
	}
	return "(" + strings.Join(names, ", ") + ")"
}

func formatFunction(fn *ast.FunctionStmt, depth int) string {
	return fn.Name + formatParams(fn.Params) + " " + formatBlock(fn.Body, depth)
}

func formatClass(stmt *ast.ClassStmt, depth int) string {
	out := "class " + stmt.Name
	if stmt.Superclass != nil {
		out += " < " + stmt.Superclass.Name
	}
	if len(stmt.Methods) == 0 && len(stmt.Statics) == 0 {
		return out + " {}"
	}
	inner := strings.Repeat(indent, depth+1)
	var members []string
	for _, m := range stmt.Statics {
		members = append(members, inner+"class "+formatFunction(m, depth+1))
	}
	for _, m := range stmt.Methods {
		members = append(members, inner+formatFunction(m, depth+1))
	}
	return out + " {\n" + strings.Join(members, "\n") + "\n" + strings.Repeat(indent, depth) + "}"
}

func formatOperand(child ast.Expr, parentRank int, isRight bool, depth int) string {
	out := formatExpr(child, depth)
	if needsParens(child, parentRank, isRight) {
		return "(" + out + ")"
	}
	return out
}

func formatExpr(e ast.Expr, depth int) string {
	switch expr := e.(type) {
	case *ast.LiteralExpr:
		return formatLiteral(expr.Value)
	case *ast.GroupingExpr:
		return "(" + formatExpr(expr.Expr, depth) + ")"
	case *ast.VariableExpr:
		return expr.Name
	case *ast.AssignExpr:
		return expr.Name + " = " + formatExpr(expr.Value, depth)
	case *ast.UnaryExpr:
		return string(expr.Op) + formatOperand(expr.Operand, 5, false, depth)
	case *ast.BinaryExpr:
		rank := precedence[expr.Op]
		return formatOperand(expr.Left, rank, false, depth) + " " + string(expr.Op) + " " +
			formatOperand(expr.Right, rank, true, depth)
	case *ast.LogicalExpr:
		rank := exprRank(expr)
		return formatOperand(expr.Left, rank, false, depth) + " " + string(expr.Op) + " " +
			formatOperand(expr.Right, rank, true, depth)
	case *ast.ConditionalExpr:
		return formatOperand(expr.Cond, -1, false, depth) + " ? " +
			formatExpr(expr.Then, depth) + " : " + formatOperand(expr.Else, -2, false, depth)
	case *ast.CallExpr:
		args := make([]string, len(expr.Args))
		for i, a := range expr.Args {
			args[i] = formatExpr(a, depth)
		}
		return formatOperand(expr.Callee, 6, false, depth) + "(" + strings.Join(args, ", ") + ")"
	case *ast.GetExpr:
		return formatOperand(expr.Object, 6, false, depth) + "." + expr.Name
	case *ast.SetExpr:
		return formatOperand(expr.Object, 6, false, depth) + "." + expr.Name + " = " + formatExpr(expr.Value, depth)
	case *ast.ThisExpr:
		return "this"
	case *ast.SuperExpr:
		return "super." + expr.Method
	case *ast.FunctionExpr:
		return "fun " + formatParams(expr.Params) + " " + formatBlock(expr.Body, depth)
	}
	return ""
}

func formatLiteral(v any) string {
	switch val := v.(type) {
	case nil:
		return "nil"
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return formatNumberLiteral(val)
	case string:
		// Lox strings have no escape sequences.
		return `"` + val + `"`
	}
	return ""
}

// formatNumberLiteral writes a number the lexer can read back: plain
// decimal digits, never exponent notation.
func formatNumberLiteral(value float64) string {
	if math.IsInf(value, 0) || math.IsNaN(value) {
		return strconv.FormatFloat(value, 'g', -1, 64)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
