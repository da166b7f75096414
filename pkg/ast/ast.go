// Package ast defines the Lox language AST node types.
package ast

// Span represents a source location range.
type Span struct {
	File      string `json:"file"`
	StartLine int    `json:"startLine"`
	StartCol  int    `json:"startCol"`
	EndLine   int    `json:"endLine"`
	EndCol    int    `json:"endCol"`
}

// Node is the interface implemented by all AST nodes.
type Node interface {
	Kind() string
	NodeSpan() Span
}

// BinaryOp represents a binary operator.
type BinaryOp string

const (
	OpAdd  BinaryOp = "+"
	OpSub  BinaryOp = "-"
	OpMul  BinaryOp = "*"
	OpDiv  BinaryOp = "/"
	OpGt   BinaryOp = ">"
	OpLt   BinaryOp = "<"
	OpGtEq BinaryOp = ">="
	OpLtEq BinaryOp = "<="
	OpEqEq BinaryOp = "=="
	OpNeq  BinaryOp = "!="
)

// UnaryOp represents a unary operator.
type UnaryOp string

const (
	OpNeg UnaryOp = "-"
	OpNot UnaryOp = "!"
)

// LogicalOp represents a short-circuiting operator.
type LogicalOp string

const (
	OpAnd LogicalOp = "and"
	OpOr  LogicalOp = "or"
)

// --- Expr is the interface for all expression nodes ---

type Expr interface {
	Node
	exprNode() // sealed marker
}

// --- Stmt is the interface for all statement nodes ---

type Stmt interface {
	Node
	stmtNode() // sealed marker
}

// --- Literals ---

// LiteralExpr holds a constant. Value is nil, bool, float64 or string.
type LiteralExpr struct {
	Span  Span
	Value any
}

func (n *LiteralExpr) Kind() string   { return "LiteralExpr" }
func (n *LiteralExpr) NodeSpan() Span { return n.Span }
func (n *LiteralExpr) exprNode()      {}

type GroupingExpr struct {
	Span Span
	Expr Expr
}

func (n *GroupingExpr) Kind() string   { return "GroupingExpr" }
func (n *GroupingExpr) NodeSpan() Span { return n.Span }
func (n *GroupingExpr) exprNode()      {}

// --- Operators ---

type UnaryExpr struct {
	Span    Span
	Op      UnaryOp
	Operand Expr
}

func (n *UnaryExpr) Kind() string   { return "UnaryExpr" }
func (n *UnaryExpr) NodeSpan() Span { return n.Span }
func (n *UnaryExpr) exprNode()      {}

type BinaryExpr struct {
	Span  Span
	Op    BinaryOp
	Left  Expr
	Right Expr
}

func (n *BinaryExpr) Kind() string   { return "BinaryExpr" }
func (n *BinaryExpr) NodeSpan() Span { return n.Span }
func (n *BinaryExpr) exprNode()      {}

type LogicalExpr struct {
	Span  Span
	Op    LogicalOp
	Left  Expr
	Right Expr
}

func (n *LogicalExpr) Kind() string   { return "LogicalExpr" }
func (n *LogicalExpr) NodeSpan() Span { return n.Span }
func (n *LogicalExpr) exprNode()      {}

// ConditionalExpr is the ternary `cond ? then : else`.
type ConditionalExpr struct {
	Span Span
	Cond Expr
	Then Expr
	Else Expr
}

func (n *ConditionalExpr) Kind() string   { return "ConditionalExpr" }
func (n *ConditionalExpr) NodeSpan() Span { return n.Span }
func (n *ConditionalExpr) exprNode()      {}

// --- Variables ---

// VariableExpr is a read of a named binding. Resolved nodes are keys of
// the resolver's distance table, so each occurrence must be its own pointer.
type VariableExpr struct {
	Span Span
	Name string
}

func (n *VariableExpr) Kind() string   { return "VariableExpr" }
func (n *VariableExpr) NodeSpan() Span { return n.Span }
func (n *VariableExpr) exprNode()      {}

type AssignExpr struct {
	Span  Span
	Name  string
	Value Expr
}

func (n *AssignExpr) Kind() string   { return "AssignExpr" }
func (n *AssignExpr) NodeSpan() Span { return n.Span }
func (n *AssignExpr) exprNode()      {}

// --- Calls and properties ---

type CallExpr struct {
	Span   Span
	Callee Expr
	Args   []Expr
}

func (n *CallExpr) Kind() string   { return "CallExpr" }
func (n *CallExpr) NodeSpan() Span { return n.Span }
func (n *CallExpr) exprNode()      {}

type GetExpr struct {
	Span   Span
	Object Expr
	Name   string
}

func (n *GetExpr) Kind() string   { return "GetExpr" }
func (n *GetExpr) NodeSpan() Span { return n.Span }
func (n *GetExpr) exprNode()      {}

type SetExpr struct {
	Span   Span
	Object Expr
	Name   string
	Value  Expr
}

func (n *SetExpr) Kind() string   { return "SetExpr" }
func (n *SetExpr) NodeSpan() Span { return n.Span }
func (n *SetExpr) exprNode()      {}

type ThisExpr struct {
	Span Span
}

func (n *ThisExpr) Kind() string   { return "ThisExpr" }
func (n *ThisExpr) NodeSpan() Span { return n.Span }
func (n *ThisExpr) exprNode()      {}

type SuperExpr struct {
	Span   Span
	Method string
}

func (n *SuperExpr) Kind() string   { return "SuperExpr" }
func (n *SuperExpr) NodeSpan() Span { return n.Span }
func (n *SuperExpr) exprNode()      {}

// FunctionExpr is an anonymous function: `fun (a, b) { ... }`.
type FunctionExpr struct {
	Span   Span
	Params []Param
	Body   []Stmt
}

func (n *FunctionExpr) Kind() string   { return "FunctionExpr" }
func (n *FunctionExpr) NodeSpan() Span { return n.Span }
func (n *FunctionExpr) exprNode()      {}

// Param is a named function parameter.
type Param struct {
	Span Span
	Name string
}

// --- Statements ---

type ExprStmt struct {
	Span Span
	Expr Expr
}

func (n *ExprStmt) Kind() string   { return "ExprStmt" }
func (n *ExprStmt) NodeSpan() Span { return n.Span }
func (n *ExprStmt) stmtNode()      {}

type PrintStmt struct {
	Span Span
	Expr Expr
}

func (n *PrintStmt) Kind() string   { return "PrintStmt" }
func (n *PrintStmt) NodeSpan() Span { return n.Span }
func (n *PrintStmt) stmtNode()      {}

// VarStmt declares a variable. Init is nil for `var a;`.
type VarStmt struct {
	Span Span
	Name string
	Init Expr
}

func (n *VarStmt) Kind() string   { return "VarStmt" }
func (n *VarStmt) NodeSpan() Span { return n.Span }
func (n *VarStmt) stmtNode()      {}

type BlockStmt struct {
	Span       Span
	Statements []Stmt
}

func (n *BlockStmt) Kind() string   { return "BlockStmt" }
func (n *BlockStmt) NodeSpan() Span { return n.Span }
func (n *BlockStmt) stmtNode()      {}

type IfStmt struct {
	Span Span
	Cond Expr
	Then Stmt
	Else Stmt // optional
}

func (n *IfStmt) Kind() string   { return "IfStmt" }
func (n *IfStmt) NodeSpan() Span { return n.Span }
func (n *IfStmt) stmtNode()      {}

type WhileStmt struct {
	Span Span
	Cond Expr
	Body Stmt
}

func (n *WhileStmt) Kind() string   { return "WhileStmt" }
func (n *WhileStmt) NodeSpan() Span { return n.Span }
func (n *WhileStmt) stmtNode()      {}

// ForStmt keeps the clauses of a C-style loop. It runs as
//
//	{ Init; while (Cond) { Body; Incr; } }
//
// where the inner block is a fresh scope per iteration. Init, Cond and
// Incr are all optional; a missing Cond loops forever.
type ForStmt struct {
	Span Span
	Init Stmt
	Cond Expr
	Incr Expr
	Body Stmt
}

func (n *ForStmt) Kind() string   { return "ForStmt" }
func (n *ForStmt) NodeSpan() Span { return n.Span }
func (n *ForStmt) stmtNode()      {}

type BreakStmt struct {
	Span Span
}

func (n *BreakStmt) Kind() string   { return "BreakStmt" }
func (n *BreakStmt) NodeSpan() Span { return n.Span }
func (n *BreakStmt) stmtNode()      {}

type ReturnStmt struct {
	Span  Span
	Value Expr // optional
}

func (n *ReturnStmt) Kind() string   { return "ReturnStmt" }
func (n *ReturnStmt) NodeSpan() Span { return n.Span }
func (n *ReturnStmt) stmtNode()      {}

type FunctionStmt struct {
	Span   Span
	Name   string
	Params []Param
	Body   []Stmt
}

func (n *FunctionStmt) Kind() string   { return "FunctionStmt" }
func (n *FunctionStmt) NodeSpan() Span { return n.Span }
func (n *FunctionStmt) stmtNode()      {}

// ClassStmt declares a class. Statics holds methods declared with a
// leading `class` keyword; they are called on the class itself.
type ClassStmt struct {
	Span       Span
	Name       string
	Superclass *VariableExpr // optional
	Methods    []*FunctionStmt
	Statics    []*FunctionStmt
}

func (n *ClassStmt) Kind() string   { return "ClassStmt" }
func (n *ClassStmt) NodeSpan() Span { return n.Span }
func (n *ClassStmt) stmtNode()      {}

// --- Program ---

type Program struct {
	Span       Span
	Statements []Stmt
}

func (n *Program) Kind() string   { return "Program" }
func (n *Program) NodeSpan() Span { return n.Span }
