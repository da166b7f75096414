// Package parser implements the Lox language parser.
package parser

import (
	"fmt"
	"strconv"

	"github.com/thomasrohde/golox/pkg/ast"
	"github.com/thomasrohde/golox/pkg/diagnostics"
	"github.com/thomasrohde/golox/pkg/lexer"
)

// MaxArgs is the largest number of parameters or call arguments accepted.
const MaxArgs = 255

// hintEOF marks diagnostics raised because input ended early.
const hintEOF = "unexpected end of input"

type parser struct {
	tokens []lexer.Token
	pos    int
	diags  []diagnostics.Diagnostic
}

// Parse tokenizes source and parses it into an AST.
func Parse(source, filename string) (*ast.Program, []diagnostics.Diagnostic) {
	tokens, err := lexer.Tokenize(source, filename)
	if err != nil {
		if le, ok := err.(*lexer.LexError); ok {
			diag := le.Diag
			if le.Unterminated() {
				diag.Hint = hintEOF
			}
			return nil, []diagnostics.Diagnostic{diag}
		}
		return nil, []diagnostics.Diagnostic{diagnostics.MakeDiag(diagnostics.ELex, err.Error(), nil, "")}
	}
	return ParseTokens(tokens, filename)
}

// ParseTokens parses an already tokenized program. The token slice must end
// with a TokEOF token, as produced by lexer.Tokenize.
func ParseTokens(tokens []lexer.Token, filename string) (*ast.Program, []diagnostics.Diagnostic) {
	if len(tokens) == 0 || tokens[len(tokens)-1].Type != lexer.TokEOF {
		tokens = append(tokens, lexer.Token{Type: lexer.TokEOF, Span: ast.Span{File: filename}})
	}
	p := &parser{tokens: tokens, pos: 0}
	prog := p.parseProgram()
	if len(p.diags) > 0 {
		return nil, p.diags
	}
	return prog, nil
}

// IsIncomplete reports whether diags describe input that ended before a
// statement was complete, so more lines could still make it valid.
func IsIncomplete(diags []diagnostics.Diagnostic) bool {
	if len(diags) == 0 {
		return false
	}
	for _, d := range diags {
		if d.Hint != hintEOF {
			return false
		}
	}
	return true
}

func (p *parser) current() lexer.Token {
	if p.pos >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1] // EOF
	}
	return p.tokens[p.pos]
}

func (p *parser) previous() lexer.Token {
	if p.pos == 0 {
		return p.tokens[0]
	}
	return p.tokens[p.pos-1]
}

func (p *parser) peek() lexer.TokenType {
	return p.current().Type
}

func (p *parser) peekAt(offset int) lexer.TokenType {
	idx := p.pos + offset
	if idx >= len(p.tokens) {
		return lexer.TokEOF
	}
	return p.tokens[idx].Type
}

func (p *parser) atEnd() bool {
	return p.peek() == lexer.TokEOF
}

func (p *parser) advance() lexer.Token {
	tok := p.current()
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return tok
}

func (p *parser) check(typ lexer.TokenType) bool {
	return p.peek() == typ
}

func (p *parser) match(types ...lexer.TokenType) bool {
	for _, typ := range types {
		if p.check(typ) {
			p.advance()
			return true
		}
	}
	return false
}

// expect consumes a token of the given type or records msg as an error.
func (p *parser) expect(typ lexer.TokenType, msg string) (lexer.Token, bool) {
	if p.check(typ) {
		return p.advance(), true
	}
	p.errorAt(p.current(), msg)
	return p.current(), false
}

func (p *parser) errorAt(tok lexer.Token, msg string) {
	span := tok.Span
	if tok.Type == lexer.TokEOF {
		p.diags = append(p.diags, diagnostics.MakeDiag(diagnostics.EParse, "at end: "+msg, &span, hintEOF))
		return
	}
	p.diags = append(p.diags, diagnostics.MakeDiag(diagnostics.EParse, fmt.Sprintf("at '%s': %s", tok.Value, msg), &span, ""))
}

func (p *parser) spanFromTo(start, end ast.Span) ast.Span {
	return ast.Span{
		File:      start.File,
		StartLine: start.StartLine,
		StartCol:  start.StartCol,
		EndLine:   end.EndLine,
		EndCol:    end.EndCol,
	}
}

// spanFrom spans from start to the end of the last consumed token.
func (p *parser) spanFrom(start ast.Span) ast.Span {
	return p.spanFromTo(start, p.previous().Span)
}

// synchronize discards tokens until a likely statement boundary.
func (p *parser) synchronize() {
	p.advance()
	for !p.atEnd() {
		if p.previous().Type == lexer.TokSemicolon {
			return
		}
		switch p.peek() {
		case lexer.TokClass, lexer.TokFun, lexer.TokVar, lexer.TokFor, lexer.TokIf,
			lexer.TokWhile, lexer.TokPrint, lexer.TokReturn, lexer.TokBreak:
			return
		}
		p.advance()
	}
}

// --- Program ---

func (p *parser) parseProgram() *ast.Program {
	startSpan := p.current().Span

	var stmts []ast.Stmt
	for !p.atEnd() {
		if stmt := p.parseDeclaration(); stmt != nil {
			stmts = append(stmts, stmt)
		}
	}

	return &ast.Program{
		Span:       p.spanFromTo(startSpan, p.current().Span),
		Statements: stmts,
	}
}

// --- Declarations ---

// parseDeclaration returns nil after recording an error; the parser is
// then resynchronized at the next statement boundary.
func (p *parser) parseDeclaration() ast.Stmt {
	var stmt ast.Stmt
	switch {
	case p.check(lexer.TokClass):
		if cls := p.parseClassDecl(); cls != nil {
			stmt = cls
		}
	case p.check(lexer.TokFun) && p.peekAt(1) == lexer.TokIdent:
		start := p.advance()
		if fn := p.parseFunction(start.Span, "function"); fn != nil {
			stmt = fn
		}
	case p.check(lexer.TokVar):
		if v := p.parseVarDecl(); v != nil {
			stmt = v
		}
	default:
		stmt = p.parseStatement()
	}
	if stmt == nil {
		p.synchronize()
		return nil
	}
	return stmt
}

func (p *parser) parseClassDecl() *ast.ClassStmt {
	start := p.advance() // consume 'class'
	name, ok := p.expect(lexer.TokIdent, "Expect class name.")
	if !ok {
		return nil
	}

	var superclass *ast.VariableExpr
	if p.match(lexer.TokLt) {
		superTok, ok := p.expect(lexer.TokIdent, "Expect superclass name.")
		if !ok {
			return nil
		}
		superclass = &ast.VariableExpr{Span: superTok.Span, Name: superTok.Value}
	}

	if _, ok := p.expect(lexer.TokLBrace, "Expect '{' before class body."); !ok {
		return nil
	}

	var methods, statics []*ast.FunctionStmt
	for !p.check(lexer.TokRBrace) && !p.atEnd() {
		if p.check(lexer.TokClass) {
			start := p.advance() // consume 'class'
			fn := p.parseFunction(start.Span, "static method")
			if fn == nil {
				return nil
			}
			statics = append(statics, fn)
			continue
		}
		fn := p.parseFunction(p.current().Span, "method")
		if fn == nil {
			return nil
		}
		methods = append(methods, fn)
	}

	if _, ok := p.expect(lexer.TokRBrace, "Expect '}' after class body."); !ok {
		return nil
	}

	return &ast.ClassStmt{
		Span:       p.spanFrom(start.Span),
		Name:       name.Value,
		Superclass: superclass,
		Methods:    methods,
		Statics:    statics,
	}
}

// parseFunction parses `name(params) { body }`; the caller has consumed any
// leading keyword and passes its span as start.
func (p *parser) parseFunction(start ast.Span, kind string) *ast.FunctionStmt {
	name, ok := p.expect(lexer.TokIdent, fmt.Sprintf("Expect %s name.", kind))
	if !ok {
		return nil
	}
	if _, ok := p.expect(lexer.TokLParen, fmt.Sprintf("Expect '(' after %s name.", kind)); !ok {
		return nil
	}
	params, ok := p.parseParams()
	if !ok {
		return nil
	}
	if _, ok := p.expect(lexer.TokLBrace, fmt.Sprintf("Expect '{' before %s body.", kind)); !ok {
		return nil
	}
	body := p.parseBlockBody()
	if body == nil {
		return nil
	}
	return &ast.FunctionStmt{
		Span:   p.spanFrom(start),
		Name:   name.Value,
		Params: params,
		Body:   *body,
	}
}

// parseParams parses a parameter list after '(' through the closing ')'.
func (p *parser) parseParams() ([]ast.Param, bool) {
	var params []ast.Param
	if !p.check(lexer.TokRParen) {
		for {
			if len(params) >= MaxArgs {
				p.errorAt(p.current(), fmt.Sprintf("Can't have more than %d parameters.", MaxArgs))
			}
			tok, ok := p.expect(lexer.TokIdent, "Expect parameter name.")
			if !ok {
				return nil, false
			}
			params = append(params, ast.Param{Span: tok.Span, Name: tok.Value})
			if !p.match(lexer.TokComma) {
				break
			}
		}
	}
	if _, ok := p.expect(lexer.TokRParen, "Expect ')' after parameters."); !ok {
		return nil, false
	}
	return params, true
}

func (p *parser) parseVarDecl() *ast.VarStmt {
	start := p.advance() // consume 'var'
	name, ok := p.expect(lexer.TokIdent, "Expect variable name.")
	if !ok {
		return nil
	}

	var init ast.Expr
	if p.match(lexer.TokEquals) {
		init = p.parseExpression()
		if init == nil {
			return nil
		}
	}

	if _, ok := p.expect(lexer.TokSemicolon, "Expect ';' after variable declaration."); !ok {
		return nil
	}
	return &ast.VarStmt{
		Span: p.spanFrom(start.Span),
		Name: name.Value,
		Init: init,
	}
}

// --- Statements ---

func (p *parser) parseStatement() ast.Stmt {
	switch p.peek() {
	case lexer.TokFor:
		return p.parseForStmt()
	case lexer.TokIf:
		return p.parseIfStmt()
	case lexer.TokPrint:
		return p.parsePrintStmt()
	case lexer.TokReturn:
		return p.parseReturnStmt()
	case lexer.TokWhile:
		return p.parseWhileStmt()
	case lexer.TokBreak:
		return p.parseBreakStmt()
	case lexer.TokLBrace:
		start := p.advance()
		body := p.parseBlockBody()
		if body == nil {
			return nil
		}
		return &ast.BlockStmt{Span: p.spanFrom(start.Span), Statements: *body}
	default:
		return p.parseExprStmt()
	}
}

// parseBlockBody parses declarations after '{' through the closing '}'.
// A nil result means an error was recorded.
func (p *parser) parseBlockBody() *[]ast.Stmt {
	stmts := []ast.Stmt{}
	for !p.check(lexer.TokRBrace) && !p.atEnd() {
		stmt := p.parseDeclaration()
		if stmt == nil {
			// Keep going so later errors in the block are reported too.
			continue
		}
		stmts = append(stmts, stmt)
	}
	if _, ok := p.expect(lexer.TokRBrace, "Expect '}' after block."); !ok {
		return nil
	}
	return &stmts
}

func (p *parser) parseForStmt() ast.Stmt {
	start := p.advance() // consume 'for'
	if _, ok := p.expect(lexer.TokLParen, "Expect '(' after 'for'."); !ok {
		return nil
	}

	var init ast.Stmt
	switch {
	case p.match(lexer.TokSemicolon):
		// no initializer
	case p.check(lexer.TokVar):
		v := p.parseVarDecl()
		if v == nil {
			return nil
		}
		init = v
	default:
		init = p.parseExprStmt()
		if init == nil {
			return nil
		}
	}

	var cond ast.Expr
	if !p.check(lexer.TokSemicolon) {
		cond = p.parseExpression()
		if cond == nil {
			return nil
		}
	}
	if _, ok := p.expect(lexer.TokSemicolon, "Expect ';' after loop condition."); !ok {
		return nil
	}

	var incr ast.Expr
	if !p.check(lexer.TokRParen) {
		incr = p.parseExpression()
		if incr == nil {
			return nil
		}
	}
	if _, ok := p.expect(lexer.TokRParen, "Expect ')' after for clauses."); !ok {
		return nil
	}

	body := p.parseStatement()
	if body == nil {
		return nil
	}
	return &ast.ForStmt{
		Span: p.spanFrom(start.Span),
		Init: init,
		Cond: cond,
		Incr: incr,
		Body: body,
	}
}

func (p *parser) parseIfStmt() ast.Stmt {
	start := p.advance() // consume 'if'
	if _, ok := p.expect(lexer.TokLParen, "Expect '(' after 'if'."); !ok {
		return nil
	}
	cond := p.parseExpression()
	if cond == nil {
		return nil
	}
	if _, ok := p.expect(lexer.TokRParen, "Expect ')' after if condition."); !ok {
		return nil
	}

	then := p.parseStatement()
	if then == nil {
		return nil
	}
	var elseBranch ast.Stmt
	// Dangling else binds to the nearest if.
	if p.match(lexer.TokElse) {
		elseBranch = p.parseStatement()
		if elseBranch == nil {
			return nil
		}
	}
	return &ast.IfStmt{
		Span: p.spanFrom(start.Span),
		Cond: cond,
		Then: then,
		Else: elseBranch,
	}
}

func (p *parser) parsePrintStmt() ast.Stmt {
	start := p.advance() // consume 'print'
	value := p.parseExpression()
	if value == nil {
		return nil
	}
	if _, ok := p.expect(lexer.TokSemicolon, "Expect ';' after value."); !ok {
		return nil
	}
	return &ast.PrintStmt{Span: p.spanFrom(start.Span), Expr: value}
}

func (p *parser) parseReturnStmt() ast.Stmt {
	start := p.advance() // consume 'return'
	var value ast.Expr
	if !p.check(lexer.TokSemicolon) {
		value = p.parseExpression()
		if value == nil {
			return nil
		}
	}
	if _, ok := p.expect(lexer.TokSemicolon, "Expect ';' after return value."); !ok {
		return nil
	}
	return &ast.ReturnStmt{Span: p.spanFrom(start.Span), Value: value}
}

func (p *parser) parseWhileStmt() ast.Stmt {
	start := p.advance() // consume 'while'
	if _, ok := p.expect(lexer.TokLParen, "Expect '(' after 'while'."); !ok {
		return nil
	}
	cond := p.parseExpression()
	if cond == nil {
		return nil
	}
	if _, ok := p.expect(lexer.TokRParen, "Expect ')' after condition."); !ok {
		return nil
	}
	body := p.parseStatement()
	if body == nil {
		return nil
	}
	return &ast.WhileStmt{Span: p.spanFrom(start.Span), Cond: cond, Body: body}
}

func (p *parser) parseBreakStmt() ast.Stmt {
	start := p.advance() // consume 'break'
	if _, ok := p.expect(lexer.TokSemicolon, "Expect ';' after 'break'."); !ok {
		return nil
	}
	return &ast.BreakStmt{Span: p.spanFrom(start.Span)}
}

func (p *parser) parseExprStmt() ast.Stmt {
	start := p.current().Span
	expr := p.parseExpression()
	if expr == nil {
		return nil
	}
	if _, ok := p.expect(lexer.TokSemicolon, "Expect ';' after expression."); !ok {
		return nil
	}
	return &ast.ExprStmt{Span: p.spanFrom(start), Expr: expr}
}

// --- Expressions ---

func (p *parser) parseExpression() ast.Expr {
	return p.parseAssignment()
}

func (p *parser) parseAssignment() ast.Expr {
	expr := p.parseConditional()
	if expr == nil {
		return nil
	}

	if p.check(lexer.TokEquals) {
		equals := p.advance()
		value := p.parseAssignment()
		if value == nil {
			return nil
		}

		switch target := expr.(type) {
		case *ast.VariableExpr:
			return &ast.AssignExpr{
				Span:  p.spanFromTo(target.Span, value.NodeSpan()),
				Name:  target.Name,
				Value: value,
			}
		case *ast.GetExpr:
			return &ast.SetExpr{
				Span:   p.spanFromTo(target.Span, value.NodeSpan()),
				Object: target.Object,
				Name:   target.Name,
				Value:  value,
			}
		}
		// Not fatal: the parser is still in a consistent state.
		p.errorAt(equals, "Invalid assignment target.")
	}
	return expr
}

func (p *parser) parseConditional() ast.Expr {
	cond := p.parseOr()
	if cond == nil {
		return nil
	}
	if !p.match(lexer.TokQuestion) {
		return cond
	}
	then := p.parseExpression()
	if then == nil {
		return nil
	}
	if _, ok := p.expect(lexer.TokColon, "Expect ':' after then branch of conditional expression."); !ok {
		return nil
	}
	elseBranch := p.parseConditional()
	if elseBranch == nil {
		return nil
	}
	return &ast.ConditionalExpr{
		Span: p.spanFromTo(cond.NodeSpan(), elseBranch.NodeSpan()),
		Cond: cond,
		Then: then,
		Else: elseBranch,
	}
}

func (p *parser) parseOr() ast.Expr {
	expr := p.parseAnd()
	for expr != nil && p.match(lexer.TokOr) {
		right := p.parseAnd()
		if right == nil {
			return nil
		}
		expr = &ast.LogicalExpr{
			Span:  p.spanFromTo(expr.NodeSpan(), right.NodeSpan()),
			Op:    ast.OpOr,
			Left:  expr,
			Right: right,
		}
	}
	return expr
}

func (p *parser) parseAnd() ast.Expr {
	expr := p.parseEquality()
	for expr != nil && p.match(lexer.TokAnd) {
		right := p.parseEquality()
		if right == nil {
			return nil
		}
		expr = &ast.LogicalExpr{
			Span:  p.spanFromTo(expr.NodeSpan(), right.NodeSpan()),
			Op:    ast.OpAnd,
			Left:  expr,
			Right: right,
		}
	}
	return expr
}

var binaryOps = map[lexer.TokenType]ast.BinaryOp{
	lexer.TokEqEq:   ast.OpEqEq,
	lexer.TokBangEq: ast.OpNeq,
	lexer.TokGt:     ast.OpGt,
	lexer.TokGtEq:   ast.OpGtEq,
	lexer.TokLt:     ast.OpLt,
	lexer.TokLtEq:   ast.OpLtEq,
	lexer.TokPlus:   ast.OpAdd,
	lexer.TokMinus:  ast.OpSub,
	lexer.TokStar:   ast.OpMul,
	lexer.TokSlash:  ast.OpDiv,
}

// parseBinaryLevel parses a left-associative chain of the given operators.
func (p *parser) parseBinaryLevel(next func() ast.Expr, types ...lexer.TokenType) ast.Expr {
	expr := next()
	for expr != nil && p.match(types...) {
		op := binaryOps[p.previous().Type]
		right := next()
		if right == nil {
			return nil
		}
		expr = &ast.BinaryExpr{
			Span:  p.spanFromTo(expr.NodeSpan(), right.NodeSpan()),
			Op:    op,
			Left:  expr,
			Right: right,
		}
	}
	return expr
}

func (p *parser) parseEquality() ast.Expr {
	return p.parseBinaryLevel(p.parseComparison, lexer.TokBangEq, lexer.TokEqEq)
}

func (p *parser) parseComparison() ast.Expr {
	return p.parseBinaryLevel(p.parseTerm, lexer.TokGt, lexer.TokGtEq, lexer.TokLt, lexer.TokLtEq)
}

func (p *parser) parseTerm() ast.Expr {
	return p.parseBinaryLevel(p.parseFactor, lexer.TokMinus, lexer.TokPlus)
}

func (p *parser) parseFactor() ast.Expr {
	return p.parseBinaryLevel(p.parseUnary, lexer.TokSlash, lexer.TokStar)
}

func (p *parser) parseUnary() ast.Expr {
	if p.check(lexer.TokBang) || p.check(lexer.TokMinus) {
		opTok := p.advance()
		operand := p.parseUnary()
		if operand == nil {
			return nil
		}
		op := ast.OpNeg
		if opTok.Type == lexer.TokBang {
			op = ast.OpNot
		}
		return &ast.UnaryExpr{
			Span:    p.spanFromTo(opTok.Span, operand.NodeSpan()),
			Op:      op,
			Operand: operand,
		}
	}
	return p.parseCall()
}

func (p *parser) parseCall() ast.Expr {
	expr := p.parsePrimary()
	for expr != nil {
		switch {
		case p.match(lexer.TokLParen):
			expr = p.finishCall(expr)
		case p.match(lexer.TokDot):
			name, ok := p.expect(lexer.TokIdent, "Expect property name after '.'.")
			if !ok {
				return nil
			}
			expr = &ast.GetExpr{
				Span:   p.spanFromTo(expr.NodeSpan(), name.Span),
				Object: expr,
				Name:   name.Value,
			}
		default:
			return expr
		}
	}
	return nil
}

func (p *parser) finishCall(callee ast.Expr) ast.Expr {
	var args []ast.Expr
	if !p.check(lexer.TokRParen) {
		for {
			if len(args) >= MaxArgs {
				p.errorAt(p.current(), fmt.Sprintf("Can't have more than %d arguments.", MaxArgs))
			}
			arg := p.parseExpression()
			if arg == nil {
				return nil
			}
			args = append(args, arg)
			if !p.match(lexer.TokComma) {
				break
			}
		}
	}
	paren, ok := p.expect(lexer.TokRParen, "Expect ')' after arguments.")
	if !ok {
		return nil
	}
	return &ast.CallExpr{
		Span:   p.spanFromTo(callee.NodeSpan(), paren.Span),
		Callee: callee,
		Args:   args,
	}
}

func (p *parser) parsePrimary() ast.Expr {
	tok := p.current()
	switch tok.Type {
	case lexer.TokFalse:
		p.advance()
		return &ast.LiteralExpr{Span: tok.Span, Value: false}
	case lexer.TokTrue:
		p.advance()
		return &ast.LiteralExpr{Span: tok.Span, Value: true}
	case lexer.TokNil:
		p.advance()
		return &ast.LiteralExpr{Span: tok.Span, Value: nil}
	case lexer.TokNumber:
		p.advance()
		val, err := strconv.ParseFloat(tok.Value, 64)
		if err != nil {
			p.errorAt(tok, fmt.Sprintf("Invalid number literal '%s'.", tok.Value))
			return nil
		}
		return &ast.LiteralExpr{Span: tok.Span, Value: val}
	case lexer.TokString:
		p.advance()
		return &ast.LiteralExpr{Span: tok.Span, Value: tok.Value}
	case lexer.TokThis:
		p.advance()
		return &ast.ThisExpr{Span: tok.Span}
	case lexer.TokSuper:
		p.advance()
		if _, ok := p.expect(lexer.TokDot, "Expect '.' after 'super'."); !ok {
			return nil
		}
		method, ok := p.expect(lexer.TokIdent, "Expect superclass method name.")
		if !ok {
			return nil
		}
		return &ast.SuperExpr{Span: p.spanFromTo(tok.Span, method.Span), Method: method.Value}
	case lexer.TokIdent:
		p.advance()
		return &ast.VariableExpr{Span: tok.Span, Name: tok.Value}
	case lexer.TokFun:
		return p.parseFunctionExpr()
	case lexer.TokLParen:
		p.advance()
		inner := p.parseExpression()
		if inner == nil {
			return nil
		}
		if _, ok := p.expect(lexer.TokRParen, "Expect ')' after expression."); !ok {
			return nil
		}
		return &ast.GroupingExpr{Span: p.spanFrom(tok.Span), Expr: inner}
	}

	p.errorAt(tok, "Expect expression.")
	return nil
}

func (p *parser) parseFunctionExpr() ast.Expr {
	start := p.advance() // consume 'fun'
	if _, ok := p.expect(lexer.TokLParen, "Expect '(' after 'fun'."); !ok {
		return nil
	}
	params, ok := p.parseParams()
	if !ok {
		return nil
	}
	if _, ok := p.expect(lexer.TokLBrace, "Expect '{' before function body."); !ok {
		return nil
	}
	body := p.parseBlockBody()
	if body == nil {
		return nil
	}
	return &ast.FunctionExpr{
		Span:   p.spanFrom(start.Span),
		Params: params,
		Body:   *body,
	}
}
