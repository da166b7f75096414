package evaluator

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/thomasrohde/golox/pkg/ast"
	"github.com/thomasrohde/golox/pkg/diagnostics"
)

// TraceEventType identifies the type of a trace event.
type TraceEventType string

const (
	TraceRunStart  TraceEventType = "run_start"
	TraceRunEnd    TraceEventType = "run_end"
	TraceCallStart TraceEventType = "call_start"
	TraceCallEnd   TraceEventType = "call_end"
)

// TraceEvent represents a single trace event emitted during execution.
type TraceEvent struct {
	Timestamp string         `json:"ts"`
	RunID     string         `json:"runId"`
	Event     TraceEventType `json:"event"`
	Span      *ast.Span      `json:"span,omitempty"`
	Name      string         `json:"name,omitempty"`
	Depth     int            `json:"depth,omitempty"`
}

// ExecOptions configures program execution.
type ExecOptions struct {
	Stdout  io.Writer
	Natives []*LoxNative
	Trace   func(event TraceEvent)
	RunID   string
	Limits  Limits
}

// ExecResult holds statistics about a finished execution.
type ExecResult struct {
	Calls    int64
	MaxDepth int
}

// LoxRuntimeError is a dynamic error raised while a program runs. It aborts
// the whole program.
type LoxRuntimeError struct {
	Code    string
	Message string
	Span    *ast.Span
}

func (e *LoxRuntimeError) Error() string {
	return e.Message
}

// InternalError reports a broken contract between the resolver and the
// interpreter, such as a break escaping to the top level. It is never a
// user error.
type InternalError struct {
	Message string
	Span    *ast.Span
}

func (e *InternalError) Error() string {
	return "internal error: " + e.Message
}

// Code returns the diagnostic code for internal errors.
func (e *InternalError) Code() string {
	return diagnostics.EInternal
}

type signalKind int

const (
	sigNone signalKind = iota
	sigBreak
	sigReturn
)

// signal is the outcome of executing a statement. Non-none signals are
// forwarded by every statement until a loop or call consumes them.
type signal struct {
	kind  signalKind
	value LoxValue
}

var normal = signal{kind: sigNone}

// Interpreter executes resolved programs. Globals persist across calls to
// Interpret, so one Interpreter can serve a whole REPL session.
type Interpreter struct {
	globals   *Env
	distances map[ast.Expr]int
	stdout    io.Writer
	limits    Limits
	trace     func(event TraceEvent)
	runID     string
	tracker   CallTracker
}

// NewInterpreter creates an interpreter with natives defined as globals.
func NewInterpreter(opts ExecOptions) *Interpreter {
	in := &Interpreter{
		globals:   NewEnv(nil),
		distances: make(map[ast.Expr]int),
		stdout:    opts.Stdout,
		limits:    opts.Limits,
		trace:     opts.Trace,
		runID:     opts.RunID,
	}
	if in.stdout == nil {
		in.stdout = os.Stdout
	}
	for _, n := range opts.Natives {
		in.globals.Define(n.Name, n)
	}
	return in
}

// Execute runs program on a fresh interpreter using the distance table
// produced by the resolver.
func Execute(ctx context.Context, program *ast.Program, distances map[ast.Expr]int, opts ExecOptions) (*ExecResult, error) {
	in := NewInterpreter(opts)
	err := in.Interpret(ctx, program, distances)
	stats := in.Stats()
	return &stats, err
}

// Stdout returns the writer print and output natives write to.
func (in *Interpreter) Stdout() io.Writer {
	return in.stdout
}

// Globals returns the global frame.
func (in *Interpreter) Globals() *Env {
	return in.globals
}

// Stats returns call statistics accumulated so far.
func (in *Interpreter) Stats() ExecResult {
	return ExecResult{Calls: in.tracker.Calls, MaxDepth: in.tracker.MaxDepth}
}

func (in *Interpreter) emit(event TraceEventType, span *ast.Span, name string) {
	if in.trace != nil {
		in.trace(TraceEvent{
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
			RunID:     in.runID,
			Event:     event,
			Span:      span,
			Name:      name,
			Depth:     in.tracker.Depth,
		})
	}
}

// Interpret runs program's statements in the global frame. The first
// runtime error stops execution and is returned.
func (in *Interpreter) Interpret(ctx context.Context, program *ast.Program, distances map[ast.Expr]int) error {
	for expr, d := range distances {
		in.distances[expr] = d
	}

	span := program.Span
	in.emit(TraceRunStart, &span, "")
	defer in.emit(TraceRunEnd, &span, "")

	for _, stmt := range program.Statements {
		sig, err := in.execute(ctx, stmt, in.globals)
		if err != nil {
			return err
		}
		if sig.kind != sigNone {
			s := stmt.NodeSpan()
			return &InternalError{Message: "control signal escaped to top level", Span: &s}
		}
	}
	return nil
}

func runtimeErr(code string, span ast.Span, format string, args ...any) error {
	return &LoxRuntimeError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Span:    &span,
	}
}

func canceled(ctx context.Context, span ast.Span) error {
	if ctx.Err() != nil {
		return runtimeErr(diagnostics.ECanceled, span, "Execution canceled.")
	}
	return nil
}

// --- Statements ---

func (in *Interpreter) executeStmts(ctx context.Context, stmts []ast.Stmt, env *Env) (signal, error) {
	for _, stmt := range stmts {
		sig, err := in.execute(ctx, stmt, env)
		if err != nil || sig.kind != sigNone {
			return sig, err
		}
	}
	return normal, nil
}

func (in *Interpreter) execute(ctx context.Context, stmt ast.Stmt, env *Env) (signal, error) {
	switch s := stmt.(type) {
	case *ast.ExprStmt:
		_, err := in.evalExpr(ctx, s.Expr, env)
		return normal, err

	case *ast.PrintStmt:
		val, err := in.evalExpr(ctx, s.Expr, env)
		if err != nil {
			return normal, err
		}
		fmt.Fprintln(in.stdout, Stringify(val))
		return normal, nil

	case *ast.VarStmt:
		var val LoxValue = NewNil()
		if s.Init != nil {
			// A closure built by the initializer may run before the
			// initializer finishes; it sees nil until then.
			if env != in.globals {
				env.declare(s.Name)
			}
			v, err := in.evalExpr(ctx, s.Init, env)
			if err != nil {
				return normal, err
			}
			val = v
		}
		env.Define(s.Name, val)
		return normal, nil

	case *ast.BlockStmt:
		return in.executeStmts(ctx, s.Statements, env.Child())

	case *ast.IfStmt:
		cond, err := in.evalExpr(ctx, s.Cond, env)
		if err != nil {
			return normal, err
		}
		if Truthiness(cond) {
			return in.execute(ctx, s.Then, env)
		}
		if s.Else != nil {
			return in.execute(ctx, s.Else, env)
		}
		return normal, nil

	case *ast.WhileStmt:
		return in.executeWhile(ctx, s, env)

	case *ast.ForStmt:
		return in.executeFor(ctx, s, env)

	case *ast.BreakStmt:
		return signal{kind: sigBreak}, nil

	case *ast.ReturnStmt:
		var val LoxValue = NewNil()
		if s.Value != nil {
			v, err := in.evalExpr(ctx, s.Value, env)
			if err != nil {
				return normal, err
			}
			val = v
		}
		return signal{kind: sigReturn, value: val}, nil

	case *ast.FunctionStmt:
		env.Define(s.Name, &LoxFunction{
			Name:    s.Name,
			Params:  s.Params,
			Body:    s.Body,
			Closure: env,
		})
		return normal, nil

	case *ast.ClassStmt:
		return normal, in.executeClass(ctx, s, env)
	}

	span := stmt.NodeSpan()
	return normal, &InternalError{Message: fmt.Sprintf("unknown statement kind: %s", stmt.Kind()), Span: &span}
}

func (in *Interpreter) executeWhile(ctx context.Context, s *ast.WhileStmt, env *Env) (signal, error) {
	for {
		if err := canceled(ctx, s.Span); err != nil {
			return normal, err
		}
		cond, err := in.evalExpr(ctx, s.Cond, env)
		if err != nil {
			return normal, err
		}
		if !Truthiness(cond) {
			return normal, nil
		}

		sig, err := in.execute(ctx, s.Body, env)
		if err != nil {
			return normal, err
		}
		switch sig.kind {
		case sigBreak:
			return normal, nil
		case sigReturn:
			return sig, nil
		}
	}
}

// executeFor runs Init in its own frame, then Body and Incr in a fresh
// frame per iteration. The resolver lays out the same frames.
func (in *Interpreter) executeFor(ctx context.Context, s *ast.ForStmt, env *Env) (signal, error) {
	loopEnv := env
	if s.Init != nil {
		loopEnv = env.Child()
		if _, err := in.execute(ctx, s.Init, loopEnv); err != nil {
			return normal, err
		}
	}

	for {
		if err := canceled(ctx, s.Span); err != nil {
			return normal, err
		}
		if s.Cond != nil {
			cond, err := in.evalExpr(ctx, s.Cond, loopEnv)
			if err != nil {
				return normal, err
			}
			if !Truthiness(cond) {
				return normal, nil
			}
		}

		iterEnv := loopEnv.Child()
		sig, err := in.execute(ctx, s.Body, iterEnv)
		if err != nil {
			return normal, err
		}
		switch sig.kind {
		case sigBreak:
			return normal, nil
		case sigReturn:
			return sig, nil
		}

		if s.Incr != nil {
			if _, err := in.evalExpr(ctx, s.Incr, iterEnv); err != nil {
				return normal, err
			}
		}
	}
}

func (in *Interpreter) executeClass(ctx context.Context, s *ast.ClassStmt, env *Env) error {
	var superclass *LoxClass
	if s.Superclass != nil {
		val, err := in.evalExpr(ctx, s.Superclass, env)
		if err != nil {
			return err
		}
		cls, ok := val.(*LoxClass)
		if !ok {
			return runtimeErr(diagnostics.ESuperclass, s.Superclass.Span, "Superclass must be a class.")
		}
		superclass = cls
	}

	env.Define(s.Name, NewNil())

	methodEnv := env
	if superclass != nil {
		methodEnv = env.Child()
		methodEnv.Define("super", superclass)
	}

	class := &LoxClass{
		Name:       s.Name,
		Superclass: superclass,
		Methods:    make(map[string]*LoxFunction, len(s.Methods)),
		Statics:    make(map[string]*LoxFunction, len(s.Statics)),
	}
	for _, m := range s.Methods {
		class.Methods[m.Name] = &LoxFunction{
			Name:          m.Name,
			Params:        m.Params,
			Body:          m.Body,
			Closure:       methodEnv,
			IsInitializer: m.Name == "init",
		}
	}
	for _, m := range s.Statics {
		class.Statics[m.Name] = &LoxFunction{
			Name:    m.Name,
			Params:  m.Params,
			Body:    m.Body,
			Closure: methodEnv,
		}
	}

	env.Define(s.Name, class)
	return nil
}

// --- Expressions ---

func (in *Interpreter) evalExpr(ctx context.Context, expr ast.Expr, env *Env) (LoxValue, error) {
	switch e := expr.(type) {
	case *ast.LiteralExpr:
		return literalValue(e.Value), nil

	case *ast.GroupingExpr:
		return in.evalExpr(ctx, e.Expr, env)

	case *ast.UnaryExpr:
		return in.evalUnary(ctx, e, env)

	case *ast.BinaryExpr:
		return in.evalBinary(ctx, e, env)

	case *ast.LogicalExpr:
		left, err := in.evalExpr(ctx, e.Left, env)
		if err != nil {
			return nil, err
		}
		if e.Op == ast.OpOr {
			if Truthiness(left) {
				return left, nil
			}
		} else if !Truthiness(left) {
			return left, nil
		}
		return in.evalExpr(ctx, e.Right, env)

	case *ast.ConditionalExpr:
		cond, err := in.evalExpr(ctx, e.Cond, env)
		if err != nil {
			return nil, err
		}
		if Truthiness(cond) {
			return in.evalExpr(ctx, e.Then, env)
		}
		return in.evalExpr(ctx, e.Else, env)

	case *ast.VariableExpr:
		return in.lookUpVariable(e.Name, e, env)

	case *ast.AssignExpr:
		val, err := in.evalExpr(ctx, e.Value, env)
		if err != nil {
			return nil, err
		}
		if err := in.assignVariable(e, val, env); err != nil {
			return nil, err
		}
		return val, nil

	case *ast.CallExpr:
		return in.evalCall(ctx, e, env)

	case *ast.GetExpr:
		obj, err := in.evalExpr(ctx, e.Object, env)
		if err != nil {
			return nil, err
		}
		return getProperty(obj, e.Name, e.Span)

	case *ast.SetExpr:
		obj, err := in.evalExpr(ctx, e.Object, env)
		if err != nil {
			return nil, err
		}
		instance, ok := obj.(*LoxInstance)
		if !ok {
			return nil, runtimeErr(diagnostics.ENotInstance, e.Span, "Only instances have fields.")
		}
		val, err := in.evalExpr(ctx, e.Value, env)
		if err != nil {
			return nil, err
		}
		instance.Set(e.Name, val)
		return val, nil

	case *ast.ThisExpr:
		return in.lookUpVariable("this", e, env)

	case *ast.SuperExpr:
		return in.evalSuper(e, env)

	case *ast.FunctionExpr:
		return &LoxFunction{Params: e.Params, Body: e.Body, Closure: env}, nil
	}

	span := expr.NodeSpan()
	return nil, &InternalError{Message: fmt.Sprintf("unknown expression kind: %s", expr.Kind()), Span: &span}
}

func literalValue(v any) LoxValue {
	switch val := v.(type) {
	case bool:
		return NewBool(val)
	case float64:
		return NewNumber(val)
	case string:
		return NewString(val)
	}
	return NewNil()
}

// lookUpVariable reads a resolved name at its recorded distance, or from
// the globals when the resolver left no entry.
func (in *Interpreter) lookUpVariable(name string, expr ast.Expr, env *Env) (LoxValue, error) {
	if d, ok := in.distances[expr]; ok {
		val, found := env.GetAt(d, name)
		if !found {
			span := expr.NodeSpan()
			return nil, &InternalError{Message: fmt.Sprintf("resolved '%s' at distance %d but frame has no binding", name, d), Span: &span}
		}
		return val, nil
	}
	if val, ok := in.globals.Get(name); ok {
		return val, nil
	}
	return nil, runtimeErr(diagnostics.EUndefinedVar, expr.NodeSpan(), "Undefined variable '%s'.", name)
}

func (in *Interpreter) assignVariable(e *ast.AssignExpr, val LoxValue, env *Env) error {
	if d, ok := in.distances[e]; ok {
		if !env.AssignAt(d, e.Name, val) {
			return &InternalError{Message: fmt.Sprintf("resolved '%s' at distance %d but frame has no binding", e.Name, d), Span: &e.Span}
		}
		return nil
	}
	if !in.globals.Assign(e.Name, val) {
		return runtimeErr(diagnostics.EUndefinedVar, e.Span, "Undefined variable '%s'.", e.Name)
	}
	return nil
}

func getProperty(obj LoxValue, name string, span ast.Span) (LoxValue, error) {
	switch o := obj.(type) {
	case *LoxInstance:
		if v, ok := o.Get(name); ok {
			return v, nil
		}
		return nil, undefinedProperty(name, span)
	case *LoxClass:
		if v, ok := o.Get(name); ok {
			return v, nil
		}
		return nil, undefinedProperty(name, span)
	}
	return nil, runtimeErr(diagnostics.ENotInstance, span, "Only instances have properties.")
}

func (in *Interpreter) evalSuper(e *ast.SuperExpr, env *Env) (LoxValue, error) {
	d, ok := in.distances[e]
	if !ok {
		return nil, &InternalError{Message: "unresolved 'super'", Span: &e.Span}
	}
	superVal, _ := env.GetAt(d, "super")
	superclass, ok := superVal.(*LoxClass)
	if !ok {
		return nil, &InternalError{Message: "'super' is not bound to a class", Span: &e.Span}
	}
	receiver, ok := env.GetAt(d-1, "this")
	if !ok {
		return nil, &InternalError{Message: "'this' missing below 'super'", Span: &e.Span}
	}

	var method *LoxFunction
	if _, static := receiver.(*LoxClass); static {
		method = superclass.FindStatic(e.Method)
	} else {
		method = superclass.FindMethod(e.Method)
	}
	if method == nil {
		return nil, undefinedProperty(e.Method, e.Span)
	}
	return method.Bind(receiver), nil
}

func (in *Interpreter) evalUnary(ctx context.Context, e *ast.UnaryExpr, env *Env) (LoxValue, error) {
	operand, err := in.evalExpr(ctx, e.Operand, env)
	if err != nil {
		return nil, err
	}
	switch e.Op {
	case ast.OpNeg:
		n, ok := operand.(LoxNumber)
		if !ok {
			return nil, runtimeErr(diagnostics.EType, e.Span, "Operand must be a number.")
		}
		return NewNumber(-n.Value), nil
	case ast.OpNot:
		return NewBool(!Truthiness(operand)), nil
	}
	return nil, &InternalError{Message: fmt.Sprintf("unknown unary operator %q", e.Op), Span: &e.Span}
}

func (in *Interpreter) evalBinary(ctx context.Context, e *ast.BinaryExpr, env *Env) (LoxValue, error) {
	left, err := in.evalExpr(ctx, e.Left, env)
	if err != nil {
		return nil, err
	}
	right, err := in.evalExpr(ctx, e.Right, env)
	if err != nil {
		return nil, err
	}

	switch e.Op {
	case ast.OpEqEq:
		return NewBool(Equal(left, right)), nil
	case ast.OpNeq:
		return NewBool(!Equal(left, right)), nil
	case ast.OpAdd:
		return add(left, right, e.Span)
	}

	ln, lok := left.(LoxNumber)
	rn, rok := right.(LoxNumber)
	if !lok || !rok {
		return nil, runtimeErr(diagnostics.EType, e.Span, "Operands must be numbers.")
	}
	a, b := ln.Value, rn.Value

	switch e.Op {
	case ast.OpSub:
		return NewNumber(a - b), nil
	case ast.OpMul:
		return NewNumber(a * b), nil
	case ast.OpDiv:
		if b == 0 {
			return nil, runtimeErr(diagnostics.EDivZero, e.Span, "Division by zero.")
		}
		return NewNumber(a / b), nil
	case ast.OpGt:
		return NewBool(a > b), nil
	case ast.OpGtEq:
		return NewBool(a >= b), nil
	case ast.OpLt:
		return NewBool(a < b), nil
	case ast.OpLtEq:
		return NewBool(a <= b), nil
	}
	return nil, &InternalError{Message: fmt.Sprintf("unknown binary operator %q", e.Op), Span: &e.Span}
}

// add implements `+`: numeric sum, or concatenation when either side is a
// string and the other a string or number.
func add(left, right LoxValue, span ast.Span) (LoxValue, error) {
	switch l := left.(type) {
	case LoxNumber:
		switch r := right.(type) {
		case LoxNumber:
			return NewNumber(l.Value + r.Value), nil
		case LoxString:
			return NewString(FormatNumber(l.Value) + r.Value), nil
		}
	case LoxString:
		switch r := right.(type) {
		case LoxString:
			return NewString(l.Value + r.Value), nil
		case LoxNumber:
			return NewString(l.Value + FormatNumber(r.Value)), nil
		}
	}
	return nil, runtimeErr(diagnostics.EType, span, "Operands must be two numbers or two strings.")
}

func (in *Interpreter) evalCall(ctx context.Context, e *ast.CallExpr, env *Env) (LoxValue, error) {
	callee, err := in.evalExpr(ctx, e.Callee, env)
	if err != nil {
		return nil, err
	}

	args := make([]LoxValue, 0, len(e.Args))
	for _, a := range e.Args {
		v, err := in.evalExpr(ctx, a, env)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}

	fn, ok := callee.(Callable)
	if !ok {
		return nil, runtimeErr(diagnostics.ENotCallable, e.Span, "Can only call functions and classes.")
	}
	if len(args) != fn.Arity() {
		return nil, runtimeErr(diagnostics.EArity, e.Span, "Expected %d arguments but got %d.", fn.Arity(), len(args))
	}
	return in.call(ctx, fn, args, e.Span)
}

// call enforces the depth limit, emits trace events and attaches the call
// site to errors raised by natives.
func (in *Interpreter) call(ctx context.Context, fn Callable, args []LoxValue, span ast.Span) (LoxValue, error) {
	if err := canceled(ctx, span); err != nil {
		return nil, err
	}
	if in.tracker.Depth >= in.limits.maxCallDepth() {
		return nil, runtimeErr(diagnostics.EStackOverflow, span, "Stack overflow.")
	}

	name := Stringify(fn)
	in.tracker.enter()
	in.emit(TraceCallStart, &span, name)
	result, err := fn.Call(ctx, in, args)
	in.emit(TraceCallEnd, &span, name)
	in.tracker.leave()

	if err != nil {
		return nil, attachSpan(err, span)
	}
	return result, nil
}

func attachSpan(err error, span ast.Span) error {
	switch e := err.(type) {
	case *LoxRuntimeError:
		if e.Span == nil {
			e.Span = &span
		}
		return e
	case *InternalError:
		return e
	}
	return &LoxRuntimeError{Code: diagnostics.ENative, Message: err.Error(), Span: &span}
}
