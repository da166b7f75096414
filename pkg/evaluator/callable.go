package evaluator

import (
	"context"
	"fmt"

	"github.com/thomasrohde/golox/pkg/ast"
	"github.com/thomasrohde/golox/pkg/diagnostics"
)

// Callable is implemented by every value that can appear before `(...)`.
type Callable interface {
	LoxValue
	Arity() int
	Call(ctx context.Context, in *Interpreter, args []LoxValue) (LoxValue, error)
}

// LoxFunction is a user-defined function or method closed over the frame
// that was active where it was declared.
type LoxFunction struct {
	Name          string // empty for anonymous functions
	Params        []ast.Param
	Body          []ast.Stmt
	Closure       *Env
	IsInitializer bool
}

func (*LoxFunction) loxValue() {}

// Arity returns the number of declared parameters.
func (f *LoxFunction) Arity() int { return len(f.Params) }

func (f *LoxFunction) String() string {
	if f.Name == "" {
		return "<fn>"
	}
	return "<fn " + f.Name + ">"
}

// Call runs the function body in a fresh frame whose parent is the closure.
func (f *LoxFunction) Call(ctx context.Context, in *Interpreter, args []LoxValue) (LoxValue, error) {
	return f.callIn(ctx, in, f.Closure, args)
}

func (f *LoxFunction) callIn(ctx context.Context, in *Interpreter, closure *Env, args []LoxValue) (LoxValue, error) {
	env := NewEnv(closure)
	for i, p := range f.Params {
		env.Define(p.Name, args[i])
	}

	sig, err := in.executeStmts(ctx, f.Body, env)
	if err != nil {
		return nil, err
	}
	if sig.kind == sigBreak {
		span := f.bodySpan()
		return nil, &InternalError{Message: "break escaped function body " + f.String(), Span: span}
	}

	if f.IsInitializer {
		this, ok := closure.GetAt(0, "this")
		if !ok {
			return nil, &InternalError{Message: "initializer called without a receiver"}
		}
		return this, nil
	}
	if sig.kind == sigReturn {
		return sig.value, nil
	}
	return NewNil(), nil
}

func (f *LoxFunction) bodySpan() *ast.Span {
	if len(f.Body) == 0 {
		return nil
	}
	span := f.Body[0].NodeSpan()
	return &span
}

// Bind returns the method with receiver available as `this`.
func (f *LoxFunction) Bind(receiver LoxValue) *LoxBoundMethod {
	return &LoxBoundMethod{Method: f, Receiver: receiver}
}

// LoxBoundMethod pairs a method with the receiver it was accessed on.
// A new one is created on every property access.
type LoxBoundMethod struct {
	Method   *LoxFunction
	Receiver LoxValue
}

func (*LoxBoundMethod) loxValue() {}

func (m *LoxBoundMethod) Arity() int { return m.Method.Arity() }

// Call defines `this` in a frame between the method's closure and its
// parameter frame.
func (m *LoxBoundMethod) Call(ctx context.Context, in *Interpreter, args []LoxValue) (LoxValue, error) {
	thisEnv := NewEnv(m.Method.Closure)
	thisEnv.Define("this", m.Receiver)
	return m.Method.callIn(ctx, in, thisEnv, args)
}

// NativeFunc is the host implementation behind a native function.
type NativeFunc func(ctx context.Context, in *Interpreter, args []LoxValue) (LoxValue, error)

// LoxNative is a function implemented by the host, such as clock.
type LoxNative struct {
	Name    string
	Params  int
	Execute NativeFunc
}

func (*LoxNative) loxValue() {}

func (n *LoxNative) Arity() int { return n.Params }

func (n *LoxNative) Call(ctx context.Context, in *Interpreter, args []LoxValue) (LoxValue, error) {
	return n.Execute(ctx, in, args)
}

// LoxClass is a class value. Calling it constructs an instance.
type LoxClass struct {
	Name       string
	Superclass *LoxClass
	Methods    map[string]*LoxFunction
	Statics    map[string]*LoxFunction
}

func (*LoxClass) loxValue() {}

// FindMethod looks up an instance method, walking the superclass chain.
func (c *LoxClass) FindMethod(name string) *LoxFunction {
	for cls := c; cls != nil; cls = cls.Superclass {
		if m, ok := cls.Methods[name]; ok {
			return m
		}
	}
	return nil
}

// FindStatic looks up a static method, walking the superclass chain.
func (c *LoxClass) FindStatic(name string) *LoxFunction {
	for cls := c; cls != nil; cls = cls.Superclass {
		if m, ok := cls.Statics[name]; ok {
			return m
		}
	}
	return nil
}

// Arity is the initializer's arity, or 0 without one.
func (c *LoxClass) Arity() int {
	if init := c.FindMethod("init"); init != nil {
		return init.Arity()
	}
	return 0
}

// Call constructs a new instance and runs the initializer on it.
func (c *LoxClass) Call(ctx context.Context, in *Interpreter, args []LoxValue) (LoxValue, error) {
	instance := NewInstance(c)
	if init := c.FindMethod("init"); init != nil {
		if _, err := init.Bind(instance).Call(ctx, in, args); err != nil {
			return nil, err
		}
	}
	return instance, nil
}

// Get returns a static method bound to the class.
func (c *LoxClass) Get(name string) (LoxValue, bool) {
	if m := c.FindStatic(name); m != nil {
		return m.Bind(c), true
	}
	return nil, false
}

// LoxInstance is an object created by calling a class.
type LoxInstance struct {
	Class  *LoxClass
	Fields map[string]LoxValue
}

func (*LoxInstance) loxValue() {}

// NewInstance creates an instance of class with no fields.
func NewInstance(class *LoxClass) *LoxInstance {
	return &LoxInstance{Class: class, Fields: make(map[string]LoxValue)}
}

// Get returns a field, or else a method bound to the instance. Fields
// shadow methods.
func (i *LoxInstance) Get(name string) (LoxValue, bool) {
	if v, ok := i.Fields[name]; ok {
		return v, true
	}
	if m := i.Class.FindMethod(name); m != nil {
		return m.Bind(i), true
	}
	return nil, false
}

// Set writes a field on the instance, creating it if needed.
func (i *LoxInstance) Set(name string, val LoxValue) {
	i.Fields[name] = val
}

// undefinedProperty builds the error for a failed property lookup.
func undefinedProperty(name string, span ast.Span) error {
	return &LoxRuntimeError{
		Code:    diagnostics.EUndefinedProp,
		Message: fmt.Sprintf("Undefined property '%s'.", name),
		Span:    &span,
	}
}
