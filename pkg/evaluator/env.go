package evaluator

// Env is a scoped environment for variable bindings.
// It supports parent-chained lookup for lexical scoping. Frames captured by
// closures stay reachable for as long as the closure does.
type Env struct {
	bindings map[string]LoxValue
	parent   *Env
}

// NewEnv creates a new environment with an optional parent scope.
func NewEnv(parent *Env) *Env {
	return &Env{
		bindings: make(map[string]LoxValue),
		parent:   parent,
	}
}

// Child creates a new child scope whose parent is this environment.
func (e *Env) Child() *Env {
	return NewEnv(e)
}

// declare binds name to nil unless this scope already binds it.
func (e *Env) declare(name string) {
	if _, ok := e.bindings[name]; !ok {
		e.bindings[name] = NewNil()
	}
}

// Define binds a variable in this scope, replacing any existing binding.
func (e *Env) Define(name string, val LoxValue) {
	e.bindings[name] = val
}

// Get looks up a variable by name, traversing parent scopes.
func (e *Env) Get(name string) (LoxValue, bool) {
	if val, ok := e.bindings[name]; ok {
		return val, true
	}
	if e.parent != nil {
		return e.parent.Get(name)
	}
	return nil, false
}

// Assign updates the nearest existing binding for name. It reports false
// when no scope in the chain defines it.
func (e *Env) Assign(name string, val LoxValue) bool {
	for env := e; env != nil; env = env.parent {
		if _, ok := env.bindings[name]; ok {
			env.bindings[name] = val
			return true
		}
	}
	return false
}

// Ancestor walks exactly distance parent links. It returns nil when the
// chain is shorter than distance.
func (e *Env) Ancestor(distance int) *Env {
	env := e
	for i := 0; i < distance && env != nil; i++ {
		env = env.parent
	}
	return env
}

// GetAt reads name from the frame distance hops away without searching.
func (e *Env) GetAt(distance int, name string) (LoxValue, bool) {
	env := e.Ancestor(distance)
	if env == nil {
		return nil, false
	}
	val, ok := env.bindings[name]
	return val, ok
}

// AssignAt writes name in the frame distance hops away without searching.
func (e *Env) AssignAt(distance int, name string, val LoxValue) bool {
	env := e.Ancestor(distance)
	if env == nil {
		return false
	}
	if _, ok := env.bindings[name]; !ok {
		return false
	}
	env.bindings[name] = val
	return true
}

// Has checks whether a variable is defined in this scope or any parent.
func (e *Env) Has(name string) bool {
	if _, ok := e.bindings[name]; ok {
		return true
	}
	if e.parent != nil {
		return e.parent.Has(name)
	}
	return false
}

// Names returns the names bound directly in this scope.
func (e *Env) Names() []string {
	names := make([]string, 0, len(e.bindings))
	for name := range e.bindings {
		names = append(names, name)
	}
	return names
}
