package interp

import "github.com/ilopt-lang/ilopt/internal/primitives"

// Environment is a chain of variable frames: one per FunctionDefinition
// call and per Block scope, mirroring the Disambiguator's own scope
// stack. Lookups walk outward through parent until a binding is found.
type Environment struct {
	vars   map[string]primitives.Value
	parent *Environment
}

// NewEnvironment creates a frame chained to parent (nil for a function's
// top-level frame).
func NewEnvironment(parent *Environment) *Environment {
	return &Environment{vars: make(map[string]primitives.Value), parent: parent}
}

// Get resolves name against this frame, then its ancestors.
func (e *Environment) Get(name string) (primitives.Value, bool) {
	if v, ok := e.vars[name]; ok {
		return v, true
	}
	if e.parent != nil {
		return e.parent.Get(name)
	}
	return primitives.Value{}, false
}

// Set binds name in this frame, shadowing any outer binding of the same
// name for the remainder of this frame's lifetime.
func (e *Environment) Set(name string, value primitives.Value) {
	e.vars[name] = value
}
