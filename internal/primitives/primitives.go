// Package primitives is the opcode registry backing spec.md §4.6's
// external movable(opcode) -> bool predicate: a small, fixed set of
// primitive instructions (arithmetic, comparison, logical, string
// concatenation), each flagged pure or not, with an evaluator
// internal/interp uses to run them.
//
// Grounded on the teacher's internal/stdlib registry pattern
// (Registry.Register(name, fn), one file per category) — adapted from a
// name->function builtin-call registry to a name->Primitive opcode
// registry, since this IL's FunctionalInstruction/Instruction nodes carry
// opcodes, not builtin function names.
package primitives

import "fmt"

// Value is the tiny runtime value primitives operate on. internal/interp
// shares this type so passes and the reference interpreter agree on what
// a primitive call produces.
type Value struct {
	Kind string // "int", "float", "string", "bool"
	Int  int64
	Flt  float64
	Str  string
	Bool bool
}

func Int(v int64) Value     { return Value{Kind: "int", Int: v} }
func Float(v float64) Value { return Value{Kind: "float", Flt: v} }
func String(v string) Value { return Value{Kind: "string", Str: v} }
func Bool(v bool) Value     { return Value{Kind: "bool", Bool: v} }

func (v Value) AsFloat() float64 {
	switch v.Kind {
	case "float":
		return v.Flt
	case "int":
		return float64(v.Int)
	default:
		return 0
	}
}

func (v Value) Truthy() bool {
	switch v.Kind {
	case "bool":
		return v.Bool
	case "int":
		return v.Int != 0
	case "float":
		return v.Flt != 0
	case "string":
		return v.Str != ""
	default:
		return false
	}
}

// Eval is a primitive instruction's evaluation function.
type Eval func(args []Value) (Value, error)

// Primitive is one registered opcode: whether it is movable (pure — no
// observable side effect, safe to duplicate/reorder/drop) and how to
// evaluate it.
type Primitive struct {
	Movable bool
	Eval    Eval
}

// Registry is a name -> Primitive opcode table.
type Registry struct {
	opcodes map[string]Primitive
}

// NewRegistry builds the registry of primitive opcodes this module knows.
func NewRegistry() *Registry {
	r := &Registry{opcodes: make(map[string]Primitive)}
	r.registerArithmetic()
	r.registerComparison()
	r.registerLogical()
	r.registerString()
	return r
}

// Register adds or overwrites a primitive opcode definition.
func (r *Registry) Register(opcode string, p Primitive) {
	r.opcodes[opcode] = p
}

// Movable implements the movable(opcode) -> bool predicate spec.md §4.6
// requires: unknown opcodes are conservatively treated as not movable.
func (r *Registry) Movable(opcode string) bool {
	p, ok := r.opcodes[opcode]
	return ok && p.Movable
}

// Eval runs opcode's evaluator against args.
func (r *Registry) Eval(opcode string, args []Value) (Value, error) {
	p, ok := r.opcodes[opcode]
	if !ok {
		return Value{}, fmt.Errorf("primitives: unknown opcode %q", opcode)
	}
	return p.Eval(args)
}

// Default is the registry internal/interp and internal/optimizer's tests
// use; there is exactly one sensible opcode set for this IL, so a package-
// level instance avoids every caller constructing its own.
var Default = NewRegistry()
