package primitives

import "fmt"

// registerLogical registers the movable boolean opcodes.
func (r *Registry) registerLogical() {
	r.Register("and", Primitive{Movable: true, Eval: logicalBinary(func(a, b bool) bool { return a && b })})
	r.Register("or", Primitive{Movable: true, Eval: logicalBinary(func(a, b bool) bool { return a || b })})
	r.Register("not", Primitive{Movable: true, Eval: logicalNot})
}

func logicalBinary(op func(a, b bool) bool) Eval {
	return func(args []Value) (Value, error) {
		if len(args) != 2 {
			return Value{}, fmt.Errorf("primitives: expected 2 arguments, got %d", len(args))
		}
		return Bool(op(args[0].Truthy(), args[1].Truthy())), nil
	}
}

func logicalNot(args []Value) (Value, error) {
	if len(args) != 1 {
		return Value{}, fmt.Errorf("primitives: not expects 1 argument, got %d", len(args))
	}
	return Bool(!args[0].Truthy()), nil
}
