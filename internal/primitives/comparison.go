package primitives

import "fmt"

// registerComparison registers the movable ordering/equality opcodes.
func (r *Registry) registerComparison() {
	r.Register("eq", Primitive{Movable: true, Eval: equality(true)})
	r.Register("ne", Primitive{Movable: true, Eval: equality(false)})
	r.Register("lt", Primitive{Movable: true, Eval: ordering(func(c int) bool { return c < 0 })})
	r.Register("le", Primitive{Movable: true, Eval: ordering(func(c int) bool { return c <= 0 })})
	r.Register("gt", Primitive{Movable: true, Eval: ordering(func(c int) bool { return c > 0 })})
	r.Register("ge", Primitive{Movable: true, Eval: ordering(func(c int) bool { return c >= 0 })})
}

func equality(wantEqual bool) Eval {
	return func(args []Value) (Value, error) {
		if len(args) != 2 {
			return Value{}, fmt.Errorf("primitives: expected 2 arguments, got %d", len(args))
		}
		eq := valuesEqual(args[0], args[1])
		return Bool(eq == wantEqual), nil
	}
}

func valuesEqual(a, b Value) bool {
	if a.Kind == "string" || b.Kind == "string" {
		return a.Kind == b.Kind && a.Str == b.Str
	}
	if a.Kind == "bool" || b.Kind == "bool" {
		return a.Kind == b.Kind && a.Bool == b.Bool
	}
	return a.AsFloat() == b.AsFloat()
}

func ordering(pred func(cmp int) bool) Eval {
	return func(args []Value) (Value, error) {
		if len(args) != 2 {
			return Value{}, fmt.Errorf("primitives: expected 2 arguments, got %d", len(args))
		}
		a, b := args[0], args[1]
		if a.Kind == "string" && b.Kind == "string" {
			switch {
			case a.Str < b.Str:
				return Bool(pred(-1)), nil
			case a.Str > b.Str:
				return Bool(pred(1)), nil
			default:
				return Bool(pred(0)), nil
			}
		}
		af, bf := a.AsFloat(), b.AsFloat()
		switch {
		case af < bf:
			return Bool(pred(-1)), nil
		case af > bf:
			return Bool(pred(1)), nil
		default:
			return Bool(pred(0)), nil
		}
	}
}
