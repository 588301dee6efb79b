package primitives

import "fmt"

// registerArithmetic registers the numeric opcodes; all are movable
// except div.
func (r *Registry) registerArithmetic() {
	r.Register("add", Primitive{Movable: true, Eval: numericBinary(
		func(a, b int64) int64 { return a + b },
		func(a, b float64) float64 { return a + b },
	)})
	r.Register("sub", Primitive{Movable: true, Eval: numericBinary(
		func(a, b int64) int64 { return a - b },
		func(a, b float64) float64 { return a - b },
	)})
	r.Register("mul", Primitive{Movable: true, Eval: numericBinary(
		func(a, b int64) int64 { return a * b },
		func(a, b float64) float64 { return a * b },
	)})
	r.Register("div", Primitive{Movable: false, Eval: divide})
	r.Register("neg", Primitive{Movable: true, Eval: negate})
}

func numericBinary(intOp func(a, b int64) int64, floatOp func(a, b float64) float64) Eval {
	return func(args []Value) (Value, error) {
		if len(args) != 2 {
			return Value{}, fmt.Errorf("primitives: expected 2 arguments, got %d", len(args))
		}
		a, b := args[0], args[1]
		if a.Kind == "float" || b.Kind == "float" {
			return Float(floatOp(a.AsFloat(), b.AsFloat())), nil
		}
		if a.Kind != "int" || b.Kind != "int" {
			return Value{}, fmt.Errorf("primitives: expected numeric arguments, got %s and %s", a.Kind, b.Kind)
		}
		return Int(intOp(a.Int, b.Int)), nil
	}
}

// divide is not movable: it can fail (division by zero), so it is not
// safe to duplicate, reorder, or drop even though it has no other
// observable side effect.
func divide(args []Value) (Value, error) {
	if len(args) != 2 {
		return Value{}, fmt.Errorf("primitives: div expects 2 arguments, got %d", len(args))
	}
	a, b := args[0], args[1]
	if a.Kind == "float" || b.Kind == "float" {
		bf := b.AsFloat()
		if bf == 0 {
			return Value{}, fmt.Errorf("primitives: division by zero")
		}
		return Float(a.AsFloat() / bf), nil
	}
	if b.Int == 0 {
		return Value{}, fmt.Errorf("primitives: division by zero")
	}
	return Int(a.Int / b.Int), nil
}

func negate(args []Value) (Value, error) {
	if len(args) != 1 {
		return Value{}, fmt.Errorf("primitives: neg expects 1 argument, got %d", len(args))
	}
	switch args[0].Kind {
	case "float":
		return Float(-args[0].Flt), nil
	case "int":
		return Int(-args[0].Int), nil
	default:
		return Value{}, fmt.Errorf("primitives: neg expects a numeric argument, got %s", args[0].Kind)
	}
}
