package primitives

import (
	"fmt"
	"strconv"
)

// registerString registers the movable string opcodes.
func (r *Registry) registerString() {
	r.Register("concat", Primitive{Movable: true, Eval: concat})
	r.Register("tostring", Primitive{Movable: true, Eval: toString})
	r.Register("len", Primitive{Movable: true, Eval: strlen})
}

func concat(args []Value) (Value, error) {
	if len(args) != 2 {
		return Value{}, fmt.Errorf("primitives: expected 2 arguments, got %d", len(args))
	}
	a, b := args[0], args[1]
	if a.Kind != "string" || b.Kind != "string" {
		return Value{}, fmt.Errorf("primitives: concat expects string arguments, got %s and %s", a.Kind, b.Kind)
	}
	return String(a.Str + b.Str), nil
}

func toString(args []Value) (Value, error) {
	if len(args) != 1 {
		return Value{}, fmt.Errorf("primitives: tostring expects 1 argument, got %d", len(args))
	}
	v := args[0]
	switch v.Kind {
	case "string":
		return v, nil
	case "int":
		return String(strconv.FormatInt(v.Int, 10)), nil
	case "float":
		return String(strconv.FormatFloat(v.Flt, 'g', -1, 64)), nil
	case "bool":
		return String(strconv.FormatBool(v.Bool)), nil
	default:
		return Value{}, fmt.Errorf("primitives: tostring got unknown value kind %q", v.Kind)
	}
}

func strlen(args []Value) (Value, error) {
	if len(args) != 1 {
		return Value{}, fmt.Errorf("primitives: len expects 1 argument, got %d", len(args))
	}
	if args[0].Kind != "string" {
		return Value{}, fmt.Errorf("primitives: len expects a string argument, got %s", args[0].Kind)
	}
	return Int(int64(len(args[0].Str))), nil
}
