package primitives

import "testing"

func TestMovable(t *testing.T) {
	r := NewRegistry()
	cases := []struct {
		opcode string
		want   bool
	}{
		{"add", true},
		{"sub", true},
		{"mul", true},
		{"div", false},
		{"neg", true},
		{"eq", true},
		{"lt", true},
		{"and", true},
		{"not", true},
		{"concat", true},
		{"nonexistent", false},
	}
	for _, c := range cases {
		if got := r.Movable(c.opcode); got != c.want {
			t.Errorf("Movable(%q) = %v, want %v", c.opcode, got, c.want)
		}
	}
}

func TestEvalArithmetic(t *testing.T) {
	r := NewRegistry()

	v, err := r.Eval("add", []Value{Int(2), Int(3)})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if v.Kind != "int" || v.Int != 5 {
		t.Errorf("add(2,3) = %+v, want int 5", v)
	}

	v, err = r.Eval("add", []Value{Int(2), Float(1.5)})
	if err != nil {
		t.Fatalf("add mixed: %v", err)
	}
	if v.Kind != "float" || v.Flt != 3.5 {
		t.Errorf("add(2, 1.5) = %+v, want float 3.5", v)
	}

	_, err = r.Eval("div", []Value{Int(1), Int(0)})
	if err == nil {
		t.Error("div by zero: expected error, got nil")
	}

	v, err = r.Eval("neg", []Value{Int(4)})
	if err != nil {
		t.Fatalf("neg: %v", err)
	}
	if v.Int != -4 {
		t.Errorf("neg(4) = %+v, want -4", v)
	}
}

func TestEvalComparison(t *testing.T) {
	r := NewRegistry()

	v, err := r.Eval("lt", []Value{Int(1), Int(2)})
	if err != nil {
		t.Fatalf("lt: %v", err)
	}
	if v.Kind != "bool" || !v.Bool {
		t.Errorf("lt(1,2) = %+v, want true", v)
	}

	v, err = r.Eval("eq", []Value{String("a"), String("a")})
	if err != nil {
		t.Fatalf("eq: %v", err)
	}
	if !v.Bool {
		t.Errorf("eq(a,a) = %+v, want true", v)
	}

	v, err = r.Eval("ne", []Value{String("a"), String("b")})
	if err != nil {
		t.Fatalf("ne: %v", err)
	}
	if !v.Bool {
		t.Errorf("ne(a,b) = %+v, want true", v)
	}
}

func TestEvalLogical(t *testing.T) {
	r := NewRegistry()

	v, err := r.Eval("and", []Value{Bool(true), Bool(false)})
	if err != nil {
		t.Fatalf("and: %v", err)
	}
	if v.Bool {
		t.Errorf("and(true,false) = %+v, want false", v)
	}

	v, err = r.Eval("not", []Value{Bool(false)})
	if err != nil {
		t.Fatalf("not: %v", err)
	}
	if !v.Bool {
		t.Errorf("not(false) = %+v, want true", v)
	}
}

func TestEvalString(t *testing.T) {
	r := NewRegistry()

	v, err := r.Eval("concat", []Value{String("foo"), String("bar")})
	if err != nil {
		t.Fatalf("concat: %v", err)
	}
	if v.Str != "foobar" {
		t.Errorf("concat(foo,bar) = %q, want foobar", v.Str)
	}

	v, err = r.Eval("len", []Value{String("abcd")})
	if err != nil {
		t.Fatalf("len: %v", err)
	}
	if v.Int != 4 {
		t.Errorf("len(abcd) = %d, want 4", v.Int)
	}
}

func TestEvalUnknownOpcode(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Eval("nope", nil); err == nil {
		t.Error("expected error for unknown opcode, got nil")
	}
}
