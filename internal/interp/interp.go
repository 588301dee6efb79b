// Package interp is a small tree-walking reference interpreter over the
// optimizer's IL, used by tests to check that a pass preserves program
// behavior (spec.md §8: semantic equivalence, evaluation order) by
// running a tree before and after a rewrite and comparing results.
//
// Grounded on the teacher's internal/interpreter.go (Environment,
// executeStatement/evaluateExpression recursive switch), trimmed to this
// module's four-kind primitives.Value and statement set: no arrays,
// maps, modules, or GC, since this IL has none of those and spec.md §5
// mandates single-threaded synchronous execution throughout.
package interp

import (
	"github.com/ilopt-lang/ilopt/internal/ast"
	"github.com/ilopt-lang/ilopt/internal/ilerr"
	"github.com/ilopt-lang/ilopt/internal/namegen"
	"github.com/ilopt-lang/ilopt/internal/primitives"
)

// Interpreter executes an IL tree against a fixed registry of primitive
// opcodes and a directory of the user functions the tree defines.
type Interpreter struct {
	registry  *primitives.Registry
	functions map[string]*ast.Statement

	// OnCall, if set, is invoked with a user function's name immediately
	// before its body executes, so a caller can observe the order in
	// which user functions actually ran.
	OnCall func(name string)
}

// New builds an Interpreter for root, collecting every FunctionDefinition
// in the tree (including nested ones) into its call directory. A nil
// registry defaults to primitives.Default.
func New(root *ast.Block, registry *primitives.Registry) *Interpreter {
	if registry == nil {
		registry = primitives.Default
	}
	collected := namegen.Collect(root)
	return &Interpreter{registry: registry, functions: collected.Functions}
}

// Run executes root's top-level statements in a fresh global frame seeded
// with initial, and returns that frame so a test can inspect the ending
// value of any variable.
func (in *Interpreter) Run(root *ast.Block, initial map[string]primitives.Value) (*Environment, error) {
	env := NewEnvironment(nil)
	for name, v := range initial {
		env.Set(name, v)
	}
	if err := in.execBlock(root, env); err != nil {
		return nil, err
	}
	return env, nil
}

// CallFunction invokes fn directly with args bound positionally to its
// parameters, in a fresh frame with no parent (user functions in this IL
// close over nothing outside their own arguments and locals). It returns
// the ending value of each of fn's declared return variables, in order.
func (in *Interpreter) CallFunction(fn *ast.Statement, args []primitives.Value) ([]primitives.Value, error) {
	if len(args) != len(fn.Params) {
		return nil, ilerr.Malformed("interp: function %q expects %d arguments, got %d", fn.Name, len(fn.Params), len(args))
	}
	env := NewEnvironment(nil)
	for i, p := range fn.Params {
		env.Set(p.Name, args[i])
	}
	if in.OnCall != nil {
		in.OnCall(fn.Name)
	}
	if err := in.execBlock(fn.Body, env); err != nil {
		return nil, err
	}
	results := make([]primitives.Value, len(fn.Returns))
	for i, r := range fn.Returns {
		v, ok := env.Get(r.Name)
		if !ok {
			return nil, ilerr.Malformed("interp: function %q never bound its return variable %q", fn.Name, r.Name)
		}
		results[i] = v
	}
	return results, nil
}

func (in *Interpreter) execBlock(b *ast.Block, env *Environment) error {
	if b == nil {
		return nil
	}
	for i := range b.Statements {
		if err := in.execStatement(&b.Statements[i], env); err != nil {
			return err
		}
	}
	return nil
}

func (in *Interpreter) execStatement(s *ast.Statement, env *Environment) error {
	switch s.Kind {
	case ast.KindLabel, ast.KindStackAssignment:
		return ilerr.Malformed("interp: legacy stack-form construct %q is not valid input", s.Kind)

	case ast.KindLiteral, ast.KindIdentifier, ast.KindInstruction, ast.KindFunctionalInstruction, ast.KindFunctionCall:
		_, err := in.evalMulti(s, env)
		return err

	case ast.KindAssignment:
		values, err := in.evalMulti(s.Operand, env)
		if err != nil {
			return err
		}
		return bindTargets(env, s.Targets, values)

	case ast.KindVariableDeclaration:
		if s.Operand == nil {
			for _, n := range s.Names {
				env.Set(n.Name, zeroValue(n.Type))
			}
			return nil
		}
		values, err := in.evalMulti(s.Operand, env)
		if err != nil {
			return err
		}
		return bindNames(env, s.Names, values)

	case ast.KindIf:
		cond, err := in.evalOne(s.Operand, env)
		if err != nil {
			return err
		}
		if cond.Truthy() {
			return in.execBlock(s.Body, env)
		}
		return nil

	case ast.KindSwitch:
		disc, err := in.evalOne(s.Operand, env)
		if err != nil {
			return err
		}
		var defaultBody *ast.Block
		for i := range s.Cases {
			c := &s.Cases[i]
			if c.Value == nil {
				defaultBody = c.Body
				continue
			}
			cv, err := in.evalOne(c.Value, env)
			if err != nil {
				return err
			}
			if valuesEqual(disc, cv) {
				return in.execBlock(c.Body, env)
			}
		}
		return in.execBlock(defaultBody, env)

	case ast.KindForLoop:
		if err := in.execBlock(s.Pre, env); err != nil {
			return err
		}
		for {
			cond, err := in.evalOne(s.Operand, env)
			if err != nil {
				return err
			}
			if !cond.Truthy() {
				return nil
			}
			if err := in.execBlock(s.Body, env); err != nil {
				return err
			}
			if err := in.execBlock(s.Post, env); err != nil {
				return err
			}
		}

	case ast.KindFunctionDefinition:
		return nil

	default:
		return ilerr.Malformed("interp: unknown statement kind %q", s.Kind)
	}
}

// evalMulti evaluates s, returning one value per result it produces (more
// than one only for a FunctionCall to a multi-return user function).
func (in *Interpreter) evalMulti(s *ast.Statement, env *Environment) ([]primitives.Value, error) {
	if s == nil {
		return nil, ilerr.Malformed("interp: nil expression")
	}
	switch s.Kind {
	case ast.KindLiteral:
		v, err := literalValue(s)
		return []primitives.Value{v}, err

	case ast.KindIdentifier:
		v, ok := env.Get(s.Name)
		if !ok {
			return nil, ilerr.Malformed("interp: undefined variable %q", s.Name)
		}
		return []primitives.Value{v}, nil

	case ast.KindInstruction:
		return nil, ilerr.Unimplemented("interp: legacy stack-form instruction %q has no tree-form operands to evaluate", s.Opcode)

	case ast.KindFunctionalInstruction:
		args := make([]primitives.Value, len(s.Arguments))
		for i := range s.Arguments {
			v, err := in.evalOne(&s.Arguments[i], env)
			if err != nil {
				return nil, err
			}
			args[i] = v
		}
		v, err := in.registry.Eval(s.Opcode, args)
		return []primitives.Value{v}, err

	case ast.KindFunctionCall:
		args := make([]primitives.Value, len(s.Arguments))
		for i := range s.Arguments {
			v, err := in.evalOne(&s.Arguments[i], env)
			if err != nil {
				return nil, err
			}
			args[i] = v
		}
		fn, ok := in.functions[s.FunctionName.Name]
		if !ok {
			return nil, ilerr.Malformed("interp: call to undefined function %q", s.FunctionName.Name)
		}
		if in.OnCall != nil {
			in.OnCall(fn.Name)
		}
		callEnv := NewEnvironment(nil)
		if len(args) != len(fn.Params) {
			return nil, ilerr.Malformed("interp: function %q expects %d arguments, got %d", fn.Name, len(fn.Params), len(args))
		}
		for i, p := range fn.Params {
			callEnv.Set(p.Name, args[i])
		}
		if err := in.execBlock(fn.Body, callEnv); err != nil {
			return nil, err
		}
		results := make([]primitives.Value, len(fn.Returns))
		for i, r := range fn.Returns {
			v, ok := callEnv.Get(r.Name)
			if !ok {
				return nil, ilerr.Malformed("interp: function %q never bound its return variable %q", fn.Name, r.Name)
			}
			results[i] = v
		}
		return results, nil

	default:
		return nil, ilerr.Malformed("interp: unexpected statement kind %q in expression position", s.Kind)
	}
}

// evalOne evaluates s and requires it to produce exactly one value —
// the case every argument and condition position needs.
func (in *Interpreter) evalOne(s *ast.Statement, env *Environment) (primitives.Value, error) {
	values, err := in.evalMulti(s, env)
	if err != nil {
		return primitives.Value{}, err
	}
	if len(values) != 1 {
		return primitives.Value{}, ilerr.Malformed("interp: expression produced %d values, expected 1", len(values))
	}
	return values[0], nil
}

func bindTargets(env *Environment, targets []ast.Statement, values []primitives.Value) error {
	if len(targets) != len(values) {
		return ilerr.Malformed("interp: assignment has %d targets but value produced %d results", len(targets), len(values))
	}
	for i, t := range targets {
		env.Set(t.Name, values[i])
	}
	return nil
}

func bindNames(env *Environment, names []ast.TypedName, values []primitives.Value) error {
	if len(names) != len(values) {
		return ilerr.Malformed("interp: declaration has %d names but value produced %d results", len(names), len(values))
	}
	for i, n := range names {
		env.Set(n.Name, values[i])
	}
	return nil
}

func literalValue(s *ast.Statement) (primitives.Value, error) {
	switch s.LiteralKind {
	case ast.LitInt:
		return primitives.Int(toInt64(s.LiteralValue)), nil
	case ast.LitFloat:
		return primitives.Float(toFloat64(s.LiteralValue)), nil
	case ast.LitString:
		str, _ := s.LiteralValue.(string)
		return primitives.String(str), nil
	case ast.LitBool:
		b, _ := s.LiteralValue.(bool)
		return primitives.Bool(b), nil
	default:
		return primitives.Value{}, ilerr.Malformed("interp: unknown literal kind %q", s.LiteralKind)
	}
}

// toInt64 and toFloat64 tolerate both Go-native numeric types (built
// programmatically, as the tests do) and float64 (as a JSON-decoded tree
// would carry every number).
func toInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}

func toFloat64(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	default:
		return 0
	}
}

func zeroValue(typeName string) primitives.Value {
	switch typeName {
	case "float":
		return primitives.Float(0)
	case "string":
		return primitives.String("")
	case "bool":
		return primitives.Bool(false)
	default:
		return primitives.Int(0)
	}
}

func valuesEqual(a, b primitives.Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case "int":
		return a.Int == b.Int
	case "float":
		return a.Flt == b.Flt
	case "string":
		return a.Str == b.Str
	case "bool":
		return a.Bool == b.Bool
	default:
		return false
	}
}
