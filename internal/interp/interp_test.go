package interp_test

import (
	"reflect"
	"testing"

	"github.com/ilopt-lang/ilopt/internal/ast"
	"github.com/ilopt-lang/ilopt/internal/interp"
	"github.com/ilopt-lang/ilopt/internal/optimizer"
	"github.com/ilopt-lang/ilopt/internal/primitives"
	"github.com/ilopt-lang/ilopt/internal/resolve"
)

func declare(name string, init ast.Statement) ast.Statement {
	initCopy := init
	return ast.Statement{Kind: ast.KindVariableDeclaration, Names: []ast.TypedName{{Name: name, Type: "int"}}, Operand: &initCopy}
}

func assign(target string, value ast.Statement) ast.Statement {
	valueCopy := value
	return ast.Statement{Kind: ast.KindAssignment, Targets: []ast.Statement{ast.Identifier(target)}, Operand: &valueCopy}
}

func ifStmt(cond ast.Statement, body *ast.Block) ast.Statement {
	condCopy := cond
	return ast.Statement{Kind: ast.KindIf, Operand: &condCopy, Body: body}
}

func forLoop(pre ast.Statement, cond ast.Statement, post ast.Statement, body *ast.Block) ast.Statement {
	condCopy := cond
	return ast.Statement{
		Kind:    ast.KindForLoop,
		Pre:     &ast.Block{Statements: []ast.Statement{pre}},
		Operand: &condCopy,
		Post:    &ast.Block{Statements: []ast.Statement{post}},
		Body:    body,
	}
}

func functionalInstr(opcode string, args ...ast.Statement) ast.Statement {
	return ast.Statement{Kind: ast.KindFunctionalInstruction, Opcode: opcode, Arguments: args}
}

func callExpr(name string, args ...ast.Statement) ast.Statement {
	fnName := ast.Identifier(name)
	return ast.Statement{Kind: ast.KindFunctionCall, FunctionName: &fnName, Arguments: args}
}

func funcDef(name string, params, returns []ast.TypedName, body *ast.Block) ast.Statement {
	return ast.Statement{Kind: ast.KindFunctionDefinition, Name: name, Params: params, Returns: returns, Body: body}
}

func typedNames(names ...string) []ast.TypedName {
	out := make([]ast.TypedName, len(names))
	for i, n := range names {
		out[i] = ast.TypedName{Name: n, Type: "int"}
	}
	return out
}

func TestRunArithmetic(t *testing.T) {
	root := &ast.Block{Statements: []ast.Statement{
		declare("x", ast.IntLiteral(2)),
		declare("y", ast.IntLiteral(3)),
		assign("y", functionalInstr("add", ast.Identifier("x"), ast.Identifier("y"))),
	}}

	env, err := interp.New(root, nil).Run(root, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	got, ok := env.Get("y")
	if !ok || got.Int != 5 {
		t.Errorf("y = %+v, want int 5", got)
	}
}

func TestCallFunction(t *testing.T) {
	fn := funcDef("add2", typedNames("a", "b"), typedNames("r"), &ast.Block{Statements: []ast.Statement{
		assign("r", functionalInstr("add", ast.Identifier("a"), ast.Identifier("b"))),
	}})
	root := &ast.Block{Statements: []ast.Statement{fn}}

	in := interp.New(root, nil)
	results, err := in.CallFunction(&root.Statements[0], []primitives.Value{primitives.Int(4), primitives.Int(5)})
	if err != nil {
		t.Fatalf("CallFunction: %v", err)
	}
	if len(results) != 1 || results[0].Int != 9 {
		t.Errorf("results = %+v, want [9]", results)
	}
}

func TestRunIfAndSwitch(t *testing.T) {
	root := &ast.Block{Statements: []ast.Statement{
		declare("x", ast.IntLiteral(1)),
		declare("y", ast.IntLiteral(0)),
		ifStmt(ast.Identifier("x"), &ast.Block{Statements: []ast.Statement{
			assign("y", ast.IntLiteral(10)),
		}}),
		{
			Kind:    ast.KindSwitch,
			Operand: &ast.Statement{Kind: ast.KindIdentifier, Name: "x"},
			Cases: []ast.Case{
				{Value: func() *ast.Statement { v := ast.IntLiteral(1); return &v }(), Body: &ast.Block{Statements: []ast.Statement{
					assign("y", ast.IntLiteral(20)),
				}}},
				{Value: nil, Body: &ast.Block{Statements: []ast.Statement{
					assign("y", ast.IntLiteral(99)),
				}}},
			},
		},
	}}

	env, err := interp.New(root, nil).Run(root, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	got, _ := env.Get("y")
	if got.Int != 20 {
		t.Errorf("y = %+v, want 20 (matching case, not default)", got)
	}
}

func TestRunForLoop(t *testing.T) {
	root := &ast.Block{Statements: []ast.Statement{
		declare("sum", ast.IntLiteral(0)),
		forLoop(
			declare("i", ast.IntLiteral(0)),
			functionalInstr("lt", ast.Identifier("i"), ast.IntLiteral(3)),
			assign("i", functionalInstr("add", ast.Identifier("i"), ast.IntLiteral(1))),
			&ast.Block{Statements: []ast.Statement{
				assign("sum", functionalInstr("add", ast.Identifier("sum"), ast.Identifier("i"))),
			}},
		),
	}}

	env, err := interp.New(root, nil).Run(root, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	got, _ := env.Get("sum")
	if got.Int != 3 { // i takes 0,1,2 -> sum = 0+1+2
		t.Errorf("sum = %+v, want 3", got)
	}
}

// Semantic equivalence across Disambiguate (spec.md §8 property 2):
// renaming must not change what the program computes.
func TestSemanticEquivalenceAcrossDisambiguate(t *testing.T) {
	build := func() *ast.Block {
		return &ast.Block{Statements: []ast.Statement{
			declare("x", ast.IntLiteral(1)),
			declare("y", ast.IntLiteral(0)),
			ifStmt(ast.Identifier("x"), &ast.Block{Statements: []ast.Statement{
				declare("x", ast.IntLiteral(2)),
				assign("y", ast.Identifier("x")),
			}}),
			assign("y", functionalInstr("add", ast.Identifier("y"), ast.Identifier("x"))),
		}}
	}

	before := build()
	beforeEnv, err := interp.New(before, nil).Run(before, nil)
	if err != nil {
		t.Fatalf("Run before: %v", err)
	}
	beforeY, _ := beforeEnv.Get("y")

	after := build()
	info, err := resolve.Resolve(after)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	renamed, err := optimizer.Disambiguate(after, info)
	if err != nil {
		t.Fatalf("Disambiguate: %v", err)
	}
	afterEnv, err := interp.New(renamed, nil).Run(renamed, nil)
	if err != nil {
		t.Fatalf("Run after: %v", err)
	}
	outerY := renamed.Statements[1].Names[0].Name
	afterY, _ := afterEnv.Get(outerY)

	if beforeY.Int != afterY.Int {
		t.Errorf("disambiguation changed program behavior: before y=%d, after y=%d", beforeY.Int, afterY.Int)
	}
}

// Evaluation order preserved across FullInline (spec.md §8 property 4):
// side-effecting calls must run in the same order before and after.
func TestEvaluationOrderPreservedAcrossFullInline(t *testing.T) {
	// sideA and sideB are non-movable primitive opcodes that record each
	// evaluation. FullInline materializes every user function a call
	// reaches, so user-defined side-effecting functions would leave no
	// call behind to observe after the pass.
	tracing := func(trace *[]string) *primitives.Registry {
		r := primitives.NewRegistry()
		for name, ret := range map[string]int64{"sideA": 1, "sideB": 2} {
			r.Register(name, primitives.Primitive{Eval: func([]primitives.Value) (primitives.Value, error) {
				*trace = append(*trace, name)
				return primitives.Int(ret), nil
			}})
		}
		return r
	}
	build := func() *ast.Block {
		fn := funcDef("f", typedNames("a", "b"), typedNames("r"), &ast.Block{Statements: []ast.Statement{
			assign("r", functionalInstr("add", ast.Identifier("a"), ast.Identifier("b"))),
		}})
		return &ast.Block{Statements: []ast.Statement{
			fn,
			declare("z", callExpr("f", functionalInstr("sideA"), functionalInstr("sideB"))),
		}}
	}

	var beforeTrace []string
	before := build()
	if _, err := interp.New(before, tracing(&beforeTrace)).Run(before, nil); err != nil {
		t.Fatalf("Run before: %v", err)
	}

	after := build()
	inlined, err := optimizer.FullInline(after)
	if err != nil {
		t.Fatalf("FullInline: %v", err)
	}
	var afterTrace []string
	if _, err := interp.New(inlined, tracing(&afterTrace)).Run(inlined, nil); err != nil {
		t.Fatalf("Run after: %v", err)
	}

	if !reflect.DeepEqual(beforeTrace, afterTrace) {
		t.Errorf("evaluation order changed: before=%v after=%v", beforeTrace, afterTrace)
	}
}

func TestRunRejectsLegacyForm(t *testing.T) {
	root := &ast.Block{Statements: []ast.Statement{
		{Kind: ast.KindLabel, Name: "L1"},
	}}
	if _, err := interp.New(root, nil).Run(root, nil); err == nil {
		t.Fatal("expected an error for a Label in the input")
	}
}

func TestRunDivisionByZero(t *testing.T) {
	root := &ast.Block{Statements: []ast.Statement{
		declare("z", functionalInstr("div", ast.IntLiteral(1), ast.IntLiteral(0))),
	}}
	if _, err := interp.New(root, nil).Run(root, nil); err == nil {
		t.Fatal("expected a division-by-zero error")
	}
}
