package optimizer

import (
	"testing"

	"github.com/ilopt-lang/ilopt/internal/ast"
	"github.com/ilopt-lang/ilopt/internal/primitives"
	"github.com/ilopt-lang/ilopt/internal/resolve"
	"github.com/ilopt-lang/ilopt/internal/scope"
)

func declare(name string, init ast.Statement) ast.Statement {
	initCopy := init
	return ast.Statement{Kind: ast.KindVariableDeclaration, Names: []ast.TypedName{{Name: name, Type: "int"}}, Operand: &initCopy}
}

func declareNoInit(name string) ast.Statement {
	return ast.Statement{Kind: ast.KindVariableDeclaration, Names: []ast.TypedName{{Name: name, Type: "int"}}}
}

func assign(target string, value ast.Statement) ast.Statement {
	valueCopy := value
	return ast.Statement{Kind: ast.KindAssignment, Targets: []ast.Statement{ast.Identifier(target)}, Operand: &valueCopy}
}

func ifStmt(cond ast.Statement, body *ast.Block) ast.Statement {
	condCopy := cond
	return ast.Statement{Kind: ast.KindIf, Operand: &condCopy, Body: body}
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

// Scenario 1: shadowing disambiguation.
func TestDisambiguateShadowing(t *testing.T) {
	root := &ast.Block{Statements: []ast.Statement{
		declare("x", ast.IntLiteral(1)),
		declare("y", ast.IntLiteral(0)),
		ifStmt(ast.Identifier("x"), &ast.Block{Statements: []ast.Statement{
			declare("x", ast.IntLiteral(2)),
			assign("y", ast.Identifier("x")),
		}}),
		assign("y", ast.Identifier("x")),
	}}

	info, err := resolve.Resolve(root)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	out, err := Disambiguate(root, info)
	if err != nil {
		t.Fatalf("Disambiguate: %v", err)
	}

	outerX := out.Statements[0].Names[0].Name
	outerY := out.Statements[1].Names[0].Name
	ifBody := out.Statements[2].Body
	innerX := ifBody.Statements[0].Names[0].Name

	if outerX == innerX {
		t.Fatalf("shadowed x was not renamed: outer=%q inner=%q", outerX, innerX)
	}
	if ifBody.Statements[1].Operand.Name != innerX {
		t.Errorf("inner y-assignment references %q, want shadowed %q", ifBody.Statements[1].Operand.Name, innerX)
	}
	if out.Statements[3].Operand.Name != outerX {
		t.Errorf("outer y-assignment references %q, want outer %q", out.Statements[3].Operand.Name, outerX)
	}
	if ifBody.Statements[1].Targets[0].Name != outerY || out.Statements[3].Targets[0].Name != outerY {
		t.Errorf("both y-assignments should target the single declaration %q", outerY)
	}
}

// Scenario 3: non-inlinable due to recursion.
func TestAnalyzeInlinableRejectsRecursion(t *testing.T) {
	root := &ast.Block{Statements: []ast.Statement{
		funcDef("f", typedNames("a"), typedNames("r"), &ast.Block{Statements: []ast.Statement{
			assign("r", callExpr("f", ast.Identifier("a"))),
		}}),
	}}
	got := AnalyzeInlinable(root)
	if _, ok := got["f"]; ok {
		t.Errorf("f should not be inlinable: its body is self-referential")
	}
}

func TestAnalyzeInlinableAcceptsPureAssignment(t *testing.T) {
	root := &ast.Block{Statements: []ast.Statement{
		funcDef("f", typedNames("a", "b"), typedNames("r"), &ast.Block{Statements: []ast.Statement{
			assign("r", functionalInstr("add", ast.Identifier("a"), ast.Identifier("b"))),
		}}),
	}}
	got := AnalyzeInlinable(root)
	if _, ok := got["f"]; !ok {
		t.Fatalf("f should be inlinable")
	}
}

func TestAnalyzeInlinableIgnoresNestedDefinitions(t *testing.T) {
	nested := funcDef("inner", typedNames("a"), typedNames("r"), &ast.Block{Statements: []ast.Statement{
		assign("r", ast.Identifier("a")),
	}})
	root := &ast.Block{Statements: []ast.Statement{
		funcDef("outer", typedNames("a"), typedNames("r"), &ast.Block{Statements: []ast.Statement{
			nested,
			assign("r", ast.Identifier("a")),
		}}),
	}}
	got := AnalyzeInlinable(root)
	if _, ok := got["outer"]; ok {
		t.Errorf("outer should not be inlinable: its body has more than one statement")
	}
	if _, ok := got["inner"]; ok {
		t.Errorf("inner is nested and should never be a candidate")
	}
}

// Scenario 2: functional inlining.
func TestInlineFunctional(t *testing.T) {
	fn := funcDef("f", typedNames("a", "b"), typedNames("r"), &ast.Block{Statements: []ast.Statement{
		assign("r", functionalInstr("add", ast.Identifier("a"), ast.Identifier("b"))),
	}})
	root := &ast.Block{Statements: []ast.Statement{
		fn,
		callExpr("g", callExpr("f", ast.IntLiteral(1), ast.IntLiteral(2))),
	}}

	if err := InlineFunctional(root, primitives.Default.Movable); err != nil {
		t.Fatalf("InlineFunctional: %v", err)
	}

	if root.Statements[0].Kind != ast.KindFunctionDefinition {
		t.Fatalf("FunctionDefinition should remain in the tree")
	}
	gCall := root.Statements[1]
	if gCall.Kind != ast.KindFunctionCall || gCall.FunctionName.Name != "g" {
		t.Fatalf("expected outer call to g, got %+v", gCall)
	}
	inlined := gCall.Arguments[0]
	if inlined.Kind != ast.KindFunctionalInstruction || inlined.Opcode != "add" {
		t.Fatalf("expected f(1,2) substituted with add(1,2), got %+v", inlined)
	}
	if inlined.Arguments[0].LiteralValue != int64(1) || inlined.Arguments[1].LiteralValue != int64(2) {
		t.Errorf("substituted arguments lost their values: %+v", inlined.Arguments)
	}
}

func TestInlineFunctionalIsIdempotent(t *testing.T) {
	fn := funcDef("f", typedNames("a", "b"), typedNames("r"), &ast.Block{Statements: []ast.Statement{
		assign("r", functionalInstr("add", ast.Identifier("a"), ast.Identifier("b"))),
	}})
	root := &ast.Block{Statements: []ast.Statement{
		fn,
		callExpr("g", callExpr("f", ast.IntLiteral(1), ast.IntLiteral(2))),
	}}

	if err := InlineFunctional(root, primitives.Default.Movable); err != nil {
		t.Fatalf("first InlineFunctional: %v", err)
	}
	before := root.Statements[1].Arguments[0]
	if err := InlineFunctional(root, primitives.Default.Movable); err != nil {
		t.Fatalf("second InlineFunctional: %v", err)
	}
	after := root.Statements[1].Arguments[0]
	if before.Kind != after.Kind || before.Opcode != after.Opcode {
		t.Errorf("second pass changed an already-inlined call site: before=%+v after=%+v", before, after)
	}
}

func TestInlineFunctionalSkipsImpureArguments(t *testing.T) {
	fn := funcDef("f", typedNames("a"), typedNames("r"), &ast.Block{Statements: []ast.Statement{
		assign("r", ast.Identifier("a")),
	}})
	root := &ast.Block{Statements: []ast.Statement{
		fn,
		callExpr("g", callExpr("f", callExpr("sideEffecting"))),
	}}
	if err := InlineFunctional(root, primitives.Default.Movable); err != nil {
		t.Fatalf("InlineFunctional: %v", err)
	}
	arg := root.Statements[1].Arguments[0]
	if arg.Kind != ast.KindFunctionCall || arg.FunctionName.Name != "f" {
		t.Errorf("call with an impure argument should not be substituted, got %+v", arg)
	}
}

// Scenario 4: full inlining with argument side effects, evaluation order preserved.
func TestFullInlineArgumentSideEffects(t *testing.T) {
	fn := funcDef("f", typedNames("a", "b"), typedNames("r"), &ast.Block{Statements: []ast.Statement{
		assign("r", functionalInstr("add", ast.Identifier("a"), ast.Identifier("b"))),
	}})
	root := &ast.Block{Statements: []ast.Statement{
		fn,
		declare("z", callExpr("f", callExpr("sideA"), callExpr("sideB"))),
	}}

	out, err := FullInline(root)
	if err != nil {
		t.Fatalf("FullInline: %v", err)
	}

	// [fn, a_1 := sideA(), b_1 := sideB(), r_1, r_1 := add(a_1,b_1), z := r_1]
	if len(out.Statements) != 6 {
		t.Fatalf("expected 6 statements after full inlining, got %d: %+v", len(out.Statements), out.Statements)
	}
	aBinding := out.Statements[1]
	bBinding := out.Statements[2]
	if aBinding.Operand.FunctionName.Name != "sideA" {
		t.Errorf("first binding should evaluate sideA (left-to-right), got call to %q", aBinding.Operand.FunctionName.Name)
	}
	if bBinding.Operand.FunctionName.Name != "sideB" {
		t.Errorf("second binding should evaluate sideB, got call to %q", bBinding.Operand.FunctionName.Name)
	}
	retDecl := out.Statements[3]
	if retDecl.Kind != ast.KindVariableDeclaration || retDecl.Operand != nil {
		t.Errorf("return temporary should be declared with no initializer, got %+v", retDecl)
	}
	bodyAssign := out.Statements[4]
	if bodyAssign.Kind != ast.KindAssignment || bodyAssign.Operand.Opcode != "add" {
		t.Errorf("copied body should assign add(...) to the return temporary, got %+v", bodyAssign)
	}
	zDecl := out.Statements[5]
	if zDecl.Operand.Kind != ast.KindIdentifier || zDecl.Operand.Name != retDecl.Names[0].Name {
		t.Errorf("z should be initialized from the return temporary, got %+v", zDecl.Operand)
	}
	if aBinding.Names[0].Name == bBinding.Names[0].Name {
		t.Errorf("argument temporaries must not collide: %q", aBinding.Names[0].Name)
	}

	// Original tree is untouched.
	if root.Statements[1].Operand.Kind != ast.KindFunctionCall {
		t.Errorf("FullInline must not mutate its input")
	}
}

// Scenario 5: no inlining inside conditions.
func TestFullInlineSkipsConditions(t *testing.T) {
	fn := funcDef("f", typedNames("a"), typedNames("r"), &ast.Block{Statements: []ast.Statement{
		assign("r", ast.Identifier("a")),
	}})
	root := &ast.Block{Statements: []ast.Statement{
		fn,
		ifStmt(callExpr("f", ast.Identifier("x")), &ast.Block{Statements: []ast.Statement{
			declare("z", ast.IntLiteral(1)),
		}}),
	}}

	out, err := FullInline(root)
	if err != nil {
		t.Fatalf("FullInline: %v", err)
	}
	cond := out.Statements[1].Operand
	if cond.Kind != ast.KindFunctionCall || cond.FunctionName.Name != "f" {
		t.Errorf("condition should be left untouched, got %+v", cond)
	}
}

// Scenario 6: name collision avoidance.
func TestFullInlineAvoidsNameCollision(t *testing.T) {
	fn := funcDef("f", typedNames("a"), typedNames("r"), &ast.Block{Statements: []ast.Statement{
		assign("r", ast.Identifier("a")),
	}})
	root := &ast.Block{Statements: []ast.Statement{
		fn,
		declare("a", ast.IntLiteral(5)),
		declare("z", callExpr("f", ast.Identifier("a"))),
	}}

	out, err := FullInline(root)
	if err != nil {
		t.Fatalf("FullInline: %v", err)
	}
	// [fn, a := 5, a_1 := a, r_1, r_1 := a_1, z := r_1]
	argBinding := out.Statements[2]
	if argBinding.Names[0].Name == "a" {
		t.Errorf("parameter binding should not shadow the outer %q, got %q", "a", argBinding.Names[0].Name)
	}
}

func TestFullInlineRejectsMultiTargetAssignment(t *testing.T) {
	root := &ast.Block{Statements: []ast.Statement{
		{Kind: ast.KindAssignment, Targets: []ast.Statement{ast.Identifier("x"), ast.Identifier("y")}, Operand: func() *ast.Statement { v := ast.IntLiteral(1); return &v }()},
	}}
	_, err := FullInline(root)
	if err == nil {
		t.Fatal("expected an error for multi-target assignment")
	}
}

func TestFullInlineRejectsMultiReturnCallee(t *testing.T) {
	fn := funcDef("f", typedNames("a"), typedNames("r1", "r2"), &ast.Block{Statements: []ast.Statement{
		assign("r1", ast.Identifier("a")),
	}})
	root := &ast.Block{Statements: []ast.Statement{
		fn,
		declare("z", callExpr("f", ast.IntLiteral(1))),
	}}
	_, err := FullInline(root)
	if err == nil {
		t.Fatal("expected an error: full inliner does not support multi-return functions")
	}
}

func TestFullInlineDoesNotRecurseIntoOwnFunction(t *testing.T) {
	// Present in source as a recursive definition but never actually called;
	// exercises that visiting f's own body never tries to inline the
	// self-call while f is the "currently inlining" function.
	fn := funcDef("f", typedNames("a"), typedNames("r"), &ast.Block{Statements: []ast.Statement{
		assign("r", callExpr("f", ast.Identifier("a"))),
	}})
	root := &ast.Block{Statements: []ast.Statement{fn}}

	out, err := FullInline(root)
	if err != nil {
		t.Fatalf("FullInline: %v", err)
	}
	bodyAssign := out.Statements[0].Body.Statements[0]
	if bodyAssign.Operand.Kind != ast.KindFunctionCall {
		t.Errorf("a function's own recursive self-call must not be inlined, got %+v", bodyAssign.Operand)
	}
}

func TestDisambiguateRejectsLegacyForm(t *testing.T) {
	root := &ast.Block{Statements: []ast.Statement{
		{Kind: ast.KindLabel, Name: "L1"},
	}}
	if _, err := Disambiguate(root, fakeEmptyInfo{}); err == nil {
		t.Fatal("expected an error for a Label in the input")
	}
}

type fakeEmptyInfo struct{}

func (fakeEmptyInfo) ScopeOf(interface{}) (scope.Scope, bool) { return nil, false }
