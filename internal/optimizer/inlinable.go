package optimizer

import (
	"github.com/ilopt-lang/ilopt/internal/ast"
	"github.com/ilopt-lang/ilopt/internal/walk"
)

// InlinableMap maps a user function's name to its definition, for every
// function the filter classifies as functionally inlinable.
type InlinableMap map[string]*ast.Statement

// AnalyzeInlinable classifies every outer FunctionDefinition in root as
// functionally inlinable per spec §4.5: exactly one return variable, a
// body of exactly one Assignment statement targeting that return
// variable, whose right-hand side references neither the return variable
// nor the function's own name. A FunctionDefinition nested inside
// another's body is never itself considered a candidate; a function whose
// body contains one disqualifies that enclosing function's own body-shape
// check (its body no longer has exactly one statement), so no separate
// nested-function case is needed.
func AnalyzeInlinable(root *ast.Block) InlinableMap {
	candidates := make(map[string]*ast.Statement)
	collectOuterFunctions(root, candidates)

	result := make(InlinableMap)
	for name, fn := range candidates {
		if isInlinable(fn) {
			result[name] = fn
		}
	}
	return result
}

func collectOuterFunctions(b *ast.Block, into map[string]*ast.Statement) {
	if b == nil {
		return
	}
	for i := range b.Statements {
		collectOuterFromStatement(&b.Statements[i], into)
	}
}

func collectOuterFromStatement(s *ast.Statement, into map[string]*ast.Statement) {
	switch s.Kind {
	case ast.KindFunctionDefinition:
		into[s.Name] = s
		// Do not descend into s.Body here: nested definitions are not
		// outer definitions and are never themselves inlining candidates.
	case ast.KindIf:
		collectOuterFunctions(s.Body, into)
	case ast.KindSwitch:
		for i := range s.Cases {
			collectOuterFunctions(s.Cases[i].Body, into)
		}
	case ast.KindForLoop:
		collectOuterFunctions(s.Pre, into)
		collectOuterFunctions(s.Post, into)
		collectOuterFunctions(s.Body, into)
	}
}

func isInlinable(fn *ast.Statement) bool {
	if len(fn.Returns) != 1 {
		return false
	}
	ret := fn.Returns[0].Name
	if fn.Body == nil || len(fn.Body.Statements) != 1 {
		return false
	}
	assign := fn.Body.Statements[0]
	if assign.Kind != ast.KindAssignment {
		return false
	}
	if len(assign.Targets) != 1 || assign.Targets[0].Name != ret {
		return false
	}
	if assign.Operand == nil {
		return false
	}

	disallowed := map[string]bool{ret: true, fn.Name: true}
	finder := &disallowedNameFinder{disallowed: disallowed}
	_ = walk.Walk(assign.Operand, finder)
	return !finder.found
}

// disallowedNameFinder reports whether an expression references any name
// in its disallowed set (the function's own name, or its return
// variable) — the self-/recursive-reference checks of spec §4.5.
type disallowedNameFinder struct {
	disallowed map[string]bool
	found      bool
}

func (f *disallowedNameFinder) VisitStatement(s *ast.Statement) error {
	if s.Kind == ast.KindIdentifier && f.disallowed[s.Name] {
		f.found = true
	}
	return nil
}

func (f *disallowedNameFinder) VisitBlock(*ast.Block) error { return nil }
