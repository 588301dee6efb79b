// Package resolve is a reference implementation of the scope contract
// internal/scope defines. spec.md treats the scope/name-resolution
// analyzer as an external collaborator the optimizer core does not
// implement; this package supplies a real one anyway (see SPEC_FULL.md)
// so the pipeline is runnable end to end from JSON fixtures instead of
// stopping at an interface.
//
// Grounded on internal/validator's tree-walking, accumulate-then-report
// style, adapted from "validate and collect error strings" to "resolve
// names and hand back a lookup structure."
package resolve

import (
	"fmt"
	"strings"

	"github.com/ilopt-lang/ilopt/internal/ast"
	"github.com/ilopt-lang/ilopt/internal/ilerr"
	"github.com/ilopt-lang/ilopt/internal/scope"
)

// decl is the concrete IdentifierDecl handle: an incrementing id, unique
// per declaration site within one Resolve call.
type decl struct {
	scope.DeclHandle
	id int
}

// node is the concrete Scope: a flat map of names declared directly in
// this scope plus a parent to walk outward through.
type node struct {
	parent *node
	decls  map[string]decl
}

func (n *node) Lookup(name string) (scope.IdentifierDecl, bool) {
	for cur := n; cur != nil; cur = cur.parent {
		if d, ok := cur.decls[name]; ok {
			return d, true
		}
	}
	return nil, false
}

// Info implements scope.AnalysisInfo over the scopes a single Resolve
// call built.
type Info struct {
	scopes map[interface{}]*node
}

// ScopeOf implements scope.AnalysisInfo.
func (info *Info) ScopeOf(n interface{}) (scope.Scope, bool) {
	s, ok := info.scopes[n]
	return s, ok
}

// resolver carries the bookkeeping for one Resolve call: the scope map
// under construction, a fresh declaration-id counter, and the unresolved-
// identifier errors accumulated along the way (teacher's validator.go
// practice of collecting every error before reporting, rather than
// failing on the first one).
type resolver struct {
	info     *Info
	nextID   int
	problems []string
}

// Resolve builds an AnalysisInfo for root: one Scope per Block, one
// synthetic virtual scope per FunctionDefinition (covering its
// params/returns), and — per spec.md §4.4 — a single scope for each
// ForLoop's pre Block that also governs that loop's condition, post, and
// body (post and body do not get independent scope entries). Every
// Identifier use is checked against the resulting scopes; Resolve returns
// a combined error if any use has no resolvable declaration.
func Resolve(root *ast.Block) (*Info, error) {
	r := &resolver{info: &Info{scopes: make(map[interface{}]*node)}}
	r.resolveBlock(root, nil)
	if len(r.problems) > 0 {
		return nil, ilerr.Malformed("resolve: %s", strings.Join(r.problems, "; "))
	}
	return r.info, nil
}

func (r *resolver) newDecl() decl {
	r.nextID++
	return decl{id: r.nextID}
}

func (r *resolver) newNode(parent *node) *node {
	return &node{parent: parent, decls: make(map[string]decl)}
}

// resolveBlock registers a Scope for b (parented on parent), declares
// every VariableDeclaration and FunctionDefinition that appears directly
// in b (so names are visible throughout the block, not just after their
// declaration — a simplifying choice the external analyzer is free to
// make; spec.md only requires that every use resolve to a single,
// consistent declaration), then resolves every statement.
func (r *resolver) resolveBlock(b *ast.Block, parent *node) *node {
	n := r.newNode(parent)
	if b != nil {
		r.info.scopes[b] = n
		for i := range b.Statements {
			r.predeclare(&b.Statements[i], n)
		}
		for i := range b.Statements {
			r.resolveStatement(&b.Statements[i], n)
		}
	}
	return n
}

func (r *resolver) predeclare(s *ast.Statement, n *node) {
	switch s.Kind {
	case ast.KindVariableDeclaration:
		for _, tn := range s.Names {
			n.decls[tn.Name] = r.newDecl()
		}
	case ast.KindFunctionDefinition:
		n.decls[s.Name] = r.newDecl()
	}
}

func (r *resolver) use(name string, n *node) {
	if _, ok := n.Lookup(name); !ok {
		r.problems = append(r.problems, fmt.Sprintf("undeclared identifier %q", name))
	}
}

func (r *resolver) resolveStatement(s *ast.Statement, n *node) {
	if s == nil {
		return
	}
	switch s.Kind {
	case ast.KindLiteral, ast.KindInstruction, ast.KindLabel, ast.KindStackAssignment:
		// no uses to resolve

	case ast.KindIdentifier:
		r.use(s.Name, n)

	case ast.KindFunctionalInstruction:
		r.resolveStatements(s.Arguments, n)

	case ast.KindFunctionCall:
		r.resolveStatement(s.FunctionName, n)
		r.resolveStatements(s.Arguments, n)

	case ast.KindAssignment:
		r.resolveStatements(s.Targets, n)
		r.resolveStatement(s.Operand, n)

	case ast.KindVariableDeclaration:
		r.resolveStatement(s.Operand, n)

	case ast.KindIf:
		r.resolveStatement(s.Operand, n)
		r.resolveBlock(s.Body, n)

	case ast.KindSwitch:
		r.resolveStatement(s.Operand, n)
		for i := range s.Cases {
			if s.Cases[i].Value != nil {
				r.resolveStatement(s.Cases[i].Value, n)
			}
			r.resolveBlock(s.Cases[i].Body, n)
		}

	case ast.KindForLoop:
		loopScope := r.resolveBlock(s.Pre, n)
		r.resolveStatement(s.Operand, loopScope)
		// Post and body share the pre block's scope directly rather than
		// getting their own AnalysisInfo entry (spec.md §4.4): the pre
		// block governs the loop's entire identifier visibility.
		r.resolveLoopSection(s.Post, loopScope)
		r.resolveLoopSection(s.Body, loopScope)

	case ast.KindFunctionDefinition:
		r.resolveFunction(s, n)
	}
}

func (r *resolver) resolveFunction(s *ast.Statement, enclosing *node) {
	virtual := r.newNode(enclosing)
	r.info.scopes[s] = virtual
	for _, p := range s.Params {
		virtual.decls[p.Name] = r.newDecl()
	}
	for _, ret := range s.Returns {
		virtual.decls[ret.Name] = r.newDecl()
	}
	r.resolveBlock(s.Body, virtual)
}

// resolveLoopSection predeclares and resolves a ForLoop's post or body
// block directly against the loop's shared scope, without registering an
// independent AnalysisInfo entry for the block itself.
func (r *resolver) resolveLoopSection(b *ast.Block, loopScope *node) {
	if b == nil {
		return
	}
	for i := range b.Statements {
		r.predeclare(&b.Statements[i], loopScope)
	}
	for i := range b.Statements {
		r.resolveStatement(&b.Statements[i], loopScope)
	}
}

func (r *resolver) resolveStatements(stmts []ast.Statement, n *node) {
	for i := range stmts {
		r.resolveStatement(&stmts[i], n)
	}
}
