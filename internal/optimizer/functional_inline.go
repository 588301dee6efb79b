package optimizer

import (
	"github.com/ilopt-lang/ilopt/internal/ast"
	"github.com/ilopt-lang/ilopt/internal/ilerr"
)

// MovablePredicate reports whether a primitive opcode is pure — safe to
// duplicate, reorder, or drop. Supplied by the caller (internal/primitives
// implements one); spec §4.6 treats this as an external collaborator.
type MovablePredicate func(opcode string) bool

// InlineFunctional rewrites root in place, substituting calls to
// functionally-inlinable functions directly into their call sites
// wherever every argument is itself pure. root is assumed already
// disambiguated (spec §6).
func InlineFunctional(root *ast.Block, movable MovablePredicate) error {
	fi := &functionalInliner{
		inlinable: AnalyzeInlinable(root),
		movable:   movable,
	}
	return fi.inlineBlock(root)
}

type functionalInliner struct {
	inlinable InlinableMap
	movable   MovablePredicate
}

func (fi *functionalInliner) inlineBlock(b *ast.Block) error {
	if b == nil {
		return nil
	}
	for i := range b.Statements {
		if err := fi.inlineStatement(&b.Statements[i]); err != nil {
			return err
		}
	}
	return nil
}

func (fi *functionalInliner) inlineStatement(s *ast.Statement) error {
	switch s.Kind {
	case ast.KindLiteral, ast.KindIdentifier, ast.KindInstruction, ast.KindFunctionalInstruction, ast.KindFunctionCall:
		_, err := fi.inlineExpr(s, nil)
		return err

	case ast.KindLabel, ast.KindStackAssignment:
		return ilerr.Malformed("functional inliner: legacy stack-form construct %q is not valid input", s.Kind)

	case ast.KindAssignment:
		if s.Operand == nil {
			return nil
		}
		_, err := fi.inlineExpr(s.Operand, nil)
		return err

	case ast.KindVariableDeclaration:
		if s.Operand == nil {
			return nil
		}
		_, err := fi.inlineExpr(s.Operand, nil)
		return err

	case ast.KindIf:
		if err := fi.inlineConditionForSideEffectsOnly(s.Operand); err != nil {
			return err
		}
		return fi.inlineBlock(s.Body)

	case ast.KindSwitch:
		if err := fi.inlineConditionForSideEffectsOnly(s.Operand); err != nil {
			return err
		}
		for i := range s.Cases {
			if err := fi.inlineBlock(s.Cases[i].Body); err != nil {
				return err
			}
		}
		return nil

	case ast.KindForLoop:
		if err := fi.inlineBlock(s.Pre); err != nil {
			return err
		}
		if err := fi.inlineConditionForSideEffectsOnly(s.Operand); err != nil {
			return err
		}
		if err := fi.inlineBlock(s.Post); err != nil {
			return err
		}
		return fi.inlineBlock(s.Body)

	case ast.KindFunctionDefinition:
		return fi.inlineBlock(s.Body)

	default:
		return ilerr.Malformed("functional inliner: unknown statement kind %q", s.Kind)
	}
}

// inlineConditionForSideEffectsOnly visits a condition's sub-expressions
// (so a call nested inside an argument still gets inlined) without ever
// replacing the condition's own top-level call, even when that call
// itself qualifies for substitution. Whether the source left this as a
// deliberate policy or a limitation is not stated; this module specifies
// it as a limitation (spec §9) rather than generalizing past it.
func (fi *functionalInliner) inlineConditionForSideEffectsOnly(cond *ast.Statement) error {
	if cond == nil {
		return nil
	}
	switch cond.Kind {
	case ast.KindFunctionCall, ast.KindFunctionalInstruction:
		for i := range cond.Arguments {
			if _, err := fi.inlineExpr(&cond.Arguments[i], nil); err != nil {
				return err
			}
		}
	}
	return nil
}

// inlineExpr processes s (an expression position, addressable so it can
// be rewritten in place) and reports whether the resulting expression is
// movable. chain is the set of inlinable functions already substituted
// along the current substitution path, guarding against an unbounded
// expansion if two inlinable functions reference each other.
func (fi *functionalInliner) inlineExpr(s *ast.Statement, chain map[string]bool) (bool, error) {
	if s == nil {
		return true, nil
	}
	switch s.Kind {
	case ast.KindLiteral, ast.KindIdentifier:
		return true, nil

	case ast.KindInstruction:
		return fi.movable(s.Opcode), nil

	case ast.KindFunctionalInstruction:
		allPure := true
		for i := range s.Arguments {
			pure, err := fi.inlineExpr(&s.Arguments[i], chain)
			if err != nil {
				return false, err
			}
			allPure = allPure && pure
		}
		return allPure && fi.movable(s.Opcode), nil

	case ast.KindFunctionCall:
		allPure := true
		for i := range s.Arguments {
			pure, err := fi.inlineExpr(&s.Arguments[i], chain)
			if err != nil {
				return false, err
			}
			allPure = allPure && pure
		}
		fn, ok := fi.inlinable[s.FunctionName.Name]
		if !allPure || !ok || chain[s.FunctionName.Name] {
			return false, nil
		}
		substituted, err := fi.substitute(fn, s.Arguments)
		if err != nil {
			return false, err
		}
		*s = substituted
		nextChain := make(map[string]bool, len(chain)+1)
		for name := range chain {
			nextChain[name] = true
		}
		nextChain[fn.Name] = true
		return fi.inlineExpr(s, nextChain)

	default:
		return false, ilerr.Malformed("functional inliner: unexpected statement kind %q in expression position", s.Kind)
	}
}

// substitute builds apply(sigma, E) for fn's single body assignment's
// right-hand side E, binding fn's parameter names to args.
func (fi *functionalInliner) substitute(fn *ast.Statement, args []ast.Statement) (ast.Statement, error) {
	e := fn.Body.Statements[0].Operand
	sigma := make(map[string]ast.Statement, len(fn.Params))
	for i, p := range fn.Params {
		if i < len(args) {
			sigma[p.Name] = args[i]
		}
	}
	return applySubstitution(e, sigma)
}

// applySubstitution copies e, replacing every Identifier bound in sigma
// with a fresh copy of its bound argument expression — substituting the
// argument but never re-substituting through it.
func applySubstitution(e *ast.Statement, sigma map[string]ast.Statement) (ast.Statement, error) {
	if e == nil {
		return ast.Statement{}, ilerr.Malformed("functional inliner: nil expression in inlinable function body")
	}
	switch e.Kind {
	case ast.KindIdentifier:
		if bound, ok := sigma[e.Name]; ok {
			return copyExprValue(bound), nil
		}
		return *e, nil

	case ast.KindLiteral, ast.KindInstruction:
		return *e, nil

	case ast.KindFunctionalInstruction:
		args := make([]ast.Statement, len(e.Arguments))
		for i := range e.Arguments {
			cp, err := applySubstitution(&e.Arguments[i], sigma)
			if err != nil {
				return ast.Statement{}, err
			}
			args[i] = cp
		}
		return ast.Statement{Kind: e.Kind, Location: e.Location, Opcode: e.Opcode, Arguments: args}, nil

	case ast.KindFunctionCall:
		fnName, err := applySubstitution(e.FunctionName, sigma)
		if err != nil {
			return ast.Statement{}, err
		}
		args := make([]ast.Statement, len(e.Arguments))
		for i := range e.Arguments {
			cp, err := applySubstitution(&e.Arguments[i], sigma)
			if err != nil {
				return ast.Statement{}, err
			}
			args[i] = cp
		}
		return ast.Statement{Kind: e.Kind, Location: e.Location, FunctionName: &fnName, Arguments: args}, nil

	default:
		return ast.Statement{}, ilerr.Malformed("functional inliner: unexpected expression kind %q in inlinable function body", e.Kind)
	}
}

// copyExprValue deep-copies an expression so substituting the same
// parameter's bound argument at multiple Identifier occurrences never
// aliases owned sub-statements between the copies.
func copyExprValue(s ast.Statement) ast.Statement {
	switch s.Kind {
	case ast.KindFunctionalInstruction:
		args := make([]ast.Statement, len(s.Arguments))
		for i := range s.Arguments {
			args[i] = copyExprValue(s.Arguments[i])
		}
		s.Arguments = args
	case ast.KindFunctionCall:
		fnCopy := copyExprValue(*s.FunctionName)
		s.FunctionName = &fnCopy
		args := make([]ast.Statement, len(s.Arguments))
		for i := range s.Arguments {
			args[i] = copyExprValue(s.Arguments[i])
		}
		s.Arguments = args
	}
	return s
}
