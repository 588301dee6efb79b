// Package walk provides the two generic traversal disciplines every
// rewriting pass is built from: a structural Copier with a single
// identifier-rewrite hook, and an in-place Walker the caller drives.
// Disambiguation and the Full Inliner's body-copying differ only in how
// names are translated; factoring the hook as the sole point of variation
// keeps both short and keeps the traversal itself correct in one place.
package walk

import (
	"github.com/ilopt-lang/ilopt/internal/ast"
	"github.com/ilopt-lang/ilopt/internal/ilerr"
)

// Copier produces a structurally independent copy of a tree. TranslateName
// is invoked at every Identifier use site and at every declaration-name
// site (function name, typed-name entries). The scope hooks are paired on
// every exit path, including error returns.
type Copier struct {
	// TranslateName rewrites a name at a use or declaration site. Defaults
	// to the identity function when nil.
	TranslateName func(name string) (string, error)

	// EnterScope/LeaveScope bracket the copy of each Block. Either may be
	// nil.
	EnterScope func(b *ast.Block) error
	LeaveScope func(b *ast.Block) error

	// EnterFunction/LeaveFunction bracket the copy of each
	// FunctionDefinition, in addition to EnterScope/LeaveScope around its
	// body Block. Either may be nil.
	EnterFunction func(fn *ast.Statement) error
	LeaveFunction func(fn *ast.Statement) error

	// EnterLoop/LeaveLoop bracket the copy of an entire ForLoop (pre,
	// condition, post, and body together). Unlike every other construct,
	// a ForLoop's pre, post, and body Blocks do not get their own
	// EnterScope/LeaveScope calls: the pre Block's scope governs the
	// whole loop (spec.md §4.4), so the condition — which is a bare
	// Statement, not a Block, and would otherwise see no scope push at
	// all — resolves correctly too. Either may be nil.
	EnterLoop func(forLoop *ast.Statement) error
	LeaveLoop func(forLoop *ast.Statement) error
}

func (c *Copier) translate(name string) (string, error) {
	if c.TranslateName == nil {
		return name, nil
	}
	return c.TranslateName(name)
}

// CopyBlock copies a Block, running EnterScope/LeaveScope around it.
func (c *Copier) CopyBlock(b *ast.Block) (*ast.Block, error) {
	if b == nil {
		return nil, nil
	}
	if c.EnterScope != nil {
		if err := c.EnterScope(b); err != nil {
			return nil, err
		}
	}
	defer func() {
		if c.LeaveScope != nil {
			_ = c.LeaveScope(b)
		}
	}()

	out := &ast.Block{Location: b.Location, Statements: make([]ast.Statement, len(b.Statements))}
	for i := range b.Statements {
		cp, err := c.CopyStatement(&b.Statements[i])
		if err != nil {
			return nil, err
		}
		out.Statements[i] = cp
	}
	return out, nil
}

// copyBlockNoScope copies a Block's statements without running
// EnterScope/LeaveScope — used for a ForLoop's pre, post, and body, whose
// scope is governed entirely by the EnterLoop/LeaveLoop hooks instead.
func (c *Copier) copyBlockNoScope(b *ast.Block) (*ast.Block, error) {
	if b == nil {
		return nil, nil
	}
	out := &ast.Block{Location: b.Location, Statements: make([]ast.Statement, len(b.Statements))}
	for i := range b.Statements {
		cp, err := c.CopyStatement(&b.Statements[i])
		if err != nil {
			return nil, err
		}
		out.Statements[i] = cp
	}
	return out, nil
}

// CopyStatement copies a single Statement of any Kind.
func (c *Copier) CopyStatement(s *ast.Statement) (ast.Statement, error) {
	switch s.Kind {
	case ast.KindLiteral:
		return ast.Statement{Kind: s.Kind, Location: s.Location, LiteralValue: s.LiteralValue, LiteralKind: s.LiteralKind}, nil

	case ast.KindIdentifier:
		name, err := c.translate(s.Name)
		if err != nil {
			return ast.Statement{}, err
		}
		return ast.Statement{Kind: s.Kind, Location: s.Location, Name: name}, nil

	case ast.KindInstruction:
		return ast.Statement{Kind: s.Kind, Location: s.Location, Opcode: s.Opcode}, nil

	case ast.KindFunctionalInstruction:
		args, err := c.copyStatements(s.Arguments)
		if err != nil {
			return ast.Statement{}, err
		}
		return ast.Statement{Kind: s.Kind, Location: s.Location, Opcode: s.Opcode, Arguments: args}, nil

	case ast.KindFunctionCall:
		fnName, err := c.CopyStatement(s.FunctionName)
		if err != nil {
			return ast.Statement{}, err
		}
		args, err := c.copyStatements(s.Arguments)
		if err != nil {
			return ast.Statement{}, err
		}
		return ast.Statement{Kind: s.Kind, Location: s.Location, FunctionName: &fnName, Arguments: args}, nil

	case ast.KindLabel, ast.KindStackAssignment:
		// Generic traversal still honors the name hook here (spec.md
		// §4.1); it is the Disambiguator's job, not this package's, to
		// reject these kinds outright (spec.md §3, §4.4).
		name, err := c.translate(s.Name)
		if err != nil {
			return ast.Statement{}, err
		}
		return ast.Statement{Kind: s.Kind, Location: s.Location, Name: name}, nil

	case ast.KindAssignment:
		targets, err := c.copyStatements(s.Targets)
		if err != nil {
			return ast.Statement{}, err
		}
		var operand *ast.Statement
		if s.Operand != nil {
			cp, err := c.CopyStatement(s.Operand)
			if err != nil {
				return ast.Statement{}, err
			}
			operand = &cp
		}
		return ast.Statement{Kind: s.Kind, Location: s.Location, Targets: targets, Operand: operand}, nil

	case ast.KindVariableDeclaration:
		names, err := c.copyTypedNames(s.Names)
		if err != nil {
			return ast.Statement{}, err
		}
		var operand *ast.Statement
		if s.Operand != nil {
			cp, err := c.CopyStatement(s.Operand)
			if err != nil {
				return ast.Statement{}, err
			}
			operand = &cp
		}
		return ast.Statement{Kind: s.Kind, Location: s.Location, Names: names, Operand: operand}, nil

	case ast.KindIf:
		cond, err := c.CopyStatement(s.Operand)
		if err != nil {
			return ast.Statement{}, err
		}
		body, err := c.CopyBlock(s.Body)
		if err != nil {
			return ast.Statement{}, err
		}
		return ast.Statement{Kind: s.Kind, Location: s.Location, Operand: &cond, Body: body}, nil

	case ast.KindSwitch:
		expr, err := c.CopyStatement(s.Operand)
		if err != nil {
			return ast.Statement{}, err
		}
		cases := make([]ast.Case, len(s.Cases))
		for i := range s.Cases {
			cs, err := c.copyCase(&s.Cases[i])
			if err != nil {
				return ast.Statement{}, err
			}
			cases[i] = cs
		}
		return ast.Statement{Kind: s.Kind, Location: s.Location, Operand: &expr, Cases: cases}, nil

	case ast.KindForLoop:
		if c.EnterLoop != nil {
			if err := c.EnterLoop(s); err != nil {
				return ast.Statement{}, err
			}
		}
		defer func() {
			if c.LeaveLoop != nil {
				_ = c.LeaveLoop(s)
			}
		}()

		pre, err := c.copyBlockNoScope(s.Pre)
		if err != nil {
			return ast.Statement{}, err
		}
		cond, err := c.CopyStatement(s.Operand)
		if err != nil {
			return ast.Statement{}, err
		}
		post, err := c.copyBlockNoScope(s.Post)
		if err != nil {
			return ast.Statement{}, err
		}
		body, err := c.copyBlockNoScope(s.Body)
		if err != nil {
			return ast.Statement{}, err
		}
		return ast.Statement{Kind: s.Kind, Location: s.Location, Pre: pre, Operand: &cond, Post: post, Body: body}, nil

	case ast.KindFunctionDefinition:
		return c.copyFunctionDefinition(s)

	default:
		return ast.Statement{}, ilerr.Malformed("copier: unknown statement kind %q", s.Kind)
	}
}

func (c *Copier) copyFunctionDefinition(s *ast.Statement) (ast.Statement, error) {
	if c.EnterFunction != nil {
		if err := c.EnterFunction(s); err != nil {
			return ast.Statement{}, err
		}
	}
	defer func() {
		if c.LeaveFunction != nil {
			_ = c.LeaveFunction(s)
		}
	}()

	name, err := c.translate(s.Name)
	if err != nil {
		return ast.Statement{}, err
	}
	params, err := c.copyTypedNames(s.Params)
	if err != nil {
		return ast.Statement{}, err
	}
	returns, err := c.copyTypedNames(s.Returns)
	if err != nil {
		return ast.Statement{}, err
	}
	body, err := c.CopyBlock(s.Body)
	if err != nil {
		return ast.Statement{}, err
	}
	return ast.Statement{
		Kind: s.Kind, Location: s.Location,
		Name: name, Params: params, Returns: returns, Body: body,
	}, nil
}

func (c *Copier) copyCase(cs *ast.Case) (ast.Case, error) {
	var value *ast.Statement
	if cs.Value != nil {
		cp, err := c.CopyStatement(cs.Value)
		if err != nil {
			return ast.Case{}, err
		}
		value = &cp
	}
	body, err := c.CopyBlock(cs.Body)
	if err != nil {
		return ast.Case{}, err
	}
	return ast.Case{Location: cs.Location, Value: value, Body: body}, nil
}

func (c *Copier) copyStatements(in []ast.Statement) ([]ast.Statement, error) {
	if in == nil {
		return nil, nil
	}
	out := make([]ast.Statement, len(in))
	for i := range in {
		cp, err := c.CopyStatement(&in[i])
		if err != nil {
			return nil, err
		}
		out[i] = cp
	}
	return out, nil
}

func (c *Copier) copyTypedNames(in []ast.TypedName) ([]ast.TypedName, error) {
	if in == nil {
		return nil, nil
	}
	out := make([]ast.TypedName, len(in))
	for i, tn := range in {
		name, err := c.translate(tn.Name)
		if err != nil {
			return nil, err
		}
		out[i] = ast.TypedName{Location: tn.Location, Name: name, Type: tn.Type}
	}
	return out, nil
}

// Visitor is driven by Walk; it observes (and may mutate in place) each
// Statement and Block. Walk itself never rewrites — only the visitor
// decides whether and how to mutate.
type Visitor interface {
	VisitStatement(s *ast.Statement) error
	VisitBlock(b *ast.Block) error
}

// Walk traverses s in place, depth-first, calling v at every Statement and
// Block (Blocks are also visited via their owning node's VisitStatement
// call, then walked recursively here).
func Walk(s *ast.Statement, v Visitor) error {
	if s == nil {
		return nil
	}
	if err := v.VisitStatement(s); err != nil {
		return err
	}
	switch s.Kind {
	case ast.KindLiteral, ast.KindIdentifier, ast.KindInstruction, ast.KindLabel, ast.KindStackAssignment:
		return nil

	case ast.KindFunctionalInstruction:
		return walkSlice(s.Arguments, v)

	case ast.KindFunctionCall:
		if err := Walk(s.FunctionName, v); err != nil {
			return err
		}
		return walkSlice(s.Arguments, v)

	case ast.KindAssignment:
		if err := walkSlice(s.Targets, v); err != nil {
			return err
		}
		return Walk(s.Operand, v)

	case ast.KindVariableDeclaration:
		return Walk(s.Operand, v)

	case ast.KindIf:
		if err := Walk(s.Operand, v); err != nil {
			return err
		}
		return WalkBlock(s.Body, v)

	case ast.KindSwitch:
		if err := Walk(s.Operand, v); err != nil {
			return err
		}
		for i := range s.Cases {
			if s.Cases[i].Value != nil {
				if err := Walk(s.Cases[i].Value, v); err != nil {
					return err
				}
			}
			if err := WalkBlock(s.Cases[i].Body, v); err != nil {
				return err
			}
		}
		return nil

	case ast.KindForLoop:
		if err := WalkBlock(s.Pre, v); err != nil {
			return err
		}
		if err := Walk(s.Operand, v); err != nil {
			return err
		}
		if err := WalkBlock(s.Post, v); err != nil {
			return err
		}
		return WalkBlock(s.Body, v)

	case ast.KindFunctionDefinition:
		return WalkBlock(s.Body, v)

	default:
		return ilerr.Malformed("walker: unknown statement kind %q", s.Kind)
	}
}

// WalkBlock walks every statement of a Block in order.
func WalkBlock(b *ast.Block, v Visitor) error {
	if b == nil {
		return nil
	}
	if err := v.VisitBlock(b); err != nil {
		return err
	}
	return walkSlice(b.Statements, v)
}

func walkSlice(stmts []ast.Statement, v Visitor) error {
	for i := range stmts {
		if err := Walk(&stmts[i], v); err != nil {
			return err
		}
	}
	return nil
}
