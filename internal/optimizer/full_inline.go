package optimizer

import (
	"github.com/ilopt-lang/ilopt/internal/ast"
	"github.com/ilopt-lang/ilopt/internal/ilerr"
	"github.com/ilopt-lang/ilopt/internal/namegen"
	"github.com/ilopt-lang/ilopt/internal/walk"
)

// FullInline inlines arbitrary single-return user functions at statement
// position, materializing their bodies plus argument/return temporaries
// (spec §4.7). root is assumed already disambiguated; FullInline takes
// its own structural copy and returns it, leaving root untouched.
func FullInline(root *ast.Block) (*ast.Block, error) {
	plain := &walk.Copier{}
	tree, err := plain.CopyBlock(root)
	if err != nil {
		return nil, err
	}

	collected := namegen.Collect(tree)
	fi := &fullInliner{
		functions: collected.Functions,
		dispenser: namegen.NewDispenserSeeded(collected.Names),
		inlining:  make(map[string]bool),
	}
	if err := fi.inlineBlock(tree); err != nil {
		return nil, err
	}
	return tree, nil
}

// fullInliner carries one FullInline call's bookkeeping: the function
// directory collected up front, the name dispenser seeded from every name
// in the tree, and the set of functions currently being inlined into
// (guards against recursive expansion).
type fullInliner struct {
	functions map[string]*ast.Statement
	dispenser *namegen.Dispenser
	inlining  map[string]bool
}

// inlineBlock visits b's statements left to right, splicing in any prefix
// statements a statement's inlining produced immediately before it.
func (fi *fullInliner) inlineBlock(b *ast.Block) error {
	if b == nil {
		return nil
	}
	out := make([]ast.Statement, 0, len(b.Statements))
	for i := range b.Statements {
		prefix, err := fi.inlineStatement(&b.Statements[i])
		if err != nil {
			return err
		}
		out = append(out, prefix...)
		out = append(out, b.Statements[i])
	}
	b.Statements = out
	return nil
}

// inlineStatement processes one statement (already in its final tree
// position), mutating it in place where a call was inlined, and returns
// the prefix statements that realize any inlining it triggered.
func (fi *fullInliner) inlineStatement(s *ast.Statement) ([]ast.Statement, error) {
	switch s.Kind {
	case ast.KindLiteral, ast.KindIdentifier, ast.KindInstruction, ast.KindFunctionalInstruction, ast.KindFunctionCall:
		return fi.inlineExpr(s)

	case ast.KindLabel, ast.KindStackAssignment:
		return nil, ilerr.Malformed("full inliner: legacy stack-form construct %q is not valid input", s.Kind)

	case ast.KindAssignment:
		if len(s.Targets) != 1 {
			return nil, ilerr.Unimplemented("full inliner: multi-target assignment is not supported")
		}
		if s.Operand == nil {
			return nil, ilerr.Malformed("full inliner: assignment has no value")
		}
		return fi.inlineExpr(s.Operand)

	case ast.KindVariableDeclaration:
		if s.Operand == nil {
			return nil, ilerr.Malformed("full inliner: variable declaration has no initializer")
		}
		return fi.inlineExpr(s.Operand)

	case ast.KindIf:
		// The condition cannot be inlined into: the enclosing Block has
		// nowhere to splice a prefix for it (spec §4.7).
		if err := fi.inlineBlock(s.Body); err != nil {
			return nil, err
		}
		return nil, nil

	case ast.KindSwitch:
		for i := range s.Cases {
			if err := fi.inlineBlock(s.Cases[i].Body); err != nil {
				return nil, err
			}
		}
		return nil, nil

	case ast.KindForLoop:
		if err := fi.inlineBlock(s.Pre); err != nil {
			return nil, err
		}
		if err := fi.inlineBlock(s.Post); err != nil {
			return nil, err
		}
		if err := fi.inlineBlock(s.Body); err != nil {
			return nil, err
		}
		return nil, nil

	case ast.KindFunctionDefinition:
		fi.inlining[s.Name] = true
		err := fi.inlineBlock(s.Body)
		delete(fi.inlining, s.Name)
		return nil, err

	default:
		return nil, ilerr.Malformed("full inliner: unknown statement kind %q", s.Kind)
	}
}

// inlineExpr recurses through an expression looking for FunctionCall
// nodes to inline, mutating s in place and returning the prefix
// statements needed to realize whatever it found.
func (fi *fullInliner) inlineExpr(s *ast.Statement) ([]ast.Statement, error) {
	if s == nil {
		return nil, nil
	}
	switch s.Kind {
	case ast.KindLiteral, ast.KindIdentifier, ast.KindInstruction:
		return nil, nil

	case ast.KindFunctionalInstruction:
		var prefix []ast.Statement
		for i := range s.Arguments {
			p, err := fi.inlineExpr(&s.Arguments[i])
			if err != nil {
				return nil, err
			}
			prefix = append(prefix, p...)
		}
		return prefix, nil

	case ast.KindFunctionCall:
		return fi.inlineCall(s)

	default:
		return nil, ilerr.Malformed("full inliner: unexpected statement kind %q in expression position", s.Kind)
	}
}

// inlineCall processes a FunctionCall's arguments right to left (so that,
// when an argument is itself materialized, the resulting bindings can be
// prepended in an order that evaluates left to right at run time), then
// either leaves the call as-is (callee unknown or currently being inlined
// into) or materializes it: fresh argument temporaries, a fresh
// uninitialized return temporary, a name-translated copy of the callee's
// body, and the call replaced in place with a reference to the return
// temporary.
func (fi *fullInliner) inlineCall(s *ast.Statement) ([]ast.Statement, error) {
	n := len(s.Arguments)
	argPrefixes := make([][]ast.Statement, n)
	for i := n - 1; i >= 0; i-- {
		p, err := fi.inlineExpr(&s.Arguments[i])
		if err != nil {
			return nil, err
		}
		argPrefixes[i] = p
	}

	calleeName := s.FunctionName.Name
	fn, ok := fi.functions[calleeName]
	if !ok || fi.inlining[calleeName] {
		var prefix []ast.Statement
		for i := 0; i < n; i++ {
			prefix = append(prefix, argPrefixes[i]...)
		}
		return prefix, nil
	}
	if len(fn.Returns) != 1 {
		return nil, ilerr.Unimplemented("full inliner: function %q has more than one return value", calleeName)
	}

	argVars := make([]string, n)
	var bindings []ast.Statement
	for i := n - 1; i >= 0; i-- {
		paramName := "arg"
		paramType := ""
		if i < len(fn.Params) {
			paramName = fn.Params[i].Name
			paramType = fn.Params[i].Type
		}
		v := fi.dispenser.Fresh(paramName)
		argVars[i] = v

		argCopy := s.Arguments[i]
		decl := ast.Statement{
			Kind:    ast.KindVariableDeclaration,
			Names:   []ast.TypedName{{Name: v, Type: paramType}},
			Operand: &argCopy,
		}

		step := make([]ast.Statement, 0, len(argPrefixes[i])+1)
		step = append(step, argPrefixes[i]...)
		step = append(step, decl)
		bindings = append(step, bindings...)
	}

	retName := fi.dispenser.Fresh(fn.Returns[0].Name)
	retDecl := ast.Statement{
		Kind:  ast.KindVariableDeclaration,
		Names: []ast.TypedName{{Name: retName, Type: fn.Returns[0].Type}},
	}

	translation := make(map[string]string, len(fn.Params)+1)
	for i, p := range fn.Params {
		translation[p.Name] = argVars[i]
	}
	translation[fn.Returns[0].Name] = retName

	bodyCopy, err := fi.copyBody(fn, translation)
	if err != nil {
		return nil, err
	}

	fi.inlining[calleeName] = true
	err = fi.inlineBlock(bodyCopy)
	delete(fi.inlining, calleeName)
	if err != nil {
		return nil, err
	}

	prefix := make([]ast.Statement, 0, len(bindings)+1+len(bodyCopy.Statements))
	prefix = append(prefix, bindings...)
	prefix = append(prefix, retDecl)
	prefix = append(prefix, bodyCopy.Statements...)

	*s = ast.Identifier(retName)
	return prefix, nil
}

// copyBody copies fn's body, translating its parameter and return names
// per seed, leaving the names of functions in the directory unchanged,
// and allocating a fresh name, on first encounter, for every other name
// the copy runs across (the function's own locals) — so the inlined
// body's locals can never collide with anything already in the tree and
// its calls still reach their callees. Nested FunctionDefinitions inside
// the body are rejected: the
// pipeline must hoist them out before full inlining runs.
func (fi *fullInliner) copyBody(fn *ast.Statement, seed map[string]string) (*ast.Block, error) {
	locals := make(map[string]string, len(seed))
	for k, v := range seed {
		locals[k] = v
	}
	c := &walk.Copier{
		TranslateName: func(name string) (string, error) {
			if mapped, ok := locals[name]; ok {
				return mapped, nil
			}
			if _, isFunction := fi.functions[name]; isFunction {
				return name, nil
			}
			fresh := fi.dispenser.Fresh(name)
			locals[name] = fresh
			return fresh, nil
		},
		EnterFunction: func(*ast.Statement) error {
			return ilerr.Malformed("full inliner: nested function definitions must be hoisted before inlining")
		},
	}
	return c.CopyBlock(fn.Body)
}
