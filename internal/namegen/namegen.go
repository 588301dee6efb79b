// Package namegen provides the two bookkeeping primitives every renaming
// pass routes through: a fresh-name Dispenser and a one-pass name
// Collector. Routing every fresh name through a single Dispenser per pass
// is what makes the global name-uniqueness invariant hold.
package namegen

import (
	"fmt"

	"github.com/ilopt-lang/ilopt/internal/ast"
)

// Dispenser issues names guaranteed not to collide with any name it has
// already issued or been told about. Its seen-set is grow-only: once a
// name is issued it is never reused.
type Dispenser struct {
	seen map[string]bool
}

// NewDispenser creates a Dispenser whose seen-set starts empty.
func NewDispenser() *Dispenser {
	return &Dispenser{seen: make(map[string]bool)}
}

// NewDispenserSeeded creates a Dispenser whose seen-set already contains
// every name in seed, so Fresh never collides with a name already present
// in the tree it was collected from.
func NewDispenserSeeded(seed map[string]bool) *Dispenser {
	d := &Dispenser{seen: make(map[string]bool, len(seed))}
	for name := range seed {
		d.seen[name] = true
	}
	return d
}

// Seen reports whether name has already been issued or reserved.
func (d *Dispenser) Seen(name string) bool {
	return d.seen[name]
}

// Reserve marks name as issued without returning it, so a later Fresh call
// skips it. Used to seed a Dispenser with names already present in a tree.
func (d *Dispenser) Reserve(name string) {
	d.seen[name] = true
}

// Fresh returns prefix unchanged if it has not been issued before;
// otherwise it tries prefix_1, prefix_2, ... until one is free.
func (d *Dispenser) Fresh(prefix string) string {
	if !d.seen[prefix] {
		d.seen[prefix] = true
		return prefix
	}
	for k := 1; ; k++ {
		candidate := fmt.Sprintf("%s_%d", prefix, k)
		if !d.seen[candidate] {
			d.seen[candidate] = true
			return candidate
		}
	}
}

// Collected is the result of scanning a tree: every name mentioned
// anywhere (declaration or use), and a directory of user function
// definitions by name.
type Collected struct {
	Names     map[string]bool
	Functions map[string]*ast.Statement
}

// Collect performs a one-pass scan of b, recording every name that appears
// (identifiers, labels, stack-assignments, function names, typed-name
// entries) and a name -> *FunctionDefinition directory. Used to seed the
// Full Inliner's Dispenser and function directory (spec.md §4.3).
func Collect(b *ast.Block) *Collected {
	c := &Collected{Names: make(map[string]bool), Functions: make(map[string]*ast.Statement)}
	c.collectBlock(b)
	return c
}

func (c *Collected) collectBlock(b *ast.Block) {
	if b == nil {
		return
	}
	for i := range b.Statements {
		c.collectStatement(&b.Statements[i])
	}
}

func (c *Collected) collectStatement(s *ast.Statement) {
	if s == nil {
		return
	}
	switch s.Kind {
	case ast.KindLiteral, ast.KindInstruction:
		// no names

	case ast.KindIdentifier, ast.KindLabel, ast.KindStackAssignment:
		c.Names[s.Name] = true

	case ast.KindFunctionalInstruction:
		c.collectStatements(s.Arguments)

	case ast.KindFunctionCall:
		c.collectStatement(s.FunctionName)
		c.collectStatements(s.Arguments)

	case ast.KindAssignment:
		c.collectStatements(s.Targets)
		c.collectStatement(s.Operand)

	case ast.KindVariableDeclaration:
		c.collectTypedNames(s.Names)
		c.collectStatement(s.Operand)

	case ast.KindIf:
		c.collectStatement(s.Operand)
		c.collectBlock(s.Body)

	case ast.KindSwitch:
		c.collectStatement(s.Operand)
		for i := range s.Cases {
			if s.Cases[i].Value != nil {
				c.collectStatement(s.Cases[i].Value)
			}
			c.collectBlock(s.Cases[i].Body)
		}

	case ast.KindForLoop:
		c.collectBlock(s.Pre)
		c.collectStatement(s.Operand)
		c.collectBlock(s.Post)
		c.collectBlock(s.Body)

	case ast.KindFunctionDefinition:
		c.Names[s.Name] = true
		c.Functions[s.Name] = s
		c.collectTypedNames(s.Params)
		c.collectTypedNames(s.Returns)
		c.collectBlock(s.Body)
	}
}

func (c *Collected) collectStatements(stmts []ast.Statement) {
	for i := range stmts {
		c.collectStatement(&stmts[i])
	}
}

func (c *Collected) collectTypedNames(names []ast.TypedName) {
	for _, tn := range names {
		c.Names[tn.Name] = true
	}
}
