// Package scope defines the contract between the optimizer core and the
// external scope/name-resolution analyzer that produces it. spec.md keeps
// the analyzer itself out of the core's scope: this package specifies
// only the data the analyzer must hand back. See internal/resolve for a
// concrete analyzer that implements this contract.
package scope

// IdentifierDecl is a stable, opaque handle uniquely identifying one
// declaration site (a variable, function, argument, or return). AST nodes
// never point to their declarations directly; declarations are looked up
// through a Scope keyed by source name. Two lookups that resolve to the
// same declaration return equal handles.
type IdentifierDecl interface {
	// declSentinel is unexported so a handle type can satisfy the
	// interface only by embedding DeclHandle; callers treat it as an
	// opaque handle.
	declSentinel()
}

// DeclHandle is embedded by an analyzer's concrete declaration-handle
// type to make it an IdentifierDecl. It carries no data, so a handle that
// embeds it stays comparable by its own fields.
type DeclHandle struct{}

func (DeclHandle) declSentinel() {}

// Scope resolves a source name to the declaration it refers to in this
// scope, walking outward through parent scopes as needed. lookup must
// succeed for every identifier use in a validated tree; spec.md treats a
// failed lookup as an invariant violation the core never needs to repair.
type Scope interface {
	Lookup(name string) (IdentifierDecl, bool)
}

// AnalysisInfo maps every scope-introducing AST node to the Scope that
// governs names declared directly inside it: every *ast.Block, a
// synthetic scope per ast.Statement of Kind KindFunctionDefinition
// (covering its argument/return names), and the Pre block of every
// ast.Statement of Kind KindForLoop (which governs the whole loop's
// identifier visibility, including names declared in Pre and used in the
// condition, Post, or Body).
type AnalysisInfo interface {
	ScopeOf(node interface{}) (Scope, bool)
}
