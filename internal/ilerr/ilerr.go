// Package ilerr gives the two error taxonomies spec.md §7 describes a
// concrete Go shape: malformed-input invariant violations, and
// explicitly-unimplemented constructs. Both are plain errors — there is
// no soft-error or partial-success mode; a pass that hits either returns
// immediately.
package ilerr

import (
	"errors"
	"fmt"
)

// malformedError marks an invariant violation in the input tree: a
// programmer error in the caller (the parser or the external scope
// analyzer) that already should have rejected it.
type malformedError struct{ msg string }

func (e *malformedError) Error() string { return "malformed input: " + e.msg }

// Malformed reports an invariant violation: a Label/StackAssignment
// reaching a pass, a missing AnalysisInfo entry, an identifier with no
// resolvable declaration, or similar.
func Malformed(format string, args ...interface{}) error {
	return &malformedError{msg: fmt.Sprintf(format, args...)}
}

// IsMalformed reports whether err (or one it wraps) is a Malformed error.
func IsMalformed(err error) bool {
	var target *malformedError
	return errors.As(err, &target)
}

// unimplementedError marks a construct spec.md explicitly leaves
// unimplemented rather than generalizing to handle.
type unimplementedError struct{ msg string }

func (e *unimplementedError) Error() string { return "unimplemented: " + e.msg }

// Unimplemented reports a construct spec.md names as out of scope for this
// version of the pass: multi-target assignment, multi-return functions in
// the full inliner, inlining inside conditions or switch discriminants.
func Unimplemented(format string, args ...interface{}) error {
	return &unimplementedError{msg: fmt.Sprintf(format, args...)}
}

// IsUnimplemented reports whether err (or one it wraps) is an
// Unimplemented error.
func IsUnimplemented(err error) bool {
	var target *unimplementedError
	return errors.As(err, &target)
}
