package vm

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by Compile. They are wrapped in a CompileError
// carrying the offending pattern; use errors.Is to test for them.
var (
	// ErrTrailingBackslash indicates a pattern ending in a lone backslash.
	ErrTrailingBackslash = errors.New("trailing backslash at end of pattern")

	// ErrInvalidEscape indicates a malformed escape, such as \x without
	// two hex digits.
	ErrInvalidEscape = errors.New("invalid escape sequence")

	// ErrUnterminatedClass indicates a character class with no closing ']'.
	ErrUnterminatedClass = errors.New("unterminated character class")

	// ErrUnbalancedParens indicates an unmatched '(' or ')'.
	ErrUnbalancedParens = errors.New("unbalanced parenthesis")

	// ErrInvalidGroup indicates a '(?' group with an unknown modifier;
	// only non-capturing '(?:' groups are supported.
	ErrInvalidGroup = errors.New("invalid group syntax")

	// ErrNothingToRepeat indicates a quantifier with no preceding atom,
	// such as a leading '*' or one following '|'.
	ErrNothingToRepeat = errors.New("missing argument to repetition operator")

	// ErrInvalidRepeat indicates a malformed counted repetition, such as
	// a missing '}' or a maximum below the minimum.
	ErrInvalidRepeat = errors.New("invalid repeat count")

	// ErrRepeatTooLarge indicates a counted repetition bound above 65535.
	ErrRepeatTooLarge = errors.New("repeat count too large")

	// ErrNestingTooDeep indicates group nesting beyond MaxNestingDepth.
	ErrNestingTooDeep = errors.New("expression nests too deeply")

	// ErrProgramTooLarge indicates the compiled program would exceed the
	// engine's size limit, usually from large counted repetitions.
	ErrProgramTooLarge = errors.New("compiled program too large")
)

// CompileError is returned by Compile when a pattern is rejected. It wraps
// one of the sentinel errors above together with the pattern text.
type CompileError struct {
	Pattern string // the rejected pattern
	Err     error  // the underlying sentinel error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compile %q: %v", e.Pattern, e.Err)
}

// Unwrap returns the underlying sentinel error.
func (e *CompileError) Unwrap() error {
	return e.Err
}
