// Package vsearch implements the similarity-search core: symbol maps,
// score model, database store, k-mer index, vectorised and linear-memory
// aligners, hit-acceptance policy, search driver and worker pool.
package vsearch

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies the errors the core can raise. Most kinds are fatal to
// the run in which they occur; Overflow and AlignmentDisagreement are not.
type Kind int

const (
	// InvalidFormat marks a bad header, truncated record, mismatched
	// sequence/quality length, or unsupported SFF version.
	InvalidFormat Kind = iota
	// AlphabetViolation marks a fatal byte found in a sequence.
	AlphabetViolation
	// OutOfRange marks a quality score outside the configured window, or
	// a zero abundance value.
	OutOfRange
	// ResourceExhausted marks an allocation failure.
	ResourceExhausted
	// Overflow marks SIMD 16-bit saturation; not fatal, triggers fallback.
	Overflow
	// AlignmentDisagreement marks a recomputed score differing from the
	// value carried in the alignment matrix; warning only.
	AlignmentDisagreement
	// EmptyResult marks a query that produced zero hits.
	EmptyResult
)

func (k Kind) String() string {
	switch k {
	case InvalidFormat:
		return "invalid format"
	case AlphabetViolation:
		return "alphabet violation"
	case OutOfRange:
		return "out of range"
	case ResourceExhausted:
		return "resource exhausted"
	case Overflow:
		return "overflow"
	case AlignmentDisagreement:
		return "alignment disagreement"
	case EmptyResult:
		return "empty result"
	default:
		return "unknown error"
	}
}

// Fatal reports whether an error of this kind should abort the run.
// Overflow is a routine signal to escalate to the linear-memory aligner;
// AlignmentDisagreement is a warning surfaced to the log, not the caller.
func (k Kind) Fatal() bool {
	return k != Overflow && k != AlignmentDisagreement
}

// Error is the error type raised by the core. It wraps an underlying cause
// (if any) with a Kind so callers can branch on classification without
// string matching, and carries a Line for errors arising from stream
// parsing.
type Error struct {
	Kind Kind
	Line int // 0 if not applicable
	msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s at line %d: %s", e.Kind, e.Line, e.msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.msg)
}

// Unwrap exposes the wrapped cause to errors.Is / errors.As.
func (e *Error) Unwrap() error { return e.Err }

// newError constructs an Error with no wrapped cause.
func newError(kind Kind, line int, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Line: line, msg: fmt.Sprintf(format, args...)}
}

// NewOutOfRangeError builds an OutOfRange *Error, exported for
// collaborators outside the package (the header abundance scanner, the
// FASTQ quality-window check) that need to raise the same error kind the
// core itself raises for this condition.
func NewOutOfRangeError(line int, format string, args ...interface{}) *Error {
	return newError(OutOfRange, line, format, args...)
}

// NewInvalidFormatError builds an InvalidFormat *Error, exported for the
// same reason as NewOutOfRangeError.
func NewInvalidFormatError(line int, format string, args ...interface{}) *Error {
	return newError(InvalidFormat, line, format, args...)
}

// wrapError attaches kind classification to an error arising from a
// collaborator (allocator, io.Reader, etc).
func wrapError(kind Kind, cause error, format string, args ...interface{}) *Error {
	return &Error{
		Kind: kind,
		msg:  fmt.Sprintf(format, args...),
		Err:  errors.Wrap(cause, kind.String()),
	}
}
