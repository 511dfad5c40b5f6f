/*
DESCRIPTION
  errors.go provides the error kind taxonomy from the error handling design:
  malformed bitstream, out of memory, frame size exceeded, and worker error.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package obu

import "github.com/pkg/errors"

// Kind classifies an Error by the error-kind taxonomy, not by Go source
// type, so callers can branch on "what went wrong" without type-switching
// over wrapped error chains.
type Kind uint8

const (
	// KindInvalidArgument covers malformed bitstream syntax: invalid field
	// values, buffer overrun, trailing-bit failures, bad LEB128 encodings,
	// and ordering-rule violations.
	KindInvalidArgument Kind = iota

	// KindNoMemory covers allocation failure for headers or metadata.
	KindNoMemory

	// KindRange covers a frame whose dimensions exceed the configured
	// ceiling.
	KindRange

	// KindWorker covers an error reported by a previous frame's pixel
	// decode worker, surfaced on the next call.
	KindWorker
)

func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid argument"
	case KindNoMemory:
		return "no memory"
	case KindRange:
		return "range"
	case KindWorker:
		return "worker error"
	default:
		return "unknown error"
	}
}

// Error is the error type returned by every parsing operation in this
// package. It carries a Kind alongside a github.com/pkg/errors-wrapped
// cause, so errors.Cause continues to unwrap to the original failure. The
// wrapped cause, reachable through Unwrap, carries the stack trace captured
// at the point of failure; Error has no Format method, so formatting an
// *Error itself with %+v prints only its message.
type Error struct {
	Kind Kind
	err  error
}

// newError wraps err with msg and classifies it as kind.
func newError(kind Kind, err error, msg string) *Error {
	return &Error{Kind: kind, err: errors.Wrap(err, msg)}
}

// invalidArgf builds a KindInvalidArgument Error from a format string,
// mirroring h264dec's liberal use of errors.Wrap for contextualized parse
// failures.
func invalidArgf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindInvalidArgument, err: errors.Errorf(format, args...)}
}

// wrapInvalidArg wraps err as a KindInvalidArgument Error with context.
func wrapInvalidArg(err error, msg string) *Error {
	if err == nil {
		return nil
	}
	return newError(KindInvalidArgument, err, msg)
}

func (e *Error) Error() string {
	return e.err.Error()
}

// Unwrap allows errors.Is/errors.As (and pkg/errors.Cause) to see through
// to the underlying cause.
func (e *Error) Unwrap() error { return e.err }

// Cause implements the github.com/pkg/errors causer interface.
func (e *Error) Cause() error { return errors.Cause(e.err) }
