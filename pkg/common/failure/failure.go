// --------------------------------------------------------------------------------
// Author: Thomas F McGeehan V
//
// This file is part of a software project developed by Thomas F McGeehan V.
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.
//
// For more information about the MIT License, please visit:
// https://opensource.org/licenses/MIT
//
// Acknowledgment appreciated but not required.
// --------------------------------------------------------------------------------

// Package failure defines the error kinds surfaced by the volume export
// pipeline. Every error produced by the pipeline stages matches exactly one
// kind with errors.Is and still unwraps to its original cause.
package failure

import (
	"errors"
	"fmt"
)

var (
	// ErrConnection covers an unreachable daemon, a failed handshake or a
	// rejected query.
	ErrConnection = errors.New("connection failure")

	// ErrSchemaViolation occurs when data cannot be placed into the target
	// schema, or a record does not structurally match it.
	ErrSchemaViolation = errors.New("schema violation")

	// ErrIO occurs when the output sink rejects a write or a flush.
	ErrIO = errors.New("io failure")

	// ErrInvalidLifecycleState occurs when a stream writer is used outside of
	// its open state. It always indicates a programming error.
	ErrInvalidLifecycleState = errors.New("invalid lifecycle state")
)

// Error carries the kind of a failure, the operation it happened in and the
// underlying cause, if any.
type Error struct {
	Kind error
	Op   string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Op == "" && e.Err == nil:
		return e.Kind.Error()
	case e.Op == "":
		return fmt.Sprintf("%v: %v", e.Kind, e.Err)
	case e.Err == nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(kind error, op string, err error) *Error {
	return &Error{
		Kind: kind,
		Op:   op,
		Err:  err,
	}
}

// Connection returns an ErrConnection failure for op.
func Connection(op string, err error) error {
	return newError(ErrConnection, op, err)
}

// SchemaViolation returns an ErrSchemaViolation failure for op.
func SchemaViolation(op string, err error) error {
	return newError(ErrSchemaViolation, op, err)
}

// SchemaViolationf formats a cause and returns it as an ErrSchemaViolation
// failure for op.
func SchemaViolationf(op, format string, args ...any) error {
	return newError(ErrSchemaViolation, op, fmt.Errorf(format, args...))
}

// IO returns an ErrIO failure for op.
func IO(op string, err error) error {
	return newError(ErrIO, op, err)
}

// InvalidLifecycleState returns an ErrInvalidLifecycleState failure for op.
func InvalidLifecycleState(op string, err error) error {
	return newError(ErrInvalidLifecycleState, op, err)
}

// KindOf reports the kind of err, or nil if err is not a pipeline failure.
func KindOf(err error) error {
	for _, kind := range []error{ErrConnection, ErrSchemaViolation, ErrIO, ErrInvalidLifecycleState} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
