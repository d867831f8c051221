// Package rkerr defines the wire-shaped error kinds of spec.md §7, modeled
// on the teacher's internal/http/httperr ErrorResponse/ErrorDetail shape:
// every error the engine raises carries a Kind, a Message, an optional
// structured Path, and an optional per-field Fields map.
package rkerr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind enumerates the error kinds of spec.md §7.
type Kind string

const (
	InvalidKey                       Kind = "INVALID_KEY"
	TypeError                        Kind = "TYPE_ERROR"
	ValueError                       Kind = "VALUE_ERROR"
	MissingRequiredInput             Kind = "MISSING_REQUIRED_INPUT"
	PermissionDenied                 Kind = "PERMISSION_DENIED"
	NotFound                         Kind = "NOT_FOUND"
	DeletionDenied                   Kind = "DELETION_DENIED"
	CannotDisconnectPreviousRelation Kind = "CANNOT_DISCONNECT_PREVIOUS_RELATION"
	InvalidOperation                 Kind = "INVALID_OPERATION"
	StoreError                       Kind = "STORE_ERROR"
)

// PathElem is one segment of a structured error path: either a field/key
// name or an array index (spec.md §6 "Error wire shape").
type PathElem struct {
	Key   string
	Index int
	IsIdx bool
}

func Key(k string) PathElem  { return PathElem{Key: k} }
func Index(i int) PathElem   { return PathElem{Index: i, IsIdx: true} }

// Path is a sequence of PathElem, rendered "a.b[2].c" for log lines.
type Path []PathElem

func (p Path) String() string {
	var b strings.Builder
	for i, e := range p {
		if e.IsIdx {
			fmt.Fprintf(&b, "[%d]", e.Index)
			continue
		}
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(e.Key)
	}
	return b.String()
}

// With returns a copy of p with elem appended, used to extend a path as an
// error bubbles up through nested relation interpretation.
func (p Path) With(elem PathElem) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, elem)
}

// Error is the concrete error type every engine operation returns.
type Error struct {
	Kind    Kind
	Message string
	Path    Path
	Fields  map[string]string
	Cause   error
}

func (e *Error) Error() string {
	if len(e.Path) > 0 {
		return fmt.Sprintf("%s at %s: %s", e.Kind, e.Path, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an Error of kind with message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// At returns a copy of e with path attached.
func (e *Error) At(path Path) *Error {
	cp := *e
	cp.Path = path
	return &cp
}

// WithField returns a copy of e with a field-level message attached under
// name in Fields (spec.md §7).
func (e *Error) WithField(name, message string) *Error {
	cp := *e
	if cp.Fields == nil {
		cp.Fields = map[string]string{}
	} else {
		fields := make(map[string]string, len(cp.Fields)+1)
		for k, v := range cp.Fields {
			fields[k] = v
		}
		cp.Fields = fields
	}
	cp.Fields[name] = message
	return &cp
}

// Wrap wraps an underlying store/driver error as a StoreError, preserving
// it for errors.Is/As via Unwrap (spec.md §7: "StoreError ... propagation:
// surfaced verbatim").
func Wrap(err error) *Error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*Error); ok {
		return e
	}
	return &Error{Kind: StoreError, Message: err.Error(), Cause: err}
}

// Is reports whether err is an *Error of the given kind, unwrapping through
// any Cause chain.
func Is(err error, kind Kind) bool {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Kind == kind {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}
