// Copyright (c) 2024 John Millikin <john@john-millikin.com>
//
// Permission to use, copy, modify, and/or distribute this software for any
// purpose with or without fee is hereby granted.
//
// THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH
// REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY
// AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT,
// INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM
// LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR
// OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR
// PERFORMANCE OF THIS SOFTWARE.
//
// SPDX-License-Identifier: 0BSD

package compiler

import (
	"errors"
	"fmt"

	"go.omgidl.dev/omgidl/syntax"
)

// Broad classes of resolution failure, for use with [errors.Is].
var (
	ErrDuplicateDefinition    = errors.New("duplicate definition")
	ErrUnresolvedReference    = errors.New("unresolved reference")
	ErrNotConstant            = errors.New("not a constant")
	ErrInvalidConstant        = errors.New("invalid constant expression")
	ErrUnsupportedComposition = errors.New("unsupported composition")
	ErrInvalidType            = errors.New("invalid type")
	ErrUnionCaseType          = errors.New("union case type mismatch")
)

type Error struct {
	code    uint32
	message string
	span    syntax.Span
	kind    error
}

var _ error = (*Error)(nil)

func (err *Error) Error() string {
	return fmt.Sprintf("E%d: %s", err.code, err.message)
}

func (err *Error) Code() uint32 {
	return err.code
}

func (err *Error) Message() string {
	return err.message
}

func (err *Error) Span() syntax.Span {
	return err.span
}

func (err *Error) Unwrap() error {
	return err.kind
}

func errDuplicateDefinition(name string, span syntax.Span) error {
	return &Error{
		code:    3000,
		message: fmt.Sprintf("Duplicate definition of '%s'", name),
		span:    span,
		kind:    ErrDuplicateDefinition,
	}
}

func errTypeNotFound(typeName, referencedBy string, span syntax.Span) error {
	return &Error{
		code:    3001,
		message: fmt.Sprintf("Type '%s' referenced by '%s' was not found", typeName, referencedBy),
		span:    span,
		kind:    ErrUnresolvedReference,
	}
}

func errConstNotFound(constName, referencedBy string, span syntax.Span) error {
	return &Error{
		code:    3002,
		message: fmt.Sprintf("Constant '%s' referenced by '%s' was not found", constName, referencedBy),
		span:    span,
		kind:    ErrUnresolvedReference,
	}
}

func errNotConstant(name, referencedBy string, span syntax.Span) error {
	return &Error{
		code:    3003,
		message: fmt.Sprintf("'%s' referenced by '%s' is not a constant", name, referencedBy),
		span:    span,
		kind:    ErrNotConstant,
	}
}

func errTypedefOfTypedef(typedefName, targetName string, span syntax.Span) error {
	return &Error{
		code: 3004,
		message: fmt.Sprintf(
			"Typedef '%s' refers to typedef '%s'; typedefs of typedefs are not supported",
			typedefName, targetName,
		),
		span: span,
		kind: ErrUnsupportedComposition,
	}
}

func errVariableArrayComposition(name, typedefName string, span syntax.Span) error {
	var message string
	if typedefName == "" {
		message = fmt.Sprintf("'%s' declares an array of sequences, which is not supported", name)
	} else {
		message = fmt.Sprintf(
			"'%s' combines its array dimensions with typedef '%s'; only fixed-size arrays may be composed",
			name, typedefName,
		)
	}
	return &Error{
		code:    3005,
		message: message,
		span:    span,
		kind:    ErrUnsupportedComposition,
	}
}

func errNotAType(name, referencedBy string, span syntax.Span) error {
	return &Error{
		code:    3006,
		message: fmt.Sprintf("'%s' referenced by '%s' is not a type", name, referencedBy),
		span:    span,
		kind:    ErrInvalidType,
	}
}

func errUnionCaseType(unionName, value, switchType string, span syntax.Span) error {
	return &Error{
		code: 3007,
		message: fmt.Sprintf(
			"Case value %s of union '%s' is not valid for switch type '%s'",
			value, unionName, switchType,
		),
		span: span,
		kind: ErrUnionCaseType,
	}
}

func errInvalidSwitchType(unionName, switchType string, span syntax.Span) error {
	return &Error{
		code: 3008,
		message: fmt.Sprintf(
			"Switch type '%s' of union '%s' must be an integer, boolean, char or enum type",
			switchType, unionName,
		),
		span: span,
		kind: ErrInvalidType,
	}
}

func errInvalidConstant(name, detail string, span syntax.Span) error {
	return &Error{
		code:    3009,
		message: fmt.Sprintf("Invalid constant expression in '%s': %s", name, detail),
		span:    span,
		kind:    ErrInvalidConstant,
	}
}

func errCircularConstant(name string, span syntax.Span) error {
	return &Error{
		code:    3010,
		message: fmt.Sprintf("Constant '%s' depends on itself", name),
		span:    span,
		kind:    ErrInvalidConstant,
	}
}

func errInvalidBound(name, what string, value any, span syntax.Span) error {
	return &Error{
		code:    3011,
		message: fmt.Sprintf("%s of '%s' must be a positive integer, got %v", what, name, value),
		span:    span,
		kind:    ErrInvalidConstant,
	}
}

func errConstantType(name string, value any, typeName string, span syntax.Span) error {
	return &Error{
		code:    3012,
		message: fmt.Sprintf("Value %v of '%s' is not representable as '%s'", value, name, typeName),
		span:    span,
		kind:    ErrInvalidConstant,
	}
}
