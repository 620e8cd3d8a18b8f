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
	"fmt"

	"go.omgidl.dev/omgidl/syntax"
)

type Warning struct {
	code    uint32
	message string
	span    syntax.Span
}

func (w *Warning) String() string {
	return fmt.Sprintf("W%d: %s", w.code, w.message)
}

func (w *Warning) Code() uint32 {
	return w.code
}

func (w *Warning) Message() string {
	return w.message
}

func (w *Warning) Span() syntax.Span {
	return w.span
}

func warnUnknownAnnotation(name, declName string, span syntax.Span) *Warning {
	return &Warning{
		code:    4000,
		message: fmt.Sprintf("Annotation '@%s' on '%s' is not recognized", name, declName),
		span:    span,
	}
}

func warnForwardDeclNotDefined(name string, span syntax.Span) *Warning {
	return &Warning{
		code:    4001,
		message: fmt.Sprintf("Struct '%s' is declared but never defined", name),
		span:    span,
	}
}

func warnLeadingZero(raw, declName string, span syntax.Span) *Warning {
	return &Warning{
		code:    4002,
		message: fmt.Sprintf("Integer literal %s in '%s' has a leading zero and is read as decimal", raw, declName),
		span:    span,
	}
}

func warnDuplicateAnnotation(name, declName string, span syntax.Span) *Warning {
	return &Warning{
		code:    4003,
		message: fmt.Sprintf("Annotation '@%s' is given more than once on '%s'; the last one applies", name, declName),
		span:    span,
	}
}

func warnIgnoredDefault(declName string, value any, typeName string, span syntax.Span) *Warning {
	return &Warning{
		code:    4004,
		message: fmt.Sprintf("Default value %v of '%s' does not fit type '%s' and is kept as written", value, declName, typeName),
		span:    span,
	}
}
