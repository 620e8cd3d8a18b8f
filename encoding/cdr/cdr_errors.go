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

package cdr

import (
	"errors"
	"fmt"
)

var (
	ErrUnexpectedEOF = errors.New("unexpected end of CDR data")
	ErrInvalidHeader = errors.New("invalid CDR header")
)

type Error struct {
	code    uint32
	message string
	offset  int
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

// Offset is the position in the buffer, counted from the first byte of
// the encapsulation header, at which the error was detected.
func (err *Error) Offset() int {
	return err.offset
}

func (err *Error) Unwrap() error {
	return err.kind
}

func errUnexpectedEOF(offset, want, remaining int) error {
	return &Error{
		code: 5000,
		message: fmt.Sprintf(
			"Read of %d bytes at offset %d exceeds buffer (%d bytes remaining)",
			want, offset, remaining,
		),
		offset: offset,
		kind:   ErrUnexpectedEOF,
	}
}

func errShortEncapsulation(bufLen int) error {
	return &Error{
		code:    5001,
		message: fmt.Sprintf("Buffer of %d bytes is too short for the encapsulation header", bufLen),
		kind:    ErrInvalidHeader,
	}
}

func errUnsupportedKind(kind EncapsulationKind) error {
	return &Error{
		code:    5002,
		message: fmt.Sprintf("Unsupported encapsulation kind 0x%02x", uint8(kind)),
		offset:  1,
		kind:    ErrInvalidHeader,
	}
}

func errUnknownKind(name string) error {
	return &Error{
		code:    5003,
		message: fmt.Sprintf("Unknown encapsulation kind %q", name),
		kind:    ErrInvalidHeader,
	}
}

func errInvalidMemberHeader(offset int, detail string) error {
	return &Error{
		code:    5004,
		message: fmt.Sprintf("Invalid member header at offset %d: %s", offset, detail),
		offset:  offset,
		kind:    ErrInvalidHeader,
	}
}

func errSeekOutOfRange(offset, bufLen int) error {
	return &Error{
		code:    5005,
		message: fmt.Sprintf("Offset %d is outside the buffer (%d bytes)", offset, bufLen),
		offset:  offset,
		kind:    ErrUnexpectedEOF,
	}
}
