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

// Package cdrmsg reads and writes CDR-encoded messages described by
// resolved OMG IDL definitions.
//
// Messages are represented as map[string]any. Primitive members hold Go
// values of the normalized type (int32 for "int32", float64 for
// "float64", and so on). Arrays of primitives are typed slices, arrays
// of strings are []string, and arrays of structs or unions are []any.
// Multi-dimensional arrays nest []any around the innermost slice. The
// discriminator of a union is stored under the "$discriminator" key.
package cdrmsg

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"go.omgidl.dev/omgidl/encoding/cdr"
)

// Key holding the discriminator of a union value.
const DiscriminatorKey = "$discriminator"

var (
	ErrRootTypeNotFound      = errors.New("root type not found")
	ErrUnknownType           = errors.New("unknown type")
	ErrUnsupportedType       = errors.New("unsupported type")
	ErrUnrecognizedPrimitive = errors.New("unrecognized primitive type")
	ErrMemberHeaderMismatch  = errors.New("member header mismatch")
	ErrInvalidValue          = errors.New("invalid value")
	ErrBoundExceeded         = errors.New("bound exceeded")
)

// A FieldError reports a failure to read or write one member.
type FieldError struct {
	Field string

	// Scoped name of the struct or union that holds the field.
	Type string

	// Position in the buffer at which the field starts.
	Offset int

	Err error
}

func (err *FieldError) Error() string {
	return fmt.Sprintf("%s.%s (offset %d): %v", err.Type, err.Field, err.Offset, err.Err)
}

func (err *FieldError) Unwrap() error {
	return err.Err
}

func fieldError(info *complexInfo, field string, offset int, err error) error {
	var fieldErr *FieldError
	if errors.As(err, &fieldErr) {
		return err
	}
	return &FieldError{
		Field:  field,
		Type:   info.def.Name,
		Offset: offset,
		Err:    err,
	}
}

type ReaderOption interface {
	applyReader(*readerOptions)
}

type WriterOption interface {
	applyWriter(*writerOptions)
}

// An Option applies to both readers and writers.
type Option interface {
	ReaderOption
	WriterOption
}

type readerOptions struct {
	logger *zap.Logger
}

type writerOptions struct {
	logger *zap.Logger
	kind   cdr.EncapsulationKind
}

type writerOption func(*writerOptions)

func (f writerOption) applyWriter(opts *writerOptions) { f(opts) }

type loggerOption struct {
	logger *zap.Logger
}

func (o loggerOption) applyReader(opts *readerOptions) { opts.logger = o.logger }
func (o loggerOption) applyWriter(opts *writerOptions) { opts.logger = o.logger }

// WithLogger sets the logger that receives debug messages about skipped
// members and partial reads.
func WithLogger(logger *zap.Logger) Option {
	return loggerOption{logger}
}

// WithEncapsulationKind sets the encapsulation of written messages. The
// default is [cdr.KindCDR_LE].
func WithEncapsulationKind(kind cdr.EncapsulationKind) WriterOption {
	return writerOption(func(opts *writerOptions) {
		opts.kind = kind
	})
}

func loggerOrNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
