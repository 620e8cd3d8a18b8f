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

package cdrmsg

import (
	"fmt"

	"go.uber.org/zap"

	"go.omgidl.dev/omgidl"
	"go.omgidl.dev/omgidl/encoding/cdr"
)

// A Writer encodes messages of one root type. It is not safe for
// concurrent use.
type Writer struct {
	root  *complexInfo
	cache *infoCache
	kind  cdr.EncapsulationKind
	log   *zap.Logger
}

func NewWriter(root string, defs []omgidl.Definition, opts ...WriterOption) (*Writer, error) {
	options := writerOptions{kind: cdr.KindCDR_LE}
	for _, opt := range opts {
		opt.applyWriter(&options)
	}
	if !options.kind.IsValid() {
		return nil, fmt.Errorf("%w: encapsulation kind %s", ErrInvalidValue, options.kind)
	}
	cache := newInfoCache(defs)
	info, err := cache.root(root)
	if err != nil {
		return nil, err
	}
	log := loggerOrNop(options.logger)
	if info.usesMemberHeader != options.kind.UsesMemberHeader() ||
		info.usesDelimiterHeader != options.kind.UsesDelimiterHeader() {
		log.Debug("encapsulation kind does not match root extensibility",
			zap.String("type", root),
			zap.Stringer("kind", options.kind),
		)
	}
	return &Writer{
		root:  info,
		cache: cache,
		kind:  options.kind,
		log:   log,
	}, nil
}

func (wr *Writer) Kind() cdr.EncapsulationKind {
	return wr.kind
}

// WriteMessage encodes a message, including the encapsulation header.
// Missing members are written as their zero values.
func (wr *Writer) WriteMessage(msg any) ([]byte, error) {
	w := cdr.NewWriter(wr.kind)
	if err := wr.writeComplex(w, wr.root, msg); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// CalculateByteSize returns the length of the buffer WriteMessage would
// return for msg.
func (wr *Writer) CalculateByteSize(msg any) (int, error) {
	w := cdr.NewSizer(wr.kind)
	if err := wr.writeComplex(w, wr.root, msg); err != nil {
		return 0, err
	}
	return w.Len(), nil
}

func (wr *Writer) writeComplex(w *cdr.Writer, info *complexInfo, value any) error {
	msg, ok := toMap(value)
	if !ok {
		return fmt.Errorf("%w: %s expects a map, got %T", ErrInvalidValue, info.def.Name, value)
	}
	mark := -1
	if info.usesDelimiterHeader && w.IsCDR2() {
		mark = w.BeginDHeader()
	}
	var err error
	if info.isUnion {
		err = wr.writeUnion(w, info, msg)
	} else {
		err = wr.writeStruct(w, info, msg)
	}
	if err != nil {
		return err
	}
	if mark >= 0 {
		w.EndDHeader(mark)
	}
	return nil
}

func (wr *Writer) writeStruct(w *cdr.Writer, info *complexInfo, msg map[string]any) error {
	for _, f := range info.fields {
		start := w.Len()
		value := msg[f.name]
		var err error
		switch {
		case info.usesMemberHeader:
			if f.isOptional && value == nil {
				continue
			}
			err = wr.writeMember(w, f, value)
		case f.isOptional:
			err = wr.writeOptional(w, f, value)
		default:
			err = wr.writeField(w, f, value)
		}
		if err != nil {
			return fieldError(info, f.name, start, err)
		}
	}
	if info.usesMemberHeader && !w.IsCDR2() {
		w.SentinelHeader()
	}
	return nil
}

// writeMember writes a member header followed by the member data. The
// data is written twice, first to measure it.
func (wr *Writer) writeMember(w *cdr.Writer, f *fieldInfo, value any) error {
	sizer := w.MemberSizer()
	if err := wr.writeField(sizer, f, value); err != nil {
		return err
	}
	w.MemberHeader(f.id, f.isKey, sizer.Len(), f.lengthCode())
	return wr.writeField(w, f, value)
}

func (wr *Writer) writeOptional(w *cdr.Writer, f *fieldInfo, value any) error {
	if w.IsCDR2() {
		w.Bool(value != nil)
		if value == nil {
			return nil
		}
		return wr.writeField(w, f, value)
	}
	if value == nil {
		w.MemberHeader(f.id, false, 0, 0)
		return nil
	}
	return wr.writeMember(w, f, value)
}

func (wr *Writer) writeUnion(w *cdr.Writer, info *complexInfo, msg map[string]any) error {
	discriminator := info.switchType.zero
	if v, ok := msg[DiscriminatorKey]; ok && v != nil {
		typed, ok := info.switchType.convert(v)
		if !ok {
			return fieldError(info, DiscriminatorKey, w.Len(), fmt.Errorf(
				"%w: cannot write %v (%T) as %s", ErrInvalidValue, v, v, info.switchType.name,
			))
		}
		discriminator = typed
	}
	if info.usesMemberHeader {
		size := info.switchType.size
		w.MemberHeader(0, false, size, cdr.LengthCode(size))
	}
	info.switchType.write(w, discriminator)

	if f := info.caseFor(discriminator); f != nil {
		start := w.Len()
		var err error
		if info.usesMemberHeader {
			err = wr.writeMember(w, f, msg[f.name])
		} else {
			err = wr.writeField(w, f, msg[f.name])
		}
		if err != nil {
			return fieldError(info, f.name, start, err)
		}
	}
	if info.usesMemberHeader && !w.IsCDR2() {
		w.SentinelHeader()
	}
	return nil
}

func (wr *Writer) writeField(w *cdr.Writer, f *fieldInfo, value any) error {
	switch {
	case f.isFixedArray():
		return wr.writeFixedArray(w, f, f.arrayLengths, value)
	case f.isArray:
		elems, ok := toSlice(value)
		if !ok {
			return fmt.Errorf("%w: expected a sequence, got %T", ErrInvalidValue, value)
		}
		if f.arrayUpperBound > 0 && len(elems) > f.arrayUpperBound {
			return fmt.Errorf("%w: sequence of length %d exceeds bound %d",
				ErrBoundExceeded, len(elems), f.arrayUpperBound)
		}
		w.SequenceLength(len(elems))
		for _, elem := range elems {
			if err := wr.writeSingle(w, f, elem); err != nil {
				return err
			}
		}
		return nil
	}
	return wr.writeSingle(w, f, value)
}

// writeFixedArray writes every element of a fixed-size array. Short
// input is padded with zero values.
func (wr *Writer) writeFixedArray(w *cdr.Writer, f *fieldInfo, dims []int, value any) error {
	elems, ok := toSlice(value)
	if !ok {
		return fmt.Errorf("%w: expected an array, got %T", ErrInvalidValue, value)
	}
	if len(elems) > dims[0] {
		return fmt.Errorf("%w: array of length %d exceeds fixed length %d",
			ErrBoundExceeded, len(elems), dims[0])
	}
	for ii := 0; ii < dims[0]; ii++ {
		var elem any
		if ii < len(elems) {
			elem = elems[ii]
		}
		var err error
		if len(dims) > 1 {
			err = wr.writeFixedArray(w, f, dims[1:], elem)
		} else {
			err = wr.writeSingle(w, f, elem)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (wr *Writer) writeSingle(w *cdr.Writer, f *fieldInfo, value any) error {
	switch f.kind {
	case kindPrimitive:
		if value == nil {
			value = f.primitive.zero
		}
		typed, ok := f.primitive.convert(value)
		if !ok {
			return fmt.Errorf("%w: cannot write %v (%T) as %s",
				ErrInvalidValue, value, value, f.primitive.name)
		}
		f.primitive.write(w, typed)
	case kindString:
		var s string
		if value != nil {
			var ok bool
			if s, ok = value.(string); !ok {
				return fmt.Errorf("%w: cannot write %T as string", ErrInvalidValue, value)
			}
		}
		if f.upperBound > 0 && len(s) > f.upperBound {
			return fmt.Errorf("%w: string of length %d exceeds bound %d",
				ErrBoundExceeded, len(s), f.upperBound)
		}
		w.String(s)
	default:
		return wr.writeComplex(w, f.complex, value)
	}
	return nil
}
