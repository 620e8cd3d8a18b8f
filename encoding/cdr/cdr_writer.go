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
	"encoding/binary"
	"math"
)

// A Writer serializes CDR data. A Writer created by [NewSizer] or
// [Writer.MemberSizer] only counts bytes, so that the size of a value can
// be measured by the same code that writes it.
type Writer struct {
	buf      []byte
	offset   int
	origin   int
	kind     EncapsulationKind
	order    binary.ByteOrder
	counting bool
	scratch  [8]byte
}

// NewWriter returns a writer that has already written the encapsulation
// header for kind.
func NewWriter(kind EncapsulationKind) *Writer {
	w := &Writer{
		buf:   make([]byte, 0, 64),
		kind:  kind,
		order: kind.byteOrder(),
	}
	w.Data([]byte{0x00, byte(kind), 0x00, 0x00})
	w.origin = HeaderSize
	return w
}

// NewSizer returns a counting writer whose Len after writing a value
// equals the length of the same value written by [NewWriter].
func NewSizer(kind EncapsulationKind) *Writer {
	return &Writer{
		offset:   HeaderSize,
		origin:   HeaderSize,
		kind:     kind,
		order:    kind.byteOrder(),
		counting: true,
	}
}

// MemberSizer returns a counting writer for measuring the data of a
// single member, positioned as if immediately after its member header.
func (w *Writer) MemberSizer() *Writer {
	return &Writer{
		kind:     w.kind,
		order:    w.order,
		counting: true,
	}
}

func (w *Writer) Kind() EncapsulationKind {
	return w.kind
}

func (w *Writer) IsCDR2() bool {
	return w.kind.IsCDR2()
}

// Len is the number of bytes written, including the encapsulation
// header.
func (w *Writer) Len() int {
	return w.offset
}

// Bytes returns the written data. It is nil for counting writers.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Data writes raw bytes without alignment.
func (w *Writer) Data(data []byte) {
	if !w.counting {
		w.buf = append(w.buf, data...)
	}
	w.offset += len(data)
}

func (w *Writer) Align(size int) {
	pad := padding(w.kind, w.offset-w.origin, size)
	if pad == 0 {
		return
	}
	if !w.counting {
		w.buf = append(w.buf, make([]byte, pad)...)
	}
	w.offset += pad
}

func (w *Writer) Bool(v bool) {
	if v {
		w.Uint8(1)
	} else {
		w.Uint8(0)
	}
}

func (w *Writer) Int8(v int8) {
	w.Uint8(uint8(v))
}

func (w *Writer) Uint8(v uint8) {
	w.scratch[0] = v
	w.Data(w.scratch[:1])
}

func (w *Writer) Int16(v int16) {
	w.Uint16(uint16(v))
}

func (w *Writer) Uint16(v uint16) {
	w.Align(2)
	w.order.PutUint16(w.scratch[:2], v)
	w.Data(w.scratch[:2])
}

func (w *Writer) Int32(v int32) {
	w.Uint32(uint32(v))
}

func (w *Writer) Uint32(v uint32) {
	w.Align(4)
	w.order.PutUint32(w.scratch[:4], v)
	w.Data(w.scratch[:4])
}

func (w *Writer) Int64(v int64) {
	w.Uint64(uint64(v))
}

func (w *Writer) Uint64(v uint64) {
	w.Align(8)
	w.order.PutUint64(w.scratch[:8], v)
	w.Data(w.scratch[:8])
}

func (w *Writer) Float32(v float32) {
	w.Uint32(math.Float32bits(v))
}

func (w *Writer) Float64(v float64) {
	w.Uint64(math.Float64bits(v))
}

// String writes a length-prefixed, NUL-terminated string.
func (w *Writer) String(v string) {
	w.Uint32(uint32(len(v) + 1))
	if w.counting {
		w.offset += len(v)
	} else {
		w.buf = append(w.buf, v...)
		w.offset += len(v)
	}
	w.Uint8(0)
}

func (w *Writer) SequenceLength(n int) {
	w.Uint32(uint32(n))
}

// BeginDHeader writes a placeholder delimiter header. The returned mark
// is passed to [Writer.EndDHeader] once the delimited data is written.
func (w *Writer) BeginDHeader() int {
	w.Uint32(0)
	return w.offset
}

func (w *Writer) EndDHeader(mark int) {
	if w.counting {
		return
	}
	w.order.PutUint32(w.buf[mark-4:mark], uint32(w.offset-mark))
}

// MemberHeader writes the header of a mutable type member whose data is
// size bytes long. The length code is used only by XCDR2; see
// [LengthCode].
func (w *Writer) MemberHeader(id uint32, mustUnderstand bool, size int, lengthCode uint8) {
	if w.kind.IsCDR2() {
		raw := id&emIDMask | uint32(lengthCode&0x7)<<28
		if mustUnderstand {
			raw |= emMustUnderstand
		}
		w.Uint32(raw)
		if lengthCode == 4 {
			w.Uint32(uint32(size))
		}
		return
	}

	w.Align(4)
	var flags uint16
	if mustUnderstand {
		flags = pidMustUnderstand
	}
	if id > pidMaxShort || size > math.MaxUint16 {
		w.Uint16(pidExtended | flags)
		w.Uint16(8)
		w.Uint32(id & emIDMask)
		w.Uint32(uint32(size))
	} else {
		w.Uint16(uint16(id) | flags)
		w.Uint16(uint16(size))
	}
	w.origin = w.offset
}

// SentinelHeader terminates the member list of an XCDR1 mutable type.
func (w *Writer) SentinelHeader() {
	w.Align(4)
	w.Uint16(pidListEnd)
	w.Uint16(0)
}
