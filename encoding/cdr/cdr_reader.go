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

type Reader struct {
	buf    []byte
	offset int
	origin int
	kind   EncapsulationKind
	order  binary.ByteOrder
	err    error
}

// NewReader validates the encapsulation header of buf and returns a
// reader positioned at the start of the body.
func NewReader(buf []byte) (*Reader, error) {
	if len(buf) < HeaderSize {
		return nil, errShortEncapsulation(len(buf))
	}
	kind := EncapsulationKind(buf[1])
	if !kind.IsValid() {
		return nil, errUnsupportedKind(kind)
	}
	return &Reader{
		buf:    buf,
		offset: HeaderSize,
		origin: HeaderSize,
		kind:   kind,
		order:  kind.byteOrder(),
	}, nil
}

func (r *Reader) Kind() EncapsulationKind {
	return r.kind
}

func (r *Reader) IsCDR2() bool {
	return r.kind.IsCDR2()
}

// Offset is the read position, counted from the start of the buffer.
func (r *Reader) Offset() int {
	return r.offset
}

func (r *Reader) Len() int {
	return len(r.buf)
}

func (r *Reader) Remaining() int {
	return len(r.buf) - r.offset
}

func (r *Reader) Error() error {
	return r.err
}

func (r *Reader) SetError(err error) {
	if r.err != nil {
		return
	}
	r.err = err
}

// Seek moves the read position to an absolute offset.
func (r *Reader) Seek(offset int) {
	if r.err != nil {
		return
	}
	if offset < 0 || offset > len(r.buf) {
		r.err = errSeekOutOfRange(offset, len(r.buf))
		return
	}
	r.offset = offset
}

// Align skips padding so that the next read of a value of the given size
// is aligned.
func (r *Reader) Align(size int) {
	if r.err != nil {
		return
	}
	if pad := padding(r.kind, r.offset-r.origin, size); pad > 0 {
		r.next(pad)
	}
}

func padding(kind EncapsulationKind, position, size int) int {
	if kind.IsCDR2() && size > 4 {
		size = 4
	}
	if size <= 1 {
		return 0
	}
	return (size - position%size) % size
}

func (r *Reader) next(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n > len(r.buf)-r.offset {
		r.err = errUnexpectedEOF(r.offset, n, len(r.buf)-r.offset)
		return nil
	}
	data := r.buf[r.offset : r.offset+n]
	r.offset += n
	return data
}

func (r *Reader) aligned(size int) []byte {
	r.Align(size)
	return r.next(size)
}

func (r *Reader) Bool() bool {
	return r.Uint8() != 0
}

func (r *Reader) Int8() int8 {
	return int8(r.Uint8())
}

func (r *Reader) Uint8() uint8 {
	data := r.next(1)
	if data == nil {
		return 0
	}
	return data[0]
}

func (r *Reader) Int16() int16 {
	return int16(r.Uint16())
}

func (r *Reader) Uint16() uint16 {
	data := r.aligned(2)
	if data == nil {
		return 0
	}
	return r.order.Uint16(data)
}

func (r *Reader) Int32() int32 {
	return int32(r.Uint32())
}

func (r *Reader) Uint32() uint32 {
	data := r.aligned(4)
	if data == nil {
		return 0
	}
	return r.order.Uint32(data)
}

func (r *Reader) Int64() int64 {
	return int64(r.Uint64())
}

func (r *Reader) Uint64() uint64 {
	data := r.aligned(8)
	if data == nil {
		return 0
	}
	return r.order.Uint64(data)
}

func (r *Reader) Float32() float32 {
	return math.Float32frombits(r.Uint32())
}

func (r *Reader) Float64() float64 {
	return math.Float64frombits(r.Uint64())
}

// String reads a length-prefixed string. The length includes the
// terminating NUL, which is not part of the result.
func (r *Reader) String() string {
	return r.StringWithLength(r.Uint32())
}

// StringWithLength reads the body of a string whose length prefix has
// already been consumed.
func (r *Reader) StringWithLength(length uint32) string {
	if length == 0 {
		return ""
	}
	data := r.next(int(length))
	if len(data) == 0 {
		return ""
	}
	if data[len(data)-1] == 0 {
		data = data[:len(data)-1]
	}
	return string(data)
}

// SequenceLength reads the element count of a sequence.
func (r *Reader) SequenceLength() uint32 {
	return r.Uint32()
}

// DHeader reads the delimiter header of an appendable or mutable type,
// which holds the size in bytes of the data that follows.
func (r *Reader) DHeader() uint32 {
	return r.Uint32()
}

// MemberHeader reads the member header of a mutable type member in the
// format of the reader's encapsulation kind.
func (r *Reader) MemberHeader() MemberHeader {
	if r.kind.IsCDR2() {
		return r.memberHeaderV2()
	}
	return r.memberHeaderV1()
}

func (r *Reader) memberHeaderV1() MemberHeader {
	r.Align(4)
	start := r.offset
	idHeader := r.Uint16()
	size := uint32(r.Uint16())
	if r.err != nil {
		return MemberHeader{}
	}
	header := MemberHeader{
		ID:             uint32(idHeader & pidMask),
		MustUnderstand: idHeader&pidMustUnderstand != 0,
		Size:           size,
	}
	switch header.ID {
	case pidListEnd:
		return MemberHeader{Sentinel: true}
	case pidExtended:
		if size != 8 {
			r.SetError(errInvalidMemberHeader(start, "extended member header with length other than 8"))
			return MemberHeader{}
		}
		id := r.Uint32()
		header.ID = id & emIDMask
		header.MustUnderstand = header.MustUnderstand || id&emMustUnderstand != 0
		header.Size = r.Uint32()
	}
	r.origin = r.offset
	return header
}

func (r *Reader) memberHeaderV2() MemberHeader {
	raw := r.Uint32()
	header := MemberHeader{
		ID:             raw & emIDMask,
		MustUnderstand: raw&emMustUnderstand != 0,
		LengthCode:     uint8((raw >> 28) & 0x7),
	}
	switch header.LengthCode {
	case 0, 1, 2, 3:
		header.Size = 1 << header.LengthCode
	case 4:
		header.Size = r.Uint32()
	case 5, 6, 7:
		next := r.Uint32()
		header.NextInt = next
		header.HasNextInt = true
		switch header.LengthCode {
		case 5:
			header.Size = next
		case 6:
			header.Size = 4 * next
		case 7:
			header.Size = 8 * next
		}
	}
	return header
}

// PeekSentinelHeader reports whether the next aligned two bytes hold the
// XCDR1 list terminator. The read position is not changed.
func (r *Reader) PeekSentinelHeader() bool {
	if r.err != nil || r.kind.IsCDR2() {
		return false
	}
	offset := r.offset + padding(r.kind, r.offset-r.origin, 4)
	if offset+4 > len(r.buf) {
		return false
	}
	return r.order.Uint16(r.buf[offset:])&pidMask == pidListEnd
}
