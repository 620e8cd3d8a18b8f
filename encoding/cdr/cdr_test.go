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

package cdr_test

import (
	"testing"

	"go.omgidl.dev/omgidl/encoding/cdr"
	"go.omgidl.dev/omgidl/internal/testutil"
)

func TestEncapsulationKinds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind      cdr.EncapsulationKind
		little    bool
		cdr2      bool
		dHeader   bool
		emHeader  bool
		kindValue uint8
	}{
		{cdr.KindCDR_BE, false, false, false, false, 0x00},
		{cdr.KindCDR_LE, true, false, false, false, 0x01},
		{cdr.KindPL_CDR_LE, true, false, false, true, 0x03},
		{cdr.KindCDR2_BE, false, true, false, false, 0x10},
		{cdr.KindCDR2_LE, true, true, false, false, 0x11},
		{cdr.KindPL_CDR2_LE, true, true, true, true, 0x13},
		{cdr.KindDELIMITED_CDR2_LE, true, true, true, false, 0x15},
		{cdr.KindRTPS_CDR2_LE, true, true, false, false, 0x07},
		{cdr.KindRTPS_DELIMITED_CDR2_BE, false, true, true, false, 0x08},
		{cdr.KindRTPS_PL_CDR2_LE, true, true, true, true, 0x0b},
	}
	for _, test := range tests {
		t.Run(test.kind.String(), func(t *testing.T) {
			testutil.ExpectEq(t, test.kindValue, uint8(test.kind))
			testutil.ExpectEq(t, test.little, test.kind.IsLittleEndian())
			testutil.ExpectEq(t, test.cdr2, test.kind.IsCDR2())
			testutil.ExpectEq(t, test.dHeader, test.kind.UsesDelimiterHeader())
			testutil.ExpectEq(t, test.emHeader, test.kind.UsesMemberHeader())
		})
	}
}

func TestParseEncapsulationKind(t *testing.T) {
	t.Parallel()

	kind, err := cdr.ParseEncapsulationKind("cdr2_le")
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, cdr.KindCDR2_LE, kind)

	kind, err = cdr.ParseEncapsulationKind("0x03")
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, cdr.KindPL_CDR_LE, kind)

	_, err = cdr.ParseEncapsulationKind("CDR3")
	testutil.ExpectErrorIs(t, err, cdr.ErrInvalidHeader)
}

func TestReaderInt8(t *testing.T) {
	t.Parallel()

	r, err := cdr.NewReader([]byte{0, 1, 0, 0, 0x80})
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, cdr.KindCDR_LE, r.Kind())
	testutil.ExpectEq(t, int8(-128), r.Int8())
	testutil.ExpectEq(t, 0, r.Remaining())
	testutil.AssertNoError(t, r.Error())
}

func TestReaderErrors(t *testing.T) {
	t.Parallel()

	_, err := cdr.NewReader([]byte{0, 1})
	testutil.ExpectErrorIs(t, err, cdr.ErrInvalidHeader)

	_, err = cdr.NewReader([]byte{0, 0x42, 0, 0})
	testutil.ExpectErrorIs(t, err, cdr.ErrInvalidHeader)

	r, err := cdr.NewReader([]byte{0, 1, 0, 0, 1, 2})
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, uint32(0), r.Uint32())
	testutil.ExpectErrorIs(t, r.Error(), cdr.ErrUnexpectedEOF)

	// Errors are sticky.
	testutil.ExpectEq(t, uint8(0), r.Uint8())
	coded, ok := r.Error().(*cdr.Error)
	testutil.AssertTrue(t, ok)
	testutil.ExpectEq(t, uint32(5000), coded.Code())
	testutil.ExpectEq(t, 4, coded.Offset())
}

func TestAlignment(t *testing.T) {
	t.Parallel()

	w := cdr.NewWriter(cdr.KindCDR_LE)
	w.Uint8(1)
	w.Uint64(2)
	testutil.ExpectBytesEq(t, []byte{
		0x00, 0x01, 0x00, 0x00,
		0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x02, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	}, w.Bytes())

	// XCDR2 aligns eight byte values to four bytes.
	w = cdr.NewWriter(cdr.KindCDR2_LE)
	w.Uint8(1)
	w.Uint64(2)
	testutil.ExpectBytesEq(t, []byte{
		0x00, 0x11, 0x00, 0x00,
		0x01, 0x00, 0x00, 0x00,
		0x02, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	}, w.Bytes())

	w = cdr.NewWriter(cdr.KindCDR_BE)
	w.Uint32(0x01020304)
	testutil.ExpectBytesEq(t, []byte{0x00, 0x00, 0x00, 0x00, 0x01, 0x02, 0x03, 0x04}, w.Bytes())
}

func TestPrimitivesRoundTrip(t *testing.T) {
	t.Parallel()

	kinds := []cdr.EncapsulationKind{cdr.KindCDR_LE, cdr.KindCDR_BE, cdr.KindCDR2_LE, cdr.KindCDR2_BE}
	for _, kind := range kinds {
		t.Run(kind.String(), func(t *testing.T) {
			w := cdr.NewWriter(kind)
			w.Bool(true)
			w.Int16(-2)
			w.Uint8(3)
			w.Int64(-4)
			w.Float32(1.5)
			w.String("hello")
			w.Float64(-2.25)
			w.Uint16(65535)
			w.String("")
			w.Int32(-7)

			sizer := cdr.NewSizer(kind)
			sizer.Bool(true)
			sizer.Int16(-2)
			sizer.Uint8(3)
			sizer.Int64(-4)
			sizer.Float32(1.5)
			sizer.String("hello")
			sizer.Float64(-2.25)
			sizer.Uint16(65535)
			sizer.String("")
			sizer.Int32(-7)
			testutil.ExpectEq(t, len(w.Bytes()), sizer.Len())
			testutil.ExpectEq(t, len(w.Bytes()), w.Len())

			r, err := cdr.NewReader(w.Bytes())
			testutil.AssertNoError(t, err)
			testutil.ExpectEq(t, true, r.Bool())
			testutil.ExpectEq(t, int16(-2), r.Int16())
			testutil.ExpectEq(t, uint8(3), r.Uint8())
			testutil.ExpectEq(t, int64(-4), r.Int64())
			testutil.ExpectEq(t, float32(1.5), r.Float32())
			testutil.ExpectEq(t, "hello", r.String())
			testutil.ExpectEq(t, -2.25, r.Float64())
			testutil.ExpectEq(t, uint16(65535), r.Uint16())
			testutil.ExpectEq(t, "", r.String())
			testutil.ExpectEq(t, int32(-7), r.Int32())
			testutil.AssertNoError(t, r.Error())
			testutil.ExpectEq(t, 0, r.Remaining())
		})
	}
}

func TestDHeader(t *testing.T) {
	t.Parallel()

	kind := cdr.KindDELIMITED_CDR2_LE
	w := cdr.NewWriter(kind)
	mark := w.BeginDHeader()
	w.Uint8(1)
	w.Uint32(2)
	w.EndDHeader(mark)
	testutil.ExpectBytesEq(t, []byte{
		0x00, 0x15, 0x00, 0x00,
		0x08, 0x00, 0x00, 0x00,
		0x01, 0x00, 0x00, 0x00,
		0x02, 0x00, 0x00, 0x00,
	}, w.Bytes())

	sizer := cdr.NewSizer(kind)
	sizerMark := sizer.BeginDHeader()
	sizer.Uint8(1)
	sizer.Uint32(2)
	sizer.EndDHeader(sizerMark)
	testutil.ExpectEq(t, 16, sizer.Len())

	r, err := cdr.NewReader(w.Bytes())
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, uint32(8), r.DHeader())
}

func TestMemberHeaderXCDR1(t *testing.T) {
	t.Parallel()

	w := cdr.NewWriter(cdr.KindPL_CDR_LE)
	w.MemberHeader(5, true, 4, 0)
	w.Int32(7)
	w.MemberHeader(0x4000, false, 2, 0)
	w.Uint16(9)
	w.SentinelHeader()
	testutil.ExpectBytesEq(t, []byte{
		0x00, 0x03, 0x00, 0x00,
		0x05, 0x40, 0x04, 0x00,
		0x07, 0x00, 0x00, 0x00,
		0x01, 0x3f, 0x08, 0x00,
		0x00, 0x40, 0x00, 0x00,
		0x02, 0x00, 0x00, 0x00,
		0x09, 0x00, 0x00, 0x00,
		0x02, 0x3f, 0x00, 0x00,
	}, w.Bytes())

	r, err := cdr.NewReader(w.Bytes())
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, cdr.MemberHeader{ID: 5, MustUnderstand: true, Size: 4}, r.MemberHeader())
	testutil.ExpectEq(t, int32(7), r.Int32())
	testutil.ExpectFalse(t, r.PeekSentinelHeader())
	testutil.ExpectEq(t, cdr.MemberHeader{ID: 0x4000, Size: 2}, r.MemberHeader())
	testutil.ExpectEq(t, uint16(9), r.Uint16())
	testutil.ExpectTrue(t, r.PeekSentinelHeader())
	testutil.ExpectEq(t, 30, r.Offset())
	testutil.ExpectTrue(t, r.MemberHeader().Sentinel)
	testutil.ExpectEq(t, 0, r.Remaining())
	testutil.AssertNoError(t, r.Error())
}

func TestMemberHeaderXCDR2(t *testing.T) {
	t.Parallel()

	w := cdr.NewWriter(cdr.KindPL_CDR2_LE)
	w.MemberHeader(1, false, 4, cdr.LengthCode(4))
	w.Int32(-1)
	w.MemberHeader(2, true, 10, cdr.LengthCode(10))
	w.String("hello")
	testutil.ExpectBytesEq(t, []byte{
		0x00, 0x13, 0x00, 0x00,
		0x01, 0x00, 0x00, 0x20,
		0xff, 0xff, 0xff, 0xff,
		0x02, 0x00, 0x00, 0xc0,
		0x0a, 0x00, 0x00, 0x00,
		0x06, 0x00, 0x00, 0x00,
		'h', 'e', 'l', 'l', 'o', 0x00,
	}, w.Bytes())

	r, err := cdr.NewReader(w.Bytes())
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, cdr.MemberHeader{ID: 1, Size: 4, LengthCode: 2}, r.MemberHeader())
	testutil.ExpectEq(t, int32(-1), r.Int32())
	testutil.ExpectEq(t, cdr.MemberHeader{ID: 2, MustUnderstand: true, Size: 10, LengthCode: 4}, r.MemberHeader())
	testutil.ExpectEq(t, "hello", r.String())
	testutil.AssertNoError(t, r.Error())
}

func TestMemberHeaderNextInt(t *testing.T) {
	t.Parallel()

	r, err := cdr.NewReader([]byte{
		0x00, 0x13, 0x00, 0x00,
		0x03, 0x00, 0x00, 0x50,
		0x06, 0x00, 0x00, 0x00,
		'h', 'e', 'l', 'l', 'o', 0x00, 0x00, 0x00,
		0x04, 0x00, 0x00, 0x60,
		0x02, 0x00, 0x00, 0x00,
		0x0a, 0x00, 0x00, 0x00,
		0x0b, 0x00, 0x00, 0x00,
	})
	testutil.AssertNoError(t, err)

	header := r.MemberHeader()
	testutil.ExpectEq(t, cdr.MemberHeader{
		ID:         3,
		Size:       6,
		LengthCode: 5,
		NextInt:    6,
		HasNextInt: true,
	}, header)
	testutil.ExpectEq(t, "hello", r.StringWithLength(header.NextInt))

	header = r.MemberHeader()
	testutil.ExpectEq(t, uint32(4), header.ID)
	testutil.ExpectEq(t, uint32(8), header.Size)
	testutil.ExpectEq(t, uint32(2), header.NextInt)
	testutil.ExpectEq(t, uint32(10), r.Uint32())
	testutil.ExpectEq(t, uint32(11), r.Uint32())
	testutil.AssertNoError(t, r.Error())
}

func TestLengthCode(t *testing.T) {
	t.Parallel()

	for size, want := range map[int]uint8{1: 0, 2: 1, 4: 2, 8: 3, 3: 4, 16: 4, 0: 4} {
		testutil.ExpectEq(t, want, cdr.LengthCode(size))
	}
}
