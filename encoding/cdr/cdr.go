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

// Package cdr implements the OMG Common Data Representation (CDR) wire
// primitives in both the XCDR1 and XCDR2 variants.
//
// A serialized CDR payload starts with a four byte encapsulation header
// naming the [EncapsulationKind], followed by the body. Primitive values
// in the body are aligned to their size, relative to the end of the
// encapsulation header. XCDR2 caps alignment at four bytes.
//
// The [Reader] and [Writer] types carry sticky errors: after the first
// failure every read returns a zero value and [Reader.Error] reports the
// cause.
package cdr

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// Size of the encapsulation header that precedes every CDR body.
const HeaderSize = 4

type EncapsulationKind uint8

const (
	KindCDR_BE                 EncapsulationKind = 0x00
	KindCDR_LE                 EncapsulationKind = 0x01
	KindPL_CDR_BE              EncapsulationKind = 0x02
	KindPL_CDR_LE              EncapsulationKind = 0x03
	KindRTPS_CDR2_BE           EncapsulationKind = 0x06
	KindRTPS_CDR2_LE           EncapsulationKind = 0x07
	KindRTPS_DELIMITED_CDR2_BE EncapsulationKind = 0x08
	KindRTPS_DELIMITED_CDR2_LE EncapsulationKind = 0x09
	KindRTPS_PL_CDR2_BE        EncapsulationKind = 0x0a
	KindRTPS_PL_CDR2_LE        EncapsulationKind = 0x0b
	KindCDR2_BE                EncapsulationKind = 0x10
	KindCDR2_LE                EncapsulationKind = 0x11
	KindPL_CDR2_BE             EncapsulationKind = 0x12
	KindPL_CDR2_LE             EncapsulationKind = 0x13
	KindDELIMITED_CDR2_BE      EncapsulationKind = 0x14
	KindDELIMITED_CDR2_LE      EncapsulationKind = 0x15
)

var kindNames = map[EncapsulationKind]string{
	KindCDR_BE:                 "CDR_BE",
	KindCDR_LE:                 "CDR_LE",
	KindPL_CDR_BE:              "PL_CDR_BE",
	KindPL_CDR_LE:              "PL_CDR_LE",
	KindRTPS_CDR2_BE:           "RTPS_CDR2_BE",
	KindRTPS_CDR2_LE:           "RTPS_CDR2_LE",
	KindRTPS_DELIMITED_CDR2_BE: "RTPS_DELIMITED_CDR2_BE",
	KindRTPS_DELIMITED_CDR2_LE: "RTPS_DELIMITED_CDR2_LE",
	KindRTPS_PL_CDR2_BE:        "RTPS_PL_CDR2_BE",
	KindRTPS_PL_CDR2_LE:        "RTPS_PL_CDR2_LE",
	KindCDR2_BE:                "CDR2_BE",
	KindCDR2_LE:                "CDR2_LE",
	KindPL_CDR2_BE:             "PL_CDR2_BE",
	KindPL_CDR2_LE:             "PL_CDR2_LE",
	KindDELIMITED_CDR2_BE:      "DELIMITED_CDR2_BE",
	KindDELIMITED_CDR2_LE:      "DELIMITED_CDR2_LE",
}

func (k EncapsulationKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("EncapsulationKind(0x%02x)", uint8(k))
}

func (k EncapsulationKind) IsValid() bool {
	_, ok := kindNames[k]
	return ok
}

func (k EncapsulationKind) IsLittleEndian() bool {
	return k&0x01 == 0x01
}

// IsCDR2 reports whether the kind uses the XCDR2 rules: alignment capped
// at four bytes, delimiter headers and the XCDR2 member header format.
func (k EncapsulationKind) IsCDR2() bool {
	switch k {
	case KindCDR_BE, KindCDR_LE, KindPL_CDR_BE, KindPL_CDR_LE:
		return false
	}
	return k.IsValid()
}

// UsesDelimiterHeader reports whether appendable and mutable types are
// prefixed by a DHEADER under this kind.
func (k EncapsulationKind) UsesDelimiterHeader() bool {
	switch k {
	case KindDELIMITED_CDR2_BE, KindDELIMITED_CDR2_LE,
		KindRTPS_DELIMITED_CDR2_BE, KindRTPS_DELIMITED_CDR2_LE,
		KindPL_CDR2_BE, KindPL_CDR2_LE,
		KindRTPS_PL_CDR2_BE, KindRTPS_PL_CDR2_LE:
		return true
	}
	return false
}

// UsesMemberHeader reports whether the kind is a parameter list
// encoding, in which members of mutable types carry member headers.
func (k EncapsulationKind) UsesMemberHeader() bool {
	switch k {
	case KindPL_CDR_BE, KindPL_CDR_LE,
		KindPL_CDR2_BE, KindPL_CDR2_LE,
		KindRTPS_PL_CDR2_BE, KindRTPS_PL_CDR2_LE:
		return true
	}
	return false
}

func (k EncapsulationKind) byteOrder() binary.ByteOrder {
	if k.IsLittleEndian() {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// ParseEncapsulationKind accepts a kind name such as "CDR2_LE" (case
// insensitive) or its numeric value.
func ParseEncapsulationKind(name string) (EncapsulationKind, error) {
	for kind, kindName := range kindNames {
		if strings.EqualFold(name, kindName) {
			return kind, nil
		}
	}
	var value uint8
	if _, err := fmt.Sscanf(name, "0x%x", &value); err == nil {
		if kind := EncapsulationKind(value); kind.IsValid() {
			return kind, nil
		}
	}
	return 0, errUnknownKind(name)
}

// A MemberHeader precedes each member of a mutable type.
type MemberHeader struct {
	ID             uint32
	MustUnderstand bool

	// Size of the member data in bytes.
	Size uint32

	// XCDR2 length code (0 to 7). Zero for XCDR1 headers.
	LengthCode uint8

	// For XCDR2 length codes 5 to 7 the NEXTINT of the header doubles as
	// the first four bytes of the member: its DHEADER or sequence length.
	// NextInt holds that value and HasNextInt is set.
	NextInt    uint32
	HasNextInt bool

	// Set when the header is the XCDR1 list terminator.
	Sentinel bool
}

const (
	pidExtended       = 0x3f01
	pidListEnd        = 0x3f02
	pidMask           = 0x3fff
	pidMustUnderstand = 0x4000
	pidMaxShort       = 0x3f00

	emMustUnderstand = 0x80000000
	emIDMask         = 0x0fffffff
)

// LengthCode picks the XCDR2 length code a writer uses for a member of
// the given size.
func LengthCode(size int) uint8 {
	switch size {
	case 1:
		return 0
	case 2:
		return 1
	case 4:
		return 2
	case 8:
		return 3
	}
	return 4
}
