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

package omgidl

// Names of the normalized primitive types found in resolved fields.
const (
	TypeBool    = "bool"
	TypeInt8    = "int8"
	TypeUint8   = "uint8"
	TypeInt16   = "int16"
	TypeUint16  = "uint16"
	TypeInt32   = "int32"
	TypeUint32  = "uint32"
	TypeInt64   = "int64"
	TypeUint64  = "uint64"
	TypeFloat32 = "float32"
	TypeFloat64 = "float64"
	TypeString  = "string"
	TypeWString = "wstring"
)

var primitiveTypes = map[string]struct{}{
	TypeBool:    {},
	TypeInt8:    {},
	TypeUint8:   {},
	TypeInt16:   {},
	TypeUint16:  {},
	TypeInt32:   {},
	TypeUint32:  {},
	TypeInt64:   {},
	TypeUint64:  {},
	TypeFloat32: {},
	TypeFloat64: {},
	TypeString:  {},
	TypeWString: {},
}

// IsPrimitive reports whether name is a normalized primitive type,
// including the string types.
func IsPrimitive(name string) bool {
	_, ok := primitiveTypes[name]
	return ok
}
