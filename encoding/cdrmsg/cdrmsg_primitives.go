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
	"encoding/json"
	"math"
	"reflect"
	"strconv"

	"go.omgidl.dev/omgidl"
	"go.omgidl.dev/omgidl/encoding/cdr"
)

type primitiveInfo struct {
	name string
	size int
	zero any

	read      func(r *cdr.Reader) any
	readArray func(r *cdr.Reader, n int) any
	newArray  func(n int) any

	// convert returns v as the Go type of the primitive.
	convert func(v any) (any, bool)

	// write expects a value returned by convert.
	write func(w *cdr.Writer, v any)
}

func newPrimitive[T any](
	name string,
	size int,
	read func(*cdr.Reader) T,
	write func(*cdr.Writer, T),
	convert func(any) (T, bool),
) *primitiveInfo {
	var zero T
	return &primitiveInfo{
		name: name,
		size: size,
		zero: zero,
		read: func(r *cdr.Reader) any {
			return read(r)
		},
		readArray: func(r *cdr.Reader, n int) any {
			out := make([]T, n)
			for ii := range out {
				out[ii] = read(r)
			}
			return out
		},
		newArray: func(n int) any {
			return make([]T, n)
		},
		convert: func(v any) (any, bool) {
			return convert(v)
		},
		write: func(w *cdr.Writer, v any) {
			write(w, v.(T))
		},
	}
}

var primitives = map[string]*primitiveInfo{}

func init() {
	for _, p := range []*primitiveInfo{
		newPrimitive(omgidl.TypeBool, 1, (*cdr.Reader).Bool, (*cdr.Writer).Bool, convertBool),
		newPrimitive(omgidl.TypeInt8, 1, (*cdr.Reader).Int8, (*cdr.Writer).Int8, convertSigned[int8]),
		newPrimitive(omgidl.TypeUint8, 1, (*cdr.Reader).Uint8, (*cdr.Writer).Uint8, convertUnsigned[uint8]),
		newPrimitive(omgidl.TypeInt16, 2, (*cdr.Reader).Int16, (*cdr.Writer).Int16, convertSigned[int16]),
		newPrimitive(omgidl.TypeUint16, 2, (*cdr.Reader).Uint16, (*cdr.Writer).Uint16, convertUnsigned[uint16]),
		newPrimitive(omgidl.TypeInt32, 4, (*cdr.Reader).Int32, (*cdr.Writer).Int32, convertSigned[int32]),
		newPrimitive(omgidl.TypeUint32, 4, (*cdr.Reader).Uint32, (*cdr.Writer).Uint32, convertUnsigned[uint32]),
		newPrimitive(omgidl.TypeInt64, 8, (*cdr.Reader).Int64, (*cdr.Writer).Int64, convertSigned[int64]),
		newPrimitive(omgidl.TypeUint64, 8, (*cdr.Reader).Uint64, (*cdr.Writer).Uint64, convertUnsigned[uint64]),
		newPrimitive(omgidl.TypeFloat32, 4, (*cdr.Reader).Float32, (*cdr.Writer).Float32, convertFloat[float32]),
		newPrimitive(omgidl.TypeFloat64, 8, (*cdr.Reader).Float64, (*cdr.Writer).Float64, convertFloat[float64]),
	} {
		primitives[p.name] = p
	}

	// Unnormalized IDL spellings, for hand-written definitions.
	primitives["boolean"] = primitives[omgidl.TypeBool]
	primitives["octet"] = primitives[omgidl.TypeUint8]
	primitives["char"] = primitives[omgidl.TypeUint8]
	primitives["byte"] = primitives[omgidl.TypeInt8]
	primitives["float"] = primitives[omgidl.TypeFloat32]
	primitives["double"] = primitives[omgidl.TypeFloat64]
}

func convertBool(v any) (bool, bool) {
	switch v := v.(type) {
	case bool:
		return v, true
	case string:
		b, err := strconv.ParseBool(v)
		return b, err == nil
	}
	n, ok := asInt64(v)
	if !ok || (n != 0 && n != 1) {
		return false, false
	}
	return n == 1, true
}

func convertSigned[T int8 | int16 | int32 | int64](v any) (T, bool) {
	n, ok := asInt64(v)
	if !ok || int64(T(n)) != n {
		return 0, false
	}
	return T(n), true
}

func convertUnsigned[T uint8 | uint16 | uint32 | uint64](v any) (T, bool) {
	n, ok := asUint64(v)
	if !ok || uint64(T(n)) != n {
		return 0, false
	}
	return T(n), true
}

func convertFloat[T float32 | float64](v any) (T, bool) {
	f, ok := asFloat64(v)
	return T(f), ok
}

func asInt64(v any) (int64, bool) {
	switch v := v.(type) {
	case float64:
		if v != math.Trunc(v) || v < math.MinInt64 || v >= math.MaxInt64 {
			return 0, false
		}
		return int64(v), true
	case float32:
		return asInt64(float64(v))
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	case bool:
		return 0, false
	}
	return omgidl.ToInt64(v)
}

func asUint64(v any) (uint64, bool) {
	switch v := v.(type) {
	case float64:
		if v != math.Trunc(v) || v < 0 || v >= math.MaxUint64 {
			return 0, false
		}
		return uint64(v), true
	case float32:
		return asUint64(float64(v))
	case json.Number:
		n, err := strconv.ParseUint(v.String(), 10, 64)
		return n, err == nil
	}
	return omgidl.ToUint64(v)
}

func asFloat64(v any) (float64, bool) {
	switch v := v.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	}
	if n, ok := omgidl.ToInt64(v); ok {
		return float64(n), true
	}
	if n, ok := omgidl.ToUint64(v); ok {
		return float64(n), true
	}
	return 0, false
}

// toSlice accepts []any or any other slice or array type.
func toSlice(v any) ([]any, bool) {
	switch v := v.(type) {
	case nil:
		return nil, true
	case []any:
		return v, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for ii := range out {
		out[ii] = rv.Index(ii).Interface()
	}
	return out, true
}

func toMap(v any) (map[string]any, bool) {
	switch v := v.(type) {
	case nil:
		return nil, true
	case map[string]any:
		return v, true
	}
	return nil, false
}
