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

// Package omgidl holds the resolved form of an OMG IDL schema.
//
// Definitions are produced by [go.omgidl.dev/omgidl/compiler] and consumed
// by the CDR message codec in [go.omgidl.dev/omgidl/encoding/cdrmsg].
package omgidl

import (
	"fmt"
	"strings"
)

// ScopeSeparator joins the components of a fully scoped name.
const ScopeSeparator = "::"

type Kind uint8

const (
	KindStruct Kind = iota + 1
	KindModule
	KindEnum
	KindUnion
)

func (k Kind) String() string {
	switch k {
	case KindStruct:
		return "struct"
	case KindModule:
		return "module"
	case KindEnum:
		return "enum"
	case KindUnion:
		return "union"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// A Definition is one named, flattened entry of a resolved schema.
//
// Structs carry their members in Fields. Modules and enums carry their
// constants in Fields. Unions carry SwitchType, Cases and DefaultCase.
type Definition struct {
	Name        string
	Kind        Kind
	Fields      []Field
	SwitchType  string
	Cases       []UnionCase
	DefaultCase *Field
	Annotations Annotations
}

// Field returns the field with the given name.
func (d *Definition) Field(name string) (*Field, bool) {
	for ii := range d.Fields {
		if d.Fields[ii].Name == name {
			return &d.Fields[ii], true
		}
	}
	return nil, false
}

// Extensibility reports the wire extensibility of a struct or union.
func (d *Definition) Extensibility() Extensibility {
	return d.Annotations.Extensibility()
}

// LocalName returns the last component of the definition's scoped name.
func (d *Definition) LocalName() string {
	return LocalName(d.Name)
}

// A Field is a struct member, a union case value, or a constant.
//
// A fixed-size array has IsArray set and a non-empty ArrayLengths, listed
// outermost dimension first. A sequence has IsArray set and no
// ArrayLengths; its bound, if any, is ArrayUpperBound. A zero bound means
// the sequence or string is unbounded.
type Field struct {
	Name            string
	Type            string
	IsComplex       bool
	IsArray         bool
	ArrayLengths    []int
	ArrayUpperBound int
	UpperBound      int
	IsConstant      bool
	Value           any
	ValueText       string
	DefaultValue    any
	Annotations     Annotations
}

func (f *Field) IsSequence() bool {
	return f.IsArray && len(f.ArrayLengths) == 0
}

func (f *Field) IsOptional() bool {
	return f.Annotations.Has(AnnotationOptional)
}

func (f *Field) IsKey() bool {
	return f.Annotations.Has(AnnotationKey)
}

// ID returns the explicit member id given by an @id annotation.
func (f *Field) ID() (uint32, bool) {
	a, ok := f.Annotations.Get(AnnotationID)
	if !ok {
		return 0, false
	}
	id, ok := a.Uint64()
	if !ok || id > 0x0FFFFFFF {
		return 0, false
	}
	return uint32(id), true
}

// A UnionCase maps one or more discriminator values onto a field.
type UnionCase struct {
	Predicates []any
	Field      Field
}

// LocalName returns the last component of a scoped name.
func LocalName(scoped string) string {
	if idx := strings.LastIndex(scoped, ScopeSeparator); idx >= 0 {
		return scoped[idx+len(ScopeSeparator):]
	}
	return scoped
}

// JoinScope joins scope components into a scoped name.
func JoinScope(parts ...string) string {
	var nonEmpty []string
	for _, part := range parts {
		if part != "" {
			nonEmpty = append(nonEmpty, part)
		}
	}
	return strings.Join(nonEmpty, ScopeSeparator)
}

// Find returns the first definition with the given name.
func Find(defs []Definition, name string) (*Definition, bool) {
	for ii := range defs {
		if defs[ii].Name == name {
			return &defs[ii], true
		}
	}
	return nil, false
}
