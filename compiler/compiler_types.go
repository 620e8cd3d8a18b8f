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

package compiler

import (
	"slices"
	"strings"

	"go.omgidl.dev/omgidl"
	"go.omgidl.dev/omgidl/syntax"
)

var normalizedTypes = map[string]string{
	"short":              omgidl.TypeInt16,
	"unsigned short":     omgidl.TypeUint16,
	"long":               omgidl.TypeInt32,
	"unsigned long":      omgidl.TypeUint32,
	"long long":          omgidl.TypeInt64,
	"unsigned long long": omgidl.TypeUint64,
	"float":              omgidl.TypeFloat32,
	"double":             omgidl.TypeFloat64,
	"char":               omgidl.TypeUint8,
	"wchar":              omgidl.TypeUint8,
	"boolean":            omgidl.TypeBool,
	"octet":              omgidl.TypeUint8,
	"byte":               omgidl.TypeInt8,
	"int8":               omgidl.TypeInt8,
	"uint8":              omgidl.TypeUint8,
	"int16":              omgidl.TypeInt16,
	"uint16":             omgidl.TypeUint16,
	"int32":              omgidl.TypeInt32,
	"uint32":             omgidl.TypeUint32,
	"int64":              omgidl.TypeInt64,
	"uint64":             omgidl.TypeUint64,
	"float32":            omgidl.TypeFloat32,
	"float64":            omgidl.TypeFloat64,
	"bool":               omgidl.TypeBool,
	"string":             omgidl.TypeString,
	"wstring":            omgidl.TypeWString,
}

// NormalizeType maps an IDL primitive type keyword to its normalized
// name. It reports false for names that must be looked up in scope.
func NormalizeType(name string) (string, bool) {
	normalized, ok := normalizedTypes[name]
	return normalized, ok
}

var switchTypes = map[string]struct{}{
	omgidl.TypeBool:   {},
	omgidl.TypeInt8:   {},
	omgidl.TypeUint8:  {},
	omgidl.TypeInt16:  {},
	omgidl.TypeUint16: {},
	omgidl.TypeInt32:  {},
	omgidl.TypeUint32: {},
	omgidl.TypeInt64:  {},
	omgidl.TypeUint64: {},
}

// fieldDecl is the type shape of a member, typedef or constant while it
// is being resolved.
type fieldDecl struct {
	ast syntax.FieldType

	// Type reference still to be looked up; empty once resolved or when
	// the type is primitive.
	ref string

	typeName        string
	enumName        string
	isComplex       bool
	isArray         bool
	isSequence      bool
	arrayLengths    []int
	arrayUpperBound int
	upperBound      int

	rawValue     syntax.Value
	value        any
	valueText    string
	hasValue     bool
	defaultValue any
}

func newFieldDecl(t syntax.FieldType) *fieldDecl {
	f := &fieldDecl{
		ast:        t,
		isSequence: t.IsSequence,
		isArray:    t.IsSequence || len(t.ArrayLengths) > 0,
	}
	if normalized, ok := NormalizeType(t.Name); ok {
		f.typeName = normalized
	} else {
		f.ref = t.Name
		f.typeName = t.Name
	}
	return f
}

// resolveShape folds the array lengths and bounds of a field.
func (c *compiler) resolveShape(d *decl) error {
	f := d.field
	if f.ast.IsSequence && len(f.ast.ArrayLengths) > 0 {
		return errVariableArrayComposition(d.name, "", d.span)
	}
	ectx := evalCtx{owner: d.name, scope: d.scope}
	for _, dim := range f.ast.ArrayLengths {
		n, err := c.positiveInt(dim, ectx, "Array length")
		if err != nil {
			return err
		}
		f.arrayLengths = append(f.arrayLengths, n)
	}
	if f.ast.SequenceBound != nil {
		n, err := c.positiveInt(f.ast.SequenceBound, ectx, "Sequence bound")
		if err != nil {
			return err
		}
		f.arrayUpperBound = n
	}
	if f.ast.StringBound != nil {
		n, err := c.positiveInt(f.ast.StringBound, ectx, "String bound")
		if err != nil {
			return err
		}
		f.upperBound = n
	}
	return nil
}

// inheritTypedef gives a member the resolved shape of the typedef it
// names. Fixed dimensions of the member come before those of the
// typedef; any sequence on either side rules out composition.
func inheritTypedef(d, typedef *decl) error {
	f, t := d.field, typedef.field
	if t.isArray && f.isArray {
		if t.isSequence || f.isSequence {
			return errVariableArrayComposition(d.name, typedef.name, d.span)
		}
	}

	f.ref = ""
	f.typeName = t.typeName
	f.enumName = t.enumName
	f.isComplex = t.isComplex
	f.upperBound = t.upperBound
	if t.isArray {
		f.isArray = true
		f.isSequence = t.isSequence
		f.arrayUpperBound = t.arrayUpperBound
		f.arrayLengths = append(slices.Clone(f.arrayLengths), t.arrayLengths...)
	}
	d.annotations = typedef.annotations.Overlay(d.annotations)
	return nil
}

func (f *fieldDecl) toField(name string, annotations omgidl.Annotations) omgidl.Field {
	out := omgidl.Field{
		Name:            name,
		Type:            f.typeName,
		IsComplex:       f.isComplex,
		IsArray:         f.isArray,
		ArrayUpperBound: f.arrayUpperBound,
		UpperBound:      f.upperBound,
		DefaultValue:    f.defaultValue,
		Annotations:     annotations,
	}
	if len(f.arrayLengths) > 0 {
		out.ArrayLengths = slices.Clone(f.arrayLengths)
	}
	if f.hasValue {
		out.IsConstant = true
		out.Value = f.value
		out.ValueText = f.valueText
	}
	return out
}

func childScope(scope []string, name string) []string {
	out := make([]string, len(scope), len(scope)+1)
	copy(out, scope)
	return append(out, name)
}

// lookup finds a declaration by name as seen from scope. Each enclosing
// scope is tried from innermost to outermost; a leading "::" restricts
// the search to the global scope. Struct members are never returned.
func (c *compiler) lookup(name string, scope []string) (*decl, bool) {
	if strings.HasPrefix(name, omgidl.ScopeSeparator) {
		d, ok := c.decls[name[len(omgidl.ScopeSeparator):]]
		if !ok || d.declType == declType_MEMBER {
			return nil, false
		}
		return d, true
	}
	for ii := len(scope); ii >= 0; ii-- {
		candidate := omgidl.JoinScope(omgidl.JoinScope(scope[:ii]...), name)
		if d, ok := c.decls[candidate]; ok && d.declType != declType_MEMBER {
			return d, true
		}
	}
	return nil, false
}
