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

	"go.omgidl.dev/omgidl"
	"go.omgidl.dev/omgidl/encoding/cdr"
)

type fieldKind uint8

const (
	kindPrimitive fieldKind = iota
	kindString
	kindComplex
)

type fieldInfo struct {
	name      string
	typeName  string
	kind      fieldKind
	primitive *primitiveInfo
	complex   *complexInfo

	isArray         bool
	arrayLengths    []int
	arrayUpperBound int
	upperBound      int

	isOptional bool
	isKey      bool
	id         uint32
}

func (f *fieldInfo) isFixedArray() bool {
	return f.isArray && len(f.arrayLengths) > 0
}

// lengthCode is the XCDR2 member header length code written for the
// field.
func (f *fieldInfo) lengthCode() uint8 {
	if f.kind == kindPrimitive && !f.isArray {
		return cdr.LengthCode(f.primitive.size)
	}
	return 4
}

type unionCaseInfo struct {
	predicates []any
	field      *fieldInfo
}

// complexInfo is the compiled form of a struct or union definition.
type complexInfo struct {
	def     *omgidl.Definition
	isUnion bool

	extensibility       omgidl.Extensibility
	usesDelimiterHeader bool
	usesMemberHeader    bool

	fields     []*fieldInfo
	fieldsByID map[uint32]*fieldInfo

	switchType  *primitiveInfo
	cases       []unionCaseInfo
	defaultCase *fieldInfo
}

func (info *complexInfo) isAppendable() bool {
	return info.extensibility == omgidl.ExtensibilityAppendable
}

// caseFor returns the field selected by a discriminator of the union's
// switch type, or nil if no case matches and there is no default.
func (info *complexInfo) caseFor(discriminator any) *fieldInfo {
	for _, c := range info.cases {
		for _, predicate := range c.predicates {
			if predicate == discriminator {
				return c.field
			}
		}
	}
	return info.defaultCase
}

// infoCache compiles definitions on first use. It belongs to a single
// Reader or Writer.
type infoCache struct {
	defs    map[string]*omgidl.Definition
	complex map[string]*complexInfo
}

func newInfoCache(defs []omgidl.Definition) *infoCache {
	cache := &infoCache{
		defs:    make(map[string]*omgidl.Definition, len(defs)),
		complex: make(map[string]*complexInfo),
	}
	for ii := range defs {
		def := &defs[ii]
		if def.Kind != omgidl.KindStruct && def.Kind != omgidl.KindUnion {
			continue
		}
		if _, ok := cache.defs[def.Name]; !ok {
			cache.defs[def.Name] = def
		}
	}
	return cache
}

func (c *infoCache) root(name string) (*complexInfo, error) {
	if _, ok := c.defs[name]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrRootTypeNotFound, name)
	}
	return c.complexInfo(name)
}

func (c *infoCache) complexInfo(name string) (*complexInfo, error) {
	if info, ok := c.complex[name]; ok {
		return info, nil
	}
	def, ok := c.defs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, name)
	}

	ext := def.Extensibility()
	info := &complexInfo{
		def:                 def,
		isUnion:             def.Kind == omgidl.KindUnion,
		extensibility:       ext,
		usesDelimiterHeader: ext != omgidl.ExtensibilityFinal,
		usesMemberHeader:    ext == omgidl.ExtensibilityMutable,
	}
	// Registered before the fields are compiled so that recursive types
	// terminate.
	c.complex[name] = info

	var err error
	if info.isUnion {
		err = c.compileUnion(info)
	} else {
		err = c.compileStruct(info)
	}
	if err != nil {
		delete(c.complex, name)
		return nil, err
	}
	return info, nil
}

func (c *infoCache) compileStruct(info *complexInfo) error {
	info.fieldsByID = make(map[uint32]*fieldInfo, len(info.def.Fields))
	var nextID uint32
	for ii := range info.def.Fields {
		f := &info.def.Fields[ii]
		if f.IsConstant {
			continue
		}
		fi, err := c.fieldInfo(f)
		if err != nil {
			return fmt.Errorf("%s.%s: %w", info.def.Name, f.Name, err)
		}
		if id, ok := f.ID(); ok {
			fi.id = id
		} else {
			fi.id = nextID
		}
		nextID = fi.id + 1
		info.fields = append(info.fields, fi)
		info.fieldsByID[fi.id] = fi
	}
	return nil
}

func (c *infoCache) compileUnion(info *complexInfo) error {
	switchType, ok := primitives[info.def.SwitchType]
	if !ok {
		return fmt.Errorf("%w: switch type %q of union %s", ErrUnrecognizedPrimitive, info.def.SwitchType, info.def.Name)
	}
	info.switchType = switchType

	var nextID uint32 = 1
	caseField := func(f *omgidl.Field) (*fieldInfo, error) {
		fi, err := c.fieldInfo(f)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", info.def.Name, f.Name, err)
		}
		if id, ok := f.ID(); ok {
			fi.id = id
		} else {
			fi.id = nextID
		}
		nextID = fi.id + 1
		return fi, nil
	}
	for ii := range info.def.Cases {
		uc := &info.def.Cases[ii]
		fi, err := caseField(&uc.Field)
		if err != nil {
			return err
		}
		predicates := make([]any, 0, len(uc.Predicates))
		for _, p := range uc.Predicates {
			typed, ok := switchType.convert(p)
			if !ok {
				return fmt.Errorf("%w: case value %v of union %s", ErrInvalidValue, p, info.def.Name)
			}
			predicates = append(predicates, typed)
		}
		info.cases = append(info.cases, unionCaseInfo{predicates: predicates, field: fi})
	}
	if info.def.DefaultCase != nil {
		fi, err := caseField(info.def.DefaultCase)
		if err != nil {
			return err
		}
		info.defaultCase = fi
	}
	return nil
}

func (c *infoCache) fieldInfo(f *omgidl.Field) (*fieldInfo, error) {
	fi := &fieldInfo{
		name:            f.Name,
		typeName:        f.Type,
		isArray:         f.IsArray,
		arrayLengths:    f.ArrayLengths,
		arrayUpperBound: f.ArrayUpperBound,
		upperBound:      f.UpperBound,
		isOptional:      f.IsOptional(),
		isKey:           f.IsKey(),
	}
	switch {
	case f.IsComplex:
		info, err := c.complexInfo(f.Type)
		if err != nil {
			return nil, err
		}
		fi.kind = kindComplex
		fi.complex = info
	case f.Type == omgidl.TypeString:
		fi.kind = kindString
	case f.Type == omgidl.TypeWString || f.Type == "wchar":
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, f.Type)
	default:
		p, ok := primitives[f.Type]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnrecognizedPrimitive, f.Type)
		}
		fi.kind = kindPrimitive
		fi.primitive = p
	}
	return fi, nil
}

// defaultValue is the value of a field that is absent from the data.
func defaultValue(f *fieldInfo) any {
	if f.isOptional {
		return nil
	}
	if f.isArray {
		switch f.kind {
		case kindPrimitive:
			return f.primitive.newArray(0)
		case kindString:
			return []string{}
		}
		return []any{}
	}
	return defaultSingle(f)
}

func defaultSingle(f *fieldInfo) any {
	switch f.kind {
	case kindPrimitive:
		return f.primitive.zero
	case kindString:
		return ""
	}
	return defaultComplex(f.complex)
}

func defaultComplex(info *complexInfo) map[string]any {
	if info.isUnion {
		msg := map[string]any{DiscriminatorKey: nil}
		if info.defaultCase != nil {
			msg[info.defaultCase.name] = defaultValue(info.defaultCase)
		}
		return msg
	}
	msg := make(map[string]any, len(info.fields))
	for _, f := range info.fields {
		msg[f.name] = defaultValue(f)
	}
	return msg
}
