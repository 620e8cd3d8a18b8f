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

import (
	"fmt"
	"strings"
)

// Annotation names with meaning to the resolver or the CDR codec.
const (
	AnnotationID            = "id"
	AnnotationKey           = "key"
	AnnotationOptional      = "optional"
	AnnotationDefault       = "default"
	AnnotationValue         = "value"
	AnnotationMutable       = "mutable"
	AnnotationAppendable    = "appendable"
	AnnotationFinal         = "final"
	AnnotationExtensibility = "extensibility"
)

type AnnotationKind uint8

const (
	AnnotationNoParams AnnotationKind = iota
	AnnotationConstParam
	AnnotationNamedParams
)

func (k AnnotationKind) String() string {
	switch k {
	case AnnotationNoParams:
		return "no-params"
	case AnnotationConstParam:
		return "const-param"
	case AnnotationNamedParams:
		return "named-params"
	default:
		return fmt.Sprintf("AnnotationKind(%d)", uint8(k))
	}
}

// An Annotation is a resolved `@name`, `@name(value)` or
// `@name(key=value, ...)` attached to a declaration.
//
// Identifiers that do not name a constant (such as `MUTABLE` in
// `@extensibility(MUTABLE)`) resolve to their text as a string.
type Annotation struct {
	Name   string
	Kind   AnnotationKind
	Value  any
	Params []AnnotationParam
}

type AnnotationParam struct {
	Name  string
	Value any
}

// Param returns a named parameter. For const-param annotations the name
// "value" selects the single parameter.
func (a *Annotation) Param(name string) (any, bool) {
	switch a.Kind {
	case AnnotationConstParam:
		if name == "value" {
			return a.Value, true
		}
	case AnnotationNamedParams:
		for _, p := range a.Params {
			if p.Name == name {
				return p.Value, true
			}
		}
	}
	return nil, false
}

// Uint64 returns the annotation's "value" parameter as an unsigned integer.
func (a *Annotation) Uint64() (uint64, bool) {
	v, ok := a.Param("value")
	if !ok {
		return 0, false
	}
	return ToUint64(v)
}

// Annotations is an ordered set of annotations, unique by name.
type Annotations []*Annotation

func (as Annotations) Get(name string) (*Annotation, bool) {
	for _, a := range as {
		if a.Name == name {
			return a, true
		}
	}
	return nil, false
}

func (as Annotations) Has(name string) bool {
	_, ok := as.Get(name)
	return ok
}

// Set adds an annotation, replacing any existing annotation of the same
// name in place.
func (as Annotations) Set(a *Annotation) Annotations {
	for ii, have := range as {
		if have.Name == a.Name {
			out := make(Annotations, len(as))
			copy(out, as)
			out[ii] = a
			return out
		}
	}
	out := make(Annotations, len(as), len(as)+1)
	copy(out, as)
	return append(out, a)
}

// Overlay returns the annotations of as with those of own applied on top.
// On a name conflict the annotation from own wins.
func (as Annotations) Overlay(own Annotations) Annotations {
	out := make(Annotations, len(as), len(as)+len(own))
	copy(out, as)
	for _, a := range own {
		out = out.Set(a)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

type Extensibility uint8

const (
	ExtensibilityFinal Extensibility = iota
	ExtensibilityAppendable
	ExtensibilityMutable
)

func (e Extensibility) String() string {
	switch e {
	case ExtensibilityFinal:
		return "FINAL"
	case ExtensibilityAppendable:
		return "APPENDABLE"
	case ExtensibilityMutable:
		return "MUTABLE"
	default:
		return fmt.Sprintf("Extensibility(%d)", uint8(e))
	}
}

// Extensibility derives the extensibility kind from @mutable,
// @appendable, @final or @extensibility(KIND). Types without any of
// these are final.
func (as Annotations) Extensibility() Extensibility {
	for _, a := range as {
		switch a.Name {
		case AnnotationMutable:
			return ExtensibilityMutable
		case AnnotationAppendable:
			return ExtensibilityAppendable
		case AnnotationFinal:
			return ExtensibilityFinal
		case AnnotationExtensibility:
			v, _ := a.Param("value")
			s, _ := v.(string)
			switch strings.ToUpper(s) {
			case "MUTABLE":
				return ExtensibilityMutable
			case "APPENDABLE":
				return ExtensibilityAppendable
			}
			return ExtensibilityFinal
		}
	}
	return ExtensibilityFinal
}

// ToUint64 converts an integer constant value to uint64.
func ToUint64(v any) (uint64, bool) {
	switch v := v.(type) {
	case int:
		return uint64(v), v >= 0
	case int8:
		return uint64(v), v >= 0
	case int16:
		return uint64(v), v >= 0
	case int32:
		return uint64(v), v >= 0
	case int64:
		return uint64(v), v >= 0
	case uint:
		return uint64(v), true
	case uint8:
		return uint64(v), true
	case uint16:
		return uint64(v), true
	case uint32:
		return uint64(v), true
	case uint64:
		return v, true
	}
	return 0, false
}

// ToInt64 converts an integer constant value to int64.
func ToInt64(v any) (int64, bool) {
	switch v := v.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		return int64(v), uint64(v) <= 1<<63-1
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		return int64(v), v <= 1<<63-1
	}
	return 0, false
}
