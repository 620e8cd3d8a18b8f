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

// Package idltext renders resolved definitions as OMG IDL source.
//
// The output parses back into the same definitions, except that typedefs
// have been inlined and constant expressions folded. ROS 2 style names
// ("pkg/msg/Name") are rendered as IDL scoped names.
package idltext

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"go.omgidl.dev/omgidl"
)

func Encode(defs []omgidl.Definition) string {
	var buf strings.Builder
	EncodeTo(defs, &buf)
	return buf.String()
}

func EncodeTo(defs []omgidl.Definition, w io.Writer) error {
	e := encoder{w: w}
	e.visitDefinitions(defs)
	return e.err
}

type encoder struct {
	w      io.Writer
	indent int
	err    error

	// Names of the currently open modules, outermost first.
	open []string
}

func (e *encoder) line(s string) {
	if e.err != nil {
		return
	}
	if indent := strings.Repeat("\t", e.indent); indent != "" {
		if _, err := io.WriteString(e.w, indent); err != nil {
			e.err = err
			return
		}
	}
	if _, err := io.WriteString(e.w, s); err != nil {
		e.err = err
		return
	}
	if _, err := io.WriteString(e.w, "\n"); err != nil {
		e.err = err
		return
	}
}

func (e *encoder) linef(format string, a ...any) {
	e.line(fmt.Sprintf(format, a...))
}

func (e *encoder) visitDefinitions(defs []omgidl.Definition) {
	for ii := range defs {
		if e.err != nil {
			return
		}
		def := &defs[ii]
		e.enterScope(definitionScope(def))
		switch def.Kind {
		case omgidl.KindModule:
			for jj := range def.Fields {
				e.visitConstant(&def.Fields[jj])
			}
		case omgidl.KindStruct:
			e.visitStruct(def)
		case omgidl.KindEnum:
			e.visitEnum(def)
		case omgidl.KindUnion:
			e.visitUnion(def)
		}
	}
	e.enterScope(nil)
}

// enterScope closes and opens modules until the open modules match
// scope.
func (e *encoder) enterScope(scope []string) {
	common := 0
	for common < len(e.open) && common < len(scope) && e.open[common] == scope[common] {
		common++
	}
	for len(e.open) > common {
		e.indent -= 1
		e.line("};")
		e.open = e.open[:len(e.open)-1]
	}
	for _, name := range scope[common:] {
		e.linef("module %s {", name)
		e.indent += 1
		e.open = append(e.open, name)
	}
}

func splitName(name string) []string {
	name = scopedName(name)
	if name == "" {
		return nil
	}
	return strings.Split(name, omgidl.ScopeSeparator)
}

func scopedName(name string) string {
	return strings.ReplaceAll(name, "/", omgidl.ScopeSeparator)
}

// definitionScope is the module path a definition is rendered in. A
// module definition holds constants declared directly inside it.
func definitionScope(def *omgidl.Definition) []string {
	parts := splitName(def.Name)
	if def.Kind == omgidl.KindModule || len(parts) == 0 {
		return parts
	}
	return parts[:len(parts)-1]
}

func localName(name string) string {
	return omgidl.LocalName(scopedName(name))
}

func (e *encoder) visitAnnotations(annotations omgidl.Annotations) {
	for _, a := range annotations {
		e.line(fmtAnnotation(a))
	}
}

func (e *encoder) visitConstant(f *omgidl.Field) {
	e.linef("const %s %s = %s;", fmtType(f), f.Name, fmtScalar(f.Value))
}

func (e *encoder) visitStruct(def *omgidl.Definition) {
	e.visitAnnotations(def.Annotations)
	e.linef("struct %s {", def.LocalName())
	e.indent += 1
	for ii := range def.Fields {
		e.line(fmtMember(&def.Fields[ii]))
	}
	e.indent -= 1
	e.line("};")
}

func (e *encoder) visitEnum(def *omgidl.Definition) {
	e.visitAnnotations(def.Annotations)
	e.linef("enum %s {", def.LocalName())
	e.indent += 1
	var next uint64
	for ii := range def.Fields {
		f := &def.Fields[ii]
		value, _ := omgidl.ToUint64(f.Value)
		var buf strings.Builder
		for _, a := range f.Annotations {
			buf.WriteString(fmtAnnotation(a))
			buf.WriteByte(' ')
		}
		if value != next && !f.Annotations.Has(omgidl.AnnotationValue) {
			fmt.Fprintf(&buf, "@value(%d) ", value)
		}
		buf.WriteString(f.Name)
		item := buf.String()
		next = value + 1
		if ii < len(def.Fields)-1 {
			item += ","
		}
		e.line(item)
	}
	e.indent -= 1
	e.line("};")
}

func (e *encoder) visitUnion(def *omgidl.Definition) {
	e.visitAnnotations(def.Annotations)
	e.linef("union %s switch (%s) {", def.LocalName(), fmtTypeName(def.SwitchType))
	e.indent += 1
	for ii := range def.Cases {
		uc := &def.Cases[ii]
		for _, predicate := range uc.Predicates {
			e.linef("case %s:", fmtScalar(predicate))
		}
		e.indent += 1
		e.line(fmtMember(&uc.Field))
		e.indent -= 1
	}
	if def.DefaultCase != nil {
		e.line("default:")
		e.indent += 1
		e.line(fmtMember(def.DefaultCase))
		e.indent -= 1
	}
	e.indent -= 1
	e.line("};")
}

func fmtMember(f *omgidl.Field) string {
	var buf strings.Builder
	for _, a := range f.Annotations {
		buf.WriteString(fmtAnnotation(a))
		buf.WriteByte(' ')
	}
	buf.WriteString(fmtType(f))
	buf.WriteByte(' ')
	buf.WriteString(f.Name)
	for _, n := range f.ArrayLengths {
		fmt.Fprintf(&buf, "[%d]", n)
	}
	buf.WriteByte(';')
	return buf.String()
}

var idlTypeNames = map[string]string{
	omgidl.TypeBool:    "boolean",
	omgidl.TypeInt16:   "short",
	omgidl.TypeUint16:  "unsigned short",
	omgidl.TypeInt32:   "long",
	omgidl.TypeUint32:  "unsigned long",
	omgidl.TypeInt64:   "long long",
	omgidl.TypeUint64:  "unsigned long long",
	omgidl.TypeFloat32: "float",
	omgidl.TypeFloat64: "double",
}

func fmtTypeName(name string) string {
	if idl, ok := idlTypeNames[name]; ok {
		return idl
	}
	return scopedName(name)
}

// fmtType returns the type of a field without its array dimensions.
func fmtType(f *omgidl.Field) string {
	name := fmtTypeName(f.Type)
	if f.UpperBound > 0 && (f.Type == omgidl.TypeString || f.Type == omgidl.TypeWString) {
		name = fmt.Sprintf("%s<%d>", name, f.UpperBound)
	}
	if !f.IsSequence() {
		return name
	}
	if f.ArrayUpperBound > 0 {
		return fmt.Sprintf("sequence<%s, %d>", name, f.ArrayUpperBound)
	}
	return fmt.Sprintf("sequence<%s>", name)
}

func fmtAnnotation(a *omgidl.Annotation) string {
	switch a.Kind {
	case omgidl.AnnotationConstParam:
		// Extensibility kinds are identifiers, not text.
		if s, ok := a.Value.(string); ok && a.Name == omgidl.AnnotationExtensibility {
			return fmt.Sprintf("@%s(%s)", a.Name, s)
		}
		return fmt.Sprintf("@%s(%s)", a.Name, fmtScalar(a.Value))
	case omgidl.AnnotationNamedParams:
		params := make([]string, 0, len(a.Params))
		for _, p := range a.Params {
			params = append(params, fmt.Sprintf("%s=%s", p.Name, fmtScalar(p.Value)))
		}
		return fmt.Sprintf("@%s(%s)", a.Name, strings.Join(params, ", "))
	}
	return "@" + a.Name
}

func fmtScalar(value any) string {
	switch value := value.(type) {
	case bool:
		if value {
			return "TRUE"
		}
		return "FALSE"
	case uint8:
		return strconv.FormatUint(uint64(value), 10)
	case uint16:
		return strconv.FormatUint(uint64(value), 10)
	case uint32:
		return strconv.FormatUint(uint64(value), 10)
	case uint64:
		return strconv.FormatUint(value, 10)
	case int8:
		return strconv.FormatInt(int64(value), 10)
	case int16:
		return strconv.FormatInt(int64(value), 10)
	case int32:
		return strconv.FormatInt(int64(value), 10)
	case int64:
		return strconv.FormatInt(value, 10)
	case float32:
		return fmtFloat(float64(value), 32)
	case float64:
		return fmtFloat(value, 64)
	case string:
		// Text literal values keep their escapes, so they are written
		// back verbatim.
		return `"` + value + `"`
	}
	return fmt.Sprint(value)
}

func fmtFloat(f float64, bitSize int) string {
	s := strconv.FormatFloat(f, 'g', -1, bitSize)
	if math.IsInf(f, 0) || math.IsNaN(f) || strings.ContainsAny(s, ".e") {
		return s
	}
	return s + ".0"
}
