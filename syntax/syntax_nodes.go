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

package syntax

import (
	"fmt"
	"iter"

	"go.omgidl.dev/omgidl"
)

type Span struct {
	start, len uint32
}

func NewSpan(start, len uint32) Span {
	return Span{start, len}
}

func (s *Span) Start() uint32 {
	return s.start
}

func (s *Span) End() uint32 {
	return s.start + s.len
}

func (s *Span) Len() uint32 {
	return s.len
}

// Position returns the 1-based line and column of offset within src.
func Position(src []byte, offset uint32) (line, column int) {
	line, column = 1, 1
	for ii, c := range src {
		if uint32(ii) >= offset {
			break
		}
		if c == '\n' {
			line++
			column = 1
		} else {
			column++
		}
	}
	return line, column
}

// A Node is one declaration of an IDL source file.
//
// The concrete types are [*Module], [*Struct], [*StructMember], [*Const],
// [*Typedef], [*Enum], [*Enumerator] and [*Union].
type Node interface {
	Span() Span

	ChildNodes() iter.Seq[Node]

	DeclName() string

	DeclAnnotations() Annotations
}

func Walk(node Node, walkFn func(Node) bool) {
	if node == nil || !walkFn(node) {
		return
	}
	for child := range node.ChildNodes() {
		Walk(child, walkFn)
	}
	walkFn(nil)
}

func iterChildren[N Node](childNodes []N) iter.Seq[Node] {
	return func(yield func(Node) bool) {
		for _, child := range childNodes {
			if !yield(child) {
				return
			}
		}
	}
}

type leafNode struct{}

func (*leafNode) ChildNodes() iter.Seq[Node] {
	return func(_yield func(Node) bool) {}
}

type decl struct {
	Name        string
	Annotations Annotations
	span        Span
}

func (d *decl) Span() Span {
	return d.span
}

func (d *decl) DeclName() string {
	return d.Name
}

func (d *decl) DeclAnnotations() Annotations {
	return d.Annotations
}

type Module struct {
	decl
	Definitions []Node
}

func (n *Module) ChildNodes() iter.Seq[Node] {
	return iterChildren(n.Definitions)
}

// A Struct with Forward set is a forward declaration (`struct Name;`)
// and has no members.
type Struct struct {
	decl
	Forward bool
	Members []*StructMember
}

func (n *Struct) ChildNodes() iter.Seq[Node] {
	return iterChildren(n.Members)
}

// A StructMember is one declarator of a struct member or union case.
// Members declared together (`int32 a, b;`) are split into separate
// nodes sharing the same type and annotations.
type StructMember struct {
	leafNode
	decl
	Type FieldType
}

type Const struct {
	leafNode
	decl
	Type  FieldType
	Value Value
}

type Typedef struct {
	leafNode
	decl
	Type FieldType
}

type Enum struct {
	decl
	Enumerators []*Enumerator
}

func (n *Enum) ChildNodes() iter.Seq[Node] {
	return iterChildren(n.Enumerators)
}

type Enumerator struct {
	leafNode
	decl
}

type Union struct {
	decl
	SwitchType FieldType
	Cases      []*UnionCase
	Default    *StructMember
}

func (n *Union) ChildNodes() iter.Seq[Node] {
	return func(yield func(Node) bool) {
		for _, c := range n.Cases {
			if !yield(c.Member) {
				return
			}
		}
		if n.Default != nil && !n.defaultShared() {
			yield(n.Default)
		}
	}
}

func (n *Union) defaultShared() bool {
	for _, c := range n.Cases {
		if c.Member == n.Default {
			return true
		}
	}
	return false
}

type UnionCase struct {
	Predicates []Value
	Member     *StructMember
}

var (
	_ Node = (*Module)(nil)
	_ Node = (*Struct)(nil)
	_ Node = (*StructMember)(nil)
	_ Node = (*Const)(nil)
	_ Node = (*Typedef)(nil)
	_ Node = (*Enum)(nil)
	_ Node = (*Enumerator)(nil)
	_ Node = (*Union)(nil)
)

// A FieldType is a type specifier together with the array dimensions of
// the declarator it was written with.
//
// Name is an IDL primitive keyword (such as "unsigned long" or "octet"),
// "string", "wstring", or a possibly scoped reference to another
// declaration. A leading "::" marks a reference relative to the global
// scope.
type FieldType struct {
	Name          string
	StringBound   Value
	IsSequence    bool
	SequenceBound Value
	ArrayLengths  []Value
	span          Span
}

func (t *FieldType) Span() Span {
	return t.span
}

func (t *FieldType) String() string {
	name := t.Name
	if t.StringBound != nil {
		name = fmt.Sprintf("%s<%s>", name, FormatValue(t.StringBound))
	}
	if t.IsSequence {
		if t.SequenceBound != nil {
			name = fmt.Sprintf("sequence<%s, %s>", name, FormatValue(t.SequenceBound))
		} else {
			name = fmt.Sprintf("sequence<%s>", name)
		}
	}
	for _, dim := range t.ArrayLengths {
		name += "[" + FormatValue(dim) + "]"
	}
	return name
}

// A Value is a constant expression: a [*Literal], a [*ConstRef] or an
// [*Expr].
type Value interface {
	Span() Span
	isValue()
}

// A Literal holds an int64, uint64, float64, bool or string. String
// literals keep their escape sequences unprocessed.
type Literal struct {
	Value any
	Raw   string
	span  Span
}

func (v *Literal) Span() Span { return v.span }
func (*Literal) isValue()     {}

type ConstRef struct {
	Name string
	span Span
}

func (v *ConstRef) Span() Span { return v.span }
func (*ConstRef) isValue()     {}

type Expr struct {
	Op       Operator
	Operands []Value
	span     Span
}

func (v *Expr) Span() Span { return v.span }
func (*Expr) isValue()     {}

type Operator uint8

const (
	OpOr Operator = iota + 1
	OpXor
	OpAnd
	OpShiftLeft
	OpShiftRight
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpNeg
	OpPos
	OpNot
)

func (op Operator) String() string {
	switch op {
	case OpOr:
		return "|"
	case OpXor:
		return "^"
	case OpAnd:
		return "&"
	case OpShiftLeft:
		return "<<"
	case OpShiftRight:
		return ">>"
	case OpAdd, OpPos:
		return "+"
	case OpSub, OpNeg:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpMod:
		return "%"
	case OpNot:
		return "~"
	default:
		return fmt.Sprintf("Operator(%d)", uint8(op))
	}
}

// FormatValue renders a constant expression back to IDL text.
func FormatValue(v Value) string {
	switch v := v.(type) {
	case *Literal:
		return v.Raw
	case *ConstRef:
		return v.Name
	case *Expr:
		if len(v.Operands) == 1 {
			return v.Op.String() + FormatValue(v.Operands[0])
		}
		return fmt.Sprintf("(%s %s %s)", FormatValue(v.Operands[0]), v.Op, FormatValue(v.Operands[1]))
	}
	return "<nil>"
}

type Annotation struct {
	Name   string
	Kind   omgidl.AnnotationKind
	Value  Value
	Params []AnnotationParam
	span   Span
}

func (a *Annotation) Span() Span {
	return a.span
}

type AnnotationParam struct {
	Name  string
	Value Value
}

type Annotations []*Annotation

func (as Annotations) Get(name string) (*Annotation, bool) {
	for _, a := range as {
		if a.Name == name {
			return a, true
		}
	}
	return nil, false
}
