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

package testutil

import (
	"fmt"
	"strings"

	"go.omgidl.dev/omgidl"
	"go.omgidl.dev/omgidl/syntax"
)

// DumpSyntax renders parsed declarations as an indented outline, one
// declaration per line.
func DumpSyntax(nodes []syntax.Node) string {
	var buf strings.Builder
	for _, node := range nodes {
		dumpSyntax(&buf, node, 0)
	}
	return buf.String()
}

func dumpSyntax(buf *strings.Builder, node syntax.Node, indent int) {
	buf.WriteString(strings.Repeat("    ", indent))
	switch node := node.(type) {
	case *syntax.Module:
		fmt.Fprintf(buf, "module %s", node.Name)
	case *syntax.Struct:
		fmt.Fprintf(buf, "struct %s", node.Name)
		if node.Forward {
			buf.WriteString(" (forward)")
		}
	case *syntax.StructMember:
		fmt.Fprintf(buf, "member %s: %s", node.Name, node.Type.String())
	case *syntax.Const:
		fmt.Fprintf(buf, "const %s: %s = %s", node.Name, node.Type.String(), syntax.FormatValue(node.Value))
	case *syntax.Typedef:
		fmt.Fprintf(buf, "typedef %s: %s", node.Name, node.Type.String())
	case *syntax.Enum:
		fmt.Fprintf(buf, "enum %s", node.Name)
	case *syntax.Enumerator:
		fmt.Fprintf(buf, "enumerator %s", node.Name)
	case *syntax.Union:
		fmt.Fprintf(buf, "union %s switch (%s)", node.Name, node.SwitchType.String())
	}
	buf.WriteString(dumpAnnotations(node.DeclAnnotations()))
	buf.WriteString("\n")

	if union, ok := node.(*syntax.Union); ok {
		for _, c := range union.Cases {
			labels := make([]string, 0, len(c.Predicates))
			for _, p := range c.Predicates {
				labels = append(labels, syntax.FormatValue(p))
			}
			label := "case " + strings.Join(labels, ", ")
			if c.Member == union.Default {
				label += ", default"
			}
			dumpUnionMember(buf, label, c.Member, indent+1)
		}
		if union.Default != nil && !isCaseMember(union, union.Default) {
			dumpUnionMember(buf, "default", union.Default, indent+1)
		}
		return
	}
	for child := range node.ChildNodes() {
		dumpSyntax(buf, child, indent+1)
	}
}

func isCaseMember(union *syntax.Union, member *syntax.StructMember) bool {
	for _, c := range union.Cases {
		if c.Member == member {
			return true
		}
	}
	return false
}

func dumpUnionMember(buf *strings.Builder, label string, member *syntax.StructMember, indent int) {
	buf.WriteString(strings.Repeat("    ", indent))
	fmt.Fprintf(buf, "%s: %s: %s", label, member.Name, member.Type.String())
	buf.WriteString(dumpAnnotations(member.Annotations))
	buf.WriteString("\n")
}

func dumpAnnotations(annotations syntax.Annotations) string {
	var buf strings.Builder
	for _, a := range annotations {
		buf.WriteString(" @")
		buf.WriteString(a.Name)
		switch a.Kind {
		case omgidl.AnnotationConstParam:
			fmt.Fprintf(&buf, "(%s)", syntax.FormatValue(a.Value))
		case omgidl.AnnotationNamedParams:
			params := make([]string, 0, len(a.Params))
			for _, p := range a.Params {
				params = append(params, p.Name+"="+syntax.FormatValue(p.Value))
			}
			fmt.Fprintf(&buf, "(%s)", strings.Join(params, ", "))
		}
	}
	return buf.String()
}
