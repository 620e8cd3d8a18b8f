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

package omgidl_test

import (
	"testing"

	"go.omgidl.dev/omgidl"
	"go.omgidl.dev/omgidl/internal/testutil"
)

func TestExtensibility(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		annotations omgidl.Annotations
		want        omgidl.Extensibility
	}{
		{"none", nil, omgidl.ExtensibilityFinal},
		{"mutable", omgidl.Annotations{{Name: "mutable"}}, omgidl.ExtensibilityMutable},
		{"appendable", omgidl.Annotations{{Name: "appendable"}}, omgidl.ExtensibilityAppendable},
		{"final", omgidl.Annotations{{Name: "final"}}, omgidl.ExtensibilityFinal},
		{"extensibility", omgidl.Annotations{{
			Name:  "extensibility",
			Kind:  omgidl.AnnotationConstParam,
			Value: "MUTABLE",
		}}, omgidl.ExtensibilityMutable},
		{"extensibility lowercase", omgidl.Annotations{{
			Name:  "extensibility",
			Kind:  omgidl.AnnotationConstParam,
			Value: "appendable",
		}}, omgidl.ExtensibilityAppendable},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			testutil.ExpectEq(t, test.want, test.annotations.Extensibility())
		})
	}
}

func TestOverlay(t *testing.T) {
	t.Parallel()

	inherited := omgidl.Annotations{
		{Name: "key"},
		{Name: "default", Kind: omgidl.AnnotationNamedParams, Params: []omgidl.AnnotationParam{{Name: "value", Value: int32(1)}}},
	}
	own := omgidl.Annotations{
		{Name: "default", Kind: omgidl.AnnotationNamedParams, Params: []omgidl.AnnotationParam{{Name: "value", Value: int32(2)}}},
		{Name: "optional"},
	}
	got := inherited.Overlay(own)

	testutil.ExpectEq(t, 3, len(got))
	testutil.ExpectEq(t, "key", got[0].Name)
	testutil.ExpectEq(t, "default", got[1].Name)
	testutil.ExpectEq(t, "optional", got[2].Name)
	value, ok := got[1].Param("value")
	testutil.ExpectTrue(t, ok)
	testutil.ExpectEq[any](t, int32(2), value)

	// The receiver is not modified.
	value, _ = inherited[1].Param("value")
	testutil.ExpectEq[any](t, int32(1), value)
}

func TestFieldID(t *testing.T) {
	t.Parallel()

	field := omgidl.Field{
		Name: "a",
		Annotations: omgidl.Annotations{{
			Name:  "id",
			Kind:  omgidl.AnnotationConstParam,
			Value: int64(12),
		}},
	}
	id, ok := field.ID()
	testutil.ExpectTrue(t, ok)
	testutil.ExpectEq(t, uint32(12), id)

	_, ok = (&omgidl.Field{Name: "b"}).ID()
	testutil.ExpectFalse(t, ok)
}

func TestScopedNames(t *testing.T) {
	t.Parallel()

	testutil.ExpectEq(t, "c", omgidl.LocalName("a::b::c"))
	testutil.ExpectEq(t, "c", omgidl.LocalName("c"))
	testutil.ExpectEq(t, "a::b::c", omgidl.JoinScope("a", "", "b", "c"))
	testutil.ExpectEq(t, "", omgidl.JoinScope())
}

func TestFieldShape(t *testing.T) {
	t.Parallel()

	seq := omgidl.Field{Name: "s", Type: "int32", IsArray: true, ArrayUpperBound: 10}
	testutil.ExpectTrue(t, seq.IsSequence())

	fixed := omgidl.Field{Name: "f", Type: "int32", IsArray: true, ArrayLengths: []int{3}}
	testutil.ExpectFalse(t, fixed.IsSequence())

	testutil.ExpectTrue(t, omgidl.IsPrimitive("string"))
	testutil.ExpectTrue(t, omgidl.IsPrimitive("float64"))
	testutil.ExpectFalse(t, omgidl.IsPrimitive("double"))
}
