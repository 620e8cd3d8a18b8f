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

package compiler_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"go.omgidl.dev/omgidl"
	"go.omgidl.dev/omgidl/compiler"
	"go.omgidl.dev/omgidl/internal/testutil"
	"go.omgidl.dev/omgidl/syntax"
)

var compilerErrors map[string]*testutil.Diagnostic

func init() {
	testdata, err := testutil.TestdataFS()
	if err != nil {
		panic(err)
	}
	compilerErrors, err = testutil.LoadDiagnostics(testdata, "diagnostics/compiler_errors.json")
	if err != nil {
		panic(err)
	}
}

func compile(t *testing.T, src string) *compiler.CompileResult {
	t.Helper()
	nodes, err := syntax.Parse([]byte(src))
	testutil.AssertNoError(t, err)
	result, err := compiler.Compile(nodes)
	testutil.AssertNoError(t, err)
	return result
}

func definitionNames(defs []omgidl.Definition) []string {
	names := make([]string, 0, len(defs))
	for _, def := range defs {
		names = append(names, def.Name)
	}
	return names
}

func TestResolveOrder(t *testing.T) {
	t.Parallel()

	result := compile(t, `
const long TOP = 1;
module geometry {
  module empty { struct Marker { boolean b; }; };
  const short MAX = 10;
  struct Point { double x, y; };
};
module geometry {
  struct Line { Point a, b; };
};
enum COLORS { RED };
`)
	testutil.ExpectSliceEq(t, []string{
		"geometry",
		"geometry::empty::Marker",
		"geometry::Point",
		"geometry::Line",
		"COLORS",
		"",
	}, definitionNames(result.Definitions))

	geometry := result.Definitions[0]
	testutil.ExpectEq(t, omgidl.KindModule, geometry.Kind)
	testutil.ExpectDeepEq(t, []omgidl.Field{{
		Name:       "MAX",
		Type:       "int16",
		IsConstant: true,
		Value:      int16(10),
		ValueText:  "10",
	}}, geometry.Fields)

	top := result.Definitions[5]
	testutil.ExpectEq(t, omgidl.KindModule, top.Kind)
	testutil.ExpectDeepEq(t, []omgidl.Field{{
		Name:       "TOP",
		Type:       "int32",
		IsConstant: true,
		Value:      int32(1),
		ValueText:  "1",
	}}, top.Fields)

	line, _ := omgidl.Find(result.Definitions, "geometry::Line")
	testutil.ExpectDeepEq(t, []omgidl.Field{
		{Name: "a", Type: "geometry::Point", IsComplex: true},
		{Name: "b", Type: "geometry::Point", IsComplex: true},
	}, line.Fields)
}

func TestResolveScopedTypedef(t *testing.T) {
	t.Parallel()

	result := compile(t, `
module rosidl_parser {
  module action {
    module MyAction_Goal_Constants {
      const short SHORT_CONSTANT = -23;
    };
    typedef sequence<int32, 10> int32_seq;
    struct MyAction_Goal {
      int32 input_value;
      int32_seq values;
    };
  };
  struct Wrapper {
    action::int32_seq seq;
    ::rosidl_parser::action::MyAction_Goal goal;
  };
};
`)
	testutil.ExpectSliceEq(t, []string{
		"rosidl_parser::action::MyAction_Goal_Constants",
		"rosidl_parser::action::MyAction_Goal",
		"rosidl_parser::Wrapper",
	}, definitionNames(result.Definitions))

	constants := result.Definitions[0]
	testutil.ExpectDeepEq(t, []omgidl.Field{{
		Name:       "SHORT_CONSTANT",
		Type:       "int16",
		IsConstant: true,
		Value:      int16(-23),
		ValueText:  "-23",
	}}, constants.Fields)

	goal := result.Definitions[1]
	testutil.ExpectDeepEq(t, []omgidl.Field{
		{Name: "input_value", Type: "int32"},
		{Name: "values", Type: "int32", IsArray: true, ArrayUpperBound: 10},
	}, goal.Fields)

	wrapper := result.Definitions[2]
	testutil.ExpectDeepEq(t, []omgidl.Field{
		{Name: "seq", Type: "int32", IsArray: true, ArrayUpperBound: 10},
		{Name: "goal", Type: "rosidl_parser::action::MyAction_Goal", IsComplex: true},
	}, wrapper.Fields)
}

func TestResolveLocalAndQualifiedTypedef(t *testing.T) {
	t.Parallel()

	result := compile(t, `
module a {
  typedef float T[2];
  module b {
    struct S { a::T x; T y; };
  };
};
`)
	testutil.ExpectSliceEq(t, []string{"a::b::S"}, definitionNames(result.Definitions))
	testutil.ExpectDeepEq(t, []omgidl.Field{
		{Name: "x", Type: "float32", IsArray: true, ArrayLengths: []int{2}},
		{Name: "y", Type: "float32", IsArray: true, ArrayLengths: []int{2}},
	}, result.Definitions[0].Fields)
}

func TestResolveArrayOfTypedefSequenceFails(t *testing.T) {
	t.Parallel()

	nodes, err := syntax.Parse([]byte(`
typedef sequence<int32, 10> int32_seq;
struct S { int32_seq grid[2]; };
`))
	testutil.AssertNoError(t, err)
	_, err = compiler.Resolve(nodes)
	testutil.ExpectDiagnostic(t, compilerErrors["variable_array_composition"], err)
	testutil.ExpectErrorIs(t, err, compiler.ErrUnsupportedComposition)
}

func TestResolveFixedArrayComposition(t *testing.T) {
	t.Parallel()

	result := compile(t, `
typedef float row[4];
@appendable struct Matrix {
  row rows[3];
};
`)
	matrix := result.Definitions[0]
	testutil.ExpectDeepEq(t, []omgidl.Field{{
		Name:         "rows",
		Type:         "float32",
		IsArray:      true,
		ArrayLengths: []int{3, 4},
	}}, matrix.Fields)
	testutil.ExpectEq(t, omgidl.ExtensibilityAppendable, matrix.Extensibility())
}

func TestResolveEnum(t *testing.T) {
	t.Parallel()

	result := compile(t, `
enum COLORS {
  RED,
  @value(5) GREEN,
  BLUE
};
struct Pixel {
  COLORS color;
  @default(GREEN) COLORS fallback;
};
const COLORS FAVORITE = BLUE;
`)
	colors := result.Definitions[0]
	testutil.ExpectEq(t, omgidl.KindEnum, colors.Kind)
	testutil.ExpectEq(t, 3, len(colors.Fields))
	for ii, want := range []uint32{0, 5, 6} {
		field := colors.Fields[ii]
		testutil.ExpectEq(t, "uint32", field.Type)
		testutil.ExpectTrue(t, field.IsConstant)
		testutil.ExpectEq[any](t, want, field.Value)
	}
	testutil.ExpectEq(t, "RED", colors.Fields[0].Name)

	pixel := result.Definitions[1]
	testutil.ExpectEq(t, "uint32", pixel.Fields[0].Type)
	testutil.ExpectFalse(t, pixel.Fields[0].IsComplex)
	testutil.ExpectEq[any](t, uint32(5), pixel.Fields[1].DefaultValue)

	top := result.Definitions[2]
	testutil.ExpectEq[any](t, uint32(6), top.Fields[0].Value)
	testutil.ExpectEq(t, "BLUE", top.Fields[0].ValueText)
}

func TestResolveDefaultValues(t *testing.T) {
	t.Parallel()

	result := compile(t, `
struct Defaults {
  @default(value=5) int32 int1, int2;
  @default(value=1.5) double ratio;
  @default(value="hi") string greeting;
  @default(value=TRUE) boolean flag;
  @default(value=300) octet overflow;
};
`)
	fields := result.Definitions[0].Fields
	testutil.ExpectEq[any](t, int32(5), fields[0].DefaultValue)
	testutil.ExpectEq[any](t, int32(5), fields[1].DefaultValue)
	testutil.ExpectEq[any](t, float64(1.5), fields[2].DefaultValue)
	testutil.ExpectEq[any](t, "hi", fields[3].DefaultValue)
	testutil.ExpectEq[any](t, true, fields[4].DefaultValue)

	annotation, ok := fields[0].Annotations.Get(omgidl.AnnotationDefault)
	testutil.AssertTrue(t, ok)
	value, _ := annotation.Param("value")
	testutil.ExpectEq[any](t, int64(5), value)

	// Out of range for uint8: kept as written.
	testutil.ExpectEq[any](t, int64(300), fields[5].DefaultValue)
	testutil.ExpectEq(t, 1, len(result.Warnings))
	testutil.ExpectEq(t, uint32(4004), result.Warnings[0].Code())
}

func TestResolveTypedefAnnotations(t *testing.T) {
	t.Parallel()

	result := compile(t, `
@default(value=7) @unit("m") typedef long distance;
struct Trip {
  @default(value=9) distance leg;
  distance total;
};
`)
	fields := result.Definitions[0].Fields
	testutil.ExpectEq[any](t, int32(9), fields[0].DefaultValue)
	testutil.ExpectEq[any](t, int32(7), fields[1].DefaultValue)

	want := omgidl.Annotations{
		{Name: "default", Kind: omgidl.AnnotationNamedParams, Params: []omgidl.AnnotationParam{{Name: "value", Value: int64(9)}}},
		{Name: "unit", Kind: omgidl.AnnotationConstParam, Value: "m"},
	}
	testutil.ExpectDeepEq(t, want, fields[0].Annotations)
}

func TestResolveUnion(t *testing.T) {
	t.Parallel()

	result := compile(t, `
module shapes {
  enum Kind { CIRCLE, SQUARE, TRIANGLE };
  @mutable
  union Shape switch (Kind) {
    case CIRCLE: double radius;
    case SQUARE: case TRIANGLE: double side;
    default: string name;
  };
  union Flag switch (boolean) {
    case TRUE: long on;
    case FALSE: default: octet off;
  };
};
`)
	shape, ok := omgidl.Find(result.Definitions, "shapes::Shape")
	testutil.AssertTrue(t, ok)
	testutil.ExpectEq(t, omgidl.KindUnion, shape.Kind)
	testutil.ExpectEq(t, "uint32", shape.SwitchType)
	testutil.ExpectEq(t, omgidl.ExtensibilityMutable, shape.Extensibility())
	testutil.ExpectDeepEq(t, []omgidl.UnionCase{
		{Predicates: []any{uint32(0)}, Field: omgidl.Field{Name: "radius", Type: "float64"}},
		{Predicates: []any{uint32(1), uint32(2)}, Field: omgidl.Field{Name: "side", Type: "float64"}},
	}, shape.Cases)
	testutil.ExpectDeepEq(t, &omgidl.Field{Name: "name", Type: "string"}, shape.DefaultCase)

	flag, _ := omgidl.Find(result.Definitions, "shapes::Flag")
	testutil.ExpectEq(t, "bool", flag.SwitchType)
	testutil.ExpectDeepEq(t, []any{true}, flag.Cases[0].Predicates)
	testutil.ExpectDeepEq(t, &omgidl.Field{Name: "off", Type: "uint8"}, flag.DefaultCase)
}

func TestResolveConstantFolding(t *testing.T) {
	t.Parallel()

	result := compile(t, `
module limits {
  const long WIDTH = 4;
  const long AREA = WIDTH * (WIDTH + 2);
  const unsigned long long MASK = (1 << 40) | 65280 >> 8;
  const double HALF = 1 / 2.;
  const string NAME = "a" "b";
  const char LETTER = 'x';
  const octet NEG_MASK = ~0 & 255;
  struct Buffer {
    octet data[AREA];
    sequence<long, WIDTH * 2> items;
    string<WIDTH> label;
  };
};
`)
	consts := result.Definitions[0].Fields
	values := make(map[string]any, len(consts))
	for _, field := range consts {
		values[field.Name] = field.Value
	}
	testutil.ExpectDeepEq(t, map[string]any{
		"WIDTH":    int32(4),
		"AREA":     int32(24),
		"MASK":     uint64(1<<40 | 0xff),
		"HALF":     float64(0.5),
		"NAME":     "ab",
		"LETTER":   uint8('x'),
		"NEG_MASK": uint8(0xff),
	}, values)
	testutil.ExpectEq(t, "(WIDTH * (WIDTH + 2))", consts[1].ValueText)

	buffer := result.Definitions[1].Fields
	testutil.ExpectDeepEq(t, []int{24}, buffer[0].ArrayLengths)
	testutil.ExpectEq(t, 8, buffer[1].ArrayUpperBound)
	testutil.ExpectEq(t, 4, buffer[2].UpperBound)
}

func TestResolveWarnings(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.WarnLevel)
	nodes, err := syntax.Parse([]byte(`
struct Later;
@frobnicate struct S {
  @key @key long id;
  octet data[010];
};
`))
	testutil.AssertNoError(t, err)
	result, err := compiler.Compile(nodes, compiler.WithLogger(zap.New(core)))
	testutil.AssertNoError(t, err)

	codes := make([]uint32, 0, len(result.Warnings))
	for _, w := range result.Warnings {
		codes = append(codes, w.Code())
	}
	testutil.ExpectSliceEq(t, []uint32{4001, 4000, 4003, 4002}, codes)
	testutil.ExpectEq(t, len(codes), logs.Len())

	// Leading zeros are read as decimal.
	testutil.ExpectDeepEq(t, []int{10}, result.Definitions[0].Fields[1].ArrayLengths)
}

func TestResolveErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		src   string
		error string
		match string
	}{
		{"duplicate struct", "struct A { long x; }; struct A { long y; };", "duplicate_definition", "'A'"},
		{"duplicate member", "struct A { long x; double x; };", "duplicate_definition", "'A::x'"},
		{"unknown scoped type", "module m { struct A { other::Missing field; }; };", "type_not_found", "'other::Missing' referenced by 'm::A::field'"},
		{"typedef of typedef", "typedef long a; typedef a b;", "typedef_of_typedef", "Typedef 'b' refers to typedef 'a'"},
		{"array of sequences", "struct A { sequence<long> x[2]; };", "variable_array_composition", "'A::x'"},
		{"sequence member of typedef array", "typedef long pair[2]; struct A { sequence<pair> x; };", "variable_array_composition", "typedef 'pair'"},
		{"constant not found", "struct A { long x[N]; };", "const_not_found", "'N' referenced by 'A::x'"},
		{"not a constant", "struct N { long y; }; struct A { long x[N]; };", "not_constant", "'N'"},
		{"member of const", "const long C = 1; struct A { C x; };", "not_a_type", "'C' referenced by 'A::x'"},
		{"circular constant", "const long A = B; const long B = A;", "circular_constant", "'A'"},
		{"division by zero", "const long A = 1 / 0;", "invalid_constant", "division by zero"},
		{"negative length", "struct A { long x[-1]; };", "invalid_bound", "Array length of 'A::x'"},
		{"const overflow", "const octet A = 256;", "constant_type", "'uint8'"},
		{"union case type", "union U switch (boolean) { case 1: long x; };", "union_case_type", "union 'U'"},
		{"union switch type", "union U switch (double) { case 1: long x; };", "invalid_switch_type", "'U'"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			nodes, err := syntax.Parse([]byte(test.src))
			testutil.AssertNoError(t, err)
			_, err = compiler.Resolve(nodes)
			testutil.AssertError(t, err)
			want, ok := compilerErrors[test.error]
			if !ok {
				t.Fatalf("unknown compiler error name %q", test.error)
			}
			testutil.ExpectDiagnostic(t, want, err)
			testutil.ExpectMatch(t, test.match, err.Error())
		})
	}
}

func TestResolveErrorKinds(t *testing.T) {
	t.Parallel()

	_, err := compiler.ParseIDL([]byte("struct A { Missing x; };"))
	testutil.ExpectErrorIs(t, err, compiler.ErrUnresolvedReference)

	_, err = compiler.ParseIDL([]byte("union U switch (octet) { case 300: long x; };"))
	testutil.ExpectErrorIs(t, err, compiler.ErrUnionCaseType)

	_, err = compiler.ParseIDL([]byte("struct A { long x; }; struct A { long y; };"))
	testutil.ExpectErrorIs(t, err, compiler.ErrDuplicateDefinition)
}

func TestParseIDL(t *testing.T) {
	t.Parallel()

	defs, err := compiler.ParseIDL([]byte(`
struct Header {
  uint32 seq;
  @key string<32> frame_id;
  wchar w;
  byte b;
  char c;
  unsigned long long big;
};
`))
	testutil.AssertNoError(t, err)
	want := []omgidl.Definition{{
		Name: "Header",
		Kind: omgidl.KindStruct,
		Fields: []omgidl.Field{
			{Name: "seq", Type: "uint32"},
			{
				Name:        "frame_id",
				Type:        "string",
				UpperBound:  32,
				Annotations: omgidl.Annotations{{Name: "key", Kind: omgidl.AnnotationNoParams}},
			},
			{Name: "w", Type: "uint8"},
			{Name: "b", Type: "int8"},
			{Name: "c", Type: "uint8"},
			{Name: "big", Type: "uint64"},
		},
	}}
	if diff := cmp.Diff(want, defs, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("ParseIDL() mismatch (-want +got):\n%s", diff)
	}
}
