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

package idltext_test

import (
	"testing"

	"github.com/google/go-cmp/cmp/cmpopts"

	"go.omgidl.dev/omgidl"
	"go.omgidl.dev/omgidl/compiler"
	"go.omgidl.dev/omgidl/encoding/idltext"
	"go.omgidl.dev/omgidl/internal/testutil"
)

const sceneIDL = `
module geometry {
  const short MAX = 2 * 5;
  @appendable
  struct Point { double x; double y; };
  enum Kind { CIRCLE, @value(5) SQUARE, TRIANGLE };
  @mutable
  union Shape switch (Kind) {
    case CIRCLE: double radius;
    case SQUARE: case TRIANGLE: sequence<Point, 4> corners;
    default: string<8> label;
  };
};
struct Scene {
  @key string<32> name;
  geometry::Point origin;
  float grid[2][3];
  @optional sequence<geometry::Shape> shapes;
  @default(1.5) double scale;
};
const string GREETING = "hello";
`

func TestEncode(t *testing.T) {
	t.Parallel()

	defs, err := compiler.ParseIDL([]byte(sceneIDL))
	testutil.AssertNoError(t, err)
	testutil.ExpectNoDiff(t, `module geometry {
	const short MAX = 10;
	@appendable
	struct Point {
		double x;
		double y;
	};
	enum Kind {
		CIRCLE,
		@value(5) SQUARE,
		TRIANGLE
	};
	@mutable
	union Shape switch (unsigned long) {
		case 0:
			double radius;
		case 5:
		case 6:
			sequence<geometry::Point, 4> corners;
		default:
			string<8> label;
	};
};
struct Scene {
	@key string<32> name;
	geometry::Point origin;
	float grid[2][3];
	@optional sequence<geometry::Shape> shapes;
	@default(1.5) double scale;
};
const string GREETING = "hello";
`, idltext.Encode(defs))
}

func TestEncodeRoundTrip(t *testing.T) {
	t.Parallel()

	defs, err := compiler.ParseIDL([]byte(sceneIDL))
	testutil.AssertNoError(t, err)
	reparsed, err := compiler.ParseIDL([]byte(idltext.Encode(defs)))
	testutil.AssertNoError(t, err)
	testutil.ExpectDeepEq(t, defs, reparsed,
		cmpopts.EquateEmpty(),
		cmpopts.IgnoreFields(omgidl.Field{}, "ValueText"),
	)
}

func TestEncodeScalars(t *testing.T) {
	t.Parallel()

	defs, err := compiler.ParseIDL([]byte(`
module limits {
  const boolean ENABLED = TRUE;
  const double WHOLE = 2;
  const float THIRD = 1.0 / 4;
  const long long LOW = -5;
  @extensibility(MUTABLE)
  struct Range { @range(min=0, max=10) long value; };
};
`))
	testutil.AssertNoError(t, err)
	testutil.ExpectNoDiff(t, `module limits {
	const boolean ENABLED = TRUE;
	const double WHOLE = 2.0;
	const float THIRD = 0.25;
	const long long LOW = -5;
	@extensibility(MUTABLE)
	struct Range {
		@range(min=0, max=10) long value;
	};
};
`, idltext.Encode(defs))
}

func TestEncodeRos2Names(t *testing.T) {
	t.Parallel()

	defs := []omgidl.Definition{
		{
			Name: "geometry_msgs/msg/Point",
			Kind: omgidl.KindStruct,
			Fields: []omgidl.Field{
				{Name: "x", Type: omgidl.TypeFloat64},
			},
		},
		{
			Name: "geometry_msgs/msg/Polygon",
			Kind: omgidl.KindStruct,
			Fields: []omgidl.Field{
				{Name: "points", Type: "geometry_msgs/msg/Point", IsComplex: true, IsArray: true},
				{Name: "stamp", Type: "builtin_interfaces/Time", IsComplex: true},
			},
		},
		{
			Name: "std_msgs/msg/Empty",
			Kind: omgidl.KindStruct,
		},
	}
	testutil.ExpectNoDiff(t, `module geometry_msgs {
	module msg {
		struct Point {
			double x;
		};
		struct Polygon {
			sequence<geometry_msgs::msg::Point> points;
			builtin_interfaces::Time stamp;
		};
	};
};
module std_msgs {
	module msg {
		struct Empty {
		};
	};
};
`, idltext.Encode(defs))
}
