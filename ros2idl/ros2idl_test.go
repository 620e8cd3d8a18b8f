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

package ros2idl_test

import (
	"strings"
	"testing"

	"go.omgidl.dev/omgidl"
	"go.omgidl.dev/omgidl/internal/testutil"
	"go.omgidl.dev/omgidl/ros2idl"
)

var separator = strings.Repeat("=", 80)

func TestParseConcatenatedSchemas(t *testing.T) {
	t.Parallel()

	src := `
` + separator + `
IDL: std_msgs/msg/Header
module std_msgs {
  module msg {
    struct Header {
      builtin_interfaces::msg::Time stamp;
      string frame_id;
    };
  };
};

` + separator + `
IDL: builtin_interfaces/msg/Time
module builtin_interfaces {
  module msg {
    struct Time {
      int32 sec;
      uint32 nanosec;
    };
  };
};
`
	defs, err := ros2idl.Parse([]byte(src))
	testutil.AssertNoError(t, err)

	testutil.ExpectDeepEq(t, []omgidl.Definition{
		{
			Name: "std_msgs/msg/Header",
			Kind: omgidl.KindStruct,
			Fields: []omgidl.Field{
				{Name: "stamp", Type: "builtin_interfaces/msg/Time", IsComplex: true},
				{Name: "frame_id", Type: "string"},
			},
		},
		{
			Name: "builtin_interfaces/msg/Time",
			Kind: omgidl.KindStruct,
			Fields: []omgidl.Field{
				{Name: "sec", Type: "int32"},
				{Name: "nsec", Type: "uint32"},
			},
		},
	}, defs)
}

func TestParseRenamesBuiltinTime(t *testing.T) {
	t.Parallel()

	defs, err := ros2idl.Parse([]byte(`
module builtin_interfaces {
  struct Time { int32 sec; uint32 nanosec; };
  struct Duration { int32 sec; uint32 nanosec; };
};
`))
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, 2, len(defs))
	for _, def := range defs {
		testutil.ExpectEq(t, "nsec", def.Fields[1].Name)
	}
	testutil.ExpectEq(t, "builtin_interfaces/Time", defs[0].Name)
	testutil.ExpectEq(t, "builtin_interfaces/Duration", defs[1].Name)
}

func TestParseConstantsModule(t *testing.T) {
	t.Parallel()

	defs, err := ros2idl.Parse([]byte(separator + `
IDL: rosidl/action/MyAction
module rosidl {
  module action {
    module MyAction_Goal_Constants {
      const short SHORT_CONSTANT = -23;
    };
    struct MyAction_Goal {
      sequence<rosidl::action::MyAction_Goal_Item, 4> items;
    };
    struct MyAction_Goal_Item { octet value; };
  };
};
`))
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, "rosidl/action/MyAction_Goal_Constants", defs[0].Name)
	testutil.ExpectEq(t, omgidl.KindModule, defs[0].Kind)
	testutil.ExpectEq[any](t, int16(-23), defs[0].Fields[0].Value)

	items := defs[1].Fields[0]
	testutil.ExpectEq(t, "rosidl/action/MyAction_Goal_Item", items.Type)
	testutil.ExpectEq(t, 4, items.ArrayUpperBound)
}

func TestParseError(t *testing.T) {
	t.Parallel()

	_, err := ros2idl.Parse([]byte(separator + "\nIDL: a/b\nstruct A { Missing x; };\n"))
	testutil.AssertError(t, err)
}
