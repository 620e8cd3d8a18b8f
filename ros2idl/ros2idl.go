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

// Package ros2idl reads the concatenated IDL schemas that ROS 2 tooling
// embeds in message type descriptions.
//
// Each schema in the input is introduced by a header of 80 '=' characters
// followed by an "IDL: <package>/<path>/<Name>" line. Resolved names use
// "/" in place of "::", matching ROS 2 type names such as
// "std_msgs/msg/Header".
package ros2idl

import (
	"regexp"
	"strings"

	"go.omgidl.dev/omgidl"
	"go.omgidl.dev/omgidl/compiler"
)

var schemaHeader = regexp.MustCompile(`(?m)^={80}\nIDL: .*$`)

// The builtin time types are exposed with a "nsec" field, as in ROS 1.
var renamedFields = map[string]map[string]string{
	"builtin_interfaces/Time":         {"nanosec": "nsec"},
	"builtin_interfaces/Duration":     {"nanosec": "nsec"},
	"builtin_interfaces/msg/Time":     {"nanosec": "nsec"},
	"builtin_interfaces/msg/Duration": {"nanosec": "nsec"},
}

// Parse resolves a ROS 2 IDL message definition.
func Parse(src []byte, opts ...compiler.CompileOption) ([]omgidl.Definition, error) {
	defs, err := compiler.ParseIDL(schemaHeader.ReplaceAll(src, nil), opts...)
	if err != nil {
		return nil, err
	}
	for ii := range defs {
		rename(&defs[ii])
	}
	return defs, nil
}

func rename(def *omgidl.Definition) {
	def.Name = rosName(def.Name)
	renames := renamedFields[def.Name]
	renameField := func(f *omgidl.Field) {
		if f.IsComplex {
			f.Type = rosName(f.Type)
		}
		if name, ok := renames[f.Name]; ok {
			f.Name = name
		}
	}
	for ii := range def.Fields {
		renameField(&def.Fields[ii])
	}
	for ii := range def.Cases {
		renameField(&def.Cases[ii].Field)
	}
	if def.DefaultCase != nil {
		renameField(def.DefaultCase)
	}
}

func rosName(name string) string {
	return strings.ReplaceAll(name, omgidl.ScopeSeparator, "/")
}
