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

package main

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"
)

type cmdResolve struct {
	*app
	outPath string
	format  string
	ros2    bool
}

func (*cmdResolve) help() *commandHelp {
	return &commandHelp{
		usage:   "resolve SCHEMA",
		summary: "Resolve an IDL schema and print its definitions",
	}
}

func (cmd *cmdResolve) flags(flags *pflag.FlagSet) {
	flags.StringVarP(&cmd.outPath, "output", "o", "", "Output file (default stdout)")
	flags.StringVarP(&cmd.format, "format", "f", "", "Output format: json, yaml or idl")
	flags.BoolVar(&cmd.ros2, "ros2", false, "Parse as a ROS 2 message schema")
}

func (cmd *cmdResolve) run(ctx context.Context, argv []string) int {
	if len(argv) != 1 {
		fmt.Fprintln(cmd.stderr, "usage: omgidl resolve SCHEMA")
		return 1
	}
	defs, err := cmd.loadSchema(argv[0], cmd.ros2)
	if err != nil {
		return cmd.fail(err)
	}
	output, err := marshal(cmd.setting(cmd.format, "format"), defs)
	if err != nil {
		return cmd.fail(err)
	}
	if err := cmd.writeOutput(cmd.outPath, output); err != nil {
		return cmd.fail(err)
	}
	return 0
}
