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
	"strconv"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"go.omgidl.dev/omgidl/encoding/cdr"
	"go.omgidl.dev/omgidl/encoding/cdrmsg"
)

// schemaFlags select the root type of a message.
type schemaFlags struct {
	schemaPath string
	typeName   string
	ros2       bool
}

func (f *schemaFlags) register(flags *pflag.FlagSet) {
	flags.StringVarP(&f.schemaPath, "schema", "s", "", "IDL schema file")
	flags.StringVarP(&f.typeName, "type", "t", "", "Scoped name of the message type")
	flags.BoolVar(&f.ros2, "ros2", false, "Parse the schema as a ROS 2 message schema")
}

func (f *schemaFlags) check() error {
	if f.schemaPath == "" || f.typeName == "" {
		return fmt.Errorf("both --schema and --type are required")
	}
	return nil
}

type cmdDecode struct {
	*app
	schema  schemaFlags
	outPath string
	format  string
}

func (*cmdDecode) help() *commandHelp {
	return &commandHelp{
		usage:   "decode --schema SCHEMA --type TYPE [MESSAGE]",
		summary: "Decode a CDR message (from a file or stdin)",
	}
}

func (cmd *cmdDecode) flags(flags *pflag.FlagSet) {
	cmd.schema.register(flags)
	flags.StringVarP(&cmd.outPath, "output", "o", "", "Output file (default stdout)")
	flags.StringVarP(&cmd.format, "format", "f", "", "Output format: json or yaml")
}

func (cmd *cmdDecode) run(ctx context.Context, argv []string) int {
	if err := cmd.schema.check(); err != nil {
		return cmd.fail(err)
	}
	if len(argv) > 1 {
		fmt.Fprintln(cmd.stderr, "usage: omgidl decode --schema SCHEMA --type TYPE [MESSAGE]")
		return 1
	}
	defs, err := cmd.loadSchema(cmd.schema.schemaPath, cmd.schema.ros2)
	if err != nil {
		return cmd.fail(err)
	}
	reader, err := cdrmsg.NewReader(cmd.schema.typeName, defs, cdrmsg.WithLogger(cmd.log))
	if err != nil {
		return cmd.fail(err)
	}

	var inPath string
	if len(argv) == 1 {
		inPath = argv[0]
	}
	buf, err := cmd.readInput(inPath)
	if err != nil {
		return cmd.fail(err)
	}
	msg, err := reader.ReadMessage(buf)
	if err != nil {
		return cmd.fail(err)
	}
	output, err := marshal(cmd.setting(cmd.format, "format"), plainValue(msg))
	if err != nil {
		return cmd.fail(err)
	}
	if err := cmd.writeOutput(cmd.outPath, output); err != nil {
		return cmd.fail(err)
	}
	return 0
}

// writerFlags configure commands that encode messages.
type writerFlags struct {
	schema        schemaFlags
	encapsulation string
	inputFormat   string
}

func (f *writerFlags) register(flags *pflag.FlagSet) {
	f.schema.register(flags)
	flags.StringVarP(&f.encapsulation, "encapsulation", "e", "", "Encapsulation kind, by name (CDR_LE, PL_CDR2_LE, ...) or number")
	flags.StringVarP(&f.inputFormat, "input-format", "i", "json", "Input format: json or yaml")
}

// newWriter loads the schema and the message to encode.
func (a *app) newWriter(f *writerFlags, argv []string) (*cdrmsg.Writer, map[string]any, error) {
	if err := f.schema.check(); err != nil {
		return nil, nil, err
	}
	if len(argv) > 1 {
		return nil, nil, fmt.Errorf("expected at most one input file, got %d", len(argv))
	}
	kind, err := cdr.ParseEncapsulationKind(a.setting(f.encapsulation, "encapsulation"))
	if err != nil {
		return nil, nil, err
	}
	defs, err := a.loadSchema(f.schema.schemaPath, f.schema.ros2)
	if err != nil {
		return nil, nil, err
	}
	writer, err := cdrmsg.NewWriter(f.schema.typeName, defs,
		cdrmsg.WithEncapsulationKind(kind),
		cdrmsg.WithLogger(a.log),
	)
	if err != nil {
		return nil, nil, err
	}

	var inPath string
	if len(argv) == 1 {
		inPath = argv[0]
	}
	input, err := a.readInput(inPath)
	if err != nil {
		return nil, nil, err
	}
	msg, err := unmarshalMessage(f.inputFormat, input)
	if err != nil {
		return nil, nil, err
	}
	a.log.Debug("encoding message",
		zap.String("type", f.schema.typeName),
		zap.Stringer("encapsulation", kind),
	)
	return writer, msg, nil
}

type cmdEncode struct {
	*app
	writer  writerFlags
	outPath string
}

func (*cmdEncode) help() *commandHelp {
	return &commandHelp{
		usage:   "encode --schema SCHEMA --type TYPE [INPUT]",
		summary: "Encode a JSON or YAML message as CDR",
	}
}

func (cmd *cmdEncode) flags(flags *pflag.FlagSet) {
	cmd.writer.register(flags)
	flags.StringVarP(&cmd.outPath, "output", "o", "", "Output file (default stdout)")
}

func (cmd *cmdEncode) run(ctx context.Context, argv []string) int {
	writer, msg, err := cmd.newWriter(&cmd.writer, argv)
	if err != nil {
		return cmd.fail(err)
	}
	buf, err := writer.WriteMessage(msg)
	if err != nil {
		return cmd.fail(err)
	}
	if err := cmd.writeOutput(cmd.outPath, buf); err != nil {
		return cmd.fail(err)
	}
	return 0
}

type cmdSize struct {
	*app
	writer writerFlags
}

func (*cmdSize) help() *commandHelp {
	return &commandHelp{
		usage:   "size --schema SCHEMA --type TYPE [INPUT]",
		summary: "Print the encoded size in bytes of a JSON or YAML message",
	}
}

func (cmd *cmdSize) flags(flags *pflag.FlagSet) {
	cmd.writer.register(flags)
}

func (cmd *cmdSize) run(ctx context.Context, argv []string) int {
	writer, msg, err := cmd.newWriter(&cmd.writer, argv)
	if err != nil {
		return cmd.fail(err)
	}
	size, err := writer.CalculateByteSize(msg)
	if err != nil {
		return cmd.fail(err)
	}
	if err := cmd.writeOutput("", []byte(strconv.Itoa(size)+"\n")); err != nil {
		return cmd.fail(err)
	}
	return 0
}
