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
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"go.omgidl.dev/omgidl"
	"go.omgidl.dev/omgidl/compiler"
	"go.omgidl.dev/omgidl/encoding/idltext"
	"go.omgidl.dev/omgidl/ros2idl"
)

// loadSchema reads and resolves an IDL file. A ROS 2 schema may hold
// several concatenated files and names its types "pkg/msg/Name".
func (a *app) loadSchema(path string, ros2 bool) ([]omgidl.Definition, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	opts := []compiler.CompileOption{compiler.WithLogger(a.log)}
	var defs []omgidl.Definition
	if ros2 {
		defs, err = ros2idl.Parse(src, opts...)
	} else {
		defs, err = compiler.ParseIDL(src, opts...)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	a.log.Debug("schema loaded",
		zap.String("path", path),
		zap.Int("definitions", len(defs)),
	)
	return defs, nil
}

// readInput reads the named file, or stdin if path is empty or "-".
func (a *app) readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(a.stdin)
	}
	return os.ReadFile(path)
}

// writeOutput writes to the named file, or stdout if path is empty.
func (a *app) writeOutput(path string, output []byte) error {
	if path == "" {
		_, err := a.stdout.Write(output)
		return err
	}

	openFlags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	fp, err := os.OpenFile(path, openFlags, 0o666)
	if err != nil {
		return err
	}
	_, writeErr := fp.Write(output)
	closeErr := fp.Close()
	if writeErr != nil {
		return writeErr
	}
	return closeErr
}

func (a *app) fail(err error) int {
	fmt.Fprintln(a.stderr, err)
	return 1
}

func marshal(format string, v any) ([]byte, error) {
	switch format {
	case "json":
		out, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(out, '\n'), nil
	case "yaml":
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case "idl":
		defs, ok := v.([]omgidl.Definition)
		if !ok {
			return nil, fmt.Errorf("format %q is only supported for schemas", format)
		}
		return []byte(idltext.Encode(defs)), nil
	}
	return nil, fmt.Errorf("unsupported format %q (choose 'json', 'yaml' or 'idl')", format)
}

// unmarshalMessage decodes a JSON or YAML message for the writer. JSON
// numbers are kept as json.Number so that 64-bit integers survive.
func unmarshalMessage(format string, input []byte) (map[string]any, error) {
	var msg map[string]any
	switch format {
	case "json":
		dec := json.NewDecoder(bytes.NewReader(input))
		dec.UseNumber()
		if err := dec.Decode(&msg); err != nil {
			return nil, err
		}
	case "yaml":
		if err := yaml.Unmarshal(input, &msg); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported input format %q (choose 'json' or 'yaml')", format)
	}
	return msg, nil
}

// plainValue converts byte slices in a decoded message to integer lists,
// which encoding/json would otherwise write as base64.
func plainValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, value := range v {
			out[key] = plainValue(value)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for ii, value := range v {
			out[ii] = plainValue(value)
		}
		return out
	case []uint8:
		out := make([]uint16, len(v))
		for ii, b := range v {
			out[ii] = uint16(b)
		}
		return out
	}
	return v
}
