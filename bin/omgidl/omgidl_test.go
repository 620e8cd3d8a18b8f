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
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pointIDL = `
module geometry {
  @appendable
  struct Point { double x; double y; };
};
`

type result struct {
	code   int
	stdout string
	stderr string
}

func run(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	a := &app{
		stdin:  strings.NewReader(stdin),
		stdout: &stdout,
		stderr: &stderr,
	}
	code := a.execute(context.Background(), args)
	return result{code, stdout.String(), stderr.String()}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestResolve(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	schema := writeFile(t, dir, "point.idl", pointIDL)

	res := run(t, "", "resolve", schema)
	require.Equal(t, 0, res.code, res.stderr)

	var defs []map[string]any
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &defs))
	require.Len(t, defs, 1)
	assert.Equal(t, "geometry::Point", defs[0]["Name"])
	assert.Equal(t, "struct", defs[0]["Kind"])

	res = run(t, "", "resolve", "--format", "idl", schema)
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "module geometry {\n\t@appendable\n\tstruct Point {\n")

	res = run(t, "", "resolve", "-f", "yaml", schema)
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "geometry::Point")
	assert.Contains(t, res.stdout, "kind: struct")
}

func TestResolveRos2(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	schema := writeFile(t, dir, "time.idl", `
module builtin_interfaces { module msg {
  struct Time { int32 sec; uint32 nanosec; };
}; };
`)
	res := run(t, "", "resolve", "--ros2", schema)
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, `"Name": "builtin_interfaces/msg/Time"`)
	assert.Contains(t, res.stdout, `"Name": "nsec"`)
}

func TestEncodeDecode(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	schema := writeFile(t, dir, "point.idl", pointIDL)
	encoded := filepath.Join(dir, "point.cdr")

	res := run(t, `{"x": 1.5, "y": -2}`,
		"encode", "--schema", schema, "--type", "geometry::Point", "-o", encoded)
	require.Equal(t, 0, res.code, res.stderr)

	buf, err := os.ReadFile(encoded)
	require.NoError(t, err)
	require.Len(t, buf, 20)
	assert.Equal(t, []byte{0x00, 0x01, 0x00, 0x00}, buf[:4])

	res = run(t, "", "decode", "-s", schema, "-t", "geometry::Point", encoded)
	require.Equal(t, 0, res.code, res.stderr)
	var msg map[string]any
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &msg))
	assert.Equal(t, map[string]any{"x": 1.5, "y": -2.0}, msg)

	// The message is read from stdin without a positional argument.
	res = run(t, string(buf), "decode", "-s", schema, "-t", "geometry::Point", "--format", "yaml")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "x: 1.5")
}

func TestEncodeYAMLInput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	schema := writeFile(t, dir, "bytes.idl", `struct Blob { sequence<octet> data; };`)
	encoded := filepath.Join(dir, "blob.cdr")

	res := run(t, "data: [1, 2, 255]\n",
		"encode", "-s", schema, "-t", "Blob", "-i", "yaml", "-e", "CDR_BE", "-o", encoded)
	require.Equal(t, 0, res.code, res.stderr)

	buf, err := os.ReadFile(encoded)
	require.NoError(t, err)
	assert.Equal(t, []byte{
		0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x03,
		0x01, 0x02, 0xff,
	}, buf)

	res = run(t, "", "decode", "-s", schema, "-t", "Blob", encoded)
	require.Equal(t, 0, res.code, res.stderr)
	assert.JSONEq(t, `{"data": [1, 2, 255]}`, res.stdout)
}

func TestSizeUsesConfig(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	schema := writeFile(t, dir, "point.idl", pointIDL)
	config := writeFile(t, dir, "omgidl.yaml", "encapsulation: DELIMITED_CDR2_LE\n")

	res := run(t, `{"x": 1}`, "size", "-s", schema, "-t", "geometry::Point")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Equal(t, "20\n", res.stdout)

	// XCDR2 adds a delimiter header to appendable types.
	res = run(t, `{"x": 1}`, "--config", config, "size", "-s", schema, "-t", "geometry::Point")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Equal(t, "24\n", res.stdout)

	// Flags take precedence over the config file.
	res = run(t, `{"x": 1}`, "--config", config, "size", "-s", schema, "-t", "geometry::Point", "-e", "CDR_LE")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Equal(t, "20\n", res.stdout)
}

func TestErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	schema := writeFile(t, dir, "point.idl", pointIDL)
	broken := writeFile(t, dir, "broken.idl", "struct A { long x }")

	tests := []struct {
		name   string
		stdin  string
		args   []string
		stderr string
	}{
		{"missing type", "", []string{"decode", "-s", schema}, "--schema and --type are required"},
		{"unknown type", "", []string{"decode", "-s", schema, "-t", "Nope"}, "root type not found"},
		{"parse error", "", []string{"resolve", broken}, "broken.idl"},
		{"bad format", "", []string{"resolve", "-f", "xml", schema}, `unsupported format "xml"`},
		{"bad encapsulation", "{}", []string{"encode", "-s", schema, "-t", "geometry::Point", "-e", "CDR3"}, "CDR3"},
		{"bad value", `{"x": "one"}`, []string{"encode", "-s", schema, "-t", "geometry::Point"}, "invalid value"},
		{"bad log level", "", []string{"--log-level", "loud", "resolve", schema}, "invalid log level"},
		{"missing config", "", []string{"--config", filepath.Join(dir, "missing.yaml"), "resolve", schema}, "reading config"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			res := run(t, test.stdin, test.args...)
			assert.Equal(t, 1, res.code)
			assert.Contains(t, res.stderr, test.stderr)
		})
	}
}

func TestDebugLogging(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	schema := writeFile(t, dir, "point.idl", pointIDL)

	res := run(t, "", "--log-level", "debug", "resolve", schema)
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stderr, "schema loaded")
}
