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

// Package testutil holds assertions and fixtures shared by the package
// tests.
package testutil

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"regexp"
	"testing"

	"go.omgidl.dev/omgidl/syntax"
)

//go:embed testdata
var testdataFS embed.FS

func TestdataFS() (fs.FS, error) {
	return fs.Sub(testdataFS, "testdata")
}

// A Diagnostic is the expected code and message of an error, as listed
// in one of the testdata/diagnostics catalogs.
type Diagnostic struct {
	code    uint32
	message string
	pattern *regexp.Regexp
}

func (d *Diagnostic) Code() uint32 {
	return d.code
}

func (d *Diagnostic) Message() string {
	return d.message
}

func (d *Diagnostic) MessagePattern() *regexp.Regexp {
	return d.pattern
}

// LoadDiagnostics reads a catalog of named diagnostics. Keys starting
// with an underscore reserve a code without describing it.
func LoadDiagnostics(testdata fs.FS, path string) (map[string]*Diagnostic, error) {
	type rawDiagnostic struct {
		Code    uint32 `json:"code"`
		Message string `json:"message"`
		Pattern string `json:"message_pattern"`
	}

	jsonData, err := fs.ReadFile(testdata, path)
	if err != nil {
		return nil, err
	}

	var rawDiagnostics map[string]rawDiagnostic
	decoder := json.NewDecoder(bytes.NewReader(jsonData))
	decoder.UseNumber()
	if err := decoder.Decode(&rawDiagnostics); err != nil {
		return nil, err
	}

	out := make(map[string]*Diagnostic, len(rawDiagnostics))
	codes := make(map[uint32]struct{}, len(rawDiagnostics))
	for key, raw := range rawDiagnostics {
		if key[0] == '_' {
			if raw.Code != 0 {
				if _, conflict := codes[raw.Code]; conflict {
					return nil, fmt.Errorf("%s: duplicate code %d", path, raw.Code)
				}
				codes[raw.Code] = struct{}{}
			}
			continue
		}

		if raw.Code == 0 {
			return nil, fmt.Errorf("%s: diagnostic %q has no code", path, key)
		}
		if _, conflict := codes[raw.Code]; conflict {
			return nil, fmt.Errorf("%s: duplicate code %d", path, raw.Code)
		}
		codes[raw.Code] = struct{}{}

		var pattern *regexp.Regexp
		if raw.Pattern != "" {
			pattern, err = regexp.Compile("(?i)" + raw.Pattern)
			if err != nil {
				return nil, err
			}
		}
		out[key] = &Diagnostic{
			code:    raw.Code,
			message: raw.Message,
			pattern: pattern,
		}
	}

	return out, nil
}

// CodedError is implemented by the error types of the syntax, compiler
// and cdr packages.
type CodedError interface {
	error
	Code() uint32
	Message() string
}

// ExpectDiagnostic checks an error against a catalog entry.
func ExpectDiagnostic(t *testing.T, want *Diagnostic, err error) {
	t.Helper()
	coded, ok := err.(CodedError)
	if !ok {
		t.Errorf("Expected coded error E%d, got: %v", want.Code(), err)
		return
	}
	ExpectEq(t, want.Code(), coded.Code())
	if pattern := want.MessagePattern(); pattern != nil {
		ExpectMatch(t, pattern, coded.Message())
	} else if message := want.Message(); message != "" {
		ExpectEq(t, message, coded.Message())
	}
}

// TokenCases are the tokenizer fixtures of one testdata/tokens file.
type TokenCases struct {
	ExpectOK  []TokenCase      `json:"expect_ok"`
	ExpectErr []TokenErrorCase `json:"expect_err"`
}

// A TokenCase lists the (kind, text) pairs that a source tokenizes to.
type TokenCase struct {
	Source string      `json:"source"`
	Tokens [][2]string `json:"tokens"`
}

// A TokenErrorCase names the diagnostic that tokenizing Source fails with.
type TokenErrorCase struct {
	Source    string `json:"source"`
	Error     string `json:"error"`
	ErrorSpan struct {
		Start uint32 `json:"start"`
		Len   uint32 `json:"len"`
	} `json:"error_span"`
}

func (c *TokenErrorCase) Span() syntax.Span {
	return syntax.NewSpan(c.ErrorSpan.Start, c.ErrorSpan.Len)
}

func LoadTokenCases(testdata fs.FS, path string) (*TokenCases, error) {
	jsonData, err := fs.ReadFile(testdata, path)
	if err != nil {
		return nil, err
	}
	var cases TokenCases
	decoder := json.NewDecoder(bytes.NewReader(jsonData))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&cases); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cases, nil
}
