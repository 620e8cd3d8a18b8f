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

package syntax

import (
	"fmt"
	"math"
	"unicode/utf8"
)

const (
	maxSrcLen   = 0x7FFFFFFF // (2**31)-1
	maxTokenLen = int(math.MaxUint16)
)

type Token struct {
	Len  uint16
	Kind TokenKind
}

type TokenKind uint8

const (
	T_EOF TokenKind = iota

	T_SPACE
	T_NEWLINE
	T_COMMENT
	T_DIRECTIVE

	T_AT
	T_COLON
	T_SCOPE
	T_SEMI
	T_COMMA
	T_EQ

	T_OPEN_CURL
	T_CLOSE_CURL
	T_OPEN_PAREN
	T_CLOSE_PAREN
	T_OPEN_SQUARE
	T_CLOSE_SQUARE
	T_OPEN_ANGLE
	T_CLOSE_ANGLE

	T_PLUS
	T_MINUS
	T_STAR
	T_SLASH
	T_PERCENT
	T_PIPE
	T_AMP
	T_CARET
	T_TILDE
	T_SHIFT_LEFT

	T_INT_LIT
	T_FLOAT_LIT
	T_TEXT_LIT
	T_CHAR_LIT

	T_IDENT
)

func (k TokenKind) String() string {
	switch k {
	case T_EOF:
		return "EOF"
	case T_SPACE:
		return "SPACE"
	case T_NEWLINE:
		return "NEWLINE"
	case T_COMMENT:
		return "COMMENT"
	case T_DIRECTIVE:
		return "DIRECTIVE"
	case T_AT:
		return "AT"
	case T_COLON:
		return "COLON"
	case T_SCOPE:
		return "SCOPE"
	case T_SEMI:
		return "SEMI"
	case T_COMMA:
		return "COMMA"
	case T_EQ:
		return "EQ"
	case T_OPEN_CURL:
		return "OPEN_CURL"
	case T_CLOSE_CURL:
		return "CLOSE_CURL"
	case T_OPEN_PAREN:
		return "OPEN_PAREN"
	case T_CLOSE_PAREN:
		return "CLOSE_PAREN"
	case T_OPEN_SQUARE:
		return "OPEN_SQUARE"
	case T_CLOSE_SQUARE:
		return "CLOSE_SQUARE"
	case T_OPEN_ANGLE:
		return "OPEN_ANGLE"
	case T_CLOSE_ANGLE:
		return "CLOSE_ANGLE"
	case T_PLUS:
		return "PLUS"
	case T_MINUS:
		return "MINUS"
	case T_STAR:
		return "STAR"
	case T_SLASH:
		return "SLASH"
	case T_PERCENT:
		return "PERCENT"
	case T_PIPE:
		return "PIPE"
	case T_AMP:
		return "AMP"
	case T_CARET:
		return "CARET"
	case T_TILDE:
		return "TILDE"
	case T_SHIFT_LEFT:
		return "SHIFT_LEFT"
	case T_INT_LIT:
		return "INT_LIT"
	case T_FLOAT_LIT:
		return "FLOAT_LIT"
	case T_TEXT_LIT:
		return "TEXT_LIT"
	case T_CHAR_LIT:
		return "CHAR_LIT"
	case T_IDENT:
		return "IDENT"
	default:
		return fmt.Sprintf("TokenKind(%d)", uint8(k))
	}
}

// Tokens splits IDL source into tokens. A right shift is never produced
// as a single token, so that `sequence<string<5>>` closes two brackets;
// the expression parser joins adjacent `>` tokens instead.
type Tokens struct {
	src    []byte
	offset uint32
}

func NewTokens(src []byte) (*Tokens, error) {
	if len(src) > maxSrcLen {
		return nil, errSourceTooLong(len(src))
	}
	if !utf8.Valid(src) {
		return nil, errInvalidUtf8(src)
	}
	return &Tokens{
		src: src,
	}, nil
}

func (t *Tokens) Next(token *Token) error {
	if len(t.src) == 0 {
		*token = Token{
			Kind: T_EOF,
		}
		return nil
	}

	c := t.src[0]
	var kind TokenKind
	switch c {
	case '\t', ' ':
		return t.nextSpace(token)
	case '\n':
		kind = T_NEWLINE
		goto len1
	case '@':
		kind = T_AT
		goto len1
	case ':':
		if len(t.src) > 1 && t.src[1] == ':' {
			kind = T_SCOPE
			goto len2
		}
		kind = T_COLON
		goto len1
	case ';':
		kind = T_SEMI
		goto len1
	case ',':
		kind = T_COMMA
		goto len1
	case '=':
		kind = T_EQ
		goto len1
	case '{':
		kind = T_OPEN_CURL
		goto len1
	case '}':
		kind = T_CLOSE_CURL
		goto len1
	case '(':
		kind = T_OPEN_PAREN
		goto len1
	case ')':
		kind = T_CLOSE_PAREN
		goto len1
	case '[':
		kind = T_OPEN_SQUARE
		goto len1
	case ']':
		kind = T_CLOSE_SQUARE
		goto len1
	case '<':
		if len(t.src) > 1 && t.src[1] == '<' {
			kind = T_SHIFT_LEFT
			goto len2
		}
		kind = T_OPEN_ANGLE
		goto len1
	case '>':
		kind = T_CLOSE_ANGLE
		goto len1
	case '+':
		kind = T_PLUS
		goto len1
	case '-':
		kind = T_MINUS
		goto len1
	case '*':
		kind = T_STAR
		goto len1
	case '%':
		kind = T_PERCENT
		goto len1
	case '|':
		kind = T_PIPE
		goto len1
	case '&':
		kind = T_AMP
		goto len1
	case '^':
		kind = T_CARET
		goto len1
	case '~':
		kind = T_TILDE
		goto len1
	case '/':
		if len(t.src) > 1 && (t.src[1] == '/' || t.src[1] == '*') {
			return t.nextComment(token)
		}
		kind = T_SLASH
		goto len1
	case '#':
		return t.nextDirective(token)
	case '"':
		return t.nextQuoted(token, '"', T_TEXT_LIT)
	case '\'':
		return t.nextQuoted(token, '\'', T_CHAR_LIT)
	case '.':
		if len(t.src) > 1 && t.src[1] >= '0' && t.src[1] <= '9' {
			return t.nextNumLit(token)
		}
		return errUnexpectedCharacter(t.offset, '.')
	case '\r':
		if len(t.src) < 2 || t.src[1] != '\n' {
			return errForbiddenControlCharacter(t.offset, c)
		}
		kind = T_NEWLINE
		goto len2
	default:
		goto big
	}

len1:
	*token = Token{
		Kind: kind,
		Len:  1,
	}
	t.offset += 1
	t.src = t.src[1:]
	return nil

len2:
	*token = Token{
		Kind: kind,
		Len:  2,
	}
	t.offset += 2
	t.src = t.src[2:]
	return nil

big:
	if c >= '0' && c <= '9' {
		return t.nextNumLit(token)
	}

	if (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || c == '_' {
		return t.nextIdent(token)
	}

	r, _ := utf8.DecodeRune(t.src)
	if r == '\u00A0' {
		return t.nextSpace(token)
	}

	if r < 0x20 || r == 0x7F {
		return errForbiddenControlCharacter(t.offset, c)
	}
	return errUnexpectedCharacter(t.offset, r)
}

func (t *Tokens) nextSpace(token *Token) error {
	src := t.src
	for {
		if src[0] == ' ' || src[0] == '\t' {
			src = src[1:]
		} else if r, runeLen := utf8.DecodeRune(src); r == '\u00A0' {
			src = src[runeLen:]
		} else {
			break
		}
		if len(src) == 0 {
			break
		}
	}
	return t.emit(token, T_SPACE, len(t.src)-len(src))
}

func (t *Tokens) nextComment(token *Token) error {
	src := t.src
	if src[1] == '/' {
		for ii, c := range src {
			if c == '\n' || c == '\r' {
				src = src[:ii]
				break
			}
		}
		return t.emit(token, T_COMMENT, len(src))
	}

	for ii := 2; ii+1 < len(src); ii++ {
		if src[ii] == '*' && src[ii+1] == '/' {
			return t.emit(token, T_COMMENT, ii+2)
		}
	}
	return errCommentUnterminated(t.offset, uint32(len(src)))
}

// Preprocessor lines such as `#include` and `#pragma` are kept as single
// tokens and never interpreted.
func (t *Tokens) nextDirective(token *Token) error {
	src := t.src
	for ii, c := range src {
		if c == '\n' || c == '\r' {
			src = src[:ii]
			break
		}
	}
	return t.emit(token, T_DIRECTIVE, len(src))
}

func (t *Tokens) nextNumLit(token *Token) error {
	src := t.src
	ii := 0
	digits := func() int {
		start := ii
		for ii < len(src) && src[ii] >= '0' && src[ii] <= '9' {
			ii++
		}
		return ii - start
	}

	kind := T_INT_LIT
	invalid := false
	digits()
	if ii < len(src) && src[ii] == '.' {
		kind = T_FLOAT_LIT
		ii++
		digits()
	}
	if ii < len(src) && (src[ii] == 'e' || src[ii] == 'E') {
		kind = T_FLOAT_LIT
		ii++
		if ii < len(src) && (src[ii] == '+' || src[ii] == '-') {
			ii++
		}
		if digits() == 0 {
			invalid = true
		}
	}
	if ii < len(src) && (src[ii] == 'd' || src[ii] == 'D') {
		kind = T_FLOAT_LIT
		ii++
	}

	// Hex, octal-prefixed and otherwise suffixed literals are not
	// supported. Consume the whole run so the error covers it.
	for ii < len(src) {
		c := src[ii]
		if (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '_' {
			invalid = true
			ii++
			continue
		}
		break
	}

	if invalid {
		if kind == T_FLOAT_LIT {
			return errFloatLitInvalid(t.offset, src[:ii])
		}
		return errIntLitInvalid(t.offset, src[:ii])
	}
	return t.emit(token, kind, ii)
}

func (t *Tokens) nextQuoted(token *Token, quote byte, kind TokenKind) error {
	escaped := false
	for ii, c := range t.src {
		if ii == 0 {
			continue
		}
		if escaped {
			escaped = false
			continue
		}
		if c == quote {
			return t.emit(token, kind, ii+1)
		}
		if (c <= 0x1F || c == 0x7F) && c != 0x09 {
			off := t.offset + uint32(ii)
			if c == 0x0A {
				return errTextLitContainsNewline(off, 1)
			}
			if c == 0x0D && ii+1 < len(t.src) && t.src[ii+1] == 0x0A {
				return errTextLitContainsNewline(off, 2)
			}
			return errForbiddenControlCharacter(off, c)
		}
		escaped = c == '\\'
	}
	return errTextLitUnterminated(t.offset, uint32(len(t.src)))
}

func (t *Tokens) nextIdent(token *Token) error {
	src := t.src
	for ii, c := range src {
		if (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '_' {
			continue
		}
		src = src[:ii]
		break
	}
	return t.emit(token, T_IDENT, len(src))
}

func (t *Tokens) emit(token *Token, kind TokenKind, tokenLen int) error {
	if tokenLen > maxTokenLen {
		return errTokenTooLong(t.offset, tokenLen)
	}
	*token = Token{
		Kind: kind,
		Len:  uint16(tokenLen),
	}
	t.offset += uint32(tokenLen)
	t.src = t.src[tokenLen:]
	return nil
}
