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

// Package syntax parses OMG IDL source text into declaration nodes.
//
// The accepted language is the subset used by DDS and ROS 2 message
// definitions: modules, structs, unions, enums, typedefs, constants and
// annotations. Preprocessor lines are skipped without interpretation.
package syntax

import (
	"math"
	"strconv"
	"strings"

	"go.omgidl.dev/omgidl"
)

// Parse parses an IDL source file into its top-level declarations.
func Parse(src []byte) ([]Node, error) {
	ctx, err := newParseCtx(src)
	if err != nil {
		return nil, err
	}
	nodes := ctx.definitions(T_EOF)
	if ctx.err != nil {
		return nil, ctx.err
	}
	return nodes, nil
}

type parseCtx struct {
	src       []byte
	tokens    *Tokens
	haveToken bool
	token     Token
	err       error
	consumed  uint32
	offset    uint32
	lastEnd   uint32

	// Greater than zero while parsing the bounds of `string<...>` and
	// `sequence<...>`, where `>>` closes two brackets.
	templateDepth int
}

func newParseCtx(src []byte) (*parseCtx, error) {
	tokens, err := NewTokens(src)
	if err != nil {
		return nil, err
	}
	return &parseCtx{
		src:    src,
		tokens: tokens,
	}, nil
}

// ensureToken loads the next significant token. Spaces, newlines,
// comments and preprocessor lines are skipped.
func (ctx *parseCtx) ensureToken() error {
	if ctx.err != nil {
		return ctx.err
	}
	if ctx.haveToken {
		return nil
	}
	for {
		if err := ctx.tokens.Next(&ctx.token); err != nil {
			ctx.err = err
			return ctx.err
		}
		ctx.offset = ctx.tokens.offset - uint32(ctx.token.Len)
		switch ctx.token.Kind {
		case T_SPACE, T_NEWLINE, T_COMMENT, T_DIRECTIVE:
			continue
		}
		break
	}
	ctx.haveToken = true
	return nil
}

func (ctx *parseCtx) readToken() string {
	return string(ctx.src[ctx.offset : ctx.offset+uint32(ctx.token.Len)])
}

func (ctx *parseCtx) consumeToken() {
	ctx.consumed += 1
	ctx.lastEnd = ctx.offset + uint32(ctx.token.Len)
	ctx.haveToken = false
}

func (ctx *parseCtx) tokenSpan() Span {
	return Span{
		start: ctx.offset,
		len:   uint32(ctx.token.Len),
	}
}

func (ctx *parseCtx) spanFrom(start uint32) Span {
	return Span{
		start: start,
		len:   ctx.lastEnd - start,
	}
}

// peekKind returns the kind of the next significant token.
func (ctx *parseCtx) peekKind() TokenKind {
	if err := ctx.ensureToken(); err != nil {
		return T_EOF
	}
	return ctx.token.Kind
}

func (ctx *parseCtx) start() uint32 {
	if err := ctx.ensureToken(); err != nil {
		return ctx.lastEnd
	}
	return ctx.offset
}

type parseMark struct {
	tokens    Tokens
	haveToken bool
	token     Token
	consumed  uint32
	offset    uint32
	lastEnd   uint32
}

func (ctx *parseCtx) mark() parseMark {
	return parseMark{
		tokens:    *ctx.tokens,
		haveToken: ctx.haveToken,
		token:     ctx.token,
		consumed:  ctx.consumed,
		offset:    ctx.offset,
		lastEnd:   ctx.lastEnd,
	}
}

func (ctx *parseCtx) reset(m parseMark) {
	*ctx.tokens = m.tokens
	ctx.haveToken = m.haveToken
	ctx.token = m.token
	ctx.consumed = m.consumed
	ctx.offset = m.offset
	ctx.lastEnd = m.lastEnd
}

// loop yields until the body stops consuming tokens or an error is set.
func (ctx *parseCtx) loop(yield func(struct{}) bool) {
	if ctx.err != nil {
		return
	}
	for {
		consumed := ctx.consumed
		if !yield(struct{}{}) {
			return
		}
		if ctx.err != nil {
			return
		}
		if consumed == ctx.consumed {
			return
		}
	}
}

func (ctx *parseCtx) sigil(kind TokenKind) {
	if err := ctx.ensureToken(); err != nil {
		return
	}
	if ctx.token.Kind != kind {
		ctx.err = errExpectedSigil(kind, ctx.token.Kind, ctx.readToken(), ctx.tokenSpan())
		return
	}
	ctx.consumeToken()
}

func (ctx *parseCtx) trySigil(kind TokenKind) bool {
	if err := ctx.ensureToken(); err != nil {
		return false
	}
	if ctx.token.Kind != kind {
		return false
	}
	ctx.consumeToken()
	return true
}

func (ctx *parseCtx) peekKeyword(keyword string) bool {
	if err := ctx.ensureToken(); err != nil {
		return false
	}
	return ctx.token.Kind == T_IDENT && ctx.readToken() == keyword
}

func (ctx *parseCtx) tryKeyword(keyword string) bool {
	if !ctx.peekKeyword(keyword) {
		return false
	}
	ctx.consumeToken()
	return true
}

func (ctx *parseCtx) ident() string {
	if err := ctx.ensureToken(); err != nil {
		return ""
	}
	token := ctx.readToken()
	if ctx.token.Kind != T_IDENT {
		ctx.err = errExpectedIdent(ctx.token.Kind, token, ctx.tokenSpan())
		return ""
	}
	ctx.consumeToken()
	return token
}

// scopedName reads `[::]ident{::ident}`.
func (ctx *parseCtx) scopedName() string {
	var buf strings.Builder
	if ctx.trySigil(T_SCOPE) {
		buf.WriteString(omgidl.ScopeSeparator)
	}
	buf.WriteString(ctx.ident())
	for _ = range ctx.loop {
		if !ctx.trySigil(T_SCOPE) {
			break
		}
		buf.WriteString(omgidl.ScopeSeparator)
		buf.WriteString(ctx.ident())
	}
	return buf.String()
}

func (ctx *parseCtx) definitions(end TokenKind) []Node {
	var nodes []Node
	for _ = range ctx.loop {
		if kind := ctx.peekKind(); kind == end || kind == T_EOF {
			break
		}
		nodes = append(nodes, ctx.definition()...)
	}
	return nodes
}

func (ctx *parseCtx) definition() []Node {
	start := ctx.start()
	annotations := ctx.annotations()
	if err := ctx.ensureToken(); err != nil {
		return nil
	}
	if ctx.token.Kind == T_SEMI {
		ctx.consumeToken()
		return nil
	}
	if ctx.token.Kind != T_IDENT {
		ctx.err = errExpectedDefinition(ctx.token.Kind, ctx.readToken(), ctx.tokenSpan())
		return nil
	}

	keyword := ctx.readToken()
	keywordSpan := ctx.tokenSpan()
	switch keyword {
	case "module":
		ctx.consumeToken()
		return nodeList(ctx.module(start, annotations))
	case "struct":
		ctx.consumeToken()
		return nodeList(ctx.structDecl(start, annotations))
	case "union":
		ctx.consumeToken()
		return nodeList(ctx.union(start, annotations))
	case "enum":
		ctx.consumeToken()
		return nodeList(ctx.enum(start, annotations))
	case "typedef":
		ctx.consumeToken()
		return ctx.typedef(start, annotations)
	case "const":
		ctx.consumeToken()
		return nodeList(ctx.constDecl(start, annotations))
	case "interface", "valuetype", "exception", "bitset", "bitmask",
		"native", "abstract", "local", "component", "eventtype",
		"home", "porttype", "connector", "import", "typeid", "typeprefix":
		ctx.err = errUnsupportedDefinition(keyword, keywordSpan)
		return nil
	}
	ctx.err = errExpectedDefinition(ctx.token.Kind, keyword, keywordSpan)
	return nil
}

func nodeList[N Node](node N, ok bool) []Node {
	if !ok {
		return nil
	}
	return []Node{node}
}

func (ctx *parseCtx) module(start uint32, annotations Annotations) (*Module, bool) {
	name := ctx.ident()
	ctx.sigil(T_OPEN_CURL)
	defs := ctx.definitions(T_CLOSE_CURL)
	ctx.sigil(T_CLOSE_CURL)
	ctx.trySigil(T_SEMI)
	if ctx.err != nil {
		return nil, false
	}
	return &Module{
		decl:        decl{Name: name, Annotations: annotations, span: ctx.spanFrom(start)},
		Definitions: defs,
	}, true
}

func (ctx *parseCtx) structDecl(start uint32, annotations Annotations) (*Struct, bool) {
	ctx.start()
	nameSpan := ctx.tokenSpan()
	name := ctx.ident()
	if ctx.err != nil {
		return nil, false
	}
	if ctx.trySigil(T_SEMI) {
		return &Struct{
			decl:    decl{Name: name, Annotations: annotations, span: ctx.spanFrom(start)},
			Forward: true,
		}, true
	}
	if ctx.peekKind() == T_COLON {
		ctx.err = errStructInheritance(name, nameSpan)
		return nil, false
	}

	ctx.sigil(T_OPEN_CURL)
	var members []*StructMember
	for _ = range ctx.loop {
		if ctx.peekKind() == T_CLOSE_CURL {
			break
		}
		members = append(members, ctx.members(ctx.annotations())...)
	}
	ctx.sigil(T_CLOSE_CURL)
	ctx.sigil(T_SEMI)
	if ctx.err != nil {
		return nil, false
	}
	return &Struct{
		decl:    decl{Name: name, Annotations: annotations, span: ctx.spanFrom(start)},
		Members: members,
	}, true
}

// members reads `type declarator {, declarator} ;`.
func (ctx *parseCtx) members(annotations Annotations) []*StructMember {
	start := ctx.start()
	fieldType := ctx.typeSpec()
	var members []*StructMember
	for _ = range ctx.loop {
		name, dims := ctx.declarator()
		if ctx.err != nil {
			return nil
		}
		memberType := fieldType
		memberType.ArrayLengths = dims
		memberType.span = ctx.spanFrom(start)
		members = append(members, &StructMember{
			decl: decl{Name: name, Annotations: annotations, span: ctx.spanFrom(start)},
			Type: memberType,
		})
		if !ctx.trySigil(T_COMMA) {
			break
		}
	}
	ctx.sigil(T_SEMI)
	if ctx.err != nil {
		return nil
	}
	return members
}

func (ctx *parseCtx) declarator() (string, []Value) {
	name := ctx.ident()
	var dims []Value
	for _ = range ctx.loop {
		if !ctx.trySigil(T_OPEN_SQUARE) {
			break
		}
		dims = append(dims, ctx.constExpr())
		ctx.sigil(T_CLOSE_SQUARE)
	}
	return name, dims
}

func (ctx *parseCtx) typedef(start uint32, annotations Annotations) []Node {
	fieldType := ctx.typeSpec()
	var nodes []Node
	for _ = range ctx.loop {
		name, dims := ctx.declarator()
		if ctx.err != nil {
			return nil
		}
		aliasType := fieldType
		aliasType.ArrayLengths = dims
		nodes = append(nodes, &Typedef{
			decl: decl{Name: name, Annotations: annotations, span: ctx.spanFrom(start)},
			Type: aliasType,
		})
		if !ctx.trySigil(T_COMMA) {
			break
		}
	}
	ctx.sigil(T_SEMI)
	if ctx.err != nil {
		return nil
	}
	return nodes
}

func (ctx *parseCtx) constDecl(start uint32, annotations Annotations) (*Const, bool) {
	fieldType := ctx.typeSpec()
	name := ctx.ident()
	ctx.sigil(T_EQ)
	value := ctx.constExpr()
	ctx.sigil(T_SEMI)
	if ctx.err != nil {
		return nil, false
	}
	return &Const{
		decl:  decl{Name: name, Annotations: annotations, span: ctx.spanFrom(start)},
		Type:  fieldType,
		Value: value,
	}, true
}

func (ctx *parseCtx) enum(start uint32, annotations Annotations) (*Enum, bool) {
	name := ctx.ident()
	ctx.sigil(T_OPEN_CURL)
	var enumerators []*Enumerator
	for _ = range ctx.loop {
		if ctx.peekKind() == T_CLOSE_CURL {
			break
		}
		itemStart := ctx.start()
		itemAnnotations := ctx.annotations()
		itemName := ctx.ident()
		if ctx.err != nil {
			break
		}
		enumerators = append(enumerators, &Enumerator{
			decl: decl{Name: itemName, Annotations: itemAnnotations, span: ctx.spanFrom(itemStart)},
		})
		if !ctx.trySigil(T_COMMA) {
			break
		}
	}
	ctx.sigil(T_CLOSE_CURL)
	ctx.sigil(T_SEMI)
	if ctx.err != nil {
		return nil, false
	}
	return &Enum{
		decl:        decl{Name: name, Annotations: annotations, span: ctx.spanFrom(start)},
		Enumerators: enumerators,
	}, true
}

func (ctx *parseCtx) union(start uint32, annotations Annotations) (*Union, bool) {
	name := ctx.ident()
	if !ctx.tryKeyword("switch") {
		if ctx.err == nil {
			ctx.err = errExpectedIdent(ctx.token.Kind, ctx.readToken(), ctx.tokenSpan())
		}
		return nil, false
	}
	ctx.sigil(T_OPEN_PAREN)
	switchType := ctx.typeSpec()
	ctx.sigil(T_CLOSE_PAREN)
	ctx.sigil(T_OPEN_CURL)

	node := &Union{SwitchType: switchType}
	for _ = range ctx.loop {
		if ctx.peekKind() == T_CLOSE_CURL {
			break
		}
		ctx.unionCase(node)
	}
	ctx.sigil(T_CLOSE_CURL)
	ctx.sigil(T_SEMI)
	if ctx.err != nil {
		return nil, false
	}
	node.decl = decl{Name: name, Annotations: annotations, span: ctx.spanFrom(start)}
	return node, true
}

func (ctx *parseCtx) unionCase(node *Union) {
	var predicates []Value
	isDefault := false
	caseAnnotations := ctx.annotations()
	for _ = range ctx.loop {
		if ctx.tryKeyword("case") {
			predicates = append(predicates, ctx.constExpr())
			ctx.sigil(T_COLON)
			continue
		}
		if ctx.tryKeyword("default") {
			isDefault = true
			ctx.sigil(T_COLON)
			continue
		}
		break
	}
	if ctx.err != nil {
		return
	}
	if len(predicates) == 0 && !isDefault {
		ctx.err = errExpectedCaseLabel(ctx.token.Kind, ctx.readToken(), ctx.tokenSpan())
		return
	}

	start := ctx.start()
	memberAnnotations := append(caseAnnotations, ctx.annotations()...)
	fieldType := ctx.typeSpec()
	name, dims := ctx.declarator()
	ctx.sigil(T_SEMI)
	if ctx.err != nil {
		return
	}
	fieldType.ArrayLengths = dims
	member := &StructMember{
		decl: decl{Name: name, Annotations: memberAnnotations, span: ctx.spanFrom(start)},
		Type: fieldType,
	}
	if len(predicates) > 0 {
		node.Cases = append(node.Cases, &UnionCase{
			Predicates: predicates,
			Member:     member,
		})
	}
	if isDefault {
		node.Default = member
	}
}

var simpleTypeKeywords = map[string]struct{}{
	"short":   {},
	"float":   {},
	"double":  {},
	"char":    {},
	"wchar":   {},
	"boolean": {},
	"octet":   {},
	"byte":    {},
	"int8":    {},
	"uint8":   {},
	"int16":   {},
	"uint16":  {},
	"int32":   {},
	"uint32":  {},
	"int64":   {},
	"uint64":  {},
}

func (ctx *parseCtx) typeSpec() FieldType {
	start := ctx.start()
	if ctx.err != nil {
		return FieldType{}
	}
	if ctx.token.Kind == T_SCOPE {
		return FieldType{Name: ctx.scopedName(), span: ctx.spanFrom(start)}
	}
	if ctx.token.Kind != T_IDENT {
		ctx.err = errExpectedTypeName(ctx.token.Kind, ctx.readToken(), ctx.tokenSpan())
		return FieldType{}
	}

	keyword := ctx.readToken()
	keywordSpan := ctx.tokenSpan()
	if _, ok := simpleTypeKeywords[keyword]; ok {
		ctx.consumeToken()
		return FieldType{Name: keyword, span: ctx.spanFrom(start)}
	}
	switch keyword {
	case "unsigned":
		ctx.consumeToken()
		switch {
		case ctx.tryKeyword("short"):
			return FieldType{Name: "unsigned short", span: ctx.spanFrom(start)}
		case ctx.tryKeyword("long"):
			if ctx.tryKeyword("long") {
				return FieldType{Name: "unsigned long long", span: ctx.spanFrom(start)}
			}
			return FieldType{Name: "unsigned long", span: ctx.spanFrom(start)}
		}
		if ctx.err == nil {
			ctx.err = errExpectedTypeName(ctx.token.Kind, ctx.readToken(), ctx.tokenSpan())
		}
		return FieldType{}
	case "long":
		ctx.consumeToken()
		if ctx.tryKeyword("long") {
			return FieldType{Name: "long long", span: ctx.spanFrom(start)}
		}
		if ctx.peekKeyword("double") {
			ctx.err = errUnsupportedType("long double", ctx.spanFrom(start))
			return FieldType{}
		}
		return FieldType{Name: "long", span: ctx.spanFrom(start)}
	case "string", "wstring":
		ctx.consumeToken()
		fieldType := FieldType{Name: keyword}
		if ctx.trySigil(T_OPEN_ANGLE) {
			ctx.templateDepth++
			fieldType.StringBound = ctx.constExpr()
			ctx.templateDepth--
			ctx.sigil(T_CLOSE_ANGLE)
		}
		fieldType.span = ctx.spanFrom(start)
		return fieldType
	case "sequence":
		ctx.consumeToken()
		ctx.sigil(T_OPEN_ANGLE)
		ctx.templateDepth++
		elemStart := ctx.start()
		fieldType := ctx.typeSpec()
		if fieldType.IsSequence {
			ctx.err = errUnsupportedType("sequence<sequence<...>>", ctx.spanFrom(elemStart))
			return FieldType{}
		}
		fieldType.IsSequence = true
		if ctx.trySigil(T_COMMA) {
			fieldType.SequenceBound = ctx.constExpr()
		}
		ctx.templateDepth--
		ctx.sigil(T_CLOSE_ANGLE)
		fieldType.span = ctx.spanFrom(start)
		return fieldType
	case "any", "fixed", "map", "Object", "ValueBase":
		ctx.err = errUnsupportedType(keyword, keywordSpan)
		return FieldType{}
	}
	return FieldType{Name: ctx.scopedName(), span: ctx.spanFrom(start)}
}

func (ctx *parseCtx) annotations() Annotations {
	var annotations Annotations
	for _ = range ctx.loop {
		if ctx.peekKind() != T_AT {
			break
		}
		start := ctx.offset
		ctx.consumeToken()
		a := &Annotation{Name: ctx.scopedName()}
		if ctx.trySigil(T_OPEN_PAREN) {
			ctx.annotationParams(a)
			ctx.sigil(T_CLOSE_PAREN)
		}
		if ctx.err != nil {
			return nil
		}
		a.span = ctx.spanFrom(start)
		annotations = append(annotations, a)
	}
	return annotations
}

func (ctx *parseCtx) annotationParams(a *Annotation) {
	if ctx.peekKind() == T_CLOSE_PAREN {
		return
	}

	// `name = value` pairs need two tokens of lookahead.
	m := ctx.mark()
	if ctx.peekKind() == T_IDENT {
		ctx.consumeToken()
		isNamed := ctx.peekKind() == T_EQ
		ctx.reset(m)
		if isNamed {
			a.Kind = omgidl.AnnotationNamedParams
			for _ = range ctx.loop {
				name := ctx.ident()
				ctx.sigil(T_EQ)
				a.Params = append(a.Params, AnnotationParam{Name: name, Value: ctx.constExpr()})
				if !ctx.trySigil(T_COMMA) {
					break
				}
			}
			return
		}
	}
	a.Kind = omgidl.AnnotationConstParam
	a.Value = ctx.constExpr()
}

// Constant expressions, from lowest to highest precedence:
//
//	or     := xor { "|" xor }
//	xor    := and { "^" and }
//	and    := shift { "&" shift }
//	shift  := add { ("<<" | ">>") add }
//	add    := mul { ("+" | "-") mul }
//	mul    := unary { ("*" | "/" | "%") unary }
//	unary  := ("-" | "+" | "~") unary | primary
func (ctx *parseCtx) constExpr() Value {
	return ctx.binaryExpr(0)
}

var binaryLevels = [][]struct {
	kind TokenKind
	op   Operator
}{
	{{T_PIPE, OpOr}},
	{{T_CARET, OpXor}},
	{{T_AMP, OpAnd}},
	{{T_SHIFT_LEFT, OpShiftLeft}},
	{{T_PLUS, OpAdd}, {T_MINUS, OpSub}},
	{{T_STAR, OpMul}, {T_SLASH, OpDiv}, {T_PERCENT, OpMod}},
}

const shiftLevel = 3

func (ctx *parseCtx) binaryExpr(level int) Value {
	if level == len(binaryLevels) {
		return ctx.unaryExpr()
	}
	start := ctx.start()
	lhs := ctx.binaryExpr(level + 1)
	for _ = range ctx.loop {
		if ctx.err != nil {
			return nil
		}
		op, ok := ctx.binaryOp(level)
		if !ok {
			break
		}
		rhs := ctx.binaryExpr(level + 1)
		if ctx.err != nil {
			return nil
		}
		lhs = &Expr{
			Op:       op,
			Operands: []Value{lhs, rhs},
			span:     ctx.spanFrom(start),
		}
	}
	return lhs
}

func (ctx *parseCtx) binaryOp(level int) (Operator, bool) {
	kind := ctx.peekKind()
	for _, candidate := range binaryLevels[level] {
		if kind == candidate.kind {
			ctx.consumeToken()
			return candidate.op, true
		}
	}
	if level == shiftLevel && kind == T_CLOSE_ANGLE && ctx.templateDepth == 0 {
		m := ctx.mark()
		first := ctx.offset
		ctx.consumeToken()
		if ctx.peekKind() == T_CLOSE_ANGLE && ctx.offset == first+1 {
			ctx.consumeToken()
			return OpShiftRight, true
		}
		ctx.reset(m)
	}
	return 0, false
}

func (ctx *parseCtx) unaryExpr() Value {
	start := ctx.start()
	var op Operator
	switch ctx.peekKind() {
	case T_MINUS:
		op = OpNeg
	case T_PLUS:
		op = OpPos
	case T_TILDE:
		op = OpNot
	default:
		return ctx.primaryExpr()
	}
	ctx.consumeToken()
	operand := ctx.unaryExpr()
	if ctx.err != nil {
		return nil
	}
	if lit, ok := operand.(*Literal); ok && op == OpNeg {
		if negated, ok := negateLiteral(lit.Value); ok {
			return &Literal{
				Value: negated,
				Raw:   "-" + lit.Raw,
				span:  ctx.spanFrom(start),
			}
		}
	}
	return &Expr{
		Op:       op,
		Operands: []Value{operand},
		span:     ctx.spanFrom(start),
	}
}

func negateLiteral(v any) (any, bool) {
	switch v := v.(type) {
	case int64:
		if v == math.MinInt64 {
			return nil, false
		}
		return -v, true
	case uint64:
		if v == 1<<63 {
			return int64(math.MinInt64), true
		}
	case float64:
		return -v, true
	}
	return nil, false
}

func (ctx *parseCtx) primaryExpr() Value {
	if err := ctx.ensureToken(); err != nil {
		return nil
	}
	start := ctx.offset
	token := ctx.readToken()
	span := ctx.tokenSpan()
	switch ctx.token.Kind {
	case T_INT_LIT:
		ctx.consumeToken()
		value, err := strconv.ParseUint(token, 10, 64)
		if err != nil {
			ctx.err = errIntLitTooPositive(token, span)
			return nil
		}
		lit := &Literal{Raw: token, span: span}
		if value <= math.MaxInt64 {
			lit.Value = int64(value)
		} else {
			lit.Value = value
		}
		return lit
	case T_FLOAT_LIT:
		ctx.consumeToken()
		value, err := strconv.ParseFloat(strings.TrimRight(token, "dD"), 64)
		if err != nil {
			ctx.err = errFloatLitInvalid(span.start, []byte(token))
			return nil
		}
		return &Literal{Value: value, Raw: token, span: span}
	case T_TEXT_LIT:
		var value, raw strings.Builder
		for _ = range ctx.loop {
			if ctx.peekKind() != T_TEXT_LIT {
				break
			}
			token := ctx.readToken()
			if raw.Len() > 0 {
				raw.WriteByte(' ')
			}
			raw.WriteString(token)
			value.WriteString(token[1 : len(token)-1])
			ctx.consumeToken()
		}
		return &Literal{Value: value.String(), Raw: raw.String(), span: ctx.spanFrom(start)}
	case T_CHAR_LIT:
		ctx.consumeToken()
		value, ok := decodeCharLit(token)
		if !ok {
			ctx.err = errCharLitInvalid(token, span)
			return nil
		}
		return &Literal{Value: value, Raw: token, span: span}
	case T_OPEN_PAREN:
		ctx.consumeToken()
		depth := ctx.templateDepth
		ctx.templateDepth = 0
		value := ctx.constExpr()
		ctx.templateDepth = depth
		ctx.sigil(T_CLOSE_PAREN)
		return value
	case T_IDENT:
		switch token {
		case "TRUE", "true":
			ctx.consumeToken()
			return &Literal{Value: true, Raw: token, span: span}
		case "FALSE", "false":
			ctx.consumeToken()
			return &Literal{Value: false, Raw: token, span: span}
		}
		fallthrough
	case T_SCOPE:
		name := ctx.scopedName()
		return &ConstRef{Name: name, span: ctx.spanFrom(start)}
	}
	ctx.err = errExpectedConstValue(ctx.token.Kind, token, span)
	return nil
}

var charEscapes = map[byte]int64{
	'n':  '\n',
	't':  '\t',
	'r':  '\r',
	'v':  '\v',
	'b':  '\b',
	'f':  '\f',
	'a':  '\a',
	'0':  0,
	'\\': '\\',
	'\'': '\'',
	'"':  '"',
	'?':  '?',
}

func decodeCharLit(token string) (int64, bool) {
	body := token[1 : len(token)-1]
	if len(body) == 2 && body[0] == '\\' {
		v, ok := charEscapes[body[1]]
		return v, ok
	}
	runes := []rune(body)
	if len(runes) != 1 || runes[0] == '\\' {
		return 0, false
	}
	return int64(runes[0]), true
}
