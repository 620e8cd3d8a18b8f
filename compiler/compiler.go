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

package compiler

import (
	"maps"
	"slices"

	"go.uber.org/zap"

	"go.omgidl.dev/omgidl"
	"go.omgidl.dev/omgidl/syntax"
)

type declType uint8

const (
	declType_UNKNOWN declType = iota
	declType_MODULE
	declType_STRUCT
	declType_MEMBER
	declType_CONST
	declType_TYPEDEF
	declType_ENUM
	declType_UNION
)

var knownAnnotations = map[string]struct{}{
	omgidl.AnnotationID:            {},
	omgidl.AnnotationKey:           {},
	omgidl.AnnotationOptional:      {},
	omgidl.AnnotationDefault:       {},
	omgidl.AnnotationValue:         {},
	omgidl.AnnotationMutable:       {},
	omgidl.AnnotationAppendable:    {},
	omgidl.AnnotationFinal:         {},
	omgidl.AnnotationExtensibility: {},
	"autoid":                       {},
	"bit_bound":                    {},
	"default_literal":              {},
	"external":                     {},
	"hashid":                       {},
	"max":                          {},
	"min":                          {},
	"must_understand":              {},
	"nested":                       {},
	"position":                     {},
	"range":                        {},
	"topic":                        {},
	"transfer_mode":                {},
	"unit":                         {},
	"verbatim":                     {},
}

type CompileOption interface {
	apply(*CompileOptions)
}

type compileOption func(*CompileOptions)

func (f compileOption) apply(opts *CompileOptions) { f(opts) }

type CompileOptions struct {
	logger *zap.Logger
}

// WithLogger sets the logger used to report resolution progress and
// warnings. The default logger discards everything.
func WithLogger(logger *zap.Logger) CompileOption {
	return compileOption(func(opts *CompileOptions) {
		opts.logger = logger
	})
}

type CompileResult struct {
	Definitions []omgidl.Definition
	Warnings    []*Warning
}

func NewCompileOptions(opts ...CompileOption) *CompileOptions {
	compileOptions := &CompileOptions{}
	for _, opt := range opts {
		opt.apply(compileOptions)
	}
	return compileOptions
}

// Compile resolves parsed IDL into flattened definitions.
func Compile(nodes []syntax.Node, opts ...CompileOption) (*CompileResult, error) {
	return NewCompileOptions(opts...).Compile(nodes)
}

// Resolve is [Compile] without the warnings.
func Resolve(nodes []syntax.Node, opts ...CompileOption) ([]omgidl.Definition, error) {
	result, err := Compile(nodes, opts...)
	if err != nil {
		return nil, err
	}
	return result.Definitions, nil
}

// ParseIDL parses and resolves IDL source text.
func ParseIDL(src []byte, opts ...CompileOption) ([]omgidl.Definition, error) {
	nodes, err := syntax.Parse(src)
	if err != nil {
		return nil, err
	}
	return Resolve(nodes, opts...)
}

func (opts *CompileOptions) Compile(nodes []syntax.Node) (*CompileResult, error) {
	logger := opts.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &compiler{
		log:       logger,
		decls:     make(map[string]*decl),
		resolving: make(map[*decl]struct{}),
		forward:   make(map[string]syntax.Span),
	}
	defs, err := c.compile(nodes)
	if err != nil {
		logger.Debug("resolution failed", zap.Error(err))
		return nil, err
	}
	return &CompileResult{
		Definitions: defs,
		Warnings:    c.warnings,
	}, nil
}

type compiler struct {
	log *zap.Logger

	decls     map[string]*decl
	order     []*decl
	fields    []*decl
	unions    []*decl
	topConsts []*decl
	forward   map[string]syntax.Span
	resolving map[*decl]struct{}

	warnings []*Warning
}

type decl struct {
	declType declType
	name     string

	// Scope that names used by the declaration are resolved in.
	scope []string
	span  syntax.Span

	rawAnnotations syntax.Annotations
	annotations    omgidl.Annotations

	field    *fieldDecl
	union    *unionDecl
	children []*decl

	enumIndex int
	enumPrev  *decl
}

type unionDecl struct {
	switchType  *decl
	cases       []*unionCaseDecl
	defaultCase *decl
}

type unionCaseDecl struct {
	predicates []syntax.Value
	values     []any
	member     *decl
}

func (c *compiler) warn(w *Warning) {
	c.log.Warn(w.Message(), zap.Uint32("code", w.Code()))
	c.warnings = append(c.warnings, w)
}

func (c *compiler) compile(nodes []syntax.Node) ([]omgidl.Definition, error) {
	if err := c.register(nodes, nil, nil); err != nil {
		return nil, err
	}
	for _, name := range slices.Sorted(maps.Keys(c.forward)) {
		if _, ok := c.decls[name]; !ok {
			c.warn(warnForwardDeclNotDefined(name, c.forward[name]))
		}
	}
	c.log.Debug("registered declarations", zap.Int("count", len(c.order)))

	passes := []struct {
		name string
		run  func() error
	}{
		{"enums", c.resolveEnumRefs},
		{"annotations", c.resolveAllAnnotations},
		{"constants", c.resolveConstants},
		{"shapes", c.resolveShapes},
		{"typedefs", c.resolveTypedefs},
		{"members", c.resolveMembers},
		{"unions", c.resolveUnions},
	}
	for _, pass := range passes {
		if err := pass.run(); err != nil {
			return nil, err
		}
		c.log.Debug("resolution pass complete", zap.String("pass", pass.name))
	}
	return c.flatten(), nil
}

func (c *compiler) add(d *decl) error {
	if _, ok := c.decls[d.name]; ok {
		return errDuplicateDefinition(d.name, d.span)
	}
	c.decls[d.name] = d
	c.order = append(c.order, d)
	return nil
}

func (c *compiler) register(nodes []syntax.Node, scope []string, parent *decl) error {
	for _, node := range nodes {
		name := omgidl.JoinScope(omgidl.JoinScope(scope...), node.DeclName())
		var d *decl
		switch node := node.(type) {
		case *syntax.Module:
			if have, ok := c.decls[name]; ok {
				if have.declType != declType_MODULE {
					return errDuplicateDefinition(name, node.Span())
				}
				have.rawAnnotations = append(have.rawAnnotations, node.Annotations...)
				if err := c.register(node.Definitions, childScope(scope, node.Name), have); err != nil {
					return err
				}
				continue
			}
			d = &decl{declType: declType_MODULE}
		case *syntax.Struct:
			if node.Forward {
				if _, ok := c.forward[name]; !ok {
					c.forward[name] = node.Span()
				}
				continue
			}
			d = &decl{declType: declType_STRUCT}
		case *syntax.Const:
			d = &decl{declType: declType_CONST, field: newFieldDecl(node.Type)}
			d.field.rawValue = node.Value
		case *syntax.Typedef:
			d = &decl{declType: declType_TYPEDEF, field: newFieldDecl(node.Type)}
		case *syntax.Enum:
			d = &decl{declType: declType_ENUM}
		case *syntax.Union:
			d = &decl{declType: declType_UNION}
		default:
			continue
		}
		d.name = name
		d.scope = scope
		d.span = node.Span()
		d.rawAnnotations = node.DeclAnnotations()
		if err := c.add(d); err != nil {
			return err
		}
		if d.field != nil {
			c.fields = append(c.fields, d)
		}
		switch {
		case parent != nil:
			parent.children = append(parent.children, d)
		case d.declType == declType_CONST:
			c.topConsts = append(c.topConsts, d)
		}

		var err error
		switch node := node.(type) {
		case *syntax.Module:
			err = c.register(node.Definitions, childScope(scope, node.Name), d)
		case *syntax.Struct:
			err = c.registerMembers(d, node)
		case *syntax.Enum:
			err = c.registerEnumerators(d, node)
		case *syntax.Union:
			err = c.registerUnion(d, node)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *compiler) newMember(parent *decl, m *syntax.StructMember) *decl {
	return &decl{
		declType:       declType_MEMBER,
		name:           omgidl.JoinScope(parent.name, m.Name),
		scope:          childScope(parent.scope, omgidl.LocalName(parent.name)),
		span:           m.Span(),
		rawAnnotations: m.Annotations,
		field:          newFieldDecl(m.Type),
	}
}

func (c *compiler) registerMembers(d *decl, node *syntax.Struct) error {
	for _, m := range node.Members {
		member := c.newMember(d, m)
		if err := c.add(member); err != nil {
			return err
		}
		c.fields = append(c.fields, member)
		d.children = append(d.children, member)
	}
	return nil
}

func (c *compiler) registerEnumerators(d *decl, node *syntax.Enum) error {
	var prev *decl
	for ii, e := range node.Enumerators {
		enumerator := &decl{
			declType:       declType_CONST,
			name:           omgidl.JoinScope(d.name, e.Name),
			scope:          childScope(d.scope, omgidl.LocalName(d.name)),
			span:           e.Span(),
			rawAnnotations: e.Annotations,
			field:          &fieldDecl{typeName: omgidl.TypeUint32},
			enumIndex:      ii,
			enumPrev:       prev,
		}
		if a, ok := e.Annotations.Get(omgidl.AnnotationValue); ok {
			switch a.Kind {
			case omgidl.AnnotationConstParam:
				enumerator.field.rawValue = a.Value
			case omgidl.AnnotationNamedParams:
				for _, p := range a.Params {
					if p.Name == "value" {
						enumerator.field.rawValue = p.Value
					}
				}
			}
		}
		if err := c.add(enumerator); err != nil {
			return err
		}
		c.fields = append(c.fields, enumerator)
		d.children = append(d.children, enumerator)
		prev = enumerator
	}
	return nil
}

func (c *compiler) registerUnion(d *decl, node *syntax.Union) error {
	u := &unionDecl{
		switchType: &decl{
			declType: declType_MEMBER,
			name:     d.name,
			scope:    d.scope,
			span:     node.SwitchType.Span(),
			field:    newFieldDecl(node.SwitchType),
		},
	}
	d.union = u

	members := make(map[*syntax.StructMember]*decl)
	memberDecl := func(m *syntax.StructMember) *decl {
		if member, ok := members[m]; ok {
			return member
		}
		member := c.newMember(d, m)
		members[m] = member
		c.fields = append(c.fields, member)
		return member
	}
	for _, uc := range node.Cases {
		u.cases = append(u.cases, &unionCaseDecl{
			predicates: uc.Predicates,
			member:     memberDecl(uc.Member),
		})
	}
	if node.Default != nil {
		u.defaultCase = memberDecl(node.Default)
	}
	c.unions = append(c.unions, d)
	return nil
}

// resolveEnumRefs replaces references to enums with their wire type.
func (c *compiler) resolveEnumRefs() error {
	resolve := func(d *decl) {
		f := d.field
		if f.ref == "" {
			return
		}
		if target, ok := c.lookup(f.ref, d.scope); ok && target.declType == declType_ENUM {
			f.ref = ""
			f.typeName = omgidl.TypeUint32
			f.enumName = target.name
		}
	}
	for _, d := range c.fields {
		resolve(d)
	}
	for _, d := range c.unions {
		resolve(d.union.switchType)
	}
	return nil
}

func (c *compiler) resolveAllAnnotations() error {
	for _, d := range c.order {
		if err := c.resolveAnnotations(d); err != nil {
			return err
		}
	}
	for _, d := range c.fields {
		if d.annotations != nil || len(d.rawAnnotations) == 0 {
			continue
		}
		if err := c.resolveAnnotations(d); err != nil {
			return err
		}
	}
	return nil
}

func (c *compiler) resolveAnnotations(d *decl) error {
	ectx := evalCtx{owner: d.name, scope: d.scope, identsAsText: true}
	var out omgidl.Annotations
	for _, a := range d.rawAnnotations {
		if _, ok := knownAnnotations[a.Name]; !ok {
			c.warn(warnUnknownAnnotation(a.Name, d.name, a.Span()))
		}
		if out.Has(a.Name) {
			c.warn(warnDuplicateAnnotation(a.Name, d.name, a.Span()))
		}
		resolved := &omgidl.Annotation{Name: a.Name, Kind: a.Kind}
		switch a.Kind {
		case omgidl.AnnotationConstParam:
			v, err := c.eval(a.Value, ectx)
			if err != nil {
				return err
			}
			resolved.Value = v
		case omgidl.AnnotationNamedParams:
			for _, p := range a.Params {
				v, err := c.eval(p.Value, ectx)
				if err != nil {
					return err
				}
				resolved.Params = append(resolved.Params, omgidl.AnnotationParam{
					Name:  p.Name,
					Value: v,
				})
			}
		}
		out = out.Set(resolved)
	}
	d.annotations = out
	return nil
}

func (c *compiler) resolveConstants() error {
	for _, d := range c.fields {
		if d.declType != declType_CONST {
			continue
		}
		if _, err := c.constValue(d); err != nil {
			return err
		}
	}
	return nil
}

func (c *compiler) resolveShapes() error {
	for _, d := range c.fields {
		if d.declType == declType_CONST {
			continue
		}
		if err := c.resolveShape(d); err != nil {
			return err
		}
	}
	return nil
}

func (c *compiler) resolveTypedefs() error {
	for _, d := range c.fields {
		if d.declType != declType_TYPEDEF || d.field.ref == "" {
			continue
		}
		target, ok := c.lookup(d.field.ref, d.scope)
		if !ok {
			return errTypeNotFound(d.field.ref, d.name, d.span)
		}
		switch target.declType {
		case declType_TYPEDEF:
			return errTypedefOfTypedef(d.name, target.name, d.span)
		case declType_STRUCT, declType_UNION:
			d.field.ref = ""
			d.field.typeName = target.name
			d.field.isComplex = true
		default:
			return errNotAType(target.name, d.name, d.span)
		}
	}
	return nil
}

func (c *compiler) resolveMembers() error {
	for _, d := range c.fields {
		if d.declType != declType_MEMBER {
			continue
		}
		if f := d.field; f.ref != "" {
			target, ok := c.lookup(f.ref, d.scope)
			if !ok {
				return errTypeNotFound(f.ref, d.name, d.span)
			}
			switch target.declType {
			case declType_TYPEDEF:
				if err := inheritTypedef(d, target); err != nil {
					return err
				}
			case declType_STRUCT, declType_UNION:
				f.ref = ""
				f.typeName = target.name
				f.isComplex = true
			default:
				return errNotAType(target.name, d.name, d.span)
			}
		}
		c.resolveDefault(d)
	}
	return nil
}

// resolveDefault converts a member's @default value to the member type.
// A value that does not fit is kept as written.
func (c *compiler) resolveDefault(d *decl) {
	a, ok := d.annotations.Get(omgidl.AnnotationDefault)
	if !ok {
		return
	}
	value, ok := a.Param("value")
	if !ok {
		return
	}
	f := d.field
	if f.isComplex || f.isArray {
		f.defaultValue = value
		return
	}
	if name, isText := value.(string); isText && f.enumName != "" {
		if enumerator, ok := c.decls[omgidl.JoinScope(f.enumName, name)]; ok {
			value = enumerator.field.value
		}
	}
	coerced, ok := coerce(canonical(value), f.typeName)
	if !ok {
		c.warn(warnIgnoredDefault(d.name, value, f.typeName, d.span))
		f.defaultValue = value
		return
	}
	f.defaultValue = coerced
}

func (c *compiler) resolveUnions() error {
	for _, d := range c.unions {
		sw := d.union.switchType.field
		if sw.ref != "" {
			target, ok := c.lookup(sw.ref, d.scope)
			if !ok {
				return errTypeNotFound(sw.ref, d.name, d.union.switchType.span)
			}
			if target.declType != declType_TYPEDEF || target.field.isArray || target.field.isComplex {
				return errInvalidSwitchType(d.name, target.name, d.union.switchType.span)
			}
			sw.ref = ""
			sw.typeName = target.field.typeName
			sw.enumName = target.field.enumName
		}
		if _, ok := switchTypes[sw.typeName]; !ok || sw.isArray {
			return errInvalidSwitchType(d.name, sw.ast.String(), d.union.switchType.span)
		}

		ectx := evalCtx{
			owner:     d.name,
			scope:     childScope(d.scope, omgidl.LocalName(d.name)),
			enumScope: sw.enumName,
		}
		for _, uc := range d.union.cases {
			for _, predicate := range uc.predicates {
				v, err := c.eval(predicate, ectx)
				if err != nil {
					return err
				}
				coerced, ok := coerce(v, sw.typeName)
				if !ok {
					return errUnionCaseType(d.name, formatConst(v), sw.typeName, predicate.Span())
				}
				uc.values = append(uc.values, coerced)
			}
		}
	}
	return nil
}

func (c *compiler) flatten() []omgidl.Definition {
	var defs []omgidl.Definition
	for _, d := range c.order {
		switch d.declType {
		case declType_MODULE:
			var consts []omgidl.Field
			for _, child := range d.children {
				if child.declType == declType_CONST {
					consts = append(consts, child.toField())
				}
			}
			if len(consts) == 0 {
				continue
			}
			defs = append(defs, omgidl.Definition{
				Name:        d.name,
				Kind:        omgidl.KindModule,
				Fields:      consts,
				Annotations: d.annotations,
			})
		case declType_STRUCT, declType_ENUM:
			def := omgidl.Definition{
				Name:        d.name,
				Kind:        omgidl.KindStruct,
				Annotations: d.annotations,
			}
			if d.declType == declType_ENUM {
				def.Kind = omgidl.KindEnum
			}
			for _, child := range d.children {
				def.Fields = append(def.Fields, child.toField())
			}
			defs = append(defs, def)
		case declType_UNION:
			u := d.union
			def := omgidl.Definition{
				Name:        d.name,
				Kind:        omgidl.KindUnion,
				SwitchType:  u.switchType.field.typeName,
				Annotations: d.annotations,
			}
			for _, uc := range u.cases {
				def.Cases = append(def.Cases, omgidl.UnionCase{
					Predicates: uc.values,
					Field:      uc.member.toField(),
				})
			}
			if u.defaultCase != nil {
				field := u.defaultCase.toField()
				def.DefaultCase = &field
			}
			defs = append(defs, def)
		}
	}
	if len(c.topConsts) > 0 {
		var consts []omgidl.Field
		for _, d := range c.topConsts {
			consts = append(consts, d.toField())
		}
		defs = append(defs, omgidl.Definition{
			Kind:   omgidl.KindModule,
			Fields: consts,
		})
	}
	return defs
}

func (d *decl) toField() omgidl.Field {
	return d.field.toField(omgidl.LocalName(d.name), d.annotations)
}
