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
	"fmt"
	"math"
	"regexp"
	"strconv"

	"go.omgidl.dev/omgidl"
	"go.omgidl.dev/omgidl/syntax"
)

var leadingZero = regexp.MustCompile(`^-?0[0-9]+$`)

// evalCtx describes where a constant expression appears.
type evalCtx struct {
	owner string
	scope []string

	// Identifiers that name no constant evaluate to their own text.
	// Used for annotation parameters such as `@extensibility(MUTABLE)`.
	identsAsText bool

	// Enum whose enumerators are visible unqualified, for the case
	// labels of an enum-switched union.
	enumScope string
}

// eval folds a constant expression to an int64, uint64, float64, bool or
// string.
func (c *compiler) eval(v syntax.Value, ectx evalCtx) (any, error) {
	switch v := v.(type) {
	case *syntax.Literal:
		if leadingZero.MatchString(v.Raw) {
			c.warn(warnLeadingZero(v.Raw, ectx.owner, v.Span()))
		}
		return v.Value, nil
	case *syntax.ConstRef:
		return c.evalRef(v, ectx)
	case *syntax.Expr:
		operands := make([]any, len(v.Operands))
		for ii, operand := range v.Operands {
			value, err := c.eval(operand, ectx)
			if err != nil {
				return nil, err
			}
			operands[ii] = value
		}
		var result any
		var err error
		if len(operands) == 1 {
			result, err = evalUnary(v.Op, operands[0])
		} else {
			result, err = evalBinary(v.Op, operands[0], operands[1])
		}
		if err != nil {
			return nil, errInvalidConstant(ectx.owner, err.Error(), v.Span())
		}
		return result, nil
	}
	return nil, errInvalidConstant(ectx.owner, "missing value", syntax.Span{})
}

func (c *compiler) evalRef(ref *syntax.ConstRef, ectx evalCtx) (any, error) {
	var target *decl
	if ectx.enumScope != "" {
		target = c.decls[omgidl.JoinScope(ectx.enumScope, ref.Name)]
	}
	if target == nil {
		target, _ = c.lookup(ref.Name, ectx.scope)
	}
	if target == nil || target.declType != declType_CONST {
		if ectx.identsAsText {
			return ref.Name, nil
		}
		if target == nil {
			return nil, errConstNotFound(ref.Name, ectx.owner, ref.Span())
		}
		return nil, errNotConstant(target.name, ectx.owner, ref.Span())
	}
	value, err := c.constValue(target)
	if err != nil {
		return nil, err
	}
	return canonical(value), nil
}

// constValue resolves and memoizes the typed value of a constant.
func (c *compiler) constValue(d *decl) (any, error) {
	f := d.field
	if f.hasValue {
		return f.value, nil
	}
	if _, busy := c.resolving[d]; busy {
		return nil, errCircularConstant(d.name, d.span)
	}
	c.resolving[d] = struct{}{}
	defer delete(c.resolving, d)

	typeName, enumName, err := c.constType(d)
	if err != nil {
		return nil, err
	}
	ectx := evalCtx{owner: d.name, scope: d.scope, enumScope: enumName}
	var value any
	switch {
	case f.rawValue != nil:
		v, err := c.eval(f.rawValue, ectx)
		if err != nil {
			return nil, err
		}
		value = v
	case d.enumIndex == 0:
		value = int64(0)
	default:
		prev, err := c.constValue(d.enumPrev)
		if err != nil {
			return nil, err
		}
		n, _ := omgidl.ToInt64(prev)
		value = n + 1
	}

	coerced, ok := coerce(value, typeName)
	if !ok {
		return nil, errConstantType(d.name, value, typeName, d.span)
	}
	f.typeName = typeName
	f.value = coerced
	f.hasValue = true
	if f.rawValue != nil {
		f.valueText = syntax.FormatValue(f.rawValue)
	} else {
		f.valueText = fmt.Sprint(coerced)
	}
	return coerced, nil
}

// constType returns the primitive type of a constant, looking through a
// typedef or enum if the constant is declared with one. For enum-typed
// constants the name of the enum is also returned.
func (c *compiler) constType(d *decl) (string, string, error) {
	f := d.field
	if f.ref == "" {
		return f.typeName, f.enumName, nil
	}
	target, ok := c.lookup(f.ref, d.scope)
	if !ok {
		return "", "", errTypeNotFound(f.ref, d.name, d.span)
	}
	switch target.declType {
	case declType_ENUM:
		return omgidl.TypeUint32, target.name, nil
	case declType_TYPEDEF:
		if target.field.ref == "" && !target.field.isArray {
			return target.field.typeName, target.field.enumName, nil
		}
	}
	return "", "", errNotAType(target.name, d.name, d.span)
}

// canonical widens a typed constant back to the types used during
// expression folding.
func canonical(v any) any {
	switch v := v.(type) {
	case int8, int16, int32, int64, int:
		n, _ := omgidl.ToInt64(v)
		return n
	case uint8, uint16, uint32, uint64, uint:
		n, _ := omgidl.ToUint64(v)
		if n <= math.MaxInt64 {
			return int64(n)
		}
		return n
	case float32:
		return float64(v)
	}
	return v
}

func evalUnary(op syntax.Operator, v any) (any, error) {
	switch v := v.(type) {
	case int64:
		switch op {
		case syntax.OpNeg:
			if v == math.MinInt64 {
				return nil, fmt.Errorf("negation of %d overflows", v)
			}
			return -v, nil
		case syntax.OpPos:
			return v, nil
		case syntax.OpNot:
			return ^v, nil
		}
	case uint64:
		switch op {
		case syntax.OpNeg:
			if v == 1<<63 {
				return int64(math.MinInt64), nil
			}
			return nil, fmt.Errorf("negation of %d overflows", v)
		case syntax.OpPos:
			return v, nil
		case syntax.OpNot:
			return ^v, nil
		}
	case float64:
		switch op {
		case syntax.OpNeg:
			return -v, nil
		case syntax.OpPos:
			return v, nil
		}
	}
	return nil, fmt.Errorf("operator %s is not defined for %v", op, v)
}

func evalBinary(op syntax.Operator, lhs, rhs any) (any, error) {
	lf, lFloat := lhs.(float64)
	rf, rFloat := rhs.(float64)
	if lFloat || rFloat {
		if !lFloat {
			lf, lFloat = toFloat(lhs)
		}
		if !rFloat {
			rf, rFloat = toFloat(rhs)
		}
		if !lFloat || !rFloat {
			return nil, fmt.Errorf("operator %s is not defined for %v and %v", op, lhs, rhs)
		}
		switch op {
		case syntax.OpAdd:
			return lf + rf, nil
		case syntax.OpSub:
			return lf - rf, nil
		case syntax.OpMul:
			return lf * rf, nil
		case syntax.OpDiv:
			return lf / rf, nil
		}
		return nil, fmt.Errorf("operator %s is not defined for floating-point values", op)
	}

	li, lSigned := lhs.(int64)
	ri, rSigned := rhs.(int64)
	if lSigned && rSigned {
		return evalSigned(op, li, ri)
	}
	lu, lOK := omgidl.ToUint64(lhs)
	ru, rOK := omgidl.ToUint64(rhs)
	if !lOK || !rOK {
		return nil, fmt.Errorf("operator %s is not defined for %v and %v", op, lhs, rhs)
	}
	return evalUnsigned(op, lu, ru)
}

func toFloat(v any) (float64, bool) {
	switch v := v.(type) {
	case int64:
		return float64(v), true
	case uint64:
		return float64(v), true
	}
	return 0, false
}

func evalSigned(op syntax.Operator, lhs, rhs int64) (any, error) {
	switch op {
	case syntax.OpOr:
		return lhs | rhs, nil
	case syntax.OpXor:
		return lhs ^ rhs, nil
	case syntax.OpAnd:
		return lhs & rhs, nil
	case syntax.OpShiftLeft:
		if rhs < 0 || rhs >= 64 {
			return nil, fmt.Errorf("shift count %d out of range", rhs)
		}
		return lhs << rhs, nil
	case syntax.OpShiftRight:
		if rhs < 0 || rhs >= 64 {
			return nil, fmt.Errorf("shift count %d out of range", rhs)
		}
		return lhs >> rhs, nil
	case syntax.OpAdd:
		return lhs + rhs, nil
	case syntax.OpSub:
		return lhs - rhs, nil
	case syntax.OpMul:
		return lhs * rhs, nil
	case syntax.OpDiv, syntax.OpMod:
		if rhs == 0 {
			return nil, fmt.Errorf("division by zero")
		}
		if op == syntax.OpDiv {
			return lhs / rhs, nil
		}
		return lhs % rhs, nil
	}
	return nil, fmt.Errorf("unknown operator %s", op)
}

func evalUnsigned(op syntax.Operator, lhs, rhs uint64) (any, error) {
	switch op {
	case syntax.OpOr:
		return lhs | rhs, nil
	case syntax.OpXor:
		return lhs ^ rhs, nil
	case syntax.OpAnd:
		return lhs & rhs, nil
	case syntax.OpShiftLeft:
		if rhs >= 64 {
			return nil, fmt.Errorf("shift count %d out of range", rhs)
		}
		return lhs << rhs, nil
	case syntax.OpShiftRight:
		if rhs >= 64 {
			return nil, fmt.Errorf("shift count %d out of range", rhs)
		}
		return lhs >> rhs, nil
	case syntax.OpAdd:
		return lhs + rhs, nil
	case syntax.OpSub:
		return lhs - rhs, nil
	case syntax.OpMul:
		return lhs * rhs, nil
	case syntax.OpDiv, syntax.OpMod:
		if rhs == 0 {
			return nil, fmt.Errorf("division by zero")
		}
		if op == syntax.OpDiv {
			return lhs / rhs, nil
		}
		return lhs % rhs, nil
	}
	return nil, fmt.Errorf("unknown operator %s", op)
}

// coerce converts a folded constant to the Go type of a normalized
// primitive type.
func coerce(v any, typeName string) (any, bool) {
	switch typeName {
	case omgidl.TypeBool:
		b, ok := v.(bool)
		return b, ok
	case omgidl.TypeString, omgidl.TypeWString:
		s, ok := v.(string)
		return s, ok
	case omgidl.TypeFloat32:
		f, ok := numberAsFloat(v)
		return float32(f), ok
	case omgidl.TypeFloat64:
		f, ok := numberAsFloat(v)
		return f, ok
	}

	if s, ok := v.(string); ok && typeName == omgidl.TypeUint8 {
		// A one-character string initializing a char.
		if len(s) != 1 {
			return nil, false
		}
		return s[0], true
	}
	if f, ok := v.(float64); ok {
		if f != math.Trunc(f) {
			return nil, false
		}
		if f < 0 {
			v = int64(f)
		} else {
			v = uint64(f)
		}
	}

	switch typeName {
	case omgidl.TypeInt8:
		return coerceSigned[int8](v, math.MinInt8, math.MaxInt8)
	case omgidl.TypeInt16:
		return coerceSigned[int16](v, math.MinInt16, math.MaxInt16)
	case omgidl.TypeInt32:
		return coerceSigned[int32](v, math.MinInt32, math.MaxInt32)
	case omgidl.TypeInt64:
		return coerceSigned[int64](v, math.MinInt64, math.MaxInt64)
	case omgidl.TypeUint8:
		return coerceUnsigned[uint8](v, math.MaxUint8)
	case omgidl.TypeUint16:
		return coerceUnsigned[uint16](v, math.MaxUint16)
	case omgidl.TypeUint32:
		return coerceUnsigned[uint32](v, math.MaxUint32)
	case omgidl.TypeUint64:
		return coerceUnsigned[uint64](v, math.MaxUint64)
	}
	return nil, false
}

func numberAsFloat(v any) (float64, bool) {
	switch v := v.(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	case uint64:
		return float64(v), true
	}
	return 0, false
}

func coerceSigned[T int8 | int16 | int32 | int64](v any, lo, hi int64) (any, bool) {
	n, ok := omgidl.ToInt64(v)
	if !ok || n < lo || n > hi {
		return nil, false
	}
	return T(n), true
}

func coerceUnsigned[T uint8 | uint16 | uint32 | uint64](v any, hi uint64) (any, bool) {
	n, ok := omgidl.ToUint64(v)
	if !ok || n > hi {
		return nil, false
	}
	return T(n), true
}

// positiveInt resolves an array length or bound.
func (c *compiler) positiveInt(v syntax.Value, ectx evalCtx, what string) (int, error) {
	value, err := c.eval(v, ectx)
	if err != nil {
		return 0, err
	}
	n, ok := omgidl.ToInt64(value)
	if !ok || n <= 0 || n > math.MaxInt32 {
		return 0, errInvalidBound(ectx.owner, what, value, v.Span())
	}
	return int(n), nil
}

func formatConst(v any) string {
	switch v := v.(type) {
	case string:
		return strconv.Quote(v)
	}
	return fmt.Sprint(v)
}
