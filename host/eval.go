package host

import (
	"fmt"
	"math/big"
	"slices"
	"unicode/utf8"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"

	"github.com/reglet-dev/typeddata/errors"
)

const evalFilename = "(eval)"

// HCLEvaluator evaluates HCL expressions against the locals of a Binding.
//
// Source is either a single expression, whose value is returned, or a
// sequence of "name = expression" assignments evaluated in order, each
// defining a local; the last assigned value is returned.
type HCLEvaluator struct {
	functions map[string]function.Function
}

// NewHCLEvaluator returns an evaluator with a small standard function set.
func NewHCLEvaluator() *HCLEvaluator {
	return &HCLEvaluator{
		functions: map[string]function.Function{
			"upper":  stdlib.UpperFunc,
			"lower":  stdlib.LowerFunc,
			"strlen": stdlib.StrlenFunc,
			"abs":    stdlib.AbsoluteFunc,
			"max":    stdlib.MaxFunc,
			"min":    stdlib.MinFunc,
			"format": stdlib.FormatFunc,
			"concat": stdlib.ConcatFunc,
		},
	}
}

// Eval implements Evaluator.
func (e *HCLEvaluator) Eval(rt *Runtime, b Value, src string) (Value, error) {
	expr, diags := hclsyntax.ParseExpression([]byte(src), evalFilename, hcl.InitialPos)
	if !diags.HasErrors() {
		return e.evalExpr(rt, b, expr)
	}

	file, bodyDiags := hclsyntax.ParseConfig([]byte(src), evalFilename, hcl.InitialPos)
	if bodyDiags.HasErrors() {
		return 0, errors.NewException(errors.ClassSyntaxError, "%s", diags.Error())
	}
	body, ok := file.Body.(*hclsyntax.Body)
	if !ok || len(body.Blocks) > 0 {
		return 0, errors.NewException(errors.ClassSyntaxError, "%s: blocks are not expressions", evalFilename)
	}

	attrs := make([]*hclsyntax.Attribute, 0, len(body.Attributes))
	for _, attr := range body.Attributes {
		attrs = append(attrs, attr)
	}
	slices.SortFunc(attrs, func(a, b *hclsyntax.Attribute) int {
		return a.SrcRange.Start.Byte - b.SrcRange.Start.Byte
	})

	last := Nil
	for _, attr := range attrs {
		v, err := e.evalExpr(rt, b, attr.Expr)
		if err != nil {
			return 0, err
		}
		if err := rt.BindingLocalSet(b, attr.Name, v); err != nil {
			return 0, err
		}
		last = v
	}
	return last, nil
}

func (e *HCLEvaluator) evalExpr(rt *Runtime, b Value, expr hclsyntax.Expression) (Value, error) {
	vars := make(map[string]cty.Value)
	for _, traversal := range expr.Variables() {
		name := traversal.RootName()
		if _, done := vars[name]; done {
			continue
		}
		local, err := rt.BindingLocalGet(b, name)
		if err != nil {
			return 0, errors.NewException(errors.ClassNameError,
				"undefined local variable or method '%s' for %s", name, rt.Inspect(b))
		}
		cv, err := rt.ToCty(local)
		if err != nil {
			return 0, fmt.Errorf("local variable '%s': %w", name, err)
		}
		vars[name] = cv
	}

	out, diags := expr.Value(&hcl.EvalContext{Variables: vars, Functions: e.functions})
	if diags.HasErrors() {
		return 0, errors.NewException(errors.ClassArgumentError, "%s", diags.Error())
	}
	return rt.FromCty(out)
}

// ToCty converts a host value to an expression value. Typed data and other
// opaque objects cannot be converted.
func (rt *Runtime) ToCty(v Value) (cty.Value, error) {
	switch {
	case v == Nil:
		return cty.NullVal(cty.DynamicPseudoType), nil
	case v == True:
		return cty.True, nil
	case v == False:
		return cty.False, nil
	case v.IsFixnum():
		return cty.NumberIntVal(v.FixnumValue()), nil
	case v.IsSymbol():
		name, _ := rt.SymbolName(v)
		return cty.StringVal(name), nil
	}

	o := rt.object(v)
	if o == nil {
		return cty.NilVal, &errors.ConversionError{Actual: rt.Classname(v), Expected: "expression value"}
	}
	switch o.kind {
	case KindBignum:
		return cty.NumberVal(new(big.Float).SetInt(o.payload.(*big.Int))), nil
	case KindRational:
		return cty.NumberVal(new(big.Float).SetRat(o.payload.(*big.Rat))), nil
	case KindString:
		s := o.payload.(*stringData)
		text, err := transcode(s.b, s.enc, EncodingUTF8)
		if err != nil {
			return cty.NilVal, err
		}
		if !utf8.Valid(text) {
			return cty.NilVal, &errors.EncodingError{Encoding: s.enc}
		}
		return cty.StringVal(string(text)), nil
	case KindArray:
		elems := o.payload.(*arrayData).elems
		if len(elems) == 0 {
			return cty.EmptyTupleVal, nil
		}
		out := make([]cty.Value, len(elems))
		for i, e := range elems {
			cv, err := rt.ToCty(e)
			if err != nil {
				return cty.NilVal, err
			}
			out[i] = cv
		}
		return cty.TupleVal(out), nil
	case KindHash:
		attrs := make(map[string]cty.Value)
		var convErr error
		_ = rt.HashForEach(v, func(key, value Value) bool {
			name, err := rt.hashKeyName(key)
			if err != nil {
				convErr = err
				return false
			}
			cv, err := rt.ToCty(value)
			if err != nil {
				convErr = err
				return false
			}
			attrs[name] = cv
			return true
		})
		if convErr != nil {
			return cty.NilVal, convErr
		}
		if len(attrs) == 0 {
			return cty.EmptyObjectVal, nil
		}
		return cty.ObjectVal(attrs), nil
	}
	return cty.NilVal, &errors.ConversionError{Actual: rt.Classname(v), Expected: "expression value"}
}

func (rt *Runtime) hashKeyName(key Value) (string, error) {
	if name, ok := rt.SymbolName(key); ok {
		return name, nil
	}
	if b, err := rt.StringBytes(key); err == nil {
		return string(b), nil
	}
	return "", &errors.ConversionError{Actual: rt.Classname(key), Expected: "String"}
}

// FromCty converts an expression value to a host value. Non-integral
// numbers become Rationals.
func (rt *Runtime) FromCty(v cty.Value) (Value, error) {
	if v.IsNull() {
		return Nil, nil
	}
	if !v.IsKnown() {
		return 0, errors.NewException(errors.ClassArgumentError, "expression value is unknown")
	}

	ty := v.Type()
	switch {
	case ty == cty.Bool:
		return Bool(v.True()), nil
	case ty == cty.Number:
		bf := v.AsBigFloat()
		if bf.IsInt() {
			i, _ := bf.Int(nil)
			return rt.BigInt(i), nil
		}
		r, _ := bf.Rat(nil)
		return rt.NewRationalBig(r), nil
	case ty == cty.String:
		return rt.NewString(v.AsString()), nil
	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		a := rt.NewArray()
		for it := v.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			hv, err := rt.FromCty(ev)
			if err != nil {
				return 0, err
			}
			if err := rt.ArrayPush(a, hv); err != nil {
				return 0, err
			}
		}
		return a, nil
	case ty.IsObjectType() || ty.IsMapType():
		h := rt.NewHash()
		for it := v.ElementIterator(); it.Next(); {
			k, ev := it.Element()
			hv, err := rt.FromCty(ev)
			if err != nil {
				return 0, err
			}
			if err := rt.HashAset(h, rt.NewString(k.AsString()), hv); err != nil {
				return 0, err
			}
		}
		return h, nil
	}
	return 0, errors.NewException(errors.ClassTypeError, "unsupported expression value of type %s", ty.FriendlyName())
}
