package target

import (
	"fmt"

	"github.com/hdelassus/metalibm/internal/dispatch"
	"github.com/hdelassus/metalibm/internal/op"
)

var cNumericFormats = []*op.ScalarFormat{op.Binary32, op.Binary64, op.Int32, op.Int64, op.UInt32, op.UInt64}
var cIntegerFormats = []*op.ScalarFormat{op.Int32, op.Int64, op.UInt32, op.UInt64}

// infixVariants maps each format onto "a <sym> b" with a strict
// (f, f) -> f signature.
func infixVariants(sym string, formats ...*op.ScalarFormat) []dispatch.Variant {
	variants := make([]dispatch.Variant, 0, len(formats))
	for _, f := range formats {
		variants = append(variants, dispatch.Variant{
			Sig: dispatch.StrictMatch(f, f, f),
			Op:  dispatch.Direct{Expr: "%s " + sym + " %s"},
		})
	}
	return variants
}

// callVariants maps each format onto a libm-style unary call, using the
// float32 spelling where one exists.
func callVariants(fn string, headers ...string) []dispatch.Variant {
	return []dispatch.Variant{
		{Sig: dispatch.StrictMatch(op.Binary32, op.Binary32), Op: dispatch.Direct{Expr: fn + "f(%s)", Headers: headers}},
		{Sig: dispatch.StrictMatch(op.Binary64, op.Binary64), Op: dispatch.Direct{Expr: fn + "(%s)", Headers: headers}},
	}
}

func castVariants() []dispatch.Variant {
	var variants []dispatch.Variant
	for _, to := range cNumericFormats {
		for _, from := range cNumericFormats {
			if to == from {
				continue
			}
			variants = append(variants, dispatch.Variant{
				Sig: dispatch.StrictMatch(to, from),
				Op:  dispatch.Direct{Expr: fmt.Sprintf("(%s)%%s", to.CodeName(op.CCode))},
			})
		}
	}
	return variants
}

func anyShapeEntry(variants []dispatch.Variant) []dispatch.Entry {
	return []dispatch.Entry{{Shape: dispatch.AnyShape, Variants: variants}}
}

// CTable is the portable C operator table specialized targets refine.
func CTable() dispatch.Table {
	return dispatch.Table{
		op.Addition: {
			op.AnySpecifier: anyShapeEntry(infixVariants("+", cNumericFormats...)),
		},
		op.Subtraction: {
			op.AnySpecifier: anyShapeEntry(infixVariants("-", cNumericFormats...)),
		},
		op.Multiplication: {
			op.AnySpecifier: anyShapeEntry(infixVariants("*", cNumericFormats...)),
		},
		op.Division: {
			op.AnySpecifier: anyShapeEntry(infixVariants("/", cNumericFormats...)),
		},
		op.BitAnd: {
			op.AnySpecifier: anyShapeEntry(infixVariants("&", cIntegerFormats...)),
		},
		op.BitOr: {
			op.AnySpecifier: anyShapeEntry(infixVariants("|", cIntegerFormats...)),
		},
		op.BitXor: {
			op.AnySpecifier: anyShapeEntry(infixVariants("^", cIntegerFormats...)),
		},
		op.Negation: {
			op.AnySpecifier: anyShapeEntry([]dispatch.Variant{
				{Sig: dispatch.StrictMatch(op.Binary32, op.Binary32), Op: dispatch.Direct{Expr: "-%s"}},
				{Sig: dispatch.StrictMatch(op.Binary64, op.Binary64), Op: dispatch.Direct{Expr: "-%s"}},
				{Sig: dispatch.StrictMatch(op.Int32, op.Int32), Op: dispatch.Direct{Expr: "-%s"}},
				{Sig: dispatch.StrictMatch(op.Int64, op.Int64), Op: dispatch.Direct{Expr: "-%s"}},
			}),
		},
		op.Abs: {
			op.AnySpecifier: anyShapeEntry(callVariants("fabs", "math.h")),
		},
		op.Min: {
			op.AnySpecifier: anyShapeEntry([]dispatch.Variant{
				{Sig: dispatch.StrictMatch(op.Binary32, op.Binary32, op.Binary32), Op: dispatch.Direct{Expr: "fminf(%s, %s)", Headers: []string{"math.h"}}},
				{Sig: dispatch.StrictMatch(op.Binary64, op.Binary64, op.Binary64), Op: dispatch.Direct{Expr: "fmin(%s, %s)", Headers: []string{"math.h"}}},
			}),
		},
		op.Max: {
			op.AnySpecifier: anyShapeEntry([]dispatch.Variant{
				{Sig: dispatch.StrictMatch(op.Binary32, op.Binary32, op.Binary32), Op: dispatch.Direct{Expr: "fmaxf(%s, %s)", Headers: []string{"math.h"}}},
				{Sig: dispatch.StrictMatch(op.Binary64, op.Binary64, op.Binary64), Op: dispatch.Direct{Expr: "fmax(%s, %s)", Headers: []string{"math.h"}}},
			}),
		},
		op.FusedMultiplyAdd: {
			op.AnySpecifier: anyShapeEntry([]dispatch.Variant{
				{Sig: dispatch.StrictMatch(op.Binary32, op.Binary32, op.Binary32, op.Binary32), Op: dispatch.Direct{Expr: "fmaf(%s, %s, %s)", Headers: []string{"math.h"}}},
				{Sig: dispatch.StrictMatch(op.Binary64, op.Binary64, op.Binary64, op.Binary64), Op: dispatch.Direct{Expr: "fma(%s, %s, %s)", Headers: []string{"math.h"}}},
			}),
		},
		op.Conversion: {
			op.AnySpecifier: anyShapeEntry(castVariants()),
		},
		op.NearestInteger: {
			op.AnySpecifier: anyShapeEntry(callVariants("rint", "math.h")),
		},
	}
}
