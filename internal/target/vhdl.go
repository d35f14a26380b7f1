package target

import (
	"github.com/hdelassus/metalibm/internal/dispatch"
	"github.com/hdelassus/metalibm/internal/op"
)

// sameWidthVectors accepts any uniform-width bit-vector tuple; width
// mixing requires an explicit resize rewrite supplied by the authoring
// table.
func sameWidthVectors(operands []op.Format, result op.Format) bool {
	res, ok := result.(*op.VectorFormat)
	if !ok {
		return false
	}
	for _, f := range operands {
		v, ok := f.(*op.VectorFormat)
		if !ok || v.Width() != res.Width() {
			return false
		}
	}
	return true
}

var unsignedArith = []string{"ieee.std_logic_unsigned.all"}

// VHDLTable renders arithmetic and logic over std_logic_vector operands.
func VHDLTable() dispatch.Table {
	return dispatch.Table{
		op.Addition: {
			op.AnySpecifier: anyShapeEntry([]dispatch.Variant{
				{Sig: sameWidthVectors, Op: dispatch.Direct{Expr: "%s + %s", Headers: unsignedArith}},
			}),
		},
		op.Subtraction: {
			op.AnySpecifier: anyShapeEntry([]dispatch.Variant{
				{Sig: sameWidthVectors, Op: dispatch.Direct{Expr: "%s - %s", Headers: unsignedArith}},
			}),
		},
		op.BitAnd: {
			op.AnySpecifier: anyShapeEntry([]dispatch.Variant{
				{Sig: sameWidthVectors, Op: dispatch.Direct{Expr: "%s and %s"}},
			}),
		},
		op.BitOr: {
			op.AnySpecifier: anyShapeEntry([]dispatch.Variant{
				{Sig: sameWidthVectors, Op: dispatch.Direct{Expr: "%s or %s"}},
			}),
		},
		op.BitXor: {
			op.AnySpecifier: anyShapeEntry([]dispatch.Variant{
				{Sig: sameWidthVectors, Op: dispatch.Direct{Expr: "%s xor %s"}},
			}),
		},
	}
}
