package target

import (
	"fmt"

	"github.com/hdelassus/metalibm/internal/dispatch"
	"github.com/hdelassus/metalibm/internal/op"
)

const rdcycleText = `{
    unsigned long cycles;
    asm volatile ("rdcycle %%0 " : "=r" (cycles));
    %s = cycles;
}`

var rdcycleOperator = dispatch.InlineInstruction{
	Text:  rdcycleText,
	Slots: []dispatch.Slot{dispatch.Result()},
	Arity: 0,
}

// singleOpAsm renders a one-operand RISC-V instruction writing its result
// through the given constraint letters.
func singleOpAsm(insn, regDst, regSrc string) dispatch.InlineInstruction {
	return dispatch.InlineInstruction{
		Text:  fmt.Sprintf("asm volatile (\"%s %%%%0, %%%%1 \" : \"=%s\" (%%s) : \"%s\"(%%s));", insn, regDst, regSrc),
		Slots: []dispatch.Slot{dispatch.Result(), dispatch.Operand(0)},
		Arity: 1,
	}
}

// lowerThrough expands a rounding operation into a conversion to inner and
// back to target, so the strict integer conversions carry the rounding.
func lowerThrough(inner, target op.Format) func(*op.Node) *op.Node {
	return func(n *op.Node) *op.Node {
		return op.NewConversion(target, op.NewConversion(inner, n.Operand(0)))
	}
}

// RV64Table refines the portable C table with RV64 instruction templates.
// Nearest-integer operations the ISA cannot express directly are lowered
// through the integer conversion instructions it does have.
func RV64Table() dispatch.Table {
	overlay := dispatch.Table{
		op.Specific: {
			op.ReadCycleCounter: anyShapeEntry([]dispatch.Variant{
				{Sig: dispatch.StrictMatch(op.UInt64), Op: rdcycleOperator},
			}),
		},
		op.NearestInteger: {
			op.AnySpecifier: anyShapeEntry([]dispatch.Variant{
				{Sig: dispatch.StrictMatch(op.Int32, op.Binary32), Op: singleOpAsm("fcvt.w.s", "r", "f")},
				{Sig: dispatch.StrictMatch(op.Binary32, op.Binary32), Op: dispatch.Rewrite{Modifier: lowerThrough(op.Int32, op.Binary32)}},
				{Sig: dispatch.StrictMatch(op.Int64, op.Binary64), Op: singleOpAsm("fcvt.l.d", "r", "f")},
				{Sig: dispatch.StrictMatch(op.Int32, op.Binary64), Op: dispatch.Rewrite{Modifier: lowerThrough(op.Int64, op.Int32)}},
				{Sig: dispatch.StrictMatch(op.Binary64, op.Binary64), Op: dispatch.Rewrite{Modifier: lowerThrough(op.Int64, op.Binary64)}},
			}),
		},
	}
	return dispatch.Merge(CTable(), overlay)
}
