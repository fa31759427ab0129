// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lower

import (
	"github.com/kemurphy/compiler/cgerror"
	"github.com/kemurphy/compiler/ir"
	"github.com/kemurphy/compiler/target"
)

// convertUnop lowers a UnOp's single operand into dest. AddrOf is
// special-cased: it never touches the operand's color through
// var_to_reg, since taking an address only makes sense for a
// stack-resident variable.
func convertUnop(colors map[ir.Var]ir.RegisterColor, dest int, op ir.UnOpKind, rhs ir.RValue, offs uint32) ([]target.Inst, error) {
	pred := target.TruePred

	if op == ir.AddrOf {
		if !rhs.IsVariable() {
			return nil, cgerror.Malformedf("", "cannot take the address of a constant")
		}
		color, ok := colors[rhs.Var]
		if !ok {
			return nil, cgerror.Malformedf("", "%s has no assigned color", rhs.Var)
		}
		switch color.Kind {
		case ir.RegColorStack:
			return []target.Inst{target.Alu2Short(pred, target.AddAluOp, dest, target.StackPointer, offs+uint32(color.Slot)*4, 0)}, nil
		case ir.RegColorGlobal:
			return nil, cgerror.Unencodablef("", "addressing a global color is not supported by this lowering pass")
		default:
			return nil, cgerror.Malformedf("", "cannot take the address of a register-colored variable %s", rhs.Var)
		}
	}

	if op == ir.Deref {
		return nil, cgerror.Malformedf("", "Deref should not appear in IR reaching lowering")
	}

	if rhs.IsVariable() {
		regR, beforeR, _, err := varToReg(colors, rhs.Var, 2, offs)
		if err != nil {
			return nil, err
		}
		insts, err := unopBody(op, pred, dest, regR)
		if err != nil {
			return nil, err
		}
		return append(beforeR, insts...), nil
	}

	if op != ir.Identity {
		return nil, cgerror.Malformedf("", "UnOp %s over a constant should have been constant folded", op)
	}
	if rhs.Lit.Kind != ir.LitNum {
		return nil, cgerror.Malformedf("", "UnOp Identity over a non-numeric constant at lowering time")
	}
	num := uint32(rhs.Lit.Num)
	if val, rot, ok := target.PackInt(num, 15); ok {
		return []target.Inst{target.Alu1Short(pred, target.MovAluOp, dest, val, rot)}, nil
	}
	return []target.Inst{target.Alu1Long(pred, target.MovAluOp, dest), target.Long(num)}, nil
}

// unopBody lowers the register-operand form of each non-AddrOf,
// non-Deref unop.
func unopBody(op ir.UnOpKind, pred target.Pred, dest, x int) ([]target.Inst, error) {
	switch op {
	case ir.Negate:
		return []target.Inst{target.Alu2Short(pred, target.RsbAluOp, dest, x, 0, 0)}, nil
	case ir.LogNot:
		return []target.Inst{target.Alu2Short(pred, target.XorAluOp, dest, x, 1, 0)}, nil
	case ir.BitNot:
		return []target.Inst{target.Alu1Reg(pred, target.MvnAluOp, dest, x, target.SllShift, 0)}, nil
	case ir.Identity:
		if dest == x {
			return nil, nil
		}
		return []target.Inst{target.Alu1Reg(pred, target.MovAluOp, dest, x, target.SllShift, 0)}, nil
	case ir.SignExtendByte:
		return []target.Inst{
			target.Alu2Short(pred, target.LslAluOp, dest, x, 24, 0),
			target.Alu2Short(pred, target.AsrAluOp, dest, dest, 24, 0),
		}, nil
	case ir.SignExtendHalf:
		return []target.Inst{
			target.Alu2Short(pred, target.LslAluOp, dest, x, 16, 0),
			target.Alu2Short(pred, target.AsrAluOp, dest, dest, 16, 0),
		}, nil
	}
	return nil, cgerror.Unencodablef("", "unop %s has no lowering", op)
}
