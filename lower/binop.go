// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lower

import (
	"fmt"

	"github.com/kemurphy/compiler/cgerror"
	"github.com/kemurphy/compiler/ir"
	"github.com/kemurphy/compiler/target"
)

// binopToCmpop maps a comparison BinOpKind to the compare instruction's
// CompareType, plus whether the final MOV polarity must be inverted.
// signed comes from the op's own Signed flag (Open Question (a): the
// source hardcoded unsigned here, which this backend treats as a latent
// bug and fixes by surfacing the IR's signed flag instead).
func binopToCmpop(op ir.BinOpKind, signed, swapped bool) (target.CompareType, bool, bool) {
	switch op {
	case ir.EqualsOp:
		return target.CmpEQ, false, true
	case ir.NotEqualsOp:
		return target.CmpEQ, true, true
	case ir.GreaterEqOp, ir.LessOp:
		if swapped {
			cmp := target.CmpLEU
			if signed {
				cmp = target.CmpLES
			}
			return cmp, op == ir.LessOp, true
		}
		cmp := target.CmpLTU
		if signed {
			cmp = target.CmpLTS
		}
		return cmp, op != ir.LessOp, true
	case ir.GreaterOp, ir.LessEqOp:
		if swapped {
			cmp := target.CmpLTU
			if signed {
				cmp = target.CmpLTS
			}
			return cmp, op == ir.LessEqOp, true
		}
		cmp := target.CmpLEU
		if signed {
			cmp = target.CmpLES
		}
		return cmp, op != ir.LessEqOp, true
	}
	return 0, false, false
}

// binopToAluop maps a non-comparison BinOpKind to its ALU2 opcode.
// Times/Divide/Mod/RightShift need hardware support this target doesn't
// model as a single ALU2 op; callers treat an error here as unencodable.
func binopToAluop(op ir.BinOpKind, swapped bool) (target.AluOp, error) {
	switch op {
	case ir.PlusOp:
		return target.AddAluOp, nil
	case ir.MinusOp:
		if swapped {
			return target.RsbAluOp, nil
		}
		return target.SubAluOp, nil
	case ir.BitAndOp:
		return target.AndAluOp, nil
	case ir.BitOrOp:
		return target.OrAluOp, nil
	case ir.BitXorOp:
		return target.XorAluOp, nil
	case ir.LeftShiftOp:
		return target.LslAluOp, nil
	}
	return 0, fmt.Errorf("binop %s has no single-instruction ALU2 encoding", op)
}

// convertBinop lowers a BinOp's operands into dest, following
// convert_binop's shape: the non-variable operand (if any) is swapped to
// the right, comparisons emit compare+predicated-double-MOV, everything
// else emits a single ALU2 instruction (register or immediate form).
func convertBinop(colors map[ir.Var]ir.RegisterColor, dest int, op ir.BinOpKind, l, r ir.RValue, signed bool, offs uint32) ([]target.Inst, error) {
	swapped := false
	if !l.IsVariable() {
		l, r = r, l
		swapped = true
	}
	if !l.IsVariable() {
		return nil, cgerror.Malformedf("", "BinOp %s over two constants; constant folding should have removed this", op)
	}
	varL := l.Var

	var result []target.Inst
	regL, beforeL, _, err := varToReg(colors, varL, 1, offs)
	if err != nil {
		return nil, err
	}
	result = append(result, beforeL...)

	if r.IsVariable() {
		regR, beforeR, _, err := varToReg(colors, r.Var, 2, offs)
		if err != nil {
			return nil, err
		}
		result = append(result, beforeR...)

		if cmp, negated, ok := binopToCmpop(op, signed, swapped); ok {
			result = append(result,
				target.CompareReg(target.TruePred, target.Pred{Reg: 0}, regL, cmp, regR, target.SllShift, 0),
				target.Alu1Short(target.Pred{Inverted: negated, Reg: 0}, target.MovAluOp, dest, 1, 0),
				target.Alu1Short(target.Pred{Inverted: !negated, Reg: 0}, target.MovAluOp, dest, 0, 0),
			)
			return result, nil
		}
		aluOp, err := binopToAluop(op, swapped)
		if err != nil {
			return nil, cgerror.Unencodablef("", "%v", err)
		}
		result = append(result, target.Alu2Reg(target.TruePred, aluOp, dest, regL, regR, target.SllShift, 0))
		return result, nil
	}

	if r.Lit.Kind != ir.LitNum {
		return nil, cgerror.Malformedf("", "BinOp %s has a non-numeric constant operand", op)
	}
	num := uint32(r.Lit.Num)

	if cmp, negated, ok := binopToCmpop(op, signed, swapped); ok {
		if val, rot, packed := target.PackInt(num, 10); packed {
			result = append(result, target.CompareShort(target.TruePred, target.Pred{Reg: 0}, regL, cmp, val, rot))
		} else {
			result = append(result, target.CompareLong(target.TruePred, target.Pred{Reg: 0}, regL, cmp), target.Long(num))
		}
		result = append(result,
			target.Alu1Short(target.Pred{Inverted: negated, Reg: 0}, target.MovAluOp, dest, 1, 0),
			target.Alu1Short(target.Pred{Inverted: !negated, Reg: 0}, target.MovAluOp, dest, 0, 0),
		)
		return result, nil
	}

	aluOp, err := binopToAluop(op, swapped)
	if err != nil {
		return nil, cgerror.Unencodablef("", "%v", err)
	}
	if val, rot, packed := target.PackInt(num, 10); packed {
		result = append(result, target.Alu2Short(target.TruePred, aluOp, dest, regL, val, rot))
	} else {
		result = append(result, target.Alu2Long(target.TruePred, aluOp, dest, regL), target.Long(num))
	}
	return result, nil
}
