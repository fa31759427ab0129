// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package lower walks a function's SSA, folded op list once more and
// emits target instructions plus a label/function-name to offset table —
// stage 7 ("Layout & lowering") of the pipeline.
package lower

import (
	"fmt"

	"github.com/kemurphy/compiler/cgerror"
	"github.com/kemurphy/compiler/ir"
	"github.com/kemurphy/compiler/regalloc"
	"github.com/kemurphy/compiler/resolved"
	"github.com/kemurphy/compiler/target"
)

// Lower produces target instructions for ops (which must begin with a
// single Func op and have already passed through ssa.Convert, fold.Fold,
// and regalloc.Color). colorResult is regalloc's total color map for
// this function's vars.
func Lower(ops []ir.Op, interner *resolved.Interner, colorResult *regalloc.Result) ([]target.Inst, map[string]int, error) {
	if len(ops) == 0 || ops[0].Kind != ir.OpFunc {
		return nil, nil, fmt.Errorf("lower: op list must begin with exactly one Func op")
	}
	colors := colorResult.Colors

	stackItemMap, stackItemOffs := allocaLayout(ops)

	maxRegIndex := 0
	for _, c := range colors {
		if c.Kind == ir.RegColorReg && c.Reg > maxRegIndex {
			maxRegIndex = c.Reg
		}
	}
	maxStackIndex := colorResult.MaxStackIndex

	labelGens := make(map[uint32]map[ir.Name]uint32)
	for _, op := range ops {
		if op.Kind == ir.OpLabel {
			gens := make(map[ir.Name]uint32)
			for _, v := range op.LiveVars {
				gens[v.Name] = v.GenOr0()
			}
			labelGens[op.Label] = gens
		}
	}

	targets := make(map[string]int)
	var result []target.Inst
	fn := funcName{funcName: ops[0].FuncName, interner: interner}

	for pos, op := range ops {
		switch op.Kind {
		case ir.OpFunc:
			targets[fn.String()] = len(result)
			result = append(result,
				target.Alu2Short(target.TruePred, target.AddAluOp, target.LinkRegister, target.LinkRegister, 16, 0),
				target.Store(target.TruePred, target.LsuWidthL, target.StackPointer, 0, target.LinkRegister),
			)
			for i := target.FirstCalleeSavedReg; i <= maxRegIndex; i++ {
				x := i - target.FirstCalleeSavedReg
				result = append(result, target.Store(target.TruePred, target.LsuWidthL, target.StackPointer, int32(stackItemOffs+uint32(x)*4), i))
			}

		case ir.OpReturn:
			insts, err := convertUnop(colors, target.ReturnReg, ir.Identity, op.RVal, stackItemOffs)
			if err != nil {
				return nil, nil, err
			}
			result = append(result, insts...)
			for i := target.FirstCalleeSavedReg; i <= maxRegIndex; i++ {
				x := i - target.FirstCalleeSavedReg
				result = append(result, target.Load(target.TruePred, target.LsuWidthL, i, target.StackPointer, int32(stackItemOffs+uint32(x)*4)))
			}
			result = append(result, target.Load(target.TruePred, target.LsuWidthL, target.LinkRegister, target.StackPointer, 0))
			result = append(result, target.BranchReg(target.TruePred, false, target.LinkRegister, 0))

		case ir.OpBinOp:
			destReg, _, after, err := varToReg(colors, op.Dest, 0, stackItemOffs)
			if err != nil {
				return nil, nil, err
			}
			insts, err := convertBinop(colors, destReg, op.BinOp, op.LHS, op.RHS, op.Signed, stackItemOffs)
			if err != nil {
				return nil, nil, err
			}
			result = append(result, insts...)
			result = append(result, after...)

		case ir.OpUnOp:
			destReg, _, after, err := varToReg(colors, op.Dest, 0, stackItemOffs)
			if err != nil {
				return nil, nil, err
			}
			insts, err := convertUnop(colors, destReg, op.UnOp, op.LHS, stackItemOffs)
			if err != nil {
				return nil, nil, err
			}
			result = append(result, insts...)
			result = append(result, after...)

		case ir.OpLoad, ir.OpStore:
			reg1, before1, _, err := varToReg(colors, op.Addr, 0, stackItemOffs)
			if err != nil {
				return nil, nil, err
			}
			result = append(result, before1...)
			other := op.Data
			if op.Kind == ir.OpLoad {
				other = op.Dest
			}
			reg2, before2, after2, err := varToReg(colors, other, 1, stackItemOffs)
			if err != nil {
				return nil, nil, err
			}
			width := widthToLsuWidth(op.Width)
			if op.Kind == ir.OpStore {
				result = append(result, before2...)
				result = append(result, target.Store(target.TruePred, width, reg1, 0, reg2))
			} else {
				result = append(result, target.Load(target.TruePred, width, reg2, reg1, 0))
				result = append(result, after2...)
			}

		case ir.OpCondGoto:
			if !op.RVal.IsVariable() {
				return nil, nil, cgerror.MalformedOp(fn.String(), op, "CondGoto's condition must be a variable by lowering time")
			}
			reg, before, _, err := varToReg(colors, op.RVal.Var, 0, stackItemOffs)
			if err != nil {
				return nil, nil, err
			}
			result = append(result, before...)
			result = append(result, target.CompareShort(target.TruePred, target.Pred{Reg: 0}, reg, target.CmpBS, 1, 0))
			gens, ok := labelGens[op.Label]
			if !ok {
				return nil, nil, cgerror.MalformedOp(fn.String(), op, fmt.Sprintf("CondGoto targets undefined LABEL%d", op.Label))
			}
			assigns, err := assignVars(colors, target.TruePred, gens, op.LiveVars, stackItemOffs)
			if err != nil {
				return nil, nil, err
			}
			result = append(result, assigns...)
			result = append(result, target.BranchImm(target.Pred{Inverted: op.Negated, Reg: 0}, false, target.Label(fmt.Sprintf("LABEL%d", op.Label))))

		case ir.OpGoto:
			gens, ok := labelGens[op.Label]
			if !ok {
				return nil, nil, cgerror.MalformedOp(fn.String(), op, fmt.Sprintf("Goto targets undefined LABEL%d", op.Label))
			}
			assigns, err := assignVars(colors, target.TruePred, gens, op.LiveVars, stackItemOffs)
			if err != nil {
				return nil, nil, err
			}
			result = append(result, assigns...)
			if pos+1 >= len(ops) || ops[pos+1].Kind != ir.OpLabel || ops[pos+1].Label != op.Label {
				result = append(result, target.BranchImm(target.TruePred, false, target.Label(fmt.Sprintf("LABEL%d", op.Label))))
			}

		case ir.OpLabel:
			targets[fmt.Sprintf("LABEL%d", op.Label)] = len(result)

		case ir.OpAlloca:
			offs, ok := stackItemMap[pos]
			if !ok {
				return nil, nil, cgerror.MalformedOp(fn.String(), op, "alloca missing from stack item map")
			}
			reg, _, after, err := varToReg(colors, op.Dest, 0, stackItemOffs)
			if err != nil {
				return nil, nil, err
			}
			result = append(result, target.Alu2Short(target.TruePred, target.AddAluOp, reg, target.StackPointer, offs, 0))
			result = append(result, after...)

		case ir.OpCall:
			insts, err := convertCall(colors, op, fn, stackItemOffs, maxStackIndex, interner)
			if err != nil {
				return nil, nil, err
			}
			result = append(result, insts...)

		case ir.OpNop, ir.OpAsm:
			// Nothing to emit.
		}
	}

	return result, targets, nil
}

type funcName struct {
	funcName ir.Name
	interner *resolved.Interner
}

func (f funcName) String() string {
	if s, ok := f.interner.Name(resolved.NodeId(f.funcName)); ok {
		return s
	}
	return fmt.Sprintf("v%d", f.funcName)
}

// allocaLayout is the stack_item_map pre-pass: each Alloca is assigned
// the next free region starting at offset 4 (skipping the saved return
// address slot), growing by its size. Returns the map and the resulting
// base offset where the spill/callee-save area begins.
func allocaLayout(ops []ir.Op) (map[int]uint32, uint32) {
	m := make(map[int]uint32)
	offs := uint32(4)
	for i, op := range ops {
		if op.Kind == ir.OpAlloca {
			m[i] = offs
			offs += op.Size
		}
	}
	return m, offs
}

func widthToLsuWidth(w ir.Width) target.LsuWidth {
	switch w {
	case ir.Width16:
		return target.LsuWidthH
	case ir.Width8:
		return target.LsuWidthB
	default:
		return target.LsuWidthL
	}
}
