// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lower

import (
	"fmt"

	"github.com/kemurphy/compiler/ir"
	"github.com/kemurphy/compiler/target"
)

// varToReg returns the register holding v's value, plus any instructions
// that must run before (to load a spilled value) and after (to store it
// back) the use. spillPos must be 0, 1, or 2 and must not be reused while
// another live spill at the same position is still active — callers pick
// distinct positions for concurrently-live operands of the same
// instruction (spec.md §4.7's var_to_reg contract).
func varToReg(colors map[ir.Var]ir.RegisterColor, v ir.Var, spillPos int, offs uint32) (reg int, before, after []target.Inst, err error) {
	color, ok := colors[v]
	if !ok {
		return 0, nil, nil, fmt.Errorf("lower: %s has no assigned color", v)
	}
	switch color.Kind {
	case ir.RegColorReg:
		return color.Reg, nil, nil, nil
	case ir.RegColorStack:
		reg := target.SpillRegBase + spillPos
		pred := target.TruePred
		pos := int32(offs) + int32(color.Slot)*4
		before = []target.Inst{target.Load(pred, target.LsuWidthL, reg, target.StackPointer, pos)}
		after = []target.Inst{target.Store(pred, target.LsuWidthL, target.StackPointer, pos, reg)}
		return reg, before, after, nil
	default:
		return 0, nil, nil, fmt.Errorf("lower: global-colored var %s is not supported by this lowering pass", v)
	}
}

// assignVars is φ-resolution at a control-flow edge: for each var in the
// edge's live-var list, look up the generation the target label expects
// for that name, and emit a move from the source color to the
// destination color (omitted if they coincide).
func assignVars(colors map[ir.Var]ir.RegisterColor, pred target.Pred, gens map[ir.Name]uint32, vars []ir.Var, offs uint32) ([]target.Inst, error) {
	var result []target.Inst
	for _, v := range vars {
		gen, ok := gens[v.Name]
		if !ok {
			return nil, fmt.Errorf("lower: label does not expect a generation for %s", v)
		}
		newVar := v.WithGen(gen)

		srcReg, srcBefore, _, err := varToReg(colors, v, 1, offs)
		if err != nil {
			return nil, err
		}
		destReg, _, destAfter, err := varToReg(colors, newVar, 1, offs)
		if err != nil {
			return nil, err
		}
		result = append(result, srcBefore...)
		if srcReg != destReg {
			result = append(result, target.Alu1Reg(pred, target.MovAluOp, destReg, srcReg, target.SllShift, 0))
		}
		result = append(result, destAfter...)
	}
	return result, nil
}
