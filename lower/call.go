// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lower

import (
	"github.com/kemurphy/compiler/cgerror"
	"github.com/kemurphy/compiler/ir"
	"github.com/kemurphy/compiler/resolved"
	"github.com/kemurphy/compiler/target"
)

// convertCall lowers a Call: it reserves an outgoing-argument area past
// the local spill area, saves whichever caller-save registers aren't
// consumed by argument passing, spills stack-passed arguments, bumps SP
// around the branch-and-link, then undoes all of it.
func convertCall(colors map[ir.Var]ir.RegisterColor, op ir.Op, fn funcName, stackItemOffs uint32, maxStackIndex int, interner *resolved.Interner) ([]target.Inst, error) {
	totalVars := len(op.Args)
	stackArgOffs := int32(stackItemOffs) + int32(maxStackIndex+1)*4

	var offs int32
	if totalVars >= target.NumParamRegs {
		offs = stackArgOffs + int32(totalVars-target.NumParamRegs)*4
	} else {
		offs = stackArgOffs + int32(target.NumParamRegs)*4
	}
	offsVal, offsRot, ok := target.PackInt(uint32(offs), 10)
	if !ok {
		return nil, cgerror.UnencodableOp(fn.String(), op, "outgoing-argument frame adjustment does not fit a 10-bit rotate-encoded immediate")
	}

	var result []target.Inst

	for argReg := totalVars; argReg < target.NumParamRegs; argReg++ {
		i := argReg - totalVars
		result = append(result, target.Store(target.TruePred, target.LsuWidthL, target.StackPointer, stackArgOffs+int32(i)*4, argReg))
	}

	for argIdx := target.NumParamRegs; argIdx < totalVars; argIdx++ {
		i := argIdx - target.NumParamRegs
		reg, before, _, err := varToReg(colors, op.Args[argIdx], 0, stackItemOffs)
		if err != nil {
			return nil, err
		}
		result = append(result, before...)
		result = append(result, target.Store(target.TruePred, target.LsuWidthL, target.StackPointer, stackArgOffs+int32(i)*4, reg))
	}

	if !op.Target.IsVariable() {
		return nil, cgerror.MalformedOp(fn.String(), op, "Call's target must be a Variable naming the callee")
	}
	calleeName, ok2 := interner.Name(resolved.NodeId(op.Target.Var.Name))
	if !ok2 {
		return nil, cgerror.MalformedOp(fn.String(), op, "Call's target name was never interned")
	}

	result = append(result,
		target.Alu2Short(target.TruePred, target.AddAluOp, target.StackPointer, target.StackPointer, offsVal, offsRot),
		target.BranchImm(target.TruePred, true, target.Label(calleeName)),
		target.Alu2Short(target.TruePred, target.SubAluOp, target.StackPointer, target.StackPointer, offsVal, offsRot),
	)

	for argReg := totalVars; argReg < target.NumParamRegs; argReg++ {
		i := argReg - totalVars
		result = append(result, target.Load(target.TruePred, target.LsuWidthL, argReg, target.StackPointer, stackArgOffs+int32(i)*4))
	}

	return result, nil
}
