// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lower

import (
	"testing"

	"github.com/kemurphy/compiler/analysis/conflict"
	"github.com/kemurphy/compiler/ir"
	"github.com/kemurphy/compiler/regalloc"
	"github.com/kemurphy/compiler/resolved"
	"github.com/kemurphy/compiler/target"
)

// TestLowerReturnConstZero is spec.md scenario 9: lowering Return(Const(0))
// with no callee-saved registers in use produces exactly mov r0, #0 ;
// load LR, [SP,0] ; br LR, following the Func prologue's own two
// link-register-save instructions.
func TestLowerReturnConstZero(t *testing.T) {
	interner := resolved.NewInterner()
	fname := ir.Name(interner.Intern("f"))

	ops := []ir.Op{
		ir.Func(fname, nil),
		ir.Return(ir.ConstRVal(ir.NumLit(0, ir.GenericInt))),
	}
	c, err := conflict.Analyze(ops)
	if err != nil {
		t.Fatalf("conflict.Analyze: %v", err)
	}
	colored := regalloc.Color(c, target.NumUsableRegs)

	insts, targets, err := Lower(ops, interner, colored)
	if err != nil {
		t.Fatalf("Lower: %v", err)
	}
	if len(insts) != 5 {
		t.Fatalf("len(insts) = %d; want 5 (2 prologue + 3 return)", len(insts))
	}
	ret := insts[2:]

	if ret[0].Kind != target.InstAlu1Short || ret[0].Alu1Op != target.MovAluOp || ret[0].Dest != target.ReturnReg || ret[0].ImmVal != 0 {
		t.Errorf("ret[0] = %s; want mov r0, #0", ret[0])
	}
	if ret[1].Kind != target.InstLoad || ret[1].Dest != target.LinkRegister || ret[1].Base != target.StackPointer || ret[1].Offset != 0 {
		t.Errorf("ret[1] = %s; want load LR, [SP, 0]", ret[1])
	}
	if ret[2].Kind != target.InstBranchReg || ret[2].Reg != target.LinkRegister {
		t.Errorf("ret[2] = %s; want br LR", ret[2])
	}

	if _, ok := targets["f"]; !ok {
		t.Errorf("targets = %v; missing function symbol \"f\"", targets)
	}
}

// TestLowerBinOpAddRegisters exercises the common case: two registers
// added into a third via a single ALU2 instruction.
func TestLowerBinOpAddRegisters(t *testing.T) {
	interner := resolved.NewInterner()
	fname := ir.Name(interner.Intern("add"))
	a := ir.Name(interner.Intern("a"))
	b := ir.Name(interner.Intern("b"))
	s := ir.Name(interner.Intern("s"))

	ops := []ir.Op{
		ir.Func(fname, []ir.Var{{Name: a}, {Name: b}}),
		ir.BinOp(ir.Var{Name: s}, ir.PlusOp, ir.VarRVal(ir.Var{Name: a}), ir.VarRVal(ir.Var{Name: b}), false),
		ir.Return(ir.VarRVal(ir.Var{Name: s})),
	}
	c, err := conflict.Analyze(ops)
	if err != nil {
		t.Fatalf("conflict.Analyze: %v", err)
	}
	colored := regalloc.Color(c, target.NumUsableRegs)

	insts, _, err := Lower(ops, interner, colored)
	if err != nil {
		t.Fatalf("Lower: %v", err)
	}

	var found bool
	for _, inst := range insts {
		if inst.Kind == target.InstAlu2Reg && inst.Alu2Op == target.AddAluOp {
			found = true
		}
	}
	if !found {
		t.Errorf("insts = %v; want an Alu2Reg Add among them", insts)
	}
}
