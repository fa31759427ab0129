// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pipeline

import (
	"testing"

	"github.com/kemurphy/compiler/ir"
	"github.com/kemurphy/compiler/resolved"
	"github.com/kemurphy/compiler/target"
)

// TestCompileFunctionAddTwoArgs exercises the full stage chain end to
// end on a straight-line function: it has no join for SSA to reconcile
// and nothing for the folder to fold, but it passes through every
// stage's API, has a real interference edge (a and b), and a lowered
// return.
func TestCompileFunctionAddTwoArgs(t *testing.T) {
	interner := resolved.NewInterner()
	fname := ir.Name(interner.Intern("add2"))
	a := ir.Name(interner.Intern("a"))
	b := ir.Name(interner.Intern("b"))
	s := ir.Name(interner.Intern("s"))

	ops := []ir.Op{
		ir.Func(fname, []ir.Var{{Name: a}, {Name: b}}),
		ir.BinOp(ir.Var{Name: s}, ir.PlusOp, ir.VarRVal(ir.Var{Name: a}), ir.VarRVal(ir.Var{Name: b}), false),
		ir.Return(ir.VarRVal(ir.Var{Name: s})),
	}

	result, err := CompileFunction(ops, interner, target.NumUsableRegs)
	if err != nil {
		t.Fatalf("CompileFunction: %v", err)
	}
	if len(result.Insts) == 0 {
		t.Fatalf("CompileFunction produced no instructions")
	}
	if _, ok := result.Targets["add2"]; !ok {
		t.Errorf("Targets = %v; missing function symbol %q", result.Targets, "add2")
	}
	// After SSA the dest var carries a generation, so match it by name.
	var destColored bool
	for v := range result.Colors.Colors {
		if v.Name == s {
			destColored = true
		}
	}
	if !destColored {
		t.Errorf("Colors.Colors is missing an entry for the dest var")
	}

	var foundAdd bool
	for _, inst := range result.Insts {
		if inst.Kind == target.InstAlu2Reg && inst.Alu2Op == target.AddAluOp {
			foundAdd = true
		}
	}
	if !foundAdd {
		t.Errorf("result.Insts = %v; want an Alu2Reg Add among them", result.Insts)
	}
}

// TestCompileFunctionRejectsEmpty mirrors the original assembler's own
// defensive check against a malformed or empty function body.
func TestCompileFunctionRejectsEmpty(t *testing.T) {
	if _, err := CompileFunction(nil, resolved.NewInterner(), target.NumUsableRegs); err == nil {
		t.Errorf("CompileFunction(nil, ...) succeeded; want an error")
	}
}

// TestCompileProgramConcatenatesOffsets checks that a second function's
// symbol is recorded at the whole-program offset, not its own local one.
func TestCompileProgramConcatenatesOffsets(t *testing.T) {
	interner := resolved.NewInterner()
	fName := ir.Name(interner.Intern("f"))
	gName := ir.Name(interner.Intern("g"))

	f := []ir.Op{
		ir.Func(fName, nil),
		ir.Return(ir.ConstRVal(ir.NumLit(0, ir.GenericInt))),
	}
	g := []ir.Op{
		ir.Func(gName, nil),
		ir.Return(ir.ConstRVal(ir.NumLit(1, ir.GenericInt))),
	}

	insts, targets, err := CompileProgram([][]ir.Op{f, g}, interner, target.NumUsableRegs)
	if err != nil {
		t.Fatalf("CompileProgram: %v", err)
	}

	fOffset, ok := targets["f"]
	if !ok {
		t.Fatalf("targets = %v; missing %q", targets, "f")
	}
	gOffset, ok := targets["g"]
	if !ok {
		t.Fatalf("targets = %v; missing %q", targets, "g")
	}
	if fOffset != 0 {
		t.Errorf("targets[f] = %d; want 0", fOffset)
	}
	if gOffset <= fOffset {
		t.Errorf("targets[g] = %d; want > targets[f] = %d", gOffset, fOffset)
	}
	if gOffset >= len(insts) {
		t.Errorf("targets[g] = %d; out of range for %d total instructions", gOffset, len(insts))
	}
}
