// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ssa

import (
	"reflect"
	"testing"

	"github.com/kemurphy/compiler/ir"
)

const (
	fname ir.Name = 0
	x     ir.Name = 1
)

// TestConvertTwoGenerations is spec.md scenario 8: `let x=1; x=x+1; return x;`
// must produce two distinct generations of x, with the return using the
// later one.
func TestConvertTwoGenerations(t *testing.T) {
	ops := []ir.Op{
		ir.Func(fname, nil),
		ir.UnOp(ir.Var{Name: x}, ir.Identity, ir.ConstRVal(ir.NumLit(1, ir.GenericInt))),
		ir.BinOp(ir.Var{Name: x}, ir.PlusOp, ir.VarRVal(ir.Var{Name: x}), ir.ConstRVal(ir.NumLit(1, ir.GenericInt)), false),
		ir.Return(ir.VarRVal(ir.Var{Name: x})),
	}

	out, err := Convert(ops)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}

	firstDef := out[1].Dest
	secondDef := out[2].Dest
	if !firstDef.HasGen() || !secondDef.HasGen() {
		t.Fatalf("definitions must carry generations: %v, %v", firstDef, secondDef)
	}
	if firstDef.GenOr0() == secondDef.GenOr0() {
		t.Errorf("expected two distinct generations of x, got the same: %d", firstDef.GenOr0())
	}

	secondUse := out[2].LHS.Var
	if secondUse.GenOr0() != firstDef.GenOr0() {
		t.Errorf("x+1's use of x = gen %d; want the first definition's gen %d", secondUse.GenOr0(), firstDef.GenOr0())
	}

	retUse := out[3].RVal.Var
	if retUse.GenOr0() != secondDef.GenOr0() {
		t.Errorf("return's use of x = gen %d; want the later definition's gen %d", retUse.GenOr0(), secondDef.GenOr0())
	}
}

func TestConvertIdempotent(t *testing.T) {
	ops := []ir.Op{
		ir.Func(fname, nil),
		ir.UnOp(ir.Var{Name: x}, ir.Identity, ir.ConstRVal(ir.NumLit(1, ir.GenericInt))),
		ir.BinOp(ir.Var{Name: x}, ir.PlusOp, ir.VarRVal(ir.Var{Name: x}), ir.ConstRVal(ir.NumLit(1, ir.GenericInt)), false),
		ir.Return(ir.VarRVal(ir.Var{Name: x})),
	}

	once, err := Convert(ops)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	twice, err := Convert(once)
	if err != nil {
		t.Fatalf("Convert (second pass): %v", err)
	}
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("Convert is not idempotent:\nonce:  %+v\ntwice: %+v", once, twice)
	}
}

// TestConvertIdempotentWithLoop is the loop/back-edge analog of
// TestConvertIdempotent: a label with non-empty joins forces rebuild to
// splice in a synthetic fallthrough Goto, which shifts every later op's
// position. regularGen/joinGen alone would renumber that shifted output
// differently on a second Convert call; Convert must still reproduce it
// unchanged (spec.md §4.1 "Output must round-trip").
func TestConvertIdempotentWithLoop(t *testing.T) {
	const label uint32 = 1
	ops := []ir.Op{
		ir.Func(fname, nil),
		ir.UnOp(ir.Var{Name: x}, ir.Identity, ir.ConstRVal(ir.NumLit(0, ir.GenericInt))),
		ir.Label(label, nil),
		ir.BinOp(ir.Var{Name: x}, ir.PlusOp, ir.VarRVal(ir.Var{Name: x}), ir.ConstRVal(ir.NumLit(1, ir.GenericInt)), false),
		ir.CondGoto(false, ir.VarRVal(ir.Var{Name: x}), label, nil),
		ir.Return(ir.VarRVal(ir.Var{Name: x})),
	}

	once, err := Convert(ops)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	twice, err := Convert(once)
	if err != nil {
		t.Fatalf("Convert (second pass): %v", err)
	}
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("Convert is not idempotent on a loop:\nonce:  %+v\ntwice: %+v", once, twice)
	}
}

// TestConvertLoopBackEdge exercises the label/goto reconciliation path: a
// loop header whose body reassigns the live variable needs a join
// generation at the label, and the back edge must name its own (pre-join)
// generation while the label names the join generation.
func TestConvertLoopBackEdge(t *testing.T) {
	const label uint32 = 1
	ops := []ir.Op{
		ir.Func(fname, nil),
		ir.UnOp(ir.Var{Name: x}, ir.Identity, ir.ConstRVal(ir.NumLit(0, ir.GenericInt))),
		ir.Label(label, nil),
		ir.BinOp(ir.Var{Name: x}, ir.PlusOp, ir.VarRVal(ir.Var{Name: x}), ir.ConstRVal(ir.NumLit(1, ir.GenericInt)), false),
		ir.CondGoto(false, ir.VarRVal(ir.Var{Name: x}), label, nil),
		ir.Return(ir.VarRVal(ir.Var{Name: x})),
	}

	out, err := Convert(ops)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}

	var labelOp, condGotoOp *ir.Op
	for i := range out {
		if out[i].Kind == ir.OpLabel && out[i].Label == label {
			labelOp = &out[i]
		}
		if out[i].Kind == ir.OpCondGoto && out[i].Label == label {
			condGotoOp = &out[i]
		}
	}
	if labelOp == nil || condGotoOp == nil {
		t.Fatalf("expected a Label and a CondGoto for label %d in %+v", label, out)
	}
	if len(labelOp.LiveVars) != 1 || labelOp.LiveVars[0].Name != x {
		t.Fatalf("label live-vars = %v; want exactly [x]", labelOp.LiveVars)
	}
	if len(condGotoOp.LiveVars) != 1 || condGotoOp.LiveVars[0].Name != x {
		t.Fatalf("condgoto live-vars = %v; want exactly [x]", condGotoOp.LiveVars)
	}
	if condGotoOp.LiveVars[0].GenOr0() == labelOp.LiveVars[0].GenOr0() {
		t.Errorf("back edge should carry a different generation than the label's join generation")
	}
}
