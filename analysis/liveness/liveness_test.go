// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package liveness

import (
	"testing"

	"github.com/kemurphy/compiler/ir"
)

const (
	fname ir.Name = 0
	a     ir.Name = 1
	b     ir.Name = 2
)

func varsEqual(t *testing.T, label string, got []ir.Var, wantNames ...ir.Name) {
	t.Helper()
	if len(got) != len(wantNames) {
		t.Errorf("%s = %v; want %d var(s) named %v", label, got, len(wantNames), wantNames)
		return
	}
	seen := map[ir.Name]bool{}
	for _, v := range got {
		seen[v.Name] = true
	}
	for _, n := range wantNames {
		if !seen[n] {
			t.Errorf("%s = %v; missing var named %d", label, got, n)
		}
	}
}

func TestComputeStraightLine(t *testing.T) {
	ops := []ir.Op{
		ir.Func(fname, []ir.Var{{Name: a}}),
		ir.BinOp(ir.Var{Name: b}, ir.PlusOp, ir.VarRVal(ir.Var{Name: a}), ir.ConstRVal(ir.NumLit(1, ir.GenericInt)), false),
		ir.Return(ir.VarRVal(ir.Var{Name: b})),
	}

	result, err := Compute(ops)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	info := result.Opinfo

	varsEqual(t, "op0.LiveOut", info[0].LiveOut, a)
	if len(info[0].LiveIn) != 0 {
		t.Errorf("op0.LiveIn = %v; want empty", info[0].LiveIn)
	}

	varsEqual(t, "op1.LiveIn", info[1].LiveIn, a)
	varsEqual(t, "op1.LiveOut", info[1].LiveOut, b)
	varsEqual(t, "op1.Use", info[1].Use, a)
	varsEqual(t, "op1.Def", info[1].Def, b)

	varsEqual(t, "op2.LiveIn", info[2].LiveIn, b)
	if len(info[2].LiveOut) != 0 {
		t.Errorf("op2.LiveOut = %v; want empty (Return has no successor)", info[2].LiveOut)
	}
}

// TestComputeLoopKeepsConditionLive exercises a CondGoto's fall-through and
// backward-edge successors together: the loop variable must stay live
// across the back edge.
func TestComputeLoopKeepsConditionLive(t *testing.T) {
	const label uint32 = 1
	ops := []ir.Op{
		ir.Func(fname, []ir.Var{{Name: a}}),
		ir.Label(label, nil),
		ir.BinOp(ir.Var{Name: a}, ir.MinusOp, ir.VarRVal(ir.Var{Name: a}), ir.ConstRVal(ir.NumLit(1, ir.GenericInt)), false),
		ir.CondGoto(false, ir.VarRVal(ir.Var{Name: a}), label, nil),
		ir.Return(ir.VarRVal(ir.Var{Name: a})),
	}

	result, err := Compute(ops)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	info := result.Opinfo

	varsEqual(t, "label.LiveIn", info[1].LiveIn, a)
	varsEqual(t, "condgoto.LiveOut", info[3].LiveOut, a)
}
