// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package liveness computes per-instruction live-in/live-out, def, and use
// sets over a function's op list via backward dataflow, the way
// analysis/dataflow computes live variables over a Go source CFG — bitset
// per program point, fixed-point iteration over a reverse work list.
package liveness

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"
	"github.com/kemurphy/compiler/ir"
)

// Opinfo is one op's def/use/live-in/live-out sets, reported as ir.Var
// slices (sorted by Var.Less) for easy consumption by
// analysis/conflict.
type Opinfo struct {
	Def     []ir.Var
	Use     []ir.Var
	LiveIn  []ir.Var
	LiveOut []ir.Var
}

// Result is the liveness analysis' full output: one Opinfo per op, plus
// the var<->index table other passes can reuse to build their own
// bitsets over the same universe.
type Result struct {
	Opinfo []Opinfo
	Vars   *varIndex
}

// Compute runs the backward liveness dataflow over ops, which must begin
// with a single Func op.
func Compute(ops []ir.Op) (*Result, error) {
	if len(ops) == 0 || ops[0].Kind != ir.OpFunc {
		return nil, fmt.Errorf("liveness: op list must begin with exactly one Func op")
	}

	labelPos := make(map[uint32]int)
	for i, op := range ops {
		if op.Kind == ir.OpLabel {
			labelPos[op.Label] = i
		}
	}

	vars := newVarIndex()
	defSets := make([]*bitset.BitSet, len(ops))
	useSets := make([]*bitset.BitSet, len(ops))
	for i, op := range ops {
		d, u := defUse(op)
		defSets[i] = vars.setOf(d)
		useSets[i] = vars.setOf(u)
	}

	succs := make([][]int, len(ops))
	for i, op := range ops {
		succs[i] = successors(op, i, len(ops), labelPos)
	}

	liveIn := make([]*bitset.BitSet, len(ops))
	liveOut := make([]*bitset.BitSet, len(ops))
	for i := range ops {
		liveIn[i] = bitset.New(vars.size())
		liveOut[i] = bitset.New(vars.size())
	}

	limit := len(ops) + 1
	for pass := 0; pass < limit; pass++ {
		changed := false
		for i := len(ops) - 1; i >= 0; i-- {
			out := bitset.New(vars.size())
			for _, s := range succs[i] {
				out = out.Union(liveIn[s])
			}
			in := useSets[i].Union(out.Difference(defSets[i]))
			if !in.Equal(liveIn[i]) {
				liveIn[i] = in
				changed = true
			}
			if !out.Equal(liveOut[i]) {
				liveOut[i] = out
				changed = true
			}
		}
		if !changed {
			break
		}
	}

	result := make([]Opinfo, len(ops))
	for i := range ops {
		result[i] = Opinfo{
			Def:     vars.varsOf(defSets[i]),
			Use:     vars.varsOf(useSets[i]),
			LiveIn:  vars.varsOf(liveIn[i]),
			LiveOut: vars.varsOf(liveOut[i]),
		}
	}
	return &Result{Opinfo: result, Vars: vars}, nil
}

// defUse returns the def and use Var lists for op. A Label/Goto/CondGoto's
// live-var payload counts as used at that op — on the reading side, per
// spec.md §4.3 — which is what forces those generations to stay live
// across the predecessors that feed the join.
func defUse(op ir.Op) (def, use []ir.Var) {
	switch op.Kind {
	case ir.OpFunc:
		return op.FuncArgs, nil
	case ir.OpReturn:
		return nil, rvalUse(op.RVal)
	case ir.OpBinOp:
		return []ir.Var{op.Dest}, append(rvalUse(op.LHS), rvalUse(op.RHS)...)
	case ir.OpUnOp:
		return []ir.Var{op.Dest}, rvalUse(op.LHS)
	case ir.OpLoad:
		return []ir.Var{op.Dest}, []ir.Var{op.Addr}
	case ir.OpStore:
		return nil, []ir.Var{op.Addr, op.Data}
	case ir.OpAlloca:
		return []ir.Var{op.Dest}, nil
	case ir.OpCall:
		use := append([]ir.Var{}, rvalUse(op.Target)...)
		use = append(use, op.Args...)
		return []ir.Var{op.Dest}, use
	case ir.OpLabel:
		return nil, op.LiveVars
	case ir.OpGoto:
		return nil, op.LiveVars
	case ir.OpCondGoto:
		use := append([]ir.Var{}, rvalUse(op.RVal)...)
		use = append(use, op.LiveVars...)
		return nil, use
	}
	return nil, nil
}

func rvalUse(r ir.RValue) []ir.Var {
	if r.IsVariable() {
		return []ir.Var{r.Var}
	}
	return nil
}

// successors returns op i's control-flow successors: straight-line,
// Goto/CondGoto targets resolved through labelPos, plus fall-through for
// CondGoto. Return has none.
func successors(op ir.Op, i, n int, labelPos map[uint32]int) []int {
	switch op.Kind {
	case ir.OpReturn:
		return nil
	case ir.OpGoto:
		if target, ok := labelPos[op.Label]; ok {
			return []int{target}
		}
		return nil
	case ir.OpCondGoto:
		var succs []int
		if target, ok := labelPos[op.Label]; ok {
			succs = append(succs, target)
		}
		if i+1 < n {
			succs = append(succs, i+1)
		}
		return succs
	default:
		if i+1 < n {
			return []int{i + 1}
		}
		return nil
	}
}
