// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ssa renames a linear op list so that every definition carries a
// unique generation and every control-flow join names, in its Label's
// live-var list, the generation that must hold on entry — with each
// predecessor Goto/CondGoto naming the generation it actually carries.
// Where code falls straight through into a label that needs such
// reconciliation, an explicit Goto is inserted immediately before the
// label so the fallthrough edge has somewhere to carry its own payload;
// lower's redundant-jump elision (spec.md §4.7) is precisely what makes
// that inserted jump free at codegen time.
package ssa

import (
	"fmt"
	"sort"

	"github.com/kemurphy/compiler/ir"
)

// Convert renames ops into SSA form. It may return a longer slice than it
// was given (see the fallthrough note above) but never reorders existing
// ops relative to each other.
func Convert(ops []ir.Op) ([]ir.Op, error) {
	if len(ops) == 0 || ops[0].Kind != ir.OpFunc {
		return nil, fmt.Errorf("ssa: op list must begin with exactly one Func op")
	}
	if err := validate(ops); err != nil {
		return nil, err
	}
	if alreadyConverted(ops) {
		return ops, nil
	}

	b := &builder{
		ops:          ops,
		cur:          make(map[ir.Name]uint32),
		labelPos:     make(map[uint32]int),
		labelPreds:   make(map[uint32][]int),
		carried:      make(map[int]map[ir.Name]uint32),
		enterGen:     make(map[uint32]map[ir.Name]uint32),
		labelJoins:   make(map[uint32]map[ir.Name]uint32),
		fallthrough_: make(map[uint32]bool),
	}
	for i, op := range ops {
		if op.Kind == ir.OpLabel {
			b.labelPos[op.Label] = i
		}
	}
	if err := b.forwardPass(); err != nil {
		return nil, err
	}
	b.backEdgePass()
	out := b.rebuild()
	return out, nil
}

func validate(ops []ir.Op) error {
	for _, op := range ops {
		switch op.Kind {
		case ir.OpUnOp:
			if op.UnOp == ir.Deref {
				return fmt.Errorf("ssa: malformed IR: Deref present in IR: %s", op)
			}
			if op.UnOp == ir.AddrOf && !op.LHS.IsVariable() {
				return fmt.Errorf("ssa: malformed IR: AddrOf of a non-variable: %s", op)
			}
		}
	}
	return nil
}

type builder struct {
	ops []ir.Op
	cur map[ir.Name]uint32

	labelPos   map[uint32]int
	labelPreds map[uint32][]int // label id -> indices of Goto/CondGoto targeting it

	carried  map[int]map[ir.Name]uint32 // op index (Goto/CondGoto) -> cur snapshot
	enterGen map[uint32]map[ir.Name]uint32 // label id -> cur snapshot on first (forward) visit

	labelJoins   map[uint32]map[ir.Name]uint32 // label id -> name -> chosen join generation
	fallthrough_ map[uint32]bool               // label id -> true if a real fallthrough edge reaches it

	// patches accumulated by the back-edge pass, applied during rebuild.
	patches []patch
}

type patch struct {
	from, to int // inclusive op-index range to scan
	name     ir.Name
	oldGen   uint32
	newGen   uint32
}

// regularGen and joinGen are deterministic functions of an op's position
// within the CURRENT call's input list. That is only a stable numbering
// within a single Convert call: rebuild can splice a synthetic
// fallthrough Goto in before a label (see the package comment), which
// shifts every later op's index, so feeding one call's output back in as
// another call's input would renumber everything after the splice
// differently. alreadyConverted is what actually makes Convert idempotent
// (spec.md §4.1 "Output must round-trip") — it detects already-SSA input
// and returns it unchanged instead of renumbering from scratch.
func regularGen(opIndex int) uint32 { return uint32(opIndex)*2 + 2 }
func joinGen(labelOpIndex int) uint32 { return uint32(labelOpIndex)*2 + 1 }

// alreadyConverted reports whether every definition in ops already
// carries an SSA generation, i.e. ops is (equivalent to) this package's
// own prior output. Convert short-circuits on such input rather than
// recomputing generation numbers from each op's position, which is the
// only way to guarantee Convert(Convert(x)) == Convert(x) once a prior
// call may have spliced in a synthetic fallthrough Goto (see regularGen).
func alreadyConverted(ops []ir.Op) bool {
	for _, op := range ops {
		switch op.Kind {
		case ir.OpFunc:
			for _, a := range op.FuncArgs {
				if !a.HasGen() {
					return false
				}
			}
		case ir.OpBinOp, ir.OpUnOp, ir.OpLoad, ir.OpAlloca, ir.OpCall:
			if !op.Dest.HasGen() {
				return false
			}
		}
	}
	return true
}

func (b *builder) resolve(v ir.Var) ir.Var {
	if g, ok := b.cur[v.Name]; ok {
		return v.WithGen(g)
	}
	return v
}

func (b *builder) resolveRVal(r ir.RValue) ir.RValue {
	if r.IsVariable() {
		return ir.VarRVal(b.resolve(r.Var))
	}
	return r
}

func (b *builder) define(v ir.Var, opIndex int) ir.Var {
	g := regularGen(opIndex)
	b.cur[v.Name] = g
	return v.WithGen(g)
}

func (b *builder) forwardPass() error {
	for i := range b.ops {
		op := &b.ops[i]
		switch op.Kind {
		case ir.OpFunc:
			args := make([]ir.Var, len(op.FuncArgs))
			for j, a := range op.FuncArgs {
				args[j] = b.define(a, i)
			}
			op.FuncArgs = args
		case ir.OpReturn:
			op.RVal = b.resolveRVal(op.RVal)
		case ir.OpBinOp:
			op.LHS = b.resolveRVal(op.LHS)
			op.RHS = b.resolveRVal(op.RHS)
			op.Dest = b.define(op.Dest, i)
		case ir.OpUnOp:
			op.LHS = b.resolveRVal(op.LHS)
			op.Dest = b.define(op.Dest, i)
		case ir.OpLoad:
			op.Addr = b.resolve(op.Addr)
			op.Dest = b.define(op.Dest, i)
		case ir.OpStore:
			op.Addr = b.resolve(op.Addr)
			op.Data = b.resolve(op.Data)
		case ir.OpAlloca:
			op.Dest = b.define(op.Dest, i)
		case ir.OpCall:
			op.Target = b.resolveRVal(op.Target)
			args := make([]ir.Var, len(op.Args))
			for j, a := range op.Args {
				args[j] = b.resolve(a)
			}
			op.Args = args
			op.Dest = b.define(op.Dest, i)
		case ir.OpLabel:
			b.enterGen[op.Label] = snapshot(b.cur)
			// True fallthrough is possible unless the immediately preceding
			// op is a Return or an unconditional Goto (which never falls
			// through).
			if i > 0 {
				prev := b.ops[i-1]
				if !(prev.Kind == ir.OpReturn || prev.Kind == ir.OpGoto) {
					b.fallthrough_[op.Label] = true
				}
			}
			b.reconcileForward(op.Label, i)
		case ir.OpGoto:
			op.RVal = ir.RValue{} // Goto carries no condition
			b.carried[i] = snapshot(b.cur)
			b.labelPreds[op.Label] = append(b.labelPreds[op.Label], i)
		case ir.OpCondGoto:
			op.RVal = b.resolveRVal(op.RVal)
			b.carried[i] = snapshot(b.cur)
			b.labelPreds[op.Label] = append(b.labelPreds[op.Label], i)
		case ir.OpNop, ir.OpAsm:
			// nothing to rename
		}
	}
	return nil
}

func snapshot(m map[ir.Name]uint32) map[ir.Name]uint32 {
	out := make(map[ir.Name]uint32, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// reconcileForward handles joins whose predecessors are all already known
// at the time the label is visited (i.e. ordinary if/else joins, where
// every Goto/CondGoto to this label occurs earlier in the op list).
func (b *builder) reconcileForward(label uint32, labelIdx int) {
	preds := b.labelPreds[label] // only forward preds seen so far
	if len(preds) == 0 {
		return
	}
	names := map[ir.Name]bool{}
	for n := range b.enterGen[label] {
		names[n] = true
	}
	for _, pi := range preds {
		for n := range b.carried[pi] {
			names[n] = true
		}
	}
	joins := b.labelJoins[label]
	if joins == nil {
		joins = map[ir.Name]uint32{}
		b.labelJoins[label] = joins
	}
	sortedNames := sortedNameKeys(names)
	for _, n := range sortedNames {
		first, haveFirst := b.enterGen[label][n]
		agree := true
		for _, pi := range preds {
			g, ok := b.carried[pi][n]
			if !ok {
				continue
			}
			if !haveFirst {
				first, haveFirst = g, true
				continue
			}
			if g != first {
				agree = false
			}
		}
		if !agree {
			joins[n] = joinGen(labelIdx)
			b.cur[n] = joinGen(labelIdx)
		}
	}
}

// backEdgePass handles joins whose mismatch is only discoverable once a
// later Goto/CondGoto back to an already-visited label is processed (the
// common loop-header shape: Label at the top, a redefinition in the body,
// a CondGoto back to the header at the bottom).
func (b *builder) backEdgePass() {
	for label, preds := range b.labelPreds {
		labelIdx := b.labelPos[label]
		enter := b.enterGen[label]
		joins := b.labelJoins[label]
		if joins == nil {
			joins = map[ir.Name]uint32{}
			b.labelJoins[label] = joins
		}
		for _, pi := range preds {
			if pi < labelIdx {
				continue // forward edge, already handled
			}
			for n, gEdge := range b.carried[pi] {
				gEnter, ok := enter[n]
				if !ok {
					continue
				}
				if _, already := joins[n]; already {
					continue
				}
				if gEdge != gEnter {
					j := joinGen(labelIdx)
					joins[n] = j
					b.patches = append(b.patches, patch{
						from: labelIdx + 1, to: pi - 1,
						name: n, oldGen: gEnter, newGen: j,
					})
				}
			}
		}
	}
}

func sortedNameKeys(m map[ir.Name]bool) []ir.Name {
	out := make([]ir.Name, 0, len(m))
	for n := range m {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func sortedGenKeys(m map[ir.Name]uint32) []ir.Name {
	out := make([]ir.Name, 0, len(m))
	for n := range m {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// rebuild applies accumulated patches, fills in every Label/Goto/CondGoto's
// final live-var payload, and splices in an explicit Goto wherever a real
// fallthrough edge needs to carry a reconciling generation.
func (b *builder) rebuild() []ir.Op {
	for _, p := range b.patches {
		for i := p.from; i <= p.to && i < len(b.ops); i++ {
			rewriteUses(&b.ops[i], p.name, p.oldGen, p.newGen)
		}
	}

	out := make([]ir.Op, 0, len(b.ops)+len(b.labelJoins))
	// origIndex[k] is the index into b.ops that out[k] came from, or -1 for
	// an inserted fallthrough Goto (whose carried snapshot is enterGen).
	origIndex := make([]int, 0, cap(out))
	for i, op := range b.ops {
		if op.Kind == ir.OpLabel {
			joins := b.labelJoins[op.Label]
			if len(joins) > 0 && b.fallthrough_[op.Label] {
				out = append(out, b.fallthroughGoto(op.Label, joins))
				origIndex = append(origIndex, -1)
			}
			op.LiveVars = liveVarsFromJoins(joins)
		}
		out = append(out, op)
		origIndex = append(origIndex, i)
	}

	for k := range out {
		switch out[k].Kind {
		case ir.OpGoto, ir.OpCondGoto:
			joins := b.labelJoins[out[k].Label]
			var carried map[ir.Name]uint32
			if origIndex[k] == -1 {
				carried = b.enterGen[out[k].Label]
			} else {
				carried = b.carried[origIndex[k]]
			}
			out[k].LiveVars = liveVarsFromEdge(joins, carried)
		}
	}
	return out
}

func (b *builder) fallthroughGoto(label uint32, joins map[ir.Name]uint32) ir.Op {
	return ir.Goto(label, liveVarsFromEdge(joins, b.enterGen[label]))
}

func liveVarsFromJoins(joins map[ir.Name]uint32) []ir.Var {
	names := sortedGenKeys(joins)
	vars := make([]ir.Var, len(names))
	for i, n := range names {
		g := joins[n]
		vars[i] = ir.Var{Name: n, Gen: &g}
	}
	return vars
}

func liveVarsFromEdge(joins map[ir.Name]uint32, carried map[ir.Name]uint32) []ir.Var {
	names := sortedGenKeys(joins)
	vars := make([]ir.Var, 0, len(names))
	for _, n := range names {
		g, ok := carried[n]
		if !ok {
			g = joins[n]
		}
		gCopy := g
		vars = append(vars, ir.Var{Name: n, Gen: &gCopy})
	}
	return vars
}

func rewriteUses(op *ir.Op, name ir.Name, oldGen, newGen uint32) {
	rewrite := func(v *ir.Var) {
		if v.Name == name && v.HasGen() && v.GenOr0() == oldGen {
			*v = v.WithGen(newGen)
		}
	}
	rewriteRVal := func(r *ir.RValue) {
		if r.IsVariable() {
			rewrite(&r.Var)
		}
	}
	switch op.Kind {
	case ir.OpReturn:
		rewriteRVal(&op.RVal)
	case ir.OpBinOp:
		rewriteRVal(&op.LHS)
		rewriteRVal(&op.RHS)
	case ir.OpUnOp:
		rewriteRVal(&op.LHS)
	case ir.OpLoad:
		rewrite(&op.Addr)
	case ir.OpStore:
		rewrite(&op.Addr)
		rewrite(&op.Data)
	case ir.OpCall:
		rewriteRVal(&op.Target)
		for i := range op.Args {
			rewrite(&op.Args[i])
		}
	case ir.OpCondGoto:
		rewriteRVal(&op.RVal)
	}
}
