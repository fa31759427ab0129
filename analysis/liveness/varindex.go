// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package liveness

import (
	"sort"

	"github.com/bits-and-blooms/bitset"
	"github.com/kemurphy/compiler/ir"
)

// varIndex assigns each distinct ir.Var a stable bitset index the first
// time it's seen, mirroring liveVarBuilder.buildDefUse's varIndices map
// (analysis/dataflow/live.go) — generalized from *types.Var to ir.Var.
type varIndex struct {
	indices map[ir.Var]uint
	vars    []ir.Var
}

func newVarIndex() *varIndex {
	return &varIndex{indices: make(map[ir.Var]uint)}
}

func (vi *varIndex) indexOf(v ir.Var) uint {
	if idx, ok := vi.indices[v]; ok {
		return idx
	}
	idx := uint(len(vi.vars))
	vi.indices[v] = idx
	vi.vars = append(vi.vars, v)
	return idx
}

func (vi *varIndex) size() uint { return uint(len(vi.vars)) }

func (vi *varIndex) setOf(vars []ir.Var) *bitset.BitSet {
	b := bitset.New(vi.size() + uint(len(vars)))
	for _, v := range vars {
		b.Set(vi.indexOf(v))
	}
	return b
}

// varsOf converts a bitset back into a deterministically ordered Var
// slice (by the Var.Less total order), for output stability.
func (vi *varIndex) varsOf(b *bitset.BitSet) []ir.Var {
	var out []ir.Var
	for i, ok := b.NextSet(0); ok; i, ok = b.NextSet(i + 1) {
		if i < uint(len(vi.vars)) {
			out = append(out, vi.vars[i])
		}
	}
	sort.Slice(out, func(a, bIdx int) bool { return out[a].Less(out[bIdx]) })
	return out
}

// IndexOf exposes the stable index assigned to v, without creating a new
// entry if v hasn't been seen, so other passes can build their own
// bitsets over the same var universe.
func (vi *varIndex) IndexOf(v ir.Var) (uint, bool) {
	idx, ok := vi.indices[v]
	return idx, ok
}

// Len reports how many distinct vars are indexed.
func (vi *varIndex) Len() int { return len(vi.vars) }

// At returns the var assigned index i.
func (vi *varIndex) At(i uint) ir.Var { return vi.vars[i] }
