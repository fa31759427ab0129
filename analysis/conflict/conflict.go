// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package conflict builds the interference graph, use-count map,
// must-color map, and referenced-name set that regalloc needs, consuming
// analysis/liveness's result the way extras/cfg's dataflow builders
// consume a constructed CFG.
package conflict

import (
	"fmt"
	"sort"

	"github.com/kemurphy/compiler/analysis/liveness"
	"github.com/kemurphy/compiler/ir"
)

// NumParamRegs is the count of leading registers used to pass arguments
// and to return a value, mirrored from target.NumParamRegs — kept as an
// untyped constant here so this package never needs to import target.
const NumParamRegs = 4

// Graph is the symmetric interference mapping: Var -> set of Vars
// simultaneously live with it at some program point.
type Graph struct {
	adj map[ir.Var]map[ir.Var]bool
}

func newGraph() *Graph {
	return &Graph{adj: make(map[ir.Var]map[ir.Var]bool)}
}

// ensureNode registers v as a graph member even if it never conflicts
// with anything, so regalloc still assigns it a color.
func (g *Graph) ensureNode(v ir.Var) {
	if g.adj[v] == nil {
		g.adj[v] = make(map[ir.Var]bool)
	}
}

func (g *Graph) addEdge(a, b ir.Var) {
	if a.Equal(b) {
		return
	}
	if g.adj[a] == nil {
		g.adj[a] = make(map[ir.Var]bool)
	}
	if g.adj[b] == nil {
		g.adj[b] = make(map[ir.Var]bool)
	}
	g.adj[a][b] = true
	g.adj[b][a] = true
}

// Neighbors returns v's conflicting vars, sorted for determinism.
func (g *Graph) Neighbors(v ir.Var) []ir.Var {
	var out []ir.Var
	for n := range g.adj[v] {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// Degree reports how many vars currently conflict with v.
func (g *Graph) Degree(v ir.Var) int { return len(g.adj[v]) }

// Conflicts reports whether a and b interfere.
func (g *Graph) Conflicts(a, b ir.Var) bool { return g.adj[a][b] }

// Vars returns every var that appears in the graph, sorted.
func (g *Graph) Vars() []ir.Var {
	var out []ir.Var
	for v := range g.adj {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// Result bundles everything regalloc needs to color a function's vars.
type Result struct {
	Graph      *Graph
	UseCount   map[ir.Var]uint32
	MustColor  map[ir.Var]ir.RegisterColor
	Referenced map[ir.Name]bool
}

// Analyze runs liveness over ops (which must begin with a Func op) and
// builds the interference graph, use counts, must-color pins, and
// referenced-name set.
func Analyze(ops []ir.Op) (*Result, error) {
	live, err := liveness.Compute(ops)
	if err != nil {
		return nil, fmt.Errorf("conflict: %w", err)
	}

	graph := newGraph()
	counts := make(map[ir.Var]uint32)
	for _, info := range live.Opinfo {
		addPairwiseEdges(graph, info.LiveIn)
		addPairwiseEdges(graph, info.LiveOut)
		for _, v := range info.Use {
			counts[v]++
			graph.ensureNode(v)
		}
		for _, v := range info.Def {
			counts[v]++
			graph.ensureNode(v)
		}
	}

	mustColor := make(map[ir.Var]ir.RegisterColor)
	referenced := make(map[ir.Name]bool)
	for _, op := range ops {
		switch op.Kind {
		case ir.OpUnOp:
			if op.UnOp == ir.AddrOf {
				if !op.LHS.IsVariable() {
					return nil, fmt.Errorf("conflict: AddrOf of a non-variable must have been lowered before this pass")
				}
				referenced[op.LHS.Var.Name] = true
			}
		case ir.OpCall:
			n := len(op.Args)
			pinned := n
			if pinned > NumParamRegs {
				pinned = NumParamRegs
			}
			for i := 0; i < pinned; i++ {
				mustColor[op.Args[i]] = ir.RegColor(i)
			}
			mustColor[op.Dest] = ir.RegColor(0)
		case ir.OpFunc:
			args := op.FuncArgs
			pinned := len(args)
			if pinned > NumParamRegs {
				pinned = NumParamRegs
			}
			for i := 0; i < pinned; i++ {
				mustColor[args[i]] = ir.RegColor(i)
			}
			for i := NumParamRegs; i < len(args); i++ {
				mustColor[args[i]] = ir.StackColor(i - 1 - len(args))
			}
		}
	}

	return &Result{Graph: graph, UseCount: counts, MustColor: mustColor, Referenced: referenced}, nil
}

func addPairwiseEdges(g *Graph, vars []ir.Var) {
	for i := 0; i < len(vars); i++ {
		for j := i + 1; j < len(vars); j++ {
			g.addEdge(vars[i], vars[j])
		}
	}
}
