// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package pipeline wires the eight compilation stages into the single
// entrypoint a driver calls once per function: SSA conversion, constant
// folding, liveness (run implicitly inside conflict analysis), conflict
// analysis, register coloring, and lowering. It plays the same role for
// this backend that the refactoring engine's AllRefactorings/GetRefactoring
// pair plays for the source-to-source transforms: a small, stable surface
// that hides how many packages are actually involved.
package pipeline

import (
	"fmt"

	"github.com/kemurphy/compiler/analysis/conflict"
	"github.com/kemurphy/compiler/fold"
	"github.com/kemurphy/compiler/ir"
	"github.com/kemurphy/compiler/lower"
	"github.com/kemurphy/compiler/regalloc"
	"github.com/kemurphy/compiler/resolved"
	"github.com/kemurphy/compiler/ssa"
	"github.com/kemurphy/compiler/target"
)

// Result is everything CompileFunction produces for a single function:
// its emitted instructions, the symbol table fragment mapping its own
// name and internal labels to instruction offsets, and the register
// coloring that produced them (kept around for diagnostics — vlivc's
// -colors flag prints it).
type Result struct {
	Insts   []target.Inst
	Targets map[string]int
	Colors  *regalloc.Result
}

// CompileFunction runs one function's op list through every stage, in
// the fixed order the original assembler used: convert to SSA, fold
// constants to a fixpoint, analyze conflicts (which runs liveness
// internally), color the conflict graph with numRegs usable registers,
// then lower to target instructions. ops is consumed; callers that need
// the pre-SSA form again should keep their own copy.
func CompileFunction(ops []ir.Op, interner *resolved.Interner, numRegs int) (*Result, error) {
	if len(ops) == 0 {
		return nil, fmt.Errorf("pipeline: empty op list")
	}
	if ops[0].Kind != ir.OpFunc {
		return nil, fmt.Errorf("pipeline: op list must begin with a Func op")
	}

	ssaOps, err := ssa.Convert(ops)
	if err != nil {
		return nil, fmt.Errorf("pipeline: ssa conversion of %s: %w", fnLabel(ops[0], interner), err)
	}

	fold.Fold(ssaOps)

	conflicts, err := conflict.Analyze(ssaOps)
	if err != nil {
		return nil, fmt.Errorf("pipeline: conflict analysis of %s: %w", fnLabel(ops[0], interner), err)
	}

	colored := regalloc.Color(conflicts, numRegs)

	insts, targets, err := lower.Lower(ssaOps, interner, colored)
	if err != nil {
		return nil, fmt.Errorf("pipeline: lowering %s: %w", fnLabel(ops[0], interner), err)
	}

	return &Result{Insts: insts, Targets: targets, Colors: colored}, nil
}

// CompileProgram runs CompileFunction over every function in funcs (each
// already split at its Func/Return boundaries by the caller) and
// concatenates their instructions into one stream, translating each
// function's local label offsets into whole-program offsets as it goes.
// A function whose own stage fails aborts the whole program compile;
// partial output is not returned, mirroring how a single malformed
// function fails an entire assembly unit.
func CompileProgram(funcs [][]ir.Op, interner *resolved.Interner, numRegs int) ([]target.Inst, map[string]int, error) {
	var insts []target.Inst
	targets := make(map[string]int)

	for _, ops := range funcs {
		result, err := CompileFunction(ops, interner, numRegs)
		if err != nil {
			return nil, nil, err
		}
		base := len(insts)
		for name, offset := range result.Targets {
			if _, dup := targets[name]; dup {
				return nil, nil, fmt.Errorf("pipeline: symbol %q defined by more than one function", name)
			}
			targets[name] = base + offset
		}
		insts = append(insts, result.Insts...)
	}

	return insts, targets, nil
}

func fnLabel(head ir.Op, interner *resolved.Interner) string {
	if name, ok := interner.Name(resolved.NodeId(head.FuncName)); ok {
		return name
	}
	return fmt.Sprintf("v%d", head.FuncName)
}
