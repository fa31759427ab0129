// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// The vlivc command is a manual smoke-test driver for the backend: it
// builds one of a handful of hand-written IR fixtures, runs it through
// pipeline.CompileFunction, and prints the resulting instructions and
// symbol table. It is not a compiler front end — nothing here parses
// source text — building a real AST-to-IR translator is out of scope,
// the same way go-doctor's cmd/ drivers never parse Go themselves but
// hand already-loaded ASTs to the engine.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/kemurphy/compiler/ir"
	"github.com/kemurphy/compiler/pipeline"
	"github.com/kemurphy/compiler/resolved"
	"github.com/kemurphy/compiler/target"
)

var (
	fixtureFlag = flag.String("fixture", "add", "which built-in IR fixture to compile: add, fib, spill")
	colorsFlag  = flag.Bool("colors", false, "also print the register/stack coloring assigned to each var")
	noColorFlag = flag.Bool("no-color", false, "disable ANSI colorized output even on a terminal")
)

func usage() {
	fmt.Fprintf(os.Stderr, `usage: %s [-fixture name] [-colors] [-no-color]

Compiles a built-in IR fixture through the full backend pipeline and
prints the resulting instructions.

`, os.Args[0])
	flag.PrintDefaults()
	os.Exit(2)
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if *noColorFlag {
		color.NoColor = true
	}

	interner := resolved.NewInterner()
	ops, err := fixture(*fixtureFlag, interner)
	if err != nil {
		printError(err)
	}

	result, err := pipeline.CompileFunction(ops, interner, target.NumUsableRegs)
	if err != nil {
		printError(err)
	}

	label := color.New(color.FgCyan, color.Bold)
	label.Printf("symbols\n")
	for name, offset := range result.Targets {
		fmt.Printf("  %-20s %d\n", name, offset)
	}

	label.Printf("instructions\n")
	for i, inst := range result.Insts {
		fmt.Printf("  %4d  %s\n", i, inst)
	}

	if *colorsFlag {
		label.Printf("coloring\n")
		for v, c := range result.Colors.Colors {
			fmt.Printf("  %-12s %s\n", v, c)
		}
		fmt.Printf("  max stack index: %d\n", result.Colors.MaxStackIndex)
	}
}

func printError(err error) {
	red := color.New(color.FgRed, color.Bold)
	red.Fprintf(os.Stderr, "error: ")
	fmt.Fprintf(os.Stderr, "%s\n", err)
	os.Exit(1)
}

// fixture returns one of a handful of hand-built IR programs used to
// exercise the pipeline end to end without a front end.
func fixture(name string, interner *resolved.Interner) ([]ir.Op, error) {
	switch name {
	case "add":
		return addFixture(interner), nil
	case "fib":
		return fibFixture(interner), nil
	case "spill":
		return spillFixture(interner), nil
	}
	return nil, fmt.Errorf("unknown fixture %q (want add, fib, or spill)", name)
}

// addFixture is fn add(a, b) { return a + b; }.
func addFixture(interner *resolved.Interner) []ir.Op {
	fn := ir.Name(interner.Intern("add"))
	a := ir.Name(interner.Intern("a"))
	b := ir.Name(interner.Intern("b"))
	s := ir.Name(interner.Intern("s"))

	return []ir.Op{
		ir.Func(fn, []ir.Var{{Name: a}, {Name: b}}),
		ir.BinOp(ir.Var{Name: s}, ir.PlusOp, ir.VarRVal(ir.Var{Name: a}), ir.VarRVal(ir.Var{Name: b}), false),
		ir.Return(ir.VarRVal(ir.Var{Name: s})),
	}
}

// fibFixture is a small loop that counts n down to zero while summing it
// into an accumulator, exercising Label/CondGoto/Goto phi-resolution
// through a back edge.
func fibFixture(interner *resolved.Interner) []ir.Op {
	fn := ir.Name(interner.Intern("countdown"))
	n := ir.Name(interner.Intern("n"))
	acc := ir.Name(interner.Intern("acc"))
	done := ir.Name(interner.Intern("done"))

	nVar := ir.Var{Name: n}
	accVar := ir.Var{Name: acc}
	doneVar := ir.Var{Name: done}

	return []ir.Op{
		ir.Func(fn, []ir.Var{nVar}),
		ir.UnOp(accVar, ir.Identity, ir.ConstRVal(ir.NumLit(0, ir.GenericInt))),
		ir.Label(1, nil),
		ir.BinOp(doneVar, ir.EqualsOp, ir.VarRVal(nVar), ir.ConstRVal(ir.NumLit(0, ir.UnsignedIntKind(ir.Width32))), false),
		ir.CondGoto(false, ir.VarRVal(doneVar), 2, nil),
		ir.BinOp(accVar, ir.PlusOp, ir.VarRVal(accVar), ir.VarRVal(nVar), false),
		ir.BinOp(nVar, ir.MinusOp, ir.VarRVal(nVar), ir.ConstRVal(ir.NumLit(1, ir.UnsignedIntKind(ir.Width32))), false),
		ir.Goto(1, nil),
		ir.Label(2, nil),
		ir.Return(ir.VarRVal(accVar)),
	}
}

// spillFixture sums four arguments into one accumulator. With
// target.NumUsableRegs registers it does not force a spill; it shows the
// shape a spill-forcing program takes, and would spill under a smaller
// register count (vlivc has no flag to set one).
func spillFixture(interner *resolved.Interner) []ir.Op {
	fn := ir.Name(interner.Intern("sum4"))
	names := make([]ir.Name, 4)
	for i := range names {
		names[i] = ir.Name(interner.Intern(fmt.Sprintf("x%d", i)))
	}
	sum := ir.Name(interner.Intern("sum"))

	args := make([]ir.Var, len(names))
	for i, nm := range names {
		args[i] = ir.Var{Name: nm}
	}

	ops := []ir.Op{ir.Func(fn, args)}
	sumVar := ir.Var{Name: sum}
	ops = append(ops, ir.UnOp(sumVar, ir.Identity, ir.VarRVal(args[0])))
	for _, arg := range args[1:] {
		ops = append(ops, ir.BinOp(sumVar, ir.PlusOp, ir.VarRVal(sumVar), ir.VarRVal(arg), false))
	}
	ops = append(ops, ir.Return(ir.VarRVal(sumVar)))
	return ops
}
