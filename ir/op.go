// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ir

import (
	"fmt"
	"strings"
)

// BinOpKind enumerates the binary operators that can appear in a BinOp.
// AndAlso/OrElse are intentionally absent: short-circuit evaluation is
// lowered to branches before the IR reaches this backend (spec.md §3).
type BinOpKind int

const (
	PlusOp BinOpKind = iota
	MinusOp
	TimesOp
	DivideOp
	ModOp
	BitAndOp
	BitOrOp
	BitXorOp
	LeftShiftOp
	RightShiftOp
	LessOp
	LessEqOp
	GreaterOp
	GreaterEqOp
	EqualsOp
	NotEqualsOp
)

var binOpNames = [...]string{
	"+", "-", "*", "/", "%", "&", "|", "^", "<<", ">>",
	"<", "<=", ">", ">=", "==", "!=",
}

func (b BinOpKind) String() string {
	if int(b) < len(binOpNames) {
		return binOpNames[b]
	}
	return "<bad binop>"
}

// IsComparison reports whether b produces a bool (as opposed to an
// arithmetic/bitwise result).
func (b BinOpKind) IsComparison() bool {
	return b >= LessOp && b <= NotEqualsOp
}

// UnOpKind enumerates unary operators.
type UnOpKind int

const (
	Identity UnOpKind = iota
	Negate
	LogNot
	BitNot
	AddrOf
	Deref
	SignExtendByte
	SignExtendHalf
)

var unOpNames = [...]string{
	"id", "-", "!", "~", "&", "*", "sxb", "sxh",
}

func (u UnOpKind) String() string {
	if int(u) < len(unOpNames) {
		return unOpNames[u]
	}
	return "<bad unop>"
}

// RegColorKind tags the variant of a RegisterColor.
type RegColorKind int

const (
	RegColorReg RegColorKind = iota
	RegColorStack
	RegColorGlobal
)

// RegisterColor is the colorer's output for one Var: a machine register,
// a stack slot, or a global.
type RegisterColor struct {
	Kind  RegColorKind
	Reg   int // valid when Kind == RegColorReg
	Slot  int // valid when Kind == RegColorStack
	Name  Name // valid when Kind == RegColorGlobal
}

func RegColor(index int) RegisterColor   { return RegisterColor{Kind: RegColorReg, Reg: index} }
func StackColor(slot int) RegisterColor  { return RegisterColor{Kind: RegColorStack, Slot: slot} }
func GlobalColor(n Name) RegisterColor   { return RegisterColor{Kind: RegColorGlobal, Name: n} }

func (c RegisterColor) String() string {
	switch c.Kind {
	case RegColorReg:
		return fmt.Sprintf("r%d", c.Reg)
	case RegColorStack:
		return fmt.Sprintf("stack[%d]", c.Slot)
	case RegColorGlobal:
		return fmt.Sprintf("global(v%d)", c.Name)
	}
	return "<bad color>"
}

// Equal reports whether two colors name the same storage location. Two
// stack colors are equal only if their slot indices match; two globals
// only if their names match — this is the letter of spec.md §8's
// "Coloring legality" property.
func (c RegisterColor) Equal(o RegisterColor) bool {
	if c.Kind != o.Kind {
		return false
	}
	switch c.Kind {
	case RegColorReg:
		return c.Reg == o.Reg
	case RegColorStack:
		return c.Slot == o.Slot
	case RegColorGlobal:
		return c.Name == o.Name
	}
	return false
}

// OpKind tags the variant of an Op. The IR is a flat sum type walked with
// an explicit switch everywhere (spec.md §9 "Polymorphism over IR ops") —
// there is no visitor interface and no per-variant method dispatch.
type OpKind int

const (
	OpFunc OpKind = iota
	OpReturn
	OpBinOp
	OpUnOp
	OpLoad
	OpStore
	OpAlloca
	OpCall
	OpLabel
	OpGoto
	OpCondGoto
	OpNop
	OpAsm
)

// Op is the single tagged-union operation record. Only the fields
// relevant to Kind are meaningful; callers dispatch with a switch on Kind
// exactly as the teacher's own AST node types are walked by explicit
// `switch stmt := n.(type)` (analysis/dataflow/dataflow.go), generalized
// here to a closed tag instead of a type switch because this IR has no
// hierarchy of concrete Go types to switch over.
type Op struct {
	Kind OpKind

	// OpFunc
	FuncName Name
	FuncArgs []Var
	IsExtern bool // true when an ABI is attached (external declaration)

	// OpReturn's value, OpCondGoto's condition
	RVal RValue

	// OpBinOp / OpUnOp
	Dest   Var
	BinOp  BinOpKind
	UnOp   UnOpKind
	LHS    RValue
	RHS    RValue
	Signed bool

	// OpLoad / OpStore
	Addr  Var
	Data  Var
	Width Width

	// OpAlloca
	Size uint32

	// OpCall
	Target RValue
	Args   []Var

	// OpLabel / OpGoto / OpCondGoto
	Label    uint32
	LiveVars []Var
	Negated  bool // OpCondGoto only
}

func Func(name Name, args []Var) Op {
	return Op{Kind: OpFunc, FuncName: name, FuncArgs: args}
}

func ExternFunc(name Name, args []Var) Op {
	return Op{Kind: OpFunc, FuncName: name, FuncArgs: args, IsExtern: true}
}

func Return(v RValue) Op { return Op{Kind: OpReturn, RVal: v} }

func BinOp(dest Var, op BinOpKind, l, r RValue, signed bool) Op {
	return Op{Kind: OpBinOp, Dest: dest, BinOp: op, LHS: l, RHS: r, Signed: signed}
}

func UnOp(dest Var, op UnOpKind, v RValue) Op {
	return Op{Kind: OpUnOp, Dest: dest, UnOp: op, LHS: v}
}

func Load(dest, addr Var, w Width) Op {
	return Op{Kind: OpLoad, Dest: dest, Addr: addr, Width: w}
}

func Store(addr, data Var, w Width) Op {
	return Op{Kind: OpStore, Addr: addr, Data: data, Width: w}
}

func Alloca(dest Var, size uint32) Op {
	return Op{Kind: OpAlloca, Dest: dest, Size: size}
}

func Call(dest Var, target RValue, args []Var) Op {
	return Op{Kind: OpCall, Dest: dest, Target: target, Args: args}
}

func Label(id uint32, liveVars []Var) Op {
	return Op{Kind: OpLabel, Label: id, LiveVars: liveVars}
}

func Goto(id uint32, liveVars []Var) Op {
	return Op{Kind: OpGoto, Label: id, LiveVars: liveVars}
}

func CondGoto(negated bool, cond RValue, id uint32, liveVars []Var) Op {
	return Op{Kind: OpCondGoto, Negated: negated, RVal: cond, Label: id, LiveVars: liveVars}
}

func Nop() Op { return Op{Kind: OpNop} }

func AsmOp() Op { return Op{Kind: OpAsm} }

// String renders op in a stable, parseable form so cgerror diagnostics
// and tests can assert on exact text (spec.md §7).
func (op Op) String() string {
	switch op.Kind {
	case OpFunc:
		args := make([]string, len(op.FuncArgs))
		for i, a := range op.FuncArgs {
			args[i] = a.String()
		}
		extern := ""
		if op.IsExtern {
			extern = " extern"
		}
		return fmt.Sprintf("func v%d(%s)%s", op.FuncName, strings.Join(args, ", "), extern)
	case OpReturn:
		return fmt.Sprintf("return %s", op.RVal)
	case OpBinOp:
		return fmt.Sprintf("%s = %s %s %s [signed=%v]", op.Dest, op.LHS, op.BinOp, op.RHS, op.Signed)
	case OpUnOp:
		return fmt.Sprintf("%s = %s %s", op.Dest, op.UnOp, op.LHS)
	case OpLoad:
		return fmt.Sprintf("%s = load%s [%s]", op.Dest, op.Width, op.Addr)
	case OpStore:
		return fmt.Sprintf("store%s [%s] <- %s", op.Width, op.Addr, op.Data)
	case OpAlloca:
		return fmt.Sprintf("%s = alloca %d", op.Dest, op.Size)
	case OpCall:
		args := make([]string, len(op.Args))
		for i, a := range op.Args {
			args[i] = a.String()
		}
		return fmt.Sprintf("%s = call %s(%s)", op.Dest, op.Target, strings.Join(args, ", "))
	case OpLabel:
		return fmt.Sprintf("LABEL%d: %s", op.Label, varList(op.LiveVars))
	case OpGoto:
		return fmt.Sprintf("goto LABEL%d %s", op.Label, varList(op.LiveVars))
	case OpCondGoto:
		neg := ""
		if op.Negated {
			neg = "!"
		}
		return fmt.Sprintf("if %s(%s) goto LABEL%d %s", neg, op.RVal, op.Label, varList(op.LiveVars))
	case OpNop:
		return "nop"
	case OpAsm:
		return "asm"
	}
	return "<bad op>"
}

func varList(vars []Var) string {
	strs := make([]string, len(vars))
	for i, v := range vars {
		strs[i] = v.String()
	}
	return "[" + strings.Join(strs, ", ") + "]"
}
