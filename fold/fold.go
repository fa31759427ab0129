// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fold implements constant folding with identity-element
// simplification over a function's op list, in place, to a fixed point.
package fold

import (
	"github.com/kemurphy/compiler/ir"
)

// Fold mutates ops in place, applying literal-literal folds and
// identity-element simplifications, then substituting proven-constant
// variables into their uses, repeating until no further change occurs.
// Extern functions (an abi marker on the Func head) are left untouched.
func Fold(ops []ir.Op) {
	if len(ops) == 0 || ops[0].Kind != ir.OpFunc {
		return
	}
	if ops[0].IsExtern {
		return
	}

	avoid := avoidSet(ops)

	// Bounded the same way liveness is (spec.md §9 "Iteration to
	// fixpoint"): len(ops)+1 is enough passes to detect a non-terminating
	// rewrite rather than spin forever.
	limit := len(ops) + 1
	for i := 0; i < limit; i++ {
		if !foldOnce(ops, avoid) {
			return
		}
	}
}

func avoidSet(ops []ir.Op) map[ir.Var]bool {
	avoid := make(map[ir.Var]bool)
	add := func(v ir.Var) { avoid[v] = true }

	for _, op := range ops {
		switch op.Kind {
		case ir.OpLabel, ir.OpGoto, ir.OpCondGoto:
			for _, v := range op.LiveVars {
				add(v)
			}
		case ir.OpUnOp:
			if op.UnOp == ir.AddrOf && op.LHS.IsVariable() {
				add(op.LHS.Var)
			}
		case ir.OpStore:
			add(op.Addr)
			add(op.Data)
		case ir.OpLoad:
			add(op.Addr)
			add(op.Dest)
		case ir.OpCall:
			for _, v := range op.Args {
				add(v)
			}
		case ir.OpFunc:
			for _, v := range op.FuncArgs {
				add(v)
			}
		}
	}
	return avoid
}

// foldOnce runs one rewrite pass over ops, returning whether anything
// changed. Immediate changes (a single op rewritten to UnOp(Identity,
// Constant) or UnOp(Identity, the-identity-operand)) are applied
// unconditionally; substitutive changes (replacing every other use of a
// var proven constant) are applied only for vars outside the avoid set.
func foldOnce(ops []ir.Op, avoid map[ir.Var]bool) bool {
	type immediateChange struct {
		pos int
		op  ir.Op
	}
	type substChange struct {
		v ir.Var
		c ir.Literal
	}

	var immediate []immediateChange
	var subst []substChange

	for pos, op := range ops {
		switch op.Kind {
		case ir.OpBinOp:
			if c, ok := foldBinop(op); ok {
				subst = append(subst, substChange{op.Dest, c})
				immediate = append(immediate, immediateChange{pos, ir.UnOp(op.Dest, ir.Identity, ir.ConstRVal(c))})
				continue
			}
			if replacement, ok := identityFold(op); ok {
				immediate = append(immediate, immediateChange{pos, replacement})
			}
		case ir.OpUnOp:
			if !op.LHS.IsConstant() {
				continue
			}
			if op.LHS.Lit.Kind == ir.LitString {
				continue
			}
			c, ok := evalUnop(op.UnOp, op.LHS.Lit)
			if !ok {
				continue
			}
			subst = append(subst, substChange{op.Dest, c})
			if op.UnOp != ir.Identity {
				immediate = append(immediate, immediateChange{pos, ir.UnOp(op.Dest, ir.Identity, ir.ConstRVal(c))})
			}
		}
	}

	changed := false
	for _, ch := range immediate {
		ops[ch.pos] = ch.op
		changed = true
	}
	// The original also skips substitution for names present in the
	// global-static map; that check has no analogue here because globals
	// are addressed through resolved.StaticIRItem by name, never through
	// an ir.Var a local pass could fold into.
	for _, ch := range subst {
		if avoid[ch.v] {
			continue
		}
		if substituteVar(ops, ch.v, ch.c) {
			changed = true
		}
	}
	return changed
}

// foldBinop attempts the literal-literal fold: both operands constant.
func foldBinop(op ir.Op) (ir.Literal, bool) {
	if !op.LHS.IsConstant() || !op.RHS.IsConstant() {
		return ir.Literal{}, false
	}
	if op.LHS.Lit.Kind == ir.LitString || op.RHS.Lit.Kind == ir.LitString {
		return ir.Literal{}, false
	}
	c, err := evalBinop(op.BinOp, op.LHS.Lit, op.RHS.Lit, op.Signed)
	if err != nil {
		return ir.Literal{}, false
	}
	return c, true
}

// identityFold applies x*1/1*x/x+0/0+x (both directions) and x/1, x-0
// (right-identity only), in that order, mirroring the original's mutual
// exclusion: a rule only fires when the *other* operand isn't itself a
// constant (that case was already handled by foldBinop above).
func identityFold(op ir.Op) (ir.Op, bool) {
	ident := func(k ir.BinOpKind) (uint64, bool) {
		switch k {
		case ir.TimesOp:
			return 1, true
		case ir.PlusOp:
			return 0, true
		}
		return 0, false
	}
	rhsIdent := func(k ir.BinOpKind) (uint64, bool) {
		switch k {
		case ir.DivideOp:
			return 1, true
		case ir.MinusOp:
			return 0, true
		}
		return 0, false
	}

	if lhsNum, ok := asNumLit(op.LHS); ok {
		if want, ok := ident(op.BinOp); ok && lhsNum == want {
			return ir.UnOp(op.Dest, ir.Identity, op.RHS), true
		}
	}
	if rhsNum, ok := asNumLit(op.RHS); ok {
		if want, ok := ident(op.BinOp); ok && rhsNum == want {
			return ir.UnOp(op.Dest, ir.Identity, op.LHS), true
		}
		if want, ok := rhsIdent(op.BinOp); ok && rhsNum == want {
			return ir.UnOp(op.Dest, ir.Identity, op.LHS), true
		}
	}
	return ir.Op{}, false
}

func asNumLit(r ir.RValue) (uint64, bool) {
	if !r.IsConstant() || r.Lit.Kind != ir.LitNum {
		return 0, false
	}
	return r.Lit.Num, true
}

// substituteVar replaces every remaining use of v (by exact Name+Gen) with
// the constant c, across every op. Returns whether any replacement
// happened. Destinations are never rewritten — only read positions.
func substituteVar(ops []ir.Op, v ir.Var, c ir.Literal) bool {
	changed := false
	replace := func(r *ir.RValue) {
		if r.IsVariable() && r.Var.Equal(v) {
			*r = ir.ConstRVal(c)
			changed = true
		}
	}
	for i := range ops {
		op := &ops[i]
		switch op.Kind {
		case ir.OpReturn:
			replace(&op.RVal)
		case ir.OpBinOp:
			replace(&op.LHS)
			replace(&op.RHS)
		case ir.OpUnOp:
			replace(&op.LHS)
		case ir.OpCall:
			replace(&op.Target)
			// Call's Args are plain Vars, not RValues, and Args is in the
			// avoid set unconditionally (spec.md §4.2), so there is
			// nothing to substitute there.
		case ir.OpCondGoto:
			replace(&op.RVal)
		}
	}
	return changed
}
