// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cgerror

import (
	"errors"
	"testing"

	"github.com/kemurphy/compiler/ir"
)

func TestMalformedOpString(t *testing.T) {
	op := ir.Return(ir.VarRVal(ir.Var{Name: 3}))
	err := MalformedOp("f", op, "AndAlso in IR")

	want := "f: malformed IR: AndAlso in IR: return v3"
	if got := err.String(); got != want {
		t.Errorf("String() = %q; want %q", got, want)
	}
	if err.Error() != want {
		t.Errorf("Error() = %q; want %q", err.Error(), want)
	}
}

func TestUnencodablefNoOp(t *testing.T) {
	err := Unencodablef("g", "immediate %d does not fit in 10 bits", 4096)
	want := "g: unencodable instruction: immediate 4096 does not fit in 10 bits"
	if got := err.String(); got != want {
		t.Errorf("String() = %q; want %q", got, want)
	}
}

func TestWrapUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := Unencodablef("h", "pack_int failed").Wrap(cause)

	if !errors.Is(err, cause) {
		t.Errorf("errors.Is(err, cause) = false; want true")
	}
}
