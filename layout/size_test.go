// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package layout

import (
	"reflect"
	"testing"

	"github.com/kemurphy/compiler/ir"
	"github.com/kemurphy/compiler/resolved"
)

func TestPackedSize(t *testing.T) {
	tests := []struct {
		sizes []uint32
		want  uint32
	}{
		{[]uint32{4, 1, 4}, 12},
		{[]uint32{1, 3}, 7},
	}
	for _, tt := range tests {
		if got := PackedSize(tt.sizes); got != tt.want {
			t.Errorf("PackedSize(%v) = %d; want %d", tt.sizes, got, tt.want)
		}
	}
}

func TestOffsetOf(t *testing.T) {
	sizes := []uint32{1, 2, 4, 1, 2}
	want := []uint32{0, 2, 4, 8, 10}
	got := make([]uint32, len(sizes))
	for i := range sizes {
		got[i] = OffsetOf(sizes, i)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("OffsetOf(%v, *) = %v; want %v", sizes, got, want)
	}
}

func TestSizeOfTupleU32BoolU32(t *testing.T) {
	ty := resolved.TupleType([]resolved.Type{
		resolved.IntType(ir.UnsignedIntKind(ir.Width32)),
		resolved.BoolType(),
		resolved.IntType(ir.UnsignedIntKind(ir.Width32)),
	})
	if got := SizeOfType(ty); got != 12 {
		t.Errorf("SizeOfType(u32,bool,u32) = %d; want 12", got)
	}
}

func TestSizeOfEnumAXY(t *testing.T) {
	// enum a { X(u32), Y(u8, u32) }
	ty := resolved.EnumType([][]resolved.Type{
		{resolved.IntType(ir.UnsignedIntKind(ir.Width32))},
		{resolved.IntType(ir.UnsignedIntKind(ir.Width8)), resolved.IntType(ir.UnsignedIntKind(ir.Width32))},
	})
	if got := SizeOfType(ty); got != 12 {
		t.Errorf("SizeOfType(enum a) = %d; want 12", got)
	}
}

func TestSizeOfScalarsAndAggregates(t *testing.T) {
	tests := []struct {
		name string
		ty   resolved.Type
		want uint32
	}{
		{"bool", resolved.BoolType(), 1},
		{"i32", resolved.IntType(ir.SignedIntKind(ir.Width32)), 4},
		{"u16", resolved.IntType(ir.UnsignedIntKind(ir.Width16)), 2},
		{"u8", resolved.IntType(ir.UnsignedIntKind(ir.Width8)), 1},
		{"generic int", resolved.IntType(ir.GenericInt), 4},
		{"string", resolved.StringType(), 4},
		{"pointer", resolved.PointerType(resolved.BoolType()), 4},
		{"unit", resolved.UnitType(), 0},
		{"array of 3 u32", resolved.ArrayType(resolved.IntType(ir.UnsignedIntKind(ir.Width32)), 3), 12},
		{"empty enum variant", resolved.EnumType([][]resolved.Type{{}, {}}), 4},
	}
	for _, tt := range tests {
		if got := SizeOfType(tt.ty); got != tt.want {
			t.Errorf("SizeOfType(%s) = %d; want %d", tt.name, got, tt.want)
		}
	}
}

func TestAlignment(t *testing.T) {
	tests := []struct {
		size uint32
		want uint32
	}{
		{0, 0}, {1, 1}, {2, 2}, {3, 4}, {4, 4}, {100, 4},
	}
	for _, tt := range tests {
		if got := Alignment(tt.size); got != tt.want {
			t.Errorf("Alignment(%d) = %d; want %d", tt.size, got, tt.want)
		}
	}
}
