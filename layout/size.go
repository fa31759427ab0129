// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package layout computes byte sizes and field offsets for the backend.
// The packing rule (alignment, padding, packed size) is shared by
// PackedSize, OffsetOf, SizeOfType and SizeOfDef. Stack-frame layout is
// not done here; lower lays out allocas and the outgoing-argument area.
package layout

import (
	"fmt"

	"github.com/kemurphy/compiler/ir"
	"github.com/kemurphy/compiler/resolved"
)

// enumTagSize is the size in bytes of an enum's discriminant.
const enumTagSize uint32 = 4

// Alignment returns the alignment for an object of the given size: 4 for
// anything bigger than a halfword, else the size itself.
func Alignment(size uint32) uint32 {
	if size > 2 {
		return 4
	}
	return size
}

// paddingOf returns the padding needed before an item of the given size
// placed after sizeSoFar bytes of prior items.
func paddingOf(sizeSoFar, size uint32) uint32 {
	a := Alignment(size)
	if a == 0 {
		return 0
	}
	offset := sizeSoFar % a
	return (a - offset) % a
}

// incrementOf returns the total extra space (padding + size) an item of
// the given size consumes when placed after sizeSoFar bytes.
func incrementOf(sizeSoFar, size uint32) uint32 {
	return paddingOf(sizeSoFar, size) + size
}

// PackedSize returns the total size, including inter-member padding, of a
// packed aggregate whose members have the given sizes, laid out in order.
func PackedSize(sizes []uint32) uint32 {
	var sizeSoFar uint32
	for _, s := range sizes {
		sizeSoFar += incrementOf(sizeSoFar, s)
	}
	return sizeSoFar
}

// OffsetOf returns the offset of the item-th member (0-indexed) of a
// packed aggregate whose members have the given sizes.
func OffsetOf(sizes []uint32, item int) uint32 {
	var sizeSoFar uint32
	for _, s := range sizes[:item] {
		sizeSoFar += incrementOf(sizeSoFar, s)
	}
	return sizeSoFar + paddingOf(sizeSoFar, sizes[item])
}

// SizeOfType returns the size in bytes of a resolved.Type.
func SizeOfType(t resolved.Type) uint32 {
	switch t.Kind {
	case resolved.TyBool:
		return 1
	case resolved.TyInt:
		return t.IntKind.W.Bytes()
	case resolved.TyString, resolved.TyPointer, resolved.TyFuncPointer:
		return 4
	case resolved.TyUnit:
		return 0
	case resolved.TyArray:
		return SizeOfType(*t.Elem) * t.N
	case resolved.TyTuple:
		return PackedSize(sizesOf(t.Elems))
	case resolved.TyStruct:
		return PackedSize(sizesOf(t.Fields))
	case resolved.TyEnum:
		var maxVariant uint32
		for _, fields := range t.Variants {
			if s := PackedSize(sizesOf(fields)); s > maxVariant {
				maxVariant = s
			}
		}
		if maxVariant == 0 {
			return enumTagSize
		}
		return PackedSize([]uint32{enumTagSize, maxVariant})
	}
	panic(fmt.Sprintf("layout: unsupported type kind %v", t.Kind))
}

func sizesOf(types []resolved.Type) []uint32 {
	sizes := make([]uint32, len(types))
	for i, t := range types {
		sizes[i] = SizeOfType(t)
	}
	return sizes
}

// SizeOfDef returns the size in bytes of a struct, enum, or variant
// definition looked up by node id. It panics on any other DefKind, same
// as the original's size_of_def, which is only ever called on aggregate
// definitions reachable from a resolved.Type.
func SizeOfDef(defs resolved.DefMap, types resolved.TypeMap, id resolved.NodeId) uint32 {
	def, ok := defs[id]
	if !ok {
		panic(fmt.Sprintf("layout: no def for node %d", id))
	}
	switch def.Kind {
	case resolved.DefStruct:
		sizes := make([]uint32, len(def.Fields))
		for i, f := range def.Fields {
			sizes[i] = SizeOfType(fieldType(defs, types, f))
		}
		return PackedSize(sizes)
	case resolved.DefEnum:
		var maxVariant uint32
		for _, v := range def.Variants {
			if s := SizeOfDef(defs, types, v); s > maxVariant {
				maxVariant = s
			}
		}
		if maxVariant == 0 {
			return enumTagSize
		}
		return PackedSize([]uint32{enumTagSize, maxVariant})
	case resolved.DefVariant:
		return PackedSize(sizesOf(def.ArgTypes))
	}
	panic(fmt.Sprintf("layout: size of %v not supported", def.Kind))
}

func fieldType(defs resolved.DefMap, types resolved.TypeMap, field resolved.NodeId) resolved.Type {
	if t, ok := types[field]; ok {
		return t
	}
	if d, ok := defs[field]; ok && d.Kind == resolved.DefField {
		return d.Ty
	}
	panic(fmt.Sprintf("layout: no type for field node %d", field))
}

// IntKindSize is a convenience wrapper for callers that only have an
// ir.IntKind in hand (e.g. a numeric literal's Kind2), not a full resolved.Type.
func IntKindSize(k ir.IntKind) uint32 { return k.W.Bytes() }
