// Copyright (C) 2024 The Megrez Authors. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package megrez

// FieldDef describes one field of a StructDef.
type FieldDef struct {
	Name       string
	DocComment string
	Value      Value
	Padding    uint8
	Deprecated bool
	Attributes map[string]*Value
}

// Definition is the common shape shared by StructDef and EnumDef: a name,
// a documentation comment, and a metadata attribute bag.
type Definition struct {
	Name       string
	DocComment string
	Attributes map[string]*Value
}

// StructDef describes a declared struct (fixed layout) or info (variable,
// vtable-addressed layout).
type StructDef struct {
	Definition

	Fields *symbolTable[*FieldDef]

	// Fixed is true for a `struct` declaration and false for an `info`
	// declaration.
	Fixed bool

	// Predecl is true while only a forward reference (via
	// lookupOrCreateStruct) has been seen; it is cleared once the actual
	// declaration is parsed.
	Predecl bool

	// SortBySize is true iff !Fixed and the Original_order attribute is
	// absent: non-fixed fields are then emitted in descending-size passes
	// rather than declaration order.
	SortBySize bool

	// MinAlign is the struct's minimum alignment, a power of two <= 256.
	MinAlign uint8

	// ByteSize is the total inline size of a fixed struct; it is
	// meaningless for a non-fixed info.
	ByteSize uint32
}

func newStructDef(name string) *StructDef {
	return &StructDef{
		Definition: Definition{Name: name, Attributes: map[string]*Value{}},
		Fields:     newSymbolTable[*FieldDef](),
		MinAlign:   1,
	}
}

// padLastField raises the padding recorded on the most recently added field
// so the struct as a whole satisfies alignment. It is called both after
// every field add, aligning against the next field's alignment, and once
// more at the closing brace against the struct's own MinAlign.
func (s *StructDef) padLastField(alignment uint8) {
	fields := s.Fields.Values()
	if len(fields) == 0 {
		return
	}
	last := fields[len(fields)-1]
	pad := paddingBytes(s.ByteSize, alignment)
	last.Padding = pad
	s.ByteSize += uint32(pad)
}

func paddingBytes(offset uint32, alignment uint8) uint8 {
	if alignment == 0 {
		return 0
	}
	a := uint32(alignment)
	rem := offset % a
	if rem == 0 {
		return 0
	}
	return uint8(a - rem)
}

// EnumVal is one member of an EnumDef.
type EnumVal struct {
	Name       string
	DocComment string
	Value      int64

	// StructRef is set for union members: it names the info the member
	// selects.
	StructRef *StructDef
}

// EnumDef describes a declared enum or union.
type EnumDef struct {
	Definition

	IsUnion        bool
	UnderlyingType Type
	Vals           *symbolTable[*EnumVal]
}

func newEnumDef(name string) *EnumDef {
	return &EnumDef{
		Definition: Definition{Name: name, Attributes: map[string]*Value{}},
		Vals:       newSymbolTable[*EnumVal](),
	}
}

// ReverseLookup finds the enum member whose integer Value equals idx. It is
// used to resolve a union's "_type" tag back into the StructDef it selects.
func (e *EnumDef) ReverseLookup(idx int64) *EnumVal {
	for _, v := range e.Vals.Values() {
		if v.Value == idx {
			return v
		}
	}
	return nil
}
