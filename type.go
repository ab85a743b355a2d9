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

// Type describes one occurrence of a type in the schema: a field's type,
// a vector's element type, or a union's underlying discriminant type.
type Type struct {
	BaseType BaseType

	// ElementType is set when BaseType is BaseTypeVector: it names the
	// scalar or pointer-like type of the vector's elements.
	ElementType BaseType

	// StructRef names the referenced struct/info for BaseTypeStruct, for
	// a BaseTypeVector of structs, and (by convention, mirroring
	// EnumVal.StructRef) unused for BaseTypeUnion.
	StructRef *StructDef

	// EnumRef names the referenced union for BaseTypeUnion and for that
	// union's BaseTypeUType discriminant. A type declared using a plain
	// enum's name carries only the enum's underlying integer type, with
	// EnumRef left nil.
	EnumRef *EnumDef
}

// IsStruct reports whether t denotes a (possibly vector-element) reference
// to a fixed-layout struct, as opposed to a pointer-like reference to a
// non-fixed info.
func (t Type) IsStruct() bool {
	return t.BaseType == BaseTypeStruct && t.StructRef != nil && t.StructRef.Fixed
}

// VectorElementType reconstructs the Type of a single element of a vector
// type, restoring the element's own StructRef/EnumRef.
func (t Type) VectorElementType() Type {
	return Type{BaseType: t.ElementType, StructRef: t.StructRef, EnumRef: t.EnumRef}
}

// InlineSize returns the number of bytes t occupies when stored inline
// (as a struct field, a vector element, or a scalar value). For struct
// references this is the referenced StructDef's computed byte size, not
// the (meaningless) BaseTypeStruct constant.
func InlineSize(t Type) uint32 {
	if t.BaseType == BaseTypeStruct && t.StructRef != nil {
		return t.StructRef.ByteSize
	}
	return t.BaseType.Size()
}

// InlineAlignment returns the alignment, in bytes, required before writing
// a value of t inline.
func InlineAlignment(t Type) uint8 {
	if t.BaseType == BaseTypeStruct && t.StructRef != nil {
		return t.StructRef.MinAlign
	}
	return uint8(t.BaseType.Size())
}
