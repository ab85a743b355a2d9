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

// BaseType enumerates every primitive kind a Type value can carry.
type BaseType int

const (
	BaseTypeNone BaseType = iota
	BaseTypeBool
	BaseTypeChar
	BaseTypeUChar
	BaseTypeShort
	BaseTypeUShort
	BaseTypeInt
	BaseTypeUInt
	BaseTypeLong
	BaseTypeULong
	BaseTypeFloat
	BaseTypeDouble
	BaseTypeString
	BaseTypeVector
	BaseTypeStruct
	BaseTypeUnion
	BaseTypeUType
)

// baseTypeNames mirrors the IDL keyword spelling for each base type, or ""
// for the types that have no standalone keyword (they are spelled out
// through other grammar: '[' for vectors, an identifier for structs and
// unions, and the union's own UTYPE is never written by the user).
var baseTypeNames = [...]string{
	BaseTypeNone:   "",
	BaseTypeBool:   "bool",
	BaseTypeChar:   "byte",
	BaseTypeUChar:  "ubyte",
	BaseTypeShort:  "short",
	BaseTypeUShort: "ushort",
	BaseTypeInt:    "int",
	BaseTypeUInt:   "uint",
	BaseTypeLong:   "long",
	BaseTypeULong:  "ulong",
	BaseTypeFloat:  "float",
	BaseTypeDouble: "double",
	BaseTypeString: "string",
	BaseTypeVector: "",
	BaseTypeStruct: "",
	BaseTypeUnion:  "",
	BaseTypeUType:  "",
}

// baseTypeSizes is the fixed inline byte size of every base type, used to
// bucket fields into descending-size emission passes. BaseTypeStruct's
// entry is a nominal stand-in, not its true size: a struct's actual size
// depends on its referenced StructDef and is looked up through InlineSize,
// but for bucketing purposes every struct-typed field sorts alongside the
// widest scalars, mirroring how the field that holds it is itself only
// ever a fixed handful of bytes wide in memory.
var baseTypeSizes = [...]uint32{
	BaseTypeNone:   0,
	BaseTypeBool:   1,
	BaseTypeChar:   1,
	BaseTypeUChar:  1,
	BaseTypeShort:  2,
	BaseTypeUShort: 2,
	BaseTypeInt:    4,
	BaseTypeUInt:   4,
	BaseTypeLong:   8,
	BaseTypeULong:  8,
	BaseTypeFloat:  4,
	BaseTypeDouble: 8,
	BaseTypeString: 4,
	BaseTypeVector: 4,
	BaseTypeStruct: 8,
	BaseTypeUnion:  4,
	BaseTypeUType:  1,
}

// keywordTypes is the reverse lookup the lexer uses when an identifier-like
// run of characters turns out to name a base type instead of being a
// user identifier.
var keywordTypes = func() map[string]BaseType {
	m := make(map[string]BaseType, len(baseTypeNames))
	for bt, name := range baseTypeNames {
		if name != "" {
			m[name] = BaseType(bt)
		}
	}
	return m
}()

// String returns the IDL spelling of t, or a bracketed description for the
// types that have no standalone keyword.
func (t BaseType) String() string {
	if int(t) >= 0 && int(t) < len(baseTypeNames) && baseTypeNames[t] != "" {
		return baseTypeNames[t]
	}
	switch t {
	case BaseTypeNone:
		return "<none>"
	case BaseTypeVector:
		return "<vector>"
	case BaseTypeStruct:
		return "<struct>"
	case BaseTypeUnion:
		return "<union>"
	case BaseTypeUType:
		return "<utype>"
	default:
		return "<invalid base type>"
	}
}

// Size returns the fixed inline byte size of t. For BaseTypeStruct this is
// only the nominal sort-bucket size; use InlineSize for a struct field's
// true byte size.
func (t BaseType) Size() uint32 {
	if int(t) < 0 || int(t) >= len(baseTypeSizes) {
		return 0
	}
	return baseTypeSizes[t]
}

// IsScalar reports whether t is stored inline as a plain numeric value.
//
// UTYPE sits at the tail of the enum next to the offset-carrying types, but
// it is included here rather than in IsPointerLike: it is the one-byte
// union discriminant, and is emitted exactly like any other small integer
// (Builder.AddElement, never AddOffset), not as a relative offset.
func (t BaseType) IsScalar() bool {
	return (t >= BaseTypeBool && t <= BaseTypeDouble) || t == BaseTypeUType
}

// IsInteger reports whether t is one of the integral scalar kinds.
func (t BaseType) IsInteger() bool {
	return (t >= BaseTypeBool && t <= BaseTypeULong) || t == BaseTypeUType
}

// IsFloat reports whether t is FLOAT or DOUBLE.
func (t BaseType) IsFloat() bool {
	return t == BaseTypeFloat || t == BaseTypeDouble
}

// IsPointerLike reports whether a value of t is emitted as a 32-bit
// relative offset rather than an inline scalar.
func (t BaseType) IsPointerLike() bool {
	switch t {
	case BaseTypeString, BaseTypeVector, BaseTypeStruct, BaseTypeUnion:
		return true
	default:
		return false
	}
}
