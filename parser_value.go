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

import "strconv"

// enterNesting and leaveNesting bracket every recursive descent into a
// nested data literal (parseInfo, parseVector), failing once the depth
// configured on the Parser is exceeded rather than growing the Go stack
// without bound on adversarial or accidentally self-referential input.
func (p *Parser) enterNesting() {
	p.depth++
	if p.depth > p.cfg.maxNestingDepth() {
		fail(p.lex.line, "Data literal nesting too deep (limit %d)", p.cfg.maxNestingDepth())
	}
}

func (p *Parser) leaveNesting() {
	p.depth--
}

// parseMetaData parses an optional "( name, name: value, ... )" attribute
// list into attrs, which must already be a non-nil map.
func (p *Parser) parseMetaData(attrs map[string]*Value) {
	l := p.lex
	if !p.isNext(token('(')) {
		return
	}
	for {
		name := l.attribute
		p.expect(tokIdentifier)
		v := &Value{Type: Type{BaseType: BaseTypeNone}, Constant: "0"}
		attrs[name] = v
		if p.isNext(token(':')) {
			p.parseSingleValue(v)
		}
		if p.isNext(token(')')) {
			break
		}
		p.expect(token(','))
	}
}

// tryTypedValue consumes the current token into e if it is a dtoken, and
// reports whether it was. When check is false it also fixes e's type to
// req (or fails on a mismatch against an already-fixed type); when check
// is true the caller has already established the type and only wants the
// literal's text.
func (p *Parser) tryTypedValue(dtoken token, check bool, e *Value, req BaseType) bool {
	l := p.lex
	if l.token != dtoken {
		return false
	}
	e.Constant = l.attribute
	if !check {
		if e.Type.BaseType == BaseTypeNone {
			e.Type.BaseType = req
		} else {
			fail(l.line, "Type mismatch: expecting %s, found %s", e.Type.BaseType, req)
		}
	}
	l.advance()
	return true
}

// parseSingleValue parses one scalar literal (integer, float, string, or
// an enum member's bare identifier) into e, which already carries e's
// expected type if one is known.
func (p *Parser) parseSingleValue(e *Value) {
	l := p.lex
	switch {
	case p.tryTypedValue(tokIntegerConstant, e.Type.BaseType.IsScalar(), e, BaseTypeInt):
	case p.tryTypedValue(tokFloatConstant, e.Type.BaseType.IsFloat(), e, BaseTypeFloat):
	case p.tryTypedValue(tokStringConstant, e.Type.BaseType == BaseTypeString, e, BaseTypeString):
	case l.token == tokIdentifier:
		var found *EnumVal
		for _, ed := range p.enums.Values() {
			if ev, ok := ed.Vals.Lookup(l.attribute); ok {
				found = ev
				break
			}
		}
		if found == nil {
			fail(l.line, "Not a valid enum value: %s", l.attribute)
		}
		l.attribute = strconv.FormatInt(found.Value, 10)
		p.tryTypedValue(tokIdentifier, e.Type.BaseType.IsInteger(), e, BaseTypeInt)
	default:
		fail(l.line, "Cannot parse value starting with: %s", l.token)
	}
}

// parseAnyValue parses a field's value, which may be a nested data literal
// (info, struct, or union member), a string, a vector, or a plain scalar.
// field names the field being filled, used only for diagnostics.
func (p *Parser) parseAnyValue(val *Value, field *FieldDef) {
	l := p.lex
	switch val.Type.BaseType {
	case BaseTypeUnion:
		if len(p.fieldStack) == 0 || p.fieldStack[len(p.fieldStack)-1].field == nil ||
			p.fieldStack[len(p.fieldStack)-1].field.Value.Type.BaseType != BaseTypeUType {
			fail(l.line, "Missing type field before this union value: %s", field.Name)
		}
		tag := p.fieldStack[len(p.fieldStack)-1].value
		idx, err := parseIntConstant(tag.Constant, 8)
		if err != nil {
			fail(l.line, "%s", err)
		}
		ev := val.Type.EnumRef.ReverseLookup(idx)
		if ev == nil || ev.StructRef == nil {
			fail(l.line, "Illegal type id for union value: %s", field.Name)
		}
		off := p.parseInfo(ev.StructRef)
		val.Constant = strconv.FormatUint(uint64(off), 10)
	case BaseTypeStruct:
		off := p.parseInfo(val.Type.StructRef)
		val.Constant = strconv.FormatUint(uint64(off), 10)
	case BaseTypeString:
		s := l.attribute
		p.expect(tokStringConstant)
		off := p.builder.CreateString(s)
		val.Constant = strconv.FormatUint(uint64(off), 10)
	case BaseTypeVector:
		p.expect(token('['))
		off := p.parseVector(val.Type.VectorElementType())
		val.Constant = strconv.FormatUint(uint64(off), 10)
	default:
		p.parseSingleValue(val)
	}
}

// parseVector parses a bracketed, comma-separated vector literal of
// elementType elements (the opening '[' has already been consumed) and
// returns its builder offset.
func (p *Parser) parseVector(elementType Type) uint32 {
	p.enterNesting()
	defer p.leaveNesting()

	l := p.lex
	var elems []Value
	if !p.isNext(token(']')) {
		for {
			v := newValue(elementType)
			p.parseAnyValue(&v, nil)
			elems = append(elems, v)
			if !p.isNext(token(',')) {
				break
			}
		}
		p.expect(token(']'))
	}

	elemSize := InlineSize(elementType)
	elemAlign := InlineAlignment(elementType)
	p.builder.StartVector(len(elems), elemSize, elemAlign)

	for i := len(elems) - 1; i >= 0; i-- {
		v := elems[i]
		if elementType.BaseType.IsScalar() {
			bits, err := scalarBits(elementType.BaseType, v.Constant)
			if err != nil {
				fail(l.line, "%s", err)
			}
			p.builder.PushElement(bits, elemSize)
		} else if elementType.IsStruct() {
			p.serializeStruct(elementType.StructRef, v)
		} else {
			target, err := offsetValue(v.Constant)
			if err != nil {
				fail(l.line, "%s", err)
			}
			p.builder.pushOffset(target)
		}
	}
	return p.builder.EndVector(len(elems))
}

// serializeStruct splices a fixed struct's already-built bytes (sitting
// on the struct stack at the offset recorded in val) back into the
// builder in place. It only moves bytes: a caller writing a struct-typed
// info field, rather than a bare vector element, still has to record the
// vtable slot itself via Builder.AddStructOffset once this returns.
func (p *Parser) serializeStruct(sd *StructDef, val Value) {
	off, err := offsetValue(val.Constant)
	if err != nil {
		fail(p.lex.line, "%s", err)
	}
	p.builder.Align(sd.MinAlign)
	p.builder.PushBytes(p.structStack[off:])
	p.structStack = p.structStack[:off]
}

// parseInfo parses a "{ field: value, ... }" data literal into sd's
// shape: first collecting every (value, field) pair onto the field
// stack in source order, then opening the matching builder frame and
// draining that stack back out in reverse, size-sorted emission order.
// It returns the resulting object's builder offset: for a non-fixed sd
// this is the object offset EndInfo returns; for a fixed sd it is
// instead an index into the parser's struct stack, where the struct's
// bytes are staged until a containing field splices them inline via
// serializeStruct.
func (p *Parser) parseInfo(sd *StructDef) uint32 {
	p.enterNesting()
	defer p.leaveNesting()

	l := p.lex
	p.expect(token('{'))

	declared := sd.Fields.Values()
	fieldn := 0
	base := len(p.fieldStack)

	if !p.isNext(token('}')) {
		for {
			isString := l.token == tokStringConstant
			name := l.attribute
			if isString {
				l.advance()
			} else {
				p.expect(tokIdentifier)
			}

			field, ok := sd.Fields.Lookup(name)
			if !ok {
				fail(l.line, "Unknown field: %s", name)
			}
			if sd.Fixed {
				if fieldn >= len(declared) || declared[fieldn] != field {
					fail(l.line, "Struct field appearing out of order: %s", name)
				}
			}

			p.expect(token(':'))
			val := field.Value
			p.parseAnyValue(&val, field)
			p.fieldStack = append(p.fieldStack, fieldStackEntry{value: val, field: field})
			fieldn++

			if p.isNext(token('}')) {
				break
			}
			p.expect(token(','))
		}
	}

	if sd.Fixed && fieldn != len(declared) {
		fail(l.line, "Incomplete struct initialization: %s", sd.Name)
	}

	if sd.Fixed {
		p.builder.StartStruct(sd.MinAlign)
	} else {
		p.builder.StartInfo()
	}

	const maxScalarSize = uint32(8)
	for size := maxScalarSize; size >= 1; size /= 2 {
		for i := len(p.fieldStack) - 1; i >= base; i-- {
			entry := p.fieldStack[i]
			value, field := entry.value, entry.field
			if sd.SortBySize && size != value.Type.BaseType.Size() {
				continue
			}
			p.builder.Pad(field.Padding)

			switch {
			case value.Type.BaseType.IsScalar():
				bits, err := scalarBits(value.Type.BaseType, value.Constant)
				if err != nil {
					fail(l.line, "%s", err)
				}
				deflt, err := scalarBits(field.Value.Type.BaseType, field.Value.Constant)
				if err != nil {
					fail(l.line, "%s", err)
				}
				p.builder.AddElement(value.Offset, bits, deflt, value.Type.BaseType.Size())
			case value.Type.IsStruct():
				p.serializeStruct(value.Type.StructRef, value)
				p.builder.AddStructOffset(value.Offset)
			default:
				target, err := offsetValue(value.Constant)
				if err != nil {
					fail(l.line, "%s", err)
				}
				p.builder.AddOffset(value.Offset, target)
			}
		}
		if !sd.SortBySize {
			break
		}
	}
	p.fieldStack = p.fieldStack[:base]

	if sd.Fixed {
		p.builder.EndStruct()
		off := uint32(len(p.structStack))
		p.structStack = append(p.structStack, p.builder.PopBytes(sd.ByteSize)...)
		return off
	}
	return p.builder.EndInfo(sd.Fields.Len())
}
