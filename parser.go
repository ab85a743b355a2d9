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

import (
	"strconv"

	"github.com/lineCode/Megrez/internal/xlog"
)

// fieldStackEntry is one pending (value, field) pair collected while
// walking a data literal's fields, before the matching object frame opens
// and the pairs are drained back out in emission order.
type fieldStackEntry struct {
	value Value
	field *FieldDef
}

// Parser holds all state for a single schema-and-data parse: the lexer
// cursor, the struct/enum registries, and the in-flight builder used to
// emit a root data literal if one is present.
type Parser struct {
	cfg *Config
	lex *lexer

	structs *symbolTable[*StructDef]
	enums   *symbolTable[*EnumDef]

	nameSpace     []string
	mainStructRef *StructDef

	builder     *Builder
	structStack []byte
	fieldStack  []fieldStackEntry
	depth       int

	used    bool
	lastErr error
}

// NewParser returns a Parser configured by cfg. A nil cfg applies every
// default.
func NewParser(cfg *Config) *Parser {
	return &Parser{
		cfg:     cfg,
		structs: newSymbolTable[*StructDef](),
		enums:   newSymbolTable[*EnumDef](),
		builder: NewBuilder(),
	}
}

// Parse consumes source as a schema optionally followed by a single root
// data literal, and reports whether it succeeded. Call Error after a
// failed Parse for the formatted diagnostic. A Parser may only be used
// for one Parse call; a second call reports failure with ErrAlreadyParsed
// as its Error.
func (p *Parser) Parse(source string) bool {
	if p.used {
		p.lastErr = ErrAlreadyParsed
		return false
	}
	p.used = true

	defer func() {
		if r := recover(); r != nil {
			abort, isAbort := r.(*errAbort)
			if !isAbort {
				panic(r)
			}
			p.cfg.logger().Logf(xlog.Error, "%s", abort.Error())
			p.lastErr = abort
		}
	}()

	p.lex = newLexer(source)
	p.parseTopLevel()
	return true
}

// Error returns the formatted diagnostic from the most recent failed
// Parse, or "" if the last Parse succeeded (or none has run yet).
func (p *Parser) Error() string {
	if p.lastErr == nil {
		return ""
	}
	return p.lastErr.Error()
}

// Buffer returns the finished binary buffer built by the root data
// literal parsed by the most recent successful Parse.
func (p *Parser) Buffer() []byte {
	return p.builder.Bytes()
}

func (p *Parser) parseTopLevel() {
	l := p.lex
	for l.token != tokEOF {
		switch {
		case l.token == tokNamespace:
			p.parseNamespace()
		case l.token == tokEnum:
			p.parseEnum(false)
		case l.token == tokUnion:
			p.parseEnum(true)
		case l.token == tokMainType:
			l.advance()
			name := l.attribute
			p.expect(tokIdentifier)
			p.expect(token(';'))
			if !p.setMainType(name) {
				fail(l.line, "Unknown root type: %s", name)
			}
		case l.token == token('{'):
			if p.mainStructRef == nil {
				fail(l.line, "A data literal requires a Main declaration first")
			}
			off := p.parseInfo(p.mainStructRef)
			p.builder.Finish(off)
		default:
			p.parseDecl()
		}
	}
	p.finishChecks()
}

func (p *Parser) parseNamespace() {
	l := p.lex
	l.advance()
	var parts []string
	for {
		parts = append(parts, l.attribute)
		p.expect(tokIdentifier)
		if !p.isNext(token('.')) {
			break
		}
	}
	p.expect(token(';'))
	p.nameSpace = parts
}

// finishChecks runs the two whole-schema invariants that can only be
// verified once every declaration has been seen.
func (p *Parser) finishChecks() {
	for _, sd := range p.structs.Values() {
		if sd.Predecl {
			fail(p.lex.line, "Type referenced but not defined: %s", sd.Name)
		}
	}
	for _, ed := range p.enums.Values() {
		if !ed.IsUnion {
			continue
		}
		for _, ev := range ed.Vals.Values() {
			if ev.StructRef != nil && ev.StructRef.Fixed {
				fail(p.lex.line, "Only info can be union elements: %s", ev.Name)
			}
		}
	}
}

// setMainType resolves name against the struct registry and, if it names
// a non-fixed info, records it as the root type for a following data
// literal.
func (p *Parser) setMainType(name string) bool {
	sd, ok := p.structs.Lookup(name)
	if !ok {
		return false
	}
	if sd.Fixed {
		fail(p.lex.line, "Main type must be an info, not a struct: %s", name)
	}
	p.mainStructRef = sd
	return true
}

func (p *Parser) expect(t token) {
	if p.lex.token != t {
		fail(p.lex.line, "Expecting: %s, found: %s", t, p.lex.token)
	}
	p.lex.advance()
}

func (p *Parser) isNext(t token) bool {
	if p.lex.token != t {
		return false
	}
	p.lex.advance()
	return true
}

func (p *Parser) lookupOrCreateStruct(name string) *StructDef {
	if sd, ok := p.structs.Lookup(name); ok {
		return sd
	}
	sd := newStructDef(name)
	sd.Predecl = true
	p.structs.Add(name, sd)
	return sd
}

// parseType parses one occurrence of a type: a base-type keyword, an
// identifier naming a struct/info/enum/union, or a bracketed vector of
// either.
func (p *Parser) parseType(t *Type) {
	l := p.lex
	switch {
	case l.token == tokBaseType:
		t.BaseType = l.typeTok
	case l.token == tokIdentifier:
		name := l.attribute
		if ed, ok := p.enums.Lookup(name); ok {
			*t = ed.UnderlyingType
			if ed.IsUnion {
				t.BaseType = BaseTypeUnion
			}
		} else {
			t.BaseType = BaseTypeStruct
			t.StructRef = p.lookupOrCreateStruct(name)
		}
	case l.token == token('['):
		l.advance()
		var sub Type
		p.parseType(&sub)
		if sub.BaseType == BaseTypeVector {
			fail(l.line, "Nested vector types not supported (wrap in info first)")
		}
		if sub.BaseType == BaseTypeUnion {
			fail(l.line, "Vector of union types not supported (wrap in info first)")
		}
		*t = Type{BaseType: BaseTypeVector, ElementType: sub.BaseType, StructRef: sub.StructRef, EnumRef: sub.EnumRef}
		p.expect(token(']'))
		return
	default:
		fail(l.line, "Illegal type syntax")
	}
	l.advance()
}

// addField appends name/typ as a new field of sd, computing its vtable
// slot (non-fixed) or byte offset and padding (fixed), and registers it.
func (p *Parser) addField(sd *StructDef, name string, typ Type) *FieldDef {
	field := &FieldDef{Name: name, Value: newValue(typ), Attributes: map[string]*Value{}}
	field.Value.Offset = fieldIndexToOffset(uint16(sd.Fields.Len()))

	if sd.Fixed {
		alignment := InlineAlignment(typ)
		if alignment > sd.MinAlign {
			sd.MinAlign = alignment
		}
		sd.padLastField(alignment)
		field.Value.Offset = uint16(sd.ByteSize)
		sd.ByteSize += InlineSize(typ)
	}

	if !sd.Fields.Add(name, field) {
		fail(p.lex.line, "Field already exists: %s", name)
	}
	return field
}

func fieldIndexToOffset(fieldIndex uint16) uint16 {
	const fixedFields = 2
	return (fieldIndex + fixedFields) * 2
}

func (p *Parser) parseField(sd *StructDef) {
	l := p.lex
	name := l.attribute
	dc := l.docComment
	p.expect(tokIdentifier)
	p.expect(token(':'))

	var typ Type
	p.parseType(&typ)

	if sd.Fixed && !typ.BaseType.IsScalar() && !typ.IsStruct() {
		fail(l.line, "Fixed structs may contain only scalar or struct fields: %s", name)
	}

	if typ.BaseType == BaseTypeUnion {
		p.addField(sd, name+"_type", typ.EnumRef.UnderlyingType)
	}
	field := p.addField(sd, name, typ)
	field.DocComment = dc

	if p.isNext(token('=')) {
		p.parseSingleValue(&field.Value)
	}

	p.parseMetaData(field.Attributes)
	_, field.Deprecated = field.Attributes["deprecated"]
	if field.Deprecated && sd.Fixed {
		fail(l.line, "Cannot deprecate a field of a fixed struct: %s", name)
	}
	p.expect(token(';'))
}

func (p *Parser) parseDecl() {
	l := p.lex
	dc := l.docComment
	fixed := p.isNext(tokStruct)
	if !fixed {
		p.expect(tokInfo)
	}
	name := l.attribute
	p.expect(tokIdentifier)

	sd := p.lookupOrCreateStruct(name)
	if !sd.Predecl {
		fail(l.line, "Type already defined: %s", name)
	}
	sd.Predecl = false
	sd.Name = name
	sd.DocComment = dc
	sd.Fixed = fixed
	p.structs.MoveToTail(name)

	p.parseMetaData(sd.Attributes)
	sd.SortBySize = !fixed
	if _, ok := sd.Attributes["Original_order"]; ok {
		sd.SortBySize = false
	}

	p.expect(token('{'))
	for l.token != token('}') {
		p.parseField(sd)
	}
	p.expect(token('}'))

	if fixed {
		if fa, ok := sd.Attributes["Force_align"]; ok {
			align, err := strconv.ParseInt(fa.Constant, 10, 32)
			if fa.Type.BaseType != BaseTypeInt || err != nil ||
				align < int64(sd.MinAlign) || align > 256 || align&(align-1) != 0 {
				fail(l.line, "Force_align must be a power of two integer ranging from the struct's natural alignment to 256")
			}
			sd.MinAlign = uint8(align)
		}
		sd.padLastField(sd.MinAlign)
	}
}

func (p *Parser) parseEnum(isUnion bool) {
	l := p.lex
	dc := l.docComment
	l.advance()
	name := l.attribute
	p.expect(tokIdentifier)

	ed := newEnumDef(name)
	ed.DocComment = dc
	ed.IsUnion = isUnion
	if !p.enums.Add(name, ed) {
		fail(l.line, "Enum already exists: %s", name)
	}

	if isUnion {
		ed.UnderlyingType = Type{BaseType: BaseTypeUType, EnumRef: ed}
	} else if p.isNext(token(':')) {
		p.parseType(&ed.UnderlyingType)
		if !ed.UnderlyingType.BaseType.IsInteger() {
			fail(l.line, "Underlying enum type must be integral")
		}
	} else {
		ed.UnderlyingType = Type{BaseType: BaseTypeShort}
	}

	p.parseMetaData(ed.Attributes)
	p.expect(token('{'))

	if isUnion {
		ed.Vals.Add("NONE", &EnumVal{Name: "NONE", Value: 0})
	}

	for {
		valName := l.attribute
		valDoc := l.docComment
		p.expect(tokIdentifier)

		existing := ed.Vals.Values()
		var next int64
		if len(existing) > 0 {
			next = existing[len(existing)-1].Value + 1
		}
		ev := &EnumVal{Name: valName, Value: next, DocComment: valDoc}
		if isUnion {
			ev.StructRef = p.lookupOrCreateStruct(valName)
		}
		if !ed.Vals.Add(valName, ev) {
			fail(l.line, "Enum value already exists: %s", valName)
		}

		if p.isNext(token('=')) {
			val, err := strconv.ParseInt(l.attribute, 10, 64)
			if err != nil {
				fail(l.line, "Malformed enum value: %s", l.attribute)
			}
			p.expect(tokIntegerConstant)
			if len(existing) > 0 && existing[len(existing)-1].Value >= val {
				fail(l.line, "Enum values must be specified in ascending order")
			}
			ev.Value = val
		}

		if !p.isNext(token(',')) {
			break
		}
	}
	p.expect(token('}'))
}
