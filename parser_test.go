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
	"testing"

	"github.com/lineCode/Megrez/internal/asserttest"
)

func mustParseSchema(t *testing.T, source string) *Parser {
	t.Helper()
	p := NewParser(nil)
	if !p.Parse(source) {
		t.Fatalf("unexpected parse failure: %s", p.Error())
	}
	return p
}

func TestStructFieldOffsetsAndPadding(t *testing.T) {
	p := mustParseSchema(t, "struct P { x: byte; y: int; }")
	sd, ok := p.structs.Lookup("P")
	asserttest.To(t).For("lookup").That(ok).Equals(true)

	x, _ := sd.Fields.Lookup("x")
	y, _ := sd.Fields.Lookup("y")
	asserttest.To(t).For("x offset").That(x.Value.Offset).Equals(uint16(0))
	asserttest.To(t).For("x padding").That(x.Padding).Equals(uint8(3))
	asserttest.To(t).For("y offset").That(y.Value.Offset).Equals(uint16(4))
	asserttest.To(t).For("y padding").That(y.Padding).Equals(uint8(0))
	asserttest.To(t).For("byte size").That(sd.ByteSize).Equals(uint32(8))
	asserttest.To(t).For("min align").That(sd.MinAlign).Equals(uint8(4))
}

func TestInfoFieldSlots(t *testing.T) {
	p := mustParseSchema(t, "info V { x: int; y: int; }")
	sd, _ := p.structs.Lookup("V")
	x, _ := sd.Fields.Lookup("x")
	y, _ := sd.Fields.Lookup("y")
	asserttest.To(t).For("x slot").That(x.Value.Offset).Equals(uint16(4))
	asserttest.To(t).For("y slot").That(y.Value.Offset).Equals(uint16(6))
	asserttest.To(t).For("sort by size").That(sd.SortBySize).Equals(true)
}

func TestOriginalOrderAttributeDisablesSorting(t *testing.T) {
	p := mustParseSchema(t, `info V (Original_order) { x: int; }`)
	sd, _ := p.structs.Lookup("V")
	asserttest.To(t).For("sort by size").That(sd.SortBySize).Equals(false)
}

func TestEnumAutoIncrementAndExplicitValues(t *testing.T) {
	p := mustParseSchema(t, "enum E : int { A, B, C = 5, D }")
	ed, _ := p.enums.Lookup("E")
	a, _ := ed.Vals.Lookup("A")
	b, _ := ed.Vals.Lookup("B")
	c, _ := ed.Vals.Lookup("C")
	d, _ := ed.Vals.Lookup("D")
	asserttest.To(t).For("A").That(a.Value).Equals(int64(0))
	asserttest.To(t).For("B").That(b.Value).Equals(int64(1))
	asserttest.To(t).For("C").That(c.Value).Equals(int64(5))
	asserttest.To(t).For("D").That(d.Value).Equals(int64(6))
}

func TestEnumWithMetaDataDoesNotPanic(t *testing.T) {
	p := mustParseSchema(t, `enum E : int (Some_attribute: 1) { A, B }`)
	ed, _ := p.enums.Lookup("E")
	_, ok := ed.Attributes["Some_attribute"]
	asserttest.To(t).For("attribute recorded").That(ok).Equals(true)
}

func TestEnumNonAscendingValueFails(t *testing.T) {
	p := NewParser(nil)
	ok := p.Parse("enum E : int { A = 2, B = 1 }")
	asserttest.To(t).For("ok").That(ok).Equals(false)
}

func TestUnionGetsCompanionTypeField(t *testing.T) {
	p := mustParseSchema(t, "union U { X, Y } info X {} info Y {} info Z { u: U; }")
	sd, _ := p.structs.Lookup("Z")
	fields := sd.Fields.Values()
	asserttest.To(t).For("field count").That(len(fields)).Equals(2)
	asserttest.To(t).For("companion name").That(fields[0].Name).Equals("u_type")
	asserttest.To(t).For("companion type").That(fields[0].Value.Type.BaseType).Equals(BaseTypeUType)
	asserttest.To(t).For("union field name").That(fields[1].Name).Equals("u")
	asserttest.To(t).For("union field type").That(fields[1].Value.Type.BaseType).Equals(BaseTypeUnion)
}

func TestUnionMemberMustBeNonFixed(t *testing.T) {
	p := NewParser(nil)
	ok := p.Parse("union U { X } struct X {}")
	asserttest.To(t).For("ok").That(ok).Equals(false)
}

func TestNestedVectorRejected(t *testing.T) {
	p := NewParser(nil)
	ok := p.Parse("info V { x: [[int]]; }")
	asserttest.To(t).For("ok").That(ok).Equals(false)
	asserttest.To(t).For("message").That(p.Error() != "").Equals(true)
}

func TestVectorOfUnionRejected(t *testing.T) {
	p := NewParser(nil)
	ok := p.Parse("union U { X } info V { x: [U]; }")
	asserttest.To(t).For("ok").That(ok).Equals(false)
}

func TestDuplicateFieldRejected(t *testing.T) {
	p := NewParser(nil)
	ok := p.Parse("info V { x: int; x: int; }")
	asserttest.To(t).For("ok").That(ok).Equals(false)
}

func TestTypeReferencedButNotDefinedRejected(t *testing.T) {
	p := NewParser(nil)
	ok := p.Parse("info V { x: Missing; }")
	asserttest.To(t).For("ok").That(ok).Equals(false)
}

func TestForceAlignValidation(t *testing.T) {
	p := mustParseSchema(t, "struct P (Force_align: 16) { x: byte; }")
	sd, _ := p.structs.Lookup("P")
	asserttest.To(t).For("min align").That(sd.MinAlign).Equals(uint8(16))
	asserttest.To(t).For("byte size").That(sd.ByteSize).Equals(uint32(16))
}

func TestForceAlignNotPowerOfTwoRejected(t *testing.T) {
	p := NewParser(nil)
	ok := p.Parse("struct P (Force_align: 6) { x: byte; }")
	asserttest.To(t).For("ok").That(ok).Equals(false)
}

func TestForceAlignStringTypedValueRejected(t *testing.T) {
	p := NewParser(nil)
	ok := p.Parse(`struct P (Force_align: "16") { x: byte; }`)
	asserttest.To(t).For("ok").That(ok).Equals(false)
}

func TestNonFixedFieldTypeInFixedStructRejected(t *testing.T) {
	p := NewParser(nil)
	ok := p.Parse("info Info1 { v: int; } struct P { f: Info1; }")
	asserttest.To(t).For("ok").That(ok).Equals(false)
}

func TestDeprecatedFieldOnFixedStructRejected(t *testing.T) {
	p := NewParser(nil)
	ok := p.Parse("struct P { x: byte (deprecated); }")
	asserttest.To(t).For("ok").That(ok).Equals(false)
}

func TestAlreadyParsedGuard(t *testing.T) {
	p := NewParser(nil)
	p.Parse("info V { x: int; }")
	ok := p.Parse("info V { x: int; }")
	asserttest.To(t).For("ok").That(ok).Equals(false)
	asserttest.To(t).For("error").That(p.Error()).Equals(ErrAlreadyParsed.Error())
}
