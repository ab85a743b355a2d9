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
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/tidwall/pretty"
)

// Dump is a JSON-renderable snapshot of every struct and enum a Parser
// has registered. It is read-only introspection: nothing under this type
// feeds back into Parse.
type Dump struct {
	Structs []DumpStruct `json:"structs"`
	Enums   []DumpEnum   `json:"enums"`
}

// DumpField is one field of a DumpStruct.
type DumpField struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	Offset     uint16 `json:"offset"`
	Padding    uint8  `json:"padding,omitempty"`
	Deprecated bool   `json:"deprecated,omitempty"`
	Default    string `json:"default,omitempty"`
}

// DumpStruct is one declared struct or info.
type DumpStruct struct {
	Name     string      `json:"name"`
	Fixed    bool        `json:"fixed"`
	ByteSize uint32      `json:"byte_size,omitempty"`
	MinAlign uint8       `json:"min_align"`
	Fields   []DumpField `json:"fields"`
}

// DumpEnumVal is one member of a DumpEnum.
type DumpEnumVal struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
}

// DumpEnum is one declared enum or union.
type DumpEnum struct {
	Name           string        `json:"name"`
	Union          bool          `json:"union,omitempty"`
	UnderlyingType string        `json:"underlying_type"`
	Values         []DumpEnumVal `json:"values"`
}

// NewDump walks p's struct and enum registries into a Dump. It should
// only be called after a successful Parse; a schema-only parse (no root
// data literal) is still a perfectly good Dump target.
func NewDump(p *Parser) *Dump {
	d := &Dump{}
	for _, sd := range p.structs.Values() {
		d.Structs = append(d.Structs, dumpStruct(sd))
	}
	for _, ed := range p.enums.Values() {
		d.Enums = append(d.Enums, dumpEnum(ed))
	}
	return d
}

func dumpStruct(sd *StructDef) DumpStruct {
	ds := DumpStruct{Name: sd.Name, Fixed: sd.Fixed, MinAlign: sd.MinAlign}
	if sd.Fixed {
		ds.ByteSize = sd.ByteSize
	}
	for _, f := range sd.Fields.Values() {
		ds.Fields = append(ds.Fields, DumpField{
			Name:       f.Name,
			Type:       fieldTypeName(f.Value.Type),
			Offset:     f.Value.Offset,
			Padding:    f.Padding,
			Deprecated: f.Deprecated,
			Default:    f.Value.Constant,
		})
	}
	return ds
}

func fieldTypeName(t Type) string {
	switch {
	case t.BaseType == BaseTypeVector:
		return "[" + fieldTypeName(t.VectorElementType()) + "]"
	case t.BaseType == BaseTypeStruct && t.StructRef != nil:
		return t.StructRef.Name
	case t.BaseType == BaseTypeUnion && t.EnumRef != nil:
		return t.EnumRef.Name
	default:
		return t.BaseType.String()
	}
}

func dumpEnum(ed *EnumDef) DumpEnum {
	de := DumpEnum{Name: ed.Name, Union: ed.IsUnion, UnderlyingType: ed.UnderlyingType.BaseType.String()}
	for _, ev := range ed.Vals.Values() {
		de.Values = append(de.Values, DumpEnumVal{Name: ev.Name, Value: ev.Value})
	}
	return de
}

// JSON renders d as deterministically indented JSON.
func (d *Dump) JSON() ([]byte, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return nil, errors.Wrap(err, "megrez: marshaling dump")
	}
	return pretty.Pretty(raw), nil
}
