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
	"testing"

	"github.com/lineCode/Megrez/internal/asserttest"
)

func TestDumpStructsAndEnums(t *testing.T) {
	p := mustParseSchema(t, `
		struct Point { x: int; y: int; }
		info Thing { v: int; }
		union Item { Thing }
		info Holder { p: Point; tag: Item; }
	`)
	d := NewDump(p)

	asserttest.To(t).For("struct count").That(len(d.Structs)).Equals(3)
	asserttest.To(t).For("enum count").That(len(d.Enums)).Equals(1)

	var point, holder *DumpStruct
	for i := range d.Structs {
		switch d.Structs[i].Name {
		case "Point":
			point = &d.Structs[i]
		case "Holder":
			holder = &d.Structs[i]
		}
	}
	asserttest.To(t).For("point found").That(point).IsNotNil()
	asserttest.To(t).For("point fixed").That(point.Fixed).Equals(true)
	asserttest.To(t).For("point byte size").That(point.ByteSize).Equals(uint32(8))
	asserttest.To(t).For("point field count").That(len(point.Fields)).Equals(2)

	asserttest.To(t).For("holder found").That(holder).IsNotNil()
	asserttest.To(t).For("holder fixed").That(holder.Fixed).Equals(false)
	asserttest.To(t).For("holder field count").That(len(holder.Fields)).Equals(3)
	asserttest.To(t).For("tag_type name").That(holder.Fields[1].Name).Equals("tag_type")
	asserttest.To(t).For("tag name").That(holder.Fields[2].Name).Equals("tag")
	asserttest.To(t).For("tag type name").That(holder.Fields[2].Type).Equals("Item")

	enum := d.Enums[0]
	asserttest.To(t).For("enum name").That(enum.Name).Equals("Item")
	asserttest.To(t).For("enum union").That(enum.Union).Equals(true)
	asserttest.To(t).For("enum values").That(len(enum.Values)).Equals(2)
	asserttest.To(t).For("enum NONE").That(enum.Values[0].Name).Equals("NONE")
	asserttest.To(t).For("enum NONE value").That(enum.Values[0].Value).Equals(int64(0))
}

func TestDumpFieldTypeNameForVector(t *testing.T) {
	p := mustParseSchema(t, `info V { xs: [int]; }`)
	d := NewDump(p)
	field := d.Structs[0].Fields[0]
	asserttest.To(t).For("vector type name").That(field.Type).Equals("[int]")
}

func TestDumpJSONRoundTrips(t *testing.T) {
	p := mustParseSchema(t, `struct Point { x: int; y: int; }`)
	d := NewDump(p)
	raw, err := d.JSON()
	asserttest.To(t).For("marshal error").That(err).IsNil()

	var decoded map[string]interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("dump JSON did not parse: %v", err)
	}
	structs, ok := decoded["structs"].([]interface{})
	asserttest.To(t).For("structs key present").That(ok).Equals(true)
	asserttest.To(t).For("structs length").That(len(structs)).Equals(1)
}
