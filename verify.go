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
	"encoding/binary"

	"github.com/pkg/errors"
)

// Verify re-derives the vtable of every non-fixed (info) object reachable
// from the finished root buffer and checks its slot count against the
// field count declared on the corresponding StructDef, following info
// references and union references the same way a reader would. Inline
// fixed structs and vectors carry no vtable and are not followed. It must be called only after a Parse that produced a
// root data literal; calling it on a schema-only parse returns an error.
func (p *Parser) Verify() error {
	buf := p.builder.Bytes()
	if p.mainStructRef == nil {
		return errors.New("megrez: no Main type declared, nothing to verify")
	}
	if len(buf) < 4 {
		return errors.New("megrez: no finished buffer to verify")
	}
	rootPos := readU32(buf, 0)
	return verifyInfo(buf, rootPos, p.mainStructRef, map[uint32]bool{})
}

func readU32(buf []byte, pos uint32) uint32 {
	return binary.LittleEndian.Uint32(buf[pos : pos+4])
}

func readI32(buf []byte, pos uint32) int32 {
	return int32(readU32(buf, pos))
}

func readU16(buf []byte, pos uint32) uint16 {
	return binary.LittleEndian.Uint16(buf[pos : pos+2])
}

// verifyInfo validates the vtable of the non-fixed object at pos and
// recurses into every field that itself points at another vtable-bearing
// object: a nested info, a union member, or (transitively) the elements
// of neither, since a vector's elements carry no per-element vtable slot
// of their own to re-derive. seen guards against an object graph that
// happens to alias the same position twice.
func verifyInfo(buf []byte, pos uint32, sd *StructDef, seen map[uint32]bool) error {
	if seen[pos] {
		return nil
	}
	seen[pos] = true

	if uint64(pos)+4 > uint64(len(buf)) {
		return errors.Errorf("megrez: object for %s at %d out of bounds", sd.Name, pos)
	}
	soffset := readI32(buf, pos)
	vtablePos := uint32(int64(pos) - int64(soffset))
	if uint64(vtablePos)+4 > uint64(len(buf)) {
		return errors.Errorf("megrez: vtable for %s at %d out of bounds", sd.Name, vtablePos)
	}

	vtableLen := readU16(buf, vtablePos)
	if vtableLen < 4 || vtableLen%2 != 0 {
		return errors.Errorf("megrez: %s: malformed vtable length %d", sd.Name, vtableLen)
	}
	numSlots := int((vtableLen - 4) / 2)
	want := sd.Fields.Len()
	if numSlots != want {
		return errors.Errorf("megrez: %s: vtable has %d slots, want %d", sd.Name, numSlots, want)
	}

	fields := sd.Fields.Values()
	for i, field := range fields {
		d, ok := slotValue(buf, vtablePos, vtableLen, i)
		if !ok || d == 0 {
			continue
		}
		fieldPos := pos + uint32(d)

		switch field.Value.Type.BaseType {
		case BaseTypeStruct:
			child := field.Value.Type.StructRef
			if child == nil || child.Fixed {
				continue
			}
			if err := followOffsetAndVerify(buf, fieldPos, child, seen); err != nil {
				return err
			}
		case BaseTypeUnion:
			if i == 0 {
				continue
			}
			tagField := fields[i-1]
			tagD, ok := slotValue(buf, vtablePos, vtableLen, i-1)
			if !ok || tagD == 0 {
				continue
			}
			tag := buf[pos+uint32(tagD)]
			ev := tagField.Value.Type.EnumRef.ReverseLookup(int64(tag))
			if ev == nil || ev.StructRef == nil {
				return errors.Errorf("megrez: %s: unknown union tag %d for %s", sd.Name, tag, field.Name)
			}
			if err := followOffsetAndVerify(buf, fieldPos, ev.StructRef, seen); err != nil {
				return err
			}
		}
	}
	return nil
}

func slotValue(buf []byte, vtablePos uint32, vtableLen uint16, slotIndex int) (uint16, bool) {
	slotPos := vtablePos + 4 + uint32(2*slotIndex)
	if uint32(4+2*slotIndex) >= uint32(vtableLen) || uint64(slotPos)+2 > uint64(len(buf)) {
		return 0, false
	}
	return readU16(buf, slotPos), true
}

func followOffsetAndVerify(buf []byte, fieldPos uint32, child *StructDef, seen map[uint32]bool) error {
	if uint64(fieldPos)+4 > uint64(len(buf)) {
		return errors.Errorf("megrez: field pointing at %s out of bounds", child.Name)
	}
	childPos := fieldPos + readU32(buf, fieldPos)
	return verifyInfo(buf, childPos, child, seen)
}
