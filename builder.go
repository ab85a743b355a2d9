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

// Builder is an append-only binary construction buffer. It is built from
// high addresses downward: every write prepends bytes to the front of the
// buffer, so anything already in it only ever moves to higher addresses as
// construction continues. That single invariant is what lets Size(),
// sampled at the moment a value finishes being written, serve forever
// after as that value's distance from the buffer's eventual end -- which
// is exactly the quantity every relative offset in the format is measured
// against.
type Builder struct {
	buf      []byte
	minalign uint8
	vtables  []vtable
	stack    []*objectFrame
}

type vtable struct {
	bytes []byte
	d     uint32 // Size() recorded right after this vtable was written
}

type frameKind int

const (
	frameInfo frameKind = iota
	frameStruct
)

// objectFrame tracks one in-flight StartInfo/StartStruct..EndInfo/EndStruct
// span. Frames nest: serializing a nested info or union member inside a
// field pushes and fully pops its own frame before the outer emission loop
// resumes.
type objectFrame struct {
	kind     frameKind
	objStart uint32
	entries  map[uint16]uint32 // vtable slot -> Size() right after that field was written; info frames only
}

// NewBuilder returns an empty Builder ready for a single top-level data
// literal.
func NewBuilder() *Builder {
	return &Builder{minalign: 1}
}

// Size returns the number of bytes written so far, which doubles as every
// already-written value's distance from the eventual end of the buffer.
func (b *Builder) Size() uint32 { return uint32(len(b.buf)) }

// Bytes returns the buffer's current contents. Before Finish is called
// this is a suffix of the eventual output, not the whole thing.
func (b *Builder) Bytes() []byte { return b.buf }

func (b *Builder) prepend(p []byte) {
	grown := make([]byte, len(p)+len(b.buf))
	copy(grown, p)
	copy(grown[len(p):], b.buf)
	b.buf = grown
}

// Align pads with zero bytes so the next write lands on an n-byte boundary
// relative to the buffer's eventual end: since Size() already equals that
// distance, it is simply Size() itself that must become a multiple of n.
func (b *Builder) Align(n uint8) {
	if n == 0 {
		return
	}
	if n > b.minalign {
		b.minalign = n
	}
	a := uint32(n)
	if pad := (a - b.Size()%a) % a; pad > 0 {
		b.prepend(make([]byte, pad))
	}
}

// preAlign is Align's counterpart for a write that will only happen after
// `future` more bytes land first (a vector or string body): it pads now so
// that once those bytes are in place, the *next* write after them (the
// length or count prefix) needs no further padding of its own. Without
// this, a trailing length field would open a gap between itself and the
// body it prefixes.
func (b *Builder) preAlign(future uint32, n uint8) {
	if n <= 1 {
		return
	}
	if n > b.minalign {
		b.minalign = n
	}
	a := uint32(n)
	if pad := (a - (b.Size()+future)%a) % a; pad > 0 {
		b.prepend(make([]byte, pad))
	}
}

// Pad writes n raw zero bytes, used for the static inter-field padding
// FieldDef.Padding records at declaration time.
func (b *Builder) Pad(n uint8) {
	if n > 0 {
		b.prepend(make([]byte, n))
	}
}

// PushBytes writes p verbatim. It is used directly by SerializeStruct to
// inline an already-built nested struct's bytes.
func (b *Builder) PushBytes(p []byte) { b.prepend(p) }

// PopBytes removes and returns the n most recently written bytes. It is
// used when a fixed struct finishes: its bytes are lifted off the builder
// into the parser's struct_stack side buffer, to be spliced inline into
// the parent object later.
func (b *Builder) PopBytes(n uint32) []byte {
	out := append([]byte(nil), b.buf[:n]...)
	b.buf = b.buf[n:]
	return out
}

func (b *Builder) pushElementBits(bits uint64, size uint32) {
	b.Align(uint8(size))
	buf := make([]byte, size)
	for i := uint32(0); i < size; i++ {
		buf[i] = byte(bits >> (8 * i))
	}
	b.prepend(buf)
}

// PushElement writes a single scalar value, little-endian, after aligning
// to its own size. It is used for vector elements, which carry no default
// and so are never omitted.
func (b *Builder) PushElement(bits uint64, size uint32) {
	b.pushElementBits(bits, size)
}

// relativeOffset computes the 32-bit value that, once written at the
// position the next push will occupy, lets a reader find target: the
// distance from the offset word itself (whose own Size()-after-write is
// Size()-now plus 4) back to target's own recorded distance.
func (b *Builder) relativeOffset(target uint32) uint32 {
	b.Align(4)
	return b.Size() - target + 4
}

func (b *Builder) pushOffset(target uint32) {
	rel := b.relativeOffset(target)
	b.pushElementBits(uint64(rel), 4)
}

func (b *Builder) topFrame() *objectFrame {
	return b.stack[len(b.stack)-1]
}

// StartInfo begins a variable-layout (vtable-addressed) object.
func (b *Builder) StartInfo() uint32 {
	f := &objectFrame{kind: frameInfo, objStart: b.Size(), entries: map[uint16]uint32{}}
	b.stack = append(b.stack, f)
	return f.objStart
}

// StartStruct begins a fixed-layout object inlined at minalign.
func (b *Builder) StartStruct(minalign uint8) uint32 {
	b.Align(minalign)
	f := &objectFrame{kind: frameStruct, objStart: b.Size()}
	b.stack = append(b.stack, f)
	return f.objStart
}

// AddElement writes a scalar field. Inside an info frame, a value equal to
// its default is omitted entirely (the vtable slot is left recording 0);
// inside a struct frame every field is mandatory and always written.
func (b *Builder) AddElement(slot uint16, value, deflt uint64, size uint32) {
	f := b.topFrame()
	if f.kind == frameStruct {
		b.pushElementBits(value, size)
		return
	}
	if value == deflt {
		return
	}
	b.pushElementBits(value, size)
	f.entries[slot] = b.Size()
}

// AddOffset writes a relative offset field pointing at target. Pointer
// fields are only ever emitted when the parser actually pushed one (an
// absent table field never reaches this call at all), so there is no
// default to compare against.
func (b *Builder) AddOffset(slot uint16, target uint32) {
	b.pushOffset(target)
	if f := b.topFrame(); f.kind == frameInfo {
		f.entries[slot] = b.Size()
	}
}

// AddStructOffset records the vtable slot for a nested struct field whose
// bytes were already written in place by a prior PushBytes call; unlike
// AddOffset it writes nothing of its own.
func (b *Builder) AddStructOffset(slot uint16) {
	if f := b.topFrame(); f.kind == frameInfo {
		f.entries[slot] = b.Size()
	}
}

// EndStruct closes a StartStruct frame. Struct byte layout and trailing
// padding were already fixed at declaration time (StructDef.padLastField),
// so there is nothing left to finalize here.
func (b *Builder) EndStruct() {
	b.stack = b.stack[:len(b.stack)-1]
}

// EndInfo closes a StartInfo frame, computing, deduplicating and writing
// its vtable, and returns the object's offset (the Size() at which its own
// header -- the backward pointer to the vtable -- finished writing).
func (b *Builder) EndInfo(numFields int) uint32 {
	f := b.stack[len(b.stack)-1]
	b.stack = b.stack[:len(b.stack)-1]

	b.Align(4)
	sizeAfterFields := b.Size()

	entries := make([]uint16, numFields)
	for slot, markD := range f.entries {
		idx := (slot - 4) / 2 // invert fieldIndexToOffset: slot == (fieldIndex+2)*2
		entries[idx] = uint16(sizeAfterFields + 4 - markD)
	}
	objectSize := uint16(sizeAfterFields - f.objStart + 4)
	vt := encodeVTable(entries, objectSize)

	headerD := sizeAfterFields + 4
	if existing, ok := b.findVTable(vt); ok {
		soffset := int32(existing) - int32(headerD)
		b.pushElementBits(uint64(uint32(soffset)), 4)
	} else {
		soffset := int32(len(vt))
		b.pushElementBits(uint64(uint32(soffset)), 4)
		b.prepend(vt)
		b.vtables = append(b.vtables, vtable{bytes: vt, d: b.Size()})
	}
	return headerD
}

func (b *Builder) findVTable(candidate []byte) (uint32, bool) {
	for _, vt := range b.vtables {
		if bytesEqual(vt.bytes, candidate) {
			return vt.d, true
		}
	}
	return 0, false
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func encodeVTable(entries []uint16, objectSize uint16) []byte {
	vtableLen := uint16(4 + 2*len(entries))
	buf := make([]byte, vtableLen)
	putU16(buf[0:2], vtableLen)
	putU16(buf[2:4], objectSize)
	for i, e := range entries {
		putU16(buf[4+2*i:6+2*i], e)
	}
	return buf
}

func putU16(b []byte, v uint16) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
}

// StartVector pre-aligns the buffer so that, once elemCount elements of
// elemSize bytes each are pushed (the caller does so directly, via
// PushElement or PushBytes), the count prefix EndVector writes lands
// immediately adjacent to them with no gap.
func (b *Builder) StartVector(elemCount int, elemSize uint32, elemAlignment uint8) {
	total := uint32(elemCount) * elemSize
	align := elemAlignment
	if align < 4 {
		align = 4
	}
	b.preAlign(total, align)
	b.preAlign(total, elemAlignment)
}

// EndVector writes the element count prefix and returns the vector's
// offset.
func (b *Builder) EndVector(count int) uint32 {
	b.pushElementBits(uint64(uint32(count)), 4)
	return b.Size()
}

// CreateString writes s as a length-prefixed, null-terminated byte vector;
// the null terminator is not counted in the recorded length.
func (b *Builder) CreateString(s string) uint32 {
	data := append([]byte(s), 0)
	b.preAlign(uint32(len(data)), 4)
	b.prepend(data)
	b.pushElementBits(uint64(uint32(len(s))), 4)
	return b.Size()
}

// Finish aligns to the buffer's maximum alignment and writes the 32-bit
// root offset, completing the buffer.
func (b *Builder) Finish(rootOffset uint32) {
	b.Align(b.minalign)
	b.pushOffset(rootOffset)
}
