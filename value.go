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
	"math"
	"strconv"

	"github.com/pkg/errors"
)

// Value is a typed scalar constant: a field's default or an actual field
// value parsed out of a data literal, or a metadata attribute value. Its
// Offset field is the owning field's vtable slot (in an info) or its byte
// offset within a fixed struct, fixed when the field is declared.
type Value struct {
	Type     Type
	Constant string
	Offset   uint16
}

func newValue(t Type) Value {
	return Value{Type: t, Constant: "0"}
}

// checkBitsFit mirrors the original's CheckBitsFit: it fails unless val's
// significant bits all fit within the low `bits` bits, once sign-extended.
func checkBitsFit(val int64, bits uint) error {
	if bits >= 64 {
		return nil
	}
	mask := int64(1)<<bits - 1
	if (val&^mask) != 0 && (val|mask) != -1 {
		return errors.Errorf("constant does not fit in a %d-bit field", bits)
	}
	return nil
}

// parseIntConstant parses a decimal integer constant (optionally prefixed
// with '-', per the lexer's IntegerConstant grammar) and range-checks it
// against bitWidth.
func parseIntConstant(s string, bitWidth uint) (int64, error) {
	val, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "malformed integer constant %q", s)
	}
	if err := checkBitsFit(val, bitWidth); err != nil {
		return 0, err
	}
	return val, nil
}

// scalarBits converts constant into the raw little-endian-ready bit
// pattern for base type bt, masked to bt's byte width. It is the Go
// replacement for the original's templated atot<CTYPE>, dispatched at
// runtime on BaseType instead of at compile time on a C++ template
// parameter.
func scalarBits(bt BaseType, constant string) (uint64, error) {
	switch bt {
	case BaseTypeFloat:
		f, err := strconv.ParseFloat(constant, 32)
		if err != nil {
			return 0, errors.Wrapf(err, "malformed float constant %q", constant)
		}
		return uint64(math.Float32bits(float32(f))), nil
	case BaseTypeDouble:
		f, err := strconv.ParseFloat(constant, 64)
		if err != nil {
			return 0, errors.Wrapf(err, "malformed float constant %q", constant)
		}
		return math.Float64bits(f), nil
	default:
		bits := uint(bt.Size()) * 8
		if bits == 0 {
			bits = 64
		}
		val, err := parseIntConstant(constant, bits)
		if err != nil {
			return 0, err
		}
		if bits >= 64 {
			return uint64(val), nil
		}
		return uint64(val) & (uint64(1)<<bits - 1), nil
	}
}

// offsetValue parses a non-negative offset constant, as stored on a
// pointer-like Value (the result of CreateString, parseInfo or
// parseVector). These never go through scalarBits: they are plain 32-bit
// unsigned positions, not sign-extended scalars.
func offsetValue(constant string) (uint32, error) {
	val, err := strconv.ParseUint(constant, 10, 32)
	if err != nil {
		return 0, errors.Wrapf(err, "malformed offset constant %q", constant)
	}
	return uint32(val), nil
}
