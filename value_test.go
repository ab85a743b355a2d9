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
	"testing"

	"github.com/lineCode/Megrez/internal/asserttest"
)

func TestCheckBitsFit(t *testing.T) {
	for _, c := range []struct {
		name string
		val  int64
		bits uint
		fail bool
	}{
		{"fits unsigned 8", 200, 8, false},
		{"fits signed negative 8", -1, 8, false},
		{"overflow positive 8", 256, 8, true},
		{"overflow negative 8", -257, 8, true},
		{"always fits 64", math.MaxInt64, 64, false},
	} {
		err := checkBitsFit(c.val, c.bits)
		if c.fail {
			asserttest.To(t).For(c.name).That(err).IsNotNil()
		} else {
			asserttest.To(t).For(c.name).That(err).IsNil()
		}
	}
}

func TestScalarBitsFloat(t *testing.T) {
	bits, err := scalarBits(BaseTypeFloat, "1.5")
	asserttest.To(t).For("err").That(err).IsNil()
	asserttest.To(t).For("bits").That(bits).Equals(uint64(math.Float32bits(1.5)))
}

func TestScalarBitsDouble(t *testing.T) {
	bits, err := scalarBits(BaseTypeDouble, "2.5")
	asserttest.To(t).For("err").That(err).IsNil()
	asserttest.To(t).For("bits").That(bits).Equals(math.Float64bits(2.5))
}

func TestScalarBitsMaskedToWidth(t *testing.T) {
	bits, err := scalarBits(BaseTypeUChar, "255")
	asserttest.To(t).For("err").That(err).IsNil()
	asserttest.To(t).For("bits").That(bits).Equals(uint64(255))
}

func TestOffsetValueRejectsNegative(t *testing.T) {
	_, err := offsetValue("-1")
	asserttest.To(t).For("negative offset").That(err).IsNotNil()
}
