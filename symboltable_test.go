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

func TestSymbolTableAddAndLookup(t *testing.T) {
	s := newSymbolTable[int]()
	asserttest.To(t).For("first add").That(s.Add("a", 1)).Equals(true)
	asserttest.To(t).For("duplicate add").That(s.Add("a", 2)).Equals(false)

	v, ok := s.Lookup("a")
	asserttest.To(t).For("lookup ok").That(ok).Equals(true)
	asserttest.To(t).For("lookup value").That(v).Equals(1)

	_, ok = s.Lookup("missing")
	asserttest.To(t).For("missing lookup").That(ok).Equals(false)
}

func TestSymbolTableValuesPreservesOrder(t *testing.T) {
	s := newSymbolTable[string]()
	s.Add("c", "third-added-first-key")
	s.Add("a", "a-val")
	s.Add("b", "b-val")
	asserttest.To(t).For("order").That(s.Values()).DeepEquals([]string{"third-added-first-key", "a-val", "b-val"})
	asserttest.To(t).For("len").That(s.Len()).Equals(3)
}

func TestSymbolTableSetOverwritesInPlace(t *testing.T) {
	s := newSymbolTable[int]()
	s.Add("a", 1)
	s.Set("a", 99)
	v, _ := s.Lookup("a")
	asserttest.To(t).For("overwritten value").That(v).Equals(99)
	asserttest.To(t).For("len unchanged").That(s.Len()).Equals(1)
}

func TestSymbolTableMoveToTail(t *testing.T) {
	s := newSymbolTable[int]()
	s.Add("a", 1)
	s.Add("b", 2)
	s.Add("c", 3)
	s.MoveToTail("a")

	names := make([]int, 0, 3)
	for _, v := range s.Values() {
		names = append(names, v)
	}
	asserttest.To(t).For("reordered values").That(names).DeepEquals([]int{2, 3, 1})
}

func TestSymbolTableMoveToTailUnknownNameIsNoop(t *testing.T) {
	s := newSymbolTable[int]()
	s.Add("a", 1)
	s.MoveToTail("nonexistent")
	asserttest.To(t).For("unchanged order").That(s.Values()).DeepEquals([]int{1})
}
