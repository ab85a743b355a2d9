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

// Package megrez implements the core of a FlatBuffers-style schema
// compiler and binary data encoder.
//
// It tokenizes and parses a schema-and-data text into an in-memory symbol
// table of struct and enum definitions, and serializes any data literal
// found in that text into a self-describing, offset-based binary buffer
// using the Builder type. Parsing and building are coupled: parsing a
// nested data literal drives the Builder's stack, which in turn requires
// reverse-order emission, alignment padding and deferred struct
// serialization through a side buffer.
//
// Code generation, command line handling, and file I/O are deliberately
// not part of this package; it is a pure text-in, byte-buffer-out library.
package megrez
