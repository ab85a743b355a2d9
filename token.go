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

// token identifies the kind of lexeme the Lexer last produced.
//
// Single-character punctuation tokens reuse the ASCII code of the
// character itself, exactly like the original: '{', '}', '(', ')', '[',
// ']', ',', ':', ';', '=', '.' are all valid token values. Every other
// kind of token uses a negative sentinel so it can never collide with a
// punctuation rune.
type token int

const (
	tokEOF token = -1 - iota
	tokStringConstant
	tokIntegerConstant
	tokFloatConstant
	tokIdentifier
	tokInfo
	tokStruct
	tokEnum
	tokUnion
	tokNamespace
	tokMainType
	tokBaseType // a keyword naming a BaseType; see lexer.typeTok
)

var declKeywords = map[string]token{
	"info":      tokInfo,
	"struct":    tokStruct,
	"enum":      tokEnum,
	"union":     tokUnion,
	"namespace": tokNamespace,
	"Main":      tokMainType,
}

// String gives a human-readable name for a token, used in "Expecting: ..."
// error messages.
func (t token) String() string {
	switch t {
	case tokEOF:
		return "end of file"
	case tokStringConstant:
		return "string constant"
	case tokIntegerConstant:
		return "integer constant"
	case tokFloatConstant:
		return "float constant"
	case tokIdentifier:
		return "identifier"
	case tokInfo:
		return "info"
	case tokStruct:
		return "struct"
	case tokEnum:
		return "enum"
	case tokUnion:
		return "union"
	case tokNamespace:
		return "namespace"
	case tokMainType:
		return "Main"
	case tokBaseType:
		return "type name"
	default:
		if t >= 0 && t < 256 {
			return string(rune(t))
		}
		return "?"
	}
}
