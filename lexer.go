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

import "strings"

// lexer is a single-token-lookahead, character-cursor tokenizer over a
// fully materialized source string. Every schema-and-data file is small
// enough to live entirely in memory, so, like the original, there is no
// streaming reader underneath.
type lexer struct {
	source []byte
	pos    int
	line   int

	token      token
	attribute  string  // lexeme text for identifiers and constants
	typeTok    BaseType // valid when token == tokBaseType
	docComment string
}

func newLexer(source string) *lexer {
	l := &lexer{source: []byte(source), line: 1}
	l.advance()
	return l
}

func (l *lexer) peek() byte {
	if l.pos >= len(l.source) {
		return 0
	}
	return l.source[l.pos]
}

func (l *lexer) next() byte {
	c := l.peek()
	if l.pos < len(l.source) {
		l.pos++
	}
	return c
}

// advance scans the next token into l.token/l.attribute/l.typeTok, updating
// l.line as newlines are consumed. It panics (via fail) on any lexical
// error; callers run under Parser.Parse's top-level recover.
func (l *lexer) advance() {
	l.docComment = ""
	// The start of the input counts as the start of a line.
	seenNewline := l.pos == 0
	for {
		if l.pos >= len(l.source) {
			l.token = tokEOF
			return
		}
		c := l.next()
		switch c {
		case ' ', '\r', '\t':
			continue
		case '\n':
			l.line++
			seenNewline = true
			continue
		case '{', '}', '(', ')', '[', ']', ',', ':', ';', '=':
			l.token = token(c)
			return
		case '.':
			if !isDigit(l.peek()) {
				l.token = token(c)
				return
			}
			fail(l.line, "Floating point constant can't start with '.'")
		case '"':
			l.scanString()
			return
		case '/':
			if l.peek() == '/' {
				l.pos++
				start := l.pos
				for l.pos < len(l.source) && l.source[l.pos] != '\n' {
					l.pos++
				}
				if start < len(l.source) && l.source[start] == '/' {
					if !seenNewline {
						fail(l.line, "A documentation comment should be on a line on its own")
					}
					l.docComment += string(l.source[start+1 : l.pos])
				}
				continue
			}
			fail(l.line, "Illegal character: /")
		default:
			if isAlpha(c) {
				l.scanIdentifier()
				return
			}
			if isDigit(c) || c == '-' {
				l.scanNumber()
				return
			}
			if c < ' ' || c > '~' {
				fail(l.line, "Illegal character: code: %d", c)
			}
			fail(l.line, "Illegal character: %c", c)
		}
	}
}

func (l *lexer) scanString() {
	var b strings.Builder
	for {
		if l.pos >= len(l.source) {
			fail(l.line, "Unterminated string constant")
		}
		c := l.source[l.pos]
		if c == '"' {
			l.pos++
			break
		}
		if c < ' ' {
			fail(l.line, "Illegal character in string constant")
		}
		if c == '\\' {
			l.pos++
			if l.pos >= len(l.source) {
				fail(l.line, "Unterminated string constant")
			}
			switch l.source[l.pos] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case '"':
				b.WriteByte('"')
			case '\\':
				b.WriteByte('\\')
			default:
				fail(l.line, "Unknown escape code in string constant")
			}
			l.pos++
			continue
		}
		b.WriteByte(c)
		l.pos++
	}
	l.attribute = b.String()
	l.token = tokStringConstant
}

func (l *lexer) scanIdentifier() {
	start := l.pos - 1
	for isAlpha(l.peek()) || isDigit(l.peek()) || l.peek() == '_' {
		l.pos++
	}
	l.attribute = string(l.source[start:l.pos])

	if l.attribute == "true" || l.attribute == "false" {
		if l.attribute == "true" {
			l.attribute = "1"
		} else {
			l.attribute = "0"
		}
		l.token = tokIntegerConstant
		return
	}
	if bt, ok := keywordTypes[l.attribute]; ok {
		l.token = tokBaseType
		l.typeTok = bt
		return
	}
	if kw, ok := declKeywords[l.attribute]; ok {
		l.token = kw
		return
	}
	l.token = tokIdentifier
}

func (l *lexer) scanNumber() {
	start := l.pos - 1
	for isDigit(l.peek()) {
		l.pos++
	}
	if l.peek() == '.' {
		l.pos++
		for isDigit(l.peek()) {
			l.pos++
		}
		l.token = tokFloatConstant
	} else {
		l.token = tokIntegerConstant
	}
	l.attribute = string(l.source[start:l.pos])
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
