// Copyright Consensys Software Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

// Package keyword holds the reserved-word classification handed to the
// Pyrope scanner, an external collaborator that tokenizes source text before
// it ever reaches this module's LNAST/RTL types. Nothing in this repository
// consumes the table itself; it exists purely as the published token-id
// contract the scanner keys off of.
package keyword

// ID identifies a reserved-word category. A single ID may be shared by more
// than one spelling (see Union/Intersect).
type ID uint8

const (
	// Invalid is the zero value: not a keyword.
	Invalid ID = iota

	// --- control ---
	If
	Else
	Elif
	For
	While
	Return
	Unique
	When

	// --- types ---
	As
	Is

	// --- logic ---
	LogicAnd
	LogicOr
	LogicNot

	// --- range ---
	RangeSetOp // shared by "intersect" and "union"
	Until
	In
	By

	// --- debug ---
	DebugI
	DebugN
	Yield
	Waitfor
)

//nolint:gocyclo
func (id ID) String() string {
	switch id {
	case If:
		return "if"
	case Else:
		return "else"
	case Elif:
		return "elif"
	case For:
		return "for"
	case While:
		return "while"
	case Return:
		return "return"
	case Unique:
		return "unique"
	case When:
		return "when"
	case As:
		return "as"
	case Is:
		return "is"
	case LogicAnd:
		return "and"
	case LogicOr:
		return "or"
	case LogicNot:
		return "not"
	case RangeSetOp:
		return "intersect/union"
	case Until:
		return "until"
	case In:
		return "in"
	case By:
		return "by"
	case DebugI:
		return "I"
	case DebugN:
		return "N"
	case Yield:
		return "yield"
	case Waitfor:
		return "waitfor"
	default:
		return "invalid"
	}
}

// table is the fixed string -> token-id map. intersect and union are
// deliberately aliased to the same id: they are source-level synonyms as far
// as the scanner is concerned.
var table = map[string]ID{
	"if":     If,
	"else":   Else,
	"elif":   Elif,
	"for":    For,
	"while":  While,
	"return": Return,
	"unique": Unique,
	"when":   When,

	"as": As,
	"is": Is,

	"and": LogicAnd,
	"or":  LogicOr,
	"not": LogicNot,

	"intersect": RangeSetOp,
	"union":     RangeSetOp,
	"until":     Until,
	"in":        In,
	"by":        By,

	"I":       DebugI,
	"N":       DebugN,
	"yield":   Yield,
	"waitfor": Waitfor,
}

// Lookup classifies word, reporting ok=false for any identifier that is not
// a reserved word.
func Lookup(word string) (ID, bool) {
	id, ok := table[word]
	return id, ok
}

// IsKeyword reports whether word is reserved.
func IsKeyword(word string) bool {
	_, ok := table[word]
	return ok
}
