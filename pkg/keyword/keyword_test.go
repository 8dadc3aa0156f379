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
package keyword

import "testing"

func TestLookup_KnownWords(t *testing.T) {
	cases := map[string]ID{
		"if":        If,
		"when":      When,
		"as":        As,
		"and":       LogicAnd,
		"intersect": RangeSetOp,
		"union":     RangeSetOp,
		"waitfor":   Waitfor,
	}

	for word, want := range cases {
		got, ok := Lookup(word)
		if !ok {
			t.Errorf("%q: expected a keyword match", word)
		}

		if got != want {
			t.Errorf("%q: got %v, want %v", word, got, want)
		}
	}
}

func TestIntersectUnionShareID(t *testing.T) {
	i, _ := Lookup("intersect")
	u, _ := Lookup("union")

	if i != u {
		t.Fatalf("intersect (%v) and union (%v) must alias the same id", i, u)
	}
}

func TestLookup_NotAKeyword(t *testing.T) {
	if IsKeyword("foobar") {
		t.Fatal("foobar should not be a keyword")
	}

	if _, ok := Lookup("foobar"); ok {
		t.Fatal("expected ok=false for non-keyword")
	}
}
