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
package lnast

// Token carries a node's source position and interned text.  Leaf nodes
// (Ref, Const) derive their textual identity from the token supplied at
// creation; non-leaf tokens may be the zero Token when no position
// information is available (e.g. compiler-synthesized structural nodes).
type Token struct {
	// Line is the 1-indexed source line, or 0 if unknown.
	Line int
	// Col is the 0-indexed column within Line.
	Col int
	// Offset is the byte offset within the source file.
	Offset int
	// Length is the number of bytes this token spans.
	Length int
	// Text is the interned handle for this token's textual content.
	Text StringHandle
}

// NoToken is the zero Token, used for structural nodes synthesized by the
// lowering engine rather than copied from source.
var NoToken = Token{}
