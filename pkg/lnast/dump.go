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

// DumpNode is a JSON-friendly rendering of one Node: its type name, resolved
// token text (already pulled out of the string pool), and its children's
// positions in the same Dump's Nodes array.
type DumpNode struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	Children []int  `json:"children,omitempty"`
}

// Dump is a self-contained, debug-only external rendering of a Tree: no
// handles or pool indirection survive it, so it can be serialized and read
// back by a reader with no knowledge of this package's internals.
type Dump struct {
	Root  int        `json:"root"`
	Nodes []DumpNode `json:"nodes"`
}

// Dump materializes t as a Dump for external inspection (the --dump-json
// debug surface). Every node of the arena is included, and a node's position
// in Nodes (and hence every child index and Root) equals its NodeID, since
// the arena is a dense slice indexed by NodeID.
func (t *Tree) Dump() Dump {
	nodes := make([]DumpNode, len(t.nodes))

	for id, n := range t.nodes {
		dn := DumpNode{Type: n.Type.String()}

		if n.Type.IsLeaf() || n.Type == Top || n.Type == FuncCall {
			dn.Text = t.pool.get(n.Token.Text)
		}

		for c := n.firstChild; c != NoNode; c = t.nodes[c].nextSibling {
			dn.Children = append(dn.Children, int(c))
		}

		nodes[id] = dn
	}

	return Dump{Root: int(t.root), Nodes: nodes}
}
