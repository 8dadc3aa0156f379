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

// NodeID is a stable, append-only handle into a Tree's node arena.  Parent
// and child links are ids, not references, so the tree can be built and
// walked without any back-pointer bookkeeping.
type NodeID int

// NoNode is the invalid/absent NodeID.
const NoNode NodeID = -1

// Node is a single LNAST record: {type, token, children}.  Children are
// tracked via a first-child/next-sibling linked list over NodeIDs so that
// add_child is O(1) and insertion order is preserved without ever needing to
// shift or reorder an array.
type Node struct {
	Type  NodeType
	Token Token
	// Token.Text is the interned label for this node.  Anonymous internal
	// nodes carry NoToken (the zero StringHandle); for Ref/Const the label is
	// the node's identity.
	firstChild  NodeID
	lastChild   NodeID
	nextSibling NodeID
}

// Tree is a cursor-oriented, append-only LNAST builder.  It owns a string
// pool and a node arena; both are released together when the Tree is
// discarded.
type Tree struct {
	pool  *stringPool
	nodes []Node
	root  NodeID
}

// New constructs an empty LNAST.  Callers must SetRoot before the tree is
// usable by lowering or validation.
func New() *Tree {
	return &Tree{
		pool:  newStringPool(),
		nodes: nil,
		root:  NoNode,
	}
}

// AddString interns s, returning a stable handle valid for this Tree's
// lifetime.
func (t *Tree) AddString(s string) StringHandle {
	return t.pool.intern(s)
}

// String resolves a previously interned handle back to text.
func (t *Tree) String(h StringHandle) string {
	return t.pool.get(h)
}

// NewNode allocates a node of the given type/token with no children yet,
// returning its id.  The node is not attached to the tree until passed to
// AddChild or SetRoot.
func (t *Tree) NewNode(typ NodeType, tok Token) NodeID {
	id := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, Node{
		Type:        typ,
		Token:       tok,
		firstChild:  NoNode,
		lastChild:   NoNode,
		nextSibling: NoNode,
	})

	return id
}

// NewRef allocates a Ref leaf whose identity is the interned name.
func (t *Tree) NewRef(name string) NodeID {
	return t.NewNode(Ref, Token{Text: t.AddString(name)})
}

// NewConst allocates a Const leaf whose identity is the interned literal
// text.
func (t *Tree) NewConst(text string) NodeID {
	return t.NewNode(Const, Token{Text: t.AddString(text)})
}

// SetRoot installs node as the tree's root.  May only be called once.
func (t *Tree) SetRoot(node NodeID) {
	if t.root != NoNode {
		panic("lnast: SetRoot called twice")
	}

	t.root = node
}

// GetRoot returns the tree's root node, or NoNode if not yet set.
func (t *Tree) GetRoot() NodeID {
	return t.root
}

// AddChild appends node as the last child of parent, returning node
// unchanged (matching the source builder's "add_child returns the new
// node id" convention).  Children are never reordered once appended.
func (t *Tree) AddChild(parent, node NodeID) NodeID {
	p := &t.nodes[parent]

	if p.firstChild == NoNode {
		p.firstChild = node
	} else {
		t.nodes[p.lastChild].nextSibling = node
	}

	p.lastChild = node

	return node
}

// GetFirstChild returns the first child of parent, or NoNode if it has none.
func (t *Tree) GetFirstChild(parent NodeID) NodeID {
	return t.nodes[parent].firstChild
}

// GetSiblingNext returns the next sibling of node, or NoNode if node is the
// last child of its parent.
func (t *Tree) GetSiblingNext(node NodeID) NodeID {
	return t.nodes[node].nextSibling
}

// HasSingleChild reports whether parent has exactly one child.
func (t *Tree) HasSingleChild(parent NodeID) bool {
	first := t.nodes[parent].firstChild
	return first != NoNode && t.nodes[first].nextSibling == NoNode
}

// Children returns parent's children, in order. Unlike GetFirstChild/
// GetSiblingNext, this collects the child ids up-front into a plain slice
// so that callers may safely mutate the tree (e.g. append further children
// elsewhere) while ranging over a previously captured child list.
func (t *Tree) Children(parent NodeID) []NodeID {
	var children []NodeID

	for c := t.nodes[parent].firstChild; c != NoNode; c = t.nodes[c].nextSibling {
		children = append(children, c)
	}

	return children
}

// ChildCount returns the number of direct children of parent.
func (t *Tree) ChildCount(parent NodeID) int {
	n := 0
	for c := t.nodes[parent].firstChild; c != NoNode; c = t.nodes[c].nextSibling {
		n++
	}

	return n
}

// GetData returns the full node record for id.
func (t *Tree) GetData(id NodeID) Node {
	return t.nodes[id]
}

// GetType returns the node type of id.
func (t *Tree) GetType(id NodeID) NodeType {
	return t.nodes[id].Type
}

// GetName returns the interned textual identity of id (its token text).
func (t *Tree) GetName(id NodeID) string {
	return t.pool.get(t.nodes[id].Token.Text)
}
