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
package lower

import (
	"fmt"
	"strconv"

	"github.com/openhdl/lnast-core/pkg/lnast"
	"github.com/openhdl/lnast-core/pkg/rtl"
)

// lowerOperand lowers expr to a single ref/const leaf node usable directly
// as a func_call/assign operand, emitting whatever helper statements it
// needs into parent first.
func (e *Engine) lowerOperand(tree *lnast.Tree, st *moduleState, parent lnast.NodeID, expr rtl.Expr) lnast.NodeID {
	switch v := expr.(type) {
	case rtl.Reference:
		return tree.NewRef(st.resolveRef(v.Id, false))
	case rtl.UIntLiteral:
		return tree.NewConst(v.Value.Render())
	case rtl.SIntLiteral:
		return tree.NewConst(v.Value.Render())
	case rtl.SubField, rtl.SubIndex, rtl.SubAccess:
		return tree.NewRef(e.handleBundVecAcc(tree, st, parent, expr, true))
	case rtl.PrimOp:
		tmp := st.newTemp()
		e.emitPrimOp(tree, st, parent, tmp, v)

		return tree.NewRef(tmp)
	case rtl.Mux:
		tmp := st.newTemp()
		e.emitMux(tree, st, parent, tmp, v)

		return tree.NewRef(tmp)
	case rtl.ValidIf:
		tmp := st.newTemp()
		e.emitValidIf(tree, st, parent, tmp, v)

		return tree.NewRef(tmp)
	default:
		panic(fmt.Sprintf("lower: unhandled expression type %T", expr))
	}
}

// emitExprTo lowers rhs as the driver of lhsName.  A compound expression
// (PrimOp, Mux, ValidIf) writes lhsName directly as its own result, rather
// than going through an intermediate temp and a separate assign (§4.5.4,
// §4.5.5: the worked adder/mux scenarios never show a redundant assign).
func (e *Engine) emitExprTo(tree *lnast.Tree, st *moduleState, parent lnast.NodeID, lhsName string, rhs rtl.Expr) {
	switch v := rhs.(type) {
	case rtl.PrimOp:
		e.emitPrimOp(tree, st, parent, lhsName, v)
	case rtl.Mux:
		e.emitMux(tree, st, parent, lhsName, v)
	case rtl.ValidIf:
		e.emitValidIf(tree, st, parent, lhsName, v)
	default:
		emitAssign(tree, parent, lhsName, e.lowerOperand(tree, st, parent, rhs))
	}
}

// emitPrimOp rewrites a PrimOp into a func_call whose callee is the op's
// canonical "__fir_*" name, with resultName as the first child followed by
// its lowered operands and then any static immediates (§4.5.4).
func (e *Engine) emitPrimOp(tree *lnast.Tree, st *moduleState, parent lnast.NodeID, resultName string, op rtl.PrimOp) {
	fc := tree.NewNode(lnast.FuncCall, lnast.Token{Text: tree.AddString(op.Op.FirName())})
	tree.AddChild(fc, tree.NewRef(resultName))

	for _, a := range op.Args {
		tree.AddChild(fc, e.lowerOperand(tree, st, parent, a))
	}

	for _, c := range op.Constants {
		tree.AddChild(fc, tree.NewConst(strconv.FormatInt(c, 10)))
	}

	tree.AddChild(parent, fc)
}

// emitMux lowers Mux(cond, t, f) assigned to lhsName per §4.5.5: a
// don't-care pre-assignment, then an if/else that assigns lhsName from the
// true/false value in each branch respectively.
func (e *Engine) emitMux(tree *lnast.Tree, st *moduleState, parent lnast.NodeID, lhsName string, mux rtl.Mux) {
	emitAssign(tree, parent, lhsName, tree.NewConst("0b?"))

	ifNode, thenStmts := e.newIf(tree, st, parent, mux.Cond)
	e.emitExprTo(tree, st, thenStmts, lhsName, mux.TrueValue)

	elseStmts := addElse(tree, ifNode)
	e.emitExprTo(tree, st, elseStmts, lhsName, mux.FalseValue)

	tree.AddChild(parent, ifNode)
}

// emitValidIf lowers ValidIf(cond, v) assigned to lhsName per §4.5.5: an
// unconditional pre-assignment of v (so downstream passes see a defined
// default), then a re-assignment of v inside a then-only if guarded by
// cond. This intentionally emits v twice; see the design notes on ValidIf.
func (e *Engine) emitValidIf(tree *lnast.Tree, st *moduleState, parent lnast.NodeID, lhsName string, v rtl.ValidIf) {
	e.emitExprTo(tree, st, parent, lhsName, v.Value)

	ifNode, thenStmts := e.newIf(tree, st, parent, v.Cond)
	e.emitExprTo(tree, st, thenStmts, lhsName, v.Value)

	tree.AddChild(parent, ifNode)
}

// accessSegment is one link of a flattened SubField/SubIndex/SubAccess
// chain.
type accessSegment struct {
	kind      string // "field", "index", "access"
	name      string
	index     int
	indexExpr rtl.Expr
}

// flattenChain walks a SubField/SubIndex/SubAccess chain down to its base
// Reference, returning the base identifier and the segments from
// outermost-base to innermost-leaf.
func flattenChain(expr rtl.Expr) (base string, segs []accessSegment) {
	switch v := expr.(type) {
	case rtl.Reference:
		return v.Id, nil
	case rtl.SubField:
		b, s := flattenChain(v.Expr)
		return b, append(s, accessSegment{kind: "field", name: v.Name})
	case rtl.SubIndex:
		b, s := flattenChain(v.Expr)
		return b, append(s, accessSegment{kind: "index", index: v.Index})
	case rtl.SubAccess:
		b, s := flattenChain(v.Expr)
		return b, append(s, accessSegment{kind: "access", indexExpr: v.Index})
	default:
		panic(fmt.Sprintf("lower: HandleBundVecAcc: unsupported base expression %T", expr))
	}
}

// handleBundVecAcc implements §4.5.7: a chain of field/index/access
// expressions is reconstituted as a linear sequence of dot/select ops, each
// producing a fresh temporary bound to the prior result, and the name of
// the final result is returned.
//
// Two bases get special-cased ahead of the generic loop: a submodule
// instance (whose first segment is the accessed port, and whose sigil
// becomes inp_/out_ per the cached port direction) and a memory's .data /
// .rdata field (which resolves directly to the port's #mem.port.__data
// attribute and records the access for direction inference, §4.5.6).
func (e *Engine) handleBundVecAcc(tree *lnast.Tree, st *moduleState, parent lnast.NodeID, expr rtl.Expr, isRHS bool) string {
	base, segs := flattenChain(expr)

	if mi, ok := st.memories[base]; ok && len(segs) >= 2 {
		last := segs[len(segs)-1]
		prev := segs[len(segs)-2]

		if last.kind == "field" && prev.kind == "field" && (last.name == "data" || last.name == "rdata") {
			if p, ok := mi.Ports[prev.name]; ok {
				if isRHS {
					p.ReadUsed = true
				} else {
					p.WriteUsed = true
				}
			}

			return fmt.Sprintf("#%s.%s.__data", base, prev.name)
		}
	}

	var cur string

	if modName, isInst := st.instances[base]; isInst && len(segs) > 0 && segs[0].kind == "field" {
		portName := segs[0].name

		prefix := "inp_"
		if e.portDirection(modName, portName) == rtl.Out {
			prefix = "out_"
		}

		instRef := prefix + base

		tmp := st.newTemp()
		n := tree.NewNode(lnast.Dot, lnast.Token{})
		tree.AddChild(n, tree.NewRef(tmp))
		tree.AddChild(n, tree.NewRef(instRef))
		tree.AddChild(n, tree.NewConst(portName))
		tree.AddChild(parent, n)

		cur = tmp
		segs = segs[1:]
	} else {
		cur = st.resolveRef(base, !isRHS)
	}

	for _, seg := range segs {
		tmp := st.newTemp()

		switch seg.kind {
		case "field":
			n := tree.NewNode(lnast.Dot, lnast.Token{})
			tree.AddChild(n, tree.NewRef(tmp))
			tree.AddChild(n, tree.NewRef(cur))
			tree.AddChild(n, tree.NewConst(seg.name))
			tree.AddChild(parent, n)
		case "index":
			n := tree.NewNode(lnast.Select, lnast.Token{})
			tree.AddChild(n, tree.NewRef(tmp))
			tree.AddChild(n, tree.NewRef(cur))
			tree.AddChild(n, tree.NewConst(strconv.Itoa(seg.index)))
			tree.AddChild(parent, n)
		case "access":
			idx := e.lowerOperand(tree, st, parent, seg.indexExpr)
			n := tree.NewNode(lnast.Select, lnast.Token{})
			tree.AddChild(n, tree.NewRef(tmp))
			tree.AddChild(n, tree.NewRef(cur))
			tree.AddChild(n, idx)
			tree.AddChild(parent, n)
		}

		cur = tmp
	}

	return cur
}
