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
	"github.com/openhdl/lnast-core/pkg/typeflat"
)

// lowerStatements lowers stmts in order into parent, per §4.5's
// single-threaded, deterministic statement dispatch (§4.5.9).
func (e *Engine) lowerStatements(tree *lnast.Tree, st *moduleState, parent lnast.NodeID, stmts []rtl.Statement) error {
	for _, s := range stmts {
		if err := e.lowerStatement(tree, st, parent, s); err != nil {
			return err
		}
	}

	return nil
}

func (e *Engine) lowerStatement(tree *lnast.Tree, st *moduleState, parent lnast.NodeID, s rtl.Statement) error {
	switch v := s.(type) {
	case rtl.Wire:
		e.lowerWire(tree, parent, v)
	case rtl.Register:
		e.lowerRegister(tree, st, parent, v)
	case rtl.Node:
		e.emitExprTo(tree, st, parent, v.Id, v.Value)
	case rtl.Connect:
		e.emitConnect(tree, st, parent, v.Lhs, v.Rhs)
	case rtl.PartialConnect:
		e.Warnings = append(e.Warnings, fmt.Sprintf("partial connect used for %s", describeLValue(v.Lhs)))
		e.emitConnect(tree, st, parent, v.Lhs, v.Rhs)
	case rtl.IsInvalid, rtl.Skip:
		// no-op
	case rtl.When:
		return e.lowerWhen(tree, st, parent, v)
	case rtl.Stop:
		e.lowerStop(tree, st, parent, v)
	case rtl.Printf:
		e.lowerPrintf(tree, st, parent, v)
	case rtl.Instance:
		e.lowerInstance(tree, st, parent, v)
	case rtl.MemoryPort:
		e.lowerMemoryPortDriver(tree, st, parent, v)
	case rtl.Memory, rtl.CMemory:
		// fully handled by the pre-traversal hoisting pass (§4.5.6)
	case rtl.Attach:
		return fmt.Errorf("%w: attach is not lowerable", ErrUnsupportedStatement)
	default:
		return fmt.Errorf("lower: unhandled statement type %T", s)
	}

	return nil
}

func describeLValue(e rtl.Expr) string {
	if r, ok := e.(rtl.Reference); ok {
		return r.Id
	}

	return "<expr>"
}

// lowerWire implements the Wire row of §4.5.9: flatten the declared type
// and emit a bitwidth attribute per leaf with a declared width. Wires carry
// no sigil.
func (e *Engine) lowerWire(tree *lnast.Tree, parent lnast.NodeID, w rtl.Wire) {
	flattener := typeflat.New()

	leaves, err := flattener.Flatten(w.Name, rtl.In, w.Type)
	if err != nil {
		return
	}

	emitLeafBitwidths(tree, parent, "", leaves)
}

// lowerRegister implements the Register row of §4.5.9: record the name for
// sigil resolution, flatten its type for bitwidth attributes (under the
// "#" sigil), and mark known-async resets.
func (e *Engine) lowerRegister(tree *lnast.Tree, st *moduleState, parent lnast.NodeID, r rtl.Register) {
	st.registers[r.Name] = true

	flattener := typeflat.New()

	if leaves, err := flattener.Flatten(r.Name, rtl.In, r.Type); err == nil {
		emitLeafBitwidths(tree, parent, string(lnast.SigilRegister), leaves)
	}

	if r.AsyncReset {
		emitAssign(tree, parent, string(lnast.SigilRegister)+r.Name+".__reset_async", tree.NewConst("true"))
	}
}

func emitLeafBitwidths(tree *lnast.Tree, parent lnast.NodeID, sigil string, leaves []typeflat.Leaf) {
	for _, leaf := range leaves {
		if leaf.Width == 0 {
			continue
		}

		attr := "__ubits"
		if leaf.Signed {
			attr = "__sbits"
		}

		emitAssign(tree, parent, sigil+leaf.Path+"."+attr, tree.NewConst(strconv.Itoa(leaf.Width)))
	}
}

// emitConnect implements the Connect/PartialConnect row: resolve lhs to its
// full name, then drive it from rhs.
func (e *Engine) emitConnect(tree *lnast.Tree, st *moduleState, parent lnast.NodeID, lhs, rhs rtl.Expr) {
	lhsName := e.resolveLHS(tree, st, parent, lhs)
	e.emitExprTo(tree, st, parent, lhsName, rhs)
}

func (e *Engine) resolveLHS(tree *lnast.Tree, st *moduleState, parent lnast.NodeID, lhs rtl.Expr) string {
	switch v := lhs.(type) {
	case rtl.Reference:
		return st.resolveRef(v.Id, true)
	case rtl.SubField, rtl.SubIndex, rtl.SubAccess:
		return e.handleBundVecAcc(tree, st, parent, lhs, false)
	default:
		panic(fmt.Sprintf("lower: invalid lvalue expression %T", lhs))
	}
}

// lowerWhen implements the When row: consequent statements recurse into a
// fresh stmts under a new if; alternate statements (if present) recurse
// into a paired stmts.
func (e *Engine) lowerWhen(tree *lnast.Tree, st *moduleState, parent lnast.NodeID, w rtl.When) error {
	ifNode, thenStmts := e.newIf(tree, st, parent, w.Cond)

	if err := e.lowerStatements(tree, st, thenStmts, w.Conseq); err != nil {
		return err
	}

	if w.Alt != nil {
		elseStmts := addElse(tree, ifNode)
		if err := e.lowerStatements(tree, st, elseStmts, w.Alt); err != nil {
			return err
		}
	}

	tree.AddChild(parent, ifNode)

	return nil
}

// lowerStop/lowerPrintf implement the Stop/Printf row: both lower to an
// if(en) whose body is a func_call to "stop"/"printf", carrying clk and any
// arguments.
func (e *Engine) lowerStop(tree *lnast.Tree, st *moduleState, parent lnast.NodeID, s rtl.Stop) {
	ifNode, thenStmts := e.newIf(tree, st, parent, s.En)

	fc := tree.NewNode(lnast.FuncCall, lnast.Token{Text: tree.AddString("stop")})
	tree.AddChild(fc, e.lowerOperand(tree, st, thenStmts, s.Clock))
	tree.AddChild(fc, tree.NewConst(strconv.Itoa(s.ExitCode)))
	tree.AddChild(thenStmts, fc)

	tree.AddChild(parent, ifNode)
}

func (e *Engine) lowerPrintf(tree *lnast.Tree, st *moduleState, parent lnast.NodeID, p rtl.Printf) {
	ifNode, thenStmts := e.newIf(tree, st, parent, p.En)

	fc := tree.NewNode(lnast.FuncCall, lnast.Token{Text: tree.AddString("printf")})
	tree.AddChild(fc, e.lowerOperand(tree, st, thenStmts, p.Clock))
	tree.AddChild(fc, tree.NewConst(p.Format))

	for _, a := range p.Args {
		tree.AddChild(fc, e.lowerOperand(tree, st, thenStmts, a))
	}

	tree.AddChild(thenStmts, fc)
	tree.AddChild(parent, ifNode)
}

// lowerInstance implements §4.5.8's module-instance emission shape:
//
//	___F0  <- x.__last_value        # dot
//	F1     <- ___F0                 # assign
//	out_x  <- Mod(F1)                # func_call
//
// followed by any external-module parameter attachments as
// inp_x.<param> assignments.
func (e *Engine) lowerInstance(tree *lnast.Tree, st *moduleState, parent lnast.NodeID, inst rtl.Instance) {
	st.instances[inst.Name] = inst.ModuleName

	t0 := st.newTemp()
	dot := tree.NewNode(lnast.Dot, lnast.Token{})
	tree.AddChild(dot, tree.NewRef(t0))
	tree.AddChild(dot, tree.NewRef(inst.Name))
	tree.AddChild(dot, tree.NewConst("__last_value"))
	tree.AddChild(parent, dot)

	t1 := st.newTemp()
	emitAssign(tree, parent, t1, tree.NewRef(t0))

	fc := tree.NewNode(lnast.FuncCall, lnast.Token{Text: tree.AddString(inst.ModuleName)})
	tree.AddChild(fc, tree.NewRef("out_"+inst.Name))
	tree.AddChild(fc, tree.NewRef(t1))
	tree.AddChild(parent, fc)

	for _, param := range e.externalParams[inst.ModuleName] {
		emitAssign(tree, parent, "inp_"+inst.Name+"."+param.Name, tree.NewConst(param.Value))
	}
}
