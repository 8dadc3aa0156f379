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
package semantic

import (
	"github.com/openhdl/lnast-core/pkg/lnast"
)

// isUnaryOp reports the node types whose primitive-op shape is exactly
// {lhs: ref, rhs: ref|const}.
func isUnaryOp(t lnast.NodeType) bool {
	switch t {
	case lnast.Assign, lnast.DpAssign, lnast.Not, lnast.LogicalNot, lnast.As:
		return true
	default:
		return false
	}
}

// isNaryOp reports the node types whose primitive-op shape is {lhs: ref,
// rhs...: ref|const} over any number of remaining children.
func isNaryOp(t lnast.NodeType) bool {
	switch t {
	case lnast.Dot, lnast.And, lnast.Or, lnast.Xor,
		lnast.Plus, lnast.Minus, lnast.Mult, lnast.Div, lnast.Mod,
		lnast.Eq, lnast.Neq, lnast.Lt, lnast.Leq, lnast.Gt, lnast.Geq,
		lnast.Select, lnast.BitSelect,
		lnast.LogicShr, lnast.ArithShr, lnast.ArithShl,
		lnast.RotateShr, lnast.RotateShl, lnast.DynamicShl, lnast.DynamicShr,
		lnast.TupleConcat:
		return true
	default:
		return false
	}
}

// checkPrimitiveOp implements §4.6's primitive-op rules: exactly one of
// unary, n-ary, or tuple shape, dispatched by node type.
func (v *Validator) checkPrimitiveOp(n lnast.NodeID, t lnast.NodeType) {
	if v.tree.HasSingleChild(n) {
		v.errorf("Primitive Operation Error: Requires at least 2 LNAST Nodes (lhs, rhs)")
		return
	}

	switch {
	case isUnaryOp(t):
		v.checkUnaryOp(n)
	case isNaryOp(t):
		v.checkNaryOp(n)
	case t == lnast.Tuple:
		v.checkTupleOp(n)
	default:
		v.errorf("Primitive Operation Error: Not a Valid Node Type")
	}
}

func (v *Validator) checkUnaryOp(n lnast.NodeID) {
	lhs := v.tree.GetFirstChild(n)
	rhs := v.tree.GetSiblingNext(lhs)

	if v.tree.GetType(lhs) != lnast.Ref {
		v.errorf("Unary Operation Error: LHS Node must be Node type 'ref'")
	}

	rhsType := v.tree.GetType(rhs)
	if rhsType != lnast.Ref && rhsType != lnast.Const {
		v.errorf("Unary Operation Error: RHS Node must be Node type 'ref' or 'const'")
	}

	lhsName := v.tree.GetName(lhs)
	v.checkForTempVar(lhsName)

	if !v.inNotReadList(lhsName) {
		v.checkForNotRead(lhsName)
	}

	rhsName := v.tree.GetName(rhs)
	if v.inNotReadList(rhsName) {
		v.checkForNotRead(rhsName)
	}
}

func (v *Validator) checkNaryOp(n lnast.NodeID) {
	first := v.tree.GetFirstChild(n)

	for _, child := range v.tree.Children(n) {
		childType := v.tree.GetType(child)

		if child == first {
			if childType != lnast.Ref {
				v.errorf("N-ary Operation Error: LHS Node must be Node type 'ref'")
			}

			name := v.tree.GetName(child)
			v.checkForTempVar(name)

			if !v.inNotReadList(name) {
				v.checkForNotRead(name)
			}

			continue
		}

		if childType != lnast.Ref && childType != lnast.Const {
			v.errorf("N-ary Operation Error!: RHS Node(s) must be Node type 'ref' or 'const'")
		}

		name := v.tree.GetName(child)
		if v.inNotReadList(name) {
			v.checkForNotRead(name)
		}
	}
}

func (v *Validator) checkTupleOp(n lnast.NodeID) {
	numRef := 0
	numAssign := 0

	for _, child := range v.tree.Children(n) {
		childType := v.tree.GetType(child)

		switch childType {
		case lnast.Ref:
			numRef++
			name := v.tree.GetName(child)
			v.checkForTempVar(name)

			if !v.inNotReadList(name) {
				v.checkForNotRead(name)
			}
		case lnast.Assign:
			v.checkPrimitiveOp(child, childType)
			numAssign++
		}
	}

	if numRef != 1 {
		v.errorf("Tuple Operation Error: Missing Reference Node")
	} else if numAssign != 2 {
		v.errorf("Tuple Operation Error: Missing Assign Node(s)")
	}
}
