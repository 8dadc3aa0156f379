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

// checkIfOp implements §4.6's If rule: a cstmts, a cond (whose single child
// must be a ref), and a stmts, in any order among n's children.  Presence is
// checked, not count, so a second stmts (an else branch) is accepted; only
// the first missing child is reported.  Each cstmts/stmts body is checked
// recursively.
func (v *Validator) checkIfOp(n lnast.NodeID) {
	var hasCstmts, hasCond, hasStmts bool

	for _, child := range v.tree.Children(n) {
		childType := v.tree.GetType(child)

		switch childType {
		case lnast.Cstmts:
			hasCstmts = true
			v.checkBody(child)
		case lnast.Stmts:
			hasStmts = true
			v.checkBody(child)
		case lnast.Cond:
			v.checkCond(child, "If")
			hasCond = true
		default:
			v.errorf("If Operation Error: Not a Valid Node Type")
		}
	}

	switch {
	case !hasCstmts:
		v.errorf("If Operation Error: Missing Condition Statments Node")
	case !hasCond:
		v.errorf("If Operation Error: Missing Condition Node")
	case !hasStmts:
		v.errorf("If Operation Error: Missing Statements Node")
	}
}

// checkCond validates a cond node's single-child shape, raising label-scoped
// "<label> Operation Error: ..." diagnostics.
func (v *Validator) checkCond(cond lnast.NodeID, label string) {
	if !v.tree.HasSingleChild(cond) {
		v.errorf("%s Operation Error: Missing Condition Node", label)
		return
	}

	child := v.tree.GetFirstChild(cond)
	if v.tree.GetType(child) != lnast.Ref {
		v.errorf("%s Operation Error: Condition must be Node type 'ref'", label)
	}

	name := v.tree.GetName(child)
	if v.inNotReadList(name) {
		v.checkForNotRead(name)
	}
}

// checkForOp implements §4.6's For rule: at least two ref children and a
// stmts child (its presence is checked, not its count).  A missing stmts is
// reported only when the ref count is satisfied.
func (v *Validator) checkForOp(n lnast.NodeID) {
	var hasStmts bool

	numRef := 0

	for _, child := range v.tree.Children(n) {
		childType := v.tree.GetType(child)

		switch childType {
		case lnast.Stmts:
			hasStmts = true
			v.checkBody(child)
		case lnast.Ref:
			numRef++

			name := v.tree.GetName(child)
			if v.inNotReadList(name) {
				v.checkForNotRead(name)
			}
		default:
			v.errorf("For Operation Error: Not a Valid Node Type")
		}
	}

	if numRef < 2 {
		v.errorf("For Operation Error: Missing Reference Node(s)")
	} else if !hasStmts {
		v.errorf("For Operation Error: Missing Statements Node")
	}
}

// checkWhileOp implements §4.6's While rule: one cond (single ref child) and
// one stmts child.
func (v *Validator) checkWhileOp(n lnast.NodeID) {
	var hasCond, hasStmts bool

	for _, child := range v.tree.Children(n) {
		childType := v.tree.GetType(child)

		switch childType {
		case lnast.Cond:
			hasCond = true
			v.checkCond(child, "While")
		case lnast.Stmts:
			hasStmts = true
			v.checkBody(child)
		default:
			v.errorf("While Operation Error: Not a Valid Node Type")
		}
	}

	switch {
	case !hasCond:
		v.errorf("While Operation Error: Missing Condition Node")
	case !hasStmts:
		v.errorf("While Operation Error: Missing Statement Node")
	}
}

// checkFuncDef implements §4.6's Func_def rule: one ref (the function name),
// one cond (whose single child must be ref or const), and one stmts (a
// cstmts is also accepted in its place).
func (v *Validator) checkFuncDef(n lnast.NodeID) {
	var hasCond, hasStmts bool

	numRefs := 0

	first := v.tree.GetFirstChild(n)

	for _, child := range v.tree.Children(n) {
		childType := v.tree.GetType(child)

		if child == first {
			numRefs++

			name := v.tree.GetName(child)
			if !v.inNotReadList(name) {
				v.checkForNotRead(name)
			}
		}

		switch childType {
		case lnast.Cstmts, lnast.Stmts:
			if childType == lnast.Stmts {
				hasStmts = true
			}

			v.checkBody(child)
		case lnast.Cond:
			if !v.tree.HasSingleChild(child) {
				v.errorf("Func Def Operation Error: Missing Condition Node")
				break
			}

			hasCond = true

			condChild := v.tree.GetFirstChild(child)
			condChildType := v.tree.GetType(condChild)

			if condChildType != lnast.Const && condChildType != lnast.Ref {
				v.errorf("Func Def Operation Error: Condition must be Node type 'ref' or 'const'")
			}
		case lnast.Ref:
			if child != first {
				numRefs++
			}
		default:
			if child != first {
				v.errorf("Func Def Operation Error: Not a Valid Node Type")
			}
		}
	}

	switch {
	case numRefs < 1:
		v.errorf("Func Def Operation Error: Missing Reference Node")
	case !hasCond:
		v.errorf("Func Def Operation Error: Missing Condition Node")
	case !hasStmts:
		v.errorf("Func Def Operation Error: Missing Statement Node")
	}
}

// checkFuncCall implements §4.6's Func_call rule: a result ref followed by
// at least one operand, each of which is a ref or a const (matching the
// shapes the lowering engine actually emits: unary "__fir_*" calls with two
// refs, binary calls with a ref result plus two ref/const operands, calls
// carrying static immediates as trailing consts, and instance/printf calls
// of other arities). The first child must be a ref (the call's result);
// every remaining child must be a ref or const.
func (v *Validator) checkFuncCall(n lnast.NodeID) {
	children := v.tree.Children(n)

	if len(children) < 2 {
		v.errorf("Func Call Operation Error: Missing Reference Node(s)")
		return
	}

	for i, child := range children {
		childType := v.tree.GetType(child)

		if i == 0 && childType != lnast.Ref {
			v.errorf("Func Call Operation Error: Not a Valid Node Type")
			continue
		}

		if i > 0 && childType != lnast.Ref && childType != lnast.Const {
			v.errorf("Func Call Operation Error: Not a Valid Node Type")
			continue
		}

		if childType != lnast.Ref {
			continue
		}

		name := v.tree.GetName(child)
		if v.inNotReadList(name) {
			v.checkForNotRead(name)
		}
	}
}
