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

// Package semantic implements the post-order structural validator run over a
// lowered LNAST: a single top -> stmts pass that enforces the write-once
// invariant on compiler temporaries, flags temporaries that are written but
// never read, and checks that every primitive-op and tree-structural node
// carries the children shape its type requires.
package semantic

import (
	"fmt"
	"strings"

	"github.com/openhdl/lnast-core/pkg/lnast"
)

// Result collects everything observed by a single Check call.  A Validator
// carries no state across calls, so running Check twice on the same tree
// always yields an equal Result.
type Result struct {
	Errors   []string
	Warnings []string
}

// Validator performs one traversal's worth of bookkeeping: the set of
// temporaries seen so far (for the write-once check) and the read/not-read
// tracking used to warn about dead writes.
type Validator struct {
	tree *lnast.Tree

	tempList     []string
	notReadList  []string
	haveReadList []string

	errors []string
}

// Check validates tree and returns every error and warning found.  It is
// pure with respect to tree: the Validator's bookkeeping is local to this
// call and discarded on return.
func Check(tree *lnast.Tree) Result {
	v := &Validator{tree: tree}

	root := tree.GetRoot()
	stmts := tree.GetFirstChild(root)

	v.checkBody(stmts)

	var warnings []string

	if len(v.notReadList) != 0 {
		warnings = append(warnings, fmt.Sprintf("Temporary Variable Warning: %s were written but never read",
			strings.Join(v.notReadList, ", ")))
	}

	return Result{Errors: v.errors, Warnings: warnings}
}

func (v *Validator) errorf(format string, args ...any) {
	v.errors = append(v.errors, fmt.Sprintf(format, args...))
}

// dispatch routes one statement-level node to the checker its type requires.
// It is used both at the top level (stmts directly under top) and for any
// nested structural node found inside a cstmts/stmts body, so a For/While/
// FuncDef/FuncCall nested inside an If's body is checked by its own rule
// rather than being folded into the enclosing If's checker.
func (v *Validator) dispatch(n lnast.NodeID) {
	t := v.tree.GetType(n)

	switch {
	case t.IsPrimitiveOp():
		v.checkPrimitiveOp(n, t)
	case t == lnast.If:
		v.checkIfOp(n)
	case t == lnast.For:
		v.checkForOp(n)
	case t == lnast.While:
		v.checkWhileOp(n)
	case t == lnast.FuncCall:
		v.checkFuncCall(n)
	case t == lnast.FuncDef:
		v.checkFuncDef(n)
	}
}

func (v *Validator) checkBody(body lnast.NodeID) {
	for _, child := range v.tree.Children(body) {
		v.dispatch(child)
	}
}

func isTempVar(name string) bool {
	return strings.HasPrefix(name, lnast.TempPrefix)
}

func (v *Validator) inTempList(name string) bool {
	for _, n := range v.tempList {
		if n == name {
			return true
		}
	}

	return false
}

func (v *Validator) checkForTempVar(name string) {
	if !isTempVar(name) {
		return
	}

	if !v.inTempList(name) {
		v.tempList = append(v.tempList, name)
	} else {
		v.errorf("Temporary Variable Error: %s must be written to only once", name)
	}
}

func (v *Validator) inNotReadList(name string) bool {
	for _, n := range v.notReadList {
		if n == name {
			return true
		}
	}

	return false
}

func (v *Validator) inHaveReadList(name string) bool {
	for _, n := range v.haveReadList {
		if n == name {
			return true
		}
	}

	return false
}

// checkForNotRead marks name as read if it was pending in notReadList
// (moving it to haveReadList), else adds it to notReadList if it is a
// compiler temporary ("___" prefix) that has not already been read.  Other
// names (ports, registers, wires, attributes) are never tracked.
func (v *Validator) checkForNotRead(name string) {
	if v.inNotReadList(name) {
		kept := v.notReadList[:0]

		for _, n := range v.notReadList {
			if n == name {
				v.haveReadList = append(v.haveReadList, name)
			} else {
				kept = append(kept, n)
			}
		}

		v.notReadList = kept
	} else if !v.inHaveReadList(name) && isTempVar(name) {
		v.notReadList = append(v.notReadList, name)
	}
}
