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

// Package lower implements the RTL-to-LNAST lowering engine: for every user
// module in a circuit it produces one LNAST rooted at top -> stmts, visiting
// source statements in order and appending to the current stmts parent.
// Lowering is single-threaded and deterministic; there is no suspension and
// no cancellation (§5).
package lower

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/openhdl/lnast-core/pkg/lnast"
	"github.com/openhdl/lnast-core/pkg/registry"
	"github.com/openhdl/lnast-core/pkg/rtl"
	"github.com/openhdl/lnast-core/pkg/typeflat"
)

// ErrUnsupportedStatement is returned (wrapped) when lowering a statement
// this engine deliberately never lowers (Attach).
var ErrUnsupportedStatement = errors.New("lower: unsupported statement")

// Engine lowers one or more circuits.  A single Engine may be reused across
// circuits; per-circuit state (module port/parameter directories) is reset
// at the start of LowerCircuit, and per-module state is reset for every
// module (§4.5.1).
type Engine struct {
	// Registry, if non-nil, is consulted first for cached submodule port
	// directions (§4.5.7, §4.5.8); the in-memory module-port map built from
	// the current circuit is the fallback when it has no entry.
	Registry *registry.Manager

	// Warnings accumulates every non-fatal diagnostic raised by the most
	// recent LowerCircuit call: PartialConnect usage, unreferenced INFER
	// memory ports (§7).
	Warnings []string

	modulePorts    map[string][]rtl.Port
	externalParams map[string][]rtl.Parameter
}

// New constructs an Engine.  reg may be nil, in which case submodule port
// directions are resolved purely from the circuit being lowered.
func New(reg *registry.Manager) *Engine {
	return &Engine{Registry: reg}
}

// moduleState is the per-module lowering state reset between modules
// (§4.5.1): name-classification sets for sigil resolution, the temporary
// counter, instance bookkeeping, and in-flight memory port tracking.
type moduleState struct {
	tempCounter int

	inputs      map[string]bool
	outputs     map[string]bool
	registers   map[string]bool
	asyncResets map[string]bool
	instances   map[string]string // instance name -> module name
	memories    map[string]*memoryInfo
}

func newModuleState() *moduleState {
	return &moduleState{
		inputs:      make(map[string]bool),
		outputs:     make(map[string]bool),
		registers:   make(map[string]bool),
		asyncResets: make(map[string]bool),
		instances:   make(map[string]string),
		memories:    make(map[string]*memoryInfo),
	}
}

// newTemp synthesizes a fresh compiler temporary name, unique within the
// module, satisfying the write-once invariant on "___"-prefixed names.
func (st *moduleState) newTemp() string {
	name := fmt.Sprintf("%s%d", lnast.TempPrefix, st.tempCounter)
	st.tempCounter++

	return name
}

// resolveRef implements get_full_name (§4.5.3) for a bare identifier
// occurring in an expression.  isLHS distinguishes the two register forms:
// a left-hand use names the register itself ("#r"); a right-hand use reads
// its stable output pin ("#r.__q_pin").
func (st *moduleState) resolveRef(name string, isLHS bool) string {
	switch {
	case st.inputs[name]:
		return string(lnast.SigilInput) + name
	case st.outputs[name]:
		return string(lnast.SigilOutput) + name
	case st.registers[name]:
		if isLHS {
			return string(lnast.SigilRegister) + name
		}

		return string(lnast.SigilRegister) + name + ".__q_pin"
	}

	if strings.HasPrefix(name, "_T") || strings.HasPrefix(name, "_GEN") {
		return lnast.HoistedTempPrefix + name
	}

	return name
}

// LowerCircuit lowers every UserModule of c into its own LNAST.
// ExternalModules contribute only their port/parameter signature, consulted
// wherever an instance of them is lowered.
func (e *Engine) LowerCircuit(c rtl.Circuit) (map[string]*lnast.Tree, error) {
	e.modulePorts = make(map[string][]rtl.Port)
	e.externalParams = make(map[string][]rtl.Parameter)
	e.Warnings = nil

	for _, m := range c.Modules {
		switch v := m.(type) {
		case rtl.UserModule:
			e.modulePorts[v.Id] = v.Ports
		case rtl.ExternalModule:
			e.modulePorts[v.DefinedName] = v.Ports
			e.externalParams[v.DefinedName] = v.Parameters
			e.registerExternal(v)
		}
	}

	out := make(map[string]*lnast.Tree)

	for _, m := range c.Modules {
		um, ok := m.(rtl.UserModule)
		if !ok {
			continue
		}

		tree, err := e.lowerModule(um)
		if err != nil {
			return nil, fmt.Errorf("lower: module %s: %w", um.Id, err)
		}

		out[um.Id] = tree
	}

	return out, nil
}

func (e *Engine) lowerModule(m rtl.UserModule) (*lnast.Tree, error) {
	st := newModuleState()
	tree := lnast.New()

	top := tree.NewNode(lnast.Top, lnast.Token{Text: tree.AddString(m.Id)})
	stmts := tree.NewNode(lnast.Stmts, lnast.Token{})
	tree.AddChild(top, stmts)
	tree.SetRoot(top)

	e.registerModule(m)

	if err := e.emitPorts(tree, st, stmts, m.Ports); err != nil {
		return nil, err
	}

	e.hoistMemories(tree, st, stmts, m.Statements)

	if err := e.lowerStatements(tree, st, stmts, m.Statements); err != nil {
		return nil, err
	}

	e.finalizeMemories(tree, st, stmts)

	return tree, nil
}

// emitPorts implements §4.5.2: flatten every port, record its leaves' sigil
// classification, and emit a bitwidth attribute assignment per leaf with a
// declared (non-zero) width.
func (e *Engine) emitPorts(tree *lnast.Tree, st *moduleState, parent lnast.NodeID, ports []rtl.Port) error {
	flattener := typeflat.New()

	for _, p := range ports {
		leaves, err := flattener.Flatten(p.Name, p.Dir, p.Type)
		if err != nil {
			return err
		}

		for _, leaf := range leaves {
			if leaf.Dir == rtl.In {
				st.inputs[leaf.Path] = true
			} else {
				st.outputs[leaf.Path] = true
			}

			if leaf.Width == 0 {
				continue
			}

			sigil := string(lnast.SigilInput)
			if leaf.Dir == rtl.Out {
				sigil = string(lnast.SigilOutput)
			}

			attr := "__ubits"
			if leaf.Signed {
				attr = "__sbits"
			}

			emitAssign(tree, parent, sigil+leaf.Path+"."+attr, tree.NewConst(strconv.Itoa(leaf.Width)))
		}
	}

	for _, name := range flattener.AsyncResets {
		st.asyncResets[name] = true
	}

	return nil
}

// emitAssign appends an "assign" node (lhsName := rhs) to parent.  Per the
// semantic validator's unary-op rule, rhs must already be a ref or const
// leaf node id.  An lhsName starting with the output sigil is emitted as
// dp_assign instead of assign (§3.2).
func emitAssign(tree *lnast.Tree, parent lnast.NodeID, lhsName string, rhs lnast.NodeID) {
	nodeType := lnast.Assign
	if strings.HasPrefix(lhsName, string(lnast.SigilOutput)) {
		nodeType = lnast.DpAssign
	}

	n := tree.NewNode(nodeType, lnast.Token{})
	tree.AddChild(n, tree.NewRef(lhsName))
	tree.AddChild(n, rhs)
	tree.AddChild(parent, n)
}

// newIf builds an If node's cstmts/cond/then-stmts children (in that
// order, per the §8 ordering invariant) and lowers cond's computation into
// cstmts itself, not parent (§3.2/§4.5.5: condition-computation statements
// live under cstmts). The If node is not yet attached to parent; callers
// append it once both branches (and any addElse) are filled.
func (e *Engine) newIf(tree *lnast.Tree, st *moduleState, parent lnast.NodeID, cond rtl.Expr) (ifNode, thenStmts lnast.NodeID) {
	ifNode = tree.NewNode(lnast.If, lnast.Token{})

	cstmts := tree.NewNode(lnast.Cstmts, lnast.Token{})
	tree.AddChild(ifNode, cstmts)

	condRef := e.lowerOperand(tree, st, cstmts, cond)
	condNode := tree.NewNode(lnast.Cond, lnast.Token{})
	tree.AddChild(condNode, condRef)
	tree.AddChild(ifNode, condNode)

	thenStmts = tree.NewNode(lnast.Stmts, lnast.Token{})
	tree.AddChild(ifNode, thenStmts)

	return ifNode, thenStmts
}

// addElse appends an else-branch stmts node to an already-built If node.
func addElse(tree *lnast.Tree, ifNode lnast.NodeID) lnast.NodeID {
	s := tree.NewNode(lnast.Stmts, lnast.Token{})
	tree.AddChild(ifNode, s)

	return s
}

// registerModule implements §3.4's registration rule: a module name is
// registered on first lowering, and its port directory is cached so a
// later lowering of an instance of it (portDirection, below) can resolve
// port directions without re-decoding the defining module. A no-op when no
// Registry was configured (§4.5.1 allows registry-free lowering for tests).
func (e *Engine) registerModule(m rtl.UserModule) {
	if e.Registry == nil {
		return
	}

	e.Registry.AddName(m.Id)

	// No source-file name is tracked by rtl.Circuit's wire format, so the
	// cached record carries none.
	rec := e.Registry.ResetSub(m.Id, "")

	for _, p := range m.Ports {
		width, signed := portBitwidth(p.Type)

		if p.Dir == rtl.Out {
			rec.AddOutputPin(p.Name, width, signed)
		} else {
			rec.AddInputPin(p.Name, width, signed)
		}
	}
}

// registerExternal registers an external (black-box) module's name and
// cached port/parameter directory, so an instance of it resolves its port
// directions and parameters from the registry the same way a user module's
// does (§3.4, §4.3).
func (e *Engine) registerExternal(m rtl.ExternalModule) {
	if e.Registry == nil {
		return
	}

	e.Registry.AddName(m.DefinedName)

	rec := e.Registry.ResetSub(m.DefinedName, "")

	for _, p := range m.Ports {
		width, signed := portBitwidth(p.Type)

		if p.Dir == rtl.Out {
			rec.AddOutputPin(p.Name, width, signed)
		} else {
			rec.AddInputPin(p.Name, width, signed)
		}
	}

	for _, param := range m.Parameters {
		rec.AddParameter(param.Name, param.Value)
	}
}

// portBitwidth returns the declared bit width and signedness of a scalar
// port type, or (0, false) for any aggregate/clock/reset type -- the
// registry's port cache records scalar width only, matching
// typeflat.Flatten's own UInt/SInt base case.
func portBitwidth(t rtl.Type) (int, bool) {
	switch v := t.(type) {
	case rtl.UInt:
		return v.Width, false
	case rtl.SInt:
		return v.Width, true
	default:
		return 0, false
	}
}

// portDirection resolves the cached direction of a submodule's port,
// preferring the process-wide Module Registry when available (§4.3) and
// falling back to the current circuit's in-memory port directory.
func (e *Engine) portDirection(modName, portName string) rtl.Direction {
	if e.Registry != nil {
		if rec := e.Registry.Sub(modName); rec != nil {
			if d, ok := rec.Direction(portName); ok {
				return d
			}
		}
	}

	for _, p := range e.modulePorts[modName] {
		if p.Name == portName {
			return p.Dir
		}
	}

	return rtl.In
}
