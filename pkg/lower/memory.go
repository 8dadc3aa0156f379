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
	"sort"
	"strconv"

	"github.com/openhdl/lnast-core/pkg/lnast"
	"github.com/openhdl/lnast-core/pkg/rtl"
)

// memoryPortInfo tracks one memory port's declared/resolved direction and
// its observed read/write usage, for §4.5.6's INFER resolution.
type memoryPortInfo struct {
	Dir       rtl.MemPortDirection
	Resolved  rtl.MemPortDirection
	ReadUsed  bool
	WriteUsed bool
}

// memoryInfo is the per-module-state record of a hoisted memory.
type memoryInfo struct {
	Depth         int
	Combinational bool
	ReadLatency   int
	WriteLatency  int
	Ports         map[string]*memoryPortInfo
}

func (mi *memoryInfo) addPort(id string, dir rtl.MemPortDirection) {
	mi.Ports[id] = &memoryPortInfo{Dir: dir, Resolved: dir}
}

// hoistMemories is the pre-traversal pass of §4.5.6: it walks every
// statement, descending only through When consequents/alternates, and
// re-emits each Memory/CMemory/MemoryPort declaration at the top of the
// module's stmts before any other lowering happens.
func (e *Engine) hoistMemories(tree *lnast.Tree, st *moduleState, topParent lnast.NodeID, stmts []rtl.Statement) {
	for _, s := range stmts {
		switch v := s.(type) {
		case rtl.Memory:
			e.registerMemory(tree, st, topParent, v.Name, v.Depth, false, v.ReadLatency, v.WriteLatency,
				readerIDs(v.Readers), writerIDs(v.Writers), readwriterIDs(v.Readwriters))
		case rtl.CMemory:
			e.registerMemory(tree, st, topParent, v.Name, v.Depth, true, 0, 0,
				readerIDs(v.Readers), writerIDs(v.Writers), readwriterIDs(v.Readwriters))
		case rtl.MemoryPort:
			e.registerMemoryPort(tree, st, topParent, v)
		case rtl.When:
			e.hoistMemories(tree, st, topParent, v.Conseq)

			if v.Alt != nil {
				e.hoistMemories(tree, st, topParent, v.Alt)
			}
		}
	}
}

func readerIDs(ports []rtl.MemReaderPort) []string {
	ids := make([]string, len(ports))
	for i, p := range ports {
		ids[i] = p.Id
	}

	return ids
}

func writerIDs(ports []rtl.MemWriterPort) []string {
	ids := make([]string, len(ports))
	for i, p := range ports {
		ids[i] = p.Id
	}

	return ids
}

func readwriterIDs(ports []rtl.MemReadwriterPort) []string {
	ids := make([]string, len(ports))
	for i, p := range ports {
		ids[i] = p.Id
	}

	return ids
}

// registerMemory hoists a Memory/CMemory declaration: a depth attribute, a
// tuple-concat of its statically-directed ports into __port, and per-port
// placeholder assignments.
func (e *Engine) registerMemory(
	tree *lnast.Tree, st *moduleState, parent lnast.NodeID,
	name string, depth int, combinational bool, readLatency, writeLatency int,
	readers, writers, readwriters []string,
) {
	if _, exists := st.memories[name]; exists {
		return
	}

	mi := &memoryInfo{Depth: depth, Combinational: combinational, ReadLatency: readLatency, WriteLatency: writeLatency, Ports: make(map[string]*memoryPortInfo)}
	st.memories[name] = mi

	emitAssign(tree, parent, name+".__depth", tree.NewConst(strconv.Itoa(depth)))

	var allPorts []string

	for _, id := range readers {
		mi.addPort(id, rtl.PortRead)
		e.emitMemPortPlaceholders(tree, parent, name, id, rtl.PortRead)
		allPorts = append(allPorts, id)
	}

	for _, id := range writers {
		mi.addPort(id, rtl.PortWrite)
		e.emitMemPortPlaceholders(tree, parent, name, id, rtl.PortWrite)
		allPorts = append(allPorts, id)
	}

	for _, id := range readwriters {
		mi.addPort(id, rtl.PortReadWrite)
		e.emitMemPortPlaceholders(tree, parent, name, id, rtl.PortReadWrite)
		allPorts = append(allPorts, id)
	}

	if len(allPorts) > 0 {
		n := tree.NewNode(lnast.TupleConcat, lnast.Token{})
		tree.AddChild(n, tree.NewRef(name+".__port"))

		for _, id := range allPorts {
			tree.AddChild(n, tree.NewRef(id))
		}

		tree.AddChild(parent, n)
	}
}

// registerMemoryPort hoists a standalone MemoryPort declaration, whose
// direction may be PortInfer.
func (e *Engine) registerMemoryPort(tree *lnast.Tree, st *moduleState, parent lnast.NodeID, v rtl.MemoryPort) {
	mi, ok := st.memories[v.MemoryId]
	if !ok {
		mi = &memoryInfo{Ports: make(map[string]*memoryPortInfo)}
		st.memories[v.MemoryId] = mi
	}

	if _, exists := mi.Ports[v.Id]; exists {
		return
	}

	mi.addPort(v.Id, v.Dir)
	e.emitMemPortPlaceholders(tree, parent, v.MemoryId, v.Id, v.Dir)
}

// emitMemPortPlaceholders emits the top-scope, literal-0 late-bound
// attribute placeholders for one memory port (§4.5.6). Writers and
// read-writers additionally get data/wmask placeholders.
func (e *Engine) emitMemPortPlaceholders(tree *lnast.Tree, parent lnast.NodeID, mem, port string, dir rtl.MemPortDirection) {
	base := mem + "_" + port

	emitAssign(tree, parent, base+"_addr", tree.NewConst("0"))
	emitAssign(tree, parent, base+"_clk", tree.NewConst("0"))
	emitAssign(tree, parent, base+"_en", tree.NewConst("0"))

	// INFER ports may still resolve to a writing direction once usage is
	// observed, so speculatively reserve the data/wmask placeholders too.
	if dir == rtl.PortWrite || dir == rtl.PortReadWrite || dir == rtl.PortInfer {
		emitAssign(tree, parent, base+"_data", tree.NewConst("0"))
		emitAssign(tree, parent, base+"_wmask", tree.NewConst("0"))
	}
}

// lowerMemoryPortDriver emits the real addr driver for a MemoryPort
// statement at its original syntactic position (possibly nested inside a
// When), overwriting the top-scope placeholder of the same synthesized
// name. clk/en/data/wmask have no corresponding driver expression in this
// message model and keep their hoisted literal-0 value; see DESIGN.md.
func (e *Engine) lowerMemoryPortDriver(tree *lnast.Tree, st *moduleState, parent lnast.NodeID, v rtl.MemoryPort) {
	if v.Index == nil {
		return
	}

	idx := e.lowerOperand(tree, st, parent, v.Index)
	emitAssign(tree, parent, v.MemoryId+"_"+v.Id+"_addr", idx)
}

// finalizeMemories is the finalization pass of §4.5.6: resolve any
// remaining INFER directions from observed usage, warn on ports never
// referenced, and emit the permanent #mem.port.__* attribute assignments
// from the collected placeholders.
func (e *Engine) finalizeMemories(tree *lnast.Tree, st *moduleState, parent lnast.NodeID) {
	names := make([]string, 0, len(st.memories))
	for name := range st.memories {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, name := range names {
		mi := st.memories[name]

		ports := make([]string, 0, len(mi.Ports))
		for id := range mi.Ports {
			ports = append(ports, id)
		}

		sort.Strings(ports)

		for _, id := range ports {
			e.finalizeMemoryPort(tree, parent, name, id, mi)
		}
	}
}

func (e *Engine) finalizeMemoryPort(tree *lnast.Tree, parent lnast.NodeID, name, id string, mi *memoryInfo) {
	p := mi.Ports[id]

	if p.Dir == rtl.PortInfer {
		switch {
		case p.ReadUsed && p.WriteUsed:
			p.Resolved = rtl.PortReadWrite
		case p.ReadUsed:
			p.Resolved = rtl.PortRead
		case p.WriteUsed:
			p.Resolved = rtl.PortWrite
		default:
			e.Warnings = append(e.Warnings, fmt.Sprintf("memory port %s.%s declared INFER but never referenced", name, id))
			return
		}
	}

	base := name + "_" + id

	emitAssign(tree, parent, fmt.Sprintf("#%s.%s.__addr", name, id), tree.NewRef(base+"_addr"))
	emitAssign(tree, parent, fmt.Sprintf("#%s.%s.__clk_pin", name, id), tree.NewRef(base+"_clk"))
	emitAssign(tree, parent, fmt.Sprintf("#%s.%s.__enable", name, id), tree.NewRef(base+"_en"))

	if p.Resolved == rtl.PortWrite || p.Resolved == rtl.PortReadWrite {
		emitAssign(tree, parent, fmt.Sprintf("#%s.%s.__data", name, id), tree.NewRef(base+"_data"))
		emitAssign(tree, parent, fmt.Sprintf("#%s.%s.__wrmask", name, id), tree.NewRef(base+"_wmask"))
	}

	latency := mi.ReadLatency
	if p.Resolved == rtl.PortWrite {
		latency = mi.WriteLatency
	}

	if mi.Combinational {
		latency = 0
	}

	emitAssign(tree, parent, fmt.Sprintf("#%s.%s.__latency", name, id), tree.NewConst(strconv.Itoa(latency)))
}
