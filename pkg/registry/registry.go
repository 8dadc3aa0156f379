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

// Package registry is the out-of-scope Module Registry (§4.3) consumed by
// the lowering engine as an external collaborator: a path-scoped name↔id
// directory for modules, with a port-signature cache and a recycled-id free
// list so ids stay dense after deletion.
package registry

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/bits-and-blooms/bitset"
	"github.com/openhdl/lnast-core/pkg/rtl"
)

// ModuleID is a stable, non-zero handle for a registered module name. Zero
// means "not registered".
type ModuleID uint32

// LibraryFile is the name of the per-path backing-store text file.
const LibraryFile = "library"

// Attributes mirrors the source's Graph_attributes record.
type Attributes struct {
	Name      string
	Version   int
	OpenCount int
}

// PortSignature is one entry of a submodule's port directory (§3.4).
type PortSignature struct {
	Name     string
	Bitwidth int
	Dir      rtl.Direction
	Signed   bool
}

// SubmoduleRecord is the cached port/parameter signature of one defined
// module, in declaration order.
type SubmoduleRecord struct {
	SourceFile string
	Ports      []PortSignature
	// Parameters is ordered (declaration order) for external modules; empty
	// for user modules.
	Parameters []rtl.Parameter
}

// AddInputPin appends an input port in declaration order.
func (s *SubmoduleRecord) AddInputPin(name string, bitwidth int, signed bool) {
	s.Ports = append(s.Ports, PortSignature{Name: name, Bitwidth: bitwidth, Dir: rtl.In, Signed: signed})
}

// AddOutputPin appends an output port in declaration order.
func (s *SubmoduleRecord) AddOutputPin(name string, bitwidth int, signed bool) {
	s.Ports = append(s.Ports, PortSignature{Name: name, Bitwidth: bitwidth, Dir: rtl.Out, Signed: signed})
}

// AddParameter appends an external-module parameter in declaration order.
func (s *SubmoduleRecord) AddParameter(name, value string) {
	s.Parameters = append(s.Parameters, rtl.Parameter{Name: name, Value: value})
}

// Direction looks up the cached direction of a named port, returning false
// if the port is not known.
func (s *SubmoduleRecord) Direction(name string) (rtl.Direction, bool) {
	for _, p := range s.Ports {
		if p.Name == name {
			return p.Dir, true
		}
	}

	return rtl.In, false
}

// Manager is the path-scoped registry: a name→id directory plus cached
// submodule port/parameter signatures.  One Manager exists per filesystem
// path for the lifetime of the process (§3.4, §5).
type Manager struct {
	mu sync.Mutex

	path     string
	attrs    map[ModuleID]*Attributes
	byName   map[string]ModuleID
	subs     map[string]*SubmoduleRecord
	free     *bitset.BitSet
	nextID   ModuleID
	dirty    bool
	lgraphs  map[string]any
}

var (
	managersMu sync.Mutex
	managers   = make(map[string]*Manager)
)

// Instance returns the process-wide singleton Manager for path, creating
// (and loading) it on first access.  Two references obtained for the same
// path always share state; references for different paths never link.
func Instance(path string) *Manager {
	managersMu.Lock()
	defer managersMu.Unlock()

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	if m, ok := managers[abs]; ok {
		return m
	}

	m := &Manager{
		path:    abs,
		attrs:   make(map[ModuleID]*Attributes),
		byName:  make(map[string]ModuleID),
		subs:    make(map[string]*SubmoduleRecord),
		free:    bitset.New(0),
		nextID:  1,
		lgraphs: make(map[string]any),
	}

	m.load()

	managers[abs] = m

	return m
}

// Path returns the filesystem path this Manager is scoped to.
func (m *Manager) Path() string {
	return m.path
}

// AddName registers name if not already present, returning its stable id.
// Recycled ids (freed by a prior deletion) are reused before the id space
// is grown, keeping ids dense.
func (m *Manager) AddName(name string) ModuleID {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id, ok := m.byName[name]; ok {
		return id
	}

	var id ModuleID

	if next, ok := m.free.NextSet(0); ok {
		id = ModuleID(next)
		m.free.Clear(uint(next))
	} else {
		id = m.nextID
		m.nextID++
	}

	m.attrs[id] = &Attributes{Name: name, Version: 0, OpenCount: 1}
	m.byName[name] = id
	m.dirty = true

	return id
}

// GetID returns the id of a previously-registered name, or 0 if unknown.
func (m *Manager) GetID(name string) ModuleID {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.byName[name]
}

// Rename mutates the registered name of id.  Fatal if id is unknown.
func (m *Manager) Rename(id ModuleID, newName string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	attr, ok := m.attrs[id]
	if !ok {
		panic(fmt.Sprintf("registry: Rename of unregistered id %d", id))
	}

	delete(m.byName, attr.Name)
	attr.Name = newName
	m.byName[newName] = id
	m.dirty = true
}

// GetVersion returns the stored version of id, or 0 if id is not a
// currently-valid (registered) id.
//
// The original get_version() returned 0 exactly when the id *was* valid
// (size() >= lgid), which reads as inverted from its evident intent.  This
// implementation returns the stored version for valid ids and 0 for invalid
// ones -- the behaviour almost certainly intended.
func (m *Manager) GetVersion(id ModuleID) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	if attr, ok := m.attrs[id]; ok {
		return attr.Version
	}

	return 0
}

// Delete removes id's registration, recycling its id for reuse by a future
// AddName.
func (m *Manager) Delete(id ModuleID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	attr, ok := m.attrs[id]
	if !ok {
		return
	}

	delete(m.byName, attr.Name)
	delete(m.attrs, id)
	delete(m.subs, attr.Name)
	m.free.Set(uint(id))
	m.dirty = true
}

// ResetSub atomically clears and re-opens the port/parameter record for
// name, returning a handle on which AddInputPin/AddOutputPin/AddParameter
// append in declaration order.
func (m *Manager) ResetSub(name, sourceFile string) *SubmoduleRecord {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec := &SubmoduleRecord{SourceFile: sourceFile}
	m.subs[name] = rec
	m.dirty = true

	return rec
}

// Sub returns the cached submodule record for name, or nil if none exists.
func (m *Manager) Sub(name string) *SubmoduleRecord {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.subs[name]
}

// RegisterLGraph associates an opaque downstream LGraph handle with name.
// LGraph construction itself is out of scope (§1); this is purely a
// name-keyed slot for whatever downstream pass wants to stash there.
func (m *Manager) RegisterLGraph(name string, lg any) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lgraphs[name] = lg
	m.dirty = true
}

// UnregisterLGraph removes any LGraph handle registered under name.
func (m *Manager) UnregisterLGraph(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.lgraphs, name)
	m.dirty = true
}

// FindLGraph looks up a previously registered LGraph handle in the registry
// scoped to path (creating that path's Manager if none exists yet); handles
// registered under a different path are never found.
func FindLGraph(path, name string) (any, bool) {
	m := Instance(path)

	m.mu.Lock()
	defer m.mu.Unlock()

	lg, ok := m.lgraphs[name]

	return lg, ok
}

// Sync is the durability barrier: if dirty, rewrites the backing text file
// atomically (write-to-temp, then rename).
func (m *Manager) Sync() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.dirty {
		return nil
	}

	if err := os.MkdirAll(m.path, 0o755); err != nil {
		return fmt.Errorf("registry: sync: %w", err)
	}

	final := filepath.Join(m.path, LibraryFile)
	tmp := final + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("registry: sync: %w", err)
	}

	w := bufio.NewWriter(f)

	ids := make([]int, 0, len(m.attrs))
	for id := range m.attrs {
		ids = append(ids, int(id))
	}

	sort.Ints(ids)

	for _, id := range ids {
		attr := m.attrs[ModuleID(id)]
		if _, err := fmt.Fprintf(w, "%d %s %d\n", id, attr.Name, attr.Version); err != nil {
			_ = f.Close()
			return fmt.Errorf("registry: sync: %w", err)
		}
	}

	if err := w.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("registry: sync: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("registry: sync: %w", err)
	}

	if err := os.Rename(tmp, final); err != nil {
		return fmt.Errorf("registry: sync: %w", err)
	}

	m.dirty = false

	return nil
}

// load populates attrs/byName/nextID/free from the backing text file, if
// one exists.  Missing ids (gaps between 1 and the highest seen id) are
// recycled into the free list.
func (m *Manager) load() {
	data, err := os.ReadFile(filepath.Join(m.path, LibraryFile))
	if err != nil {
		return
	}

	maxID := ModuleID(0)
	scanner := bufio.NewScanner(strings.NewReader(string(data)))

	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) != 3 {
			continue
		}

		id64, err := strconv.ParseUint(fields[0], 10, 32)
		if err != nil {
			continue
		}

		version, err := strconv.Atoi(fields[2])
		if err != nil {
			continue
		}

		id := ModuleID(id64)
		m.attrs[id] = &Attributes{Name: fields[1], Version: version, OpenCount: 0}
		m.byName[fields[1]] = id

		if id > maxID {
			maxID = id
		}
	}

	m.nextID = maxID + 1

	m.free = bitset.New(uint(m.nextID))
	for id := ModuleID(1); id < m.nextID; id++ {
		if _, ok := m.attrs[id]; !ok {
			m.free.Set(uint(id))
		}
	}
}

// reset tears down the process-wide singleton map.  Intended for tests,
// which must obtain a fresh Manager per case (§9's design note on global
// registry singletons).
func reset() {
	managersMu.Lock()
	defer managersMu.Unlock()

	managers = make(map[string]*Manager)
}
