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

// Package typeflat recursively unfolds an RTL type tree (bundles, vectors,
// clocks/resets, scalars) into a flat, ordered sequence of named leaves
// carrying direction and sign (§4.4).  It is used for module ports, wires,
// and register declarations; memory data types are not flattened.
package typeflat

import (
	"errors"
	"fmt"

	"github.com/openhdl/lnast-core/pkg/rtl"
)

// ErrUnsupportedType is returned (wrapped with the offending path) when the
// flattener encounters a Fixed or Analog type.
var ErrUnsupportedType = errors.New("typeflat: unsupported port type")

// Leaf is one flattened scalar leaf of a (possibly aggregate) RTL type.
// Width 0 means "inferred" (no declared width).
type Leaf struct {
	Path   string
	Dir    rtl.Direction
	Width  int
	Signed bool
}

// Flattener accumulates the set of paths that passed through an
// AsyncResetKind leaf, across however many Flatten calls share it.  A fresh
// Flattener should be used per module, matching the per-module
// async-reset-name set of §4.5.1.
type Flattener struct {
	AsyncResets []string
}

// New constructs a Flattener with an empty async-reset set.
func New() *Flattener {
	return &Flattener{}
}

// Flatten recursively expands t, rooted at path with declared direction dir,
// into an ordered sequence of leaves.  Order matches declaration order
// exactly, which the Module Registry (§4.3) relies upon.
func (f *Flattener) Flatten(path string, dir rtl.Direction, t rtl.Type) ([]Leaf, error) {
	switch v := t.(type) {
	case rtl.UInt:
		return []Leaf{{Path: path, Dir: dir, Width: v.Width, Signed: false}}, nil
	case rtl.SInt:
		return []Leaf{{Path: path, Dir: dir, Width: v.Width, Signed: true}}, nil
	case rtl.ClockKind:
		return []Leaf{{Path: path, Dir: dir, Width: 1, Signed: false}}, nil
	case rtl.ResetKind:
		return []Leaf{{Path: path, Dir: dir, Width: 1, Signed: false}}, nil
	case rtl.AsyncResetKind:
		f.AsyncResets = append(f.AsyncResets, path)
		return []Leaf{{Path: path, Dir: dir, Width: 1, Signed: false}}, nil
	case rtl.Bundle:
		return f.flattenBundle(path, dir, v)
	case rtl.Vector:
		return f.flattenVector(path, dir, v)
	case rtl.Fixed, rtl.Analog:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, path)
	default:
		return nil, fmt.Errorf("%w: %s (unrecognised type)", ErrUnsupportedType, path)
	}
}

func (f *Flattener) flattenBundle(path string, dir rtl.Direction, b rtl.Bundle) ([]Leaf, error) {
	var leaves []Leaf

	for _, field := range b.Fields {
		fieldDir := dir
		if field.Flipped {
			fieldDir = dir.Flip()
		}

		sub, err := f.Flatten(path+"."+field.Name, fieldDir, field.Type)
		if err != nil {
			return nil, err
		}

		leaves = append(leaves, sub...)
	}

	return leaves, nil
}

func (f *Flattener) flattenVector(path string, dir rtl.Direction, v rtl.Vector) ([]Leaf, error) {
	// Marker leaf records the vector itself before its elements.
	leaves := []Leaf{{Path: path, Dir: dir, Width: 0, Signed: false}}

	for i := 0; i < v.Size; i++ {
		sub, err := f.Flatten(fmt.Sprintf("%s[%d]", path, i), dir, v.Elem)
		if err != nil {
			return nil, err
		}

		leaves = append(leaves, sub...)
	}

	return leaves, nil
}
