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
package rtl

import (
	"fmt"

	"github.com/segmentio/encoding/json"
)

// DecodeCircuit decodes a JSON-encoded Circuit. The actual upstream wire
// codec (§6) is a generated protobuf decoder and out of scope for this
// module; this is the CLI-facing stand-in used for --files input, carrying
// the same Type/Expr/Statement sum types the lowering engine consumes.
func DecodeCircuit(data []byte) (Circuit, error) {
	var w circuitWire
	if err := json.Unmarshal(data, &w); err != nil {
		return Circuit{}, fmt.Errorf("rtl: decode circuit: %w", err)
	}

	modules := make([]Module, len(w.Modules))

	for i, mw := range w.Modules {
		m, err := mw.toModule()
		if err != nil {
			return Circuit{}, fmt.Errorf("rtl: decode circuit: module %d: %w", i, err)
		}

		modules[i] = m
	}

	return Circuit{Top: w.Top, Modules: modules}, nil
}

// circuitWire and its nested wire types mirror Circuit/Module/Type/Expr/
// Statement as a discriminated union: a "kind" tag plus that variant's own
// fields inlined into the same JSON object.
type circuitWire struct {
	Top     string        `json:"top"`
	Modules []moduleWire  `json:"modules"`
}

type moduleWire struct {
	Kind       string         `json:"kind"`
	Name       string         `json:"name"`
	Ports      []portWire     `json:"ports,omitempty"`
	Statements []json.RawMessage `json:"statements,omitempty"`
	Parameters []Parameter    `json:"parameters,omitempty"`
}

type portWire struct {
	Name string    `json:"name"`
	Type json.RawMessage `json:"type"`
	Dir  Direction `json:"dir"`
}

func (p portWire) toPort() (Port, error) {
	t, err := decodeType(p.Type)
	if err != nil {
		return Port{}, err
	}

	return Port{Name: p.Name, Type: t, Dir: p.Dir}, nil
}

func (mw moduleWire) toModule() (Module, error) {
	switch mw.Kind {
	case "external":
		ports, err := decodePorts(mw.Ports)
		if err != nil {
			return nil, err
		}

		return ExternalModule{DefinedName: mw.Name, Ports: ports, Parameters: mw.Parameters}, nil
	case "user", "":
		ports, err := decodePorts(mw.Ports)
		if err != nil {
			return nil, err
		}

		stmts := make([]Statement, len(mw.Statements))

		for i, sw := range mw.Statements {
			s, err := decodeStatement(sw)
			if err != nil {
				return nil, fmt.Errorf("statement %d: %w", i, err)
			}

			stmts[i] = s
		}

		return UserModule{Id: mw.Name, Ports: ports, Statements: stmts}, nil
	default:
		return nil, fmt.Errorf("unknown module kind %q", mw.Kind)
	}
}

func decodePorts(ports []portWire) ([]Port, error) {
	out := make([]Port, len(ports))

	for i, p := range ports {
		decoded, err := p.toPort()
		if err != nil {
			return nil, fmt.Errorf("port %d: %w", i, err)
		}

		out[i] = decoded
	}

	return out, nil
}

// --- Type ---

type typeWire struct {
	Kind        string          `json:"kind"`
	Width       int             `json:"width,omitempty"`
	Signed      bool            `json:"signed,omitempty"`
	BinaryPoint int             `json:"binaryPoint,omitempty"`
	Fields      []bundleFieldWire `json:"fields,omitempty"`
	Elem        json.RawMessage `json:"elem,omitempty"`
	Size        int             `json:"size,omitempty"`
}

type bundleFieldWire struct {
	Name    string          `json:"name"`
	Type    json.RawMessage `json:"type"`
	Flipped bool            `json:"flipped,omitempty"`
}

func decodeType(data json.RawMessage) (Type, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("rtl: missing type")
	}

	var w typeWire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("rtl: decode type: %w", err)
	}

	switch w.Kind {
	case "uint":
		return UInt{Width: w.Width}, nil
	case "sint":
		return SInt{Width: w.Width}, nil
	case "clock":
		return ClockKind{}, nil
	case "reset":
		return ResetKind{}, nil
	case "async_reset":
		return AsyncResetKind{}, nil
	case "bundle":
		fields := make([]BundleField, len(w.Fields))

		for i, f := range w.Fields {
			t, err := decodeType(f.Type)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", f.Name, err)
			}

			fields[i] = BundleField{Name: f.Name, Type: t, Flipped: f.Flipped}
		}

		return Bundle{Fields: fields}, nil
	case "vector":
		elem, err := decodeType(w.Elem)
		if err != nil {
			return nil, err
		}

		return Vector{Elem: elem, Size: w.Size}, nil
	case "fixed":
		return Fixed{Width: w.Width, BinaryPoint: w.BinaryPoint, Signed: w.Signed}, nil
	case "analog":
		return Analog{Width: w.Width}, nil
	default:
		return nil, fmt.Errorf("unknown type kind %q", w.Kind)
	}
}

// --- Expr ---

type exprWire struct {
	Kind      string          `json:"kind"`
	Id        string          `json:"id,omitempty"`
	Expr      json.RawMessage `json:"expr,omitempty"`
	Name      string          `json:"name,omitempty"`
	Index     int             `json:"index,omitempty"`
	IndexExpr json.RawMessage `json:"indexExpr,omitempty"`
	Op        PrimOpKind      `json:"op,omitempty"`
	Args      []json.RawMessage `json:"args,omitempty"`
	Constants []int64         `json:"constants,omitempty"`
	Cond      json.RawMessage `json:"cond,omitempty"`
	TrueValue json.RawMessage `json:"trueValue,omitempty"`
	FalseValue json.RawMessage `json:"falseValue,omitempty"`
	Value     json.RawMessage `json:"value,omitempty"`
	Bytes     []byte          `json:"bytes,omitempty"`
	Negative  bool            `json:"negative,omitempty"`
	Width     int             `json:"width,omitempty"`
}

func decodeExpr(data json.RawMessage) (Expr, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var w exprWire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("rtl: decode expr: %w", err)
	}

	switch w.Kind {
	case "ref":
		return Reference{Id: w.Id}, nil
	case "subfield":
		e, err := decodeExprRequired(w.Expr)
		if err != nil {
			return nil, err
		}

		return SubField{Expr: e, Name: w.Name}, nil
	case "subindex":
		e, err := decodeExprRequired(w.Expr)
		if err != nil {
			return nil, err
		}

		return SubIndex{Expr: e, Index: w.Index}, nil
	case "subaccess":
		e, err := decodeExprRequired(w.Expr)
		if err != nil {
			return nil, err
		}

		idx, err := decodeExprRequired(w.IndexExpr)
		if err != nil {
			return nil, err
		}

		return SubAccess{Expr: e, Index: idx}, nil
	case "primop":
		args := make([]Expr, len(w.Args))

		for i, a := range w.Args {
			arg, err := decodeExprRequired(a)
			if err != nil {
				return nil, fmt.Errorf("arg %d: %w", i, err)
			}

			args[i] = arg
		}

		return PrimOp{Op: w.Op, Args: args, Constants: w.Constants}, nil
	case "mux":
		cond, err := decodeExprRequired(w.Cond)
		if err != nil {
			return nil, err
		}

		t, err := decodeExprRequired(w.TrueValue)
		if err != nil {
			return nil, err
		}

		f, err := decodeExprRequired(w.FalseValue)
		if err != nil {
			return nil, err
		}

		return Mux{Cond: cond, TrueValue: t, FalseValue: f}, nil
	case "validif":
		cond, err := decodeExprRequired(w.Cond)
		if err != nil {
			return nil, err
		}

		v, err := decodeExprRequired(w.Value)
		if err != nil {
			return nil, err
		}

		return ValidIf{Cond: cond, Value: v}, nil
	case "uint_lit":
		return UIntLiteral{Value: BigInt{Bytes: w.Bytes, Negative: w.Negative}, Width: w.Width}, nil
	case "sint_lit":
		return SIntLiteral{Value: BigInt{Bytes: w.Bytes, Negative: w.Negative}, Width: w.Width}, nil
	default:
		return nil, fmt.Errorf("unknown expr kind %q", w.Kind)
	}
}

func decodeExprRequired(data json.RawMessage) (Expr, error) {
	e, err := decodeExpr(data)
	if err != nil {
		return nil, err
	}

	if e == nil {
		return nil, fmt.Errorf("rtl: missing required expression")
	}

	return e, nil
}

// --- Statement ---

type statementWire struct {
	Kind           string            `json:"kind"`
	Name           string            `json:"name,omitempty"`
	Type           json.RawMessage   `json:"type,omitempty"`
	Clock          json.RawMessage   `json:"clock,omitempty"`
	Reset          json.RawMessage   `json:"reset,omitempty"`
	Init           json.RawMessage   `json:"init,omitempty"`
	AsyncReset     bool              `json:"asyncReset,omitempty"`
	Id             string            `json:"id,omitempty"`
	Value          json.RawMessage   `json:"value,omitempty"`
	Lhs            json.RawMessage   `json:"lhs,omitempty"`
	Rhs            json.RawMessage   `json:"rhs,omitempty"`
	Target         json.RawMessage   `json:"target,omitempty"`
	Cond           json.RawMessage   `json:"cond,omitempty"`
	Conseq         []json.RawMessage `json:"conseq,omitempty"`
	Alt            []json.RawMessage `json:"alt,omitempty"`
	En             json.RawMessage   `json:"en,omitempty"`
	ExitCode       int               `json:"exitCode,omitempty"`
	Format         string            `json:"format,omitempty"`
	Args           []json.RawMessage `json:"args,omitempty"`
	ModuleName     string            `json:"moduleName,omitempty"`
	DataType       json.RawMessage   `json:"dataType,omitempty"`
	Depth          int               `json:"depth,omitempty"`
	Readers        []string          `json:"readers,omitempty"`
	Writers        []string          `json:"writers,omitempty"`
	Readwriters    []string          `json:"readwriters,omitempty"`
	ReadLatency    int               `json:"readLatency,omitempty"`
	WriteLatency   int               `json:"writeLatency,omitempty"`
	MemoryId       string            `json:"memoryId,omitempty"`
	Dir            MemPortDirection  `json:"dir,omitempty"`
	Index          json.RawMessage   `json:"index,omitempty"`
	Exprs          []json.RawMessage `json:"exprs,omitempty"`
}

func decodeStatement(data json.RawMessage) (Statement, error) {
	var w statementWire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("rtl: decode statement: %w", err)
	}

	switch w.Kind {
	case "wire":
		t, err := decodeType(w.Type)
		if err != nil {
			return nil, err
		}

		return Wire{Name: w.Name, Type: t}, nil
	case "register":
		t, err := decodeType(w.Type)
		if err != nil {
			return nil, err
		}

		clk, err := decodeExpr(w.Clock)
		if err != nil {
			return nil, err
		}

		reset, err := decodeExpr(w.Reset)
		if err != nil {
			return nil, err
		}

		init, err := decodeExpr(w.Init)
		if err != nil {
			return nil, err
		}

		return Register{Name: w.Name, Type: t, Clock: clk, Reset: reset, Init: init, AsyncReset: w.AsyncReset}, nil
	case "node":
		v, err := decodeExprRequired(w.Value)
		if err != nil {
			return nil, err
		}

		return Node{Id: w.Id, Value: v}, nil
	case "connect", "partial_connect":
		lhs, err := decodeExprRequired(w.Lhs)
		if err != nil {
			return nil, err
		}

		rhs, err := decodeExprRequired(w.Rhs)
		if err != nil {
			return nil, err
		}

		if w.Kind == "partial_connect" {
			return PartialConnect{Lhs: lhs, Rhs: rhs}, nil
		}

		return Connect{Lhs: lhs, Rhs: rhs}, nil
	case "is_invalid":
		t, err := decodeExprRequired(w.Target)
		if err != nil {
			return nil, err
		}

		return IsInvalid{Target: t}, nil
	case "skip":
		return Skip{}, nil
	case "when":
		cond, err := decodeExprRequired(w.Cond)
		if err != nil {
			return nil, err
		}

		conseq, err := decodeStatements(w.Conseq)
		if err != nil {
			return nil, err
		}

		var alt []Statement
		if w.Alt != nil {
			alt, err = decodeStatements(w.Alt)
			if err != nil {
				return nil, err
			}
		}

		return When{Cond: cond, Conseq: conseq, Alt: alt}, nil
	case "stop":
		clk, err := decodeExprRequired(w.Clock)
		if err != nil {
			return nil, err
		}

		en, err := decodeExprRequired(w.En)
		if err != nil {
			return nil, err
		}

		return Stop{Clock: clk, En: en, ExitCode: w.ExitCode}, nil
	case "printf":
		clk, err := decodeExprRequired(w.Clock)
		if err != nil {
			return nil, err
		}

		en, err := decodeExprRequired(w.En)
		if err != nil {
			return nil, err
		}

		args := make([]Expr, len(w.Args))

		for i, a := range w.Args {
			arg, err := decodeExprRequired(a)
			if err != nil {
				return nil, fmt.Errorf("printf arg %d: %w", i, err)
			}

			args[i] = arg
		}

		return Printf{Clock: clk, En: en, Format: w.Format, Args: args}, nil
	case "instance":
		return Instance{Name: w.Name, ModuleName: w.ModuleName}, nil
	case "memory", "cmemory":
		dt, err := decodeType(w.DataType)
		if err != nil {
			return nil, err
		}

		readers := make([]MemReaderPort, len(w.Readers))
		for i, id := range w.Readers {
			readers[i] = MemReaderPort{Id: id}
		}

		writers := make([]MemWriterPort, len(w.Writers))
		for i, id := range w.Writers {
			writers[i] = MemWriterPort{Id: id}
		}

		readwriters := make([]MemReadwriterPort, len(w.Readwriters))
		for i, id := range w.Readwriters {
			readwriters[i] = MemReadwriterPort{Id: id}
		}

		if w.Kind == "cmemory" {
			return CMemory{Name: w.Name, DataType: dt, Depth: w.Depth, Readers: readers, Writers: writers, Readwriters: readwriters}, nil
		}

		return Memory{
			Name: w.Name, DataType: dt, Depth: w.Depth,
			Readers: readers, Writers: writers, Readwriters: readwriters,
			ReadLatency: w.ReadLatency, WriteLatency: w.WriteLatency,
		}, nil
	case "memoryport":
		idx, err := decodeExpr(w.Index)
		if err != nil {
			return nil, err
		}

		return MemoryPort{Id: w.Id, MemoryId: w.MemoryId, Dir: w.Dir, Index: idx}, nil
	case "attach":
		exprs := make([]Expr, len(w.Exprs))

		for i, e := range w.Exprs {
			ex, err := decodeExprRequired(e)
			if err != nil {
				return nil, fmt.Errorf("attach expr %d: %w", i, err)
			}

			exprs[i] = ex
		}

		return Attach{Exprs: exprs}, nil
	default:
		return nil, fmt.Errorf("unknown statement kind %q", w.Kind)
	}
}

func decodeStatements(raw []json.RawMessage) ([]Statement, error) {
	out := make([]Statement, len(raw))

	for i, r := range raw {
		s, err := decodeStatement(r)
		if err != nil {
			return nil, fmt.Errorf("statement %d: %w", i, err)
		}

		out[i] = s
	}

	return out, nil
}
