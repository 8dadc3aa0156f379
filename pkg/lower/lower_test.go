package lower

import (
	"testing"

	"github.com/openhdl/lnast-core/pkg/lnast"
	"github.com/openhdl/lnast-core/pkg/registry"
	"github.com/openhdl/lnast-core/pkg/rtl"
)

func children(tree *lnast.Tree, id lnast.NodeID) []lnast.NodeID {
	return tree.Children(id)
}

// findAssign returns the first top-level assign (or dp_assign, for an
// output-sigil LHS -- §3.2) child of parent whose LHS name equals lhs, if
// any.
func findAssign(tree *lnast.Tree, parent lnast.NodeID, lhs string) (lnast.NodeID, bool) {
	for _, c := range children(tree, parent) {
		if tree.GetType(c) != lnast.Assign && tree.GetType(c) != lnast.DpAssign {
			continue
		}

		kids := children(tree, c)
		if len(kids) > 0 && tree.GetName(kids[0]) == lhs {
			return c, true
		}
	}

	return lnast.NoNode, false
}

func findFuncCall(tree *lnast.Tree, parent lnast.NodeID, callee string) (lnast.NodeID, bool) {
	for _, c := range children(tree, parent) {
		if tree.GetType(c) == lnast.FuncCall && tree.GetName(c) == callee {
			return c, true
		}
	}

	return lnast.NoNode, false
}

func TestLower_SimpleAdder(t *testing.T) {
	circuit := rtl.Circuit{
		Top: "Add",
		Modules: []rtl.Module{
			rtl.UserModule{
				Id: "Add",
				Ports: []rtl.Port{
					{Name: "a", Type: rtl.UInt{Width: 8}, Dir: rtl.In},
					{Name: "b", Type: rtl.UInt{Width: 8}, Dir: rtl.In},
					{Name: "c", Type: rtl.UInt{Width: 8}, Dir: rtl.Out},
				},
				Statements: []rtl.Statement{
					rtl.Connect{
						Lhs: rtl.Reference{Id: "c"},
						Rhs: rtl.PrimOp{Op: rtl.OpAdd, Args: []rtl.Expr{rtl.Reference{Id: "a"}, rtl.Reference{Id: "b"}}},
					},
				},
			},
		},
	}

	trees, err := New(nil).LowerCircuit(circuit)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tree := trees["Add"]
	top := tree.GetRoot()
	stmts := tree.GetFirstChild(top)

	if _, ok := findAssign(tree, stmts, "$a.__ubits"); !ok {
		t.Fatalf("expected $a.__ubits assign")
	}

	if _, ok := findAssign(tree, stmts, "$b.__ubits"); !ok {
		t.Fatalf("expected $b.__ubits assign")
	}

	if _, ok := findAssign(tree, stmts, "%c.__ubits"); !ok {
		t.Fatalf("expected %%c.__ubits assign")
	}

	if n, ok := findAssign(tree, stmts, "%c.__ubits"); !ok || tree.GetType(n) != lnast.DpAssign {
		t.Fatalf("expected %%c.__ubits to be a dp_assign (output-sigil lhs)")
	}

	if n, ok := findAssign(tree, stmts, "$a.__ubits"); !ok || tree.GetType(n) != lnast.Assign {
		t.Fatalf("expected $a.__ubits to stay a plain assign (input-sigil lhs)")
	}

	fc, ok := findFuncCall(tree, stmts, "__fir_add")
	if !ok {
		t.Fatalf("expected __fir_add func_call")
	}

	kids := children(tree, fc)
	if len(kids) != 3 {
		t.Fatalf("expected 3 children (result, a, b), got %d", len(kids))
	}

	if tree.GetName(kids[0]) != "%c" || tree.GetName(kids[1]) != "$a" || tree.GetName(kids[2]) != "$b" {
		t.Fatalf("unexpected func_call operands: %v %v %v", tree.GetName(kids[0]), tree.GetName(kids[1]), tree.GetName(kids[2]))
	}
}

func TestLower_AsyncResetRegister(t *testing.T) {
	circuit := rtl.Circuit{
		Top: "M",
		Modules: []rtl.Module{
			rtl.UserModule{
				Id: "M",
				Statements: []rtl.Statement{
					rtl.Register{Name: "r", Type: rtl.UInt{Width: 4}, AsyncReset: true},
				},
			},
		},
	}

	trees, err := New(nil).LowerCircuit(circuit)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tree := trees["M"]
	stmts := tree.GetFirstChild(tree.GetRoot())

	if _, ok := findAssign(tree, stmts, "#r.__ubits"); !ok {
		t.Fatalf("expected #r.__ubits assign")
	}

	n, ok := findAssign(tree, stmts, "#r.__reset_async")
	if !ok {
		t.Fatalf("expected #r.__reset_async assign")
	}

	kids := children(tree, n)
	if tree.GetName(kids[1]) != "true" {
		t.Fatalf("expected reset_async value \"true\", got %q", tree.GetName(kids[1]))
	}
}

func TestLower_Mux(t *testing.T) {
	circuit := rtl.Circuit{
		Top: "M",
		Modules: []rtl.Module{
			rtl.UserModule{
				Id: "M",
				Ports: []rtl.Port{
					{Name: "s", Type: rtl.UInt{Width: 1}, Dir: rtl.In},
					{Name: "a", Type: rtl.UInt{Width: 8}, Dir: rtl.In},
					{Name: "b", Type: rtl.UInt{Width: 8}, Dir: rtl.In},
					{Name: "c", Type: rtl.UInt{Width: 8}, Dir: rtl.Out},
				},
				Statements: []rtl.Statement{
					rtl.Connect{
						Lhs: rtl.Reference{Id: "c"},
						Rhs: rtl.Mux{Cond: rtl.Reference{Id: "s"}, TrueValue: rtl.Reference{Id: "a"}, FalseValue: rtl.Reference{Id: "b"}},
					},
				},
			},
		},
	}

	trees, err := New(nil).LowerCircuit(circuit)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tree := trees["M"]
	stmts := tree.GetFirstChild(tree.GetRoot())

	pre, ok := findAssign(tree, stmts, "%c")
	if !ok {
		t.Fatalf("expected don't-care pre-assignment of %%c")
	}

	if tree.GetName(children(tree, pre)[1]) != "0b?" {
		t.Fatalf("expected %%c pre-assigned 0b?")
	}

	var ifNode lnast.NodeID

	found := false

	for _, c := range children(tree, stmts) {
		if tree.GetType(c) == lnast.If {
			ifNode = c
			found = true
		}
	}

	if !found {
		t.Fatalf("expected an if node for the mux")
	}

	kids := children(tree, ifNode)
	if len(kids) != 4 {
		t.Fatalf("expected if node with cstmts, cond, then, else; got %d children", len(kids))
	}

	if tree.GetType(kids[0]) != lnast.Cstmts || tree.GetType(kids[1]) != lnast.Cond || tree.GetType(kids[2]) != lnast.Stmts || tree.GetType(kids[3]) != lnast.Stmts {
		t.Fatalf("unexpected if node child type order")
	}

	if _, ok := findAssign(tree, kids[2], "%c"); !ok {
		t.Fatalf("expected %%c assigned from a in the then branch")
	}

	if _, ok := findAssign(tree, kids[3], "%c"); !ok {
		t.Fatalf("expected %%c assigned from b in the else branch")
	}
}

func TestLower_MemoryHoisting(t *testing.T) {
	circuit := rtl.Circuit{
		Top: "M",
		Modules: []rtl.Module{
			rtl.UserModule{
				Id: "M",
				Ports: []rtl.Port{
					{Name: "x", Type: rtl.UInt{Width: 1}, Dir: rtl.In},
				},
				Statements: []rtl.Statement{
					rtl.When{
						Cond: rtl.Reference{Id: "x"},
						Conseq: []rtl.Statement{
							rtl.Memory{
								Name:    "m",
								Depth:   4,
								Readers: []rtl.MemReaderPort{{Id: "r"}},
							},
						},
					},
				},
			},
		},
	}

	trees, err := New(nil).LowerCircuit(circuit)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tree := trees["M"]
	stmts := tree.GetFirstChild(tree.GetRoot())

	top := children(tree, stmts)

	memDeclIdx, ifIdx := -1, -1

	for i, c := range top {
		if tree.GetType(c) == lnast.Assign && tree.GetName(children(tree, c)[0]) == "m.__depth" {
			memDeclIdx = i
		}

		if tree.GetType(c) == lnast.If {
			ifIdx = i
		}
	}

	if memDeclIdx == -1 {
		t.Fatalf("expected hoisted m.__depth declaration")
	}

	if ifIdx == -1 {
		t.Fatalf("expected the when's if node")
	}

	if memDeclIdx >= ifIdx {
		t.Fatalf("expected memory declaration before the when's if, got decl@%d if@%d", memDeclIdx, ifIdx)
	}

	for _, suffix := range []string{"addr", "clk", "en"} {
		n, ok := findAssign(tree, stmts, "m_r_"+suffix)
		if !ok {
			t.Fatalf("expected top-scope placeholder m_r_%s", suffix)
		}

		if tree.GetName(children(tree, n)[1]) != "0" {
			t.Fatalf("expected m_r_%s placeholder to be literal 0", suffix)
		}
	}
}

func TestLower_InferredMemoryPort(t *testing.T) {
	build := func(readUses, writeUses []rtl.Statement) *lnast.Tree {
		circuit := rtl.Circuit{
			Top: "M",
			Modules: []rtl.Module{
				rtl.UserModule{
					Id: "M",
					Statements: append([]rtl.Statement{
						rtl.CMemory{Name: "m", Depth: 4},
						rtl.MemoryPort{Id: "p", MemoryId: "m", Dir: rtl.PortInfer, Index: rtl.Reference{Id: "idx"}},
					}, append(readUses, writeUses...)...),
				},
			},
		}

		trees, err := New(nil).LowerCircuit(circuit)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		return trees["M"]
	}

	readOnly := rtl.Node{Id: "n1", Value: rtl.SubField{Expr: rtl.SubField{Expr: rtl.Reference{Id: "m"}, Name: "p"}, Name: "data"}}
	writeOnly := rtl.Connect{
		Lhs: rtl.SubField{Expr: rtl.SubField{Expr: rtl.Reference{Id: "m"}, Name: "p"}, Name: "data"},
		Rhs: rtl.UIntLiteral{Value: rtl.BigInt{Bytes: []byte{0x01}}},
	}

	t.Run("read-only resolves to read", func(t *testing.T) {
		tree := build([]rtl.Statement{readOnly}, nil)
		stmts := tree.GetFirstChild(tree.GetRoot())

		if _, ok := findAssign(tree, stmts, "#m.p.__data"); ok {
			t.Fatalf("read-only port should not get a __data attribute")
		}

		if _, ok := findAssign(tree, stmts, "#m.p.__addr"); !ok {
			t.Fatalf("expected #m.p.__addr to be finalized")
		}
	})

	t.Run("write-only resolves to write", func(t *testing.T) {
		tree := build(nil, []rtl.Statement{writeOnly})
		stmts := tree.GetFirstChild(tree.GetRoot())

		if _, ok := findAssign(tree, stmts, "#m.p.__data"); !ok {
			t.Fatalf("expected write-only port to finalize a __data attribute")
		}
	})

	t.Run("unused port warns", func(t *testing.T) {
		eng := New(nil)

		circuit := rtl.Circuit{
			Top: "M",
			Modules: []rtl.Module{
				rtl.UserModule{
					Id: "M",
					Statements: []rtl.Statement{
						rtl.CMemory{Name: "m", Depth: 4},
						rtl.MemoryPort{Id: "p", MemoryId: "m", Dir: rtl.PortInfer, Index: rtl.Reference{Id: "idx"}},
					},
				},
			},
		}

		if _, err := eng.LowerCircuit(circuit); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		found := false

		for _, w := range eng.Warnings {
			if w == "memory port m.p declared INFER but never referenced" {
				found = true
			}
		}

		if !found {
			t.Fatalf("expected an unused-INFER-port warning, got %v", eng.Warnings)
		}
	})
}

// TestLower_RegistryWiring exercises C3 end-to-end through the lowering
// pipeline: lowering a circuit registers every module's name and port
// directory, so a later Sync() persists a non-empty library file.
func TestLower_RegistryWiring(t *testing.T) {
	reg := registry.Instance(t.TempDir())

	circuit := rtl.Circuit{
		Top: "Top",
		Modules: []rtl.Module{
			rtl.UserModule{
				Id: "Sub",
				Ports: []rtl.Port{
					{Name: "in", Type: rtl.UInt{Width: 8}, Dir: rtl.In},
					{Name: "out", Type: rtl.UInt{Width: 8}, Dir: rtl.Out},
				},
			},
			rtl.UserModule{
				Id: "Top",
				Statements: []rtl.Statement{
					rtl.Instance{Name: "s", ModuleName: "Sub"},
				},
			},
		},
	}

	if _, err := New(reg).LowerCircuit(circuit); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if reg.GetID("Sub") == 0 {
		t.Fatalf("expected Sub to be registered")
	}

	if reg.GetID("Top") == 0 {
		t.Fatalf("expected Top to be registered")
	}

	rec := reg.Sub("Sub")
	if rec == nil {
		t.Fatalf("expected Sub's port directory to be cached")
	}

	dir, ok := rec.Direction("out")
	if !ok || dir != rtl.Out {
		t.Fatalf("expected Sub.out cached as an output port, got %v %v", dir, ok)
	}

	dir, ok = rec.Direction("in")
	if !ok || dir != rtl.In {
		t.Fatalf("expected Sub.in cached as an input port, got %v %v", dir, ok)
	}

	if err := reg.Sync(); err != nil {
		t.Fatalf("unexpected sync error: %v", err)
	}
}

func TestLower_Attach_Unsupported(t *testing.T) {
	circuit := rtl.Circuit{
		Top: "M",
		Modules: []rtl.Module{
			rtl.UserModule{
				Id:         "M",
				Statements: []rtl.Statement{rtl.Attach{}},
			},
		},
	}

	if _, err := New(nil).LowerCircuit(circuit); err == nil {
		t.Fatalf("expected an error for Attach")
	}
}
