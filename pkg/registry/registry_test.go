package registry

import (
	"testing"

	"github.com/openhdl/lnast-core/pkg/rtl"
)

func freshInstance(t *testing.T) *Manager {
	t.Helper()
	reset()
	return Instance(t.TempDir())
}

func TestAddName_IdempotentAndStable(t *testing.T) {
	m := freshInstance(t)

	id1 := m.AddName("adder")
	id2 := m.AddName("adder")

	if id1 != id2 {
		t.Fatalf("expected stable id across repeated AddName, got %d and %d", id1, id2)
	}

	if id1 == 0 {
		t.Fatalf("expected non-zero id")
	}
}

func TestGetID_UnknownReturnsZero(t *testing.T) {
	m := freshInstance(t)

	if id := m.GetID("nope"); id != 0 {
		t.Fatalf("expected 0 for unknown name, got %d", id)
	}
}

func TestDelete_RecyclesID(t *testing.T) {
	m := freshInstance(t)

	id1 := m.AddName("a")
	m.Delete(id1)

	id2 := m.AddName("b")
	if id2 != id1 {
		t.Fatalf("expected recycled id %d to be reused, got %d", id1, id2)
	}
}

func TestInstance_SharedAcrossSamePath(t *testing.T) {
	reset()

	dir := t.TempDir()
	m1 := Instance(dir)
	m2 := Instance(dir)

	id := m1.AddName("shared")
	if m2.GetID("shared") != id {
		t.Fatalf("expected second Instance() for the same path to observe the same state")
	}
}

func TestSync_RoundTripsThroughBackingFile(t *testing.T) {
	reset()

	dir := t.TempDir()
	m1 := Instance(dir)
	id := m1.AddName("persisted")

	if err := m1.Sync(); err != nil {
		t.Fatalf("unexpected Sync error: %v", err)
	}

	reset()

	m2 := Instance(dir)
	if got := m2.GetID("persisted"); got != id {
		t.Fatalf("expected reloaded registry to recover id %d, got %d", id, got)
	}
}

func TestGetVersion_ZeroForUnregistered(t *testing.T) {
	m := freshInstance(t)

	if v := m.GetVersion(ModuleID(999)); v != 0 {
		t.Fatalf("expected 0 for unregistered id, got %d", v)
	}
}

func TestResetSub_PortDirectory(t *testing.T) {
	m := freshInstance(t)

	rec := m.ResetSub("adder", "adder.fir")
	rec.AddInputPin("a", 8, false)
	rec.AddInputPin("b", 8, false)
	rec.AddOutputPin("sum", 9, false)

	got := m.Sub("adder")
	if got == nil || len(got.Ports) != 3 {
		t.Fatalf("expected 3 cached ports, got %+v", got)
	}

	if dir, ok := got.Direction("sum"); !ok || dir != rtl.Out {
		t.Fatalf("expected sum to be cached as Out, got %v ok=%v", dir, ok)
	}
}

func TestRegisterAndFindLGraph(t *testing.T) {
	reset()

	dir := t.TempDir()
	m := Instance(dir)
	m.RegisterLGraph("top", 42)

	lg, ok := FindLGraph(dir, "top")
	if !ok || lg.(int) != 42 {
		t.Fatalf("expected to find registered lgraph, got %v ok=%v", lg, ok)
	}

	m.UnregisterLGraph("top")

	if _, ok := FindLGraph(dir, "top"); ok {
		t.Fatalf("expected lgraph to be gone after UnregisterLGraph")
	}
}
