package typeflat

import (
	"errors"
	"testing"

	"github.com/openhdl/lnast-core/pkg/rtl"
)

func TestFlatten_Scalar(t *testing.T) {
	f := New()

	leaves, err := f.Flatten("a", rtl.In, rtl.UInt{Width: 8})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(leaves) != 1 || leaves[0] != (Leaf{Path: "a", Dir: rtl.In, Width: 8, Signed: false}) {
		t.Fatalf("unexpected leaves: %+v", leaves)
	}
}

func TestFlatten_BundleWithFlip(t *testing.T) {
	f := New()

	typ := rtl.Bundle{Fields: []rtl.BundleField{
		{Name: "valid", Type: rtl.UInt{Width: 1}, Flipped: false},
		{Name: "ready", Type: rtl.UInt{Width: 1}, Flipped: true},
	}}

	leaves, err := f.Flatten("io", rtl.In, typ)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(leaves) != 2 {
		t.Fatalf("expected 2 leaves, got %d", len(leaves))
	}

	if leaves[0].Path != "io.valid" || leaves[0].Dir != rtl.In {
		t.Fatalf("unexpected valid leaf: %+v", leaves[0])
	}

	if leaves[1].Path != "io.ready" || leaves[1].Dir != rtl.Out {
		t.Fatalf("unexpected ready leaf (flip should invert direction): %+v", leaves[1])
	}
}

func TestFlatten_Vector(t *testing.T) {
	f := New()

	typ := rtl.Vector{Elem: rtl.UInt{Width: 4}, Size: 2}

	leaves, err := f.Flatten("v", rtl.Out, typ)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantPaths := []string{"v", "v[0]", "v[1]"}
	if len(leaves) != len(wantPaths) {
		t.Fatalf("expected %d leaves, got %d", len(wantPaths), len(leaves))
	}

	for i, p := range wantPaths {
		if leaves[i].Path != p {
			t.Fatalf("leaf %d: got path %q, want %q", i, leaves[i].Path, p)
		}
	}
}

func TestFlatten_AsyncResetRecorded(t *testing.T) {
	f := New()

	if _, err := f.Flatten("rst", rtl.In, rtl.AsyncResetKind{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(f.AsyncResets) != 1 || f.AsyncResets[0] != "rst" {
		t.Fatalf("expected async reset set to record \"rst\", got %v", f.AsyncResets)
	}
}

func TestFlatten_FixedUnsupported(t *testing.T) {
	f := New()

	_, err := f.Flatten("x", rtl.In, rtl.Fixed{Width: 8, BinaryPoint: 2, Signed: true})
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}
}

func TestFlatten_AnalogUnsupported(t *testing.T) {
	f := New()

	_, err := f.Flatten("x", rtl.In, rtl.Analog{Width: 8})
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}
}
