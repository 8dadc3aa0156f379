package bitwidth

import (
	"testing"

	"github.com/openhdl/lnast-core/pkg/util/assert"
)

func TestSetUbits_Exact(t *testing.T) {
	for n := uint(1); n <= 63; n++ {
		var r Range

		r.SetUbits(n)

		if r.Overflow {
			t.Fatalf("SetUbits(%d): expected exact mode", n)
		}

		if got := r.GetBits(); got != n {
			t.Fatalf("SetUbits(%d): GetBits() = %d, want %d", n, got, n)
		}
	}
}

func TestSetSbits_Exact(t *testing.T) {
	for n := uint(1); n <= 63; n++ {
		var r Range

		r.SetSbits(n)

		if got := r.GetBits(); got != n {
			t.Fatalf("SetSbits(%d): GetBits() = %d, want %d", n, got, n)
		}
	}
}

func TestSetUbits_Overflow(t *testing.T) {
	var r Range

	r.SetUbits(128)

	if !r.Overflow {
		t.Fatalf("expected overflow mode for 128 bits")
	}

	if r.Max != 128 || r.Min != 0 {
		t.Fatalf("unexpected bounds: %+v", r)
	}
}

func TestSetUbits_Zero(t *testing.T) {
	var r Range

	r.SetUbits(0)

	if !r.Overflow || r.Max != unboundedMax || r.Min != unboundedMin {
		t.Fatalf("unexpected unknown range: %+v", r)
	}
}

func TestGetBits_ExactNonNegative(t *testing.T) {
	var r Range

	r.SetRange(0, 15)

	if got := r.GetBits(); got != 4 {
		t.Fatalf("GetBits() = %d, want 4", got)
	}
}

func TestGetBits_ExactNegativeExtraBit(t *testing.T) {
	var r Range

	r.SetRange(-9, 15)

	if got := r.GetBits(); got != 5 {
		t.Fatalf("GetBits() = %d, want 5", got)
	}

	r.SetRange(-8, 15)

	if got := r.GetBits(); got != 5 {
		t.Fatalf("GetBits() = %d, want 5", got)
	}
}

func TestSetNarrowerRange_PanicsOnWiden(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic when widening an exact range")
		}
	}()

	var r Range

	r.SetRange(0, 15)
	r.SetNarrowerRange(0, 16)
}

func TestFromConst(t *testing.T) {
	r := FromConst(42)

	if r.Overflow || r.Min != 42 || r.Max != 42 {
		t.Fatalf("unexpected range for constant: %+v", r)
	}
}

func TestGetBits_AssertEqual(t *testing.T) {
	var r Range

	r.SetRange(0, 15)

	// GetBits returns uint; exercise assert.Equal's int/uint64 cross-comparison
	// so a literal int expectation doesn't need an explicit cast.
	assert.Equal(t, 4, r.GetBits())
}
