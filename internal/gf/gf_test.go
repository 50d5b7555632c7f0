package gf

import "testing"

func TestInvModRoundTrip(t *testing.T) {
	for _, a := range []uint64{1, 2, 3, 12345, T - 1} {
		inv := InvMod(a)
		if got := Mul(a, inv); got != 1 {
			t.Fatalf("InvMod(%d)=%d, a*inv=%d, want 1", a, inv, got)
		}
	}
}

func TestPowModMatchesRepeatedMul(t *testing.T) {
	base := uint64(7)
	want := uint64(1)
	for exp := uint64(0); exp < 20; exp++ {
		if got := PowMod(base, exp); got != want {
			t.Fatalf("PowMod(%d,%d)=%d, want %d", base, exp, got, want)
		}
		want = Mul(want, base)
	}
}

func TestSubVecInplaceLimit(t *testing.T) {
	dst := []uint64{10, 10, 10, 10}
	src := []uint64{1, 2, 3, 4}
	SubVecInplace(dst, src, 2)
	want := []uint64{9, 8, 10, 10}
	for i := range want {
		if dst[i] != want[i] {
			t.Fatalf("dst[%d]=%d, want %d", i, dst[i], want[i])
		}
	}
}

func TestSubVecInplaceNegativeWraps(t *testing.T) {
	dst := []uint64{0}
	src := []uint64{1}
	SubVecInplace(dst, src, -1)
	if dst[0] != T-1 {
		t.Fatalf("got %d, want %d", dst[0], T-1)
	}
}

func TestDivModInverse(t *testing.T) {
	a, b := uint64(1234), uint64(56)
	q := DivMod(a, b)
	if got := Mul(q, b); got != a%T {
		t.Fatalf("DivMod round trip failed: q*b=%d, want %d", got, a%T)
	}
}
