package recipient

import (
	"reflect"
	"testing"

	"github.com/geraldpeng6/ObliviousMessageRetrieval/internal/errs"
	"github.com/geraldpeng6/ObliviousMessageRetrieval/internal/gf"
)

// TestDecodeIndicesOMD1p is scenario S1: N=65536, K=1, pertinent={12345}.
func TestDecodeIndicesOMD1p(t *testing.T) {
	n := 65536
	decoded := make([]uint64, n/16)
	idx := 12345
	decoded[idx/16] |= 1 << uint(idx%16)

	got := DecodeIndicesOMD(decoded, n)
	want := []int{12345}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

// TestDecodeIndicesOMR2p is scenario S2: N=65536, K=3, pertinent={100,1000,30000}.
func TestDecodeIndicesOMR2p(t *testing.T) {
	n := 65536
	decoded := make([]uint64, n/16)
	want := []int{100, 1000, 30000}
	for _, idx := range want {
		decoded[idx/16] |= 1 << uint(idx%16)
	}

	got := DecodeIndicesOMR2(decoded, n)
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

// TestSolveGF is scenario S3: A=[[1,2],[3,4]], B=[[5,6],[7,8]],
// expected X=[[t-3,t-4],[4,5]].
func TestSolveGF(t *testing.T) {
	a := [][]uint64{{1, 2}, {3, 4}}
	b := [][]uint64{{5, 6}, {7, 8}}

	x, err := SolveGF(a, b)
	if err != nil {
		t.Fatalf("SolveGF: %v", err)
	}
	want := [][]uint64{{gf.T - 3, gf.T - 4}, {4, 5}}
	if !reflect.DeepEqual(x, want) {
		t.Fatalf("got %v, want %v", x, want)
	}

	// Verify A*X == B mod t directly, independent of the expected
	// constants above.
	for row := 0; row < len(a); row++ {
		for col := 0; col < len(b[0]); col++ {
			var sum uint64
			for k := 0; k < len(a); k++ {
				sum = gf.Add(sum, gf.Mul(a[row][k], x[k][col]))
			}
			if sum != b[row][col]%gf.T {
				t.Fatalf("A*X row %d col %d = %d, want %d", row, col, sum, b[row][col])
			}
		}
	}
}

// TestSolveGFRectangular checks the overdetermined M=3,K=2 case
// BuildCoefficientMatrix produces whenever a message's bipartite
// graph touches more buckets (rep=3) than there are pertinent
// indices (K=2): A is 3x2, derived from B = A*X for a known X, and
// SolveGF must recover X using only 2 of the 3 rows as pivots.
func TestSolveGFRectangular(t *testing.T) {
	a := [][]uint64{{1, 2}, {3, 4}, {5, 6}}
	x := [][]uint64{{10}, {20}}
	b := make([][]uint64, len(a))
	for r := range a {
		var sum uint64
		for k := range x {
			sum = gf.Add(sum, gf.Mul(a[r][k], x[k][0]))
		}
		b[r] = []uint64{sum}
	}

	got, err := SolveGF(a, b)
	if err != nil {
		t.Fatalf("SolveGF: %v", err)
	}
	if !reflect.DeepEqual(got, x) {
		t.Fatalf("got %v, want %v", got, x)
	}
}

func TestSolveGFTooFewRowsReturnsNoSolution(t *testing.T) {
	a := [][]uint64{{1, 2}}
	b := [][]uint64{{5}}
	if _, err := SolveGF(a, b); err != errs.ErrNoSolution {
		t.Fatalf("got %v, want ErrNoSolution", err)
	}
}

func TestSolveGFSingularReturnsNoSolution(t *testing.T) {
	a := [][]uint64{{1, 2}, {2, 4}}
	b := [][]uint64{{1}, {2}}
	if _, err := SolveGF(a, b); err == nil {
		t.Fatal("expected error for singular matrix")
	} else if err != errs.ErrNoSolution {
		t.Fatalf("got %v, want ErrNoSolution", err)
	}
}

func TestDecodeIndicesOMR3Recovery(t *testing.T) {
	index := 123456
	hi := uint64(index) / gf.T
	lo := uint64(index) % gf.T

	layers := []LayerDecoded{
		{
			Hi:      []uint64{hi, 0},
			Lo:      []uint64{lo, 0},
			Counter: []uint64{1, 0},
		},
	}
	got, err := DecodeIndicesOMR3(layers, 1)
	if err != nil {
		t.Fatalf("DecodeIndicesOMR3: %v", err)
	}
	if len(got) != 1 || got[0] != index {
		t.Fatalf("got %v, want [%d]", got, index)
	}
}

func TestDecodeIndicesOMR3OverflowWhenExhausted(t *testing.T) {
	layers := []LayerDecoded{
		{Hi: []uint64{0}, Lo: []uint64{0}, Counter: []uint64{2}},
	}
	_, err := DecodeIndicesOMR3(layers, 1)
	if err != errs.ErrOverflow {
		t.Fatalf("got %v, want ErrOverflow", err)
	}
}
