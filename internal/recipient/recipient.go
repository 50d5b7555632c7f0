// Package recipient implements the trusted party's side: decoding the
// detector's encrypted digest into a pertinent index set, then solving
// the resulting sparse linear system over GF(t) to recover payloads.
package recipient

import (
	"github.com/geraldpeng6/ObliviousMessageRetrieval/internal/bipartite"
	"github.com/geraldpeng6/ObliviousMessageRetrieval/internal/errs"
	"github.com/geraldpeng6/ObliviousMessageRetrieval/internal/gf"
)

const bitsPerSlot = 16

// DecodeIndicesOMD recovers the pertinent index set from a decoded
// OMD1p index digest covering n messages, 16 per slot (message i at
// slot i/16, bit i%16). The
// reference implementation walks this bit layout with a post-decrement
// recursion; this is the same bit scan expressed as a single forward
// cursor over (slot, bit) pairs instead, per the project's design
// record — an explicit state machine, not recursion.
func DecodeIndicesOMD(decoded []uint64, n int) []int {
	return bitScan(decoded, n)
}

// DecodeIndicesOMR2 recovers the pertinent index set from a decoded
// OMR2p index digest. OMR2p shares OMD1p's bit layout exactly (both
// pack one bit per message, 16 per slot); the two modes differ only in
// the cardinality guarantee the caller places on the result (OMD
// expects exactly one pertinent index, OMR2 expects up to a bounded K),
// not in how the bits themselves are laid out, so decoding is the same
// bit scan.
func DecodeIndicesOMR2(decoded []uint64, n int) []int {
	return bitScan(decoded, n)
}

func bitScan(decoded []uint64, n int) []int {
	var out []int
	slot, bit := 0, 0
	for i := 0; i < n; i++ {
		if slot < len(decoded) && (decoded[slot]>>uint(bit))&1 == 1 {
			out = append(out, i)
		}
		bit++
		if bit == bitsPerSlot {
			bit = 0
			slot++
		}
	}
	return out
}

// LayerDecoded is one OMR3p repetition layer after decryption and
// decoding: Hi/Lo/Counter are the decoded slot values of the layer's
// three accumulator ciphertexts.
type LayerDecoded struct {
	Hi, Lo, Counter []uint64
}

// DecodeIndicesOMR3 walks every layer's decoded slots, recovering an
// index from any slot whose counter equals exactly 1 (a slot counter
// above 1 means two or more pertinent messages collided there in that
// layer and must be disambiguated by a different layer instead).
// Returns errs.ErrOverflow if fewer than expected distinct indices are
// recovered after every layer has been consulted.
func DecodeIndicesOMR3(layers []LayerDecoded, expected int) ([]int, error) {
	seen := make(map[int]bool, expected)
	var out []int
	for _, layer := range layers {
		for s, c := range layer.Counter {
			if c != 1 {
				continue
			}
			idx := int(layer.Hi[s]*gf.T + layer.Lo[s])
			if seen[idx] {
				continue
			}
			seen[idx] = true
			out = append(out, idx)
			if len(out) == expected {
				return out, nil
			}
		}
	}
	if len(out) < expected {
		return out, errs.ErrOverflow
	}
	return out, nil
}

// SolveGF solves A*X = B over GF(t) via Gaussian elimination with
// partial pivoting (any nonzero pivot is acceptable; ties in pivot
// choice favor the lowest row index, matching the reference solver).
// A is M x K with M >= K (the bipartite graph generally touches more
// buckets than there are pertinent indices once rep > 1), B is M x L
// (L independent right-hand sides sharing A). Only K of the M rows end
// up used as pivots; the remaining M-K rows take part in pivot search
// and elimination, but they never enter X and are not checked for
// consistency with it. Returns
// errs.ErrNoSolution if A has fewer rows than columns, or is singular.
func SolveGF(a [][]uint64, b [][]uint64) ([][]uint64, error) {
	m := len(a)
	if m == 0 {
		return nil, errs.ErrNoSolution
	}
	k := len(a[0])
	for _, row := range a {
		if len(row) != k {
			return nil, errs.ErrParameterMismatch
		}
	}
	if len(b) != m {
		return nil, errs.ErrParameterMismatch
	}
	if m < k {
		return nil, errs.ErrNoSolution
	}
	l := len(b[0])

	// Work on copies so callers keep their original matrices.
	rows := make([][]uint64, m)
	rhs := make([][]uint64, m)
	for i := 0; i < m; i++ {
		rows[i] = append([]uint64(nil), a[i]...)
		rhs[i] = append([]uint64(nil), b[i]...)
	}

	used := make([]bool, m)
	pivotRowOf := make([]int, k) // pivotRowOf[col] = row used as pivot for that column

	for col := 0; col < k; col++ {
		pivot := -1
		for r := 0; r < m; r++ {
			if !used[r] && rows[r][col] != 0 {
				pivot = r
				break
			}
		}
		if pivot == -1 {
			return nil, errs.ErrNoSolution
		}
		used[pivot] = true
		pivotRowOf[col] = pivot

		inv := gf.InvMod(rows[pivot][col])
		for j := col; j < k; j++ {
			rows[pivot][j] = gf.Mul(rows[pivot][j], inv)
		}
		for j := 0; j < l; j++ {
			rhs[pivot][j] = gf.Mul(rhs[pivot][j], inv)
		}

		for r := 0; r < m; r++ {
			if r == pivot {
				continue
			}
			coeff := rows[r][col]
			if coeff == 0 {
				// Already zero in this column: the sparse-matrix
				// shortcut. Subtracting zero times the pivot row would
				// leave this row unchanged, so it is skipped.
				continue
			}
			scaled := gf.ScalarVecMul(coeff, rows[pivot][col:])
			gf.SubVecInplace(rows[r][col:], scaled, -1)
			scaledRhs := gf.ScalarVecMul(coeff, rhs[pivot])
			gf.SubVecInplace(rhs[r], scaledRhs, -1)
		}
	}

	x := make([][]uint64, k)
	for col := 0; col < k; col++ {
		x[col] = rhs[pivotRowOf[col]]
	}
	return x, nil
}

// BuildCoefficientMatrix restricts the bipartite graph to the given
// pertinent indices, returning the dense coefficient matrix (rows =
// buckets that received at least one pertinent message, columns =
// indices in the order given) a Gaussian-elimination solve needs. The
// row count generally exceeds len(indices) once the graph's
// repetition count is above 1; SolveGF only requires rows >= columns,
// not equality.
func BuildCoefficientMatrix(indices []int, graph bipartite.Graph, weights bipartite.Weights) (rows []int, a [][]uint64) {
	bucketSet := make(map[int]bool)
	for _, idx := range indices {
		for _, b := range graph[idx] {
			bucketSet[b] = true
		}
	}
	rows = make([]int, 0, len(bucketSet))
	for b := range bucketSet {
		rows = append(rows, b)
	}
	// Deterministic row order: ascending bucket index.
	for i := 1; i < len(rows); i++ {
		for j := i; j > 0 && rows[j-1] > rows[j]; j-- {
			rows[j-1], rows[j] = rows[j], rows[j-1]
		}
	}

	a = make([][]uint64, len(rows))
	for r, bucket := range rows {
		row := make([]uint64, len(indices))
		for c, idx := range indices {
			for k, b := range graph[idx] {
				if b == bucket {
					row[c] = weights[idx][k]
					break
				}
			}
		}
		a[r] = row
	}
	return rows, a
}
