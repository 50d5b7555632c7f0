// Package harness synthesizes clue and payload databases for tests and
// command-line demonstrations: N messages, a chosen pertinent subset,
// clues encrypted under the recipient's PVW public key, and payloads
// following the reference generator formula (slot j of message i is
// (t - (i mod t) + j) mod t), so that the payloads of two
// independently generated databases for the same N are identical (the
// clues depend on the caller's random source).
package harness

import (
	"math/rand"

	"github.com/geraldpeng6/ObliviousMessageRetrieval/internal/gf"
	"github.com/geraldpeng6/ObliviousMessageRetrieval/internal/pvw"
)

// Transactions bundles a synthesized test database together with the
// ground truth an end-to-end test checks the recovered result against.
type Transactions struct {
	Clues            []pvw.Ciphertext
	Payloads         [][]uint64
	PertinentIndices []int
}

// Prepare builds n messages, pertinentIndices of which are encrypted
// so they decrypt under sk/pk (the rest decrypt to noise), using r for
// all randomness.
func Prepare(param pvw.Param, sk pvw.SecretKey, pk pvw.PublicKey, n, payloadSlots int, pertinentIndices []int, r *rand.Rand) Transactions {
	pertinent := make(map[int]bool, len(pertinentIndices))
	for _, idx := range pertinentIndices {
		pertinent[idx] = true
	}

	clues := make([]pvw.Ciphertext, n)
	payloads := make([][]uint64, n)
	for i := 0; i < n; i++ {
		clues[i] = pvw.Encrypt(param, pk, pertinent[i], r)
		payloads[i] = payload(i, payloadSlots)
	}

	sorted := append([]int(nil), pertinentIndices...)
	for a := 1; a < len(sorted); a++ {
		for b := a; b > 0 && sorted[b-1] > sorted[b]; b-- {
			sorted[b-1], sorted[b] = sorted[b], sorted[b-1]
		}
	}

	return Transactions{Clues: clues, Payloads: payloads, PertinentIndices: sorted}
}

// payload reproduces the reference database generator's formula for
// message i's payload: slot j holds (t - (i mod t) + j) mod t.
func payload(i, payloadSlots int) []uint64 {
	row := make([]uint64, payloadSlots)
	base := gf.Sub(0, uint64(i)%gf.T)
	for j := range row {
		row[j] = gf.Add(base, uint64(j))
	}
	return row
}
