// Package packing implements the two index-retrieval packers: the
// deterministic bit-packer shared by OMD1p and OMR2p, and the
// randomized repetition-layer packer used by OMR3p.
package packing

import (
	"math/rand"

	"github.com/geraldpeng6/ObliviousMessageRetrieval/internal/config"
	"github.com/geraldpeng6/ObliviousMessageRetrieval/internal/errs"
	"github.com/geraldpeng6/ObliviousMessageRetrieval/internal/gf"
	"github.com/geraldpeng6/ObliviousMessageRetrieval/internal/he"
)

const bitsPerSlot = 16

// PackDeterministic accumulates indicators (one broadcast-replicated
// ciphertext per message, as produced by package expand) into a single
// ciphertext that bit-packs 16 message indicators per slot, 2^(i mod
// 16) at slot i/16, where i is the message's global index starting at
// start.
//
// OMD1p and OMR2p share this exact layout (spec's data model §3 treats
// them as the same packed representation); they differ only in how
// the recipient interprets the slot->message mapping during decode
// (single-index OMD vs. bounded-multiplicity OMR2), not in how the
// detector writes it, so one packer serves both modes.
func PackDeterministic(eval *he.Evaluator, acc *he.Ciphertext, indicators []*he.Ciphertext, start, degree int) (*he.Ciphertext, error) {
	if start+len(indicators) > bitsPerSlot*degree {
		return nil, errs.ErrOutOfRange
	}
	var err error
	for local, ind := range indicators {
		i := start + local
		slot := i / bitsPerSlot
		shift := uint(i % bitsPerSlot)
		mask := make([]uint64, degree)
		mask[slot] = uint64(1) << shift
		acc, err = eval.MultiplyPlainAdd(acc, ind, mask)
		if err != nil {
			return nil, err
		}
	}
	return acc, nil
}

// LayerAssignment is one OMR3p repetition layer's random slot
// assignment: Slot[i] is the BFV slot message i is scattered into for
// this layer, drawn once per run (not reseeded per message — the
// reference implementation's per-message srand(time(NULL)) reseed is
// a bug this design explicitly avoids; see the project's design
// record).
type LayerAssignment struct {
	Slot []int
}

// NewLayerAssignments builds Layers independent random slot
// assignments for n messages across degree slots, using r for all
// randomness. r must be constructed exactly once per detector run and
// never reseeded mid-run.
func NewLayerAssignments(r *rand.Rand, layers, n, degree int) []LayerAssignment {
	out := make([]LayerAssignment, layers)
	for l := 0; l < layers; l++ {
		slot := make([]int, n)
		for i := range slot {
			slot[i] = r.Intn(degree)
		}
		out[l] = LayerAssignment{Slot: slot}
	}
	return out
}

// LayerAccumulators holds the three running ciphertexts one OMR3p
// repetition layer accumulates: the high/low halves of each pertinent
// message's index split at gf.T (index = hi*t + lo), and a per-slot
// collision counter. A recovered index is only trustworthy at a slot
// where Counter's decoded value equals 1.
type LayerAccumulators struct {
	Hi      *he.Ciphertext
	Lo      *he.Ciphertext
	Counter *he.Ciphertext
}

// AccumulateLayer folds one batch of indicators into layer's running
// accumulators, using assignment to place message start+local into its
// layer slot.
func AccumulateLayer(eval *he.Evaluator, layer LayerAccumulators, assignment LayerAssignment, indicators []*he.Ciphertext, start, degree int) (LayerAccumulators, error) {
	for local, ind := range indicators {
		i := start + local
		slot := assignment.Slot[i]

		hiMask := make([]uint64, degree)
		hiMask[slot] = uint64(i) / gf.T
		loMask := make([]uint64, degree)
		loMask[slot] = uint64(i) % gf.T
		oneMask := make([]uint64, degree)
		oneMask[slot] = 1

		var err error
		layer.Hi, err = eval.MultiplyPlainAdd(layer.Hi, ind, hiMask)
		if err != nil {
			return layer, err
		}
		layer.Lo, err = eval.MultiplyPlainAdd(layer.Lo, ind, loMask)
		if err != nil {
			return layer, err
		}
		layer.Counter, err = eval.MultiplyPlainAdd(layer.Counter, ind, oneMask)
		if err != nil {
			return layer, err
		}
	}
	return layer, nil
}

// Mode selects deterministic vs randomized packing, mirroring
// config.Mode so callers in the detector package do not need to
// branch on config directly.
type Mode = config.Mode
