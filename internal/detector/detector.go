// Package detector implements the untrusted-party orchestrator: given
// N clues and payloads, it produces a compact encrypted digest the
// recipient can decode, without ever learning which messages were
// pertinent. It fans work out across config.Config.Cores goroutines,
// one independent he.Evaluator per worker (lattigo evaluators are not
// safe for concurrent use, the same constraint the design's thread-
// local memory pool requirement exists to satisfy), and combines
// partial digests in ascending core order so the result is independent
// of goroutine scheduling.
package detector

import (
	"fmt"
	"sync"
	"time"

	"github.com/geraldpeng6/ObliviousMessageRetrieval/internal/bipartite"
	"github.com/geraldpeng6/ObliviousMessageRetrieval/internal/config"
	"github.com/geraldpeng6/ObliviousMessageRetrieval/internal/expand"
	"github.com/geraldpeng6/ObliviousMessageRetrieval/internal/he"
	"github.com/geraldpeng6/ObliviousMessageRetrieval/internal/measure"
	"github.com/geraldpeng6/ObliviousMessageRetrieval/internal/packing"
	"github.com/geraldpeng6/ObliviousMessageRetrieval/internal/payload"
	"github.com/geraldpeng6/ObliviousMessageRetrieval/internal/prof"
	"github.com/geraldpeng6/ObliviousMessageRetrieval/internal/pvw"
	"github.com/geraldpeng6/ObliviousMessageRetrieval/internal/pvwswitch"
)

// Digest is the detector's output: the index-retrieval accumulator(s)
// and the payload right-hand-side accumulator, still encrypted.
type Digest struct {
	// IndexCiphertext is populated for ModeOMD and ModeOMR2.
	IndexCiphertext *he.Ciphertext

	// Layers is populated for ModeOMR3, one LayerAccumulators per
	// repetition layer.
	Layers []packing.LayerAccumulators

	PayloadCiphertext *he.Ciphertext
}

// Inputs bundles everything a detector run needs beyond config.Context:
// the evaluation keys, the clues and payloads, the detector's own copy
// of the recipient's encrypted secret key, and the range-check
// polynomial.
type Inputs struct {
	Keys          he.KeySet
	Clues         []pvw.Ciphertext
	Payloads      [][]uint64
	EncSecret     pvwswitch.EncryptedSecretKey
	RangePoly     pvwswitch.RangeCheckPoly
	Assignments   []packing.LayerAssignment // only used for ModeOMR3
}

type partial struct {
	digest Digest
	err    error
}

// Run executes the full three-phase pipeline described by the design:
// phase 1 batches clues into groups of D and runs the homomorphic PVW
// decrypt-and-range-check; phase 1.5 mod-switches the resulting SICs
// down to a cheaper level; phase 2 expands each SIC and folds its
// slots into the index packer and payload compressor; results combine
// across cores in ascending index order.
func Run(params he.Params, cfg config.Config, ctx config.Context, in Inputs) (Digest, error) {
	n := cfg.NumTransactions
	cores := cfg.Cores
	if cores < 1 {
		cores = 1
	}

	results := make([]partial, cores)

	chunk := (n + cores - 1) / cores
	var wg sync.WaitGroup
	for c := 0; c < cores; c++ {
		lo := c * chunk
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		if lo >= hi {
			continue
		}
		wg.Add(1)
		go func(core, lo, hi int) {
			defer wg.Done()
			results[core].digest, results[core].err = runRange(params, cfg, ctx, in, lo, hi)
		}(c, lo, hi)
	}
	wg.Wait()

	return combine(params, cfg, in.Keys, results)
}

func runRange(params he.Params, cfg config.Config, ctx config.Context, in Inputs, lo, hi int) (Digest, error) {
	defer prof.Track(time.Now(), fmt.Sprintf("detector.range[%d:%d]", lo, hi))

	eval := he.NewEvaluator(params, in.Keys)
	var digest Digest
	if cfg.Mode == config.ModeOMR3 {
		digest.Layers = make([]packing.LayerAccumulators, cfg.Layers)
	}

	measure.Global.Add("detector.range.messages", hi-lo)

	for start := lo; start < hi; start += cfg.Degree {
		end := start + cfg.Degree
		if end > hi {
			end = hi
		}
		batch := in.Clues[start:end]

		sic, err := pvwswitch.DecryptAndRangeCheck(eval, batch, cfg.PVW, in.EncSecret, in.RangePoly)
		if err != nil {
			return Digest{}, err
		}
		sic = eval.ModSwitchNew(sic)

		indicators, err := expand.Expand(eval, sic, len(batch))
		if err != nil {
			return Digest{}, err
		}

		switch cfg.Mode {
		case config.ModeOMD, config.ModeOMR2:
			digest.IndexCiphertext, err = packing.PackDeterministic(eval, digest.IndexCiphertext, indicators, start, cfg.Degree)
			if err != nil {
				return Digest{}, err
			}
		case config.ModeOMR3:
			for l := 0; l < cfg.Layers; l++ {
				digest.Layers[l], err = packing.AccumulateLayer(eval, digest.Layers[l], in.Assignments[l], indicators, start, cfg.Degree)
				if err != nil {
					return Digest{}, err
				}
			}
		}

		payloadBatch := in.Payloads[start:end]
		digest.PayloadCiphertext, err = payload.Compress(eval, digest.PayloadCiphertext, indicators, payloadBatch, bipartite.Graph(ctx.Graph), bipartite.Weights(ctx.Weights), start, cfg.PayloadSlots, cfg.Degree)
		if err != nil {
			return Digest{}, err
		}
	}
	return digest, nil
}

func combine(params he.Params, cfg config.Config, keys he.KeySet, results []partial) (Digest, error) {
	eval := he.NewEvaluator(params, keys)
	var final Digest
	if cfg.Mode == config.ModeOMR3 {
		final.Layers = make([]packing.LayerAccumulators, cfg.Layers)
	}

	// Combination runs in ascending core index order (results is
	// already ordered that way), so the final digest never depends on
	// goroutine completion order, only on the deterministic partition
	// of [0,N) into contiguous per-core ranges.
	for _, r := range results {
		if r.err != nil {
			return Digest{}, r.err
		}
		var err error
		final.IndexCiphertext, err = addOptional(eval, final.IndexCiphertext, r.digest.IndexCiphertext)
		if err != nil {
			return Digest{}, err
		}
		final.PayloadCiphertext, err = addOptional(eval, final.PayloadCiphertext, r.digest.PayloadCiphertext)
		if err != nil {
			return Digest{}, err
		}
		for l := range r.digest.Layers {
			final.Layers[l].Hi, err = addOptional(eval, final.Layers[l].Hi, r.digest.Layers[l].Hi)
			if err != nil {
				return Digest{}, err
			}
			final.Layers[l].Lo, err = addOptional(eval, final.Layers[l].Lo, r.digest.Layers[l].Lo)
			if err != nil {
				return Digest{}, err
			}
			final.Layers[l].Counter, err = addOptional(eval, final.Layers[l].Counter, r.digest.Layers[l].Counter)
			if err != nil {
				return Digest{}, err
			}
		}
	}
	return final, nil
}

func addOptional(eval *he.Evaluator, acc, next *he.Ciphertext) (*he.Ciphertext, error) {
	if next == nil {
		return acc, nil
	}
	if acc == nil {
		return next, nil
	}
	return eval.AddNew(acc, next)
}
