// Package config collects every run parameter the original reference
// implementation kept as process-global state (bipartite_map_glb,
// weights_glb, numcores, gal_keys_next/gal_keys_last, C_glb,
// expectedIndices) into explicit, explicitly-threaded structs. Config
// holds static parameters fixed for the lifetime of a run; Context
// holds values derived once from a Config before a detector run fans
// out across goroutines.
package config

import "github.com/geraldpeng6/ObliviousMessageRetrieval/internal/pvw"

// Mode selects which retrieval scheme a run operates under.
type Mode int

const (
	// ModeOMD is the single-message deterministic scheme (OMD1p).
	ModeOMD Mode = iota
	// ModeOMR2 is the bounded-multiplicity deterministic scheme (OMR2p).
	ModeOMR2
	// ModeOMR3 is the randomized scheme (OMR3p).
	ModeOMR3
)

func (m Mode) String() string {
	switch m {
	case ModeOMD:
		return "OMD1p"
	case ModeOMR2:
		return "OMR2p"
	case ModeOMR3:
		return "OMR3p"
	default:
		return "unknown"
	}
}

// Config bundles the fixed numeric constants a retrieval run is built
// from. Every field has the default from spec; a zero-value Config is
// not meaningful and callers should start from Default().
type Config struct {
	Mode Mode

	// PVW is the lattice parameter set (n, q, sigma, Q, ell) for clue
	// encryption/decryption.
	PVW pvw.Param

	// Degree is D, the BFV polynomial ring degree / SIMD slot count.
	Degree int

	// RangeHalfWidth is r, the PVW decryption range-check half-width.
	RangeHalfWidth uint64

	// ExpandStep is the number of slots one SIC expands into per round
	// (32 by default). The detector does not read it: it expands every
	// slot of a batch in a single expand.Expand call.
	ExpandStep int

	// PayloadSlots is L, the number of plaintext slots one message's
	// payload occupies (306 by default, i.e. 612 bytes packed two
	// bytes per slot).
	PayloadSlots int

	// Layers is C, the number of randomized-packer repetition layers
	// (OMR3p only, default 5).
	Layers int

	// BucketCount is M, the number of bipartite-graph buckets the
	// payload compressor sums into.
	BucketCount int

	// Repetitions is rep, the number of distinct buckets each message
	// is scattered into by the bipartite graph.
	Repetitions int

	// GraphSeed seeds the deterministic bipartite graph generator; it
	// must be identical on detector and recipient.
	GraphSeed uint64

	// Cores is the number of goroutines the detector fans its
	// transaction range out across.
	Cores int

	// NumTransactions is N, the total message count a run processes.
	NumTransactions int
}

// Default returns the spec's fixed default constants for the given
// mode and message count, with a single core and repetitions=3
// (OMD1p gets repetitions=1 and a single layer).
//
// BucketCount is bounded by the ciphertext, not by N: the payload
// compressor scatters each bucket into its own payloadSlots-wide
// block of the accumulator ciphertext's Degree slots, so at most
// Degree/PayloadSlots buckets fit regardless of how many messages
// share them through the bipartite graph's repetition.
func Default(mode Mode, numTransactions int) Config {
	const degree = 32768
	const payloadSlots = 306
	cfg := Config{
		Mode:            mode,
		PVW:             pvw.DefaultParam(),
		Degree:          degree,
		RangeHalfWidth:  850,
		ExpandStep:      32,
		PayloadSlots:    payloadSlots,
		Layers:          5,
		BucketCount:     degree / payloadSlots,
		Repetitions:     3,
		GraphSeed:       1,
		Cores:           1,
		NumTransactions: numTransactions,
	}
	if mode == ModeOMD {
		cfg.Layers = 1
		cfg.Repetitions = 1
	}
	return cfg
}

// Context holds the values a detector run derives once from a Config
// before fanning out across worker goroutines: the bipartite graph and
// its weight table. It must be built exactly once per run and never
// mutated afterward; every worker goroutine only reads from it.
type Context struct {
	Cfg Config

	// Graph[i] lists the bucket indices message i is scattered into.
	Graph [][]int

	// Weights[i][k] is the GF(t) weight paired with Graph[i][k].
	Weights [][]uint64
}
