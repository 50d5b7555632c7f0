// Package payload implements the payload compressor: it scatters each
// message's weighted payload into a handful of buckets chosen by the
// bipartite graph, gated by that message's pertinency indicator, and
// sums the result into one running right-hand-side ciphertext that the
// recipient later solves against.
package payload

import (
	"github.com/geraldpeng6/ObliviousMessageRetrieval/internal/bipartite"
	"github.com/geraldpeng6/ObliviousMessageRetrieval/internal/errs"
	"github.com/geraldpeng6/ObliviousMessageRetrieval/internal/gf"
	"github.com/geraldpeng6/ObliviousMessageRetrieval/internal/he"
)

// Compress folds one batch of messages (local index 0..len(indicators)-1,
// global index start+local) into acc. payloads[local] is that message's
// plaintext payload (payloadSlots entries), graph/weights are the
// bipartite-graph assignment for the same global indices.
func Compress(eval *he.Evaluator, acc *he.Ciphertext, indicators []*he.Ciphertext, payloads [][]uint64, graph bipartite.Graph, weights bipartite.Weights, start, payloadSlots, degree int) (*he.Ciphertext, error) {
	if len(indicators) != len(payloads) {
		return nil, errs.ErrParameterMismatch
	}
	var err error
	for local, ind := range indicators {
		i := start + local
		if i >= len(graph) || i >= len(weights) {
			return nil, errs.ErrOutOfRange
		}
		buckets := graph[i]
		w := weights[i]
		if len(buckets) != len(w) {
			return nil, errs.ErrParameterMismatch
		}
		for k, bucket := range buckets {
			base := bucket * payloadSlots
			if base+payloadSlots > degree {
				return nil, errs.ErrOutOfRange
			}
			scattered := make([]uint64, degree)
			for s := 0; s < payloadSlots; s++ {
				var v uint64
				if s < len(payloads[local]) {
					v = payloads[local][s]
				}
				scattered[base+s] = gf.Mul(v, w[k])
			}
			acc, err = eval.MultiplyPlainAdd(acc, ind, scattered)
			if err != nil {
				return nil, err
			}
		}
	}
	return acc, nil
}
