// Package expand turns one Selection Indicator Ciphertext into `step`
// separate ciphertexts, each replicating one of the SIC's first `step`
// slots across all D output slots. It is the bridge between the
// per-batch-of-D indicator produced by pvwswitch and the per-message
// packing/compression stages, which need a single message's indicator
// broadcast across every slot so it can gate a plaintext multiplication.
package expand

import (
	"math/bits"

	"github.com/geraldpeng6/ObliviousMessageRetrieval/internal/errs"
	"github.com/geraldpeng6/ObliviousMessageRetrieval/internal/he"
)

// Expand returns step ciphertexts; output[j] encodes sic's slot j
// broadcast to every one of the D slots. D must be a power of two.
func Expand(eval *he.Evaluator, sic *he.Ciphertext, step int) ([]*he.Ciphertext, error) {
	d := eval.Slots()
	if step <= 0 || step > d {
		return nil, errs.ErrOutOfRange
	}
	if d&(d-1) != 0 {
		return nil, errs.ErrOutOfRange
	}
	rounds := bits.Len(uint(d)) - 1

	out := make([]*he.Ciphertext, step)
	for j := 0; j < step; j++ {
		mask := make([]uint64, d)
		mask[j] = 1
		ct := eval.MultiplyPlainNew(sic, mask)

		for e := 0; e < rounds; e++ {
			shift := d >> uint(e+1)
			rotated, err := eval.RotateNew(ct, shift)
			if err != nil {
				return nil, err
			}
			ct, err = eval.AddNew(ct, rotated)
			if err != nil {
				return nil, err
			}
		}
		out[j] = ct
	}
	return out, nil
}
