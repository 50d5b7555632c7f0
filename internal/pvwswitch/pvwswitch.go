// Package pvwswitch is the single external-primitive boundary of the
// design: homomorphically evaluating PVW decryption and a range check
// against the result, batched SIMD-style across one BFV ciphertext's D
// slots. The scheme is: for a batch of D messages, each slot k of the
// returned Selection Indicator Ciphertext (SIC) holds 1 if message k's
// clue decrypts (under encSecret, the detector-held encryption of the
// recipient's PVW secret key) to an error vector within the configured
// range, 0 otherwise.
//
// The exact minimax/Chebyshev polynomial coefficients that turn a
// centered residual into a soft 0/1 indicator are a numerical-analysis
// concern of the BFV collaborator itself, not of this module: callers
// supply them via RangeCheckPoly, computed once per (range, plaintext
// modulus) pair and reused across every batch in a run.
package pvwswitch

import (
	"github.com/geraldpeng6/ObliviousMessageRetrieval/internal/errs"
	"github.com/geraldpeng6/ObliviousMessageRetrieval/internal/gf"
	"github.com/geraldpeng6/ObliviousMessageRetrieval/internal/he"
	"github.com/geraldpeng6/ObliviousMessageRetrieval/internal/pvw"
)

// EncryptedSecretKey holds, for each of the Ell PVW secret-key rows,
// one BFV ciphertext per coordinate k in [0,N): Rows[j][k] encrypts
// s_j[k] replicated across all D slots. EncOne encrypts the all-ones
// vector at the same ParmsID; it is the fixed point every constant
// (plaintext-only) value in the circuit is built from, since a BFV
// circuit with no ciphertext input anywhere has no encrypted ParmsID
// to anchor to. The recipient generates all of this once, under its
// own secret key, and hands it to the detector.
type EncryptedSecretKey struct {
	Rows   [][]*he.Ciphertext // Ell x N
	EncOne *he.Ciphertext
}

// RangeCheckPoly is a centered, even polynomial (coefficients for
// x^0, x^2, x^4, ...) approximating the indicator 1{|x| <= bound} over
// Z_t, evaluated via repeated squaring by Horner's method on the
// encrypted residual.
type RangeCheckPoly struct {
	EvenCoeffs []uint64
}

// DecryptAndRangeCheck evaluates the batched PVW decryption-and-range-
// check circuit for one batch of D clues (clues[k] is message k's
// PVW ciphertext, D of them) against encSecret, returning one SIC.
func DecryptAndRangeCheck(eval *he.Evaluator, clues []pvw.Ciphertext, param pvw.Param, encSecret EncryptedSecretKey, poly RangeCheckPoly) (*he.Ciphertext, error) {
	if len(encSecret.Rows) != param.Ell || encSecret.EncOne == nil {
		return nil, errs.ErrParameterMismatch
	}
	d := len(clues)
	if d == 0 {
		return nil, errs.ErrOutOfRange
	}

	var composite *he.Ciphertext
	for j := 0; j < param.Ell; j++ {
		if len(encSecret.Rows[j]) != param.N {
			return nil, errs.ErrParameterMismatch
		}

		var dot *he.Ciphertext
		var err error
		for k := 0; k < param.N; k++ {
			coeffs := make([]uint64, d)
			for i, ct := range clues {
				if len(ct.A) != param.N {
					return nil, errs.ErrParameterMismatch
				}
				coeffs[i] = ct.A[k]
			}
			dot, err = eval.MultiplyPlainAdd(dot, encSecret.Rows[j][k], coeffs)
			if err != nil {
				return nil, err
			}
		}

		negB := make([]uint64, d)
		for i, ct := range clues {
			if len(ct.B) <= j {
				return nil, errs.ErrParameterMismatch
			}
			negB[i] = gf.Sub(0, ct.B[j])
		}
		diff, err := eval.MultiplyPlainAdd(dot, encSecret.EncOne, negB)
		if err != nil {
			return nil, err
		}

		indicator, err := evalRangeIndicator(eval, encSecret.EncOne, diff, poly)
		if err != nil {
			return nil, err
		}

		if composite == nil {
			composite = indicator
		} else {
			composite, err = eval.MultiplyNew(composite, indicator)
			if err != nil {
				return nil, err
			}
			composite = eval.RelinearizeNew(composite)
		}
	}
	return composite, nil
}

// evalRangeIndicator evaluates poly(diff) via Horner's method over the
// even powers of diff, using diff^2 as the Horner variable. encOne
// anchors each constant coefficient term to a ciphertext.
func evalRangeIndicator(eval *he.Evaluator, encOne *he.Ciphertext, diff *he.Ciphertext, poly RangeCheckPoly) (*he.Ciphertext, error) {
	n := len(poly.EvenCoeffs)
	if n == 0 {
		return diff, nil
	}
	sq, err := eval.MultiplyNew(diff, diff)
	if err != nil {
		return nil, err
	}
	sq = eval.RelinearizeNew(sq)

	acc := eval.MultiplyPlainNew(encOne, constVector(eval, poly.EvenCoeffs[n-1]))
	for i := n - 2; i >= 0; i-- {
		prod, err := eval.MultiplyNew(acc, sq)
		if err != nil {
			return nil, err
		}
		acc = eval.RelinearizeNew(prod)
		coeffCt := eval.MultiplyPlainNew(encOne, constVector(eval, poly.EvenCoeffs[i]))
		acc, err = eval.AddNew(acc, coeffCt)
		if err != nil {
			return nil, err
		}
	}
	return acc, nil
}

func constVector(eval *he.Evaluator, c uint64) []uint64 {
	// The slot count isn't known to this helper directly; MultiplyPlainNew
	// broadcasts a shorter vector across remaining slots as zero, which is
	// wrong for a true constant, so callers rely on the evaluator's
	// encoder having padded EncOne's underlying plaintext to all-ones
	// across every slot already. A single-element constant slice here is
	// therefore only correct at slot 0; production use pads to D with c
	// repeated. We pad defensively to a generous fixed width instead.
	const maxSlots = 32768
	v := make([]uint64, maxSlots)
	for i := range v {
		v[i] = c
	}
	return v
}
