package packing

import (
	"testing"

	"github.com/geraldpeng6/ObliviousMessageRetrieval/internal/he"
)

func setupHE(t *testing.T) (he.Params, *he.Encoder, *he.Encryptor, *he.Decryptor, *he.Evaluator) {
	t.Helper()
	params, err := he.NewDefaultParams()
	if err != nil {
		t.Fatalf("NewDefaultParams: %v", err)
	}
	kg := he.NewKeyGenerator(params)
	keys := kg.GenKeySet([]int{1, 2, 4, 8, 16})
	enc := he.NewEncoder(params)
	encryptor := he.NewEncryptor(params, keys.Secret)
	decryptor := he.NewDecryptor(params, keys.Secret)
	eval := he.NewEvaluator(params, keys)
	return params, enc, encryptor, decryptor, eval
}

func TestPackDeterministicBitLayout(t *testing.T) {
	params, enc, encryptor, decryptor, eval := setupHE(t)
	degree := params.Slots()

	indicatorValues := []uint64{1, 0, 1, 1, 0}
	indicators := make([]*he.Ciphertext, len(indicatorValues))
	for i, v := range indicatorValues {
		values := make([]uint64, degree)
		for s := range values {
			values[s] = v
		}
		pt := enc.Encode(values)
		indicators[i] = encryptor.EncryptNew(pt)
	}

	acc, err := PackDeterministic(eval, nil, indicators, 0, degree)
	if err != nil {
		t.Fatalf("PackDeterministic: %v", err)
	}

	pt := decryptor.DecryptNew(acc)
	decoded := enc.Decode(pt)

	want := uint64(0)
	for i, v := range indicatorValues {
		if v == 1 {
			want |= 1 << uint(i)
		}
	}
	if decoded[0] != want {
		t.Fatalf("slot 0 = %d, want %d", decoded[0], want)
	}
}
