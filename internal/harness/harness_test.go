package harness

import (
	"math/rand"
	"testing"

	"github.com/geraldpeng6/ObliviousMessageRetrieval/internal/pvw"
)

func TestPrepareMarksPertinentCluesDecryptable(t *testing.T) {
	param := pvw.Param{N: 32, Q: 65537, Sigma: 1.3, Bound: 850, Ell: 2}
	r := rand.New(rand.NewSource(7))
	sk, pk := pvw.KeyGen(param, param.N, r)

	want := []int{3, 9}
	txs := Prepare(param, sk, pk, 20, 4, want, r)

	for i, ct := range txs.Clues {
		e := pvw.Decrypt(param, sk, ct)
		pertinent := pvw.IsPertinent(e, param.Bound)
		expected := i == 3 || i == 9
		if pertinent != expected {
			t.Fatalf("message %d: pertinent=%v, want %v", i, pertinent, expected)
		}
	}
	if len(txs.PertinentIndices) != 2 || txs.PertinentIndices[0] != 3 || txs.PertinentIndices[1] != 9 {
		t.Fatalf("got pertinent indices %v", txs.PertinentIndices)
	}
}

func TestPayloadFormula(t *testing.T) {
	row := payload(5, 4)
	want := []uint64{65537 - 5, 65537 - 5 + 1, 65537 - 5 + 2, 65537 - 5 + 3}
	for i := range want {
		if row[i] != want[i] {
			t.Fatalf("slot %d: got %d want %d", i, row[i], want[i])
		}
	}
}
