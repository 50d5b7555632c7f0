package store

import (
	"errors"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/geraldpeng6/ObliviousMessageRetrieval/internal/errs"
	"github.com/geraldpeng6/ObliviousMessageRetrieval/internal/pvw"
)

func TestClueRoundTrip(t *testing.T) {
	param := pvw.Param{N: 4, Q: 65537, Sigma: 1.3, Bound: 16000, Ell: 2}
	r := rand.New(rand.NewSource(1))
	clues := make([]pvw.Ciphertext, 3)
	for i := range clues {
		a := make([]uint64, param.N)
		b := make([]uint64, param.Ell)
		for k := range a {
			a[k] = uint64(r.Int63n(int64(param.Q)))
		}
		for k := range b {
			b[k] = uint64(r.Int63n(int64(param.Q)))
		}
		clues[i] = pvw.Ciphertext{A: a, B: b}
	}

	path := filepath.Join(t.TempDir(), "clues.txt")
	fs := FileStore{}
	if err := fs.SaveClues(path, param, clues); err != nil {
		t.Fatalf("SaveClues: %v", err)
	}
	got, err := fs.LoadClues(path, param, len(clues))
	if err != nil {
		t.Fatalf("LoadClues: %v", err)
	}
	for i := range clues {
		for k := range clues[i].A {
			if got[i].A[k] != clues[i].A[k] {
				t.Fatalf("clue %d A[%d]: got %d want %d", i, k, got[i].A[k], clues[i].A[k])
			}
		}
		for k := range clues[i].B {
			if got[i].B[k] != clues[i].B[k] {
				t.Fatalf("clue %d B[%d]: got %d want %d", i, k, got[i].B[k], clues[i].B[k])
			}
		}
	}
}

func TestPayloadRoundTrip(t *testing.T) {
	payloads := [][]uint64{
		{1, 2, 3},
		{65536, 0, 4},
	}
	path := filepath.Join(t.TempDir(), "payloads.txt")
	fs := FileStore{}
	if err := fs.SavePayloads(path, payloads); err != nil {
		t.Fatalf("SavePayloads: %v", err)
	}
	got, err := fs.LoadPayloads(path, len(payloads), 3)
	if err != nil {
		t.Fatalf("LoadPayloads: %v", err)
	}
	for i := range payloads {
		for j := range payloads[i] {
			if got[i][j] != payloads[i][j] {
				t.Fatalf("payload %d[%d]: got %d want %d", i, j, got[i][j], payloads[i][j])
			}
		}
	}
}

func TestLoadCluesTruncatedReturnsCorruption(t *testing.T) {
	param := pvw.Param{N: 4, Q: 65537, Sigma: 1.3, Bound: 16000, Ell: 2}
	path := filepath.Join(t.TempDir(), "short.txt")
	fs := FileStore{}
	if err := fs.SaveClues(path, param, nil); err != nil {
		t.Fatalf("SaveClues: %v", err)
	}
	if _, err := fs.LoadClues(path, param, 1); !errors.Is(err, errs.ErrCorruption) {
		t.Fatalf("got %v, want ErrCorruption reading truncated clue file", err)
	}
}
