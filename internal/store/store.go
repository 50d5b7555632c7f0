// Package store implements the clue and payload disk formats: plain
// text, newline-separated integers, one PVW clue or one payload per
// message, matching the reference implementation's flat-file layout
// byte-for-byte so that test fixtures generated by either side remain
// interchangeable.
package store

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/geraldpeng6/ObliviousMessageRetrieval/internal/errs"
	"github.com/geraldpeng6/ObliviousMessageRetrieval/internal/pvw"
)

// ClueStore reads and writes PVW ciphertexts.
type ClueStore interface {
	SaveClues(path string, param pvw.Param, clues []pvw.Ciphertext) error
	LoadClues(path string, param pvw.Param, n int) ([]pvw.Ciphertext, error)
}

// PayloadStore reads and writes per-message payload slot vectors.
type PayloadStore interface {
	SavePayloads(path string, payloads [][]uint64) error
	LoadPayloads(path string, n, payloadSlots int) ([][]uint64, error)
}

// FileStore implements ClueStore and PayloadStore against the local
// filesystem.
type FileStore struct{}

// SaveClues writes one line per A coordinate followed by one line per
// B coordinate, for every clue in order: param.N + param.Ell integers
// per clue, matching the reference saveClues layout.
func (FileStore) SaveClues(path string, param pvw.Param, clues []pvw.Ciphertext) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("store: create clue file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, ct := range clues {
		if len(ct.A) != param.N || len(ct.B) != param.Ell {
			return fmt.Errorf("store: clue shape mismatch: %w", errs.ErrParameterMismatch)
		}
		for _, v := range ct.A {
			if _, err := fmt.Fprintln(w, v); err != nil {
				return fmt.Errorf("store: write clue: %w", err)
			}
		}
		for _, v := range ct.B {
			if _, err := fmt.Fprintln(w, v); err != nil {
				return fmt.Errorf("store: write clue: %w", err)
			}
		}
	}
	return w.Flush()
}

// LoadClues reads n clues written by SaveClues.
func (FileStore) LoadClues(path string, param pvw.Param, n int) ([]pvw.Ciphertext, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("store: open clue file: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	readInt := func() (uint64, error) {
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return 0, fmt.Errorf("store: read clue: %w", err)
			}
			return 0, fmt.Errorf("store: truncated clue file: %w", errs.ErrCorruption)
		}
		v, err := strconv.ParseUint(sc.Text(), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("store: parse clue integer %q: %w", sc.Text(), errs.ErrCorruption)
		}
		return v, nil
	}

	out := make([]pvw.Ciphertext, n)
	for i := 0; i < n; i++ {
		a := make([]uint64, param.N)
		for k := range a {
			v, err := readInt()
			if err != nil {
				return nil, err
			}
			a[k] = v
		}
		b := make([]uint64, param.Ell)
		for k := range b {
			v, err := readInt()
			if err != nil {
				return nil, err
			}
			b[k] = v
		}
		out[i] = pvw.Ciphertext{A: a, B: b}
	}
	return out, nil
}

// SavePayloads writes one line per slot, payloadSlots lines per
// message, matching the reference createDatabase/saveData layout.
func (FileStore) SavePayloads(path string, payloads [][]uint64) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("store: create payload file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, p := range payloads {
		for _, v := range p {
			if _, err := fmt.Fprintln(w, v); err != nil {
				return fmt.Errorf("store: write payload: %w", err)
			}
		}
	}
	return w.Flush()
}

// LoadPayloads reads n payloads of payloadSlots integers each.
func (FileStore) LoadPayloads(path string, n, payloadSlots int) ([][]uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("store: open payload file: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	out := make([][]uint64, n)
	for i := 0; i < n; i++ {
		row := make([]uint64, payloadSlots)
		for j := 0; j < payloadSlots; j++ {
			if !sc.Scan() {
				if err := sc.Err(); err != nil && err != io.EOF {
					return nil, fmt.Errorf("store: read payload: %w", err)
				}
				return nil, fmt.Errorf("store: truncated payload file: %w", errs.ErrCorruption)
			}
			v, err := strconv.ParseUint(sc.Text(), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("store: parse payload integer %q: %w", sc.Text(), errs.ErrCorruption)
			}
			row[j] = v
		}
		out[i] = row
	}
	return out, nil
}
