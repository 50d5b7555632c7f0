// Package bipartite generates the deterministic bipartite graph and
// weight table the payload compressor scatters each message's payload
// into. Both the detector and the recipient must derive byte-identical
// graphs from the same (n, m, rep, seed) tuple, so the draw stream is
// expanded from a domain-separated SHAKE-256 sponge rather than a bare
// math/rand seed, mirroring the deterministic digest construction in
// DECS/merkle.go's shake16 helper.
package bipartite

import (
	"encoding/binary"

	"golang.org/x/crypto/sha3"
)

const (
	graphDomain byte = 0x10
	weightDomain byte = 0x11
)

// Graph holds the bucket assignment: Graph[i] lists the rep distinct
// bucket indices in [0,m) message i is scattered into.
type Graph [][]int

// Weights holds the GF(t) weight paired with each entry of Graph:
// Weights[i][k] corresponds to Graph[i][k].
type Weights [][]uint64

// streamReader wraps a SHAKE-256 sponge seeded from (n, m, rep, seed,
// domain) as a source of uniform draws, replayable identically by any
// caller holding the same four integers.
type streamReader struct {
	sponge sha3.ShakeHash
}

func newStream(n, m, rep int, seed uint64, domain byte) *streamReader {
	sponge := sha3.NewShake256()
	var hdr [1 + 8*4]byte
	hdr[0] = domain
	binary.LittleEndian.PutUint64(hdr[1:], uint64(n))
	binary.LittleEndian.PutUint64(hdr[9:], uint64(m))
	binary.LittleEndian.PutUint64(hdr[17:], uint64(rep))
	binary.LittleEndian.PutUint64(hdr[25:], seed)
	sponge.Write(hdr[:])
	return &streamReader{sponge: sponge}
}

// uint32 draws a uniform 4-byte value from the stream.
func (s *streamReader) uint32() uint32 {
	var buf [4]byte
	s.sponge.Read(buf[:])
	return binary.LittleEndian.Uint32(buf[:])
}

// intn draws a value uniform in [0,n) via rejection sampling against
// the largest multiple of n below 2^32, avoiding modulo bias.
func (s *streamReader) intn(n int) int {
	if n <= 0 {
		return 0
	}
	bound := (^uint32(0) / uint32(n)) * uint32(n)
	for {
		v := s.uint32()
		if v < bound {
			return int(v % uint32(n))
		}
	}
}

// Generate builds the bucket graph and weight table for n messages
// scattered with multiplicity rep across m buckets, seeded by seed. It
// is a pure function: identical inputs always produce an identical
// Graph and Weights, the property the detector and recipient rely on
// to avoid ever transmitting the graph itself.
func Generate(n, m, rep int, seed uint64) (Graph, Weights) {
	graphStream := newStream(n, m, rep, seed, graphDomain)
	weightStream := newStream(n, m, rep, seed, weightDomain)

	graph := make(Graph, n)
	weights := make(Weights, n)

	for i := 0; i < n; i++ {
		buckets := make([]int, 0, rep)
		seen := make(map[int]bool, rep)
		for len(buckets) < rep && len(seen) < m {
			b := graphStream.intn(m)
			if seen[b] {
				continue
			}
			seen[b] = true
			buckets = append(buckets, b)
		}
		w := make([]uint64, len(buckets))
		for k := range w {
			// weight uniform in [1, t); t=65537 here is the field
			// modulus the payload compressor and recipient solver run
			// over, kept local to avoid importing gf for one constant.
			w[k] = uint64(weightStream.intn(65536)) + 1
		}
		graph[i] = buckets
		weights[i] = w
	}
	return graph, weights
}
