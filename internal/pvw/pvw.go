// Package pvw implements the PVW (Peikert-Vaikuntanathan-Waters style)
// lattice encryption scheme used to address clues: a recipient's public
// key encrypts a short target vector, and decryption recovers a short
// error vector only when the ciphertext was built against that
// recipient's key. The homomorphic evaluation of this decryption
// (§4.2 of the design) is a separate, external concern (see package
// pvwswitch); this package only deals with the plaintext scheme, used
// by the test harness to synthesize clues and by unit tests to check
// expected pertinency against the detector's output.
package pvw

import (
	"math"
	"math/rand"
)

// Param is the fixed PVW parameter set. Every field must match across
// key generation, encryption and decryption for a given run.
type Param struct {
	N     int     // LWE dimension
	Q     uint64  // ciphertext modulus (equal to the BFV plaintext modulus t)
	Sigma float64 // Gaussian noise parameter
	Bound uint64  // decryption error bound distinguishing pertinent from noise
	Ell   int     // number of parallel LWE instances (clue "slots")
}

// DefaultParam returns the scheme's fixed parameter set:
// n=450, q=t=65537, sigma=1.3, bound=850, ell=4.
func DefaultParam() Param {
	return Param{N: 450, Q: 65537, Sigma: 1.3, Bound: 850, Ell: 4}
}

// SecretKey is an Ell x N matrix over Z_Q.
type SecretKey struct {
	Rows [][]uint64
}

// PublicKey is (A, P) where A is M x N and P = A*S^T + E is M x Ell,
// both over Z_Q. A is shared across all clues addressed to this key.
type PublicKey struct {
	A [][]uint64 // M x N
	P [][]uint64 // M x Ell
}

// Ciphertext is a single clue: a in Z_Q^N, b in Z_Q^Ell.
type Ciphertext struct {
	A []uint64
	B []uint64
}

func modQ(q uint64, x int64) uint64 {
	m := int64(q)
	x %= m
	if x < 0 {
		x += m
	}
	return uint64(x)
}

func gaussianSample(r *rand.Rand, sigma float64) int64 {
	return int64(math.Round(r.NormFloat64() * sigma))
}

// KeyGen derives a fresh (SecretKey, PublicKey) pair over the given
// parameters using r for all randomness. m is the number of rows of A
// (the public matrix dimension); callers typically use m = param.N.
func KeyGen(param Param, m int, r *rand.Rand) (SecretKey, PublicKey) {
	sk := SecretKey{Rows: make([][]uint64, param.Ell)}
	for j := range sk.Rows {
		row := make([]uint64, param.N)
		for i := range row {
			row[i] = uint64(r.Int63n(int64(param.Q)))
		}
		sk.Rows[j] = row
	}

	a := make([][]uint64, m)
	for i := range a {
		row := make([]uint64, param.N)
		for k := range row {
			row[k] = uint64(r.Int63n(int64(param.Q)))
		}
		a[i] = row
	}

	p := make([][]uint64, m)
	for i := range p {
		row := make([]uint64, param.Ell)
		for j := 0; j < param.Ell; j++ {
			var acc int64
			for k := 0; k < param.N; k++ {
				acc += int64(a[i][k]) * int64(sk.Rows[j][k])
			}
			acc += gaussianSample(r, param.Sigma)
			row[j] = modQ(param.Q, acc)
		}
		p[i] = row
	}

	return sk, PublicKey{A: a, P: p}
}

// Encrypt builds a clue under pk. When pertinent is true the clue
// decrypts (under the matching secret key) to a vector of small
// Gaussian errors; when false it decrypts to an effectively uniform
// vector in Z_Q^Ell, each coordinate of which falls inside
// [-param.Bound, param.Bound] only with probability (2*Bound+1)/Q.
func Encrypt(param Param, pk PublicKey, pertinent bool, r *rand.Rand) Ciphertext {
	m := len(pk.A)
	a := make([]uint64, param.N)
	b := make([]uint64, param.Ell)

	// Random 0/1 combination vector selecting which rows of (A,P) to sum.
	sel := make([]int, m)
	for i := range sel {
		sel[i] = r.Intn(2)
	}

	for k := 0; k < param.N; k++ {
		var acc int64
		for i := 0; i < m; i++ {
			if sel[i] == 1 {
				acc += int64(pk.A[i][k])
			}
		}
		a[k] = modQ(param.Q, acc)
	}

	for j := 0; j < param.Ell; j++ {
		var acc int64
		for i := 0; i < m; i++ {
			if sel[i] == 1 {
				acc += int64(pk.P[i][j])
			}
		}
		if !pertinent {
			acc = r.Int63n(int64(param.Q))
		}
		b[j] = modQ(param.Q, acc)
	}

	return Ciphertext{A: a, B: b}
}

// Decrypt recovers the Ell-length error vector b - a*S^T mod Q,
// recentered into (-Q/2, Q/2].
func Decrypt(param Param, sk SecretKey, ct Ciphertext) []int64 {
	out := make([]int64, param.Ell)
	half := int64(param.Q / 2)
	for j := 0; j < param.Ell; j++ {
		var acc int64
		for k := 0; k < param.N; k++ {
			acc += int64(ct.A[k]) * int64(sk.Rows[j][k])
		}
		v := int64(ct.B[j]) - acc
		v = ((v % int64(param.Q)) + int64(param.Q)) % int64(param.Q)
		if v > half {
			v -= int64(param.Q)
		}
		out[j] = v
	}
	return out
}

// IsPertinent reports whether every coordinate of the decrypted error
// vector lies within [-bound, bound], the test the recipient's own,
// non-homomorphic decryption uses to validate a pertinent clue before
// trusting the detector's SIC output in an end-to-end test.
func IsPertinent(errVec []int64, bound uint64) bool {
	b := int64(bound)
	for _, v := range errVec {
		if v > b || v < -b {
			return false
		}
	}
	return true
}
