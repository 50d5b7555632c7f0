// Package he is the thin facade the rest of the module calls into for
// every homomorphic operation. It is the boundary named by the design:
// BFV itself is an external collaborator (github.com/tuneinsight/lattigo/v4),
// and nothing outside this package touches lattigo types directly.
// Every exported type here wraps the corresponding lattigo/rlwe type and
// tags it with a ParmsID so that operations on ciphertexts from
// different levels fail loudly (errs.ErrParameterMismatch) instead of
// silently producing garbage slots.
package he

import (
	"github.com/tuneinsight/lattigo/v4/bfv"
	"github.com/tuneinsight/lattigo/v4/ring"
	"github.com/tuneinsight/lattigo/v4/rlwe"
	"github.com/tuneinsight/lattigo/v4/utils"

	"github.com/geraldpeng6/ObliviousMessageRetrieval/internal/errs"
)

// ParmsID identifies the ring degree and level a ciphertext or
// plaintext was produced at. Two operands must carry an equal ParmsID
// for any binary operation between them to be well defined.
type ParmsID struct {
	LogN  int
	Level int
}

// Params wraps the BFV parameter set (ring degree, modulus chain,
// plaintext modulus t) shared by every component of a run.
type Params struct {
	bfv.Parameters
}

// NewDefaultParams builds the fixed parameter set the retrieval system
// runs under: log2(D)=15 (D=32768 SIMD slots) and plaintext modulus
// t=65537, using lattigo's own post-quantum-secure default modulus
// chain for that ring degree.
func NewDefaultParams() (Params, error) {
	p, err := bfv.NewParametersFromLiteral(bfv.PN15QP880)
	if err != nil {
		return Params{}, err
	}
	return Params{p}, nil
}

// Slots returns D, the number of SIMD plaintext slots.
func (p Params) Slots() int {
	return p.Parameters.N()
}

func (p Params) idAt(level int) ParmsID {
	return ParmsID{LogN: p.LogN(), Level: level}
}

// TopID returns the ParmsID of a freshly encrypted ciphertext, i.e. the
// one at the top of the modulus chain.
func (p Params) TopID() ParmsID {
	return p.idAt(p.MaxLevel())
}

// Plaintext wraps an rlwe.Plaintext with its ParmsID.
type Plaintext struct {
	PT *rlwe.Plaintext
	ID ParmsID
}

// Ciphertext wraps an rlwe.Ciphertext with its ParmsID.
type Ciphertext struct {
	CT *rlwe.Ciphertext
	ID ParmsID
}

// CheckMatch returns errs.ErrParameterMismatch if a and b were not
// produced at the same ParmsID.
func CheckMatch(a, b ParmsID) error {
	if a != b {
		return errs.ErrParameterMismatch
	}
	return nil
}

// KeySet bundles every key a detector or recipient needs: the secret
// key (recipient only), the public key used to encrypt the PVW secret
// key for the detector, the relinearization key, and the rotation key
// set used by slot expansion and inner-sum style rotations.
type KeySet struct {
	Secret *rlwe.SecretKey
	Public *rlwe.PublicKey
	Relin  *rlwe.RelinearizationKey
	Rotate *rlwe.RotationKeySet
}

// KeyGenerator wraps rlwe.KeyGenerator, generating a coherent key set
// for a given Params instance.
type KeyGenerator struct {
	params Params
	kgen   rlwe.KeyGenerator
}

// NewKeyGenerator builds a KeyGenerator for the given parameters.
func NewKeyGenerator(p Params) *KeyGenerator {
	return &KeyGenerator{params: p, kgen: rlwe.NewKeyGenerator(p.Parameters.Parameters)}
}

// GenKeySet generates a fresh secret key, its matching public key, a
// relinearization key for degree-2 products, and rotation keys for the
// given Galois rotation steps (the steps slot expansion needs).
func (g *KeyGenerator) GenKeySet(rotationSteps []int) KeySet {
	sk, pk := g.kgen.GenKeyPair()
	rlk := g.kgen.GenRelinearizationKey(sk, 2)
	rks := g.kgen.GenRotationKeysForRotations(rotationSteps, false, sk)
	return KeySet{Secret: sk, Public: pk, Relin: rlk, Rotate: rks}
}

// Encoder wraps bfv.Encoder.
type Encoder struct {
	params Params
	enc    bfv.Encoder
}

// NewEncoder builds an Encoder for the given parameters.
func NewEncoder(p Params) *Encoder {
	return &Encoder{params: p, enc: bfv.NewEncoder(p.Parameters)}
}

// Encode packs values (length at most Slots()) into a fresh Plaintext
// at the top level.
func (e *Encoder) Encode(values []uint64) *Plaintext {
	pt := bfv.NewPlaintext(e.params.Parameters, e.params.MaxLevel())
	e.enc.Encode(values, pt)
	return &Plaintext{PT: pt, ID: e.params.idAt(e.params.MaxLevel())}
}

// Decode unpacks a Plaintext's slots into a uint64 vector.
func (e *Encoder) Decode(pt *Plaintext) []uint64 {
	values := make([]uint64, e.params.Slots())
	e.enc.Decode(pt.PT, values)
	return values
}

// Encryptor wraps rlwe.Encryptor, bound either to a public key (the
// detector's usual case) or a secret key (used by tests encrypting on
// the recipient's own behalf).
type Encryptor struct {
	params Params
	enc    rlwe.Encryptor
}

// NewEncryptor builds an Encryptor from a public or secret key.
func NewEncryptor[K *rlwe.SecretKey | *rlwe.PublicKey](p Params, key K) *Encryptor {
	return &Encryptor{params: p, enc: rlwe.NewEncryptor(p.Parameters.Parameters, key)}
}

// EncryptNew encrypts a plaintext into a fresh Ciphertext.
func (e *Encryptor) EncryptNew(pt *Plaintext) *Ciphertext {
	ct := bfv.NewCiphertext(e.params.Parameters, 1, e.params.MaxLevel())
	e.enc.Encrypt(pt.PT, ct)
	return &Ciphertext{CT: ct, ID: pt.ID}
}

// Decryptor wraps rlwe.Decryptor.
type Decryptor struct {
	params Params
	dec    rlwe.Decryptor
}

// NewDecryptor builds a Decryptor from a secret key.
func NewDecryptor(p Params, sk *rlwe.SecretKey) *Decryptor {
	return &Decryptor{params: p, dec: rlwe.NewDecryptor(p.Parameters.Parameters, sk)}
}

// DecryptNew decrypts a Ciphertext into a fresh Plaintext.
func (d *Decryptor) DecryptNew(ct *Ciphertext) *Plaintext {
	pt := bfv.NewPlaintext(d.params.Parameters, ct.CT.Level())
	d.dec.Decrypt(ct.CT, pt)
	return &Plaintext{PT: pt, ID: ct.ID}
}

// Evaluator wraps bfv.Evaluator with the ParmsID bookkeeping every
// caller in this module relies on.
type Evaluator struct {
	params Params
	eval   bfv.Evaluator
	enc    bfv.Encoder
}

// NewEvaluator builds an Evaluator bound to the given evaluation keys
// (relinearization + rotation).
func NewEvaluator(p Params, keys KeySet) *Evaluator {
	evk := rlwe.EvaluationKey{Rlk: keys.Relin, Rtks: keys.Rotate}
	return &Evaluator{params: p, eval: bfv.NewEvaluator(p.Parameters, evk), enc: bfv.NewEncoder(p.Parameters)}
}

// Slots returns D, the number of SIMD plaintext slots the evaluator's
// parameters were built with.
func (e *Evaluator) Slots() int {
	return e.params.Slots()
}

// AddNew homomorphically adds two ciphertexts at the same ParmsID.
func (e *Evaluator) AddNew(a, b *Ciphertext) (*Ciphertext, error) {
	if err := CheckMatch(a.ID, b.ID); err != nil {
		return nil, err
	}
	out := e.eval.AddNew(a.CT, b.CT)
	return &Ciphertext{CT: out, ID: a.ID}, nil
}

// MultiplyPlainNew multiplies a ciphertext by a plaintext vector
// (SIMD, slot-wise) into a fresh ciphertext, leaving a unchanged,
// without relinearization (degree does not grow for plaintext
// multiplication).
func (e *Evaluator) MultiplyPlainNew(a *Ciphertext, values []uint64) *Ciphertext {
	pt := e.enc.EncodeMulNew(values, a.CT.Level())
	out := e.eval.MulNew(a.CT, pt)
	return &Ciphertext{CT: out, ID: a.ID}
}

// MultiplyPlainAdd multiplies a by values and returns acc plus the
// product as a fresh ciphertext (acc itself is not modified); acc may
// be nil, in which case the product alone is returned. This is the
// building block every
// packer and the payload compressor use to accumulate a running sum.
func (e *Evaluator) MultiplyPlainAdd(acc *Ciphertext, a *Ciphertext, values []uint64) (*Ciphertext, error) {
	prod := e.MultiplyPlainNew(a, values)
	if acc == nil {
		return prod, nil
	}
	return e.AddNew(acc, prod)
}

// MultiplyNew multiplies two ciphertexts at the same ParmsID,
// returning a degree-2 result the caller must relinearize before any
// further multiplication.
func (e *Evaluator) MultiplyNew(a, b *Ciphertext) (*Ciphertext, error) {
	if err := CheckMatch(a.ID, b.ID); err != nil {
		return nil, err
	}
	out := e.eval.MulNew(a.CT, b.CT)
	return &Ciphertext{CT: out, ID: a.ID}, nil
}

// RelinearizeNew relinearizes a degree-2 ciphertext back down to
// degree 1.
func (e *Evaluator) RelinearizeNew(a *Ciphertext) *Ciphertext {
	out := e.eval.RelinearizeNew(a.CT)
	return &Ciphertext{CT: out, ID: a.ID}
}

// RotateNew rotates a's slots by k positions (cyclic over the first
// SIMD row), the primitive slot expansion's binary-tree halving is
// built from.
func (e *Evaluator) RotateNew(a *Ciphertext, k int) (*Ciphertext, error) {
	out := e.eval.RotateColumnsNew(a.CT, k)
	return &Ciphertext{CT: out, ID: a.ID}, nil
}

// ModSwitchNew drops the ciphertext one level in the modulus chain
// without rescaling the plaintext (BFV's scale-invariant encoding
// means no rescale factor is needed, only a level drop), matching the
// reference design's mod-switch step between phase 1 and phase 2 of
// the detector pipeline.
func (e *Evaluator) ModSwitchNew(a *Ciphertext) *Ciphertext {
	out := a.CT.CopyNew()
	out.Resize(out.Degree(), out.Level()-1)
	return &Ciphertext{CT: out, ID: e.params.idAt(out.Level())}
}

// NTTTransform lifts a raw coefficient-domain uint64 vector into the
// ring's NTT domain in place, used when aligning a plain PVW scalar
// array with a BFV plaintext's internal representation before it is
// handed to Encode.
func NTTTransform(rq *ring.Ring, coeffs []uint64) {
	p := rq.NewPoly()
	copy(p.Coeffs[0], coeffs)
	rq.NTT(p, p)
	copy(coeffs, p.Coeffs[0])
}

// InvNTTTransform is the inverse of NTTTransform.
func InvNTTTransform(rq *ring.Ring, coeffs []uint64) {
	p := rq.NewPoly()
	copy(p.Coeffs[0], coeffs)
	rq.InvNTT(p, p)
	copy(coeffs, p.Coeffs[0])
}

// SerializeCiphertext encodes a Ciphertext to bytes.
func SerializeCiphertext(ct *Ciphertext) ([]byte, error) {
	return ct.CT.MarshalBinary()
}

// DeserializeCiphertext decodes bytes produced by SerializeCiphertext,
// tagging the result with the given ParmsID (the wire format itself
// does not carry one; the caller is expected to know the level a
// message was produced at, exactly as the reference design's
// serialized digests do not self-describe their parms_id).
func DeserializeCiphertext(data []byte, id ParmsID) (*Ciphertext, error) {
	ct := new(rlwe.Ciphertext)
	if err := ct.UnmarshalBinary(data); err != nil {
		return nil, errs.ErrCorruption
	}
	return &Ciphertext{CT: ct, ID: id}, nil
}

// NewPRNG returns a fresh, cryptographically seeded PRNG source, the
// same construction SPRUCE's own tests use to seed lattigo's internal
// samplers (utils.NewPRNG wraps a keyed PRF suitable for both key
// generation and deterministic testing).
func NewPRNG() (utils.PRNG, error) {
	return utils.NewPRNG()
}
