// Command omr is the retrieval system's interactive entry point,
// exposing the nine run modes of the reference design as a simple
// numbered menu: detection-key size reports for OMD1p/OMR2p, then
// OMD1p, OMR2p and OMR3p runs at a chosen core count, each one
// decoding the resulting digest and verifying recovered payloads
// against the synthesized ground truth before reporting success.
package main

import (
	"bufio"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/geraldpeng6/ObliviousMessageRetrieval/internal/bipartite"
	"github.com/geraldpeng6/ObliviousMessageRetrieval/internal/config"
	"github.com/geraldpeng6/ObliviousMessageRetrieval/internal/detector"
	"github.com/geraldpeng6/ObliviousMessageRetrieval/internal/gf"
	"github.com/geraldpeng6/ObliviousMessageRetrieval/internal/harness"
	"github.com/geraldpeng6/ObliviousMessageRetrieval/internal/he"
	"github.com/geraldpeng6/ObliviousMessageRetrieval/internal/measure"
	"github.com/geraldpeng6/ObliviousMessageRetrieval/internal/packing"
	"github.com/geraldpeng6/ObliviousMessageRetrieval/internal/pvw"
	"github.com/geraldpeng6/ObliviousMessageRetrieval/internal/pvwswitch"
	"github.com/geraldpeng6/ObliviousMessageRetrieval/internal/recipient"
	"github.com/geraldpeng6/ObliviousMessageRetrieval/measureutil"
)

type option struct {
	label string
	mode  config.Mode
	cores int
	// keySize selects the detection-key byte-size report instead of a
	// full detector run, for menu options 1 and 2.
	keySize bool
}

var menu = []option{
	{"print OMD1p key sizes", config.ModeOMD, 1, true},
	{"print OMR2p key sizes", config.ModeOMR2, 1, true},
	{"run OMD1p (1 thread)", config.ModeOMD, 1, false},
	{"run OMR2p (1 thread)", config.ModeOMR2, 1, false},
	{"run OMR3p (1 thread)", config.ModeOMR3, 1, false},
	{"run OMR2p (2 threads)", config.ModeOMR2, 2, false},
	{"run OMR3p (2 threads)", config.ModeOMR3, 2, false},
	{"run OMR2p (4 threads)", config.ModeOMR2, 4, false},
	{"run OMR3p (4 threads)", config.ModeOMR3, 4, false},
}

func init() {
	measure.Enabled = true
	if cwd, err := os.Getwd(); err == nil {
		log.Printf("[omr-cli] starting in %s", cwd)
	}
}

func main() {
	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Println("Oblivious Message Retrieval")
		for i, opt := range menu {
			fmt.Printf("  %d: %s\n", i+1, opt.label)
		}
		fmt.Println("  0: exit")
		fmt.Print("> ")

		line, err := reader.ReadString('\n')
		if err != nil {
			log.Fatalf("read input: %v", err)
		}
		choice, err := strconv.Atoi(strings.TrimSpace(line))
		if err != nil {
			fmt.Println("invalid choice")
			continue
		}
		if choice == 0 {
			return
		}
		if choice < 1 || choice > len(menu) {
			fmt.Println("invalid choice")
			continue
		}
		opt := menu[choice-1]
		if opt.keySize {
			printKeySize(opt)
		} else {
			runOption(opt)
		}
	}
}

// printKeySize builds a fresh key set and the detector's encrypted
// PVW secret key (the "detection key" spec section 6 options 1 and 2
// report) and logs its serialized byte size, without running the
// detector itself.
func printKeySize(opt option) {
	const numTransactions = 1 << 16
	cfg := config.Default(opt.mode, numTransactions)

	params, err := he.NewDefaultParams()
	if err != nil {
		log.Fatalf("he params: %v", err)
	}
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	sk, _ := pvw.KeyGen(cfg.PVW, cfg.PVW.N, r)

	kg := he.NewKeyGenerator(params)
	keys := kg.GenKeySet(rotationSteps(cfg))
	encSecret := encryptSecretKey(params, keys, sk, cfg.PVW)

	size, err := detectionKeySize(encSecret)
	if err != nil {
		log.Fatalf("serialize detection key: %v", err)
	}
	log.Printf("[omr-cli] %s detection-key size: %d bytes", cfg.Mode, size)
}

func detectionKeySize(encSecret pvwswitch.EncryptedSecretKey) (int, error) {
	total := 0
	for _, row := range encSecret.Rows {
		for _, ct := range row {
			data, err := he.SerializeCiphertext(ct)
			if err != nil {
				return 0, err
			}
			total += len(data)
		}
	}
	data, err := he.SerializeCiphertext(encSecret.EncOne)
	if err != nil {
		return 0, err
	}
	return total + len(data), nil
}

func runOption(opt option) {
	const numTransactions = 1 << 16
	cfg := config.Default(opt.mode, numTransactions)
	cfg.Cores = opt.cores

	log.Printf("[omr-cli] running %s mode=%s cores=%d", opt.label, cfg.Mode, cfg.Cores)

	params, err := he.NewDefaultParams()
	if err != nil {
		log.Fatalf("he params: %v", err)
	}

	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	sk, pk := pvw.KeyGen(cfg.PVW, cfg.PVW.N, r)

	pertinent := choosePertinent(opt.mode, numTransactions, r)
	txs := harness.Prepare(cfg.PVW, sk, pk, numTransactions, cfg.PayloadSlots, pertinent, r)

	graph, weights := buildGraph(cfg)
	ctx := config.Context{Cfg: cfg, Graph: graph, Weights: weights}

	kg := he.NewKeyGenerator(params)
	keys := kg.GenKeySet(rotationSteps(cfg))

	encSecret := encryptSecretKey(params, keys, sk, cfg.PVW)
	poly := pvwswitch.RangeCheckPoly{EvenCoeffs: []uint64{1}}

	var assignments []packing.LayerAssignment
	if cfg.Mode == config.ModeOMR3 {
		assignments = packing.NewLayerAssignments(r, cfg.Layers, numTransactions, cfg.Degree)
	}

	in := detector.Inputs{
		Keys:        keys,
		Clues:       txs.Clues,
		Payloads:    txs.Payloads,
		EncSecret:   encSecret,
		RangePoly:   poly,
		Assignments: assignments,
	}

	start := time.Now()
	digest, err := detector.Run(params, cfg, ctx, in)
	if err != nil {
		log.Fatalf("detector run: %v", err)
	}
	log.Printf("[omr-cli] detector finished in %s", time.Since(start))

	if digest.PayloadCiphertext != nil {
		data, err := he.SerializeCiphertext(digest.PayloadCiphertext)
		if err != nil {
			log.Fatalf("serialize payload digest: %v", err)
		}
		log.Printf("[omr-cli] payload digest size: %d bytes", len(data))
	}

	dec := he.NewDecryptor(params, keys.Secret)
	enc := he.NewEncoder(params)

	indices, err := recoverIndices(enc, dec, cfg.Mode, digest, numTransactions, len(txs.PertinentIndices))
	if err != nil {
		log.Fatalf("decode indices: %v", err)
	}
	log.Printf("[omr-cli] recovered indices %v (want %v)", indices, txs.PertinentIndices)
	if !sameIndexSet(indices, txs.PertinentIndices) {
		log.Fatalf("recovered index set %v does not match expected %v", indices, txs.PertinentIndices)
	}

	if err := verifyPayloads(params, keys, ctx, cfg, digest, indices, txs.Payloads); err != nil {
		log.Fatalf("payload verification: %v", err)
	}
	log.Printf("[omr-cli] payload verification succeeded for %d indices", len(indices))

	if snap := measureutil.SnapshotAndReset(); len(snap) > 0 {
		log.Printf("[omr-cli] measurements: %v", snap)
	}
}

// recoverIndices decrypts and decodes the digest's index-retrieval
// ciphertext(s) into a pertinent index set, per spec section 4.9.
// expected is only consulted by OMR3p, whose randomized layers stop
// scanning once that many distinct indices have been found.
func recoverIndices(enc *he.Encoder, dec *he.Decryptor, mode config.Mode, digest detector.Digest, n, expected int) ([]int, error) {
	switch mode {
	case config.ModeOMD, config.ModeOMR2:
		if digest.IndexCiphertext == nil {
			return nil, fmt.Errorf("digest has no index ciphertext")
		}
		decoded := enc.Decode(dec.DecryptNew(digest.IndexCiphertext))
		if mode == config.ModeOMD {
			return recipient.DecodeIndicesOMD(decoded, n), nil
		}
		return recipient.DecodeIndicesOMR2(decoded, n), nil
	default:
		layers := make([]recipient.LayerDecoded, len(digest.Layers))
		for i, layer := range digest.Layers {
			layers[i] = recipient.LayerDecoded{
				Hi:      enc.Decode(dec.DecryptNew(layer.Hi)),
				Lo:      enc.Decode(dec.DecryptNew(layer.Lo)),
				Counter: enc.Decode(dec.DecryptNew(layer.Counter)),
			}
		}
		return recipient.DecodeIndicesOMR3(layers, expected)
	}
}

// verifyPayloads decrypts the payload digest, restricts the bipartite
// graph to the recovered indices, solves the resulting GF(t) system,
// and checks every recovered payload against want.
func verifyPayloads(params he.Params, keys he.KeySet, ctx config.Context, cfg config.Config, digest detector.Digest, indices []int, want [][]uint64) error {
	if digest.PayloadCiphertext == nil {
		return fmt.Errorf("digest has no payload ciphertext")
	}
	dec := he.NewDecryptor(params, keys.Secret)
	enc := he.NewEncoder(params)
	decoded := enc.Decode(dec.DecryptNew(digest.PayloadCiphertext))

	rows, a := recipient.BuildCoefficientMatrix(indices, bipartite.Graph(ctx.Graph), bipartite.Weights(ctx.Weights))
	b := make([][]uint64, len(rows))
	for r, bucket := range rows {
		base := bucket * cfg.PayloadSlots
		b[r] = append([]uint64(nil), decoded[base:base+cfg.PayloadSlots]...)
	}

	x, err := recipient.SolveGF(a, b)
	if err != nil {
		return fmt.Errorf("solve payload system: %w", err)
	}
	for col, idx := range indices {
		if idx >= len(want) {
			continue
		}
		for s, v := range want[idx] {
			if x[col][s] != v {
				return fmt.Errorf("message %d slot %d: got %d want %d", idx, s, x[col][s], v)
			}
		}
	}
	return nil
}

func sameIndexSet(got, want []int) bool {
	if len(got) != len(want) {
		return false
	}
	set := make(map[int]bool, len(want))
	for _, v := range want {
		set[v] = true
	}
	for _, v := range got {
		if !set[v] {
			return false
		}
	}
	return true
}

func choosePertinent(mode config.Mode, n int, r *rand.Rand) []int {
	switch mode {
	case config.ModeOMD:
		return []int{r.Intn(n)}
	case config.ModeOMR2:
		return []int{r.Intn(n), r.Intn(n), r.Intn(n)}
	default:
		return []int{r.Intn(n), r.Intn(n), r.Intn(n), r.Intn(n), r.Intn(n)}
	}
}

func buildGraph(cfg config.Config) (graph [][]int, weights [][]uint64) {
	g, w := bipartite.Generate(cfg.NumTransactions, cfg.BucketCount, cfg.Repetitions, cfg.GraphSeed)
	return [][]int(g), [][]uint64(w)
}

func rotationSteps(cfg config.Config) []int {
	steps := make([]int, 0)
	for s := 1; s < cfg.Degree; s <<= 1 {
		steps = append(steps, s)
	}
	return steps
}

func encryptSecretKey(params he.Params, keys he.KeySet, sk pvw.SecretKey, param pvw.Param) pvwswitch.EncryptedSecretKey {
	enc := he.NewEncoder(params)
	encryptor := he.NewEncryptor(params, keys.Public)

	rows := make([][]*he.Ciphertext, param.Ell)
	for j := 0; j < param.Ell; j++ {
		row := make([]*he.Ciphertext, param.N)
		for k := 0; k < param.N; k++ {
			values := make([]uint64, params.Slots())
			for s := range values {
				values[s] = sk.Rows[j][k] % gf.T
			}
			row[k] = encryptor.EncryptNew(enc.Encode(values))
		}
		rows[j] = row
	}

	ones := make([]uint64, params.Slots())
	for i := range ones {
		ones[i] = 1
	}
	encOne := encryptor.EncryptNew(enc.Encode(ones))

	return pvwswitch.EncryptedSecretKey{Rows: rows, EncOne: encOne}
}
