// Command sweep runs the detector across a range of database sizes N
// and renders digest size and wall-clock time as go-echarts HTML
// charts, mirroring cmd/credential_sweep and cmd/pacs_sweep's
// flag-driven sweep-and-plot structure in the reference project.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/geraldpeng6/ObliviousMessageRetrieval/internal/bipartite"
	"github.com/geraldpeng6/ObliviousMessageRetrieval/internal/config"
	"github.com/geraldpeng6/ObliviousMessageRetrieval/internal/detector"
	"github.com/geraldpeng6/ObliviousMessageRetrieval/internal/gf"
	"github.com/geraldpeng6/ObliviousMessageRetrieval/internal/harness"
	"github.com/geraldpeng6/ObliviousMessageRetrieval/internal/he"
	"github.com/geraldpeng6/ObliviousMessageRetrieval/internal/packing"
	"github.com/geraldpeng6/ObliviousMessageRetrieval/internal/pvw"
	"github.com/geraldpeng6/ObliviousMessageRetrieval/internal/pvwswitch"
)

// sweepRow is one sample point: N messages run under a given mode and
// core count, with the resulting digest size and wall-clock time.
type sweepRow struct {
	Mode         string  `json:"mode"`
	Cores        int     `json:"cores"`
	N            int     `json:"n"`
	DigestBytes  int     `json:"digest_bytes"`
	WallClockSec float64 `json:"wall_clock_sec"`
}

func main() {
	modeFlag := flag.String("mode", "omr2", "mode to sweep: omd|omr2|omr3")
	cores := flag.Int("cores", 1, "goroutine fan-out width")
	sizesFlag := flag.String("sizes", "4096,16384,65536", "comma-separated N values to sweep")
	outDir := flag.String("out", "Measure_Reports", "output directory for the JSON rows and HTML chart")
	flag.Parse()

	mode, err := parseMode(*modeFlag)
	if err != nil {
		log.Fatalf("mode: %v", err)
	}
	sizes, err := parseSizes(*sizesFlag)
	if err != nil {
		log.Fatalf("sizes: %v", err)
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("mkdir %s: %v", *outDir, err)
	}

	rows := make([]sweepRow, 0, len(sizes))
	r := rand.New(rand.NewSource(1))
	for _, n := range sizes {
		row, err := runOne(mode, *cores, n, r)
		if err != nil {
			log.Fatalf("run n=%d: %v", n, err)
		}
		log.Printf("[sweep] mode=%s cores=%d n=%d digest=%dB wallclock=%s", row.Mode, row.Cores, row.N, row.DigestBytes, time.Duration(row.WallClockSec*float64(time.Second)))
		rows = append(rows, row)
	}

	jsonPath := filepath.Join(*outDir, "sweep.json")
	if err := saveJSON(jsonPath, rows); err != nil {
		log.Fatalf("write %s: %v", jsonPath, err)
	}

	page := buildPage(rows)
	htmlPath := filepath.Join(*outDir, "sweep.html")
	f, err := os.Create(htmlPath)
	if err != nil {
		log.Fatalf("create %s: %v", htmlPath, err)
	}
	defer f.Close()
	if err := page.Render(f); err != nil {
		log.Fatalf("render %s: %v", htmlPath, err)
	}
	log.Printf("[sweep] wrote %s and %s", jsonPath, htmlPath)
}

func parseMode(s string) (config.Mode, error) {
	switch s {
	case "omd":
		return config.ModeOMD, nil
	case "omr2":
		return config.ModeOMR2, nil
	case "omr3":
		return config.ModeOMR3, nil
	default:
		return 0, fmt.Errorf("unknown mode %q", s)
	}
}

func parseSizes(s string) ([]int, error) {
	var out []int
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			if i > start {
				var n int
				if _, err := fmt.Sscanf(s[start:i], "%d", &n); err != nil {
					return nil, fmt.Errorf("parse %q: %w", s[start:i], err)
				}
				out = append(out, n)
			}
			start = i + 1
		}
	}
	return out, nil
}

func runOne(mode config.Mode, cores, n int, r *rand.Rand) (sweepRow, error) {
	cfg := config.Default(mode, n)
	cfg.Cores = cores

	params, err := he.NewDefaultParams()
	if err != nil {
		return sweepRow{}, fmt.Errorf("he params: %w", err)
	}

	sk, pk := pvw.KeyGen(cfg.PVW, cfg.PVW.N, r)
	pertinent := choosePertinent(mode, n, r)
	txs := harness.Prepare(cfg.PVW, sk, pk, n, cfg.PayloadSlots, pertinent, r)

	g, w := bipartite.Generate(cfg.NumTransactions, cfg.BucketCount, cfg.Repetitions, cfg.GraphSeed)
	ctx := config.Context{Cfg: cfg, Graph: [][]int(g), Weights: [][]uint64(w)}

	kg := he.NewKeyGenerator(params)
	keys := kg.GenKeySet(rotationSteps(cfg))

	encSecret := encryptSecretKey(params, keys, sk, cfg.PVW)
	poly := pvwswitch.RangeCheckPoly{EvenCoeffs: []uint64{1}}

	var assignments []packing.LayerAssignment
	if mode == config.ModeOMR3 {
		assignments = packing.NewLayerAssignments(r, cfg.Layers, n, cfg.Degree)
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
		return sweepRow{}, fmt.Errorf("detector run: %w", err)
	}
	elapsed := time.Since(start)

	size := 0
	if digest.PayloadCiphertext != nil {
		data, err := he.SerializeCiphertext(digest.PayloadCiphertext)
		if err != nil {
			return sweepRow{}, fmt.Errorf("serialize digest: %w", err)
		}
		size = len(data)
	}

	return sweepRow{
		Mode:         cfg.Mode.String(),
		Cores:        cores,
		N:            n,
		DigestBytes:  size,
		WallClockSec: elapsed.Seconds(),
	}, nil
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

func saveJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

func buildPage(rows []sweepRow) *components.Page {
	page := components.NewPage().SetPageTitle("Retrieval Sweep: Digest Size and Wall-clock vs N")

	xLabels := make([]string, len(rows))
	digestItems := make([]opts.LineData, len(rows))
	timeItems := make([]opts.LineData, len(rows))
	for i, row := range rows {
		xLabels[i] = fmt.Sprintf("%d", row.N)
		digestItems[i] = opts.LineData{Value: row.DigestBytes}
		timeItems[i] = opts.LineData{Value: row.WallClockSec}
	}

	sizeChart := charts.NewLine()
	sizeChart.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Payload digest size vs N"}),
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Digest size", Width: "1000px", Height: "500px"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "N"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "bytes"}),
	)
	sizeChart.SetXAxis(xLabels).AddSeries("digest bytes", digestItems)

	timeChart := charts.NewLine()
	timeChart.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Wall-clock time vs N"}),
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Wall-clock", Width: "1000px", Height: "500px"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "N"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "seconds"}),
	)
	timeChart.SetXAxis(xLabels).AddSeries("wall-clock seconds", timeItems)

	page.AddCharts(sizeChart, timeChart)
	return page
}
