package bipartite

import "testing"

func TestGenerateDeterministic(t *testing.T) {
	g1, w1 := Generate(100, 40, 3, 42)
	g2, w2 := Generate(100, 40, 3, 42)
	for i := range g1 {
		if len(g1[i]) != len(g2[i]) {
			t.Fatalf("message %d: bucket count differs across runs", i)
		}
		for k := range g1[i] {
			if g1[i][k] != g2[i][k] || w1[i][k] != w2[i][k] {
				t.Fatalf("message %d: graph/weights not reproducible", i)
			}
		}
	}
}

func TestGenerateDistinctBuckets(t *testing.T) {
	g, _ := Generate(50, 20, 5, 7)
	for i, buckets := range g {
		seen := make(map[int]bool)
		for _, b := range buckets {
			if seen[b] {
				t.Fatalf("message %d: bucket %d repeated", i, b)
			}
			seen[b] = true
			if b < 0 || b >= 20 {
				t.Fatalf("message %d: bucket %d out of range", i, b)
			}
		}
	}
}

func TestGenerateWeightBounds(t *testing.T) {
	_, w := Generate(50, 20, 5, 7)
	for i, row := range w {
		for _, v := range row {
			if v < 1 || v >= 65537 {
				t.Fatalf("message %d: weight %d out of [1,65537)", i, v)
			}
		}
	}
}

func TestGenerateDifferentSeedsDiffer(t *testing.T) {
	g1, _ := Generate(200, 40, 3, 1)
	g2, _ := Generate(200, 40, 3, 2)
	same := true
	for i := range g1 {
		if len(g1[i]) != len(g2[i]) {
			same = false
			break
		}
		for k := range g1[i] {
			if g1[i][k] != g2[i][k] {
				same = false
			}
		}
	}
	if same {
		t.Fatal("different seeds produced identical graphs")
	}
}
