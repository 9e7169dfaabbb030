package vx7_test

import (
	"math"
	"testing"

	"github.com/vx7synth/vx7"
)

func TestAlgorithmTablesWellFormed(t *testing.T) {
	for i := range vx7.Algorithms {
		a := &vx7.Algorithms[i]
		if len(a.Carriers) == 0 {
			t.Errorf("algorithm %d has no carriers", i+1)
		}
		seen := map[int]bool{}
		for _, c := range a.Carriers {
			if c < 0 || c >= vx7.NumOperators {
				t.Errorf("algorithm %d carrier %d out of range", i+1, c)
			}
			if seen[c] {
				t.Errorf("algorithm %d lists carrier %d twice", i+1, c)
			}
			seen[c] = true
		}
		if a.FeedbackOp < 0 || a.FeedbackOp >= vx7.NumOperators {
			t.Errorf("algorithm %d feedback op %d out of range", i+1, a.FeedbackOp)
		}
		for _, m := range a.Modulations {
			if m[0] == m[1] {
				t.Errorf("algorithm %d has an explicit self edge %v", i+1, m)
			}
		}
	}
}

func TestAlgorithmRenderOrderRespectsModulations(t *testing.T) {
	for i := range vx7.Algorithms {
		a := &vx7.Algorithms[i]
		order := a.RenderOrder()
		if len(order) != vx7.NumOperators {
			t.Fatalf("algorithm %d render order has %d entries", i+1, len(order))
		}
		position := map[int]int{}
		for pos, op := range order {
			position[op] = pos
		}
		for _, m := range a.Modulations {
			if position[m[0]] > position[m[1]] {
				t.Errorf("algorithm %d renders op %d after the op %d it modulates", i+1, m[0], m[1])
			}
		}
	}
}

func TestAlgorithmModSourcesMatchModulations(t *testing.T) {
	for i := range vx7.Algorithms {
		a := &vx7.Algorithms[i]
		count := 0
		for op := 0; op < vx7.NumOperators; op++ {
			for _, src := range a.ModSources(op) {
				count++
				found := false
				for _, m := range a.Modulations {
					if m[0] == src && m[1] == op {
						found = true
					}
				}
				if !found {
					t.Errorf("algorithm %d: spurious mod source %d->%d", i+1, src, op)
				}
			}
		}
		if count != len(a.Modulations) {
			t.Errorf("algorithm %d: %d mod sources for %d modulations", i+1, count, len(a.Modulations))
		}
	}
}

func TestAlgorithmCarrierNorm(t *testing.T) {
	for i := range vx7.Algorithms {
		a := &vx7.Algorithms[i]
		want := 1 / math.Sqrt(float64(len(a.Carriers)))
		if got := a.CarrierNorm(); math.Abs(got-want) > 1e-12 {
			t.Errorf("algorithm %d carrier norm %v, want %v", i+1, got, want)
		}
	}
}

func TestAlgorithmLookupClamps(t *testing.T) {
	if vx7.Algorithm(0) != &vx7.Algorithms[0] {
		t.Errorf("algorithm 0 should clamp to 1")
	}
	if vx7.Algorithm(33) != &vx7.Algorithms[31] {
		t.Errorf("algorithm 33 should clamp to 32")
	}
	if vx7.Algorithm(22) != &vx7.Algorithms[21] {
		t.Errorf("algorithm lookup should be 1-based")
	}
}

func TestFeedbackLevelDoublesPerStep(t *testing.T) {
	if vx7.FeedbackLevel(0) != 0 {
		t.Fatalf("feedback 0 should be silent")
	}
	if got, want := vx7.FeedbackLevel(7), math.Pi/4; math.Abs(got-want) > 1e-12 {
		t.Fatalf("feedback 7 is %v, want %v", got, want)
	}
	for param := 2; param <= 7; param++ {
		ratio := vx7.FeedbackLevel(param) / vx7.FeedbackLevel(param-1)
		if math.Abs(ratio-2) > 1e-9 {
			t.Errorf("feedback %d/%d ratio %v, want 2", param, param-1, ratio)
		}
	}
}

func TestKnownTopologies(t *testing.T) {
	// Algorithm 1 is the classic single six-deep stack.
	a := vx7.Algorithm(1)
	if len(a.Carriers) != 1 || a.Carriers[0] != 0 {
		t.Errorf("algorithm 1 carriers %v, want [0]", a.Carriers)
	}
	// Algorithm 22: op 6 modulates all five carriers.
	a = vx7.Algorithm(22)
	if len(a.Carriers) != 5 {
		t.Errorf("algorithm 22 carriers %v, want five", a.Carriers)
	}
	for op := 0; op < 5; op++ {
		if !a.IsCarrier(op) {
			t.Errorf("algorithm 22 op %d should be a carrier", op)
		}
		src := a.ModSources(op)
		if len(src) != 1 || src[0] != 5 {
			t.Errorf("algorithm 22 op %d mod sources %v, want [5]", op, src)
		}
	}
	// Algorithm 32: six parallel carriers, no modulation.
	a = vx7.Algorithm(32)
	if len(a.Carriers) != vx7.NumOperators || len(a.Modulations) != 0 {
		t.Errorf("algorithm 32 should be six parallel carriers")
	}
}
