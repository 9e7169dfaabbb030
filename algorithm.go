package vx7

import (
	"math"
	"sort"
)

// NumAlgorithms is the number of fixed operator topologies.
const NumAlgorithms = 32

// AlgorithmDef is one of the 32 fixed operator routings: which
// operators are carriers, which modulates which, and the single
// operator that feeds back into itself. Operators are 0-indexed here
// (op 0 is panel operator 1). The definitions are immutable package
// data; all derived routing info is precomputed at init.
type AlgorithmDef struct {
	Carriers    []int    // operators summed into the audio output
	Modulations [][2]int // {source, destination} pairs
	FeedbackOp  int      // operator with self-feedback

	renderOrder []int
	modSources  [NumOperators][]int
	isCarrier   [NumOperators]bool
	carrierNorm float64
}

// Algorithms holds all 32 topologies, index 0 = algorithm 1.
// Transcribed from the operator routing chart; the comment notation
// "6->5->4->3->2->1*" means op 6 modulates op 5 and so on down to the
// carrier (marked *), with fb naming the self-feedback operator.
var Algorithms = [NumAlgorithms]AlgorithmDef{
	// 1:  6->5->4->3->2->1*   fb:6
	{Carriers: []int{0}, Modulations: [][2]int{{5, 4}, {4, 3}, {3, 2}, {2, 1}, {1, 0}}, FeedbackOp: 5},
	// 2:  6->5->4->3->2->1*   fb:2
	{Carriers: []int{0}, Modulations: [][2]int{{5, 4}, {4, 3}, {3, 2}, {2, 1}, {1, 0}}, FeedbackOp: 1},
	// 3:  6->5->4->1*  3->2->1*   fb:6
	{Carriers: []int{0}, Modulations: [][2]int{{5, 4}, {4, 3}, {3, 0}, {2, 1}, {1, 0}}, FeedbackOp: 5},
	// 4:  6->5->4->3->2->1*   fb:4
	{Carriers: []int{0}, Modulations: [][2]int{{5, 4}, {4, 3}, {3, 2}, {2, 1}, {1, 0}}, FeedbackOp: 3},
	// 5:  6->5->4->3*   2->1*   fb:6
	{Carriers: []int{0, 2}, Modulations: [][2]int{{5, 4}, {4, 3}, {3, 2}, {1, 0}}, FeedbackOp: 5},
	// 6:  6->5->4->3*   2->1*   fb:5
	{Carriers: []int{0, 2}, Modulations: [][2]int{{5, 4}, {4, 3}, {3, 2}, {1, 0}}, FeedbackOp: 4},
	// 7:  6->5->4+3 -> 2 -> 1*   fb:6
	{Carriers: []int{0}, Modulations: [][2]int{{5, 4}, {4, 3}, {3, 1}, {2, 1}, {1, 0}}, FeedbackOp: 5},
	// 8:  4->3   6->5   (3+5)->2->1*   fb:4
	{Carriers: []int{0}, Modulations: [][2]int{{3, 2}, {5, 4}, {2, 1}, {4, 1}, {1, 0}}, FeedbackOp: 3},
	// 9:  4->3   6->5   (3+5)->2->1*   fb:2
	{Carriers: []int{0}, Modulations: [][2]int{{3, 2}, {5, 4}, {2, 1}, {4, 1}, {1, 0}}, FeedbackOp: 1},
	// 10:  6->5->4*   3->2->1*   fb:3
	{Carriers: []int{0, 3}, Modulations: [][2]int{{5, 4}, {4, 3}, {2, 1}, {1, 0}}, FeedbackOp: 2},
	// 11:  6->5->4*   3->2->1*   fb:6
	{Carriers: []int{0, 3}, Modulations: [][2]int{{5, 4}, {4, 3}, {2, 1}, {1, 0}}, FeedbackOp: 5},
	// 12:  2->1*   6->5->4->3*   fb:2
	{Carriers: []int{0, 2}, Modulations: [][2]int{{1, 0}, {5, 4}, {4, 3}, {3, 2}}, FeedbackOp: 1},
	// 13:  2->1*   6->5->4->3*   fb:6
	{Carriers: []int{0, 2}, Modulations: [][2]int{{1, 0}, {5, 4}, {4, 3}, {3, 2}}, FeedbackOp: 5},
	// 14:  6->5->4->3*   2->1*   fb:6
	{Carriers: []int{0, 2}, Modulations: [][2]int{{5, 4}, {4, 3}, {3, 2}, {1, 0}}, FeedbackOp: 5},
	// 15:  6->5->3*   2->1*   fb:2
	{Carriers: []int{0, 2}, Modulations: [][2]int{{1, 0}, {5, 4}, {4, 2}}, FeedbackOp: 1},
	// 16:  6->5   (5+3+2)->1*   4->3   fb:6
	{Carriers: []int{0}, Modulations: [][2]int{{5, 4}, {4, 0}, {3, 2}, {2, 0}, {1, 0}}, FeedbackOp: 5},
	// 17:  6->5   3->2   (5+4+2)->1*   fb:2
	{Carriers: []int{0}, Modulations: [][2]int{{5, 4}, {4, 0}, {3, 0}, {2, 1}, {1, 0}}, FeedbackOp: 1},
	// 18:  3->2   6->5->4   (2+4)->1*   fb:3
	{Carriers: []int{0}, Modulations: [][2]int{{2, 1}, {5, 4}, {4, 3}, {1, 0}, {3, 0}}, FeedbackOp: 2},
	// 19:  6->5->(4*+3*+2*)   1*   fb:6
	{Carriers: []int{0, 1, 2, 3}, Modulations: [][2]int{{5, 4}, {4, 3}, {4, 2}, {4, 1}}, FeedbackOp: 5},
	// 20:  3->2->1*   6->(5*+4*)   fb:3
	{Carriers: []int{0, 3, 4}, Modulations: [][2]int{{2, 1}, {1, 0}, {5, 4}, {5, 3}}, FeedbackOp: 2},
	// 21:  6->(5*+4*+3*)   2->1*   fb:6
	{Carriers: []int{0, 2, 3, 4}, Modulations: [][2]int{{5, 4}, {5, 3}, {5, 2}, {1, 0}}, FeedbackOp: 5},
	// 22:  6->(5*+4*+3*+2*+1*)   fb:6
	{Carriers: []int{0, 1, 2, 3, 4}, Modulations: [][2]int{{5, 4}, {5, 3}, {5, 2}, {5, 1}, {5, 0}}, FeedbackOp: 5},
	// 23:  6->5->4*   3*   2->1*   fb:6
	{Carriers: []int{0, 2, 3}, Modulations: [][2]int{{5, 4}, {4, 3}, {1, 0}}, FeedbackOp: 5},
	// 24:  6->5->(4*+3*)   2*   1*   fb:6
	{Carriers: []int{0, 1, 2, 3}, Modulations: [][2]int{{5, 4}, {4, 3}, {4, 2}}, FeedbackOp: 5},
	// 25:  6->5->4*   3*   2*   1*   fb:6
	{Carriers: []int{0, 1, 2, 3}, Modulations: [][2]int{{5, 4}, {4, 3}}, FeedbackOp: 5},
	// 26:  6->5->4*   6->3*   2->1*   fb:6
	{Carriers: []int{0, 2, 3}, Modulations: [][2]int{{5, 4}, {4, 3}, {5, 2}, {1, 0}}, FeedbackOp: 5},
	// 27:  6->5*   3->2->1*   4*   fb:6
	{Carriers: []int{0, 3, 4}, Modulations: [][2]int{{2, 1}, {1, 0}, {5, 4}}, FeedbackOp: 5},
	// 28:  5->4->3*   2->1*   6*   fb:5
	{Carriers: []int{0, 2, 5}, Modulations: [][2]int{{4, 3}, {3, 2}, {1, 0}}, FeedbackOp: 4},
	// 29:  6->5*   4->3*   2*   1*   fb:6
	{Carriers: []int{0, 1, 2, 4}, Modulations: [][2]int{{5, 4}, {3, 2}}, FeedbackOp: 5},
	// 30:  5->4->3*   6*   2*   1*   fb:5
	{Carriers: []int{0, 1, 2, 5}, Modulations: [][2]int{{4, 3}, {3, 2}}, FeedbackOp: 4},
	// 31:  6->5*   4*   3*   2*   1*   fb:6
	{Carriers: []int{0, 1, 2, 3, 4}, Modulations: [][2]int{{5, 4}}, FeedbackOp: 5},
	// 32:  all carriers   fb:6
	{Carriers: []int{0, 1, 2, 3, 4, 5}, Modulations: [][2]int{}, FeedbackOp: 5},
}

// feedbackLevels maps the feedback parameter 0-7 to a modulation depth
// in radians; each step doubles the depth.
var feedbackLevels = [8]float64{
	0,
	math.Pi / 256,
	math.Pi / 128,
	math.Pi / 64,
	math.Pi / 32,
	math.Pi / 16,
	math.Pi / 8,
	math.Pi / 4,
}

// FeedbackLevel converts the feedback parameter 0-7 to the self
// modulation depth in radians.
func FeedbackLevel(param int) float64 {
	return feedbackLevels[clamp(param, 0, 7)]
}

// Algorithm returns the definition for algorithm number 1-32.
// Out-of-range numbers are clamped.
func Algorithm(number int) *AlgorithmDef {
	return &Algorithms[clamp(number, 1, NumAlgorithms)-1]
}

func init() {
	for i := range Algorithms {
		a := &Algorithms[i]
		sort.Ints(a.Carriers)
		for _, c := range a.Carriers {
			a.isCarrier[c] = true
		}
		for _, m := range a.Modulations {
			a.modSources[m[1]] = append(a.modSources[m[1]], m[0])
		}
		for op := range a.modSources {
			sort.Ints(a.modSources[op])
		}
		a.renderOrder = topoSort(a.Modulations)
		a.carrierNorm = 1 / math.Sqrt(float64(len(a.Carriers)))
	}
}

// topoSort orders the six operators so that every modulation source is
// rendered before its destination. Kahn's algorithm with the lowest
// ready index picked first keeps the order deterministic. The feedback
// self-loop is not an edge here; it reads previous samples only.
func topoSort(modulations [][2]int) []int {
	var indegree [NumOperators]int
	for _, m := range modulations {
		indegree[m[1]]++
	}
	order := make([]int, 0, NumOperators)
	var done [NumOperators]bool
	for len(order) < NumOperators {
		for op := 0; op < NumOperators; op++ {
			if !done[op] && indegree[op] == 0 {
				done[op] = true
				order = append(order, op)
				for _, m := range modulations {
					if m[0] == op {
						indegree[m[1]]--
					}
				}
				break
			}
		}
	}
	return order
}

// RenderOrder returns the operator evaluation order, modulators before
// the operators they modulate.
func (a *AlgorithmDef) RenderOrder() []int { return a.renderOrder }

// ModSources returns the operators whose outputs modulate op.
func (a *AlgorithmDef) ModSources(op int) []int { return a.modSources[op] }

// IsCarrier reports whether op contributes to the audio output.
func (a *AlgorithmDef) IsCarrier(op int) bool { return a.isCarrier[op] }

// CarrierNorm is the 1/sqrt(n) headroom factor applied to the summed
// carrier outputs.
func (a *AlgorithmDef) CarrierNorm() float64 { return a.carrierNorm }
