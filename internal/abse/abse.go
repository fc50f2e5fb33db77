// Package abse implements the Adaptive Baseline Score Evaluation filter:
// a sliding window over per-node participation counts that vetoes leader
// candidates whose windowed score has fallen below a moving baseline.
package abse

import (
	"math"

	"github.com/absedag/consensus/internal/model"
)

// State is the ABSE evaluator's sliding window and baseline.
type State struct {
	r          model.Round
	f          uint64 // max faulties
	windowSize int
	info       []uint64
	history    [][]uint64 // FIFO queue, length <= windowSize
	refS       []uint64   // oldest vector evicted from history
	baseline   float64
}

// New creates an ABSE evaluator with the given sliding-window length and max
// faulty-node count.
func New(windowSize int, f uint64) *State {
	return &State{
		windowSize: windowSize,
		f:          f,
	}
}

// SetInfo replaces the current voting vector; an empty slice clears it.
func (s *State) SetInfo(v []uint64) {
	if len(v) == 0 {
		s.info = nil
		return
	}
	s.info = v
}

// MergeInfo element-wise adds v into info, zero-padding the shorter side.
func (s *State) MergeInfo(v []uint64) {
	merged := zeroPadAdd(s.info, v)
	s.SetInfo(merged)
}

// Generate returns info + history.back(), zero-padded element-wise. When
// history is empty the reference vector is the zero vector.
func (s *State) Generate() []uint64 {
	var rear []uint64
	if n := len(s.history); n > 0 {
		rear = s.history[n-1]
	}
	return zeroPadAdd(s.info, rear)
}

// Update advances the sliding window and recomputes the baseline:
//  1. Compute s = Generate().
//  2. If history is full, evict the oldest entry into refS.
//  3. Append s to history.
//  4. Recompute baseline.
func (s *State) Update() {
	next := s.Generate()
	if len(s.history) >= s.windowSize {
		s.refS = s.history[0]
		s.history = s.history[1:]
	}
	s.history = append(s.history, next)

	rounds := float64(0)
	if float64(s.r) > float64(s.windowSize)+1 {
		rounds = float64(s.r) - float64(s.windowSize) - 1
	}
	f := float64(s.f)
	s.baseline = rounds * (2*f + 1) / (3*f + 1) / 6
}

// Judge returns true when candidate j may lead: during warm-up (refS empty or
// missing index j) every candidate passes; thereafter, candidates whose
// eviction-window score fell below floor(baseline) are vetoed.
func (s *State) Judge(j int) bool {
	if len(s.refS) == 0 || j >= len(s.refS) {
		return true
	}
	return float64(s.refS[j]) >= math.Floor(s.baseline)
}

// UpdateRound records the latest round driving the baseline formula.
func (s *State) UpdateRound(r model.Round) {
	s.r = r
}

// R returns the last round passed to UpdateRound.
func (s *State) R() model.Round {
	return s.r
}

// Baseline returns the current eligibility threshold (exported for metrics/tests).
func (s *State) Baseline() float64 {
	return s.baseline
}

func zeroPadAdd(a, b []uint64) []uint64 {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	out := make([]uint64, n)
	for i := 0; i < n; i++ {
		var av, bv uint64
		if i < len(a) {
			av = a[i]
		}
		if i < len(b) {
			bv = b[i]
		}
		out[i] = av + bv
	}
	return out
}
