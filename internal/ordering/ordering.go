// Package ordering implements the wave-leader commit rule and the
// deterministic per-wave delivery pass.
package ordering

import (
	"github.com/absedag/consensus/internal/abse"
	"github.com/absedag/consensus/internal/committee"
	"github.com/absedag/consensus/internal/dagstore"
	"github.com/absedag/consensus/internal/logging"
	"github.com/absedag/consensus/internal/metrics"
	"github.com/absedag/consensus/internal/model"
	"github.com/absedag/consensus/internal/vertex"
	"go.uber.org/zap"
)

// CoinFunc emulates a common-coin protocol: given a wave, it returns whether
// the elected candidate actually gets to lead. The reference design emulates
// a perfect coin that always returns true; a real implementation can plug in
// an actual common-coin round behind this single call.
type CoinFunc func(w model.Wave) bool

// AlwaysLeader is the reference "perfect coin" the spec says existing DAG
// protocols emulate.
func AlwaysLeader(model.Wave) bool { return true }

// Result is what a wave's ordering attempt produced.
type Result struct {
	Ordered []*vertex.Vertex
	// Voters and Leader are non-nil only when the wave actually committed;
	// the driver uses them to award ABSE participation credit.
	Voters []committee.NodePublicKey
	Leader *vertex.Vertex
}

// Engine runs the wave-leader election and delivery pass over a shared DAG
// and ABSE state. It owns DecidedWave, since the leader-chain backfill must
// remember how far back it has already committed.
type Engine struct {
	dag         *dagstore.DAG
	committee   *committee.Committee
	abseState   *abse.State
	idToIndex   map[committee.NodePublicKey]int
	coin        CoinFunc
	decidedWave model.Wave
	log         logging.Logger
	metrics     *metrics.Metrics
}

// New builds an ordering engine over the given DAG and ABSE state. met may be
// nil, in which case vetoes simply aren't counted (used by tests that don't
// care about metrics).
func New(dag *dagstore.DAG, com *committee.Committee, abseState *abse.State, idToIndex map[committee.NodePublicKey]int, coin CoinFunc, log logging.Logger, met *metrics.Metrics) *Engine {
	if coin == nil {
		coin = AlwaysLeader
	}
	if log == nil {
		log = logging.NoOp()
	}
	return &Engine{
		dag:       dag,
		committee: com,
		abseState: abseState,
		idToIndex: idToIndex,
		coin:      coin,
		log:       log,
		metrics:   met,
	}
}

// DecidedWave returns the highest wave committed so far.
func (e *Engine) DecidedWave() model.Wave {
	return e.decidedWave
}

// candidateLeader returns the deterministic wave-w leader candidate vertex
// and its owner key, without applying the ABSE veto or commit rule.
func (e *Engine) candidateLeader(w model.Wave) (*vertex.Vertex, committee.NodePublicKey, bool) {
	keys := e.committee.NodeKeys()
	if len(keys) == 0 {
		var zero committee.NodePublicKey
		return nil, zero, false
	}
	leaderKey := keys[uint64(w)%uint64(len(keys))]
	firstRound := model.FirstRoundOfWave(w)
	v, ok := e.dag.VertexAt(firstRound, leaderKey)
	return v, leaderKey, ok
}

// electLeader applies candidateLeader plus the ABSE veto (step 2) and the
// pluggable coin (step 3). Used for the wave under test; retrospective
// leader-chain lookups (step 5) skip the ABSE re-veto, since the commit
// cascade is retrospective.
func (e *Engine) electLeader(w model.Wave, applyVeto bool) *vertex.Vertex {
	v, leaderKey, ok := e.candidateLeader(w)
	if !ok {
		return nil
	}
	if applyVeto {
		idx, known := e.idToIndex[leaderKey]
		if known && !e.abseState.Judge(idx) {
			e.log.Debug("leader vetoed by abse", zap.Uint64("wave", uint64(w)), zap.String("leader", leaderKey.String()))
			if e.metrics != nil {
				e.metrics.LeadersVetoed.Inc()
			}
			return nil
		}
		if !e.coin(w) {
			return nil
		}
	}
	return v
}

// Order runs the ordering engine for wave w and returns the vertices it
// delivers, in causal delivery order. An empty Result means "no leader this
// wave" — the wave's score state is left untouched.
func (e *Engine) Order(w model.Wave, delivered map[vertex.Hash]bool) Result {
	leader := e.electLeader(w, true)
	if leader == nil {
		return Result{}
	}

	lastRound := model.LastRoundOfWave(w)
	if !e.dag.IsLinkedWithOthersInRound(leader, lastRound) {
		return Result{}
	}

	voters := e.dag.GetValidVerticesVoters(leader, lastRound)
	chain := e.leaderChain(w, leader)
	e.decidedWave = w

	ordered := e.orderVertices(chain, delivered)
	return Result{Ordered: ordered, Voters: voters, Leader: leader}
}

// leaderChain walks backwards from the current wave's leader through
// previously uncommitted waves, threading in any earlier leader strongly
// linked to the one ahead of it. Missing or non-strongly-linked leaders are
// skipped and remain uncommitted until a future wave threads them.
func (e *Engine) leaderChain(w model.Wave, leader *vertex.Vertex) []*vertex.Vertex {
	chain := []*vertex.Vertex{leader}
	current := leader

	if w == 0 {
		return chain
	}

	for wv := w - 1; wv > e.decidedWave && wv >= 1; wv-- {
		prev := e.electLeader(wv, false)
		if prev == nil {
			continue
		}
		if e.dag.IsStronglyLinked(current, prev) {
			chain = append(chain, prev)
			current = prev
		}
	}
	return chain
}

// orderVertices pops the leader chain newest-first (oldest delivered first)
// and, for each leader, appends every not-yet-delivered vertex linked to it,
// scanning the DAG in ascending round order with lexicographic owner order
// within a round — the deterministic iteration the spec requires so two
// correct nodes produce identical output.
func (e *Engine) orderVertices(chain []*vertex.Vertex, delivered map[vertex.Hash]bool) []*vertex.Vertex {
	ordered := make([]*vertex.Vertex, 0)

	for i := len(chain) - 1; i >= 0; i-- {
		leader := chain[i]
		for _, r := range e.dag.Rounds() {
			if r == 0 {
				continue
			}
			for _, v := range e.dag.VerticesAt(r) {
				if delivered[v.Hash] {
					continue
				}
				if e.dag.IsLinked(v, leader) {
					ordered = append(ordered, v)
					delivered[v.Hash] = true
				}
			}
		}
	}
	return ordered
}
