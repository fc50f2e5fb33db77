// Package driver runs the consensus event loop: ingesting vertices and
// blocks, advancing rounds on quorum, invoking the ordering engine at wave
// boundaries, driving ABSE, and proposing the node's own next vertex.
package driver

import (
	"context"
	"fmt"

	"github.com/absedag/consensus/internal/abse"
	"github.com/absedag/consensus/internal/committee"
	"github.com/absedag/consensus/internal/dagstore"
	"github.com/absedag/consensus/internal/logging"
	"github.com/absedag/consensus/internal/metrics"
	"github.com/absedag/consensus/internal/model"
	"github.com/absedag/consensus/internal/ordering"
	"github.com/absedag/consensus/internal/vertex"
	"go.uber.org/zap"
)

// FaultyMode selects the driver's broadcast discipline, modelled as a tagged
// variant the driver dispatches on — not virtual dispatch, since there are
// only ever three behaviors.
type FaultyMode int

const (
	// Honest broadcasts every vertex it builds, immediately.
	Honest FaultyMode = 0
	// Silent builds vertices but never broadcasts them (simulates a crash fault).
	Silent FaultyMode = 1
	// Sticky re-uses its most recent self-built vertex as an extra parent for
	// the next one, and only flushes (broadcasts all pending) on wave-last
	// rounds — a delayed-disclosure adversary.
	Sticky FaultyMode = 2
)

// ABSEWindowSize is the sliding-window length the reference design uses.
const ABSEWindowSize = 3

// Driver owns the DAG, ABSE state, buffers, and score array exclusively;
// nothing here is shared across tasks.
type Driver struct {
	nodeID    committee.Id
	ownerKey  committee.NodePublicKey
	committee *committee.Committee

	dag   *dagstore.DAG
	abse  *abse.State
	order *ordering.Engine

	currentRound model.Round
	delivered    map[vertex.Hash]bool
	buffer       []*vertex.Vertex
	blocks       []model.Block

	scoreArray []uint64
	idToIndex  map[committee.NodePublicKey]int

	faulty       FaultyMode
	stickyVertex *vertex.Vertex // the most recently built self vertex, type-2 only
	stickyQueue  []*vertex.Vertex

	vertexIn     <-chan *vertex.Vertex
	blockIn      <-chan model.Block
	vertexOut    chan<- *vertex.Vertex // broadcast sink
	orderedOut   chan<- *vertex.Vertex // delivery sink

	log     logging.Logger
	metrics *metrics.Metrics
}

// Config bundles everything needed to build a Driver.
type Config struct {
	NodeID    committee.Id
	Committee *committee.Committee
	Faulty    FaultyMode
	VertexIn  <-chan *vertex.Vertex
	BlockIn   <-chan model.Block
	VertexOut chan<- *vertex.Vertex
	OrderedOut chan<- *vertex.Vertex
	Coin      ordering.CoinFunc
	Log       logging.Logger
	Metrics   *metrics.Metrics
}

// New builds a Driver seeded with the committee's genesis vertices at round 0.
func New(cfg Config) (*Driver, error) {
	ownerKey, ok := cfg.Committee.NodeKey(cfg.NodeID)
	if !ok {
		return nil, fmt.Errorf("node id %d is not a member of the committee", cfg.NodeID)
	}

	dag := dagstore.New(cfg.Committee.QuorumThreshold())
	for _, key := range cfg.Committee.NodeKeys() {
		dag.InsertVertex(vertex.Genesis(key))
	}

	idToIndex := make(map[committee.NodePublicKey]int)
	for _, key := range cfg.Committee.NodeKeys() {
		idToIndex[key] = len(idToIndex)
	}

	faulties := uint64(cfg.Committee.Faulties())
	abseState := abse.New(ABSEWindowSize, faulties)
	log := cfg.Log
	if log == nil {
		log = logging.NoOp()
	}

	orderEngine := ordering.New(dag, cfg.Committee, abseState, idToIndex, cfg.Coin, log, cfg.Metrics)

	return &Driver{
		nodeID:       cfg.NodeID,
		ownerKey:     ownerKey,
		committee:    cfg.Committee,
		dag:          dag,
		abse:         abseState,
		order:        orderEngine,
		currentRound: 1,
		delivered:    make(map[vertex.Hash]bool),
		scoreArray:   make([]uint64, len(idToIndex)),
		idToIndex:    idToIndex,
		faulty:       cfg.Faulty,
		vertexIn:     cfg.VertexIn,
		blockIn:      cfg.BlockIn,
		vertexOut:    cfg.VertexOut,
		orderedOut:   cfg.OrderedOut,
		log:          log,
		metrics:      cfg.Metrics,
	}, nil
}

// Run drives the event loop until ctx is cancelled or an inbound channel closes.
func (d *Driver) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case v, ok := <-d.vertexIn:
			if !ok {
				return fmt.Errorf("vertex channel closed")
			}
			d.admitVertex(v)
			if err := d.maybeBootstrap(ctx); err != nil {
				return err
			}
			if err := d.afterEvent(ctx); err != nil {
				return err
			}

		case b, ok := <-d.blockIn:
			if !ok {
				return fmt.Errorf("block channel closed")
			}
			d.blocks = append(d.blocks, b)
			if err := d.maybeBootstrap(ctx); err != nil {
				return err
			}
			if err := d.afterEvent(ctx); err != nil {
				return err
			}
		}
	}
}

// admitVertex buffers an inbound vertex, then sweeps the buffer and inserts
// every entry whose round and parents are now satisfiable. Out-of-order
// vertices stay buffered silently; duplicate insertion is a DAG no-op.
func (d *Driver) admitVertex(v *vertex.Vertex) {
	d.buffer = append(d.buffer, v)

	remaining := d.buffer[:0]
	for _, candidate := range d.buffer {
		if candidate.Round <= d.currentRound && d.dag.ContainsVertices(candidate.Parents) {
			d.dag.InsertVertex(candidate)
			if d.metrics != nil {
				d.metrics.VerticesInserted.Inc()
			}
		} else {
			remaining = append(remaining, candidate)
		}
	}
	d.buffer = remaining
}

// maybeBootstrap proposes this node's round-1 vertex the first time a block
// is available. Genesis (round 0) always holds every committee member's
// vertex, so it trivially satisfies quorum without needing an event to
// discover that fact — round 1 is the one round whose proposal isn't gated
// by afterEvent's "previous round reached quorum" check.
func (d *Driver) maybeBootstrap(ctx context.Context) error {
	if d.currentRound != 1 || len(d.blocks) == 0 {
		return nil
	}
	if _, exists := d.dag.VertexAt(1, d.ownerKey); exists {
		return nil
	}
	return d.proposeNext(ctx)
}

// afterEvent runs the quorum-triggered steps common to both event sources:
// wave-boundary ordering, round advance, ABSE tick, and proposing the next vertex.
func (d *Driver) afterEvent(ctx context.Context) error {
	if len(d.blocks) == 0 || !d.dag.IsQuorumReachedForRound(d.currentRound) {
		return nil
	}

	if model.IsLastRoundOfWave(d.currentRound) {
		wave := model.WaveOf(d.currentRound)
		result := d.order.Order(wave, d.delivered)
		if result.Leader == nil && len(result.Ordered) == 0 {
			d.log.Debug("no commit this wave", zap.Uint64("wave", uint64(wave)))
		} else {
			if d.metrics != nil {
				d.metrics.WavesCommitted.Inc()
			}
			for _, owner := range result.Voters {
				d.creditVoter(owner)
			}
			if result.Leader != nil {
				d.creditVoter(result.Leader.Owner)
			}
			for _, ov := range result.Ordered {
				select {
				case d.orderedOut <- ov:
					if d.metrics != nil {
						d.metrics.VerticesDelivered.Inc()
					}
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
	}

	d.currentRound++
	if d.metrics != nil {
		d.metrics.CurrentRound.Set(float64(d.currentRound))
	}

	if d.abse.R() < d.currentRound {
		d.abse.SetInfo(append([]uint64(nil), d.scoreArray...))
		d.resetScoreArray()
		d.abse.UpdateRound(d.currentRound)
		d.abse.Update()
		d.abse.SetInfo(nil)
		if d.metrics != nil {
			d.metrics.CurrentBaseline.Set(d.abse.Baseline())
		}
	}

	return d.proposeNext(ctx)
}

// creditVoter increments score_array for the given owner, if known.
func (d *Driver) creditVoter(owner committee.NodePublicKey) {
	if idx, ok := d.idToIndex[owner]; ok {
		d.scoreArray[idx]++
	}
}

func (d *Driver) resetScoreArray() {
	for i := range d.scoreArray {
		d.scoreArray[i] = 0
	}
}

// proposeNext builds this node's vertex for the new current round and
// broadcasts it according to the configured faulty mode.
func (d *Driver) proposeNext(ctx context.Context) error {
	switch d.faulty {
	case Sticky:
		return d.proposeSticky(ctx)
	default:
		v, err := d.buildVertex(d.currentRound, nil)
		if err != nil {
			return err
		}
		if d.faulty == Honest {
			return d.broadcast(ctx, v)
		}
		// Silent: built locally but never sent.
		d.dag.InsertVertex(v)
		return nil
	}
}

// proposeSticky implements the type-2 "sticky malicious parent" mode: each
// round it builds a new vertex that back-references the previous self-built
// vertex as an extra parent, and only flushes the accumulated batch at the
// wave's last round.
func (d *Driver) proposeSticky(ctx context.Context) error {
	var extra *vertex.Vertex
	if d.stickyVertex != nil {
		extra = d.stickyVertex
	}
	v, err := d.buildVertex(d.currentRound, extra)
	if err != nil {
		return err
	}
	d.stickyVertex = v
	d.stickyQueue = append(d.stickyQueue, v)

	if model.IsLastRoundOfWave(d.currentRound) {
		for _, queued := range d.stickyQueue {
			if err := d.broadcast(ctx, queued); err != nil {
				return err
			}
		}
		d.stickyQueue = nil
	}
	return nil
}

// buildVertex pops one pending block and constructs the node's vertex for
// round r, with strong parents from round r-1, an optional sticky extra
// parent, and weak edges to older orphans when r > 2.
func (d *Driver) buildVertex(r model.Round, stickyExtra *vertex.Vertex) (*vertex.Vertex, error) {
	if len(d.blocks) == 0 {
		return nil, fmt.Errorf("no block available to propose at round %d", r)
	}
	block := d.blocks[0]
	d.blocks = d.blocks[1:]

	parents := d.dag.GetVertices(r - 1)
	if stickyExtra != nil {
		parents[stickyExtra.Hash] = stickyExtra.Round
	}

	v := vertex.New(d.ownerKey, r, block, parents)
	if r > 2 {
		d.dag.SetWeakEdges(v, r)
	}
	// Insert locally so the owner's own DAG view reflects its proposal
	// immediately, the way a remote receiver would once it arrives.
	d.dag.InsertVertex(v)
	if d.metrics != nil {
		d.metrics.VerticesInserted.Inc()
	}
	return v, nil
}

func (d *Driver) broadcast(ctx context.Context, v *vertex.Vertex) error {
	d.log.Info("broadcasting vertex", zap.Uint64("round", uint64(v.Round)))
	select {
	case d.vertexOut <- v:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// CurrentRound exposes the driver's round for observability/testing.
func (d *Driver) CurrentRound() model.Round { return d.currentRound }

// DecidedWave exposes the ordering engine's decided wave for observability/testing.
func (d *Driver) DecidedWave() model.Wave { return d.order.DecidedWave() }
