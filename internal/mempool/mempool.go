// Package mempool batches inbound transactions into blocks for the driver,
// the way the original block builder batches transactions before handing
// them to the consensus layer.
package mempool

import (
	"github.com/absedag/consensus/internal/logging"
	"github.com/absedag/consensus/internal/model"
)

// DefaultBatchSize is the batch size the reference design uses.
const DefaultBatchSize = 10

// Builder accumulates transactions and emits a Block once batchSize is reached.
type Builder struct {
	batchSize int
	current   []model.Transaction
	out       chan<- model.Block
	log       logging.Logger
}

// New builds a transaction batcher that emits completed blocks on out.
func New(batchSize int, out chan<- model.Block, log logging.Logger) *Builder {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if log == nil {
		log = logging.NoOp()
	}
	return &Builder{batchSize: batchSize, out: out, log: log}
}

// Run drains in, batching transactions and pushing a block to out every time
// the batch fills. It returns when in is closed, after flushing nothing
// further: a partial trailing batch is intentionally dropped, matching the
// original builder, which only ever emits on reaching batchSize.
func (b *Builder) Run(in <-chan model.Transaction) {
	for tx := range in {
		b.current = append(b.current, tx)
		if len(b.current) >= b.batchSize {
			block := model.NewBlock(b.current)
			b.current = nil
			b.log.Debug("block builder reached batch size, emitting block")
			b.out <- block
		}
	}
}
