package mempool

import (
	"testing"
	"time"

	"github.com/absedag/consensus/internal/model"
	"github.com/stretchr/testify/require"
)

func TestBuilderEmitsBlockOnceBatchSizeReached(t *testing.T) {
	require := require.New(t)

	in := make(chan model.Transaction, 10)
	out := make(chan model.Block, 10)
	b := New(3, out, nil)

	go b.Run(in)

	in <- model.Transaction("a")
	in <- model.Transaction("b")
	select {
	case <-out:
		t.Fatal("block emitted before batch size was reached")
	case <-time.After(20 * time.Millisecond):
	}

	in <- model.Transaction("c")
	select {
	case block := <-out:
		require.Len(block.Transactions, 3)
	case <-time.After(time.Second):
		t.Fatal("expected a block once the batch filled")
	}

	close(in)
}

func TestBuilderDefaultsInvalidBatchSize(t *testing.T) {
	require := require.New(t)

	b := New(0, make(chan model.Block, 1), nil)
	require.Equal(DefaultBatchSize, b.batchSize)
}
