// Package model holds the small shared value types the rest of the
// consensus core is built from.
package model

// Round is a monotonic round counter, starting at 1 (0 is reserved for genesis).
type Round uint64

// Wave is a commit epoch; each wave spans exactly four consecutive rounds.
type Wave uint64

// RoundsPerWave is the number of rounds in a wave.
const RoundsPerWave Round = 4

// WaveOf returns the wave a round belongs to: ceil(round / 4).
func WaveOf(r Round) Wave {
	return Wave((r + RoundsPerWave - 1) / RoundsPerWave)
}

// FirstRoundOfWave returns the first round of the given wave.
func FirstRoundOfWave(w Wave) Round {
	return RoundsPerWave*Round(w-1) + 1
}

// LastRoundOfWave returns the last (4th) round of the given wave.
func LastRoundOfWave(w Wave) Round {
	return RoundsPerWave * Round(w)
}

// IsLastRoundOfWave is true when round completes its wave.
func IsLastRoundOfWave(r Round) bool {
	return r%RoundsPerWave == 0
}

// Transaction is an opaque client-submitted payload.
type Transaction []byte

// Block is a batch of transactions proposed by the local mempool.
type Block struct {
	Transactions []Transaction
}

// NewBlock batches the given transactions.
func NewBlock(txs []Transaction) Block {
	return Block{Transactions: txs}
}
