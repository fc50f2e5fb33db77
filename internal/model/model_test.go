package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWaveOfBoundaries(t *testing.T) {
	require := require.New(t)

	require.Equal(Wave(1), WaveOf(1))
	require.Equal(Wave(1), WaveOf(4))
	require.Equal(Wave(2), WaveOf(5))
	require.Equal(Wave(2), WaveOf(8))
}

func TestFirstAndLastRoundOfWave(t *testing.T) {
	require := require.New(t)

	require.Equal(Round(1), FirstRoundOfWave(1))
	require.Equal(Round(4), LastRoundOfWave(1))
	require.Equal(Round(5), FirstRoundOfWave(2))
	require.Equal(Round(8), LastRoundOfWave(2))
}

func TestIsLastRoundOfWave(t *testing.T) {
	require := require.New(t)

	require.False(IsLastRoundOfWave(1))
	require.False(IsLastRoundOfWave(3))
	require.True(IsLastRoundOfWave(4))
	require.True(IsLastRoundOfWave(8))
}
