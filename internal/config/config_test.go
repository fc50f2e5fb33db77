package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/absedag/consensus/internal/committee"
	"github.com/absedag/consensus/internal/driver"
	"github.com/stretchr/testify/require"
)

func TestSaveAndLoadCommitteeRoundTrip(t *testing.T) {
	require := require.New(t)

	c, err := committee.Generate(4)
	require.NoError(err)

	dir := t.TempDir()
	path := filepath.Join(dir, "committee.json")
	require.NoError(SaveCommittee(c, path))

	loaded, err := LoadCommittee(path)
	require.NoError(err)
	require.Equal(c.Size(), loaded.Size())
	require.Equal(c.Validators[1].Address, loaded.Validators[1].Address)
}

func TestGenerateRejectsTooManyFaulties(t *testing.T) {
	require := require.New(t)

	err := Generate(GenerateOptions{
		NodeCount:   4,
		FaultyCount: 3, // 4 - 4/3*2 - 1 = 1, so 3 exceeds the tolerated maximum
	})
	require.ErrorIs(err, ErrTooManyFaulties)
}

func TestGenerateWritesCommitteeAndScript(t *testing.T) {
	require := require.New(t)

	dir := t.TempDir()
	committeePath := filepath.Join(dir, "committee.json")
	scriptPath := filepath.Join(dir, "run_nodes.sh")

	err := Generate(GenerateOptions{
		NodeCount:       4,
		FaultyCount:     1,
		FaultyType:      2,
		ChannelCapacity: 1000,
		BatchSize:       10,
		CommitteePath:   committeePath,
		ScriptPath:      scriptPath,
	})
	require.NoError(err)

	_, err = os.Stat(committeePath)
	require.NoError(err)

	data, err := os.ReadFile(scriptPath)
	require.NoError(err)
	require.Contains(string(data), "--pretend_failure=2")
	require.Contains(string(data), "trap 'kill")
}

func TestFaultyModeFromFlag(t *testing.T) {
	require := require.New(t)

	require.Equal(driver.Honest, FaultyModeFromFlag(0))
	require.Equal(driver.Silent, FaultyModeFromFlag(1))
	require.Equal(driver.Sticky, FaultyModeFromFlag(2))
}
