// Package config handles committee persistence and the node-generation
// workflow: building a fresh committee, writing it to disk, and emitting a
// launcher script that starts every node with the right flags.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/absedag/consensus/internal/committee"
	"github.com/absedag/consensus/internal/driver"
)

// LoadCommittee reads a committee JSON file.
func LoadCommittee(path string) (*committee.Committee, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading committee file: %w", err)
	}
	var c committee.Committee
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing committee file: %w", err)
	}
	return &c, nil
}

// SaveCommittee writes a committee as indented JSON.
func SaveCommittee(c *committee.Committee, path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding committee: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing committee file: %w", err)
	}
	return nil
}

// GenerateOptions configures a fresh committee and its launcher script.
type GenerateOptions struct {
	NodeCount       uint32
	FaultyCount     uint32
	FaultyType      int // 1 or 2
	ChannelCapacity int
	BatchSize       int
	CommitteePath   string
	ScriptPath      string
}

// ErrTooManyFaulties is returned when the requested faulty count exceeds
// NodeCount - 2*(NodeCount/3) - 1 (integer division).
var ErrTooManyFaulties = fmt.Errorf("faulty count too high to reach consensus")

// Generate builds a fresh committee, persists it, and writes a shell script
// that launches every node with the flags matching its honest/faulty role.
func Generate(opts GenerateOptions) error {
	if opts.FaultyCount > opts.NodeCount-opts.NodeCount/3*2-1 {
		return ErrTooManyFaulties
	}

	ftype := 1
	if opts.FaultyType == 2 {
		ftype = 2
	}

	c, err := committee.Generate(opts.NodeCount)
	if err != nil {
		return fmt.Errorf("generating committee: %w", err)
	}

	committeePath := opts.CommitteePath
	if committeePath == "" {
		committeePath = "committee.json"
	}
	if err := SaveCommittee(c, committeePath); err != nil {
		return err
	}

	scriptPath := opts.ScriptPath
	if scriptPath == "" {
		scriptPath = "run_nodes.sh"
	}
	return writeLaunchScript(scriptPath, committeePath, opts, ftype)
}

// writeLaunchScript emits a bash script starting one node process per
// committee member: honest nodes get --pretend_failure=0, and the last
// faultyCount ids get the requested faulty type. Every node runs in the
// background; only node 1 keeps its output on the terminal, and the script
// waits on node 1's process while the trap kills the whole group.
func writeLaunchScript(path, committeePath string, opts GenerateOptions, ftype int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating launch script: %w", err)
	}
	defer f.Close()

	fmt.Fprintln(f, "#!/bin/bash")
	for id := uint32(1); id <= opts.NodeCount; id++ {
		pretendFailure := 0
		if id > opts.NodeCount-opts.FaultyCount {
			pretendFailure = ftype
		}
		redirect := " &>/dev/null &"
		if id == 1 {
			redirect = " &"
		}
		fmt.Fprintf(f, "./absedag run --id=%d --committee=%s --batch_size=%d --channel_capacity=%d --pretend_failure=%d%s\n",
			id, committeePath, opts.BatchSize, opts.ChannelCapacity, pretendFailure, redirect)
		fmt.Fprintf(f, "THREAD_%d=$!\n", id-1)
	}

	fmt.Fprint(f, "trap 'kill")
	for id := uint32(0); id < opts.NodeCount; id++ {
		fmt.Fprintf(f, " $THREAD_%d", id)
	}
	fmt.Fprintln(f, "' SIGINT SIGTERM")
	fmt.Fprintln(f, "wait $THREAD_0")
	fmt.Fprintln(f, "sleep 2")
	fmt.Fprintln(f, "pkill -P $$")

	return os.Chmod(path, 0o755)
}

// FaultyModeFromFlag maps the run subcommand's --pretend_failure value onto
// the driver's FaultyMode, matching the original's ftype==2 override: a
// pretend_failure value of 2 always selects the sticky mode regardless of
// the raw nonzero/zero flag it is paired with.
func FaultyModeFromFlag(pretendFailure int) driver.FaultyMode {
	switch pretendFailure {
	case 1:
		return driver.Silent
	case 2:
		return driver.Sticky
	default:
		return driver.Honest
	}
}
