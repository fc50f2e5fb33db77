// Command absedag runs a single committee node, or generates a fresh
// committee plus a launcher script for a local multi-node run.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/absedag/consensus/internal/adminserver"
	"github.com/absedag/consensus/internal/committee"
	"github.com/absedag/consensus/internal/config"
	"github.com/absedag/consensus/internal/driver"
	"github.com/absedag/consensus/internal/logging"
	"github.com/absedag/consensus/internal/mempool"
	"github.com/absedag/consensus/internal/metrics"
	"github.com/absedag/consensus/internal/model"
	"github.com/absedag/consensus/internal/network"
	"github.com/absedag/consensus/internal/vertex"
	"github.com/prometheus/client_golang/prometheus"
)

const defaultChannelCapacity = 1000

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: absedag <run|generate> [flags]")
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "run":
		err = runNode(os.Args[2:])
	case "generate":
		err = generateCommittee(os.Args[2:])
	default:
		err = fmt.Errorf("unknown subcommand %q", os.Args[1])
	}
	if err != nil {
		log.Fatal(err)
	}
}

func runNode(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	id := fs.Uint("id", 0, "node id")
	committeePath := fs.String("committee", "", "path to committee JSON file")
	channelCapacity := fs.Int("channel_capacity", defaultChannelCapacity, "channel capacity")
	batchSize := fs.Int("batch_size", mempool.DefaultBatchSize, "batch size")
	pretendFailure := fs.Int("pretend_failure", 0, "0=honest, 1=silent, 2=sticky")
	adminAddr := fs.String("admin_addr", ":9100", "admin HTTP listen address (healthz/status/metrics)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	nodeID := committee.Id(*id)
	com, err := config.LoadCommittee(*committeePath)
	if err != nil {
		return err
	}

	self, ok := com.Validators[nodeID]
	if !ok {
		return fmt.Errorf("node id %d is not present in the committee file", nodeID)
	}

	log := logging.New(fmt.Sprintf("node-%d", nodeID))
	defer log.Sync()

	met := metrics.New(prometheus.DefaultRegisterer)

	vertexIn := make(chan *vertex.Vertex, *channelCapacity)
	blockIn := make(chan model.Block, *channelCapacity)
	vertexOutBroadcast := make(chan *vertex.Vertex, *channelCapacity)
	vertexOutOrdered := make(chan *vertex.Vertex, *channelCapacity)
	txIn := make(chan model.Transaction, *channelCapacity)

	d, err := driver.New(driver.Config{
		NodeID:     nodeID,
		Committee:  com,
		Faulty:     config.FaultyModeFromFlag(*pretendFailure),
		VertexIn:   vertexIn,
		BlockIn:    blockIn,
		VertexOut:  vertexOutBroadcast,
		OrderedOut: vertexOutOrdered,
		Log:        log,
		Metrics:    met,
	})
	if err != nil {
		return fmt.Errorf("building driver: %w", err)
	}

	builder := mempool.New(*batchSize, blockIn, log)
	go builder.Run(txIn)

	sender := network.NewSender(log)
	go func() {
		for v := range vertexOutBroadcast {
			sender.Broadcast(com.ConsensusReceiverAddresses(), v)
		}
	}()
	go func() {
		for v := range vertexOutOrdered {
			log.Info(fmt.Sprintf("vertex committed: round=%d owner=%s", v.Round, v.Owner.String()))
		}
	}()

	vertexReceiver := network.NewReceiver(self.Address, func() any { return new(vertex.Vertex) }, func(msg any) {
		if v, ok := msg.(*vertex.Vertex); ok {
			vertexIn <- v
		}
	}, log)
	go func() {
		if err := vertexReceiver.ListenAndServe(); err != nil {
			log.Error("vertex receiver stopped: " + err.Error())
		}
	}()

	blockReceiver := network.NewReceiver(self.BlockAddress, func() any { return new(model.Block) }, func(msg any) {
		if b, ok := msg.(*model.Block); ok {
			blockIn <- *b
		}
	}, log)
	go func() {
		if err := blockReceiver.ListenAndServe(); err != nil {
			log.Error("block receiver stopped: " + err.Error())
		}
	}()

	txReceiver := network.NewReceiver(self.TxAddress, func() any { return new(model.Transaction) }, func(msg any) {
		if tx, ok := msg.(*model.Transaction); ok {
			txIn <- *tx
		}
	}, log)
	go func() {
		if err := txReceiver.ListenAndServe(); err != nil {
			log.Error("transaction receiver stopped: " + err.Error())
		}
	}()

	admin := adminserver.New(d, log)
	go func() {
		if err := http.ListenAndServe(*adminAddr, admin.Handler()); err != nil {
			log.Error("admin server stopped: " + err.Error())
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-shutdown
		cancel()
	}()

	return d.Run(ctx)
}

func generateCommittee(args []string) error {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	nodeCount := fs.Uint("node_count", 4, "number of nodes")
	faultyCount := fs.Uint("faulty_count", 0, "number of faulty nodes")
	faultyType := fs.Int("faulty_type", 1, "1=silent, 2=sticky malicious parent")
	channelCapacity := fs.Int("channel_capacity", defaultChannelCapacity, "channel capacity")
	batchSize := fs.Int("batch_size", mempool.DefaultBatchSize, "batch size")
	if err := fs.Parse(args); err != nil {
		return err
	}

	err := config.Generate(config.GenerateOptions{
		NodeCount:       uint32(*nodeCount),
		FaultyCount:     uint32(*faultyCount),
		FaultyType:      *faultyType,
		ChannelCapacity: *channelCapacity,
		BatchSize:       *batchSize,
	})
	if err == config.ErrTooManyFaulties {
		fmt.Println("The number of malicious nodes is too high to meet the minimum requirements for reaching consensus, at which point the throughput is 0.")
		return nil
	}
	return err
}
