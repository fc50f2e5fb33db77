// Command absedag-client is a synthetic transaction benchmark client: it
// connects to a node's transaction-receiver address and streams sample
// transactions as fast as the connection accepts them.
package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"log"
	"net"

	"github.com/absedag/consensus/internal/model"
	"github.com/absedag/consensus/internal/network"
)

func main() {
	addr := flag.String("addr", "", "network address of the node to send transactions to")
	count := flag.Uint64("count", 10000, "number of transactions to send")
	txSize := flag.Uint("size", 128, "size in bytes of each transaction")
	flag.Parse()

	if *addr == "" {
		fmt.Println("usage: absedag-client -addr=<host:port> [-count=N] [-size=BYTES]")
		return
	}

	if err := send(*addr, *count, int(*txSize)); err != nil {
		log.Fatal(err)
	}
}

// send opens one TCP connection and streams count sample transactions, each
// padded to txSize bytes. Every transaction starts with a 0 byte marker
// followed by an 8-byte big-endian sequence number, the way the original
// benchmark client tags its samples, framed the same length-delimited way
// the rest of the network package frames vertices and blocks.
func send(addr string, count uint64, txSize int) error {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", addr, err)
	}
	defer conn.Close()

	if txSize < 9 {
		txSize = 9
	}

	log.Printf("sending %d sample transactions of %d bytes to %s", count, txSize, addr)
	for i := uint64(0); i < count; i++ {
		tx := make(model.Transaction, txSize)
		tx[0] = 0
		binary.BigEndian.PutUint64(tx[1:9], i)
		if err := network.WriteFrame(conn, &tx); err != nil {
			return fmt.Errorf("sending transaction %d: %w", i, err)
		}
	}
	return nil
}
