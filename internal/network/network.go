// Package network carries vertices and blocks between committee members over
// plain TCP, using a 4-byte big-endian length prefix ahead of a gob-encoded
// payload — the wire format is deliberately out of scope for the consensus
// contract itself, so a stdlib codec stands in for it here.
package network

import (
	"bufio"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"io"
	"net"

	"github.com/absedag/consensus/internal/logging"
	"go.uber.org/zap"
)

const maxFrameSize = 16 << 20 // 16 MiB, generous for a batched block or vertex

// Sender delivers length-delimited, gob-encoded messages to the peer
// addresses each call names, redialing on every send the way a short-lived reliable
// sender would for an infrequent, bursty workload like vertex broadcast.
type Sender struct {
	log logging.Logger
}

// NewSender builds a Sender.
func NewSender(log logging.Logger) *Sender {
	if log == nil {
		log = logging.NoOp()
	}
	return &Sender{log: log}
}

// Broadcast sends msg to every address, gob-encoding it afresh for each
// one, and continues past per-address failures so one unreachable peer never blocks the rest.
func (s *Sender) Broadcast(addresses []string, msg any) {
	for _, addr := range addresses {
		if err := s.Send(addr, msg); err != nil {
			s.log.Warn("send failed", zap.String("addr", addr), zap.Error(err))
		}
	}
}

// Send opens a connection to addr, writes one length-delimited gob frame, and closes.
func (s *Sender) Send(addr string, msg any) error {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("dialing %s: %w", addr, err)
	}
	defer conn.Close()
	return WriteFrame(conn, msg)
}

// WriteFrame gob-encodes v and writes it to w behind a 4-byte length prefix.
func WriteFrame(w io.Writer, v any) error {
	buf := new(gobBuffer)
	if err := gob.NewEncoder(buf).Encode(v); err != nil {
		return fmt.Errorf("encoding frame: %w", err)
	}
	var lenPrefix [4]byte
	binary.BigEndian.PutUint32(lenPrefix[:], uint32(buf.Len()))
	if _, err := w.Write(lenPrefix[:]); err != nil {
		return fmt.Errorf("writing frame length: %w", err)
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("writing frame body: %w", err)
	}
	return nil
}

// ReadFrame reads one length-delimited gob frame from r into v.
func ReadFrame(r io.Reader, v any) error {
	var lenPrefix [4]byte
	if _, err := io.ReadFull(r, lenPrefix[:]); err != nil {
		return err
	}
	n := binary.BigEndian.Uint32(lenPrefix[:])
	if n > maxFrameSize {
		return fmt.Errorf("frame of %d bytes exceeds maximum of %d", n, maxFrameSize)
	}
	body := io.LimitReader(r, int64(n))
	if err := gob.NewDecoder(body).Decode(v); err != nil {
		return fmt.Errorf("decoding frame: %w", err)
	}
	return nil
}

// Receiver listens on an address and hands every decoded frame to handle.
type Receiver struct {
	addr   string
	newMsg func() any
	handle func(any)
	log    logging.Logger
}

// NewReceiver builds a Receiver. newMsg must return a fresh pointer of the
// expected message type for each connection; handle is invoked with the
// decoded value once per accepted connection.
func NewReceiver(addr string, newMsg func() any, handle func(any), log logging.Logger) *Receiver {
	if log == nil {
		log = logging.NoOp()
	}
	return &Receiver{addr: addr, newMsg: newMsg, handle: handle, log: log}
}

// ListenAndServe blocks accepting connections until Accept returns an error.
// The listener is created and closed internally and is not exposed to the caller.
func (r *Receiver) ListenAndServe() error {
	ln, err := net.Listen("tcp", r.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", r.addr, err)
	}
	defer ln.Close()

	for {
		conn, err := ln.Accept()
		if err != nil {
			return err
		}
		go r.serveConn(conn)
	}
}

func (r *Receiver) serveConn(conn net.Conn) {
	defer conn.Close()
	reader := bufio.NewReader(conn)
	msg := r.newMsg()
	if err := ReadFrame(reader, msg); err != nil {
		if err != io.EOF {
			r.log.Warn("dropping malformed frame")
		}
		return
	}
	r.handle(msg)
}

// gobBuffer is a minimal growable byte buffer so WriteFrame can measure the
// encoded length before writing the prefix.
type gobBuffer struct {
	b []byte
}

func (g *gobBuffer) Write(p []byte) (int, error) {
	g.b = append(g.b, p...)
	return len(p), nil
}

func (g *gobBuffer) Bytes() []byte { return g.b }
func (g *gobBuffer) Len() int      { return len(g.b) }
