// data-tamer: in-process telemetry snapshotter
// Ported from PickNikRobotics/data_tamer
// SPDX-License-Identifier: BSD-3-Clause

// Package bus implements a tamer.Sink that broadcasts every pushed
// snapshot to every currently-connected WebSocket subscriber, standing in
// for the "message bus" consumer spec.md §1 names as an external
// collaborator.
package bus

import (
	"encoding/binary"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/PickNikRobotics/data-tamer"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Sink fans out snapshot frames to every connected subscriber. A
// subscriber whose write fails (for example, one that has disconnected)
// is dropped. Writes carry no deadline, so a slow subscriber delays store
// for the others; the sink-worker boundary keeps that delay away from the
// channel's producer, whose Push only enqueues.
type Sink struct {
	*tamer.SinkBase

	mu      sync.Mutex
	conns   map[*websocket.Conn]struct{}
	schemas map[string]tamer.Schema
}

// New returns an empty bus sink ready to accept subscribers via
// ServeHTTP.
func New(queueCap int, log tamer.Logger) *Sink {
	s := &Sink{conns: map[*websocket.Conn]struct{}{}, schemas: map[string]tamer.Schema{}}
	s.SinkBase = tamer.NewSinkBase("bus", queueCap, log, s.store)
	return s
}

// ServeHTTP upgrades the request to a WebSocket and registers the
// resulting connection as a subscriber until it errors out or is closed.
func (s *Sink) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.mu.Unlock()

	go func() {
		defer s.remove(conn)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()
}

func (s *Sink) remove(conn *websocket.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
	conn.Close()
}

// AddChannel records channelName's schema inside the sink. Subscribers are
// sent snapshot frames only; the schema is not sent to them.
func (s *Sink) AddChannel(channelName string, schema tamer.Schema) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schemas[channelName] = schema
}

// store marshals the wire frame and broadcasts it to every connected
// subscriber, dropping (and removing) any that fails to accept it.
// Invoked on the worker goroutine by the embedded SinkBase.
func (s *Sink) store(snapshot tamer.Snapshot) bool {
	frame := encodeFrame(snapshot)

	s.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		if err := c.WriteMessage(websocket.BinaryMessage, frame); err != nil {
			s.remove(c)
		}
	}
	return true
}

// encodeFrame packs the same out-of-band envelope sinks/file uses:
// channel name length+bytes, schema hash, timestamp, active-mask
// length+bytes, payload length+bytes, all little-endian fixed-width
// fields (§6).
func encodeFrame(snapshot tamer.Snapshot) []byte {
	name := []byte(snapshot.ChannelName)
	size := 8 + len(name) + 8 + 8 + 8 + len(snapshot.ActiveMask) + 8 + len(snapshot.Payload)
	buf := make([]byte, size)
	off := 0

	putU64 := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[off:], v)
		off += 8
	}

	putU64(uint64(len(name)))
	off += copy(buf[off:], name)
	putU64(snapshot.SchemaHash)
	putU64(uint64(snapshot.Timestamp))
	putU64(uint64(len(snapshot.ActiveMask)))
	off += copy(buf[off:], snapshot.ActiveMask)
	putU64(uint64(len(snapshot.Payload)))
	off += copy(buf[off:], snapshot.Payload)

	return buf
}
