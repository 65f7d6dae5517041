// data-tamer: in-process telemetry snapshotter
// Ported from PickNikRobotics/data_tamer
// SPDX-License-Identifier: BSD-3-Clause

// Package dummy implements the simplest possible tamer.Sink: it records
// every channel it has seen and counts snapshots, without writing
// anywhere. It exists for tests and smoke-checking a wiring, the same role
// data_tamer's own DummySink class plays in the C++ original.
package dummy

import (
	"sync"

	"github.com/PickNikRobotics/data-tamer"
)

// Sink counts pushed snapshots per channel and remembers each channel's
// schema, with no I/O of any kind. It embeds tamer.SinkBase for the
// queue/worker plumbing every concrete sink shares.
type Sink struct {
	*tamer.SinkBase

	mu      sync.Mutex
	schemas map[string]tamer.Schema
	counts  map[string]int
}

// New returns an empty dummy sink with a queue of queueCap snapshots.
func New(queueCap int, log tamer.Logger) *Sink {
	s := &Sink{schemas: map[string]tamer.Schema{}, counts: map[string]int{}}
	s.SinkBase = tamer.NewSinkBase("dummy", queueCap, log, s.store)
	return s
}

// AddChannel records channelName's schema, overwriting any prior one —
// callers are expected (§4.6) to only ever call this with a stable schema
// hash per channel.
func (s *Sink) AddChannel(channelName string, schema tamer.Schema) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schemas[channelName] = schema
}

// store always succeeds, incrementing the per-channel counter. Invoked on
// the worker goroutine by the embedded SinkBase.
func (s *Sink) store(snapshot tamer.Snapshot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[snapshot.ChannelName]++
	return true
}

// Count returns how many snapshots channelName has received so far.
func (s *Sink) Count(channelName string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[channelName]
}

// Schema returns the last schema recorded for channelName.
func (s *Sink) Schema(channelName string) (tamer.Schema, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sch, ok := s.schemas[channelName]
	return sch, ok
}
