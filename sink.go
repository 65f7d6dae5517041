// data-tamer: in-process telemetry snapshotter
// Ported from PickNikRobotics/data_tamer
// SPDX-License-Identifier: BSD-3-Clause

package tamer

import (
	"sync"
	"time"
)

// Snapshot is one channel's captured state at a point in time (§3): the
// schema hash it was captured against, a timestamp, the packed active mask,
// and the concatenated payload of every enabled field, in registration
// order.
type Snapshot struct {
	ChannelName string
	SchemaHash  uint64
	Timestamp   time.Duration
	ActiveMask  []byte
	Payload     []byte
}

// Sink is the contract a concrete backend (file writer, bus publisher,
// counter) implements (§4.6). AddChannel is called once per channel before
// any Push for that channel, and MUST be idempotent under repeated calls
// carrying an identical schema hash. Push is called by TakeSnapshot on the
// producer's goroutine and must not block; concrete sinks normally embed
// SinkBase, whose Push enqueues and whose worker goroutine stores queued
// snapshots one at a time, in push order.
type Sink interface {
	AddChannel(channelName string, schema Schema)
	Push(snapshot Snapshot) bool
}

// pollInterval is the period of a ticker the worker also selects on, the
// same 250µs as data_sink.cpp's sleep_for between try_dequeue passes. The
// worker itself blocks on its queue and never sleeps, so a snapshot is
// stored as soon as it is dequeued.
const pollInterval = 250 * time.Microsecond

// SinkBase is the drain-loop plumbing every concrete sink embeds: a
// producer-side enqueue and a single consumer goroutine that drains
// whatever is queued and calls the embedder's store function, translated from
// data_sink.cpp's moodycamel::ConcurrentQueue + polling thread into Go's
// native MPSC vehicle, a buffered channel with one reader.
type SinkBase struct {
	name     string
	queue    chan Snapshot
	store    func(Snapshot) bool
	log      Logger
	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}
}

// NewSinkBase starts the worker goroutine, calling store for each queued
// snapshot in push order. queueCap bounds the channel; Push returns false
// once the queue is full instead of blocking the producer, the Go analogue
// of the spec's "implementations MAY choose bounded or unbounded, but MUST
// document the push-returns-false condition" (§4.6). name identifies the
// sink in log messages when store reports a failure; log may be nil.
func NewSinkBase(name string, queueCap int, log Logger, store func(Snapshot) bool) *SinkBase {
	if log == nil {
		log = noopLogger{}
	}
	b := &SinkBase{
		name:   name,
		queue:  make(chan Snapshot, queueCap),
		store:  store,
		log:    log,
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
	go b.run()
	return b
}

func (b *SinkBase) storeLogged(snap Snapshot) {
	if !b.store(snap) {
		b.log.Warnf("tamer: sink %q failed to store snapshot for channel %q", b.name, snap.ChannelName)
	}
}

func (b *SinkBase) run() {
	defer close(b.done)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case snap := <-b.queue:
			b.storeLogged(snap)
		case <-b.stopCh:
			b.drain()
			return
		case <-ticker.C:
		}
	}
}

// drain flushes whatever is already queued once a stop has been requested,
// matching "exit on a run=false flag" after a final dequeue pass rather
// than discarding in-flight snapshots.
func (b *SinkBase) drain() {
	for {
		select {
		case snap := <-b.queue:
			b.storeLogged(snap)
		default:
			return
		}
	}
}

// Push enqueues snapshot for the worker goroutine, returning false if the
// queue is full.
func (b *SinkBase) Push(snapshot Snapshot) bool {
	select {
	case b.queue <- snapshot:
		return true
	default:
		return false
	}
}

// Stop signals the worker to drain and exit, then blocks until it has.
// Idempotent and safe to call more than once, matching stopThread's
// "MUST be idempotent and MUST join" contract.
func (b *SinkBase) Stop() {
	b.stopOnce.Do(func() { close(b.stopCh) })
	<-b.done
}
