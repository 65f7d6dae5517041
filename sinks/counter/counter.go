// data-tamer: in-process telemetry snapshotter
// Ported from PickNikRobotics/data_tamer
// SPDX-License-Identifier: BSD-3-Clause

// Package counter implements a tamer.Sink that surfaces snapshot activity
// as Prometheus metrics: a counter of pushes and a gauge of the last
// payload size, both labeled by channel name. This is the concrete
// realization of the "in-memory counters" consumer spec.md §1 names.
package counter

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/PickNikRobotics/data-tamer"
)

// Sink publishes snapshot counts and payload sizes to a Prometheus
// registry. It embeds tamer.SinkBase for the queue/worker plumbing every
// concrete sink shares.
type Sink struct {
	*tamer.SinkBase

	mu        sync.Mutex
	snapshots *prometheus.CounterVec
	payload   *prometheus.GaugeVec
	seen      map[string]struct{}
}

// New registers its metrics (namespace "tamer") with reg and returns a
// ready-to-use sink. Pass prometheus.DefaultRegisterer for the global
// registry.
func New(reg prometheus.Registerer, queueCap int, log tamer.Logger) (*Sink, error) {
	s := &Sink{
		snapshots: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tamer",
			Name:      "snapshots_total",
			Help:      "Number of snapshots pushed to this sink, per channel.",
		}, []string{"channel_name"}),
		payload: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "tamer",
			Name:      "payload_bytes",
			Help:      "Size in bytes of the most recent snapshot payload, per channel.",
		}, []string{"channel_name"}),
		seen: map[string]struct{}{},
	}
	if err := reg.Register(s.snapshots); err != nil {
		return nil, err
	}
	if err := reg.Register(s.payload); err != nil {
		return nil, err
	}
	s.SinkBase = tamer.NewSinkBase("counter", queueCap, log, s.store)
	return s, nil
}

// AddChannel pre-creates the per-channel label values, idempotent across
// repeated calls for the same channel (§4.6).
func (s *Sink) AddChannel(channelName string, _ tamer.Schema) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[channelName]; ok {
		return
	}
	s.seen[channelName] = struct{}{}
	s.snapshots.WithLabelValues(channelName)
	s.payload.WithLabelValues(channelName).Set(0)
}

// store increments the channel's snapshot counter and sets its
// payload-size gauge, always succeeding. Invoked on the worker goroutine
// by the embedded SinkBase.
func (s *Sink) store(snapshot tamer.Snapshot) bool {
	s.snapshots.WithLabelValues(snapshot.ChannelName).Inc()
	s.payload.WithLabelValues(snapshot.ChannelName).Set(float64(len(snapshot.Payload)))
	return true
}
