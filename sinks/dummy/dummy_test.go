// data-tamer: in-process telemetry snapshotter
// Ported from PickNikRobotics/data_tamer
// SPDX-License-Identifier: BSD-3-Clause

package dummy_test

import (
	"testing"
	"time"

	tamer "github.com/PickNikRobotics/data-tamer"
	"github.com/PickNikRobotics/data-tamer/sinks/dummy"
)

func waitUntil(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	if !cond() {
		t.Fatal("condition did not become true within the timeout")
	}
}

func TestDummySinkCountsAndRecordsSchema(t *testing.T) {
	ch := tamer.NewLogChannel("demo", nil)
	sink := dummy.New(16, nil)
	ch.AddSink(sink)

	var v int32
	if _, err := ch.Register("v", tamer.NewInt32(&v)); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 5; i++ {
		ch.TakeSnapshot(0)
	}

	waitUntil(t, time.Second, func() bool { return sink.Count("demo") == 5 })

	schema, ok := sink.Schema("demo")
	if !ok {
		t.Fatal("expected a recorded schema for \"demo\"")
	}
	if schema.Hash != ch.Schema().Hash {
		t.Error("recorded schema hash does not match the channel's")
	}
}

func TestDummySinkUnknownChannelCountIsZero(t *testing.T) {
	sink := dummy.New(1, nil)
	if sink.Count("nope") != 0 {
		t.Error("Count on an unknown channel should be 0")
	}
	if _, ok := sink.Schema("nope"); ok {
		t.Error("Schema on an unknown channel should report ok=false")
	}
}
