// data-tamer: in-process telemetry snapshotter
// Ported from PickNikRobotics/data_tamer
// SPDX-License-Identifier: BSD-3-Clause

package bus_test

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	tamer "github.com/PickNikRobotics/data-tamer"
	"github.com/PickNikRobotics/data-tamer/sinks/bus"
)

func TestBusSinkBroadcastsToSubscriber(t *testing.T) {
	sink := bus.New(16, nil)
	server := httptest.NewServer(sink)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dialing the bus sink: %v", err)
	}
	defer conn.Close()

	ch := tamer.NewLogChannel("demo", nil)
	ch.AddSink(sink)
	var v int32 = 99
	if _, err := ch.Register("v", tamer.NewInt32(&v)); err != nil {
		t.Fatal(err)
	}
	ch.TakeSnapshot(0)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	msgType, frame, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("reading the broadcast frame: %v", err)
	}
	if msgType != websocket.BinaryMessage {
		t.Errorf("message type = %d, want BinaryMessage", msgType)
	}
	if len(frame) == 0 {
		t.Error("broadcast frame should not be empty")
	}
}

func TestBusSinkDropsDisconnectedSubscriber(t *testing.T) {
	sink := bus.New(16, nil)
	server := httptest.NewServer(sink)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dialing the bus sink: %v", err)
	}
	conn.Close() // disconnect immediately

	ch := tamer.NewLogChannel("demo", nil)
	ch.AddSink(sink)
	var v int32
	if _, err := ch.Register("v", tamer.NewInt32(&v)); err != nil {
		t.Fatal(err)
	}
	// Push must not fail or block just because a stale subscriber dropped.
	if !ch.TakeSnapshot(0) {
		t.Error("TakeSnapshot should still report success despite a dead subscriber")
	}
}
