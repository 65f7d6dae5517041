// data-tamer: in-process telemetry snapshotter
// Ported from PickNikRobotics/data_tamer
// SPDX-License-Identifier: BSD-3-Clause

package tamer_test

import (
	"testing"

	tamer "github.com/PickNikRobotics/data-tamer"
)

func TestLoggedValueGetSet(t *testing.T) {
	ch := tamer.NewLogChannel("demo", nil)
	lv, err := tamer.AddLoggedValue[int32](ch, "counter")
	if err != nil {
		t.Fatal(err)
	}
	if got := lv.Get(); got != 0 {
		t.Fatalf("initial value = %d, want 0", got)
	}
	lv.Set(42, false)
	if got := lv.Get(); got != 42 {
		t.Errorf("Get() = %d, want 42", got)
	}
}

func TestLoggedValueCloseUnregisters(t *testing.T) {
	ch := tamer.NewLogChannel("demo", nil)
	lv, err := tamer.AddLoggedValue[int32](ch, "counter")
	if err != nil {
		t.Fatal(err)
	}
	lv.Close()

	var other int32
	if _, err := ch.Register("counter", tamer.NewInt32(&other)); err != nil {
		t.Fatalf("re-registering after Close should succeed, got %v", err)
	}
}

func TestLoggedValueWithNilChannelIsADegradedNoOp(t *testing.T) {
	lv, err := tamer.AddLoggedValue[int32](nil, "counter")
	if err != nil {
		t.Fatal(err)
	}
	lv.Set(7, true)
	if got := lv.Get(); got != 7 {
		t.Errorf("Get() = %d, want 7", got)
	}
	lv.Close() // must not panic
}
