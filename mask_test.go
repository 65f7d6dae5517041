// data-tamer: in-process telemetry snapshotter
// Ported from PickNikRobotics/data_tamer
// SPDX-License-Identifier: BSD-3-Clause

package tamer

import "testing"

func TestActiveMaskBytesLength(t *testing.T) {
	for _, n := range []int{0, 1, 7, 8, 9, 16} {
		m := newActiveMask(n)
		want := (n + 7) / 8
		if got := len(m.Bytes()); got != want {
			t.Errorf("n=%d: len(Bytes()) = %d, want %d", n, got, want)
		}
	}
}

func TestActiveMaskSetGetRoundTrip(t *testing.T) {
	m := newActiveMask(8)
	for i := 0; i < 8; i++ {
		m.Set(i, true)
	}
	if b := m.Bytes()[0]; b != 0b11111111 {
		t.Fatalf("all-enabled byte = %08b, want 11111111", b)
	}

	m.Set(0, false)
	if b := m.Bytes()[0]; b != 0b11111110 {
		t.Errorf("after disabling bit 0: byte = %08b, want 11111110", b)
	}

	m.Set(0, true)
	m.Set(5, false)
	if b := m.Bytes()[0]; b != 0b11011111 {
		t.Errorf("after disabling bit 5: byte = %08b, want 11011111", b)
	}
}

func TestActiveMaskFromBytesRoundTrip(t *testing.T) {
	m := newActiveMask(10)
	m.Set(0, true)
	m.Set(3, true)
	m.Set(9, true)

	m2 := activeMaskFromBytes(m.Bytes(), 10)
	for i := 0; i < 10; i++ {
		if m.Get(i) != m2.Get(i) {
			t.Errorf("bit %d: got %v, want %v", i, m2.Get(i), m.Get(i))
		}
	}
}

func TestActiveMaskGrowPreservesBits(t *testing.T) {
	m := newActiveMask(3)
	m.Set(0, true)
	m.Set(2, true)
	m.grow(10)
	if m.Len() != 10 {
		t.Fatalf("Len() after grow = %d, want 10", m.Len())
	}
	if !m.Get(0) || !m.Get(2) {
		t.Error("grow must preserve previously-set bits")
	}
	if m.Get(1) || m.Get(5) {
		t.Error("newly grown bits must start cleared")
	}
}
