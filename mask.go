// data-tamer: in-process telemetry snapshotter
// Ported from PickNikRobotics/data_tamer
// SPDX-License-Identifier: BSD-3-Clause

package tamer

import "github.com/prysmaticlabs/go-bitfield"

// ActiveMask is the packed, LSB-first-within-a-byte bitset recording which
// fields were enabled in a given snapshot (§3): bit i set iff field i is
// enabled, stored at byte i/8, bit i%8 counted from the LSB. It uses
// go-bitfield's Bitlist (the consensus-client community's variable-length
// bitset, the same library prysm itself depends on) for bit storage and
// growth instead of hand-rolled byte math; the wire encoding (Bytes) is
// produced directly from BitAt so it never depends on Bitlist's own
// length-delimiter convention, only on the spec's plain ceil(n/8) packing.
type ActiveMask struct {
	bits bitfield.Bitlist
	n    int
}

// newActiveMask allocates a mask sized to hold n fields.
func newActiveMask(n int) *ActiveMask {
	return &ActiveMask{bits: bitfield.NewBitlist(uint64(n)), n: n}
}

// grow extends the mask to cover n fields (schema is append-only, so a mask
// only ever grows), preserving existing bits.
func (m *ActiveMask) grow(n int) {
	if n <= m.n {
		return
	}
	next := bitfield.NewBitlist(uint64(n))
	for i := 0; i < m.n; i++ {
		if m.bits.BitAt(uint64(i)) {
			next.SetBitAt(uint64(i), true)
		}
	}
	m.bits = next
	m.n = n
}

// Set sets or clears bit i.
func (m *ActiveMask) Set(i int, v bool) { m.bits.SetBitAt(uint64(i), v) }

// Get reports whether bit i is set.
func (m *ActiveMask) Get(i int) bool { return m.bits.BitAt(uint64(i)) }

// Len returns the number of fields the mask covers.
func (m *ActiveMask) Len() int { return m.n }

// Bytes returns the packed wire form, length ceil(n/8), bit i at byte i/8,
// bit i%8 from the LSB — computed field-by-field so it matches §3 exactly
// regardless of Bitlist's own internal delimiter-bit convention.
func (m *ActiveMask) Bytes() []byte {
	out := make([]byte, (m.n+7)/8)
	for i := 0; i < m.n; i++ {
		if m.bits.BitAt(uint64(i)) {
			out[i/8] |= 1 << uint(i%8)
		}
	}
	return out
}

// activeMaskFromBytes reconstructs a mask of n fields from its packed wire
// form, for the parser side (§4.7).
func activeMaskFromBytes(b []byte, n int) *ActiveMask {
	m := newActiveMask(n)
	for i := 0; i < n; i++ {
		byteIdx, bitIdx := i/8, uint(i%8)
		if byteIdx < len(b) && b[byteIdx]&(1<<bitIdx) != 0 {
			m.Set(i, true)
		}
	}
	return m
}
