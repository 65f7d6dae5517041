// data-tamer: in-process telemetry snapshotter
// Ported from PickNikRobotics/data_tamer
// SPDX-License-Identifier: BSD-3-Clause

package tamer

import (
	"sync"
	"unsafe"
)

// LoggedValue is a scoped owner bundling a value of type T, its
// RegistrationID, and a reference to the owning channel (§4.5). It
// registers a pointer to its own internal storage on creation and
// unregisters on Close. Multiple readers and one writer are safe
// concurrently via an internal RWMutex; the generic parameter mirrors the
// teacher's own EncodeUint64[T ~uint64]-style parameterization over the
// underlying numeric kind.
type LoggedValue[T Numeric] struct {
	mu      sync.RWMutex
	value   T
	channel *LogChannel // strong reference; nil only when created without a channel
	id      RegistrationID
}

// AddLoggedValue registers name on ch and returns a LoggedValue[T] wrapping
// it, initialized to zero. ch may be nil, in which case the handle behaves
// as a plain in-memory get/set with no channel side effects (the "weak ref
// empty" degraded mode of §4.5).
func AddLoggedValue[T Numeric](ch *LogChannel, name string) (*LoggedValue[T], error) {
	lv := &LoggedValue[T]{channel: ch}
	if ch == nil {
		return lv, nil
	}
	id, err := ch.Register(name, newNumericValuePtr(&lv.value))
	if err != nil {
		return nil, err
	}
	lv.id = id
	return lv, nil
}

// newNumericValuePtr builds a scalar ValuePtr over ptr using T's resolved
// BasicType and byte width. basicTypeOf[T]() only distinguishes kinds the
// per-kind NewXxx[T ~xxx] constructors in valueptr.go also accept, but
// those require T to satisfy a specific single-kind constraint at compile
// time; here T is generic over all of Numeric, so the scalar is built
// directly the way newScalar itself does, keyed off the resolved kind's
// byte width.
func newNumericValuePtr[T Numeric](ptr *T) ValuePtr {
	bt := basicTypeOf[T]()
	return newScalar(bt, unsafe.Pointer(ptr), bt.ByteSize())
}

// Get returns a copy of the current value under a read lock.
func (lv *LoggedValue[T]) Get() T {
	lv.mu.RLock()
	defer lv.mu.RUnlock()
	return lv.value
}

// Set writes v under a write lock. When autoEnable is true and the channel
// is live, the field is re-enabled if it had been disabled.
func (lv *LoggedValue[T]) Set(v T, autoEnable bool) {
	lv.mu.Lock()
	lv.value = v
	lv.mu.Unlock()

	if autoEnable && lv.channel != nil {
		lv.channel.SetEnabled(lv.id, true)
	}
}

// Close unregisters the value from its owning channel. Safe to call on a
// handle whose channel is nil (no-op).
func (lv *LoggedValue[T]) Close() {
	if lv.channel == nil {
		return
	}
	lv.channel.Unregister(lv.id)
}
