// data-tamer: in-process telemetry snapshotter
// Ported from PickNikRobotics/data_tamer
// SPDX-License-Identifier: BSD-3-Clause

// Package file implements a tamer.Sink that appends every pushed snapshot
// to a flat file, with a companion "<file>.schema" text file to which each
// channel's schema text is appended once.
package file

import (
	"encoding/binary"
	"fmt"
	"os"
	"sync"

	"github.com/gofrs/flock"
	"github.com/golang/snappy"

	"github.com/PickNikRobotics/data-tamer"
)

// Sink appends framed snapshots to a single log file. Writes are guarded
// by a github.com/gofrs/flock file lock so two processes sharing the same
// path never interleave appends.
type Sink struct {
	*tamer.SinkBase

	mu       sync.Mutex
	path     string
	f        *os.File
	lock     *flock.Flock
	compress bool

	seen map[string]struct{}
}

// New opens (creating if needed) path for append, and its companion
// lockfile. Set compress to route the payload through snappy block
// compression.
func New(path string, compress bool, queueCap int, log tamer.Logger) (*Sink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("tamer: opening sink file %s: %w", path, err)
	}
	s := &Sink{
		path:     path,
		f:        f,
		lock:     flock.New(path + ".lock"),
		compress: compress,
		seen:     map[string]struct{}{},
	}
	s.SinkBase = tamer.NewSinkBase("file", queueCap, log, s.store)
	return s, nil
}

// Close stops the worker (draining whatever is queued) and closes the
// underlying file.
func (s *Sink) Close() error {
	s.SinkBase.Stop()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.f.Close()
}

// AddChannel appends schema.Text() to "<path>.schema" once per channel.
func (s *Sink) AddChannel(channelName string, schema tamer.Schema) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[channelName]; ok {
		return
	}
	s.seen[channelName] = struct{}{}

	schemaFile := s.path + ".schema"
	f, err := os.OpenFile(schemaFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return
	}
	defer f.Close()
	f.WriteString(schema.Text())
}

// store writes the out-of-band envelope before each snapshot's wire form
// (§6/§4.11): channel name length, channel name, schema hash, timestamp,
// active-mask length, active mask, a compression flag byte, payload
// length, payload. Invoked on the worker goroutine by the embedded
// SinkBase.
func (s *Sink) store(snapshot tamer.Snapshot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.lock.Lock(); err != nil {
		return false
	}
	defer s.lock.Unlock()

	payload := snapshot.Payload
	compressedFlag := byte(0)
	if s.compress {
		payload = snappy.Encode(nil, snapshot.Payload)
		compressedFlag = 1
	}

	var hdr [8]byte
	write := func(v uint64) bool {
		binary.LittleEndian.PutUint64(hdr[:], v)
		_, err := s.f.Write(hdr[:])
		return err == nil
	}

	ok := true
	ok = ok && write(uint64(len(snapshot.ChannelName)))
	if _, err := s.f.WriteString(snapshot.ChannelName); err != nil {
		ok = false
	}
	ok = ok && write(snapshot.SchemaHash)
	ok = ok && write(uint64(snapshot.Timestamp))
	ok = ok && write(uint64(len(snapshot.ActiveMask)))
	if _, err := s.f.Write(snapshot.ActiveMask); err != nil {
		ok = false
	}
	if _, err := s.f.Write([]byte{compressedFlag}); err != nil {
		ok = false
	}
	ok = ok && write(uint64(len(payload)))
	if _, err := s.f.Write(payload); err != nil {
		ok = false
	}
	return ok
}
