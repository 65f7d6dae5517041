// data-tamer: in-process telemetry snapshotter
// Ported from PickNikRobotics/data_tamer
// SPDX-License-Identifier: BSD-3-Clause

package tamer

import (
	"strings"
	"sync"
	"time"
)

// slot is one registered (or previously-registered) field's bookkeeping,
// the Go analogue of channel.cpp's Pimpl::ValueHolder.
type slot struct {
	name       string
	enabled    bool
	registered bool
	value      ValuePtr
}

// LogChannel is the registration registry, schema, active mask, and
// takeSnapshot serializer for one named stream of fields. Its methods are
// safe for concurrent use; the write path (register/setEnabled/unregister/
// takeSnapshot) serializes through a single mutex exactly as
// channel.cpp's Pimpl::mutex does.
type LogChannel struct {
	name string

	mu sync.Mutex

	series   []slot
	byName   map[string]int
	schema   *Schema
	registry *TypesRegistry

	maskDirty      bool
	mask           *ActiveMask
	loggingStarted bool

	sinks   []Sink
	sinksBy map[Sink]struct{}

	log Logger
}

// NewLogChannel constructs a channel named name, using reg to resolve
// Composite types passed to RegisterCustom (nil uses DefaultTypesRegistry).
func NewLogChannel(name string, reg *TypesRegistry) *LogChannel {
	if reg == nil {
		reg = defaultTypesRegistry
	}
	return &LogChannel{
		name:      name,
		byName:    map[string]int{},
		schema:    newSchema(name),
		registry:  reg,
		maskDirty: true,
		mask:      newActiveMask(0),
		sinksBy:   map[Sink]struct{}{},
		log:       noopLogger{},
	}
}

// SetLogger installs log as the channel's diagnostic logger (registration
// errors at debug level, failed sink pushes at warn level — §4.9). A nil
// logger installs the no-op logger.
func (c *LogChannel) SetLogger(log Logger) {
	if log == nil {
		log = noopLogger{}
	}
	c.mu.Lock()
	c.log = log
	c.mu.Unlock()
}

// ChannelName returns the channel's immutable name.
func (c *LogChannel) ChannelName() string { return c.name }

// Register adds or re-activates a plain numeric/array/slice field under
// name, bound to value. See §4.4 for the exact failure conditions.
func (c *LogChannel) Register(name string, value ValuePtr) (RegistrationID, error) {
	return c.register(name, value, "")
}

// RegisterCustom adds or re-activates a composite field under name, bound
// to value (built with NewCustomValue/NewCustomSlice/NewCustomArray
// against c's own TypesRegistry). typeName is the composite's declared
// name, used to fold the optional type-name leaf into the hash and to
// drive schema recursion.
func (c *LogChannel) RegisterCustom(name string, value ValuePtr, typeName string) (RegistrationID, error) {
	return c.register(name, value, typeName)
}

func (c *LogChannel) register(name string, value ValuePtr, typeName string) (RegistrationID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fail := func(kind error) (RegistrationID, error) {
		err := registrationError(c.name, name, kind)
		c.log.Debugf("tamer: registration failed: %v", err)
		return RegistrationID{}, err
	}

	if strings.ContainsRune(name, ' ') {
		return fail(ErrNameInvalid)
	}

	c.maskDirty = true

	idx, seen := c.byName[name]
	if !seen {
		if c.loggingStarted {
			return fail(ErrFrozenSchema)
		}

		field := TypeField{
			FieldName: name,
			Type:      value.Type(),
			TypeName:  value.Type().String(),
			IsVector:  value.IsVector(),
			ArraySize: uint32(value.VectorSize()),
		}
		var nested *compositeSerializer
		if typeName != "" {
			field.TypeName = typeName
		}
		if value.custom != nil {
			nested, _ = value.custom.serializer.(*compositeSerializer)
		}

		c.series = append(c.series, slot{name: name, enabled: true, registered: true, value: value})
		index := len(c.series) - 1
		c.byName[name] = index
		c.schema.addField(field, nested, c.registry)

		if value.custom != nil {
			if cschema, ok := value.custom.serializer.TypeSchema(); ok {
				c.schema.addCustomSchema(value.custom.serializer.TypeName(), cschema)
			}
		}

		return RegistrationID{FirstIndex: index, FieldsCount: 1}, nil
	}

	s := &c.series[idx]
	if s.registered {
		return fail(ErrAlreadyRegistered)
	}
	if !s.value.sameShape(value) {
		return fail(ErrTypeMismatch)
	}
	s.registered = true
	s.enabled = true
	s.value = value
	return RegistrationID{FirstIndex: idx, FieldsCount: 1}, nil
}

// SetEnabled toggles enabled for every slot in id's range, marking the
// active mask dirty if any bit actually changed.
func (c *LogChannel) SetEnabled(id RegistrationID, enable bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := 0; i < id.FieldsCount; i++ {
		s := &c.series[id.FirstIndex+i]
		if s.enabled != enable {
			s.enabled = enable
			c.maskDirty = true
		}
	}
}

// Unregister clears registered and enabled for every slot in id's range.
// The schema is append-only, so the slots themselves are never removed.
func (c *LogChannel) Unregister(id RegistrationID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := 0; i < id.FieldsCount; i++ {
		s := &c.series[id.FirstIndex+i]
		s.registered = false
		s.enabled = false
	}
}

// AddSink inserts sink into the channel's sink set; idempotent by identity.
func (c *LogChannel) AddSink(sink Sink) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.sinksBy[sink]; ok {
		return
	}
	c.sinksBy[sink] = struct{}{}
	c.sinks = append(c.sinks, sink)
	if c.loggingStarted {
		sink.AddChannel(c.name, *c.schema)
	}
}

// Schema returns a read-only snapshot of the channel's current schema.
func (c *LogChannel) Schema() Schema {
	c.mu.Lock()
	defer c.mu.Unlock()
	return *c.schema
}

// ActiveFlags returns a read-only snapshot of the channel's active mask.
func (c *LogChannel) ActiveFlags() *ActiveMask {
	c.mu.Lock()
	defer c.mu.Unlock()
	return activeMaskFromBytes(c.mask.Bytes(), c.mask.Len())
}

// TakeSnapshot assembles and pushes one Snapshot to every sink, following
// the ten-step protocol in §4.4. It returns false immediately if the
// channel has no sinks, and otherwise returns the AND of every sink's
// Push result.
func (c *LogChannel) TakeSnapshot(ts time.Duration) bool {
	snap := c.buildSnapshot(ts)
	if snap == nil {
		return false
	}

	allPushed := true
	for _, sink := range snap.sinks {
		if !sink.Push(snap.snapshot) {
			allPushed = false
			c.log.Warnf("tamer: channel %q: sink %T dropped a snapshot (queue full)", c.name, sink)
		}
	}
	return allPushed
}

type preparedSnapshot struct {
	snapshot Snapshot
	sinks    []Sink
}

func (c *LogChannel) buildSnapshot(ts time.Duration) *preparedSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.sinks) == 0 {
		return nil
	}

	if c.maskDirty {
		c.maskDirty = false
		c.mask.grow(len(c.series))
		for i, s := range c.series {
			c.mask.Set(i, s.enabled)
		}
	}

	payloadSize := 0
	for _, s := range c.series {
		payloadSize += s.value.SerializedSize()
	}
	payload := make([]byte, payloadSize)

	var schemaHash uint64
	if !c.loggingStarted {
		c.loggingStarted = true
		schemaHash = c.schema.Hash
		for _, sink := range c.sinks {
			sink.AddChannel(c.name, *c.schema)
		}
	} else {
		schemaHash = c.schema.Hash
	}

	off := 0
	for _, s := range c.series {
		if s.enabled {
			off += s.value.Serialize(payload[off:])
		}
	}
	payload = payload[:off]

	snap := Snapshot{
		ChannelName: c.name,
		SchemaHash:  schemaHash,
		Timestamp:   ts,
		ActiveMask:  c.mask.Bytes(),
		Payload:     payload,
	}

	sinks := make([]Sink, len(c.sinks))
	copy(sinks, c.sinks)
	return &preparedSnapshot{snapshot: snap, sinks: sinks}
}
