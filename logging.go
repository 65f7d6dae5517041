// data-tamer: in-process telemetry snapshotter
// Ported from PickNikRobotics/data_tamer
// SPDX-License-Identifier: BSD-3-Clause

package tamer

import "go.uber.org/zap"

// Logger is the small logging contract the core calls through, so that
// embedding applications can redirect or silence it without the core
// depending on any one concrete logging stack's full API surface.
type Logger interface {
	Debugf(template string, args ...any)
	Warnf(template string, args ...any)
	Errorf(template string, args ...any)
}

// noopLogger discards everything; installed whenever a nil Logger is
// passed, so call sites never need a nil check of their own.
type noopLogger struct{}

func (noopLogger) Debugf(string, ...any) {}
func (noopLogger) Warnf(string, ...any)  {}
func (noopLogger) Errorf(string, ...any) {}

// NewZapLogger wraps a *zap.SugaredLogger as a Logger, the ambient logging
// stack this module carries the way AKJUS-bsc-erigon wires zap throughout
// its own services.
func NewZapLogger(z *zap.SugaredLogger) Logger {
	if z == nil {
		return noopLogger{}
	}
	return zapLogger{z}
}

type zapLogger struct{ s *zap.SugaredLogger }

func (l zapLogger) Debugf(template string, args ...any) { l.s.Debugf(template, args...) }
func (l zapLogger) Warnf(template string, args ...any)  { l.s.Warnf(template, args...) }
func (l zapLogger) Errorf(template string, args ...any) { l.s.Errorf(template, args...) }

// NewProductionLogger builds a ready-to-use zap-backed Logger with sane
// production defaults (JSON encoding, info level), falling back to a
// no-op logger if zap's own construction fails.
func NewProductionLogger() Logger {
	z, err := zap.NewProduction()
	if err != nil {
		return noopLogger{}
	}
	return NewZapLogger(z.Sugar())
}
