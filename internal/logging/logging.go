// Package logging wraps zap behind the small Logger surface the rest of the
// core depends on, mirroring the way luxfi-adx's pkg/log wraps its logging
// backend.
package logging

import "go.uber.org/zap"

// Logger is the structured logging surface the consensus core depends on.
type Logger interface {
	Debug(msg string, fields ...zap.Field)
	Info(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
	Error(msg string, fields ...zap.Field)
	Sync() error
}

type zapLogger struct {
	l *zap.Logger
}

// New builds a production zap logger named for the node.
func New(nodeID string) Logger {
	base, err := zap.NewProduction()
	if err != nil {
		return NoOp()
	}
	return &zapLogger{l: base.With(zap.String("node", nodeID))}
}

func (z *zapLogger) Debug(msg string, fields ...zap.Field) { z.l.Debug(msg, fields...) }
func (z *zapLogger) Info(msg string, fields ...zap.Field)  { z.l.Info(msg, fields...) }
func (z *zapLogger) Warn(msg string, fields ...zap.Field)  { z.l.Warn(msg, fields...) }
func (z *zapLogger) Error(msg string, fields ...zap.Field) { z.l.Error(msg, fields...) }
func (z *zapLogger) Sync() error                           { return z.l.Sync() }

type noOpLogger struct{}

// NoOp returns a logger that discards everything, used in tests.
func NoOp() Logger { return noOpLogger{} }

func (noOpLogger) Debug(string, ...zap.Field) {}
func (noOpLogger) Info(string, ...zap.Field)  {}
func (noOpLogger) Warn(string, ...zap.Field)  {}
func (noOpLogger) Error(string, ...zap.Field) {}
func (noOpLogger) Sync() error                { return nil }
