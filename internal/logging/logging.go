// Package logging constructs the module's zap logger, matching the
// per-service logger construction in the teacher's RAG services.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a production-style zap logger unless dev is true, in which
// case it uses the more readable console encoder.
func New(dev bool) (*zap.Logger, error) {
	if dev {
		cfg := zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return cfg.Build()
	}
	return zap.NewProduction()
}

// WithRequest returns a child logger carrying the request id field, used by
// the coordinator and everything it calls for the lifetime of one request.
func WithRequest(l *zap.Logger, requestID string) *zap.Logger {
	return l.With(zap.String("request_id", requestID))
}
