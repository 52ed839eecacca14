package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/MrEthical07/jwtgate"
)

// zapAuditSink writes gate audit events as structured log lines.
type zapAuditSink struct {
	logger *zap.Logger
}

func (s zapAuditSink) Emit(_ context.Context, event jwtgate.AuditEvent) {
	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("outcome", string(event.Outcome)),
		zap.Time("at", event.Time),
		zap.String("method", event.Method),
		zap.String("path", event.Path),
		zap.String("remote_ip", event.RemoteIP),
	}
	if event.Subject != "" {
		fields = append(fields, zap.String("sub", event.Subject))
	}
	if event.TokenID != "" {
		fields = append(fields, zap.String("jti", event.TokenID))
	}
	if event.Class != "" {
		fields = append(fields, zap.String("class", event.Class))
	}
	if event.Reason != "" {
		fields = append(fields, zap.String("reason", event.Reason))
	}
	if event.Error != "" {
		fields = append(fields, zap.String("error", event.Error))
	}
	if event.Outcome == jwtgate.AuditGranted {
		s.logger.Info("audit", fields...)
		return
	}
	s.logger.Warn("audit", fields...)
}
