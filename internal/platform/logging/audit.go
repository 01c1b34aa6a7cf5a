package logging

import (
	"context"

	"go.uber.org/zap"
)

// AuditResult is the outcome recorded for an audited action.
type AuditResult string

const (
	AuditSuccess AuditResult = "success"
	AuditFailure AuditResult = "failure"
)

// AuditEvent describes a mutation of a stored resource.
type AuditEvent struct {
	Action       string // create, update, delete
	Actor        string // authenticated user, or "anonymous"
	ResourceType string
	ResourceID   string
	Result       AuditResult
	Details      map[string]any
}

// LogAudit writes a structured audit event using the request-aware logger.
// Failures are logged at warning level so they surface in severity filters.
func LogAudit(ctx context.Context, ev AuditEvent) {
	actor := ev.Actor
	if actor == "" {
		actor = "anonymous"
	}
	fields := []zap.Field{
		zap.String("audit.action", ev.Action),
		zap.String("audit.actor", actor),
		zap.String("audit.resource_type", ev.ResourceType),
		zap.String("audit.resource_id", ev.ResourceID),
		zap.String("audit.result", string(ev.Result)),
	}
	if len(ev.Details) > 0 {
		fields = append(fields, zap.Any("audit.details", ev.Details))
	}

	logger := LoggerFromContext(ctx)
	if ev.Result == AuditFailure {
		logger.Warn("Audit event", fields...)
		return
	}
	logger.Info("Audit event", fields...)
}
