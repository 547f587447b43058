package audit

import (
	"context"
	"log/slog"
	"time"
)

type requestIDKey struct{}

// WithRequestID stores the request id for audit lines
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the request id stored by WithRequestID
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

type Logger struct {
	logger *slog.Logger
	now    func() time.Time
}

func NewLogger(logger *slog.Logger) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{logger: logger.With(slog.String("component", "audit")), now: time.Now}
}

func (al *Logger) LogAction(ctx context.Context, operatorID, action, resource, resourceID, status, details string) {
	al.logger.Info("audit",
		slog.String("action", action),
		slog.String("resource", resource),
		slog.String("resource_id", resourceID),
		slog.String("operator_id", operatorID),
		slog.String("status", status),
		slog.String("details", details),
		slog.String("request_id", RequestID(ctx)),
		slog.Time("timestamp", al.now()),
	)
}

func (al *Logger) LogTenantDeletion(ctx context.Context, operatorID, tenantID, status, details string) {
	al.LogAction(ctx, operatorID, "delete", "tenant", tenantID, status, details)
}

func (al *Logger) LogPayment(ctx context.Context, operatorID, rentID, status, details string) {
	al.LogAction(ctx, operatorID, "payment", "rent_record", rentID, status, details)
}

func (al *Logger) LogExport(ctx context.Context, operatorID, filename, status string) {
	al.LogAction(ctx, operatorID, "export", "collections", filename, status, "")
}

func (al *Logger) LogDenied(ctx context.Context, operatorID, reason string) {
	al.LogAction(ctx, operatorID, "access_denied", "api", "", "denied", reason)
}
