package observability

import (
	"context"
	"log/slog"
)

// WSLogger provides structured logging for websocket connection events.
type WSLogger struct {
	hubName string
	logger  *slog.Logger
}

// NewWSLogger creates a WSLogger for the given hub. A nil logger falls back
// to slog.Default().
func NewWSLogger(hubName string, logger *slog.Logger) *WSLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &WSLogger{hubName: hubName, logger: logger}
}

// LogConnect logs an accepted socket and how many the user now holds.
func (l *WSLogger) LogConnect(ctx context.Context, userID uint, userConns int) {
	l.logger.InfoContext(ctx, "websocket connected",
		slog.String("hub", l.hubName),
		slog.Uint64("user_id", uint64(userID)),
		slog.Int("user_connections", userConns),
	)
}

// LogDisconnect logs a socket leaving the hub.
func (l *WSLogger) LogDisconnect(ctx context.Context, userID uint, userConns int, reason string) {
	l.logger.InfoContext(ctx, "websocket disconnected",
		slog.String("hub", l.hubName),
		slog.Uint64("user_id", uint64(userID)),
		slog.Int("user_connections", userConns),
		slog.String("reason", reason),
	)
}

// LogRejected logs a socket refused by a connection limit.
func (l *WSLogger) LogRejected(ctx context.Context, userID uint, err error) {
	l.logger.WarnContext(ctx, "websocket rejected",
		slog.String("hub", l.hubName),
		slog.Uint64("user_id", uint64(userID)),
		slog.String("error", err.Error()),
	)
}

// LogLifecycle logs a hub-wide event such as shutdown.
func (l *WSLogger) LogLifecycle(ctx context.Context, event string, fields map[string]interface{}) {
	attrs := []any{
		slog.String("hub", l.hubName),
		slog.String("event", event),
	}
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	l.logger.InfoContext(ctx, "websocket lifecycle", attrs...)
}
