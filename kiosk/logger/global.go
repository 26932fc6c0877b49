package logger

import (
	"log/slog"
	"time"
)

// LogJob logs background reconciliation job runs
func LogJob(job string, dropID string, duration time.Duration, err error) {
	attrs := []any{
		slog.String("type", "job"),
		slog.String("job", job),
		slog.String("drop_id", dropID),
		slog.Duration("took", duration),
	}

	if err != nil {
		slog.Error("Job failed", append(attrs, slog.Any("error", err))...)
	} else {
		slog.Info("Job finished", attrs...)
	}
}

// LogSystem logs system events
func LogSystem(msg string, attrs ...any) {
	baseAttrs := []any{slog.String("type", "sys")}
	slog.Info(msg, append(baseAttrs, attrs...)...)
}

// LogError logs error events
func LogError(msg string, err error, attrs ...any) {
	baseAttrs := []any{
		slog.String("type", "error"),
		slog.Any("error", err),
	}
	slog.Error(msg, append(baseAttrs, attrs...)...)
}
