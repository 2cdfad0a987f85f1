// Package observability provides logging, metrics and tracing for nodegraph.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// NewLogger builds a logger writing to w. level is one of debug, info, warn,
// error; format is text or json.
func NewLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format: %s", format)
	}
}

// ParseLevel converts a level name to a slog.Level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %s", level)
	}
}

// EnrichLogger adds the editor session id to a logger.
func EnrichLogger(logger *slog.Logger, sessionID string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(slog.String("session_id", sessionID))
}

// LogNodeCreated logs node creation.
func LogNodeCreated(logger *slog.Logger, nodeID uint64, template string) {
	if logger == nil {
		return
	}
	logger.Debug("node created",
		slog.Uint64("node_id", nodeID),
		slog.String("template", template),
	)
}

// LogNodeRemoved logs node removal.
func LogNodeRemoved(logger *slog.Logger, nodeID uint64) {
	if logger == nil {
		return
	}
	logger.Debug("node removed",
		slog.Uint64("node_id", nodeID),
	)
}

// LogConnected logs a new or replaced edge.
func LogConnected(logger *slog.Logger, from, to uint64, slot int) {
	if logger == nil {
		return
	}
	logger.Debug("nodes connected",
		slog.Uint64("from", from),
		slog.Uint64("to", to),
		slog.Int("slot", slot),
	)
}

// LogDisconnected logs a cleared input slot.
func LogDisconnected(logger *slog.Logger, to uint64, slot int) {
	if logger == nil {
		return
	}
	logger.Debug("slot disconnected",
		slog.Uint64("to", to),
		slog.Int("slot", slot),
	)
}

// LogConnectRejected logs a refused connection.
func LogConnectRejected(logger *slog.Logger, from, to uint64, slot int, err error) {
	if logger == nil {
		return
	}
	logger.Warn("connection rejected",
		slog.Uint64("from", from),
		slog.Uint64("to", to),
		slog.Int("slot", slot),
		slog.String("error", err.Error()),
	)
}

// LogParseFallback logs literal text that did not parse as the slot kind.
func LogParseFallback(logger *slog.Logger, nodeID uint64, slot int, text string) {
	if logger == nil {
		return
	}
	logger.Warn("literal did not parse, using zero value",
		slog.Uint64("node_id", nodeID),
		slog.Int("slot", slot),
		slog.String("text", text),
	)
}

// LogEvaluated logs a completed evaluation.
func LogEvaluated(logger *slog.Logger, nodeID uint64, durationMs float64, transforms int) {
	if logger == nil {
		return
	}
	logger.Debug("node evaluated",
		slog.Uint64("node_id", nodeID),
		slog.Float64("duration_ms", durationMs),
		slog.Int("transforms", transforms),
	)
}

// LogPersisted logs a saved snapshot.
func LogPersisted(logger *slog.Logger, name string, sizeBytes int) {
	if logger == nil {
		return
	}
	logger.Debug("snapshot saved",
		slog.String("name", name),
		slog.Int("size_bytes", sizeBytes),
	)
}

// LogRestored logs a loaded snapshot.
func LogRestored(logger *slog.Logger, name string, nodeCount int) {
	if logger == nil {
		return
	}
	logger.Info("snapshot restored",
		slog.String("name", name),
		slog.Int("nodes", nodeCount),
	)
}

// LogPersistError logs a failed save (non-fatal for auto-persist).
func LogPersistError(logger *slog.Logger, name, op string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("snapshot save failed",
		slog.String("name", name),
		slog.String("operation", op),
		slog.String("error", err.Error()),
	)
}

// LogRestoreFallback logs a restore that fell back to an empty graph.
func LogRestoreFallback(logger *slog.Logger, name string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("snapshot restore failed, starting with an empty graph",
		slog.String("name", name),
		slog.String("error", err.Error()),
	)
}
