package nodegraph

import (
	"log/slog"

	"github.com/randalmurphal/nodegraph/pkg/nodegraph/snapshot"
)

// DefaultAutoPersistName is the snapshot name auto-persist writes to.
const DefaultAutoPersistName = "auto_save.ane"

// editorConfig holds the settings NewEditor applies.
type editorConfig struct {
	catalog         *Catalog
	store           snapshot.Store
	logger          *slog.Logger
	metrics         bool
	tracing         bool
	sessionID       string
	autoPersist     bool
	autoPersistName string
}

func defaultEditorConfig() editorConfig {
	return editorConfig{
		autoPersistName: DefaultAutoPersistName,
	}
}

// Option configures an Editor.
type Option func(*editorConfig)

// WithCatalog sets the template catalog.
// Default: DefaultCatalog()
func WithCatalog(c *Catalog) Option {
	return func(cfg *editorConfig) {
		cfg.catalog = c
	}
}

// WithStore sets where Persist and Restore read and write snapshots.
// Default: a FileStore in the working directory.
//
// The editor closes the store in Close.
func WithStore(s snapshot.Store) Option {
	return func(cfg *editorConfig) {
		cfg.store = s
	}
}

// WithLogger sets the logger. The editor adds its session id to every
// record.
// Default: slog.Default()
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *editorConfig) {
		cfg.logger = logger
	}
}

// WithMetrics enables OpenTelemetry metrics on the global meter provider.
// Default: false
func WithMetrics(enabled bool) Option {
	return func(cfg *editorConfig) {
		cfg.metrics = enabled
	}
}

// WithTracing enables OpenTelemetry spans for Evaluate, Persist and Restore.
// Default: false
func WithTracing(enabled bool) Option {
	return func(cfg *editorConfig) {
		cfg.tracing = enabled
	}
}

// WithSessionID sets the session identifier used in logs and snapshots.
// If not set, a UUID is generated.
func WithSessionID(id string) Option {
	return func(cfg *editorConfig) {
		cfg.sessionID = id
	}
}

// WithAutoPersist turns auto-persist on or off at construction.
// Default: false
func WithAutoPersist(enabled bool) Option {
	return func(cfg *editorConfig) {
		cfg.autoPersist = enabled
	}
}

// WithAutoPersistName sets the snapshot name auto-persist writes to.
// Empty names are ignored.
// Default: DefaultAutoPersistName
func WithAutoPersistName(name string) Option {
	return func(cfg *editorConfig) {
		if name != "" {
			cfg.autoPersistName = name
		}
	}
}
