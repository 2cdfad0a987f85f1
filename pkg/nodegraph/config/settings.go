package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/randalmurphal/nodegraph/pkg/nodegraph/observability"
	"github.com/randalmurphal/nodegraph/pkg/nodegraph/snapshot"
)

// ErrInvalidSetting is wrapped by Validate for out-of-range option values.
var ErrInvalidSetting = errors.New("invalid setting")

// Default setting values.
const (
	DefaultStoreBackend    = "file"
	DefaultStorePath       = "."
	DefaultAutoPersistName = "auto_save.ane"
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "text"
	DefaultValueWidth      = 5
)

// Settings holds the resolved editor configuration.
//
// File layout (YAML shown, JSON uses the same keys):
//
//	store:
//	  backend: sqlite        # file | sqlite | memory
//	  path: ./graphs.db
//	autosave:
//	  enabled: true
//	  name: auto_save.ane
//	log:
//	  level: debug
//	  format: json
//	telemetry:
//	  metrics: true
//	  tracing: false
//	display:
//	  value_width: 5
type Settings struct {
	StoreBackend    string
	StorePath       string
	AutoPersist     bool
	AutoPersistName string
	LogLevel        string
	LogFormat       string
	Metrics         bool
	Tracing         bool
	// ValueWidth is how many characters of a literal a presentation layer
	// shows next to an unconnected slot.
	ValueWidth int
}

// DefaultSettings returns the settings used when no file is given.
func DefaultSettings() Settings {
	return Settings{
		StoreBackend:    DefaultStoreBackend,
		StorePath:       DefaultStorePath,
		AutoPersistName: DefaultAutoPersistName,
		LogLevel:        DefaultLogLevel,
		LogFormat:       DefaultLogFormat,
		ValueWidth:      DefaultValueWidth,
	}
}

// Settings resolves c over DefaultSettings.
func (c Config) Settings() Settings {
	d := DefaultSettings()

	store := c.Sub("store")
	autosave := c.Sub("autosave")
	log := c.Sub("log")
	telemetry := c.Sub("telemetry")
	display := c.Sub("display")

	s := Settings{
		StoreBackend:    store.String("backend", d.StoreBackend),
		StorePath:       store.String("path", d.StorePath),
		AutoPersist:     autosave.Bool("enabled", d.AutoPersist),
		AutoPersistName: autosave.String("name", d.AutoPersistName),
		LogLevel:        log.String("level", d.LogLevel),
		LogFormat:       log.String("format", d.LogFormat),
		Metrics:         telemetry.Bool("metrics", d.Metrics),
		Tracing:         telemetry.Bool("tracing", d.Tracing),
		ValueWidth:      display.Int("value_width", d.ValueWidth),
	}
	if s.ValueWidth <= 0 {
		s.ValueWidth = d.ValueWidth
	}
	return s
}

// Validate checks the options that would otherwise fail late: the store
// backend against the names snapshot.Open accepts, the log level and format,
// and the auto-persist name when auto-persist is on.
func (s Settings) Validate() error {
	switch s.StoreBackend {
	case snapshot.BackendFile, snapshot.BackendSQLite, snapshot.BackendMemory:
	default:
		return fmt.Errorf("store.backend: %w: %q", snapshot.ErrUnknownBackend, s.StoreBackend)
	}
	if _, err := observability.ParseLevel(s.LogLevel); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch strings.ToLower(s.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format: %w: unknown log format %q", ErrInvalidSetting, s.LogFormat)
	}
	if s.AutoPersist && s.AutoPersistName == "" {
		return fmt.Errorf("autosave.name: %w: empty while autosave is enabled", ErrInvalidSetting)
	}
	return nil
}
