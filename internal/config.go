package internal

import (
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Storage backends.
const (
	BackendSupabase = "supabase"
	BackendSQLite   = "sqlite"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Store   StoreConfig       `yaml:"store"`
	History HistoryConfig     `yaml:"history"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Store.Validate(); err != nil {
		return err
	}
	return c.History.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// StoreConfig selects and configures the row-store backend.
//
// Backend controls where entries live:
//   - "supabase" (default): hosted PostgREST row store; URL and ServiceKey
//     must be non-empty.
//   - "sqlite": local database file; Path must be non-empty.
type StoreConfig struct {
	Backend      string `yaml:"backend"`
	URL          string `yaml:"url"`
	ServiceKey   string `yaml:"service_key"`
	ThingsTable  string `yaml:"things_table"`
	EntriesTable string `yaml:"entries_table"`
	Path         string `yaml:"path"`
}

// Validate validates the store configuration. Missing credentials fail here,
// at startup, rather than on the first request.
func (c *StoreConfig) Validate() error {
	if c.Backend == "" {
		c.Backend = BackendSupabase
	}
	if c.ThingsTable == "" {
		c.ThingsTable = "things_to_track"
	}
	if c.EntriesTable == "" {
		c.EntriesTable = "tracking_entries"
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Backend, validation.Required, validation.In(BackendSupabase, BackendSQLite)),
	); err != nil {
		return err
	}
	switch c.Backend {
	case BackendSupabase:
		if c.URL == "" || c.ServiceKey == "" {
			return fmt.Errorf("store: backend is %q but url or service_key is empty", BackendSupabase)
		}
	case BackendSQLite:
		if c.Path == "" {
			return fmt.Errorf("store: backend is %q but path is empty", BackendSQLite)
		}
	}
	return nil
}

// HistoryConfig holds rollup window configuration.
type HistoryConfig struct {
	// Lookback is the default number of days in a global snapshot's
	// history window when the client does not ask for one.
	Lookback int `yaml:"lookback"`
}

// Validate validates the history configuration.
func (c *HistoryConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Lookback, validation.Required, validation.Min(1)),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 4100,
			},
		},
		Store: StoreConfig{
			Backend:      BackendSupabase,
			ThingsTable:  "things_to_track",
			EntriesTable: "tracking_entries",
		},
		History: HistoryConfig{
			Lookback: 30,
		},
	}
}
