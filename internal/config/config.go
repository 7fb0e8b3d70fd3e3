package config

import "time"

// Store drivers.
const (
	DriverSQLite = "sqlite"
	DriverScript = "script"
	DriverSheets = "sheets"
)

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`
	LogFormat         string        `mapstructure:"log_format" yaml:"log_format"`

	// PublicBaseURL and SharePath build the links encoded in gift QR codes.
	PublicBaseURL string `mapstructure:"public_base_url" yaml:"public_base_url"`
	SharePath     string `mapstructure:"share_path" yaml:"share_path"`

	Store StoreConfig `mapstructure:"store" yaml:"store"`
}

// StoreConfig selects and configures the persistence backend.
type StoreConfig struct {
	Driver  string        `mapstructure:"driver" yaml:"driver"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`

	SQLitePath string `mapstructure:"sqlite_path" yaml:"sqlite_path"`

	// ScriptURL is the Apps Script web app deployment URL.
	ScriptURL string `mapstructure:"script_url" yaml:"script_url"`

	SheetsCredentialsPath string `mapstructure:"sheets_credentials_path" yaml:"sheets_credentials_path"`
	SpreadsheetID         string `mapstructure:"spreadsheet_id" yaml:"spreadsheet_id"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
		LogFormat:         "console",
		PublicBaseURL:     "http://localhost:3000",
		SharePath:         "/loi-chuc",
		Store: StoreConfig{
			Driver:     DriverSQLite,
			Timeout:    10 * time.Second,
			SQLitePath: "tramcham.db",
		},
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.LogFormat != "" {
		c.LogFormat = other.LogFormat
	}
	if other.PublicBaseURL != "" {
		c.PublicBaseURL = other.PublicBaseURL
	}
	if other.SharePath != "" {
		c.SharePath = other.SharePath
	}
	if other.Store.Driver != "" {
		c.Store.Driver = other.Store.Driver
	}
	if other.Store.Timeout != 0 {
		c.Store.Timeout = other.Store.Timeout
	}
	if other.Store.SQLitePath != "" {
		c.Store.SQLitePath = other.Store.SQLitePath
	}
	if other.Store.ScriptURL != "" {
		c.Store.ScriptURL = other.Store.ScriptURL
	}
	if other.Store.SheetsCredentialsPath != "" {
		c.Store.SheetsCredentialsPath = other.Store.SheetsCredentialsPath
	}
	if other.Store.SpreadsheetID != "" {
		c.Store.SpreadsheetID = other.Store.SpreadsheetID
	}
}
