package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig `env:",prefix=SERVER_"`

	// Database configuration
	Database DatabaseConfig `env:",prefix=DB_"`

	// Application configuration
	App AppConfig `env:",prefix=APP_"`

	// Certificate export configuration
	Export ExportConfig `env:",prefix=EXPORT_"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port         string `env:"PORT,default=8080"`
	Host         string `env:"HOST,default=0.0.0.0"`
	ReadTimeout  int    `env:"READ_TIMEOUT,default=30"`  // seconds
	WriteTimeout int    `env:"WRITE_TIMEOUT,default=30"` // seconds
}

// DatabaseConfig holds storage configuration. Driver is "postgres" or "sqlite3".
type DatabaseConfig struct {
	Driver     string `env:"DRIVER,default=postgres"`
	Host       string `env:"HOST,default=localhost"`
	Port       string `env:"PORT,default=5432"`
	User       string `env:"USER,default=postgres"`
	Password   string `env:"PASSWORD,default=postgres"`
	Name       string `env:"NAME,default=training"`
	SSLMode    string `env:"SSL_MODE,default=disable"`
	SQLitePath string `env:"SQLITE_PATH,default=training.db"`
	MaxConns   int    `env:"MAX_CONNS,default=25"`
	MinConns   int    `env:"MIN_CONNS,default=5"`
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	Environment string `env:"ENVIRONMENT,default=development"`
	LogLevel    string `env:"LOG_LEVEL,default=info"`
	Debug       bool   `env:"DEBUG,default=false"`

	// TimeZone is the reference zone calendar days are evaluated in when a
	// program does not configure its own.
	TimeZone string `env:"TIME_ZONE,default=UTC"`

	// StorageTimeout bounds every storage round trip of a request.
	StorageTimeout time.Duration `env:"STORAGE_TIMEOUT,default=5s"`

	// MaxScheduleDays is the most days a program schedule may cover.
	MaxScheduleDays int `env:"MAX_SCHEDULE_DAYS,default=366"`
}

// ExportConfig points at the external certificate renderer.
type ExportConfig struct {
	RendererURL string        `env:"RENDERER_URL"`
	Timeout     time.Duration `env:"TIMEOUT,default=15s"`
}

// Load loads configuration from environment variables, after applying an
// optional .env file from the working directory.
func Load(ctx context.Context) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}
	return Process(ctx, envconfig.OsLookuper())
}

// Process builds the configuration from an explicit lookuper.
func Process(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}
	if _, err := cfg.App.Location(); err != nil {
		return nil, err
	}
	if cfg.App.MaxScheduleDays < 1 {
		return nil, fmt.Errorf("invalid APP_MAX_SCHEDULE_DAYS %d: must be at least 1", cfg.App.MaxScheduleDays)
	}
	return &cfg, nil
}

// GetDatabaseURL returns the data source name for the configured driver
func (c *DatabaseConfig) GetDatabaseURL() string {
	if c.Driver == "sqlite3" {
		return fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on", c.SQLitePath)
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// GetServerAddr returns the server address
func (c *ServerConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsProduction reports whether logs should be emitted as JSON.
func (c *AppConfig) IsProduction() bool {
	return c.Environment == "production"
}

// Location resolves the reference time zone.
func (c *AppConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid APP_TIME_ZONE %q: %w", c.TimeZone, err)
	}
	return loc, nil
}

// SlogLevel maps LogLevel to a slog level; unknown values mean info.
func (c *AppConfig) SlogLevel() slog.Level {
	if c.Debug {
		return slog.LevelDebug
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
