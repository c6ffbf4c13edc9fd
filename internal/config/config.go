package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is read when CONFIG_PATH is not set
const DefaultPath = "config/agriland.yaml"

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Search    SearchConfig    `yaml:"search"`
	Redis     RedisConfig     `yaml:"redis"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Workflow  WorkflowConfig  `yaml:"workflow"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port                   int      `yaml:"port"`
	Mode                   string   `yaml:"mode"` // gin mode: debug, release or test
	CORSOrigins            []string `yaml:"cors_origins"`
	ShutdownTimeoutSeconds int      `yaml:"shutdown_timeout_seconds"`
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	Driver      string         `yaml:"driver"` // postgres, mysql or sqlite
	AutoMigrate bool           `yaml:"auto_migrate"`
	Seed        bool           `yaml:"seed"`
	Postgres    PostgresConfig `yaml:"postgres"`
	MySQL       MySQLConfig    `yaml:"mysql"`
	SQLite      SQLiteConfig   `yaml:"sqlite"`
}

// PostgresConfig contains PostgreSQL connection settings
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
}

// MySQLConfig contains MySQL connection settings
type MySQLConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// SQLiteConfig contains the SQLite database file
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// SearchConfig contains search engine settings
type SearchConfig struct {
	Meilisearch MeilisearchConfig `yaml:"meilisearch"`
}

// MeilisearchConfig contains Meilisearch connection settings.
// An empty host disables the index.
type MeilisearchConfig struct {
	Host   string `yaml:"host"`
	APIKey string `yaml:"api_key"`
	Index  string `yaml:"index"`
}

// RedisConfig contains Redis connection settings.
// An empty address selects the in-memory rate limiter.
type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// RateLimitConfig limits the public soil-analysis intake
type RateLimitConfig struct {
	Enabled       bool `yaml:"enabled"`
	Requests      int  `yaml:"requests"`
	WindowSeconds int  `yaml:"window_seconds"`
}

// SchedulerConfig contains the cron specs of the background jobs.
// An empty spec disables the job.
type SchedulerConfig struct {
	Enabled          bool   `yaml:"enabled"`
	ReindexSpec      string `yaml:"reindex_spec"`
	OrphanSweepSpec  string `yaml:"orphan_sweep_spec"`
	OverdueSpec      string `yaml:"overdue_spec"`
	LimiterSweepSpec string `yaml:"limiter_sweep_spec"`
}

// WorkflowConfig toggles workflow side effects
type WorkflowConfig struct {
	AutoRequestOnListing bool `yaml:"auto_request_on_listing"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or text
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:                   8080,
			Mode:                   "release",
			CORSOrigins:            []string{"http://localhost:3000"},
			ShutdownTimeoutSeconds: 10,
		},
		Database: DatabaseConfig{
			Driver:      "sqlite",
			AutoMigrate: true,
			Postgres: PostgresConfig{
				Host:     "localhost",
				Port:     5432,
				User:     "agriland",
				Database: "agriland",
				SSLMode:  "disable",
			},
			MySQL: MySQLConfig{
				Host:     "localhost",
				Port:     3306,
				User:     "agriland",
				Database: "agriland",
			},
			SQLite: SQLiteConfig{Path: "agriland.db"},
		},
		Search: SearchConfig{
			Meilisearch: MeilisearchConfig{Index: "lands"},
		},
		RateLimit: RateLimitConfig{
			Enabled:       true,
			Requests:      10,
			WindowSeconds: 3600,
		},
		Scheduler: SchedulerConfig{
			Enabled:          true,
			ReindexSpec:      "0 3 * * *",
			OrphanSweepSpec:  "0 * * * *",
			OverdueSpec:      "0 7 * * *",
			LimiterSweepSpec: "*/10 * * * *",
		},
		Workflow: WorkflowConfig{AutoRequestOnListing: true},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadConfig loads configuration from a YAML file, then applies the
// environment (including a .env file in the working directory) on top
func LoadConfig(filepath string) (*Config, error) {
	// Start with default config
	config := DefaultConfig()

	// A missing .env is normal outside local development
	_ = godotenv.Load()

	if _, err := os.Stat(filepath); err == nil {
		data, err := os.ReadFile(filepath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}

	if err := config.applyEnv(); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// applyEnv overrides file values with the deployment environment
func (c *Config) applyEnv() error {
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("GIN_MODE"); v != "" {
		c.Server.Mode = v
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.Server.CORSOrigins = splitList(v)
	}

	if v := os.Getenv("DB_DRIVER"); v != "" {
		c.Database.Driver = strings.ToLower(v)
	}
	switch c.Database.Driver {
	case "postgres":
		if err := applyConnEnv(&c.Database.Postgres.Host, &c.Database.Postgres.Port, &c.Database.Postgres.User,
			&c.Database.Postgres.Password, &c.Database.Postgres.Database); err != nil {
			return err
		}
		if v := os.Getenv("DB_SSLMODE"); v != "" {
			c.Database.Postgres.SSLMode = v
		}
	case "mysql":
		if err := applyConnEnv(&c.Database.MySQL.Host, &c.Database.MySQL.Port, &c.Database.MySQL.User,
			&c.Database.MySQL.Password, &c.Database.MySQL.Database); err != nil {
			return err
		}
	case "sqlite":
		if v := os.Getenv("SQLITE_PATH"); v != "" {
			c.Database.SQLite.Path = v
		}
	}
	if v := os.Getenv("DB_SEED"); v != "" {
		c.Database.Seed = v == "true" || v == "1"
	}

	if v := os.Getenv("MEILISEARCH_HOST"); v != "" {
		c.Search.Meilisearch.Host = v
	}
	if v := os.Getenv("MEILISEARCH_KEY"); v != "" {
		c.Search.Meilisearch.APIKey = v
	}
	if v := os.Getenv("REDIS_ADDRESS"); v != "" {
		c.Redis.Address = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.Logging.Format = strings.ToLower(v)
	}
	return nil
}

func applyConnEnv(host *string, port *int, user, password, database *string) error {
	if v := os.Getenv("DB_HOST"); v != "" {
		*host = v
	}
	if v := os.Getenv("DB_PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid DB_PORT %q: %w", v, err)
		}
		*port = p
	}
	if v := os.Getenv("DB_USER"); v != "" {
		*user = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		*password = v
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		*database = v
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate rejects settings the server cannot start with
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "mysql", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q (expected postgres, mysql or sqlite)", c.Database.Driver)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.RateLimit.Enabled && (c.RateLimit.Requests <= 0 || c.RateLimit.WindowSeconds <= 0) {
		return fmt.Errorf("rate_limit requests and window_seconds must be positive")
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("unsupported log format %q (expected json or text)", c.Logging.Format)
	}
	return nil
}

// GetRateLimitWindow returns the rate limit window as a duration
func (c *RateLimitConfig) GetRateLimitWindow() time.Duration {
	return time.Duration(c.WindowSeconds) * time.Second
}

// GetShutdownTimeout returns the graceful shutdown timeout as a duration
func (c *ServerConfig) GetShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}
