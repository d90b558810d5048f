package journal

import (
	"fmt"
	"net/url"
	"time"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config contains journal database settings
type Config struct {
	// Enabled turns the journal on. When false the daemon records nothing.
	Enabled bool `mapstructure:"enabled"`

	// Database connection settings
	Driver           string `mapstructure:"driver"`
	ConnectionString string `mapstructure:"connection_string"`
	Host             string `mapstructure:"host"`
	Port             int    `mapstructure:"port"`
	Database         string `mapstructure:"database"`
	Username         string `mapstructure:"username"`
	Password         string `mapstructure:"password"`
	SSLMode          string `mapstructure:"ssl_mode"`

	// Connection pool settings
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`

	// DefaultTimeout bounds every statement issued by the journal.
	DefaultTimeout time.Duration `mapstructure:"default_timeout"`
}

// DefaultConfig returns a disabled SQLite journal next to the working directory
func DefaultConfig() Config {
	return Config{
		Driver:          DriverSQLite,
		Host:            "localhost",
		Port:            5432,
		Database:        "schedd-journal.db",
		SSLMode:         "prefer",
		MaxOpenConns:    1,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Hour,
		DefaultTimeout:  10 * time.Second,
	}
}

// SQLiteConfig returns an enabled SQLite journal at path
func SQLiteConfig(path string) Config {
	c := DefaultConfig()
	c.Enabled = true
	c.Database = path
	return c
}

// Validate checks the configuration for common errors
func (c *Config) Validate() error {
	switch c.Driver {
	case "sqlite", "sqlite3":
		c.Driver = DriverSQLite
	case "postgres", "postgresql":
		c.Driver = DriverPostgres
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedDriver, c.Driver)
	}

	if c.ConnectionString == "" {
		if c.Database == "" {
			return ErrMissingDatabase
		}
		if c.Driver == DriverPostgres {
			if c.Host == "" {
				return ErrMissingHost
			}
			if c.Port <= 0 || c.Port > 65535 {
				return ErrInvalidPort
			}
			switch c.SSLMode {
			case "disable", "allow", "prefer", "require", "verify-ca", "verify-full":
			default:
				return fmt.Errorf("invalid SSL mode: %s", c.SSLMode)
			}
		}
	}

	if c.MaxOpenConns < 0 || c.MaxIdleConns < 0 {
		return ErrInvalidPool
	}
	if c.MaxIdleConns > c.MaxOpenConns && c.MaxOpenConns > 0 {
		return ErrInvalidPool
	}
	if c.DefaultTimeout <= 0 {
		return ErrInvalidTimeout
	}
	return nil
}

// BuildConnectionString builds a connection string from the config
func (c *Config) BuildConnectionString() (string, error) {
	if c.ConnectionString != "" {
		return c.ConnectionString, nil
	}

	switch c.Driver {
	case DriverPostgres:
		u := url.URL{
			Scheme: "postgres",
			Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
			Path:   "/" + c.Database,
		}
		if c.Username != "" {
			if c.Password != "" {
				u.User = url.UserPassword(c.Username, c.Password)
			} else {
				u.User = url.User(c.Username)
			}
		}
		params := url.Values{}
		params.Set("sslmode", c.SSLMode)
		params.Set("application_name", "schedd-journal")
		u.RawQuery = params.Encode()
		return u.String(), nil
	case DriverSQLite:
		params := url.Values{}
		params.Add("_pragma", "journal_mode(WAL)")
		params.Add("_pragma", "synchronous(NORMAL)")
		params.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", c.DefaultTimeout.Milliseconds()))
		return "file:" + c.Database + "?" + params.Encode(), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedDriver, c.Driver)
	}
}
