package postgres

import "time"

// Ledger pool defaults. A client writes one row per exchange, so the pool
// stays small and may drain to zero between bursts.
const (
	DefaultMaxConns        int32 = 4
	DefaultConnLifetime          = 30 * time.Minute
	DefaultApplicationName       = "chatwire"
)

// Config configures the usage ledger connection.
type Config struct {
	// DSN is a pgx connection string or URL.
	DSN string

	// MaxConns caps the pool size.
	MaxConns int32

	// MinConns keeps idle connections open. Zero lets the pool drain.
	MinConns int32

	// MaxConnLifetime recycles connections after this long.
	MaxConnLifetime time.Duration

	// ApplicationName is reported to the server as application_name.
	ApplicationName string

	// MigrateOnStart creates the usage table when missing.
	MigrateOnStart bool
}

func (c *Config) defaults() {
	if c.MaxConns <= 0 {
		c.MaxConns = DefaultMaxConns
	}
	if c.MinConns > c.MaxConns {
		c.MinConns = c.MaxConns
	}
	if c.MaxConnLifetime <= 0 {
		c.MaxConnLifetime = DefaultConnLifetime
	}
	if c.ApplicationName == "" {
		c.ApplicationName = DefaultApplicationName
	}
}
