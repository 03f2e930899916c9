package store

import "time"

// Config holds all settings needed to connect to and pool a database.
type Config struct {
	// Driver is the database engine (DialectPostgres or DialectMySQL).
	Driver Dialect

	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string // postgres only; "disable" when empty

	// Pool tuning
	MaxConns        int32         // maximum number of connections in the pool
	MinConns        int32         // minimum number of idle connections kept alive
	MaxConnLifetime time.Duration // maximum time a connection may be reused
	MaxConnIdleTime time.Duration // maximum time a connection may sit idle

	// ConnectTimeout is the time limit for establishing a new connection.
	ConnectTimeout time.Duration
}

// DefaultConfig returns pool settings tuned for a read-heavy analytics workload.
func DefaultConfig() *Config {
	return &Config{
		Driver:          DialectPostgres,
		SSLMode:         "disable",
		MaxConns:        10,
		MinConns:        2,
		MaxConnLifetime: 30 * time.Minute,
		MaxConnIdleTime: 5 * time.Minute,
		ConnectTimeout:  10 * time.Second,
	}
}
