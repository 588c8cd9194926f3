// Package config loads the repository-level configuration: the metadata
// store connection, the hydration cache sizing, and logging verbosity.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/antgroup/linage/modules/streamio"
	"github.com/go-sql-driver/mysql"
)

// Duration wraps time.Duration so it can be parsed from a TOML string like
// "30s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// Database configures the MetadataStore's MySQL connection.
type Database struct {
	Name    string   `toml:"name"`
	User    string   `toml:"user"`
	Host    string   `toml:"host"`
	Port    int      `toml:"port"`
	Passwd  string   `toml:"passwd"`
	Timeout Duration `toml:"timeout,omitempty"`
}

const maxAllowedPacket = 16 << 20

// DSN builds a go-sql-driver/mysql configuration from the Database section.
func (d *Database) DSN() *mysql.Config {
	timeout := d.Timeout.Duration
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	cfg := mysql.NewConfig()
	cfg.User = d.User
	cfg.Passwd = d.Passwd
	cfg.DBName = d.Name
	cfg.Net = "tcp"
	cfg.Addr = d.Host + ":" + strconv.Itoa(d.Port)
	cfg.Timeout = timeout
	cfg.ReadTimeout = timeout
	cfg.WriteTimeout = timeout
	cfg.ParseTime = true
	cfg.InterpolateParams = true
	cfg.MaxAllowedPacket = maxAllowedPacket
	return cfg
}

// Cache sizes the GraphService's commit-hydration cache.
type Cache struct {
	NumCounters int64 `toml:"num_counters"`
	MaxCost     int64 `toml:"max_cost"`
	BufferItems int64 `toml:"buffer_items"`
}

// Config is the full repository configuration, typically loaded from
// <root>/.linage/config.toml.
type Config struct {
	HashAlgorithm string   `toml:"hash_algorithm"`
	LogLevel      string   `toml:"log_level"`
	ScanWorkers   int      `toml:"scan_workers"`
	Database      Database `toml:"database"`
	Cache         Cache    `toml:"cache"`
}

// Default returns a Config with sane defaults for a freshly initialized
// repository.
func Default() Config {
	return Config{
		HashAlgorithm: "SHA256",
		LogLevel:      "info",
		ScanWorkers:   0,
		Cache: Cache{
			NumCounters: 1e6,
			MaxCost:     1 << 26,
			BufferItems: 64,
		},
	}
}

const maxConfigSize = 4 << 20

// Load reads and parses a TOML config file at path, expanding ${VAR}
// environment references before parsing.
func Load(path string) (Config, error) {
	cfg := Default()
	f, err := os.Open(path)
	if err != nil {
		return cfg, err
	}
	defer f.Close()

	raw, err := streamio.GrowReadMax(f, maxConfigSize, 4096)
	if err != nil {
		return cfg, err
	}
	expanded := os.ExpandEnv(string(raw))
	if _, err := toml.Decode(expanded, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// TrimmedHashAlgorithm normalizes the configured algorithm name for
// comparison (trims whitespace, case-insensitive callers upper-case it
// themselves via Hasher's own switch).
func (c Config) TrimmedHashAlgorithm() string {
	return strings.TrimSpace(c.HashAlgorithm)
}
