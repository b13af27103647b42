package govgram

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config holds the entire config structure for the trainer and server
// binaries. The library itself never reads it; everything is passed in
// explicitly.
type Config struct {
	Stats  StatsConfig  `toml:"stats"`
	Index  IndexConfig  `toml:"index"`
	Redis  RedisConfig  `toml:"redis"`
	Server ServerConfig `toml:"server"`
}

// StatsConfig has statistics learning options.
type StatsConfig struct {
	MinQ          int     `toml:"min_q"`
	MaxQ          int     `toml:"max_q"`
	LimitRatio    float64 `toml:"limit_ratio"`
	Lossy         bool    `toml:"lossy"`
	TargetEntries int     `toml:"target_entries"`
}

// IndexConfig has posting index options.
type IndexConfig struct {
	MinQ int `toml:"min_q"`
	MaxQ int `toml:"max_q"`
}

// RedisConfig has the connection options for Redis backed storage.
type RedisConfig struct {
	URI string `toml:"uri"`
}

// ServerConfig has server related options.
type ServerConfig struct {
	Debug bool `toml:"debug"`
}

// DefaultConfig returns the builtin defaults: estimation-shaped statistics
// (1..MaxStatQ grams, exact counting) and extraction-shaped index q range.
func DefaultConfig() *Config {
	return &Config{
		Stats: StatsConfig{
			MinQ:          1,
			MaxQ:          MaxStatQ,
			LimitRatio:    DefaultLimitRatio,
			Lossy:         false,
			TargetEntries: 1000,
		},
		Index: IndexConfig{
			MinQ: DefaultMinQ,
			MaxQ: DefaultMaxQ,
		},
		Redis: RedisConfig{
			URI: "redis://127.0.0.1:6379",
		},
	}
}

// LoadConfig reads the TOML file at _path_ over the defaults. A missing file
// yields the defaults; a file that fails to parse yields the defaults and an
// error, so callers can warn and keep going.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config, nil
	}
	if _, err := toml.DecodeFile(path, config); err != nil {
		return DefaultConfig(), fmt.Errorf("govgram: error parsing config file %s, error: %v", path, err)
	}
	return config, nil
}

// SaveConfig writes _config_ to _path_ as TOML.
func SaveConfig(config *Config, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("govgram: error creating config file %s, error: %v", path, err)
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(config); err != nil {
		return fmt.Errorf("govgram: error writing config file %s, error: %v", path, err)
	}
	return nil
}
