// Package config loads the optional TOML configuration of registry-server.
// Command-line flags that are set explicitly take precedence over the file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds the complete server configuration
type Config struct {
	Registry RegistryConfig `toml:"registry"`
	Server   ServerConfig   `toml:"server"`
	Chain    ChainConfig    `toml:"chain"`
	Log      LogConfig      `toml:"log"`
}

// RegistryConfig holds the operator identity and the storage locations
type RegistryConfig struct {
	Operator string   `toml:"operator"`
	Stores   []string `toml:"stores"`
}

// ServerConfig holds HTTP listener settings
type ServerConfig struct {
	ListenAddr       string   `toml:"listen_addr"`
	MetricsAddr      string   `toml:"metrics_addr"`
	MetricsNamespace string   `toml:"metrics_namespace"`
	Pprof            bool     `toml:"pprof"`
	DrainDuration    Duration `toml:"drain_duration"`
	ShutdownTimeout  Duration `toml:"shutdown_timeout"`
	ReadTimeout      Duration `toml:"read_timeout"`
	WriteTimeout     Duration `toml:"write_timeout"`
	MaxClockSkew     Duration `toml:"max_clock_skew"`
}

// ChainConfig holds settings for onchain:// stores
type ChainConfig struct {
	RPCAddr     string `toml:"rpc_addr"`
	ContractKey string `toml:"contract_key"`
}

// LogConfig holds logging settings
type LogConfig struct {
	JSON    bool   `toml:"json"`
	Debug   bool   `toml:"debug"`
	UID     bool   `toml:"uid"`
	Service string `toml:"service"`
}

// Duration wraps time.Duration for TOML strings such as "30s"
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText formats the duration
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Load reads the configuration file at path.
func Load(path string) (*Config, error) {
	path = os.ExpandEnv(path)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	cfg := Default()
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown config keys: %v", undecoded)
	}

	cfg.expandEnvVars()
	return cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Registry: RegistryConfig{
			Stores: []string{"memory://"},
		},
		Server: ServerConfig{
			ListenAddr:      "127.0.0.1:8080",
			MetricsAddr:     "127.0.0.1:8090",
			DrainDuration:   Duration{45 * time.Second},
			ShutdownTimeout: Duration{30 * time.Second},
			ReadTimeout:     Duration{60 * time.Second},
			WriteTimeout:    Duration{30 * time.Second},
			MaxClockSkew:    Duration{5 * time.Minute},
		},
		Chain: ChainConfig{
			RPCAddr: "http://127.0.0.1:8545",
		},
		Log: LogConfig{
			Service: "operator-account-registry",
		},
	}
}

// expandEnvVars lets secrets live in the environment, e.g. contract_key = "${REGISTRY_CONTRACT_KEY}".
func (c *Config) expandEnvVars() {
	c.Registry.Operator = os.ExpandEnv(c.Registry.Operator)
	c.Chain.ContractKey = os.ExpandEnv(c.Chain.ContractKey)
	for i, store := range c.Registry.Stores {
		c.Registry.Stores[i] = os.ExpandEnv(store)
	}
}
