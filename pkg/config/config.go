// Package config loads the nxctl YAML configuration and applies
// environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fbuehrmann/netxms/pkg/objcache"
	"github.com/fbuehrmann/netxms/pkg/protocol"
	"github.com/fbuehrmann/netxms/pkg/transport"
)

// Config holds the nxctl configuration.
type Config struct {
	Server       string `yaml:"server" json:"server"`
	LogLevel     string `yaml:"log_level" json:"log_level"`
	OutputFormat string `yaml:"output_format" json:"output_format"`
	MetricsAddr  string `yaml:"metrics_addr" json:"metrics_addr"`

	Transport Transport `yaml:"transport" json:"transport"`
	Codec     Codec     `yaml:"codec" json:"codec"`
	Cache     Cache     `yaml:"cache" json:"cache"`
}

type Transport struct {
	ReadBufferSize    int           `yaml:"read_buffer_size" json:"read_buffer_size"`
	ReconnectInterval time.Duration `yaml:"reconnect_interval" json:"reconnect_interval"`
	IdlePollInterval  time.Duration `yaml:"idle_poll_interval" json:"idle_poll_interval"`
	DialTimeout       time.Duration `yaml:"dial_timeout" json:"dial_timeout"`
	WriteTimeout      time.Duration `yaml:"write_timeout" json:"write_timeout"`
}

type Codec struct {
	MaxFrameSize      int `yaml:"max_frame_size" json:"max_frame_size"`
	CompressThreshold int `yaml:"compress_threshold" json:"compress_threshold"`
	CompressLevel     int `yaml:"compress_level" json:"compress_level"`
}

type Cache struct {
	Backend       string   `yaml:"backend" json:"backend"`
	EtcdEndpoints []string `yaml:"etcd_endpoints" json:"etcd_endpoints"`
	PostgresDSN   string   `yaml:"postgres_dsn" json:"postgres_dsn"`
}

// Environment variables read by ApplyEnv.
const (
	EnvServer        = "NXCTL_SERVER"
	EnvLogLevel      = "NXCTL_LOG_LEVEL"
	EnvCacheBackend  = "NXCTL_CACHE_BACKEND"
	EnvEtcdEndpoints = "NXCTL_ETCD_ENDPOINTS"
	EnvPostgresDSN   = "NXCTL_POSTGRES_DSN"
)

// Default returns the configuration used when no file exists.
func Default() *Config {
	tc := transport.DefaultConfig()
	return &Config{
		Server:       "tcp://localhost:" + transport.DefaultPort,
		LogLevel:     "info",
		OutputFormat: "table",
		Transport: Transport{
			ReadBufferSize:    tc.ReadBufferSize,
			ReconnectInterval: tc.ReconnectInterval,
			IdlePollInterval:  tc.IdlePollInterval,
			DialTimeout:       5 * time.Second,
			WriteTimeout:      tc.WriteTimeout,
		},
		Codec: Codec{
			MaxFrameSize: protocol.DefaultMaxFrameSize,
		},
		Cache: Cache{Backend: objcache.BackendNone},
	}
}

// DefaultPath returns the default config file path: ~/.nxctl/config.yaml
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".nxctl", "config.yaml")
	}
	return filepath.Join(home, ".nxctl", "config.yaml")
}

// Load reads the configuration from the given YAML file path.
// If the file does not exist, it returns Default() with no error. Keys
// missing from the file keep their defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	// The file may hold a database DSN with a password.
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if perm := info.Mode().Perm(); perm&0o077 != 0 {
		fmt.Fprintf(os.Stderr,
			"warning: config file %s has permissions %04o, expected 0600. "+
				"Cache credentials may be exposed to other users.\n",
			path, perm)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from the environment. getenv is os.Getenv in
// production.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvServer); v != "" {
		c.Server = v
	}
	if v := getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := getenv(EnvCacheBackend); v != "" {
		c.Cache.Backend = v
	}
	if v := getenv(EnvEtcdEndpoints); v != "" {
		var eps []string
		for _, ep := range strings.Split(v, ",") {
			if ep = strings.TrimSpace(ep); ep != "" {
				eps = append(eps, ep)
			}
		}
		c.Cache.EtcdEndpoints = eps
	}
	if v := getenv(EnvPostgresDSN); v != "" {
		c.Cache.PostgresDSN = v
	}
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	if _, err := transport.ParseEndpoint(c.Server); err != nil {
		return fmt.Errorf("config: server: %w", err)
	}
	switch strings.ToLower(c.OutputFormat) {
	case "", "table", "json", "yaml":
	default:
		return fmt.Errorf("config: unknown output format %q", c.OutputFormat)
	}
	switch c.Cache.Backend {
	case "", objcache.BackendNone, objcache.BackendEtcd, objcache.BackendPostgres:
	default:
		return fmt.Errorf("config: unknown cache backend %q", c.Cache.Backend)
	}
	if c.Codec.CompressLevel < -2 || c.Codec.CompressLevel > 9 {
		return fmt.Errorf("config: compress_level %d out of range", c.Codec.CompressLevel)
	}
	return nil
}

// TransportConfig returns the connector settings.
func (c *Config) TransportConfig() transport.Config {
	return transport.Config{
		ReadBufferSize:    c.Transport.ReadBufferSize,
		ReconnectInterval: c.Transport.ReconnectInterval,
		IdlePollInterval:  c.Transport.IdlePollInterval,
		WriteTimeout:      c.Transport.WriteTimeout,
	}
}

// ProtocolCodec returns the wire codec settings.
func (c *Config) ProtocolCodec() protocol.Codec {
	return protocol.Codec{
		MaxFrameSize:      c.Codec.MaxFrameSize,
		CompressThreshold: c.Codec.CompressThreshold,
		CompressLevel:     c.Codec.CompressLevel,
	}
}

// CacheConfig returns the object cache settings.
func (c *Config) CacheConfig() objcache.Config {
	return objcache.Config{
		Backend:       c.Cache.Backend,
		EtcdEndpoints: c.Cache.EtcdEndpoints,
		PostgresDSN:   c.Cache.PostgresDSN,
		DialTimeout:   c.Transport.DialTimeout,
	}
}
