package config

import (
	"fmt"
	"time"

	"github.com/hns-tools/auctionwatch/internal/common"
	"github.com/hns-tools/auctionwatch/internal/logger"
)

// Config represents the complete configuration for the auction watcher.
type Config struct {
	// Node contains the chain node connection configuration
	Node NodeConfig `yaml:"node" json:"node" toml:"node"`

	// Store contains the index store configuration
	Store StoreConfig `yaml:"store" json:"store" toml:"store"`

	// Watcher contains the block classifier configuration
	Watcher WatcherConfig `yaml:"watcher" json:"watcher" toml:"watcher"`

	// Events contains the event fan-out configuration
	Events EventsConfig `yaml:"events" json:"events" toml:"events"`

	// API contains the HTTP API configuration
	API *APIConfig `yaml:"api,omitempty" json:"api,omitempty" toml:"api,omitempty"`

	// Logging contains logging configuration
	Logging *LoggingConfig `yaml:"logging,omitempty" json:"logging,omitempty" toml:"logging,omitempty"`

	// Metrics contains Prometheus metrics configuration
	Metrics *MetricsConfig `yaml:"metrics,omitempty" json:"metrics,omitempty" toml:"metrics,omitempty"`
}

// NodeConfig represents the connection to the host chain node.
type NodeConfig struct {
	// RPCURL is the node JSON-RPC endpoint for name state and coin lookups
	RPCURL string `yaml:"rpc_url" json:"rpc_url" toml:"rpc_url"`

	// WSURL is the node websocket endpoint delivering block notifications
	WSURL string `yaml:"ws_url" json:"ws_url" toml:"ws_url"`

	// APIKey is the node API key, sent as basic-auth password
	APIKey string `yaml:"api_key" json:"api_key" toml:"api_key"`

	// Retry contains RPC retry configuration with exponential backoff
	Retry *RetryConfig `yaml:"retry,omitempty" json:"retry,omitempty" toml:"retry,omitempty"`
}

// ApplyDefaults sets default values for optional node configuration fields.
func (n *NodeConfig) ApplyDefaults() {
	if n.Retry != nil {
		n.Retry.ApplyDefaults()
	}
}

// RetryConfig represents RPC retry configuration with exponential backoff.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including initial request)
	MaxAttempts int `yaml:"max_attempts" json:"max_attempts" toml:"max_attempts"`

	// InitialBackoff is the initial backoff duration before first retry
	InitialBackoff common.Duration `yaml:"initial_backoff" json:"initial_backoff" toml:"initial_backoff"`

	// MaxBackoff is the maximum backoff duration
	MaxBackoff common.Duration `yaml:"max_backoff" json:"max_backoff" toml:"max_backoff"`

	// BackoffMultiplier is the multiplier for exponential backoff
	BackoffMultiplier float64 `yaml:"backoff_multiplier" json:"backoff_multiplier" toml:"backoff_multiplier"`
}

// ApplyDefaults sets default values for retry configuration.
func (r *RetryConfig) ApplyDefaults() {
	if r.MaxAttempts == 0 {
		r.MaxAttempts = 5
	}
	if r.InitialBackoff.Duration == 0 {
		r.InitialBackoff = common.NewDuration(1 * time.Second)
	}
	if r.MaxBackoff.Duration == 0 {
		r.MaxBackoff = common.NewDuration(30 * time.Second)
	}
	if r.BackoffMultiplier == 0 {
		r.BackoffMultiplier = 2.0
	}
}

// StoreConfig represents the index store configuration.
type StoreConfig struct {
	// Path is the directory holding the leveldb database
	Path string `yaml:"path" json:"path" toml:"path"`
}

// WatcherConfig represents the block classifier configuration.
type WatcherConfig struct {
	// BigSpendThreshold is the minimum value (in base units) for a plain
	// output to be reported as a big spend; 0 disables big-spend events
	BigSpendThreshold uint64 `yaml:"big_spend_threshold" json:"big_spend_threshold" toml:"big_spend_threshold"`
}

// EventsConfig represents the event fan-out configuration.
type EventsConfig struct {
	// Secret is the shared secret consumers must present to subscribe
	Secret string `yaml:"secret" json:"secret" toml:"secret"`

	// SubscriberBuffer is the per-subscriber delivery queue depth;
	// events beyond it are dropped rather than blocking the indexer
	SubscriberBuffer int `yaml:"subscriber_buffer" json:"subscriber_buffer" toml:"subscriber_buffer"`
}

// ApplyDefaults sets default values for optional events configuration fields.
func (e *EventsConfig) ApplyDefaults() {
	if e.SubscriberBuffer == 0 {
		e.SubscriberBuffer = 64
	}
}

// CORSConfig configures cross-origin resource sharing for the API.
type CORSConfig struct {
	// Enabled controls whether CORS headers are emitted
	Enabled bool `yaml:"enabled" json:"enabled" toml:"enabled"`

	// AllowedOrigins is the list of origins allowed to call the API
	AllowedOrigins []string `yaml:"allowed_origins" json:"allowed_origins" toml:"allowed_origins"`
}

// APIConfig configures the HTTP query API and the websocket event feed.
type APIConfig struct {
	// Enabled controls whether the API server runs
	Enabled bool `yaml:"enabled" json:"enabled" toml:"enabled"`

	// ListenAddress is the address to bind the API server to
	ListenAddress string `yaml:"listen_address" json:"listen_address" toml:"listen_address"`

	// AdminToken guards the administrative wipe endpoint; empty disables it
	AdminToken string `yaml:"admin_token" json:"admin_token" toml:"admin_token"`

	// ReadTimeout is the maximum duration for reading a request
	ReadTimeout common.Duration `yaml:"read_timeout" json:"read_timeout" toml:"read_timeout"`

	// WriteTimeout is the maximum duration for writing a response
	WriteTimeout common.Duration `yaml:"write_timeout" json:"write_timeout" toml:"write_timeout"`

	// IdleTimeout is the maximum duration of an idle keep-alive connection
	IdleTimeout common.Duration `yaml:"idle_timeout" json:"idle_timeout" toml:"idle_timeout"`

	// CORS contains cross-origin settings
	CORS CORSConfig `yaml:"cors" json:"cors" toml:"cors"`
}

// ApplyDefaults sets default values for optional API configuration fields.
func (a *APIConfig) ApplyDefaults() {
	if a.ListenAddress == "" {
		a.ListenAddress = ":8080"
	}
	if a.ReadTimeout.Duration == 0 {
		a.ReadTimeout = common.NewDuration(10 * time.Second)
	}
	if a.WriteTimeout.Duration == 0 {
		a.WriteTimeout = common.NewDuration(10 * time.Second)
	}
	if a.IdleTimeout.Duration == 0 {
		a.IdleTimeout = common.NewDuration(60 * time.Second)
	}
}

// LoggingConfig configures logging behavior with per-component log levels.
type LoggingConfig struct {
	// DefaultLevel is the default log level for all components
	// Options: "debug", "info", "warn", "error"
	DefaultLevel string `yaml:"default_level" json:"default_level" toml:"default_level"`

	// Development enables development mode (stack traces, console encoder)
	Development bool `yaml:"development" json:"development" toml:"development"`

	// ComponentLevels sets log levels for specific components
	// Available components:
	//   - store: Index store
	//   - auction-index: Per-name bid/reveal records
	//   - classifier: Block classification
	//   - events: Event fan-out
	//   - node: Chain node client
	//   - api: HTTP API
	ComponentLevels map[string]string `yaml:"component_levels,omitempty" json:"component_levels,omitempty" toml:"component_levels,omitempty"` //nolint:lll
}

// ApplyDefaults sets default values for optional logging configuration fields.
func (l *LoggingConfig) ApplyDefaults() {
	if l.DefaultLevel == "" {
		l.DefaultLevel = "info"
	}
	if l.ComponentLevels == nil {
		l.ComponentLevels = make(map[string]string)
	}
}

// Validate checks if the logging configuration is valid.
func (l *LoggingConfig) Validate() error {
	if l.DefaultLevel != "" {
		if _, valid := logger.ValidLogLevels[common.ToLowerWithTrim(l.DefaultLevel)]; !valid {
			return fmt.Errorf("logging.default_level: must be one of: debug, info, warn, error")
		}
	}

	for component, level := range l.ComponentLevels {
		if _, validComponent := common.AllComponents[common.ToLowerWithTrim(component)]; !validComponent {
			return fmt.Errorf("logging.component_levels: unknown component '%s'", component)
		}

		if _, valid := logger.ValidLogLevels[common.ToLowerWithTrim(level)]; !valid {
			return fmt.Errorf("logging.component_levels[%s]: must be one of: debug, info, warn, error", component)
		}
	}

	return nil
}

// GetComponentLevel returns the log level for a specific component.
// Falls back to DefaultLevel if no component-specific level is set.
func (l *LoggingConfig) GetComponentLevel(component string) string {
	if level, ok := l.ComponentLevels[component]; ok {
		return level
	}
	return common.ToLowerWithTrim(l.DefaultLevel)
}

// IsDevelopment returns whether development mode is enabled.
func (l *LoggingConfig) IsDevelopment() bool {
	return l.Development
}

// MetricsConfig configures Prometheus metrics exposition.
type MetricsConfig struct {
	// Enabled controls whether metrics collection and HTTP endpoint are active
	Enabled bool `yaml:"enabled" json:"enabled" toml:"enabled"`

	// ListenAddress is the address to bind the metrics HTTP server to
	ListenAddress string `yaml:"listen_address" json:"listen_address" toml:"listen_address"`

	// Path is the HTTP path where metrics are exposed
	Path string `yaml:"path" json:"path" toml:"path"`
}

// ApplyDefaults sets default values for optional metrics configuration fields.
func (m *MetricsConfig) ApplyDefaults() {
	if m.ListenAddress == "" {
		m.ListenAddress = ":9090"
	}
	if m.Path == "" {
		m.Path = "/metrics"
	}
}

// Validate checks if the metrics configuration is valid.
func (m *MetricsConfig) Validate() error {
	if m.Enabled {
		if m.ListenAddress == "" {
			return fmt.Errorf("listen_address is required when metrics are enabled")
		}
		if m.Path == "" {
			return fmt.Errorf("path is required when metrics are enabled")
		}
		if m.Path[0] != '/' {
			return fmt.Errorf("path must start with '/'")
		}
	}
	return nil
}

// ApplyDefaults sets default values for optional configuration fields.
func (c *Config) ApplyDefaults() {
	c.Node.ApplyDefaults()
	c.Events.ApplyDefaults()

	if c.API != nil {
		c.API.ApplyDefaults()
	}
	if c.Logging != nil {
		c.Logging.ApplyDefaults()
	}
	if c.Metrics != nil {
		c.Metrics.ApplyDefaults()
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Node.RPCURL == "" {
		return fmt.Errorf("node.rpc_url is required")
	}
	if c.Node.WSURL == "" {
		return fmt.Errorf("node.ws_url is required")
	}

	if c.Store.Path == "" {
		return fmt.Errorf("store.path is required")
	}

	if c.Events.Secret == "" {
		return fmt.Errorf("events.secret is required")
	}
	if c.Events.SubscriberBuffer < 0 {
		return fmt.Errorf("events.subscriber_buffer must not be negative")
	}

	if c.Logging != nil {
		if err := c.Logging.Validate(); err != nil {
			return err
		}
	}

	if c.Metrics != nil {
		if err := c.Metrics.Validate(); err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
	}

	return nil
}
