// Package config defines the configuration surface of poolscope.
package config

import (
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/horizen-tools/poolscope/internal/common"
	"github.com/horizen-tools/poolscope/internal/logger"
)

// Config represents the complete configuration for poolscope.
type Config struct {
	// Node contains the blockchain node RPC configuration
	Node NodeConfig `yaml:"node" json:"node" toml:"node"`

	// Sync contains the synchronizer configuration
	Sync SyncConfig `yaml:"sync" json:"sync" toml:"sync"`

	// Store contains the series store configuration
	Store StoreConfig `yaml:"store" json:"store" toml:"store"`

	// Verify contains verifier configuration
	Verify *VerifyConfig `yaml:"verify,omitempty" json:"verify,omitempty" toml:"verify,omitempty"`

	// Logging contains logging configuration
	Logging *LoggingConfig `yaml:"logging,omitempty" json:"logging,omitempty" toml:"logging,omitempty"`

	// Metrics contains Prometheus metrics configuration
	Metrics *MetricsConfig `yaml:"metrics,omitempty" json:"metrics,omitempty" toml:"metrics,omitempty"`

	// API contains the HTTP API server configuration
	API *APIConfig `yaml:"api,omitempty" json:"api,omitempty" toml:"api,omitempty"`
}

// NodeConfig represents the connection to the node's JSON-RPC interface.
type NodeConfig struct {
	// RPCURL is the node RPC endpoint URL
	RPCURL string `yaml:"rpc_url" json:"rpc_url" toml:"rpc_url"`

	// Username is the RPC basic auth username
	Username string `yaml:"username" json:"username" toml:"username"`

	// Password is the RPC basic auth password
	Password string `yaml:"password" json:"password" toml:"password"`

	// Timeout is the upper bound for a single RPC call; exceeding it counts
	// as a transient failure subject to the retry policy
	Timeout common.Duration `yaml:"timeout" json:"timeout" toml:"timeout"`

	// Retry contains RPC retry configuration with exponential backoff
	Retry *RetryConfig `yaml:"retry,omitempty" json:"retry,omitempty" toml:"retry,omitempty"`
}

// ApplyDefaults sets default values for optional node configuration fields.
func (n *NodeConfig) ApplyDefaults() {
	if n.Timeout.Duration == 0 {
		n.Timeout = common.NewDuration(10 * time.Second)
	}
	if n.Retry == nil {
		n.Retry = &RetryConfig{}
	}
	n.Retry.ApplyDefaults()
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
		r.MaxBackoff = common.NewDuration(30 * time.Second) //nolint:mnd
	}
	if r.BackoffMultiplier == 0 {
		r.BackoffMultiplier = 2.0
	}
}

// SyncConfig represents the synchronizer configuration.
type SyncConfig struct {
	// GenesisHeight is the height of the first block the series covers
	GenesisHeight uint64 `yaml:"genesis_height" json:"genesis_height" toml:"genesis_height"`

	// ChunkSize is the number of heights fetched and committed per batch
	ChunkSize uint64 `yaml:"chunk_size" json:"chunk_size" toml:"chunk_size"`

	// FetchWindow is the maximum number of in-flight pool value requests
	FetchWindow int `yaml:"fetch_window" json:"fetch_window" toml:"fetch_window"`

	// ProgressEvery controls how often (in heights) progress is logged
	ProgressEvery uint64 `yaml:"progress_every" json:"progress_every" toml:"progress_every"`
}

// ApplyDefaults sets default values for optional synchronizer configuration fields.
func (s *SyncConfig) ApplyDefaults() {
	if s.ChunkSize == 0 {
		s.ChunkSize = 1000
	}
	if s.FetchWindow == 0 {
		s.FetchWindow = 8
	}
	if s.ProgressEvery == 0 {
		s.ProgressEvery = 10000
	}
}

// Store backends.
const (
	BackendCSV    = "csv"
	BackendSQLite = "sqlite"
)

// StoreConfig represents the series store configuration.
type StoreConfig struct {
	// Backend selects the storage backend: "csv" or "sqlite"
	Backend string `yaml:"backend" json:"backend" toml:"backend"`

	// CSVPath is the path to the CSV series file (csv backend)
	CSVPath string `yaml:"csv_path" json:"csv_path" toml:"csv_path"`

	// DB contains the database configuration (sqlite backend)
	DB DatabaseConfig `yaml:"db" json:"db" toml:"db"`

	// Maintenance contains optional database maintenance settings (sqlite backend)
	Maintenance *MaintenanceConfig `yaml:"maintenance,omitempty" json:"maintenance,omitempty" toml:"maintenance,omitempty"`
}

// ApplyDefaults sets default values for optional store configuration fields.
func (s *StoreConfig) ApplyDefaults() {
	if s.Backend == "" {
		s.Backend = BackendCSV
	}
	if s.CSVPath == "" {
		s.CSVPath = "mainnet_shielded_pool.csv"
	}
	s.DB.ApplyDefaults()
	if s.Maintenance != nil {
		s.Maintenance.ApplyDefaults()
	}
}

// DatabaseConfig represents database configuration.
type DatabaseConfig struct {
	// Path is the file path to the SQLite database
	Path string `yaml:"path" json:"path" toml:"path"`

	// JournalMode sets the SQLite journal mode (e.g., "WAL", "DELETE")
	// WAL mode is recommended for better concurrency
	JournalMode string `yaml:"journal_mode" json:"journal_mode" toml:"journal_mode"`

	// Synchronous sets the synchronization level ("FULL", "NORMAL", "OFF")
	Synchronous string `yaml:"synchronous" json:"synchronous" toml:"synchronous"`

	// BusyTimeout is the time in milliseconds to wait when the database is locked
	BusyTimeout int `yaml:"busy_timeout" json:"busy_timeout" toml:"busy_timeout"`

	// CacheSize is the size of the page cache (negative = KB, positive = pages)
	CacheSize int `yaml:"cache_size" json:"cache_size" toml:"cache_size"`

	// MaxOpenConnections is the maximum number of open database connections
	MaxOpenConnections int `yaml:"max_open_connections" json:"max_open_connections" toml:"max_open_connections"`

	// MaxIdleConnections is the maximum number of idle connections in the pool
	MaxIdleConnections int `yaml:"max_idle_connections" json:"max_idle_connections" toml:"max_idle_connections"`

	// EnableForeignKeys enables foreign key constraint enforcement
	EnableForeignKeys bool `yaml:"enable_foreign_keys" json:"enable_foreign_keys" toml:"enable_foreign_keys"`
}

// ApplyDefaults sets default values for optional database configuration fields.
func (d *DatabaseConfig) ApplyDefaults() {
	if d.JournalMode == "" {
		d.JournalMode = "WAL"
	}
	if d.Synchronous == "" {
		// Durable appends require FULL; the store promises no unflushed
		// state survives a process exit.
		d.Synchronous = "FULL"
	}
	if d.BusyTimeout == 0 {
		d.BusyTimeout = 5000
	}
	if d.CacheSize == 0 {
		d.CacheSize = 10000
	}
	if d.MaxOpenConnections == 0 {
		d.MaxOpenConnections = 25
	}
	if d.MaxIdleConnections == 0 {
		d.MaxIdleConnections = 5
	}
	// EnableForeignKeys defaults to false (zero value)
}

// MaintenanceConfig configures database maintenance behavior.
type MaintenanceConfig struct {
	// Enabled controls whether background maintenance runs
	Enabled bool `yaml:"enabled" json:"enabled" toml:"enabled"`

	// CheckInterval is how often to run maintenance (e.g., "30m", "1h")
	CheckInterval common.Duration `yaml:"check_interval" json:"check_interval" toml:"check_interval"`

	// VacuumOnStartup runs maintenance immediately on startup
	VacuumOnStartup bool `yaml:"vacuum_on_startup" json:"vacuum_on_startup" toml:"vacuum_on_startup"`

	// WALCheckpointMode controls the WAL checkpoint aggressiveness
	// Options: PASSIVE, FULL, RESTART, TRUNCATE
	WALCheckpointMode string `yaml:"wal_checkpoint_mode" json:"wal_checkpoint_mode" toml:"wal_checkpoint_mode"`
}

// ApplyDefaults sets default values for optional maintenance configuration fields.
func (m *MaintenanceConfig) ApplyDefaults() {
	if m.CheckInterval.Duration == 0 {
		m.CheckInterval = common.NewDuration(30 * time.Minute) //nolint:mnd
	}
	if m.WALCheckpointMode == "" {
		m.WALCheckpointMode = "TRUNCATE"
	}
	// Enabled defaults to false (zero value)
	// VacuumOnStartup defaults to false (zero value)
}

// Validate checks if the maintenance configuration is valid.
func (m *MaintenanceConfig) Validate() error {
	if m.WALCheckpointMode != "" {
		validModes := []string{"PASSIVE", "FULL", "RESTART", "TRUNCATE"}
		if !slices.Contains(validModes, m.WALCheckpointMode) {
			return fmt.Errorf("maintenance.wal_checkpoint_mode: must be one of: PASSIVE, FULL, RESTART, TRUNCATE")
		}
	}

	return nil
}

// DefaultDropTolerance is the value drop (in coins) above which the verifier
// flags a warning. Drops below it are considered routine unshielding.
const DefaultDropTolerance = "100"

// VerifyConfig represents verifier configuration.
type VerifyConfig struct {
	// DropTolerance is the pool value decrease (in coins, decimal string)
	// above which a warning is flagged
	DropTolerance string `yaml:"drop_tolerance" json:"drop_tolerance" toml:"drop_tolerance"`
}

// ApplyDefaults sets default values for optional verifier configuration fields.
func (v *VerifyConfig) ApplyDefaults() {
	if v.DropTolerance == "" {
		v.DropTolerance = DefaultDropTolerance
	}
}

// Validate checks if the verifier configuration is valid.
func (v *VerifyConfig) Validate() error {
	tol, err := decimal.NewFromString(v.DropTolerance)
	if err != nil {
		return fmt.Errorf("verify.drop_tolerance: not a decimal number: %w", err)
	}
	if tol.IsNegative() {
		return fmt.Errorf("verify.drop_tolerance: must not be negative")
	}
	return nil
}

// DropToleranceDecimal returns the parsed drop tolerance. Validate must have
// passed before calling it.
func (v *VerifyConfig) DropToleranceDecimal() decimal.Decimal {
	tol, err := decimal.NewFromString(v.DropTolerance)
	if err != nil {
		tol, _ = decimal.NewFromString(DefaultDropTolerance)
	}
	return tol
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
	//   - synchronizer: Sync engine
	//   - rpc-client: Node RPC client
	//   - series-store: Series storage layer
	//   - verifier: Series verification
	//   - maintenance: Database maintenance
	//   - api: HTTP API server
	ComponentLevels map[string]string `yaml:"component_levels,omitempty" json:"component_levels,omitempty" toml:"component_levels,omitempty"` //nolint:lll
}

// ApplyDefaults sets default values for optional logging configuration fields.
func (l *LoggingConfig) ApplyDefaults() {
	if l.DefaultLevel == "" {
		l.DefaultLevel = "info"
	}
	// Development defaults to false (zero value)
	if l.ComponentLevels == nil {
		l.ComponentLevels = make(map[string]string)
	}
}

// Validate checks if the logging configuration is valid.
func (l *LoggingConfig) Validate() error {
	// Validate default level
	if l.DefaultLevel != "" {
		if _, valid := logger.ValidLogLevels[common.ToLowerWithTrim(l.DefaultLevel)]; !valid {
			return fmt.Errorf("logging.default_level: must be one of: debug, info, warn, error")
		}
	}

	for component, level := range l.ComponentLevels {
		// Check if component is valid
		if _, validComponent := common.AllComponents[common.ToLowerWithTrim(component)]; !validComponent {
			return fmt.Errorf("logging.component_levels: unknown component '%s'", component)
		}

		// Check if level is valid
		if _, valid := logger.ValidLogLevels[common.ToLowerWithTrim(level)]; !valid {
			return fmt.Errorf("logging.component_levels[%s]: must be one of: debug, info, warn, error", component)
		}
	}

	return nil
}

// GetComponentLevel returns the log level for a specific component.
// Falls back to DefaultLevel if no component-specific level is set.
// A nil receiver yields the default level, so a missing logging section
// behaves like an empty one.
func (l *LoggingConfig) GetComponentLevel(component string) string {
	if l == nil {
		return "info"
	}
	if level, ok := l.ComponentLevels[component]; ok {
		return level
	}
	return common.ToLowerWithTrim(l.DefaultLevel)
}

// GetDefaultLevel returns the default log level.
func (l *LoggingConfig) GetDefaultLevel() string {
	if l == nil {
		return "info"
	}
	return common.ToLowerWithTrim(l.DefaultLevel)
}

// IsDevelopment returns whether development mode is enabled.
func (l *LoggingConfig) IsDevelopment() bool {
	return l != nil && l.Development
}

// MetricsConfig configures Prometheus metrics exposition.
type MetricsConfig struct {
	// Enabled controls whether metrics collection and HTTP endpoint are active
	Enabled bool `yaml:"enabled" json:"enabled" toml:"enabled"`

	// ListenAddress is the address to bind the metrics HTTP server to
	// Format: "host:port" or ":port"
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
	// Enabled defaults to false (zero value)
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

// CORSConfig configures cross-origin resource sharing for the API server.
type CORSConfig struct {
	// Enabled controls whether CORS headers are emitted
	Enabled bool `yaml:"enabled" json:"enabled" toml:"enabled"`

	// AllowedOrigins lists the origins allowed to call the API ("*" for any)
	AllowedOrigins []string `yaml:"allowed_origins" json:"allowed_origins" toml:"allowed_origins"`
}

// APIConfig configures the read-only HTTP API that serves the series to
// chart consumers.
type APIConfig struct {
	// Enabled controls whether the API server runs
	Enabled bool `yaml:"enabled" json:"enabled" toml:"enabled"`

	// ListenAddress is the address to bind the API server to
	ListenAddress string `yaml:"listen_address" json:"listen_address" toml:"listen_address"`

	// ReadTimeout bounds request reads
	ReadTimeout common.Duration `yaml:"read_timeout" json:"read_timeout" toml:"read_timeout"`

	// WriteTimeout bounds response writes
	WriteTimeout common.Duration `yaml:"write_timeout" json:"write_timeout" toml:"write_timeout"`

	// IdleTimeout bounds keep-alive idle connections
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
		a.WriteTimeout = common.NewDuration(30 * time.Second) //nolint:mnd
	}
	if a.IdleTimeout.Duration == 0 {
		a.IdleTimeout = common.NewDuration(60 * time.Second) //nolint:mnd
	}
}

// Validate checks if the API configuration is valid.
func (a *APIConfig) Validate() error {
	if a.Enabled && a.ListenAddress == "" {
		return fmt.Errorf("listen_address is required when the API is enabled")
	}
	return nil
}

// ApplyDefaults sets default values for optional configuration fields.
func (c *Config) ApplyDefaults() {
	c.Node.ApplyDefaults()
	c.Sync.ApplyDefaults()
	c.Store.ApplyDefaults()

	if c.Verify == nil {
		c.Verify = &VerifyConfig{}
	}
	c.Verify.ApplyDefaults()

	if c.Logging != nil {
		c.Logging.ApplyDefaults()
	}

	if c.Metrics != nil {
		c.Metrics.ApplyDefaults()
	}

	if c.API != nil {
		c.API.ApplyDefaults()
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Node.RPCURL == "" {
		return fmt.Errorf("node.rpc_url is required")
	}

	switch c.Store.Backend {
	case BackendCSV:
		if c.Store.CSVPath == "" {
			return fmt.Errorf("store.csv_path is required for the csv backend")
		}
	case BackendSQLite:
		if c.Store.DB.Path == "" {
			return fmt.Errorf("store.db.path is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("store.backend must be one of: 'csv', 'sqlite'")
	}

	if c.Store.DB.JournalMode != "" && c.Store.DB.JournalMode != "WAL" &&
		c.Store.DB.JournalMode != "DELETE" && c.Store.DB.JournalMode != "TRUNCATE" &&
		c.Store.DB.JournalMode != "PERSIST" && c.Store.DB.JournalMode != "MEMORY" {
		return fmt.Errorf("store.db.journal_mode must be one of: WAL, DELETE, TRUNCATE, PERSIST, MEMORY")
	}

	if c.Store.DB.Synchronous != "" && c.Store.DB.Synchronous != "FULL" &&
		c.Store.DB.Synchronous != "NORMAL" && c.Store.DB.Synchronous != "OFF" {
		return fmt.Errorf("store.db.synchronous must be one of: FULL, NORMAL, OFF")
	}

	if c.Store.Maintenance != nil {
		if err := c.Store.Maintenance.Validate(); err != nil {
			return fmt.Errorf("store.maintenance: %w", err)
		}
	}

	if c.Verify != nil {
		if err := c.Verify.Validate(); err != nil {
			return err
		}
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

	if c.API != nil {
		if err := c.API.Validate(); err != nil {
			return fmt.Errorf("api: %w", err)
		}
	}

	return nil
}
