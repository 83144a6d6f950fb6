package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// BaseConfig holds base configuration
type BaseConfig struct {
	Debug     bool   `mapstructure:"debug"`
	SentryDSN string `mapstructure:"sentry_dsn"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`     // Maximum number of open connections to the database
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`     // Maximum number of idle connections in the pool
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`  // Maximum amount of time a connection may be reused (e.g., "5m", "1h")
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"` // Maximum amount of time a connection may be idle (e.g., "10m", "30m")
}

// NATSConfig holds NATS JetStream configuration
type NATSConfig struct {
	URL             string        `mapstructure:"url"`
	StreamName      string        `mapstructure:"stream_name"`
	MaxReconnects   int           `mapstructure:"max_reconnects"`
	ReconnectWait   time.Duration `mapstructure:"reconnect_wait"`
	ConnectionName  string        `mapstructure:"connection_name"`
	DuplicateWindow time.Duration `mapstructure:"duplicate_window"`
}

// RelayConfig holds outbox relay configuration
type RelayConfig struct {
	BatchSize       int           `mapstructure:"batch_size"`
	PollInterval    time.Duration `mapstructure:"poll_interval"`
	MaxConcurrency  int           `mapstructure:"max_concurrency"`
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval"`
	MaxElapsedTime  time.Duration `mapstructure:"max_elapsed_time"`
}

// HealthConfig holds the liveness/readiness probe server configuration
type HealthConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port" validate:"min=0,max=65535"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	CheckTimeout time.Duration `mapstructure:"check_timeout"`
}

// LedgerConfig describes one ledger tenant to open (and bootstrap if new)
type LedgerConfig struct {
	ID      string `mapstructure:"id" validate:"required,ledger_id"`
	Name    string `mapstructure:"name"`
	Symbol  string `mapstructure:"symbol"`
	BaseURI string `mapstructure:"base_uri"`
	Owner   string `mapstructure:"owner" validate:"required,eth_addr"` // hex address
}

// LedgerRelayConfig holds configuration for ledger-relay
type LedgerRelayConfig struct {
	BaseConfig `mapstructure:",squash"`
	Database   DatabaseConfig `mapstructure:"database"`
	NATS       NATSConfig     `mapstructure:"nats"`
	Relay      RelayConfig    `mapstructure:"relay"`
	Health     HealthConfig   `mapstructure:"health"`
	Ledgers    []LedgerConfig `mapstructure:"ledgers" validate:"dive"`
}

// LoadLedgerRelayConfig loads configuration for ledger-relay
func LoadLedgerRelayConfig(configFile string, envPath string) (*LedgerRelayConfig, error) {
	v := configureViper("ledger-relay", configFile, envPath)

	// Set defaults
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.max_reconnects", 10)
	v.SetDefault("nats.reconnect_wait", "2s")
	v.SetDefault("nats.stream_name", "LEDGER_EVENTS")
	v.SetDefault("nats.connection_name", "ledger-relay")
	v.SetDefault("nats.duplicate_window", "2m")
	v.SetDefault("relay.batch_size", 100)
	v.SetDefault("relay.poll_interval", "1s")
	v.SetDefault("relay.max_concurrency", 4)
	v.SetDefault("relay.initial_interval", "500ms")
	v.SetDefault("relay.max_interval", "30s")
	v.SetDefault("relay.max_elapsed_time", "2m")
	v.SetDefault("health.enabled", true)
	v.SetDefault("health.host", "0.0.0.0")
	v.SetDefault("health.port", 8081)
	v.SetDefault("health.read_timeout", "5s")
	v.SetDefault("health.write_timeout", "5s")
	v.SetDefault("health.check_timeout", "2s")

	if err := v.ReadInConfig(); err != nil {
		var error viper.ConfigFileNotFoundError
		if errors.As(err, &error) {
			// Config file not found, use environment variables
		} else {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config LedgerRelayConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *LedgerRelayConfig) validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	seen := make(map[string]bool, len(c.Ledgers))
	for i, l := range c.Ledgers {
		if seen[l.ID] {
			return fmt.Errorf("ledgers[%d]: duplicate ledger id %q", i, l.ID)
		}
		seen[l.ID] = true
	}
	return nil
}

// OwnerAddress parses the configured owner
func (c LedgerConfig) OwnerAddress() (common.Address, error) {
	if !common.IsHexAddress(c.Owner) {
		return common.Address{}, fmt.Errorf("invalid owner address %q", c.Owner)
	}
	return common.HexToAddress(c.Owner), nil
}

func configureViper(service string, configFile string, envPath string) *viper.Viper {
	v := viper.New()

	// Load environment variables
	loadEnv(envPath, service)

	// Set config file
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// Search for config.yaml in multiple locations:
		// 1. Current directory
		v.AddConfigPath(".")
		// 2. Service-specific directory (e.g., cmd/ledger-relay/)
		v.AddConfigPath(fmt.Sprintf("cmd/%s/", service))
		// 3. Config directory
		v.AddConfigPath("config/")
	}

	// Set environment variables
	v.SetEnvPrefix("FF_LEDGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Explicitly bind all environment variables
	bindAllEnvVars(v)
	return v
}

func bindAllEnvVars(v *viper.Viper) {
	keys := []string{
		"debug",
		"sentry_dsn",
		// Database
		"database.host",
		"database.port",
		"database.user",
		"database.password",
		"database.dbname",
		"database.sslmode",
		"database.max_open_conns",
		"database.max_idle_conns",
		"database.conn_max_lifetime",
		"database.conn_max_idle_time",
		// NATS
		"nats.url",
		"nats.stream_name",
		"nats.max_reconnects",
		"nats.reconnect_wait",
		"nats.connection_name",
		"nats.duplicate_window",
		// Relay
		"relay.batch_size",
		"relay.poll_interval",
		"relay.max_concurrency",
		"relay.initial_interval",
		"relay.max_interval",
		"relay.max_elapsed_time",
		// Health
		"health.enabled",
		"health.host",
		"health.port",
		"health.read_timeout",
		"health.write_timeout",
		"health.check_timeout",
	}

	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}

func loadEnv(envPath string, service string) {
	// Always try shared base first, then local, then optional per-service local.
	envFiles := []string{".env", ".env.local"}
	if service != "" {
		envFiles = append(envFiles, ".env."+service+".local")
	}

	// Default to config directory
	if envPath == "" {
		envPath = "config/"
	}

	for _, envFile := range envFiles {
		candidate := filepath.Join(envPath, envFile)
		_ = godotenv.Overload(candidate) // Overload lets later files override earlier ones
	}
}

// ChdirRepoRoot changes the current working directory to the repository root
func ChdirRepoRoot() {
	cwd, _ := os.Getwd()
	for i := 0; i < 5; i++ {
		if _, err := os.Stat(filepath.Join(cwd, "config")); err == nil {
			_ = os.Chdir(cwd)
			return
		}
		cwd = filepath.Dir(cwd)
	}
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}
