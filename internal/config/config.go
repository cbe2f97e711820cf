package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

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
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// NATSConfig holds NATS JetStream configuration
type NATSConfig struct {
	URL            string        `mapstructure:"url"`
	SubjectPrefix  string        `mapstructure:"subject_prefix"`
	MaxReconnects  int           `mapstructure:"max_reconnects"`
	ReconnectWait  time.Duration `mapstructure:"reconnect_wait"`
	ConnectionName string        `mapstructure:"connection_name"`
}

// EthereumConfig holds chain access configuration
type EthereumConfig struct {
	RPCURL               string        `mapstructure:"rpc_url"`
	Confirmations        uint64        `mapstructure:"confirmations"`
	BatchSize            uint64        `mapstructure:"batch_size"`
	PollInterval         time.Duration `mapstructure:"poll_interval"`
	WorkerPoolSize       int           `mapstructure:"worker_pool_size"`
	BlockHeadTTL         time.Duration `mapstructure:"block_head_ttl"`
	BlockHeadStaleWindow time.Duration `mapstructure:"block_head_stale_window"`

	RegistrarAddress       string `mapstructure:"registrar_address"`
	RegistrarDeployBlock   uint64 `mapstructure:"registrar_deploy_block"`
	MarketplaceAddress     string `mapstructure:"marketplace_address"`
	MarketplaceDeployBlock uint64 `mapstructure:"marketplace_deploy_block"`
}

// SubgraphConfig holds the name resolution subgraph configuration
type SubgraphConfig struct {
	URL      string        `mapstructure:"url"`
	APIKey   string        `mapstructure:"api_key"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// StreamConfig holds the marketplace stream configuration
type StreamConfig struct {
	URL               string        `mapstructure:"url"`
	Topic             string        `mapstructure:"topic"`
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
	ReconnectDelay    time.Duration `mapstructure:"reconnect_delay"`
	MaxReconnects     int           `mapstructure:"max_reconnects"`
}

// IndexerConfig holds configuration for the indexer process
type IndexerConfig struct {
	BaseConfig `mapstructure:",squash"`
	Database   DatabaseConfig `mapstructure:"database"`
	NATS       NATSConfig     `mapstructure:"nats"`
	Ethereum   EthereumConfig `mapstructure:"ethereum"`
	Subgraph   SubgraphConfig `mapstructure:"subgraph"`
	Stream     StreamConfig   `mapstructure:"stream"`
}

// LoadIndexerConfig loads configuration for the indexer process
func LoadIndexerConfig(configFile string, envPath string) (*IndexerConfig, error) {
	v := configureViper("indexer", configFile, envPath)

	// Set defaults
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.max_reconnects", 10)
	v.SetDefault("nats.reconnect_wait", "2s")
	v.SetDefault("nats.subject_prefix", "jobs")
	v.SetDefault("nats.connection_name", "indexer")
	v.SetDefault("ethereum.confirmations", 12)
	v.SetDefault("ethereum.batch_size", 2000)
	v.SetDefault("ethereum.poll_interval", "12s")
	v.SetDefault("ethereum.worker_pool_size", 5)
	v.SetDefault("ethereum.block_head_ttl", "6s")
	v.SetDefault("ethereum.block_head_stale_window", "60s")
	v.SetDefault("subgraph.cache_ttl", "10m")
	v.SetDefault("stream.heartbeat_interval", "30s")
	v.SetDefault("stream.reconnect_delay", "5s")
	v.SetDefault("stream.max_reconnects", 10)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			// Config file not found, use environment variables
		} else {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config IndexerConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate required fields
	if config.Database.Host == "" {
		return nil, errors.New("database.host is required")
	}
	if config.Database.DBName == "" {
		return nil, errors.New("database.dbname is required")
	}
	if config.Ethereum.RPCURL == "" {
		return nil, errors.New("ethereum.rpc_url is required")
	}
	if config.Ethereum.RegistrarAddress == "" {
		return nil, errors.New("ethereum.registrar_address is required")
	}
	if config.Ethereum.MarketplaceAddress == "" {
		return nil, errors.New("ethereum.marketplace_address is required")
	}
	if config.Subgraph.URL == "" {
		return nil, errors.New("subgraph.url is required")
	}

	return &config, nil
}

// configureViper returns a viper instance with the config file and environment variables set
func configureViper(service string, configFile string, envPath string) *viper.Viper {
	v := viper.New()

	loadEnv(envPath, service)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(fmt.Sprintf("cmd/%s/", service))
		v.AddConfigPath("config/")
	}

	v.SetEnvPrefix("GRAILS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindAllEnvVars(v)
	return v
}

// bindAllEnvVars explicitly binds all possible environment variables.
// This is required for viper to map env vars to config struct fields when no
// config file exists.
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
		"nats.subject_prefix",
		"nats.max_reconnects",
		"nats.reconnect_wait",
		"nats.connection_name",
		// Ethereum
		"ethereum.rpc_url",
		"ethereum.confirmations",
		"ethereum.batch_size",
		"ethereum.poll_interval",
		"ethereum.worker_pool_size",
		"ethereum.block_head_ttl",
		"ethereum.block_head_stale_window",
		"ethereum.registrar_address",
		"ethereum.registrar_deploy_block",
		"ethereum.marketplace_address",
		"ethereum.marketplace_deploy_block",
		// Subgraph
		"subgraph.url",
		"subgraph.api_key",
		"subgraph.cache_ttl",
		// Stream
		"stream.url",
		"stream.topic",
		"stream.heartbeat_interval",
		"stream.reconnect_delay",
		"stream.max_reconnects",
	}

	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}

// loadEnv loads environment variables from the config directory
func loadEnv(envPath string, service string) {
	envFiles := []string{".env", ".env.local"}
	if service != "" {
		envFiles = append(envFiles, ".env."+service+".local")
	}

	if envPath == "" {
		envPath = "config/"
	}

	for _, envFile := range envFiles {
		candidate := filepath.Join(envPath, envFile)
		_ = godotenv.Overload(candidate) // Overload lets later files override earlier ones
	}
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}
