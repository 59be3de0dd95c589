package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	envServerAddress = "SERVER_ADDRESS"
	envLogLevel      = "LOG_LEVEL"
	envStoreHost     = "STORE_HOST"
	envStorePort     = "STORE_PORT"
	envStoreDB       = "STORE_DB"
	envStoreTimeout  = "STORE_TIMEOUT"
)

const (
	defaultServerAddress = "localhost:8080"
	defaultLogLevel      = "info"
	defaultStoreHost     = "localhost"
	defaultStorePort     = 6379
	defaultStoreDB       = 0
	defaultStoreTimeout  = 5 * time.Second
)

type StoreConfig struct {
	Host          string        `yaml:"host"`
	Port          int           `yaml:"port"`
	DB            int           `yaml:"db"`
	SocketTimeout time.Duration `yaml:"socket_timeout"`
}

type Config struct {
	ServerAddress string      `yaml:"server_address"`
	LogLevel      string      `yaml:"log_level"`
	Store         StoreConfig `yaml:"store"`
}

// NewConfig layers the configuration: defaults, then flags, then the optional
// YAML file from -config, then environment variables.
func NewConfig() (*Config, error) {
	cfg := &Config{
		ServerAddress: defaultServerAddress,
		LogLevel:      defaultLogLevel,
		Store: StoreConfig{
			Host:          defaultStoreHost,
			Port:          defaultStorePort,
			DB:            defaultStoreDB,
			SocketTimeout: defaultStoreTimeout,
		},
	}

	var configFile string
	flag.StringVar(&configFile, "config", "", "Path to YAML config file")
	flag.StringVar(&cfg.ServerAddress, "server-address", cfg.ServerAddress, "Server address")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level")
	flag.StringVar(&cfg.Store.Host, "store-host", cfg.Store.Host, "Store host")
	flag.IntVar(&cfg.Store.Port, "store-port", cfg.Store.Port, "Store port")
	flag.IntVar(&cfg.Store.DB, "store-db", cfg.Store.DB, "Store database index")
	flag.DurationVar(&cfg.Store.SocketTimeout, "store-timeout", cfg.Store.SocketTimeout, "Store socket timeout")
	flag.Parse()

	if configFile != "" {
		if err := cfg.loadFile(configFile); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv(envServerAddress, &cfg.ServerAddress)
	cfg.applyEnv(envLogLevel, &cfg.LogLevel)
	cfg.applyEnv(envStoreHost, &cfg.Store.Host)
	cfg.applyEnvInt(envStorePort, &cfg.Store.Port)
	cfg.applyEnvInt(envStoreDB, &cfg.Store.DB)
	cfg.applyEnvDuration(envStoreTimeout, &cfg.Store.SocketTimeout)

	cfg.normalizeServerAddress()

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(key string, target *string) {
	if val, ok := os.LookupEnv(key); ok {
		*target = val
	}
}

func (c *Config) applyEnvInt(key string, target *int) {
	if val, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(val); err == nil {
			*target = n
		}
	}
}

func (c *Config) applyEnvDuration(key string, target *time.Duration) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			*target = d
		}
	}
}

func (c *Config) normalizeServerAddress() {
	if strings.HasPrefix(c.ServerAddress, ":") {
		c.ServerAddress = "localhost" + c.ServerAddress
	}
}
