package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/SirZenith/taskmon/common"
	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
)

const (
	DefaultFileName = "taskmon.json"
	EnvPrefix       = "TASKMON"

	DefaultRPCURL      = "https://testnet-rpc.monad.xyz"
	DefaultChainID     = 10143
	DefaultAddressHub  = "0xC9f0cDE8316AbC5Efc8C3f5A6b571e815C021B51"
	DefaultExplorerURL = "https://explorer.monad.xyz"
	DefaultAPIURL      = "http://127.0.0.1:8080"
	DefaultBindAddress = "127.0.0.1:8080"
)

type Config struct {
	RPCURL      string `json:"rpc_url" mapstructure:"rpc_url"`
	ChainID     int64  `json:"chain_id" mapstructure:"chain_id"`
	AddressHub  string `json:"address_hub" mapstructure:"address_hub"`
	ExplorerURL string `json:"explorer_url" mapstructure:"explorer_url"`

	APIURL      string `json:"api_url" mapstructure:"api_url"`           // base URL of user task backend used by CLI
	BindAddress string `json:"bind_address" mapstructure:"bind_address"` // listening address of `serve`

	DatabasePath string `json:"database_path" mapstructure:"database_path"`
	HistoryFile  string `json:"history_file" mapstructure:"history_file"`

	KeystoreFile string `json:"keystore_file" mapstructure:"keystore_file"`
	PrivateKey   string `json:"private_key,omitempty" mapstructure:"private_key"` // hex encoded, usually given through environment

	Proxy    string `json:"proxy" mapstructure:"proxy"`
	JobCount int    `json:"job_count" mapstructure:"job_count"`
	LogLevel string `json:"log_level" mapstructure:"log_level"`

	ReceiptTimeout      time.Duration `json:"receipt_timeout" mapstructure:"receipt_timeout"`
	ReceiptPollInterval time.Duration `json:"receipt_poll_interval" mapstructure:"receipt_poll_interval"`
	RefreshInterval     time.Duration `json:"refresh_interval" mapstructure:"refresh_interval"`
	AddressCacheTTL     time.Duration `json:"address_cache_ttl" mapstructure:"address_cache_ttl"`
	RequestTimeout      time.Duration `json:"request_timeout" mapstructure:"request_timeout"`
}

// Default returns a config with every field set to its default value.
func Default() Config {
	c := Config{}
	c.SetupDefaultValues()
	return c
}

// SetupDefaultValues fills zero value fields with defaults.
func (c *Config) SetupDefaultValues() {
	c.RPCURL = common.GetStrOr(c.RPCURL, DefaultRPCURL)
	c.AddressHub = common.GetStrOr(c.AddressHub, DefaultAddressHub)
	c.ExplorerURL = common.GetStrOr(c.ExplorerURL, DefaultExplorerURL)
	c.APIURL = common.GetStrOr(c.APIURL, DefaultAPIURL)
	c.BindAddress = common.GetStrOr(c.BindAddress, DefaultBindAddress)
	c.DatabasePath = common.GetStrOr(c.DatabasePath, "./taskmon.db")
	c.HistoryFile = common.GetStrOr(c.HistoryFile, "./tx_history.json")
	c.LogLevel = common.GetStrOr(c.LogLevel, "info")

	if c.ChainID <= 0 {
		c.ChainID = DefaultChainID
	}
	if c.JobCount <= 0 {
		c.JobCount = runtime.NumCPU()
	}

	c.ReceiptTimeout = positiveDurationOr(c.ReceiptTimeout, 60*time.Second)
	c.ReceiptPollInterval = positiveDurationOr(c.ReceiptPollInterval, time.Second)
	c.RefreshInterval = positiveDurationOr(c.RefreshInterval, 15*time.Second)
	c.AddressCacheTTL = positiveDurationOr(c.AddressCacheTTL, time.Hour)
	c.RequestTimeout = positiveDurationOr(c.RequestTimeout, 30*time.Second)
}

func positiveDurationOr(value, defaultValue time.Duration) time.Duration {
	if value <= 0 {
		return defaultValue
	}
	return value
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("json")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Every key needs a default so that environment overrides are visible to
	// Unmarshal even when the key is absent from the file.
	defaults := Default()
	v.SetDefault("rpc_url", defaults.RPCURL)
	v.SetDefault("chain_id", defaults.ChainID)
	v.SetDefault("address_hub", defaults.AddressHub)
	v.SetDefault("explorer_url", defaults.ExplorerURL)
	v.SetDefault("api_url", defaults.APIURL)
	v.SetDefault("bind_address", defaults.BindAddress)
	v.SetDefault("database_path", defaults.DatabasePath)
	v.SetDefault("history_file", defaults.HistoryFile)
	v.SetDefault("keystore_file", "")
	v.SetDefault("private_key", "")
	v.SetDefault("proxy", "")
	v.SetDefault("job_count", defaults.JobCount)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("receipt_timeout", defaults.ReceiptTimeout)
	v.SetDefault("receipt_poll_interval", defaults.ReceiptPollInterval)
	v.SetDefault("refresh_interval", defaults.RefreshInterval)
	v.SetDefault("address_cache_ttl", defaults.AddressCacheTTL)
	v.SetDefault("request_timeout", defaults.RequestTimeout)

	return v
}

// ReadConfigFile reads configuration from JSON file, environment variables
// with prefix TASKMON_ take precedence over values in file. Relative paths in
// config are resolved against directory of config file.
func ReadConfigFile(filePath string) (Config, error) {
	c := Config{}

	v := newViper()
	v.SetConfigFile(filePath)
	if err := v.ReadInConfig(); err != nil {
		return c, fmt.Errorf("failed to read config file %s: %s", filePath, err)
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("failed to parse config %s: %s", filePath, err)
	}

	c.SetupDefaultValues()
	c.resolvePaths(filepath.Dir(filePath))

	return c, nil
}

// Load reads config at given path if it exists, else configuration comes from
// defaults and environment alone.
func Load(filePath string) (Config, error) {
	if _, err := os.Stat(filePath); err == nil {
		return ReadConfigFile(filePath)
	} else if !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("can't access config file %s: %s", filePath, err)
	}

	log.Debugf("config file %s not found, using defaults", filePath)

	c := Config{}
	if err := newViper().Unmarshal(&c); err != nil {
		return c, fmt.Errorf("failed to read config from environment: %s", err)
	}

	c.SetupDefaultValues()
	c.resolvePaths(".")

	return c, nil
}

func (c *Config) resolvePaths(configDir string) {
	c.DatabasePath = common.ResolveRelativePath(c.DatabasePath, configDir)
	c.HistoryFile = common.ResolveRelativePath(c.HistoryFile, configDir)
	c.KeystoreFile = common.ResolveRelativePath(c.KeystoreFile, configDir)
}

// SaveFile writes config to disk as JSON. Durations are written in their
// string form, e.g. "1m0s". Private key is never written.
func (c Config) SaveFile(filename string) error {
	c.PrivateKey = ""

	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("JSON conversion failed: %s", err)
	}

	fields := map[string]any{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("JSON conversion failed: %s", err)
	}

	fields["receipt_timeout"] = c.ReceiptTimeout.String()
	fields["receipt_poll_interval"] = c.ReceiptPollInterval.String()
	fields["refresh_interval"] = c.RefreshInterval.String()
	fields["address_cache_ttl"] = c.AddressCacheTTL.String()
	fields["request_timeout"] = c.RequestTimeout.String()

	data, err = json.MarshalIndent(fields, "", "    ")
	if err != nil {
		return fmt.Errorf("JSON conversion failed: %s", err)
	}

	if err = os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %s", err)
	}

	return nil
}

// ApplyLogLevel sets level of global logger according to config.
func (c Config) ApplyLogLevel() {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		log.Warnf("unknown log level %q, keep using %s", c.LogLevel, log.GetLevel())
		return
	}
	log.SetLevel(level)
}
