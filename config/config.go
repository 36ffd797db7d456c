// Package config holds the network and gas settings every contract operation
// runs with.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"gopkg.in/yaml.v3"
)

const (
	DefaultGasBudget   uint64 = 50_000_000
	DefaultGasPrice    uint64 = 1000
	DefaultFullnodeURL        = "https://fullnode.testnet.sui.io:443"
	DefaultSuiBinary          = "sui"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config is passed explicitly to the contract manager. Nothing reads it from
// package state.
type Config struct {
	SenderAddress string `yaml:"sender_address"`
	GasObject     string `yaml:"gas_object"`
	GasBudget     uint64 `yaml:"gas_budget"`
	GasPrice      uint64 `yaml:"gas_price"`
	FullnodeURL   string `yaml:"fullnode_url"`
	FaucetURL     string `yaml:"faucet_url"`
	KeystorePath  string `yaml:"keystore_path"`
	SuiBinary     string `yaml:"sui_binary"`
}

// Default returns a config with every default applied and no identity.
func Default() *Config {
	return &Config{
		GasBudget:   DefaultGasBudget,
		GasPrice:    DefaultGasPrice,
		FullnodeURL: DefaultFullnodeURL,
		SuiBinary:   DefaultSuiBinary,
	}
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := Default()
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads a YAML config file. Environment variables that are set win
// over values in the file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.SenderAddress, "SUI_SENDER_ADDRESS")
	setString(&c.GasObject, "SUI_GAS_OBJECT")
	setString(&c.FullnodeURL, "SUI_FULLNODE_URL")
	setString(&c.FaucetURL, "SUI_FAUCET_URL")
	setString(&c.KeystorePath, "SUI_KEYSTORE_PATH")
	setString(&c.SuiBinary, "SUI_BIN")
	if err := setUint(&c.GasBudget, "SUI_GAS_BUDGET"); err != nil {
		return err
	}
	return setUint(&c.GasPrice, "SUI_GAS_PRICE")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setUint(dst *uint64, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: %s=%q is not an unsigned integer", ErrInvalidConfig, key, v)
	}
	*dst = n
	return nil
}

// Validate checks the settings publish and call need. It is the strictest
// check; everything a transaction needs must be present. Addresses and object
// ids must be 0x-prefixed hex.
func (c *Config) Validate() error {
	if err := validateHex("sender address", c.SenderAddress); err != nil {
		return err
	}
	if err := validateHex("gas object", c.GasObject); err != nil {
		return err
	}
	if c.GasBudget == 0 {
		return fmt.Errorf("%w: gas budget must be positive", ErrInvalidConfig)
	}
	if err := c.ValidateNetwork(); err != nil {
		return err
	}
	return c.ValidateToolchain()
}

// ValidateToolchain checks the settings a local build needs.
func (c *Config) ValidateToolchain() error {
	if c.SuiBinary == "" {
		return fmt.Errorf("%w: sui binary is required", ErrInvalidConfig)
	}
	return nil
}

// ValidateNetwork checks the settings a read from the full node needs.
func (c *Config) ValidateNetwork() error {
	if c.FullnodeURL == "" {
		return fmt.Errorf("%w: fullnode url is required", ErrInvalidConfig)
	}
	return nil
}

func validateHex(what, v string) error {
	if v == "" {
		return fmt.Errorf("%w: %s is required", ErrInvalidConfig, what)
	}
	if _, err := hexutil.Decode(evenHex(v)); err != nil {
		return fmt.Errorf("%w: %s %q: %v", ErrInvalidConfig, what, v, err)
	}
	return nil
}

// Sui shortens addresses like 0x2, which hexutil rejects as odd length.
func evenHex(v string) string {
	if len(v) > 2 && len(v)%2 == 1 && (v[:2] == "0x" || v[:2] == "0X") {
		return v[:2] + "0" + v[2:]
	}
	return v
}
