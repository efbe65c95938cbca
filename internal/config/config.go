// Package config provides configuration management for zforge.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	zferr "github.com/zamaforge/zforge/pkg/errors"
)

// Config represents the application configuration.
type Config struct {
	Version      int                `yaml:"version"`
	Home         string             `yaml:"home"`
	Network      NetworkConfig      `yaml:"network"`
	Contracts    ContractsConfig    `yaml:"contracts"`
	Relayer      RelayerConfig      `yaml:"relayer"`
	Decryption   DecryptionConfig   `yaml:"decryption"`
	Transactions TransactionsConfig `yaml:"transactions"`
	Output       OutputConfig       `yaml:"output"`
	Logging      LoggingConfig      `yaml:"logging"`
}

// NetworkConfig describes the chain the SDK instance and wallet bind to.
type NetworkConfig struct {
	Name           string `yaml:"name"`
	ChainID        uint64 `yaml:"chain_id"`
	RPC            string `yaml:"rpc"`
	RelayerURL     string `yaml:"relayer_url"`
	GatewayChainID uint64 `yaml:"gateway_chain_id"`

	ACLContract                        string `yaml:"acl_contract"`
	KMSContract                        string `yaml:"kms_contract"`
	InputVerifierContract              string `yaml:"input_verifier_contract"`
	VerifyingContractDecryption        string `yaml:"verifying_contract_decryption"`
	VerifyingContractInputVerification string `yaml:"verifying_contract_input_verification"`
}

// ContractsConfig holds the dashboard's well-known contract addresses.
type ContractsConfig struct {
	Factory    string `yaml:"factory"`
	Airdrop    string `yaml:"airdrop"`
	ForgeToken string `yaml:"forge_token"`
	TestCoin   string `yaml:"test_coin"`
}

// RelayerConfig tunes the HTTP client used against the relayer.
type RelayerConfig struct {
	RatePerSecond  float64 `yaml:"rate_per_second"`
	Burst          int     `yaml:"burst"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
	MaxRetries     int     `yaml:"max_retries"`
}

// DecryptionConfig controls the user decryption protocol.
type DecryptionConfig struct {
	// OnFailure is "return_default" (yield "0" and record the error) or "propagate".
	OnFailure    string `yaml:"on_failure"`
	DurationDays int    `yaml:"duration_days"`
}

// TransactionsConfig controls orchestrator behavior after submission.
type TransactionsConfig struct {
	WaitForReceipt        bool `yaml:"wait_for_receipt"`
	ReceiptTimeoutSeconds int  `yaml:"receipt_timeout_seconds"`
}

// OutputConfig defines output formatting settings.
type OutputConfig struct {
	DefaultFormat string `yaml:"default_format"`
	Color         string `yaml:"color"`
	Verbose       bool   `yaml:"verbose"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Decryption failure policies.
const (
	OnFailureReturnDefault = "return_default"
	OnFailurePropagate     = "propagate"
)

// Load reads configuration from the specified file.
func Load(path string) (*Config, error) {
	// #nosec G304 -- config file path is from validated user input
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, zferr.WithCause(zferr.ErrConfigInvalid, err)
	}

	return cfg, nil
}

// Save writes configuration to the specified file.
func Save(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o600)
}

// Validate checks the fields every command depends on.
func (c *Config) Validate() error {
	if c.Network.ChainID == 0 {
		return zferr.WithDetails(zferr.ErrConfigInvalid, map[string]string{"field": "network.chain_id"})
	}
	if c.Network.RPC == "" {
		return zferr.WithDetails(zferr.ErrConfigInvalid, map[string]string{"field": "network.rpc"})
	}
	switch c.Decryption.OnFailure {
	case OnFailureReturnDefault, OnFailurePropagate:
	default:
		return zferr.WithDetails(zferr.ErrConfigInvalid, map[string]string{
			"field": "decryption.on_failure",
			"value": c.Decryption.OnFailure,
		})
	}
	if c.Decryption.DurationDays <= 0 {
		return zferr.WithDetails(zferr.ErrConfigInvalid, map[string]string{
			"field": "decryption.duration_days",
			"value": fmt.Sprintf("%d", c.Decryption.DurationDays),
		})
	}
	return nil
}

// Path returns the default config file path.
func Path(home string) string {
	return filepath.Join(home, "config.yaml")
}

// GetHome returns the zforge home directory path.
func (c *Config) GetHome() string {
	return c.Home
}

// GetRPC returns the JSON-RPC endpoint of the configured network.
func (c *Config) GetRPC() string {
	return c.Network.RPC
}

// GetRelayerURL returns the relayer base URL.
func (c *Config) GetRelayerURL() string {
	return c.Network.RelayerURL
}

// GetLoggingLevel returns the configured logging level.
func (c *Config) GetLoggingLevel() string {
	return c.Logging.Level
}

// GetLoggingFile returns the configured log file path.
func (c *Config) GetLoggingFile() string {
	return c.Logging.File
}

// GetOutputFormat returns the default output format.
func (c *Config) GetOutputFormat() string {
	return c.Output.DefaultFormat
}

// IsVerbose returns true if verbose output is enabled.
func (c *Config) IsVerbose() bool {
	return c.Output.Verbose
}

// DefaultHome returns the default zforge home directory.
func DefaultHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".zforge"
	}
	return filepath.Join(home, ".zforge")
}
