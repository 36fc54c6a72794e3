package infra

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all application settings. Sensitive values can be
// overridden through environment variables after the file is loaded.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Chain struct {
		RPCURL         string `yaml:"rpc_url"`
		WalletAddress  string `yaml:"wallet_address"`
		ProgramID      string `yaml:"program_id"`
		VaultProgramID string `yaml:"vault_program_id"`
	} `yaml:"chain"`

	Markets struct {
		MetadataURL string `yaml:"metadata_url"` // protocol-published market table
	} `yaml:"markets"`

	Oracle struct {
		WSURL string `yaml:"ws_url"`
		// StaleAfterSec rejects cached prices older than this.
		StaleAfterSec int `yaml:"stale_after_sec"`
	} `yaml:"oracle"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// LoadConfig reads and parses the configuration file, applies
// environment overrides, and validates the result.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	overrideWithEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks configuration validity.
func (c *Config) Validate() error {
	if c.Chain.RPCURL == "" || (!strings.HasPrefix(c.Chain.RPCURL, "http://") && !strings.HasPrefix(c.Chain.RPCURL, "https://")) {
		return fmt.Errorf("invalid chain RPC URL: %s", c.Chain.RPCURL)
	}
	if c.Chain.ProgramID == "" {
		return fmt.Errorf("chain program id is required")
	}
	if c.Chain.VaultProgramID == "" {
		return fmt.Errorf("vault program id is required")
	}
	if c.Oracle.WSURL != "" && !strings.HasPrefix(c.Oracle.WSURL, "ws://") && !strings.HasPrefix(c.Oracle.WSURL, "wss://") {
		return fmt.Errorf("invalid oracle WS URL: %s", c.Oracle.WSURL)
	}
	if c.Oracle.StaleAfterSec < 0 {
		return fmt.Errorf("oracle stale_after_sec must not be negative")
	}
	return nil
}

func overrideWithEnv(cfg *Config) {
	if v := os.Getenv("DRIFT_RPC_URL"); v != "" {
		cfg.Chain.RPCURL = v
	}
	if v := os.Getenv("DRIFT_WALLET_ADDRESS"); v != "" {
		cfg.Chain.WalletAddress = v
	}
	if v := os.Getenv("DRIFT_ORACLE_WS_URL"); v != "" {
		cfg.Oracle.WSURL = v
	}
}
