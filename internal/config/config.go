package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Mohsinsiddi/invoicex/internal/hedera"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. INVOICEX_NETWORK.
const EnvPrefix = "INVOICEX"

const (
	defaultNetwork = "testnet"
	defaultKeyring = "auto"

	configFile  = "config.json"
	walletsFile = "wallets.json"
	tokensFile  = "tokens.json"
	keyringDir  = "keyring"
)

// Load reads config from dir (or creates defaults) and applies INVOICEX_*
// environment overrides. dir defaults to $INVOICEX_CONFIG_DIR, then
// ~/.invoicex.
func Load(dir string) (*Config, error) {
	if dir == "" {
		dir = os.Getenv(EnvPrefix + "_CONFIG_DIR")
	}
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("could not determine home dir: %w", err)
		}
		dir = filepath.Join(home, ".invoicex")
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("could not create config dir: %w", err)
	}

	v := newViper(filepath.Join(dir, configFile))
	if _, err := os.Stat(v.ConfigFileUsed()); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.configDir = dir
	return cfg, nil
}

func newViper(path string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	// Every key needs a default so Unmarshal sees its env override.
	v.SetDefault("network", defaultNetwork)
	v.SetDefault("default_wallet", "")
	v.SetDefault("relay_url", "")
	v.SetDefault("mirror_node_url", "")
	v.SetDefault("keyring_backend", defaultKeyring)
	v.SetDefault("wait_for_receipt", true)
	return v
}

// Save writes the config to disk.
func (c *Config) Save() error {
	if err := os.MkdirAll(c.configDir, 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.configDir, configFile), data, 0o600)
}

// Dir returns the config directory.
func (c *Config) Dir() string {
	return c.configDir
}

// WalletsPath is where wallet metadata is stored.
func (c *Config) WalletsPath() string { return filepath.Join(c.configDir, walletsFile) }

// TokensPath is where the token registry is stored.
func (c *Config) TokensPath() string { return filepath.Join(c.configDir, tokensFile) }

// KeyringDir is the directory of the encrypted file keyring.
func (c *Config) KeyringDir() string { return filepath.Join(c.configDir, keyringDir) }

// FileKeyringOnly reports whether the OS keychain should be skipped.
func (c *Config) FileKeyringOnly() bool {
	return strings.EqualFold(c.KeyringBackend, "file")
}

// ResolveNetwork returns the named network, or the configured one when name
// is empty. Endpoint overrides only apply to the configured network.
func (c *Config) ResolveNetwork(name string) (hedera.Network, error) {
	if name == "" {
		name = c.Network
	}
	n, err := hedera.LookupNetwork(name)
	if err != nil {
		return hedera.Network{}, err
	}
	if strings.EqualFold(name, c.Network) {
		n = n.WithEndpoints(c.RelayURL, c.MirrorNodeURL)
	}
	return n, nil
}

// SetNetwork switches the configured network. Endpoint overrides belong to
// the previous network and are cleared.
func (c *Config) SetNetwork(name string) error {
	n, err := hedera.LookupNetwork(name)
	if err != nil {
		return err
	}
	if n.Name != c.Network {
		c.RelayURL = ""
		c.MirrorNodeURL = ""
	}
	c.Network = n.Name
	return nil
}
