// Package config contains the definition of the application config structure
// and logic required to load and update it.
package config

import (
	"context"
	"fmt"
	"os"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultRunURL is the default base URL of the Datalayer runtimes service.
	DefaultRunURL = "https://prod1.datalayer.run"

	// DefaultIAMURL is the default base URL of the Datalayer IAM service.
	DefaultIAMURL = "https://prod1.datalayer.run"

	// DefaultOAuthCallbackPort is the default port for the local OAuth
	// callback server. A free ephemeral port is probed when it is taken.
	DefaultOAuthCallbackPort = 35763
)

// Config represents the configuration of the application.
type Config struct {
	RunURL      string      `yaml:"run_url"`
	IAMURL      string      `yaml:"iam_url"`
	Credentials Credentials `yaml:"credentials"`
	OAuth       OAuthConfig `yaml:"oauth,omitempty"`
	Chat        ChatConfig  `yaml:"chat,omitempty"`
}

// Credentials contains the settings for stored-credential management.
type Credentials struct {
	// StoreType selects where tokens are persisted: "keyring" or "encrypted".
	StoreType string `yaml:"store_type"`
}

// OAuthConfig contains the settings for the browser login flow.
type OAuthConfig struct {
	// Issuer is the IAM OIDC issuer URL. Defaults to the IAM URL when empty.
	Issuer string `yaml:"issuer,omitempty"`
	// ClientID is the OAuth client registered for the CLI.
	ClientID string `yaml:"client_id,omitempty"`
	// CallbackPort is the local callback server port (0 means default).
	CallbackPort int `yaml:"callback_port,omitempty"`
}

// ChatConfig contains the settings for the AI-chat server extension.
type ChatConfig struct {
	// AgentURL is the endpoint of the upstream LLM agent the chat handler
	// forwards conversations to.
	AgentURL string `yaml:"agent_url,omitempty"`
	// Model is an optional model hint passed through to the agent.
	Model string `yaml:"model,omitempty"`
}

// defaultPathGenerator generates the default config path using xdg
var defaultPathGenerator = func() (string, error) {
	return xdg.ConfigFile("datalayer/config.yaml")
}

// getConfigPath is the current path generator, can be replaced in tests
var getConfigPath = defaultPathGenerator

// createNewConfigWithDefaults creates a new config with default values
func createNewConfigWithDefaults() Config {
	return Config{
		RunURL: DefaultRunURL,
		IAMURL: DefaultIAMURL,
		Credentials: Credentials{
			StoreType: "keyring",
		},
		OAuth: OAuthConfig{
			CallbackPort: DefaultOAuthCallbackPort,
		},
	}
}

// applyDefaults fills in zero values left behind by older config files.
func applyDefaults(config *Config) {
	if config.RunURL == "" {
		config.RunURL = DefaultRunURL
	}
	if config.IAMURL == "" {
		config.IAMURL = DefaultIAMURL
	}
	if config.Credentials.StoreType == "" {
		config.Credentials.StoreType = "keyring"
	}
	if config.OAuth.CallbackPort == 0 {
		config.OAuth.CallbackPort = DefaultOAuthCallbackPort
	}
}

// LoadOrCreateConfig fetches the application configuration.
// If it does not already exist - it will create a new config file with default values.
func LoadOrCreateConfig() (*Config, error) {
	store, err := NewConfigStore()
	if err != nil {
		return nil, fmt.Errorf("failed to create config store: %w", err)
	}

	ctx := context.Background()
	return store.Load(ctx)
}

// LoadOrCreateConfigWithPath fetches the application configuration from a specific path.
// If configPath is empty, it uses the default path.
func LoadOrCreateConfigWithPath(configPath string) (*Config, error) {
	store := NewLocalStore(configPath)

	ctx := context.Background()
	return store.Load(ctx)
}

// Save serializes the config struct and writes it to disk.
func (c *Config) save() error {
	return c.saveToPath("")
}

// saveToPath serializes the config struct and writes it to a specific path.
// If configPath is empty, it uses the default path.
func (c *Config) saveToPath(configPath string) error {
	if configPath == "" {
		var err error
		configPath, err = getConfigPath()
		if err != nil {
			return fmt.Errorf("unable to fetch config path: %w", err)
		}
	}

	configBytes, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("error serializing config file: %w", err)
	}

	err = os.WriteFile(configPath, configBytes, 0600)
	if err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}
	return nil
}

// UpdateConfig loads config from the default store, applies changes, and saves back
func UpdateConfig(updateFn func(*Config)) error {
	return UpdateConfigWithStore(nil, updateFn)
}

// UpdateConfigWithStore uses the provided store or creates a new one to update config
func UpdateConfigWithStore(store Store, updateFn func(*Config)) error {
	var err error
	if store == nil {
		store, err = NewConfigStore()
		if err != nil {
			return fmt.Errorf("failed to create config store: %w", err)
		}
	}

	ctx := context.Background()

	err = store.Update(ctx, updateFn)
	if err != nil {
		return err
	}

	// Refresh the singleton cache if it was already populated.
	lock.Lock()
	if appConfig != nil {
		config, loadErr := store.Load(ctx)
		if loadErr == nil {
			appConfig = config
		}
	}
	lock.Unlock()

	return nil
}
