// Package config handles configuration, credentials and themes for eerieecho.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/diogo/eerieecho/internal/models"
)

// HomeEnv overrides the configuration directory when set
const HomeEnv = "EERIEECHO_HOME"

// Credential store backends
const (
	StoreFile    = "file"
	StoreKeyring = "keyring"
	StoreMemory  = "memory"
)

// MarkdownConfig configures markdown rendering options
type MarkdownConfig struct {
	Style            string `json:"style"`              // "crimson", "dark", "light", "dracula" or path to JSON theme
	EnableEmoji      bool   `json:"enable_emoji"`       // Convert :emoji: to unicode
	PreserveNewLines bool   `json:"preserve_newlines"`  // Keep source line breaks
	TableWrap        bool   `json:"table_wrap"`         // Enable word wrap in table cells
	InlineTableLinks bool   `json:"inline_table_links"` // Render links inline in tables
}

// Config represents the user configuration
type Config struct {
	// Theme selects the chat persona (bot name, canned replies, delays).
	Theme string `json:"theme"`
	// Model is a model name or alias ("flash", "pro").
	Model string `json:"model"`
	// TimeoutSeconds bounds a single generateContent call.
	TimeoutSeconds int `json:"timeout_seconds"`
	// CredentialStore is "file" or "keyring".
	CredentialStore string `json:"credential_store"`
	// Verbose enables debug level in the log file.
	Verbose         bool   `json:"verbose"`
	CopyToClipboard bool   `json:"copy_to_clipboard"`
	TUITheme        string `json:"tui_theme,omitempty"` // TUI color palette
	// TypewriterMillis is the per-character reveal delay; 0 disables the effect.
	TypewriterMillis int            `json:"typewriter_millis"`
	Markdown         MarkdownConfig `json:"markdown,omitempty"`
}

// DefaultMarkdownConfig returns the default markdown configuration
func DefaultMarkdownConfig() MarkdownConfig {
	return MarkdownConfig{
		Style:            "crimson",
		EnableEmoji:      true,
		PreserveNewLines: true,
		TableWrap:        true,
		InlineTableLinks: false,
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Theme:            DefaultThemeName,
		Model:            "flash",
		TimeoutSeconds:   60,
		CredentialStore:  StoreFile,
		Verbose:          false,
		CopyToClipboard:  false,
		TUITheme:         "crimson",
		TypewriterMillis: 30,
		Markdown:         DefaultMarkdownConfig(),
	}
}

// GetConfigDir returns the configuration directory path
func GetConfigDir() (string, error) {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return dir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(home, ".eerieecho"), nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist
func EnsureConfigDir() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}

	// 0o700: the directory holds the API key
	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

func configFile(name string) (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, name), nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	return configFile("config.json")
}

// GetCredentialsPath returns the path to the credentials file
func GetCredentialsPath() (string, error) {
	return configFile("credentials.json")
}

// GetLogPath returns the path to the log file
func GetLogPath() (string, error) {
	return configFile("eerieecho.log")
}

// GetThemesDir returns the directory holding user TOML themes
func GetThemesDir() (string, error) {
	return configFile("themes")
}

// LoadConfig loads the configuration from disk
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()

	configPath, err := GetConfigPath()
	if err != nil {
		return cfg, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Use defaults if config doesn't exist
		}
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("failed to parse config file: %w", err)
	}

	if cfg.TimeoutSeconds < 0 {
		cfg.TimeoutSeconds = 0
	}
	if cfg.TypewriterMillis < 0 {
		cfg.TypewriterMillis = 0
	}

	return cfg, nil
}

// SaveConfig saves the configuration to disk
func SaveConfig(cfg Config) error {
	configDir, err := EnsureConfigDir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(configDir, "config.json")

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// AvailableModels returns the model aliases accepted by --model
func AvailableModels() []string {
	all := models.AllModels()
	names := make([]string, 0, len(all))
	for _, m := range all {
		names = append(names, m.Alias)
	}
	return names
}

// AvailableStores returns the credential store backends
func AvailableStores() []string {
	return []string{StoreFile, StoreKeyring}
}
