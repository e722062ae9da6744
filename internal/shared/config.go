package shared

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
	Ingest      IngestConfig      `toml:"ingest"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Bookhive    BookhiveConfig    `toml:"bookhive"`
	OpenLibrary OpenLibraryConfig `toml:"openlibrary"`
}

// BookhiveConfig contains OAuth credentials for the hosted Bookhive catalog.
type BookhiveConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
}

// Map converts the credentials to the map shape service constructors accept.
func (b BookhiveConfig) Map() map[string]string {
	return map[string]string{
		"client_id":     b.ClientID,
		"client_secret": b.ClientSecret,
		"redirect_uri":  b.RedirectURI,
	}
}

// OpenLibraryConfig contains settings for the public book metadata service.
type OpenLibraryConfig struct {
	BaseURL   string `toml:"base_url"`
	UserAgent string `toml:"user_agent"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// IngestConfig contains cover image upload settings.
//
// MaxEncodedKB of zero means no stored-size ceiling: accepted images are
// embedded as-is without recompression.
type IngestConfig struct {
	MaxSizeMB      int    `toml:"max_size_mb"`      // raw upload ceiling
	MaxEncodedKB   int    `toml:"max_encoded_kb"`   // optional stored-size ceiling
	MaxDimensionPx int    `toml:"max_dimension_px"` // longest side after compression
	DropDir        string `toml:"drop_dir"`         // watched drag-and-drop directory
	Disabled       bool   `toml:"disabled"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	// Check if file already exists
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	// Write the embedded example config to the file
	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
