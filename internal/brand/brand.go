// Package brand provides centralized branding constants for the toolkit.
// This makes it easy to fork or white-label the tool by changing brand.json.
//
// The brand identity is loaded from brand.json at compile time via go:embed.
// This allows other tools (scripts, docs generators) to read the same file.
package brand

import (
	_ "embed"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

//go:embed brand.json
var brandJSON []byte

// Brand holds all branding information
type Brand struct {
	Name                string `json:"name"`
	LowerName           string `json:"lowerName"`
	Vendor              string `json:"vendor"`
	Website             string `json:"website"`
	Repository          string `json:"repository"`
	Description         string `json:"description"`
	Tagline             string `json:"tagline"`
	ConfigEnvPrefix     string `json:"configEnvPrefix"`
	DefaultConfigDir    string `json:"defaultConfigDir"`
	DefaultStateDir     string `json:"defaultStateDir"`
	DefaultOutputDir    string `json:"defaultOutputDir"`
	BinaryName          string `json:"binaryName"`
	ConfigFileName      string `json:"configFileName"`
	CredentialsFileName string `json:"credentialsFileName"`
	APIKeyEnvVar        string `json:"apiKeyEnvVar"`
}

var b Brand

func init() {
	if err := json.Unmarshal(brandJSON, &b); err != nil {
		panic("failed to parse brand.json: " + err.Error())
	}

	// Initialize exported variables after JSON is parsed
	Name = b.Name
	LowerName = b.LowerName
	Vendor = b.Vendor
	Website = b.Website
	Repository = b.Repository
	Description = b.Description
	Tagline = b.Tagline
	ConfigEnvPrefix = b.ConfigEnvPrefix
	DefaultConfigDir = b.DefaultConfigDir
	DefaultStateDir = b.DefaultStateDir
	DefaultOutputDir = b.DefaultOutputDir
	BinaryName = b.BinaryName
	ConfigFileName = b.ConfigFileName
	CredentialsFileName = b.CredentialsFileName
	APIKeyEnvVar = b.APIKeyEnvVar
}

// Exported variables for backward compatibility and convenience
var (
	Name                string
	LowerName           string
	Vendor              string
	Website             string
	Repository          string
	Description         string
	Tagline             string
	ConfigEnvPrefix     string
	DefaultConfigDir    string
	DefaultStateDir     string
	DefaultOutputDir    string
	BinaryName          string
	ConfigFileName      string
	CredentialsFileName string
	APIKeyEnvVar        string

	// Version is set at build time via -ldflags
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Get returns the full Brand struct
func Get() Brand {
	return b
}

// UserAgent returns a User-Agent string for HTTP requests
func UserAgent(version string) string {
	if version == "" {
		version = "dev"
	}
	return Name + "/" + version
}

// expandHome replaces a leading ~ with the current user's home directory.
// Paths that do not start with ~ are returned unchanged.
func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}

// GetConfigDir returns the config directory, checking env vars first.
// Priority: MERAKICTL_CONFIG_DIR > MERAKICTL_PREFIX/config > DefaultConfigDir
func GetConfigDir() string {
	if dir := os.Getenv(ConfigEnvPrefix + "_CONFIG_DIR"); dir != "" {
		return dir
	}
	if prefix := os.Getenv(ConfigEnvPrefix + "_PREFIX"); prefix != "" {
		return filepath.Join(prefix, "config")
	}
	return expandHome(DefaultConfigDir)
}

// GetStateDir returns the state directory for databases and session data.
// Priority: MERAKICTL_STATE_DIR > MERAKICTL_PREFIX/state > DefaultStateDir
func GetStateDir() string {
	if dir := os.Getenv(ConfigEnvPrefix + "_STATE_DIR"); dir != "" {
		return dir
	}
	if prefix := os.Getenv(ConfigEnvPrefix + "_PREFIX"); prefix != "" {
		return filepath.Join(prefix, "state")
	}
	return expandHome(DefaultStateDir)
}

// GetConfigPath returns the full path to the primary config file.
func GetConfigPath() string {
	return filepath.Join(GetConfigDir(), ConfigFileName)
}

// GetCredentialsPath returns the full path to the credentials file that
// stores the Dashboard API key when the user opts into file storage.
func GetCredentialsPath() string {
	return filepath.Join(GetConfigDir(), CredentialsFileName)
}
