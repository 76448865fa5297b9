package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/packetintransit/meraki/internal/brand"
)

// LoadDotenv loads a .env file from the working directory when one
// exists. Missing files are fine; a present-but-broken file is not.
func LoadDotenv() error {
	if _, err := os.Stat(".env"); err != nil {
		return nil
	}
	if err := godotenv.Load(); err != nil {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

// ResolveAPIKey returns the dashboard API key, trying the sources in
// priority order: the environment variable, the credentials file, then
// the api block of the loaded config. Empty means no key anywhere.
func (c *Config) ResolveAPIKey() string {
	if key := os.Getenv(brand.APIKeyEnvVar); key != "" {
		return key
	}
	if key, err := ReadCredentials(); err == nil && key != "" {
		return key
	}
	if c != nil && c.API != nil && c.API.Key != "" {
		return c.API.Key
	}
	return ""
}

// ReadCredentials reads the API key from the credentials file.
func ReadCredentials() (string, error) {
	data, err := os.ReadFile(brand.GetCredentialsPath())
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// WriteCredentials stores the API key in the credentials file, mode
// 0600. The setup wizard calls this so the key stays out of the main
// config.
func WriteCredentials(key string) error {
	dir := brand.GetConfigDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	path := brand.GetCredentialsPath()
	if err := os.WriteFile(path, []byte(strings.TrimSpace(key)+"\n"), 0600); err != nil {
		return fmt.Errorf("failed to write credentials: %w", err)
	}
	return nil
}

// RemoveCredentials deletes the stored API key. Missing is fine.
func RemoveCredentials() error {
	err := os.Remove(brand.GetCredentialsPath())
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
