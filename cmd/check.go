package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/packetintransit/meraki/internal/brand"
	"github.com/packetintransit/meraki/internal/config"
	"github.com/packetintransit/meraki/internal/meraki"
)

// RunCheck validates the configuration and prints the effective
// settings every verb would run with. It does not touch the dashboard.
func RunCheck(configFile string, verbose bool) error {
	path := configFile
	if path == "" {
		path = brand.GetConfigPath()
	}

	exists := true
	if _, err := os.Stat(path); os.IsNotExist(err) {
		exists = false
	}

	cfg, err := loadConfig(configFile)
	if err != nil {
		return err
	}

	if exists {
		Printer.Printf("Config file: %s\n", path)
	} else {
		Printer.Printf("Config file: %s (not found, using defaults)\n", path)
	}
	Printer.Printf("API key: %s\n", keySource(cfg))

	baseURL := meraki.DefaultBaseURL
	if cfg.API != nil && cfg.API.BaseURL != "" {
		baseURL = cfg.API.BaseURL
	}
	org := cfg.Organization
	if org == "" {
		org = "(not set)"
	}
	network := cfg.Network
	if network == "" {
		network = "(not set)"
	}

	Printer.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	Printer.Fprintln(w, "SETTING\tVALUE")
	Printer.Fprintf(w, "Organization\t%s\n", org)
	Printer.Fprintf(w, "Network\t%s\n", network)
	Printer.Fprintf(w, "API base URL\t%s\n", baseURL)
	Printer.Fprintf(w, "API timeout\t%s\n", cfg.API.Timeout())
	Printer.Fprintf(w, "Call interval\t%s\n", cfg.API.CallInterval())
	Printer.Fprintf(w, "Output directory\t%s\n", outputDir(cfg, ""))
	Printer.Fprintf(w, "Web listen\t%s\n", cfg.Web.Listen)
	Printer.Fprintf(w, "History database\t%s\n", historyPath(cfg))
	Printer.Fprintf(w, "Audit enabled\t%t\n", cfg.AuditEnabled())
	if verbose {
		Printer.Fprintf(w, "AP model prefixes\t%s\n", strings.Join(cfg.APModelPrefixes, ", "))
		Printer.Fprintf(w, "Audit database\t%s\n", auditPath(cfg))
		for _, p := range cfg.Profiles {
			Printer.Fprintf(w, "Profile %s\t%s / %s\n", p.Name, p.Organization, p.Network)
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	issues := cfg.Validate()
	if len(issues) > 0 {
		Printer.Println("\nIssues:")
		for _, issue := range issues {
			Printer.Printf("  - %s\n", issue)
		}
		return fmt.Errorf("configuration has %d issue(s)", len(issues))
	}
	Printer.Println("\nConfiguration OK")
	return nil
}

// keySource reports where the API key would come from, without ever
// printing the key itself.
func keySource(cfg *config.Config) string {
	if os.Getenv(brand.APIKeyEnvVar) != "" {
		return fmt.Sprintf("configured (%s)", brand.APIKeyEnvVar)
	}
	if key, err := config.ReadCredentials(); err == nil && key != "" {
		return "configured (credentials file)"
	}
	if cfg.API != nil && cfg.API.Key != "" {
		return "configured (config file)"
	}
	return "not configured"
}
