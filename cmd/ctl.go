package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/packetintransit/meraki/internal/brand"
	"github.com/packetintransit/meraki/internal/clock"
	"github.com/packetintransit/meraki/internal/config"
	"github.com/packetintransit/meraki/internal/i18n"
	"github.com/packetintransit/meraki/internal/meraki"
	"github.com/packetintransit/meraki/internal/metrics"
)

// Printer is the global message printer for the CLI
var Printer = i18n.NewCLIPrinter()

// loadConfig reads the configuration file (explicit path, or the brand
// default location when empty) and overlays .env credentials. A missing
// file is not an error: the defaults let read-only verbs run with just
// the API key environment variable set.
func loadConfig(path string) (*config.Config, error) {
	if err := config.LoadDotenv(); err != nil {
		return nil, err
	}
	if path == "" {
		path = brand.GetConfigPath()
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config.Default(), nil
	}
	result, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	for _, w := range result.Warnings {
		Printer.Fprintf(os.Stderr, "Warning: %s\n", w)
	}
	return result.Config, nil
}

// newClient builds a dashboard client from the resolved API key and the
// api block. No key anywhere is a hard error with pointers to the three
// ways of providing one.
func newClient(cfg *config.Config) (*meraki.Client, error) {
	key := cfg.ResolveAPIKey()
	if key == "" {
		return nil, fmt.Errorf("no API key configured: set %s, run '%s setup', or add an api block to %s",
			brand.APIKeyEnvVar, brand.BinaryName, brand.GetConfigPath())
	}
	opts := []meraki.Option{
		meraki.WithAPIKey(key),
		meraki.WithTimeout(cfg.API.Timeout()),
		meraki.WithCallInterval(cfg.API.CallInterval()),
	}
	if cfg.API != nil && cfg.API.BaseURL != "" {
		opts = append(opts, meraki.WithBaseURL(cfg.API.BaseURL))
	}
	return meraki.New(opts...), nil
}

// resolveOrg resolves the target organization by exact name. The name
// comes from the -org flag, the selected profile, or the config file,
// in that order of precedence.
func resolveOrg(ctx context.Context, client *meraki.Client, cfg *config.Config, profile, orgFlag string) (*meraki.Organization, error) {
	orgName, _, err := cfg.Target(profile, orgFlag, "")
	if err != nil {
		return nil, err
	}
	if orgName == "" {
		return nil, fmt.Errorf("no organization configured: pass -org or set one in %s", brand.GetConfigPath())
	}
	return client.OrganizationByName(ctx, orgName)
}

// resolveTarget resolves both the organization and the network. Every
// fetch loop goes through here first so a bad name fails before any
// report work starts.
func resolveTarget(ctx context.Context, client *meraki.Client, cfg *config.Config, profile, orgFlag, netFlag string) (*meraki.Organization, *meraki.Network, error) {
	orgName, netName, err := cfg.Target(profile, orgFlag, netFlag)
	if err != nil {
		return nil, nil, err
	}
	if orgName == "" {
		return nil, nil, fmt.Errorf("no organization configured: pass -org or set one in %s", brand.GetConfigPath())
	}
	if netName == "" {
		return nil, nil, fmt.Errorf("no network configured: pass -network or set one in %s", brand.GetConfigPath())
	}
	org, err := client.OrganizationByName(ctx, orgName)
	if err != nil {
		return nil, nil, err
	}
	net, err := client.NetworkByName(ctx, org, netName)
	if err != nil {
		return nil, nil, err
	}
	return org, net, nil
}

// resolveTargetVerbose is resolveTarget with the progress lines the
// report verbs have always printed.
func resolveTargetVerbose(ctx context.Context, client *meraki.Client, cfg *config.Config, profile, orgFlag, netFlag string) (*meraki.Organization, *meraki.Network, error) {
	orgName, netName, err := cfg.Target(profile, orgFlag, netFlag)
	if err != nil {
		return nil, nil, err
	}
	if orgName == "" {
		return nil, nil, fmt.Errorf("no organization configured: pass -org or set one in %s", brand.GetConfigPath())
	}
	if netName == "" {
		return nil, nil, fmt.Errorf("no network configured: pass -network or set one in %s", brand.GetConfigPath())
	}
	Printer.Printf("Getting organization ID for: %s\n", orgName)
	org, err := client.OrganizationByName(ctx, orgName)
	if err != nil {
		return nil, nil, err
	}
	Printer.Printf("Organization ID found: %s\n", org.ID)
	Printer.Printf("Getting network ID for: %s\n", netName)
	net, err := client.NetworkByName(ctx, org, netName)
	if err != nil {
		return nil, nil, err
	}
	Printer.Printf("Network ID found: %s\n", net.ID)
	return org, net, nil
}

// outputDir picks the report directory: the -out flag wins, then the
// output block, then the packaged default.
func outputDir(cfg *config.Config, outFlag string) string {
	if outFlag != "" {
		return outFlag
	}
	if cfg.Output != nil && cfg.Output.Dir != "" {
		return cfg.Output.Dir
	}
	return config.DefaultOutputDir
}

// historyPath picks the snapshot database location: the history block,
// or history.db under the state dir.
func historyPath(cfg *config.Config) string {
	if cfg.History != nil && cfg.History.Path != "" {
		return cfg.History.Path
	}
	return filepath.Join(brand.GetStateDir(), "history.db")
}

// auditPath picks the audit database location: the audit block, or
// audit.db under the state dir.
func auditPath(cfg *config.Config) string {
	if cfg.Audit != nil && cfg.Audit.Path != "" {
		return cfg.Audit.Path
	}
	return filepath.Join(brand.GetStateDir(), "audit.db")
}

func banner(title string) {
	line := strings.Repeat("=", 60)
	Printer.Println(line)
	Printer.Println(title)
	Printer.Println(line)
}

// instrumentReport runs a report verb and records its run metric.
func instrumentReport(name string, fn func() error) error {
	start := clock.Now()
	err := fn()
	metrics.Get().RecordReportRun(name, err, clock.Since(start).Seconds())
	return err
}
