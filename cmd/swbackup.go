package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/packetintransit/meraki/internal/brand"
	"github.com/packetintransit/meraki/internal/clock"
	"github.com/packetintransit/meraki/internal/report"
)

// RunSwitchBackup writes one sectioned configuration file per switch in
// the network: routing interfaces and port configurations always,
// static routes and the network ACL when asked for. A switch whose
// fetch fails is reported and skipped.
func RunSwitchBackup(configFile, profile, orgFlag, netFlag string, withRoutes, withACLs bool, format, outFlag string) error {
	return instrumentReport("switch_backup", func() error {
		return runSwitchBackup(configFile, profile, orgFlag, netFlag, withRoutes, withACLs, format, outFlag)
	})
}

func runSwitchBackup(configFile, profile, orgFlag, netFlag string, withRoutes, withACLs bool, format, outFlag string) error {
	if format != "txt" && format != "yaml" {
		return fmt.Errorf("invalid format %q (want txt or yaml)", format)
	}

	cfg, err := loadConfig(configFile)
	if err != nil {
		return err
	}
	client, err := newClient(cfg)
	if err != nil {
		return err
	}
	ctx := context.Background()

	orgName, netName, err := cfg.Target(profile, orgFlag, netFlag)
	if err != nil {
		return err
	}
	if orgName == "" {
		return fmt.Errorf("no organization configured: pass -org or set one in %s", brand.GetConfigPath())
	}
	if netName == "" {
		return fmt.Errorf("no network configured: pass -network or set one in %s", brand.GetConfigPath())
	}

	Printer.Printf("Starting configuration backup for organization: %s\n", orgName)
	Printer.Printf("Looking for network: %s\n", netName)

	org, err := client.OrganizationByName(ctx, orgName)
	if err != nil {
		return err
	}
	Printer.Printf("Found organization ID: %s\n", org.ID)

	net, err := client.NetworkByName(ctx, org, netName)
	if err != nil {
		return err
	}
	Printer.Printf("Found network ID: %s\n", net.ID)

	devices, err := client.NetworkDevices(ctx, net.ID)
	if err != nil {
		return fmt.Errorf("failed to list devices: %w", err)
	}
	var switches []int
	for i, dev := range devices {
		if strings.HasPrefix(dev.Model, "MS") {
			switches = append(switches, i)
		}
	}
	if len(switches) == 0 {
		Printer.Println("No switches found in the network.")
		return nil
	}
	Printer.Printf("Found %d switches in the network.\n", len(switches))

	clk := &clock.RealClock{}
	w := report.NewWriter(outputDir(cfg, outFlag), clk)
	ts := w.Timestamp()

	for _, i := range switches {
		dev := devices[i]
		backup := &report.SwitchBackup{
			Device:       dev,
			Organization: org.Name,
			Network:      net.Name,
			BackupDate:   clk.Now(),
		}
		name := backup.Name()
		Printer.Printf("Backing up configuration for switch: %s (%s)\n", name, dev.Serial)

		interfaces, err := client.RoutingInterfaces(ctx, dev.Serial)
		if err != nil {
			Printer.Printf("  Error getting configuration for %s: %v\n", name, err)
			continue
		}
		ports, err := client.SwitchPorts(ctx, dev.Serial)
		if err != nil {
			Printer.Printf("  Error getting configuration for %s: %v\n", name, err)
			continue
		}
		backup.Interfaces = interfaces
		backup.Ports = ports

		if withRoutes {
			routes, err := client.StaticRoutes(ctx, dev.Serial)
			if err != nil {
				Printer.Printf("  Note: No static routes available for %s\n", name)
			} else {
				backup.StaticRoutes = routes
				backup.HasRoutes = true
			}
		}
		if withACLs {
			acl, err := client.SwitchACL(ctx, net.ID)
			if err != nil {
				Printer.Println("  Note: No ACLs available for network")
			} else {
				backup.ACL = acl
				backup.HasACL = true
			}
		}

		var filename, content string
		if format == "yaml" {
			filename = backup.FilenameExt(ts, "yaml")
			content, err = backup.RenderYAML()
		} else {
			filename = backup.Filename(ts)
			content, err = backup.Render()
		}
		if err != nil {
			Printer.Printf("  Error getting configuration for %s: %v\n", name, err)
			continue
		}

		path, err := w.WriteTextTo(report.BackupSubdir, filename, content)
		if err != nil {
			return fmt.Errorf("failed to write backup for %s: %w", name, err)
		}
		Printer.Printf("  Configuration saved to %s\n", path)
	}

	Printer.Println("Configuration backup complete!")
	return nil
}
