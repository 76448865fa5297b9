package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/packetintransit/meraki/internal/clock"
	"github.com/packetintransit/meraki/internal/meraki"
	"github.com/packetintransit/meraki/internal/report"
)

var deviceCSVHeader = []string{
	"Organization", "Network", "Name", "Model", "Serial", "MAC", "Firmware", "Status",
}

// RunDevices walks every organization the key can see and prints the
// full inventory tree. Per-network fetch failures are warned about and
// skipped so one broken network never hides the rest of the estate.
func RunDevices(configFile string, writeCSV bool, outFlag string) error {
	return instrumentReport("devices", func() error {
		return runDevices(configFile, writeCSV, outFlag)
	})
}

func runDevices(configFile string, writeCSV bool, outFlag string) error {
	cfg, err := loadConfig(configFile)
	if err != nil {
		return err
	}
	client, err := newClient(cfg)
	if err != nil {
		return err
	}
	ctx := context.Background()

	orgs, err := client.Organizations(ctx)
	if err != nil {
		return fmt.Errorf("failed to list organizations: %w", err)
	}
	if len(orgs) == 0 {
		Printer.Println("No organizations found or invalid API key.")
		return nil
	}

	var csvRows [][]string
	grandTotal := 0
	for _, org := range orgs {
		Printer.Printf("\nFetching devices for organization: %s (ID: %s)\n", org.Name, org.ID)

		networks, err := client.Networks(ctx, org.ID)
		if err != nil {
			Printer.Fprintf(os.Stderr, "Warning: Error retrieving networks for organization %s: %v\n", org.Name, err)
			continue
		}

		orgTotal := 0
		for _, net := range networks {
			devices, err := client.NetworkDevices(ctx, net.ID)
			if err != nil {
				Printer.Fprintf(os.Stderr, "Warning: Error retrieving devices for network %s: %v\n", net.Name, err)
				continue
			}
			if len(devices) == 0 {
				continue
			}

			Printer.Printf("\nDevices in network: %s (ID: %s)\n", net.Name, net.ID)
			for _, dev := range devices {
				printDevice(dev)
				orgTotal++
				if writeCSV {
					csvRows = append(csvRows, deviceCSVRow(org, net, dev))
				}
			}
		}

		if orgTotal > 0 {
			Printer.Printf("\nTotal devices found in '%s': %d\n", org.Name, orgTotal)
		} else {
			Printer.Printf("\nNo devices found in '%s'.\n", org.Name)
		}
		grandTotal += orgTotal
	}

	if len(orgs) > 1 {
		Printer.Printf("\nTotal devices across all organizations: %d\n", grandTotal)
	}

	if writeCSV {
		w := report.NewWriter(outputDir(cfg, outFlag), &clock.RealClock{})
		name := report.Filename(report.PrefixDeviceInventory, w.Timestamp(), "csv")
		path, err := w.WriteCSV(name, deviceCSVHeader, csvRows)
		if err != nil {
			return fmt.Errorf("failed to write inventory CSV: %w", err)
		}
		Printer.Printf("\nInventory CSV saved to %s\n", path)
	}
	return nil
}

func printDevice(dev meraki.Device) {
	name := dev.Name
	if name == "" {
		name = "Unnamed"
	}
	model := dev.Model
	if model == "" {
		model = "Unknown"
	}
	serial := dev.Serial
	if serial == "" {
		serial = "N/A"
	}
	mac := dev.MAC
	if mac == "" {
		mac = "N/A"
	}
	firmware := dev.Firmware
	if firmware == "" {
		firmware = "Unknown"
	}
	status := "Offline"
	if dev.Status == "online" {
		status = "Online"
	}

	Printer.Printf("- %s (%s)\n", name, model)
	Printer.Printf("  Serial: %s\n", serial)
	Printer.Printf("  MAC: %s\n", mac)
	Printer.Printf("  Firmware: %s\n", firmware)
	Printer.Printf("  Status: %s\n", status)
}

func deviceCSVRow(org meraki.Organization, net meraki.Network, dev meraki.Device) []string {
	status := "Offline"
	if dev.Status == "online" {
		status = "Online"
	}
	return []string{org.Name, net.Name, dev.Name, dev.Model, dev.Serial, dev.MAC, dev.Firmware, status}
}
