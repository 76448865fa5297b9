package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/packetintransit/meraki/internal/clock"
	"github.com/packetintransit/meraki/internal/report"
)

// trafficTimespans maps the interactive menu choices to their windows.
var trafficTimespans = map[string]time.Duration{
	"1": time.Hour,
	"2": 3 * time.Hour,
	"3": 12 * time.Hour,
	"4": 24 * time.Hour,
}

// RunTraffic produces the network traffic analysis: per-client usage,
// the application rollup when traffic analysis is enabled, and per
// device traffic (uplink usage for appliances, port state for
// switches). days picks the window; 0 runs the interactive menu.
func RunTraffic(configFile, profile, orgFlag, netFlag string, days int, outFlag string) error {
	return instrumentReport("traffic", func() error {
		return runTraffic(configFile, profile, orgFlag, netFlag, days, outFlag)
	})
}

func runTraffic(configFile, profile, orgFlag, netFlag string, days int, outFlag string) error {
	cfg, err := loadConfig(configFile)
	if err != nil {
		return err
	}
	client, err := newClient(cfg)
	if err != nil {
		return err
	}
	ctx := context.Background()

	_, net, err := resolveTargetVerbose(ctx, client, cfg, profile, orgFlag, netFlag)
	if err != nil {
		return err
	}

	var timespan time.Duration
	if days > 0 {
		timespan = time.Duration(days) * 24 * time.Hour
	} else {
		timespan = promptTimespan()
	}
	Printer.Printf("\nGathering traffic data for the past %d hour(s)...\n", int(timespan.Hours()))

	clients, err := client.NetworkClients(ctx, net.ID, timespan)
	if err != nil {
		return fmt.Errorf("failed to list clients: %w", err)
	}
	Printer.Printf("Found %d clients in the network\n", len(clients))

	apps, err := client.ApplicationUsage(ctx, net.ID)
	if err != nil {
		Printer.Println("Application traffic data not available for this network")
		apps = nil
	}

	devices, err := client.NetworkDevices(ctx, net.ID)
	if err != nil {
		return fmt.Errorf("failed to list devices: %w", err)
	}
	var deviceRows []report.DeviceTraffic
	for _, dev := range devices {
		name := dev.Name
		if name == "" {
			name = dev.Serial
		}
		switch {
		case strings.HasPrefix(dev.Model, "MX"):
			usage, err := client.ApplianceUplinksUsage(ctx, dev.Serial, time.Hour)
			if err != nil {
				Printer.Fprintf(os.Stderr, "Could not get traffic data for device %s: %v\n", name, err)
				continue
			}
			deviceRows = append(deviceRows, report.NewApplianceTraffic(dev, usage))
		case strings.HasPrefix(dev.Model, "MS"):
			ports, err := client.SwitchPorts(ctx, dev.Serial)
			if err != nil {
				Printer.Fprintf(os.Stderr, "Could not get traffic data for device %s: %v\n", name, err)
				continue
			}
			deviceRows = append(deviceRows, report.NewSwitchTraffic(dev, ports))
		}
	}

	rep := report.NewTrafficReport(report.NewTrafficClients(clients), apps, deviceRows)

	clk := &clock.RealClock{}
	w := report.NewWriter(outputDir(cfg, outFlag), clk)
	ts := w.Timestamp()

	header, rows := rep.ClientCSV()
	path, err := w.WriteCSV(report.Filename(report.PrefixClientCSV, ts, "csv"), header, rows)
	if err != nil {
		return fmt.Errorf("failed to write client CSV: %w", err)
	}
	Printer.Printf("\nClient traffic data saved to %s\n", path)

	path, err = w.WriteText(report.Filename(report.PrefixTrafficText, ts, "txt"), rep.SummaryText(clk.Now()))
	if err != nil {
		return fmt.Errorf("failed to write traffic summary: %w", err)
	}
	Printer.Printf("Traffic summary saved to %s\n", path)

	if len(rep.ApplicationTraffic) > 0 {
		header, rows = rep.AppCSV()
		path, err = w.WriteCSV(report.Filename(report.PrefixAppCSV, ts, "csv"), header, rows)
		if err != nil {
			return fmt.Errorf("failed to write application CSV: %w", err)
		}
		Printer.Printf("Application traffic data saved to %s\n", path)
	}

	path, err = w.WriteJSON(report.Filename(report.PrefixRawTraffic, ts, "json"), rep)
	if err != nil {
		return fmt.Errorf("failed to write raw traffic data: %w", err)
	}
	Printer.Printf("Raw traffic data saved to %s\n", path)

	Printer.Println("\nTraffic analysis complete!")
	return nil
}

// promptTimespan runs the interactive window picker. Unrecognized
// input falls through to the 24 hour window.
func promptTimespan() time.Duration {
	Printer.Println("Select the time period for traffic data:")
	Printer.Println("1. Last hour")
	Printer.Println("2. Last 3 hours")
	Printer.Println("3. Last 12 hours")
	Printer.Println("4. Last 24 hours")
	Printer.Print("Enter your choice (1-4): ")

	reader := bufio.NewReader(os.Stdin)
	choice, _ := reader.ReadString('\n')
	if ts, ok := trafficTimespans[strings.TrimSpace(choice)]; ok {
		return ts
	}
	return 24 * time.Hour
}
