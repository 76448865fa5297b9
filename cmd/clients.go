package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/packetintransit/meraki/internal/clock"
	"github.com/packetintransit/meraki/internal/meraki"
	"github.com/packetintransit/meraki/internal/report"
)

// RunClientUsage produces the per-client usage report: every client
// seen on the network over the window, ranked by total bytes, with
// by-OS and by-SSID rollups.
func RunClientUsage(configFile, profile, orgFlag, netFlag string, timespan time.Duration, outFlag string) error {
	return instrumentReport("client_usage", func() error {
		return runClientUsage(configFile, profile, orgFlag, netFlag, timespan, outFlag)
	})
}

func runClientUsage(configFile, profile, orgFlag, netFlag string, timespan time.Duration, outFlag string) error {
	cfg, err := loadConfig(configFile)
	if err != nil {
		return err
	}
	client, err := newClient(cfg)
	if err != nil {
		return err
	}
	ctx := context.Background()

	banner("Meraki Client Usage Analyzer")

	org, net, err := resolveTargetVerbose(ctx, client, cfg, profile, orgFlag, netFlag)
	if err != nil {
		return err
	}

	Printer.Println("Getting clients in the network...")
	clients, err := client.NetworkClients(ctx, net.ID, timespan)
	if err != nil {
		return fmt.Errorf("failed to list clients: %w", err)
	}
	Printer.Printf("Found %d clients\n", len(clients))

	days := int(timespan / (24 * time.Hour))
	rep := report.BuildUsageReport(org.Name, net.Name, days, clients)

	w := report.NewWriter(outputDir(cfg, outFlag), &clock.RealClock{})
	ts := w.Timestamp()
	jsonPath, err := w.WriteJSON(report.Filename(report.PrefixClientUsage, ts, "json"), rep)
	if err != nil {
		return fmt.Errorf("failed to write JSON report: %w", err)
	}
	header, rows := rep.CSV()
	csvPath, err := w.WriteCSV(report.Filename(report.PrefixClientUsage, ts, "csv"), header, rows)
	if err != nil {
		return fmt.Errorf("failed to write CSV report: %w", err)
	}

	Printer.Printf("\nSuccess! Found %d clients.\n", rep.TotalClients)

	Printer.Println("\nTotal Network Usage:")
	Printer.Printf("  Sent: %s\n", rep.Totals.SentHuman)
	Printer.Printf("  Received: %s\n", rep.Totals.ReceivedHuman)
	Printer.Printf("  Total: %s\n", rep.Totals.TotalHuman)

	Printer.Println("\nUsage by Operating System:")
	for _, share := range report.RankUsage(rep.UsageByOS) {
		Printer.Printf("  %s: %s\n", share.Name, report.HumanBytes(share.Bytes))
	}

	Printer.Println("\nUsage by SSID/Connection:")
	for _, share := range report.RankUsage(rep.UsageBySSID) {
		Printer.Printf("  %s: %s\n", share.Name, report.HumanBytes(share.Bytes))
	}

	Printer.Println("\nTop 5 Clients by Usage:")
	for i, c := range rep.TopClients(5) {
		Printer.Printf("  %d. %s: %s\n", i+1, c.DisplayName(), report.HumanBytes(c.Usage.Total))
	}

	Printer.Printf("\nDetailed results saved to %s\n", jsonPath)
	Printer.Printf("CSV report saved to %s\n", csvPath)
	return nil
}

// RunClientEvents merges the event logs of every client on the network
// into one report. Clients whose event fetch fails are skipped with a
// warning; perClient caps how many events each client contributes.
func RunClientEvents(configFile, profile, orgFlag, netFlag string, hours, perClient int, outFlag string) error {
	return instrumentReport("client_events", func() error {
		return runClientEvents(configFile, profile, orgFlag, netFlag, hours, perClient, outFlag)
	})
}

func runClientEvents(configFile, profile, orgFlag, netFlag string, hours, perClient int, outFlag string) error {
	cfg, err := loadConfig(configFile)
	if err != nil {
		return err
	}
	client, err := newClient(cfg)
	if err != nil {
		return err
	}
	ctx := context.Background()

	org, net, err := resolveTargetVerbose(ctx, client, cfg, profile, orgFlag, netFlag)
	if err != nil {
		return err
	}
	timespan := time.Duration(hours) * time.Hour

	Printer.Println("Getting clients for network...")
	clients, err := client.NetworkClients(ctx, net.ID, timespan)
	if err != nil {
		return fmt.Errorf("failed to list clients: %w", err)
	}
	Printer.Printf("Found %d clients\n", len(clients))

	Printer.Println("Getting client events...")
	var allEvents []meraki.ClientEvent
	for _, c := range clients {
		label := c.Description
		if label == "" {
			label = c.ID
		}
		Printer.Printf("Getting events for client: %s\n", label)

		events, err := client.ClientEvents(ctx, net.ID, c.ID, timespan)
		if err != nil {
			Printer.Fprintf(os.Stderr, "Warning: Error retrieving events for client %s: %v\n", c.ID, err)
			continue
		}
		if perClient > 0 && len(events) > perClient {
			events = events[:perClient]
		}
		allEvents = append(allEvents, report.TagClientEvents(events, c)...)
	}

	rep := report.BuildEventsReport(org.Name, net.Name, len(clients), allEvents)

	w := report.NewWriter(outputDir(cfg, outFlag), &clock.RealClock{})
	jsonPath, err := w.WriteJSON(report.Filename(report.PrefixClientEvents, w.Timestamp(), "json"), rep)
	if err != nil {
		return fmt.Errorf("failed to write JSON report: %w", err)
	}

	Printer.Printf("\nSuccess! Found %d events from %d clients.\n", rep.EventCount, rep.ClientCount)
	Printer.Printf("Results saved to %s\n", jsonPath)

	Printer.Println("\nEvent Summary:")
	Printer.Println(strings.Repeat("-", 60))
	for _, tc := range rep.TypeHistogram() {
		Printer.Printf("%s: %d events\n", tc.Type, tc.Count)
	}
	return nil
}
