package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/packetintransit/meraki/internal/clock"
	"github.com/packetintransit/meraki/internal/config"
	"github.com/packetintransit/meraki/internal/meraki"
	"github.com/packetintransit/meraki/internal/report"
)

// apClientTimespan is the window for the per-AP client list. Five
// minutes approximates "currently associated".
const apClientTimespan = 5 * time.Minute

// RunAPs produces the access point status and traffic report: one row
// per AP with wireless status, connection and latency stats over the
// requested window, and the currently associated clients. APs whose
// detail fetch fails are skipped with a warning.
func RunAPs(configFile, profile, orgFlag, netFlag string, days int, outFlag string) error {
	return instrumentReport("aps", func() error {
		return runAPs(configFile, profile, orgFlag, netFlag, days, outFlag)
	})
}

func runAPs(configFile, profile, orgFlag, netFlag string, days int, outFlag string) error {
	cfg, err := loadConfig(configFile)
	if err != nil {
		return err
	}
	client, err := newClient(cfg)
	if err != nil {
		return err
	}
	ctx := context.Background()

	banner("Meraki Access Points Status & Traffic Analyzer")

	org, net, err := resolveTargetVerbose(ctx, client, cfg, profile, orgFlag, netFlag)
	if err != nil {
		return err
	}

	Printer.Println("Getting devices in the network...")
	devices, err := client.NetworkDevices(ctx, net.ID)
	if err != nil {
		return fmt.Errorf("failed to list devices: %w", err)
	}

	prefixes := cfg.APModelPrefixes
	if len(prefixes) == 0 {
		prefixes = config.DefaultAPModelPrefixes
	}
	var apDevices []meraki.Device
	for _, dev := range devices {
		if report.IsAccessPoint(dev.Model, prefixes) {
			apDevices = append(apDevices, dev)
		}
	}
	Printer.Printf("Found %d access points\n", len(apDevices))

	// The network device list carries no connectivity state; the
	// org-wide status endpoint does.
	statusBySerial := make(map[string]meraki.DeviceStatus)
	if statuses, err := client.OrganizationDeviceStatuses(ctx, org.ID); err == nil {
		for _, st := range statuses {
			statusBySerial[st.Serial] = st
		}
	} else {
		Printer.Fprintf(os.Stderr, "Warning: Error retrieving device statuses: %v\n", err)
	}

	statsWindow := time.Duration(days) * 24 * time.Hour
	var aps []report.AccessPoint
	for _, dev := range apDevices {
		name := dev.Name
		if name == "" {
			name = dev.Serial
		}
		Printer.Printf("Getting details for AP: %s\n", name)

		if st, ok := statusBySerial[dev.Serial]; ok {
			dev.Status = st.Status
			dev.LastReportedAt = st.LastReportedAt
		}

		ws, err := client.WirelessStatus(ctx, dev.Serial)
		if err != nil {
			Printer.Fprintf(os.Stderr, "Warning: Error retrieving details for AP %s: %v\n", dev.Serial, err)
			continue
		}
		clients, err := client.DeviceClients(ctx, dev.Serial, apClientTimespan)
		if err != nil {
			Printer.Fprintf(os.Stderr, "Warning: Error retrieving details for AP %s: %v\n", dev.Serial, err)
			continue
		}
		conn, err := client.ConnectionStats(ctx, dev.Serial, statsWindow)
		if err != nil {
			Printer.Fprintf(os.Stderr, "Warning: Error retrieving details for AP %s: %v\n", dev.Serial, err)
			continue
		}
		lat, err := client.LatencyStats(ctx, dev.Serial, statsWindow)
		if err != nil {
			Printer.Fprintf(os.Stderr, "Warning: Error retrieving details for AP %s: %v\n", dev.Serial, err)
			continue
		}

		aps = append(aps, report.NewAccessPoint(dev, ws.Status, conn, lat, clients))
	}

	clk := &clock.RealClock{}
	rep := report.BuildAPReport(org.Name, net.Name, days, clk.Now(), aps)

	w := report.NewWriter(outputDir(cfg, outFlag), clk)
	ts := w.Timestamp()
	jsonPath, err := w.WriteJSON(report.Filename(report.PrefixAPStatus, ts, "json"), rep)
	if err != nil {
		return fmt.Errorf("failed to write JSON report: %w", err)
	}
	header, rows := rep.CSV()
	csvPath, err := w.WriteCSV(report.Filename(report.PrefixAPStatus, ts, "csv"), header, rows)
	if err != nil {
		return fmt.Errorf("failed to write CSV report: %w", err)
	}

	printAPSummary(rep, jsonPath, csvPath)
	return nil
}

func printAPSummary(rep *report.APReport, jsonPath, csvPath string) {
	Printer.Printf("\nSuccess! Found %d access points.\n", rep.TotalAccessPoints)

	Printer.Println("\nAccess Point Status Summary:")
	for _, status := range sortedKeys(rep.StatusSummary) {
		Printer.Printf("  %s: %d APs\n", status, rep.StatusSummary[status])
	}

	Printer.Println("\nAccess Point Model Summary:")
	for _, model := range sortedKeys(rep.ModelSummary) {
		Printer.Printf("  %s: %d APs\n", model, rep.ModelSummary[model])
	}

	Printer.Printf("\nTotal Connected Clients: %d\n", rep.TotalClients)

	Printer.Println("\nCurrent Traffic:")
	Printer.Printf("  Sent: %s\n", rep.TotalTraffic.SentHuman)
	Printer.Printf("  Received: %s\n", rep.TotalTraffic.ReceivedHuman)
	Printer.Printf("  Total: %s\n", rep.TotalTraffic.TotalHuman)

	Printer.Printf("\n%-20s %-10s %-10s %-8s %-12s\n", "Name", "Model", "Status", "Clients", "Traffic")
	for _, ap := range rep.SortedByClients() {
		Printer.Printf("%-20s %-10s %-10s %-8d %-12s\n",
			truncate(ap.Name, 20), ap.Model, ap.Status, ap.CurrentClients, ap.CurrentTraffic.TotalHuman)
	}

	Printer.Printf("\nDetailed results saved to %s\n", jsonPath)
	Printer.Printf("CSV report saved to %s\n", csvPath)
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
