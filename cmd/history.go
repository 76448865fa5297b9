package cmd

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/packetintransit/meraki/internal/clock"
	"github.com/packetintransit/meraki/internal/history"
	"github.com/packetintransit/meraki/internal/report"
)

const historyListLimit = 20

// RunHistoryList prints the most recent snapshots.
func RunHistoryList(configFile string) error {
	store, err := openHistory(configFile)
	if err != nil {
		return err
	}
	defer store.Close()

	snaps, err := store.Recent(historyListLimit)
	if err != nil {
		return err
	}
	if len(snaps) == 0 {
		Printer.Println("No snapshots recorded.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	Printer.Fprintln(w, "ID\tTAKEN\tORGANIZATION\tNETWORK\tCLIENTS\tTOTAL")
	for _, s := range snaps {
		Printer.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%s\n",
			s.ID, s.TakenAt.Local().Format("2006-01-02 15:04"),
			s.Organization, s.Network, s.Clients, report.HumanBytes(s.TotalBytes))
	}
	return w.Flush()
}

// RunHistoryShow prints one snapshot in full, breakdowns included.
func RunHistoryShow(configFile string, id int64) error {
	store, err := openHistory(configFile)
	if err != nil {
		return err
	}
	defer store.Close()

	snap, ok, err := store.Get(id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("snapshot %d not found", id)
	}

	Printer.Printf("Snapshot %d\n", snap.ID)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	Printer.Fprintf(w, "Taken:\t%s\n", snap.TakenAt.Local().Format("2006-01-02 15:04:05"))
	Printer.Fprintf(w, "Organization:\t%s\n", snap.Organization)
	Printer.Fprintf(w, "Network:\t%s\n", snap.Network)
	Printer.Fprintf(w, "Window:\t%s\n", (time.Duration(snap.TimespanSeconds) * time.Second).String())
	Printer.Fprintf(w, "Clients:\t%d\n", snap.Clients)
	Printer.Fprintf(w, "Sent:\t%s\n", report.HumanBytes(snap.SentBytes))
	Printer.Fprintf(w, "Received:\t%s\n", report.HumanBytes(snap.RecvBytes))
	Printer.Fprintf(w, "Total:\t%s\n", report.HumanBytes(snap.TotalBytes))
	if err := w.Flush(); err != nil {
		return err
	}

	if len(snap.ByOS) > 0 {
		Printer.Println("\nBy OS:")
		for _, c := range sortedCounts(snap.ByOS) {
			Printer.Printf("  %s: %d\n", c.name, c.count)
		}
	}
	if len(snap.BySSID) > 0 {
		Printer.Println("\nBy SSID:")
		for _, c := range sortedCounts(snap.BySSID) {
			Printer.Printf("  %s: %d\n", c.name, c.count)
		}
	}
	return nil
}

// RunHistoryTrend prints the client count and usage trajectory of one
// network. The network is resolved against the store itself, so the
// verb works without an API key.
func RunHistoryTrend(configFile, profile, orgFlag, netFlag string, since time.Duration) error {
	cfg, err := loadConfig(configFile)
	if err != nil {
		return err
	}
	store, err := history.Open(historyPath(cfg))
	if err != nil {
		return err
	}
	defer store.Close()

	_, netName, err := cfg.Target(profile, orgFlag, netFlag)
	if err != nil {
		return err
	}
	refs, err := store.Networks()
	if err != nil {
		return err
	}
	if len(refs) == 0 {
		Printer.Println("No snapshots recorded.")
		return nil
	}

	var target *history.NetworkRef
	if netName == "" {
		if len(refs) > 1 {
			return fmt.Errorf("history covers %d networks: pass -network to pick one", len(refs))
		}
		target = &refs[0]
	} else {
		for i := range refs {
			if refs[i].Name == netName {
				target = &refs[i]
				break
			}
		}
		if target == nil {
			return fmt.Errorf("no snapshots recorded for network '%s'", netName)
		}
	}

	clk := &clock.RealClock{}
	points, err := store.Trend(target.ID, clk.Now().Add(-since))
	if err != nil {
		return err
	}
	if len(points) == 0 {
		Printer.Printf("No snapshots for %s in the last %s.\n", target.Name, since)
		return nil
	}

	Printer.Printf("Usage trend for %s (last %s):\n\n", target.Name, since)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	Printer.Fprintln(w, "TAKEN\tCLIENTS\tTOTAL")
	for _, p := range points {
		Printer.Fprintf(w, "%s\t%d\t%s\n",
			p.TakenAt.Local().Format("2006-01-02 15:04"), p.Clients, report.HumanBytes(p.TotalBytes))
	}
	return w.Flush()
}

func openHistory(configFile string) (*history.Store, error) {
	cfg, err := loadConfig(configFile)
	if err != nil {
		return nil, err
	}
	return history.Open(historyPath(cfg))
}

type nameCount struct {
	name  string
	count int
}

func sortedCounts(m map[string]int) []nameCount {
	out := make([]nameCount, 0, len(m))
	for name, count := range m {
		out = append(out, nameCount{name, count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].name < out[j].name
	})
	return out
}
