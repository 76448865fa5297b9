package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/packetintransit/meraki/internal/clock"
	"github.com/packetintransit/meraki/internal/config"
	"github.com/packetintransit/meraki/internal/history"
	"github.com/packetintransit/meraki/internal/logging"
	"github.com/packetintransit/meraki/internal/meraki"
	"github.com/packetintransit/meraki/internal/metrics"
	"github.com/packetintransit/meraki/internal/report"
	"github.com/packetintransit/meraki/internal/scheduler"
)

// snapshotTimespan is the usage window each snapshot covers.
const snapshotTimespan = 24 * time.Hour

// defaultWatchInterval is the schedule when watch mode is started
// without one configured anywhere.
const defaultWatchInterval = 15 * time.Minute

// RunSnapshot records a usage snapshot of the target network into the
// history database, forwarding to InfluxDB when configured. In watch
// mode the scheduler keeps taking snapshots until interrupted.
func RunSnapshot(configFile, profile, orgFlag, netFlag string, watch bool, interval time.Duration, cronExpr, daily string) error {
	cfg, err := loadConfig(configFile)
	if err != nil {
		return err
	}
	client, err := newClient(cfg)
	if err != nil {
		return err
	}
	ctx := context.Background()

	org, net, err := resolveTarget(ctx, client, cfg, profile, orgFlag, netFlag)
	if err != nil {
		return err
	}

	store, err := history.Open(historyPath(cfg))
	if err != nil {
		return err
	}
	defer store.Close()

	var sink *history.InfluxSink
	if cfg.History != nil && cfg.History.Influx != nil && cfg.History.Influx.URL != "" {
		in := cfg.History.Influx
		sink = history.NewInfluxSink(in.URL, in.Token, in.Org, in.Bucket)
		defer sink.Close()
	}

	clk := &clock.RealClock{}
	take := func(ctx context.Context) error {
		err := takeSnapshot(ctx, client, store, sink, org, net, clk)
		metrics.Get().RecordSnapshot(err)
		return err
	}

	if !watch {
		return take(ctx)
	}

	schedule, err := watchSchedule(cfg, interval, cronExpr, daily)
	if err != nil {
		return err
	}

	log := logging.New(logging.DefaultConfig())
	sched := scheduler.New(log.WithComponent("scheduler"))
	if err := sched.AddTask(scheduler.NewSnapshotTask(schedule, take)); err != nil {
		return err
	}
	sched.Start()
	Printer.Printf("Watching %s / %s for usage snapshots. Press Ctrl-C to stop.\n", org.Name, net.Name)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	Printer.Println("\nStopping...")
	sched.Stop()
	return nil
}

// takeSnapshot fetches the client list, aggregates it, and records the
// result. The Influx write is best effort: the local row is already
// committed when it runs.
func takeSnapshot(ctx context.Context, client *meraki.Client, store *history.Store, sink *history.InfluxSink, org *meraki.Organization, net *meraki.Network, clk clock.Clock) error {
	clients, err := client.NetworkClients(ctx, net.ID, snapshotTimespan)
	if err != nil {
		return fmt.Errorf("failed to list clients: %w", err)
	}

	snap := buildSnapshot(clk.Now(), org, net, clients)
	id, err := store.Record(snap)
	if err != nil {
		return err
	}
	Printer.Printf("Snapshot %d recorded: %d clients, %s total\n", id, snap.Clients, report.HumanBytes(snap.TotalBytes))

	if sink != nil {
		if err := sink.Write(ctx, snap); err != nil {
			Printer.Fprintf(os.Stderr, "Warning: failed to forward snapshot to InfluxDB: %v\n", err)
		}
	}
	return nil
}

func buildSnapshot(now time.Time, org *meraki.Organization, net *meraki.Network, clients []meraki.NetworkClient) history.Snapshot {
	snap := history.Snapshot{
		TakenAt:         now,
		Organization:    org.Name,
		OrganizationID:  org.ID,
		Network:         net.Name,
		NetworkID:       net.ID,
		TimespanSeconds: int(snapshotTimespan.Seconds()),
		Clients:         len(clients),
		ByOS:            make(map[string]int),
		BySSID:          make(map[string]int),
	}
	for _, c := range clients {
		if c.Usage != nil {
			snap.SentBytes += c.Usage.Sent
			snap.RecvBytes += c.Usage.Recv
			snap.TotalBytes += c.Usage.Total
		}
		osName := c.OS
		if osName == "" {
			osName = "Other"
		}
		snap.ByOS[osName]++

		ssid := c.SSID
		if ssid == "" {
			ssid = "Not Wireless"
		}
		snap.BySSID[ssid]++
	}
	return snap
}

// watchSchedule picks the snapshot schedule: explicit flags win over
// the config file's schedule, which wins over the packaged default.
func watchSchedule(cfg *config.Config, interval time.Duration, cronExpr, daily string) (scheduler.Schedule, error) {
	switch {
	case cronExpr != "":
		return scheduler.Cron(cronExpr)
	case daily != "":
		return parseDaily(daily)
	case interval > 0:
		return scheduler.Every(interval), nil
	}
	if cfg.History != nil && cfg.History.Schedule != "" {
		return scheduler.ParseSchedule(cfg.History.Schedule)
	}
	return scheduler.Every(defaultWatchInterval), nil
}

func parseDaily(s string) (scheduler.Schedule, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid -daily value %q (want HH:MM)", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return nil, fmt.Errorf("invalid -daily value %q (want HH:MM)", s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return nil, fmt.Errorf("invalid -daily value %q (want HH:MM)", s)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return nil, fmt.Errorf("invalid -daily value %q (want HH:MM)", s)
	}
	return scheduler.Daily(hour, minute), nil
}
