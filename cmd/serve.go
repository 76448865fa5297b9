package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/packetintransit/meraki/internal/audit"
	"github.com/packetintransit/meraki/internal/config"
	"github.com/packetintransit/meraki/internal/history"
	"github.com/packetintransit/meraki/internal/logging"
	"github.com/packetintransit/meraki/internal/meraki"
	"github.com/packetintransit/meraki/internal/metrics"
	"github.com/packetintransit/meraki/internal/scheduler"
	"github.com/packetintransit/meraki/internal/stats"
	"github.com/packetintransit/meraki/internal/web"
)

// statsInterval is how often the dashboard server samples the target
// network for its live charts.
const statsInterval = time.Minute

// estateInterval is how often the dashboard server walks the estate
// for the inventory gauges and the /api/estate view.
const estateInterval = 5 * time.Minute

// RunServe starts one of the web surfaces: the chatbot UI or the
// estate dashboard. It blocks until interrupted.
func RunServe(mode, configFile, listen string) error {
	cfg, err := loadConfig(configFile)
	if err != nil {
		return err
	}
	log := logging.New(logging.DefaultConfig())

	opts := web.Options{
		Config: cfg,
		Logger: log.WithComponent("web"),
	}
	switch mode {
	case "chat":
		opts.Mode = web.ModeChat
	case "dashboard":
		opts.Mode = web.ModeDashboard
	default:
		return fmt.Errorf("unknown serve mode %q (want chat or dashboard)", mode)
	}

	if opts.Mode == web.ModeDashboard {
		store, err := history.Open(historyPath(cfg))
		if err != nil {
			return err
		}
		defer store.Close()
		opts.History = store

		if collector := newStatsCollector(cfg, log); collector != nil {
			opts.Stats = collector
		}
		if estate := newEstateCollector(cfg, log); estate != nil {
			opts.Estate = estate
		}

		stopPrune, err := startPruneScheduler(cfg, store, log)
		if err != nil {
			return err
		}
		defer stopPrune()
	}

	addr := listen
	if addr == "" {
		if cfg.Web != nil && cfg.Web.Listen != "" {
			addr = cfg.Web.Listen
		} else {
			addr = config.DefaultWebListen
		}
	}

	server := web.New(opts)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(addr)
	}()
	Printer.Printf("Serving %s on http://%s\n", mode, addr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		Printer.Println("\nShutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(ctx)
	}
}

// newStatsCollector samples the configured default network for the
// dashboard's live charts. It needs a server-side API key and a target
// network; without either the dashboard simply has no live series.
func newStatsCollector(cfg *config.Config, log *logging.Logger) *stats.Collector {
	key := cfg.ResolveAPIKey()
	if key == "" {
		return nil
	}
	orgName, netName, err := cfg.Target("", "", "")
	if err != nil || orgName == "" || netName == "" {
		return nil
	}

	opts := []meraki.Option{
		meraki.WithAPIKey(key),
		meraki.WithTimeout(cfg.API.Timeout()),
		meraki.WithCallInterval(cfg.API.CallInterval()),
	}
	if cfg.API != nil && cfg.API.BaseURL != "" {
		opts = append(opts, meraki.WithBaseURL(cfg.API.BaseURL))
	}
	client := meraki.New(opts...)

	// Resolve once up front; a bad name should surface at startup, not
	// on every sample.
	ctx, cancel := context.WithTimeout(context.Background(), cfg.API.Timeout())
	defer cancel()
	org, err := client.OrganizationByName(ctx, orgName)
	if err != nil {
		Printer.Fprintf(os.Stderr, "Warning: live stats disabled: %v\n", err)
		return nil
	}
	net, err := client.NetworkByName(ctx, org, netName)
	if err != nil {
		Printer.Fprintf(os.Stderr, "Warning: live stats disabled: %v\n", err)
		return nil
	}

	// When the network has an appliance its uplink counters make a
	// cleaner throughput series than summing per-client usage.
	var mxSerial string
	if devices, err := client.NetworkDevices(ctx, net.ID); err == nil {
		for _, d := range devices {
			if strings.HasPrefix(d.Model, "MX") {
				mxSerial = d.Serial
				break
			}
		}
	}

	sample := func(ctx context.Context) (map[string]float64, error) {
		clients, err := client.NetworkClients(ctx, net.ID, statsInterval)
		if err != nil {
			return nil, err
		}
		samples := stats.SamplesFromClients(clients, statsInterval)
		if mxSerial != "" {
			usage, err := client.ApplianceUplinksUsage(ctx, mxSerial, statsInterval)
			if err == nil && len(usage) > 0 {
				for k, v := range stats.SamplesFromUplinks(usage, statsInterval) {
					samples[k] = v
				}
			}
		}
		return samples, nil
	}
	return stats.NewCollector(statsInterval, sample, stats.WithLogger(log.WithComponent("stats")))
}

// newEstateCollector keeps the inventory gauges and the /api/estate
// view fresh from the daemon's own API key. Without a server-side key
// the dashboard simply has no estate view.
func newEstateCollector(cfg *config.Config, log *logging.Logger) *metrics.Collector {
	key := cfg.ResolveAPIKey()
	if key == "" {
		return nil
	}

	opts := []meraki.Option{
		meraki.WithAPIKey(key),
		meraki.WithTimeout(cfg.API.Timeout()),
		meraki.WithCallInterval(cfg.API.CallInterval()),
	}
	if cfg.API != nil && cfg.API.BaseURL != "" {
		opts = append(opts, meraki.WithBaseURL(cfg.API.BaseURL))
	}
	source := web.NewEstateSource(meraki.New(opts...))
	return metrics.NewCollector(source, estateInterval,
		metrics.WithLogger(log.WithComponent("estate")))
}

// startPruneScheduler runs the nightly retention sweep over the
// history store and, when auditing is enabled, the audit log. The
// returned stop function halts the sweep and closes the audit store.
func startPruneScheduler(cfg *config.Config, store *history.Store, log *logging.Logger) (func(), error) {
	plog := log.WithComponent("prune")

	var auditStore *audit.Store
	if cfg.AuditEnabled() {
		retention := 0
		if cfg.Audit != nil {
			retention = cfg.Audit.RetentionDays
		}
		st, err := audit.NewStore(auditPath(cfg), retention)
		if err != nil {
			return nil, err
		}
		auditStore = st
	}

	prune := func(ctx context.Context) error {
		n, err := store.Prune(cfg.History.Retention())
		if err != nil {
			return err
		}
		if n > 0 {
			plog.Info("pruned history snapshots", "removed", n)
		}
		if auditStore == nil {
			return nil
		}
		n, err = auditStore.Prune()
		if err != nil {
			return err
		}
		if n > 0 {
			plog.Info("pruned audit events", "removed", n)
		}
		return nil
	}

	sched := scheduler.New(log.WithComponent("scheduler"))
	if err := sched.AddTask(scheduler.NewAuditPruneTask(scheduler.Daily(3, 30), prune)); err != nil {
		if auditStore != nil {
			auditStore.Close()
		}
		return nil, err
	}
	sched.Start()

	return func() {
		sched.Stop()
		if auditStore != nil {
			auditStore.Close()
		}
	}, nil
}
