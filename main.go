package main

import (
	"errors"
	"flag"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/packetintransit/meraki/cmd"
	"github.com/packetintransit/meraki/internal/brand"
	"github.com/packetintransit/meraki/internal/i18n"
)

var printer = i18n.NewCLIPrinter()

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "aps":
		// Access point status & client report
		apsFlags := flag.NewFlagSet("aps", flag.ExitOnError)
		configFile := apsFlags.String("config", "", "Configuration file")
		apsFlags.StringVar(configFile, "c", "", "Configuration file (short)")
		profile := apsFlags.String("profile", "", "Target profile from the configuration")
		org := apsFlags.String("org", "", "Organization name")
		network := apsFlags.String("network", "", "Network name")
		apsFlags.StringVar(network, "net", "", "Network name (short)")
		days := apsFlags.Int("days", 7, "Statistics window in days")
		out := apsFlags.String("out", "", "Output directory")
		apsFlags.Parse(os.Args[2:])

		if err := cmd.RunAPs(*configFile, *profile, *org, *network, *days, *out); err != nil {
			printer.Fprintf(os.Stderr, "AP report failed: %v\n", err)
			os.Exit(1)
		}

	case "clients":
		// Client reports: usage or events
		if len(os.Args) < 3 {
			printer.Println("Usage: " + brand.BinaryName + " clients <usage|events> [options]")
			os.Exit(1)
		}

		switch os.Args[2] {
		case "usage":
			usageFlags := flag.NewFlagSet("clients usage", flag.ExitOnError)
			configFile := usageFlags.String("config", "", "Configuration file")
			usageFlags.StringVar(configFile, "c", "", "Configuration file (short)")
			profile := usageFlags.String("profile", "", "Target profile from the configuration")
			org := usageFlags.String("org", "", "Organization name")
			network := usageFlags.String("network", "", "Network name")
			usageFlags.StringVar(network, "net", "", "Network name (short)")
			timespan := usageFlags.Int("timespan", 86400, "Usage window in seconds")
			out := usageFlags.String("out", "", "Output directory")
			usageFlags.Parse(os.Args[3:])

			window := time.Duration(*timespan) * time.Second
			if err := cmd.RunClientUsage(*configFile, *profile, *org, *network, window, *out); err != nil {
				printer.Fprintf(os.Stderr, "Client usage report failed: %v\n", err)
				os.Exit(1)
			}

		case "events":
			eventFlags := flag.NewFlagSet("clients events", flag.ExitOnError)
			configFile := eventFlags.String("config", "", "Configuration file")
			eventFlags.StringVar(configFile, "c", "", "Configuration file (short)")
			profile := eventFlags.String("profile", "", "Target profile from the configuration")
			org := eventFlags.String("org", "", "Organization name")
			network := eventFlags.String("network", "", "Network name")
			eventFlags.StringVar(network, "net", "", "Network name (short)")
			hours := eventFlags.Int("hours", 24, "Event window in hours")
			perClient := eventFlags.Int("per-client", 0, "Max events per client (0 = all)")
			out := eventFlags.String("out", "", "Output directory")
			eventFlags.Parse(os.Args[3:])

			if err := cmd.RunClientEvents(*configFile, *profile, *org, *network, *hours, *perClient, *out); err != nil {
				printer.Fprintf(os.Stderr, "Client events report failed: %v\n", err)
				os.Exit(1)
			}

		default:
			printer.Printf("Unknown clients subcommand: %s\n", os.Args[2])
			printer.Println("Usage: " + brand.BinaryName + " clients <usage|events> [options]")
			os.Exit(1)
		}

	case "devices":
		// Full inventory walk across organizations
		devFlags := flag.NewFlagSet("devices", flag.ExitOnError)
		configFile := devFlags.String("config", "", "Configuration file")
		devFlags.StringVar(configFile, "c", "", "Configuration file (short)")
		writeCSV := devFlags.Bool("csv", false, "Also write the inventory as CSV")
		out := devFlags.String("out", "", "Output directory")
		devFlags.Parse(os.Args[2:])

		if err := cmd.RunDevices(*configFile, *writeCSV, *out); err != nil {
			printer.Fprintf(os.Stderr, "Device inventory failed: %v\n", err)
			os.Exit(1)
		}

	case "traffic":
		// Network traffic analysis
		trafficFlags := flag.NewFlagSet("traffic", flag.ExitOnError)
		configFile := trafficFlags.String("config", "", "Configuration file")
		trafficFlags.StringVar(configFile, "c", "", "Configuration file (short)")
		profile := trafficFlags.String("profile", "", "Target profile from the configuration")
		org := trafficFlags.String("org", "", "Organization name")
		network := trafficFlags.String("network", "", "Network name")
		trafficFlags.StringVar(network, "net", "", "Network name (short)")
		days := trafficFlags.Int("days", 0, "Analysis window in days (0 = prompt)")
		out := trafficFlags.String("out", "", "Output directory")
		trafficFlags.Parse(os.Args[2:])

		if err := cmd.RunTraffic(*configFile, *profile, *org, *network, *days, *out); err != nil {
			printer.Fprintf(os.Stderr, "Traffic report failed: %v\n", err)
			os.Exit(1)
		}

	case "swbackup":
		// Switch configuration backup
		backupFlags := flag.NewFlagSet("swbackup", flag.ExitOnError)
		configFile := backupFlags.String("config", "", "Configuration file")
		backupFlags.StringVar(configFile, "c", "", "Configuration file (short)")
		profile := backupFlags.String("profile", "", "Target profile from the configuration")
		org := backupFlags.String("org", "", "Organization name")
		network := backupFlags.String("network", "", "Network name")
		backupFlags.StringVar(network, "net", "", "Network name (short)")
		withRoutes := backupFlags.Bool("routes", false, "Include static routes")
		withACLs := backupFlags.Bool("acls", false, "Include the network ACL")
		format := backupFlags.String("format", "txt", "Backup format: txt or yaml")
		out := backupFlags.String("out", "", "Output directory")
		backupFlags.Parse(os.Args[2:])

		if err := cmd.RunSwitchBackup(*configFile, *profile, *org, *network, *withRoutes, *withACLs, *format, *out); err != nil {
			printer.Fprintf(os.Stderr, "Switch backup failed: %v\n", err)
			os.Exit(1)
		}

	case "diff":
		// Compare two backup files
		diffFlags := flag.NewFlagSet("diff", flag.ExitOnError)
		diffFlags.Parse(os.Args[2:])

		if diffFlags.NArg() != 2 {
			printer.Println("Usage: " + brand.BinaryName + " diff <file1> <file2>")
			os.Exit(1)
		}

		err := cmd.RunDiff(diffFlags.Arg(0), diffFlags.Arg(1))
		if errors.Is(err, cmd.ErrDifferences) {
			os.Exit(1)
		}
		if err != nil {
			printer.Fprintf(os.Stderr, "Diff failed: %v\n", err)
			os.Exit(1)
		}

	case "snapshot":
		// Record a usage snapshot (once, or on a schedule with --watch)
		snapFlags := flag.NewFlagSet("snapshot", flag.ExitOnError)
		configFile := snapFlags.String("config", "", "Configuration file")
		snapFlags.StringVar(configFile, "c", "", "Configuration file (short)")
		profile := snapFlags.String("profile", "", "Target profile from the configuration")
		org := snapFlags.String("org", "", "Organization name")
		network := snapFlags.String("network", "", "Network name")
		snapFlags.StringVar(network, "net", "", "Network name (short)")
		watch := snapFlags.Bool("watch", false, "Keep snapshotting on a schedule until interrupted")
		snapFlags.BoolVar(watch, "w", false, "Watch mode (short)")
		interval := snapFlags.Duration("interval", 0, "Snapshot interval in watch mode (e.g. 15m)")
		cronExpr := snapFlags.String("cron", "", "Cron expression for watch mode")
		daily := snapFlags.String("daily", "", "Daily snapshot time in watch mode (HH:MM)")
		snapFlags.Parse(os.Args[2:])

		if err := cmd.RunSnapshot(*configFile, *profile, *org, *network, *watch, *interval, *cronExpr, *daily); err != nil {
			printer.Fprintf(os.Stderr, "Snapshot failed: %v\n", err)
			os.Exit(1)
		}

	case "history":
		// Query recorded snapshots
		sub := "list"
		rest := os.Args[2:]
		if len(rest) > 0 && !strings.HasPrefix(rest[0], "-") {
			sub = rest[0]
			rest = rest[1:]
		}

		switch sub {
		case "list":
			listFlags := flag.NewFlagSet("history list", flag.ExitOnError)
			configFile := listFlags.String("config", "", "Configuration file")
			listFlags.StringVar(configFile, "c", "", "Configuration file (short)")
			listFlags.Parse(rest)

			if err := cmd.RunHistoryList(*configFile); err != nil {
				printer.Fprintf(os.Stderr, "History list failed: %v\n", err)
				os.Exit(1)
			}

		case "show":
			showFlags := flag.NewFlagSet("history show", flag.ExitOnError)
			configFile := showFlags.String("config", "", "Configuration file")
			showFlags.StringVar(configFile, "c", "", "Configuration file (short)")
			showFlags.Parse(rest)

			if showFlags.NArg() < 1 {
				printer.Println("Usage: " + brand.BinaryName + " history show <id>")
				os.Exit(1)
			}
			id, err := strconv.ParseInt(showFlags.Arg(0), 10, 64)
			if err != nil {
				printer.Fprintf(os.Stderr, "Invalid snapshot id %q\n", showFlags.Arg(0))
				os.Exit(1)
			}

			if err := cmd.RunHistoryShow(*configFile, id); err != nil {
				printer.Fprintf(os.Stderr, "History show failed: %v\n", err)
				os.Exit(1)
			}

		case "trend":
			trendFlags := flag.NewFlagSet("history trend", flag.ExitOnError)
			configFile := trendFlags.String("config", "", "Configuration file")
			trendFlags.StringVar(configFile, "c", "", "Configuration file (short)")
			profile := trendFlags.String("profile", "", "Target profile from the configuration")
			org := trendFlags.String("org", "", "Organization name")
			network := trendFlags.String("network", "", "Network name")
			trendFlags.StringVar(network, "net", "", "Network name (short)")
			since := trendFlags.Duration("since", 7*24*time.Hour, "Trend window (e.g. 72h)")
			trendFlags.Parse(rest)

			if err := cmd.RunHistoryTrend(*configFile, *profile, *org, *network, *since); err != nil {
				printer.Fprintf(os.Stderr, "History trend failed: %v\n", err)
				os.Exit(1)
			}

		default:
			printer.Printf("Unknown history subcommand: %s\n", sub)
			printer.Println("Usage: " + brand.BinaryName + " history [list|show <id>|trend]")
			os.Exit(1)
		}

	case "shaping":
		// Traffic shaping settings: show, edit, export, import
		sub := "show"
		rest := os.Args[2:]
		if len(rest) > 0 && !strings.HasPrefix(rest[0], "-") {
			sub = rest[0]
			rest = rest[1:]
		}

		shapingFlags := flag.NewFlagSet("shaping "+sub, flag.ExitOnError)
		configFile := shapingFlags.String("config", "", "Configuration file")
		shapingFlags.StringVar(configFile, "c", "", "Configuration file (short)")
		profile := shapingFlags.String("profile", "", "Target profile from the configuration")
		org := shapingFlags.String("org", "", "Organization name")
		network := shapingFlags.String("network", "", "Network name")
		shapingFlags.StringVar(network, "net", "", "Network name (short)")
		shapingFlags.Parse(rest)

		var err error
		switch sub {
		case "show":
			err = cmd.RunShapingShow(*configFile, *profile, *org, *network)
		case "edit":
			err = cmd.RunShapingEdit(*configFile, *profile, *org, *network)
		case "export":
			if shapingFlags.NArg() < 1 {
				printer.Println("Usage: " + brand.BinaryName + " shaping export <file>")
				os.Exit(1)
			}
			err = cmd.RunShapingExport(*configFile, *profile, *org, *network, shapingFlags.Arg(0))
		case "import":
			if shapingFlags.NArg() < 1 {
				printer.Println("Usage: " + brand.BinaryName + " shaping import <file>")
				os.Exit(1)
			}
			err = cmd.RunShapingImport(*configFile, *profile, *org, *network, shapingFlags.Arg(0))
		default:
			printer.Printf("Unknown shaping subcommand: %s\n", sub)
			printer.Println("Usage: " + brand.BinaryName + " shaping [show|edit|export <file>|import <file>]")
			os.Exit(1)
		}
		if err != nil {
			printer.Fprintf(os.Stderr, "Shaping %s failed: %v\n", sub, err)
			os.Exit(1)
		}

	case "chat":
		// Interactive REPL over the command processor
		chatFlags := flag.NewFlagSet("chat", flag.ExitOnError)
		configFile := chatFlags.String("config", "", "Configuration file")
		chatFlags.StringVar(configFile, "c", "", "Configuration file (short)")
		chatFlags.Parse(os.Args[2:])

		if err := cmd.RunChat(*configFile); err != nil {
			printer.Fprintf(os.Stderr, "Chat failed: %v\n", err)
			os.Exit(1)
		}

	case "serve":
		// Web servers: chatbot UI or estate dashboard
		if len(os.Args) < 3 || strings.HasPrefix(os.Args[2], "-") {
			printer.Println("Usage: " + brand.BinaryName + " serve <chat|dashboard> [options]")
			os.Exit(1)
		}
		mode := os.Args[2]

		serveFlags := flag.NewFlagSet("serve "+mode, flag.ExitOnError)
		configFile := serveFlags.String("config", "", "Configuration file")
		serveFlags.StringVar(configFile, "c", "", "Configuration file (short)")
		listen := serveFlags.String("listen", "", "Listen address (host:port)")
		serveFlags.StringVar(listen, "l", "", "Listen address (short)")
		serveFlags.Parse(os.Args[3:])

		if err := cmd.RunServe(mode, *configFile, *listen); err != nil {
			printer.Fprintf(os.Stderr, "Serve failed: %v\n", err)
			os.Exit(1)
		}

	case "console":
		// Interactive TUI dashboard
		consoleFlags := flag.NewFlagSet("console", flag.ExitOnError)
		configFile := consoleFlags.String("config", "", "Configuration file")
		consoleFlags.StringVar(configFile, "c", "", "Configuration file (short)")
		profile := consoleFlags.String("profile", "", "Target profile from the configuration")
		org := consoleFlags.String("org", "", "Organization name")
		network := consoleFlags.String("network", "", "Network name")
		consoleFlags.StringVar(network, "net", "", "Network name (short)")
		refresh := consoleFlags.Duration("refresh", 30*time.Second, "Data refresh interval")
		consoleFlags.Parse(os.Args[2:])

		if err := cmd.RunConsole(*configFile, *profile, *org, *network, *refresh); err != nil {
			printer.Fprintf(os.Stderr, "Console failed: %v\n", err)
			os.Exit(1)
		}

	case "setup":
		// First-run setup wizard
		setupFlags := flag.NewFlagSet("setup", flag.ExitOnError)
		configFile := setupFlags.String("config", "", "Configuration file")
		setupFlags.StringVar(configFile, "c", "", "Configuration file (short)")
		setupFlags.Parse(os.Args[2:])

		if err := cmd.RunSetup(*configFile); err != nil {
			printer.Fprintf(os.Stderr, "Setup failed: %v\n", err)
			os.Exit(1)
		}

	case "check":
		// Validate a configuration file
		checkFlags := flag.NewFlagSet("check", flag.ExitOnError)
		configFile := checkFlags.String("config", "", "Configuration file")
		checkFlags.StringVar(configFile, "c", "", "Configuration file (short)")
		verbose := checkFlags.Bool("verbose", false, "Print the parsed configuration")
		checkFlags.BoolVar(verbose, "v", false, "Verbose (short)")
		checkFlags.Parse(os.Args[2:])

		// e.g. merakictl check -v myconfig.hcl
		if checkFlags.NArg() > 0 {
			*configFile = checkFlags.Arg(0)
		}

		if err := cmd.RunCheck(*configFile, *verbose); err != nil {
			printer.Fprintf(os.Stderr, "Check failed: %v\n", err)
			os.Exit(1)
		}

	case "version":
		printer.Printf("%s version %s\n", brand.Name, brand.Version)

	case "help", "-h", "--help":
		if len(os.Args) > 2 {
			printCommandHelp(os.Args[2])
		} else {
			printUsage()
		}

	default:
		printer.Printf("Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printCommandHelp(command string) {
	switch command {
	case "clients":
		printer.Printf(`Usage: %s clients <usage|events> [options]

  usage    Per-client usage report with by-OS and by-SSID rollups
           Options: --timespan <seconds> (default 86400), --out <dir>
  events   Event log report across every client on the network
           Options: --hours <n> (default 24), --per-client <n>, --out <dir>

Both take --config (-c), --profile, --org and --network (--net).
`, brand.BinaryName)
	case "history":
		printer.Printf(`Usage: %s history [list|show <id>|trend] [options]

  list     List recorded snapshots (default)
  show     Print one snapshot in full, including its clients
  trend    Client count and usage over time
           Options: --since <duration> (default 168h)
`, brand.BinaryName)
	case "shaping":
		printer.Printf(`Usage: %s shaping [show|edit|export <file>|import <file>] [options]

  show     Print the current traffic shaping settings (default)
  edit     Interactive editor for limits and shaping rules
  export   Write the shaping rules to a YAML file
  import   Apply shaping rules from a YAML file
`, brand.BinaryName)
	case "serve":
		printer.Printf(`Usage: %s serve <chat|dashboard> [options]

  chat       Web chatbot with the same commands as the REPL
  dashboard  Estate dashboard with live charts over WebSocket

Options: --listen (-l) <host:port>, --config (-c) <file>
`, brand.BinaryName)
	default:
		printer.Printf("No detailed help available for '%s'\n", command)
		printUsage()
	}
}

func printUsage() {
	printer.Printf(`%s - %s

Usage:
  %s <command> [options]

Report Commands:
  aps       Access point status and client report
            Options: --org, --network, --days <n>, --out <dir>
  clients   Per-client reports
            Subcommands: usage, events
  devices   Full device inventory across organizations
            Options: --csv, --out <dir>
  traffic   Network traffic analysis
            Options: --days <n>, --out <dir>
  swbackup  Switch configuration backup
            Options: --routes, --acls, --format txt|yaml

Snapshot Commands:
  snapshot  Record a usage snapshot of the target network
            Options: --watch (-w), --interval <dur>, --cron <expr>, --daily <HH:MM>
  history   Query recorded snapshots
            Subcommands: list, show <id>, trend
  diff      Compare two backup files (exit 1 on differences)

Management Commands:
  shaping   Show or edit traffic shaping settings
            Subcommands: show, edit, export <file>, import <file>
  chat      Interactive command REPL
  serve     Web servers
            Subcommands: chat, dashboard
  console   Interactive TUI dashboard
            Options: --refresh <dur>

Utility Commands:
  setup     First-run setup wizard
  check     Validate configuration file
            Options: --verbose (-v)
  version   Print version information

Examples:
  %s aps --org "Acme Corp" --network "HQ" --days 7
  %s clients usage --timespan 86400
  %s devices --csv
  %s swbackup --routes --acls --format yaml
  %s snapshot --watch --interval 15m
  %s shaping edit
  %s serve dashboard --listen :8080
  %s check -v

For command-specific help: %s help <command>
`,
		brand.Name, brand.Description,
		brand.BinaryName,
		brand.BinaryName, brand.BinaryName, brand.BinaryName, brand.BinaryName,
		brand.BinaryName, brand.BinaryName, brand.BinaryName, brand.BinaryName,
		brand.BinaryName)
}
