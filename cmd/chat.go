package cmd

import (
	"bufio"
	"context"
	"os"
	"strings"

	"github.com/packetintransit/meraki/internal/bot"
	"github.com/packetintransit/meraki/internal/logging"
	"github.com/packetintransit/meraki/internal/meraki"
)

// RunChat runs the dashboard chatbot as a terminal REPL. Unlike the
// report verbs it starts without an API key if none is configured; the
// set_api_key command supplies one mid-session.
func RunChat(configFile string) error {
	cfg, err := loadConfig(configFile)
	if err != nil {
		return err
	}

	opts := []meraki.Option{
		meraki.WithTimeout(cfg.API.Timeout()),
		meraki.WithCallInterval(cfg.API.CallInterval()),
	}
	if cfg.API != nil && cfg.API.BaseURL != "" {
		opts = append(opts, meraki.WithBaseURL(cfg.API.BaseURL))
	}
	if key := cfg.ResolveAPIKey(); key != "" {
		opts = append(opts, meraki.WithAPIKey(key))
	}
	client := meraki.New(opts...)

	log := logging.New(logging.DefaultConfig())
	b := bot.New(client, bot.WithLogger(log.WithComponent("bot")))
	ctx := context.Background()

	Printer.Println("Welcome to Meraki Dashboard API Chatbot!")
	Printer.Println("Type 'help' to see available commands or 'exit' to quit.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		Printer.Print("Meraki> ")
		if !scanner.Scan() {
			Printer.Println("Goodbye!")
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "exit", "quit", "bye":
			Printer.Println("Goodbye!")
			return nil
		}
		Printer.Println(b.Process(ctx, line))
	}
}
