// Package bot implements the chat command processor shared by the
// interactive console and the web chat: a small verb language over the
// Dashboard API with stable, human-readable replies.
//
// The reply strings are a compatibility surface. People pipe this
// output and paste it into tickets, so the wording stays put.
package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/packetintransit/meraki/internal/logging"
	"github.com/packetintransit/meraki/internal/meraki"
)

// DefaultClientTimespan is how far back the clients command looks when
// no timespan argument is given.
const DefaultClientTimespan = time.Hour

const helpText = `
Available Commands:
------------------
help                            - Show this help message
set_api_key YOUR_API_KEY        - Set your Meraki API key
get_organizations (orgs)        - List all organizations you have access to
get_networks ORG_ID (networks)  - List all networks in an organization
get_devices NETWORK_ID (devices)- List all devices in a network
get_ssids NETWORK_ID (ssids)    - List all SSIDs in a network
get_clients NETWORK_ID [TIMESPAN]- List clients in a network (default timespan: 1 hour)
get_vpn NETWORK_ID (vpn)        - Get VPN status for a network

Short command aliases are shown in parentheses.
`

// Bot processes chat commands against the Dashboard API. The API key
// lives on the client; Process refuses data commands until one is set.
type Bot struct {
	client *meraki.Client
	log    *logging.Logger
}

// Option configures a Bot.
type Option func(*Bot)

// WithLogger sets the logger commands are audited through.
func WithLogger(log *logging.Logger) Option {
	return func(b *Bot) { b.log = log }
}

// New returns a Bot speaking to the dashboard through client.
func New(client *meraki.Client, opts ...Option) *Bot {
	b := &Bot{client: client}
	for _, opt := range opts {
		opt(b)
	}
	if b.log == nil {
		b.log = logging.WithComponent("bot")
	}
	return b
}

// SetAPIKey installs key on the underlying client.
func (b *Bot) SetAPIKey(key string) string {
	b.client.SetAPIKey(key)
	return "API key has been set successfully."
}

// ClearAPIKey removes the key from the underlying client.
func (b *Bot) ClearAPIKey() {
	b.client.ClearAPIKey()
}

// HasAPIKey reports whether data commands will be accepted.
func (b *Bot) HasAPIKey() bool {
	return b.client.HasAPIKey()
}

// Process runs one command line and returns the reply text.
func (b *Bot) Process(ctx context.Context, command string) string {
	if strings.TrimSpace(command) == "" {
		return "Please enter a command."
	}

	parts := strings.Fields(command)
	cmd := strings.ToLower(parts[0])
	b.log.Debug("processing command", "cmd", cmd, "args", len(parts)-1)

	if cmd != "help" && cmd != "set_api_key" && !b.client.HasAPIKey() {
		return "Please set your API key first using: set_api_key YOUR_API_KEY"
	}

	switch cmd {
	case "help":
		return helpText
	case "set_api_key":
		if len(parts) < 2 {
			return "Please provide an API key. Usage: set_api_key YOUR_API_KEY"
		}
		return b.SetAPIKey(parts[1])
	case "get_organizations", "orgs":
		return b.organizations(ctx)
	case "get_networks", "networks":
		if len(parts) < 2 {
			return "Please provide an organization ID. Usage: get_networks ORG_ID"
		}
		return b.networks(ctx, parts[1])
	case "get_devices", "devices":
		if len(parts) < 2 {
			return "Please provide a network ID. Usage: get_devices NETWORK_ID"
		}
		return b.devices(ctx, parts[1])
	case "get_ssids", "ssids":
		if len(parts) < 2 {
			return "Please provide a network ID. Usage: get_ssids NETWORK_ID"
		}
		return b.ssids(ctx, parts[1])
	case "get_clients", "clients":
		if len(parts) < 2 {
			return "Please provide a network ID. Usage: get_clients NETWORK_ID [TIMESPAN_SECONDS]"
		}
		timespan := DefaultClientTimespan
		if len(parts) > 2 {
			if secs, err := strconv.Atoi(parts[2]); err == nil && secs > 0 {
				timespan = time.Duration(secs) * time.Second
			}
		}
		return b.clients(ctx, parts[1], timespan)
	case "get_vpn", "vpn":
		if len(parts) < 2 {
			return "Please provide a network ID. Usage: get_vpn NETWORK_ID"
		}
		return b.vpnStatus(ctx, parts[1])
	default:
		return fmt.Sprintf("Unknown command: %s. Type 'help' to see available commands.", cmd)
	}
}

func (b *Bot) organizations(ctx context.Context) string {
	orgs, err := b.client.Organizations(ctx)
	if err != nil {
		return failure("organizations", err)
	}
	lines := make([]string, 0, len(orgs))
	for _, org := range orgs {
		lines = append(lines, fmt.Sprintf("ID: %s - Name: %s", org.ID, org.Name))
	}
	return fmt.Sprintf("Found %d organizations:\n%s", len(lines), strings.Join(lines, "\n"))
}

func (b *Bot) networks(ctx context.Context, orgID string) string {
	nets, err := b.client.Networks(ctx, orgID)
	if err != nil {
		return failure("networks", err)
	}
	lines := make([]string, 0, len(nets))
	for _, net := range nets {
		lines = append(lines, fmt.Sprintf("ID: %s - Name: %s - Type: %s",
			net.ID, net.Name, strings.Join(net.ProductTypes, ",")))
	}
	return fmt.Sprintf("Found %d networks in organization %s:\n%s",
		len(lines), orgID, strings.Join(lines, "\n"))
}

func (b *Bot) devices(ctx context.Context, networkID string) string {
	devices, err := b.client.NetworkDevices(ctx, networkID)
	if err != nil {
		return failure("devices", err)
	}
	lines := make([]string, 0, len(devices))
	for _, dev := range devices {
		lines = append(lines, fmt.Sprintf("Name: %s - Model: %s - Serial: %s",
			orDefault(dev.Name, "Unnamed"), orDefault(dev.Model, "N/A"), orDefault(dev.Serial, "N/A")))
	}
	return fmt.Sprintf("Found %d devices in network %s:\n%s",
		len(lines), networkID, strings.Join(lines, "\n"))
}

func (b *Bot) ssids(ctx context.Context, networkID string) string {
	ssids, err := b.client.SSIDs(ctx, networkID)
	if err != nil {
		return failure("SSIDs", err)
	}
	lines := make([]string, 0, len(ssids))
	for _, ssid := range ssids {
		number := "N/A"
		if ssid.Number != nil {
			number = strconv.Itoa(*ssid.Number)
		}
		status := "Disabled"
		if ssid.Enabled {
			status = "Enabled"
		}
		lines = append(lines, fmt.Sprintf("Number: %s - Name: %s - Status: %s - Auth Mode: %s",
			number, orDefault(ssid.Name, "Unnamed"), status, orDefault(ssid.AuthMode, "N/A")))
	}
	return fmt.Sprintf("Found %d SSIDs in network %s:\n%s",
		len(lines), networkID, strings.Join(lines, "\n"))
}

func (b *Bot) clients(ctx context.Context, networkID string, timespan time.Duration) string {
	clients, err := b.client.NetworkClients(ctx, networkID, timespan)
	if err != nil {
		return failure("clients", err)
	}
	lines := make([]string, 0, len(clients))
	for _, c := range clients {
		lines = append(lines, fmt.Sprintf("Description: %s - MAC: %s - IP: %s - VLAN: %s",
			orDefault(c.Description, "N/A"), orDefault(c.MAC, "N/A"),
			orDefault(c.IP, "N/A"), orDefault(c.VLAN.String(), "N/A")))
	}
	return fmt.Sprintf("Found %d clients in network %s:\n%s",
		len(lines), networkID, strings.Join(lines, "\n"))
}

func (b *Bot) vpnStatus(ctx context.Context, networkID string) string {
	raw, err := b.client.VPNStatus(ctx, networkID)
	if err != nil {
		return failure("VPN status", err)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}

// failure renders an error the way replies have always reported them:
// the dashboard's status and body for API errors, 500 plus the error
// text for anything else.
func failure(what string, err error) string {
	if apiErr, ok := meraki.IsAPIError(err); ok {
		return fmt.Sprintf("Failed to retrieve %s. Status code: %d - %s", what, apiErr.StatusCode, apiErr.Body)
	}
	return fmt.Sprintf("Failed to retrieve %s. Status code: 500 - %s", what, err)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
