package bot

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/packetintransit/meraki/internal/clock"
	"github.com/packetintransit/meraki/internal/meraki"
)

// newTestBot points a bot at a local fake dashboard. The returned bot
// has a key installed; tests for the key guard clear it themselves.
func newTestBot(t *testing.T, handler http.HandlerFunc) *Bot {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	clk := clock.NewMockClock(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	client := meraki.New(
		meraki.WithBaseURL(server.URL),
		meraki.WithAPIKey("test-key"),
		meraki.WithClock(clk),
	)
	return New(client)
}

func TestProcess_EmptyCommand(t *testing.T) {
	b := newTestBot(t, func(w http.ResponseWriter, r *http.Request) {})
	for _, cmd := range []string{"", "   "} {
		if got := b.Process(context.Background(), cmd); got != "Please enter a command." {
			t.Errorf("Process(%q) = %q", cmd, got)
		}
	}
}

func TestProcess_RequiresAPIKey(t *testing.T) {
	b := newTestBot(t, func(w http.ResponseWriter, r *http.Request) {})
	b.ClearAPIKey()

	want := "Please set your API key first using: set_api_key YOUR_API_KEY"
	if got := b.Process(context.Background(), "orgs"); got != want {
		t.Errorf("expected key guard, got %q", got)
	}
	// help and set_api_key stay available without a key
	if got := b.Process(context.Background(), "help"); !strings.Contains(got, "Available Commands:") {
		t.Errorf("help should not require a key, got %q", got)
	}
	if got := b.Process(context.Background(), "set_api_key"); got != "Please provide an API key. Usage: set_api_key YOUR_API_KEY" {
		t.Errorf("unexpected usage reply: %q", got)
	}
}

func TestProcess_SetAPIKey(t *testing.T) {
	b := newTestBot(t, func(w http.ResponseWriter, r *http.Request) {})
	b.ClearAPIKey()

	if got := b.Process(context.Background(), "set_api_key abc123"); got != "API key has been set successfully." {
		t.Errorf("unexpected reply: %q", got)
	}
	if !b.HasAPIKey() {
		t.Error("expected key to be installed")
	}
}

func TestProcess_Organizations(t *testing.T) {
	b := newTestBot(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `[{"id":"123","name":"Acme Corp"},{"id":"456","name":"Branch"}]`)
	})

	want := "Found 2 organizations:\nID: 123 - Name: Acme Corp\nID: 456 - Name: Branch"
	if got := b.Process(context.Background(), "orgs"); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
	// long form dispatches the same way
	if got := b.Process(context.Background(), "get_organizations"); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestProcess_Networks(t *testing.T) {
	b := newTestBot(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/organizations/123/networks" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `[{"id":"N_1","name":"HQ","productTypes":["appliance","switch"]}]`)
	})

	want := "Found 1 networks in organization 123:\nID: N_1 - Name: HQ - Type: appliance,switch"
	if got := b.Process(context.Background(), "networks 123"); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestProcess_NetworksUsage(t *testing.T) {
	b := newTestBot(t, func(w http.ResponseWriter, r *http.Request) {})
	want := "Please provide an organization ID. Usage: get_networks ORG_ID"
	if got := b.Process(context.Background(), "networks"); got != want {
		t.Errorf("expected usage reply, got %q", got)
	}
}

func TestProcess_Devices(t *testing.T) {
	b := newTestBot(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `[{"serial":"Q2XX-0001","model":"MR46","name":"lobby-ap"},{"serial":"Q2XX-0002"}]`)
	})

	want := "Found 2 devices in network N_1:\n" +
		"Name: lobby-ap - Model: MR46 - Serial: Q2XX-0001\n" +
		"Name: Unnamed - Model: N/A - Serial: Q2XX-0002"
	if got := b.Process(context.Background(), "devices N_1"); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestProcess_SSIDs(t *testing.T) {
	b := newTestBot(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `[{"number":0,"name":"Corp","enabled":true,"authMode":"psk"},{"number":1,"enabled":false}]`)
	})

	want := "Found 2 SSIDs in network N_1:\n" +
		"Number: 0 - Name: Corp - Status: Enabled - Auth Mode: psk\n" +
		"Number: 1 - Name: Unnamed - Status: Disabled - Auth Mode: N/A"
	if got := b.Process(context.Background(), "ssids N_1"); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestProcess_Clients(t *testing.T) {
	var gotTimespan string
	b := newTestBot(t, func(w http.ResponseWriter, r *http.Request) {
		gotTimespan = r.URL.Query().Get("timespan")
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `[{"description":"laptop","mac":"aa:bb","ip":"10.0.0.2","vlan":100}]`)
	})

	want := "Found 1 clients in network N_1:\nDescription: laptop - MAC: aa:bb - IP: 10.0.0.2 - VLAN: 100"
	if got := b.Process(context.Background(), "clients N_1"); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
	if gotTimespan != "3600" {
		t.Errorf("expected default timespan 3600, got %s", gotTimespan)
	}

	b.Process(context.Background(), "clients N_1 86400")
	if gotTimespan != "86400" {
		t.Errorf("expected timespan 86400, got %s", gotTimespan)
	}

	// junk timespan falls back to the default
	b.Process(context.Background(), "clients N_1 soon")
	if gotTimespan != "3600" {
		t.Errorf("expected fallback timespan 3600, got %s", gotTimespan)
	}
}

func TestProcess_VPN(t *testing.T) {
	b := newTestBot(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"vpnMode":"hub"}`)
	})

	want := "{\n  \"vpnMode\": \"hub\"\n}"
	if got := b.Process(context.Background(), "vpn N_1"); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestProcess_UnknownCommand(t *testing.T) {
	b := newTestBot(t, func(w http.ResponseWriter, r *http.Request) {})
	want := "Unknown command: reboot. Type 'help' to see available commands."
	if got := b.Process(context.Background(), "reboot now"); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestProcess_APIFailure(t *testing.T) {
	b := newTestBot(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"errors":["Organization not found"]}`)
	})

	got := b.Process(context.Background(), "networks 999")
	want := `Failed to retrieve networks. Status code: 404 - {"errors":["Organization not found"]}`
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestProcess_Help(t *testing.T) {
	b := newTestBot(t, func(w http.ResponseWriter, r *http.Request) {})
	got := b.Process(context.Background(), "help")
	for _, want := range []string{"set_api_key YOUR_API_KEY", "get_vpn NETWORK_ID (vpn)", "Short command aliases"} {
		if !strings.Contains(got, want) {
			t.Errorf("help text missing %q", want)
		}
	}
}
