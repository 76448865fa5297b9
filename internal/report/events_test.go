package report

import (
	"testing"

	"github.com/packetintransit/meraki/internal/meraki"
)

func TestTagClientEvents(t *testing.T) {
	events := []meraki.ClientEvent{
		{Type: "association", OccurredAt: "2024-03-15T09:00:00Z"},
		{Type: "dhcp", OccurredAt: "2024-03-15T09:00:05Z"},
	}
	client := meraki.NetworkClient{ID: "c1", MAC: "aa:bb:cc"}
	tagged := TagClientEvents(events, client)

	for _, ev := range tagged {
		if ev.ClientID != "c1" {
			t.Errorf("expected client id c1, got %s", ev.ClientID)
		}
		if ev.ClientMAC != "aa:bb:cc" {
			t.Errorf("expected mac aa:bb:cc, got %s", ev.ClientMAC)
		}
		if ev.ClientDescription != "Unknown" {
			t.Errorf("expected Unknown description, got %s", ev.ClientDescription)
		}
	}
}

func TestBuildEventsReport(t *testing.T) {
	events := []meraki.ClientEvent{{Type: "association"}, {Type: "dhcp"}}
	r := BuildEventsReport("Acme Corp", "HQ", 5, events)

	if r.ClientCount != 5 {
		t.Errorf("expected client count 5, got %d", r.ClientCount)
	}
	if r.EventCount != 2 {
		t.Errorf("expected event count 2, got %d", r.EventCount)
	}

	empty := BuildEventsReport("Acme Corp", "HQ", 0, nil)
	if empty.Events == nil {
		t.Error("expected non-nil events slice")
	}
}

func TestTypeHistogram(t *testing.T) {
	events := []meraki.ClientEvent{
		{Type: "dhcp"},
		{Type: "association"},
		{Type: "dhcp"},
		{Type: "dhcp"},
		{Type: "association"},
		{},
	}
	r := BuildEventsReport("Acme Corp", "HQ", 1, events)
	hist := r.TypeHistogram()

	if len(hist) != 3 {
		t.Fatalf("expected 3 types, got %d", len(hist))
	}
	if hist[0].Type != "dhcp" || hist[0].Count != 3 {
		t.Errorf("expected dhcp x3 first, got %+v", hist[0])
	}
	if hist[1].Type != "association" || hist[1].Count != 2 {
		t.Errorf("expected association x2, got %+v", hist[1])
	}
	if hist[2].Type != "Unknown" || hist[2].Count != 1 {
		t.Errorf("expected Unknown x1, got %+v", hist[2])
	}
}
