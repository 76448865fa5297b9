package stats

import (
	"testing"
	"time"

	"github.com/packetintransit/meraki/internal/meraki"
)

func TestSamplesFromClients(t *testing.T) {
	clients := []meraki.NetworkClient{
		{MAC: "aa:bb:cc:00:00:01", Usage: &meraki.Usage{Sent: 600, Recv: 1200}},
		{MAC: "aa:bb:cc:00:00:02", Usage: &meraki.Usage{Sent: 300, Recv: 900}},
		{MAC: "aa:bb:cc:00:00:03"}, // no usage reported
	}

	samples := SamplesFromClients(clients, time.Minute)

	if samples[SeriesClients] != 3 {
		t.Errorf("Expected 3 clients, got %f", samples[SeriesClients])
	}
	// 900 bytes over 60s
	if samples[SeriesSent] != 15 {
		t.Errorf("Expected sent rate 15, got %f", samples[SeriesSent])
	}
	// 2100 bytes over 60s
	if samples[SeriesRecv] != 35 {
		t.Errorf("Expected recv rate 35, got %f", samples[SeriesRecv])
	}
}

func TestSamplesFromClients_NoWindow(t *testing.T) {
	clients := []meraki.NetworkClient{
		{Usage: &meraki.Usage{Sent: 500, Recv: 700}},
	}

	samples := SamplesFromClients(clients, 0)

	if samples[SeriesSent] != 500 {
		t.Errorf("Expected raw sent total 500, got %f", samples[SeriesSent])
	}
	if samples[SeriesRecv] != 700 {
		t.Errorf("Expected raw recv total 700, got %f", samples[SeriesRecv])
	}
}

func TestSamplesFromUplinks(t *testing.T) {
	uplinks := []meraki.UplinkUsage{
		{Interface: "wan1", Sent: 1200, Received: 2400},
		{Interface: "wan2", Sent: 600, Received: 600},
	}

	samples := SamplesFromUplinks(uplinks, 30*time.Second)

	if samples[SeriesSent] != 60 {
		t.Errorf("Expected sent rate 60, got %f", samples[SeriesSent])
	}
	if samples[SeriesRecv] != 100 {
		t.Errorf("Expected recv rate 100, got %f", samples[SeriesRecv])
	}
}

func TestSamplesFromUplinks_Empty(t *testing.T) {
	samples := SamplesFromUplinks(nil, time.Minute)

	if samples[SeriesSent] != 0 || samples[SeriesRecv] != 0 {
		t.Errorf("Expected zero rates, got %v", samples)
	}
}
