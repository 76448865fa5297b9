package report

import (
	"testing"
	"time"

	"github.com/packetintransit/meraki/internal/meraki"
)

func TestIsAccessPoint(t *testing.T) {
	prefixes := []string{"MR", "CW"}
	tests := []struct {
		model string
		want  bool
	}{
		{"MR46", true},
		{"CW9164", true},
		{"MS225-48", false},
		{"MX84", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsAccessPoint(tt.model, prefixes); got != tt.want {
			t.Errorf("IsAccessPoint(%q) = %v, want %v", tt.model, got, tt.want)
		}
	}
}

func TestNewAccessPoint(t *testing.T) {
	dev := meraki.Device{Serial: "Q2XX-0001", Model: "MR46", Status: "online"}
	clients := []meraki.NetworkClient{
		{MAC: "aa:bb", Usage: &meraki.Usage{Sent: 1000, Recv: 2000}},
		{MAC: "cc:dd", Usage: &meraki.Usage{Sent: 500, Recv: 500}},
		{MAC: "ee:ff"},
	}
	ap := NewAccessPoint(dev, "", nil, nil, clients)

	if ap.Name != "Unnamed" {
		t.Errorf("expected Unnamed, got %s", ap.Name)
	}
	if ap.MAC != "Unknown" || ap.Firmware != "Unknown" {
		t.Errorf("expected Unknown placeholders, got mac=%s firmware=%s", ap.MAC, ap.Firmware)
	}
	if ap.Wireless.Status != "Unknown" {
		t.Errorf("expected Unknown wireless status, got %s", ap.Wireless.Status)
	}
	if ap.CurrentClients != 3 {
		t.Errorf("expected 3 clients, got %d", ap.CurrentClients)
	}
	if ap.CurrentTraffic.Sent != 1500 || ap.CurrentTraffic.Received != 2500 {
		t.Errorf("unexpected traffic sums: %+v", ap.CurrentTraffic)
	}
	if ap.CurrentTraffic.Total != 4000 {
		t.Errorf("expected total 4000, got %v", ap.CurrentTraffic.Total)
	}
	if ap.Tags == nil {
		t.Error("expected non-nil tags")
	}
}

func TestBuildAPReport(t *testing.T) {
	now := time.Date(2024, 3, 15, 9, 30, 45, 0, time.UTC)
	aps := []AccessPoint{
		{Name: "ap1", Model: "MR46", Status: "online", CurrentClients: 5, CurrentTraffic: NewTraffic(100, 200)},
		{Name: "ap2", Model: "MR46", Status: "online", CurrentClients: 2, CurrentTraffic: NewTraffic(50, 50)},
		{Name: "ap3", Model: "CW9164", Status: "offline", CurrentClients: 0, CurrentTraffic: NewTraffic(0, 0)},
	}
	r := BuildAPReport("Acme Corp", "HQ", 7, now, aps)

	if r.TotalAccessPoints != 3 {
		t.Fatalf("expected 3 APs, got %d", r.TotalAccessPoints)
	}
	if r.TotalClients != 7 {
		t.Errorf("expected 7 clients, got %d", r.TotalClients)
	}
	if r.TotalTraffic.Sent != 150 || r.TotalTraffic.Received != 250 || r.TotalTraffic.Total != 400 {
		t.Errorf("unexpected totals: %+v", r.TotalTraffic)
	}
	if r.StatusSummary["online"] != 2 || r.StatusSummary["offline"] != 1 {
		t.Errorf("unexpected status summary: %v", r.StatusSummary)
	}
	if r.ModelSummary["MR46"] != 2 || r.ModelSummary["CW9164"] != 1 {
		t.Errorf("unexpected model summary: %v", r.ModelSummary)
	}
	if r.Timestamp != "2024-03-15T09:30:45Z" {
		t.Errorf("unexpected timestamp: %s", r.Timestamp)
	}

	sorted := r.SortedByClients()
	if sorted[0].Name != "ap1" || sorted[2].Name != "ap3" {
		t.Errorf("unexpected sort order: %s, %s", sorted[0].Name, sorted[2].Name)
	}
	// receiver order untouched
	if r.AccessPoints[0].Name != "ap1" {
		t.Errorf("receiver order changed: %s", r.AccessPoints[0].Name)
	}
}

func TestAPReportCSV(t *testing.T) {
	aps := []AccessPoint{
		{Name: "ap1", Serial: "Q2XX-0001", Model: "MR46", CurrentClients: 5, CurrentTraffic: NewTraffic(1024, 512)},
	}
	r := BuildAPReport("Acme Corp", "HQ", 7, time.Now(), aps)
	header, rows := r.CSV()

	if len(header) != 12 {
		t.Fatalf("expected 12 columns, got %d", len(header))
	}
	if header[0] != "Name" || header[11] != "Last Reported" {
		t.Errorf("unexpected header: %v", header)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0][7] != "5" {
		t.Errorf("expected client count 5, got %s", rows[0][7])
	}
	if rows[0][8] != "1.00 KB" || rows[0][10] != "1.50 KB" {
		t.Errorf("expected human traffic columns, got %v", rows[0][8:11])
	}
}
