package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/packetintransit/meraki/internal/meraki"
)

// TrafficClient is one client's row in the traffic snapshot.
type TrafficClient struct {
	Description  string        `json:"description"`
	DHCPHostname string        `json:"dhcpHostname"`
	ID           string        `json:"id"`
	IP           string        `json:"ip"`
	MAC          string        `json:"mac"`
	Manufacturer string        `json:"manufacturer"`
	OS           string        `json:"os"`
	User         string        `json:"user"`
	Usage        UsageCounters `json:"usage"`
}

// DeviceTraffic is one device's contribution: uplink usage for
// appliances, port configuration for switches.
type DeviceTraffic struct {
	Name   string               `json:"name"`
	Model  string               `json:"model"`
	Serial string               `json:"serial"`
	Usage  []meraki.UplinkUsage `json:"usage,omitempty"`
	Ports  []meraki.SwitchPort  `json:"ports,omitempty"`
}

// NewApplianceTraffic builds a device row from an appliance's uplink
// usage.
func NewApplianceTraffic(dev meraki.Device, usage []meraki.UplinkUsage) DeviceTraffic {
	name := dev.Name
	if name == "" {
		name = dev.Serial
	}
	return DeviceTraffic{Name: name, Model: dev.Model, Serial: dev.Serial, Usage: usage}
}

// NewSwitchTraffic builds a device row from a switch's port list.
func NewSwitchTraffic(dev meraki.Device, ports []meraki.SwitchPort) DeviceTraffic {
	name := dev.Name
	if name == "" {
		name = dev.Serial
	}
	return DeviceTraffic{Name: name, Model: dev.Model, Serial: dev.Serial, Ports: ports}
}

// TrafficReport is the raw traffic export: the three collections under
// the keys the raw JSON file has always used. Client rows stay in fetch
// order here; the CSV and summary views sort their own copies.
type TrafficReport struct {
	ClientTraffic      []TrafficClient   `json:"clientTraffic"`
	ApplicationTraffic []meraki.AppUsage `json:"applicationTraffic"`
	DeviceTraffic      []DeviceTraffic   `json:"deviceTraffic"`
}

// NewTrafficClients maps raw network clients into traffic rows.
func NewTrafficClients(clients []meraki.NetworkClient) []TrafficClient {
	rows := make([]TrafficClient, 0, len(clients))
	for _, c := range clients {
		var u UsageCounters
		if c.Usage != nil {
			u = UsageCounters{Sent: c.Usage.Sent, Recv: c.Usage.Recv, Total: c.Usage.Total}
		}
		rows = append(rows, TrafficClient{
			Description:  orUnknown(c.Description),
			DHCPHostname: orUnknown(c.DHCPHostname),
			ID:           orUnknown(c.ID),
			IP:           orUnknown(c.IP),
			MAC:          orUnknown(c.MAC),
			Manufacturer: orUnknown(c.Manufacturer),
			OS:           orUnknown(c.OS),
			User:         orUnknown(c.User),
			Usage:        u,
		})
	}
	return rows
}

// NewTrafficReport assembles the export, substituting empty slices for
// nil so the JSON always carries all three keys as lists.
func NewTrafficReport(clients []TrafficClient, apps []meraki.AppUsage, devices []DeviceTraffic) *TrafficReport {
	if clients == nil {
		clients = []TrafficClient{}
	}
	if apps == nil {
		apps = []meraki.AppUsage{}
	}
	if devices == nil {
		devices = []DeviceTraffic{}
	}
	return &TrafficReport{
		ClientTraffic:      clients,
		ApplicationTraffic: apps,
		DeviceTraffic:      devices,
	}
}

// Totals sums the client counters. Unlike the usage report, total here
// is sent plus received rather than the dashboard's per-client totals.
func (r *TrafficReport) Totals() (sent, recv, total float64) {
	for _, c := range r.ClientTraffic {
		sent += c.Usage.Sent
		recv += c.Usage.Recv
	}
	return sent, recv, sent + recv
}

// SortedClients returns the client rows ordered by total usage
// descending.
func (r *TrafficReport) SortedClients() []TrafficClient {
	out := make([]TrafficClient, len(r.ClientTraffic))
	copy(out, r.ClientTraffic)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Usage.Total > out[j].Usage.Total
	})
	return out
}

// ByManufacturer rolls client usage up by manufacturer, heaviest first.
func (r *TrafficReport) ByManufacturer() []UsageShare {
	m := make(map[string]float64)
	for _, c := range r.ClientTraffic {
		m[c.Manufacturer] += c.Usage.Total
	}
	return RankUsage(m)
}

// trafficCSVHeader is the column order of the client traffic CSV.
var trafficCSVHeader = []string{
	"Description", "Hostname", "IP", "MAC", "Manufacturer",
	"OS", "User", "Sent (MB)", "Received (MB)", "Total (MB)",
}

// ClientCSV renders the client rows, sorted by usage, with byte
// counters converted to megabytes.
func (r *TrafficReport) ClientCSV() ([]string, [][]string) {
	sorted := r.SortedClients()
	rows := make([][]string, 0, len(sorted))
	for _, c := range sorted {
		rows = append(rows, []string{
			c.Description,
			c.DHCPHostname,
			c.IP,
			c.MAC,
			c.Manufacturer,
			c.OS,
			c.User,
			Megabytes(c.Usage.Sent),
			Megabytes(c.Usage.Recv),
			Megabytes(c.Usage.Total),
		})
	}
	return trafficCSVHeader, rows
}

// appCSVHeader is the column order of the application traffic CSV.
var appCSVHeader = []string{
	"Application", "Category", "Received (MB)", "Sent (MB)", "Total (MB)",
}

// AppCSV renders the application rollup. Entries without an application
// name are skipped.
func (r *TrafficReport) AppCSV() ([]string, [][]string) {
	rows := make([][]string, 0, len(r.ApplicationTraffic))
	for _, app := range r.ApplicationTraffic {
		if app.Application == "" {
			continue
		}
		category := app.Category
		if category == "" {
			category = "Unknown"
		}
		rows = append(rows, []string{
			app.Application,
			category,
			Megabytes(app.Received),
			Megabytes(app.Sent),
			Megabytes(app.Received + app.Sent),
		})
	}
	return appCSVHeader, rows
}

// SummaryText renders the plain text traffic summary: totals, the top
// ten clients, and the per-manufacturer rollup.
func (r *TrafficReport) SummaryText(now time.Time) string {
	sent, recv, total := r.Totals()
	sorted := r.SortedClients()

	var b strings.Builder
	fmt.Fprintf(&b, "Network Traffic Summary - %s\n", now.Format("2006-01-02 15:04:05"))
	b.WriteString(strings.Repeat("=", 80) + "\n\n")

	b.WriteString("Total Traffic:\n")
	fmt.Fprintf(&b, "  Sent: %s MB\n", Megabytes(sent))
	fmt.Fprintf(&b, "  Received: %s MB\n", Megabytes(recv))
	fmt.Fprintf(&b, "  Total: %s MB\n\n", Megabytes(total))

	b.WriteString("Top 10 Clients by Traffic:\n")
	top := sorted
	if len(top) > 10 {
		top = top[:10]
	}
	for i, c := range top {
		fmt.Fprintf(&b, "  %d. %s (%s): %s MB\n", i+1, c.Description, c.IP, Megabytes(c.Usage.Total))
	}

	b.WriteString("\nTraffic by Manufacturer:\n")
	for _, share := range r.ByManufacturer() {
		fmt.Fprintf(&b, "  %s: %s MB\n", share.Name, Megabytes(share.Bytes))
	}
	return b.String()
}
