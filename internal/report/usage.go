package report

import (
	"sort"
	"strconv"

	"github.com/packetintransit/meraki/internal/meraki"
)

// UsageCounters is a client's byte counters with total always present,
// unlike the wire type which omits a zero total.
type UsageCounters struct {
	Sent  float64 `json:"sent"`
	Recv  float64 `json:"recv"`
	Total float64 `json:"total"`
}

// ClientUsage is one client's row in the usage report.
type ClientUsage struct {
	ID           string        `json:"id"`
	Description  string        `json:"description"`
	MAC          string        `json:"mac"`
	IP           string        `json:"ip"`
	User         string        `json:"user"`
	FirstSeen    string        `json:"firstSeen"`
	LastSeen     string        `json:"lastSeen"`
	Manufacturer string        `json:"manufacturer"`
	OS           string        `json:"os"`
	Usage        UsageCounters `json:"usage"`
	Status       string        `json:"status"`
	SSID         string        `json:"ssid"`
}

// DisplayName is the label used when ranking clients: the description,
// or the MAC when no description is known.
func (c ClientUsage) DisplayName() string {
	if c.Description != "Unknown" && c.Description != "" {
		return c.Description
	}
	return c.MAC
}

// UsageTotals is the network-wide rollup. The three byte counters are
// independent sums over the client rows, so total_bytes is the sum of
// the dashboard's own per-client totals rather than sent plus received.
type UsageTotals struct {
	SentBytes     float64 `json:"sent_bytes"`
	ReceivedBytes float64 `json:"received_bytes"`
	TotalBytes    float64 `json:"total_bytes"`
	SentHuman     string  `json:"sent_human"`
	ReceivedHuman string  `json:"received_human"`
	TotalHuman    string  `json:"total_human"`
}

// UsageReport is the full client usage document. Clients are ordered by
// total usage, heaviest first.
type UsageReport struct {
	Organization string             `json:"organization"`
	Network      string             `json:"network"`
	TimespanDays int                `json:"timespan_days"`
	TotalClients int                `json:"total_clients"`
	Totals       UsageTotals        `json:"total_usage"`
	UsageByOS    map[string]float64 `json:"usage_by_os"`
	UsageBySSID  map[string]float64 `json:"usage_by_ssid"`
	Clients      []ClientUsage      `json:"clients"`
}

// BuildUsageReport maps the raw client list into report rows, sorts
// them by total usage descending, and computes the totals and the
// per-OS and per-SSID rollups. Clients without an SSID are filed under
// "Not Wireless"; unidentified operating systems roll up as "Other".
func BuildUsageReport(org, network string, days int, clients []meraki.NetworkClient) *UsageReport {
	rows := make([]ClientUsage, 0, len(clients))
	for _, c := range clients {
		var u UsageCounters
		if c.Usage != nil {
			u = UsageCounters{Sent: c.Usage.Sent, Recv: c.Usage.Recv, Total: c.Usage.Total}
		}
		ssid := c.SSID
		if ssid == "" {
			ssid = "Not Wireless"
		}
		rows = append(rows, ClientUsage{
			ID:           orUnknown(c.ID),
			Description:  orUnknown(c.Description),
			MAC:          orUnknown(c.MAC),
			IP:           orUnknown(c.IP),
			User:         orUnknown(c.User),
			FirstSeen:    orUnknown(c.FirstSeen),
			LastSeen:     orUnknown(c.LastSeen),
			Manufacturer: orUnknown(c.Manufacturer),
			OS:           orUnknown(c.OS),
			Usage:        u,
			Status:       orUnknown(c.Status),
			SSID:         ssid,
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Usage.Total > rows[j].Usage.Total
	})

	var totals UsageTotals
	byOS := make(map[string]float64)
	bySSID := make(map[string]float64)
	for _, r := range rows {
		totals.SentBytes += r.Usage.Sent
		totals.ReceivedBytes += r.Usage.Recv
		totals.TotalBytes += r.Usage.Total

		osName := r.OS
		if osName == "Unknown" {
			osName = "Other"
		}
		byOS[osName] += r.Usage.Total

		ssid := r.SSID
		if ssid == "Unknown" {
			ssid = "Other"
		}
		bySSID[ssid] += r.Usage.Total
	}
	totals.SentHuman = HumanBytes(totals.SentBytes)
	totals.ReceivedHuman = HumanBytes(totals.ReceivedBytes)
	totals.TotalHuman = HumanBytes(totals.TotalBytes)

	return &UsageReport{
		Organization: org,
		Network:      network,
		TimespanDays: days,
		TotalClients: len(clients),
		Totals:       totals,
		UsageByOS:    byOS,
		UsageBySSID:  bySSID,
		Clients:      rows,
	}
}

// TopClients returns the first n rows, which are the heaviest users
// given the report's sort order.
func (r *UsageReport) TopClients(n int) []ClientUsage {
	if n > len(r.Clients) {
		n = len(r.Clients)
	}
	return r.Clients[:n]
}

// UsageShare is one label's slice of a usage rollup.
type UsageShare struct {
	Name  string
	Bytes float64
}

// RankUsage orders a rollup map by usage descending, ties broken by
// name so output is stable.
func RankUsage(m map[string]float64) []UsageShare {
	out := make([]UsageShare, 0, len(m))
	for name, bytes := range m {
		out = append(out, UsageShare{Name: name, Bytes: bytes})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Bytes != out[j].Bytes {
			return out[i].Bytes > out[j].Bytes
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// usageCSVHeader is the column order of the usage CSV. Byte columns
// come raw and human-formatted.
var usageCSVHeader = []string{
	"Client ID", "Description", "MAC Address", "IP Address",
	"User", "OS", "Manufacturer", "SSID", "First Seen",
	"Last Seen", "Status", "Sent (B)", "Received (B)",
	"Total (B)", "Sent", "Received", "Total",
}

// CSV renders the report as header and rows for the usage export.
func (r *UsageReport) CSV() ([]string, [][]string) {
	rows := make([][]string, 0, len(r.Clients))
	for _, c := range r.Clients {
		rows = append(rows, []string{
			c.ID,
			c.Description,
			c.MAC,
			c.IP,
			c.User,
			c.OS,
			c.Manufacturer,
			c.SSID,
			c.FirstSeen,
			c.LastSeen,
			c.Status,
			formatBytes(c.Usage.Sent),
			formatBytes(c.Usage.Recv),
			formatBytes(c.Usage.Total),
			HumanBytes(c.Usage.Sent),
			HumanBytes(c.Usage.Recv),
			HumanBytes(c.Usage.Total),
		})
	}
	return usageCSVHeader, rows
}

// formatBytes renders a raw byte counter without trailing zeros.
func formatBytes(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
