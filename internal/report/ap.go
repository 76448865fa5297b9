package report

import (
	"sort"
	"strconv"
	"time"

	"github.com/packetintransit/meraki/internal/meraki"
)

// APWireless is the radio health block attached to each access point:
// the status endpoint's verdict plus the raw connection and latency
// stats responses for the queried timespan.
type APWireless struct {
	Status          string                  `json:"status"`
	ConnectionStats *meraki.ConnectionStats `json:"connectionStats"`
	LatencyStats    *meraki.LatencyStats    `json:"latencyStats"`
}

// AccessPoint is one AP's row in the status report. Placeholder values
// stand in for fields the dashboard left empty so the CSV never has
// holes.
type AccessPoint struct {
	Name           string                 `json:"name"`
	Serial         string                 `json:"serial"`
	Model          string                 `json:"model"`
	MAC            string                 `json:"mac"`
	Tags           []string               `json:"tags"`
	LANIP          string                 `json:"lanIp"`
	Firmware       string                 `json:"firmware"`
	NetworkID      string                 `json:"networkId"`
	Status         string                 `json:"status"`
	LastReportedAt string                 `json:"lastReportedAt"`
	Wireless       APWireless             `json:"wireless_status"`
	CurrentClients int                    `json:"currentClients"`
	ClientDetails  []meraki.NetworkClient `json:"currentClientsDetails"`
	CurrentTraffic Traffic                `json:"currentTraffic"`
}

// APReport is the full access point status document.
type APReport struct {
	Organization      string         `json:"organization"`
	Network           string         `json:"network"`
	TimespanDays      int            `json:"timespan_days"`
	Timestamp         string         `json:"timestamp"`
	TotalAccessPoints int            `json:"total_access_points"`
	TotalClients      int            `json:"total_clients"`
	TotalTraffic      Traffic        `json:"total_traffic"`
	StatusSummary     map[string]int `json:"ap_status_summary"`
	ModelSummary      map[string]int `json:"ap_model_summary"`
	AccessPoints      []AccessPoint  `json:"access_points"`
}

// IsAccessPoint reports whether a device model matches any of the
// configured AP model prefixes.
func IsAccessPoint(model string, prefixes []string) bool {
	for _, p := range prefixes {
		if p != "" && len(model) >= len(p) && model[:len(p)] == p {
			return true
		}
	}
	return false
}

// NewAccessPoint assembles one AP row from the device record, its
// wireless status, its currently connected clients, and the stats
// responses. Current traffic is summed from the client usage counters.
func NewAccessPoint(dev meraki.Device, status string, conn *meraki.ConnectionStats, lat *meraki.LatencyStats, clients []meraki.NetworkClient) AccessPoint {
	var sent, recv float64
	for _, c := range clients {
		if c.Usage != nil {
			sent += c.Usage.Sent
			recv += c.Usage.Recv
		}
	}
	tags := dev.Tags
	if tags == nil {
		tags = []string{}
	}
	if clients == nil {
		clients = []meraki.NetworkClient{}
	}
	return AccessPoint{
		Name:           orUnnamed(dev.Name),
		Serial:         dev.Serial,
		Model:          orUnknown(dev.Model),
		MAC:            orUnknown(dev.MAC),
		Tags:           tags,
		LANIP:          orUnknown(dev.LANIP),
		Firmware:       orUnknown(dev.Firmware),
		NetworkID:      orUnknown(dev.NetworkID),
		Status:         orUnknown(dev.Status),
		LastReportedAt: orUnknown(dev.LastReportedAt),
		Wireless: APWireless{
			Status:          orUnknown(status),
			ConnectionStats: conn,
			LatencyStats:    lat,
		},
		CurrentClients: len(clients),
		ClientDetails:  clients,
		CurrentTraffic: NewTraffic(sent, recv),
	}
}

// BuildAPReport aggregates the per-AP rows into the report document.
// The totals are sums over the rows, and the summaries count APs by
// status and by model.
func BuildAPReport(org, network string, days int, now time.Time, aps []AccessPoint) *APReport {
	var totalClients int
	var sent, recv float64
	statusCounts := make(map[string]int)
	modelCounts := make(map[string]int)
	for _, ap := range aps {
		totalClients += ap.CurrentClients
		sent += ap.CurrentTraffic.Sent
		recv += ap.CurrentTraffic.Received
		statusCounts[ap.Status]++
		modelCounts[ap.Model]++
	}
	if aps == nil {
		aps = []AccessPoint{}
	}
	return &APReport{
		Organization:      org,
		Network:           network,
		TimespanDays:      days,
		Timestamp:         now.Format(time.RFC3339),
		TotalAccessPoints: len(aps),
		TotalClients:      totalClients,
		TotalTraffic:      NewTraffic(sent, recv),
		StatusSummary:     statusCounts,
		ModelSummary:      modelCounts,
		AccessPoints:      aps,
	}
}

// SortedByClients returns the AP rows ordered by connected client
// count, busiest first. The receiver's order is left alone.
func (r *APReport) SortedByClients() []AccessPoint {
	out := make([]AccessPoint, len(r.AccessPoints))
	copy(out, r.AccessPoints)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CurrentClients > out[j].CurrentClients
	})
	return out
}

// apCSVHeader is the column order of the AP summary CSV.
var apCSVHeader = []string{
	"Name", "Serial", "Model", "MAC Address", "LAN IP",
	"Status", "Firmware", "Current Clients",
	"Current Traffic (Sent)", "Current Traffic (Received)",
	"Current Traffic (Total)", "Last Reported",
}

// CSV renders the report as header and rows for the summary export.
// Traffic columns carry the human strings, not raw byte counts.
func (r *APReport) CSV() ([]string, [][]string) {
	rows := make([][]string, 0, len(r.AccessPoints))
	for _, ap := range r.AccessPoints {
		rows = append(rows, []string{
			ap.Name,
			ap.Serial,
			ap.Model,
			ap.MAC,
			ap.LANIP,
			ap.Status,
			ap.Firmware,
			strconv.Itoa(ap.CurrentClients),
			ap.CurrentTraffic.SentHuman,
			ap.CurrentTraffic.ReceivedHuman,
			ap.CurrentTraffic.TotalHuman,
			ap.LastReportedAt,
		})
	}
	return apCSVHeader, rows
}
