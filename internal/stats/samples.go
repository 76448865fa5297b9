package stats

import (
	"time"

	"github.com/packetintransit/meraki/internal/meraki"
)

// Series names used by the web console's live charts.
const (
	SeriesClients = "clients"
	SeriesSent    = "sent"
	SeriesRecv    = "recv"
)

// SamplesFromClients aggregates a client list into gauge samples: the
// client count plus sent/received throughput. Usage totals cover the
// polled window, so they are divided by it to yield bytes per second.
// A non-positive window records the raw totals.
func SamplesFromClients(clients []meraki.NetworkClient, window time.Duration) map[string]float64 {
	var sent, recv float64
	for _, c := range clients {
		if c.Usage == nil {
			continue
		}
		sent += c.Usage.Sent
		recv += c.Usage.Recv
	}

	samples := map[string]float64{SeriesClients: float64(len(clients))}
	if secs := window.Seconds(); secs > 0 {
		samples[SeriesSent] = sent / secs
		samples[SeriesRecv] = recv / secs
	} else {
		samples[SeriesSent] = sent
		samples[SeriesRecv] = recv
	}
	return samples
}

// SamplesFromUplinks aggregates per-uplink usage into sent/received
// throughput samples, windowed the same way as SamplesFromClients.
func SamplesFromUplinks(uplinks []meraki.UplinkUsage, window time.Duration) map[string]float64 {
	var sent, recv float64
	for _, u := range uplinks {
		sent += u.Sent
		recv += u.Received
	}

	if secs := window.Seconds(); secs > 0 {
		sent /= secs
		recv /= secs
	}
	return map[string]float64{SeriesSent: sent, SeriesRecv: recv}
}
