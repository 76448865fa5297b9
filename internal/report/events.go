package report

import (
	"sort"

	"github.com/packetintransit/meraki/internal/meraki"
)

// EventsReport is the merged event log across every client on a
// network.
type EventsReport struct {
	Organization string               `json:"organization"`
	Network      string               `json:"network"`
	ClientCount  int                  `json:"clientCount"`
	EventCount   int                  `json:"eventCount"`
	Events       []meraki.ClientEvent `json:"events"`
}

// TagClientEvents stamps a client's identity onto its events so the
// merged log stays attributable. The dashboard's event records carry
// no client fields of their own.
func TagClientEvents(events []meraki.ClientEvent, client meraki.NetworkClient) []meraki.ClientEvent {
	for i := range events {
		events[i].ClientID = client.ID
		events[i].ClientMAC = orUnknown(client.MAC)
		events[i].ClientDescription = orUnknown(client.Description)
	}
	return events
}

// BuildEventsReport wraps the merged event list. clientCount is the
// number of clients queried, including ones whose fetch was skipped.
func BuildEventsReport(org, network string, clientCount int, events []meraki.ClientEvent) *EventsReport {
	if events == nil {
		events = []meraki.ClientEvent{}
	}
	return &EventsReport{
		Organization: org,
		Network:      network,
		ClientCount:  clientCount,
		EventCount:   len(events),
		Events:       events,
	}
}

// TypeCount is one event type's tally in the summary histogram.
type TypeCount struct {
	Type  string
	Count int
}

// TypeHistogram tallies events by type, most frequent first, ties
// broken by type name.
func (r *EventsReport) TypeHistogram() []TypeCount {
	counts := make(map[string]int)
	for _, ev := range r.Events {
		t := ev.Type
		if t == "" {
			t = "Unknown"
		}
		counts[t]++
	}
	out := make([]TypeCount, 0, len(counts))
	for t, n := range counts {
		out = append(out, TypeCount{Type: t, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Type < out[j].Type
	})
	return out
}
