// Package report holds the aggregation and persistence shared by the
// one-shot reporting verbs: byte formatting, timestamped file naming,
// JSON/CSV/text writers, and the pure aggregation steps that turn raw
// dashboard responses into report documents.
//
// The JSON field names are part of the interface. Downstream tooling
// parses these files, so the keys match what the reports have always
// emitted, mixed casing and all.
package report

import (
	"fmt"
)

// HumanBytes renders a byte count for humans: whole bytes below 1 KiB,
// two decimals with a unit above it (1536 -> "1.50 KB").
func HumanBytes(n float64) string {
	switch {
	case n < 1024:
		return fmt.Sprintf("%d B", int64(n))
	case n < 1024*1024:
		return fmt.Sprintf("%.2f KB", n/1024)
	case n < 1024*1024*1024:
		return fmt.Sprintf("%.2f MB", n/(1024*1024))
	case n < 1024*1024*1024*1024:
		return fmt.Sprintf("%.2f GB", n/(1024*1024*1024))
	default:
		return fmt.Sprintf("%.2f TB", n/(1024*1024*1024*1024))
	}
}

// Megabytes renders a byte count as megabytes with two decimals, the
// unit the traffic summary tables use.
func Megabytes(n float64) string {
	return fmt.Sprintf("%.2f", n/(1024*1024))
}

// Traffic is the sent/received/total triple with pre-rendered human
// strings, embedded wherever a report carries byte counters.
type Traffic struct {
	Sent          float64 `json:"sent"`
	Received      float64 `json:"received"`
	Total         float64 `json:"total"`
	SentHuman     string  `json:"sent_human"`
	ReceivedHuman string  `json:"received_human"`
	TotalHuman    string  `json:"total_human"`
}

// NewTraffic builds a Traffic where total is the sum of the parts.
func NewTraffic(sent, received float64) Traffic {
	total := sent + received
	return Traffic{
		Sent:          sent,
		Received:      received,
		Total:         total,
		SentHuman:     HumanBytes(sent),
		ReceivedHuman: HumanBytes(received),
		TotalHuman:    HumanBytes(total),
	}
}

// orUnnamed substitutes the placeholder used for devices and clients
// without a configured name.
func orUnnamed(s string) string {
	if s == "" {
		return "Unnamed"
	}
	return s
}

// orUnknown substitutes the placeholder for absent metadata fields.
func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
