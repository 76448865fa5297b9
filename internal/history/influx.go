package history

import (
	"context"
	"fmt"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/packetintransit/meraki/internal/metrics"
)

// usageMeasurement is the InfluxDB measurement snapshots are written to.
const usageMeasurement = "network_usage"

// Sink receives snapshots as they are recorded.
type Sink interface {
	Write(ctx context.Context, snap Snapshot) error
}

// InfluxSink mirrors snapshots into an InfluxDB bucket.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
}

// NewInfluxSink connects to InfluxDB. The sink holds the connection
// until Close.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	client := influxdb2.NewClient(url, token)
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
	}
}

// Write sends one snapshot as a point tagged by organization and
// network.
func (s *InfluxSink) Write(ctx context.Context, snap Snapshot) error {
	p := influxdb2.NewPoint(
		usageMeasurement,
		map[string]string{
			"organization_id": snap.OrganizationID,
			"network_id":      snap.NetworkID,
			"network":         snap.Network,
		},
		map[string]interface{}{
			"clients":     snap.Clients,
			"sent_bytes":  snap.SentBytes,
			"recv_bytes":  snap.RecvBytes,
			"total_bytes": snap.TotalBytes,
		},
		snap.TakenAt,
	)
	if err := s.writeAPI.WritePoint(ctx, p); err != nil {
		metrics.Get().InfluxPoints.WithLabelValues("error").Inc()
		return fmt.Errorf("write snapshot point: %w", err)
	}
	metrics.Get().InfluxPoints.WithLabelValues("success").Inc()
	return nil
}

// Close releases the InfluxDB connection.
func (s *InfluxSink) Close() {
	s.client.Close()
}
