package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once     sync.Once
	registry *Registry
)

// Registry holds all toolkit metrics.
type Registry struct {
	// Dashboard API client metrics
	APIRequests    *prometheus.CounterVec
	APILatency     *prometheus.HistogramVec
	APIRateLimited prometheus.Counter

	// Report metrics
	ReportRuns     *prometheus.CounterVec
	ReportDuration *prometheus.HistogramVec

	// Web server metrics
	WebRequests    *prometheus.CounterVec
	WebLatency     *prometheus.HistogramVec
	WSClients      prometheus.Gauge
	WSMessages     *prometheus.CounterVec
	SessionsActive prometheus.Gauge

	// Chat metrics
	ChatCommands *prometheus.CounterVec

	// History metrics
	SnapshotRuns *prometheus.CounterVec
	InfluxPoints *prometheus.CounterVec

	// Scheduler metrics
	SchedulerRuns *prometheus.CounterVec

	// Inventory gauges, refreshed by the overview collector
	OrganizationsTotal prometheus.Gauge
	NetworksTotal      prometheus.Gauge
	DevicesByStatus    *prometheus.GaugeVec
	ClientsActive      prometheus.Gauge
	CollectorRuns      *prometheus.CounterVec
}

// Get returns the global metrics registry, creating it if necessary.
func Get() *Registry {
	once.Do(func() {
		registry = newRegistry()
	})
	return registry
}

func newRegistry() *Registry {
	r := &Registry{}

	// Dashboard API client metrics
	r.APIRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "merakictl_dashboard_api_requests_total",
		Help: "Total requests sent to the Meraki dashboard API",
	}, []string{"method", "status"})

	r.APILatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "merakictl_dashboard_api_request_duration_seconds",
		Help:    "Dashboard API request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})

	r.APIRateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "merakictl_dashboard_api_rate_limited_total",
		Help: "Total 429 responses received from the dashboard",
	})

	// Report metrics
	r.ReportRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "merakictl_report_runs_total",
		Help: "Total report runs by report name and outcome",
	}, []string{"report", "status"})

	r.ReportDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "merakictl_report_duration_seconds",
		Help:    "End-to-end report generation time",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
	}, []string{"report"})

	// Web server metrics
	r.WebRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "merakictl_web_requests_total",
		Help: "Total HTTP requests served",
	}, []string{"method", "path", "status"})

	r.WebLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "merakictl_web_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	r.WSClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "merakictl_websocket_clients",
		Help: "Currently connected WebSocket clients",
	})

	r.WSMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "merakictl_websocket_messages_total",
		Help: "WebSocket messages published by topic",
	}, []string{"topic"})

	r.SessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "merakictl_web_sessions_active",
		Help: "Live browser sessions in the store",
	})

	// Chat metrics
	r.ChatCommands = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "merakictl_chat_commands_total",
		Help: "Chat commands processed by command name and outcome",
	}, []string{"command", "status"})

	// History metrics
	r.SnapshotRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "merakictl_snapshot_runs_total",
		Help: "Inventory snapshot runs by outcome",
	}, []string{"status"})

	r.InfluxPoints = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "merakictl_influx_points_total",
		Help: "Data points forwarded to InfluxDB by outcome",
	}, []string{"status"})

	// Scheduler metrics
	r.SchedulerRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "merakictl_scheduler_runs_total",
		Help: "Scheduled job executions by job and outcome",
	}, []string{"job", "status"})

	// Inventory gauges
	r.OrganizationsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "merakictl_organizations",
		Help: "Organizations visible to the configured API key",
	})

	r.NetworksTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "merakictl_networks",
		Help: "Networks in the monitored organization",
	})

	r.DevicesByStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "merakictl_devices",
		Help: "Devices in the monitored organization by status",
	}, []string{"status"})

	r.ClientsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "merakictl_clients_active",
		Help: "Clients seen on the monitored network in the last poll",
	})

	r.CollectorRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "merakictl_collector_runs_total",
		Help: "Overview collector polls by outcome",
	}, []string{"status"})

	return r
}

// RecordWebRequest records one served HTTP request.
func (r *Registry) RecordWebRequest(method, path string, status int, seconds float64) {
	r.WebRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	r.WebLatency.WithLabelValues(method, path).Observe(seconds)
}

// RecordReportRun records a report run and its outcome.
func (r *Registry) RecordReportRun(report string, err error, seconds float64) {
	r.ReportRuns.WithLabelValues(report, outcome(err)).Inc()
	r.ReportDuration.WithLabelValues(report).Observe(seconds)
}

// RecordChatCommand records one processed chat command.
func (r *Registry) RecordChatCommand(command string, err error) {
	r.ChatCommands.WithLabelValues(command, outcome(err)).Inc()
}

// RecordSnapshot records an inventory snapshot run.
func (r *Registry) RecordSnapshot(err error) {
	r.SnapshotRuns.WithLabelValues(outcome(err)).Inc()
}

// RecordSchedulerRun records one scheduled job execution.
func (r *Registry) RecordSchedulerRun(job string, err error) {
	r.SchedulerRuns.WithLabelValues(job, outcome(err)).Inc()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
