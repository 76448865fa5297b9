package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/packetintransit/meraki/internal/history"
	"github.com/packetintransit/meraki/internal/logging"
	"github.com/packetintransit/meraki/internal/meraki"
	"github.com/packetintransit/meraki/internal/metrics"
	"github.com/packetintransit/meraki/internal/report"
)

// Dashboard timespan defaults, in seconds. The UI slider offers the
// same steps the clients view always had.
const (
	defaultClientTimespan  = 86400
	defaultTrafficTimespan = 86400
	maxTimespan            = 2678400 // 31 days, the dashboard's own cap
)

func (s *Server) handleDashboardIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(dashboardHTML)
}

// requireKey gates the data routes on a session with an API key.
func (s *Server) requireKey(h func(http.ResponseWriter, *http.Request, *Session)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.sessions.Get(r)
		if !ok || !sess.HasAPIKey() {
			WriteErrorCtx(w, r, http.StatusUnauthorized, "API key not set")
			return
		}
		h(w, r, sess)
	}
}

// handleSetSessionKey stores the API key on the session and verifies
// it by listing organizations, mirroring how the console connects.
func (s *Server) handleSetSessionKey(w http.ResponseWriter, r *http.Request) {
	var req struct {
		APIKey string `json:"api_key"`
	}
	if !BindJSON(w, r, &req) {
		return
	}
	if req.APIKey == "" {
		WriteErrorCtx(w, r, http.StatusBadRequest, "api_key is required")
		return
	}

	sess, err := s.sessions.GetOrIssue(w, r)
	if err != nil {
		s.log.Error("issue session", "error", err)
		WriteErrorCtx(w, r, http.StatusInternalServerError, "Session error")
		return
	}

	sess.Client.SetAPIKey(req.APIKey)
	orgs, err := sess.Client.Organizations(r.Context())
	if err != nil {
		sess.Client.ClearAPIKey()
		WriteError(w, http.StatusUnauthorized, "Invalid API key", err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"organizations": len(orgs),
	})
}

func (s *Server) handleClearSessionKey(w http.ResponseWriter, r *http.Request) {
	if sess, ok := s.sessions.Get(r); ok {
		sess.Client.ClearAPIKey()
	}
	WriteSuccess(w)
}

func (s *Server) handleOrganizations(w http.ResponseWriter, r *http.Request, sess *Session) {
	orgs, err := sess.Client.Organizations(r.Context())
	if err != nil {
		s.apiError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, orgs)
}

func (s *Server) handleNetworks(w http.ResponseWriter, r *http.Request, sess *Session) {
	orgID := r.URL.Query().Get("org")
	if orgID == "" {
		WriteErrorCtx(w, r, http.StatusBadRequest, "Missing org parameter")
		return
	}
	nets, err := sess.Client.Networks(r.Context(), orgID)
	if err != nil {
		s.apiError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, nets)
}

// overviewResponse summarizes one organization for the dashboard's
// landing tab.
type overviewResponse struct {
	Organization     string         `json:"organization"`
	Networks         int            `json:"networks"`
	WirelessNetworks int            `json:"wireless_networks"`
	Devices          int            `json:"devices"`
	Online           int            `json:"online"`
	AccessPoints     int            `json:"access_points"`
	ByStatus         map[string]int `json:"by_status"`
	ByModel          map[string]int `json:"by_model"`
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request, sess *Session) {
	orgID := r.URL.Query().Get("org")
	if orgID == "" {
		WriteErrorCtx(w, r, http.StatusBadRequest, "Missing org parameter")
		return
	}

	nets, err := sess.Client.Networks(r.Context(), orgID)
	if err != nil {
		s.apiError(w, err)
		return
	}
	statuses, err := sess.Client.OrganizationDeviceStatuses(r.Context(), orgID)
	if err != nil {
		s.apiError(w, err)
		return
	}

	resp := overviewResponse{
		Organization: orgID,
		Networks:     len(nets),
		Devices:      len(statuses),
		ByStatus:     make(map[string]int),
		ByModel:      make(map[string]int),
	}
	for _, net := range nets {
		for _, pt := range net.ProductTypes {
			if pt == "wireless" {
				resp.WirelessNetworks++
				break
			}
		}
	}
	for _, st := range statuses {
		if st.Status != "" {
			resp.ByStatus[st.Status]++
			if st.Status == "online" {
				resp.Online++
			}
		}
		if st.Model != "" {
			resp.ByModel[st.Model]++
			if report.IsAccessPoint(st.Model, s.cfg.APModelPrefixes) {
				resp.AccessPoints++
			}
		}
	}
	WriteJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDevices(w http.ResponseWriter, r *http.Request, sess *Session) {
	networkID := r.URL.Query().Get("network")
	if networkID == "" {
		WriteErrorCtx(w, r, http.StatusBadRequest, "Missing network parameter")
		return
	}
	devices, err := sess.Client.NetworkDevices(r.Context(), networkID)
	if err != nil {
		s.apiError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, devices)
}

func (s *Server) handleSSIDs(w http.ResponseWriter, r *http.Request, sess *Session) {
	networkID := r.URL.Query().Get("network")
	if networkID == "" {
		WriteErrorCtx(w, r, http.StatusBadRequest, "Missing network parameter")
		return
	}
	ssids, err := sess.Client.SSIDs(r.Context(), networkID)
	if err != nil {
		s.apiError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, ssids)
}

// clientsResponse carries the client rows plus the rollups the clients
// tab charts. Totals are sums over the rows, never recomputed.
type clientsResponse struct {
	Count           int                  `json:"count"`
	TimespanSeconds int                  `json:"timespan_seconds"`
	Totals          report.UsageTotals   `json:"total_usage"`
	ByOS            map[string]float64   `json:"usage_by_os"`
	BySSID          map[string]float64   `json:"usage_by_ssid"`
	Clients         []report.ClientUsage `json:"clients"`
}

func (s *Server) handleClients(w http.ResponseWriter, r *http.Request, sess *Session) {
	networkID := r.URL.Query().Get("network")
	if networkID == "" {
		WriteErrorCtx(w, r, http.StatusBadRequest, "Missing network parameter")
		return
	}
	timespan := timespanParam(r, defaultClientTimespan)

	clients, err := sess.Client.NetworkClients(r.Context(), networkID, time.Duration(timespan)*time.Second)
	if err != nil {
		s.apiError(w, err)
		return
	}

	rep := report.BuildUsageReport("", "", timespan/86400, clients)
	WriteJSON(w, http.StatusOK, clientsResponse{
		Count:           rep.TotalClients,
		TimespanSeconds: timespan,
		Totals:          rep.Totals,
		ByOS:            rep.UsageByOS,
		BySSID:          rep.UsageBySSID,
		Clients:         rep.Clients,
	})
}

func (s *Server) handleTraffic(w http.ResponseWriter, r *http.Request, sess *Session) {
	networkID := r.URL.Query().Get("network")
	if networkID == "" {
		WriteErrorCtx(w, r, http.StatusBadRequest, "Missing network parameter")
		return
	}
	timespan := timespanParam(r, defaultTrafficTimespan)

	traffic, err := sess.Client.NetworkTraffic(r.Context(), networkID, time.Duration(timespan)*time.Second)
	if err != nil {
		s.apiError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, traffic)
}

func (s *Server) handleVPN(w http.ResponseWriter, r *http.Request, sess *Session) {
	networkID := r.URL.Query().Get("network")
	if networkID == "" {
		WriteErrorCtx(w, r, http.StatusBadRequest, "Missing network parameter")
		return
	}
	status, err := sess.Client.VPNStatus(r.Context(), networkID)
	if err != nil {
		s.apiError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(status)
}

func (s *Server) handleShaping(w http.ResponseWriter, r *http.Request, sess *Session) {
	networkID := r.URL.Query().Get("network")
	if networkID == "" {
		WriteErrorCtx(w, r, http.StatusBadRequest, "Missing network parameter")
		return
	}
	settings, err := sess.Client.TrafficShaping(r.Context(), networkID)
	if err != nil {
		s.apiError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, settings)
}

// analyticsResponse is the history-backed trend view.
type analyticsResponse struct {
	NetworkID string               `json:"network_id"`
	Days      int                  `json:"days"`
	Trend     []history.TrendPoint `json:"trend"`
	Latest    *history.Snapshot    `json:"latest,omitempty"`
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request, sess *Session) {
	if s.history == nil {
		WriteErrorCtx(w, r, http.StatusServiceUnavailable, "History store not configured")
		return
	}
	networkID := r.URL.Query().Get("network")
	if networkID == "" {
		WriteErrorCtx(w, r, http.StatusBadRequest, "Missing network parameter")
		return
	}
	days := 30
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			WriteErrorCtx(w, r, http.StatusBadRequest, "Invalid days parameter")
			return
		}
		days = n
	}

	since := time.Now().UTC().AddDate(0, 0, -days)
	trend, err := s.history.Trend(networkID, since)
	if err != nil {
		s.log.Error("history trend", "network", networkID, "error", err)
		WriteErrorCtx(w, r, http.StatusInternalServerError, "History query failed")
		return
	}

	resp := analyticsResponse{NetworkID: networkID, Days: days, Trend: trend}
	if latest, ok, err := s.history.Latest(networkID); err == nil && ok {
		resp.Latest = &latest
	}
	WriteJSON(w, http.StatusOK, resp)
}

// estateResponse wraps the cached estate overview with its age.
type estateResponse struct {
	Overview    *metrics.Overview `json:"overview"`
	CollectedAt time.Time         `json:"collected_at"`
}

// handleEstate serves the estate collector's cached overview. It is
// backed by the daemon's own API key, so no session is required; 503
// means the daemon has no key configured or has not polled yet.
func (s *Server) handleEstate(w http.ResponseWriter, r *http.Request) {
	if s.estate == nil {
		WriteErrorCtx(w, r, http.StatusServiceUnavailable, "Estate overview not configured")
		return
	}
	ov, collected := s.estate.Overview()
	if ov == nil {
		WriteErrorCtx(w, r, http.StatusServiceUnavailable, "Estate overview not collected yet")
		return
	}
	WriteJSON(w, http.StatusOK, estateResponse{Overview: ov, CollectedAt: collected})
}

// handleLogs serves the in-memory application log buffer for the
// dashboard's activity view. ?source= filters by component, ?limit=
// caps the rows (default 100).
func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			WriteErrorCtx(w, r, http.StatusBadRequest, "Invalid limit parameter")
			return
		}
		limit = n
	}

	buffer := logging.GetAppLogBuffer()
	var entries []logging.AppLogEntry
	if source := r.URL.Query().Get("source"); source != "" {
		entries = buffer.GetBySource(source, limit)
	} else {
		entries = buffer.GetLast(limit)
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"count":   len(entries),
		"entries": entries,
	})
}

// apiError translates a dashboard client error into a JSON response,
// passing the upstream status through so the UI can tell an expired
// key from an outage.
func (s *Server) apiError(w http.ResponseWriter, err error) {
	if apiErr, ok := meraki.IsAPIError(err); ok {
		code := apiErr.StatusCode
		if code < 400 || code > 599 {
			code = http.StatusBadGateway
		}
		WriteError(w, code, "Dashboard API error", apiErr.Error())
		return
	}
	if meraki.IsNotFound(err) {
		WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	WriteError(w, http.StatusBadGateway, "Dashboard request failed", err.Error())
}

// timespanParam parses the timespan query parameter in seconds,
// clamped to the dashboard's own 31-day cap.
func timespanParam(r *http.Request, def int) int {
	v := r.URL.Query().Get("timespan")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	if n > maxTimespan {
		return maxTimespan
	}
	return n
}
