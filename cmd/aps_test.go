package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

// apsBackend serves a network with two access points. The second AP's
// wireless status endpoint fails so the report loop has to skip it.
func apsBackend(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	reply := func(body string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, body)
		}
	}

	mux.HandleFunc("/organizations", reply(`[{"id":"1","name":"Acme Corp"}]`))
	mux.HandleFunc("/organizations/1/networks", reply(`[{"id":"N_1","organizationId":"1","name":"HQ"}]`))
	mux.HandleFunc("/organizations/1/devices/statuses", reply(`[
		{"serial":"Q2AA-0001","model":"MR46","status":"online"},
		{"serial":"Q2AA-0002","model":"MR36","status":"online"}
	]`))
	mux.HandleFunc("/networks/N_1/devices", reply(`[
		{"name":"Lobby AP","serial":"Q2AA-0001","model":"MR46","networkId":"N_1"},
		{"name":"Roof AP","serial":"Q2AA-0002","model":"MR36","networkId":"N_1"},
		{"name":"Core Switch","serial":"Q2BB-0001","model":"MS250-24","networkId":"N_1"}
	]`))

	mux.HandleFunc("/devices/Q2AA-0001/wireless/status", reply(`{"basicServiceSets":[
		{"ssidName":"Corp","band":"5 GHz","channel":36,"enabled":true}
	]}`))
	mux.HandleFunc("/devices/Q2AA-0001/clients", reply(`[
		{"id":"k1","description":"Laptop","mac":"aa:bb:cc:00:00:01","usage":{"sent":100,"recv":200}}
	]`))
	mux.HandleFunc("/devices/Q2AA-0001/wireless/connectionStats", reply(`{"serial":"Q2AA-0001",
		"connectionStats":{"assoc":10,"auth":10,"dhcp":10,"dns":10,"success":10}}`))
	mux.HandleFunc("/devices/Q2AA-0001/wireless/latencyStats", reply(`{"serial":"Q2AA-0001",
		"latencyStats":{"backgroundTraffic":{"avg":12.5}}}`))

	mux.HandleFunc("/devices/Q2AA-0002/wireless/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"errors":["Server error"]}`)
	})

	backend := httptest.NewServer(mux)
	t.Cleanup(backend.Close)
	return backend
}

func TestRunAPs_SkipsFailingAP(t *testing.T) {
	backend := apsBackend(t)
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.hcl")

	cfg := fmt.Sprintf(`
organization = "Acme Corp"
network      = "HQ"

api {
  key              = "test-key"
  base_url         = %q
  call_interval_ms = 1
}
`, backend.URL)
	if err := os.WriteFile(configPath, []byte(cfg), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	outDir := filepath.Join(tmpDir, "reports")
	if err := RunAPs(configPath, "", "", "", 1, outDir); err != nil {
		t.Fatalf("RunAPs() error = %v, want nil despite the failing AP", err)
	}

	matches, err := filepath.Glob(filepath.Join(outDir, "meraki_ap_status_*.json"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("expected one JSON report, got %v (err %v)", matches, err)
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("failed to read report: %v", err)
	}
	var rep struct {
		TotalAccessPoints int `json:"total_access_points"`
		TotalClients      int `json:"total_clients"`
		AccessPoints      []struct {
			Serial string `json:"serial"`
		} `json:"access_points"`
	}
	if err := json.Unmarshal(data, &rep); err != nil {
		t.Fatalf("failed to parse report: %v", err)
	}

	if rep.TotalAccessPoints != 1 {
		t.Errorf("expected 1 surviving AP, got %d", rep.TotalAccessPoints)
	}
	if len(rep.AccessPoints) != 1 || rep.AccessPoints[0].Serial != "Q2AA-0001" {
		t.Errorf("expected only the healthy AP in the report, got %+v", rep.AccessPoints)
	}
	if rep.TotalClients != 1 {
		t.Errorf("expected the healthy AP's client counted, got %d", rep.TotalClients)
	}
}
