package web

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/packetintransit/meraki/internal/meraki"
)

// estateBackend serves three organizations: one fully healthy, one
// whose device statuses endpoint fails, one whose network list fails.
func estateBackend(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	reply := func(body string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, body)
		}
	}
	fail := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"errors":["Server error"]}`)
	}

	mux.HandleFunc("/organizations", reply(`[
		{"id":"100","name":"Healthy Org"},
		{"id":"200","name":"Broken Statuses"},
		{"id":"300","name":"Broken Networks"}
	]`))
	mux.HandleFunc("/organizations/100/networks", reply(`[
		{"id":"N_100","name":"HQ"},
		{"id":"N_101","name":"Branch"}
	]`))
	mux.HandleFunc("/organizations/100/devices/statuses", reply(`[
		{"serial":"Q2AA-0001","model":"MR46","status":"online"},
		{"serial":"Q2AA-0002","model":"MS250-24","status":"offline"}
	]`))
	mux.HandleFunc("/organizations/200/networks", reply(`[
		{"id":"N_200","name":"Lab"}
	]`))
	mux.HandleFunc("/organizations/200/devices/statuses", fail)
	mux.HandleFunc("/organizations/300/networks", fail)
	mux.HandleFunc("/organizations/300/devices/statuses", reply(`[
		{"serial":"Q2CC-0001","model":"MX68","status":"online"}
	]`))

	backend := httptest.NewServer(mux)
	t.Cleanup(backend.Close)
	return backend
}

func TestEstateSource_SkipsFailingOrganizations(t *testing.T) {
	backend := estateBackend(t)
	client := meraki.New(
		meraki.WithBaseURL(backend.URL),
		meraki.WithAPIKey("key"),
		meraki.WithCallInterval(0),
	)

	src := NewEstateSource(client)
	ov, err := src.FetchOverview(context.Background())
	if err != nil {
		t.Fatalf("FetchOverview failed: %v", err)
	}

	if ov.Organizations != 3 {
		t.Errorf("expected 3 organizations, got %d", ov.Organizations)
	}
	// Networks come from the two orgs whose list succeeded.
	if ov.Networks != 3 {
		t.Errorf("expected 3 networks, got %d", ov.Networks)
	}
	// Devices come from the two orgs whose statuses succeeded.
	if ov.Devices != 3 {
		t.Errorf("expected 3 devices, got %d", ov.Devices)
	}
	if ov.DevicesByStatus["online"] != 2 || ov.DevicesByStatus["offline"] != 1 {
		t.Errorf("unexpected status breakdown: %v", ov.DevicesByStatus)
	}
	if ov.DevicesByModel["MX68"] != 1 {
		t.Errorf("expected the broken-networks org's device counted, got %v", ov.DevicesByModel)
	}
}

func TestEstateSource_FailedOrganizationList(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"errors":["Server error"]}`)
	}))
	t.Cleanup(backend.Close)

	client := meraki.New(
		meraki.WithBaseURL(backend.URL),
		meraki.WithAPIKey("key"),
		meraki.WithCallInterval(0),
	)

	_, err := NewEstateSource(client).FetchOverview(context.Background())
	if err == nil {
		t.Fatal("expected an error when the organization list itself fails")
	}
}
