package report

import (
	"strings"
	"testing"
	"time"

	"github.com/packetintransit/meraki/internal/meraki"
)

func backupFixture() *SwitchBackup {
	vlan := 10
	return &SwitchBackup{
		Device:       meraki.Device{Name: "core-sw", Serial: "Q2SW-0001", Model: "MS225-48"},
		Organization: "Acme Corp",
		Network:      "HQ",
		BackupDate:   time.Date(2024, 3, 15, 9, 30, 45, 0, time.UTC),
		Interfaces: []meraki.RoutingInterface{
			{InterfaceID: "1", Name: "vlan10", Subnet: "10.0.10.0/24", VLANID: &vlan},
		},
		Ports: []meraki.SwitchPort{{PortID: "1", Type: "access"}},
	}
}

func TestSwitchBackupRender(t *testing.T) {
	b := backupFixture()
	text, err := b.Render()
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	if !strings.HasPrefix(text, "Configuration for core-sw (Q2SW-0001)\n") {
		t.Errorf("unexpected heading: %q", text[:50])
	}
	if !strings.Contains(text, "Backup Date: 2024-03-15 09:30:45\n") {
		t.Error("missing backup date")
	}
	if !strings.Contains(text, "Network: HQ\nOrganization: Acme Corp\n") {
		t.Error("missing network/organization lines")
	}
	for _, section := range []string{"DEVICE INFORMATION:", "ROUTING INTERFACES:", "PORT CONFIGURATIONS:"} {
		if !strings.Contains(text, section+"\n"+strings.Repeat("-", 80)+"\n") {
			t.Errorf("missing section %s", section)
		}
	}
	// optional sections stay out unless fetched
	if strings.Contains(text, "STATIC ROUTES:") {
		t.Error("unexpected static routes section")
	}
	if strings.Contains(text, "ACCESS CONTROL LISTS:") {
		t.Error("unexpected ACL section")
	}
	if !strings.Contains(text, `"vlan10"`) {
		t.Error("missing interface data")
	}
}

func TestSwitchBackupRenderOptionalSections(t *testing.T) {
	b := backupFixture()
	b.StaticRoutes = []meraki.StaticRoute{{Name: "default", Subnet: "0.0.0.0/0", NextHopIP: "10.0.10.1"}}
	b.HasRoutes = true
	b.ACL = &meraki.SwitchACL{Rules: []meraki.ACLRule{{Policy: "allow", Comment: "Default rule"}}}
	b.HasACL = true

	text, err := b.Render()
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(text, "STATIC ROUTES:") || !strings.Contains(text, `"10.0.10.1"`) {
		t.Error("missing static routes section")
	}
	if !strings.Contains(text, "ACCESS CONTROL LISTS:") || !strings.Contains(text, `"Default rule"`) {
		t.Error("missing ACL section")
	}
}

func TestSwitchBackupFilename(t *testing.T) {
	b := backupFixture()
	if got := b.Filename("20240315_093045"); got != "core-sw_Q2SW-0001_20240315_093045.txt" {
		t.Errorf("unexpected filename: %s", got)
	}

	b.Device.Name = ""
	if got := b.Filename("20240315_093045"); got != "Q2SW-0001_Q2SW-0001_20240315_093045.txt" {
		t.Errorf("expected serial fallback, got %s", got)
	}
	if b.Name() != "Q2SW-0001" {
		t.Errorf("expected serial name, got %s", b.Name())
	}
}
