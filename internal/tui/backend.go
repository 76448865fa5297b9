package tui

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/packetintransit/meraki/internal/meraki"
	"github.com/packetintransit/meraki/internal/report"
	"github.com/packetintransit/meraki/internal/stats"
)

const (
	backendTimeout  = 30 * time.Second
	clientsTimespan = 24 * time.Hour
	trendSamples    = 60
)

// DashboardBackend feeds the console from the dashboard API. The
// target organization and network resolve once on first use; empty
// names fall back to the first organization and its first network.
type DashboardBackend struct {
	client     *meraki.Client
	orgName    string
	netName    string
	apPrefixes []string

	mu   sync.Mutex
	org  *meraki.Organization
	net  *meraki.Network
	ring *stats.RingBuffer
}

func NewDashboardBackend(client *meraki.Client, org, network string, apPrefixes []string) *DashboardBackend {
	return &DashboardBackend{
		client:     client,
		orgName:    org,
		netName:    network,
		apPrefixes: apPrefixes,
		ring:       stats.NewRingBuffer(trendSamples),
	}
}

func (b *DashboardBackend) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), backendTimeout)
}

// resolve pins the target organization and network. Concurrent tab
// fetches serialize here so resolution happens once.
func (b *DashboardBackend) resolve() (*meraki.Organization, *meraki.Network, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.org != nil && b.net != nil {
		return b.org, b.net, nil
	}

	ctx, cancel := b.context()
	defer cancel()

	var org *meraki.Organization
	if b.orgName != "" {
		resolved, err := b.client.OrganizationByName(ctx, b.orgName)
		if err != nil {
			return nil, nil, err
		}
		org = resolved
	} else {
		orgs, err := b.client.Organizations(ctx)
		if err != nil {
			return nil, nil, err
		}
		if len(orgs) == 0 {
			return nil, nil, errors.New("no organizations visible to this API key")
		}
		org = &orgs[0]
	}

	var net *meraki.Network
	if b.netName != "" {
		resolved, err := b.client.NetworkByName(ctx, org, b.netName)
		if err != nil {
			return nil, nil, err
		}
		net = resolved
	} else {
		nets, err := b.client.Networks(ctx, org.ID)
		if err != nil {
			return nil, nil, err
		}
		if len(nets) == 0 {
			return nil, nil, errors.New("organization '" + org.Name + "' has no networks")
		}
		net = &nets[0]
	}

	b.org, b.net = org, net
	return org, net, nil
}

func (b *DashboardBackend) Overview() (*Overview, error) {
	org, net, err := b.resolve()
	if err != nil {
		return nil, err
	}
	ctx, cancel := b.context()
	defer cancel()

	nets, err := b.client.Networks(ctx, org.ID)
	if err != nil {
		return nil, err
	}
	statuses, err := b.client.OrganizationDeviceStatuses(ctx, org.ID)
	if err != nil {
		return nil, err
	}
	clients, err := b.client.NetworkClients(ctx, net.ID, clientsTimespan)
	if err != nil {
		return nil, err
	}

	ov := &Overview{
		Organization: org.Name,
		Network:      net.Name,
		Networks:     len(nets),
		Devices:      len(statuses),
		Clients:      len(clients),
	}
	for _, n := range nets {
		for _, pt := range n.ProductTypes {
			if pt == "wireless" {
				ov.Wireless++
				break
			}
		}
	}
	for _, st := range statuses {
		switch st.Status {
		case "online":
			ov.Online++
		case "offline":
			ov.Offline++
		}
		if report.IsAccessPoint(st.Model, b.apPrefixes) {
			ov.AccessPoints++
		}
	}

	b.mu.Lock()
	b.ring.Add(float64(ov.Clients))
	b.mu.Unlock()

	return ov, nil
}

func (b *DashboardBackend) Devices() ([]DeviceRow, error) {
	org, net, err := b.resolve()
	if err != nil {
		return nil, err
	}
	ctx, cancel := b.context()
	defer cancel()

	devices, err := b.client.NetworkDevices(ctx, net.ID)
	if err != nil {
		return nil, err
	}
	statuses, err := b.client.OrganizationDeviceStatuses(ctx, org.ID)
	if err != nil {
		return nil, err
	}

	bySerial := make(map[string]string, len(statuses))
	for _, st := range statuses {
		bySerial[st.Serial] = st.Status
	}

	rows := make([]DeviceRow, 0, len(devices))
	for _, d := range devices {
		status := bySerial[d.Serial]
		if status == "" {
			status = "unknown"
		}
		rows = append(rows, DeviceRow{
			Name:     d.Name,
			Model:    d.Model,
			Serial:   d.Serial,
			Firmware: d.Firmware,
			Status:   status,
		})
	}
	return rows, nil
}

func (b *DashboardBackend) Clients() (*report.UsageReport, error) {
	org, net, err := b.resolve()
	if err != nil {
		return nil, err
	}
	ctx, cancel := b.context()
	defer cancel()

	clients, err := b.client.NetworkClients(ctx, net.ID, clientsTimespan)
	if err != nil {
		return nil, err
	}
	return report.BuildUsageReport(org.Name, net.Name, 1, clients), nil
}

func (b *DashboardBackend) ClientTrend() []float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ring.Snapshot()
}

func (b *DashboardBackend) Target() (string, string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.org != nil && b.net != nil {
		return b.org.Name, b.net.Name
	}
	return b.orgName, b.netName
}
