package meraki

import (
	"context"
	"fmt"
	"time"
)

// DeviceClients lists the clients a single device has seen within
// timespan. Short timespans approximate "currently connected".
func (c *Client) DeviceClients(ctx context.Context, serial string, timespan time.Duration) ([]NetworkClient, error) {
	var clients []NetworkClient
	path := fmt.Sprintf("/devices/%s/clients", serial)
	if err := c.get(ctx, path, timespanQuery(timespan), &clients); err != nil {
		return nil, err
	}
	return clients, nil
}

// WirelessStatus returns an access point's radio status.
func (c *Client) WirelessStatus(ctx context.Context, serial string) (*WirelessStatus, error) {
	var status WirelessStatus
	if err := c.get(ctx, fmt.Sprintf("/devices/%s/wireless/status", serial), nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// ConnectionStats returns an access point's connection outcomes over
// timespan.
func (c *Client) ConnectionStats(ctx context.Context, serial string, timespan time.Duration) (*ConnectionStats, error) {
	var stats ConnectionStats
	path := fmt.Sprintf("/devices/%s/wireless/connectionStats", serial)
	if err := c.get(ctx, path, timespanQuery(timespan), &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// LatencyStats returns an access point's latency profile over timespan.
func (c *Client) LatencyStats(ctx context.Context, serial string, timespan time.Duration) (*LatencyStats, error) {
	var stats LatencyStats
	path := fmt.Sprintf("/devices/%s/wireless/latencyStats", serial)
	if err := c.get(ctx, path, timespanQuery(timespan), &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// ApplianceUplinksUsage returns byte counters per appliance uplink over
// timespan.
func (c *Client) ApplianceUplinksUsage(ctx context.Context, serial string, timespan time.Duration) ([]UplinkUsage, error) {
	var usage []UplinkUsage
	path := fmt.Sprintf("/devices/%s/appliance/uplinks/usage", serial)
	if err := c.get(ctx, path, timespanQuery(timespan), &usage); err != nil {
		return nil, err
	}
	return usage, nil
}

// SwitchPorts lists a switch's port configurations.
func (c *Client) SwitchPorts(ctx context.Context, serial string) ([]SwitchPort, error) {
	var ports []SwitchPort
	if err := c.get(ctx, fmt.Sprintf("/devices/%s/switch/ports", serial), nil, &ports); err != nil {
		return nil, err
	}
	return ports, nil
}

// RoutingInterfaces lists a switch's layer 3 interfaces. Switches
// without layer 3 configured answer 400, which callers treat as "no
// routing config".
func (c *Client) RoutingInterfaces(ctx context.Context, serial string) ([]RoutingInterface, error) {
	var ifaces []RoutingInterface
	if err := c.get(ctx, fmt.Sprintf("/devices/%s/switch/routing/interfaces", serial), nil, &ifaces); err != nil {
		return nil, err
	}
	return ifaces, nil
}

// StaticRoutes lists a switch's static routes.
func (c *Client) StaticRoutes(ctx context.Context, serial string) ([]StaticRoute, error) {
	var routes []StaticRoute
	if err := c.get(ctx, fmt.Sprintf("/devices/%s/switch/routing/staticRoutes", serial), nil, &routes); err != nil {
		return nil, err
	}
	return routes, nil
}
