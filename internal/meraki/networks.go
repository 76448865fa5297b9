package meraki

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// NetworkDevices lists the devices claimed into a network.
func (c *Client) NetworkDevices(ctx context.Context, networkID string) ([]Device, error) {
	var devices []Device
	if err := c.get(ctx, fmt.Sprintf("/networks/%s/devices", networkID), nil, &devices); err != nil {
		return nil, err
	}
	return devices, nil
}

// DeviceStatus returns the connectivity record for one device in a
// network.
func (c *Client) DeviceStatus(ctx context.Context, networkID, serial string) (*DeviceStatus, error) {
	var status DeviceStatus
	path := fmt.Sprintf("/networks/%s/devices/%s/statuses", networkID, serial)
	if err := c.get(ctx, path, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// NetworkClients lists the clients seen on a network within timespan.
func (c *Client) NetworkClients(ctx context.Context, networkID string, timespan time.Duration) ([]NetworkClient, error) {
	var clients []NetworkClient
	path := fmt.Sprintf("/networks/%s/clients", networkID)
	if err := c.get(ctx, path, timespanQuery(timespan), &clients); err != nil {
		return nil, err
	}
	return clients, nil
}

// ClientEvents returns a client's event log over timespan. The entries
// come back without client identity; callers merging events across
// clients stamp ClientID and friends themselves.
func (c *Client) ClientEvents(ctx context.Context, networkID, clientID string, timespan time.Duration) ([]ClientEvent, error) {
	var page clientEventsPage
	path := fmt.Sprintf("/networks/%s/clients/%s/events", networkID, clientID)
	if err := c.get(ctx, path, timespanQuery(timespan), &page); err != nil {
		return nil, err
	}
	return page.Events, nil
}

// SSIDs lists a network's wireless SSID configurations.
func (c *Client) SSIDs(ctx context.Context, networkID string) ([]SSID, error) {
	var ssids []SSID
	if err := c.get(ctx, fmt.Sprintf("/networks/%s/wireless/ssids", networkID), nil, &ssids); err != nil {
		return nil, err
	}
	return ssids, nil
}

// NetworkTraffic returns the traffic analysis rows for a network over
// timespan. Traffic analysis must be enabled on the network or the
// dashboard answers 400.
func (c *Client) NetworkTraffic(ctx context.Context, networkID string, timespan time.Duration) ([]TrafficEntry, error) {
	var entries []TrafficEntry
	path := fmt.Sprintf("/networks/%s/traffic", networkID)
	if err := c.get(ctx, path, timespanQuery(timespan), &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// ApplicationUsage returns the per-application rollup from a network's
// traffic analysis. Networks without traffic analysis enabled come back
// with an empty list.
func (c *Client) ApplicationUsage(ctx context.Context, networkID string) ([]AppUsage, error) {
	var page trafficAnalysisPage
	path := fmt.Sprintf("/networks/%s/trafficAnalysis", networkID)
	if err := c.get(ctx, path, nil, &page); err != nil {
		return nil, err
	}
	return page.ApplicationUsage, nil
}

// VPNStatus returns the appliance VPN status document as the dashboard
// sent it.
func (c *Client) VPNStatus(ctx context.Context, networkID string) (json.RawMessage, error) {
	return c.Raw(ctx, fmt.Sprintf("/networks/%s/appliance/vpn/status", networkID), nil)
}

// SwitchACL returns the switch access control list for a network.
func (c *Client) SwitchACL(ctx context.Context, networkID string) (*SwitchACL, error) {
	var acl SwitchACL
	if err := c.get(ctx, fmt.Sprintf("/networks/%s/switch/accessControlLists", networkID), nil, &acl); err != nil {
		return nil, err
	}
	return &acl, nil
}

// TrafficShaping returns a network's traffic shaping configuration.
func (c *Client) TrafficShaping(ctx context.Context, networkID string) (*TrafficShapingSettings, error) {
	var settings TrafficShapingSettings
	if err := c.get(ctx, fmt.Sprintf("/networks/%s/trafficShaping", networkID), nil, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

// UpdateTrafficShaping patches a network's shaping configuration. Only
// the sections present in settings are sent, so a global-limits update
// cannot clobber the rule list.
func (c *Client) UpdateTrafficShaping(ctx context.Context, networkID string, settings *TrafficShapingSettings) error {
	return c.put(ctx, fmt.Sprintf("/networks/%s/trafficShaping", networkID), settings, nil)
}

// UpdateShapingRules replaces a network's shaping rule list wholesale.
// An empty slice is sent as an explicit empty list, which is how the
// last rule gets deleted.
func (c *Client) UpdateShapingRules(ctx context.Context, networkID string, rules []ShapingRule) error {
	if rules == nil {
		rules = []ShapingRule{}
	}
	body := struct {
		Rules []ShapingRule `json:"rules"`
	}{Rules: rules}
	return c.put(ctx, fmt.Sprintf("/networks/%s/trafficShaping", networkID), body, nil)
}

// PerClientLimits returns the per-client section of a network's shaping
// configuration.
func (c *Client) PerClientLimits(ctx context.Context, networkID string) (*PerClientBandwidthLimits, error) {
	settings, err := c.TrafficShaping(ctx, networkID)
	if err != nil {
		return nil, err
	}
	if settings.PerClientBandwidthLimits == nil {
		return &PerClientBandwidthLimits{Settings: PerClientDefault}, nil
	}
	return settings.PerClientBandwidthLimits, nil
}

// UpdatePerClientLimits patches only the per-client section of a
// network's shaping configuration.
func (c *Client) UpdatePerClientLimits(ctx context.Context, networkID string, limits *PerClientBandwidthLimits) error {
	body := &TrafficShapingSettings{PerClientBandwidthLimits: limits}
	return c.UpdateTrafficShaping(ctx, networkID, body)
}
