package meraki

import (
	"bytes"
	"strconv"
)

// FlexString tolerates fields the dashboard returns as either a JSON
// string or a number, which varies across firmware versions (VLAN IDs
// are the usual offender).
type FlexString string

// UnmarshalJSON accepts both quoted and bare scalar values.
func (f *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		s, err := strconv.Unquote(string(b))
		if err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	*f = FlexString(b)
	return nil
}

func (f FlexString) String() string { return string(f) }

// Organization is a dashboard organization the API key can see.
type Organization struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

// Network is a network within an organization.
type Network struct {
	ID             string   `json:"id"`
	OrganizationID string   `json:"organizationId,omitempty"`
	Name           string   `json:"name"`
	ProductTypes   []string `json:"productTypes,omitempty"`
	TimeZone       string   `json:"timeZone,omitempty"`
	Tags           []string `json:"tags,omitempty"`
	URL            string   `json:"url,omitempty"`
}

// Device is a piece of hardware claimed into a network. Status and
// LastReportedAt are only populated by endpoints that report them.
type Device struct {
	Name           string   `json:"name,omitempty"`
	Serial         string   `json:"serial"`
	MAC            string   `json:"mac,omitempty"`
	Model          string   `json:"model,omitempty"`
	NetworkID      string   `json:"networkId,omitempty"`
	LANIP          string   `json:"lanIp,omitempty"`
	Firmware       string   `json:"firmware,omitempty"`
	Address        string   `json:"address,omitempty"`
	Tags           []string `json:"tags,omitempty"`
	Status         string   `json:"status,omitempty"`
	LastReportedAt string   `json:"lastReportedAt,omitempty"`
}

// DeviceStatus is the connectivity record for a single device.
type DeviceStatus struct {
	Name           string `json:"name,omitempty"`
	Serial         string `json:"serial,omitempty"`
	MAC            string `json:"mac,omitempty"`
	Model          string `json:"model,omitempty"`
	ProductType    string `json:"productType,omitempty"`
	NetworkID      string `json:"networkId,omitempty"`
	Status         string `json:"status,omitempty"`
	LastReportedAt string `json:"lastReportedAt,omitempty"`
	PublicIP       string `json:"publicIp,omitempty"`
	LANIP          string `json:"lanIp,omitempty"`
	Gateway        string `json:"gateway,omitempty"`
	IPType         string `json:"ipType,omitempty"`
	PrimaryDNS     string `json:"primaryDns,omitempty"`
	SecondaryDNS   string `json:"secondaryDns,omitempty"`
}

// Usage is a client's byte counters over the queried timespan.
type Usage struct {
	Sent  float64 `json:"sent"`
	Recv  float64 `json:"recv"`
	Total float64 `json:"total,omitempty"`
}

// NetworkClient is a client seen on a network or behind a device.
type NetworkClient struct {
	ID                 string     `json:"id,omitempty"`
	Description        string     `json:"description,omitempty"`
	DHCPHostname       string     `json:"dhcpHostname,omitempty"`
	MAC                string     `json:"mac,omitempty"`
	IP                 string     `json:"ip,omitempty"`
	IP6                string     `json:"ip6,omitempty"`
	User               string     `json:"user,omitempty"`
	FirstSeen          string     `json:"firstSeen,omitempty"`
	LastSeen           string     `json:"lastSeen,omitempty"`
	VLAN               FlexString `json:"vlan,omitempty"`
	Manufacturer       string     `json:"manufacturer,omitempty"`
	OS                 string     `json:"os,omitempty"`
	SSID               string     `json:"ssid,omitempty"`
	Status             string     `json:"status,omitempty"`
	Switchport         string     `json:"switchport,omitempty"`
	RecentDeviceSerial string     `json:"recentDeviceSerial,omitempty"`
	Usage              *Usage     `json:"usage,omitempty"`
}

// ClientEvent is one entry from a client's event log. The client
// identity fields are filled in by callers that merge events across
// clients; the dashboard does not include them.
type ClientEvent struct {
	OccurredAt        string         `json:"occurredAt,omitempty"`
	Type              string         `json:"type,omitempty"`
	Description       string         `json:"description,omitempty"`
	DeviceSerial      string         `json:"deviceSerial,omitempty"`
	DeviceName        string         `json:"deviceName,omitempty"`
	SSIDNumber        *int           `json:"ssidNumber,omitempty"`
	Details           map[string]any `json:"details,omitempty"`
	ClientID          string         `json:"clientId,omitempty"`
	ClientMAC         string         `json:"clientMac,omitempty"`
	ClientDescription string         `json:"clientDescription,omitempty"`
}

// clientEventsPage is the envelope the events endpoint wraps its list in.
type clientEventsPage struct {
	Events []ClientEvent `json:"events"`
}

// SSID is a wireless network configuration. Number is a pointer because
// SSID zero is a valid slot.
type SSID struct {
	Number           *int   `json:"number,omitempty"`
	Name             string `json:"name,omitempty"`
	Enabled          bool   `json:"enabled"`
	AuthMode         string `json:"authMode,omitempty"`
	EncryptionMode   string `json:"encryptionMode,omitempty"`
	Visible          bool   `json:"visible,omitempty"`
	IPAssignmentMode string `json:"ipAssignmentMode,omitempty"`
}

// TrafficEntry is one row of the network traffic analysis. Sent and
// Recv are kilobytes, per the dashboard's contract for this endpoint.
type TrafficEntry struct {
	Application string  `json:"application,omitempty"`
	Destination string  `json:"destination,omitempty"`
	Protocol    string  `json:"protocol,omitempty"`
	Port        *int    `json:"port,omitempty"`
	Sent        float64 `json:"sent"`
	Recv        float64 `json:"recv"`
	Flows       int     `json:"flows,omitempty"`
	ActiveTime  int     `json:"activeTime,omitempty"`
	NumClients  int     `json:"numClients,omitempty"`
}

// AppUsage is one application's byte counters from the traffic
// analysis rollup.
type AppUsage struct {
	Application string  `json:"application,omitempty"`
	Category    string  `json:"category,omitempty"`
	Sent        float64 `json:"sent"`
	Received    float64 `json:"received"`
	NumClients  int     `json:"numClients,omitempty"`
}

// trafficAnalysisPage is the envelope around the application usage list.
type trafficAnalysisPage struct {
	ApplicationUsage []AppUsage `json:"applicationUsage"`
}

// WirelessStatus is an access point's radio status.
type WirelessStatus struct {
	Status           string            `json:"status,omitempty"`
	BasicServiceSets []BasicServiceSet `json:"basicServiceSets,omitempty"`
}

// BasicServiceSet is one broadcast SSID on one band of an access point.
type BasicServiceSet struct {
	SSIDName     string `json:"ssidName,omitempty"`
	SSIDNumber   *int   `json:"ssidNumber,omitempty"`
	Enabled      bool   `json:"enabled,omitempty"`
	Band         string `json:"band,omitempty"`
	Channel      *int   `json:"channel,omitempty"`
	ChannelWidth string `json:"channelWidth,omitempty"`
	Power        string `json:"power,omitempty"`
	Visible      bool   `json:"visible,omitempty"`
	Broadcasting bool   `json:"broadcasting,omitempty"`
}

// ConnectionCounts tallies wireless connection attempts by the step
// they reached.
type ConnectionCounts struct {
	Assoc   int `json:"assoc"`
	Auth    int `json:"auth"`
	DHCP    int `json:"dhcp"`
	DNS     int `json:"dns"`
	Success int `json:"success"`
}

// ConnectionStats is an access point's connection outcomes over a
// timespan.
type ConnectionStats struct {
	Serial string           `json:"serial,omitempty"`
	Counts ConnectionCounts `json:"connectionStats"`
}

// TrafficLatency is the latency distribution for one traffic class.
type TrafficLatency struct {
	Avg             float64            `json:"avg,omitempty"`
	RawDistribution map[string]float64 `json:"rawDistribution,omitempty"`
}

// LatencyCounts groups latency by the four wireless traffic classes.
type LatencyCounts struct {
	Background TrafficLatency `json:"backgroundTraffic"`
	BestEffort TrafficLatency `json:"bestEffortTraffic"`
	Video      TrafficLatency `json:"videoTraffic"`
	Voice      TrafficLatency `json:"voiceTraffic"`
}

// LatencyStats is an access point's latency profile over a timespan.
type LatencyStats struct {
	Serial string        `json:"serial,omitempty"`
	Counts LatencyCounts `json:"latencyStats"`
}

// UplinkUsage is byte counters for one appliance uplink.
type UplinkUsage struct {
	Interface string  `json:"interface,omitempty"`
	Sent      float64 `json:"sent"`
	Received  float64 `json:"received"`
}

// SwitchPort is one port's configuration on a switch.
type SwitchPort struct {
	PortID           string   `json:"portId"`
	Name             string   `json:"name,omitempty"`
	Tags             []string `json:"tags,omitempty"`
	Enabled          *bool    `json:"enabled,omitempty"`
	PoeEnabled       *bool    `json:"poeEnabled,omitempty"`
	Type             string   `json:"type,omitempty"`
	VLAN             *int     `json:"vlan,omitempty"`
	VoiceVLAN        *int     `json:"voiceVlan,omitempty"`
	AllowedVLANs     string   `json:"allowedVlans,omitempty"`
	IsolationEnabled *bool    `json:"isolationEnabled,omitempty"`
	RSTPEnabled      *bool    `json:"rstpEnabled,omitempty"`
	STPGuard         string   `json:"stpGuard,omitempty"`
	LinkNegotiation  string   `json:"linkNegotiation,omitempty"`
	AccessPolicyType string   `json:"accessPolicyType,omitempty"`
}

// RoutingInterface is a layer 3 interface on a switch.
type RoutingInterface struct {
	InterfaceID      string `json:"interfaceId,omitempty"`
	Name             string `json:"name,omitempty"`
	Subnet           string `json:"subnet,omitempty"`
	InterfaceIP      string `json:"interfaceIp,omitempty"`
	VLANID           *int   `json:"vlanId,omitempty"`
	DefaultGateway   string `json:"defaultGateway,omitempty"`
	MulticastRouting string `json:"multicastRouting,omitempty"`
}

// StaticRoute is a static route configured on a layer 3 switch.
type StaticRoute struct {
	StaticRouteID               string `json:"staticRouteId,omitempty"`
	Name                        string `json:"name,omitempty"`
	Subnet                      string `json:"subnet,omitempty"`
	NextHopIP                   string `json:"nextHopIp,omitempty"`
	AdvertiseViaOspfEnabled     *bool  `json:"advertiseViaOspfEnabled,omitempty"`
	PreferOverOspfRoutesEnabled *bool  `json:"preferOverOspfRoutesEnabled,omitempty"`
}

// ACLRule is one rule in a switch access control list.
type ACLRule struct {
	Comment   string `json:"comment,omitempty"`
	Policy    string `json:"policy,omitempty"`
	IPVersion string `json:"ipVersion,omitempty"`
	Protocol  string `json:"protocol,omitempty"`
	SrcCidr   string `json:"srcCidr,omitempty"`
	SrcPort   string `json:"srcPort,omitempty"`
	DstCidr   string `json:"dstCidr,omitempty"`
	DstPort   string `json:"dstPort,omitempty"`
	VLAN      string `json:"vlan,omitempty"`
}

// SwitchACL is a network's switch access control list.
type SwitchACL struct {
	Rules []ACLRule `json:"rules"`
}

// BandwidthLimits carries explicit nulls so existing limits can be
// cleared; omitting the keys would leave them untouched.
type BandwidthLimits struct {
	LimitUp   *int `json:"limitUp"`
	LimitDown *int `json:"limitDown"`
}

// ClientBandwidthLimits omits unset directions so a partial update
// leaves the other direction alone.
type ClientBandwidthLimits struct {
	LimitUp   *int `json:"limitUp,omitempty"`
	LimitDown *int `json:"limitDown,omitempty"`
}

// Per-client settings values accepted by the dashboard.
const (
	PerClientDefault  = "network default"
	PerClientCustom   = "custom"
	PerClientDisabled = "disabled"
)

// PerClientBandwidthLimits controls per-client shaping for a network or
// a single rule.
type PerClientBandwidthLimits struct {
	Settings        string                 `json:"settings,omitempty"`
	BandwidthLimits *ClientBandwidthLimits `json:"bandwidthLimits,omitempty"`
}

// Shaping rule match types.
const (
	RuleTypeApplication         = "application"
	RuleTypeApplicationCategory = "applicationCategory"
	RuleTypeHost                = "host"
	RuleTypePort                = "port"
	RuleTypeIPRange             = "ipRange"
)

// RuleDefinition narrows a shaping rule to source, destination or any
// direction.
type RuleDefinition struct {
	Type string `json:"type,omitempty"`
}

// ShapingRule matches a class of traffic and applies tagging or limits.
type ShapingRule struct {
	Type                     string                    `json:"type,omitempty"`
	Value                    string                    `json:"value,omitempty"`
	Definition               *RuleDefinition           `json:"definition,omitempty"`
	DSCPTagValue             *int                      `json:"dscpTagValue,omitempty"`
	PerClientBandwidthLimits *PerClientBandwidthLimits `json:"perClientBandwidthLimits,omitempty"`
}

// TrafficShapingSettings is a network's shaping configuration. Nil
// sections are omitted from updates so callers can patch one section
// without clobbering the rest.
type TrafficShapingSettings struct {
	GlobalBandwidthLimits    *BandwidthLimits          `json:"globalBandwidthLimits,omitempty"`
	PerClientBandwidthLimits *PerClientBandwidthLimits `json:"perClientBandwidthLimits,omitempty"`
	DefaultRulesEnabled      *bool                     `json:"defaultRulesEnabled,omitempty"`
	Rules                    []ShapingRule             `json:"rules,omitempty"`
}
