package report

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/packetintransit/meraki/internal/meraki"
)

// BackupSubdir is where switch configuration backups land under the
// output directory.
const BackupSubdir = "switch_configs"

// SwitchBackup is the collected configuration of one switch, ready to
// render as a sectioned text document. StaticRoutes and ACL are
// optional: switches without layer 3 routing and networks without
// switch ACLs simply omit those sections.
type SwitchBackup struct {
	Device       meraki.Device
	Organization string
	Network      string
	BackupDate   time.Time

	Interfaces []meraki.RoutingInterface
	Ports      []meraki.SwitchPort

	StaticRoutes []meraki.StaticRoute
	HasRoutes    bool

	ACL    *meraki.SwitchACL
	HasACL bool
}

// Name returns the switch's display name, falling back to the serial.
func (b *SwitchBackup) Name() string {
	if b.Device.Name != "" {
		return b.Device.Name
	}
	return b.Device.Serial
}

// Filename returns the backup file name for a run timestamp:
// name_serial_timestamp.txt.
func (b *SwitchBackup) Filename(timestamp string) string {
	return b.FilenameExt(timestamp, "txt")
}

// FilenameExt is Filename with a caller-chosen extension, for the
// structured backup formats.
func (b *SwitchBackup) FilenameExt(timestamp, ext string) string {
	return fmt.Sprintf("%s_%s_%s.%s", b.Name(), b.Device.Serial, timestamp, ext)
}

// Render produces the sectioned text document.
func (b *SwitchBackup) Render() (string, error) {
	var w strings.Builder
	fmt.Fprintf(&w, "Configuration for %s (%s)\n", b.Name(), b.Device.Serial)
	fmt.Fprintf(&w, "Backup Date: %s\n", b.BackupDate.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&w, "Network: %s\n", b.Network)
	fmt.Fprintf(&w, "Organization: %s\n", b.Organization)
	w.WriteString(strings.Repeat("=", 80) + "\n\n")

	w.WriteString("DEVICE INFORMATION:\n")
	w.WriteString(strings.Repeat("-", 80) + "\n")
	if err := writeDeviceInfo(&w, b.Device); err != nil {
		return "", err
	}
	w.WriteString("\n")

	if err := writeJSONSection(&w, "ROUTING INTERFACES:", b.Interfaces); err != nil {
		return "", err
	}
	if err := writeJSONSection(&w, "PORT CONFIGURATIONS:", b.Ports); err != nil {
		return "", err
	}
	if b.HasRoutes {
		if err := writeJSONSection(&w, "STATIC ROUTES:", b.StaticRoutes); err != nil {
			return "", err
		}
	}
	if b.HasACL {
		if err := writeJSONSection(&w, "ACCESS CONTROL LISTS:", b.ACL); err != nil {
			return "", err
		}
	}
	return w.String(), nil
}

// RenderYAML produces the structured variant of the same sections,
// keyed the way the dashboard's JSON names the fields.
func (b *SwitchBackup) RenderYAML() (string, error) {
	doc := yaml.MapSlice{
		{Key: "device", Value: jsonShape(b.Device)},
		{Key: "organization", Value: b.Organization},
		{Key: "network", Value: b.Network},
		{Key: "backup_date", Value: b.BackupDate.Format("2006-01-02 15:04:05")},
		{Key: "routing_interfaces", Value: jsonShape(b.Interfaces)},
		{Key: "port_configurations", Value: jsonShape(b.Ports)},
	}
	if b.HasRoutes {
		doc = append(doc, yaml.MapItem{Key: "static_routes", Value: jsonShape(b.StaticRoutes)})
	}
	if b.HasACL {
		doc = append(doc, yaml.MapItem{Key: "access_control_lists", Value: jsonShape(b.ACL)})
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encoding backup: %w", err)
	}
	return string(data), nil
}

// jsonShape round-trips v through its JSON encoding so the YAML keys
// match the dashboard's field names instead of the Go ones.
func jsonShape(v any) any {
	raw, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return v
	}
	return out
}

// writeDeviceInfo emits the device record as key: value lines, sorted
// by key so the output is stable across runs.
func writeDeviceInfo(w *strings.Builder, dev meraki.Device) error {
	raw, err := json.Marshal(dev)
	if err != nil {
		return fmt.Errorf("encoding device info: %w", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return fmt.Errorf("decoding device info: %w", err)
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "%s: %v\n", k, fields[k])
	}
	return nil
}

func writeJSONSection(w *strings.Builder, title string, v any) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("encoding %q section: %w", strings.TrimSuffix(title, ":"), err)
	}
	w.WriteString(title + "\n")
	w.WriteString(strings.Repeat("-", 80) + "\n")
	w.Write(data)
	w.WriteString("\n\n")
	return nil
}
