package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/user"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"gopkg.in/yaml.v2"

	"github.com/packetintransit/meraki/internal/audit"
	"github.com/packetintransit/meraki/internal/config"
	"github.com/packetintransit/meraki/internal/meraki"
)

// RunShapingShow prints the network's current traffic shaping settings.
func RunShapingShow(configFile, profile, orgFlag, netFlag string) error {
	_, client, net, err := shapingTarget(configFile, profile, orgFlag, netFlag)
	if err != nil {
		return err
	}
	return viewSettings(context.Background(), client, net.ID)
}

// RunShapingEdit runs the interactive shaping editor: global limits,
// per-client limits, and the rule list. Every change is confirmed
// before the PUT, re-read afterwards, and audited.
func RunShapingEdit(configFile, profile, orgFlag, netFlag string) error {
	cfg, err := loadConfig(configFile)
	if err != nil {
		return err
	}
	client, err := newClient(cfg)
	if err != nil {
		return err
	}
	ctx := context.Background()

	orgName, netName, err := cfg.Target(profile, orgFlag, netFlag)
	if err != nil {
		return err
	}

	Printer.Println("Starting Meraki Traffic Shaping Configuration Tool")
	Printer.Printf("Organization: %s\n", orgName)
	Printer.Printf("Network: %s\n", netName)

	org, net, err := resolveTarget(ctx, client, cfg, profile, orgFlag, netFlag)
	if err != nil {
		return err
	}
	Printer.Printf("Found organization ID: %s\n", org.ID)
	Printer.Printf("Found network ID: %s\n", net.ID)

	auditStore := openAudit(cfg)
	if auditStore != nil {
		defer auditStore.Close()
	}

	for {
		choice, err := menuSelect("=== Meraki Traffic Shaping Configuration Tool ===",
			huh.NewOption("Configure traffic shaping", "configure"),
			huh.NewOption("Exit", "exit"),
		)
		if err != nil {
			return menuErr(err)
		}
		if choice == "exit" {
			Printer.Println("Exiting...")
			return nil
		}
		if err := shapingMenu(ctx, client, auditStore, net.ID); err != nil {
			return menuErr(err)
		}
	}
}

func shapingMenu(ctx context.Context, client *meraki.Client, auditStore *audit.Store, networkID string) error {
	for {
		choice, err := menuSelect("=== Traffic Shaping Configuration ===",
			huh.NewOption("Set global bandwidth limits", "global"),
			huh.NewOption("Set per-client bandwidth limits", "perclient"),
			huh.NewOption("Manage traffic shaping rules", "rules"),
			huh.NewOption("View current traffic shaping settings", "view"),
			huh.NewOption("Return to main menu", "back"),
		)
		if err != nil {
			return err
		}
		switch choice {
		case "global":
			err = editGlobalLimits(ctx, client, auditStore, networkID)
		case "perclient":
			err = editPerClientLimits(ctx, client, auditStore, networkID)
		case "rules":
			err = rulesMenu(ctx, client, auditStore, networkID)
		case "view":
			err = viewSettings(ctx, client, networkID)
		case "back":
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func rulesMenu(ctx context.Context, client *meraki.Client, auditStore *audit.Store, networkID string) error {
	for {
		choice, err := menuSelect("=== Traffic Shaping Rules ===",
			huh.NewOption("Add traffic shaping rule", "add"),
			huh.NewOption("Delete traffic shaping rule", "delete"),
			huh.NewOption("Return to previous menu", "back"),
		)
		if err != nil {
			return err
		}
		switch choice {
		case "add":
			err = addRule(ctx, client, auditStore, networkID)
		case "delete":
			err = deleteRule(ctx, client, auditStore, networkID)
		case "back":
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func editGlobalLimits(ctx context.Context, client *meraki.Client, auditStore *audit.Store, networkID string) error {
	up, err := promptKbps("Upload limit (Kbps, 0 for unlimited)")
	if err != nil {
		return err
	}
	down, err := promptKbps("Download limit (Kbps, 0 for unlimited)")
	if err != nil {
		return err
	}

	ok, err := confirmPrompt("Apply these global bandwidth limits?")
	if err != nil {
		return err
	}
	if !ok {
		Printer.Println("Update cancelled.")
		return nil
	}

	settings := &meraki.TrafficShapingSettings{
		GlobalBandwidthLimits: &meraki.BandwidthLimits{LimitUp: up, LimitDown: down},
	}
	if err := client.UpdateTrafficShaping(ctx, networkID, settings); err != nil {
		return fmt.Errorf("failed to update global bandwidth limits: %w", err)
	}
	if up == nil && down == nil {
		Printer.Println("Global bandwidth limits disabled.")
	} else {
		Printer.Println("Global bandwidth limits updated successfully.")
	}

	writeAudit(auditStore, networkID, map[string]any{
		"section":    "global_bandwidth_limits",
		"limit_up":   kbpsValue(up),
		"limit_down": kbpsValue(down),
	})
	return viewSettings(ctx, client, networkID)
}

func editPerClientLimits(ctx context.Context, client *meraki.Client, auditStore *audit.Store, networkID string) error {
	choice, err := menuSelect("Per-client bandwidth limits",
		huh.NewOption("Network default", meraki.PerClientDefault),
		huh.NewOption("Custom", meraki.PerClientCustom),
		huh.NewOption("Disabled", meraki.PerClientDisabled),
	)
	if err != nil {
		return err
	}

	limits := &meraki.PerClientBandwidthLimits{Settings: choice}
	if choice == meraki.PerClientCustom {
		up, err := promptKbps("Per-client upload limit (Kbps, 0 for unlimited)")
		if err != nil {
			return err
		}
		down, err := promptKbps("Per-client download limit (Kbps, 0 for unlimited)")
		if err != nil {
			return err
		}
		limits.BandwidthLimits = &meraki.ClientBandwidthLimits{LimitUp: up, LimitDown: down}
	}

	ok, err := confirmPrompt("Apply these per-client bandwidth limits?")
	if err != nil {
		return err
	}
	if !ok {
		Printer.Println("Update cancelled.")
		return nil
	}

	if err := client.UpdatePerClientLimits(ctx, networkID, limits); err != nil {
		return fmt.Errorf("failed to update per-client bandwidth limits: %w", err)
	}
	if choice == meraki.PerClientDisabled {
		Printer.Println("Per-client bandwidth limits disabled.")
	} else {
		Printer.Println("Per-client bandwidth limits updated successfully.")
	}

	writeAudit(auditStore, networkID, map[string]any{
		"section":  "per_client_bandwidth_limits",
		"settings": choice,
	})
	return viewSettings(ctx, client, networkID)
}

func addRule(ctx context.Context, client *meraki.Client, auditStore *audit.Store, networkID string) error {
	ruleType, err := menuSelect("Rule type",
		huh.NewOption("Application", meraki.RuleTypeApplication),
		huh.NewOption("Application category", meraki.RuleTypeApplicationCategory),
		huh.NewOption("Host", meraki.RuleTypeHost),
		huh.NewOption("Port", meraki.RuleTypePort),
		huh.NewOption("IP range", meraki.RuleTypeIPRange),
	)
	if err != nil {
		return err
	}

	value, err := promptInput(ruleValueTitle(ruleType), validateNonEmpty)
	if err != nil {
		return err
	}

	direction, err := menuSelect("Traffic direction",
		huh.NewOption("Source", "src"),
		huh.NewOption("Destination", "dst"),
		huh.NewOption("Any", "any"),
	)
	if err != nil {
		return err
	}

	dscpRaw, err := promptInput("DSCP tag value (0-63, empty to skip)", validateOptionalDSCP)
	if err != nil {
		return err
	}

	rule := meraki.ShapingRule{
		Type:       ruleType,
		Value:      value,
		Definition: &meraki.RuleDefinition{Type: direction},
	}
	if dscpRaw != "" {
		dscp, _ := strconv.Atoi(dscpRaw)
		rule.DSCPTagValue = &dscp
	}

	settings, err := client.TrafficShaping(ctx, networkID)
	if err != nil {
		return fmt.Errorf("failed to read shaping settings: %w", err)
	}

	ok, err := confirmPrompt(fmt.Sprintf("Add rule %s: %s?", rule.Type, rule.Value))
	if err != nil {
		return err
	}
	if !ok {
		Printer.Println("Update cancelled.")
		return nil
	}

	rules := append(settings.Rules, rule)
	if err := client.UpdateShapingRules(ctx, networkID, rules); err != nil {
		return fmt.Errorf("failed to add traffic shaping rule: %w", err)
	}
	Printer.Println("Traffic shaping rule added successfully.")

	writeAudit(auditStore, networkID, map[string]any{
		"section":    "rules",
		"change":     "added",
		"rule_type":  rule.Type,
		"rule_value": rule.Value,
	})
	return viewSettings(ctx, client, networkID)
}

func deleteRule(ctx context.Context, client *meraki.Client, auditStore *audit.Store, networkID string) error {
	settings, err := client.TrafficShaping(ctx, networkID)
	if err != nil {
		return fmt.Errorf("failed to read shaping settings: %w", err)
	}
	if len(settings.Rules) == 0 {
		Printer.Println("No rules to delete.")
		return nil
	}

	Printer.Println("Current rules:")
	for i, r := range settings.Rules {
		Printer.Printf("%d. %s: %s\n", i+1, r.Type, r.Value)
	}

	raw, err := promptInput("Rule number to delete (0 to cancel)", validateInt)
	if err != nil {
		return err
	}
	n, _ := strconv.Atoi(raw)
	if n == 0 {
		Printer.Println("Update cancelled.")
		return nil
	}
	if n < 1 || n > len(settings.Rules) {
		Printer.Println("Invalid rule number.")
		return nil
	}

	doomed := settings.Rules[n-1]
	ok, err := confirmPrompt(fmt.Sprintf("Delete rule %d (%s: %s)?", n, doomed.Type, doomed.Value))
	if err != nil {
		return err
	}
	if !ok {
		Printer.Println("Update cancelled.")
		return nil
	}

	rules := append(settings.Rules[:n-1], settings.Rules[n:]...)
	if err := client.UpdateShapingRules(ctx, networkID, rules); err != nil {
		return fmt.Errorf("failed to delete traffic shaping rule: %w", err)
	}
	Printer.Println("Traffic shaping rule deleted successfully.")

	writeAudit(auditStore, networkID, map[string]any{
		"section":    "rules",
		"change":     "deleted",
		"rule_type":  doomed.Type,
		"rule_value": doomed.Value,
	})
	return viewSettings(ctx, client, networkID)
}

// RunShapingExport writes the network's shaping settings to a YAML
// file, keyed the way the dashboard's JSON names the fields.
func RunShapingExport(configFile, profile, orgFlag, netFlag, file string) error {
	_, client, net, err := shapingTarget(configFile, profile, orgFlag, netFlag)
	if err != nil {
		return err
	}
	settings, err := client.TrafficShaping(context.Background(), net.ID)
	if err != nil {
		return fmt.Errorf("failed to read shaping settings: %w", err)
	}

	data, err := shapingToYAML(settings)
	if err != nil {
		return err
	}
	if err := os.WriteFile(file, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", file, err)
	}
	Printer.Printf("Exported traffic shaping settings to %s\n", file)
	return nil
}

// RunShapingImport applies shaping settings from a YAML file, with the
// same confirm-re-read-audit discipline as the interactive editor.
func RunShapingImport(configFile, profile, orgFlag, netFlag, file string) error {
	cfg, client, net, err := shapingTarget(configFile, profile, orgFlag, netFlag)
	if err != nil {
		return err
	}
	ctx := context.Background()

	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", file, err)
	}
	settings, err := shapingFromYAML(data)
	if err != nil {
		return err
	}

	preview, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return err
	}
	Printer.Println("Settings to apply:")
	Printer.Println(string(preview))

	ok, err := confirmPrompt(fmt.Sprintf("Apply these settings to network %s?", net.Name))
	if err != nil {
		return menuErr(err)
	}
	if !ok {
		Printer.Println("Import cancelled.")
		return nil
	}

	if err := client.UpdateTrafficShaping(ctx, net.ID, settings); err != nil {
		return fmt.Errorf("failed to apply shaping settings: %w", err)
	}
	Printer.Println("Traffic shaping settings updated.")

	auditStore := openAudit(cfg)
	if auditStore != nil {
		defer auditStore.Close()
	}
	writeAudit(auditStore, net.ID, map[string]any{
		"section": "import",
		"file":    file,
		"rules":   len(settings.Rules),
	})
	return viewSettings(ctx, client, net.ID)
}

func shapingTarget(configFile, profile, orgFlag, netFlag string) (*config.Config, *meraki.Client, *meraki.Network, error) {
	cfg, err := loadConfig(configFile)
	if err != nil {
		return nil, nil, nil, err
	}
	client, err := newClient(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	_, net, err := resolveTarget(context.Background(), client, cfg, profile, orgFlag, netFlag)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, client, net, nil
}

func viewSettings(ctx context.Context, client *meraki.Client, networkID string) error {
	settings, err := client.TrafficShaping(ctx, networkID)
	if err != nil {
		return fmt.Errorf("failed to read shaping settings: %w", err)
	}
	raw, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return err
	}
	Printer.Println(string(raw))
	return nil
}

// openAudit returns the audit store, or nil when auditing is off or
// the store cannot be opened. Shaping changes still apply without it.
func openAudit(cfg *config.Config) *audit.Store {
	if !cfg.AuditEnabled() {
		return nil
	}
	retention := 0
	if cfg.Audit != nil {
		retention = cfg.Audit.RetentionDays
	}
	store, err := audit.NewStore(auditPath(cfg), retention)
	if err != nil {
		Printer.Fprintf(os.Stderr, "Warning: audit log unavailable: %v\n", err)
		return nil
	}
	return store
}

func writeAudit(store *audit.Store, networkID string, details map[string]any) {
	if store == nil {
		return
	}
	evt := audit.Event{
		User:     currentUser(),
		Action:   audit.ActionShapingUpdate,
		Resource: "network/" + networkID,
		Details:  details,
		Status:   200,
	}
	if err := store.Write(evt); err != nil {
		Printer.Fprintf(os.Stderr, "Warning: failed to write audit event: %v\n", err)
	}
}

func currentUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "cli"
}

// menuErr swallows the abort huh returns on Ctrl-C so backing out of a
// menu is a clean exit, not an error banner.
func menuErr(err error) error {
	if errors.Is(err, huh.ErrUserAborted) {
		Printer.Println("Exiting...")
		return nil
	}
	return err
}

func menuSelect(title string, opts ...huh.Option[string]) (string, error) {
	var choice string
	form := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().Title(title).Options(opts...).Value(&choice),
	))
	if err := form.Run(); err != nil {
		return "", err
	}
	return choice, nil
}

func promptInput(title string, validate func(string) error) (string, error) {
	var val string
	input := huh.NewInput().Title(title).Value(&val)
	if validate != nil {
		input = input.Validate(validate)
	}
	if err := huh.NewForm(huh.NewGroup(input)).Run(); err != nil {
		return "", err
	}
	return strings.TrimSpace(val), nil
}

func confirmPrompt(title string) (bool, error) {
	var ok bool
	form := huh.NewForm(huh.NewGroup(huh.NewConfirm().Title(title).Value(&ok)))
	if err := form.Run(); err != nil {
		return false, err
	}
	return ok, nil
}

// promptKbps reads a bandwidth limit. Zero or empty means no limit,
// returned as nil so the dashboard clears it.
func promptKbps(title string) (*int, error) {
	raw, err := promptInput(title, validateOptionalInt)
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return nil, nil
	}
	return &n, nil
}

func ruleValueTitle(ruleType string) string {
	switch ruleType {
	case meraki.RuleTypeApplication:
		return "Application ID (e.g. meraki:layer7/application/171)"
	case meraki.RuleTypeApplicationCategory:
		return "Application category ID"
	case meraki.RuleTypeHost:
		return "Hostname"
	case meraki.RuleTypePort:
		return "Port number"
	default:
		return "IP range (CIDR)"
	}
}

func kbpsValue(v *int) any {
	if v == nil {
		return "unlimited"
	}
	return *v
}

func validateNonEmpty(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("value is required")
	}
	return nil
}

func validateInt(s string) error {
	if _, err := strconv.Atoi(strings.TrimSpace(s)); err != nil {
		return errors.New("enter a number")
	}
	return nil
}

func validateOptionalInt(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return validateInt(s)
}

func validateOptionalDSCP(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > 63 {
		return errors.New("enter a value between 0 and 63")
	}
	return nil
}

// shapingToYAML renders settings with the dashboard's JSON field names
// as YAML keys.
func shapingToYAML(settings *meraki.TrafficShapingSettings) ([]byte, error) {
	raw, err := json.Marshal(settings)
	if err != nil {
		return nil, fmt.Errorf("failed to encode settings: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to encode settings: %w", err)
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode settings: %w", err)
	}
	return out, nil
}

// shapingFromYAML parses a YAML settings document by way of its JSON
// shape, so exports round-trip exactly.
func shapingFromYAML(data []byte) (*meraki.TrafficShapingSettings, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}
	raw, err := json.Marshal(jsonifyYAML(doc))
	if err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}
	var settings meraki.TrafficShapingSettings
	if err := json.Unmarshal(raw, &settings); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}
	return &settings, nil
}

// jsonifyYAML rewrites the map[interface{}]interface{} trees yaml.v2
// produces into the map[string]any shape encoding/json accepts.
func jsonifyYAML(v any) any {
	switch v := v.(type) {
	case map[any]any:
		m := make(map[string]any, len(v))
		for k, val := range v {
			m[fmt.Sprintf("%v", k)] = jsonifyYAML(val)
		}
		return m
	case []any:
		for i := range v {
			v[i] = jsonifyYAML(v[i])
		}
		return v
	default:
		return v
	}
}
