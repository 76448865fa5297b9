package config

import (
	"fmt"
	"strings"
)

// Validate returns human-readable warnings for values that will load
// but probably don't do what the author meant. Nothing here is fatal;
// verbs print the warnings and carry on.
func (c *Config) Validate() []string {
	var warnings []string

	if c.API != nil {
		if c.API.TimeoutSeconds < 0 {
			warnings = append(warnings, "api.timeout_seconds is negative, using default")
		}
		if c.API.CallIntervalMS < 0 {
			warnings = append(warnings, "api.call_interval_ms is negative, using default")
		}
	}

	if c.Web != nil && c.Web.Listen != "" && !strings.Contains(c.Web.Listen, ":") {
		warnings = append(warnings, fmt.Sprintf("web.listen %q has no port", c.Web.Listen))
	}

	if c.History != nil && c.History.Influx != nil {
		influx := c.History.Influx
		if influx.URL == "" {
			warnings = append(warnings, "history.influx.url is empty, snapshots will not be exported")
		}
		if influx.Bucket == "" {
			warnings = append(warnings, "history.influx.bucket is empty, snapshots will not be exported")
		}
	}

	seen := map[string]bool{}
	for _, p := range c.Profiles {
		if seen[p.Name] {
			warnings = append(warnings, fmt.Sprintf("profile %q defined more than once, first wins", p.Name))
		}
		seen[p.Name] = true
		if p.Organization == "" && p.Network == "" {
			warnings = append(warnings, fmt.Sprintf("profile %q sets neither organization nor network", p.Name))
		}
	}

	for _, prefix := range c.APModelPrefixes {
		if prefix == "" {
			warnings = append(warnings, "ap_model_prefixes contains an empty prefix, which matches every model")
		}
	}

	return warnings
}
