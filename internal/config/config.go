// Package config loads and saves the merakictl configuration file.
//
// The file is HCL (merakictl.hcl under the brand config dir), with a
// JSON fallback selected by extension. The dashboard API key itself is
// resolved separately: environment variable first, then the
// credentials file, then the api block, so the key never has to live
// in the main config.
package config

import (
	"fmt"
	"time"
)

// CurrentSchemaVersion is the latest config schema version.
const CurrentSchemaVersion = "1.0"

// Defaults applied when the file omits them.
const (
	DefaultOutputDir      = "reports"
	DefaultWebListen      = "127.0.0.1:8765"
	DefaultTimeoutSeconds = 30
	DefaultCallIntervalMS = 200
)

// DefaultAPModelPrefixes marks which device models count as access
// points. MR is the classic wireless line, CW the Catalyst-branded one.
var DefaultAPModelPrefixes = []string{"MR", "CW"}

// Config is the top-level structure for the merakictl configuration.
type Config struct {
	// Schema version for backward compatibility (e.g. "1.0").
	// Empty defaults to "1.0".
	SchemaVersion string `hcl:"schema_version,optional" json:"schema_version,omitempty"`

	// Default organization and network, by dashboard name. Verbs
	// resolve these to IDs at startup; flags override per run.
	Organization string `hcl:"organization,optional" json:"organization,omitempty"`
	Network      string `hcl:"network,optional" json:"network,omitempty"`

	// Model prefixes that classify a device as an access point.
	APModelPrefixes []string `hcl:"ap_model_prefixes,optional" json:"ap_model_prefixes,omitempty"`

	API     *APIConfig     `hcl:"api,block" json:"api,omitempty"`
	Output  *OutputConfig  `hcl:"output,block" json:"output,omitempty"`
	Web     *WebConfig     `hcl:"web,block" json:"web,omitempty"`
	History *HistoryConfig `hcl:"history,block" json:"history,omitempty"`
	Audit   *AuditConfig   `hcl:"audit,block" json:"audit,omitempty"`

	// Named org/network presets selectable with -profile.
	Profiles []Profile `hcl:"profile,block" json:"profiles,omitempty"`
}

// Profile is a named organization/network pair.
type Profile struct {
	Name         string `hcl:"name,label" json:"name"`
	Organization string `hcl:"organization,optional" json:"organization,omitempty"`
	Network      string `hcl:"network,optional" json:"network,omitempty"`
}

// APIConfig tunes the dashboard client.
type APIConfig struct {
	// Key is the dashboard API key. Prefer the env var or the
	// credentials file; this field exists for lab setups.
	Key            string `hcl:"key,optional" json:"key,omitempty"`
	BaseURL        string `hcl:"base_url,optional" json:"base_url,omitempty"`
	TimeoutSeconds int    `hcl:"timeout_seconds,optional" json:"timeout_seconds,omitempty"`
	CallIntervalMS int    `hcl:"call_interval_ms,optional" json:"call_interval_ms,omitempty"`
}

// OutputConfig controls where report files land.
type OutputConfig struct {
	Dir string `hcl:"dir,optional" json:"dir,omitempty"`
}

// WebConfig configures the chat and dashboard HTTP servers.
type WebConfig struct {
	Listen string `hcl:"listen,optional" json:"listen,omitempty"`

	// SessionSecret signs session cookies. Empty means a random
	// per-process secret, which invalidates sessions on restart.
	SessionSecret string `hcl:"session_secret,optional" json:"session_secret,omitempty"`

	AllowedOrigins []string `hcl:"allowed_origins,optional" json:"allowed_origins,omitempty"`
}

// HistoryConfig configures the usage snapshot store.
type HistoryConfig struct {
	// Path of the sqlite database. Empty defaults to history.db
	// under the brand state dir.
	Path string `hcl:"path,optional" json:"path,omitempty"`

	// Schedule for snapshot --watch, cron syntax or @every form.
	Schedule string `hcl:"schedule,optional" json:"schedule,omitempty"`

	// RetentionDays bounds how long snapshots are kept. Zero means
	// the 365-day default.
	RetentionDays int `hcl:"retention_days,optional" json:"retention_days,omitempty"`

	Influx *InfluxConfig `hcl:"influx,block" json:"influx,omitempty"`
}

// Retention returns the snapshot retention window. Safe on a nil
// receiver: a missing history block means the 365-day default.
func (h *HistoryConfig) Retention() time.Duration {
	days := 0
	if h != nil {
		days = h.RetentionDays
	}
	if days <= 0 {
		days = 365
	}
	return time.Duration(days) * 24 * time.Hour
}

// InfluxConfig is an optional InfluxDB sink for usage snapshots.
type InfluxConfig struct {
	URL    string `hcl:"url" json:"url"`
	Token  string `hcl:"token,optional" json:"token,omitempty"`
	Org    string `hcl:"org,optional" json:"org,omitempty"`
	Bucket string `hcl:"bucket" json:"bucket"`
}

// AuditConfig configures the configuration-change audit log.
type AuditConfig struct {
	Enabled       *bool  `hcl:"enabled,optional" json:"enabled,omitempty"`
	Path          string `hcl:"path,optional" json:"path,omitempty"`
	RetentionDays int    `hcl:"retention_days,optional" json:"retention_days,omitempty"`
}

// Default returns a config populated with every default value. The
// setup wizard starts from this and the loader fills gaps with it.
func Default() *Config {
	return &Config{
		SchemaVersion:   CurrentSchemaVersion,
		APModelPrefixes: append([]string(nil), DefaultAPModelPrefixes...),
		API: &APIConfig{
			TimeoutSeconds: DefaultTimeoutSeconds,
			CallIntervalMS: DefaultCallIntervalMS,
		},
		Output: &OutputConfig{Dir: DefaultOutputDir},
		Web:    &WebConfig{Listen: DefaultWebListen},
	}
}

// ApplyDefaults fills the zero-valued knobs in place. Loaded configs
// pass through here so callers never see an empty output dir or a
// zero timeout.
func (c *Config) ApplyDefaults() {
	if c.SchemaVersion == "" {
		c.SchemaVersion = CurrentSchemaVersion
	}
	if len(c.APModelPrefixes) == 0 {
		c.APModelPrefixes = append([]string(nil), DefaultAPModelPrefixes...)
	}
	if c.API == nil {
		c.API = &APIConfig{}
	}
	if c.API.TimeoutSeconds == 0 {
		c.API.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if c.API.CallIntervalMS == 0 {
		c.API.CallIntervalMS = DefaultCallIntervalMS
	}
	if c.Output == nil {
		c.Output = &OutputConfig{}
	}
	if c.Output.Dir == "" {
		c.Output.Dir = DefaultOutputDir
	}
	if c.Web == nil {
		c.Web = &WebConfig{}
	}
	if c.Web.Listen == "" {
		c.Web.Listen = DefaultWebListen
	}
}

// Timeout returns the API timeout as a duration.
func (a *APIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// CallInterval returns the minimum spacing between API calls.
func (a *APIConfig) CallInterval() time.Duration {
	return time.Duration(a.CallIntervalMS) * time.Millisecond
}

// ProfileByName returns the named profile.
func (c *Config) ProfileByName(name string) (*Profile, error) {
	for i := range c.Profiles {
		if c.Profiles[i].Name == name {
			return &c.Profiles[i], nil
		}
	}
	return nil, fmt.Errorf("profile %q not defined in config", name)
}

// Target resolves the organization and network names a verb should
// operate on: explicit flags win, then the named profile, then the
// top-level defaults.
func (c *Config) Target(profile, orgFlag, netFlag string) (org, network string, err error) {
	org, network = c.Organization, c.Network
	if profile != "" {
		p, err := c.ProfileByName(profile)
		if err != nil {
			return "", "", err
		}
		if p.Organization != "" {
			org = p.Organization
		}
		if p.Network != "" {
			network = p.Network
		}
	}
	if orgFlag != "" {
		org = orgFlag
	}
	if netFlag != "" {
		network = netFlag
	}
	return org, network, nil
}

// AuditEnabled reports whether change auditing is on. Defaults to on;
// shaping writes are the kind of thing people want a paper trail for.
func (c *Config) AuditEnabled() bool {
	if c.Audit == nil || c.Audit.Enabled == nil {
		return true
	}
	return *c.Audit.Enabled
}
