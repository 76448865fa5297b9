package config

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleHCL = `
schema_version = "1.0"

organization = "Acme Corp"
network      = "HQ"

ap_model_prefixes = ["MR", "CW", "MR-legacy"]

api {
  base_url         = "https://api.example.test/api/v1"
  timeout_seconds  = 10
  call_interval_ms = 100
}

output {
  dir = "out"
}

web {
  listen          = "0.0.0.0:9000"
  allowed_origins = ["https://ops.example.test"]
}

history {
  path     = "/tmp/history.db"
  schedule = "@every 1h"

  influx {
    url    = "http://influx.example.test:8086"
    token  = "secret"
    org    = "netops"
    bucket = "meraki"
  }
}

profile "lab" {
  organization = "Lab Org"
  network      = "Lab Net"
}
`

func TestLoadHCL(t *testing.T) {
	cfg, err := LoadHCL([]byte(sampleHCL), "test.hcl")
	if err != nil {
		t.Fatalf("LoadHCL failed: %v", err)
	}

	if cfg.Organization != "Acme Corp" {
		t.Errorf("expected organization 'Acme Corp', got %q", cfg.Organization)
	}
	if cfg.Network != "HQ" {
		t.Errorf("expected network 'HQ', got %q", cfg.Network)
	}
	if len(cfg.APModelPrefixes) != 3 {
		t.Errorf("expected 3 AP prefixes, got %v", cfg.APModelPrefixes)
	}
	if cfg.API.BaseURL != "https://api.example.test/api/v1" {
		t.Errorf("unexpected base URL: %q", cfg.API.BaseURL)
	}
	if cfg.API.TimeoutSeconds != 10 {
		t.Errorf("expected timeout 10, got %d", cfg.API.TimeoutSeconds)
	}
	if cfg.Output.Dir != "out" {
		t.Errorf("expected output dir 'out', got %q", cfg.Output.Dir)
	}
	if cfg.History == nil || cfg.History.Influx == nil {
		t.Fatal("expected history.influx block")
	}
	if cfg.History.Influx.Bucket != "meraki" {
		t.Errorf("expected influx bucket 'meraki', got %q", cfg.History.Influx.Bucket)
	}
	if len(cfg.Profiles) != 1 || cfg.Profiles[0].Name != "lab" {
		t.Fatalf("expected one profile 'lab', got %+v", cfg.Profiles)
	}
}

func TestLoadHCL_DefaultsApplied(t *testing.T) {
	cfg, err := LoadHCL([]byte(`organization = "Acme Corp"`), "minimal.hcl")
	if err != nil {
		t.Fatalf("LoadHCL failed: %v", err)
	}

	if cfg.SchemaVersion != CurrentSchemaVersion {
		t.Errorf("expected schema version %q, got %q", CurrentSchemaVersion, cfg.SchemaVersion)
	}
	if cfg.Output.Dir != DefaultOutputDir {
		t.Errorf("expected default output dir %q, got %q", DefaultOutputDir, cfg.Output.Dir)
	}
	if cfg.API.TimeoutSeconds != DefaultTimeoutSeconds {
		t.Errorf("expected default timeout, got %d", cfg.API.TimeoutSeconds)
	}
	if len(cfg.APModelPrefixes) != 2 || cfg.APModelPrefixes[0] != "MR" || cfg.APModelPrefixes[1] != "CW" {
		t.Errorf("expected default AP prefixes [MR CW], got %v", cfg.APModelPrefixes)
	}
	if cfg.Web.Listen != DefaultWebListen {
		t.Errorf("expected default web listen, got %q", cfg.Web.Listen)
	}
}

func TestLoadHCL_UnsupportedVersion(t *testing.T) {
	_, err := LoadHCL([]byte(`schema_version = "9.0"`), "future.hcl")
	if err == nil {
		t.Fatal("expected error for unsupported schema version")
	}
}

func TestLoadHCL_ParseError(t *testing.T) {
	_, err := LoadHCL([]byte(`api { listen = `), "broken.hcl")
	if err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("MERAKICTL_CONFIG_DIR", t.TempDir())

	result, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if result.Config.Output.Dir != DefaultOutputDir {
		t.Errorf("expected defaults for missing file, got %+v", result.Config.Output)
	}
}

func TestLoad_ExplicitMissingFileIsError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.hcl"))
	if err == nil {
		t.Fatal("expected error for explicit missing path")
	}
}

func TestSaveHCL_Roundtrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "merakictl.hcl")

	cfg := Default()
	cfg.Organization = "Acme Corp"
	cfg.Network = "HQ"
	cfg.Profiles = []Profile{{Name: "lab", Organization: "Lab Org"}}

	if err := SaveHCL(cfg, path); err != nil {
		t.Fatalf("SaveHCL failed: %v", err)
	}

	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if loaded.Organization != "Acme Corp" {
		t.Errorf("expected organization to survive roundtrip, got %q", loaded.Organization)
	}
	if len(loaded.Profiles) != 1 || loaded.Profiles[0].Name != "lab" {
		t.Errorf("expected profile to survive roundtrip, got %+v", loaded.Profiles)
	}
}

func TestLoadFile_JSONByExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	data := []byte(`{"schema_version":"1.0","organization":"Acme Corp"}`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Organization != "Acme Corp" {
		t.Errorf("expected organization from JSON, got %q", cfg.Organization)
	}
}

func TestTarget(t *testing.T) {
	cfg := Default()
	cfg.Organization = "Default Org"
	cfg.Network = "Default Net"
	cfg.Profiles = []Profile{{Name: "lab", Organization: "Lab Org", Network: "Lab Net"}}

	tests := []struct {
		name     string
		profile  string
		orgFlag  string
		netFlag  string
		wantOrg  string
		wantNet  string
		wantFail bool
	}{
		{"defaults", "", "", "", "Default Org", "Default Net", false},
		{"profile", "lab", "", "", "Lab Org", "Lab Net", false},
		{"flag beats profile", "lab", "Flag Org", "", "Flag Org", "Lab Net", false},
		{"flags beat defaults", "", "Flag Org", "Flag Net", "Flag Org", "Flag Net", false},
		{"unknown profile", "prod", "", "", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			org, net, err := cfg.Target(tt.profile, tt.orgFlag, tt.netFlag)
			if tt.wantFail {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Target failed: %v", err)
			}
			if org != tt.wantOrg || net != tt.wantNet {
				t.Errorf("got (%q, %q), want (%q, %q)", org, net, tt.wantOrg, tt.wantNet)
			}
		})
	}
}

func TestValidate_Warnings(t *testing.T) {
	cfg := Default()
	cfg.Profiles = []Profile{
		{Name: "dup", Organization: "A"},
		{Name: "dup", Organization: "B"},
		{Name: "empty"},
	}
	cfg.History = &HistoryConfig{Influx: &InfluxConfig{URL: "http://x"}}

	warnings := cfg.Validate()
	if len(warnings) != 3 {
		t.Fatalf("expected 3 warnings, got %d: %v", len(warnings), warnings)
	}
}

func TestResolveAPIKey_Priority(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("MERAKICTL_CONFIG_DIR", dir)
	t.Setenv("MERAKI_API_KEY", "")

	cfg := Default()
	cfg.API.Key = "from-config"

	if key := cfg.ResolveAPIKey(); key != "from-config" {
		t.Errorf("expected config key, got %q", key)
	}

	if err := WriteCredentials("from-file"); err != nil {
		t.Fatalf("WriteCredentials failed: %v", err)
	}
	if key := cfg.ResolveAPIKey(); key != "from-file" {
		t.Errorf("expected credentials file to beat config, got %q", key)
	}

	t.Setenv("MERAKI_API_KEY", "from-env")
	if key := cfg.ResolveAPIKey(); key != "from-env" {
		t.Errorf("expected env to beat everything, got %q", key)
	}
}

func TestWriteCredentials_Permissions(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("MERAKICTL_CONFIG_DIR", dir)

	if err := WriteCredentials("secret-key"); err != nil {
		t.Fatalf("WriteCredentials failed: %v", err)
	}

	info, err := os.Stat(filepath.Join(dir, "credentials"))
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("expected mode 0600, got %o", perm)
	}

	key, err := ReadCredentials()
	if err != nil {
		t.Fatalf("ReadCredentials failed: %v", err)
	}
	if key != "secret-key" {
		t.Errorf("expected 'secret-key', got %q", key)
	}

	if err := RemoveCredentials(); err != nil {
		t.Fatalf("RemoveCredentials failed: %v", err)
	}
	if err := RemoveCredentials(); err != nil {
		t.Errorf("removing twice should be fine, got %v", err)
	}
}
