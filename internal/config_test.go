package internal

import (
	"os"
	"path/filepath"
	"testing"

	pkgconfig "github.com/rowanh/notegraph/pkg/config"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.App.HTTP.Address() != ":8080" {
		t.Errorf("address = %q", cfg.App.HTTP.Address())
	}
	if cfg.Auth.AuthEnabled() {
		t.Error("auth should default to disabled")
	}
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("TEST_GRAPH_PASSWORD", "s3cret")
	raw := `
app:
  log_level: debug
  http:
    port: 9090
graph:
  uri: bolt://graph:7687
  username: neo4j
  password: ${TEST_GRAPH_PASSWORD}
tenancy:
  registry_path: /tmp/tenants.db
auth:
  mode: token
  token: hunter2
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(path, cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.App.HTTP.Port != 9090 {
		t.Errorf("port = %d", cfg.App.HTTP.Port)
	}
	if cfg.Graph.Password != "s3cret" {
		t.Errorf("password = %q, want env-expanded value", cfg.Graph.Password)
	}
	if !cfg.Auth.AuthEnabled() {
		t.Error("token mode should enable auth")
	}
}

func TestValidate_PortBounds(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.App.HTTP.Port = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for port 0")
	}
	cfg.App.HTTP.Port = 70000
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for out-of-range port")
	}
}

func TestValidate_TokenModeRequiresToken(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = AuthModeToken
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for token mode without token")
	}
	cfg.Auth.Token = "x"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidate_EmptyModeNormalized(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = ""
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Auth.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want disabled", cfg.Auth.Mode)
	}
}

func TestValidate_GraphRequiresURI(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Graph.URI = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for empty graph uri")
	}
}
