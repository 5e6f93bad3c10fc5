package internal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	pkgconfig "github.com/starford/showcase/pkg/config"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	if err := NewDefaultConfig().Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestFullConfig_SectionValidation(t *testing.T) {
	cases := map[string]func(*Config){
		"auth":        func(c *Config) { c.Auth.Mode, c.Auth.Token = AuthModeToken, "" },
		"port":        func(c *Config) { c.App.HTTP.Port = 70000 },
		"document":    func(c *Config) { c.GitHub.DocumentPath = "" },
		"drafts dir":  func(c *Config) { c.Local.DraftsDir = "" },
		"dataset":     func(c *Config) { c.Output.Dataset = "" },
		"concurrency": func(c *Config) { c.Sync.Concurrency = 0 },
		"sqlite":      func(c *Config) { c.SQLite.Path = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestLoad_FileAndEnvOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
app:
  log_level: debug
  http:
    port: 9090
github:
  owner: octo
  token: ${TEST_SHOWCASE_TOKEN}
sync:
  concurrency: 8
  fetch_timeout: 5s
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TEST_SHOWCASE_TOKEN", "from-file")
	t.Setenv("SHOWCASE_DATASET", "out/projects.json")
	unsetenv(t, "GITHUB_TOKEN", "GITHUB_OWNER")

	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(path, cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.App.HTTP.Port != 9090 || cfg.App.LogLevel.String() != "DEBUG" {
		t.Errorf("app = %+v", cfg.App)
	}
	if cfg.GitHub.Token != "from-file" {
		t.Errorf("token = %q", cfg.GitHub.Token)
	}
	if cfg.Output.Dataset != "out/projects.json" {
		t.Errorf("dataset = %q, want env override", cfg.Output.Dataset)
	}
	if cfg.Sync.Concurrency != 8 || cfg.Sync.FetchTimeout != 5*time.Second {
		t.Errorf("sync = %+v", cfg.Sync)
	}
	if cfg.Local.FilesDir != "portfolio" {
		t.Errorf("defaults should survive a partial file, files_dir = %q", cfg.Local.FilesDir)
	}
}

// unsetenv clears variables for the duration of the test.
func unsetenv(t *testing.T, names ...string) {
	t.Helper()
	for _, n := range names {
		t.Setenv(n, "")
		os.Unsetenv(n)
	}
}

func TestLoadOptional_MissingFile(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "env-token")
	cfg := NewDefaultConfig()
	if err := pkgconfig.LoadOptional(filepath.Join(t.TempDir(), "nope.yaml"), cfg); err != nil {
		t.Fatalf("LoadOptional: %v", err)
	}
	if cfg.GitHub.Token != "env-token" {
		t.Errorf("token = %q, want env value", cfg.GitHub.Token)
	}
}
