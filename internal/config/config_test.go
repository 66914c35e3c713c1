package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNormalizeBasePath(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: "/"},
		{name: "root", in: "/", want: "/"},
		{name: "segment", in: "files", want: "/files"},
		{name: "leading and trailing slash", in: "/files/", want: "/files"},
		{name: "scheme relative input", in: "//static", want: "/static"},
		{name: "multiple slashes", in: "///files//", want: "/files"},
		{name: "absolute url with path", in: "https://example.test/themekit/", want: "/themekit"},
		{name: "absolute url with no path", in: "https://example.test", want: "/"},
		{name: "path with query and fragment", in: "/files/?q=1#top", want: "/files"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeBasePath(tt.in)
			if got != tt.want {
				t.Fatalf("NormalizeBasePath(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestLoadOrDefaultMissingFile(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadOrDefault(filepath.Join(dir, "config.json"), dir)
	if err != nil {
		t.Fatalf("LoadOrDefault() unexpected error: %v", err)
	}
	if cfg.Theme != "intellij" || cfg.DataDir != dir || cfg.Port != 7390 {
		t.Fatalf("LoadOrDefault() = %+v, want defaults", cfg)
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "themekit", "config.json")
	cfg := Default(dir)
	cfg.Theme = "darcula"
	cfg.BasePath = "preview/"
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save() unexpected error: %v", err)
	}
	got, err := LoadOrDefault(path, "")
	if err != nil {
		t.Fatalf("LoadOrDefault() unexpected error: %v", err)
	}
	if got.Theme != "darcula" || got.BasePath != "/preview" {
		t.Fatalf("LoadOrDefault() = %+v", got)
	}
}

func TestEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("THEMEKIT_THEME", "one-dark")
	t.Setenv("THEMEKIT_PORT", "8080")
	t.Setenv("THEMEKIT_STRICT_LOOKUPS", "true")
	cfg, err := LoadOrDefault(filepath.Join(dir, "missing.json"), dir)
	if err != nil {
		t.Fatalf("LoadOrDefault() unexpected error: %v", err)
	}
	if cfg.Theme != "one-dark" || cfg.Port != 8080 || !cfg.StrictLookups {
		t.Fatalf("LoadOrDefault() = %+v, want env overrides", cfg)
	}

	t.Setenv("THEMEKIT_PORT", "eighty")
	if _, err := LoadOrDefault(filepath.Join(dir, "missing.json"), dir); err == nil {
		t.Fatalf("LoadOrDefault() accepted a non-numeric port")
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	if err := LoadDotEnv(filepath.Join(dir, "absent.env")); err != nil {
		t.Fatalf("LoadDotEnv(absent) unexpected error: %v", err)
	}
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("THEMEKIT_TEST_DOTENV=loaded\n"), 0o600); err != nil {
		t.Fatalf("WriteFile() unexpected error: %v", err)
	}
	t.Setenv("THEMEKIT_TEST_DOTENV", "")
	os.Unsetenv("THEMEKIT_TEST_DOTENV")
	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv() unexpected error: %v", err)
	}
	if got := os.Getenv("THEMEKIT_TEST_DOTENV"); got != "loaded" {
		t.Fatalf("THEMEKIT_TEST_DOTENV = %q, want loaded", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "port", mutate: func(c *Config) { c.Port = 0 }},
		{name: "log level", mutate: func(c *Config) { c.LogLevel = "loud" }},
		{name: "https without cert", mutate: func(c *Config) { c.HTTPS = true }},
		{name: "icon size", mutate: func(c *Config) { c.IconSize = 2 }},
		{name: "theme", mutate: func(c *Config) { c.Theme = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default(t.TempDir())
			tt.mutate(&cfg)
			if err := Validate(cfg); err == nil {
				t.Fatalf("Validate() accepted %+v", cfg)
			}
		})
	}
	if err := Validate(Default(t.TempDir())); err != nil {
		t.Fatalf("Validate(Default()) unexpected error: %v", err)
	}
}

func TestResolvePlatform(t *testing.T) {
	bundleFor := func(goos string) string { return "platform/" + goos }
	cfg := Default("")
	if got := cfg.ResolvePlatform(bundleFor); got == "" {
		t.Fatalf("ResolvePlatform(auto) = %q", got)
	}
	cfg.Platform = "none"
	if got := cfg.ResolvePlatform(bundleFor); got != "" {
		t.Fatalf("ResolvePlatform(none) = %q, want empty", got)
	}
	cfg.Platform = "platform/mac"
	if got := cfg.ResolvePlatform(bundleFor); got != "platform/mac" {
		t.Fatalf("ResolvePlatform() = %q, want platform/mac", got)
	}
}
