package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// PlatformAuto selects the platform bundle for the running OS.
const PlatformAuto = "auto"

const envPrefix = "THEMEKIT_"

type Config struct {
	Bind          string `json:"bind" validate:"required"`
	Host          string `json:"host"`
	Port          int    `json:"port" validate:"gte=1,lte=65535"`
	BasePath      string `json:"base_path"`
	LogLevel      string `json:"log_level" validate:"oneof=debug info warn error"`
	DataDir       string `json:"data_dir"`
	HTTPS         bool   `json:"https"`
	CertFile      string `json:"cert_file" validate:"required_if=HTTPS true"`
	KeyFile       string `json:"key_file" validate:"required_if=HTTPS true"`
	Theme         string `json:"theme" validate:"required"`
	Platform      string `json:"platform"`
	Manifest      string `json:"manifest"`
	BundleDir     string `json:"bundle_dir"`
	IconDir       string `json:"icon_dir"`
	StrictLookups bool   `json:"strict_lookups"`
	IconSize      int    `json:"icon_size" validate:"gte=8,lte=512"`
	PrefetchLimit int    `json:"prefetch_limit" validate:"gte=0,lte=64"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func DefaultPaths() (configPath, dataDir string, err error) {
	cfgRoot, err := os.UserConfigDir()
	if err != nil {
		return "", "", fmt.Errorf("resolve user config dir: %w", err)
	}
	var dataRoot string
	switch runtime.GOOS {
	case "windows":
		dataRoot = cfgRoot
	default:
		if p, derr := os.UserHomeDir(); derr == nil {
			dataRoot = filepath.Join(p, ".local", "share")
		} else {
			dataRoot = cfgRoot
		}
	}
	configPath = filepath.Join(cfgRoot, "themekit", "config.json")
	dataDir = filepath.Join(dataRoot, "themekit")
	return configPath, dataDir, nil
}

func Default(dataDir string) Config {
	return Config{
		Bind:          "127.0.0.1",
		Host:          "",
		Port:          7390,
		BasePath:      "/",
		LogLevel:      "info",
		DataDir:       dataDir,
		HTTPS:         false,
		CertFile:      "",
		KeyFile:       "",
		Theme:         "intellij",
		Platform:      PlatformAuto,
		Manifest:      "",
		BundleDir:     "",
		IconDir:       "",
		StrictLookups: false,
		IconSize:      16,
		PrefetchLimit: 4,
	}
}

// NormalizeBasePath reduces p to a clean absolute path prefix without a
// trailing slash. Full URLs contribute only their path.
func NormalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if u, err := url.Parse(p); err == nil && u.Scheme != "" {
		p = u.Path
	}
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	parts := strings.FieldsFunc(p, func(r rune) bool { return r == '/' })
	if len(parts) == 0 {
		return "/"
	}
	return "/" + strings.Join(parts, "/")
}

// LoadDotEnv loads path into the process environment. A missing file is not an
// error and variables already set win.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func LoadOrDefault(configPath, dataDirOverride string) (Config, error) {
	_, defaultData, err := DefaultPaths()
	if err != nil {
		return Config{}, err
	}
	cfg := Default(defaultData)

	b, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("decode config: %w", err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := ApplyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if dataDirOverride != "" {
		cfg.DataDir = dataDirOverride
	}
	cfg.BasePath = NormalizeBasePath(cfg.BasePath)
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv overrides cfg with THEMEKIT_* variables that are set.
func ApplyEnv(cfg *Config) error {
	strs := map[string]*string{
		"BIND":       &cfg.Bind,
		"HOST":       &cfg.Host,
		"BASE_PATH":  &cfg.BasePath,
		"LOG_LEVEL":  &cfg.LogLevel,
		"DATA_DIR":   &cfg.DataDir,
		"THEME":      &cfg.Theme,
		"PLATFORM":   &cfg.Platform,
		"MANIFEST":   &cfg.Manifest,
		"BUNDLE_DIR": &cfg.BundleDir,
		"ICON_DIR":   &cfg.IconDir,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(envPrefix + key); ok {
			*dst = v
		}
	}
	ints := map[string]*int{
		"PORT":           &cfg.Port,
		"ICON_SIZE":      &cfg.IconSize,
		"PREFETCH_LIMIT": &cfg.PrefetchLimit,
	}
	for key, dst := range ints {
		raw, ok := os.LookupEnv(envPrefix + key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("%s%s must be an integer: %w", envPrefix, key, err)
		}
		*dst = n
	}
	if raw, ok := os.LookupEnv(envPrefix + "STRICT_LOOKUPS"); ok {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("%sSTRICT_LOOKUPS must be a boolean: %w", envPrefix, err)
		}
		cfg.StrictLookups = b
	}
	return nil
}

func Save(configPath string, cfg Config) error {
	if err := Validate(cfg); err != nil {
		return err
	}
	cfg.BasePath = NormalizeBasePath(cfg.BasePath)
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	buf, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(configPath, buf, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func Validate(cfg Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func ConfigPathFromEnv() (string, error) {
	if p := strings.TrimSpace(os.Getenv(envPrefix + "CONFIG")); p != "" {
		return p, nil
	}
	cfgPath, _, err := DefaultPaths()
	return cfgPath, err
}

// ResolvePlatform maps the configured platform to a bundle id.
func (c Config) ResolvePlatform(bundleFor func(goos string) string) string {
	switch c.Platform {
	case "", PlatformAuto:
		return bundleFor(runtime.GOOS)
	case "none":
		return ""
	}
	return c.Platform
}
