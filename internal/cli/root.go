package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/matthewsawatzky/themekit/internal/config"
	"github.com/matthewsawatzky/themekit/internal/db"
	"github.com/matthewsawatzky/themekit/internal/icon"
	"github.com/matthewsawatzky/themekit/internal/registry"
	"github.com/matthewsawatzky/themekit/internal/server"
	"github.com/matthewsawatzky/themekit/internal/theme"
	"github.com/matthewsawatzky/themekit/internal/util"
)

type VersionInfo struct {
	Version string
	Commit  string
	Date    string
}

type rootState struct {
	configPath string
	dataDir    string
	envFile    string
	logLevel   string
}

type serveFlags struct {
	host     string
	port     int
	bind     string
	basePath string
	https    bool
	cert     string
	key      string
	theme    string
	strict   bool
}

func NewRootCmd(v VersionInfo) *cobra.Command {
	state := &rootState{}
	serve := &serveFlags{}

	cmd := &cobra.Command{
		Use:           "themekit",
		Short:         "Build, inspect and preview layered UI themes",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.PersistentFlags().StringVar(&state.configPath, "config", "", "config path (default: platform user config)")
	cmd.PersistentFlags().StringVar(&state.dataDir, "data-dir", "", "data directory for the SQLite store")
	cmd.PersistentFlags().StringVar(&state.envFile, "env-file", ".env", "dotenv file loaded before the config")
	cmd.PersistentFlags().StringVar(&state.logLevel, "log-level", "", "log level: debug|info|warn|error")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the theme preview server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, state, serve, v)
		},
	}
	addServeFlags(serveCmd, serve)

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Interactive first-run setup",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, state)
		},
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Print config location and effective config",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, cfg, err := loadConfig(state)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config path: %s\n", cfgPath)
			fmt.Fprintf(out, "Data dir: %s\n", cfg.DataDir)
			fmt.Fprintf(out, "Platform: %s\n", cfg.ResolvePlatform(theme.PlatformBundle))
			b, _ := json.MarshalIndent(cfg, "", "  ")
			fmt.Fprintln(out, string(b))
			return nil
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "themekit %s\ncommit: %s\nbuilt: %s\n", v.Version, v.Commit, v.Date)
		},
	}

	cmd.AddCommand(
		serveCmd,
		initCmd,
		configCmd,
		buildThemeCommands(state),
		buildResolveCommand(state),
		buildSchemaCommand(),
		buildIconCommands(state),
		buildEditCommands(state),
		versionCmd,
	)
	return cmd
}

func addServeFlags(cmd *cobra.Command, f *serveFlags) {
	cmd.Flags().StringVar(&f.host, "host", "", "advertised host override for printed URLs")
	cmd.Flags().IntVar(&f.port, "port", 0, "server port")
	cmd.Flags().StringVar(&f.bind, "bind", "", "bind address (default from config, typically 127.0.0.1)")
	cmd.Flags().StringVar(&f.basePath, "basepath", "", "base URL path for reverse proxy (e.g. /themekit)")
	cmd.Flags().BoolVar(&f.https, "https", false, "enable HTTPS")
	cmd.Flags().StringVar(&f.cert, "cert", "", "TLS certificate path")
	cmd.Flags().StringVar(&f.key, "key", "", "TLS key path")
	cmd.Flags().StringVar(&f.theme, "theme", "", "theme to activate, replacing the stored one")
	cmd.Flags().BoolVar(&f.strict, "strict", false, "fail painter lookups of missing keys")
}

func loadConfig(state *rootState) (string, config.Config, error) {
	if err := config.LoadDotEnv(state.envFile); err != nil {
		return "", config.Config{}, err
	}
	cfgPath := strings.TrimSpace(state.configPath)
	if cfgPath == "" {
		p, err := config.ConfigPathFromEnv()
		if err != nil {
			return "", config.Config{}, err
		}
		cfgPath = p
	}
	cfg, err := config.LoadOrDefault(cfgPath, state.dataDir)
	if err != nil {
		return "", config.Config{}, err
	}
	if state.dataDir != "" {
		cfg.DataDir = state.dataDir
	}
	if state.logLevel != "" {
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(state.logLevel))
	}
	return cfgPath, cfg, nil
}

func newLogger(w io.Writer, level string) *slog.Logger {
	lvl := new(slog.LevelVar)
	var parsed slog.Level
	if err := parsed.UnmarshalText([]byte(strings.TrimSpace(level))); err == nil {
		lvl.Set(parsed)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// env is what most commands work against: the effective config and a
// registry holding the built-in themes, the manifest themes and the icon
// library. Nothing is installed yet.
type env struct {
	cfg    config.Config
	logger *slog.Logger
	reg    *registry.Registry
	lib    *icon.Library
}

func openEnv(cmd *cobra.Command, state *rootState) (*env, error) {
	_, cfg, err := loadConfig(state)
	if err != nil {
		return nil, err
	}
	return newEnv(cmd.ErrOrStderr(), cfg)
}

func newEnv(logOut io.Writer, cfg config.Config) (*env, error) {
	logger := newLogger(logOut, cfg.LogLevel)

	var source theme.Source = theme.BuiltinSource()
	if cfg.BundleDir != "" {
		source = theme.MultiSource{theme.NewDirSource(cfg.BundleDir), source}
	}
	reg := registry.New(registry.Options{
		Engine: theme.NewEngine(source, theme.Schema(), logger),
		Logger: logger,
	})

	descriptors := theme.List()
	if cfg.Manifest != "" {
		extra, err := theme.LoadManifest(cfg.Manifest)
		if err != nil {
			return nil, err
		}
		descriptors = append(descriptors, extra...)
	}
	platform := cfg.ResolvePlatform(theme.PlatformBundle)
	for _, d := range descriptors {
		if d.Platform == "" {
			d.Platform = platform
		}
		reg.Register(d)
	}

	lib, err := icon.Builtin()
	if err != nil {
		return nil, fmt.Errorf("load icons: %w", err)
	}
	if cfg.IconDir != "" {
		if err := lib.Load(os.DirFS(cfg.IconDir)); err != nil {
			return nil, fmt.Errorf("load icons from %s: %w", cfg.IconDir, err)
		}
	}
	return &env{cfg: cfg, logger: logger, reg: reg, lib: lib}, nil
}

// install activates name, or the configured theme when name is empty.
func (e *env) install(name string) (*theme.Result, error) {
	if name == "" {
		name = e.cfg.Theme
	}
	return e.reg.InstallName(name)
}

func (e *env) openStore(ctx context.Context) (*db.Store, error) {
	return db.Open(ctx, e.cfg.DataDir)
}

func mergeServeFlags(cmd *cobra.Command, cfg config.Config, f *serveFlags) config.Config {
	if cmd.Flags().Changed("host") {
		cfg.Host = f.host
	}
	if cmd.Flags().Changed("port") {
		cfg.Port = f.port
	}
	if cmd.Flags().Changed("bind") {
		cfg.Bind = f.bind
	}
	if cmd.Flags().Changed("basepath") {
		cfg.BasePath = config.NormalizeBasePath(f.basePath)
	}
	if cmd.Flags().Changed("https") {
		cfg.HTTPS = f.https
	}
	if cmd.Flags().Changed("cert") {
		cfg.CertFile = f.cert
	}
	if cmd.Flags().Changed("key") {
		cfg.KeyFile = f.key
	}
	if cmd.Flags().Changed("theme") {
		cfg.Theme = strings.TrimSpace(f.theme)
	}
	if cmd.Flags().Changed("strict") {
		cfg.StrictLookups = f.strict
	}
	return cfg
}

func runServe(cmd *cobra.Command, state *rootState, flags *serveFlags, v VersionInfo) error {
	cfgPath, cfg, err := loadConfig(state)
	if err != nil {
		return err
	}
	cfg = mergeServeFlags(cmd, cfg, flags)
	if err := config.Validate(cfg); err != nil {
		return err
	}
	e, err := newEnv(cmd.ErrOrStderr(), cfg)
	if err != nil {
		return err
	}
	themeSet := cmd.Flags().Changed("theme")
	if themeSet {
		if _, err := e.reg.Lookup(cfg.Theme); err != nil {
			return err
		}
	}

	opts := server.Options{
		DataDir:       cfg.DataDir,
		Bind:          cfg.Bind,
		Host:          cfg.Host,
		Port:          cfg.Port,
		BasePath:      cfg.BasePath,
		LogLevel:      cfg.LogLevel,
		HTTPS:         cfg.HTTPS,
		CertFile:      cfg.CertFile,
		KeyFile:       cfg.KeyFile,
		Version:       v.Version,
		Theme:         cfg.Theme,
		ThemeSet:      themeSet,
		StrictLookups: cfg.StrictLookups,
		IconSize:      cfg.IconSize,
		PrefetchLimit: cfg.PrefetchLimit,
		Registry:      e.reg,
		Library:       e.lib,
	}

	out := cmd.OutOrStdout()
	urls := util.PreviewURLs(opts.Bind, opts.Port, opts.HTTPS, opts.BasePath)
	if cfg.Host != "" {
		urls = append([]string{advertisedURL(cfg)}, urls...)
	}
	fmt.Fprintf(out, "Config:  %s\n", cfgPath)
	fmt.Fprintf(out, "Data:    %s\n", cfg.DataDir)
	fmt.Fprintf(out, "Themes:  %d registered, %d icons\n", len(e.reg.Descriptors()), len(e.lib.Names()))
	fmt.Fprintln(out, "URLs:")
	for _, u := range urls {
		fmt.Fprintf(out, "  - %s\n", u)
	}
	if shared := util.ShareableURL(urls); shared != "" {
		fmt.Fprintln(out, "QR (scan from a device on the same LAN):")
		if err := util.WriteTerminalQR(out, shared); err != nil {
			e.logger.Warn("qr code unavailable", "err", err)
		}
	}
	fmt.Fprintln(out, "Press Ctrl+C to stop.")

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	return server.Run(ctx, opts)
}

func advertisedURL(cfg config.Config) string {
	scheme := "http"
	if cfg.HTTPS {
		scheme = "https"
	}
	base := cfg.BasePath
	if base == "/" {
		base = ""
	}
	return fmt.Sprintf("%s://%s:%d%s/", scheme, cfg.Host, cfg.Port, base)
}

func runInit(cmd *cobra.Command, state *rootState) error {
	cfgPath := strings.TrimSpace(state.configPath)
	if cfgPath == "" {
		p, err := config.ConfigPathFromEnv()
		if err != nil {
			return err
		}
		cfgPath = p
	}
	cfg, err := config.LoadOrDefault(cfgPath, state.dataDir)
	if err != nil {
		return err
	}

	r := bufio.NewReader(cmd.InOrStdin())
	w := cmd.OutOrStdout()
	fmt.Fprintln(w, "themekit first-run setup")
	cfg.DataDir = askWithDefault(r, w, "Data directory", cfg.DataDir)
	cfg.Bind = askWithDefault(r, w, "Bind address", cfg.Bind)
	cfg.Port = askIntWithDefault(r, w, "Port", cfg.Port)
	cfg.BasePath = config.NormalizeBasePath(askWithDefault(r, w, "Base path", cfg.BasePath))
	cfg.Theme = askWithDefault(r, w, "Default theme", cfg.Theme)
	cfg.Platform = strings.ToLower(askWithDefault(r, w, "Platform (auto/none/platform/mac/platform/windows/platform/linux)", cfg.Platform))
	cfg.Manifest = askWithDefault(r, w, "Theme manifest (empty for none)", cfg.Manifest)
	cfg.IconSize = askIntWithDefault(r, w, "Preview icon size", cfg.IconSize)
	cfg.StrictLookups = askBoolWithDefault(r, w, "Strict painter lookups", cfg.StrictLookups)

	if err := config.Validate(cfg); err != nil {
		return err
	}
	e, err := newEnv(cmd.ErrOrStderr(), cfg)
	if err != nil {
		return err
	}
	if _, err := e.reg.Lookup(cfg.Theme); err != nil {
		return err
	}
	if err := config.Save(cfgPath, cfg); err != nil {
		return err
	}

	ctx := cmd.Context()
	store, err := e.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.SetAppSettings(ctx, db.AppSettings{
		ActiveTheme:        cfg.Theme,
		ThemeOverridesJSON: "{}",
		StrictLookups:      cfg.StrictLookups,
	}); err != nil {
		return err
	}

	fmt.Fprintf(w, "Config saved to %s\n", cfgPath)
	fmt.Fprintln(w, "Run `themekit serve` to start the preview server.")
	return nil
}

func askWithDefault(r *bufio.Reader, w io.Writer, label, def string) string {
	fmt.Fprintf(w, "%s [%s]: ", label, def)
	text, _ := r.ReadString('\n')
	text = strings.TrimSpace(text)
	if text == "" {
		return def
	}
	return text
}

func askIntWithDefault(r *bufio.Reader, w io.Writer, label string, def int) int {
	for {
		value := askWithDefault(r, w, label, strconv.Itoa(def))
		n, err := strconv.Atoi(value)
		if err == nil && n > 0 {
			return n
		}
		fmt.Fprintln(w, "Please enter a positive integer.")
	}
}

func askBoolWithDefault(r *bufio.Reader, w io.Writer, label string, def bool) bool {
	defaultStr := "n"
	if def {
		defaultStr = "y"
	}
	for {
		v := strings.ToLower(askWithDefault(r, w, label+" (y/n)", defaultStr))
		switch v {
		case "y", "yes", "true", "1":
			return true
		case "n", "no", "false", "0":
			return false
		default:
			fmt.Fprintln(w, "Enter y or n.")
		}
	}
}
