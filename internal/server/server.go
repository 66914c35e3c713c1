package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/matthewsawatzky/themekit/internal/config"
	"github.com/matthewsawatzky/themekit/internal/db"
	"github.com/matthewsawatzky/themekit/internal/editor"
	"github.com/matthewsawatzky/themekit/internal/icon"
	"github.com/matthewsawatzky/themekit/internal/props"
	"github.com/matthewsawatzky/themekit/internal/registry"
	"github.com/matthewsawatzky/themekit/internal/resolve"
	"github.com/matthewsawatzky/themekit/internal/theme"
)

const defaultIconSize = 16

type App struct {
	opts      Options
	store     *db.Store
	logger    *slog.Logger
	reg       *registry.Registry
	library   *icon.Library
	workspace *editor.Workspace
	missing   *resolve.MissingLog
	strict    atomic.Bool
}

// New wires the preview API over opts.Registry and opts.Library, building the
// built-in ones when they are nil. Without a store nothing is persisted.
func New(opts Options, store *db.Store, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	opts.BasePath = config.NormalizeBasePath(opts.BasePath)
	if opts.IconSize <= 0 {
		opts.IconSize = defaultIconSize
	}
	reg := opts.Registry
	if reg == nil {
		reg = registry.New(registry.Options{Logger: logger})
		for _, d := range theme.List() {
			reg.Register(d)
		}
	}
	lib := opts.Library
	if lib == nil {
		var err error
		if lib, err = icon.Builtin(); err != nil {
			return nil, fmt.Errorf("load icons: %w", err)
		}
	}
	app := &App{
		opts:      opts,
		store:     store,
		logger:    logger,
		reg:       reg,
		library:   lib,
		workspace: editor.NewWorkspace(reg, store, logger),
		missing:   resolve.NewMissingLog(logger),
	}
	app.strict.Store(opts.StrictLookups)
	return app, nil
}

func Run(ctx context.Context, opts Options) error {
	store, err := db.Open(ctx, opts.DataDir)
	if err != nil {
		return err
	}
	defer store.Close()

	handlerLevel := new(slog.LevelVar)
	handlerLevel.Set(parseLogLevel(opts.LogLevel))
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: handlerLevel}))

	if opts.ThemeSet {
		if err := store.SetSetting(ctx, "active_theme", opts.Theme); err != nil {
			return err
		}
	}

	app, err := New(opts, store, logger)
	if err != nil {
		return err
	}
	if _, err := app.Restore(ctx); err != nil {
		return err
	}
	unsubscribe := app.reg.OnChange(func(registry.Change) { go app.prefetch(ctx) })
	defer unsubscribe()
	go app.prefetch(ctx)

	addr := net.JoinHostPort(opts.Bind, strconv.Itoa(opts.Port))
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           app.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if opts.HTTPS {
			errCh <- httpServer.ListenAndServeTLS(opts.CertFile, opts.KeyFile)
			return
		}
		errCh <- httpServer.ListenAndServe()
	}()
	logger.Info("preview server listening", "addr", addr, "base_path", app.opts.BasePath)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Handler returns the preview API with its middleware.
func (a *App) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(a.route("/api/status"), a.handleStatus)
	mux.HandleFunc(a.route("/api/themes"), a.handleThemes)
	mux.HandleFunc(a.route("/api/defaults"), a.handleDefaults)
	mux.HandleFunc(a.route("/api/painters"), a.handlePainters)
	mux.HandleFunc(a.route("/api/install"), a.handleInstall)
	mux.HandleFunc(a.route("/api/icons"), a.handleIcons)
	mux.HandleFunc(a.route("/api/icon"), a.handleIcon)
	mux.HandleFunc(a.route("/api/editor"), a.handleEditor)
	mux.HandleFunc(a.route("/api/admin/settings"), a.handleAdminSettings)
	mux.HandleFunc(a.route("/api/admin/audit"), a.handleAdminAudit)
	return a.recoverer(a.securityHeaders(mux))
}

// Restore installs the theme and overrides saved in the store. A stored theme
// that no longer builds falls back to the default theme.
func (a *App) Restore(ctx context.Context) (*theme.Result, error) {
	name := theme.DefaultName
	var overrides theme.Overrides
	if a.store != nil {
		settings, err := a.store.GetAppSettings(ctx)
		if err != nil {
			return nil, err
		}
		name = settings.ActiveTheme
		if overrides, err = parseOverrides(settings.ThemeOverridesJSON); err != nil {
			a.logger.Warn("ignoring stored theme overrides", "err", err)
			overrides = theme.Overrides{}
		}
		if settings.StrictLookups {
			a.strict.Store(true)
		}
	}
	res, err := a.activate(name, overrides)
	if err != nil && name != theme.DefaultName {
		a.logger.Warn("stored theme unavailable; using default", "theme", name, "err", err)
		res, err = a.activate(theme.DefaultName, theme.Overrides{})
	}
	return res, err
}

func (a *App) activate(name string, overrides theme.Overrides) (*theme.Result, error) {
	d, err := a.reg.Lookup(name)
	if err != nil {
		return nil, err
	}
	if !overrides.IsZero() {
		if d, err = theme.Apply(d, overrides); err != nil {
			return nil, fmt.Errorf("%w: %w", props.ErrMalformedValue, err)
		}
	}
	return a.reg.Install(d)
}

func (a *App) persist(ctx context.Context, actor, action, name string, overrides theme.Overrides, res *theme.Result) error {
	if a.store == nil {
		return nil
	}
	settings, err := a.store.GetAppSettings(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(overrides)
	if err != nil {
		return fmt.Errorf("encode overrides: %w", err)
	}
	settings.ActiveTheme = name
	settings.ThemeOverridesJSON = string(raw)
	settings.StrictLookups = a.strict.Load()
	if err := a.store.SetAppSettings(ctx, settings); err != nil {
		return err
	}
	return a.store.RecordAudit(ctx, actor, action, name, res.Key.Digest())
}

// prefetch warms the active icon cache at the configured size. A limit of zero
// disables it.
func (a *App) prefetch(ctx context.Context) {
	if a.opts.PrefetchLimit <= 0 {
		return
	}
	start := time.Now()
	sizes := []props.Dimension{{W: a.opts.IconSize, H: a.opts.IconSize}}
	if err := a.reg.Prefetch(ctx, a.library.Templates(), sizes, a.opts.PrefetchLimit); err != nil {
		if ctx.Err() == nil {
			a.logger.Warn("icon prefetch failed", "err", err)
		}
		return
	}
	if cache := a.reg.IconCache(); cache != nil {
		a.logger.Debug("icons prefetched",
			"entries", cache.Len(),
			"size", humanize.Bytes(uint64(cache.Bytes())),
			"took", time.Since(start).Round(time.Millisecond),
		)
	}
}

func parseOverrides(raw string) (theme.Overrides, error) {
	var o theme.Overrides
	if strings.TrimSpace(raw) == "" {
		return o, nil
	}
	if err := json.Unmarshal([]byte(raw), &o); err != nil {
		return theme.Overrides{}, fmt.Errorf("decode overrides: %w", err)
	}
	return o, nil
}

func (a *App) route(p string) string {
	if a.opts.BasePath == "/" {
		return p
	}
	if p == "/" {
		return a.opts.BasePath + "/"
	}
	return a.opts.BasePath + p
}

func (a *App) securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; img-src 'self' data:; style-src 'self' 'unsafe-inline'")
		next.ServeHTTP(w, r)
	})
}

func (a *App) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				a.logger.Error("panic recovered", "panic", rec, "path", r.URL.Path)
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func remoteIP(r *http.Request) string {
	if fwd := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); fwd != "" {
		parts := strings.Split(fwd, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func parseLogLevel(value string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// statusFor maps domain errors to HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, registry.ErrUnknownTheme),
		errors.Is(err, icon.ErrUnknownIcon),
		errors.Is(err, editor.ErrUnknownSession):
		return http.StatusNotFound
	case errors.Is(err, props.ErrMalformedValue),
		errors.Is(err, theme.ErrInvalidDescriptor),
		errors.Is(err, editor.ErrUnknownLayer),
		errors.Is(err, editor.ErrInvalidKey),
		errors.Is(err, icon.ErrUnsupportedFormat):
		return http.StatusBadRequest
	case errors.Is(err, resolve.ErrUnknownReference),
		errors.Is(err, resolve.ErrCyclicReference),
		errors.Is(err, resolve.ErrTypeMismatch),
		errors.Is(err, resolve.ErrMissingDefault),
		errors.Is(err, theme.ErrNoBaseTheme),
		errors.Is(err, theme.ErrUnknownBundle):
		return http.StatusUnprocessableEntity
	case errors.Is(err, registry.ErrNoActive):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (a *App) enforceMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		w.Header().Set("Allow", method)
		a.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}
	return true
}

func decodeJSONBody(r *http.Request, out any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(out)
}

func (a *App) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (a *App) writeError(w http.ResponseWriter, status int, message string) {
	a.writeJSON(w, status, map[string]any{"error": message})
}

// writeErr writes err with the status statusFor picks. Server errors are
// logged and hidden from the client.
func (a *App) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		a.logger.Error("request failed", "path", r.URL.Path, "err", err)
		a.writeError(w, status, "internal error")
		return
	}
	a.writeError(w, status, err.Error())
}
