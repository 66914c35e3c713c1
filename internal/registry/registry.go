// Package registry holds the registered theme descriptors and the active
// theme, and notifies subscribers when the active theme changes.
//
// Installs are serialized. Install builds the new theme first and then swaps
// the active state in a single atomic store, so readers never take a lock.
// The state carries its own icon applier and the swap replaces the icon cache
// with it. Subscribers run after the swap, in subscription order, and must not
// call Install.
package registry

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/matthewsawatzky/themekit/internal/icon"
	"github.com/matthewsawatzky/themekit/internal/props"
	"github.com/matthewsawatzky/themekit/internal/resolve"
	"github.com/matthewsawatzky/themekit/internal/theme"
)

var (
	ErrUnknownTheme = errors.New("unknown theme")
	ErrNoActive     = errors.New("no active theme")
)

// Change is delivered to subscribers after an install.
type Change struct {
	Previous *theme.Result
	Current  *theme.Result
}

type Subscriber func(Change)

type state struct {
	result  *theme.Result
	applier *icon.Applier
}

type subscription struct {
	id int
	fn Subscriber
}

type Options struct {
	Engine     *theme.Engine
	Rasterizer icon.Rasterizer
	Logger     *slog.Logger
}

type Registry struct {
	engine   *theme.Engine
	raster   icon.Rasterizer
	logger   *slog.Logger
	warnings *icon.Warnings

	installMu sync.Mutex
	active    atomic.Pointer[state]

	mu          sync.RWMutex
	descriptors map[string]theme.Descriptor
	subs        []subscription
	nextSub     int

	// themed renders icons for palettes other than the active one. It is
	// never reset by Install.
	themed      *icon.Applier
	themedMu    sync.Mutex
	themedBuilt map[theme.PaletteKey]*theme.Result
}

// New returns an empty registry. Nothing is active until the first Install.
func New(opts Options) *Registry {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	engine := opts.Engine
	if engine == nil {
		engine = theme.NewEngine(theme.BuiltinSource(), theme.Schema(), logger)
	}
	r := &Registry{
		engine:      engine,
		raster:      opts.Rasterizer,
		logger:      logger,
		warnings:    icon.NewWarnings(logger),
		descriptors: map[string]theme.Descriptor{},
		themedBuilt: map[theme.PaletteKey]*theme.Result{},
	}
	r.themed = icon.NewApplier(icon.Options{Rasterizer: r.raster, Warnings: r.warnings, Logger: logger})
	return r
}

var (
	defaultOnce sync.Once
	defaultReg  *Registry
)

// Default returns the process-wide registry with the built-in themes
// registered and the default theme installed.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultReg = New(Options{})
		for _, d := range theme.List() {
			defaultReg.Register(d)
		}
		if _, err := defaultReg.InstallName(theme.DefaultName); err != nil {
			panic(fmt.Sprintf("install default theme: %v", err))
		}
	})
	return defaultReg
}

func (r *Registry) Engine() *theme.Engine { return r.engine }

// Register adds d, replacing any descriptor with the same name.
func (r *Registry) Register(d theme.Descriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.descriptors[d.Name] = d
}

func (r *Registry) Lookup(name string) (theme.Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.descriptors[name]
	if !ok {
		return theme.Descriptor{}, fmt.Errorf("%w: %q", ErrUnknownTheme, name)
	}
	return d, nil
}

// Descriptors returns the registered descriptors sorted by name.
func (r *Registry) Descriptors() []theme.Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]theme.Descriptor, 0, len(r.descriptors))
	for _, d := range r.descriptors {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Install builds d and makes it the active theme. On error the active theme,
// its icon cache and the subscribers are untouched. Installing the current
// descriptor again is a no-op.
func (r *Registry) Install(d theme.Descriptor) (*theme.Result, error) {
	r.installMu.Lock()
	defer r.installMu.Unlock()

	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("install %s: %w", d.Name, err)
	}
	prev := r.active.Load()
	if prev != nil && prev.result.Descriptor.Equal(d) {
		return prev.result, nil
	}
	res, err := r.engine.Build(d)
	if err != nil {
		r.logger.Warn("theme install failed", "theme", d.Name, "err", err)
		return nil, fmt.Errorf("install %s: %w", d.Name, err)
	}
	next := &state{result: res}
	next.applier = icon.NewApplier(icon.Options{
		Rasterizer: r.raster,
		Active:     func() (theme.IconPalette, bool) { return res.IconPalette, true },
		Warnings:   r.warnings,
		Logger:     r.logger,
	})
	r.active.Store(next)
	r.logger.Info("theme installed", "theme", d.Name, "palette", res.Key.Digest())

	change := Change{Current: res}
	if prev != nil {
		change.Previous = prev.result
	}
	for _, s := range r.subscribers() {
		s.fn(change)
	}
	return res, nil
}

// InstallName installs a registered descriptor.
func (r *Registry) InstallName(name string) (*theme.Result, error) {
	d, err := r.Lookup(name)
	if err != nil {
		return nil, err
	}
	return r.Install(d)
}

func (r *Registry) subscribers() []subscription {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]subscription(nil), r.subs...)
}

// OnChange subscribes fn to theme changes and returns its unsubscribe func.
func (r *Registry) OnChange(fn Subscriber) (unsubscribe func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextSub++
	id := r.nextSub
	r.subs = append(r.subs, subscription{id: id, fn: fn})
	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			for i, s := range r.subs {
				if s.id == id {
					r.subs = append(r.subs[:i:i], r.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Current returns the active descriptor.
func (r *Registry) Current() (theme.Descriptor, bool) {
	s := r.active.Load()
	if s == nil {
		return theme.Descriptor{}, false
	}
	return s.result.Descriptor, true
}

// Result returns the active build, or nil.
func (r *Registry) Result() *theme.Result {
	s := r.active.Load()
	if s == nil {
		return nil
	}
	return s.result
}

func (r *Registry) Defaults() resolve.Defaults {
	s := r.active.Load()
	if s == nil {
		return resolve.Defaults{}
	}
	return s.result.Defaults
}

func (r *Registry) IconPalette() (theme.IconPalette, bool) {
	s := r.active.Load()
	if s == nil {
		return theme.IconPalette{}, false
	}
	return s.result.IconPalette, true
}

// Lookups returns painter lookups over the active defaults.
func (r *Registry) Lookups(strict bool, missing *resolve.MissingLog) *resolve.Lookups {
	return resolve.NewLookups(r.Defaults(), strict, missing)
}

// IconCache returns the active theme's raster cache, or nil.
func (r *Registry) IconCache() *icon.Cache {
	s := r.active.Load()
	if s == nil {
		return nil
	}
	return s.applier.Cache()
}

func (r *Registry) ThemedCache() *icon.Cache { return r.themed.Cache() }

// Prefetch renders templates at sizes into the active theme's cache. A later
// install does not cancel it; the renders land in the replaced cache.
func (r *Registry) Prefetch(ctx context.Context, templates []*icon.Template, sizes []props.Dimension, limit int) error {
	s := r.active.Load()
	if s == nil {
		return ErrNoActive
	}
	return s.applier.Prefetch(ctx, templates, s.result.IconPalette, sizes, icon.KeepReferences, limit)
}

func (r *Registry) Warnings() *icon.Warnings { return r.warnings }

// RenderIcon renders t with the active palette, keeping unresolved
// placeholders late-bound. It implements icon.Renderer.
func (r *Registry) RenderIcon(t *icon.Template, size props.Dimension) (*image.NRGBA, error) {
	s := r.active.Load()
	if s == nil {
		return nil, ErrNoActive
	}
	return s.applier.Render(t, s.result.IconPalette, size, icon.KeepReferences)
}

// Icon returns a handle that always draws with the active theme.
func (r *Registry) Icon(t *icon.Template, size props.Dimension) icon.Icon {
	return icon.New(t, size, r)
}

// ThemedIcon returns a handle recolored for d regardless of the active theme.
// Unbound placeholders take the template's defaults.
func (r *Registry) ThemedIcon(t *icon.Template, size props.Dimension, d theme.Descriptor) (icon.Icon, error) {
	res, err := r.buildFor(d)
	if err != nil {
		return icon.Icon{}, err
	}
	return icon.New(t, size, r.themed.Bound(res.IconPalette, icon.RemoveReferences)), nil
}

func (r *Registry) buildFor(d theme.Descriptor) (*theme.Result, error) {
	if s := r.active.Load(); s != nil && s.result.Descriptor.Equal(d) {
		return s.result, nil
	}
	key := theme.KeyOf(d)
	r.themedMu.Lock()
	defer r.themedMu.Unlock()
	if res, ok := r.themedBuilt[key]; ok {
		return res, nil
	}
	res, err := r.engine.Build(d)
	if err != nil {
		return nil, err
	}
	r.themedBuilt[key] = res
	return res, nil
}

// BaseThemeOf returns the canonical descriptor of d's family: the registered
// descriptor named after the family, else the first registered descriptor
// sharing d's base bundle, else d without its rule modifiers.
func (r *Registry) BaseThemeOf(d theme.Descriptor) theme.Descriptor {
	family := d.FamilyName()
	if base, err := r.Lookup(family); err == nil {
		return base
	}
	for _, cand := range r.Descriptors() {
		if cand.Base == d.Base {
			return cand
		}
	}
	return d.WithoutRules()
}

func IsDark(d theme.Descriptor) bool         { return d.IsDark() }
func IsHighContrast(d theme.Descriptor) bool { return d.IsHighContrast() }
