package icon

import (
	"context"
	"image"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/matthewsawatzky/themekit/internal/props"
	"github.com/matthewsawatzky/themekit/internal/theme"
)

// Warnings records unbound placeholders and logs each (template, name) pair
// once.
type Warnings struct {
	logger *slog.Logger
	mu     sync.Mutex
	seen   map[PlaceholderUnboundError]struct{}
}

func NewWarnings(logger *slog.Logger) *Warnings {
	if logger == nil {
		logger = slog.Default()
	}
	return &Warnings{logger: logger, seen: map[PlaceholderUnboundError]struct{}{}}
}

func (w *Warnings) report(template string, names []string) {
	if len(names) == 0 {
		return
	}
	w.mu.Lock()
	var fresh []string
	for _, n := range names {
		k := PlaceholderUnboundError{Template: template, Name: n}
		if _, ok := w.seen[k]; ok {
			continue
		}
		w.seen[k] = struct{}{}
		fresh = append(fresh, n)
	}
	w.mu.Unlock()
	for _, n := range fresh {
		w.logger.Warn("icon placeholder unbound", "icon", template, "placeholder", n)
	}
}

// List returns every reported placeholder sorted by template and name.
func (w *Warnings) List() []PlaceholderUnboundError {
	w.mu.Lock()
	out := make([]PlaceholderUnboundError, 0, len(w.seen))
	for k := range w.seen {
		out = append(out, k)
	}
	w.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Template != out[j].Template {
			return out[i].Template < out[j].Template
		}
		return out[i].Name < out[j].Name
	})
	return out
}

type Options struct {
	Rasterizer Rasterizer
	// Active returns the palette late-bound placeholders fall back to in
	// KeepReferences mode.
	Active   func() (theme.IconPalette, bool)
	Warnings *Warnings
	Logger   *slog.Logger
}

// Applier binds templates to palettes, rasterizes them and caches the result.
type Applier struct {
	raster   Rasterizer
	active   func() (theme.IconPalette, bool)
	warnings *Warnings
	logger   *slog.Logger
	cache    *Cache
	group    singleflight.Group
}

func NewApplier(opts Options) *Applier {
	a := &Applier{
		raster:   opts.Rasterizer,
		active:   opts.Active,
		warnings: opts.Warnings,
		logger:   opts.Logger,
		cache:    NewCache(),
	}
	if a.raster == nil {
		a.raster = SVGRasterizer{}
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	if a.warnings == nil {
		a.warnings = NewWarnings(a.logger)
	}
	return a
}

func (a *Applier) Cache() *Cache       { return a.cache }
func (a *Applier) Warnings() *Warnings { return a.warnings }

// Render returns t bound to p at size. Concurrent calls for the same key
// share one rasterization.
func (a *Applier) Render(t *Template, p theme.IconPalette, size props.Dimension, mode MergeMode) (*image.NRGBA, error) {
	key := CacheKey{Template: t.ID, Palette: p.Key, Size: size, Mode: mode}
	if img, ok := a.cache.Get(key); ok {
		return img, nil
	}
	v, err, _ := a.group.Do(key.String(), func() (any, error) {
		if img, ok := a.cache.Get(key); ok {
			return img, nil
		}
		src, unbound := t.bind(a.chain(p, mode), true)
		a.warnings.report(t.ID, unbound)
		img, err := a.raster.Rasterize(src, size.W, size.H)
		if err != nil {
			return nil, err
		}
		a.logger.Debug("icon rendered", "icon", t.ID, "size", size.String(), "mode", mode.String())
		return a.cache.Put(key, img), nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*image.NRGBA), nil
}

// Source returns t bound to p. In KeepReferences mode unbound placeholders
// stay in the output.
func (a *Applier) Source(t *Template, p theme.IconPalette, mode MergeMode) []byte {
	src, unbound := t.bind(a.chain(p, mode), mode == RemoveReferences)
	a.warnings.report(t.ID, unbound)
	return src
}

func (a *Applier) chain(p theme.IconPalette, mode MergeMode) []Palette {
	chain := []Palette{p}
	if mode == KeepReferences && a.active != nil {
		if active, ok := a.active(); ok && active.Key != p.Key {
			chain = append(chain, active)
		}
	}
	return chain
}

// Prefetch renders every template at every size, at most limit at a time.
func (a *Applier) Prefetch(ctx context.Context, templates []*Template, p theme.IconPalette, sizes []props.Dimension, mode MergeMode, limit int) error {
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for _, t := range templates {
		for _, size := range sizes {
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				_, err := a.Render(t, p, size, mode)
				return err
			})
		}
	}
	return g.Wait()
}

// Bound returns a Renderer that always renders against p.
func (a *Applier) Bound(p theme.IconPalette, mode MergeMode) Renderer {
	return boundRenderer{applier: a, palette: p, mode: mode}
}

type boundRenderer struct {
	applier *Applier
	palette theme.IconPalette
	mode    MergeMode
}

func (b boundRenderer) RenderIcon(t *Template, size props.Dimension) (*image.NRGBA, error) {
	return b.applier.Render(t, b.palette, size, b.mode)
}
