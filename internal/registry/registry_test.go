package registry

import (
	"context"
	"errors"
	"image"
	"sync/atomic"
	"testing"

	"github.com/matthewsawatzky/themekit/internal/icon"
	"github.com/matthewsawatzky/themekit/internal/props"
	"github.com/matthewsawatzky/themekit/internal/resolve"
	"github.com/matthewsawatzky/themekit/internal/theme"
)

type stubRasterizer struct{ calls atomic.Int32 }

func (s *stubRasterizer) Rasterize(src []byte, w, h int) (*image.NRGBA, error) {
	s.calls.Add(1)
	return image.NewNRGBA(image.Rect(0, 0, w, h)), nil
}

func newTestRegistry(t *testing.T) (*Registry, *stubRasterizer) {
	t.Helper()
	broken, err := props.ParseString("broken", "background = %border\nborder = %background\n")
	if err != nil {
		t.Fatalf("ParseString() unexpected error: %v", err)
	}
	src := theme.MultiSource{theme.MapSource{"broken": broken}, theme.BuiltinSource()}
	raster := &stubRasterizer{}
	r := New(Options{Engine: theme.NewEngine(src, theme.Schema(), nil), Rasterizer: raster})
	for _, d := range theme.List() {
		r.Register(d)
	}
	r.Register(theme.Descriptor{Name: "broken", Base: "broken"})
	return r, raster
}

func testTemplate(t *testing.T) *icon.Template {
	t.Helper()
	tmpl, err := icon.ParseTemplate("dot", []byte(`<svg><circle r="1" fill="%textForeground"/></svg>`))
	if err != nil {
		t.Fatalf("ParseTemplate() unexpected error: %v", err)
	}
	return tmpl
}

func TestInstallFailureIsolation(t *testing.T) {
	r, _ := newTestRegistry(t)
	if _, err := r.InstallName("intellij"); err != nil {
		t.Fatalf("InstallName(intellij) unexpected error: %v", err)
	}
	if _, err := r.Icon(testTemplate(t), props.Dimension{W: 16, H: 16}).Image(); err != nil {
		t.Fatalf("Image() unexpected error: %v", err)
	}
	cache := r.IconCache()
	before := r.Defaults()

	var notified atomic.Int32
	r.OnChange(func(Change) { notified.Add(1) })

	_, err := r.InstallName("broken")
	if !errors.Is(err, resolve.ErrCyclicReference) {
		t.Fatalf("InstallName(broken) error = %v, want cyclic reference", err)
	}
	cur, _ := r.Current()
	if cur.Name != "intellij" {
		t.Fatalf("Current() = %s, want intellij", cur.Name)
	}
	if r.IconCache() != cache || cache.Len() != 1 {
		t.Fatalf("icon cache replaced or cleared after failed install")
	}
	if !r.Defaults().Equal(before) {
		t.Fatalf("Defaults() changed after failed install")
	}
	if notified.Load() != 0 {
		t.Fatalf("subscribers notified %d times, want 0", notified.Load())
	}
}

func TestInstallUnknownTheme(t *testing.T) {
	r, _ := newTestRegistry(t)
	if _, err := r.InstallName("nope"); !errors.Is(err, ErrUnknownTheme) {
		t.Fatalf("InstallName(nope) error = %v, want unknown theme", err)
	}
	if _, ok := r.Current(); ok {
		t.Fatalf("Current() reports an active theme")
	}
	if _, err := r.RenderIcon(testTemplate(t), props.Dimension{W: 1, H: 1}); !errors.Is(err, ErrNoActive) {
		t.Fatalf("RenderIcon() error = %v, want no active theme", err)
	}
}

func TestInstallIdempotent(t *testing.T) {
	r, raster := newTestRegistry(t)
	first, err := r.InstallName("darcula")
	if err != nil {
		t.Fatalf("InstallName(darcula) unexpected error: %v", err)
	}
	ic := r.Icon(testTemplate(t), props.Dimension{W: 16, H: 16})
	if _, err := ic.Image(); err != nil {
		t.Fatalf("Image() unexpected error: %v", err)
	}
	cache := r.IconCache()

	var notified atomic.Int32
	r.OnChange(func(Change) { notified.Add(1) })
	cur, _ := r.Current()
	again, err := r.Install(cur)
	if err != nil {
		t.Fatalf("Install(current) unexpected error: %v", err)
	}
	if again != first || r.IconCache() != cache || notified.Load() != 0 {
		t.Fatalf("Install(current) changed observable state")
	}
	if _, err := ic.Image(); err != nil {
		t.Fatalf("Image() unexpected error: %v", err)
	}
	if raster.calls.Load() != 1 {
		t.Fatalf("rasterizer called %d times, want 1", raster.calls.Load())
	}
}

func TestInstallInvalidatesCacheBeforeNotify(t *testing.T) {
	r, _ := newTestRegistry(t)
	if _, err := r.InstallName("intellij"); err != nil {
		t.Fatalf("InstallName() unexpected error: %v", err)
	}
	ic := r.Icon(testTemplate(t), props.Dimension{W: 16, H: 16})
	if _, err := ic.Image(); err != nil {
		t.Fatalf("Image() unexpected error: %v", err)
	}

	var order []string
	var observed []int
	r.OnChange(func(c Change) {
		order = append(order, "first")
		observed = append(observed, r.IconCache().Len())
		if c.Previous == nil || c.Previous.Descriptor.Name != "intellij" || c.Current.Descriptor.Name != "darcula" {
			t.Errorf("Change = %v -> %v", c.Previous, c.Current)
		}
		if name, _ := r.Current(); name.Name != "darcula" {
			t.Errorf("Current() inside subscriber = %s, want darcula", name.Name)
		}
	})
	unsubscribe := r.OnChange(func(Change) { order = append(order, "second") })
	r.OnChange(func(Change) { order = append(order, "third") })

	if _, err := r.InstallName("darcula"); err != nil {
		t.Fatalf("InstallName(darcula) unexpected error: %v", err)
	}
	if len(observed) != 1 || observed[0] != 0 {
		t.Fatalf("subscriber saw cache sizes %v, want [0]", observed)
	}
	if got := len(order); got != 3 || order[0] != "first" || order[1] != "second" || order[2] != "third" {
		t.Fatalf("notification order = %v", order)
	}

	unsubscribe()
	unsubscribe()
	order = nil
	if _, err := r.InstallName("one-dark"); err != nil {
		t.Fatalf("InstallName(one-dark) unexpected error: %v", err)
	}
	if len(order) != 2 || order[0] != "first" || order[1] != "third" {
		t.Fatalf("notification order after unsubscribe = %v", order)
	}
}

func TestThemedIconsSurviveInstall(t *testing.T) {
	r, raster := newTestRegistry(t)
	if _, err := r.InstallName("intellij"); err != nil {
		t.Fatalf("InstallName() unexpected error: %v", err)
	}
	darcula, _ := r.Lookup("darcula")
	ic, err := r.ThemedIcon(testTemplate(t), props.Dimension{W: 16, H: 16}, darcula)
	if err != nil {
		t.Fatalf("ThemedIcon() unexpected error: %v", err)
	}
	if _, err := ic.Image(); err != nil {
		t.Fatalf("Image() unexpected error: %v", err)
	}
	if _, err := r.InstallName("one-dark"); err != nil {
		t.Fatalf("InstallName() unexpected error: %v", err)
	}
	if r.ThemedCache().Len() != 1 {
		t.Fatalf("ThemedCache().Len() = %d, want 1", r.ThemedCache().Len())
	}
	if _, err := ic.Image(); err != nil {
		t.Fatalf("Image() unexpected error: %v", err)
	}
	if raster.calls.Load() != 1 {
		t.Fatalf("rasterizer called %d times, want 1", raster.calls.Load())
	}
	if r.IconCache().Len() != 0 {
		t.Fatalf("themed render leaked into the active cache")
	}
}

func TestBaseThemeOf(t *testing.T) {
	r, _ := newTestRegistry(t)
	darcula, _ := r.Lookup("darcula")
	r.Register(theme.Descriptor{Name: "midnight", Family: "darcula", Base: "darcula", Tone: theme.ToneDark})
	r.Register(theme.Descriptor{Name: "custom-a", Base: "custom"})

	tests := []struct {
		name string
		in   theme.Descriptor
		want string
	}{
		{name: "rule variant", in: darcula.WithAccent(props.RGB(1, 2, 3)), want: "darcula"},
		{name: "family member", in: theme.Descriptor{Name: "midnight", Family: "darcula", Base: "darcula"}, want: "darcula"},
		{name: "same base", in: theme.Descriptor{Name: "custom-b", Base: "custom"}, want: "custom-a"},
		{name: "unregistered", in: theme.Descriptor{Name: "lonely", Base: "nowhere"}, want: "lonely"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.BaseThemeOf(tt.in)
			if got.Name != tt.want {
				t.Fatalf("BaseThemeOf(%s) = %s, want %s", tt.in.Name, got.Name, tt.want)
			}
			if got.Accent != nil {
				t.Fatalf("BaseThemeOf(%s) kept the accent", tt.in.Name)
			}
		})
	}
	if !IsDark(darcula) || IsHighContrast(darcula) {
		t.Fatalf("IsDark/IsHighContrast(darcula) = %v/%v", IsDark(darcula), IsHighContrast(darcula))
	}
}

func TestLookupsFollowActiveTheme(t *testing.T) {
	r, _ := newTestRegistry(t)
	if _, err := r.InstallName("intellij"); err != nil {
		t.Fatalf("InstallName() unexpected error: %v", err)
	}
	l := r.Lookups(true, nil)
	if _, err := l.Color("TableHeader.background"); err != nil {
		t.Fatalf("Color(TableHeader.background) unexpected error: %v", err)
	}
	if _, err := l.Color("Nope.color"); !errors.Is(err, resolve.ErrMissingDefault) {
		t.Fatalf("Color(Nope.color) error = %v, want missing default", err)
	}
}

func TestDefaultRegistry(t *testing.T) {
	r := Default()
	if r != Default() {
		t.Fatalf("Default() returned different instances")
	}
	cur, ok := r.Current()
	if !ok || cur.Name != theme.DefaultName {
		t.Fatalf("Default().Current() = %s, want %s", cur.Name, theme.DefaultName)
	}
}

func TestPrefetchFillsActiveCache(t *testing.T) {
	r, raster := newTestRegistry(t)
	tmpl := testTemplate(t)
	sizes := []props.Dimension{{W: 16, H: 16}, {W: 32, H: 32}}
	if err := r.Prefetch(context.Background(), []*icon.Template{tmpl}, sizes, 2); !errors.Is(err, ErrNoActive) {
		t.Fatalf("Prefetch() before install error = %v, want ErrNoActive", err)
	}
	if _, err := r.InstallName("intellij"); err != nil {
		t.Fatalf("InstallName() unexpected error: %v", err)
	}
	if err := r.Prefetch(context.Background(), []*icon.Template{tmpl}, sizes, 2); err != nil {
		t.Fatalf("Prefetch() unexpected error: %v", err)
	}
	if got := r.IconCache().Len(); got != 2 {
		t.Fatalf("IconCache().Len() = %d, want 2", got)
	}
	before := raster.calls.Load()
	if _, err := r.RenderIcon(tmpl, sizes[1]); err != nil {
		t.Fatalf("RenderIcon() unexpected error: %v", err)
	}
	if got := raster.calls.Load(); got != before {
		t.Fatalf("rasterizer calls = %d, want %d after prefetch", got, before)
	}
}
