package theme

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matthewsawatzky/themekit/internal/props"
	"github.com/matthewsawatzky/themekit/internal/resolve"
)

func newTestEngine() *Engine {
	return NewEngine(BuiltinSource(), Schema(), nil)
}

func TestBuildBuiltins(t *testing.T) {
	e := newTestEngine()
	for _, d := range List() {
		t.Run(d.Name, func(t *testing.T) {
			res, err := e.Build(d)
			if err != nil {
				t.Fatalf("Build(%s) unexpected error: %v", d.Name, err)
			}
			for _, key := range append(append([]string{}, ThemeKeys...), IconKeys...) {
				if _, ok := res.Defaults.Lookup(key); !ok {
					t.Fatalf("Build(%s) missing key %q", d.Name, key)
				}
			}
			dark, _ := res.Defaults.Bool(KeyDark)
			if dark != d.IsDark() {
				t.Fatalf("%s = %v, want %v", KeyDark, dark, d.IsDark())
			}
			if res.IconPalette.Len() == 0 {
				t.Fatalf("IconPalette is empty")
			}
		})
	}
}

func TestBuildRulesInjection(t *testing.T) {
	d, _ := Builtin("darcula")
	d.Contrast = ContrastHigh
	d = d.WithAccent(props.RGB(0x12, 0x34, 0x56))

	res, err := newTestEngine().Build(d)
	if err != nil {
		t.Fatalf("Build() unexpected error: %v", err)
	}
	for _, key := range []string{KeyDark, KeyHighContrast} {
		v, err := res.Defaults.Bool(key)
		if err != nil || !v {
			t.Fatalf("Bool(%q) = %v, %v, want true", key, v, err)
		}
	}
	want := props.RGB(0x12, 0x34, 0x56)
	for _, key := range AccentKeys {
		c, err := res.Defaults.Color(key)
		if err != nil {
			t.Fatalf("Color(%q) unexpected error: %v", key, err)
		}
		if c != want {
			t.Fatalf("Color(%q) = %v, want %v", key, c, want)
		}
	}
	// Keys referencing an accent key follow it.
	if c, _ := res.Defaults.Color("Spinner.focusBorderColor"); c != want {
		t.Fatalf("Color(Spinner.focusBorderColor) = %v, want %v", c, want)
	}
	if c, _ := res.IconPalette.Color("menuIconHighlight"); c != want {
		t.Fatalf("IconPalette.Color(menuIconHighlight) = %v, want %v", c, want)
	}
	if _, err := res.Defaults.Color("glowFocus"); err != nil {
		t.Fatalf("derived glowFocus missing: %v", err)
	}
}

func TestBuildSelectionAndFontScale(t *testing.T) {
	d, _ := Builtin("intellij")
	d = d.WithSelection(props.RGB(0xAA, 0xBB, 0xCC))
	d.FontScale = 1.5

	res, err := newTestEngine().Build(d)
	if err != nil {
		t.Fatalf("Build() unexpected error: %v", err)
	}
	for _, key := range SelectionKeys {
		if c, _ := res.Defaults.Color(key); c != props.RGB(0xAA, 0xBB, 0xCC) {
			t.Fatalf("Color(%q) = %v, want #AABBCC", key, c)
		}
	}
	if _, err := res.Defaults.Color("textSelectionBackgroundSecondary"); err != nil {
		t.Fatalf("derived selection color missing: %v", err)
	}
	tests := map[string]int{"fontSize.default": 18, "fontSize.small": 17, "fontSize.mini": 14, "fontSize.title": 24}
	for key, want := range tests {
		if n, _ := res.Defaults.Int(key); n != want {
			t.Fatalf("Int(%q) = %d, want %d", key, n, want)
		}
	}
	if f, _ := res.Defaults.Float(KeyFontScale); f != 1.5 {
		t.Fatalf("Float(%q) = %v, want 1.5", KeyFontScale, f)
	}
}

func TestBuildLayers(t *testing.T) {
	d, _ := Builtin("intellij")
	d.Platform = PlatformBundle("darwin")
	d.Overrides = mustParse(t, "user", "background = #010203\n")

	res, err := newTestEngine().Build(d)
	if err != nil {
		t.Fatalf("Build() unexpected error: %v", err)
	}
	var names []string
	for _, l := range res.Layers {
		names = append(names, l.Name)
	}
	want := strings.Join(append(append([]string{}, PassNames...), RulesBundleID, "overrides"), ",")
	if got := strings.Join(names, ","); got != want {
		t.Fatalf("Layers = %s, want %s", got, want)
	}
	if c, _ := res.Defaults.Color("background"); c != props.RGB(1, 2, 3) {
		t.Fatalf("Color(background) = %v, want #010203", c)
	}
	if h, _ := res.Defaults.Int("TableHeader.height"); h != 24 {
		t.Fatalf("Int(TableHeader.height) = %d, want 24 from platform bundle", h)
	}
}

func TestBuildNoBaseTheme(t *testing.T) {
	src := MapSource{
		BaseDefaultsID: mustParse(t, BaseDefaultsID, "a = 1\n"),
		"empty":        props.NewBundle("empty"),
	}
	e := NewEngine(src, nil, nil)
	for _, base := range []string{"", "  ", "empty", "missing"} {
		_, err := e.Build(Descriptor{Name: "t", Base: base})
		if !errors.Is(err, ErrNoBaseTheme) {
			t.Fatalf("Build(base=%s) error = %v, want ErrNoBaseTheme", base, err)
		}
	}
}

func TestBuildResolverErrorsSurface(t *testing.T) {
	src := MapSource{
		BaseDefaultsID: mustParse(t, BaseDefaultsID, "a = #000000\n"),
		"cyclic":       mustParse(t, "cyclic", "x = %y\ny = %x\n"),
		"dangling":     mustParse(t, "dangling", "x = %nowhere\n"),
	}
	e := NewEngine(src, nil, nil)
	if _, err := e.Build(Descriptor{Name: "c", Base: "cyclic"}); !errors.Is(err, resolve.ErrCyclicReference) {
		t.Fatalf("Build(cyclic) error = %v, want cyclic reference", err)
	}
	if _, err := e.Build(Descriptor{Name: "d", Base: "dangling"}); !errors.Is(err, resolve.ErrUnknownReference) {
		t.Fatalf("Build(dangling) error = %v, want unknown reference", err)
	}
	if _, err := e.Build(Descriptor{Name: "u", Base: "cyclic", UI: "nope"}); !errors.Is(err, ErrUnknownBundle) {
		t.Fatalf("Build(ui=nope) error = %v, want unknown bundle", err)
	}
}

func TestBuildPassOverride(t *testing.T) {
	src := MapSource{
		BaseDefaultsID: mustParse(t, BaseDefaultsID, "fg = #000000\nlink = %fg\n"),
		"b":            mustParse(t, "b", "bg = #FFFFFF\n"),
		"ui":           mustParse(t, "ui", "button = %bg\n"),
	}
	var seen resolve.Defaults
	d := Descriptor{
		Name: "delegate",
		Base: "b",
		UI:   "ui",
		Passes: &Passes{
			ID: "delegate-1",
			CustomizeUI: func(ctx *PassContext) (*props.Bundle, error) {
				seen = ctx.Current
				b, err := ctx.Super()
				if err != nil {
					return nil, err
				}
				out := b.Clone("ui+")
				out.Set("link", props.Ref("bg"))
				return out, nil
			},
		},
	}
	res, err := NewEngine(src, nil, nil).Build(d)
	if err != nil {
		t.Fatalf("Build() unexpected error: %v", err)
	}
	if _, ok := seen.Lookup("bg"); !ok {
		t.Fatalf("customizeUI did not see keys from loadDefaults")
	}
	if _, ok := seen.Lookup("button"); ok {
		t.Fatalf("customizeUI saw its own output")
	}
	if c, _ := res.Defaults.Color("link"); c != props.RGB(0xFF, 0xFF, 0xFF) {
		t.Fatalf("Color(link) = %v, want #FFFFFF", c)
	}
	if c, _ := res.Defaults.Color("button"); c != props.RGB(0xFF, 0xFF, 0xFF) {
		t.Fatalf("Color(button) = %v, want #FFFFFF", c)
	}
}

func TestPaletteKey(t *testing.T) {
	a, _ := Builtin("darcula")
	b := a
	if KeyOf(a) != KeyOf(b) {
		t.Fatalf("KeyOf() differs for equal descriptors")
	}
	c := a.WithAccent(props.RGB(1, 2, 3))
	if KeyOf(a) == KeyOf(c) {
		t.Fatalf("KeyOf() ignores accent")
	}
	d := a
	d.Overrides = mustParse(t, "o", "background = #000000\n")
	if KeyOf(a) == KeyOf(d) {
		t.Fatalf("KeyOf() ignores overrides")
	}
	if len(KeyOf(a).Digest()) != 32 {
		t.Fatalf("Digest() = %q, want 32 hex chars", KeyOf(a).Digest())
	}
}

func TestDescriptorEqual(t *testing.T) {
	a, _ := Builtin("one-dark")
	b := a
	if !a.Equal(b) {
		t.Fatalf("Equal() = false for copies")
	}
	b.FontScale = 1
	if !a.Equal(b) {
		t.Fatalf("Equal() distinguishes font scale 0 and 1")
	}
	b = b.WithAccent(props.RGB(9, 9, 9))
	if a.Equal(b) {
		t.Fatalf("Equal() = true with different accents")
	}
	a.Passes = &Passes{ID: "x"}
	c := a
	c.Passes = &Passes{ID: "x"}
	if !a.Equal(c) {
		t.Fatalf("Equal() = false for passes sharing an ID")
	}
}

func TestValidate(t *testing.T) {
	d, _ := Builtin("intellij")
	if err := d.Validate(); err != nil {
		t.Fatalf("Validate() unexpected error: %v", err)
	}
	noID := d
	noID.Passes = &Passes{CustomizeUI: func(*PassContext) (*props.Bundle, error) { return props.NewBundle("ui"), nil }}
	withID := noID
	withID.Passes = &Passes{ID: "delegate", CustomizeUI: noID.Passes.CustomizeUI}

	tests := []struct {
		name string
		d    Descriptor
		ok   bool
	}{
		{name: "builtin", d: d, ok: true},
		{name: "passes with id", d: withID, ok: true},
		{name: "passes without id", d: noID},
		{name: "font scale too large", d: Descriptor{Name: "x", Base: "intellij", FontScale: 10}},
		{name: "negative font scale", d: Descriptor{Name: "x", Base: "intellij", FontScale: -1}},
		{name: "missing name", d: Descriptor{Base: "intellij"}},
		{name: "blank base", d: Descriptor{Name: "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.d.Validate()
			if tt.ok {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, ErrInvalidDescriptor) {
				t.Fatalf("Validate() error = %v, want ErrInvalidDescriptor", err)
			}
		})
	}

	e := NewEngine(BuiltinSource(), Schema(), nil)
	if _, err := e.Build(noID); !errors.Is(err, ErrInvalidDescriptor) {
		t.Fatalf("Build() error = %v, want ErrInvalidDescriptor", err)
	}
}

func TestApplyOverrides(t *testing.T) {
	d, _ := Builtin("intellij")
	dark := true
	got, err := Apply(d, Overrides{Accent: "#112233", Background: "#445566", Font: "Inter", Dark: &dark})
	if err != nil {
		t.Fatalf("Apply() unexpected error: %v", err)
	}
	if got.Accent == nil || *got.Accent != props.RGB(0x11, 0x22, 0x33) {
		t.Fatalf("Apply() accent = %v", got.Accent)
	}
	if !got.IsDark() {
		t.Fatalf("Apply() did not switch tone")
	}
	res, err := newTestEngine().Build(got)
	if err != nil {
		t.Fatalf("Build() unexpected error: %v", err)
	}
	if c, _ := res.Defaults.Color("background"); c != props.RGB(0x44, 0x55, 0x66) {
		t.Fatalf("Color(background) = %v, want #445566", c)
	}
	if _, err := Apply(d, Overrides{Text: "blue"}); err == nil {
		t.Fatalf("Apply() expected error for invalid color")
	}
	for _, scale := range []float64{-1, 10} {
		if _, err := Apply(d, Overrides{FontScale: scale}); !errors.Is(err, ErrInvalidDescriptor) {
			t.Fatalf("Apply(font scale %g) error = %v, want ErrInvalidDescriptor", scale, err)
		}
	}
}

func TestDirSource(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "custom"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "custom", "mine.properties"), []byte("background = #101010\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	src := MultiSource{NewDirSource(root), BuiltinSource()}
	b, err := src.Open("custom/mine")
	if err != nil {
		t.Fatalf("Open(custom/mine) unexpected error: %v", err)
	}
	if b.Len() != 1 {
		t.Fatalf("Open(custom/mine).Len() = %d, want 1", b.Len())
	}
	if _, err := src.Open(BaseDefaultsID); err != nil {
		t.Fatalf("Open(base) fell through incorrectly: %v", err)
	}
	if _, err := NewDirSource(root).Open("../escape"); err == nil {
		t.Fatalf("Open(../escape) expected error")
	}
	ids, err := src.List()
	if err != nil {
		t.Fatalf("List() unexpected error: %v", err)
	}
	if !contains(ids, "custom/mine") || !contains(ids, "intellij") {
		t.Fatalf("List() = %v", ids)
	}
}

func contains(items []string, want string) bool {
	for _, s := range items {
		if s == want {
			return true
		}
	}
	return false
}

func mustParse(t *testing.T, name, src string) *props.Bundle {
	t.Helper()
	b, err := props.ParseString(name, src)
	if err != nil {
		t.Fatalf("ParseString(%q) unexpected error: %v", name, err)
	}
	return b
}
