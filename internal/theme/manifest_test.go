package theme

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/matthewsawatzky/themekit/internal/props"
)

const sampleManifest = `
themes:
  - name: midnight
    display_name: Midnight
    family: darcula
    base: darcula
    icons: icons/dark
    tone: dark
    accent: "#8A2BE2"
    font_scale: 1.25
    overrides:
      background: "#101018"
      hyperlink: "%widgetFillDefault"
`

func TestParseManifestYAML(t *testing.T) {
	got, err := ParseManifest("extra.yaml", []byte(sampleManifest))
	if err != nil {
		t.Fatalf("ParseManifest() unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("ParseManifest() returned %d descriptors, want 1", len(got))
	}
	d := got[0]
	if d.Name != "midnight" || d.FamilyName() != "darcula" || !d.IsDark() {
		t.Fatalf("ParseManifest() = %+v", d)
	}
	if d.Accent == nil || *d.Accent != props.RGB(0x8A, 0x2B, 0xE2) {
		t.Fatalf("accent = %v, want #8A2BE2", d.Accent)
	}
	v, ok := d.Overrides.Get("hyperlink")
	if !ok || !v.IsRef() || v.RefName() != "widgetFillDefault" {
		t.Fatalf("overrides[hyperlink] = %v, want reference", v)
	}

	res, err := newTestEngine().Build(d)
	if err != nil {
		t.Fatalf("Build(midnight) unexpected error: %v", err)
	}
	if c, _ := res.Defaults.Color("hyperlink"); c != props.RGB(0x8A, 0x2B, 0xE2) {
		t.Fatalf("Color(hyperlink) = %v, want accent", c)
	}
}

func TestParseManifestJSON(t *testing.T) {
	data := `{"themes":[{"name":"plain","base":"intellij","contrast":"high"}]}`
	got, err := ParseManifest("extra.json", []byte(data))
	if err != nil {
		t.Fatalf("ParseManifest() unexpected error: %v", err)
	}
	if !got[0].IsHighContrast() {
		t.Fatalf("contrast = %v, want high", got[0].Contrast)
	}
}

func TestParseManifestRejects(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "bad tone", data: "themes:\n  - name: x\n    base: intellij\n    tone: dusk\n"},
		{name: "bad accent", data: "themes:\n  - name: x\n    base: intellij\n    accent: red\n"},
		{name: "missing base", data: "themes:\n  - name: x\n"},
		{name: "bad override", data: "themes:\n  - name: x\n    base: intellij\n    overrides:\n      a: \"1,2\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseManifest("m.yaml", []byte(tt.data)); err == nil {
				t.Fatalf("ParseManifest() expected error")
			}
		})
	}

	_, err := ParseManifest("m.yaml", []byte("themes:\n  - name: x\n    base: intellij\n    overrides:\n      a: \"1,2\"\n"))
	if !errors.Is(err, props.ErrMalformedValue) {
		t.Fatalf("ParseManifest() error = %v, want malformed value", err)
	}
}

func TestSpecOfRoundTrip(t *testing.T) {
	d, _ := Builtin("solarized-dark")
	d = d.WithAccent(props.RGB(1, 2, 3))
	back, err := SpecOf(d).Descriptor()
	if err != nil {
		t.Fatalf("Descriptor() unexpected error: %v", err)
	}
	if !back.Equal(d) {
		t.Fatalf("SpecOf(d).Descriptor() = %+v, want %+v", back, d)
	}
}

func TestManifestSchema(t *testing.T) {
	raw, err := ManifestSchema()
	if err != nil {
		t.Fatalf("ManifestSchema() unexpected error: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("ManifestSchema() is not JSON: %v", err)
	}
	if !strings.Contains(string(raw), "font_scale") {
		t.Fatalf("ManifestSchema() does not describe font_scale")
	}
}
