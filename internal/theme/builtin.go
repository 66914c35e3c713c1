package theme

import (
	"fmt"
	"sort"
	"strings"

	"github.com/matthewsawatzky/themekit/internal/props"
)

func builtins() map[string]Descriptor {
	return map[string]Descriptor{
		"intellij": {
			Name:        "intellij",
			DisplayName: "IntelliJ",
			Base:        "intellij",
			Globals:     "globals/default",
			UI:          "ui/default",
			Icons:       "icons/light",
			Tone:        ToneLight,
		},
		"darcula": {
			Name:        "darcula",
			DisplayName: "Darcula",
			Base:        "darcula",
			Globals:     "globals/default",
			UI:          "ui/default",
			Icons:       "icons/dark",
			Tone:        ToneDark,
		},
		"solarized-light": {
			Name:        "solarized-light",
			DisplayName: "Solarized Light",
			Base:        "solarized_light",
			Globals:     "globals/default",
			UI:          "ui/default",
			Icons:       "icons/light",
			Tone:        ToneLight,
		},
		"solarized-dark": {
			Name:        "solarized-dark",
			DisplayName: "Solarized Dark",
			Base:        "solarized_dark",
			Globals:     "globals/default",
			UI:          "ui/default",
			Icons:       "icons/dark",
			Tone:        ToneDark,
		},
		"one-dark": {
			Name:        "one-dark",
			DisplayName: "One Dark",
			Base:        "one_dark",
			Globals:     "globals/default",
			UI:          "ui/default",
			Icons:       "icons/dark",
			Tone:        ToneDark,
		},
		"high-contrast-dark": {
			Name:        "high-contrast-dark",
			DisplayName: "High Contrast Dark",
			Base:        "high_contrast_dark",
			Globals:     "globals/default",
			UI:          "ui/default",
			Icons:       "icons/high_contrast",
			Tone:        ToneDark,
			Contrast:    ContrastHigh,
		},
		"high-contrast-light": {
			Name:        "high-contrast-light",
			DisplayName: "High Contrast Light",
			Base:        "high_contrast_light",
			Globals:     "globals/default",
			UI:          "ui/default",
			Icons:       "icons/high_contrast",
			Tone:        ToneLight,
			Contrast:    ContrastHigh,
		},
	}
}

// DefaultName is the theme installed when nothing else is configured.
const DefaultName = "intellij"

// List returns the built-in descriptors sorted by name.
func List() []Descriptor {
	items := make([]Descriptor, 0, len(builtins()))
	for _, d := range builtins() {
		items = append(items, d)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items
}

func Builtin(name string) (Descriptor, bool) {
	d, ok := builtins()[name]
	return d, ok
}

// PlatformBundle maps a GOOS value to its platform bundle id, or "".
func PlatformBundle(goos string) string {
	switch goos {
	case "darwin":
		return "platform/mac"
	case "windows":
		return "platform/windows"
	case "linux", "freebsd", "openbsd", "netbsd":
		return "platform/linux"
	}
	return ""
}

const maxFontScale = 4

// Overrides are the user-facing rule and palette tweaks stored with the active
// theme. Empty fields leave the descriptor untouched.
type Overrides struct {
	Accent       string  `json:"accent,omitempty" yaml:"accent,omitempty"`
	Selection    string  `json:"selection,omitempty" yaml:"selection,omitempty"`
	Background   string  `json:"background,omitempty" yaml:"background,omitempty"`
	Text         string  `json:"text,omitempty" yaml:"text,omitempty"`
	Border       string  `json:"border,omitempty" yaml:"border,omitempty"`
	Font         string  `json:"font,omitempty" yaml:"font,omitempty"`
	FontScale    float64 `json:"font_scale,omitempty" yaml:"font_scale,omitempty"`
	Dark         *bool   `json:"dark,omitempty" yaml:"dark,omitempty"`
	HighContrast *bool   `json:"high_contrast,omitempty" yaml:"high_contrast,omitempty"`
}

func (o Overrides) IsZero() bool {
	return o == (Overrides{})
}

// Apply returns d with o applied. Palette overrides become a top-of-stack
// bundle layered over any overrides d already carries.
func Apply(d Descriptor, o Overrides) (Descriptor, error) {
	if o.Accent != "" {
		c, err := props.ParseColor(o.Accent)
		if err != nil {
			return d, fmt.Errorf("accent: %w", err)
		}
		d.Accent = &c
	}
	if o.Selection != "" {
		c, err := props.ParseColor(o.Selection)
		if err != nil {
			return d, fmt.Errorf("selection: %w", err)
		}
		d.Selection = &c
	}
	if o.FontScale != 0 {
		if o.FontScale < 0 || o.FontScale > maxFontScale {
			return d, fmt.Errorf("%w: font scale %g outside 0..%g", ErrInvalidDescriptor, o.FontScale, float64(maxFontScale))
		}
		d.FontScale = o.FontScale
	}
	if o.Dark != nil {
		d.Tone = ToneLight
		if *o.Dark {
			d.Tone = ToneDark
		}
	}
	if o.HighContrast != nil {
		d.Contrast = ContrastStandard
		if *o.HighContrast {
			d.Contrast = ContrastHigh
		}
	}

	bundle := d.Overrides.Clone("overrides")
	apply := func(key, value string) error {
		if value == "" {
			return nil
		}
		c, err := props.ParseColor(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		bundle.SetScalar(key, props.ColorValue(c))
		return nil
	}
	for _, kv := range [][2]string{{"background", o.Background}, {"textForeground", o.Text}, {"border", o.Border}} {
		if err := apply(kv[0], kv[1]); err != nil {
			return d, err
		}
	}
	if f := strings.TrimSpace(o.Font); f != "" {
		bundle.SetScalar("Theme.fontFamily", props.StringValue(f))
	}
	if bundle.Len() > 0 {
		d.Overrides = bundle
	}
	return d, nil
}
