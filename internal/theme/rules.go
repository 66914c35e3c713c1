package theme

import (
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/matthewsawatzky/themekit/internal/props"
	"github.com/matthewsawatzky/themekit/internal/resolve"
)

const RulesBundleID = "rules"

// Keys derived from the accent and selection colors when those are set.
const (
	keyGlowFocus                    = "glowFocus"
	keySelectionBackgroundSecondary = "textSelectionBackgroundSecondary"
)

// RulesBundle synthesizes the bundle that applies d's rule modifiers on top of
// current: tone and contrast flags, accent and selection colors, and font
// sizes scaled by d's font scale.
func RulesBundle(d Descriptor, current resolve.Defaults, schema *resolve.Schema) *props.Bundle {
	b := props.NewBundle(RulesBundleID)
	b.SetScalar(KeyDark, props.BoolValue(d.IsDark()))
	b.SetScalar(KeyHighContrast, props.BoolValue(d.IsHighContrast()))
	b.SetScalar(KeyFontScale, props.FloatValue(d.Scale()))

	background := backgroundOf(d, current)
	if d.Accent != nil {
		accent := *d.Accent
		for _, k := range AccentKeys {
			b.SetScalar(k, props.ColorValue(accent))
		}
		glow := 0.6
		if d.IsHighContrast() {
			glow = 0.85
		}
		b.SetScalar(keyGlowFocus, props.ColorValue(blend(background, accent, glow)))
	}
	if d.Selection != nil {
		sel := *d.Selection
		for _, k := range SelectionKeys {
			b.SetScalar(k, props.ColorValue(sel))
		}
		b.SetScalar(keySelectionBackgroundSecondary, props.ColorValue(blend(background, sel, 0.5)))
	}

	if scale := d.Scale(); scale != 1 {
		for _, k := range schema.FontSizeKeys() {
			v, ok := current.Lookup(k)
			if !ok {
				continue
			}
			n, ok := v.Int()
			if !ok {
				continue
			}
			b.SetScalar(k, props.IntValue(int32(math.Round(float64(n)*scale))))
		}
	}
	return b
}

func backgroundOf(d Descriptor, current resolve.Defaults) props.Color {
	if v, ok := current.Lookup("background"); ok {
		if c, ok := v.Color(); ok {
			return c
		}
	}
	if d.IsDark() {
		return props.RGB(0x3C, 0x3F, 0x41)
	}
	return props.RGB(0xF2, 0xF2, 0xF2)
}

// blend mixes from toward to by t in Lab space. The alpha of to is kept.
func blend(from, to props.Color, t float64) props.Color {
	a := colorful.Color{R: float64(from.R) / 255, G: float64(from.G) / 255, B: float64(from.B) / 255}
	b := colorful.Color{R: float64(to.R) / 255, G: float64(to.G) / 255, B: float64(to.B) / 255}
	r, g, bl := a.BlendLab(b, t).Clamped().RGB255()
	return props.Color{R: r, G: g, B: bl, A: to.A}
}
