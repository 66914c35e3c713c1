package theme

import (
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2b"

	"github.com/matthewsawatzky/themekit/internal/props"
	"github.com/matthewsawatzky/themekit/internal/resolve"
)

// PaletteKey identifies the icon palette a descriptor produces. Descriptors
// with equal keys recolor icons identically.
type PaletteKey struct {
	Theme     string
	Accent    string
	Selection string
	Tone      Tone
	Contrast  Contrast
	// Variant digests everything else that can change the palette: bundle
	// ids, pass overrides and user overrides.
	Variant string
}

// KeyOf derives the palette key of d.
func KeyOf(d Descriptor) PaletteKey {
	k := PaletteKey{Theme: d.Name, Tone: d.Tone, Contrast: d.Contrast}
	if d.Accent != nil {
		k.Accent = d.Accent.Hex()
	}
	if d.Selection != nil {
		k.Selection = d.Selection.Hex()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s|%s|%s|%s|%s|%s\n", d.Base, d.Globals, d.Platform, d.UI, d.Icons, d.Passes.id())
	d.Overrides.Each(func(key string, v props.RawValue) {
		fmt.Fprintf(&sb, "%s=%s\n", key, v)
	})
	sum := blake2b.Sum256([]byte(sb.String()))
	k.Variant = hex.EncodeToString(sum[:8])
	return k
}

func (k PaletteKey) String() string {
	s := k.Theme + "/" + k.Tone.String() + "/" + k.Contrast.String()
	if k.Accent != "" {
		s += "/accent=" + k.Accent
	}
	if k.Selection != "" {
		s += "/selection=" + k.Selection
	}
	return s + "/" + k.Variant
}

// Digest is a stable hex digest of k, usable in file names and ETags.
func (k PaletteKey) Digest() string {
	sum := blake2b.Sum256([]byte(k.String()))
	return hex.EncodeToString(sum[:16])
}

// IconPalette holds the colors and opacities icons are recolored with.
type IconPalette struct {
	Key    PaletteKey
	values resolve.Defaults
}

// NewIconPalette extracts every color and opacity from d.
func NewIconPalette(key PaletteKey, d resolve.Defaults) IconPalette {
	return IconPalette{Key: key, values: d.Filter(props.KindColor, props.KindOpacity)}
}

func (p IconPalette) Color(name string) (props.Color, bool) {
	v, ok := p.values.Lookup(name)
	if !ok {
		return props.Color{}, false
	}
	return v.Color()
}

func (p IconPalette) Opacity(name string) (float64, bool) {
	v, ok := p.values.Lookup(name)
	if !ok || v.Kind() != props.KindOpacity {
		return 0, false
	}
	return v.Float()
}

func (p IconPalette) Len() int { return p.values.Len() }

func (p IconPalette) Keys() []string { return p.values.Keys() }
