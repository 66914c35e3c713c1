// Package icon recolors SVG icon templates from a theme palette and caches
// the rasterized results.
//
// A template marks recolorable attribute values with a palette reference,
// either as an attribute (fill="%textForeground") or inside a style
// declaration (style="stop-color:%hyperlink|#4A88E3"). The optional part after
// '|' is the template's intrinsic default; without one colors default to black
// and opacities to 1. Everything outside the placeholders is kept byte for
// byte.
package icon

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"

	"github.com/matthewsawatzky/themekit/internal/props"
)

var (
	ErrPlaceholderUnbound = errors.New("icon placeholder unbound")
	ErrUnknownIcon        = errors.New("unknown icon")
	ErrInvalidTemplate    = errors.New("invalid icon template")
)

// PlaceholderUnboundError reports a placeholder the palette had no value for.
type PlaceholderUnboundError struct {
	Template string
	Name     string
}

func (e *PlaceholderUnboundError) Error() string {
	return fmt.Sprintf("icon %s: placeholder %%%s unbound", e.Template, e.Name)
}

func (e *PlaceholderUnboundError) Unwrap() error { return ErrPlaceholderUnbound }

// MergeMode controls what happens to placeholders the palette cannot bind.
type MergeMode uint8

const (
	// KeepReferences leaves unbound placeholders for late binding.
	KeepReferences MergeMode = iota
	// RemoveReferences bakes in the intrinsic defaults.
	RemoveReferences
)

func (m MergeMode) String() string {
	if m == RemoveReferences {
		return "remove"
	}
	return "keep"
}

// Palette supplies placeholder values. Colors are written as opaque #RRGGBB,
// so a translucent palette color loses its alpha; icons take translucency from
// opacity placeholders.
type Palette interface {
	Color(name string) (props.Color, bool)
	Opacity(name string) (float64, bool)
}

type holeKind uint8

const (
	colorHole holeKind = iota
	opacityHole
)

type hole struct {
	start, end int
	name       string
	kind       holeKind
	fallback   string
}

// The leading class keeps "fill" from matching inside "fill-opacity" or an
// attribute such as "data-fill".
var placeholderRe = regexp.MustCompile(
	`(?:^|[\s;{"'])(fill|stroke|stop-color|color|flood-color|opacity|fill-opacity|stroke-opacity|stop-opacity|flood-opacity)(\s*=\s*["']\s*|\s*:\s*)(%([A-Za-z_][A-Za-z0-9_.]*)(?:\|([^"';}\s]+))?)`,
)

// Template is a parsed SVG icon source.
type Template struct {
	ID    string
	src   []byte
	holes []hole
}

// ParseTemplate scans src for placeholders. Fallback values must be valid for
// their attribute.
func ParseTemplate(id string, src []byte) (*Template, error) {
	t := &Template{ID: id, src: append([]byte(nil), src...)}
	for _, m := range placeholderRe.FindAllSubmatchIndex(t.src, -1) {
		attr := string(t.src[m[2]:m[3]])
		h := hole{start: m[6], end: m[7], name: string(t.src[m[8]:m[9]])}
		if isOpacityAttr(attr) {
			h.kind = opacityHole
		}
		if m[10] >= 0 {
			h.fallback = string(t.src[m[10]:m[11]])
			if err := checkFallback(h); err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrInvalidTemplate, id, err)
			}
		}
		t.holes = append(t.holes, h)
	}
	return t, nil
}

func isOpacityAttr(attr string) bool {
	switch attr {
	case "opacity", "fill-opacity", "stroke-opacity", "stop-opacity", "flood-opacity":
		return true
	}
	return false
}

func checkFallback(h hole) error {
	if h.kind == colorHole {
		_, err := props.ParseColor(h.fallback)
		return err
	}
	f, err := strconv.ParseFloat(h.fallback, 64)
	if err != nil || f < 0 || f > 1 {
		return fmt.Errorf("invalid opacity %q for %%%s", h.fallback, h.name)
	}
	return nil
}

// Source returns a copy of the unmodified template source.
func (t *Template) Source() []byte {
	return append([]byte(nil), t.src...)
}

// Placeholders returns the distinct placeholder names in sorted order.
func (t *Template) Placeholders() []string {
	return t.names(func(hole) bool { return true })
}

func (t *Template) ColorPlaceholders() []string {
	return t.names(func(h hole) bool { return h.kind == colorHole })
}

func (t *Template) OpacityPlaceholders() []string {
	return t.names(func(h hole) bool { return h.kind == opacityHole })
}

func (t *Template) names(keep func(hole) bool) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, h := range t.holes {
		if _, ok := seen[h.name]; ok || !keep(h) {
			continue
		}
		seen[h.name] = struct{}{}
		out = append(out, h.name)
	}
	sort.Strings(out)
	return out
}

// Substitute binds the template against p. Unbound placeholders are kept or
// baked depending on mode and are returned by name.
func (t *Template) Substitute(p Palette, mode MergeMode) ([]byte, []string) {
	return t.bind([]Palette{p}, mode == RemoveReferences)
}

// bind tries each palette in order. When bake is false unbound placeholders
// are copied through unchanged.
func (t *Template) bind(chain []Palette, bake bool) ([]byte, []string) {
	out := make([]byte, 0, len(t.src))
	var unbound []string
	seen := map[string]struct{}{}
	last := 0
	for _, h := range t.holes {
		out = append(out, t.src[last:h.start]...)
		last = h.end
		if v, ok := lookup(chain, h); ok {
			out = append(out, v...)
			continue
		}
		if _, dup := seen[h.name]; !dup {
			seen[h.name] = struct{}{}
			unbound = append(unbound, h.name)
		}
		if bake {
			out = append(out, h.intrinsic()...)
		} else {
			out = append(out, t.src[h.start:h.end]...)
		}
	}
	out = append(out, t.src[last:]...)
	return out, unbound
}

func lookup(chain []Palette, h hole) (string, bool) {
	for _, p := range chain {
		if p == nil {
			continue
		}
		if h.kind == colorHole {
			if c, ok := p.Color(h.name); ok {
				return c.RGBHex(), true
			}
			continue
		}
		if f, ok := p.Opacity(h.name); ok {
			return formatOpacity(f), true
		}
	}
	return "", false
}

func (h hole) intrinsic() string {
	if h.fallback != "" {
		if h.kind == colorHole {
			c, _ := props.ParseColor(h.fallback)
			return c.RGBHex()
		}
		return h.fallback
	}
	if h.kind == colorHole {
		return "#000000"
	}
	return "1"
}

func formatOpacity(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
