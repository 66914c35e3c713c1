// Package editor edits themes interactively. A Session holds five ordered
// edit layers over a base theme and derives a descriptor whose pass overrides
// carry exactly those edits.
package editor

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"

	"github.com/matthewsawatzky/themekit/internal/db"
	"github.com/matthewsawatzky/themekit/internal/props"
	"github.com/matthewsawatzky/themekit/internal/registry"
	"github.com/matthewsawatzky/themekit/internal/theme"
)

var (
	ErrUnknownLayer   = errors.New("unknown editor layer")
	ErrUnknownSession = errors.New("unknown editor session")
	ErrInvalidKey     = errors.New("invalid key")
)

type Layer uint8

const (
	ThemeDefaults Layer = iota
	IconDefaults
	UI
	Globals
	Platform
	layerCount
)

// Layers lists the edit layers in display order.
var Layers = []Layer{ThemeDefaults, IconDefaults, UI, Globals, Platform}

func (l Layer) String() string {
	switch l {
	case ThemeDefaults:
		return "theme"
	case IconDefaults:
		return "icons"
	case UI:
		return "ui"
	case Globals:
		return "globals"
	case Platform:
		return "platform"
	}
	return "layer(" + strconv.Itoa(int(l)) + ")"
}

func ParseLayer(s string) (Layer, error) {
	for _, l := range Layers {
		if l.String() == s {
			return l, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownLayer, s)
}

// Session is one editing session. It is safe for concurrent use.
type Session struct {
	id     string
	family string

	mu           sync.Mutex
	base         theme.Descriptor
	dark         bool
	highContrast bool
	layers       [layerCount]*props.Bundle
	rev          int
}

// NewSession starts a session over base. family groups the session with the
// other variants of base.
func NewSession(engine *theme.Engine, base theme.Descriptor, family string) (*Session, error) {
	s := &Session{id: uuid.NewString(), family: family}
	if err := s.SetBase(engine, base); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Session) ID() string     { return s.id }
func (s *Session) Family() string { return s.family }

func (s *Session) Base() theme.Descriptor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.base
}

// SetBase builds d and reseeds every layer from it: the theme and icon
// layers with d's resolved palette values, the others with what d's
// globals, platform and UI passes produced. The toggles follow d.
func (s *Session) SetBase(engine *theme.Engine, d theme.Descriptor) error {
	res, err := engine.Build(d)
	if err != nil {
		return fmt.Errorf("set editor base %s: %w", d.Name, err)
	}
	var layers [layerCount]*props.Bundle
	layers[ThemeDefaults] = seed(ThemeDefaults, res, theme.ThemeKeys)
	layers[IconDefaults] = seed(IconDefaults, res, theme.IconKeys)
	layers[Globals] = res.Layer(theme.PassCustomizeGlobals).Clone(Globals.String())
	layers[Platform] = res.Layer(theme.PassCustomizePlatform).Clone(Platform.String())
	layers[UI] = res.Layer(theme.PassCustomizeUI).Clone(UI.String())

	s.mu.Lock()
	defer s.mu.Unlock()
	s.base = d
	s.dark = d.IsDark()
	s.highContrast = d.IsHighContrast()
	s.layers = layers
	s.rev++
	return nil
}

func seed(l Layer, res *theme.Result, keys []string) *props.Bundle {
	b := props.NewBundle(l.String())
	for _, k := range keys {
		if v, ok := res.Defaults.Lookup(k); ok {
			b.SetScalar(k, v)
		}
	}
	return b
}

// Set parses raw as a bundle value and stores it under key in layer l.
func (s *Session) Set(l Layer, key, raw string) error {
	if l >= layerCount {
		return fmt.Errorf("%w: %d", ErrUnknownLayer, l)
	}
	if !props.ValidKey(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	v, err := props.ParseValue(raw)
	if err != nil {
		return &props.MalformedValueError{Bundle: "editor:" + l.String(), Key: key, Text: raw, Reason: err.Error()}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.layers[l].Set(key, v)
	s.rev++
	return nil
}

// Unset removes key from layer l and reports whether it was present.
func (s *Session) Unset(l Layer, key string) bool {
	if l >= layerCount {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.layers[l].Delete(key) {
		return false
	}
	s.rev++
	return true
}

// Layer returns a copy of layer l.
func (s *Session) Layer(l Layer) *props.Bundle {
	if l >= layerCount {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.layers[l].Clone("")
}

func (s *Session) SetDark(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dark != v {
		s.dark = v
		s.rev++
	}
}

func (s *Session) SetHighContrast(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.highContrast != v {
		s.highContrast = v
		s.rev++
	}
}

func (s *Session) Dark() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dark
}

func (s *Session) HighContrast() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.highContrast
}

// Revision increases with every change to the session.
func (s *Session) Revision() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rev
}

// Derive returns the edited theme. The theme layer and the dark and
// high-contrast flags go on top of the base defaults, the icon layer on top of
// the base icon theme, and the globals, platform and UI layers replace their
// passes. Later edits do not affect a derived descriptor.
func (s *Session) Derive() theme.Descriptor {
	s.mu.Lock()
	defer s.mu.Unlock()
	var snap [layerCount]*props.Bundle
	for i, b := range s.layers {
		snap[i] = b.Clone("editor:" + Layer(i).String())
	}
	dark, hc := s.dark, s.highContrast
	id := editsID(s.family, s.base.Name, dark, hc, snap)

	d := s.base
	d.Family = s.family
	d.Tone = theme.ToneLight
	if dark {
		d.Tone = theme.ToneDark
	}
	d.Contrast = theme.ContrastStandard
	if hc {
		d.Contrast = theme.ContrastHigh
	}
	d.Passes = &theme.Passes{
		ID: id,
		LoadDefaults: func(ctx *theme.PassContext) (*props.Bundle, error) {
			base, err := ctx.Super()
			if err != nil {
				return nil, err
			}
			out := base.Clone(snap[ThemeDefaults].Name())
			out.Merge(snap[ThemeDefaults])
			out.SetScalar(theme.KeyDark, props.BoolValue(dark))
			out.SetScalar(theme.KeyHighContrast, props.BoolValue(hc))
			return out, nil
		},
		CustomizeGlobals:  layerPass(snap[Globals]),
		CustomizePlatform: layerPass(snap[Platform]),
		CustomizeUI:       layerPass(snap[UI]),
		CustomizeIconTheme: func(ctx *theme.PassContext) (*props.Bundle, error) {
			base, err := ctx.Super()
			if err != nil {
				return nil, err
			}
			out := base.Clone(snap[IconDefaults].Name())
			out.Merge(snap[IconDefaults])
			return out, nil
		},
	}
	return d
}

// editsID digests the edited content, so two derivations carrying the same
// edits share an ID and any differing edit changes it.
func editsID(family, base string, dark, hc bool, layers [layerCount]*props.Bundle) string {
	h, _ := blake2b.New256(nil)
	fmt.Fprintf(h, "%s|%s|%t|%t\n", family, base, dark, hc)
	for i, b := range layers {
		fmt.Fprintf(h, "[%s]\n", Layer(i))
		b.Each(func(key string, v props.RawValue) {
			fmt.Fprintf(h, "%s=%s\n", key, v)
		})
	}
	return "editor:" + hex.EncodeToString(h.Sum(nil)[:12])
}

func layerPass(b *props.Bundle) theme.Pass {
	return func(*theme.PassContext) (*props.Bundle, error) { return b, nil }
}

// Apply installs the derived theme.
func (s *Session) Apply(reg *registry.Registry) (*theme.Result, error) {
	return reg.Install(s.Derive())
}

// Record returns the session in its stored form. Every layer is recorded in
// full.
func (s *Session) Record() db.EditorSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := db.EditorSession{
		ID:           s.id,
		Family:       s.family,
		Base:         s.base.Name,
		Dark:         s.dark,
		HighContrast: s.highContrast,
	}
	for _, l := range Layers {
		s.layers[l].Each(func(key string, v props.RawValue) {
			rec.Edits = append(rec.Edits, db.EditorEdit{Layer: l.String(), Key: key, Value: v.String()})
		})
	}
	return rec
}

// Restore rebuilds a recorded session over base.
func Restore(base theme.Descriptor, rec db.EditorSession) (*Session, error) {
	s := &Session{
		id:           rec.ID,
		family:       rec.Family,
		base:         base,
		dark:         rec.Dark,
		highContrast: rec.HighContrast,
	}
	for _, l := range Layers {
		s.layers[l] = props.NewBundle(l.String())
	}
	for _, e := range rec.Edits {
		l, err := ParseLayer(e.Layer)
		if err != nil {
			return nil, fmt.Errorf("restore session %s: %w", rec.ID, err)
		}
		v, err := props.ParseValue(e.Value)
		if err != nil {
			return nil, fmt.Errorf("restore session %s: %s.%s: %w", rec.ID, e.Layer, e.Key, err)
		}
		s.layers[l].Set(e.Key, v)
	}
	return s, nil
}
