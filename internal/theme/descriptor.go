package theme

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/matthewsawatzky/themekit/internal/props"
)

type Tone uint8

const (
	ToneLight Tone = iota
	ToneDark
)

func (t Tone) String() string {
	if t == ToneDark {
		return "dark"
	}
	return "light"
}

func (t Tone) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *Tone) UnmarshalText(b []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(b))) {
	case "", "light":
		*t = ToneLight
	case "dark":
		*t = ToneDark
	default:
		return fmt.Errorf("invalid tone %q", string(b))
	}
	return nil
}

type Contrast uint8

const (
	ContrastStandard Contrast = iota
	ContrastHigh
)

func (c Contrast) String() string {
	if c == ContrastHigh {
		return "high"
	}
	return "standard"
}

func (c Contrast) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Contrast) UnmarshalText(b []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(b))) {
	case "", "standard":
		*c = ContrastStandard
	case "high":
		*c = ContrastHigh
	default:
		return fmt.Errorf("invalid contrast %q", string(b))
	}
	return nil
}

// Descriptor names the bundles composing a theme and the rule modifiers
// applied on top of them. Descriptors are values; modify a copy.
type Descriptor struct {
	Name        string       `json:"name" validate:"required,max=64"`
	DisplayName string       `json:"display_name,omitempty"`
	Family      string       `json:"family,omitempty"`
	Base        string       `json:"base" validate:"required"`
	Globals     string       `json:"globals,omitempty"`
	Platform    string       `json:"platform,omitempty"`
	UI          string       `json:"ui,omitempty"`
	Icons       string       `json:"icons,omitempty"`
	Tone        Tone         `json:"tone"`
	Contrast    Contrast     `json:"contrast"`
	FontScale   float64      `json:"font_scale,omitempty" validate:"gte=0,lte=4"`
	Accent      *props.Color `json:"accent,omitempty"`
	Selection   *props.Color `json:"selection,omitempty"`

	// Overrides is appended on top of the stack after the rules bundle.
	Overrides *props.Bundle `json:"-"`
	// Passes replaces individual engine passes.
	Passes *Passes `json:"-"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// ErrInvalidDescriptor wraps every Validate failure.
var ErrInvalidDescriptor = errors.New("invalid descriptor")

// Validate checks the descriptor's field constraints. A blank base also
// matches ErrNoBaseTheme. Pass overrides must carry an ID.
func (d Descriptor) Validate() error {
	if strings.TrimSpace(d.Base) == "" {
		return fmt.Errorf("%w %q: %w", ErrInvalidDescriptor, d.Name, ErrNoBaseTheme)
	}
	if err := validate.Struct(d); err != nil {
		return fmt.Errorf("%w %q: %w", ErrInvalidDescriptor, d.Name, err)
	}
	if d.Passes != nil && d.Passes.ID == "" {
		return fmt.Errorf("%w %q: pass overrides without an id", ErrInvalidDescriptor, d.Name)
	}
	return nil
}

// FamilyName returns the family used to group a theme with its rule variants.
func (d Descriptor) FamilyName() string {
	if d.Family != "" {
		return d.Family
	}
	return d.Name
}

func (d Descriptor) Scale() float64 {
	if d.FontScale <= 0 {
		return 1
	}
	return d.FontScale
}

func (d Descriptor) IsDark() bool         { return d.Tone == ToneDark }
func (d Descriptor) IsHighContrast() bool { return d.Contrast == ContrastHigh }

func (d Descriptor) Label() string {
	if d.DisplayName != "" {
		return d.DisplayName
	}
	return d.Name
}

// WithAccent returns a copy of d using accent.
func (d Descriptor) WithAccent(c props.Color) Descriptor {
	d.Accent = &c
	return d
}

func (d Descriptor) WithSelection(c props.Color) Descriptor {
	d.Selection = &c
	return d
}

// WithoutRules strips accent, selection and font scale. Tone and contrast are
// kept because they select the base bundle.
func (d Descriptor) WithoutRules() Descriptor {
	d.Accent = nil
	d.Selection = nil
	d.FontScale = 0
	d.Overrides = nil
	d.Passes = nil
	return d
}

// Equal reports whether two descriptors build the same theme. Passes are
// compared by ID and overrides by identity.
func (d Descriptor) Equal(o Descriptor) bool {
	if d.Name != o.Name || d.DisplayName != o.DisplayName || d.Family != o.Family ||
		d.Base != o.Base || d.Globals != o.Globals || d.Platform != o.Platform ||
		d.UI != o.UI || d.Icons != o.Icons || d.Tone != o.Tone || d.Contrast != o.Contrast ||
		d.Scale() != o.Scale() {
		return false
	}
	if !sameColor(d.Accent, o.Accent) || !sameColor(d.Selection, o.Selection) {
		return false
	}
	if d.Overrides != o.Overrides {
		return false
	}
	return d.Passes.id() == o.Passes.id()
}

func sameColor(a, b *props.Color) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
