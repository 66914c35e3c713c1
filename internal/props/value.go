package props

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"
)

// Kind identifies the concrete type carried by a Scalar.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindColor
	KindInt
	KindFloat
	KindBool
	KindString
	KindDimension
	KindInsets
	KindOpacity
	KindIconRef
)

var kindNames = [...]string{
	KindInvalid:   "invalid",
	KindColor:     "color",
	KindInt:       "int",
	KindFloat:     "float",
	KindBool:      "bool",
	KindString:    "string",
	KindDimension: "dimension",
	KindInsets:    "insets",
	KindOpacity:   "opacity",
	KindIconRef:   "icon",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// ParseKind maps a kind name back to its Kind.
func ParseKind(name string) (Kind, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for k, n := range kindNames {
		if n == name && Kind(k) != KindInvalid {
			return Kind(k), nil
		}
	}
	return KindInvalid, fmt.Errorf("unknown value kind %q", name)
}

// Color is a non-premultiplied RGBA color.
type Color struct {
	R, G, B, A uint8
}

// RGB returns an opaque color.
func RGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b, A: 0xFF}
}

// ParseColor parses #RRGGBB or #RRGGBBAA.
func ParseColor(s string) (Color, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "#") || (len(s) != 7 && len(s) != 9) {
		return Color{}, fmt.Errorf("invalid color %q", s)
	}
	n, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("invalid color %q", s)
	}
	if len(s) == 7 {
		return RGB(uint8(n>>16), uint8(n>>8), uint8(n)), nil
	}
	return Color{R: uint8(n >> 24), G: uint8(n >> 16), B: uint8(n >> 8), A: uint8(n)}, nil
}

// Hex renders the color as #RRGGBB, or #RRGGBBAA when it is not opaque.
func (c Color) Hex() string {
	if c.A == 0xFF {
		return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02X%02X%02X%02X", c.R, c.G, c.B, c.A)
}

// RGBHex renders the color as #RRGGBB, dropping alpha.
func (c Color) RGBHex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// NRGBA converts to the image/color representation.
func (c Color) NRGBA() color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}
}

func (c Color) String() string { return c.Hex() }

// MarshalText implements encoding.TextMarshaler.
func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.Hex()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Color) UnmarshalText(b []byte) error {
	parsed, err := ParseColor(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

type Dimension struct {
	W, H int
}

func (d Dimension) String() string { return fmt.Sprintf("%dx%d", d.W, d.H) }

type Insets struct {
	Top, Left, Bottom, Right int
}

func (i Insets) String() string {
	return fmt.Sprintf("%d,%d,%d,%d", i.Top, i.Left, i.Bottom, i.Right)
}

// IconRef points at an icon resource. A zero size means the icon's intrinsic size.
type IconRef struct {
	Path string
	Size Dimension
}

func (r IconRef) String() string {
	if r.Size == (Dimension{}) {
		return "icon(" + r.Path + ")"
	}
	return "icon(" + r.Path + ", " + r.Size.String() + ")"
}

// Scalar is a fully resolved property value. The zero Scalar has KindInvalid.
// Scalars are comparable with ==.
type Scalar struct {
	kind  Kind
	color Color
	num   float64
	i     int32
	b     bool
	s     string
	dim   Dimension
	ins   Insets
	icon  IconRef
}

func ColorValue(c Color) Scalar         { return Scalar{kind: KindColor, color: c} }
func IntValue(n int32) Scalar           { return Scalar{kind: KindInt, i: n} }
func FloatValue(f float64) Scalar       { return Scalar{kind: KindFloat, num: f} }
func BoolValue(b bool) Scalar           { return Scalar{kind: KindBool, b: b} }
func StringValue(s string) Scalar       { return Scalar{kind: KindString, s: s} }
func DimensionValue(d Dimension) Scalar { return Scalar{kind: KindDimension, dim: d} }
func InsetsValue(i Insets) Scalar       { return Scalar{kind: KindInsets, ins: i} }
func IconValue(r IconRef) Scalar        { return Scalar{kind: KindIconRef, icon: r} }

// OpacityValue clamps f into [0,1].
func OpacityValue(f float64) Scalar {
	return Scalar{kind: KindOpacity, num: math.Max(0, math.Min(1, f))}
}

func (s Scalar) Kind() Kind    { return s.kind }
func (s Scalar) IsValid() bool { return s.kind != KindInvalid }

func (s Scalar) Color() (Color, bool)         { return s.color, s.kind == KindColor }
func (s Scalar) Int() (int32, bool)           { return s.i, s.kind == KindInt }
func (s Scalar) Bool() (bool, bool)           { return s.b, s.kind == KindBool }
func (s Scalar) Str() (string, bool)          { return s.s, s.kind == KindString }
func (s Scalar) Dimension() (Dimension, bool) { return s.dim, s.kind == KindDimension }
func (s Scalar) Insets() (Insets, bool)       { return s.ins, s.kind == KindInsets }
func (s Scalar) Icon() (IconRef, bool)        { return s.icon, s.kind == KindIconRef }

// Float returns the numeric value of Float, Opacity and Int scalars.
func (s Scalar) Float() (float64, bool) {
	switch s.kind {
	case KindFloat, KindOpacity:
		return s.num, true
	case KindInt:
		return float64(s.i), true
	}
	return 0, false
}

// String renders the scalar in bundle syntax, so that parsing the output yields
// an equal scalar.
func (s Scalar) String() string {
	switch s.kind {
	case KindColor:
		return s.color.Hex()
	case KindInt:
		return strconv.FormatInt(int64(s.i), 10)
	case KindFloat:
		out := strconv.FormatFloat(s.num, 'f', -1, 64)
		if !strings.Contains(out, ".") {
			out += ".0"
		}
		return out
	case KindBool:
		return strconv.FormatBool(s.b)
	case KindString:
		return strconv.Quote(s.s)
	case KindDimension:
		return s.dim.String()
	case KindInsets:
		return s.ins.String()
	case KindOpacity:
		return "opacity(" + strconv.FormatFloat(s.num, 'f', -1, 64) + ")"
	case KindIconRef:
		return s.icon.String()
	}
	return "<invalid>"
}

// RawValue is a bundle entry value before resolution: a literal or a reference
// to another key.
type RawValue struct {
	ref string
	lit Scalar
}

func Literal(s Scalar) RawValue { return RawValue{lit: s} }
func Ref(key string) RawValue   { return RawValue{ref: key} }

func (v RawValue) IsRef() bool     { return v.ref != "" }
func (v RawValue) RefName() string { return v.ref }
func (v RawValue) Scalar() Scalar  { return v.lit }

func (v RawValue) String() string {
	if v.IsRef() {
		return "%" + v.ref
	}
	return v.lit.String()
}
