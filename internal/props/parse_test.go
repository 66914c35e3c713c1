package props

import (
	"errors"
	"testing"
)

func TestParseScalarTable(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Scalar
	}{
		{name: "rgb", in: "#1A2B3C", want: ColorValue(RGB(0x1A, 0x2B, 0x3C))},
		{name: "rgba", in: "#1A2B3C80", want: ColorValue(Color{R: 0x1A, G: 0x2B, B: 0x3C, A: 0x80})},
		{name: "int", in: "42", want: IntValue(42)},
		{name: "negative int", in: "-3", want: IntValue(-3)},
		{name: "float", in: "0.75", want: FloatValue(0.75)},
		{name: "bool", in: "true", want: BoolValue(true)},
		{name: "quoted string", in: `"Segoe UI"`, want: StringValue("Segoe UI")},
		{name: "bare word", in: "Dialog", want: StringValue("Dialog")},
		{name: "dimension", in: "12x24", want: DimensionValue(Dimension{W: 12, H: 24})},
		{name: "insets", in: "2,5,2,5", want: InsetsValue(Insets{Top: 2, Left: 5, Bottom: 2, Right: 5})},
		{name: "insets with spaces", in: "7, 7, 7, 7", want: InsetsValue(Insets{Top: 7, Left: 7, Bottom: 7, Right: 7})},
		{name: "opacity", in: "opacity(0.5)", want: OpacityValue(0.5)},
		{name: "icon", in: "icon(navigation/close.svg, 16x16)", want: IconValue(IconRef{Path: "navigation/close.svg", Size: Dimension{W: 16, H: 16}})},
		{name: "unknown tag", in: "font(Dialog, 12)", want: StringValue("font(Dialog, 12)")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseScalar(tt.in)
			if err != nil {
				t.Fatalf("ParseScalar(%q) unexpected error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Fatalf("ParseScalar(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseScalarRejects(t *testing.T) {
	for _, in := range []string{"#12", "#GGGGGG", "12x", "1,2,3", "opacity(2)", "icon()", `"open`, "a b", "99999999999",
		"99999999999x16", "16x99999999999", "1,2,3,99999999999", "-99999999999,0,0,0", "icon(a.svg, 99999999999x1)"} {
		if _, err := ParseScalar(in); err == nil {
			t.Fatalf("ParseScalar(%q) expected error", in)
		}
	}
}

func TestScalarStringRoundTrip(t *testing.T) {
	values := []Scalar{
		ColorValue(RGB(1, 2, 3)),
		ColorValue(Color{R: 1, G: 2, B: 3, A: 4}),
		IntValue(-7),
		FloatValue(12),
		FloatValue(1.25),
		BoolValue(false),
		StringValue(`say "hi" # not a comment`),
		DimensionValue(Dimension{W: 5, H: 9}),
		InsetsValue(Insets{Top: 1, Left: -2, Bottom: 3, Right: 4}),
		OpacityValue(0.25),
		IconValue(IconRef{Path: "dialog/error.svg"}),
	}
	for _, v := range values {
		got, err := ParseScalar(v.String())
		if err != nil {
			t.Fatalf("ParseScalar(%q) unexpected error: %v", v.String(), err)
		}
		if got != v {
			t.Fatalf("round trip of %q = %v, want %v", v.String(), got, v)
		}
	}
}

func TestParseBundle(t *testing.T) {
	src := `# comment
key = value
other = %key               # reference
size = 12x24               # dimension
color = #1A2B3C            # rgb
color2 = #1A2B3CFF         # rgba
margin = 2,5,2,5           # insets

key = overridden
`
	b, err := ParseString("example", src)
	if err != nil {
		t.Fatalf("ParseString() unexpected error: %v", err)
	}
	wantKeys := []string{"key", "other", "size", "color", "color2", "margin"}
	keys := b.Keys()
	if len(keys) != len(wantKeys) {
		t.Fatalf("Keys() = %v, want %v", keys, wantKeys)
	}
	for i := range keys {
		if keys[i] != wantKeys[i] {
			t.Fatalf("Keys() = %v, want %v", keys, wantKeys)
		}
	}

	v, _ := b.Get("key")
	if v.Scalar() != StringValue("overridden") {
		t.Fatalf("later entry should override earlier, got %v", v)
	}
	v, _ = b.Get("other")
	if !v.IsRef() || v.RefName() != "key" {
		t.Fatalf("other = %v, want reference to key", v)
	}
	v, _ = b.Get("color2")
	if v.Scalar() != ColorValue(RGB(0x1A, 0x2B, 0x3C)) {
		t.Fatalf("color2 = %v, want #1A2B3C", v)
	}
}

func TestParseBundleMalformed(t *testing.T) {
	tests := []struct {
		name string
		src  string
		line int
	}{
		{name: "missing equals", src: "a = 1\nnot a pair\n", line: 2},
		{name: "bad key", src: "9lives = 1\n", line: 1},
		{name: "bad value", src: "a = 1\n\nb = 12x\n", line: 3},
		{name: "empty value", src: "a =\n", line: 1},
		{name: "bad reference", src: "a = %\n", line: 1},
		{name: "oversized dimension", src: "a = 1\nsize = 99999999999x16\n", line: 2},
		{name: "oversized insets", src: "margin = 2,5,2,99999999999\n", line: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseString("broken", tt.src)
			if !errors.Is(err, ErrMalformedValue) {
				t.Fatalf("expected ErrMalformedValue, got %v", err)
			}
			var mv *MalformedValueError
			if !errors.As(err, &mv) {
				t.Fatalf("expected *MalformedValueError, got %T", err)
			}
			if mv.Line != tt.line {
				t.Fatalf("error line = %d, want %d", mv.Line, tt.line)
			}
		})
	}
}

func TestBundleClonePreservesOrder(t *testing.T) {
	b := NewBundle("a")
	b.SetScalar("z", IntValue(1))
	b.SetScalar("a", IntValue(2))
	c := b.Clone("b")
	c.SetScalar("z", IntValue(3))

	if v, _ := b.Get("z"); v.Scalar() != IntValue(1) {
		t.Fatalf("clone mutation leaked into source: %v", v)
	}
	if keys := c.Keys(); keys[0] != "z" || keys[1] != "a" {
		t.Fatalf("Clone().Keys() = %v, want [z a]", keys)
	}
	if c.Name() != "b" {
		t.Fatalf("Clone().Name() = %q, want b", c.Name())
	}
}
