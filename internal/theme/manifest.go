package theme

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"

	"github.com/matthewsawatzky/themekit/internal/props"
)

// Manifest lists extra theme descriptors, read from YAML or JSON.
type Manifest struct {
	Themes []DescriptorSpec `json:"themes" yaml:"themes" jsonschema:"required"`
}

// DescriptorSpec is the serialized form of a Descriptor.
type DescriptorSpec struct {
	Name        string            `json:"name" yaml:"name" jsonschema:"required,maxLength=64"`
	DisplayName string            `json:"display_name,omitempty" yaml:"display_name,omitempty"`
	Family      string            `json:"family,omitempty" yaml:"family,omitempty"`
	Base        string            `json:"base" yaml:"base" jsonschema:"required"`
	Globals     string            `json:"globals,omitempty" yaml:"globals,omitempty"`
	Platform    string            `json:"platform,omitempty" yaml:"platform,omitempty"`
	UI          string            `json:"ui,omitempty" yaml:"ui,omitempty"`
	Icons       string            `json:"icons,omitempty" yaml:"icons,omitempty"`
	Tone        string            `json:"tone,omitempty" yaml:"tone,omitempty" jsonschema:"enum=light,enum=dark"`
	Contrast    string            `json:"contrast,omitempty" yaml:"contrast,omitempty" jsonschema:"enum=standard,enum=high"`
	FontScale   float64           `json:"font_scale,omitempty" yaml:"font_scale,omitempty" jsonschema:"minimum=0,maximum=4"`
	Accent      string            `json:"accent,omitempty" yaml:"accent,omitempty" jsonschema:"pattern=^#[0-9A-Fa-f]{6}([0-9A-Fa-f]{2})?$"`
	Selection   string            `json:"selection,omitempty" yaml:"selection,omitempty" jsonschema:"pattern=^#[0-9A-Fa-f]{6}([0-9A-Fa-f]{2})?$"`
	Overrides   map[string]string `json:"overrides,omitempty" yaml:"overrides,omitempty"`
}

// Descriptor converts the spec, parsing colors and override values.
func (s DescriptorSpec) Descriptor() (Descriptor, error) {
	d := Descriptor{
		Name:        s.Name,
		DisplayName: s.DisplayName,
		Family:      s.Family,
		Base:        s.Base,
		Globals:     s.Globals,
		Platform:    s.Platform,
		UI:          s.UI,
		Icons:       s.Icons,
		FontScale:   s.FontScale,
	}
	if err := d.Tone.UnmarshalText([]byte(s.Tone)); err != nil {
		return d, err
	}
	if err := d.Contrast.UnmarshalText([]byte(s.Contrast)); err != nil {
		return d, err
	}
	for _, c := range []struct {
		text string
		dst  **props.Color
	}{{s.Accent, &d.Accent}, {s.Selection, &d.Selection}} {
		if c.text == "" {
			continue
		}
		col, err := props.ParseColor(c.text)
		if err != nil {
			return d, fmt.Errorf("theme %s: %w", s.Name, err)
		}
		*c.dst = &col
	}
	if len(s.Overrides) > 0 {
		b := props.NewBundle(s.Name + ":overrides")
		keys := make([]string, 0, len(s.Overrides))
		for k := range s.Overrides {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if !props.ValidKey(k) {
				return d, &props.MalformedValueError{Bundle: b.Name(), Key: k, Text: k, Reason: "invalid key"}
			}
			v, err := props.ParseValue(s.Overrides[k])
			if err != nil {
				return d, &props.MalformedValueError{Bundle: b.Name(), Key: k, Text: s.Overrides[k], Reason: err.Error()}
			}
			b.Set(k, v)
		}
		d.Overrides = b
	}
	return d, d.Validate()
}

// SpecOf is the inverse of DescriptorSpec.Descriptor. Pass overrides are not
// serializable and are dropped.
func SpecOf(d Descriptor) DescriptorSpec {
	s := DescriptorSpec{
		Name:        d.Name,
		DisplayName: d.DisplayName,
		Family:      d.Family,
		Base:        d.Base,
		Globals:     d.Globals,
		Platform:    d.Platform,
		UI:          d.UI,
		Icons:       d.Icons,
		Tone:        d.Tone.String(),
		Contrast:    d.Contrast.String(),
		FontScale:   d.FontScale,
	}
	if d.Accent != nil {
		s.Accent = d.Accent.Hex()
	}
	if d.Selection != nil {
		s.Selection = d.Selection.Hex()
	}
	if d.Overrides.Len() > 0 {
		s.Overrides = map[string]string{}
		d.Overrides.Each(func(key string, v props.RawValue) {
			s.Overrides[key] = v.String()
		})
	}
	return s
}

// ParseManifest decodes data as JSON when name ends in .json and as YAML
// otherwise.
func ParseManifest(name string, data []byte) ([]Descriptor, error) {
	var m Manifest
	var err error
	if strings.EqualFold(filepath.Ext(name), ".json") {
		err = json.Unmarshal(data, &m)
	} else {
		err = yaml.Unmarshal(data, &m)
	}
	if err != nil {
		return nil, fmt.Errorf("decode manifest %s: %w", name, err)
	}
	out := make([]Descriptor, 0, len(m.Themes))
	for _, spec := range m.Themes {
		d, err := spec.Descriptor()
		if err != nil {
			return nil, fmt.Errorf("manifest %s: %w", name, err)
		}
		out = append(out, d)
	}
	return out, nil
}

func LoadManifest(path string) ([]Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return ParseManifest(path, data)
}

// ManifestSchema returns the JSON Schema describing manifest files.
func ManifestSchema() ([]byte, error) {
	r := &jsonschema.Reflector{DoNotReference: true}
	s := r.Reflect(&Manifest{})
	s.Title = "themekit theme manifest"
	return json.MarshalIndent(s, "", "  ")
}
