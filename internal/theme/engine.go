// Package theme composes themes out of layered property bundles.
//
// A Descriptor names the bundles and rule modifiers of a theme. The Engine
// runs the five passes over it (loadDefaults, customizeGlobals,
// customizePlatform, customizeUI, customizeIconTheme), appends the rules
// bundle and the descriptor's overrides, and resolves the stack into an
// immutable Defaults map plus the icon palette.
package theme

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/matthewsawatzky/themekit/internal/props"
	"github.com/matthewsawatzky/themekit/internal/resolve"
)

var (
	ErrNoBaseTheme   = errors.New("no base theme")
	ErrUnknownBundle = errors.New("unknown bundle")
)

// Layer is one bundle of a built stack, labelled with what produced it.
type Layer struct {
	Name   string
	Bundle *props.Bundle
}

// Result is a built theme.
type Result struct {
	Descriptor  Descriptor
	Defaults    resolve.Defaults
	IconPalette IconPalette
	Key         PaletteKey
	// Layers is the resolver input in stack order. Pass layers are named after
	// their pass; the last two are "rules" and, if present, "overrides".
	Layers []Layer
}

// Layer returns the bundle produced by the named layer, or nil.
func (r *Result) Layer(name string) *props.Bundle {
	for _, l := range r.Layers {
		if l.Name == name {
			return l.Bundle
		}
	}
	return nil
}

type Engine struct {
	source Source
	schema *resolve.Schema
	logger *slog.Logger
}

// NewEngine returns an engine reading bundles from source. A nil schema
// disables type checking; a nil logger uses slog.Default().
func NewEngine(source Source, schema *resolve.Schema, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{source: source, schema: schema, logger: logger}
}

func (e *Engine) Source() Source          { return e.source }
func (e *Engine) Schema() *resolve.Schema { return e.schema }

// Build runs the passes for d and resolves the resulting stack.
func (e *Engine) Build(d Descriptor) (*Result, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	var layers []Layer
	stack := func() []*props.Bundle {
		out := make([]*props.Bundle, 0, len(layers))
		for _, l := range layers {
			out = append(out, l.Bundle)
		}
		return out
	}

	for _, name := range PassNames {
		ctx := &PassContext{
			Name:       name,
			Descriptor: d,
			Current:    resolve.ResolvePartial(stack()),
			source:     e.source,
			super:      defaultPass(name),
		}
		pass := d.Passes.lookup(name)
		if pass == nil {
			pass = ctx.super
		}
		b, err := pass(ctx)
		if err != nil {
			return nil, fmt.Errorf("theme %s: %s: %w", d.Name, name, err)
		}
		if name == PassLoadDefaults && b.Len() == 0 {
			return nil, fmt.Errorf("theme %s: %w", d.Name, ErrNoBaseTheme)
		}
		if b != nil {
			layers = append(layers, Layer{Name: name, Bundle: b})
		}
	}

	rules := RulesBundle(d, resolve.ResolvePartial(stack()), e.schema)
	layers = append(layers, Layer{Name: RulesBundleID, Bundle: rules})
	if d.Overrides.Len() > 0 {
		layers = append(layers, Layer{Name: "overrides", Bundle: d.Overrides})
	}

	defaults, err := resolve.Resolve(stack(), e.schema)
	if err != nil {
		return nil, fmt.Errorf("theme %s: %w", d.Name, err)
	}
	key := KeyOf(d)
	e.logger.Debug("theme built", "theme", d.Name, "keys", defaults.Len(), "layers", len(layers), "palette", key.Digest())
	return &Result{
		Descriptor:  d,
		Defaults:    defaults,
		IconPalette: NewIconPalette(key, defaults),
		Key:         key,
		Layers:      layers,
	}, nil
}
