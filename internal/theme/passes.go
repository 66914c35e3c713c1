package theme

import (
	"errors"
	"fmt"

	"github.com/matthewsawatzky/themekit/internal/props"
	"github.com/matthewsawatzky/themekit/internal/resolve"
)

// Pass names, in execution order.
const (
	PassLoadDefaults       = "loadDefaults"
	PassCustomizeGlobals   = "customizeGlobals"
	PassCustomizePlatform  = "customizePlatform"
	PassCustomizeUI        = "customizeUI"
	PassCustomizeIconTheme = "customizeIconTheme"
)

// PassNames lists the engine passes in order.
var PassNames = []string{
	PassLoadDefaults,
	PassCustomizeGlobals,
	PassCustomizePlatform,
	PassCustomizeUI,
	PassCustomizeIconTheme,
}

// A Pass returns the bundle to append to the stack, or nil to append nothing.
// It must depend only on the context it is given.
type Pass func(ctx *PassContext) (*props.Bundle, error)

// PassContext is what a pass may observe.
type PassContext struct {
	Name       string
	Descriptor Descriptor
	// Current is resolved from the layers appended so far. Keys whose
	// references are not resolvable yet are absent.
	Current resolve.Defaults

	source Source
	super  Pass
}

// Open loads a bundle through the engine's source.
func (c *PassContext) Open(id string) (*props.Bundle, error) {
	return c.source.Open(id)
}

// Super runs the engine's default implementation of the current pass.
func (c *PassContext) Super() (*props.Bundle, error) {
	if c.super == nil {
		return nil, nil
	}
	return c.super(c)
}

// Passes overrides selected engine passes. Nil fields fall back to the
// defaults. ID identifies the override set: two descriptors whose passes share
// an ID are assumed to build the same theme.
type Passes struct {
	ID                 string
	LoadDefaults       Pass
	CustomizeGlobals   Pass
	CustomizePlatform  Pass
	CustomizeUI        Pass
	CustomizeIconTheme Pass
}

func (p *Passes) id() string {
	if p == nil {
		return ""
	}
	return p.ID
}

func (p *Passes) lookup(name string) Pass {
	if p == nil {
		return nil
	}
	switch name {
	case PassLoadDefaults:
		return p.LoadDefaults
	case PassCustomizeGlobals:
		return p.CustomizeGlobals
	case PassCustomizePlatform:
		return p.CustomizePlatform
	case PassCustomizeUI:
		return p.CustomizeUI
	case PassCustomizeIconTheme:
		return p.CustomizeIconTheme
	}
	return nil
}

func defaultPass(name string) Pass {
	switch name {
	case PassLoadDefaults:
		return loadDefaults
	case PassCustomizeGlobals:
		return optionalBundle(func(d Descriptor) string { return d.Globals })
	case PassCustomizePlatform:
		return optionalBundle(func(d Descriptor) string { return d.Platform })
	case PassCustomizeUI:
		return optionalBundle(func(d Descriptor) string { return d.UI })
	case PassCustomizeIconTheme:
		return optionalBundle(func(d Descriptor) string { return d.Icons })
	}
	return nil
}

// loadDefaults layers the descriptor's base bundle over the shared base
// defaults.
func loadDefaults(ctx *PassContext) (*props.Bundle, error) {
	defaults, err := ctx.Open(BaseDefaultsID)
	if err != nil {
		return nil, err
	}
	if ctx.Descriptor.Base == "" {
		return nil, ErrNoBaseTheme
	}
	base, err := ctx.Open(ctx.Descriptor.Base)
	if errors.Is(err, ErrUnknownBundle) {
		return nil, fmt.Errorf("%w: %s", ErrNoBaseTheme, ctx.Descriptor.Base)
	}
	if err != nil {
		return nil, err
	}
	if base.Len() == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrNoBaseTheme, ctx.Descriptor.Base)
	}
	out := defaults.Clone(PassLoadDefaults + ":" + ctx.Descriptor.Base)
	out.Merge(base)
	return out, nil
}

func optionalBundle(id func(Descriptor) string) Pass {
	return func(ctx *PassContext) (*props.Bundle, error) {
		name := id(ctx.Descriptor)
		if name == "" {
			return nil, nil
		}
		return ctx.Open(name)
	}
}
