package icon

import (
	"image"

	"github.com/matthewsawatzky/themekit/internal/props"
)

// Renderer renders a template at a size against some palette.
type Renderer interface {
	RenderIcon(t *Template, size props.Dimension) (*image.NRGBA, error)
}

// Icon is a logical handle on a template at a size. Handles are values;
// Derive returns a new one sharing the template.
type Icon struct {
	template *Template
	size     props.Dimension
	renderer Renderer
}

func New(t *Template, size props.Dimension, r Renderer) Icon {
	return Icon{template: t, size: size, renderer: r}
}

func (i Icon) Template() *Template   { return i.template }
func (i Icon) Size() props.Dimension { return i.size }

// Derive returns a handle rendering the same template at w x h.
func (i Icon) Derive(w, h int) Icon {
	i.size = props.Dimension{W: w, H: h}
	return i
}

// WithRenderer returns a handle drawing through r, for instance an applier
// bound to a palette other than the active one.
func (i Icon) WithRenderer(r Renderer) Icon {
	i.renderer = r
	return i
}

func (i Icon) Image() (*image.NRGBA, error) {
	return i.renderer.RenderIcon(i.template, i.size)
}
