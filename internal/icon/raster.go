package icon

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// Rasterizer turns a bound SVG source into pixels of the given size.
type Rasterizer interface {
	Rasterize(src []byte, width, height int) (*image.NRGBA, error)
}

// SVGRasterizer draws with oksvg and rasterx.
type SVGRasterizer struct{}

func (SVGRasterizer) Rasterize(src []byte, width, height int) (*image.NRGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("rasterize: invalid size %dx%d", width, height)
	}
	svg, err := oksvg.ReadIconStream(bytes.NewReader(src), oksvg.WarnErrorMode)
	if err != nil {
		return nil, fmt.Errorf("rasterize: %w", err)
	}
	svg.SetTarget(0, 0, float64(width), float64(height))
	rgba := image.NewRGBA(image.Rect(0, 0, width, height))
	scanner := rasterx.NewScannerGV(width, height, rgba, rgba.Bounds())
	svg.Draw(rasterx.NewDasher(width, height, scanner), 1)
	return imaging.Clone(rgba), nil
}
