package icon

import (
	"errors"
	"image"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/image/bmp"
)

var ErrUnsupportedFormat = errors.New("unsupported image format")

// Scale resizes img to w x h. A zero dimension keeps the aspect ratio.
func Scale(img image.Image, w, h int) *image.NRGBA {
	return imaging.Resize(img, w, h, imaging.Lanczos)
}

// FormatFromPath returns "png" or "bmp" based on the file extension.
func FormatFromPath(p string) (string, error) {
	switch strings.ToLower(filepath.Ext(p)) {
	case "", ".png":
		return "png", nil
	case ".bmp":
		return "bmp", nil
	}
	return "", ErrUnsupportedFormat
}

// Encode writes img to w in the given format.
func Encode(w io.Writer, img image.Image, format string) error {
	switch format {
	case "png":
		return png.Encode(w, img)
	case "bmp":
		return bmp.Encode(w, img)
	}
	return ErrUnsupportedFormat
}
