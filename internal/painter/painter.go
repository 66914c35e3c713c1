// Package painter turns theme defaults into the parameters widget paint code
// needs. Every constructor reads from a resolve.Lookups, so a missing key
// either fails (strict) or yields the documented sentinel.
package painter

import (
	"errors"

	"github.com/matthewsawatzky/themekit/internal/props"
	"github.com/matthewsawatzky/themekit/internal/resolve"
)

// DefaultHeaderHeight is used when TableHeader.height is negative.
const DefaultHeaderHeight = 26

type TableHeader struct {
	Background props.Color
	Border     props.Color
	Height     int
}

func NewTableHeader(l *resolve.Lookups) (TableHeader, error) {
	var (
		h   TableHeader
		err error
		e   error
	)
	h.Background, e = l.Color("TableHeader.background")
	err = errors.Join(err, e)
	h.Border, e = l.Color("TableHeader.borderColor")
	err = errors.Join(err, e)
	h.Height, e = l.Int("TableHeader.height")
	err = errors.Join(err, e)
	if h.Height < 0 {
		h.Height = DefaultHeaderHeight
	}
	return h, err
}

// PreferredHeight is the larger of the content height and the themed height.
func (h TableHeader) PreferredHeight(content int) int {
	return max(content, h.Height)
}

type SpinnerBorder struct {
	Focus     props.Color
	Active    props.Color
	Inactive  props.Color
	Arc       int
	Thickness int
}

func NewSpinnerBorder(l *resolve.Lookups) (SpinnerBorder, error) {
	var (
		s   SpinnerBorder
		err error
		e   error
	)
	s.Focus, e = l.Color("Spinner.focusBorderColor")
	err = errors.Join(err, e)
	s.Active, e = l.Color("Spinner.activeBorderColor")
	err = errors.Join(err, e)
	s.Inactive, e = l.Color("Spinner.inactiveBorderColor")
	err = errors.Join(err, e)
	s.Arc, e = l.Int("Spinner.arc")
	err = errors.Join(err, e)
	s.Thickness, e = l.Int("Spinner.borderThickness")
	err = errors.Join(err, e)
	return s, err
}

// Insets returns the border insets. Spinners embedded as table or tree cell
// editors get the compact variant.
func (s SpinnerBorder) Insets(cellEditor bool) props.Insets {
	if cellEditor {
		return props.Insets{Top: 2, Left: 5, Bottom: 2, Right: 5}
	}
	return props.Insets{Top: 7, Left: 7, Bottom: 7, Right: 7}
}

// BorderColor picks the line color for the spinner's state. Focus only applies
// to enabled spinners.
func (s SpinnerBorder) BorderColor(enabled, focused bool) props.Color {
	switch {
	case !enabled:
		return s.Inactive
	case focused:
		return s.Focus
	}
	return s.Active
}

// LineInset is the offset of the border line from the component edge. Table
// cell editors draw flush.
func (s SpinnerBorder) LineInset(tableCellEditor bool) int {
	if tableCellEditor {
		return 0
	}
	return s.Thickness
}

type PopupSeparator struct {
	Color props.Color
	Size  props.Dimension
}

func NewPopupSeparator(l *resolve.Lookups) (PopupSeparator, error) {
	c, err1 := l.Color("PopupMenu.borderColor")
	size, err2 := l.Dimension("PopupMenuDivider.size")
	return PopupSeparator{Color: c, Size: size}, errors.Join(err1, err2)
}

// LineY is the row the one-pixel separator line is drawn on.
func (p PopupSeparator) LineY() int { return p.Size.H / 2 }

func (p PopupSeparator) PreferredSize() props.Dimension {
	return props.Dimension{W: 0, H: p.Size.H}
}
