package theme

import (
	"github.com/matthewsawatzky/themekit/internal/props"
	"github.com/matthewsawatzky/themekit/internal/resolve"
)

const (
	KeyDark         = "Theme.dark"
	KeyHighContrast = "Theme.highContrast"
	KeyFontScale    = "Theme.fontScale"
)

// AccentKeys receive the descriptor's accent color.
var AccentKeys = []string{
	"widgetFillDefault",
	"controlFillHighlight",
	"hyperlink",
	"borderFocus",
	"controlBorderFocus",
	"glowFocusLine",
	"highlightFillFocus",
}

// SelectionKeys receive the descriptor's selection color.
var SelectionKeys = []string{
	"textSelectionBackground",
	"backgroundSelectedColorful",
}

// ThemeKeys is the palette vocabulary exposed by the editor.
var ThemeKeys = []string{
	"background",
	"backgroundAlternative",
	"backgroundColorful",
	"backgroundColorfulInactive",
	"backgroundContainer",
	"backgroundHeader",
	"backgroundToolTip",
	"backgroundToolTipInactive",
	"backgroundHover",
	"backgroundSelected",
	"backgroundHoverSecondary",
	"backgroundSelectedSecondary",
	"backgroundHoverColorful",
	"backgroundSelectedColorful",
	"dropBackground",
	"dropForeground",
	"borderSecondary",
	"border",
	"borderTertiary",
	"borderFocus",
	"gridLine",
	"hoverHighlight",
	"clickHighlight",
	"highlightFill",
	"highlightFillFocus",
	"highlightFillFocusSecondary",
	"highlightFillMono",
	"widgetBorder",
	"widgetBorderInactive",
	"widgetBorderDefault",
	"widgetFill",
	"widgetFillSelected",
	"widgetFillInactive",
	"widgetFillDefault",
	"controlBorder",
	"controlBorderDisabled",
	"controlBorderSelected",
	"controlBorderFocus",
	"controlBorderFocusSelected",
	"controlBorderSecondary",
	"controlFill",
	"controlFillFocus",
	"controlFillSecondary",
	"controlTrack",
	"controlFillDisabled",
	"controlFillHighlight",
	"controlFillHighlightDisabled",
	"controlBackground",
	"caret",
	"textForeground",
	"textForegroundDefault",
	"textForegroundHighlight",
	"textForegroundInactive",
	"textForegroundSecondary",
	"acceleratorForeground",
	"textContrastForeground",
	"textSelectionForeground",
	"textSelectionForegroundInactive",
	"textSelectionForegroundDisabled",
	"textSelectionBackground",
	"textSelectionBackgroundSecondary",
	"textBackground",
	"textBackgroundInactive",
	"textBackgroundSecondary",
	"textBackgroundSecondaryInactive",
	"hyperlink",
	"shadow",
	"glowOpacity",
	"dropOpacity",
	"shadowOpacityLight",
	"shadowOpacityStrong",
	"glowFocus",
	"glowFocusInactive",
	"glowFocusLine",
	"glowFocusLineInactive",
	"glowError",
	"glowErrorLine",
	"glowWarning",
	"glowWarningLine",
	"arc",
	"arcFocus",
	"arcSecondary",
	"arcSecondaryFocus",
	"borderThickness",
	"shadowHeight",
}

// IconKeys are the palette entries icons are recolored with.
var IconKeys = []string{
	"menuIconOpacity",
	"navigationIconOpacity",
	"fileIconOpacity",
	"menuIconEnabled",
	"menuIconHovered",
	"menuIconSelected",
	"menuIconSelectedSecondary",
	"menuIconDisabled",
	"menuIconHighlight",
	"fileIconBackground",
	"fileIconForeground",
	"fileIconHighlight",
	"windowButton",
	"windowButtonDisabled",
	"windowCloseHovered",
	"errorIconColor",
	"informationIconColor",
	"warningIconColor",
	"questionIconColor",
}

// FontSizeKeys are scaled by the descriptor's font scale.
var FontSizeKeys = []string{
	"fontSize.default",
	"fontSize.small",
	"fontSize.mini",
	"fontSize.large",
	"fontSize.title",
	"fontSize.monospace",
}

var (
	opacityKeys = []string{
		"glowOpacity", "dropOpacity", "shadowOpacityLight", "shadowOpacityStrong",
		"menuIconOpacity", "navigationIconOpacity", "fileIconOpacity",
	}
	intKeys = []string{
		"arc", "arcFocus", "arcSecondary", "arcSecondaryFocus", "borderThickness", "shadowHeight",
		"Spinner.arc", "Spinner.borderThickness", "TableHeader.height",
	}
	painterColorKeys = []string{
		"Spinner.focusBorderColor", "Spinner.activeBorderColor", "Spinner.inactiveBorderColor",
		"TableHeader.background", "TableHeader.borderColor",
		"PopupMenu.borderColor",
	}
)

// Schema returns the declared kinds of the well-known keys. Palette keys are
// colors unless declared otherwise below.
func Schema() *resolve.Schema {
	s := resolve.NewSchema()
	s.Declare(props.KindColor, ThemeKeys...)
	s.Declare(props.KindColor, IconKeys...)
	s.Declare(props.KindColor, painterColorKeys...)
	s.Declare(props.KindOpacity, opacityKeys...)
	s.Declare(props.KindInt, intKeys...)
	s.Declare(props.KindBool, KeyDark, KeyHighContrast)
	s.Declare(props.KindFloat, KeyFontScale)
	s.Declare(props.KindDimension, "PopupMenuDivider.size")
	s.DeclareFontSize(FontSizeKeys...)
	return s
}
