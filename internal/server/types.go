package server

import (
	"github.com/matthewsawatzky/themekit/internal/icon"
	"github.com/matthewsawatzky/themekit/internal/props"
	"github.com/matthewsawatzky/themekit/internal/registry"
	"github.com/matthewsawatzky/themekit/internal/theme"
)

type Options struct {
	DataDir       string
	Bind          string
	Host          string
	Port          int
	BasePath      string
	LogLevel      string
	HTTPS         bool
	CertFile      string
	KeyFile       string
	Version       string
	Theme         string
	ThemeSet      bool
	StrictLookups bool
	IconSize      int
	PrefetchLimit int
	// Registry and Library default to the built-in themes and icons.
	Registry *registry.Registry
	Library  *icon.Library
}

type themeSummary struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Family      string `json:"family"`
	Tone        string `json:"tone"`
	Contrast    string `json:"contrast"`
	Active      bool   `json:"active"`
}

type installRequest struct {
	Theme     string          `json:"theme"`
	Overrides theme.Overrides `json:"overrides"`
}

type cacheStats struct {
	Entries int    `json:"entries"`
	Bytes   int64  `json:"bytes"`
	Size    string `json:"size"`
}

type editRequest struct {
	Session      string  `json:"session"`
	Theme        string  `json:"theme"`
	Layer        string  `json:"layer"`
	Key          string  `json:"key"`
	Value        *string `json:"value"`
	Dark         *bool   `json:"dark"`
	HighContrast *bool   `json:"highContrast"`
	Apply        bool    `json:"apply"`
	Close        bool    `json:"close"`
	Discard      bool    `json:"discard"`
}

type sessionView struct {
	ID           string                       `json:"id"`
	Family       string                       `json:"family"`
	Base         string                       `json:"base"`
	Dark         bool                         `json:"dark"`
	HighContrast bool                         `json:"highContrast"`
	Revision     int                          `json:"revision"`
	Layers       map[string]map[string]string `json:"layers"`
}

type spinnerView struct {
	Focus            props.Color  `json:"focus"`
	Active           props.Color  `json:"active"`
	Inactive         props.Color  `json:"inactive"`
	Arc              int          `json:"arc"`
	Thickness        int          `json:"thickness"`
	Insets           props.Insets `json:"insets"`
	CellEditorInsets props.Insets `json:"cellEditorInsets"`
}

type headerView struct {
	Background props.Color `json:"background"`
	Border     props.Color `json:"border"`
	Height     int         `json:"height"`
}

type separatorView struct {
	Color  props.Color `json:"color"`
	Width  int         `json:"width"`
	Height int         `json:"height"`
	LineY  int         `json:"lineY"`
}
