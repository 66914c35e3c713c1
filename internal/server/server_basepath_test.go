package server

import "testing"

func TestRouteBasePath(t *testing.T) {
	tests := []struct {
		name     string
		basePath string
		path     string
		want     string
	}{
		{name: "root", basePath: "/", path: "/api/themes", want: "/api/themes"},
		{name: "root index", basePath: "/", path: "/", want: "/"},
		{name: "subpath", basePath: "/themekit", path: "/api/themes", want: "/themekit/api/themes"},
		{name: "subpath index", basePath: "/themekit", path: "/", want: "/themekit/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := &App{opts: Options{BasePath: tt.basePath}}
			got := app.route(tt.path)
			if got != tt.want {
				t.Fatalf("route(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestNewNormalizesBasePath(t *testing.T) {
	app, err := New(Options{BasePath: "https://example.com//preview/"}, nil, nil)
	if err != nil {
		t.Fatalf("New() unexpected error: %v", err)
	}
	if got := app.opts.BasePath; got != "/preview" {
		t.Fatalf("BasePath = %q, want %q", got, "/preview")
	}
	if got := app.opts.IconSize; got != defaultIconSize {
		t.Fatalf("IconSize = %d, want %d", got, defaultIconSize)
	}
}
