package server

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/matthewsawatzky/themekit/internal/icon"
	"github.com/matthewsawatzky/themekit/internal/props"
	"github.com/matthewsawatzky/themekit/internal/theme"
)

const (
	minIconSize = 8
	maxIconSize = 512
)

func (a *App) handleIcons(w http.ResponseWriter, r *http.Request) {
	if !a.enforceMethod(w, r, http.MethodGet) {
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]any{
		"icons": a.library.Names(),
		"size":  a.opts.IconSize,
	})
}

func (a *App) parseIconSize(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return a.opts.IconSize, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < minIconSize || n > maxIconSize {
		return 0, fmt.Errorf("size must be an integer between %d and %d", minIconSize, maxIconSize)
	}
	return n, nil
}

// handleIcon renders one icon. Without a theme parameter it follows the active
// theme; the ETag changes whenever the palette does.
func (a *App) handleIcon(w http.ResponseWriter, r *http.Request) {
	if !a.enforceMethod(w, r, http.MethodGet) {
		return
	}
	q := r.URL.Query()
	tmpl, err := a.library.Get(strings.TrimSpace(q.Get("name")))
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	size, err := a.parseIconSize(q.Get("size"))
	if err != nil {
		a.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	format := strings.ToLower(strings.TrimSpace(q.Get("format")))
	if format == "" {
		format = "png"
	}
	if format != "png" && format != "bmp" {
		a.writeErr(w, r, fmt.Errorf("%w: %q", icon.ErrUnsupportedFormat, format))
		return
	}
	dim := props.Dimension{W: size, H: size}

	var (
		ic     icon.Icon
		digest string
	)
	if name := strings.TrimSpace(q.Get("theme")); name != "" {
		d, err := a.reg.Lookup(name)
		if err != nil {
			a.writeErr(w, r, err)
			return
		}
		if ic, err = a.reg.ThemedIcon(tmpl, dim, d); err != nil {
			a.writeErr(w, r, err)
			return
		}
		digest = theme.KeyOf(d).Digest()
	} else {
		res := a.reg.Result()
		if res == nil {
			a.writeError(w, http.StatusServiceUnavailable, "no active theme")
			return
		}
		ic = a.reg.Icon(tmpl, dim)
		digest = res.Key.Digest()
	}

	etag := strconv.Quote(digest + "-" + tmpl.ID + "-" + strconv.Itoa(size) + "." + format)
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	img, err := ic.Image()
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := icon.Encode(&buf, img, format); err != nil {
		a.writeErr(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/"+format)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
