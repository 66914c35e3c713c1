package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/matthewsawatzky/themekit/internal/icon"
	"github.com/matthewsawatzky/themekit/internal/painter"
	"github.com/matthewsawatzky/themekit/internal/registry"
	"github.com/matthewsawatzky/themekit/internal/theme"
)

func summarize(d theme.Descriptor, active bool) themeSummary {
	return themeSummary{
		Name:        d.Name,
		DisplayName: d.Label(),
		Family:      d.FamilyName(),
		Tone:        d.Tone.String(),
		Contrast:    d.Contrast.String(),
		Active:      active,
	}
}

func statsOf(c *icon.Cache) cacheStats {
	if c == nil {
		return cacheStats{Size: humanize.Bytes(0)}
	}
	n := c.Bytes()
	return cacheStats{Entries: c.Len(), Bytes: n, Size: humanize.Bytes(uint64(n))}
}

func (a *App) handleStatus(w http.ResponseWriter, r *http.Request) {
	if !a.enforceMethod(w, r, http.MethodGet) {
		return
	}
	payload := map[string]any{
		"version":     a.opts.Version,
		"strict":      a.strict.Load(),
		"icons":       statsOf(a.reg.IconCache()),
		"themedIcons": statsOf(a.reg.ThemedCache()),
		"warnings":    len(a.reg.Warnings().List()),
		"missingKeys": a.missing.Len(),
	}
	if res := a.reg.Result(); res != nil {
		payload["theme"] = summarize(res.Descriptor, true)
		payload["palette"] = res.Key.Digest()
	}
	a.writeJSON(w, http.StatusOK, payload)
}

func (a *App) handleThemes(w http.ResponseWriter, r *http.Request) {
	if !a.enforceMethod(w, r, http.MethodGet) {
		return
	}
	current, hasCurrent := a.reg.Current()
	descriptors := a.reg.Descriptors()
	themes := make([]themeSummary, 0, len(descriptors))
	for _, d := range descriptors {
		themes = append(themes, summarize(d, hasCurrent && current.Name == d.Name))
	}
	a.writeJSON(w, http.StatusOK, map[string]any{"themes": themes})
}

// resultFor returns the active build for an empty name, else a fresh build of
// the named theme.
func (a *App) resultFor(name string) (*theme.Result, error) {
	if name == "" {
		res := a.reg.Result()
		if res == nil {
			return nil, registry.ErrNoActive
		}
		return res, nil
	}
	d, err := a.reg.Lookup(name)
	if err != nil {
		return nil, err
	}
	return a.reg.Engine().Build(d)
}

func (a *App) handleDefaults(w http.ResponseWriter, r *http.Request) {
	if !a.enforceMethod(w, r, http.MethodGet) {
		return
	}
	q := r.URL.Query()
	res, err := a.resultFor(strings.TrimSpace(q.Get("theme")))
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	defaults := res.Defaults
	if raw := strings.TrimSpace(q.Get("keys")); raw != "" {
		defaults = defaults.Subset(strings.Split(raw, ","))
	}
	prefix := q.Get("prefix")
	values := make(map[string]string, defaults.Len())
	for _, k := range defaults.Keys() {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		v, _ := defaults.Lookup(k)
		values[k] = v.String()
	}
	a.writeJSON(w, http.StatusOK, map[string]any{
		"theme":    res.Descriptor.Name,
		"palette":  res.Key.Digest(),
		"defaults": values,
	})
}

// handlePainters reports the painter parameters of the active theme. Missing
// keys fail in strict mode and fall back to sentinels otherwise.
func (a *App) handlePainters(w http.ResponseWriter, r *http.Request) {
	if !a.enforceMethod(w, r, http.MethodGet) {
		return
	}
	if a.reg.Result() == nil {
		a.writeErr(w, r, registry.ErrNoActive)
		return
	}
	l := a.reg.Lookups(a.strict.Load(), a.missing)
	header, err1 := painter.NewTableHeader(l)
	spinner, err2 := painter.NewSpinnerBorder(l)
	sep, err3 := painter.NewPopupSeparator(l)
	if err := errors.Join(err1, err2, err3); err != nil {
		a.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]any{
		"tableHeader": headerView{Background: header.Background, Border: header.Border, Height: header.Height},
		"spinnerBorder": spinnerView{
			Focus:            spinner.Focus,
			Active:           spinner.Active,
			Inactive:         spinner.Inactive,
			Arc:              spinner.Arc,
			Thickness:        spinner.Thickness,
			Insets:           spinner.Insets(false),
			CellEditorInsets: spinner.Insets(true),
		},
		"popupSeparator": separatorView{Color: sep.Color, Width: sep.Size.W, Height: sep.Size.H, LineY: sep.LineY()},
	})
}

func (a *App) handleInstall(w http.ResponseWriter, r *http.Request) {
	if !a.enforceMethod(w, r, http.MethodPost) {
		return
	}
	var req installRequest
	if err := decodeJSONBody(r, &req); err != nil {
		a.writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	req.Theme = strings.TrimSpace(req.Theme)
	if req.Theme == "" {
		a.writeError(w, http.StatusBadRequest, "theme is required")
		return
	}
	res, err := a.activate(req.Theme, req.Overrides)
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	if err := a.persist(r.Context(), "http:"+remoteIP(r), "install", req.Theme, req.Overrides, res); err != nil {
		a.logger.Error("persist active theme failed", "theme", req.Theme, "err", err)
	}
	a.writeJSON(w, http.StatusOK, map[string]any{
		"theme":   summarize(res.Descriptor, true),
		"palette": res.Key.Digest(),
	})
}
