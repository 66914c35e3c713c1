package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/matthewsawatzky/themekit/internal/db"
)

func (a *App) handleAdminSettings(w http.ResponseWriter, r *http.Request) {
	if a.store == nil {
		a.writeError(w, http.StatusServiceUnavailable, "settings store unavailable")
		return
	}
	ctx := r.Context()
	switch r.Method {
	case http.MethodGet:
		settings, err := a.store.GetAppSettings(ctx)
		if err != nil {
			a.writeErr(w, r, err)
			return
		}
		a.writeJSON(w, http.StatusOK, map[string]any{"settings": settings})
		return
	case http.MethodPost:
	default:
		w.Header().Set("Allow", "GET, POST")
		a.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var next db.AppSettings
	if err := decodeJSONBody(r, &next); err != nil {
		a.writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	next.ActiveTheme = strings.TrimSpace(next.ActiveTheme)
	if next.ActiveTheme == "" {
		a.writeError(w, http.StatusBadRequest, "active_theme is required")
		return
	}
	overrides, err := parseOverrides(next.ThemeOverridesJSON)
	if err != nil {
		a.writeError(w, http.StatusBadRequest, "invalid theme_overrides_json")
		return
	}
	res, err := a.activate(next.ActiveTheme, overrides)
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	a.strict.Store(next.StrictLookups)
	if err := a.persist(ctx, "http:"+remoteIP(r), "settings", next.ActiveTheme, overrides, res); err != nil {
		a.writeErr(w, r, err)
		return
	}
	settings, err := a.store.GetAppSettings(ctx)
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]any{"settings": settings, "palette": res.Key.Digest()})
}

func (a *App) handleAdminAudit(w http.ResponseWriter, r *http.Request) {
	if !a.enforceMethod(w, r, http.MethodGet) {
		return
	}
	if a.store == nil {
		a.writeJSON(w, http.StatusOK, map[string]any{"logs": []db.AuditLog{}})
		return
	}
	limit := 200
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 2000 {
			limit = n
		}
	}
	logs, err := a.store.ListAudit(r.Context(), limit)
	if err != nil {
		a.writeError(w, http.StatusInternalServerError, "failed to list audit logs")
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]any{"logs": logs})
}
