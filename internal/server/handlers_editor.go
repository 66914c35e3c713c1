package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/matthewsawatzky/themekit/internal/editor"
	"github.com/matthewsawatzky/themekit/internal/props"
	"github.com/matthewsawatzky/themekit/internal/registry"
)

func viewOf(s *editor.Session) sessionView {
	v := sessionView{
		ID:           s.ID(),
		Family:       s.Family(),
		Base:         s.Base().Name,
		Dark:         s.Dark(),
		HighContrast: s.HighContrast(),
		Revision:     s.Revision(),
		Layers:       map[string]map[string]string{},
	}
	for _, l := range editor.Layers {
		entries := map[string]string{}
		s.Layer(l).Each(func(key string, raw props.RawValue) {
			entries[key] = raw.String()
		})
		v.Layers[l.String()] = entries
	}
	return v
}

// session finds the session by id, else opens the one for the named theme's
// family, else the one for the active theme's family.
func (a *App) session(ctx context.Context, id, name string) (*editor.Session, error) {
	if id != "" {
		return a.workspace.Get(ctx, id)
	}
	if name == "" {
		current, ok := a.reg.Current()
		if !ok {
			return nil, registry.ErrNoActive
		}
		name = current.Name
	}
	d, err := a.reg.Lookup(name)
	if err != nil {
		return nil, err
	}
	return a.workspace.Open(ctx, d)
}

func (a *App) handleEditor(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		s, err := a.session(r.Context(), strings.TrimSpace(q.Get("session")), strings.TrimSpace(q.Get("theme")))
		if err != nil {
			a.writeErr(w, r, err)
			return
		}
		a.writeJSON(w, http.StatusOK, map[string]any{"session": viewOf(s)})
		return
	case http.MethodPost:
	default:
		w.Header().Set("Allow", "GET, POST")
		a.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req editRequest
	if err := decodeJSONBody(r, &req); err != nil {
		a.writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	ctx := r.Context()
	s, err := a.session(ctx, strings.TrimSpace(req.Session), strings.TrimSpace(req.Theme))
	if err != nil {
		a.writeErr(w, r, err)
		return
	}

	if req.Key != "" {
		l, err := editor.ParseLayer(req.Layer)
		if err != nil {
			a.writeErr(w, r, err)
			return
		}
		if req.Value == nil {
			s.Unset(l, req.Key)
		} else if err := s.Set(l, req.Key, *req.Value); err != nil {
			a.writeErr(w, r, err)
			return
		}
	}
	if req.Dark != nil {
		s.SetDark(*req.Dark)
	}
	if req.HighContrast != nil {
		s.SetHighContrast(*req.HighContrast)
	}

	payload := map[string]any{}
	if req.Apply {
		res, err := a.workspace.Apply(ctx, s)
		if err != nil {
			a.writeErr(w, r, err)
			return
		}
		payload["palette"] = res.Key.Digest()
	} else if err := a.workspace.Save(ctx, s); err != nil {
		a.writeErr(w, r, err)
		return
	}
	payload["session"] = viewOf(s)

	if req.Close {
		if err := a.workspace.Close(ctx, s, req.Discard); err != nil {
			a.writeErr(w, r, err)
			return
		}
		payload["closed"] = true
	}
	a.writeJSON(w, http.StatusOK, payload)
}
